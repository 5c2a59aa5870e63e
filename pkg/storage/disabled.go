package storage

import (
	"context"
	"errors"
	"io"
	"net/http"

	"anoa.com/kopilka/pkg/apperror"
)

// ErrNotConfigured is returned by every call on a Disabled storage.
var ErrNotConfigured = errors.New("file storage is not configured")

type disabledStorage struct{}

// Disabled returns a FileStorage that rejects all calls with a 503 AppError wrapping ErrNotConfigured.
func Disabled() FileStorage {
	return disabledStorage{}
}

func (disabledStorage) Upload(context.Context, io.Reader, string, string) (string, error) {
	return "", apperror.New(http.StatusServiceUnavailable, ErrNotConfigured.Error(), ErrNotConfigured)
}

func (disabledStorage) Delete(context.Context, string) error {
	return apperror.New(http.StatusServiceUnavailable, ErrNotConfigured.Error(), ErrNotConfigured)
}
