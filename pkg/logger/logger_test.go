package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeKVsRedactsCredentials(t *testing.T) {
	out := sanitizeKVs([]interface{}{"user_id", "u-1", "access_token", "abc", "Password", "hunter2", "dangling"})

	assert.Equal(t, []interface{}{"user_id", "u-1", "access_token", "[REDACTED]", "Password", "[REDACTED]", "dangling"}, out)
}

func TestNopLoggerIsUsable(t *testing.T) {
	log := Nop().With("component", "test")
	log.Info("hello", "key", "value")
	log.Sync()
}
