package attachment

import (
	"context"
	"fmt"
	"mime/multipart"
	"slices"
	"time"

	"anoa.com/kopilka/internal/entity"
	"anoa.com/kopilka/internal/modules/attachment/dto"
	"anoa.com/kopilka/internal/modules/attachment/repository"
	"anoa.com/kopilka/pkg/apperror"
	"anoa.com/kopilka/pkg/logger"
	"anoa.com/kopilka/pkg/storage"
	"github.com/google/uuid"
)

const (
	MaxFileSize = 5 << 20
	// OrphanAge is how long an unlinked upload is kept before cleanup deletes it.
	OrphanAge = 24 * time.Hour
)

var allowedTypes = []string{"image/jpeg", "image/png", "image/webp", "application/pdf"}

type AttachmentService interface {
	UploadAttachment(ctx context.Context, userID uuid.UUID, file *multipart.FileHeader) (*dto.AttachmentResponse, error)
	// CleanupOrphanAttachments removes unlinked uploads and reports how many were deleted.
	CleanupOrphanAttachments(ctx context.Context) (int, error)
}

type attachmentService struct {
	repo    repository.AttachmentRepository
	storage storage.FileStorage
	folder  string
	log     *logger.Logger
	now     func() time.Time
}

func NewAttachmentService(repo repository.AttachmentRepository, fileStorage storage.FileStorage, folder string, log *logger.Logger) AttachmentService {
	return &attachmentService{
		repo:    repo,
		storage: fileStorage,
		folder:  folder + "/attachments",
		log:     log.With("service", "AttachmentService"),
		now:     time.Now,
	}
}

func (s *attachmentService) UploadAttachment(ctx context.Context, userID uuid.UUID, file *multipart.FileHeader) (*dto.AttachmentResponse, error) {
	if file.Size > MaxFileSize {
		return nil, fmt.Errorf("file larger than %d MB: %w", MaxFileSize>>20, apperror.ErrInvalidInput)
	}
	contentType := file.Header.Get("Content-Type")
	if !slices.Contains(allowedTypes, contentType) {
		return nil, fmt.Errorf("file type %q not allowed: %w", contentType, apperror.ErrInvalidInput)
	}

	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	url, err := s.storage.Upload(ctx, f, s.folder, file.Filename)
	if err != nil {
		return nil, err
	}

	attachment := &entity.Attachment{
		UserID:   userID,
		FileURL:  url,
		FileType: contentType,
	}
	if err := s.repo.Create(ctx, attachment); err != nil {
		if delErr := s.storage.Delete(ctx, url); delErr != nil {
			s.log.Warn("failed to remove upload after db error", "url", url, "error", delErr)
		}
		return nil, apperror.Storage("create attachment", err)
	}

	return &dto.AttachmentResponse{
		ID:       attachment.ID,
		FileURL:  attachment.FileURL,
		FileType: attachment.FileType,
	}, nil
}

func (s *attachmentService) CleanupOrphanAttachments(ctx context.Context) (int, error) {
	orphans, err := s.repo.FindOrphans(ctx, s.now().Add(-OrphanAge))
	if err != nil {
		return 0, apperror.Storage("find orphan attachments", err)
	}

	deleted := 0
	for _, orphan := range orphans {
		if err := s.storage.Delete(ctx, orphan.FileURL); err != nil {
			s.log.Warn("failed to delete orphan file", "attachment_id", orphan.ID, "error", err)
			continue
		}
		// A failed row delete is retried on the next run.
		if err := s.repo.Delete(ctx, orphan.ID); err != nil {
			s.log.Warn("failed to delete orphan row", "attachment_id", orphan.ID, "error", err)
			continue
		}
		deleted++
	}
	return deleted, nil
}
