package service

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"quill/internal/models"
	"quill/internal/repository"
)

const maxUploadSize = 10 << 20 // 10 MiB

// MediaService records per-user file uploads and manages the backing files
// under the media root.
type MediaService struct {
	mediaRepo repository.MediaRepository
	root      string
}

func NewMediaService(mediaRepo repository.MediaRepository, root string) *MediaService {
	return &MediaService{mediaRepo: mediaRepo, root: root}
}

// Upload stores the file through save and records it. save receives the
// absolute destination path.
func (s *MediaService) Upload(ctx context.Context, authorID uint, filename, contentType string, size int64, save func(dst string) error) (*models.Media, error) {
	if size <= 0 {
		return nil, models.NewFieldValidationError("Validation failed", models.Fields{"file": "file is empty"})
	}
	if size > maxUploadSize {
		return nil, models.NewFieldValidationError("Validation failed", models.Fields{"file": "file too large (max 10 MiB)"})
	}

	// Files nest under post_media/<authorID>/ so one user's uploads never
	// collide with another's.
	relPath := filepath.Join("post_media", strconv.FormatUint(uint64(authorID), 10),
		uuid.New().String()+filepath.Ext(filename))
	dst := filepath.Join(s.root, relPath)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := save(dst); err != nil {
		return nil, models.NewInternalError(err)
	}

	media := &models.Media{
		Path:        relPath,
		Filename:    filename,
		ContentType: contentType,
		Size:        size,
		AuthorID:    authorID,
	}
	if err := s.mediaRepo.Create(ctx, media); err != nil {
		return nil, models.NewInternalError(err)
	}
	return media, nil
}

func (s *MediaService) GetMedia(ctx context.Context, userID, id uint) (*models.Media, error) {
	media, err := s.mediaRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "Media")
	}
	if media.AuthorID != userID {
		return nil, models.NewNotFoundError("Media")
	}
	return media, nil
}

func (s *MediaService) ListMyMedia(ctx context.Context, userID uint, limit, offset int) ([]*models.Media, error) {
	media, err := s.mediaRepo.ListByAuthor(ctx, userID, limit, offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return media, nil
}

// DeleteMedia removes the record and best-effort deletes the backing file.
func (s *MediaService) DeleteMedia(ctx context.Context, userID, id uint) error {
	media, err := s.GetMedia(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.mediaRepo.Delete(ctx, id); err != nil {
		return models.NewInternalError(err)
	}
	_ = os.Remove(filepath.Join(s.root, media.Path))
	return nil
}
