// Package services provides media index orchestration
package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/AtRiskMedia/sitekeep/internal/domain/entities/admin"
	"github.com/AtRiskMedia/sitekeep/internal/domain/entities/content"
	"github.com/AtRiskMedia/sitekeep/internal/domain/repositories"
	domainservices "github.com/AtRiskMedia/sitekeep/internal/domain/services"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/security"
)

// ErrInvalidMediaFile is returned when a media registration has no object path.
var ErrInvalidMediaFile = errors.New("path is required")

// MediaService registers stored objects in the media index and removes them again.
type MediaService struct {
	files       repositories.MediaFileRepository
	store       repositories.ObjectStore
	revalidator Revalidator
	logger      *logging.ChanneledLogger
}

// NewMediaService creates a new media service singleton
func NewMediaService(files repositories.MediaFileRepository, store repositories.ObjectStore, revalidator Revalidator, logger *logging.ChanneledLogger) *MediaService {
	return &MediaService{
		files:       files,
		store:       store,
		revalidator: revalidator,
		logger:      logger,
	}
}

func (s *MediaService) List(ctx context.Context) ([]*content.MediaFile, error) {
	files, err := s.files.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if files == nil {
		files = []*content.MediaFile{}
	}
	return files, nil
}

// Register indexes an object that already exists in the object store. Size, MIME type,
// filename and URL default to what the store reports.
func (s *MediaService) Register(ctx context.Context, file *content.MediaFile) (*content.MediaFile, *admin.RevalidationResult, error) {
	file.Path = strings.Trim(strings.TrimSpace(file.Path), "/")
	if file.Path == "" {
		return nil, nil, ErrInvalidMediaFile
	}

	info, err := s.store.Stat(ctx, file.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot register %s: %w", file.Path, err)
	}

	if file.ID == "" {
		file.ID = security.GenerateULID()
	}
	if file.Filename == "" {
		file.Filename = path.Base(file.Path)
	}
	if file.URL == "" {
		file.URL = s.store.PublicURL(file.Path)
	}
	if file.MimeType == "" {
		file.MimeType = info.ContentType
	}
	if file.Size == 0 {
		file.Size = info.Size
	}
	if file.UploadedAt == "" {
		file.UploadedAt = time.Now().UTC().Format(time.RFC3339)
	}

	if err := s.files.Store(ctx, file); err != nil {
		return nil, nil, err
	}
	s.logger.Storage().Info("Media file registered", "id", file.ID, "path", file.Path, "size", file.Size)

	result, err := s.revalidator.Trigger(ctx, domainservices.ContentTypeMedia, "")
	return file, result, err
}

// Delete removes the index row and, when deleteObject is set, the stored object too.
// A missing object is not an error.
func (s *MediaService) Delete(ctx context.Context, id string, deleteObject bool) (*admin.RevalidationResult, error) {
	file, err := s.files.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, fmt.Errorf("media file %s: %w", id, repositories.ErrNotFound)
	}

	if err := s.files.Delete(ctx, id); err != nil {
		return nil, err
	}

	if deleteObject {
		if err := s.store.Delete(ctx, file.Path); err != nil && !errors.Is(err, repositories.ErrObjectNotFound) {
			s.logger.Storage().Error("Failed to delete object for removed media file", "id", id, "path", file.Path, "error", err)
		}
	}
	s.logger.Storage().Info("Media file deleted", "id", id, "path", file.Path, "objectDeleted", deleteObject)

	return s.revalidator.Trigger(ctx, domainservices.ContentTypeMedia, "")
}
