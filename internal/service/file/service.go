package file

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"slices"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/storage"
	"github.com/google/uuid"
)

// PhotoPolicy constrains check-in selfies.
type PhotoPolicy struct {
	AllowedContentTypes []string
	MaxSizeBytes        int64
}

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type PhotoService interface {
	// Validate checks presence, content type and size of a photo.
	Validate(photo *attendance.Photo) error

	// Stage writes the photo to storage. The caller must defer Release on the
	// returned artifact and call Keep once the owning record is committed.
	Stage(ctx context.Context, employeeID string, day time.Time, photo attendance.Photo) (*StagedPhoto, error)

	URL(ctx context.Context, key string) (string, error)
}

type photoServiceImpl struct {
	storage storage.FileStorage
	policy  PhotoPolicy
}

func NewPhotoService(storage storage.FileStorage, policy PhotoPolicy) PhotoService {
	return &photoServiceImpl{
		storage: storage,
		policy:  policy,
	}
}

func (s *photoServiceImpl) Validate(photo *attendance.Photo) error {
	if photo == nil || len(photo.Data) == 0 {
		return attendance.ErrPhotoRequired
	}
	if !slices.Contains(s.policy.AllowedContentTypes, photo.ContentType) {
		return fmt.Errorf("%w: %s is not one of %v", attendance.ErrInvalidPhotoFormat, photo.ContentType, s.policy.AllowedContentTypes)
	}
	if _, ok := extensions[photo.ContentType]; !ok {
		return fmt.Errorf("%w: %s", attendance.ErrInvalidPhotoFormat, photo.ContentType)
	}

	size := photo.Size
	if size < int64(len(photo.Data)) {
		size = int64(len(photo.Data))
	}
	if size > s.policy.MaxSizeBytes {
		return &attendance.PhotoTooLargeError{Size: size, Max: s.policy.MaxSizeBytes}
	}
	return nil
}

func (s *photoServiceImpl) Stage(ctx context.Context, employeeID string, day time.Time, photo attendance.Photo) (*StagedPhoto, error) {
	key := path.Join("attendance", day.Format("2006-01-02"),
		fmt.Sprintf("%s_%s%s", uuid.NewString(), employeeID, extensions[photo.ContentType]))

	uploaded, err := s.storage.Upload(ctx, bytes.NewReader(photo.Data), key, photo.ContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to store attendance photo: %w", err)
	}

	return &StagedPhoto{Path: uploaded, storage: s.storage}, nil
}

func (s *photoServiceImpl) URL(ctx context.Context, key string) (string, error) {
	return s.storage.GetURL(ctx, key, 0)
}

// StagedPhoto is a stored artifact that is deleted on Release unless kept.
type StagedPhoto struct {
	Path    string
	storage storage.FileStorage
	kept    bool
}

func (p *StagedPhoto) Keep() {
	p.kept = true
}

// Release deletes the artifact unless Keep was called. It is safe to call more than once.
func (p *StagedPhoto) Release(ctx context.Context) {
	if p == nil || p.kept || p.storage == nil {
		return
	}
	// The request ctx may already be cancelled; cleanup must still run.
	if err := p.storage.Delete(context.WithoutCancel(ctx), p.Path); err != nil {
		slog.ErrorContext(ctx, "failed to delete orphaned attendance photo", "path", p.Path, "error", err)
		return
	}
	slog.WarnContext(ctx, "deleted orphaned attendance photo", "path", p.Path)
	p.storage = nil
}
