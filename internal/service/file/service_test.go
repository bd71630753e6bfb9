package file

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func photoServiceTestInit() (*storage.MemoryStorage, PhotoService) {
	store := storage.NewMemoryStorage("mem://")
	svc := NewPhotoService(store, PhotoPolicy{
		AllowedContentTypes: []string{"image/jpeg", "image/png"},
		MaxSizeBytes:        1024,
	})
	return store, svc
}

func TestPhotoService_Validate(t *testing.T) {
	_, svc := photoServiceTestInit()

	t.Run("missing photo", func(t *testing.T) {
		assert.ErrorIs(t, svc.Validate(nil), attendance.ErrPhotoRequired)
		assert.ErrorIs(t, svc.Validate(&attendance.Photo{ContentType: "image/jpeg"}), attendance.ErrPhotoRequired)
	})

	t.Run("wrong type", func(t *testing.T) {
		err := svc.Validate(&attendance.Photo{Data: []byte("gif"), ContentType: "image/gif", Size: 3})
		assert.ErrorIs(t, err, attendance.ErrInvalidPhotoFormat)
	})

	t.Run("too large", func(t *testing.T) {
		err := svc.Validate(&attendance.Photo{Data: make([]byte, 2048), ContentType: "image/png", Size: 2048})
		require.ErrorIs(t, err, attendance.ErrPhotoTooLarge)

		var sizeErr *attendance.PhotoTooLargeError
		require.True(t, errors.As(err, &sizeErr))
		assert.Equal(t, int64(2048), sizeErr.Size)
		assert.Equal(t, int64(1024), sizeErr.Max)
	})

	t.Run("declared size cannot understate data", func(t *testing.T) {
		err := svc.Validate(&attendance.Photo{Data: make([]byte, 2048), ContentType: "image/png", Size: 10})
		assert.ErrorIs(t, err, attendance.ErrPhotoTooLarge)
	})

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, svc.Validate(&attendance.Photo{Data: []byte("jpeg"), ContentType: "image/jpeg", Size: 4}))
	})
}

func TestPhotoService_StageReleaseKeep(t *testing.T) {
	ctx := context.Background()
	store, svc := photoServiceTestInit()
	day := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	photo := attendance.Photo{Data: []byte("jpeg"), ContentType: "image/jpeg", Size: 4}

	released, err := svc.Stage(ctx, "emp-1", day, photo)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(released.Path, "attendance/2023-06-01/"))
	assert.True(t, strings.HasSuffix(released.Path, "_emp-1.jpg"))
	released.Release(ctx)
	released.Release(ctx)
	assert.Empty(t, store.Keys())

	kept, err := svc.Stage(ctx, "emp-1", day, photo)
	require.NoError(t, err)
	kept.Keep()
	kept.Release(ctx)
	assert.Equal(t, []string{kept.Path}, store.Keys())

	url, err := svc.URL(ctx, kept.Path)
	require.NoError(t, err)
	assert.Equal(t, "mem://"+kept.Path, url)
}
