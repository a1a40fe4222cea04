package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"imaginx-backend/internal/apperr"
	"imaginx-backend/internal/services"
)

func TestCreateSignedUploadURL(t *testing.T) {
	storage := newFakeStorage()
	svc := services.NewUploadService(storage, "training-data").WithClock(func() time.Time { return fixedTime })

	resp, err := svc.CreateSignedUploadURL(context.Background(), userU1, "photos.zip")
	require.NoError(t, err)

	path := userU1.String() + "/1700000000000_photos.zip"
	assert.Equal(t, "training-data/"+path, resp.FileKey)
	assert.Equal(t, "https://storage.test/upload/training-data/"+path+"?token=t", resp.SignedURL)
	assert.Empty(t, storage.uploads)
}

func TestCreateSignedUploadURL_Unauthenticated(t *testing.T) {
	svc := services.NewUploadService(newFakeStorage(), "training-data")

	_, err := svc.CreateSignedUploadURL(context.Background(), uuid.Nil, "photos.zip")
	assert.True(t, apperr.IsKind(err, apperr.Unauthenticated))
}

func TestCreateSignedUploadURL_RejectsBadNames(t *testing.T) {
	svc := services.NewUploadService(newFakeStorage(), "training-data")

	for _, name := range []string{"", "  ", "../etc/passwd", "a/b.zip", `a\b.zip`, "..", strings.Repeat("x", 256)} {
		_, err := svc.CreateSignedUploadURL(context.Background(), userU1, name)
		assert.True(t, apperr.IsKind(err, apperr.Validation), "name %q", name)
	}
}

func TestCreateSignedUploadURL_StorageFailure(t *testing.T) {
	storage := newFakeStorage()
	storage.signErr = errors.New("bucket not found")
	svc := services.NewUploadService(storage, "training-data")

	_, err := svc.CreateSignedUploadURL(context.Background(), userU1, "photos.zip")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket not found")
}
