package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"imaginx-backend/internal/apperr"
	"imaginx-backend/internal/models"
)

type UploadService struct {
	storage ObjectStore
	bucket  string
	now     func() time.Time
}

func NewUploadService(storage ObjectStore, bucket string) *UploadService {
	return &UploadService{storage: storage, bucket: bucket, now: time.Now}
}

func (s *UploadService) WithClock(now func() time.Time) *UploadService {
	s.now = now
	return s
}

// CreateSignedUploadURL issues a one-time upload URL for
// {userId}/{unixMillis}_{fileName} in the training bucket. Nothing is written
// until the caller uploads to it.
func (s *UploadService) CreateSignedUploadURL(ctx context.Context, userID uuid.UUID, fileName string) (*models.SignUploadResponse, error) {
	if userID == uuid.Nil {
		return nil, apperr.E(apperr.Unauthenticated, "user not authenticated")
	}
	fileName = strings.TrimSpace(fileName)
	if err := validateFileName(fileName); err != nil {
		return nil, err
	}

	path := fmt.Sprintf("%s/%d_%s", userID, s.now().UnixMilli(), fileName)
	signedURL, err := s.storage.CreateSignedUploadURL(s.bucket, path)
	if err != nil {
		return nil, apperr.Wrap(apperr.Persistence, "failed to create upload url", err)
	}

	return &models.SignUploadResponse{
		SignedURL: signedURL,
		FileKey:   s.bucket + "/" + path,
	}, nil
}

func validateFileName(name string) error {
	switch {
	case name == "":
		return apperr.E(apperr.Validation, "file name is required")
	case strings.ContainsAny(name, `/\`), name == ".", strings.Contains(name, ".."):
		return apperr.E(apperr.Validation, "file name must not contain path separators")
	case len(name) > 255:
		return apperr.E(apperr.Validation, "file name is too long")
	}
	return nil
}
