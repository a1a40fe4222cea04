package supabase

import (
	"bytes"
	"fmt"
	"strings"

	storage "github.com/supabase-community/storage-go"
)

type StorageClient struct {
	client     *storage.Client
	storageURL string
}

func NewStorageClient(supabaseURL, serviceRoleKey string) (*StorageClient, error) {
	if supabaseURL == "" || serviceRoleKey == "" {
		return nil, fmt.Errorf("supabase url and service role key are required")
	}
	storageURL := strings.TrimSuffix(supabaseURL, "/") + "/storage/v1"
	client := storage.NewClient(storageURL, serviceRoleKey, nil)

	return &StorageClient{
		client:     client,
		storageURL: storageURL,
	}, nil
}

// CreateSignedUploadURL returns an absolute URL the browser can PUT the object to.
func (s *StorageClient) CreateSignedUploadURL(bucket, path string) (string, error) {
	resp, err := s.client.CreateSignedUploadUrl(bucket, path)
	if err != nil {
		return "", fmt.Errorf("failed to create signed upload url: %w", err)
	}
	return s.absolute(resp.Url), nil
}

func (s *StorageClient) CreateSignedURL(bucket, path string, expiresIn int) (string, error) {
	resp, err := s.client.CreateSignedUrl(bucket, path, expiresIn)
	if err != nil {
		return "", fmt.Errorf("failed to create signed url: %w", err)
	}
	return resp.SignedURL, nil
}

// Upload stores data without overwriting an existing object.
func (s *StorageClient) Upload(bucket, path string, data []byte, contentType string) error {
	cacheControl := "3600"
	upsert := false
	_, err := s.client.UploadFile(bucket, path, bytes.NewReader(data), storage.FileOptions{
		CacheControl: &cacheControl,
		ContentType:  &contentType,
		Upsert:       &upsert,
	})
	if err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}
	return nil
}

func (s *StorageClient) Remove(bucket string, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	if _, err := s.client.RemoveFile(bucket, paths); err != nil {
		return fmt.Errorf("failed to delete files: %w", err)
	}
	return nil
}

func (s *StorageClient) absolute(u string) string {
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	if !strings.HasPrefix(u, "/") {
		u = "/" + u
	}
	return s.storageURL + u
}
