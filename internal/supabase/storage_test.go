package supabase_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"imaginx-backend/internal/supabase"
)

func TestNewStorageClient_RequiresCredentials(t *testing.T) {
	_, err := supabase.NewStorageClient("", "key")
	assert.Error(t, err)

	_, err = supabase.NewStorageClient("https://project.supabase.co", "")
	assert.Error(t, err)
}

func TestStorageClient_SignedUploadURLIsAbsolute(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"url":"/object/upload/sign/training-data/u1/1_photo.zip?token=abc"}`))
	}))
	defer srv.Close()

	client, err := supabase.NewStorageClient(srv.URL+"/", "service-key")
	require.NoError(t, err)

	signed, err := client.CreateSignedUploadURL("training-data", "u1/1_photo.zip")
	require.NoError(t, err)

	assert.Equal(t, srv.URL+"/storage/v1/object/upload/sign/training-data/u1/1_photo.zip?token=abc", signed)
	assert.True(t, strings.HasPrefix(gotPath, "/storage/v1/object/upload/sign/training-data/"))
	assert.Equal(t, "Bearer service-key", gotAuth)
}

func TestStorageClient_RemoveNothing(t *testing.T) {
	client, err := supabase.NewStorageClient("http://127.0.0.1:1", "service-key")
	require.NoError(t, err)
	assert.NoError(t, client.Remove("training-data"))
}
