package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"imaginx-backend/internal/apperr"
	"imaginx-backend/internal/genstate"
	"imaginx-backend/internal/handlers"
	"imaginx-backend/internal/models"
)

func imageRouter(gen *fakeGenerator) (http.Handler, *genstate.Registry) {
	registry := genstate.NewRegistry(gen, time.Hour, discard)
	h := handlers.NewImageHandler(registry, gen)
	router := newRouter(testUser)
	router.POST("/images/generate", h.Generate)
	router.GET("/images/generation", h.Generation)
	router.POST("/images/store", h.Store)
	router.GET("/images", h.List)
	router.DELETE("/images/:id", h.Delete)
	return router, registry
}

func generationBody() models.GenerationRequest {
	return models.GenerationRequest{
		Model:             "black-forest-labs/flux-dev",
		Prompt:            "a fox",
		Guidance:          3.5,
		NumOutputs:        2,
		AspectRatio:       "1:1",
		OutputFormat:      "webp",
		OutputQuality:     80,
		NumInferenceSteps: 28,
	}
}

func decodeSnapshot(t *testing.T, w *httptest.ResponseRecorder) genstate.Snapshot {
	t.Helper()
	var snap genstate.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	return snap
}

func TestGeneration_IdleBeforeFirstSubmit(t *testing.T) {
	router, _ := imageRouter(&fakeGenerator{})

	w := doJSON(t, router, "GET", "/images/generation", nil)

	require.Equal(t, http.StatusOK, w.Code)
	snap := decodeSnapshot(t, w)
	assert.Equal(t, genstate.StateIdle, snap.State)
	assert.Empty(t, snap.Artifacts)
}

func TestGenerate_ReadyThenPersisted(t *testing.T) {
	gen := &fakeGenerator{urls: []string{"https://cdn.test/a.webp", "https://cdn.test/b.webp"}}
	router, registry := imageRouter(gen)

	w := doJSON(t, router, "POST", "/images/generate", generationBody())

	require.Equal(t, http.StatusOK, w.Code)
	snap := decodeSnapshot(t, w)
	assert.Equal(t, genstate.StateReady, snap.State)
	require.Len(t, snap.Artifacts, 2)
	assert.Equal(t, "a fox", snap.Artifacts[0].Prompt)

	registry.Wait()
	w = doJSON(t, router, "GET", "/images/generation", nil)
	snap = decodeSnapshot(t, w)
	assert.Equal(t, genstate.StateReady, snap.State)
	assert.False(t, snap.Persisting)
	require.Len(t, snap.Persistence, 2)
	assert.True(t, snap.Persistence[1].Success)
}

func TestGenerate_RejectsWhileLoading(t *testing.T) {
	gen := &fakeGenerator{
		urls:    []string{"https://cdn.test/a.webp"},
		release: make(chan struct{}),
		started: make(chan struct{}),
	}
	router, registry := imageRouter(gen)

	done := make(chan int)
	go func() {
		w := doJSON(t, router, "POST", "/images/generate", generationBody())
		done <- w.Code
	}()
	<-gen.started

	w := doJSON(t, router, "POST", "/images/generate", generationBody())
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, string(apperr.GenerationInFlight), decodeError(t, w).Error)

	close(gen.release)
	assert.Equal(t, http.StatusOK, <-done)
	registry.Wait()
}

func TestGenerate_ProviderError(t *testing.T) {
	gen := &fakeGenerator{err: apperr.E(apperr.Provider, "image generation failed")}
	router, _ := imageRouter(gen)

	w := doJSON(t, router, "POST", "/images/generate", generationBody())
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = doJSON(t, router, "GET", "/images/generation", nil)
	snap := decodeSnapshot(t, w)
	assert.Equal(t, genstate.StateError, snap.State)
	assert.Equal(t, "image generation failed", snap.Error)
}

func TestStoreImages(t *testing.T) {
	gen := &fakeGenerator{outcomes: []models.ArtifactOutcome{
		{URL: "https://cdn.test/a.webp", Success: true, ImageID: 1},
		{URL: "https://cdn.test/b.webp", Error: "failed to upload image"},
	}}
	router, _ := imageRouter(gen)

	body := models.StoreImagesRequest{GenerationRequest: generationBody(), URLs: []string{"https://cdn.test/a.webp", "https://cdn.test/b.webp"}}
	w := doJSON(t, router, "POST", "/images/store", body)

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.StoreImagesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.Len(t, resp.Results, 2)
	assert.True(t, resp.Results[0].Success)
	assert.Equal(t, "failed to upload image", resp.Results[1].Error)
}

func TestStoreImages_BindingLimits(t *testing.T) {
	router, _ := imageRouter(&fakeGenerator{})
	cases := map[string][]string{
		"no urls":      {},
		"too many":     {"https://cdn.test/0.png", "https://cdn.test/1.png", "https://cdn.test/2.png", "https://cdn.test/3.png", "https://cdn.test/4.png"},
		"not a url":    {"file-0.png"},
		"missing urls": nil,
	}

	for name, urls := range cases {
		t.Run(name, func(t *testing.T) {
			body := models.StoreImagesRequest{GenerationRequest: generationBody(), URLs: urls}
			w := doJSON(t, router, "POST", "/images/store", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestListAndDeleteImages(t *testing.T) {
	router, _ := imageRouter(&fakeGenerator{})

	w := doJSON(t, router, "GET", "/images", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list models.ImageListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Images, 1)
	assert.Equal(t, "https://storage.test/sign/7", list.Images[0].URL)

	assert.Equal(t, http.StatusOK, doJSON(t, router, "DELETE", "/images/7", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, router, "DELETE", "/images/8", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, router, "DELETE", "/images/x", nil).Code)
}
