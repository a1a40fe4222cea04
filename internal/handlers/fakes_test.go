package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"imaginx-backend/internal/apperr"
	"imaginx-backend/internal/middleware"
	"imaginx-backend/internal/models"
	"imaginx-backend/internal/replicate"
	"imaginx-backend/internal/services"
)

var (
	testUser = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	discard  = zerolog.New(io.Discard)
)

// newRouter returns an engine whose requests are authenticated as user
// unless user is uuid.Nil.
func newRouter(user uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID(discard))
	r.Use(func(c *gin.Context) {
		if user != uuid.Nil {
			c.Set(middleware.UserIDKey, user.String())
		}
		c.Next()
	})
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

type fakeUploads struct {
	resp *models.SignUploadResponse
	err  error
	got  string
}

func (f *fakeUploads) CreateSignedUploadURL(ctx context.Context, userID uuid.UUID, fileName string) (*models.SignUploadResponse, error) {
	f.got = fileName
	return f.resp, f.err
}

type fakeTrainings struct {
	submitted []models.TrainingRequest
	submitErr error
	jobs      []models.TrainingJob
	deleted   []int64
	deleteErr error
}

func (f *fakeTrainings) SubmitTraining(ctx context.Context, userID uuid.UUID, req models.TrainingRequest) (*models.TrainingJob, error) {
	f.submitted = append(f.submitted, req)
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &models.TrainingJob{ID: 1, UserID: userID, ModelName: req.ModelName}, nil
}

func (f *fakeTrainings) ListModels(ctx context.Context, userID uuid.UUID) ([]models.TrainingJob, error) {
	return f.jobs, nil
}

func (f *fakeTrainings) DeleteModel(ctx context.Context, userID uuid.UUID, id int64) error {
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}

// fakeGenerator blocks Generate until release is closed when release is set.
type fakeGenerator struct {
	mu       sync.Mutex
	release  chan struct{}
	started  chan struct{}
	urls     []string
	err      error
	outcomes []models.ArtifactOutcome
}

func (f *fakeGenerator) Generate(ctx context.Context, userID uuid.UUID, req models.GenerationRequest) (*services.GenerationResult, error) {
	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	artifacts := make([]models.Artifact, len(f.urls))
	for i, u := range f.urls {
		artifacts[i] = models.Artifact{URL: u, GenerationRequest: req}
	}
	return &services.GenerationResult{Model: req.Model, Family: services.FamilyDev, Artifacts: artifacts}, nil
}

func (f *fakeGenerator) StoreImages(ctx context.Context, userID uuid.UUID, req models.GenerationRequest, urls []string) ([]models.ArtifactOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.outcomes != nil {
		return f.outcomes, nil
	}
	out := make([]models.ArtifactOutcome, len(urls))
	for i, u := range urls {
		out[i] = models.ArtifactOutcome{URL: u, Success: true, ImageID: int64(i + 1)}
	}
	return out, nil
}

func (f *fakeGenerator) ListImages(ctx context.Context, userID uuid.UUID) ([]models.ImageResponse, error) {
	return []models.ImageResponse{{ID: 7, Prompt: "a fox", URL: "https://storage.test/sign/7"}}, nil
}

func (f *fakeGenerator) DeleteImage(ctx context.Context, userID uuid.UUID, id int64) error {
	if id != 7 {
		return errNotFound
	}
	return nil
}

type fakeReconciler struct {
	mu     sync.Mutex
	calls  []services.CallbackContext
	status []string
	result *services.ReconcileResult
	err    error
}

func (f *fakeReconciler) HandleTrainingCallback(ctx context.Context, cc services.CallbackContext, payload *replicate.Training) (*services.ReconcileResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cc)
	f.status = append(f.status, payload.Status)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeAuth struct {
	signups  []models.SignupRequest
	loginErr error
}

func (f *fakeAuth) Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error) {
	f.signups = append(f.signups, req)
	return &models.AuthResponse{UserID: testUser.String(), Email: req.Email}, nil
}

func (f *fakeAuth) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &models.AuthResponse{UserID: testUser.String(), Email: req.Email, AccessToken: "jwt"}, nil
}

var (
	errBoom     = errors.New("boom")
	errNotFound = apperr.E(apperr.NotFound, "image not found")
)
