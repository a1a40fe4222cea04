package services_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"imaginx-backend/internal/apperr"
	"imaginx-backend/internal/models"
	"imaginx-backend/internal/notify"
	"imaginx-backend/internal/replicate"
	"imaginx-backend/internal/services"
)

var discard = zerolog.New(io.Discard)

func testPolicy() services.ProviderPolicy {
	return services.ProviderPolicy{Timeout: 5 * time.Second, MaxRetries: 3, Backoff: []time.Duration{time.Millisecond}}
}

type fakeStorage struct {
	mu         sync.Mutex
	uploads    map[string][]byte
	removed    []string
	failUpload map[string]bool
	signErr    error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{uploads: map[string][]byte{}, failUpload: map[string]bool{}}
}

func (f *fakeStorage) CreateSignedUploadURL(bucket, path string) (string, error) {
	if f.signErr != nil {
		return "", f.signErr
	}
	return "https://storage.test/upload/" + bucket + "/" + path + "?token=t", nil
}

func (f *fakeStorage) CreateSignedURL(bucket, path string, expiresIn int) (string, error) {
	if f.signErr != nil {
		return "", f.signErr
	}
	return fmt.Sprintf("https://storage.test/sign/%s/%s?expires=%d", bucket, path, expiresIn), nil
}

func (f *fakeStorage) Upload(bucket, path string, data []byte, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpload[string(data)] {
		return errors.New("storage unavailable")
	}
	f.uploads[bucket+"/"+path] = data
	return nil
}

func (f *fakeStorage) Remove(bucket string, paths ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range paths {
		f.removed = append(f.removed, bucket+"/"+p)
	}
	return nil
}

// fakeTrainingStore applies the same transition rule as the SQL store.
type fakeTrainingStore struct {
	mu        sync.Mutex
	jobs      []*models.TrainingJob
	nextID    int64
	createErr error
}

func (f *fakeTrainingStore) CreateTrainingJob(ctx context.Context, job *models.TrainingJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	job.ID = f.nextID
	job.CreatedAt = time.Now()
	cp := *job
	f.jobs = append(f.jobs, &cp)
	return nil
}

func (f *fakeTrainingStore) ListTrainingJobs(ctx context.Context, userID uuid.UUID) ([]models.TrainingJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.TrainingJob{}
	for i := len(f.jobs) - 1; i >= 0; i-- {
		if f.jobs[i].UserID == userID {
			out = append(out, *f.jobs[i])
		}
	}
	return out, nil
}

func (f *fakeTrainingStore) find(match func(*models.TrainingJob) bool) (*models.TrainingJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.jobs) - 1; i >= 0; i-- {
		if match(f.jobs[i]) {
			cp := *f.jobs[i]
			return &cp, nil
		}
	}
	return nil, apperr.E(apperr.NotFound, "training job not found")
}

func (f *fakeTrainingStore) GetTrainingJob(ctx context.Context, id int64, userID uuid.UUID) (*models.TrainingJob, error) {
	return f.find(func(j *models.TrainingJob) bool { return j.ID == id && j.UserID == userID })
}

func (f *fakeTrainingStore) GetJobByTrainingID(ctx context.Context, trainingID string) (*models.TrainingJob, error) {
	return f.find(func(j *models.TrainingJob) bool { return j.TrainingID == trainingID })
}

func (f *fakeTrainingStore) GetJobByModelName(ctx context.Context, userID uuid.UUID, modelName string) (*models.TrainingJob, error) {
	return f.find(func(j *models.TrainingJob) bool { return j.UserID == userID && j.ModelName == modelName })
}

func (f *fakeTrainingStore) GetJobByModelID(ctx context.Context, userID uuid.UUID, modelID string) (*models.TrainingJob, error) {
	return f.find(func(j *models.TrainingJob) bool { return j.UserID == userID && j.ModelID == modelID })
}

func (f *fakeTrainingStore) ListPendingJobs(ctx context.Context) ([]models.TrainingJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.TrainingJob{}
	for _, j := range f.jobs {
		if !j.TrainingStatus.IsTerminal() && j.TrainingID != "" {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (f *fakeTrainingStore) TransitionTrainingJob(ctx context.Context, id int64, outcome models.TrainingOutcome) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, j := range f.jobs {
		if j.ID != id {
			continue
		}
		if !j.TrainingStatus.CanTransitionTo(outcome.Status) {
			return false, nil
		}
		j.TrainingStatus = outcome.Status
		if outcome.Version != "" {
			j.Version = sql.NullString{String: outcome.Version, Valid: true}
		}
		if outcome.TrainingTime != nil {
			j.TrainingTime = sql.NullFloat64{Float64: *outcome.TrainingTime, Valid: true}
		}
		return true, nil
	}
	return false, nil
}

func (f *fakeTrainingStore) DeleteTrainingJob(ctx context.Context, id int64, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, j := range f.jobs {
		if j.ID == id && j.UserID == userID {
			f.jobs = append(f.jobs[:i], f.jobs[i+1:]...)
			return nil
		}
	}
	return apperr.E(apperr.NotFound, "training job not found")
}

func (f *fakeTrainingStore) get(id int64) models.TrainingJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, j := range f.jobs {
		if j.ID == id {
			return *j
		}
	}
	return models.TrainingJob{}
}

type fakeImageStore struct {
	mu     sync.Mutex
	images []models.GeneratedImage
	nextID int64
}

func (f *fakeImageStore) CreateGeneratedImage(ctx context.Context, img *models.GeneratedImage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	img.ID = f.nextID
	f.images = append(f.images, *img)
	return nil
}

func (f *fakeImageStore) ListImages(ctx context.Context, userID uuid.UUID) ([]models.GeneratedImage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.GeneratedImage{}
	for _, img := range f.images {
		if img.UserID == userID {
			out = append(out, img)
		}
	}
	return out, nil
}

func (f *fakeImageStore) GetImage(ctx context.Context, id int64, userID uuid.UUID) (*models.GeneratedImage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, img := range f.images {
		if img.ID == id && img.UserID == userID {
			cp := img
			return &cp, nil
		}
	}
	return nil, apperr.E(apperr.NotFound, "image not found")
}

func (f *fakeImageStore) DeleteImage(ctx context.Context, id int64, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, img := range f.images {
		if img.ID == id && img.UserID == userID {
			f.images = append(f.images[:i], f.images[i+1:]...)
			return nil
		}
	}
	return apperr.E(apperr.NotFound, "image not found")
}

type createdTraining struct {
	owner, model, version string
	req                   replicate.CreateTrainingRequest
}

type fakeProvider struct {
	mu sync.Mutex

	createdModels    []replicate.CreateModelRequest
	deletedModels    []string
	deletedVersions  []string
	trainings        []createdTraining
	predictions      []map[string]interface{}
	predictionModels []string

	createModelErr    error
	createTrainingErr error
	runErr            error
	runDelay          time.Duration
	outputs           []string
	downloads         map[string][]byte
	downloadErr       map[string]error

	listPages    []replicate.TrainingPage
	getTrainings map[string]*replicate.Training
}

func (f *fakeProvider) CreateModel(ctx context.Context, req replicate.CreateModelRequest) (*replicate.Model, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createdModels = append(f.createdModels, req)
	if f.createModelErr != nil {
		return nil, f.createModelErr
	}
	return &replicate.Model{Owner: req.Owner, Name: req.Name, Visibility: req.Visibility}, nil
}

func (f *fakeProvider) DeleteModel(ctx context.Context, owner, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedModels = append(f.deletedModels, owner+"/"+name)
	return nil
}

func (f *fakeProvider) DeleteModelVersion(ctx context.Context, owner, name, version string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedVersions = append(f.deletedVersions, owner+"/"+name+":"+version)
	return nil
}

func (f *fakeProvider) CreateTraining(ctx context.Context, owner, model, version string, req replicate.CreateTrainingRequest) (*replicate.Training, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createTrainingErr != nil {
		return nil, f.createTrainingErr
	}
	f.trainings = append(f.trainings, createdTraining{owner, model, version, req})
	return &replicate.Training{ID: fmt.Sprintf("tr_%d", len(f.trainings)), Status: "starting"}, nil
}

func (f *fakeProvider) GetTraining(ctx context.Context, id string) (*replicate.Training, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.getTrainings[id]; ok {
		return t, nil
	}
	return nil, &replicate.APIError{StatusCode: 404, Detail: "not found"}
}

func (f *fakeProvider) ListTrainings(ctx context.Context, cursor string) (*replicate.TrainingPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := 0
	if cursor != "" {
		fmt.Sscanf(cursor, "page-%d", &idx)
	}
	if idx >= len(f.listPages) {
		return &replicate.TrainingPage{}, nil
	}
	page := f.listPages[idx]
	return &page, nil
}

func (f *fakeProvider) Run(ctx context.Context, model string, input interface{}) (*replicate.Prediction, error) {
	f.mu.Lock()
	f.predictionModels = append(f.predictionModels, model)
	f.predictions = append(f.predictions, input.(map[string]interface{}))
	delay, runErr, outputs := f.runDelay, f.runErr, f.outputs
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	if runErr != nil {
		return nil, runErr
	}
	raw := `[`
	for i, o := range outputs {
		if i > 0 {
			raw += ","
		}
		raw += `"` + o + `"`
	}
	raw += `]`
	return &replicate.Prediction{ID: "p1", Status: "succeeded", Output: []byte(raw)}, nil
}

func (f *fakeProvider) DownloadFile(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.downloadErr[url]; err != nil {
		return nil, err
	}
	data, ok := f.downloads[url]
	if !ok {
		return nil, &replicate.APIError{StatusCode: 404}
	}
	return data, nil
}

func (f *fakeProvider) calls() (modelCalls, trainingCalls, predictionCalls int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.createdModels), len(f.trainings), len(f.predictions)
}

type fakeDirectory struct {
	users map[uuid.UUID]models.UserContact
	err   error
}

func (f *fakeDirectory) LookupUser(ctx context.Context, userID uuid.UUID) (*models.UserContact, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[userID]
	if !ok {
		return nil, apperr.E(apperr.UnknownUser, "user not found")
	}
	return &u, nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notify.TrainingNotification
	err  error
}

func (f *fakeNotifier) NotifyTraining(ctx context.Context, n notify.TrainingNotification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, n)
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}
