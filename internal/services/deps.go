package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"imaginx-backend/internal/apperr"
	"imaginx-backend/internal/metrics"
	"imaginx-backend/internal/models"
	"imaginx-backend/internal/notify"
	"imaginx-backend/internal/replicate"
)

type ObjectStore interface {
	CreateSignedUploadURL(bucket, path string) (string, error)
	CreateSignedURL(bucket, path string, expiresIn int) (string, error)
	Upload(bucket, path string, data []byte, contentType string) error
	Remove(bucket string, paths ...string) error
}

type TrainingStore interface {
	CreateTrainingJob(ctx context.Context, job *models.TrainingJob) error
	ListTrainingJobs(ctx context.Context, userID uuid.UUID) ([]models.TrainingJob, error)
	GetTrainingJob(ctx context.Context, id int64, userID uuid.UUID) (*models.TrainingJob, error)
	GetJobByTrainingID(ctx context.Context, trainingID string) (*models.TrainingJob, error)
	GetJobByModelName(ctx context.Context, userID uuid.UUID, modelName string) (*models.TrainingJob, error)
	GetJobByModelID(ctx context.Context, userID uuid.UUID, modelID string) (*models.TrainingJob, error)
	ListPendingJobs(ctx context.Context) ([]models.TrainingJob, error)
	TransitionTrainingJob(ctx context.Context, id int64, outcome models.TrainingOutcome) (bool, error)
	DeleteTrainingJob(ctx context.Context, id int64, userID uuid.UUID) error
}

type ImageStore interface {
	CreateGeneratedImage(ctx context.Context, img *models.GeneratedImage) error
	ListImages(ctx context.Context, userID uuid.UUID) ([]models.GeneratedImage, error)
	GetImage(ctx context.Context, id int64, userID uuid.UUID) (*models.GeneratedImage, error)
	DeleteImage(ctx context.Context, id int64, userID uuid.UUID) error
}

// Provider is the subset of the Replicate API the services use.
type Provider interface {
	CreateModel(ctx context.Context, req replicate.CreateModelRequest) (*replicate.Model, error)
	DeleteModel(ctx context.Context, owner, name string) error
	DeleteModelVersion(ctx context.Context, owner, name, version string) error
	CreateTraining(ctx context.Context, owner, model, version string, req replicate.CreateTrainingRequest) (*replicate.Training, error)
	GetTraining(ctx context.Context, id string) (*replicate.Training, error)
	ListTrainings(ctx context.Context, cursor string) (*replicate.TrainingPage, error)
	Run(ctx context.Context, model string, input interface{}) (*replicate.Prediction, error)
	DownloadFile(ctx context.Context, url string) ([]byte, error)
}

type UserDirectory interface {
	LookupUser(ctx context.Context, userID uuid.UUID) (*models.UserContact, error)
}

type Notifier interface {
	NotifyTraining(ctx context.Context, n notify.TrainingNotification) error
}

// ProviderPolicy bounds every provider call with a timeout and retries
// transient failures of calls that are safe to repeat.
type ProviderPolicy struct {
	Timeout    time.Duration
	MaxRetries int
	Backoff    []time.Duration
}

func DefaultProviderPolicy() ProviderPolicy {
	return ProviderPolicy{
		Timeout:    120 * time.Second,
		MaxRetries: 3,
		Backoff:    []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
	}
}

func (p ProviderPolicy) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.Timeout)
}

// call retries fn on transient errors. Use it for reads and deletes.
func (p ProviderPolicy) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	timer := prometheus.NewTimer(metrics.ProviderDuration.WithLabelValues(op))
	defer timer.ObserveDuration()

	return replicate.Retry(ctx, p.MaxRetries, p.Backoff, func() error {
		return fn(ctx)
	})
}

// callOnce never retries. Use it for calls that create provider resources.
func (p ProviderPolicy) callOnce(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	timer := prometheus.NewTimer(metrics.ProviderDuration.WithLabelValues(op))
	defer timer.ObserveDuration()

	return fn(ctx)
}

// providerError classifies a failed provider call.
func providerError(kind apperr.Kind, msg string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Wrap(apperr.ProviderTimeout, msg+": provider timed out", err)
	}
	return apperr.Wrap(kind, msg, err)
}
