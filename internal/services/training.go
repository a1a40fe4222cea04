package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"imaginx-backend/internal/apperr"
	"imaginx-backend/internal/metrics"
	"imaginx-backend/internal/models"
	"imaginx-backend/internal/replicate"
)

const (
	TriggerWord        = "omzx"
	TrainingSteps      = 1200
	TrainingResolution = "1024"
	// Expiry of the read URL handed to the trainer, in seconds.
	TrainingDataURLExpiry = 3600

	WebhookPath = "/api/webhooks/training"
)

var allowedGenders = map[string]bool{"man": true, "woman": true}

type TrainingConfig struct {
	Owner          string
	TrainerOwner   string
	TrainerModel   string
	TrainerVersion string
	Hardware       string
	Bucket         string
	SiteURL        string
}

type TrainingService struct {
	cfg      TrainingConfig
	provider Provider
	storage  ObjectStore
	store    TrainingStore
	policy   ProviderPolicy
	logger   zerolog.Logger
	now      func() time.Time
}

func NewTrainingService(cfg TrainingConfig, provider Provider, storage ObjectStore, store TrainingStore, policy ProviderPolicy, logger zerolog.Logger) *TrainingService {
	return &TrainingService{
		cfg:      cfg,
		provider: provider,
		storage:  storage,
		store:    store,
		policy:   policy,
		logger:   logger.With().Str("component", "training").Logger(),
		now:      time.Now,
	}
}

// WithClock replaces the time source used for model ids.
func (s *TrainingService) WithClock(now func() time.Time) *TrainingService {
	s.now = now
	return s
}

// NormalizeModelName lower-cases name and joins whitespace runs with "_".
// Characters the provider rejects in model names are dropped.
func NormalizeModelName(name string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsSpace(r):
			space = true
			continue
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.':
		default:
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte('_')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

// ModelID builds the provider-facing id {userId}_{unixMillis}_{normalizedName}.
func ModelID(userID uuid.UUID, at time.Time, modelName string) string {
	return fmt.Sprintf("%s_%d_%s", userID, at.UnixMilli(), NormalizeModelName(modelName))
}

// CallbackURL is the webhook the provider calls when the training completes.
func CallbackURL(siteURL string, userID uuid.UUID, modelName, fileName string) string {
	q := url.Values{}
	q.Set("userId", userID.String())
	q.Set("modelName", modelName)
	q.Set("fileName", fileName)
	return strings.TrimSuffix(siteURL, "/") + WebhookPath + "?" + q.Encode()
}

// ownsObject reports whether path lies inside the caller's upload namespace.
func ownsObject(userID uuid.UUID, path string) bool {
	prefix := userID.String() + "/"
	if !strings.HasPrefix(path, prefix) || len(path) == len(prefix) {
		return false
	}
	for _, part := range strings.Split(path, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}

func validateTrainingRequest(req models.TrainingRequest) error {
	if strings.TrimSpace(req.FileKey) == "" {
		return apperr.E(apperr.Validation, "fileKey is required")
	}
	if strings.TrimSpace(req.ModelName) == "" {
		return apperr.E(apperr.Validation, "modelName is required")
	}
	if NormalizeModelName(req.ModelName) == "" {
		return apperr.E(apperr.Validation, "modelName must contain letters or digits")
	}
	if !allowedGenders[req.Gender] {
		return apperr.E(apperr.Validation, "gender must be man or woman")
	}
	return nil
}

// SubmitTraining registers a private model with the provider, starts a LoRA
// training run on the uploaded archive and records the job. No row is
// written unless every provider step succeeded.
func (s *TrainingService) SubmitTraining(ctx context.Context, userID uuid.UUID, req models.TrainingRequest) (job *models.TrainingJob, err error) {
	defer func() {
		metrics.TrainingSubmissions.WithLabelValues(metrics.Result(err)).Inc()
	}()

	if userID == uuid.Nil {
		return nil, apperr.E(apperr.Unauthenticated, "user not authenticated")
	}
	if err := validateTrainingRequest(req); err != nil {
		return nil, err
	}

	modelName := strings.TrimSpace(req.ModelName)
	dataPath := strings.TrimPrefix(strings.TrimSpace(req.FileKey), s.cfg.Bucket+"/")
	if !ownsObject(userID, dataPath) {
		return nil, apperr.E(apperr.Validation, "fileKey does not belong to the caller")
	}

	dataURL, err := s.storage.CreateSignedURL(s.cfg.Bucket, dataPath, TrainingDataURLExpiry)
	if err != nil {
		return nil, apperr.Wrap(apperr.TrainingSubmissionFailed, "failed to create a signed url for the training data", err)
	}

	modelID := ModelID(userID, s.now(), modelName)
	log := s.logger.With().Str("user_id", userID.String()).Str("model_id", modelID).Logger()

	err = s.policy.callOnce(ctx, "create_model", func(ctx context.Context) error {
		_, err := s.provider.CreateModel(ctx, replicate.CreateModelRequest{
			Owner:       s.cfg.Owner,
			Name:        modelID,
			Visibility:  "private",
			Hardware:    s.cfg.Hardware,
			Description: modelName,
		})
		return err
	})
	if err != nil {
		log.Error().Err(err).Msg("model registration failed")
		return nil, providerError(apperr.TrainingSubmissionFailed, "failed to register model", err)
	}

	var training *replicate.Training
	err = s.policy.callOnce(ctx, "create_training", func(ctx context.Context) error {
		var err error
		training, err = s.provider.CreateTraining(ctx, s.cfg.TrainerOwner, s.cfg.TrainerModel, s.cfg.TrainerVersion, replicate.CreateTrainingRequest{
			Destination: s.cfg.Owner + "/" + modelID,
			Input: replicate.TrainingInput{
				Steps:       TrainingSteps,
				Resolution:  TrainingResolution,
				InputImages: dataURL,
				TriggerWord: TriggerWord,
			},
			Webhook:             CallbackURL(s.cfg.SiteURL, userID, modelName, dataPath),
			WebhookEventsFilter: []string{"completed"},
		})
		return err
	})
	if err != nil {
		log.Error().Err(err).Msg("training submission failed")
		s.discardModel(ctx, modelID)
		return nil, providerError(apperr.TrainingSubmissionFailed, "failed to start training", err)
	}

	status := models.TrainingStatus(training.Status)
	if !status.IsKnown() {
		status = models.TrainingSubmitted
	}

	job = &models.TrainingJob{
		UserID:           userID,
		ModelID:          modelID,
		ModelName:        modelName,
		Gender:           req.Gender,
		TrainingStatus:   status,
		TriggerWord:      TriggerWord,
		TrainingSteps:    TrainingSteps,
		TrainingID:       training.ID,
		TrainingDataPath: dataPath,
	}
	if err := s.store.CreateTrainingJob(ctx, job); err != nil {
		// The run continues on the provider side; the sync loop reports it as an orphan.
		log.Error().Err(err).Str("training_id", training.ID).Msg("failed to record training job")
		return nil, apperr.Wrap(apperr.Persistence, "failed to record training job", err)
	}

	log.Info().Str("training_id", training.ID).Str("status", string(status)).Msg("training submitted")
	return job, nil
}

// discardModel removes a registered model whose training could not start.
func (s *TrainingService) discardModel(ctx context.Context, modelID string) {
	err := s.policy.call(ctx, "delete_model", func(ctx context.Context) error {
		return s.provider.DeleteModel(ctx, s.cfg.Owner, modelID)
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("model_id", modelID).Msg("failed to discard model")
	}
}

func (s *TrainingService) ListModels(ctx context.Context, userID uuid.UUID) ([]models.TrainingJob, error) {
	if userID == uuid.Nil {
		return nil, apperr.E(apperr.Unauthenticated, "user not authenticated")
	}
	jobs, err := s.store.ListTrainingJobs(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Persistence, "failed to list models", err)
	}
	return jobs, nil
}

// DeleteModel removes the trained version, the provider model, the training
// data and finally the row.
func (s *TrainingService) DeleteModel(ctx context.Context, userID uuid.UUID, id int64) error {
	if userID == uuid.Nil {
		return apperr.E(apperr.Unauthenticated, "user not authenticated")
	}

	job, err := s.store.GetTrainingJob(ctx, id, userID)
	if err != nil {
		if apperr.IsKind(err, apperr.NotFound) {
			return err
		}
		return apperr.Wrap(apperr.Persistence, "failed to load model", err)
	}

	if job.Version.Valid && job.Version.String != "" {
		err := s.policy.call(ctx, "delete_model_version", func(ctx context.Context) error {
			return ignoreNotFound(s.provider.DeleteModelVersion(ctx, s.cfg.Owner, job.ModelID, job.Version.String))
		})
		if err != nil {
			return providerError(apperr.Provider, "failed to delete model version", err)
		}
	}

	err = s.policy.call(ctx, "delete_model", func(ctx context.Context) error {
		return ignoreNotFound(s.provider.DeleteModel(ctx, s.cfg.Owner, job.ModelID))
	})
	if err != nil {
		return providerError(apperr.Provider, "failed to delete model", err)
	}

	if job.TrainingDataPath != "" {
		if err := s.storage.Remove(s.cfg.Bucket, job.TrainingDataPath); err != nil {
			s.logger.Warn().Err(err).Str("model_id", job.ModelID).Msg("failed to remove training data")
		}
	}

	if err := s.store.DeleteTrainingJob(ctx, id, userID); err != nil {
		if apperr.IsKind(err, apperr.NotFound) {
			return err
		}
		return apperr.Wrap(apperr.Persistence, "failed to delete model", err)
	}

	s.logger.Info().Str("user_id", userID.String()).Str("model_id", job.ModelID).Msg("model deleted")
	return nil
}

func ignoreNotFound(err error) error {
	var apiErr *replicate.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return nil
	}
	return err
}
