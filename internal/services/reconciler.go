package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"imaginx-backend/internal/apperr"
	"imaginx-backend/internal/metrics"
	"imaginx-backend/internal/models"
	"imaginx-backend/internal/notify"
	"imaginx-backend/internal/replicate"
)

// CallbackContext is the query context the training webhook URL carries.
type CallbackContext struct {
	UserID    string
	ModelName string
	FileName  string
}

type ReconcileOutcome string

const (
	// OutcomeTransitioned means this report moved the job to a terminal status.
	OutcomeTransitioned ReconcileOutcome = "transitioned"
	// OutcomeUpdated means a non-terminal progress status was recorded.
	OutcomeUpdated ReconcileOutcome = "updated"
	// OutcomeDuplicate means the job was already terminal or further along; nothing changed.
	OutcomeDuplicate ReconcileOutcome = "duplicate"
	// OutcomeIgnored means no job matches the report.
	OutcomeIgnored ReconcileOutcome = "ignored"
)

type ReconcileResult struct {
	Outcome ReconcileOutcome
	JobID   int64
	Status  models.TrainingStatus
}

type Reconciler struct {
	store     TrainingStore
	storage   ObjectStore
	directory UserDirectory
	notifier  Notifier
	bucket    string
	logger    zerolog.Logger
}

func NewReconciler(store TrainingStore, storage ObjectStore, directory UserDirectory, notifier Notifier, bucket string, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		store:     store,
		storage:   storage,
		directory: directory,
		notifier:  notifier,
		bucket:    bucket,
		logger:    logger.With().Str("component", "reconciler").Logger(),
	}
}

// HandleTrainingCallback applies a verified training status report. It is
// safe to call any number of times with the same payload: only the call that
// moves the job out of a non-terminal status sends the notification and
// removes the training data.
func (r *Reconciler) HandleTrainingCallback(ctx context.Context, cc CallbackContext, payload *replicate.Training) (*ReconcileResult, error) {
	userID, err := uuid.Parse(cc.UserID)
	if err != nil {
		metrics.TrainingCallbacks.WithLabelValues("webhook", "unknown_user").Inc()
		return nil, apperr.E(apperr.UnknownUser, "invalid user id in callback")
	}

	contact, err := r.directory.LookupUser(ctx, userID)
	if err != nil {
		if apperr.IsKind(err, apperr.UnknownUser) {
			metrics.TrainingCallbacks.WithLabelValues("webhook", "unknown_user").Inc()
			return nil, err
		}
		return nil, apperr.Wrap(apperr.Internal, "failed to resolve user", err)
	}

	log := r.logger.With().
		Str("user_id", userID.String()).
		Str("model_name", cc.ModelName).
		Str("training_id", payload.ID).
		Str("status", payload.Status).
		Logger()

	job, err := r.findJob(ctx, userID, cc.ModelName, payload.ID)
	if err != nil {
		if apperr.IsKind(err, apperr.NotFound) {
			log.Warn().Msg("no training job matches callback, ignoring")
			metrics.TrainingCallbacks.WithLabelValues("webhook", string(OutcomeIgnored)).Inc()
			return &ReconcileResult{Outcome: OutcomeIgnored}, nil
		}
		return nil, apperr.Wrap(apperr.Persistence, "failed to load training job", err)
	}

	dataPath := job.TrainingDataPath
	if dataPath == "" {
		dataPath = cc.FileName
	}
	return r.apply(ctx, "webhook", job, payload, contact, dataPath)
}

// ApplyProviderStatus reconciles a job against a training fetched from the
// provider. A directory failure only suppresses the notification.
func (r *Reconciler) ApplyProviderStatus(ctx context.Context, job *models.TrainingJob, training *replicate.Training) (*ReconcileResult, error) {
	contact, err := r.directory.LookupUser(ctx, job.UserID)
	if err != nil {
		r.logger.Warn().Err(err).Str("user_id", job.UserID.String()).Msg("failed to resolve user, notification will be skipped")
		contact = nil
	}
	return r.apply(ctx, "sync", job, training, contact, job.TrainingDataPath)
}

// findJob resolves the job a callback reports on. The provider training id
// is authoritative; the model name only identifies jobs that have no
// training id recorded.
func (r *Reconciler) findJob(ctx context.Context, userID uuid.UUID, modelName, trainingID string) (*models.TrainingJob, error) {
	if trainingID != "" {
		job, err := r.store.GetJobByTrainingID(ctx, trainingID)
		if err == nil {
			if job.UserID != userID {
				return nil, apperr.E(apperr.NotFound, "training job not found")
			}
			return job, nil
		}
		if !apperr.IsKind(err, apperr.NotFound) {
			return nil, err
		}
	}
	if strings.TrimSpace(modelName) == "" {
		return nil, apperr.E(apperr.NotFound, "training job not found")
	}
	job, err := r.store.GetJobByModelName(ctx, userID, modelName)
	if err != nil {
		return nil, err
	}
	if trainingID != "" && job.TrainingID != "" {
		return nil, apperr.E(apperr.NotFound, "training job not found")
	}
	return job, nil
}

func (r *Reconciler) apply(ctx context.Context, source string, job *models.TrainingJob, training *replicate.Training, contact *models.UserContact, dataPath string) (*ReconcileResult, error) {
	status := models.TrainingStatus(training.Status)
	if status == "" {
		return nil, apperr.E(apperr.Validation, "training status is missing")
	}
	if !status.IsKnown() {
		return nil, apperr.Errorf(apperr.Validation, "training status %q is not recognized", training.Status)
	}

	outcome := models.TrainingOutcome{Status: status}
	if status == models.TrainingSucceeded {
		outcome.Version = training.OutputVersion()
		outcome.TrainingTime = training.TotalTime()
	}

	transitioned, err := r.store.TransitionTrainingJob(ctx, job.ID, outcome)
	if err != nil {
		return nil, apperr.Wrap(apperr.Persistence, "failed to update training job", err)
	}

	result := &ReconcileResult{JobID: job.ID, Status: status}
	log := r.logger.With().
		Str("source", source).
		Int64("job_id", job.ID).
		Str("model_id", job.ModelID).
		Str("status", string(status)).
		Logger()

	switch {
	case !transitioned:
		result.Outcome = OutcomeDuplicate
		result.Status = job.TrainingStatus
		log.Info().Str("current_status", string(job.TrainingStatus)).Msg("training job already at or past reported status, nothing to do")
	case !status.IsTerminal():
		result.Outcome = OutcomeUpdated
		log.Debug().Msg("training progress recorded")
	default:
		result.Outcome = OutcomeTransitioned
		log.Info().Str("version", outcome.Version).Msg("training job reached terminal status")
		r.notify(ctx, log, job, contact, status)
		r.cleanup(log, dataPath)
	}

	metrics.TrainingCallbacks.WithLabelValues(source, string(result.Outcome)).Inc()
	return result, nil
}

// notify failures are logged only; the status change is already committed and
// a retried delivery would be a no-op.
func (r *Reconciler) notify(ctx context.Context, log zerolog.Logger, job *models.TrainingJob, contact *models.UserContact, status models.TrainingStatus) {
	if contact == nil {
		return
	}
	err := r.notifier.NotifyTraining(ctx, notify.TrainingNotification{
		To:         *contact,
		ModelName:  job.ModelName,
		TrainingID: job.TrainingID,
		Status:     status,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to send training notification")
	}
}

func (r *Reconciler) cleanup(log zerolog.Logger, dataPath string) {
	dataPath = strings.TrimPrefix(dataPath, r.bucket+"/")
	if dataPath == "" {
		return
	}
	if err := r.storage.Remove(r.bucket, dataPath); err != nil {
		log.Error().Err(err).Str("path", dataPath).Msg("failed to remove training data")
	}
}
