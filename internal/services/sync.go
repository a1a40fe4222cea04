package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"imaginx-backend/internal/apperr"
	"imaginx-backend/internal/metrics"
	"imaginx-backend/internal/models"
	"imaginx-backend/internal/replicate"
)

// maxSyncPages caps how far back one sync pass walks the provider's list.
const maxSyncPages = 10

type SyncReport struct {
	Pending      int
	Transitioned int
	Orphans      int
}

// TrainingSync reconciles local jobs against the provider's training list,
// covering webhooks that were never delivered.
type TrainingSync struct {
	provider   Provider
	store      TrainingStore
	reconciler *Reconciler
	policy     ProviderPolicy
	trainer    string
	interval   time.Duration
	logger     zerolog.Logger
}

// NewTrainingSync builds the sync loop. trainer is "owner/model" of the base
// trainer; only its trainings are considered when looking for orphans.
func NewTrainingSync(provider Provider, store TrainingStore, reconciler *Reconciler, policy ProviderPolicy, trainer string, interval time.Duration, logger zerolog.Logger) *TrainingSync {
	return &TrainingSync{
		provider:   provider,
		store:      store,
		reconciler: reconciler,
		policy:     policy,
		trainer:    trainer,
		interval:   interval,
		logger:     logger.With().Str("component", "training_sync").Logger(),
	}
}

// Run syncs every interval until ctx is done.
func (s *TrainingSync) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report, err := s.SyncOnce(ctx)
			if err != nil {
				s.logger.Error().Err(err).Msg("training sync failed")
				continue
			}
			s.logger.Info().
				Int("pending", report.Pending).
				Int("transitioned", report.Transitioned).
				Int("orphans", report.Orphans).
				Msg("training sync finished")
		}
	}
}

func (s *TrainingSync) SyncOnce(ctx context.Context) (*SyncReport, error) {
	pending, err := s.store.ListPendingJobs(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.Persistence, "failed to list pending jobs", err)
	}

	report := &SyncReport{Pending: len(pending)}
	byTrainingID := make(map[string]*models.TrainingJob, len(pending))
	for i := range pending {
		byTrainingID[pending[i].TrainingID] = &pending[i]
	}

	cursor := ""
	for page := 0; page < maxSyncPages; page++ {
		var result *replicate.TrainingPage
		err := s.policy.call(ctx, "list_trainings", func(ctx context.Context) error {
			var err error
			result, err = s.provider.ListTrainings(ctx, cursor)
			return err
		})
		if err != nil {
			return report, providerError(apperr.Provider, "failed to list trainings", err)
		}

		for i := range result.Results {
			training := &result.Results[i]
			if job, ok := byTrainingID[training.ID]; ok {
				delete(byTrainingID, training.ID)
				s.reconcile(ctx, report, job, training)
				continue
			}
			s.checkOrphan(ctx, report, training)
		}

		if result.Next == "" {
			break
		}
		cursor = result.Next
	}

	// Jobs older than the pages walked are fetched one by one.
	for id, job := range byTrainingID {
		var training *replicate.Training
		err := s.policy.call(ctx, "get_training", func(ctx context.Context) error {
			var err error
			training, err = s.provider.GetTraining(ctx, id)
			return err
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("training_id", id).Msg("failed to fetch training")
			continue
		}
		s.reconcile(ctx, report, job, training)
	}

	return report, nil
}

func (s *TrainingSync) reconcile(ctx context.Context, report *SyncReport, job *models.TrainingJob, training *replicate.Training) {
	if !models.TrainingStatus(training.Status).IsTerminal() {
		return
	}
	result, err := s.reconciler.ApplyProviderStatus(ctx, job, training)
	if err != nil {
		s.logger.Error().Err(err).Str("training_id", training.ID).Msg("failed to reconcile training")
		return
	}
	if result.Outcome == OutcomeTransitioned {
		report.Transitioned++
	}
}

func (s *TrainingSync) checkOrphan(ctx context.Context, report *SyncReport, training *replicate.Training) {
	if s.trainer != "" && training.Model != s.trainer {
		return
	}
	_, err := s.store.GetJobByTrainingID(ctx, training.ID)
	if err == nil {
		return
	}
	if !apperr.IsKind(err, apperr.NotFound) {
		s.logger.Warn().Err(err).Str("training_id", training.ID).Msg("failed to look up training")
		return
	}
	report.Orphans++
	metrics.TrainingOrphans.Inc()
	s.logger.Warn().
		Str("training_id", training.ID).
		Str("status", training.Status).
		Str("created_at", training.CreatedAt).
		Msg("provider training has no local job")
}
