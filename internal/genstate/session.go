package genstate

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"imaginx-backend/internal/apperr"
	"imaginx-backend/internal/models"
	"imaginx-backend/internal/services"
)

type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// persistTimeout bounds the background persistence that follows a generation.
const persistTimeout = 5 * time.Minute

// Generator is the part of the generation service a session drives.
type Generator interface {
	Generate(ctx context.Context, userID uuid.UUID, req models.GenerationRequest) (*services.GenerationResult, error)
	StoreImages(ctx context.Context, userID uuid.UUID, req models.GenerationRequest, urls []string) ([]models.ArtifactOutcome, error)
}

// Snapshot is a copy of a session's visible state.
type Snapshot struct {
	State       State                     `json:"state"`
	Request     *models.GenerationRequest `json:"request,omitempty"`
	Artifacts   []models.Artifact         `json:"artifacts"`
	Error       string                    `json:"error,omitempty"`
	Persisting  bool                      `json:"persisting"`
	Persistence []models.ArtifactOutcome  `json:"persistence,omitempty"`
	UpdatedAt   time.Time                 `json:"updated_at"`
}

// Session tracks the generation requests of one user. Only one request may
// be loading at a time.
type Session struct {
	userID    uuid.UUID
	generator Generator
	logger    zerolog.Logger
	persists  *sync.WaitGroup
	now       func() time.Time

	mu          sync.Mutex
	state       State
	seq         uint64
	request     *models.GenerationRequest
	artifacts   []models.Artifact
	errMsg      string
	persisting  bool
	persistence []models.ArtifactOutcome
	updatedAt   time.Time
}

func newSession(userID uuid.UUID, generator Generator, persists *sync.WaitGroup, now func() time.Time, logger zerolog.Logger) *Session {
	return &Session{
		userID:    userID,
		generator: generator,
		logger:    logger,
		persists:  persists,
		now:       now,
		state:     StateIdle,
		updatedAt: now(),
	}
}

// Submit runs req and returns the resulting snapshot. It fails with
// GenerationInFlight while a previous submit is still loading. On success the
// artifacts are persisted in the background; that outcome is attached to
// later snapshots and never changes the state.
func (s *Session) Submit(ctx context.Context, req models.GenerationRequest) (Snapshot, error) {
	seq, err := s.begin(req)
	if err != nil {
		return Snapshot{}, err
	}
	return s.run(ctx, seq, req)
}

// begin moves the session to loading, claiming it for req.
func (s *Session) begin(req models.GenerationRequest) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateLoading {
		return 0, apperr.E(apperr.GenerationInFlight, "a generation is already in progress")
	}
	s.seq++
	reqCopy := req
	s.state = StateLoading
	s.request = &reqCopy
	s.artifacts = nil
	s.errMsg = ""
	s.persisting = false
	s.persistence = nil
	s.updatedAt = s.now()
	return s.seq, nil
}

func (s *Session) run(ctx context.Context, seq uint64, req models.GenerationRequest) (Snapshot, error) {
	result, err := s.generator.Generate(ctx, s.userID, req)

	s.mu.Lock()
	s.updatedAt = s.now()
	if err != nil {
		s.state = StateError
		s.errMsg = err.Error()
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, err
	}
	s.state = StateReady
	s.artifacts = result.Artifacts
	s.persisting = true
	snap := s.snapshotLocked()
	s.mu.Unlock()

	urls := make([]string, len(result.Artifacts))
	for i, a := range result.Artifacts {
		urls[i] = a.URL
	}
	s.persists.Add(1)
	go s.persist(context.WithoutCancel(ctx), seq, req, urls)

	return snap, nil
}

func (s *Session) persist(ctx context.Context, seq uint64, req models.GenerationRequest, urls []string) {
	defer s.persists.Done()
	ctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()

	outcomes, err := s.generator.StoreImages(ctx, s.userID, req, urls)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", s.userID.String()).Msg("failed to persist generated images")
		outcomes = make([]models.ArtifactOutcome, len(urls))
		for i, u := range urls {
			outcomes[i] = models.ArtifactOutcome{URL: u, Error: err.Error()}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq != seq {
		return
	}
	s.persisting = false
	s.persistence = outcomes
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:      s.state,
		Error:      s.errMsg,
		Persisting: s.persisting,
		UpdatedAt:  s.updatedAt,
		Artifacts:  append([]models.Artifact(nil), s.artifacts...),
	}
	if snap.Artifacts == nil {
		snap.Artifacts = []models.Artifact{}
	}
	if s.request != nil {
		req := *s.request
		snap.Request = &req
	}
	if s.persistence != nil {
		snap.Persistence = append([]models.ArtifactOutcome(nil), s.persistence...)
	}
	return snap
}

func (s *Session) idleSince(now time.Time) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateLoading || s.persisting {
		return 0, false
	}
	return now.Sub(s.updatedAt), true
}
