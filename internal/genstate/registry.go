package genstate

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"imaginx-backend/internal/models"
)

// Registry holds one Session per user and drops sessions idle for longer
// than the configured duration.
type Registry struct {
	generator Generator
	idle      time.Duration
	logger    zerolog.Logger
	now       func() time.Time
	persists  sync.WaitGroup

	mu        sync.Mutex
	sessions  map[uuid.UUID]*Session
	lastPrune time.Time
}

func NewRegistry(generator Generator, idle time.Duration, logger zerolog.Logger) *Registry {
	return &Registry{
		generator: generator,
		idle:      idle,
		logger:    logger.With().Str("component", "genstate").Logger(),
		now:       time.Now,
		sessions:  make(map[uuid.UUID]*Session),
	}
}

func (r *Registry) WithClock(now func() time.Time) *Registry {
	r.now = now
	return r
}

// Session returns the user's session, creating it on first use. The
// session may be pruned once idle; use Submit to start a generation.
func (r *Registry) Session(userID uuid.UUID) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessionLocked(userID)
}

// Submit starts req on the user's session. The session is claimed while
// the registry lock is held, so it cannot be pruned before it is loading.
func (r *Registry) Submit(ctx context.Context, userID uuid.UUID, req models.GenerationRequest) (Snapshot, error) {
	r.mu.Lock()
	s := r.sessionLocked(userID)
	seq, err := s.begin(req)
	r.mu.Unlock()
	if err != nil {
		return Snapshot{}, err
	}
	return s.run(ctx, seq, req)
}

func (r *Registry) sessionLocked(userID uuid.UUID) *Session {
	r.pruneLocked()
	s, ok := r.sessions[userID]
	if !ok {
		s = newSession(userID, r.generator, &r.persists, r.now, r.logger)
		r.sessions[userID] = s
	}
	return s
}

// Lookup returns the user's session without creating one.
func (r *Registry) Lookup(userID uuid.UUID) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[userID]
	return s, ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Wait blocks until every background persistence has finished.
func (r *Registry) Wait() {
	r.persists.Wait()
}

func (r *Registry) pruneLocked() {
	if r.idle <= 0 {
		return
	}
	now := r.now()
	if now.Sub(r.lastPrune) < r.idle/2 {
		return
	}
	r.lastPrune = now
	for id, s := range r.sessions {
		if idle, ok := s.idleSince(now); ok && idle > r.idle {
			delete(r.sessions, id)
		}
	}
}
