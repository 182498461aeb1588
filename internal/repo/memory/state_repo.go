package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/diagnosis/hotel-bookings/internal/domain"
)

// StateRepo keeps persisted session state in process memory. Entries expire
// after ttl of inactivity; a zero ttl keeps them forever.
type StateRepo struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	states map[string]stateEntry
}

type stateEntry struct {
	state     domain.PersistedState
	expiresAt time.Time
}

func NewStateRepo(ttl time.Duration) *StateRepo {
	return &StateRepo{
		ttl:    ttl,
		now:    time.Now,
		states: make(map[string]stateEntry),
	}
}

func (r *StateRepo) Load(_ context.Context, sessionID string) (domain.PersistedState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.states[sessionID]
	if !ok || r.expired(e) {
		delete(r.states, sessionID)
		return domain.PersistedState{}, domain.ErrSessionNotFound
	}
	return clone(e.state), nil
}

func (r *StateRepo) Save(_ context.Context, sessionID string, state domain.PersistedState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := stateEntry{state: clone(state)}
	if r.ttl > 0 {
		e.expiresAt = r.now().Add(r.ttl)
	}
	r.states[sessionID] = e
	return nil
}

func (r *StateRepo) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, sessionID)
	return nil
}

func (r *StateRepo) expired(e stateEntry) bool {
	return !e.expiresAt.IsZero() && r.now().After(e.expiresAt)
}

func clone(s domain.PersistedState) domain.PersistedState {
	out := domain.PersistedState{History: slices.Clone(s.History)}
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	return out
}
