package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/diagnosis/hotel-bookings/internal/domain"
	"github.com/diagnosis/hotel-bookings/pkg/logger"
)

// StateRepository persists the cross-session part of a session: booking
// history and the signed-in user.
type StateRepository interface {
	Load(ctx context.Context, sessionID string) (domain.PersistedState, error)
	Save(ctx context.Context, sessionID string, state domain.PersistedState) error
	Delete(ctx context.Context, sessionID string) error
}

// Manager owns the live session stores.
//
// With a TTL set, a session expires TTL after its state was last saved, the
// same moment the repository drops it. Access refreshes the saved copy once
// half the TTL has passed, so a session in use does not expire. With an idle
// timeout set, stores unused for that long are dropped from memory only and
// rebuilt from the repository on next access; their draft is lost.
type Manager struct {
	repo        StateRepository
	ttl         time.Duration
	idleTimeout time.Duration
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
	group    singleflight.Group
}

type entry struct {
	store       *Store
	unsubscribe func()
	lastAccess  time.Time
	savedAt     time.Time
}

type ManagerOption func(*Manager)

// WithTTL should match the repository's TTL.
func WithTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) { m.ttl = ttl }
}

func WithIdleTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) { m.idleTimeout = d }
}

func WithManagerClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

func NewManager(repo StateRepository, opts ...ManagerOption) *Manager {
	m := &Manager{
		repo:     repo,
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open starts a new, empty session.
func (m *Manager) Open(ctx context.Context) (*Store, error) {
	id := uuid.NewString()
	store := m.attach(id, domain.PersistedState{})
	logger.InfoContext(ctx, "session opened", "session_id", id)
	return store, nil
}

// Get returns the live store for id, restoring it from the repository when
// needed. A session the repository has never seen, or one that expired, is
// ErrSessionNotFound.
func (m *Manager) Get(ctx context.Context, id string) (*Store, error) {
	if store, ok, err := m.live(ctx, id); ok {
		return store, err
	}

	v, err, _ := m.group.Do(id, func() (any, error) {
		m.mu.Lock()
		e, ok := m.sessions[id]
		m.mu.Unlock()
		if ok {
			return e.store, nil
		}

		state, err := m.repo.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		logger.DebugContext(ctx, "session restored", "session_id", id, "history", len(state.History))
		return m.attach(id, state), nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("restore session %s: %w", id, err)
	}
	return v.(*Store), nil
}

// live looks id up in memory. ok is false when the caller should fall back to
// the repository.
func (m *Manager) live(ctx context.Context, id string) (*Store, bool, error) {
	now := m.now()

	m.mu.Lock()
	e, found := m.sessions[id]
	if !found {
		m.mu.Unlock()
		return nil, false, nil
	}
	if m.expired(e, now) {
		delete(m.sessions, id)
		m.mu.Unlock()
		m.expire(ctx, id, e)
		return nil, true, domain.ErrSessionNotFound
	}
	e.lastAccess = now
	refresh := m.ttl > 0 && now.Sub(e.savedAt) > m.ttl/2
	if refresh {
		e.savedAt = now
	}
	m.mu.Unlock()

	if refresh {
		if err := m.repo.Save(ctx, id, e.store.Snapshot().Persisted()); err != nil {
			logger.WarnContext(ctx, "refresh session", "session_id", id, "error", err)
		}
	}
	return e.store, true, nil
}

// Close tears a session down and forgets its persisted state.
func (m *Manager) Close(ctx context.Context, id string) error {
	m.mu.Lock()
	e, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		e.unsubscribe()
	}
	if err := m.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	logger.InfoContext(ctx, "session closed", "session_id", id)
	return nil
}

// Len is the number of sessions held in memory.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep drops expired sessions and evicts idle ones from memory. Stores with
// a payment in flight are never evicted. It returns how many were removed.
func (m *Manager) Sweep(ctx context.Context) int {
	now := m.now()

	type victim struct {
		id      string
		e       *entry
		expired bool
	}
	var victims []victim

	m.mu.Lock()
	for id, e := range m.sessions {
		switch {
		case m.expired(e, now):
			victims = append(victims, victim{id, e, true})
		case m.idleTimeout > 0 && now.Sub(e.lastAccess) > m.idleTimeout && !e.store.Loading():
			victims = append(victims, victim{id, e, false})
		default:
			continue
		}
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, v := range victims {
		if v.expired {
			m.expire(ctx, v.id, v.e)
			continue
		}
		v.e.unsubscribe()
		logger.DebugContext(ctx, "session evicted", "session_id", v.id)
	}
	return len(victims)
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(ctx); n > 0 {
				logger.InfoContext(ctx, "sessions swept", "removed", n, "live", m.Len())
			}
		}
	}
}

func (m *Manager) expired(e *entry, now time.Time) bool {
	return m.ttl > 0 && now.Sub(e.savedAt) > m.ttl
}

func (m *Manager) expire(ctx context.Context, id string, e *entry) {
	e.unsubscribe()
	if err := m.repo.Delete(ctx, id); err != nil {
		logger.WarnContext(ctx, "delete expired session", "session_id", id, "error", err)
	}
	logger.DebugContext(ctx, "session expired", "session_id", id)
}

func (m *Manager) attach(id string, state domain.PersistedState) *Store {
	store := NewStore(id, state)
	unsubscribe := store.Subscribe(m.persister(id))
	now := m.now()

	m.mu.Lock()
	m.sessions[id] = &entry{store: store, unsubscribe: unsubscribe, lastAccess: now, savedAt: now}
	m.mu.Unlock()

	// An opened session is saved right away so it can be restored later.
	if err := m.repo.Save(context.Background(), id, state); err != nil {
		logger.Error("persist session", "session_id", id, "error", err)
	}
	return store
}

// persister writes history and user changes through to the repository.
func (m *Manager) persister(id string) Listener {
	return func(kind ChangeKind, st State) {
		if !kind.Persisted() {
			return
		}
		if err := m.repo.Save(context.Background(), id, st.Persisted()); err != nil {
			logger.Error("persist session", "session_id", id, "change", string(kind), "error", err)
			return
		}
		m.mu.Lock()
		if e, ok := m.sessions[id]; ok {
			e.savedAt = m.now()
		}
		m.mu.Unlock()
	}
}
