package session_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/hotel-bookings/internal/domain"
	"github.com/diagnosis/hotel-bookings/internal/repo/memory"
	"github.com/diagnosis/hotel-bookings/internal/session"
)

func draft(roomID, in, out string) domain.BookingData {
	return domain.BookingData{
		RoomID:     roomID,
		CheckIn:    in,
		CheckOut:   out,
		Guests:     2,
		Nights:     2,
		TotalPrice: 2000,
		Currency:   "THB",
	}
}

func record(id string, b domain.BookingData) domain.BookingRecord {
	return domain.BookingRecord{ID: id, TransactionID: "TXN" + id, Booking: b, PaidAt: time.Now()}
}

func TestStore_SetBookingDataOverwrites(t *testing.T) {
	s := session.NewStore("s1", domain.PersistedState{})

	first := draft("R1", "2025-06-01", "2025-06-03")
	first.GuestInfo.FirstName = "John"
	s.SetBookingData(first)
	s.SetBookingData(draft("R2", "2025-07-01", "2025-07-02"))

	got, ok := s.CurrentBooking()
	require.True(t, ok)
	assert.Equal(t, "R2", got.RoomID)
	assert.Empty(t, got.GuestInfo.FirstName)
	assert.Equal(t, uint64(2), s.Version())
}

func TestStore_AddToHistoryDeduplicates(t *testing.T) {
	s := session.NewStore("s1", domain.PersistedState{})
	b := draft("R1", "2025-06-01", "2025-06-03")
	s.SetBookingData(b)

	assert.True(t, s.AddToHistory(record("1", b)))
	assert.False(t, s.AddToHistory(record("2", b)))
	assert.True(t, s.AddToHistory(record("3", draft("R1", "2025-06-02", "2025-06-03"))))

	history := s.History()
	require.Len(t, history, 2)
	assert.Equal(t, "3", history[0].ID, "new records are prepended")

	_, ok := s.CurrentBooking()
	assert.True(t, ok, "adding to history keeps the draft")
}

func TestStore_ClearCurrentBookingIsIdempotent(t *testing.T) {
	s := session.NewStore("s1", domain.PersistedState{})
	b := draft("R1", "2025-06-01", "2025-06-03")
	s.SetBookingData(b)
	s.SetPaymentData(domain.PaymentForm{CardNumber: "************1111", CVV: "123"})
	s.AddToHistory(record("1", b))

	s.ClearCurrentBooking()
	once := s.Snapshot()
	s.ClearCurrentBooking()
	twice := s.Snapshot()

	assert.Equal(t, once, twice)
	assert.Nil(t, twice.Booking)
	assert.Nil(t, twice.Payment)
	assert.Len(t, twice.History, 1)
}

func TestStore_ResetClearsLoading(t *testing.T) {
	s := session.NewStore("s1", domain.PersistedState{})
	s.SetBookingData(draft("R1", "2025-06-01", "2025-06-03"))
	s.SetLoading(true)

	s.Reset()

	st := s.Snapshot()
	assert.False(t, st.Loading)
	assert.Nil(t, st.Booking)
}

func TestStore_SetPaymentDataDropsCVV(t *testing.T) {
	s := session.NewStore("s1", domain.PersistedState{})
	s.SetPaymentData(domain.PaymentForm{CardNumber: "************1111", CVV: "123"})

	st := s.Snapshot()
	require.NotNil(t, st.Payment)
	assert.Empty(t, st.Payment.CVV)
}

func TestStore_CommitPayment(t *testing.T) {
	s := session.NewStore("s1", domain.PersistedState{})
	b := draft("R1", "2025-06-01", "2025-06-03")
	s.SetBookingData(b)
	v := s.Version()

	committed, added, err := s.CommitPayment(v, domain.PaymentForm{CardNumber: "****1111"}, record("1", b))
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, "1", committed.ID)

	receipt, ok := s.Receipt()
	require.True(t, ok)
	assert.Equal(t, "1", receipt.ID)

	committed, added, err = s.CommitPayment(v, domain.PaymentForm{}, record("2", b))
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, "1", committed.ID)

	receipt, _ = s.Receipt()
	assert.Equal(t, "1", receipt.ID, "receipt points at the recorded booking")
	require.Len(t, s.History(), 1)
	assert.Equal(t, "1", s.History()[0].ID)
}

func TestStore_CommitPaymentStaleVersion(t *testing.T) {
	s := session.NewStore("s1", domain.PersistedState{})
	b := draft("R1", "2025-06-01", "2025-06-03")
	s.SetBookingData(b)
	v := s.Version()

	s.ClearCurrentBooking()

	_, _, err := s.CommitPayment(v, domain.PaymentForm{}, record("1", b))
	require.ErrorIs(t, err, domain.ErrBookingChanged)
	assert.Empty(t, s.History())
}

func TestStore_BeginPayment(t *testing.T) {
	s := session.NewStore("s1", domain.PersistedState{})

	_, _, err := s.BeginPayment()
	require.ErrorIs(t, err, domain.ErrNoActiveBooking)

	b := draft("R1", "2025-06-01", "2025-06-03")
	s.SetBookingData(b)

	got, v, err := s.BeginPayment()
	require.NoError(t, err)
	assert.Equal(t, b, got)
	assert.Equal(t, s.Version(), v)
	assert.True(t, s.Snapshot().Loading)

	_, _, err = s.BeginPayment()
	require.ErrorIs(t, err, domain.ErrPaymentInProgress)

	s.EndPayment(v)
	assert.False(t, s.Snapshot().Loading)

	_, _, err = s.BeginPayment()
	require.NoError(t, err)
}

func TestStore_BeginPaymentSingleWinner(t *testing.T) {
	s := session.NewStore("s1", domain.PersistedState{})
	s.SetBookingData(draft("R1", "2025-06-01", "2025-06-03"))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := s.BeginPayment(); err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, winners)
}

func TestStore_EndPaymentIgnoresReplacedBooking(t *testing.T) {
	s := session.NewStore("s1", domain.PersistedState{})
	s.SetBookingData(draft("R1", "2025-06-01", "2025-06-03"))
	_, stale, err := s.BeginPayment()
	require.NoError(t, err)

	s.Reset()
	s.SetBookingData(draft("R1", "2025-06-05", "2025-06-07"))
	_, _, err = s.BeginPayment()
	require.NoError(t, err)

	s.EndPayment(stale)
	assert.True(t, s.Snapshot().Loading, "the newer payment still owns the flag")
}

func TestStore_HistoryFor(t *testing.T) {
	john := "2"
	jane := "3"
	s := session.NewStore("s1", domain.PersistedState{})

	r1 := record("1", draft("R1", "2025-06-01", "2025-06-03"))
	r1.UserID = &john
	r2 := record("2", draft("R2", "2025-06-01", "2025-06-03"))
	r2.UserID = &jane
	s.AddToHistory(r1)
	s.AddToHistory(r2)

	mine := s.HistoryFor(john)
	require.Len(t, mine, 1)
	assert.Equal(t, "1", mine[0].ID)
}

func TestStore_Subscribe(t *testing.T) {
	s := session.NewStore("s1", domain.PersistedState{})

	var kinds []session.ChangeKind
	unsubscribe := s.Subscribe(func(kind session.ChangeKind, st session.State) {
		kinds = append(kinds, kind)
		// Listeners run outside the lock and may read the store.
		_ = s.Snapshot()
	})

	s.SetBookingData(draft("R1", "2025-06-01", "2025-06-03"))
	s.SetUser(domain.User{ID: "2"})
	s.Logout()
	s.Logout()
	unsubscribe()
	s.ClearCurrentBooking()

	assert.Equal(t, []session.ChangeKind{session.ChangeBooking, session.ChangeUser, session.ChangeUser}, kinds)
}

func TestStore_ConcurrentMutations(t *testing.T) {
	s := session.NewStore("s1", domain.PersistedState{})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b := draft("R1", "2025-06-01", "2025-06-03")
			s.SetBookingData(b)
			s.AddToHistory(record("x", b))
			s.SetLoading(i%2 == 0)
			_ = s.Snapshot()
		}(i)
	}
	wg.Wait()

	assert.Len(t, s.History(), 1)
	assert.Equal(t, uint64(20), s.Version())
}

// countingRepo wraps the memory repo and counts loads.
type countingRepo struct {
	*memory.StateRepo
	loads atomic.Int32
	delay time.Duration
}

func (r *countingRepo) Load(ctx context.Context, id string) (domain.PersistedState, error) {
	r.loads.Add(1)
	time.Sleep(r.delay)
	return r.StateRepo.Load(ctx, id)
}

type failingRepo struct{ err error }

func (r failingRepo) Load(context.Context, string) (domain.PersistedState, error) {
	return domain.PersistedState{}, r.err
}
func (r failingRepo) Save(context.Context, string, domain.PersistedState) error { return nil }
func (r failingRepo) Delete(context.Context, string) error                      { return nil }

func TestManager_OpenGetClose(t *testing.T) {
	ctx := context.Background()
	m := session.NewManager(memory.NewStateRepo(0))

	s, err := m.Open(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, s.ID())

	got, err := m.Get(ctx, s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)

	require.NoError(t, m.Close(ctx, s.ID()))
	_, err = m.Get(ctx, s.ID())
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_RestoresPersistedState(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStateRepo(0)

	m1 := session.NewManager(repo)
	s, err := m1.Open(ctx)
	require.NoError(t, err)

	b := draft("R1", "2025-06-01", "2025-06-03")
	s.SetBookingData(b)
	s.SetUser(domain.User{ID: "2", Email: "john@example.com"})
	s.AddToHistory(record("1", b))

	// A fresh manager stands in for a restarted process.
	m2 := session.NewManager(repo)
	restored, err := m2.Get(ctx, s.ID())
	require.NoError(t, err)

	st := restored.Snapshot()
	assert.Nil(t, st.Booking, "drafts are session scoped")
	require.Len(t, st.History, 1)
	require.NotNil(t, st.User)
	assert.Equal(t, "john@example.com", st.User.Email)
}

func TestManager_ConcurrentRestoreLoadsOnce(t *testing.T) {
	ctx := context.Background()
	repo := &countingRepo{StateRepo: memory.NewStateRepo(0), delay: 20 * time.Millisecond}
	require.NoError(t, repo.Save(ctx, "s1", domain.PersistedState{}))

	m := session.NewManager(repo)

	var wg sync.WaitGroup
	stores := make([]*session.Store, 10)
	for i := range stores {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := m.Get(ctx, "s1")
			assert.NoError(t, err)
			stores[i] = s
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), repo.loads.Load())
	for _, s := range stores {
		assert.Same(t, stores[0], s)
	}
}

func TestManager_RepositoryError(t *testing.T) {
	boom := errors.New("boom")
	m := session.NewManager(failingRepo{err: boom})

	_, err := m.Get(context.Background(), "s1")
	require.ErrorIs(t, err, boom)
}

// trackingRepo wraps the memory repo and counts writes.
type trackingRepo struct {
	*memory.StateRepo
	saves   atomic.Int32
	deletes atomic.Int32
}

func (r *trackingRepo) Save(ctx context.Context, id string, st domain.PersistedState) error {
	r.saves.Add(1)
	return r.StateRepo.Save(ctx, id, st)
}

func (r *trackingRepo) Delete(ctx context.Context, id string) error {
	r.deletes.Add(1)
	return r.StateRepo.Delete(ctx, id)
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func TestManager_ExpiresAfterTTL(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	repo := &trackingRepo{StateRepo: memory.NewStateRepo(0)}
	m := session.NewManager(repo, session.WithTTL(time.Hour), session.WithManagerClock(clock.Now))

	s, err := m.Open(ctx)
	require.NoError(t, err)

	clock.Advance(time.Hour + time.Minute)

	_, err = m.Get(ctx, s.ID())
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, int32(1), repo.deletes.Load())

	_, err = repo.Load(ctx, s.ID())
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_AccessRefreshesTTL(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	repo := &trackingRepo{StateRepo: memory.NewStateRepo(0)}
	m := session.NewManager(repo, session.WithTTL(time.Hour), session.WithManagerClock(clock.Now))

	s, err := m.Open(ctx)
	require.NoError(t, err)
	require.Equal(t, int32(1), repo.saves.Load())

	clock.Advance(20 * time.Minute)
	_, err = m.Get(ctx, s.ID())
	require.NoError(t, err)
	assert.Equal(t, int32(1), repo.saves.Load(), "no refresh before half the TTL")

	clock.Advance(20 * time.Minute)
	_, err = m.Get(ctx, s.ID())
	require.NoError(t, err)
	assert.Equal(t, int32(2), repo.saves.Load())

	// 80 minutes after open, 40 after the refresh.
	clock.Advance(40 * time.Minute)
	got, err := m.Get(ctx, s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)
}

func TestManager_HistoryWriteResetsExpiry(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	m := session.NewManager(memory.NewStateRepo(0), session.WithTTL(time.Hour), session.WithManagerClock(clock.Now))

	s, err := m.Open(ctx)
	require.NoError(t, err)

	clock.Advance(50 * time.Minute)
	s.AddToHistory(record("1", draft("R1", "2025-06-01", "2025-06-03")))

	clock.Advance(50 * time.Minute)
	got, err := m.Get(ctx, s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)
}

func TestManager_SweepEvictsIdle(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	repo := &trackingRepo{StateRepo: memory.NewStateRepo(0)}
	m := session.NewManager(repo, session.WithIdleTimeout(10*time.Minute), session.WithManagerClock(clock.Now))

	s, err := m.Open(ctx)
	require.NoError(t, err)
	b := draft("R1", "2025-06-01", "2025-06-03")
	s.SetBookingData(b)
	s.AddToHistory(record("1", b))

	clock.Advance(5 * time.Minute)
	assert.Equal(t, 0, m.Sweep(ctx))

	clock.Advance(11 * time.Minute)
	assert.Equal(t, 1, m.Sweep(ctx))
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, int32(0), repo.deletes.Load(), "idle eviction keeps the saved state")

	restored, err := m.Get(ctx, s.ID())
	require.NoError(t, err)
	assert.NotSame(t, s, restored)
	assert.Len(t, restored.History(), 1)
	_, ok := restored.CurrentBooking()
	assert.False(t, ok, "drafts do not survive eviction")
}

func TestManager_SweepKeepsPaymentInFlight(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	m := session.NewManager(memory.NewStateRepo(0), session.WithIdleTimeout(time.Minute), session.WithManagerClock(clock.Now))

	s, err := m.Open(ctx)
	require.NoError(t, err)
	s.SetBookingData(draft("R1", "2025-06-01", "2025-06-03"))
	_, version, err := s.BeginPayment()
	require.NoError(t, err)

	clock.Advance(time.Hour)
	assert.Equal(t, 0, m.Sweep(ctx))
	assert.Equal(t, 1, m.Len())

	s.EndPayment(version)
	assert.Equal(t, 1, m.Sweep(ctx))
}

func TestManager_SweepDropsExpiredSessions(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStateRepo(time.Millisecond)
	m := session.NewManager(repo, session.WithTTL(time.Millisecond))

	ids := make([]string, 200)
	for i := range ids {
		s, err := m.Open(ctx)
		require.NoError(t, err)
		ids[i] = s.ID()
	}
	require.Equal(t, len(ids), m.Len())

	time.Sleep(10 * time.Millisecond)

	assert.Equal(t, len(ids), m.Sweep(ctx))
	assert.Equal(t, 0, m.Len())

	for _, id := range ids[:5] {
		_, err := m.Get(ctx, id)
		require.ErrorIs(t, err, domain.ErrSessionNotFound)
	}
}

func TestManager_RunStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := session.NewManager(memory.NewStateRepo(0))

	done := make(chan struct{})
	go func() {
		m.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
