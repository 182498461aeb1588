package session

import (
	"slices"
	"sync"

	"github.com/diagnosis/hotel-bookings/internal/domain"
)

// ChangeKind says which part of the state a mutation touched.
type ChangeKind string

const (
	ChangeBooking ChangeKind = "booking"
	ChangePayment ChangeKind = "payment"
	ChangeLoading ChangeKind = "loading"
	ChangeHistory ChangeKind = "history"
	ChangeUser    ChangeKind = "user"
	ChangeCleared ChangeKind = "cleared"
	ChangeReset   ChangeKind = "reset"
)

// Persisted reports whether the change affects state that outlives a session.
func (k ChangeKind) Persisted() bool {
	return k == ChangeHistory || k == ChangeUser
}

// State is a point-in-time copy of a session.
type State struct {
	SessionID string                 `json:"session_id"`
	Booking   *domain.BookingData    `json:"current_booking"`
	Payment   *domain.PaymentForm    `json:"payment_data"`
	Receipt   *domain.BookingRecord  `json:"receipt"`
	History   []domain.BookingRecord `json:"booking_history"`
	User      *domain.User           `json:"user"`
	Loading   bool                   `json:"is_loading"`
	Version   uint64                 `json:"version"`
}

func (s State) Persisted() domain.PersistedState {
	return domain.PersistedState{History: s.History, User: s.User}
}

type Listener func(kind ChangeKind, state State)

// Store is the state of one booking session. It is safe for concurrent use;
// listeners run after the lock is released, in subscription order.
type Store struct {
	mu        sync.Mutex
	state     State
	listeners map[int]Listener
	nextID    int
}

func NewStore(sessionID string, persisted domain.PersistedState) *Store {
	return &Store{
		state: State{
			SessionID: sessionID,
			History:   slices.Clone(persisted.History),
			User:      cloneUser(persisted.User),
		},
		listeners: make(map[int]Listener),
	}
}

func (s *Store) ID() string {
	return s.state.SessionID
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Version changes whenever the current booking is replaced or cleared.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Version
}

// Loading reports whether a payment is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Loading
}

func (s *Store) CurrentBooking() (domain.BookingData, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Booking == nil {
		return domain.BookingData{}, false
	}
	return *s.state.Booking, true
}

func (s *Store) Receipt() (domain.BookingRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Receipt == nil {
		return domain.BookingRecord{}, false
	}
	return *s.state.Receipt, true
}

func (s *Store) User() *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneUser(s.state.User)
}

func (s *Store) History() []domain.BookingRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.state.History)
}

// HistoryFor returns the history entries stamped with userID.
func (s *Store) HistoryFor(userID string) []domain.BookingRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.BookingRecord, 0, len(s.state.History))
	for _, r := range s.state.History {
		if r.BelongsTo(userID) {
			out = append(out, r)
		}
	}
	return out
}

// SetBookingData replaces the current booking. Nothing is merged.
func (s *Store) SetBookingData(b domain.BookingData) {
	s.mutate(ChangeBooking, func(st *State) bool {
		st.Booking = &b
		st.Receipt = nil
		st.Version++
		return true
	})
}

// SetPaymentData keeps the payment details on the session. Callers pass an
// already masked form.
func (s *Store) SetPaymentData(p domain.PaymentForm) {
	p.CVV = ""
	s.mutate(ChangePayment, func(st *State) bool {
		st.Payment = &p
		return true
	})
}

func (s *Store) SetLoading(loading bool) {
	s.mutate(ChangeLoading, func(st *State) bool {
		if st.Loading == loading {
			return false
		}
		st.Loading = loading
		return true
	})
}

// AddToHistory prepends r unless a record for the same room and dates is
// already present. The current booking is left alone.
func (s *Store) AddToHistory(r domain.BookingRecord) bool {
	var added bool
	s.mutate(ChangeHistory, func(st *State) bool {
		_, added = addRecord(st, r)
		return added
	})
	return added
}

// SetReceipt records the paid booking shown on the receipt page.
func (s *Store) SetReceipt(r domain.BookingRecord) {
	s.mutate(ChangePayment, func(st *State) bool {
		st.Receipt = &r
		return true
	})
}

// BeginPayment marks a payment in flight for the current booking and returns
// that booking with its version. Only one payment per session may be in
// flight; a second caller gets domain.ErrPaymentInProgress.
func (s *Store) BeginPayment() (domain.BookingData, uint64, error) {
	var (
		booking domain.BookingData
		version uint64
		err     error
	)
	s.mutate(ChangeLoading, func(st *State) bool {
		switch {
		case st.Booking == nil:
			err = domain.ErrNoActiveBooking
			return false
		case st.Loading:
			err = domain.ErrPaymentInProgress
			return false
		}
		st.Loading = true
		booking = *st.Booking
		version = st.Version
		return true
	})
	return booking, version, err
}

// EndPayment clears the in-flight flag set by BeginPayment, unless the
// booking has been replaced since and a newer payment may own it.
func (s *Store) EndPayment(version uint64) {
	s.mutate(ChangeLoading, func(st *State) bool {
		if !st.Loading || st.Version != version {
			return false
		}
		st.Loading = false
		return true
	})
}

// CommitPayment applies a successful payment if the booking it was made for
// is still current. It stores the masked payment, adds r to history and sets
// the receipt in one step. When history already holds the stay the existing
// record becomes the receipt and is returned with added == false.
func (s *Store) CommitPayment(version uint64, p domain.PaymentForm, r domain.BookingRecord) (domain.BookingRecord, bool, error) {
	p.CVV = ""

	var (
		committed domain.BookingRecord
		added     bool
		err       error
	)
	s.mutate(ChangeHistory, func(st *State) bool {
		if st.Version != version || st.Booking == nil {
			err = domain.ErrBookingChanged
			return false
		}
		committed, added = addRecord(st, r)
		st.Payment = &p
		st.Receipt = &committed
		st.Loading = false
		return true
	})
	return committed, added, err
}

// ClearCurrentBooking drops the booking, payment data and receipt. History is
// kept. Calling it on a clear session changes nothing.
func (s *Store) ClearCurrentBooking() {
	s.mutate(ChangeCleared, func(st *State) bool {
		if st.Booking == nil && st.Payment == nil && st.Receipt == nil {
			return false
		}
		st.Booking = nil
		st.Payment = nil
		st.Receipt = nil
		st.Version++
		return true
	})
}

// Reset is ClearCurrentBooking plus the loading flag.
func (s *Store) Reset() {
	s.mutate(ChangeReset, func(st *State) bool {
		if st.Booking == nil && st.Payment == nil && st.Receipt == nil && !st.Loading {
			return false
		}
		st.Booking = nil
		st.Payment = nil
		st.Receipt = nil
		st.Loading = false
		st.Version++
		return true
	})
}

func (s *Store) SetUser(u domain.User) {
	s.mutate(ChangeUser, func(st *State) bool {
		st.User = &u
		return true
	})
}

func (s *Store) Logout() {
	s.mutate(ChangeUser, func(st *State) bool {
		if st.User == nil {
			return false
		}
		st.User = nil
		return true
	})
}

// addRecord returns the history entry that now covers r's stay.
func addRecord(st *State, r domain.BookingRecord) (domain.BookingRecord, bool) {
	for _, existing := range st.History {
		if existing.Booking.SameStay(r.Booking) {
			return existing, false
		}
	}
	st.History = append([]domain.BookingRecord{r}, st.History...)
	return r, true
}

// mutate applies fn under the lock and, if fn reports a change, notifies
// listeners with a snapshot taken before unlocking.
func (s *Store) mutate(kind ChangeKind, fn func(*State) bool) {
	s.mu.Lock()
	if !fn(&s.state) {
		s.mu.Unlock()
		return
	}
	snap := s.snapshotLocked()
	listeners := make([]Listener, 0, len(s.listeners))
	for id := 0; id < s.nextID; id++ {
		if l, ok := s.listeners[id]; ok {
			listeners = append(listeners, l)
		}
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(kind, snap)
	}
}

func (s *Store) snapshotLocked() State {
	st := s.state
	if st.Booking != nil {
		b := *st.Booking
		st.Booking = &b
	}
	if st.Payment != nil {
		p := *st.Payment
		st.Payment = &p
	}
	if st.Receipt != nil {
		r := *st.Receipt
		st.Receipt = &r
	}
	st.History = slices.Clone(st.History)
	st.User = cloneUser(st.User)
	return st
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
