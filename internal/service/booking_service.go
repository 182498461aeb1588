package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/diagnosis/hotel-bookings/internal/availability"
	"github.com/diagnosis/hotel-bookings/internal/domain"
	"github.com/diagnosis/hotel-bookings/internal/payment"
	"github.com/diagnosis/hotel-bookings/internal/platform/mailer"
	"github.com/diagnosis/hotel-bookings/internal/pricing"
	"github.com/diagnosis/hotel-bookings/internal/session"
	"github.com/diagnosis/hotel-bookings/internal/utils"
	"github.com/diagnosis/hotel-bookings/internal/validation"
	"github.com/diagnosis/hotel-bookings/pkg/events"
	"github.com/diagnosis/hotel-bookings/pkg/logger"
)

type RoomCatalog interface {
	Get(id string) (domain.Room, error)
	Search(f domain.SearchFilters) []domain.Room
}

type PaymentProcessor interface {
	Process(ctx context.Context, form domain.PaymentForm) (domain.PaymentResult, error)
}

type BookingIDGenerator interface {
	BookingID() string
}

type BookingService interface {
	ListRooms(ctx context.Context, f domain.SearchFilters) []domain.Room
	GetRoom(ctx context.Context, id string) (domain.Room, error)
	Quote(ctx context.Context, roomID, checkIn, checkOut string, guests int) (domain.Quote, error)
	CreateDraft(ctx context.Context, store *session.Store, req domain.DraftRequest) (domain.BookingData, error)
	Draft(ctx context.Context, store *session.Store) (domain.BookingData, error)
	Confirmation(ctx context.Context, store *session.Store) (domain.Confirmation, error)
	Pay(ctx context.Context, store *session.Store, form domain.PaymentForm) (domain.BookingRecord, error)
	Receipt(ctx context.Context, store *session.Store) (domain.BookingRecord, error)
	RenderReceipt(record domain.BookingRecord) string
	Finish(ctx context.Context, store *session.Store) error
	Reset(ctx context.Context, store *session.Store)
	History(ctx context.Context, store *session.Store) []domain.BookingRecord
	Profile(ctx context.Context, store *session.Store) (domain.Profile, error)
}

type bookingService struct {
	catalog   RoomCatalog
	payments  PaymentProcessor
	ids       BookingIDGenerator
	publisher events.Publisher
	mailer    mailer.Service
	formatter *pricing.Formatter
	now       func() time.Time
}

func NewBookingService(
	catalog RoomCatalog,
	payments PaymentProcessor,
	ids BookingIDGenerator,
	publisher events.Publisher,
	mailer mailer.Service,
	formatter *pricing.Formatter,
	now func() time.Time,
) BookingService {
	if now == nil {
		now = time.Now
	}
	return &bookingService{
		catalog:   catalog,
		payments:  payments,
		ids:       ids,
		publisher: publisher,
		mailer:    mailer,
		formatter: formatter,
		now:       now,
	}
}

func (s *bookingService) ListRooms(_ context.Context, f domain.SearchFilters) []domain.Room {
	return s.catalog.Search(f)
}

func (s *bookingService) GetRoom(_ context.Context, id string) (domain.Room, error) {
	return s.catalog.Get(id)
}

// stay parses and checks the dates and guest count shared by quotes and
// drafts.
func (s *bookingService) stay(checkIn, checkOut string, guests int) (time.Time, time.Time, error) {
	errs := validation.NewErrors()
	errs.Add(validation.Required("check_in", checkIn))
	errs.Add(validation.Required("check_out", checkOut))
	if errs.Len() > 0 {
		return time.Time{}, time.Time{}, errs
	}

	in, err := domain.ParseDate(checkIn)
	if err != nil {
		errs.Add(&validation.FieldError{Field: "check_in", Reason: "must be a YYYY-MM-DD date"})
	}
	out, err := domain.ParseDate(checkOut)
	if err != nil {
		errs.Add(&validation.FieldError{Field: "check_out", Reason: "must be a YYYY-MM-DD date"})
	}
	if guests < 1 {
		errs.Add(&validation.FieldError{Field: "guests", Reason: "must be at least 1"})
	}
	if errs.Len() > 0 {
		return time.Time{}, time.Time{}, errs
	}

	if !out.After(in) {
		return time.Time{}, time.Time{}, domain.ErrInvalidDateRange
	}
	if in.Before(domain.DateOf(s.now())) {
		return time.Time{}, time.Time{}, domain.ErrCheckInPast
	}
	return in, out, nil
}

func (s *bookingService) Quote(ctx context.Context, roomID, checkIn, checkOut string, guests int) (domain.Quote, error) {
	room, err := s.catalog.Get(roomID)
	if err != nil {
		return domain.Quote{}, err
	}
	in, out, err := s.stay(checkIn, checkOut, guests)
	if err != nil {
		return domain.Quote{}, err
	}
	return pricing.QuoteStay(room, in, out, guests)
}

func (s *bookingService) CreateDraft(ctx context.Context, store *session.Store, req domain.DraftRequest) (domain.BookingData, error) {
	room, err := s.catalog.Get(req.RoomID)
	if err != nil {
		return domain.BookingData{}, err
	}

	in, out, err := s.stay(req.CheckIn, req.CheckOut, req.Guests)
	if err != nil {
		return domain.BookingData{}, err
	}
	if err := availability.Check(room, in, out, req.Guests); err != nil {
		return domain.BookingData{}, err
	}

	guest := domain.GuestInfo{
		FirstName: utils.NormalizeString(req.GuestInfo.FirstName),
		LastName:  utils.NormalizeString(req.GuestInfo.LastName),
		Email:     utils.NormalizeEmail(req.GuestInfo.Email),
		Phone:     utils.NormalizeString(req.GuestInfo.Phone),
	}
	if err := validation.GuestInfo(guest); err != nil {
		return domain.BookingData{}, err
	}

	quote, err := pricing.QuoteStay(room, in, out, req.Guests)
	if err != nil {
		return domain.BookingData{}, err
	}

	draft := domain.BookingData{
		RoomID:     room.ID,
		RoomName:   room.Name,
		CheckIn:    quote.CheckIn,
		CheckOut:   quote.CheckOut,
		Guests:     req.Guests,
		Nights:     quote.Nights,
		TotalPrice: quote.TotalPrice,
		Currency:   quote.Currency,
		GuestInfo:  guest,
	}
	if u := store.User(); u != nil {
		id := u.ID
		draft.UserID = &id
	}

	store.SetBookingData(draft)
	logger.InfoContext(ctx, "booking drafted",
		"session_id", store.ID(),
		"room_id", draft.RoomID,
		"nights", draft.Nights,
		"total", draft.TotalPrice,
	)

	s.publish(ctx, events.BookingDrafted, events.BookingDraftedEvent{
		SessionID:  store.ID(),
		RoomID:     draft.RoomID,
		CheckIn:    draft.CheckIn,
		CheckOut:   draft.CheckOut,
		Guests:     draft.Guests,
		Nights:     draft.Nights,
		TotalPrice: draft.TotalPrice,
		Currency:   draft.Currency,
		UserID:     draft.UserID,
		DraftedAt:  s.now().UTC(),
	})
	return draft, nil
}

func (s *bookingService) Draft(_ context.Context, store *session.Store) (domain.BookingData, error) {
	draft, ok := store.CurrentBooking()
	if !ok {
		return domain.BookingData{}, domain.ErrNoActiveBooking
	}
	return draft, nil
}

func (s *bookingService) Confirmation(ctx context.Context, store *session.Store) (domain.Confirmation, error) {
	draft, err := s.Draft(ctx, store)
	if err != nil {
		return domain.Confirmation{}, err
	}
	room, err := s.catalog.Get(draft.RoomID)
	if err != nil {
		return domain.Confirmation{}, err
	}
	return domain.Confirmation{Booking: draft, Room: room}, nil
}

// Pay charges the current booking. A decline is a *domain.PaymentError and the
// caller may try again. If the booking is replaced or cleared while the
// payment is in flight the result is dropped with domain.ErrBookingChanged.
// A second Pay while one is in flight fails with domain.ErrPaymentInProgress
// without charging.
func (s *bookingService) Pay(ctx context.Context, store *session.Store, form domain.PaymentForm) (domain.BookingRecord, error) {
	if _, ok := store.CurrentBooking(); !ok {
		return domain.BookingRecord{}, domain.ErrNoActiveBooking
	}
	if err := validation.PaymentForm(form, s.now()); err != nil {
		return domain.BookingRecord{}, err
	}

	draft, version, err := store.BeginPayment()
	if err != nil {
		return domain.BookingRecord{}, err
	}
	defer store.EndPayment(version)

	result, err := s.payments.Process(ctx, form)
	if err != nil {
		logger.WarnContext(ctx, "payment abandoned", "session_id", store.ID(), "error", err)
		return domain.BookingRecord{}, fmt.Errorf("process payment: %w", err)
	}

	if !result.Success {
		logger.InfoContext(ctx, "payment declined", "session_id", store.ID(), "reason", string(result.Reason))
		s.publish(ctx, events.PaymentFailed, events.PaymentFailedEvent{
			SessionID: store.ID(),
			RoomID:    draft.RoomID,
			Reason:    string(result.Reason),
			Amount:    draft.TotalPrice,
			FailedAt:  s.now().UTC(),
		})
		return domain.BookingRecord{}, &domain.PaymentError{Reason: result.Reason}
	}

	record, added, err := store.CommitPayment(version, payment.Masked(form), domain.BookingRecord{
		ID:            s.ids.BookingID(),
		TransactionID: result.TransactionID,
		Booking:       draft,
		UserID:        draft.UserID,
		PaidAt:        s.now().UTC(),
	})
	if err != nil {
		logger.WarnContext(ctx, "payment result discarded", "session_id", store.ID(), "transaction_id", result.TransactionID)
		return domain.BookingRecord{}, err
	}

	logger.InfoContext(ctx, "booking paid",
		"session_id", store.ID(),
		"booking_id", record.ID,
		"transaction_id", result.TransactionID,
		"duplicate", !added,
	)
	s.publish(ctx, events.BookingPaid, events.BookingPaidEvent{
		SessionID:     store.ID(),
		BookingID:     record.ID,
		TransactionID: result.TransactionID,
		RoomID:        draft.RoomID,
		CheckIn:       draft.CheckIn,
		CheckOut:      draft.CheckOut,
		Amount:        draft.TotalPrice,
		Currency:      draft.Currency,
		GuestEmail:    draft.GuestInfo.Email,
		UserID:        record.UserID,
		Duplicate:     !added,
		PaidAt:        record.PaidAt,
	})

	if added {
		if err := s.mailer.SendReceipt(draft.GuestInfo.Email, draft.GuestInfo.FullName(), record.ID, s.RenderReceipt(record)); err != nil {
			logger.WarnContext(ctx, "receipt email not sent", "booking_id", record.ID, "error", err)
		}
	}
	return record, nil
}

func (s *bookingService) Receipt(_ context.Context, store *session.Store) (domain.BookingRecord, error) {
	record, ok := store.Receipt()
	if !ok {
		return domain.BookingRecord{}, domain.ErrNoReceipt
	}
	return record, nil
}

// RenderReceipt is the plain-text receipt offered for download and mailed to
// the guest.
func (s *bookingService) RenderReceipt(r domain.BookingRecord) string {
	b := r.Booking
	in, _ := domain.ParseDate(b.CheckIn)
	out, _ := domain.ParseDate(b.CheckOut)

	var sb strings.Builder
	sb.WriteString("Booking Receipt\n\n")
	fmt.Fprintf(&sb, "Booking ID: %s\n", r.ID)
	fmt.Fprintf(&sb, "Transaction ID: %s\n", r.TransactionID)
	fmt.Fprintf(&sb, "Booking date: %s\n\n", s.formatter.FormatDate(r.PaidAt))
	sb.WriteString("Room:\n")
	fmt.Fprintf(&sb, "%s\n", b.RoomName)
	fmt.Fprintf(&sb, "Check-in: %s\n", s.formatter.FormatDate(in))
	fmt.Fprintf(&sb, "Check-out: %s\n", s.formatter.FormatDate(out))
	fmt.Fprintf(&sb, "Nights: %d\n", b.Nights)
	fmt.Fprintf(&sb, "Guests: %d\n\n", b.Guests)
	sb.WriteString("Guest:\n")
	fmt.Fprintf(&sb, "%s\n", b.GuestInfo.FullName())
	fmt.Fprintf(&sb, "%s\n", b.GuestInfo.Email)
	fmt.Fprintf(&sb, "%s\n\n", b.GuestInfo.Phone)
	fmt.Fprintf(&sb, "Total: %s\n", s.formatter.FormatPrice(b.TotalPrice, b.Currency))
	return sb.String()
}

func (s *bookingService) Finish(ctx context.Context, store *session.Store) error {
	store.ClearCurrentBooking()
	s.publish(ctx, events.BookingCleared, events.BookingClearedEvent{
		SessionID: store.ID(),
		ClearedAt: s.now().UTC(),
	})
	return nil
}

func (s *bookingService) Reset(_ context.Context, store *session.Store) {
	store.Reset()
}

func (s *bookingService) History(_ context.Context, store *session.Store) []domain.BookingRecord {
	return store.History()
}

func (s *bookingService) Profile(_ context.Context, store *session.Store) (domain.Profile, error) {
	user := store.User()
	if user == nil {
		return domain.Profile{}, domain.ErrNotAuthenticated
	}

	bookings := store.HistoryFor(user.ID)
	stats := domain.ProfileStats{TotalBookings: len(bookings)}
	for _, b := range bookings {
		stats.TotalNights += b.Booking.Nights
		stats.TotalSpent += b.Booking.TotalPrice
	}
	return domain.Profile{User: *user, Bookings: bookings, Stats: stats}, nil
}

func (s *bookingService) publish(ctx context.Context, subject string, data any) {
	if err := s.publisher.Publish(ctx, subject, data); err != nil {
		logger.ErrorContext(ctx, "Failed to publish event", "subject", subject, "error", err)
	}
}

// IsSessionError reports errors that mean the flow has to restart from the
// room list.
func IsSessionError(err error) bool {
	return errors.Is(err, domain.ErrNoActiveBooking) ||
		errors.Is(err, domain.ErrNoReceipt) ||
		errors.Is(err, domain.ErrBookingChanged)
}
