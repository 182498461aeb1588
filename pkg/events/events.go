package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/diagnosis/hotel-bookings/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("hotel-bookings"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSPublisher{conn: conn}, nil
}

func (n *NATSPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSPublisher) Close() error {
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
		return err
	}
	return nil
}

// LogPublisher writes events to the structured log. Used when no NATS URL is
// configured.
type LogPublisher struct{}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

func (LogPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.InfoContext(ctx, "Event", "subject", subject, "data", string(payload))

	return nil
}

func (LogPublisher) Close() error { return nil }

const (
	BookingDrafted = "booking.drafted"
	BookingPaid    = "booking.paid"
	BookingCleared = "booking.cleared"

	PaymentFailed = "payment.failed"

	UserLoggedIn   = "user.logged_in"
	UserRegistered = "user.registered"
)

type BookingDraftedEvent struct {
	SessionID  string    `json:"session_id"`
	RoomID     string    `json:"room_id"`
	CheckIn    string    `json:"check_in"`
	CheckOut   string    `json:"check_out"`
	Guests     int       `json:"guests"`
	Nights     int       `json:"nights"`
	TotalPrice float64   `json:"total_price"`
	Currency   string    `json:"currency"`
	UserID     *string   `json:"user_id,omitempty"`
	DraftedAt  time.Time `json:"drafted_at"`
}

type BookingPaidEvent struct {
	SessionID     string    `json:"session_id"`
	BookingID     string    `json:"booking_id"`
	TransactionID string    `json:"transaction_id"`
	RoomID        string    `json:"room_id"`
	CheckIn       string    `json:"check_in"`
	CheckOut      string    `json:"check_out"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	GuestEmail    string    `json:"guest_email"`
	UserID        *string   `json:"user_id,omitempty"`
	Duplicate     bool      `json:"duplicate"`
	PaidAt        time.Time `json:"paid_at"`
}

type PaymentFailedEvent struct {
	SessionID string    `json:"session_id"`
	RoomID    string    `json:"room_id"`
	Reason    string    `json:"reason"`
	Amount    float64   `json:"amount"`
	FailedAt  time.Time `json:"failed_at"`
}

type BookingClearedEvent struct {
	SessionID string    `json:"session_id"`
	ClearedAt time.Time `json:"cleared_at"`
}

type UserEvent struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	At        time.Time `json:"at"`
}
