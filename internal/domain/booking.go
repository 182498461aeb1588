package domain

import "time"

type GuestInfo struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

func (g GuestInfo) FullName() string {
	switch {
	case g.FirstName == "":
		return g.LastName
	case g.LastName == "":
		return g.FirstName
	default:
		return g.FirstName + " " + g.LastName
	}
}

// DraftRequest is what the room page submits: selected stay plus guest info.
type DraftRequest struct {
	RoomID    string    `json:"room_id"`
	CheckIn   string    `json:"check_in"`
	CheckOut  string    `json:"check_out"`
	Guests    int       `json:"guests"`
	GuestInfo GuestInfo `json:"guest_info"`
}

// BookingData is the in-progress (draft) booking held by a session.
type BookingData struct {
	RoomID     string    `json:"room_id"`
	RoomName   string    `json:"room_name"`
	CheckIn    string    `json:"check_in"`
	CheckOut   string    `json:"check_out"`
	Guests     int       `json:"guests"`
	Nights     int       `json:"nights"`
	TotalPrice float64   `json:"total_price"`
	Currency   string    `json:"currency"`
	GuestInfo  GuestInfo `json:"guest_info"`
	UserID     *string   `json:"user_id"`
}

// SameStay reports whether both bookings cover the same room and dates.
func (b BookingData) SameStay(other BookingData) bool {
	return b.RoomID == other.RoomID && b.CheckIn == other.CheckIn && b.CheckOut == other.CheckOut
}

// BookingRecord is a paid booking kept in history.
type BookingRecord struct {
	ID            string      `json:"id"`
	TransactionID string      `json:"transaction_id"`
	Booking       BookingData `json:"booking"`
	UserID        *string     `json:"user_id"`
	PaidAt        time.Time   `json:"paid_at"`
}

func (r BookingRecord) BelongsTo(userID string) bool {
	return r.UserID != nil && *r.UserID == userID
}

// Confirmation is the read-only checkpoint shown before payment.
type Confirmation struct {
	Booking BookingData `json:"booking"`
	Room    Room        `json:"room"`
}

// Quote is the availability and price of a stay, before guest info.
type Quote struct {
	RoomID           string   `json:"room_id"`
	CheckIn          string   `json:"check_in"`
	CheckOut         string   `json:"check_out"`
	Guests           int      `json:"guests"`
	Nights           int      `json:"nights"`
	NightlyPrice     float64  `json:"nightly_price"`
	TotalPrice       float64  `json:"total_price"`
	Currency         string   `json:"currency"`
	Available        bool     `json:"available"`
	UnavailableDates []string `json:"unavailable_dates,omitempty"`
	CapacityExceeded bool     `json:"capacity_exceeded,omitempty"`
}

// PersistedState is the part of a session that outlives it.
type PersistedState struct {
	History []BookingRecord `json:"booking_history"`
	User    *User           `json:"user"`
}

type ProfileStats struct {
	TotalBookings int     `json:"total_bookings"`
	TotalNights   int     `json:"total_nights"`
	TotalSpent    float64 `json:"total_spent"`
}

type Profile struct {
	User     User            `json:"user"`
	Bookings []BookingRecord `json:"bookings"`
	Stats    ProfileStats    `json:"stats"`
}
