package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrInvalidDateRange   = errors.New("check-out must be after check-in")
	ErrCheckInPast        = errors.New("check-in must not be in the past")
	ErrNoActiveBooking    = errors.New("no active booking in session")
	ErrNoReceipt          = errors.New("no paid booking in session")
	ErrBookingChanged     = errors.New("booking changed while payment was in flight")
	ErrPaymentInProgress  = errors.New("a payment for this booking is already in progress")
	ErrSessionNotFound    = errors.New("session not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already registered")
	ErrNotAuthenticated   = errors.New("not authenticated")
)

// AvailabilityError lists why a stay cannot be booked.
type AvailabilityError struct {
	RoomID           string
	UnavailableDates []string
	Guests           int
	Capacity         int
}

func (e *AvailabilityError) CapacityExceeded() bool {
	return e.Guests > e.Capacity
}

func (e *AvailabilityError) Error() string {
	var parts []string
	if len(e.UnavailableDates) > 0 {
		parts = append(parts, fmt.Sprintf("room '%s' is unavailable on %s", e.RoomID, strings.Join(e.UnavailableDates, ", ")))
	}
	if e.CapacityExceeded() {
		parts = append(parts, fmt.Sprintf("room '%s' holds %d guests, %d requested", e.RoomID, e.Capacity, e.Guests))
	}
	return strings.Join(parts, "; ")
}

func IsAvailabilityError(err error) *AvailabilityError {
	var availabilityErr *AvailabilityError
	if errors.As(err, &availabilityErr) {
		return availabilityErr
	}
	return nil
}

// PaymentError is a simulated payment decline. The caller may resubmit.
type PaymentError struct {
	Reason PaymentFailure
}

func (e *PaymentError) Error() string {
	return "payment failed: " + string(e.Reason)
}

func IsPaymentError(err error) *PaymentError {
	var paymentErr *PaymentError
	if errors.As(err, &paymentErr) {
		return paymentErr
	}
	return nil
}
