package response

import (
	"encoding/json"
	"net/http"

	"github.com/diagnosis/hotel-bookings/pkg/logger"
)

// ErrorResponse represents a structured JSON error response
type ErrorResponse struct {
	Error    string              `json:"error"`
	Code     string              `json:"code,omitempty"`
	Details  string              `json:"details,omitempty"`
	Fields   map[string][]string `json:"fields,omitempty"`
	Reason   string              `json:"reason,omitempty"`
	Redirect string              `json:"redirect,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// WriteError writes a structured JSON error response
func WriteError(w http.ResponseWriter, statusCode int, message string, code string) {
	JSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

// WriteErrorWithDetails writes a structured JSON error response with additional details
func WriteErrorWithDetails(w http.ResponseWriter, statusCode int, message, code, details string) {
	JSON(w, statusCode, ErrorResponse{Error: message, Code: code, Details: details})
}

// Common error codes
const (
	CodeInvalidInput    = "INVALID_INPUT"
	CodeValidation      = "VALIDATION_FAILED"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeRateLimit       = "RATE_LIMIT_EXCEEDED"
	CodeInternalError   = "INTERNAL_ERROR"
	CodeInvalidToken    = "INVALID_TOKEN"
	CodeSessionExpired  = "SESSION_EXPIRED"
	CodePastDate        = "PAST_DATE"
	CodeInvalidRange    = "INVALID_DATE_RANGE"
	CodeEmailExists     = "EMAIL_EXISTS"
	CodeUnavailable     = "ROOM_UNAVAILABLE"
	CodePaymentFailed   = "PAYMENT_FAILED"
	CodeNoActiveBooking = "NO_ACTIVE_BOOKING"
	CodeBookingChanged  = "BOOKING_CHANGED"
	CodePaymentBusy     = "PAYMENT_IN_PROGRESS"
	CodeTimeout         = "REQUEST_TIMEOUT"
)

// Convenience functions for common errors
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message, CodeInvalidInput)
}

func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message, CodeUnauthorized)
}

func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message, CodeNotFound)
}

func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message, CodeInternalError)
}

func RateLimit(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, message, CodeRateLimit)
}

func Conflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, message, CodeConflict)
}

// Validation lists the rejected fields.
func Validation(w http.ResponseWriter, fields map[string][]string) {
	JSON(w, http.StatusUnprocessableEntity, ErrorResponse{
		Error:  "validation failed",
		Code:   CodeValidation,
		Fields: fields,
	})
}

// PaymentFailed reports a declined payment; the client may resubmit.
func PaymentFailed(w http.ResponseWriter, reason string) {
	JSON(w, http.StatusPaymentRequired, ErrorResponse{
		Error:  "payment failed",
		Code:   CodePaymentFailed,
		Reason: reason,
	})
}

// Restart tells the client to send the user back to the room list.
func Restart(w http.ResponseWriter, message, code string) {
	JSON(w, http.StatusConflict, ErrorResponse{
		Error:    message,
		Code:     code,
		Redirect: "/",
	})
}
