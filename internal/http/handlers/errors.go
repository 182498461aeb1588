package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/diagnosis/hotel-bookings/internal/domain"
	"github.com/diagnosis/hotel-bookings/internal/http/response"
	"github.com/diagnosis/hotel-bookings/internal/service"
	"github.com/diagnosis/hotel-bookings/internal/validation"
	"github.com/diagnosis/hotel-bookings/pkg/logger"
)

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return false
	}
	return true
}

// writeError maps service errors onto the API's status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if verr := validation.IsErrors(err); verr != nil {
		response.Validation(w, verr.Fields())
		return
	}
	if aerr := domain.IsAvailabilityError(err); aerr != nil {
		response.JSON(w, http.StatusConflict, unavailableResponse{
			ErrorResponse: response.ErrorResponse{
				Error: aerr.Error(),
				Code:  response.CodeUnavailable,
			},
			UnavailableDates: aerr.UnavailableDates,
			CapacityExceeded: aerr.CapacityExceeded(),
		})
		return
	}
	if perr := domain.IsPaymentError(err); perr != nil {
		response.PaymentFailed(w, string(perr.Reason))
		return
	}

	switch {
	case errors.Is(err, domain.ErrPaymentInProgress):
		response.WriteError(w, http.StatusConflict, "a payment is already in progress", response.CodePaymentBusy)
	case errors.Is(err, domain.ErrBookingChanged):
		response.Restart(w, "booking changed, please start again", response.CodeBookingChanged)
	case service.IsSessionError(err):
		response.Restart(w, "no active booking, please choose a room", response.CodeNoActiveBooking)
	case errors.Is(err, domain.ErrRoomNotFound):
		response.NotFound(w, "room not found")
	case errors.Is(err, domain.ErrInvalidCredentials):
		response.Unauthorized(w, "invalid email or password")
	case errors.Is(err, domain.ErrNotAuthenticated):
		response.Unauthorized(w, "login required")
	case errors.Is(err, domain.ErrEmailExists):
		response.WriteError(w, http.StatusConflict, "email already registered", response.CodeEmailExists)
	case errors.Is(err, domain.ErrInvalidDateRange):
		response.WriteError(w, http.StatusUnprocessableEntity, err.Error(), response.CodeInvalidRange)
	case errors.Is(err, domain.ErrCheckInPast):
		response.WriteError(w, http.StatusUnprocessableEntity, err.Error(), response.CodePastDate)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		response.WriteError(w, http.StatusGatewayTimeout, "request timed out", response.CodeTimeout)
	default:
		logger.ErrorContext(r.Context(), "Unhandled request error", "path", r.URL.Path, "error", err)
		response.InternalError(w, "internal server error")
	}
}

type unavailableResponse struct {
	response.ErrorResponse
	UnavailableDates []string `json:"unavailable_dates,omitempty"`
	CapacityExceeded bool     `json:"capacity_exceeded,omitempty"`
}
