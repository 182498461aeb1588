package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/hotel-bookings/internal/domain"
	"github.com/diagnosis/hotel-bookings/internal/http/middleware"
	"github.com/diagnosis/hotel-bookings/internal/http/response"
	"github.com/diagnosis/hotel-bookings/internal/service"
)

// BookingHandler drives the draft -> confirmation -> payment -> receipt flow
// of the caller's session.
type BookingHandler struct {
	Bookings       service.BookingService
	RequireSession func(http.Handler) http.Handler
	Idempotency    func(http.Handler) http.Handler
}

func (h *BookingHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(h.RequireSession)
		pr.Put("/draft", h.putDraft)
		pr.Get("/draft", h.getDraft)
		pr.Get("/confirmation", h.confirmation)
		if h.Idempotency != nil {
			pr.With(h.Idempotency).Post("/payment", h.pay)
		} else {
			pr.Post("/payment", h.pay)
		}
		pr.Get("/receipt", h.receipt)
		pr.Delete("/current", h.finish)
		pr.Post("/reset", h.reset)
		pr.Get("/history", h.history)
	})
	return r
}

func (h *BookingHandler) ProfileRoutes() chi.Router {
	r := chi.NewRouter()
	r.With(h.RequireSession).Get("/", h.profile)
	return r
}

func (h *BookingHandler) putDraft(w http.ResponseWriter, r *http.Request) {
	var req domain.DraftRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	draft, err := h.Bookings.CreateDraft(r.Context(), middleware.Store(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, draft)
}

func (h *BookingHandler) getDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := h.Bookings.Draft(r.Context(), middleware.Store(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, draft)
}

func (h *BookingHandler) confirmation(w http.ResponseWriter, r *http.Request) {
	c, err := h.Bookings.Confirmation(r.Context(), middleware.Store(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, c)
}

func (h *BookingHandler) pay(w http.ResponseWriter, r *http.Request) {
	var req domain.PaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	record, err := h.Bookings.Pay(r.Context(), middleware.Store(r), req.Form())
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, record)
}

func (h *BookingHandler) receipt(w http.ResponseWriter, r *http.Request) {
	record, err := h.Bookings.Receipt(r.Context(), middleware.Store(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if r.URL.Query().Get("format") != "txt" {
		response.JSON(w, http.StatusOK, record)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="receipt-%s.txt"`, record.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(h.Bookings.RenderReceipt(record)))
}

func (h *BookingHandler) finish(w http.ResponseWriter, r *http.Request) {
	if err := h.Bookings.Finish(r.Context(), middleware.Store(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BookingHandler) reset(w http.ResponseWriter, r *http.Request) {
	h.Bookings.Reset(r.Context(), middleware.Store(r))
	w.WriteHeader(http.StatusNoContent)
}

type historyResponse struct {
	Bookings []domain.BookingRecord `json:"bookings"`
	Count    int                    `json:"count"`
}

func (h *BookingHandler) history(w http.ResponseWriter, r *http.Request) {
	records := h.Bookings.History(r.Context(), middleware.Store(r))
	if records == nil {
		records = []domain.BookingRecord{}
	}
	response.JSON(w, http.StatusOK, historyResponse{Bookings: records, Count: len(records)})
}

func (h *BookingHandler) profile(w http.ResponseWriter, r *http.Request) {
	p, err := h.Bookings.Profile(r.Context(), middleware.Store(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, p)
}
