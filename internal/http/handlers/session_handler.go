package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/hotel-bookings/internal/domain"
	"github.com/diagnosis/hotel-bookings/internal/http/middleware"
	"github.com/diagnosis/hotel-bookings/internal/http/response"
	"github.com/diagnosis/hotel-bookings/internal/service"
	"github.com/diagnosis/hotel-bookings/internal/session"
	"github.com/diagnosis/hotel-bookings/pkg/auth"
	"github.com/diagnosis/hotel-bookings/pkg/logger"
)

type SessionManager interface {
	Open(ctx context.Context) (*session.Store, error)
	Get(ctx context.Context, id string) (*session.Store, error)
	Close(ctx context.Context, id string) error
}

// SessionHandler opens and closes booking sessions and signs users in and
// out of them. Every state change re-issues the session token.
type SessionHandler struct {
	Sessions       SessionManager
	Auth           service.AuthService
	Secret         string
	TTL            time.Duration
	RequireSession func(http.Handler) http.Handler
	LoginLimiter   func(http.Handler) http.Handler
}

func (h *SessionHandler) SessionRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.open)
	r.With(h.RequireSession).Delete("/", h.close)
	return r
}

func (h *SessionHandler) AuthRoutes() chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(h.RequireSession)
		if h.LoginLimiter != nil {
			pr.With(h.LoginLimiter).Post("/login", h.login)
		} else {
			pr.Post("/login", h.login)
		}
		pr.Post("/register", h.register)
		pr.Post("/logout", h.logout)
		pr.Get("/me", h.me)
	})
	return r
}

func (h *SessionHandler) open(w http.ResponseWriter, r *http.Request) {
	store, err := h.Sessions.Open(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to open session", "error", err)
		response.InternalError(w, "could not open session")
		return
	}
	h.issue(w, r, http.StatusCreated, store.ID(), nil)
}

func (h *SessionHandler) close(w http.ResponseWriter, r *http.Request) {
	store := middleware.Store(r)
	if err := h.Sessions.Close(r.Context(), store.ID()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	store := middleware.Store(r)
	user, err := h.Auth.Login(r.Context(), store, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.issue(w, r, http.StatusOK, store.ID(), &user)
}

func (h *SessionHandler) register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	store := middleware.Store(r)
	user, err := h.Auth.Register(r.Context(), store, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.issue(w, r, http.StatusCreated, store.ID(), &user)
}

func (h *SessionHandler) logout(w http.ResponseWriter, r *http.Request) {
	store := middleware.Store(r)
	if c := middleware.Claims(r); c != nil && c.Authenticated() {
		logger.InfoContext(r.Context(), "Session token signed out", "user_id", c.UserID)
	}
	h.Auth.Logout(r.Context(), store)
	h.issue(w, r, http.StatusOK, store.ID(), nil)
}

func (h *SessionHandler) me(w http.ResponseWriter, r *http.Request) {
	user, err := h.Auth.Me(r.Context(), middleware.Store(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, user)
}

func (h *SessionHandler) issue(w http.ResponseWriter, r *http.Request, status int, sessionID string, user *domain.User) {
	var userID, email string
	if user != nil {
		userID, email = user.ID, user.Email
	}
	tok, err := auth.NewSessionToken(sessionID, userID, email, h.Secret, h.TTL)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to sign session token", "session_id", sessionID, "error", err)
		response.InternalError(w, "could not issue session token")
		return
	}
	response.JSON(w, status, domain.SessionResponse{
		SessionToken: tok,
		ExpiresIn:    int64(h.TTL.Seconds()),
		User:         user,
	})
}
