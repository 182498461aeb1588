package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/diagnosis/hotel-bookings/internal/http/middleware"
	"github.com/diagnosis/hotel-bookings/internal/service"
	mw "github.com/diagnosis/hotel-bookings/pkg/middleware"
)

// KVStore backs both the login rate limiter and payment idempotency.
type KVStore interface {
	mw.IdempotencyStore
	middleware.Counter
}

type Deps struct {
	Bookings service.BookingService
	Auth     service.AuthService
	Sessions SessionManager

	JWTSecret  string
	SessionTTL time.Duration

	KV             KVStore
	IdempotencyTTL time.Duration
	LoginAttempts  int
	LoginWindow    time.Duration

	AllowOrigins []string
}

func NewRouter(d Deps) http.Handler {
	requireSession := middleware.RequireSession(d.JWTSecret, d.Sessions)

	var loginLimiter, idempotency func(http.Handler) http.Handler
	if d.KV != nil {
		if d.LoginAttempts > 0 {
			loginLimiter = middleware.NewRateLimiter(d.KV, middleware.RateLimitConfig{
				Requests: d.LoginAttempts,
				Window:   d.LoginWindow,
			}).Middleware()
		}
		idempotency = mw.Idempotency(d.KV, d.IdempotencyTTL)
	}

	rooms := NewRoomsHandler(d.Bookings)
	sessions := &SessionHandler{
		Sessions:       d.Sessions,
		Auth:           d.Auth,
		Secret:         d.JWTSecret,
		TTL:            d.SessionTTL,
		RequireSession: requireSession,
		LoginLimiter:   loginLimiter,
	}
	bookings := &BookingHandler{
		Bookings:       d.Bookings,
		RequireSession: requireSession,
		Idempotency:    idempotency,
	}

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("hotel-bookings"))
	r.Use(mw.Logging)
	r.Use(chimw.Recoverer)
	r.Use(mw.CORS(d.AllowOrigins))
	r.Use(mw.Health)

	r.Route("/v1", func(r chi.Router) {
		r.Mount("/rooms", rooms.Routes())
		r.Mount("/sessions", sessions.SessionRoutes())
		r.Mount("/auth", sessions.AuthRoutes())
		r.Mount("/booking", bookings.Routes())
		r.Mount("/profile", bookings.ProfileRoutes())
	})
	return r
}
