package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/diagnosis/hotel-bookings/internal/domain"
	"github.com/diagnosis/hotel-bookings/internal/http/response"
	"github.com/diagnosis/hotel-bookings/internal/session"
	"github.com/diagnosis/hotel-bookings/pkg/auth"
	"github.com/diagnosis/hotel-bookings/pkg/logger"
)

type ctxKey string

const (
	CtxClaims ctxKey = "claims"
	CtxStore  ctxKey = "session_store"
)

type SessionSource interface {
	Get(ctx context.Context, id string) (*session.Store, error)
}

// RequireSession resolves the session token (Authorization bearer, or the
// session_token query parameter for download links) to its live store.
func RequireSession(secret string, sessions SessionSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := r.URL.Query().Get("session_token")
			if tok == "" {
				if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
					tok = strings.TrimPrefix(authz, "Bearer ")
				}
			}
			if tok == "" {
				response.WriteError(w, http.StatusUnauthorized, "session token is required", response.CodeUnauthorized)
				return
			}

			claims, err := auth.Parse(tok, secret)
			if err != nil {
				response.WriteError(w, http.StatusUnauthorized, "invalid session token", response.CodeInvalidToken)
				return
			}

			store, err := sessions.Get(r.Context(), claims.SessionID)
			if errors.Is(err, domain.ErrSessionNotFound) {
				response.WriteError(w, http.StatusUnauthorized, "session has expired", response.CodeSessionExpired)
				return
			}
			if err != nil {
				logger.ErrorContext(r.Context(), "Failed to load session", "session_id", claims.SessionID, "error", err)
				response.InternalError(w, "could not load session")
				return
			}

			ctx := context.WithValue(r.Context(), CtxClaims, claims)
			ctx = context.WithValue(ctx, CtxStore, store)
			ctx = context.WithValue(ctx, logger.SessionIDKey, claims.SessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func Claims(r *http.Request) *auth.Claims {
	if v := r.Context().Value(CtxClaims); v != nil {
		if c, ok := v.(*auth.Claims); ok {
			return c
		}
	}
	return nil
}

func Store(r *http.Request) *session.Store {
	if v := r.Context().Value(CtxStore); v != nil {
		if s, ok := v.(*session.Store); ok {
			return s
		}
	}
	return nil
}
