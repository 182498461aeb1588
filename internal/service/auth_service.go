package service

import (
	"context"
	"time"

	"github.com/diagnosis/hotel-bookings/internal/domain"
	"github.com/diagnosis/hotel-bookings/internal/session"
	"github.com/diagnosis/hotel-bookings/pkg/events"
	"github.com/diagnosis/hotel-bookings/pkg/logger"
)

type UserDirectory interface {
	Authenticate(ctx context.Context, email, password string) (domain.User, error)
	Register(ctx context.Context, req domain.RegisterRequest) (domain.User, error)
}

// AuthService stamps a session with a user identity. Bookings drafted while
// signed in carry the user id.
type AuthService interface {
	Login(ctx context.Context, store *session.Store, req domain.LoginRequest) (domain.User, error)
	Register(ctx context.Context, store *session.Store, req domain.RegisterRequest) (domain.User, error)
	Logout(ctx context.Context, store *session.Store)
	Me(ctx context.Context, store *session.Store) (domain.User, error)
}

type authService struct {
	directory UserDirectory
	publisher events.Publisher
	now       func() time.Time
}

func NewAuthService(directory UserDirectory, publisher events.Publisher) AuthService {
	return &authService{
		directory: directory,
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *authService) Login(ctx context.Context, store *session.Store, req domain.LoginRequest) (domain.User, error) {
	user, err := s.directory.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		logger.WarnContext(ctx, "login failed", "session_id", store.ID(), "error", err)
		return domain.User{}, err
	}

	store.SetUser(user)
	logger.InfoContext(ctx, "user logged in", "session_id", store.ID(), "user_id", user.ID)
	s.publish(ctx, events.UserLoggedIn, store.ID(), user)
	return user, nil
}

// Register creates the account and signs the session in.
func (s *authService) Register(ctx context.Context, store *session.Store, req domain.RegisterRequest) (domain.User, error) {
	user, err := s.directory.Register(ctx, req)
	if err != nil {
		return domain.User{}, err
	}

	store.SetUser(user)
	logger.InfoContext(ctx, "user registered", "session_id", store.ID(), "user_id", user.ID)
	s.publish(ctx, events.UserRegistered, store.ID(), user)
	return user, nil
}

func (s *authService) Logout(ctx context.Context, store *session.Store) {
	store.Logout()
	logger.InfoContext(ctx, "user logged out", "session_id", store.ID())
}

func (s *authService) Me(_ context.Context, store *session.Store) (domain.User, error) {
	user := store.User()
	if user == nil {
		return domain.User{}, domain.ErrNotAuthenticated
	}
	return *user, nil
}

func (s *authService) publish(ctx context.Context, subject, sessionID string, user domain.User) {
	evt := events.UserEvent{
		SessionID: sessionID,
		UserID:    user.ID,
		Email:     user.Email,
		At:        s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, subject, evt); err != nil {
		logger.ErrorContext(ctx, "Failed to publish event", "subject", subject, "error", err)
	}
}
