package identity

import (
	"context"
	"fmt"
	"sync"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"

	"github.com/diagnosis/hotel-bookings/internal/domain"
	"github.com/diagnosis/hotel-bookings/internal/utils"
	"github.com/diagnosis/hotel-bookings/internal/validation"
)

type account struct {
	user         domain.User
	passwordHash string
}

// Directory is the in-process user store. It starts with the demo accounts.
type Directory struct {
	params *argon2id.Params

	mu       sync.RWMutex
	accounts map[string]account // by normalized email
}

type seedUser struct {
	user     domain.User
	password string
}

var demoUsers = []seedUser{
	{domain.User{ID: "1", Email: "admin@example.com", FirstName: "Admin", LastName: "User", Phone: "081-234-5678"}, "admin123"},
	{domain.User{ID: "2", Email: "john@example.com", FirstName: "John", LastName: "Doe", Phone: "081-111-2222"}, "john123"},
	{domain.User{ID: "3", Email: "jane@example.com", FirstName: "Jane", LastName: "Smith", Phone: "081-333-4444"}, "jane123"},
}

// NewDirectory hashes the demo accounts with params (argon2id.DefaultParams
// when nil).
func NewDirectory(params *argon2id.Params) (*Directory, error) {
	if params == nil {
		params = argon2id.DefaultParams
	}
	d := &Directory{
		params:   params,
		accounts: make(map[string]account, len(demoUsers)),
	}
	for _, s := range demoUsers {
		hash, err := argon2id.CreateHash(s.password, params)
		if err != nil {
			return nil, fmt.Errorf("hash demo user %s: %w", s.user.Email, err)
		}
		d.accounts[utils.NormalizeEmail(s.user.Email)] = account{user: s.user, passwordHash: hash}
	}
	return d, nil
}

func (d *Directory) Authenticate(_ context.Context, email, password string) (domain.User, error) {
	d.mu.RLock()
	acc, ok := d.accounts[utils.NormalizeEmail(email)]
	d.mu.RUnlock()
	if !ok {
		return domain.User{}, domain.ErrInvalidCredentials
	}

	match, err := argon2id.ComparePasswordAndHash(password, acc.passwordHash)
	if err != nil {
		return domain.User{}, fmt.Errorf("compare password: %w", err)
	}
	if !match {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	return acc.user, nil
}

func (d *Directory) Register(_ context.Context, req domain.RegisterRequest) (domain.User, error) {
	req.Email = utils.NormalizeEmail(req.Email)
	req.FirstName = utils.NormalizeString(req.FirstName)
	req.LastName = utils.NormalizeString(req.LastName)
	req.Phone = utils.NormalizeString(req.Phone)
	if err := validation.Registration(req); err != nil {
		return domain.User{}, err
	}

	hash, err := argon2id.CreateHash(req.Password, d.params)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		ID:        uuid.NewString(),
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.accounts[req.Email]; exists {
		return domain.User{}, domain.ErrEmailExists
	}
	d.accounts[req.Email] = account{user: user, passwordHash: hash}
	return user, nil
}

func (d *Directory) Lookup(_ context.Context, userID string) (domain.User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, acc := range d.accounts {
		if acc.user.ID == userID {
			return acc.user, true
		}
	}
	return domain.User{}, false
}
