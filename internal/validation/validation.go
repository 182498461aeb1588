package validation

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/diagnosis/hotel-bookings/internal/domain"
	"github.com/diagnosis/hotel-bookings/internal/utils"
)

var (
	emailRe  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe  = regexp.MustCompile(`^[0-9\-+().\s]+$`)
	expiryRe = regexp.MustCompile(`^(\d{2})/(\d{2})$`)
)

const (
	minPhoneLength    = 10
	minCardDigits     = 13
	maxCardDigits     = 16
	minPasswordLength = 6
)

// FieldError is a single rejected input field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Reason
}

// Errors collects field errors, keyed by field name.
type Errors struct {
	fields map[string][]string
}

func NewErrors() *Errors {
	return &Errors{fields: make(map[string][]string)}
}

// Add records fe when it is non-nil.
func (e *Errors) Add(fe *FieldError) {
	if fe == nil {
		return
	}
	e.fields[fe.Field] = append(e.fields[fe.Field], fe.Reason)
}

func (e *Errors) Fields() map[string][]string {
	return e.fields
}

func (e *Errors) Len() int {
	return len(e.fields)
}

// Err returns e as an error, or nil when no field failed.
func (e *Errors) Err() error {
	if e.Len() == 0 {
		return nil
	}
	return e
}

func (e *Errors) Error() string {
	keys := make([]string, 0, len(e.fields))
	for k := range e.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.fields[k], ", ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func IsErrors(err error) *Errors {
	var verr *Errors
	if errors.As(err, &verr) {
		return verr
	}
	return nil
}

func Required(field, value string) *FieldError {
	if strings.TrimSpace(value) == "" {
		return &FieldError{Field: field, Reason: "is required"}
	}
	return nil
}

func Email(field, value string) *FieldError {
	if !emailRe.MatchString(value) {
		return &FieldError{Field: field, Reason: "must be a valid email address"}
	}
	return nil
}

func Phone(field, value string) *FieldError {
	if !phoneRe.MatchString(value) || len(value) < minPhoneLength {
		return &FieldError{Field: field, Reason: "must be a valid phone number"}
	}
	return nil
}

func CVV(field, value string) *FieldError {
	if !utils.IsDigits(value) || len(value) < 3 || len(value) > 4 {
		return &FieldError{Field: field, Reason: "must be 3 or 4 digits"}
	}
	return nil
}

func CardNumber(field, value string) *FieldError {
	digits := utils.StripSpaces(value)
	if !utils.IsDigits(digits) || len(digits) < minCardDigits || len(digits) > maxCardDigits {
		return &FieldError{Field: field, Reason: "must be 13 to 16 digits"}
	}
	return nil
}

// Expiry checks an MM/YY card expiry against now. YY is read as 20YY and the
// card stays valid through its expiry month.
func Expiry(field, value string, now time.Time) *FieldError {
	m := expiryRe.FindStringSubmatch(value)
	if m == nil {
		return &FieldError{Field: field, Reason: "must be in MM/YY format"}
	}
	month, _ := strconv.Atoi(m[1])
	yy, _ := strconv.Atoi(m[2])
	if month < 1 || month > 12 {
		return &FieldError{Field: field, Reason: "month must be between 01 and 12"}
	}

	year := 2000 + yy
	if year < now.Year() || (year == now.Year() && month < int(now.Month())) {
		return &FieldError{Field: field, Reason: "card has expired"}
	}
	return nil
}

func Password(field, value string) *FieldError {
	if len(value) < minPasswordLength {
		return &FieldError{Field: field, Reason: fmt.Sprintf("must be at least %d characters", minPasswordLength)}
	}
	return nil
}

// GuestInfo validates the guest details of a booking draft.
func GuestInfo(g domain.GuestInfo) error {
	errs := NewErrors()
	errs.Add(Required("first_name", g.FirstName))
	errs.Add(Required("last_name", g.LastName))
	if fe := Required("email", g.Email); fe != nil {
		errs.Add(fe)
	} else {
		errs.Add(Email("email", g.Email))
	}
	if fe := Required("phone", g.Phone); fe != nil {
		errs.Add(fe)
	} else {
		errs.Add(Phone("phone", g.Phone))
	}
	return errs.Err()
}

// PaymentForm validates card details as entered on the payment page.
func PaymentForm(p domain.PaymentForm, now time.Time) error {
	errs := NewErrors()
	errs.Add(CardNumber("card_number", p.CardNumber))
	errs.Add(Expiry("expiry_date", p.Expiry, now))
	errs.Add(CVV("cvv", p.CVV))
	errs.Add(Required("card_holder", p.CardHolder))
	return errs.Err()
}

// Registration validates a new account request.
func Registration(req domain.RegisterRequest) error {
	errs := NewErrors()
	errs.Add(Email("email", req.Email))
	errs.Add(Password("password", req.Password))
	errs.Add(Required("first_name", req.FirstName))
	errs.Add(Required("last_name", req.LastName))
	if req.Phone != "" {
		errs.Add(Phone("phone", req.Phone))
	}
	return errs.Err()
}
