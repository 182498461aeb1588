package validation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/hotel-bookings/internal/domain"
	"github.com/diagnosis/hotel-bookings/internal/validation"
)

var now = time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)

func TestCVV(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"12", false},
		{"123", true},
		{"1234", true},
		{"12345", false},
		{"12a", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.valid, validation.CVV("cvv", tt.in) == nil)
		})
	}
}

func TestExpiry(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"13/25", false},
		{"00/25", false},
		{"06/25", true},
		{"05/25", false},
		{"01/26", true},
		{"12/24", false},
		{"1/25", false},
		{"06-25", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.valid, validation.Expiry("expiry_date", tt.in, now) == nil)
		})
	}
}

func TestCardNumber(t *testing.T) {
	assert.Nil(t, validation.CardNumber("card_number", "4111 1111 1111 1111"))
	assert.Nil(t, validation.CardNumber("card_number", "4222222222222"))
	assert.NotNil(t, validation.CardNumber("card_number", "4111 1111"))
	assert.NotNil(t, validation.CardNumber("card_number", "4111-1111-1111-1111"))
	assert.NotNil(t, validation.CardNumber("card_number", "41111111111111112"))
}

func TestEmailAndPhone(t *testing.T) {
	assert.Nil(t, validation.Email("email", "john@example.com"))
	assert.NotNil(t, validation.Email("email", "john@example"))
	assert.NotNil(t, validation.Email("email", "john doe@example.com"))

	assert.Nil(t, validation.Phone("phone", "+66 81-234-5678"))
	assert.NotNil(t, validation.Phone("phone", "081234"))
	assert.NotNil(t, validation.Phone("phone", "08123456ab"))
}

func TestGuestInfo(t *testing.T) {
	err := validation.GuestInfo(domain.GuestInfo{
		FirstName: "John",
		LastName:  "Doe",
		Email:     "john@example.com",
		Phone:     "0812345678",
	})
	require.NoError(t, err)

	err = validation.GuestInfo(domain.GuestInfo{FirstName: "John", Email: "nope", Phone: "12"})
	verr := validation.IsErrors(err)
	require.NotNil(t, verr)
	assert.Contains(t, verr.Fields(), "last_name")
	assert.Contains(t, verr.Fields(), "email")
	assert.Contains(t, verr.Fields(), "phone")
	assert.NotContains(t, verr.Fields(), "first_name")
}

func TestPaymentForm(t *testing.T) {
	err := validation.PaymentForm(domain.PaymentForm{
		CardNumber: "4111 1111 1111 1111",
		Expiry:     "12/27",
		CVV:        "123",
		CardHolder: "JOHN DOE",
	}, now)
	require.NoError(t, err)

	err = validation.PaymentForm(domain.PaymentForm{
		CardNumber: "4111",
		Expiry:     "13/25",
		CVV:        "12",
	}, now)
	verr := validation.IsErrors(err)
	require.NotNil(t, verr)
	assert.Equal(t, 4, verr.Len())
	assert.Contains(t, err.Error(), "cvv")
}

func TestRegistration(t *testing.T) {
	require.NoError(t, validation.Registration(domain.RegisterRequest{
		Email:     "new@example.com",
		Password:  "secret1",
		FirstName: "New",
		LastName:  "User",
	}))

	verr := validation.IsErrors(validation.Registration(domain.RegisterRequest{Email: "x", Password: "1"}))
	require.NotNil(t, verr)
	assert.Contains(t, verr.Fields(), "password")
}
