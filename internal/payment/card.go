package payment

import (
	"strings"

	"github.com/diagnosis/hotel-bookings/internal/domain"
	"github.com/diagnosis/hotel-bookings/internal/utils"
)

// DetectCardType guesses the network from the leading digits. It is only used
// for display.
func DetectCardType(number string) domain.CardType {
	n := utils.StripSpaces(number)
	switch {
	case strings.HasPrefix(n, "4"):
		return domain.CardVisa
	case len(n) >= 2 && n[0] == '5' && n[1] >= '1' && n[1] <= '5':
		return domain.CardMastercard
	case strings.HasPrefix(n, "34"), strings.HasPrefix(n, "37"):
		return domain.CardAmex
	default:
		return domain.CardUnknown
	}
}

// FormatCardNumber groups up to 16 digits in blocks of four.
func FormatCardNumber(number string) string {
	digits := utils.Digits(number)
	if len(digits) > 16 {
		digits = digits[:16]
	}

	var parts []string
	for i := 0; i < len(digits); i += 4 {
		end := min(i+4, len(digits))
		parts = append(parts, digits[i:end])
	}
	return strings.Join(parts, " ")
}

// MaskCardNumber formats the number and hides all but the last four digits.
func MaskCardNumber(number string) string {
	out := []byte(FormatCardNumber(number))
	keep := 4
	for i := len(out) - 1; i >= 0; i-- {
		switch {
		case out[i] == ' ':
		case keep > 0:
			keep--
		default:
			out[i] = '*'
		}
	}
	return string(out)
}

// Masked returns a copy of the form that is safe to keep: masked number and
// no CVV.
func Masked(form domain.PaymentForm) domain.PaymentForm {
	return domain.PaymentForm{
		CardNumber: MaskCardNumber(form.CardNumber),
		Expiry:     form.Expiry,
		CardHolder: form.CardHolder,
	}
}
