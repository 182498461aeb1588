package domain

type PaymentForm struct {
	CardNumber string `json:"card_number"`
	Expiry     string `json:"expiry_date"`
	CVV        string `json:"-"`
	CardHolder string `json:"card_holder"`
}

// PaymentRequest is the wire form of PaymentForm; the CVV is accepted on input
// but never written back out.
type PaymentRequest struct {
	CardNumber string `json:"card_number"`
	Expiry     string `json:"expiry_date"`
	CVV        string `json:"cvv"`
	CardHolder string `json:"card_holder"`
}

func (p PaymentRequest) Form() PaymentForm {
	return PaymentForm{
		CardNumber: p.CardNumber,
		Expiry:     p.Expiry,
		CVV:        p.CVV,
		CardHolder: p.CardHolder,
	}
}

type PaymentFailure string

const (
	FailureInvalidCard       PaymentFailure = "invalid card data"
	FailureCardExpired       PaymentFailure = "card expired"
	FailureInsufficientFunds PaymentFailure = "insufficient funds"
	FailureBankUnavailable   PaymentFailure = "bank connection failed"
	FailureCardDeclined      PaymentFailure = "card declined by bank"
)

// PaymentFailures lists the simulated failure causes in draw order.
var PaymentFailures = []PaymentFailure{
	FailureInvalidCard,
	FailureCardExpired,
	FailureInsufficientFunds,
	FailureBankUnavailable,
	FailureCardDeclined,
}

type PaymentResult struct {
	Success       bool           `json:"success"`
	TransactionID string         `json:"transaction_id,omitempty"`
	Reason        PaymentFailure `json:"reason,omitempty"`
}

type CardType string

const (
	CardVisa       CardType = "Visa"
	CardMastercard CardType = "Mastercard"
	CardAmex       CardType = "American Express"
	CardUnknown    CardType = "Unknown"
)
