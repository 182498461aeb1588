package pricing

import (
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const displayDateLayout = "02/01/2006"

// Formatter renders prices and dates for receipts and emails.
type Formatter struct {
	printer         *message.Printer
	defaultCurrency string
}

func NewFormatter(locale, defaultCurrency string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &Formatter{
		printer:         message.NewPrinter(tag),
		defaultCurrency: defaultCurrency,
	}
}

// FormatPrice prints amount with grouped digits and no fraction, prefixed by
// the ISO currency code.
func (f *Formatter) FormatPrice(amount float64, code string) string {
	if code == "" {
		code = f.defaultCurrency
	}
	if unit, err := currency.ParseISO(code); err == nil {
		code = unit.String()
	}
	return f.printer.Sprintf("%s %v", code, number.Decimal(amount, number.MaxFractionDigits(0)))
}

func (f *Formatter) FormatDate(t time.Time) string {
	return t.Format(displayDateLayout)
}
