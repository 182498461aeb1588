package mailer

import (
	"github.com/google/uuid"

	"github.com/diagnosis/hotel-bookings/pkg/logger"
)

// DevMailer logs mail instead of sending it. Used when no MailerSend key is
// configured.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) SendReceipt(toEmail, toName, bookingID, receipt string) error {
	logger.Info("[DEV MAIL]",
		"message_id", uuid.NewString(),
		"to", toEmail,
		"name", toName,
		"subject", "Your booking receipt "+bookingID,
		"text", receipt,
	)
	return nil
}
