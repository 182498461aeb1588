package mailer

type Service interface {
	SendReceipt(toEmail, toName, bookingID, receipt string) error
}
