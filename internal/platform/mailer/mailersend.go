package mailer

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"

	"github.com/diagnosis/hotel-bookings/pkg/logger"
)

const receiptTag = "booking-receipt"

var ErrMailerDisabled = errors.New("mailer disabled: missing EMAIL_MAILERSEND_KEY or EMAIL_FROM_EMAIL")

// Mailer sends through the MailerSend API.
type Mailer struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	timeout time.Duration
	Enabled bool
}

func NewMailer(apiKey, fromName, fromEmail string) *Mailer {
	m := &Mailer{
		Enabled: apiKey != "" && fromEmail != "",
		from:    mailersend.From{Name: fromName, Email: fromEmail},
		timeout: 10 * time.Second,
	}
	if m.Enabled {
		m.client = mailersend.NewMailersend(apiKey)
	}
	return m
}

// SendReceipt mails the text receipt inline and as receipt-<id>.txt.
func (m *Mailer) SendReceipt(toEmail, toName, bookingID, receipt string) error {
	msg, err := m.message(toEmail, toName,
		"Your booking receipt "+bookingID,
		receipt,
		"<pre>"+html.EscapeString(receipt)+"</pre>",
	)
	if err != nil {
		return err
	}
	msg.SetTags([]string{receiptTag})
	msg.AddAttachment(mailersend.Attachment{
		Content:  base64.StdEncoding.EncodeToString([]byte(receipt)),
		Filename: "receipt-" + bookingID + ".txt",
	})

	id, err := m.deliver(msg)
	if err != nil {
		return err
	}
	logger.Info("receipt mailed", "booking_id", bookingID, "message_id", id)
	return nil
}

func (m *Mailer) message(toEmail, toName, subject, text, htmlBody string) (*mailersend.Message, error) {
	if !m.Enabled {
		return nil, ErrMailerDisabled
	}
	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Name: toName, Email: toEmail}})
	msg.SetSubject(subject)
	if strings.TrimSpace(text) != "" {
		msg.SetText(text)
	}
	if strings.TrimSpace(htmlBody) != "" {
		msg.SetHTML(htmlBody)
	}
	return msg, nil
}

// deliver returns MailerSend's X-Message-Id.
func (m *Mailer) deliver(msg *mailersend.Message) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	res, err := m.client.Email.Send(ctx, msg)
	if err != nil {
		return "", fmt.Errorf("mailersend send: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(res.Body)
		return "", fmt.Errorf("mailersend error: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	return res.Header.Get("X-Message-Id"), nil
}
