// Package mail delivers one-time codes over SMTP.
package mail

import (
	"fmt"
	"os"
	"strconv"

	gomail "github.com/go-mail/mail"
)

// Sender is the one-shot "send a message to an address" capability the OTP
// consumer depends on.
type Sender interface {
	Send(to, subject, textBody string) error
}

// SMTPSender sends plain-text mail through a single SMTP account.
type SMTPSender struct {
	Host string
	Port int
	From string
	User string
	Pass string
}

// NewSMTPSenderFromEnv builds a sender from SMTP_HOST, SMTP_PORT, SMTP_FROM,
// SMTP_USER and SMTP_PASS. Defaults target a local relay for development.
func NewSMTPSenderFromEnv() *SMTPSender {
	port := 587
	if p, err := strconv.Atoi(os.Getenv("SMTP_PORT")); err == nil && p > 0 {
		port = p
	}
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		host = "localhost"
	}
	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = "no-reply@localhost"
	}
	return &SMTPSender{
		Host: host,
		Port: port,
		From: from,
		User: os.Getenv("SMTP_USER"),
		Pass: os.Getenv("SMTP_PASS"),
	}
}

// Send builds and dials a message. Dialing per message keeps the sender
// stateless; OTP volume is low.
func (s *SMTPSender) Send(to, subject, textBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", textBody)

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Pass)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
