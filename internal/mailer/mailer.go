// Package mailer sends transactional email through an outbox queue backed by
// Redis. Delivery is best effort; failures are logged and counted, never
// surfaced to the requester.
package mailer

import (
	"fmt"
	"time"

	"gopkg.in/mail.v2"

	"quill/internal/config"
)

// Message is a single outbound email.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Sender delivers a single message.
type Sender interface {
	Send(msg Message) error
}

type smtpSender struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewSMTPSender returns a Sender backed by the configured SMTP server.
func NewSMTPSender(cfg *config.Config) Sender {
	return &smtpSender{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.SMTPFrom,
	}
}

func (s *smtpSender) Send(msg Message) error {
	m := mail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.Body)

	d := mail.NewDialer(s.host, s.port, s.username, s.password)
	d.Timeout = 20 * time.Second

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}

// ConfirmationEmail builds the account activation message.
func ConfirmationEmail(to, username, frontendURL, token string) Message {
	link := fmt.Sprintf("%s/email-confirmation?token=%s", frontendURL, token)
	return Message{
		To:      to,
		Subject: "Confirm your email address",
		Body: fmt.Sprintf(
			"<p>Hi %s,</p>"+
				"<p>Welcome! Please confirm your email address by following this link:</p>"+
				"<p><a href=%q>%s</a></p>"+
				"<p>The link expires in 24 hours. If you did not sign up, you can ignore this message.</p>",
			username, link, link,
		),
	}
}

// PasswordResetEmail builds the password reset message.
func PasswordResetEmail(to, username, frontendURL, token string) Message {
	link := fmt.Sprintf("%s/reset-password?token=%s", frontendURL, token)
	return Message{
		To:      to,
		Subject: "Reset your password",
		Body: fmt.Sprintf(
			"<p>Hi %s,</p>"+
				"<p>A password reset was requested for your account. Follow this link to choose a new password:</p>"+
				"<p><a href=%q>%s</a></p>"+
				"<p>The link expires in 1 hour. If you did not request a reset, you can ignore this message.</p>",
			username, link, link,
		),
	}
}
