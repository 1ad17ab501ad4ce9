package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"
)

var ErrMailNotConfigured = errors.New("email credentials not configured; skipped sending")

// Contact is a validated contact-form submission.
type Contact struct {
	Name    string
	Email   string
	Message string
}

// Notifier delivers a contact submission to the site owner.
type Notifier interface {
	Notify(ctx context.Context, c Contact) error
}

// SMTPNotifier sends one plain-text mail per contact over SMTP.
type SMTPNotifier struct {
	cfg     MailConfig
	timeout time.Duration
}

func NewSMTPNotifier(cfg MailConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, timeout: 15 * time.Second}
}

func (n *SMTPNotifier) Notify(ctx context.Context, c Contact) error {
	if !n.cfg.Configured() {
		return ErrMailNotConfigured
	}

	msg := mail.NewMsg()
	if err := msg.From(n.cfg.User); err != nil {
		return fmt.Errorf("sender address: %w", err)
	}
	if err := msg.To(n.cfg.To); err != nil {
		return fmt.Errorf("recipient address: %w", err)
	}
	if err := msg.ReplyTo(c.Email); err != nil {
		slog.Debug("contact email not usable as reply-to", "email", c.Email, "error", err)
	}
	msg.Subject("New portfolio contact")
	msg.SetBodyString(mail.TypeTextPlain, contactBody(c))

	policy := mail.NoTLS
	if n.cfg.UseTLS {
		policy = mail.TLSMandatory
	}
	client, err := mail.NewClient(n.cfg.Host,
		mail.WithPort(n.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(n.cfg.User),
		mail.WithPassword(n.cfg.Password),
		mail.WithTLSPolicy(policy),
		mail.WithTimeout(n.timeout),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func contactBody(c Contact) string {
	return fmt.Sprintf("Name: %s\nEmail: %s\n\nMessage:\n%s", c.Name, c.Email, c.Message)
}
