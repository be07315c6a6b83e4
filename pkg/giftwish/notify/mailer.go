package notify

import (
	"context"
	"log/slog"
	"os"
	"strconv"

	"github.com/wneessen/go-mail"
)

// Mailer delivers a single email. Delivery is best-effort; callers must not
// treat a send failure as fatal to the workflow that triggered it.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SMTPMailer sends email through an SMTP relay
type SMTPMailer struct {
	client *mail.Client
	from   string
}

// SMTPConfig holds SMTP transport settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPConfigFromEnv reads SMTP settings from the environment.
// Returns ok=false when SMTP_HOST is unset.
func SMTPConfigFromEnv() (SMTPConfig, bool) {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		return SMTPConfig{}, false
	}

	port := 587
	if p, err := strconv.Atoi(os.Getenv("SMTP_PORT")); err == nil && p > 0 {
		port = p
	}

	user := os.Getenv("SMTP_USER")
	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = user
	}

	return SMTPConfig{
		Host:     host,
		Port:     port,
		Username: user,
		Password: os.Getenv("SMTP_PASS"),
		From:     from,
	}, true
}

// NewSMTPMailer creates a mailer for the given SMTP configuration
func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, err
	}

	return &SMTPMailer{client: client, from: cfg.From}, nil
}

// Send delivers a single HTML email
func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	return m.client.DialAndSendWithContext(ctx, msg)
}

// LogMailer logs emails instead of sending them. Used when SMTP is not
// configured, so the rest of the app behaves identically in development.
type LogMailer struct{}

// Send logs the email that would have been sent
func (m *LogMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	slog.Info("Email (SMTP not configured, not sent)",
		"to", to,
		"subject", subject,
	)
	return nil
}
