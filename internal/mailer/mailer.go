package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"
)

// Mailer sends a single HTML email. Implementations must be safe for
// concurrent use; the notifier dispatches sends in parallel.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SMTPMailer delivers mail over SMTP with implicit TLS.
type SMTPMailer struct {
	host   string
	opts   []mail.Option
	from   string
	logger *slog.Logger
}

func NewSMTP(host string, port int, user, password, from string, logger *slog.Logger) *SMTPMailer {
	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithSSL(),
	}
	if user != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(user),
			mail.WithPassword(password),
		)
	}

	return &SMTPMailer{
		host:   host,
		opts:   opts,
		from:   from,
		logger: logger,
	}
}

// Send dials the SMTP server and delivers one message. A fresh client
// per call keeps concurrent sends independent.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("setting sender %q: %w", m.from, err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("setting recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	client, err := mail.NewClient(m.host, m.opts...)
	if err != nil {
		return fmt.Errorf("creating smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending mail: %w", err)
	}

	m.logger.Debug("mail sent", "to", to, "subject", subject)
	return nil
}
