// Package mailer renders the service's emails and delivers them over SMTP.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/jobscout-api/internal/config"
	"github.com/phrazzld/jobscout-api/internal/platform/logger"
	"github.com/wneessen/go-mail"
)

// ErrNoRecipients is returned for messages without any recipient.
var ErrNoRecipients = errors.New("message has no recipients")

// Message is a rendered email.
type Message struct {
	To      []string
	Bcc     []string
	Subject string
	HTML    string
	// UnsubscribeURL is advertised in the List-Unsubscribe header when set.
	UnsubscribeURL string
	// Bulk marks digests sent to many recipients.
	Bulk bool
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msgs ...*Message) error
}

// dialer is the part of mail.Client used by SMTPSender.
type dialer interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// SMTPSender sends messages through an SMTP relay.
type SMTPSender struct {
	client dialer
	from   string
	logger *slog.Logger
}

var _ Sender = (*SMTPSender)(nil)

// NewSMTPSender creates a sender for the relay in cfg. Port 465 uses
// implicit TLS, any other port requires STARTTLS.
func NewSMTPSender(cfg config.MailConfig, log *slog.Logger) (*SMTPSender, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTimeout(30 * time.Second),
	}
	if cfg.Port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}
	return newSMTPSender(client, cfg.From, log), nil
}

func newSMTPSender(client dialer, from string, log *slog.Logger) *SMTPSender {
	if log == nil {
		log = slog.Default()
	}
	return &SMTPSender{
		client: client,
		from:   from,
		logger: log.With(slog.String("component", "smtp_sender")),
	}
}

// Send delivers msgs over one SMTP connection.
func (s *SMTPSender) Send(ctx context.Context, msgs ...*Message) error {
	if len(msgs) == 0 {
		return nil
	}
	log := logger.FromContextOrDefault(ctx, s.logger)

	built := make([]*mail.Msg, 0, len(msgs))
	for _, m := range msgs {
		msg, err := s.build(m)
		if err != nil {
			return err
		}
		built = append(built, msg)
	}

	if err := s.client.DialAndSendWithContext(ctx, built...); err != nil {
		log.ErrorContext(ctx, "failed to send email", "count", len(built), "error", err)
		return fmt.Errorf("failed to send %d email(s): %w", len(built), err)
	}

	log.InfoContext(ctx, "sent email", "count", len(built))
	return nil
}

func (s *SMTPSender) build(m *Message) (*mail.Msg, error) {
	if len(m.To) == 0 && len(m.Bcc) == 0 {
		return nil, ErrNoRecipients
	}

	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", s.from, err)
	}
	if len(m.To) > 0 {
		if err := msg.To(m.To...); err != nil {
			return nil, fmt.Errorf("invalid recipient: %w", err)
		}
	} else {
		// BCC-only digests are addressed to the sender.
		if err := msg.To(s.from); err != nil {
			return nil, fmt.Errorf("invalid sender %q: %w", s.from, err)
		}
	}
	if len(m.Bcc) > 0 {
		if err := msg.Bcc(m.Bcc...); err != nil {
			return nil, fmt.Errorf("invalid bcc recipient: %w", err)
		}
	}

	msg.Subject(m.Subject)
	msg.SetMessageID()
	msg.SetDate()
	if m.Bulk {
		msg.SetBulk()
	}
	if m.UnsubscribeURL != "" {
		msg.SetGenHeader(mail.HeaderListUnsubscribe, "<"+m.UnsubscribeURL+">")
		msg.SetGenHeader(mail.HeaderListUnsubscribePost, "List-Unsubscribe=One-Click")
	}
	msg.SetBodyString(mail.TypeTextHTML, m.HTML)
	return msg, nil
}

// Batch splits recipients into groups of at most size.
func Batch(recipients []string, size int) [][]string {
	if size <= 0 {
		size = len(recipients)
	}
	var batches [][]string
	for start := 0; start < len(recipients); start += size {
		end := min(start+size, len(recipients))
		batches = append(batches, recipients[start:end])
	}
	return batches
}
