package notifiers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/logger"
	mail "github.com/wneessen/go-mail"
)

// mailSender is the subset of the go-mail client used by smtpSink.
type mailSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// smtpSink emails the summary to the message recipient.
type smtpSink struct {
	id     string
	from   string
	client mailSender
	log    logger.Logger
}

func newSMTPSink(_ context.Context, cfg SinkConfig, log logger.Logger) (Sink, error) {
	if cfg.SMTP == nil {
		return nil, fmt.Errorf("notifier %q missing smtp configuration", cfg.ID)
	}
	c := cfg.SMTP

	opts := []mail.Option{
		mail.WithPort(c.Port),
		mail.WithTimeout(time.Duration(c.TimeoutSeconds) * time.Second),
	}
	switch c.TLS {
	case "ssl":
		opts = append(opts, mail.WithSSL())
	case "none":
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}
	if c.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(c.Username),
			mail.WithPassword(c.Password),
		)
	}

	client, err := mail.NewClient(c.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return &smtpSink{id: cfg.ID, from: c.From, client: client, log: logger.Ensure(log)}, nil
}

func (s *smtpSink) ID() string   { return s.id }
func (s *smtpSink) Type() string { return TypeSMTP }

// Deliver sends msg as a plain text mail.
func (s *smtpSink) Deliver(ctx context.Context, msg Message) error {
	m, err := s.compose(msg)
	if err != nil {
		return err
	}
	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		s.log.ErrorObj("smtp notifier send failed", "notifier_smtp_error", map[string]any{
			"notifier_id": s.id,
			"recipient":   msg.Recipient,
			"error":       err.Error(),
		})
		return fmt.Errorf("send mail: %w", err)
	}
	s.log.DebugObj("smtp notifier delivered message", "notifier_smtp_delivery", map[string]any{
		"notifier_id": s.id,
		"recipient":   msg.Recipient,
	})
	return nil
}

func (s *smtpSink) compose(msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(s.from); err != nil {
		return nil, fmt.Errorf("set sender %q: %w", s.from, err)
	}
	var rcpts []string
	for _, r := range strings.Split(msg.Recipient, ",") {
		if r = strings.TrimSpace(r); r != "" {
			rcpts = append(rcpts, r)
		}
	}
	if err := m.To(rcpts...); err != nil {
		return nil, fmt.Errorf("set recipient %q: %w", msg.Recipient, err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	return m, nil
}
