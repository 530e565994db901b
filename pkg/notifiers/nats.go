package notifiers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/logger"
	"github.com/nats-io/nats.go"
)

type natsConn interface {
	Publish(subj string, data []byte) error
	FlushTimeout(timeout time.Duration) error
	Close()
}

// natsSink publishes the message on a NATS subject.
type natsSink struct {
	id      string
	subject string
	timeout time.Duration
	conn    natsConn
	log     logger.Logger
}

func newNATSSink(_ context.Context, cfg SinkConfig, log logger.Logger) (Sink, error) {
	if cfg.NATS == nil {
		return nil, fmt.Errorf("notifier %q missing nats configuration", cfg.ID)
	}
	timeout := time.Duration(cfg.NATS.TimeoutSeconds) * time.Second

	conn, err := nats.Connect(cfg.NATS.URL, nats.Name("agendas-"+cfg.ID), nats.Timeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &natsSink{
		id:      cfg.ID,
		subject: cfg.NATS.Subject,
		timeout: timeout,
		conn:    conn,
		log:     logger.Ensure(log),
	}, nil
}

func (n *natsSink) ID() string   { return n.id }
func (n *natsSink) Type() string { return TypeNATS }

// Deliver publishes msg and flushes so a broken connection surfaces here.
func (n *natsSink) Deliver(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := n.conn.Publish(n.subject, payload); err != nil {
		return fmt.Errorf("publish to nats: %w", err)
	}
	if err := n.conn.FlushTimeout(n.timeout); err != nil {
		n.log.ErrorObj("nats notifier flush failed", "notifier_nats_error", map[string]any{
			"notifier_id": n.id,
			"error":       err.Error(),
		})
		return fmt.Errorf("flush nats: %w", err)
	}
	return nil
}

func (n *natsSink) Close() error {
	n.conn.Close()
	return nil
}
