package notifiers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/domain"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/logger"
)

// Dispatcher adapts a Fanout to the pipeline's Notify call.
type Dispatcher struct {
	fanout *Fanout
	log    logger.Logger
}

// NewDispatcher wraps fanout.
func NewDispatcher(fanout *Fanout, log logger.Logger) *Dispatcher {
	return &Dispatcher{fanout: fanout, log: logger.Ensure(log)}
}

// Notify sends the summary of rec to every sink. It fails when no sink
// accepted it.
func (d *Dispatcher) Notify(ctx context.Context, recipient string, rec domain.AgendaRecord, subject, body string) error {
	if d == nil || d.fanout.Size() == 0 {
		return errors.New("no notification sinks configured")
	}
	if strings.TrimSpace(recipient) == "" {
		return errors.New("notification recipient is empty")
	}

	msg := NewMessage(recipient, subject, body).ForAgenda(rec)
	delivered, err := d.fanout.Deliver(ctx, msg)
	if err != nil && delivered > 0 {
		d.log.WarnObj("notification partially delivered", "notify_partial", map[string]any{
			"council":   rec.Council,
			"subject":   subject,
			"delivered": delivered,
			"sinks":     d.fanout.Size(),
			"error":     err.Error(),
		})
		return nil
	}
	if err != nil {
		return fmt.Errorf("notify %s: %w", recipient, err)
	}
	d.log.InfoObj("notification delivered", "notify_delivery", map[string]any{
		"council":   rec.Council,
		"subject":   subject,
		"delivered": delivered,
	})
	return nil
}

// Close releases the underlying sinks.
func (d *Dispatcher) Close() error {
	if d == nil {
		return nil
	}
	return d.fanout.Close()
}
