package notifiers

import "context"

// Sink delivers a notification message to one downstream channel.
type Sink interface {
	ID() string
	Type() string
	Deliver(ctx context.Context, msg Message) error
}
