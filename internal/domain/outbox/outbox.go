package outbox

import (
	"context"
	"errors"
)

var ErrClosed = errors.New("outbox: bus closed")

// Event is a domain event identified by name.
type Event interface {
	EventName() string
}

// Handler processes a published event.
type Handler func(ctx context.Context, e Event) error

// Publisher hands events to interested subscribers without waiting for them.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Subscriber registers handlers for event names.
type Subscriber interface {
	Subscribe(eventName string, h Handler)
}
