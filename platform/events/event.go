// Package events is the in-process publish/subscribe layer. Modules
// announce domain facts here instead of calling each other directly;
// the bus owns delivery and the platform layer stays free of business
// rules.
package events

import (
	"context"
	"time"
)

// Event is anything the bus can carry. EventName doubles as the
// subscription key, so it must be stable across releases.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent carries the occurrence timestamp so concrete events only
// have to embed it and implement EventName.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps the event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler receives events for the names it subscribed to.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc lets a plain function subscribe without a wrapper type.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus fans events out to their subscribers. Publish is fire-and-forget
// with handlers running in the background; PublishSync blocks until
// every handler has returned and surfaces the first error. Subscribe
// keys on the Event's EventName value.
type Bus interface {
	Publish(ctx context.Context, event Event)
	PublishSync(ctx context.Context, event Event) error
	Subscribe(eventName string, handler Handler)
}
