package subscribe

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventSubscriberCreated    ActivityEventType = "subscriber.created"
	ActivityEventConfirmationResent   ActivityEventType = "subscriber.confirmation.resent"
	ActivityEventSubscriberActivated  ActivityEventType = "subscriber.activated"
	ActivityEventMagicLinkIssued      ActivityEventType = "subscriber.magic_link.issued"
	ActivityEventEmailChangeRequested ActivityEventType = "subscriber.email.change_requested"
	ActivityEventEmailChangeCommitted ActivityEventType = "subscriber.email.changed"
	ActivityEventSubscriberRemoved    ActivityEventType = "subscriber.removed"
)

// ActorRef identifies who triggered an event
type ActorRef struct {
	ID   string
	Type string
}

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType    ActivityEventType
	Actor        ActorRef
	SubscriberID string
	Email        string
	Metadata     map[string]any
	OccurredAt   time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
// Sinks run best-effort; errors are logged and never fail the flow.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}
