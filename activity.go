package identity

import (
	"context"
	"time"

	"github.com/goliatone/go-print"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventRegistered        ActivityEventType = "account.registered"
	ActivityEventUpdated           ActivityEventType = "account.updated"
	ActivityEventDeleted           ActivityEventType = "account.deleted"
	ActivityEventActivated         ActivityEventType = "account.activated"
	ActivityEventActivationResent  ActivityEventType = "account.activation.resent"
	ActivityEventLoginSuccess      ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure      ActivityEventType = "auth.login.failure"
	ActivityEventRemembered        ActivityEventType = "auth.remember.issued"
	ActivityEventForgotten         ActivityEventType = "auth.remember.cleared"
	ActivityEventResetRequested    ActivityEventType = "auth.password.reset_requested"
	ActivityEventPasswordReset     ActivityEventType = "auth.password.reset"
	ActivityEventFollowed          ActivityEventType = "graph.followed"
	ActivityEventUnfollowed        ActivityEventType = "graph.unfollowed"
	ActivityEventMailDeliveryError ActivityEventType = "mail.delivery.failed"
)

// ActorRef identifies who/what triggered an event.
type ActorRef struct {
	ID   string
	Type string
}

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType  ActivityEventType `json:"event_type"`
	Actor      ActorRef          `json:"actor"`
	AccountID  string            `json:"account_id,omitempty"`
	FromState  string            `json:"from_state,omitempty"`
	ToState    string            `json:"to_state,omitempty"`
	Metadata   map[string]any    `json:"metadata,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
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

// LoggerActivitySink dumps each event to a logger at debug level.
type LoggerActivitySink struct {
	Logger Logger
}

func (s LoggerActivitySink) Record(ctx context.Context, event ActivityEvent) error {
	if s.Logger == nil {
		return nil
	}
	s.Logger.WithContext(ctx).Debug("activity", "event", string(event.EventType), "payload", print.MaybePrettyJSON(event))
	return nil
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

// emitter is embedded by the services that publish activity.
type emitter struct {
	sink   ActivitySink
	logger Logger
	clock  Clock
}

func (e emitter) emit(ctx context.Context, event ActivityEvent) {
	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = e.clock.now()
	}

	if err := normalizeActivitySink(e.sink).Record(ctx, event); err != nil && e.logger != nil {
		e.logger.WithContext(ctx).Warn("activity sink record error", "event", string(event.EventType), "error", err)
	}
}

func accountActor(a *Account) ActorRef {
	if a == nil {
		return ActorRef{Type: "unknown"}
	}
	return ActorRef{ID: a.ID.String(), Type: "account"}
}

func accountID(a *Account) string {
	if a == nil {
		return ""
	}
	return a.ID.String()
}
