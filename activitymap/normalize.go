package activitymap

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-identity"
)

const (
	MetadataKeyActorType = "actor_type"
	MetadataKeyFromState = "from_state"
	MetadataKeyToState   = "to_state"
)

// Subjects a record can be about.
const (
	SubjectAccount      = "account"
	SubjectSession      = "session"
	SubjectPassword     = "password_reset"
	SubjectRelationship = "relationship"
	SubjectMail         = "mail"
)

const systemActor = "system"

// subjects maps verb prefixes to subjects, longest prefix first.
var subjects = []struct {
	prefix  string
	subject string
}{
	{"auth.password.", SubjectPassword},
	{"auth.", SubjectSession},
	{"graph.", SubjectRelationship},
	{"mail.", SubjectMail},
	{"account.", SubjectAccount},
}

// Record is an identity event flattened for feeds, audit logs and queues.
type Record struct {
	ActorID    string         `json:"actor_id"`
	Verb       string         `json:"verb"`
	Subject    string         `json:"subject"`
	SubjectID  string         `json:"subject_id,omitempty"`
	Channel    string         `json:"channel"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

type Option func(*config)

type config struct {
	channel string
	clock   func() time.Time
}

// WithChannel pins the channel. By default it is the verb prefix.
func WithChannel(channel string) Option {
	return func(c *config) {
		c.channel = strings.TrimSpace(channel)
	}
}

// WithClock sets the time stamped on events that carry none.
func WithClock(clock func() time.Time) Option {
	return func(c *config) {
		if clock != nil {
			c.clock = clock
		}
	}
}

func newConfig(opts []Option) config {
	c := config{clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}
	return c
}

// Normalize flattens event. The acting account wins over the affected one;
// events with neither are attributed to "system".
func Normalize(event identity.ActivityEvent, opts ...Option) Record {
	return newConfig(opts).normalize(event)
}

func (c config) normalize(event identity.ActivityEvent) Record {
	verb := string(event.EventType)

	actor := strings.TrimSpace(event.Actor.ID)
	if actor == "" {
		actor = strings.TrimSpace(event.AccountID)
	}
	if actor == "" {
		actor = systemActor
	}

	channel := c.channel
	if channel == "" {
		if prefix, _, ok := strings.Cut(verb, "."); ok && prefix != "" {
			channel = prefix
		} else {
			channel = "identity"
		}
	}

	at := event.OccurredAt
	if at.IsZero() {
		at = c.clock()
	}

	return Record{
		ActorID:    actor,
		Verb:       verb,
		Subject:    subjectFor(verb),
		SubjectID:  strings.TrimSpace(event.AccountID),
		Channel:    channel,
		Metadata:   metadata(event),
		OccurredAt: at.UTC(),
	}
}

// NormalizeAll keeps the input order.
func NormalizeAll(events []identity.ActivityEvent, opts ...Option) []Record {
	c := newConfig(opts)
	out := make([]Record, 0, len(events))
	for _, event := range events {
		out = append(out, c.normalize(event))
	}
	return out
}

// Sink is an identity.ActivitySink that hands each event, normalized, to
// publish.
type Sink struct {
	publish func(context.Context, Record) error
	cfg     config
}

var _ identity.ActivitySink = (*Sink)(nil)

func NewSink(publish func(context.Context, Record) error, opts ...Option) *Sink {
	return &Sink{publish: publish, cfg: newConfig(opts)}
}

func (s *Sink) Record(ctx context.Context, event identity.ActivityEvent) error {
	if s == nil || s.publish == nil {
		return nil
	}
	if err := s.publish(ctx, s.cfg.normalize(event)); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to publish activity record")
	}
	return nil
}

func subjectFor(verb string) string {
	for _, s := range subjects {
		if strings.HasPrefix(verb, s.prefix) {
			return s.subject
		}
	}
	return SubjectAccount
}

// metadata copies the event metadata and adds the lifecycle states. An
// actor_type already present in the event is kept.
func metadata(event identity.ActivityEvent) map[string]any {
	out := make(map[string]any, len(event.Metadata)+3)
	for k, v := range event.Metadata {
		out[k] = v
	}

	if t := strings.TrimSpace(event.Actor.Type); t != "" {
		if _, ok := out[MetadataKeyActorType]; !ok {
			out[MetadataKeyActorType] = t
		}
	}
	if event.FromState != "" {
		out[MetadataKeyFromState] = event.FromState
	}
	if event.ToState != "" {
		out[MetadataKeyToState] = event.ToState
	}

	if len(out) == 0 {
		return nil
	}
	return out
}
