package authpage

import (
	"context"
	"time"
)

// ActivityEventType enumerates the auth events the page produces.
type ActivityEventType string

const (
	ActivityEventLoginSuccess    ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure    ActivityEventType = "auth.login.failure"
	ActivityEventRegisterSuccess ActivityEventType = "auth.register.success"
	ActivityEventRegisterFailure ActivityEventType = "auth.register.failure"
)

// ActivityEvent captures audit-friendly information about an auth attempt.
type ActivityEvent struct {
	EventType  ActivityEventType
	UserID     string
	Identifier string
	Metadata   map[string]any
	OccurredAt time.Time
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

// LoggerActivitySink writes every event to logger at info level
func LoggerActivitySink(logger Logger) ActivitySink {
	return ActivitySinkFunc(func(_ context.Context, event ActivityEvent) error {
		logger.Info("auth activity",
			"event", string(event.EventType),
			"user_id", event.UserID,
			"identifier", event.Identifier,
			"metadata", event.Metadata,
		)
		return nil
	})
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
