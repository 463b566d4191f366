// Package events publishes domain events after a mutation commits.
package events

import (
	"context"
	"log/slog"
	"time"
)

// Event types.
const (
	UserRegistered = "user.registered"

	CourseCreated = "course.created"
	CourseUpdated = "course.updated"
	CourseDeleted = "course.deleted"

	TaskCreated = "task.created"
	TaskUpdated = "task.updated"
	TaskDeleted = "task.deleted"

	ExpenseCreated = "expense.created"
	ExpenseUpdated = "expense.updated"
	ExpenseDeleted = "expense.deleted"
)

// Event describes a committed change. Type doubles as the AMQP routing key.
type Event struct {
	Type       string    `json:"type"`
	Subject    string    `json:"subject"`
	EntityID   string    `json:"entityId"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload,omitempty"`
}

// Publisher delivers events to interested consumers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// LogPublisher writes events to a structured logger instead of a broker.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, e Event) error {
	p.logger.InfoContext(ctx, "domain event",
		"type", e.Type,
		"subject", e.Subject,
		"entity_id", e.EntityID,
		"occurred_at", e.OccurredAt,
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }
func (Discard) Close() error                         { return nil }
