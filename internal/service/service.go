// Package service implements the domain operations behind the HTTP API. Every
// protected operation receives the caller's auth.Principal explicitly and runs
// its mutation inside one storage transaction.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hongminglow/student-life-be/internal/auth"
	"github.com/hongminglow/student-life-be/internal/events"
	"github.com/hongminglow/student-life-be/internal/models"
	"github.com/hongminglow/student-life-be/internal/storage"
)

// Option customises a service.
type Option func(*base)

// WithClock overrides the time source used for audit stamps.
func WithClock(now func() time.Time) Option {
	return func(b *base) { b.now = now }
}

// WithLogger sets the logger used for best-effort failures.
func WithLogger(logger *slog.Logger) Option {
	return func(b *base) { b.logger = logger }
}

type base struct {
	store     storage.Store
	publisher events.Publisher
	now       func() time.Time
	logger    *slog.Logger
}

func newBase(store storage.Store, publisher events.Publisher, opts []Option) base {
	if publisher == nil {
		publisher = events.Discard{}
	}
	b := base{store: store, publisher: publisher, now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// publish delivers an event after commit. Failures are logged, never returned.
func (b base) publish(ctx context.Context, kind, subject, entityID string, payload any) {
	err := b.publisher.Publish(ctx, events.Event{
		Type:       kind,
		Subject:    subject,
		EntityID:   entityID,
		OccurredAt: b.now().UTC(),
		Payload:    payload,
	})
	if err != nil {
		b.logger.WarnContext(ctx, "publish event failed", "type", kind, "entity_id", entityID, "error", err)
	}
}

// owner resolves the principal to its stored user.
func owner(ctx context.Context, s storage.Store, p auth.Principal) (models.User, error) {
	u, err := s.Users().FindByUsername(ctx, p.Username)
	if errors.Is(err, storage.ErrNotFound) {
		return models.User{}, fmt.Errorf("%w: account %q no longer exists", ErrInvalidCredentials, p.Username)
	}
	return u, err
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func validatePage(p models.PageRequest) error {
	if err := p.Validate(); err != nil {
		return invalidErr(err)
	}
	return nil
}
