// Package audit records the change history of each company and forwards it
// to downstream consumers.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"empresaflow/pkg/requestcontext"
)

// Publisher writes history events. Emit is synchronous and fail-closed: when
// the append fails the caller's operation must fail too. Announce hands
// committed events to the outbox channel without blocking.
type Publisher struct {
	store  Store
	outbox chan<- Event
	logger *slog.Logger
	now    func() time.Time
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithOutbox sets the channel Announce sends to; a Worker drains it.
func WithOutbox(ch chan<- Event) Option {
	return func(p *Publisher) {
		p.outbox = ch
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		p.now = now
	}
}

func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Emit fills in id, timestamp, request id and client description from ctx,
// appends the event and returns it as stored.
func (p *Publisher) Emit(ctx context.Context, event Event) (Event, error) {
	if event.Action == "" {
		return Event{}, fmt.Errorf("history event requires an action")
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = p.now().UTC()
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.Client == "" {
		event.Client = requestcontext.Client(ctx)
	}
	if event.Actor == nil {
		if userID := requestcontext.UserID(ctx); userID != "" {
			event.Actor = &userID
		}
	}

	if err := p.store.Append(ctx, event); err != nil {
		p.logger.ErrorContext(ctx, "history append failed",
			"action", event.Action,
			"empkey", event.EmpKey,
			"request_id", event.RequestID,
			"error", err,
		)
		return Event{}, fmt.Errorf("append history: %w", err)
	}
	return event, nil
}

// Announce queues committed events for the outbox. Events that do not fit are
// dropped and logged; history itself is already stored.
func (p *Publisher) Announce(ctx context.Context, events ...Event) {
	if p.outbox == nil {
		return
	}
	for _, event := range events {
		select {
		case p.outbox <- event:
		default:
			p.logger.WarnContext(ctx, "history outbox full, event not forwarded",
				"action", event.Action,
				"empkey", event.EmpKey,
				"event_id", event.ID,
			)
		}
	}
}

// List returns a company's history, oldest first.
func (p *Publisher) List(ctx context.Context, empKey int64) ([]Event, error) {
	return p.store.ListByCompany(ctx, empKey)
}
