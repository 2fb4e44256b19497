package audit

import "context"

// Store is append-only history storage.
type Store interface {
	Append(ctx context.Context, event Event) error
	// ListByCompany returns the company's events, oldest first.
	ListByCompany(ctx context.Context, empKey int64) ([]Event, error)
}

// Sink receives events after they are committed, for fan-out to other systems.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}
