// Package store defines the persistence boundary for companies and their
// onboarding records. Backends live in the memory, postgres and rest
// subpackages.
package store

import (
	"context"
	"errors"

	"empresaflow/internal/empresa/models"
	"empresaflow/pkg/platform/sentinel"
)

//go:generate mockgen -source=store.go -destination=mocks/mocks.go -package=mocks -exclude_interfaces=Store

// Repository reads and writes companies and onboarding records.
type Repository interface {
	InsertCompany(ctx context.Context, c models.Company) error
	InsertOnboarding(ctx context.Context, o models.Onboarding) error
	FindCompany(ctx context.Context, empKey int64) (models.Company, error)
	// FindOnboarding returns the record; inside RunInTx backends that support
	// it lock the row until the transaction ends.
	FindOnboarding(ctx context.Context, empKey int64) (models.Onboarding, error)
	UpdateOnboarding(ctx context.Context, o models.Onboarding) error
	ListOnboarding(ctx context.Context, filter models.QueueFilter) ([]models.QueueEntry, error)
}

// TxRunner runs fn so that either every write it makes is kept or none is.
// The context passed to fn carries the transaction for stores that join it.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}

// Store is a Repository that can also run transactions.
type Store interface {
	Repository
	TxRunner
}

// ErrRejected marks a write the backend refused for a reason other than a
// duplicate key (constraint or permission failures).
var ErrRejected = errors.New("rejected by storage backend")

// DefaultQueueLimit caps ListOnboarding when the filter sets no limit.
const DefaultQueueLimit = 100

// BackendError carries the backend's own message so it can be shown to the
// user verbatim. Err is sentinel.ErrConflict or ErrRejected.
type BackendError struct {
	Message string
	Err     error
}

func (e *BackendError) Error() string {
	return e.Message
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Conflict reports a duplicate key with the backend's message.
func Conflict(message string) error {
	return &BackendError{Message: message, Err: sentinel.ErrConflict}
}

// Rejected reports any other refused write with the backend's message.
func Rejected(message string) error {
	return &BackendError{Message: message, Err: ErrRejected}
}

// Limit applies DefaultQueueLimit to a zero or negative limit.
func Limit(filter models.QueueFilter) int {
	if filter.Limit <= 0 {
		return DefaultQueueLimit
	}
	return filter.Limit
}
