// Package draft saves and restores the in-progress wizard state of each user.
package draft

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"empresaflow/internal/wizard/models"
	dErrors "empresaflow/pkg/domain-errors"
)

var errMalformed = errors.New("draft is missing savedAt or state")

// SlotPrefix is the fixed slot name; one draft per owner.
const SlotPrefix = "wizard:empresa-nueva"

// SlotKey returns the slot an owner's draft lives in. Anonymous sessions share
// the bare prefix.
func SlotKey(owner string) string {
	if owner == "" {
		return SlotPrefix
	}
	return SlotPrefix + ":" + owner
}

// Store persists one Draft per owner.
type Store struct {
	slots  Slots
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithClock overrides the timestamp source for savedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func New(slots Slots, opts ...Option) *Store {
	s := &Store{
		slots:  slots,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Save overwrites the owner's slot with {savedAt, state}. The payload is fully
// encoded before the single write, so a failed save leaves the prior draft.
func (s *Store) Save(ctx context.Context, owner string, state models.WizardState) (models.Draft, error) {
	d := models.Draft{SavedAt: s.now().UTC(), State: state}
	payload, err := json.Marshal(d)
	if err != nil {
		return models.Draft{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode draft")
	}
	if err := s.slots.SetItem(ctx, SlotKey(owner), string(payload)); err != nil {
		return models.Draft{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to save draft")
	}
	return d, nil
}

// Load returns the owner's draft. An empty, unreadable or malformed slot is
// reported as no draft; Load never fails.
func (s *Store) Load(ctx context.Context, owner string) (models.Draft, bool) {
	key := SlotKey(owner)
	raw, ok, err := s.slots.GetItem(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "draft slot unreadable", "slot", key, "error", err)
		return models.Draft{}, false
	}
	if !ok || raw == "" {
		return models.Draft{}, false
	}

	d, err := decode(raw)
	if err != nil {
		s.logger.WarnContext(ctx, "ignoring malformed draft", "slot", key, "error", err)
		return models.Draft{}, false
	}
	return d, true
}

// decode requires both savedAt and state to be present.
func decode(raw string) (models.Draft, error) {
	var shape struct {
		SavedAt *time.Time      `json:"savedAt"`
		State   json.RawMessage `json:"state"`
	}
	if err := json.Unmarshal([]byte(raw), &shape); err != nil {
		return models.Draft{}, err
	}
	if shape.SavedAt == nil || len(shape.State) == 0 || string(shape.State) == "null" {
		return models.Draft{}, errMalformed
	}
	var state models.WizardState
	if err := json.Unmarshal(shape.State, &state); err != nil {
		return models.Draft{}, err
	}
	return models.Draft{SavedAt: *shape.SavedAt, State: state}, nil
}

// Discard clears the owner's slot.
func (s *Store) Discard(ctx context.Context, owner string) error {
	if err := s.slots.RemoveItem(ctx, SlotKey(owner)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to discard draft")
	}
	return nil
}
