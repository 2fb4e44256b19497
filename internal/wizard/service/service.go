package service

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"empresaflow/internal/audit"
	"empresaflow/internal/empresa/store"
	wizardmetrics "empresaflow/internal/wizard/metrics"
	"empresaflow/internal/wizard/models"
	dErrors "empresaflow/pkg/domain-errors"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

const defaultSubmitTimeout = 10 * time.Second

// DraftStore keeps one in-progress wizard state per owner.
type DraftStore interface {
	Save(ctx context.Context, owner string, state models.WizardState) (models.Draft, error)
	Load(ctx context.Context, owner string) (models.Draft, bool)
	Discard(ctx context.Context, owner string) error
}

// HistoryPublisher records company history inside the submission transaction
// and forwards it once committed.
type HistoryPublisher interface {
	Emit(ctx context.Context, event audit.Event) (audit.Event, error)
	Announce(ctx context.Context, events ...audit.Event)
}

// Service drives the company registration wizard: it keeps the owner's
// WizardState in the DraftStore between requests and turns the finished
// document into a company and a pending onboarding record.
type Service struct {
	drafts        DraftStore
	tx            store.TxRunner
	history       HistoryPublisher
	logger        *slog.Logger
	metrics       *wizardmetrics.Metrics
	submitTimeout time.Duration
	inflight      singleflight.Group
	now           func() time.Time
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *wizardmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithHistory(h HistoryPublisher) Option {
	return func(s *Service) {
		s.history = h
	}
}

// WithSubmitTimeout bounds the storage round trips of one submission.
func WithSubmitTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.submitTimeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(drafts DraftStore, tx store.TxRunner, opts ...Option) *Service {
	s := &Service{
		drafts:        drafts,
		tx:            tx,
		logger:        slog.Default(),
		submitTimeout: defaultSubmitTimeout,
		now:           time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Session is the wizard state returned to the client.
type Session struct {
	State   models.WizardState `json:"state"`
	SavedAt *time.Time         `json:"savedAt,omitempty"`
	Step    models.Step        `json:"step"`
	IsLast  bool               `json:"isLastStep"`
}

func newSession(d models.Draft, saved bool) Session {
	sess := Session{
		State:  d.State,
		Step:   d.State.CurrentStep(),
		IsLast: d.State.IsLastStep(),
	}
	if saved {
		at := d.SavedAt
		sess.SavedAt = &at
	}
	return sess
}

// NavAction is a StepSequencer move.
type NavAction string

const (
	NavNext     NavAction = "next"
	NavPrevious NavAction = "previous"
	NavGoTo     NavAction = "goto"
)

// Navigation requests a move; Index is used by NavGoTo only.
type Navigation struct {
	Action NavAction `json:"action"`
	Index  int       `json:"index"`
}

// State returns the owner's draft, or a fresh wizard at the first step.
func (s *Service) State(ctx context.Context, owner string) Session {
	d, ok := s.load(ctx, owner)
	return newSession(d, ok)
}

// UpdateSection merges partial into topic and saves the draft.
func (s *Service) UpdateSection(ctx context.Context, owner string, topic models.Topic, partial models.Section) (Session, error) {
	d, _ := s.load(ctx, owner)
	if err := d.State.Update(topic, partial); err != nil {
		return Session{}, err
	}
	return s.save(ctx, owner, d.State)
}

// Navigate moves the current step and saves the draft. Out-of-range moves clamp.
func (s *Service) Navigate(ctx context.Context, owner string, nav Navigation) (Session, error) {
	d, _ := s.load(ctx, owner)
	switch nav.Action {
	case NavNext:
		d.State.Next()
	case NavPrevious:
		d.State.Previous()
	case NavGoTo:
		d.State.GoTo(nav.Index)
	default:
		return Session{}, dErrors.Newf(dErrors.CodeValidation, "unknown navigation action %q", nav.Action)
	}
	return s.save(ctx, owner, d.State)
}

// Discard drops the owner's draft.
func (s *Service) Discard(ctx context.Context, owner string) error {
	err := s.drafts.Discard(ctx, owner)
	s.countDraft("discard", err == nil, true)
	return err
}

func (s *Service) load(ctx context.Context, owner string) (models.Draft, bool) {
	d, ok := s.drafts.Load(ctx, owner)
	s.countDraft("load", true, ok)
	if !ok {
		return models.Draft{State: models.NewWizardState()}, false
	}
	return d, true
}

func (s *Service) save(ctx context.Context, owner string, state models.WizardState) (Session, error) {
	d, err := s.drafts.Save(ctx, owner, state)
	s.countDraft("save", err == nil, true)
	if err != nil {
		s.logger.WarnContext(ctx, "draft save failed", "owner", owner, "error", err)
		return Session{}, err
	}
	return newSession(d, true), nil
}

func (s *Service) countDraft(op string, ok, hit bool) {
	if s.metrics == nil {
		return
	}
	switch {
	case !ok:
		s.metrics.IncrementDraftOperation(op, "error")
	case !hit:
		s.metrics.IncrementDraftOperation(op, "miss")
	default:
		s.metrics.IncrementDraftOperation(op, "ok")
	}
}
