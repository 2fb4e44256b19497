package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"empresaflow/internal/audit"
	"empresaflow/internal/empresa/models"
	"empresaflow/internal/empresa/store"
	"empresaflow/internal/platform/metrics"
	dErrors "empresaflow/pkg/domain-errors"
	"empresaflow/pkg/platform/sentinel"
	"empresaflow/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

// searchScanLimit is how many queue rows are read when a name search is
// filtered in process.
const searchScanLimit = 1000

// History is the company history the service writes to and reads from.
type History interface {
	Emit(ctx context.Context, event audit.Event) (audit.Event, error)
	Announce(ctx context.Context, events ...audit.Event)
	List(ctx context.Context, empKey int64) ([]audit.Event, error)
}

// Service exposes the onboarding side of the company handoff: company
// detail, the pending queue, status transitions and history.
type Service struct {
	store   store.Store
	history History
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(st store.Store, history History, opts ...Option) *Service {
	s := &Service{
		store:   st,
		history: history,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// QueueQuery selects queue entries. Search is matched accent- and
// case-insensitively against the company name and RUT.
type QueueQuery struct {
	Statuses []models.OnboardingStatus
	Search   string
	Limit    int
}

// Company returns a company with its onboarding record. A company without
// one is returned with a nil Onboarding.
func (s *Service) Company(ctx context.Context, empKey int64) (models.CompanyDetail, error) {
	c, err := s.store.FindCompany(ctx, empKey)
	if err != nil {
		return models.CompanyDetail{}, s.translate(ctx, err, "find company", empKey)
	}
	detail := models.CompanyDetail{Company: c}
	o, err := s.store.FindOnboarding(ctx, empKey)
	switch {
	case err == nil:
		detail.Onboarding = &o
	case errors.Is(err, sentinel.ErrNotFound):
	default:
		return models.CompanyDetail{}, s.translate(ctx, err, "find onboarding", empKey)
	}
	return detail, nil
}

// Queue lists onboarding records, least recently updated first.
func (s *Service) Queue(ctx context.Context, q QueueQuery) ([]models.QueueEntry, error) {
	filter := models.QueueFilter{Statuses: q.Statuses, Limit: q.Limit}
	query := fold(q.Search)
	if query != "" {
		filter.Limit = searchScanLimit
	}
	entries, err := s.store.ListOnboarding(ctx, filter)
	if err != nil {
		return nil, s.translate(ctx, err, "list onboarding", 0)
	}
	if query == "" {
		return entries, nil
	}

	limit := store.Limit(models.QueueFilter{Limit: q.Limit})
	out := make([]models.QueueEntry, 0, min(limit, len(entries)))
	for _, e := range entries {
		if len(out) == limit {
			break
		}
		if matches(query, e.RUT, e.Nombre) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Transition moves a company's onboarding to next and records the change.
// Terminal states are immutable.
func (s *Service) Transition(ctx context.Context, empKey int64, next models.OnboardingStatus) (models.Onboarding, error) {
	var (
		updated models.Onboarding
		event   audit.Event
	)
	err := s.store.RunInTx(ctx, func(ctx context.Context, repo store.Repository) error {
		o, err := repo.FindOnboarding(ctx, empKey)
		if err != nil {
			return err
		}
		from := o.Status
		if err := o.Transition(next, s.now().UTC()); err != nil {
			return err
		}
		if err := repo.UpdateOnboarding(ctx, o); err != nil {
			return err
		}
		event, err = s.history.Emit(ctx, audit.Event{
			EmpKey: empKey,
			Action: audit.ActionOnboardingStatusChanged,
			Detail: fmt.Sprintf("%s -> %s", from, next),
		})
		if err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return models.Onboarding{}, err
		}
		return models.Onboarding{}, s.translate(ctx, err, "transition onboarding", empKey)
	}

	s.history.Announce(ctx, event)
	if s.metrics != nil {
		s.metrics.IncrementOnboardingTransition(string(next))
	}
	s.logger.InfoContext(ctx, "onboarding status changed",
		"empkey", empKey,
		"estado", string(next),
		"request_id", requestcontext.RequestID(ctx),
	)
	return updated, nil
}

// History returns the company's change history, oldest first.
func (s *Service) History(ctx context.Context, empKey int64) ([]audit.Event, error) {
	if _, err := s.store.FindCompany(ctx, empKey); err != nil {
		return nil, s.translate(ctx, err, "find company", empKey)
	}
	events, err := s.history.List(ctx, empKey)
	if err != nil {
		return nil, s.translate(ctx, err, "list history", empKey)
	}
	return events, nil
}

func (s *Service) translate(ctx context.Context, err error, op string, empKey int64) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		if empKey != 0 {
			return dErrors.Newf(dErrors.CodeNotFound, "company %d not found", empKey)
		}
		return dErrors.New(dErrors.CodeNotFound, "not found")
	case errors.Is(err, context.DeadlineExceeded) || dErrors.HasCode(err, dErrors.CodeTimeout):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "the storage backend did not answer in time")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "the storage backend is unavailable")
	}
	s.logger.ErrorContext(ctx, "onboarding store call failed",
		"op", op,
		"empkey", empKey,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to "+op)
}
