package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"empresaflow/internal/empresa/models"
	"empresaflow/internal/empresa/store"
	"empresaflow/pkg/platform/sentinel"
)

const (
	tableCompanies   = "empresas"
	tableOnboardings = "empresas_onboarding"

	compensationTimeout = 10 * time.Second
)

// Store is the store.Store over a PostgREST backend.
type Store struct {
	client *Client
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

func New(client *Client, opts ...Option) *Store {
	s := &Store{client: client, logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Store) InsertCompany(ctx context.Context, c models.Company) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	return s.client.insert(ctx, tableCompanies, c)
}

func (s *Store) InsertOnboarding(ctx context.Context, o models.Onboarding) error {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	if o.UpdatedAt.IsZero() {
		o.UpdatedAt = o.CreatedAt
	}
	return s.client.insert(ctx, tableOnboardings, o)
}

func (s *Store) FindCompany(ctx context.Context, empKey int64) (models.Company, error) {
	var rows []models.Company
	if err := s.client.get(ctx, tableCompanies, eq("empkey", empKey), &rows); err != nil {
		return models.Company{}, err
	}
	if len(rows) == 0 {
		return models.Company{}, sentinel.ErrNotFound
	}
	return rows[0], nil
}

func (s *Store) FindOnboarding(ctx context.Context, empKey int64) (models.Onboarding, error) {
	var rows []models.Onboarding
	if err := s.client.get(ctx, tableOnboardings, eq("empkey", empKey), &rows); err != nil {
		return models.Onboarding{}, err
	}
	if len(rows) == 0 {
		return models.Onboarding{}, sentinel.ErrNotFound
	}
	return rows[0], nil
}

func (s *Store) UpdateOnboarding(ctx context.Context, o models.Onboarding) error {
	body := map[string]any{"estado": o.Status, "updated_at": o.UpdatedAt}
	var rows []models.Onboarding
	if err := s.client.patch(ctx, tableOnboardings, eq("empkey", o.EmpKey), body, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type queueRow struct {
	EmpKey    int64                   `json:"empkey"`
	Status    models.OnboardingStatus `json:"estado"`
	UpdatedAt time.Time               `json:"updated_at"`
	Empresa   struct {
		RUT    string  `json:"rut"`
		Nombre *string `json:"nombre"`
	} `json:"empresas"`
}

// ListOnboarding embeds the company through the foreign key.
func (s *Store) ListOnboarding(ctx context.Context, filter models.QueueFilter) ([]models.QueueEntry, error) {
	query := url.Values{
		"select": {"empkey,estado,updated_at,empresas(rut,nombre)"},
		"order":  {"updated_at.asc,empkey.asc"},
		"limit":  {fmt.Sprint(store.Limit(filter))},
	}
	if len(filter.Statuses) > 0 {
		names := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			names[i] = string(st)
		}
		query.Set("estado", "in.("+strings.Join(names, ",")+")")
	}

	var rows []queueRow
	if err := s.client.get(ctx, tableOnboardings, query, &rows); err != nil {
		return nil, err
	}
	entries := make([]models.QueueEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, models.QueueEntry{
			EmpKey:    r.EmpKey,
			RUT:       r.Empresa.RUT,
			Nombre:    r.Empresa.Nombre,
			Status:    r.Status,
			UpdatedAt: r.UpdatedAt,
		})
	}
	return entries, nil
}

// RunInTx runs fn against a recording repository. When fn fails, the writes
// it completed are undone in reverse order: inserted rows are deleted and
// updated onboarding records restored. History appended through a
// HistoryStore with the ctx handed to fn is deleted too. Undo runs even if
// ctx has expired.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, repo store.Repository) error) error {
	tx := &compensatingRepo{Store: s}
	err := fn(context.WithValue(ctx, journalKey{}, tx), tx)
	if err == nil {
		return nil
	}

	undoCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()
	if undoErr := tx.rollback(undoCtx); undoErr != nil {
		s.logger.ErrorContext(ctx, "compensation failed, manual reconciliation required",
			"error", undoErr,
			"cause", err,
		)
	}
	return err
}

type journalKey struct{}

// journalFrom returns the compensating repository of the RunInTx that ctx
// belongs to.
func journalFrom(ctx context.Context) (*compensatingRepo, bool) {
	tx, ok := ctx.Value(journalKey{}).(*compensatingRepo)
	return tx, ok
}

type compensatingRepo struct {
	*Store
	mu   sync.Mutex
	undo []func(ctx context.Context) error
}

func (r *compensatingRepo) push(fn func(ctx context.Context) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.undo = append(r.undo, fn)
}

func (r *compensatingRepo) InsertCompany(ctx context.Context, c models.Company) error {
	if err := r.Store.InsertCompany(ctx, c); err != nil {
		return err
	}
	r.push(func(ctx context.Context) error {
		return r.client.delete(ctx, tableCompanies, eq("empkey", c.EmpKey))
	})
	return nil
}

func (r *compensatingRepo) InsertOnboarding(ctx context.Context, o models.Onboarding) error {
	if err := r.Store.InsertOnboarding(ctx, o); err != nil {
		return err
	}
	r.push(func(ctx context.Context) error {
		return r.client.delete(ctx, tableOnboardings, eq("empkey", o.EmpKey))
	})
	return nil
}

func (r *compensatingRepo) UpdateOnboarding(ctx context.Context, o models.Onboarding) error {
	prev, err := r.Store.FindOnboarding(ctx, o.EmpKey)
	if err != nil {
		return err
	}
	if err := r.Store.UpdateOnboarding(ctx, o); err != nil {
		return err
	}
	r.push(func(ctx context.Context) error {
		return r.Store.UpdateOnboarding(ctx, prev)
	})
	return nil
}

func (r *compensatingRepo) rollback(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for i := len(r.undo) - 1; i >= 0; i-- {
		if err := r.undo[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	r.undo = nil
	if len(errs) > 0 {
		return fmt.Errorf("undo %d write(s): %w", len(errs), errors.Join(errs...))
	}
	return nil
}
