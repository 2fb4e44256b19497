// Package postgres stores companies and onboarding records in PostgreSQL.
// Both inserts of a submission run in one SQL transaction.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"empresaflow/internal/empresa/models"
	"empresaflow/internal/empresa/store"
	dErrors "empresaflow/pkg/domain-errors"
	"empresaflow/pkg/platform/sentinel"
	txcontext "empresaflow/pkg/platform/tx"
)

const defaultTxTimeout = 10 * time.Second

var tracer = otel.Tracer("empresaflow/internal/empresa/store/postgres")

// Store is the PostgreSQL-backed store.Store.
type Store struct {
	repo
	db      *sqlx.DB
	timeout time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithTxTimeout bounds transactions whose context has no deadline.
func WithTxTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.timeout = d
	}
}

func New(db *sqlx.DB, opts ...Option) *Store {
	s := &Store{repo: repo{ext: db}, db: db, timeout: defaultTxTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// RunInTx runs fn in a SQL transaction. The context handed to fn carries the
// *sql.Tx so the history store appends within the same transaction.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, repo store.Repository) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	ctx, span := tracer.Start(ctx, "postgres.RunInTx")
	defer span.End()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx), repo{ext: tx, inTx: true}); err != nil {
		span.SetStatus(codes.Error, "rolled back")
		return err
	}
	if err := tx.Commit(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// repo runs queries against the pool or a transaction.
type repo struct {
	ext  sqlx.ExtContext
	inTx bool
}

const insertCompanySQL = `
	INSERT INTO empresas (empkey, rut, nombre, nombre_fantasia, direccion, telefono, email, created_by, created_at)
	VALUES (:empkey, :rut, :nombre, :nombre_fantasia, :direccion, :telefono, :email, :created_by, :created_at)
`

func (r repo) InsertCompany(ctx context.Context, c models.Company) error {
	ctx, span := tracer.Start(ctx, "postgres.InsertCompany")
	defer span.End()
	span.SetAttributes(attribute.Int64("empkey", c.EmpKey))

	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if _, err := sqlx.NamedExecContext(ctx, r.ext, insertCompanySQL, c); err != nil {
		span.RecordError(err)
		return translate(err, "insert company")
	}
	return nil
}

const insertOnboardingSQL = `
	INSERT INTO empresas_onboarding (empkey, estado, created_at, updated_at)
	VALUES (:empkey, :estado, :created_at, :updated_at)
`

func (r repo) InsertOnboarding(ctx context.Context, o models.Onboarding) error {
	ctx, span := tracer.Start(ctx, "postgres.InsertOnboarding")
	defer span.End()
	span.SetAttributes(attribute.Int64("empkey", o.EmpKey))

	now := time.Now().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	if o.UpdatedAt.IsZero() {
		o.UpdatedAt = o.CreatedAt
	}
	if _, err := sqlx.NamedExecContext(ctx, r.ext, insertOnboardingSQL, o); err != nil {
		span.RecordError(err)
		return translate(err, "insert onboarding")
	}
	return nil
}

func (r repo) FindCompany(ctx context.Context, empKey int64) (models.Company, error) {
	var c models.Company
	err := sqlx.GetContext(ctx, r.ext, &c, `
		SELECT empkey, rut, nombre, nombre_fantasia, direccion, telefono, email, created_by, created_at
		FROM empresas
		WHERE empkey = $1
	`, empKey)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Company{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.Company{}, fmt.Errorf("find company: %w", err)
	}
	return c, nil
}

func (r repo) FindOnboarding(ctx context.Context, empKey int64) (models.Onboarding, error) {
	query := `
		SELECT empkey, estado, created_at, updated_at
		FROM empresas_onboarding
		WHERE empkey = $1`
	if r.inTx {
		query += ` FOR UPDATE`
	}
	var o models.Onboarding
	err := sqlx.GetContext(ctx, r.ext, &o, query, empKey)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Onboarding{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.Onboarding{}, fmt.Errorf("find onboarding: %w", err)
	}
	return o, nil
}

func (r repo) UpdateOnboarding(ctx context.Context, o models.Onboarding) error {
	res, err := r.ext.ExecContext(ctx, `
		UPDATE empresas_onboarding
		SET estado = $2, updated_at = $3
		WHERE empkey = $1
	`, o.EmpKey, string(o.Status), o.UpdatedAt)
	if err != nil {
		return translate(err, "update onboarding")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update onboarding: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// ListOnboarding orders by last update, oldest first, then by empkey.
func (r repo) ListOnboarding(ctx context.Context, filter models.QueueFilter) ([]models.QueueEntry, error) {
	statuses := make([]string, 0, len(filter.Statuses))
	for _, st := range filter.Statuses {
		statuses = append(statuses, string(st))
	}
	var entries []models.QueueEntry
	err := sqlx.SelectContext(ctx, r.ext, &entries, `
		SELECT o.empkey, e.rut, e.nombre, o.estado, o.updated_at
		FROM empresas_onboarding o
		JOIN empresas e ON e.empkey = o.empkey
		WHERE cardinality($1::text[]) = 0 OR o.estado = ANY($1::text[])
		ORDER BY o.updated_at ASC, o.empkey ASC
		LIMIT $2
	`, pq.Array(statuses), store.Limit(filter))
	if err != nil {
		return nil, fmt.Errorf("list onboarding: %w", err)
	}
	return entries, nil
}
