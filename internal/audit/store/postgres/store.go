package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"empresaflow/internal/audit"
	txcontext "empresaflow/pkg/platform/tx"
)

// Store writes history to the empresa_history table. Appends join the SQL
// transaction carried in the context, so history commits with the change it
// describes.
type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

const appendSQL = `
	INSERT INTO empresa_history (id, empkey, action, actor, detail, client, request_id, occurred_at)
	VALUES (:id, :empkey, :action, :actor, :detail, :client, :request_id, :occurred_at)
`

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if _, err := sqlx.NamedExecContext(ctx, txcontext.Executor(ctx, s.db), appendSQL, event); err != nil {
		return fmt.Errorf("insert history event: %w", err)
	}
	return nil
}

func (s *Store) ListByCompany(ctx context.Context, empKey int64) ([]audit.Event, error) {
	var events []audit.Event
	err := sqlx.SelectContext(ctx, s.db, &events, `
		SELECT id, empkey, action, actor, COALESCE(detail, '') AS detail,
			COALESCE(client, '') AS client, COALESCE(request_id, '') AS request_id, occurred_at
		FROM empresa_history
		WHERE empkey = $1
		ORDER BY occurred_at ASC, id ASC
	`, empKey)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	return events, nil
}
