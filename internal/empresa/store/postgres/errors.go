package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"empresaflow/internal/empresa/store"
)

const uniqueViolation = "23505"

// translate turns a driver error into store.Conflict or store.Rejected,
// keeping the server's message. Both the pgx and lib/pq drivers are handled.
func translate(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return backendError(pgErr.Code, pgErr.Message)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return backendError(string(pqErr.Code), pqErr.Message)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func backendError(code, message string) error {
	if code == uniqueViolation {
		return store.Conflict(message)
	}
	return store.Rejected(message)
}
