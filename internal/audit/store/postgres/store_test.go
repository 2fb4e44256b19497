package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"empresaflow/internal/audit"
	txcontext "empresaflow/pkg/platform/tx"
)

func newMockStore(t *testing.T) (*Store, *sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := sqlx.NewDb(raw, "postgres")
	t.Cleanup(func() { _ = db.Close() })
	return New(db), db, mock
}

func TestAppendJoinsTransactionFromContext(t *testing.T) {
	store, db, mock := newMockStore(t)
	id := uuid.New()
	at := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO empresa_history")).
		WithArgs(id.String(), int64(12345678), "company_created", nil, "", "", "req-1", at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	ctx := txcontext.WithTx(context.Background(), tx)

	err = store.Append(ctx, audit.Event{
		ID:         id,
		EmpKey:     12345678,
		Action:     audit.ActionCompanyCreated,
		RequestID:  "req-1",
		OccurredAt: at,
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByCompany(t *testing.T) {
	store, _, mock := newMockStore(t)
	id := uuid.New()
	at := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM empresa_history")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "empkey", "action", "actor", "detail", "client", "request_id", "occurred_at"}).
			AddRow(id.String(), int64(7), "onboarding_status_changed", "u-9", "pending -> in_progress", "", "req-2", at))

	events, err := store.ListByCompany(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, id, events[0].ID)
	assert.Equal(t, audit.ActionOnboardingStatusChanged, events[0].Action)
	require.NotNil(t, events[0].Actor)
	assert.Equal(t, "u-9", *events[0].Actor)
	assert.NoError(t, mock.ExpectationsWereMet())
}
