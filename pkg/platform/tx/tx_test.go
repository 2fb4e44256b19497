package tx

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutor(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := sqlx.NewDb(raw, "postgres")
	t.Cleanup(func() { _ = db.Close() })

	assert.Same(t, db, Executor(context.Background(), db))

	mock.ExpectBegin()
	tx, err := db.Beginx()
	require.NoError(t, err)

	ctx := WithTx(context.Background(), tx)
	assert.Same(t, tx, Executor(ctx, db))

	_, ok := From(WithTx(context.Background(), nil))
	assert.False(t, ok)
}
