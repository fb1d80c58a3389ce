package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/alexanderramin/roadmap/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openUoW(t *testing.T) *db.SQLiteUnitOfWork {
	t.Helper()
	database, err := db.OpenDB(db.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return db.NewSQLiteUnitOfWork(database)
}

func putDoc(ctx context.Context, tx db.DBTX, key string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO documents (key, body, updated_at) VALUES (?, '{}', '')`, key)
	return err
}

func docExists(t *testing.T, uow *db.SQLiteUnitOfWork, key string) bool {
	t.Helper()
	var n int
	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		return tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE key = ?`, key).Scan(&n)
	})
	require.NoError(t, err)
	return n > 0
}

func TestWithinTx_Commits(t *testing.T) {
	uow := openUoW(t)
	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		return putDoc(ctx, tx, "a")
	})
	require.NoError(t, err)
	assert.True(t, docExists(t, uow, "a"))
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	uow := openUoW(t)
	boom := errors.New("boom")
	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		if err := putDoc(ctx, tx, "b"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, docExists(t, uow, "b"))
}

func TestWithinTx_RollsBackOnPanic(t *testing.T) {
	uow := openUoW(t)
	assert.Panics(t, func() {
		_ = uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
			_ = putDoc(ctx, tx, "c")
			panic("boom")
		})
	})
	assert.False(t, docExists(t, uow, "c"))
}
