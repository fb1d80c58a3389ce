package postgres

import (
	"context"
	"io/fs"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/roadmap/internal/config"
)

func TestMigrations_Embedded(t *testing.T) {
	files, err := fs.Glob(migrations, "migrations/*.sql")
	require.NoError(t, err)
	assert.Len(t, files, 2)
	for _, f := range files {
		body, err := fs.ReadFile(migrations, f)
		require.NoError(t, err)
		assert.Contains(t, string(body), "-- +goose Up", f)
		assert.Contains(t, string(body), "-- +goose Down", f)
	}
}

func TestNewPool_BadDSN(t *testing.T) {
	_, err := NewPool(context.Background(), config.Cloud{DSN: "::not a dsn::"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse dsn")
}

func TestNewPool_UnreachableHonoursContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := NewPool(ctx, config.Cloud{
		DSN:            "postgres://roadmap@10.255.255.1:5432/roadmap?sslmode=disable",
		ConnectTimeout: 200 * time.Millisecond,
	})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRunMigrations_Live(t *testing.T) {
	dsn := os.Getenv("ROADMAP_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("ROADMAP_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	require.NoError(t, RunMigrations(ctx, dsn))
	require.NoError(t, RunMigrations(ctx, dsn))

	version, err := MigrationVersion(ctx, dsn)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
}
