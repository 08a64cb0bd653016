package repository

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// newPostgresStore connects to TEST_DATABASE_URL and truncates the tables for each subtest.
func newPostgresStore(t *testing.T) Store {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	store := NewPostgresRepository(pool)
	require.NoError(t, store.CreateSchema(ctx))

	_, err = pool.Exec(ctx, `TRUNCATE clients, readings, bills RESTART IDENTITY`)
	require.NoError(t, err)

	return store
}

func TestPostgresRepository(t *testing.T) {
	if os.Getenv("TEST_DATABASE_URL") == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	runStoreContract(t, newPostgresStore)
}
