//go:build integration

package repositories

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamenight/backend/internal/models"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	server, err := testserver.NewTestServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "start cockroach test server: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, server.PGURL().String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to cockroach test server: %v\n", err)
		server.Stop()
		os.Exit(1)
	}

	if err := applyMigrations(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "apply migrations: %v\n", err)
		pool.Close()
		server.Stop()
		os.Exit(1)
	}

	testPool = pool

	code := m.Run()

	pool.Close()
	server.Stop()

	os.Exit(code)
}

func TestPostgresFriendDirectory_AddGetUpdateDelete(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	dir := NewPostgresFriendDirectory(testPool)

	alice, err := dir.Add(ctx, models.Friend{ID: 1, Name: "Alice", Email: "alice@example.com"})
	require.NoError(t, err)
	assert.Equal(t, 1, alice.ID)

	_, err = dir.Add(ctx, models.Friend{ID: 1, Name: "Imposter"})
	require.ErrorIs(t, err, ErrConflict)

	bob, err := dir.Add(ctx, models.Friend{Name: "Bob", Email: "bob@example.com"})
	require.NoError(t, err)
	assert.NotZero(t, bob.ID)

	got, err := dir.Get(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, bob, got)

	bob.Name = "Robert"
	_, err = dir.Update(ctx, bob)
	require.NoError(t, err)
	got, err = dir.Get(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "Robert", got.Name)

	_, err = dir.Update(ctx, models.Friend{ID: 424242, Name: "Ghost"})
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, dir.Delete(ctx, bob.ID))
	_, err = dir.Get(ctx, bob.ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, dir.Delete(ctx, bob.ID), ErrNotFound)
}

func TestPostgresFriendDirectory_ListAndSearch(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	dir := NewPostgresFriendDirectory(testPool)
	for _, friend := range DemoFriends {
		_, err := dir.Add(ctx, friend)
		require.NoError(t, err)
	}

	all, err := dir.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Alice", all[0].Name)

	matches, err := dir.Search(ctx, "EXAMPLE")
	require.NoError(t, err)
	assert.Len(t, matches, 2)

	matches, err = dir.Search(ctx, "char")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 3, matches[0].ID)

	matches, err = dir.Search(ctx, "100%")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir := filepath.Join("..", "..", "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(migrationsDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		if _, err := pool.Exec(ctx, string(contents)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func resetDatabase(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	conn, err := testPool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "TRUNCATE TABLE friends"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}
