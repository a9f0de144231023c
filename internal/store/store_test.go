package store_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/divelog/internal/store"
	"github.com/kiranshivaraju/divelog/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// migrationsDir returns the absolute path to the migrations directory.
func migrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "migrations")
}

// setupTestDB spins up a Postgres container, runs migrations, and returns a pool + cleanup.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("divelog_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Run migrations twice; the second run must be a no-op.
	require.NoError(t, store.RunMigrations(connStr, migrationsDir()))
	require.NoError(t, store.RunMigrations(connStr, migrationsDir()))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	return pool
}

func newKey(userID uuid.UUID, prefix string) *models.APIKey {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.APIKey{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      "test-key",
		KeyHash:   "bcrypt-hash-here",
		KeyPrefix: prefix,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// --- API Key Tests ---

func TestAPIKey_CreateAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	key := newKey(uuid.New(), "dl_abcde")
	require.NoError(t, s.CreateAPIKey(ctx, key))

	keys, err := s.GetAPIKeyByPrefix(ctx, "dl_abcde")
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, key.ID, keys[0].ID)
	assert.Equal(t, key.UserID, keys[0].UserID)
	assert.Nil(t, keys[0].LastUsedAt)

	require.NoError(t, s.UpdateAPIKeyLastUsed(ctx, key.ID))
	keys, err = s.GetAPIKeyByPrefix(ctx, "dl_abcde")
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.NotNil(t, keys[0].LastUsedAt)
}

func TestAPIKey_DuplicateID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	key := newKey(uuid.New(), "dl_dupli")
	require.NoError(t, s.CreateAPIKey(ctx, key))
	assert.ErrorIs(t, s.CreateAPIKey(ctx, key), store.ErrDuplicateKey)
}

func TestAPIKey_ListAndRevoke(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	userID := uuid.New()

	first := newKey(userID, "dl_first")
	second := newKey(userID, "dl_secnd")
	other := newKey(uuid.New(), "dl_other")
	for _, k := range []*models.APIKey{first, second, other} {
		require.NoError(t, s.CreateAPIKey(ctx, k))
	}

	keys, err := s.ListAPIKeys(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	// Another user cannot revoke this key.
	assert.ErrorIs(t, s.RevokeAPIKey(ctx, first.ID, other.UserID), store.ErrNotFound)

	require.NoError(t, s.RevokeAPIKey(ctx, first.ID, userID))
	assert.ErrorIs(t, s.RevokeAPIKey(ctx, first.ID, userID), store.ErrNotFound)

	found, err := s.GetAPIKeyByPrefix(ctx, "dl_first")
	require.NoError(t, err)
	assert.Empty(t, found)

	keys, err = s.ListAPIKeys(ctx, userID)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, second.ID, keys[0].ID)
}

// --- Dive Insight Tests ---

func TestDiveInsight_NotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	_, err := s.GetDiveInsight(context.Background(), uuid.New(), "dive-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDiveInsight_NullColumnIsNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	userID := uuid.New()

	_, err := pool.Exec(ctx, `INSERT INTO dives (user_id, dive_id) VALUES ($1, $2)`, userID, "dive-1")
	require.NoError(t, err)

	_, err = s.GetDiveInsight(ctx, userID, "dive-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDiveInsight_SaveOverwritesAndIsScopedToUser(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, s.SaveDiveInsight(ctx, userID, "dive-1", []byte(`{"fingerprint":"aaa","version":"v1"}`)))
	require.NoError(t, s.SaveDiveInsight(ctx, userID, "dive-1", []byte(`{"fingerprint":"bbb","version":"v1"}`)))

	raw, err := s.GetDiveInsight(ctx, userID, "dive-1")
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "bbb", got["fingerprint"])

	_, err = s.GetDiveInsight(ctx, uuid.New(), "dive-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
