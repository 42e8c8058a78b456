package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/profiledesk/apiserver/config"
	"github.com/profiledesk/apiserver/internal/db"
	"github.com/profiledesk/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTempRepository(t *testing.T) *AccountRepository {
	t.Helper()

	conn, err := db.Open(context.Background(), config.DatabaseConfig{
		Driver:     db.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "accounts.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.MigrateUp(conn, db.DriverSQLite))

	return NewAccountRepository(conn, db.DriverSQLite)
}

func TestRebind(t *testing.T) {
	pg := NewAccountRepository(nil, db.DriverPostgres)
	lite := NewAccountRepository(nil, db.DriverSQLite)

	query := `WHERE email = $1 OR username = $1 AND id = $12`
	assert.Equal(t, query, pg.rebind(query))
	assert.Equal(t, `WHERE email = ?1 OR username = ?1 AND id = ?12`, lite.rebind(query))
}

func TestCreateNormalizesAndAssignsID(t *testing.T) {
	repo := openTempRepository(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, types.Account{
		Username:     "  Alice ",
		Email:        "Alice@X.com",
		PasswordHash: "hash",
	})
	require.NoError(t, err)

	_, err = uuid.Parse(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", created.Username)
	assert.Equal(t, "alice@x.com", created.Email)
	assert.False(t, created.CreatedAt.IsZero())

	fetched, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "hash", fetched.PasswordHash)
	assert.WithinDuration(t, created.CreatedAt, fetched.CreatedAt, time.Millisecond)
}

func TestGetByIdentifierMatchesEmailOrUsername(t *testing.T) {
	repo := openTempRepository(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, types.Account{Username: "alice", Email: "alice@x.com", PasswordHash: "hash"})
	require.NoError(t, err)

	for _, identifier := range []string{"alice", "ALICE", "alice@x.com", " Alice@X.COM "} {
		got, err := repo.GetByIdentifier(ctx, identifier)
		require.NoError(t, err, identifier)
		assert.Equal(t, created.ID, got.ID, identifier)
	}

	_, err = repo.GetByIdentifier(ctx, "bob")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetByIDNotFound(t *testing.T) {
	repo := openTempRepository(t)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateDuplicateIsConflict(t *testing.T) {
	repo := openTempRepository(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, types.Account{Username: "alice", Email: "alice@x.com", PasswordHash: "hash"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, types.Account{Username: "other", Email: "ALICE@x.com", PasswordHash: "hash"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = repo.Create(ctx, types.Account{Username: "Alice", Email: "other@x.com", PasswordHash: "hash"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUpdate(t *testing.T) {
	repo := openTempRepository(t)
	ctx := context.Background()

	alice, err := repo.Create(ctx, types.Account{Username: "alice", Email: "alice@x.com", PasswordHash: "hash"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, types.Account{Username: "bob", Email: "bob@x.com", PasswordHash: "hash"})
	require.NoError(t, err)

	alice.Bio = "hello"
	alice.Avatar = "https://cdn.example.com/a.png"
	updated, err := repo.Update(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "hello", updated.Bio)

	fetched, err := repo.GetByEmail(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, "hello", fetched.Bio)
	assert.Equal(t, "https://cdn.example.com/a.png", fetched.Avatar)

	alice.Email = "bob@x.com"
	_, err = repo.Update(ctx, alice)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = repo.Update(ctx, types.Account{ID: uuid.NewString(), Username: "ghost", Email: "ghost@x.com"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetByUsername(t *testing.T) {
	repo := openTempRepository(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, types.Account{Username: "alice", Email: "alice@x.com", PasswordHash: "hash"})
	require.NoError(t, err)

	got, err := repo.GetByUsername(ctx, "Alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", got.Email)
}
