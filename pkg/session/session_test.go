package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/civic_mirror/pkg/authclient"
	"github.com/Skotchmaster/civic_mirror/pkg/db"
)

var (
	_ authclient.SessionStore = (*GormStore)(nil)
	_ authclient.SessionStore = (*RedisStore)(nil)
	_ authclient.SessionStore = (*authclient.MemoryStore)(nil)
)

// exerciseStore checks the contract every SessionStore must meet.
func exerciseStore(t *testing.T, store authclient.SessionStore) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx)
	require.ErrorIs(t, err, authclient.ErrNoSession)

	first := authclient.Session{AccessToken: "a1", RefreshToken: "r1", TokenType: "bearer"}
	require.NoError(t, store.Set(ctx, first))
	got, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	second := authclient.Session{AccessToken: "a2", RefreshToken: "r2", TokenType: "Bearer"}
	require.NoError(t, store.Set(ctx, second))
	got, err = store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, got)

	// a later set without a refresh token must not leave the old one behind
	third := authclient.Session{AccessToken: "a3", TokenType: "bearer"}
	require.NoError(t, store.Set(ctx, third))
	got, err = store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, third, got)

	require.NoError(t, store.Clear(ctx))
	_, err = store.Get(ctx)
	assert.ErrorIs(t, err, authclient.ErrNoSession)

	assert.ErrorIs(t, store.Set(ctx, authclient.Session{}), authclient.ErrEmptySession)
	_, err = store.Get(ctx)
	assert.ErrorIs(t, err, authclient.ErrNoSession)
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	exerciseStore(t, authclient.NewMemoryStore())
}

func TestGormStore(t *testing.T) {
	t.Parallel()

	gdb, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })

	store, err := NewGormStore(gdb, "test")
	require.NoError(t, err)
	exerciseStore(t, store)
}

func TestGormStore_ProfilesAreIsolatedAndPersist(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")

	gdb, err := db.OpenSQLite(path)
	require.NoError(t, err)

	work, err := NewGormStore(gdb, "work")
	require.NoError(t, err)
	home, err := NewGormStore(gdb, "home")
	require.NoError(t, err)

	require.NoError(t, work.Set(ctx, authclient.Session{AccessToken: "w", RefreshToken: "wr", TokenType: "bearer"}))
	_, err = home.Get(ctx)
	assert.ErrorIs(t, err, authclient.ErrNoSession)
	require.NoError(t, db.Close(gdb))

	reopened, err := db.OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(reopened) })

	again, err := NewGormStore(reopened, "work")
	require.NoError(t, err)
	got, err := again.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "wr", got.RefreshToken)
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL is not set")
	}
	ctx := context.Background()

	rdb, err := NewRedisClient(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	store := NewRedisStore(rdb, "test-"+uuid.NewString(), time.Minute)
	t.Cleanup(func() { _ = store.Clear(ctx) })
	exerciseStore(t, store)

	require.NoError(t, store.Set(ctx, authclient.Session{AccessToken: "a", TokenType: "bearer"}))
	ttl, err := rdb.TTL(ctx, store.key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
