package metadata

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE metadata (
  key   TEXT PRIMARY KEY,
  value BLOB NOT NULL
);`)
	require.NoError(t, err)
	return db
}

func TestSetAndGet(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "k1", "v1"))
	v, err := r.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "v1", v)

	require.NoError(t, r.Set(ctx, "k1", "new"))
	v, err = r.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "new", v)
}

func TestGet_MissingKey(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	v, err := r.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestDelete_IsIdempotent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "x", "1"))
	require.NoError(t, r.Delete(ctx, "x"))

	v, err := r.Get(ctx, "x")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, r.Delete(ctx, "x"))
}

func TestSession_SaveLoadClear(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	s, err := r.LoadSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)

	want := Session{Email: "a@b.com", Salt: "c2FsdA==", Token: "tok"}
	require.NoError(t, r.SaveSession(ctx, want))

	got, err := r.LoadSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, *got)

	require.NoError(t, r.Clear(ctx))
	s, err = r.LoadSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestSaveSession_RollsBackOnError(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.SaveSession(ctx, Session{Email: "old@b.com", Salt: "old", Token: "old"}))

	_, err := db.Exec(`CREATE TRIGGER no_tokens BEFORE UPDATE ON metadata WHEN NEW.key = 'token'
BEGIN SELECT RAISE(ABORT, 'blocked'); END;`)
	require.NoError(t, err)

	err = r.SaveSession(ctx, Session{Email: "new@b.com", Salt: "new", Token: "new"})
	require.Error(t, err)

	got, err := r.LoadSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "old@b.com", got.Email)
	assert.Equal(t, "old", got.Salt)
}

func TestErrorsAreWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Close())

	_, err := r.Get(ctx, "k")
	assert.ErrorContains(t, err, "failed to get metadata[k]")
	assert.ErrorContains(t, r.Set(ctx, "k", "v"), "failed to set metadata[k]")
	assert.ErrorContains(t, r.Delete(ctx, "k"), "failed to delete metadata[k]")
	assert.ErrorContains(t, r.Clear(ctx), "failed to clear metadata")
	assert.Error(t, r.SaveSession(ctx, Session{}))
}
