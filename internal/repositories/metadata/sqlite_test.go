package metadata

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
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

func TestSQLiteRepository(t *testing.T) {
	exerciseRepository(t, NewSQLiteRepository(setupDB(t)))
}

func TestSQLiteRepository_ClosedDBErrorsAreWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	require.NoError(t, db.Close())

	v, err := r.Get(ctx, "k")
	require.Nil(t, v)
	require.ErrorContains(t, err, "failed to get metadata[k]")
	require.ErrorContains(t, r.Clear(ctx), "failed to clear metadata")
	require.Error(t, r.SetMany(ctx, map[string][]byte{"k": []byte("v")}))
}

func TestSQLiteRepository_SetManyRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO metadata`).
		WithArgs("app_state", []byte("{}")).
		WillReturnError(errors.New("database is locked"))
	mock.ExpectRollback()

	err = NewSQLiteRepository(db).SetMany(context.Background(), map[string][]byte{"app_state": []byte("{}")})
	require.ErrorContains(t, err, "failed to set metadata[app_state]")
	require.NoError(t, mock.ExpectationsWereMet())
}
