package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/isdelr/routines-api/internal/database"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// newTestDB opens a migrated SQLite database in a temp dir.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(database.DriverSQLite, filepath.Join(t.TempDir(), "services.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, database.DriverSQLite))
	return db
}

func newTestUserService(db *sql.DB) *UserService {
	return NewUserService(db, database.DriverSQLite, bcrypt.MinCost)
}

func insertRoutine(t *testing.T, db *sql.DB, creatorID int64, isPublic bool, name, goal string) {
	t.Helper()
	_, err := db.Exec(
		"INSERT INTO routines (creator_id, is_public, name, goal) VALUES (?, ?, ?, ?)",
		creatorID, isPublic, name, goal)
	require.NoError(t, err)
}
