// Package databasetest provides migrated in-memory SQLite databases for
// tests.
package databasetest

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/ovaphlow/pitchfork/service-results-go/pkg/database"
)

// NewSQLite returns a fresh, fully migrated in-memory database that is
// closed when the test ends.
func NewSQLite(t testing.TB) *sqlx.DB {
	t.Helper()
	db, err := database.Connect(database.Config{
		Driver: database.DriverSQLite,
		DSN:    "file::memory:?_foreign_keys=on",
	})
	if err != nil {
		t.Fatalf("connect sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := database.Migrate(context.Background(), db, database.DriverSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return sqlx.NewDb(db, database.DriverSQLite)
}
