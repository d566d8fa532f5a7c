// Package tests holds the database-backed integration and end-to-end tests.
// Every test skips unless DATABASE_URL points at a disposable database.
package tests

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/quillpost/server/internal/db"
)

// tables lists every application table, children before parents.
var tables = []string{
	"files",
	"blog_comments",
	"blog_bookmarks",
	"blog_likes",
	"blog_categories",
	"blogs",
	"categories",
	"profiles",
	"otps",
	"users",
}

// OpenTestDB connects to DATABASE_URL and applies the embedded migrations.
// It skips the test when DATABASE_URL is unset.
func OpenTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}

	database, err := db.Open(context.Background(), dsn, zaptest.NewLogger(t))
	require.NoError(t, err, "database open must succeed; check DATABASE_URL and that test DB exists")
	t.Cleanup(func() { database.Close() })

	require.NoError(t, db.Migrate(database.DB), "migrations must run successfully")
	return database
}

// TruncateTables empties every application table for a clean test state.
func TruncateTables(ctx context.Context, database *sqlx.DB) error {
	query := "TRUNCATE TABLE "
	for i, name := range tables {
		if i > 0 {
			query += ", "
		}
		query += name
	}
	if _, err := database.ExecContext(ctx, query+" RESTART IDENTITY CASCADE"); err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}
