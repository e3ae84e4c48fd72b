package db

import (
	"context"
	"database/sql"
	"os"
	"testing"
)

// TestDSN returns the DSN used by integration tests, or "" when unset.
func TestDSN() string {
	return os.Getenv("TEST_DATABASE_URL")
}

// SetupTestDB opens the integration test database, skipping the test when
// TEST_DATABASE_URL is not set.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := TestDSN()
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	conn, err := Open(context.Background(), dsn)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// CleanupTestDB empties every application table.
func CleanupTestDB(t *testing.T, conn *sql.DB) {
	t.Helper()
	tables := []string{"team_stocks", "team_currencies", "team_startups", "teams", "companies", "currencies", "settings"}
	for _, table := range tables {
		if _, err := conn.Exec("DELETE FROM " + table); err != nil {
			t.Logf("Warning: Failed to cleanup table %s: %v", table, err)
		}
	}
}
