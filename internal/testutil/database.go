package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	_ "github.com/go-sql-driver/mysql"

	"almoxarife/internal/infrastructure/mysql"
)

const defaultTestDSN = "root:@tcp(localhost:3306)/almoxarife_test?parseTime=true&loc=UTC&clientFoundRows=true"

// SetupTestDB opens the MySQL test database and applies the migrations.
// The DSN comes from ALMOXARIFE_TEST_DSN; the test is skipped when the
// database cannot be reached.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("ALMOXARIFE_TEST_DSN")
	if dsn == "" {
		dsn = defaultTestDSN
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("test database not available: %v", err)
	}

	if err := mysql.Migrate(context.Background(), db); err != nil {
		db.Close()
		t.Fatalf("failed to migrate test database: %v", err)
	}

	CleanTables(t, db)
	t.Cleanup(func() {
		CleanTables(t, db)
		db.Close()
	})
	return db
}

// CleanTables empties every table, children first.
func CleanTables(t *testing.T, db *sql.DB) {
	t.Helper()

	tables := []string{"OrderItems", "Orders", "OrderSequences", "Notifications", "Products"}
	for _, table := range tables {
		if _, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}
