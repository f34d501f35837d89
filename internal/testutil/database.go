// Package testutil provides stores for tests that need a real database.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mohammadpnp/person-registry/internal/infrastructure/db"
)

// DiscardLogger drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewSQLiteGateway opens a gateway on a fresh SQLite file in t.TempDir with
// foreign keys enforced and the schema in place. It is closed on cleanup.
func NewSQLiteGateway(t *testing.T, opts db.Options) *db.Gateway {
	t.Helper()

	dsn := fmt.Sprintf(
		"file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate",
		filepath.Join(t.TempDir(), "registry.db"),
	)
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	if opts.Logger == nil {
		opts.Logger = DiscardLogger()
	}

	gateway, err := db.New(&sqlite.Dialector{DriverName: "sqlite", Conn: sqlDB}, opts)
	if err != nil {
		sqlDB.Close()
		t.Fatalf("failed to create gateway: %v", err)
	}
	t.Cleanup(func() { _ = gateway.Close() })

	if err := gateway.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("failed to ensure schema: %v", err)
	}
	return gateway
}
