package migration

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
)

func openTestDB(t *testing.T) *SQLiteExecutor {
	t.Helper()
	db, err := Open(context.Background(), InMemoryTestSQLiteConfig())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLiteExecutor(db)
}

func TestMigrationManager_RunMigrations(t *testing.T) {
	ctx := context.Background()
	executor := openTestDB(t)
	fsys := fstest.MapFS{
		"m/0001_rooms.sql": {Data: []byte("CREATE TABLE rooms (id INTEGER PRIMARY KEY, name TEXT);")},
		"m/0002_seats.sql": {Data: []byte("ALTER TABLE rooms ADD COLUMN seats INTEGER;\nCREATE INDEX idx_rooms_name ON rooms (name);")},
	}
	manager := NewMigrationManager(NewFileScanner(fsys), executor, "m", nil)

	if err := manager.RunMigrations(ctx); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}

	status, err := manager.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatalf("GetMigrationStatus failed: %v", err)
	}
	if status.CurrentVersion != "0002" || status.PendingCount != 0 || len(status.AppliedMigrations) != 2 {
		t.Fatalf("unexpected status: %+v", status)
	}

	if _, err := executor.db.ExecContext(ctx, `INSERT INTO rooms (name, seats) VALUES ('A', 4)`); err != nil {
		t.Fatalf("schema was not applied: %v", err)
	}

	if err := manager.RunMigrations(ctx); err != nil {
		t.Fatalf("second RunMigrations failed: %v", err)
	}
}

func TestMigrationManager_FailedMigrationRollsBack(t *testing.T) {
	ctx := context.Background()
	executor := openTestDB(t)
	fsys := fstest.MapFS{
		"m/0001_broken.sql": {Data: []byte("CREATE TABLE ok (id INTEGER);\nCREATE TABLE ok (id INTEGER);")},
	}
	manager := NewMigrationManager(NewFileScanner(fsys), executor, "m", nil)

	err := manager.RunMigrations(ctx)
	if !errors.Is(err, ErrMigrationFailed) {
		t.Fatalf("expected ErrMigrationFailed, got %v", err)
	}

	var count int
	if err := executor.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'ok'`).Scan(&count); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if count != 0 {
		t.Fatal("expected the partial migration to be rolled back")
	}

	pending, err := manager.GetPendingMigrations(ctx)
	if err != nil {
		t.Fatalf("GetPendingMigrations failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected the failed migration to stay pending, got %d", len(pending))
	}
}

func TestMigrationManager_ChecksumMismatch(t *testing.T) {
	ctx := context.Background()
	executor := openTestDB(t)

	original := fstest.MapFS{"m/0001_init.sql": {Data: []byte("CREATE TABLE a (id INTEGER);")}}
	if err := NewMigrationManager(NewFileScanner(original), executor, "m", nil).RunMigrations(ctx); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}

	edited := fstest.MapFS{"m/0001_init.sql": {Data: []byte("CREATE TABLE a (id INTEGER, name TEXT);")}}
	_, err := NewMigrationManager(NewFileScanner(edited), executor, "m", nil).GetPendingMigrations(ctx)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("expected ErrChecksumMismatch, got %v", err)
	}

	_, err = NewMigrationManager(NewFileScanner(fstest.MapFS{"m/0002_other.sql": {Data: []byte("SELECT 1;")}}), executor, "m", nil).GetPendingMigrations(ctx)
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict for missing file, got %v", err)
	}
}

func TestSQLiteConfig_Validate(t *testing.T) {
	cases := map[string]SQLiteConfig{
		"empty dsn":     {},
		"journal mode":  {DSN: "x.db", JournalMode: "FAST"},
		"synchronous":   {DSN: "x.db", Synchronous: "SOMETIMES"},
		"negative pool": {DSN: "x.db", MaxOpenConns: -1},
		"negative busy": {DSN: "x.db", BusyTimeout: -1},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	if err := DefaultSQLiteConfig("data/roombook.db").Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if !InMemoryTestSQLiteConfig().IsInMemory() {
		t.Fatal("expected in-memory config to report IsInMemory")
	}
}
