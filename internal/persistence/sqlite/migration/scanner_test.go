package migration

import (
	"errors"
	"testing"
	"testing/fstest"
)

func TestFileScanner_ScanMigrationsSortsNumerically(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/10_later.sql":         {Data: []byte("CREATE TABLE later (id INTEGER);")},
		"migrations/2_second.sql":         {Data: []byte("-- Description: second step\nCREATE TABLE second (id INTEGER);")},
		"migrations/0001_first.sql":       {Data: []byte("CREATE TABLE first (id INTEGER);")},
		"migrations/README.md":            {Data: []byte("ignored")},
		"migrations/nested/0003_skip.sql": {Data: []byte("CREATE TABLE skip (id INTEGER);")},
	}

	migrations, err := NewFileScanner(fsys).ScanMigrations("migrations")
	if err != nil {
		t.Fatalf("ScanMigrations failed: %v", err)
	}

	var versions []string
	for _, m := range migrations {
		versions = append(versions, m.Version)
	}
	if len(versions) != 3 || versions[0] != "0001" || versions[1] != "2" || versions[2] != "10" {
		t.Fatalf("unexpected order: %v", versions)
	}
	if migrations[0].Description != "first" {
		t.Fatalf("expected description from file name, got %q", migrations[0].Description)
	}
	if migrations[1].Description != "second step" {
		t.Fatalf("expected description from header comment, got %q", migrations[1].Description)
	}
	if len(migrations[0].Checksum) != 64 {
		t.Fatalf("expected sha256 hex checksum, got %q", migrations[0].Checksum)
	}
}

func TestFileScanner_DuplicateVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"m/001_a.sql": {Data: []byte("CREATE TABLE a (id INTEGER);")},
		"m/1_b.sql":   {Data: []byte("CREATE TABLE b (id INTEGER);")},
	}

	_, err := NewFileScanner(fsys).ScanMigrations("m")
	if !errors.Is(err, ErrDuplicateVersion) {
		t.Fatalf("expected ErrDuplicateVersion, got %v", err)
	}
}

func TestFileScanner_InvalidFiles(t *testing.T) {
	t.Run("bad name", func(t *testing.T) {
		fsys := fstest.MapFS{"m/initial.sql": {Data: []byte("SELECT 1;")}}
		_, err := NewFileScanner(fsys).ScanMigrations("m")
		if !errors.Is(err, ErrInvalidMigrationFile) {
			t.Fatalf("expected ErrInvalidMigrationFile, got %v", err)
		}
	})

	t.Run("comments only", func(t *testing.T) {
		fsys := fstest.MapFS{"m/0001_empty.sql": {Data: []byte("-- nothing here\n")}}
		_, err := NewFileScanner(fsys).ScanMigrations("m")
		if !errors.Is(err, ErrInvalidMigrationFile) {
			t.Fatalf("expected ErrInvalidMigrationFile, got %v", err)
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := NewFileScanner(fstest.MapFS{}).ScanMigrations("absent")
		var fsErr *FileSystemError
		if !errors.As(err, &fsErr) {
			t.Fatalf("expected FileSystemError, got %v", err)
		}
	})
}

func TestSplitStatements(t *testing.T) {
	statements := splitStatements("-- header\nCREATE TABLE a (id INTEGER);\n\n-- comment\nCREATE INDEX i ON a (id);\n")
	if len(statements) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(statements), statements)
	}
	if statements[1] != "CREATE INDEX i ON a (id)" {
		t.Fatalf("unexpected statement: %q", statements[1])
	}
}
