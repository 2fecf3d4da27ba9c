package migration

import (
	"errors"
	"fmt"
)

var (
	// ErrMigrationFailed indicates that a migration could not be executed.
	ErrMigrationFailed = errors.New("migration execution failed")
	// ErrInvalidMigrationFile indicates a malformed file name or empty file.
	ErrInvalidMigrationFile = errors.New("invalid migration file format")
	// ErrDuplicateVersion indicates that two files share a version.
	ErrDuplicateVersion = errors.New("duplicate migration version")
	// ErrVersionConflict indicates an applied version has no matching file.
	ErrVersionConflict = errors.New("migration version conflict")
	// ErrChecksumMismatch indicates an applied file was edited afterwards.
	ErrChecksumMismatch = errors.New("migration checksum mismatch")
)

// MigrationError adds the version and file to a migration failure.
type MigrationError struct {
	Version   string
	FilePath  string
	Operation string
	Err       error
}

func (e *MigrationError) Error() string {
	if e.Version != "" {
		return fmt.Sprintf("migration %s (%s): %s: %v", e.Version, e.FilePath, e.Operation, e.Err)
	}
	return fmt.Sprintf("migration (%s): %s: %v", e.FilePath, e.Operation, e.Err)
}

func (e *MigrationError) Unwrap() error { return e.Err }

// NewMigrationError creates a MigrationError.
func NewMigrationError(version, filePath, operation string, err error) *MigrationError {
	return &MigrationError{Version: version, FilePath: filePath, Operation: operation, Err: err}
}

// FileSystemError wraps failures to read migration sources.
type FileSystemError struct {
	Path      string
	Operation string
	Err       error
}

func (e *FileSystemError) Error() string {
	return fmt.Sprintf("filesystem error during %s of %s: %v", e.Operation, e.Path, e.Err)
}

func (e *FileSystemError) Unwrap() error { return e.Err }

// NewFileSystemError creates a FileSystemError.
func NewFileSystemError(path, operation string, err error) *FileSystemError {
	return &FileSystemError{Path: path, Operation: operation, Err: err}
}

// DatabaseError wraps a failed statement.
type DatabaseError struct {
	Version   string
	Query     string
	Operation string
	Err       error
}

func (e *DatabaseError) Error() string {
	if e.Version != "" {
		return fmt.Sprintf("database error in migration %s during %s: %v", e.Version, e.Operation, e.Err)
	}
	return fmt.Sprintf("database error during %s: %v", e.Operation, e.Err)
}

func (e *DatabaseError) Unwrap() error { return e.Err }

// NewDatabaseError creates a DatabaseError.
func NewDatabaseError(version, query, operation string, err error) *DatabaseError {
	return &DatabaseError{Version: version, Query: query, Operation: operation, Err: err}
}
