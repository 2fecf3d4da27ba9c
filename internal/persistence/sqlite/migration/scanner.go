package migration

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var migrationFilePattern = regexp.MustCompile(`^(\d+)_([a-zA-Z0-9_-]+)\.sql$`)

type fileScanner struct {
	fsys fs.FS
}

// NewFileScanner returns a FileScanner reading from fsys.
func NewFileScanner(fsys fs.FS) FileScanner {
	return &fileScanner{fsys: fsys}
}

// ScanMigrations returns the migrations in dir sorted by numeric version.
func (s *fileScanner) ScanMigrations(dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(s.fsys, dir)
	if err != nil {
		return nil, NewFileSystemError(dir, "read directory", err)
	}

	var migrations []Migration
	seen := make(map[int]string)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		migration, err := s.ParseMigrationFile(path.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}

		version, _ := strconv.Atoi(migration.Version)
		if existing, ok := seen[version]; ok {
			return nil, NewMigrationError(migration.Version, entry.Name(), "check duplicates",
				fmt.Errorf("%w: %s and %s", ErrDuplicateVersion, existing, entry.Name()))
		}
		seen[version] = entry.Name()
		migrations = append(migrations, *migration)
	}

	sort.Slice(migrations, func(i, j int) bool {
		vi, _ := strconv.Atoi(migrations[i].Version)
		vj, _ := strconv.Atoi(migrations[j].Version)
		return vi < vj
	})
	return migrations, nil
}

// ValidateFileName checks the {version}_{description}.sql convention.
func (s *fileScanner) ValidateFileName(filename string) error {
	if !migrationFilePattern.MatchString(filename) {
		return fmt.Errorf("%w: filename %q does not match pattern '{version}_{description}.sql'",
			ErrInvalidMigrationFile, filename)
	}
	return nil
}

// ParseMigrationFile reads a single migration file.
func (s *fileScanner) ParseMigrationFile(filePath string) (*Migration, error) {
	filename := path.Base(filePath)
	if err := s.ValidateFileName(filename); err != nil {
		return nil, NewMigrationError("", filePath, "validate filename", err)
	}
	matches := migrationFilePattern.FindStringSubmatch(filename)
	version := matches[1]

	content, err := fs.ReadFile(s.fsys, filePath)
	if err != nil {
		return nil, NewFileSystemError(filePath, "read file", err)
	}
	sqlContent := string(content)
	if len(splitStatements(sqlContent)) == 0 {
		return nil, NewMigrationError(version, filePath, "validate content",
			fmt.Errorf("%w: no SQL statements", ErrInvalidMigrationFile))
	}

	description := descriptionFromContent(sqlContent)
	if description == "" {
		description = strings.ReplaceAll(matches[2], "_", " ")
	}

	sum := sha256.Sum256(content)
	return &Migration{
		Version:     version,
		Description: description,
		SQL:         sqlContent,
		FilePath:    filePath,
		Checksum:    hex.EncodeToString(sum[:]),
	}, nil
}

// descriptionFromContent returns the text of a leading "-- Description:" comment.
func descriptionFromContent(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "--") {
			return ""
		}
		comment := strings.TrimSpace(strings.TrimPrefix(line, "--"))
		if rest, ok := strings.CutPrefix(comment, "Description:"); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}

// splitStatements splits SQL on semicolons and drops comment-only fragments.
// Migration files must not contain semicolons inside string literals or
// trigger bodies.
func splitStatements(content string) []string {
	var statements []string
	for _, raw := range strings.Split(content, ";") {
		var lines []string
		for _, line := range strings.Split(raw, "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "--") {
				continue
			}
			lines = append(lines, trimmed)
		}
		if len(lines) > 0 {
			statements = append(statements, strings.Join(lines, "\n"))
		}
	}
	return statements
}
