// Package migration applies versioned SQL schema changes to a SQLite database.
//
// Migration files are named {version}_{description}.sql (for example
// "0001_initial_schema.sql") and are read from an fs.FS, usually an embedded
// directory. Applied versions are tracked in the schema_migrations table so
// each file runs exactly once, inside its own transaction.
//
// Example usage:
//
//	scanner := migration.NewFileScanner(migrationsFS)
//	executor := migration.NewSQLiteExecutor(db)
//	manager := migration.NewMigrationManager(scanner, executor, "migrations", logger)
//	if err := manager.RunMigrations(ctx); err != nil {
//		return err
//	}
package migration
