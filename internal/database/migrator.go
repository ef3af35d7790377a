package database

import (
	"context"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/juju/errors"
	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("console.database")

// Migrator applies the .sql files of a filesystem in name order, once each.
type Migrator struct {
	pool *pgxpool.Pool
	fsys fs.FS
}

// NewMigrator creates a migration runner over the migrations in fsys.
func NewMigrator(pool *pgxpool.Pool, fsys fs.FS) *Migrator {
	return &Migrator{pool: pool, fsys: fsys}
}

// RunMigrations executes all pending database migrations. Files whose name
// contains "reset" are never run.
func (m *Migrator) RunMigrations(ctx context.Context) error {
	logger.Infof("[Migrations] Starting database migrations...")

	if err := m.createMigrationsTable(ctx); err != nil {
		return errors.Annotate(err, "failed to create migrations table")
	}

	applied, err := m.getAppliedMigrations(ctx)
	if err != nil {
		return errors.Annotate(err, "failed to get applied migrations")
	}

	files, err := MigrationFiles(m.fsys)
	if err != nil {
		return errors.Trace(err)
	}

	run := 0
	for _, filename := range files {
		if applied[filename] {
			logger.Debugf("[Migrations] Already applied: %s", filename)
			continue
		}

		content, err := fs.ReadFile(m.fsys, filename)
		if err != nil {
			return errors.Annotatef(err, "failed to read migration %s", filename)
		}

		logger.Infof("[Migrations] Running: %s", filename)
		if _, err := m.pool.Exec(ctx, string(content)); err != nil {
			return errors.Annotatef(err, "failed to run migration %s", filename)
		}
		if err := m.recordMigration(ctx, filename); err != nil {
			return errors.Annotatef(err, "failed to record migration %s", filename)
		}
		run++
	}

	if run > 0 {
		logger.Infof("[Migrations] Successfully ran %d new migration(s)", run)
	} else {
		logger.Infof("[Migrations] All migrations already applied")
	}
	return nil
}

// MigrationFiles lists the runnable migrations of fsys in execution order.
func MigrationFiles(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, errors.Annotate(err, "failed to read migrations directory")
	}
	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		if strings.Contains(name, "reset") {
			logger.Infof("[Migrations] Skipping: %s (reset script)", name)
			continue
		}
		files = append(files, name)
	}
	sort.Strings(files)
	return files, nil
}

func (m *Migrator) createMigrationsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id SERIAL PRIMARY KEY,
			filename VARCHAR(255) UNIQUE NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`
	_, err := m.pool.Exec(ctx, query)
	return err
}

func (m *Migrator) getAppliedMigrations(ctx context.Context) (map[string]bool, error) {
	applied := make(map[string]bool)

	rows, err := m.pool.Query(ctx, "SELECT filename FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var filename string
		if err := rows.Scan(&filename); err != nil {
			return nil, err
		}
		applied[filename] = true
	}
	return applied, rows.Err()
}

func (m *Migrator) recordMigration(ctx context.Context, filename string) error {
	query := `
		INSERT INTO schema_migrations (filename)
		VALUES ($1)
		ON CONFLICT (filename) DO NOTHING
	`
	_, err := m.pool.Exec(ctx, query, filename)
	return err
}
