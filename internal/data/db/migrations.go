package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migration is one schema version, loaded from a NNNN_name.up.sql and
// NNNN_name.down.sql pair.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
	DownSQL string
}

// loadMigrations reads the embedded migrations in ascending version order.
// Every version must have exactly one up and one down file.
func loadMigrations() ([]Migration, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory: %w", err)
	}

	byVersion := make(map[int]*Migration)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fname := entry.Name()

		version, name, direction, err := parseFilename(fname)
		if err != nil {
			return nil, fmt.Errorf("invalid migration filename %q: %w", fname, err)
		}

		content, err := fs.ReadFile(migrationsFS, "migrations/"+fname)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", fname, err)
		}

		m, ok := byVersion[version]
		if !ok {
			m = &Migration{Version: version, Name: name}
			byVersion[version] = m
		}

		target := &m.UpSQL
		if direction == "down" {
			target = &m.DownSQL
		}
		if *target != "" {
			return nil, fmt.Errorf("duplicate %s migration for version %04d", direction, version)
		}
		*target = string(content)
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, version := range slices.Sorted(maps.Keys(byVersion)) {
		m := byVersion[version]
		switch {
		case m.UpSQL == "":
			return nil, fmt.Errorf("migration %04d has down file but no up file", version)
		case m.DownSQL == "":
			return nil, fmt.Errorf("migration %04d has up file but no down file", version)
		}
		migrations = append(migrations, *m)
	}

	return migrations, nil
}

// parseFilename splits "NNNN_name.up.sql" or "NNNN_name.down.sql" into
// version, name and direction.
func parseFilename(filename string) (int, string, string, error) {
	base, direction := "", ""
	for _, d := range []string{"up", "down"} {
		if trimmed, ok := strings.CutSuffix(filename, "."+d+".sql"); ok {
			base, direction = trimmed, d
			break
		}
	}
	if direction == "" {
		return 0, "", "", fmt.Errorf("expected .up.sql or .down.sql suffix, got %q", filename)
	}

	num, name, ok := strings.Cut(base, "_")
	if !ok || name == "" {
		return 0, "", "", fmt.Errorf("expected format NNNN_name.{up,down}.sql")
	}

	version, err := strconv.Atoi(num)
	if err != nil {
		return 0, "", "", fmt.Errorf("version %q is not a valid integer: %w", num, err)
	}
	if version <= 0 {
		return 0, "", "", fmt.Errorf("version must be positive, got %d", version)
	}

	return version, name, direction, nil
}

// migrateUp applies every pending migration in version order.
func migrateUp(ctx context.Context, conn *sqlx.DB) error {
	migrations, applied, err := migrationState(ctx, conn)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}

		log.Debug().Int("version", m.Version).Str("name", m.Name).Msg("applying migration")
		err := runMigration(ctx, conn, m.UpSQL,
			"INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)",
			m.Version, m.Name, time.Now().UnixNano())
		if err != nil {
			return fmt.Errorf("migration %04d (%s): %w", m.Version, m.Name, err)
		}
	}

	return nil
}

// Rollback reverts the last n applied migrations, newest first.
func (db *DB) Rollback(ctx context.Context, n int) error {
	if n <= 0 {
		return fmt.Errorf("n must be positive, got %d", n)
	}

	migrations, applied, err := migrationState(ctx, db.conn)
	if err != nil {
		return err
	}

	var toRevert []Migration
	for _, m := range slices.Backward(migrations) {
		if applied[m.Version] {
			toRevert = append(toRevert, m)
		}
	}
	if n > len(toRevert) {
		return fmt.Errorf("requested %d down migrations but only %d are applied", n, len(toRevert))
	}

	for _, m := range toRevert[:n] {
		log.Info().Int("version", m.Version).Str("name", m.Name).Msg("reverting migration")
		err := runMigration(ctx, db.conn, m.DownSQL, "DELETE FROM schema_migrations WHERE version = ?", m.Version)
		if err != nil {
			return fmt.Errorf("revert migration %04d (%s): %w", m.Version, m.Name, err)
		}
	}

	return nil
}

// migrationState loads the embedded migrations and the set of applied
// versions, creating the tracking table when missing.
func migrationState(ctx context.Context, conn *sqlx.DB) ([]Migration, map[int]bool, error) {
	migrations, err := loadMigrations()
	if err != nil {
		return nil, nil, fmt.Errorf("loading migrations: %w", err)
	}

	_, err = conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var versions []int
	if err := conn.SelectContext(ctx, &versions, "SELECT version FROM schema_migrations"); err != nil {
		return nil, nil, fmt.Errorf("querying applied versions: %w", err)
	}

	applied := make(map[int]bool, len(versions))
	for _, v := range versions {
		applied[v] = true
	}
	return migrations, applied, nil
}

// runMigration executes the migration SQL and the bookkeeping statement in
// one transaction.
func runMigration(ctx context.Context, conn *sqlx.DB, migrationSQL, record string, args ...any) error {
	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, migrationSQL); err != nil {
		return fmt.Errorf("executing SQL: %w", err)
	}
	if _, err := tx.ExecContext(ctx, record, args...); err != nil {
		return fmt.Errorf("recording migration: %w", err)
	}

	return tx.Commit()
}

// CurrentVersion returns the highest applied migration version, or 0.
func (db *DB) CurrentVersion(ctx context.Context) (int, error) {
	var v int
	if err := db.conn.GetContext(ctx, &v, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations"); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

