package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Direction selects which half of each migration runs.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// MigrationFiles returns the embedded migration names for dir, in the order
// they must be applied.
func MigrationFiles(dir Direction) ([]string, error) {
	entries, err := fs.Glob(migrationFS, "migrations/*."+string(dir)+".sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(entries)
	if dir == Down {
		for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
			entries[i], entries[j] = entries[j], entries[i]
		}
	}
	return entries, nil
}

// Migrate applies the embedded migrations. Each file runs in its own
// transaction; report is called after every applied file.
func (db *DB) Migrate(ctx context.Context, dir Direction, report func(name string)) error {
	files, err := MigrationFiles(dir)
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	for _, f := range files {
		data, err := migrationFS.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}
		tx, err := db.Pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin %s: %w", f, err)
		}
		if _, err := tx.Exec(ctx, string(data)); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("exec %s: %w", f, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit %s: %w", f, err)
		}
		if report != nil {
			report(strings.TrimPrefix(f, "migrations/"))
		}
	}
	return nil
}
