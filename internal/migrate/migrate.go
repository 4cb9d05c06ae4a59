// Package migrate applies embedded goose migrations to the local and remote databases.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sync"

	"github.com/pressly/goose/v3"
)

// goose keeps its base FS and dialect in package globals; mu serializes every use.
var mu sync.Mutex

// Up applies all pending migrations found in dir of fsys and returns the resulting version.
func Up(ctx context.Context, db *sql.DB, dialect string, fsys fs.FS, dir string) (int64, error) {
	mu.Lock()
	defer mu.Unlock()

	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(dialect); err != nil {
		return 0, fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, dir); err != nil {
		return 0, fmt.Errorf("run migrations: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("get version: %w", err)
	}
	return version, nil
}

// Version returns the current migration version recorded in db.
func Version(ctx context.Context, db *sql.DB, dialect string) (int64, error) {
	mu.Lock()
	defer mu.Unlock()

	if err := goose.SetDialect(dialect); err != nil {
		return 0, fmt.Errorf("set dialect: %w", err)
	}
	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("get version: %w", err)
	}
	return version, nil
}

// Latest returns the highest migration version available in dir of fsys.
func Latest(fsys fs.FS, dir string) (int64, error) {
	mu.Lock()
	defer mu.Unlock()

	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)

	migrations, err := goose.CollectMigrations(dir, 0, goose.MaxVersion)
	if err != nil {
		return 0, fmt.Errorf("collect migrations: %w", err)
	}
	last, err := migrations.Last()
	if err != nil {
		return 0, fmt.Errorf("last migration: %w", err)
	}
	return last.Version, nil
}
