package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"embed"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/dpshade/promptlib/internal/errors"
	"github.com/dpshade/promptlib/internal/migrate"
	"github.com/dpshade/promptlib/internal/models"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	migrationsDir = "migrations"
	dialect       = "sqlite3"
)

// Local is the embedded store holding the full prompt collection. The connection is a
// lazily opened singleton shared by every caller of the same Local.
type Local struct {
	path   string
	logger *slog.Logger

	mu     sync.Mutex
	db     *sql.DB
	latest int64

	connect singleflight.Group
}

// NewLocal creates a local store backed by the SQLite file at path. Nothing is opened
// until the first operation.
func NewLocal(path string, logger *slog.Logger) *Local {
	if logger == nil {
		logger = slog.Default()
	}
	return &Local{
		path:   path,
		logger: logger.With("component", "storage.local"),
	}
}

// Path returns the database file location
func (l *Local) Path() string {
	return l.path
}

// Connect returns the shared database handle, opening and migrating it on first use.
// Concurrent first callers share a single open attempt.
func (l *Local) Connect(ctx context.Context) (*sql.DB, error) {
	if db := l.current(); db != nil {
		return db, nil
	}

	v, err, _ := l.connect.Do("connect", func() (interface{}, error) {
		if db := l.current(); db != nil {
			return db, nil
		}
		db, latest, err := l.open(ctx)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.db = db
		l.latest = latest
		l.mu.Unlock()
		return db, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*sql.DB), nil
}

func (l *Local) current() *sql.DB {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.db
}

func (l *Local) open(ctx context.Context) (*sql.DB, int64, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return nil, 0, errors.StorageError("create database directory", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", l.path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, 0, errors.StorageError("open database", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, 0, errors.StorageError("open database", err)
	}

	latest, err := migrate.Latest(migrations, migrationsDir)
	if err != nil {
		_ = db.Close()
		return nil, 0, errors.StorageError("read schema", err)
	}

	have, err := migrate.Version(ctx, db, dialect)
	if err != nil {
		_ = db.Close()
		return nil, 0, errors.StorageError("read schema version", err)
	}
	if have > latest {
		_ = db.Close()
		return nil, 0, errors.VersionChangedError(have, latest)
	}

	version, err := migrate.Up(ctx, db, dialect, migrations, migrationsDir)
	if err != nil {
		_ = db.Close()
		return nil, 0, errors.StorageError("upgrade schema", err)
	}

	l.logger.Debug("database opened", "path", l.path, "schema_version", version)
	return db, latest, nil
}

// Invalidate drops the cached handle so the next operation re-opens the database.
func (l *Local) Invalidate() {
	l.mu.Lock()
	db := l.db
	l.db = nil
	l.mu.Unlock()

	if db != nil {
		_ = db.Close()
		l.logger.Warn("database connection dropped")
	}
}

// Close releases the connection. The store can be reused; it re-opens on demand.
func (l *Local) Close() error {
	l.mu.Lock()
	db := l.db
	l.db = nil
	l.mu.Unlock()

	if db == nil {
		return nil
	}
	return db.Close()
}

// SchemaVersion returns the applied schema version of the open database
func (l *Local) SchemaVersion(ctx context.Context) (int64, error) {
	db, err := l.Connect(ctx)
	if err != nil {
		return 0, err
	}
	version, err := migrate.Version(ctx, db, dialect)
	if err != nil {
		return 0, l.fail(db, "read schema version", err)
	}
	return version, nil
}

// GetAll returns the full collection in stored order. A store that was never written
// yields an empty slice.
func (l *Local) GetAll(ctx context.Context) ([]models.Prompt, error) {
	prompts := []models.Prompt{}

	err := l.inTx(ctx, "read prompts", func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT data FROM prompts ORDER BY position`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var data string
			if err := rows.Scan(&data); err != nil {
				return err
			}
			var p models.Prompt
			if err := json.Unmarshal([]byte(data), &p); err != nil {
				return fmt.Errorf("decode stored prompt: %w", err)
			}
			p.Normalize()
			prompts = append(prompts, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	l.logger.Debug("loaded prompts", "count", len(prompts))
	return prompts, nil
}

// ReplaceAll swaps the stored collection for prompts in a single transaction.
// When ids repeat, the later element wins.
func (l *Local) ReplaceAll(ctx context.Context, prompts []models.Prompt) error {
	err := l.inTx(ctx, "replace prompts", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM prompts`); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO prompts (id, position, data) VALUES (?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET position = excluded.position, data = excluded.data`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, p := range prompts {
			p.Normalize()
			data, err := json.Marshal(p)
			if err != nil {
				return fmt.Errorf("encode prompt %s: %w", p.ID, err)
			}
			if _, err := stmt.ExecContext(ctx, p.ID, i, string(data)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	l.logger.Debug("saved prompts", "count", len(prompts))
	return nil
}

// Clear empties the collection
func (l *Local) Clear(ctx context.Context) error {
	err := l.inTx(ctx, "clear prompts", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM prompts`)
		return err
	})
	if err != nil {
		return err
	}
	l.logger.Info("database cleared")
	return nil
}

// inTx runs fn in a transaction after confirming no newer process has upgraded the schema.
func (l *Local) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	db, err := l.Connect(ctx)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return l.fail(db, op, err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := l.checkVersion(ctx, tx); err != nil {
		l.dropIfCurrent(db)
		return err
	}

	if err := fn(tx); err != nil {
		return l.fail(db, op, err)
	}
	if err := tx.Commit(); err != nil {
		return l.fail(db, op, err)
	}
	return nil
}

func (l *Local) checkVersion(ctx context.Context, tx *sql.Tx) error {
	var have sql.NullInt64
	err := tx.QueryRowContext(ctx,
		`SELECT MAX(version_id) FROM goose_db_version WHERE is_applied`).Scan(&have)
	if err != nil {
		return errors.StorageError("read schema version", err)
	}

	l.mu.Lock()
	latest := l.latest
	l.mu.Unlock()

	if have.Valid && have.Int64 > latest {
		return errors.VersionChangedError(have.Int64, latest)
	}
	return nil
}

// fail classifies err and drops the handle when the connection itself is gone.
func (l *Local) fail(db *sql.DB, op string, err error) error {
	if isConnectionLost(err) {
		l.dropIfCurrent(db)
	}
	if isQuotaExceeded(err) {
		return errors.Wrap(err, errors.ErrCodeQuotaExceeded, fmt.Sprintf("Storage is full: %s", op))
	}
	return errors.StorageError(op, err)
}

func (l *Local) dropIfCurrent(db *sql.DB) {
	l.mu.Lock()
	if l.db != db {
		l.mu.Unlock()
		return
	}
	l.db = nil
	l.mu.Unlock()

	_ = db.Close()
	l.logger.Warn("database connection invalidated; it will be re-opened on next use")
}

func isConnectionLost(err error) bool {
	if stderrors.Is(err, sql.ErrConnDone) || stderrors.Is(err, driver.ErrBadConn) {
		return true
	}
	return strings.Contains(err.Error(), "database is closed")
}

func isQuotaExceeded(err error) bool {
	return strings.Contains(err.Error(), "database or disk is full")
}
