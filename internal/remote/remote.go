// Package remote mirrors the prompt collection into a hosted PostgreSQL table.
//
// The mirror is optional. A Client without configuration answers every data call with a
// REMOTE_NOT_CONFIGURED error so callers can fall back to local data. Configuration is a
// single endpoint plus credential, persisted as a local setting and restored eagerly at
// start-up.
package remote

import (
	"context"
	"embed"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/dpshade/promptlib/internal/errors"
	"github.com/dpshade/promptlib/internal/migrate"
	"github.com/dpshade/promptlib/internal/models"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SettingKey is the settings key holding the persisted Config
const SettingKey = "remote"

// Config is the remote connection: a PostgreSQL connection URL and the credential used
// as its password.
type Config struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// SettingsStore persists the remote configuration between runs
type SettingsStore interface {
	Get(key string, out interface{}) (bool, error)
	Set(key string, value interface{}) error
	Delete(key string) error
}

// Options tunes network behaviour
type Options struct {
	RetryAttempts uint
	RetryDelay    time.Duration
	ChunkSize     int
	// Timeout bounds connecting and every single query attempt
	Timeout time.Duration
}

// DefaultOptions returns the options used when none are configured
func DefaultOptions() Options {
	return Options{
		RetryAttempts: 3,
		RetryDelay:    500 * time.Millisecond,
		ChunkSize:     100,
		Timeout:       10 * time.Second,
	}
}

// Client is the remote store adapter. At most one configuration is active at a time.
type Client struct {
	settings SettingsStore
	opts     Options
	logger   *slog.Logger

	// exec runs one upsert chunk
	exec execFunc

	mu   sync.RWMutex
	pool *pgxpool.Pool
	cfg  *Config
}

type execFunc func(ctx context.Context, pool *pgxpool.Pool, sql string, args ...any) error

func poolExec(ctx context.Context, pool *pgxpool.Pool, sql string, args ...any) error {
	_, err := pool.Exec(ctx, sql, args...)
	return err
}

// NewClient creates an unconfigured client
func NewClient(settings SettingsStore, opts Options, logger *slog.Logger) *Client {
	defaults := DefaultOptions()
	if opts.RetryAttempts == 0 {
		opts.RetryAttempts = defaults.RetryAttempts
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = defaults.ChunkSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaults.Timeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		settings: settings,
		opts:     opts,
		exec:     poolExec,
		logger:   logger.With("component", "remote"),
	}
}

// Configure validates the endpoint and credential, builds a new client and persists the
// configuration. Reachability is not checked here; the first data call reports it.
func (c *Client) Configure(ctx context.Context, endpoint, credential string) error {
	cfg := Config{URL: strings.TrimSpace(endpoint), Key: strings.TrimSpace(credential)}
	if cfg.URL == "" || cfg.Key == "" {
		return errors.ValidationError("remote endpoint and credential are both required")
	}

	pool, err := newPool(ctx, cfg, c.opts.Timeout)
	if err != nil {
		return err
	}

	if err := c.settings.Set(SettingKey, cfg); err != nil {
		pool.Close()
		return errors.StorageError("save remote configuration", err)
	}

	c.swap(pool, &cfg)
	c.logger.Info("remote configured", "endpoint", redact(cfg.URL))
	return nil
}

// Restore rebuilds the client from the persisted configuration. It reports whether a
// configuration was found.
func (c *Client) Restore(ctx context.Context) (bool, error) {
	var cfg Config
	ok, err := c.settings.Get(SettingKey, &cfg)
	if err != nil {
		return false, errors.StorageError("read remote configuration", err)
	}
	if !ok {
		return false, nil
	}

	pool, err := newPool(ctx, cfg, c.opts.Timeout)
	if err != nil {
		return false, err
	}
	c.swap(pool, &cfg)
	c.logger.Info("remote restored", "endpoint", redact(cfg.URL))
	return true, nil
}

// Disconnect drops the client and the persisted configuration
func (c *Client) Disconnect() error {
	c.swap(nil, nil)
	if err := c.settings.Delete(SettingKey); err != nil {
		return errors.StorageError("delete remote configuration", err)
	}
	c.logger.Info("remote disconnected")
	return nil
}

// Close releases the connection pool without touching the persisted configuration
func (c *Client) Close() {
	c.mu.Lock()
	pool := c.pool
	c.pool = nil
	c.cfg = nil
	c.mu.Unlock()

	if pool != nil {
		pool.Close()
	}
}

// Configured reports whether a remote is active
func (c *Client) Configured() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pool != nil
}

// Endpoint returns the active endpoint with the password removed, or "" when unconfigured
func (c *Client) Endpoint() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.cfg == nil {
		return ""
	}
	return redact(c.cfg.URL)
}

func (c *Client) swap(pool *pgxpool.Pool, cfg *Config) {
	c.mu.Lock()
	old := c.pool
	c.pool = pool
	c.cfg = cfg
	c.mu.Unlock()

	// Close waits for in-flight queries on the old pool to return
	if old != nil {
		go old.Close()
	}
}

func (c *Client) acquire() (*pgxpool.Pool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.pool == nil {
		return nil, errors.RemoteNotConfiguredError()
	}
	return c.pool, nil
}

// Ping checks that the remote is reachable with the current credentials
func (c *Client) Ping(ctx context.Context) error {
	pool, err := c.acquire()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		return classify("ping", err)
	}
	return nil
}

// Migrate creates or upgrades the remote prompts table
func (c *Client) Migrate(ctx context.Context) (int64, error) {
	pool, err := c.acquire()
	if err != nil {
		return 0, err
	}

	db := stdlib.OpenDBFromPool(pool)
	defer func() { _ = db.Close() }()

	version, err := migrate.Up(ctx, db, "postgres", migrations, "migrations")
	if err != nil {
		return 0, classify("migrate", err)
	}
	c.logger.Info("remote schema migrated", "version", version)
	return version, nil
}

const selectAllSQL = `
	SELECT id, category, name, objective, input_type, persona, recommended_ai,
	       description, content, variables, usage_examples, tags
	FROM prompts
	ORDER BY created_at DESC, position, id`

// FetchAll returns the remote collection, most recently created first
func (c *Client) FetchAll(ctx context.Context) ([]models.Prompt, error) {
	pool, err := c.acquire()
	if err != nil {
		return nil, err
	}

	var prompts []models.Prompt
	err = c.retry(ctx, func() error {
		ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()

		rows, err := pool.Query(ctx, selectAllSQL)
		if err != nil {
			return err
		}
		prompts, err = pgx.CollectRows(rows, pgx.RowToStructByName[models.Prompt])
		return err
	})
	if err != nil {
		return nil, classify("fetch prompts", err)
	}

	for i := range prompts {
		prompts[i].Normalize()
	}
	if prompts == nil {
		prompts = []models.Prompt{}
	}
	c.logger.Debug("fetched remote prompts", "count", len(prompts))
	return prompts, nil
}

const upsertSQL = `
	INSERT INTO prompts (id, category, name, objective, input_type, persona, recommended_ai,
	                     description, content, variables, usage_examples, tags, position)
	SELECT id, category, name, objective, input_type, persona, recommended_ai,
	       description, content, variables::jsonb, usage_examples, tags::jsonb, position
	FROM unnest($1::text[], $2::text[], $3::text[], $4::text[], $5::text[], $6::text[],
	            $7::text[], $8::text[], $9::text[], $10::text[], $11::text[], $12::text[],
	            $13::int[])
	     AS t(id, category, name, objective, input_type, persona, recommended_ai,
	          description, content, variables, usage_examples, tags, position)
	ON CONFLICT (id) DO UPDATE SET
		category       = EXCLUDED.category,
		name           = EXCLUDED.name,
		objective      = EXCLUDED.objective,
		input_type     = EXCLUDED.input_type,
		persona        = EXCLUDED.persona,
		recommended_ai = EXCLUDED.recommended_ai,
		description    = EXCLUDED.description,
		content        = EXCLUDED.content,
		variables      = EXCLUDED.variables,
		usage_examples = EXCLUDED.usage_examples,
		tags           = EXCLUDED.tags,
		position       = EXCLUDED.position`

// UpsertAll inserts every prompt, replacing rows whose id already exists. Prompts are sent
// in chunks that commit independently; rejected chunks are reported together in one
// PARTIAL_FAILURE error while accepted chunks stay committed. Each row records its index in
// prompts so rows created by the same call read back in collection order.
func (c *Client) UpsertAll(ctx context.Context, prompts []models.Prompt) error {
	pool, err := c.acquire()
	if err != nil {
		return err
	}

	unique := dedupe(prompts)
	batches := chunk(unique, c.opts.ChunkSize)

	var (
		failed []string
		errs   []error
	)
	offset := 0
	for _, batch := range batches {
		args, err := upsertArgs(batch, offset)
		offset += len(batch)
		if err != nil {
			return errors.InvalidFormatError("encode prompts for remote", err)
		}
		err = c.retry(ctx, func() error {
			ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
			defer cancel()
			return c.exec(ctx, pool, upsertSQL, args...)
		})
		if err != nil {
			for _, p := range batch {
				failed = append(failed, p.ID)
			}
			errs = append(errs, err)
			c.logger.Warn("remote chunk rejected", "size", len(batch), "error", err)
		}
	}

	switch {
	case len(errs) == 0:
		c.logger.Debug("upserted remote prompts", "count", len(unique))
		return nil
	case len(failed) == len(unique):
		return classify("upsert prompts", stderrors.Join(errs...))
	default:
		return errors.PartialFailureError("remote upsert", failed, errs...)
	}
}

func (c *Client) retry(ctx context.Context, fn func() error) error {
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(c.opts.RetryAttempts),
		retry.Delay(c.opts.RetryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTransient),
	)
}

func newPool(ctx context.Context, cfg Config, timeout time.Duration) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid remote endpoint")
	}
	poolCfg.ConnConfig.Password = cfg.Key
	poolCfg.MinConns = 0
	if poolCfg.ConnConfig.ConnectTimeout == 0 || poolCfg.ConnConfig.ConnectTimeout > timeout {
		poolCfg.ConnConfig.ConnectTimeout = timeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, "could not create remote client")
	}
	return pool, nil
}

// dedupe keeps the last occurrence of every id at the position of its first occurrence
func dedupe(prompts []models.Prompt) []models.Prompt {
	index := make(map[string]int, len(prompts))
	out := make([]models.Prompt, 0, len(prompts))
	for _, p := range prompts {
		if i, ok := index[p.ID]; ok {
			out[i] = p
			continue
		}
		index[p.ID] = len(out)
		out = append(out, p)
	}
	return out
}

func chunk(prompts []models.Prompt, size int) [][]models.Prompt {
	var out [][]models.Prompt
	for start := 0; start < len(prompts); start += size {
		end := start + size
		if end > len(prompts) {
			end = len(prompts)
		}
		out = append(out, prompts[start:end])
	}
	return out
}

// upsertArgs lays batch out as one array per column. offset is the position of the
// batch's first prompt in the whole upsert.
func upsertArgs(batch []models.Prompt, offset int) ([]interface{}, error) {
	cols := make([][]string, 12)
	for i := range cols {
		cols[i] = make([]string, 0, len(batch))
	}
	positions := make([]int32, 0, len(batch))

	for n, p := range batch {
		positions = append(positions, int32(offset+n))
		p.Normalize()
		vars, err := json.Marshal(p.Variables)
		if err != nil {
			return nil, err
		}
		tags, err := json.Marshal(p.Tags)
		if err != nil {
			return nil, err
		}
		row := []string{
			p.ID, string(p.Category), p.Name, p.Objective, p.InputType, p.Persona,
			string(p.RecommendedAI), p.Description, p.Content, string(vars),
			p.UsageExamples, string(tags),
		}
		for i, v := range row {
			cols[i] = append(cols[i], v)
		}
	}

	args := make([]interface{}, 0, len(cols)+1)
	for _, col := range cols {
		args = append(args, col)
	}
	return append(args, positions), nil
}

func isAuthFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !stderrors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "28000", "28P01", "42501":
		return true
	}
	return false
}

func isTransient(err error) bool {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if isAuthFailure(err) {
		return false
	}
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		// Server answered: only connection-class errors are worth another attempt
		return strings.HasPrefix(pgErr.Code, "08")
	}
	return true
}

func classify(op string, err error) error {
	if isAuthFailure(err) {
		return errors.Wrap(err, errors.ErrCodeUnauthorized, fmt.Sprintf("Remote rejected credentials: %s", op))
	}
	return errors.NetworkError(op, err)
}

// redact strips the password from a connection URL for display
func redact(url string) string {
	cfg, err := pgconn.ParseConfig(url)
	if err != nil || cfg.Password == "" {
		return url
	}
	return strings.Replace(url, ":"+cfg.Password+"@", ":***@", 1)
}
