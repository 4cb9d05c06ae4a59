// Package cli is the command line surface of the prompt library.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dpshade/promptlib/internal/clipboard"
	"github.com/dpshade/promptlib/internal/config"
	"github.com/dpshade/promptlib/internal/enrich"
	"github.com/dpshade/promptlib/internal/errors"
	"github.com/dpshade/promptlib/internal/remote"
	"github.com/dpshade/promptlib/internal/service"
	"github.com/dpshade/promptlib/internal/storage"
)

// Options lets callers replace collaborators, mostly for tests
type Options struct {
	Version string
	// Enricher overrides the OpenAI client built from configuration
	Enricher enrich.Enricher
	// Copier overrides the clipboard
	Copier *clipboard.Copier
}

// App holds everything a command needs once the library is open
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	errs   *errors.CLIErrorHandler

	local  *storage.Local
	remote *remote.Client
	svc    *service.Service

	enricher enrich.Enricher
	copier   *clipboard.Copier

	format string
	out    io.Writer
	errOut io.Writer
	in     io.Reader
}

// open builds the stores and loads the collection. The returned App must be closed.
func open(ctx context.Context, cfg *config.Config, verbose bool, opts Options, out, errOut io.Writer, in io.Reader) (*App, error) {
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, errors.StorageError("create data directory", err)
	}

	a := &App{
		cfg:    cfg,
		logger: logger,
		errs:   errors.NewCLIErrorHandler(verbose, logger),
		out:    out,
		errOut: errOut,
		in:     in,
	}

	a.local = storage.NewLocal(cfg.DatabasePath(), logger)
	a.remote = remote.NewClient(storage.NewSettings(cfg.DataDir), remote.Options{
		RetryAttempts: cfg.Remote.RetryAttempts,
		RetryDelay:    cfg.Remote.RetryDelay,
		ChunkSize:     cfg.Remote.ChunkSize,
		Timeout:       cfg.Remote.Timeout,
	}, logger)

	// A broken remote configuration only costs the mirror, never the library.
	if _, err := a.remote.Restore(ctx); err != nil {
		a.notify(service.Notice{Level: slog.LevelWarn, Op: "restore remote", Err: err})
	}

	a.svc = service.New(a.local, a.remote, service.Options{
		Debounce: cfg.SaveDebounce,
		DataDir:  cfg.DataDir,
		Logger:   logger,
		Notify:   a.notify,
	})

	a.enricher = opts.Enricher
	if a.enricher == nil {
		a.enricher = enrich.NewOpenAI(enrich.Config{
			APIKey:      cfg.AI.APIKey,
			BaseURL:     cfg.AI.BaseURL,
			Model:       cfg.AI.Model,
			FastModel:   cfg.AI.FastModel,
			SpeechModel: cfg.AI.SpeechModel,
			Voice:       cfg.AI.Voice,
			Logger:      logger,
		})
	}
	a.copier = opts.Copier
	if a.copier == nil {
		a.copier = clipboard.New()
	}

	if err := a.svc.Start(ctx); err != nil {
		a.Close(ctx)
		return nil, err
	}
	return a, nil
}

// notify prints non-fatal failures as they happen
func (a *App) notify(n service.Notice) {
	a.logger.Log(context.Background(), n.Level, "notice", "op", n.Op, "error", n.Err)
	if n.Level >= slog.LevelWarn {
		fmt.Fprintf(a.errOut, "⚠️  %s failed: %s\n", n.Op, errors.GetAppError(n.Err).Message)
	}
}

// Close flushes pending saves and releases the stores
func (a *App) Close(ctx context.Context) error {
	var err error
	if a.svc != nil {
		err = a.svc.Close(ctx)
	}
	if a.remote != nil {
		a.remote.Close()
	}
	if a.local != nil {
		if cerr := a.local.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
