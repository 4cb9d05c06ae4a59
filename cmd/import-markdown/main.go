// Command import-markdown bulk-imports a directory of markdown prompt files into the
// local library.
//
// Each .md file becomes one prompt. YAML frontmatter may set title, description, persona,
// category and tags; the body becomes the prompt content.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dpshade/promptlib/internal/config"
	"github.com/dpshade/promptlib/internal/errors"
	"github.com/dpshade/promptlib/internal/remote"
	"github.com/dpshade/promptlib/internal/service"
	"github.com/dpshade/promptlib/internal/storage"
	"github.com/dpshade/promptlib/internal/transfer"
)

func main() {
	var (
		cfgFile = flag.String("config", "", "config file")
		dataDir = flag.String("data-dir", "", "library directory (default: ~/.promptlib)")
		yes     = flag.Bool("yes", false, "import without asking")
		dryRun  = flag.Bool("dry-run", false, "list what would be imported")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <directory>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, flag.Arg(0), *cfgFile, *dataDir, *yes, *dryRun); err != nil {
		fmt.Fprintln(os.Stderr, errors.NewCLIErrorHandler(false, nil).FormatError(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, dir, cfgFile, dataDir string, yes, dryRun bool) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	drafts, err := transfer.ReadMarkdownDir(dir)
	if err != nil {
		return err
	}
	if len(drafts) == 0 {
		fmt.Println("No markdown prompts found - nothing to import")
		return nil
	}

	prompts := transfer.FromDrafts(drafts, "")
	fmt.Printf("Found %d prompts in %s:\n", len(prompts), dir)
	for _, p := range prompts {
		fmt.Printf("  - %s\n", p.Name)
	}
	if dryRun {
		return nil
	}

	if !yes {
		fmt.Print("\nProceed with import? (y/N): ")
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if strings.ToLower(strings.TrimSpace(line)) != "y" {
			fmt.Println("Import cancelled")
			return nil
		}
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return errors.StorageError("create data directory", err)
	}
	local := storage.NewLocal(cfg.DatabasePath(), logger)
	defer local.Close()

	// The remote wins on the next load, so imports must reach it too.
	client := remote.NewClient(storage.NewSettings(cfg.DataDir), remote.Options{
		RetryAttempts: cfg.Remote.RetryAttempts,
		RetryDelay:    cfg.Remote.RetryDelay,
		ChunkSize:     cfg.Remote.ChunkSize,
		Timeout:       cfg.Remote.Timeout,
	}, logger)
	if _, err := client.Restore(ctx); err != nil {
		logger.Warn("remote unavailable, importing locally only", "error", err)
	}
	defer client.Close()

	svc := service.New(local, client, service.Options{
		Debounce: cfg.SaveDebounce,
		DataDir:  cfg.DataDir,
		Logger:   logger,
		Notify: func(n service.Notice) {
			fmt.Fprintf(os.Stderr, "warning: %s failed: %v\n", n.Op, n.Err)
		},
	})
	if err := svc.Start(ctx); err != nil {
		return err
	}
	if err := svc.Merge(prompts); err != nil {
		return err
	}
	if err := svc.Close(context.WithoutCancel(ctx)); err != nil {
		return err
	}

	fmt.Printf("Imported %d prompts into %s\n", len(prompts), local.Path())
	return nil
}
