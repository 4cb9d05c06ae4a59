package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dpshade/promptlib/internal/config"
	"github.com/dpshade/promptlib/internal/errors"
)

// session carries the global flags to every command
type session struct {
	opts    Options
	cfgFile string
	dataDir string
	verbose bool
	format  string
}

// NewRootCommand builds the command tree
func NewRootCommand(opts Options) *cobra.Command {
	s := &session{opts: opts}

	root := &cobra.Command{
		Use:   "promptlib",
		Short: "A personal library of reusable AI prompts",
		Long: `promptlib keeps a library of AI prompts in a local SQLite database and can
mirror it to a hosted PostgreSQL database.

Every change is saved locally first. When a remote is connected it is kept in
sync in the background and becomes the preferred source on the next start.`,
		Version:       opts.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&s.cfgFile, "config", "", "config file (default: <data-dir>/config.yaml)")
	root.PersistentFlags().StringVar(&s.dataDir, "data-dir", "", "library directory (default: ~/.promptlib)")
	root.PersistentFlags().BoolVarP(&s.verbose, "verbose", "v", false, "verbose logging and error causes")
	root.PersistentFlags().StringVarP(&s.format, "format", "f", "text", "output format: text, table, json or ids")

	root.AddCommand(
		newListCmd(s),
		newSearchCmd(s),
		newShowCmd(s),
		newAddCmd(s),
		newDeleteCmd(s),
		newCopyCmd(s),
		newRenderCmd(s),
		newStatsCmd(s),
		newExportCmd(s),
		newImportCmd(s),
		newExtractCmd(s),
		newOptimizeCmd(s),
		newTagsCmd(s),
		newSpeakCmd(s),
		newResetCmd(s),
		newBrowseCmd(s),
		newStatusCmd(s),
		newRemoteCmd(s),
		newInitCmd(s),
		newVersionCmd(opts.Version),
	)
	return root
}

// config loads configuration. With --data-dir and no --config, the config.yaml of that
// directory is used when present.
func (s *session) config() (*config.Config, error) {
	cfgFile := s.cfgFile
	if cfgFile == "" && s.dataDir != "" {
		candidate := filepath.Join(s.dataDir, "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			cfgFile = candidate
		}
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if s.dataDir != "" {
		cfg.DataDir = s.dataDir
	}
	return cfg, nil
}

// run opens the library around fn. Pending saves are flushed when fn returns, even on error.
func (s *session) run(fn func(a *App, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		cfg, err := s.config()
		if err != nil {
			return err
		}

		a, err := open(cmd.Context(), cfg, s.verbose, s.opts, cmd.OutOrStdout(), cmd.ErrOrStderr(), cmd.InOrStdin())
		if err != nil {
			h := errors.NewCLIErrorHandler(s.verbose, nil)
			return &FatalStartupError{Message: h.FatalStartupMessage(err), Err: err}
		}
		a.format = s.format

		defer func() {
			if cerr := a.Close(context.WithoutCancel(cmd.Context())); err == nil {
				err = cerr
			}
		}()
		return fn(a, cmd, args)
	}
}

// FatalStartupError means the library could not be opened at all
type FatalStartupError struct {
	Message string
	Err     error
}

func (e *FatalStartupError) Error() string { return e.Message }
func (e *FatalStartupError) Unwrap() error { return e.Err }

// Execute runs the command line and returns the process exit code
func Execute(ctx context.Context, version string) int {
	root := NewRootCommand(Options{Version: version})
	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var fatal *FatalStartupError
	if stderrors.As(err, &fatal) {
		fmt.Fprint(root.ErrOrStderr(), fatal.Message)
		return 2
	}
	verbose, _ := root.PersistentFlags().GetBool("verbose")
	fmt.Fprintln(root.ErrOrStderr(), errors.NewCLIErrorHandler(verbose, nil).FormatError(err))
	return 1
}
