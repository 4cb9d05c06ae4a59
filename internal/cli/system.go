package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dpshade/promptlib/internal/config"
	"github.com/dpshade/promptlib/internal/errors"
	"github.com/dpshade/promptlib/internal/ui"
)

func newResetCmd(s *session) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Erase the local library and restore the starter prompts",
		Long: `Reset deletes every prompt in the local database and restores the four
starter prompts. A connected remote mirror is not touched; the next start will
load from it again if it holds any prompts.`,
		Args: cobra.NoArgs,
		RunE: s.run(func(a *App, cmd *cobra.Command, args []string) error {
			if !force && !confirm(a, "This deletes all local prompts. Continue?") {
				fmt.Fprintln(a.out, "Cancelled")
				return nil
			}
			if err := a.svc.FactoryReset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Library reset to the starter prompts")
			if configured, endpoint := a.svc.RemoteStatus(); configured {
				fmt.Fprintf(a.out, "Remote %s was not changed\n", endpoint)
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&force, "force", false, "do not ask for confirmation")
	return cmd
}

func newBrowseCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse and copy prompts interactively",
		Args:  cobra.NoArgs,
		RunE: s.run(func(a *App, cmd *cobra.Command, args []string) error {
			return ui.Run(cmd.Context(), a.svc, a.copier)
		}),
	}
}

func newInitCmd(s *session) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file to the data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := s.config()
			if err != nil {
				return err
			}
			path := s.cfgFile
			if path == "" {
				path = filepath.Join(cfg.DataDir, "config.yaml")
			}
			if _, err := os.Stat(path); err == nil && !force {
				return errors.NewAppError(errors.ErrCodeInvalidInput, fmt.Sprintf("%s already exists", path)).
					WithDetails("use --force to overwrite")
			}
			if err := config.WriteDefault(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "promptlib %s\n", version)
		},
	}
}
