package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRemoteCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Manage the hosted PostgreSQL mirror",
		Long: `A remote mirror keeps a copy of the library in PostgreSQL. Saves are written
locally first and then mirrored; when the remote cannot be reached the local copy
is kept and a warning is shown.

On start the remote is the preferred source whenever it holds any prompts.
Edits made while it was unreachable are replaced by the remote copy on the next
start that reaches it; run "promptlib remote sync" first to keep them.`,
	}
	cmd.AddCommand(
		newRemoteConnectCmd(s),
		newRemoteDisconnectCmd(s),
		newRemoteStatusCmd(s),
		newRemoteSyncCmd(s),
		newRemoteMigrateCmd(s),
	)
	return cmd
}

func newRemoteConnectCmd(s *session) *cobra.Command {
	var key string
	var migrate, sync bool

	cmd := &cobra.Command{
		Use:   "connect <postgres-url>",
		Short: "Configure the remote mirror",
		Example: `  promptlib remote connect postgres://db.example.com:5432/prompts --key "$DB_PASSWORD" --migrate --sync
  PROMPTLIB_REMOTE_KEY=secret promptlib remote connect postgres://user@host/prompts`,
		Args: cobra.ExactArgs(1),
		RunE: s.run(func(a *App, cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if key == "" {
				key = os.Getenv("PROMPTLIB_REMOTE_KEY")
			}
			if err := a.svc.ConnectRemote(ctx, args[0], key); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Connected to %s\n", a.remote.Endpoint())

			if err := a.remote.Ping(ctx); err != nil {
				fmt.Fprintln(a.errOut, a.errs.FormatError(err))
				return nil
			}
			if migrate {
				v, err := a.remote.Migrate(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Remote schema at version %d\n", v)
			}
			if sync {
				if err := a.svc.SyncLocalToCloud(ctx); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Uploaded %d prompts\n", a.svc.Status().Count)
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&key, "key", "", "database password (default: $PROMPTLIB_REMOTE_KEY)")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "create or upgrade the remote table")
	cmd.Flags().BoolVar(&sync, "sync", false, "upload the local library after connecting")
	return cmd
}

func newRemoteDisconnectCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Forget the remote mirror; remote data is kept",
		Args:  cobra.NoArgs,
		RunE: s.run(func(a *App, cmd *cobra.Command, args []string) error {
			if err := a.svc.DisconnectRemote(); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Remote disconnected")
			return nil
		}),
	}
}

func newRemoteStatusCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the remote endpoint and whether it answers",
		Args:  cobra.NoArgs,
		RunE: s.run(func(a *App, cmd *cobra.Command, args []string) error {
			configured, endpoint := a.svc.RemoteStatus()
			if !configured {
				fmt.Fprintln(a.out, "Remote: not connected")
				return nil
			}
			fmt.Fprintf(a.out, "Remote: %s\n", endpoint)
			if err := a.remote.Ping(cmd.Context()); err != nil {
				fmt.Fprintf(a.out, "Reachable: no (%s)\n", a.errs.FormatError(err))
				return nil
			}
			fmt.Fprintln(a.out, "Reachable: yes")
			return nil
		}),
	}
}

func newRemoteSyncCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Upload the whole local library to the remote",
		Args:  cobra.NoArgs,
		RunE: s.run(func(a *App, cmd *cobra.Command, args []string) error {
			if err := a.svc.SyncLocalToCloud(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Uploaded %d prompts to %s\n", a.svc.Status().Count, a.remote.Endpoint())
			return nil
		}),
	}
}

func newRemoteMigrateCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the remote table",
		Args:  cobra.NoArgs,
		RunE: s.run(func(a *App, cmd *cobra.Command, args []string) error {
			v, err := a.remote.Migrate(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Remote schema at version %d\n", v)
			return nil
		}),
	}
}
