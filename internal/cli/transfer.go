package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dpshade/promptlib/internal/errors"
	"github.com/dpshade/promptlib/internal/transfer"
)

func newExportCmd(s *session) *cobra.Command {
	var output, as string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the whole library to a backup file",
		Long: `Export writes every prompt to a backup file that import can read back. The file
is named prompt-library-backup-YYYY-MM-DD.json in the current directory unless
--output is given. Use --output - to print to stdout.`,
		Args: cobra.NoArgs,
		RunE: s.run(func(a *App, cmd *cobra.Command, args []string) error {
			if as == "" && output != "" && output != "-" {
				as = strings.TrimPrefix(filepath.Ext(output), ".")
			}
			format, err := transfer.ParseFormat(as)
			if err != nil {
				return err
			}

			prompts := a.svc.Prompts()
			if output == "-" {
				return transfer.Export(a.out, prompts, format)
			}
			if output == "" {
				output = transfer.ExportFilename(time.Now(), format)
			}

			f, err := os.Create(output)
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeInvalidInput, fmt.Sprintf("Cannot create %s", output))
			}
			if err := transfer.Export(f, prompts, format); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return errors.Wrap(err, errors.ErrCodeInternalError, fmt.Sprintf("Failed to write %s", output))
			}

			fmt.Fprintf(a.out, "Exported %d prompts to %s\n", len(prompts), output)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "backup file, - for stdout")
	cmd.Flags().StringVar(&as, "as", "", "file format: json or yaml (default: from the file extension, else json)")
	return cmd
}

func newImportCmd(s *session) *cobra.Command {
	var merge, force bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Restore the library from a backup file",
		Long: `Import reads a JSON or YAML backup. Every record needs an id and a name; if any
record is invalid nothing is imported.

By default the backup replaces the whole library. With --merge the backup records
are added in front of the existing ones, replacing records with the same id.`,
		Args: cobra.ExactArgs(1),
		RunE: s.run(func(a *App, cmd *cobra.Command, args []string) error {
			data, err := readInput(args[0], a.in)
			if err != nil {
				return err
			}
			prompts, err := transfer.ParseBackup(data)
			if err != nil {
				return err
			}

			if merge {
				if err := a.svc.Merge(prompts); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Merged %d prompts\n", len(prompts))
				return nil
			}

			question := fmt.Sprintf("Replace all %d prompts with the %d in %s?", a.svc.Status().Count, len(prompts), args[0])
			if !force && !confirm(a, question) {
				fmt.Fprintln(a.out, "Cancelled")
				return nil
			}
			if err := a.svc.Restore(prompts); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Imported %d prompts\n", len(prompts))
			return nil
		}),
	}
	cmd.Flags().BoolVar(&merge, "merge", false, "add to the library instead of replacing it")
	cmd.Flags().BoolVar(&force, "force", false, "replace without asking")
	return cmd
}
