package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dpshade/promptlib/internal/errors"
	"github.com/dpshade/promptlib/internal/models"
	"github.com/dpshade/promptlib/internal/transfer"
)

func newExtractCmd(s *session) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "extract <file>...",
		Short: "Create prompts from documents or images with the AI",
		Long: `Extract sends each file to the AI, which finds the prompts it contains. The
prompts found get fresh ids and default metadata and are added to the front of
the library. Files that fail are reported and skipped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: s.run(func(a *App, cmd *cobra.Command, args []string) error {
			var drafts []models.Draft
			var failed int
			for _, path := range args {
				data, err := readInput(path, a.in)
				if err != nil {
					failed++
					fmt.Fprintln(a.errOut, a.errs.FormatError(err))
					continue
				}
				found, err := a.enricher.Extract(cmd.Context(), filepath.Base(path), data)
				if err != nil {
					failed++
					fmt.Fprintln(a.errOut, a.errs.FormatError(err))
					continue
				}
				drafts = append(drafts, found...)
			}

			if len(drafts) == 0 {
				return errors.EnrichError("extract", fmt.Errorf("no prompts found in %d files", len(args)))
			}

			source := ""
			if len(args) == 1 {
				source = filepath.Base(args[0])
			}
			prompts := transfer.FromDrafts(drafts, source)

			if !dryRun {
				if err := a.svc.Merge(prompts); err != nil {
					return err
				}
			}
			if failed > 0 {
				fmt.Fprintf(a.errOut, "%d of %d files failed\n", failed, len(args))
			}
			return writePrompts(a.out, prompts, a.format)
		}),
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the extracted prompts without saving them")
	return cmd
}

func newOptimizeCmd(s *session) *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "optimize <id>",
		Short: "Rewrite a prompt's content with the AI",
		Args:  cobra.ExactArgs(1),
		RunE: s.run(func(a *App, cmd *cobra.Command, args []string) error {
			p, err := lookup(a, args[0])
			if err != nil {
				return err
			}
			content, err := a.enricher.Optimize(cmd.Context(), p)
			if err != nil {
				return err
			}

			fmt.Fprintln(a.out, content)
			if !save {
				return nil
			}
			p.Content = content
			p.Variables = models.ExtractVariables(content)
			if err := a.svc.Upsert(p); err != nil {
				return err
			}
			fmt.Fprintf(a.errOut, "Saved optimized content to %s\n", p.ID)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&save, "save", false, "replace the prompt's content with the result")
	return cmd
}

func newTagsCmd(s *session) *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "tags <id>",
		Short: "Suggest tags for a prompt with the AI",
		Args:  cobra.ExactArgs(1),
		RunE: s.run(func(a *App, cmd *cobra.Command, args []string) error {
			p, err := lookup(a, args[0])
			if err != nil {
				return err
			}
			tags, err := a.enricher.Tags(cmd.Context(), p.Objective, p.Category)
			if err != nil {
				return err
			}

			fmt.Fprintln(a.out, strings.Join(tags, ", "))
			if !save {
				return nil
			}
			p.Tags = tags
			return a.svc.Upsert(p)
		}),
	}
	cmd.Flags().BoolVar(&save, "save", false, "replace the prompt's tags with the suggestion")
	return cmd
}

func newSpeakCmd(s *session) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "speak <id>",
		Short: "Read a prompt aloud to an MP3 file",
		Args:  cobra.ExactArgs(1),
		RunE: s.run(func(a *App, cmd *cobra.Command, args []string) error {
			p, err := lookup(a, args[0])
			if err != nil {
				return err
			}
			if output == "" {
				output = p.ID + ".mp3"
			}

			f, err := os.Create(output)
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeInvalidInput, fmt.Sprintf("Cannot create %s", output))
			}
			if err := a.enricher.Speak(cmd.Context(), p.Content, f); err != nil {
				f.Close()
				os.Remove(output)
				return err
			}
			if err := f.Close(); err != nil {
				return errors.Wrap(err, errors.ErrCodeInternalError, fmt.Sprintf("Failed to write %s", output))
			}
			fmt.Fprintf(a.out, "Wrote %s\n", output)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "audio file (default: <id>.mp3)")
	return cmd
}
