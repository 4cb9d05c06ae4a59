package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dpshade/promptlib/internal/errors"
	"github.com/dpshade/promptlib/internal/models"
	"github.com/dpshade/promptlib/internal/renderer"
	"github.com/dpshade/promptlib/internal/service"
)

func newListCmd(s *session) *cobra.Command {
	var tags, category string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List prompts",
		Example: `  promptlib list
  promptlib list --category "Desarrollo y Código"
  promptlib list --tags 'email AND NOT draft' --format table`,
		Args: cobra.NoArgs,
		RunE: s.run(func(a *App, cmd *cobra.Command, args []string) error {
			expr, err := models.ParseTagExpr(tags)
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeInvalidInput, "Invalid tag expression")
			}

			var prompts []models.Prompt
			if category != "" {
				prompts = a.svc.Search("", models.Category(category))
			} else {
				prompts = a.svc.Prompts()
			}

			filtered := prompts[:0]
			for _, p := range prompts {
				if expr.Match(p.Tags) {
					filtered = append(filtered, p)
				}
			}
			return writePrompts(a.out, filtered, a.format)
		}),
	}
	cmd.Flags().StringVarP(&tags, "tags", "t", "", "boolean tag expression (AND, OR, XOR, NOT, parentheses)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "only prompts of this category")
	return cmd
}

func newSearchCmd(s *session) *cobra.Command {
	var category string
	var exact bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search prompts by name, objective, category and tags",
		Long: `Search ranks prompts by fuzzy match against their name, objective, category and
tags. With --exact only prompts containing the query as a substring are shown, in
library order.`,
		Args: cobra.MinimumNArgs(1),
		RunE: s.run(func(a *App, cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			var prompts []models.Prompt
			if exact || category != "" {
				prompts = a.svc.Search(query, models.Category(category))
			} else {
				prompts = a.svc.FuzzySearch(query)
			}
			return writePrompts(a.out, prompts, a.format)
		}),
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "restrict to a category (implies --exact)")
	cmd.Flags().BoolVar(&exact, "exact", false, "substring match instead of fuzzy ranking")
	return cmd
}

func newShowCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a prompt",
		Args:  cobra.ExactArgs(1),
		RunE: s.run(func(a *App, cmd *cobra.Command, args []string) error {
			p, err := lookup(a, args[0])
			if err != nil {
				return err
			}
			return writePrompt(a.out, p, a.format)
		}),
	}
}

type promptFlags struct {
	name, category, objective, persona string
	inputType, ai, description         string
	content, file, examples            string
	tags                               []string
	autoTags                           bool
}

func (f *promptFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.name, "name", "n", "", "prompt name")
	fl.StringVarP(&f.category, "category", "c", "", "category (default: Otros)")
	fl.StringVar(&f.objective, "objective", "", "what the prompt is for")
	fl.StringVar(&f.persona, "persona", "", "role the model should take")
	fl.StringVar(&f.inputType, "input-type", "", "kind of input the prompt expects")
	fl.StringVar(&f.ai, "ai", "", "recommended AI model")
	fl.StringVar(&f.description, "description", "", "short description")
	fl.StringVar(&f.content, "content", "", "prompt text")
	fl.StringVar(&f.file, "file", "", "read the prompt text from a file, - for stdin")
	fl.StringVar(&f.examples, "examples", "", "usage examples")
	fl.StringSliceVarP(&f.tags, "tags", "t", nil, "comma separated tags")
	fl.BoolVar(&f.autoTags, "auto-tags", false, "ask the AI for tags when none are given")
}

// apply copies the flags that were set onto p
func (f *promptFlags) apply(cmd *cobra.Command, in io.Reader, p *models.Prompt) error {
	set := cmd.Flags().Changed
	if set("name") {
		p.Name = f.name
	}
	if set("category") {
		p.Category = models.Category(f.category)
	}
	if set("objective") {
		p.Objective = f.objective
	}
	if set("persona") {
		p.Persona = f.persona
	}
	if set("input-type") {
		p.InputType = f.inputType
	}
	if set("ai") {
		p.RecommendedAI = models.AIModel(f.ai)
	}
	if set("description") {
		p.Description = f.description
	}
	if set("examples") {
		p.UsageExamples = f.examples
	}
	if set("tags") {
		p.Tags = f.tags
	}
	if set("content") {
		p.Content = f.content
	}
	if set("file") {
		content, err := readInput(f.file, in)
		if err != nil {
			return err
		}
		p.Content = string(content)
	}
	p.Variables = models.ExtractVariables(p.Content)
	p.Normalize()
	return nil
}

func newAddCmd(s *session) *cobra.Command {
	var f promptFlags
	var id string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a prompt, or update one with --id",
		Example: `  promptlib add --name "Cold email" --objective "Write a first sales email" --content "Write to [Client] about [Product]"
  promptlib add --id 3 --tags seo,blog
  cat prompt.txt | promptlib add --name "From stdin" --file -`,
		Args: cobra.NoArgs,
		RunE: s.run(func(a *App, cmd *cobra.Command, args []string) error {
			p := models.Prompt{
				Category:      models.CategoryOther,
				InputType:     "Texto",
				RecommendedAI: models.AIModelChatGPT,
			}
			updating := id != ""
			if updating {
				existing, err := lookup(a, id)
				if err != nil {
					return err
				}
				p = existing
			} else {
				p.ID = uuid.NewString()
			}

			if err := f.apply(cmd, a.in, &p); err != nil {
				return err
			}
			if strings.TrimSpace(p.Name) == "" {
				return errors.NewAppError(errors.ErrCodeMissingField, "A prompt needs a name").WithDetails("use --name")
			}

			if f.autoTags && len(p.Tags) == 0 {
				tags, err := a.enricher.Tags(cmd.Context(), p.Objective, p.Category)
				if err != nil {
					return err
				}
				p.Tags = tags
			}

			if err := a.svc.Upsert(p); err != nil {
				return err
			}
			if updating {
				fmt.Fprintf(a.out, "Updated prompt: %s\n", p.ID)
			} else {
				fmt.Fprintf(a.out, "Added prompt: %s\n", p.ID)
			}
			return nil
		}),
	}
	f.register(cmd)
	cmd.Flags().StringVar(&id, "id", "", "update the prompt with this id instead of adding one")
	return cmd
}

func newDeleteCmd(s *session) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a prompt",
		Args:    cobra.ExactArgs(1),
		RunE: s.run(func(a *App, cmd *cobra.Command, args []string) error {
			id := args[0]
			p, err := lookup(a, id)
			if err != nil {
				return err
			}

			if !force && !confirm(a, fmt.Sprintf("Are you sure you want to delete prompt '%s'?", p.DisplayTitle())) {
				fmt.Fprintln(a.out, "Cancelled")
				return nil
			}

			if err := a.svc.Delete(id); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted prompt: %s\n", id)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&force, "force", false, "do not ask for confirmation")
	return cmd
}

type renderFlags struct {
	vars   []string
	json   bool
	strict bool
}

func (f *renderFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&f.vars, "var", nil, "fill a [Variable] placeholder, as Name=value (repeatable)")
	cmd.Flags().BoolVar(&f.json, "json", false, "render as a JSON chat message array")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "fail when a placeholder has no value")
}

func (f *renderFlags) render(p models.Prompt) (string, error) {
	vars, err := renderer.ParseVars(f.vars)
	if err != nil {
		return "", err
	}
	r := renderer.NewRenderer(p)
	r.Strict = f.strict
	if f.json {
		return r.RenderJSON(vars)
	}
	return r.RenderText(vars)
}

func newRenderCmd(s *session) *cobra.Command {
	var f renderFlags

	cmd := &cobra.Command{
		Use:   "render <id>",
		Short: "Print a prompt with its variables filled in",
		Args:  cobra.ExactArgs(1),
		RunE: s.run(func(a *App, cmd *cobra.Command, args []string) error {
			p, err := lookup(a, args[0])
			if err != nil {
				return err
			}
			out, err := f.render(p)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, out)
			return nil
		}),
	}
	f.register(cmd)
	return cmd
}

func newCopyCmd(s *session) *cobra.Command {
	var f renderFlags

	cmd := &cobra.Command{
		Use:   "copy <id>",
		Short: "Copy a rendered prompt to the clipboard",
		Args:  cobra.ExactArgs(1),
		RunE: s.run(func(a *App, cmd *cobra.Command, args []string) error {
			p, err := lookup(a, args[0])
			if err != nil {
				return err
			}
			content, err := f.render(p)
			if err != nil {
				return err
			}

			method, err := a.copier.Copy(content)
			if err != nil {
				// the rendered text is still useful on stdout
				fmt.Fprintf(a.errOut, "Warning: %v\n", err)
				fmt.Fprintln(a.out, content)
				return nil
			}
			fmt.Fprintf(a.out, "Copied %q to clipboard (%s)\n", p.DisplayTitle(), method)
			return nil
		}),
	}
	f.register(cmd)
	return cmd
}

func newStatsCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count prompts by category, recommended AI and tag",
		Args:  cobra.NoArgs,
		RunE: s.run(func(a *App, cmd *cobra.Command, args []string) error {
			return writeStats(a.out, a.svc.Stats(), a.format)
		}),
	}
}

func newStatusCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show where the library was loaded from and whether it is durable",
		Args:  cobra.NoArgs,
		RunE: s.run(func(a *App, cmd *cobra.Command, args []string) error {
			return writeStatus(a, a.svc.Status())
		}),
	}
}

func writeStatus(a *App, st service.Status) error {
	if a.format == "json" {
		type statusJSON struct {
			State            string `json:"state"`
			Source           string `json:"source"`
			Count            int    `json:"count"`
			Persistent       bool   `json:"persistent"`
			Database         string `json:"database"`
			RemoteConfigured bool   `json:"remoteConfigured"`
			RemoteEndpoint   string `json:"remoteEndpoint,omitempty"`
		}
		return writeJSON(a.out, statusJSON{
			State:            st.State.String(),
			Source:           st.Source,
			Count:            st.Count,
			Persistent:       st.Persistent,
			Database:         a.local.Path(),
			RemoteConfigured: st.RemoteConfigured,
			RemoteEndpoint:   st.RemoteEndpoint,
		})
	}

	fmt.Fprintf(a.out, "State:      %s\n", st.State)
	fmt.Fprintf(a.out, "Loaded from: %s\n", st.Source)
	fmt.Fprintf(a.out, "Prompts:    %d\n", st.Count)
	fmt.Fprintf(a.out, "Database:   %s\n", a.local.Path())
	if st.Persistent {
		fmt.Fprintln(a.out, "Storage:    durable")
	} else {
		fmt.Fprintln(a.out, "Storage:    not durable, data may be lost")
	}
	if st.RemoteConfigured {
		fmt.Fprintf(a.out, "Remote:     %s\n", st.RemoteEndpoint)
	} else {
		fmt.Fprintln(a.out, "Remote:     not connected")
	}
	return nil
}

func lookup(a *App, id string) (models.Prompt, error) {
	p, ok := a.svc.Get(id)
	if !ok {
		return models.Prompt{}, errors.NotFoundError(fmt.Sprintf("prompt %q", id))
	}
	return p, nil
}

// confirm asks a yes/no question on the command's input
func confirm(a *App, question string) bool {
	fmt.Fprintf(a.out, "%s (y/N): ", question)
	line, _ := bufio.NewReader(a.in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// readInput reads a file, or stdin for "-"
func readInput(path string, in io.Reader) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(in)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, "Failed to read stdin")
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(err, errors.ErrCodeFileNotFound, fmt.Sprintf("File not found: %s", path))
		}
		return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, fmt.Sprintf("Failed to read %s", path))
	}
	return data, nil
}
