package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/dpshade/promptlib/internal/errors"
	"github.com/dpshade/promptlib/internal/models"
	"github.com/dpshade/promptlib/internal/service"
)

func checkFormat(format string) error {
	switch format {
	case "", "text", "table", "json", "ids":
		return nil
	}
	return errors.NewAppError(errors.ErrCodeInvalidInput, fmt.Sprintf("unknown output format %q", format)).
		WithDetails("use text, table, json or ids")
}

// writePrompts prints a list of prompts in the requested format
func writePrompts(w io.Writer, prompts []models.Prompt, format string) error {
	if err := checkFormat(format); err != nil {
		return err
	}

	switch format {
	case "json":
		return writeJSON(w, prompts)
	case "ids":
		for _, p := range prompts {
			fmt.Fprintln(w, p.ID)
		}
	case "table":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tAI\tTAGS")
		for _, p := range prompts {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				truncate(p.ID, 12), truncate(p.DisplayTitle(), 36), p.Category, p.RecommendedAI, strings.Join(p.Tags, ", "))
		}
		return tw.Flush()
	default:
		if len(prompts) == 0 {
			fmt.Fprintln(w, "No prompts found")
			return nil
		}
		for _, p := range prompts {
			fmt.Fprintf(w, "%s - %s\n", p.ID, p.DisplayTitle())
			if p.Objective != "" {
				fmt.Fprintf(w, "  %s\n", p.Objective)
			}
			if len(p.Tags) > 0 {
				fmt.Fprintf(w, "  Tags: %s\n", strings.Join(p.Tags, ", "))
			}
			fmt.Fprintln(w)
		}
	}
	return nil
}

// writePrompt prints one prompt in full
func writePrompt(w io.Writer, p models.Prompt, format string) error {
	if err := checkFormat(format); err != nil {
		return err
	}

	switch format {
	case "json":
		return writeJSON(w, p)
	case "ids":
		fmt.Fprintln(w, p.ID)
	default:
		fmt.Fprintf(w, "ID: %s\n", p.ID)
		fmt.Fprintf(w, "Name: %s\n", p.Name)
		fmt.Fprintf(w, "Category: %s\n", p.Category)
		if p.Objective != "" {
			fmt.Fprintf(w, "Objective: %s\n", p.Objective)
		}
		if p.Persona != "" {
			fmt.Fprintf(w, "Persona: %s\n", p.Persona)
		}
		if p.InputType != "" {
			fmt.Fprintf(w, "Input: %s\n", p.InputType)
		}
		if p.RecommendedAI != "" {
			fmt.Fprintf(w, "Recommended AI: %s\n", p.RecommendedAI)
		}
		if p.Description != "" {
			fmt.Fprintf(w, "Description: %s\n", p.Description)
		}
		if len(p.Variables) > 0 {
			fmt.Fprintf(w, "Variables: %s\n", strings.Join(p.Variables, ", "))
		}
		if len(p.Tags) > 0 {
			fmt.Fprintf(w, "Tags: %s\n", strings.Join(p.Tags, ", "))
		}
		fmt.Fprintf(w, "\nContent:\n%s\n", p.Content)
		if p.UsageExamples != "" {
			fmt.Fprintf(w, "\nExamples:\n%s\n", p.UsageExamples)
		}
	}
	return nil
}

func writeStats(w io.Writer, st service.Stats, format string) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	if format == "json" {
		return writeJSON(w, st)
	}

	fmt.Fprintf(w, "Prompts: %d\n", st.Total)
	writeCounts(w, "Categories", st.Categories)
	writeCounts(w, "Recommended AI", st.Models)
	writeCounts(w, "Tags", st.Tags)
	return nil
}

// writeCounts prints a count map, largest first
func writeCounts[K ~string](w io.Writer, title string, counts map[K]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]K, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	fmt.Fprintf(w, "\n%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-40s %d\n", k, counts[k])
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
