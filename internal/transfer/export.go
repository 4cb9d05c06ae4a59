// Package transfer moves prompt collections in and out of the library as files.
package transfer

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dpshade/promptlib/internal/errors"
	"github.com/dpshade/promptlib/internal/models"
)

// Format is a backup file encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "json", "yaml" or "yml" in any case
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", errors.NewAppError(errors.ErrCodeInvalidInput, fmt.Sprintf("unsupported format %q", s)).
			WithDetails("use json or yaml")
	}
}

// ExportFilename returns the date-stamped backup name for t
func ExportFilename(t time.Time, format Format) string {
	ext := "json"
	if format == FormatYAML {
		ext = "yaml"
	}
	return fmt.Sprintf("prompt-library-backup-%s.%s", t.Format("2006-01-02"), ext)
}

// Export writes the full collection to w. Slices are always written as arrays, never null.
func Export(w io.Writer, prompts []models.Prompt, format Format) error {
	out := models.CloneAll(prompts)
	for i := range out {
		out[i].Normalize()
	}

	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to encode backup")
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to encode backup")
		}
		return nil
	}
}
