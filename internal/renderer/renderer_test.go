package renderer

import (
	"encoding/json"
	"testing"

	"github.com/dpshade/promptlib/internal/errors"
	"github.com/dpshade/promptlib/internal/models"
)

func TestRenderText(t *testing.T) {
	p := models.Prompt{Content: "Escribe sobre [Producto] para [Audiencia]. Repite [Producto]."}

	tests := []struct {
		name string
		vars map[string]string
		want string
	}{
		{"all filled", map[string]string{"Producto": "Café", "Audiencia": "CTOs"}, "Escribe sobre Café para CTOs. Repite Café."},
		{"partial keeps placeholder", map[string]string{"Producto": "Té"}, "Escribe sobre Té para [Audiencia]. Repite Té."},
		{"no vars", nil, p.Content},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewRenderer(p).RenderText(tt.vars)
			if err != nil {
				t.Fatalf("RenderText() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("RenderText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStrictRenderReportsMissing(t *testing.T) {
	r := NewRenderer(models.Prompt{Content: "[A] and [B] and [A]"})
	r.Strict = true

	_, err := r.RenderText(map[string]string{"B": "b"})
	if !errors.HasCode(err, errors.ErrCodeMissingField) {
		t.Fatalf("expected missing field error, got %v", err)
	}
	if got := r.Missing(map[string]string{"B": "b"}); len(got) != 1 || got[0] != "A" {
		t.Errorf("Missing() = %v", got)
	}
}

func TestRenderJSON(t *testing.T) {
	r := NewRenderer(models.Prompt{Persona: "Copywriter", Content: "Hola [X]"})

	out, err := r.RenderJSON(map[string]string{"X": "mundo"})
	if err != nil {
		t.Fatalf("RenderJSON() error = %v", err)
	}

	var msgs []Message
	if err := json.Unmarshal([]byte(out), &msgs); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Role != "system" || msgs[1].Content != "Hola mundo" {
		t.Errorf("unexpected messages %+v", msgs)
	}
}

func TestParseVars(t *testing.T) {
	vars, err := ParseVars([]string{"Producto=Café", "Nota=a=b", "Vacío="})
	if err != nil {
		t.Fatalf("ParseVars() error = %v", err)
	}
	if vars["Producto"] != "Café" || vars["Nota"] != "a=b" || vars["Vacío"] != "" {
		t.Errorf("unexpected vars %v", vars)
	}

	for _, bad := range []string{"novalue", "=x"} {
		if _, err := ParseVars([]string{bad}); !errors.HasCode(err, errors.ErrCodeInvalidInput) {
			t.Errorf("ParseVars(%q) expected invalid input, got %v", bad, err)
		}
	}
}
