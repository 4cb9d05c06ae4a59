package ui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dpshade/promptlib/internal/clipboard"
	"github.com/dpshade/promptlib/internal/models"
	"github.com/dpshade/promptlib/internal/service"
)

type fakeLibrary struct {
	prompts []models.Prompt
}

func (f *fakeLibrary) Prompts() []models.Prompt { return models.CloneAll(f.prompts) }

func (f *fakeLibrary) Status() service.Status {
	return service.Status{State: service.StateReady, Source: "local", Count: len(f.prompts), Persistent: true}
}

func (f *fakeLibrary) Delete(id string) error {
	for i, p := range f.prompts {
		if p.ID == id {
			f.prompts = append(f.prompts[:i], f.prompts[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

func (f *fakeLibrary) FilterByTags(expr *models.TagExpr) []models.Prompt {
	var out []models.Prompt
	for _, p := range f.prompts {
		if expr.Match(p.Tags) {
			out = append(out, p)
		}
	}
	return out
}

type fakeCopier struct {
	copied []string
	err    error
}

func (f *fakeCopier) Copy(text string) (clipboard.Method, error) {
	if f.err != nil {
		return "", f.err
	}
	f.copied = append(f.copied, text)
	return clipboard.MethodSystem, nil
}

func newTestModel(t *testing.T) (Model, *fakeLibrary, *fakeCopier) {
	t.Helper()
	lib := &fakeLibrary{prompts: models.Seed()}
	cp := &fakeCopier{}
	m, err := NewModel(lib, cp)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model), lib, cp
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "ctrl+f":
			msg = tea.KeyMsg{Type: tea.KeyCtrlF}
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestBrowserListsEveryPrompt(t *testing.T) {
	m, lib, _ := newTestModel(t)
	if got := len(m.list.Items()); got != len(lib.prompts) {
		t.Fatalf("list has %d items, want %d", got, len(lib.prompts))
	}
	if !strings.Contains(m.View(), "4 prompts") {
		t.Errorf("header should show the prompt count:\n%s", m.View())
	}
}

func TestEnterOpensDetailAndEscReturns(t *testing.T) {
	m, lib, _ := newTestModel(t)

	m = press(m, "enter")
	if m.mode != ViewDetail {
		t.Fatalf("mode = %v, want detail", m.mode)
	}
	if m.selected == nil || m.selected.ID != lib.prompts[0].ID {
		t.Fatalf("selected = %+v", m.selected)
	}

	m = press(m, "esc")
	if m.mode != ViewLibrary || m.selected != nil {
		t.Errorf("esc should return to the library")
	}
}

func TestCopyUsesRenderedContent(t *testing.T) {
	m, lib, cp := newTestModel(t)

	m = press(m, "c")
	if len(cp.copied) != 1 || cp.copied[0] != lib.prompts[0].Content {
		t.Fatalf("copied = %q", cp.copied)
	}
	if m.statusKind != statusSuccess {
		t.Errorf("status kind = %v, want success", m.statusKind)
	}

	cp.err = errors.New("no clipboard")
	m = press(m, "c")
	if m.statusKind != statusError {
		t.Errorf("a failed copy should show an error status")
	}
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	m, lib, _ := newTestModel(t)
	first := lib.prompts[0].ID

	m = press(m, "d", "n")
	if len(lib.prompts) != 4 {
		t.Fatalf("delete without confirmation removed a prompt")
	}

	m = press(m, "d", "y")
	if len(lib.prompts) != 3 || lib.prompts[0].ID == first {
		t.Fatalf("prompt %s not deleted", first)
	}
	if len(m.list.Items()) != 3 {
		t.Errorf("list not refreshed: %d items", len(m.list.Items()))
	}
}

func TestTagQueryFiltersList(t *testing.T) {
	m, lib, _ := newTestModel(t)
	lib.prompts[0].Tags = []string{"keep"}
	m.reload()

	m = press(m, "ctrl+f", "keep", "enter")
	if m.expr == nil {
		t.Fatal("expression not applied")
	}
	if got := len(m.list.Items()); got != 1 {
		t.Fatalf("filtered list has %d items, want 1", got)
	}

	m = press(m, "esc")
	if got := len(m.list.Items()); got != 4 {
		t.Errorf("esc should clear the tag filter, got %d items", got)
	}
}
