// Package ui is the interactive terminal browser for the prompt library.
package ui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/dpshade/promptlib/internal/clipboard"
	"github.com/dpshade/promptlib/internal/models"
	"github.com/dpshade/promptlib/internal/renderer"
	"github.com/dpshade/promptlib/internal/service"
)

// Library is the part of the service the browser uses
type Library interface {
	Prompts() []models.Prompt
	Status() service.Status
	Delete(id string) error
	FilterByTags(expr *models.TagExpr) []models.Prompt
}

// Copier puts text on the clipboard
type Copier interface {
	Copy(text string) (clipboard.Method, error)
}

// ViewMode is the screen currently shown
type ViewMode int

const (
	ViewLibrary ViewMode = iota
	ViewDetail
	ViewConfirmDelete
	ViewTagQuery
)

// item adapts a prompt to the bubbles list
type item struct{ p models.Prompt }

func (i item) Title() string       { return i.p.DisplayTitle() }
func (i item) Description() string { return i.p.Summary() }
func (i item) FilterValue() string { return i.p.FilterValue() }

type keyMap struct {
	View    key.Binding
	Copy    key.Binding
	CopyAll key.Binding
	Delete  key.Binding
	Tags    key.Binding
	Back    key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	View:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "view")),
	Copy:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy")),
	CopyAll: key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy JSON")),
	Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Tags:    key.NewBinding(key.WithKeys("ctrl+f"), key.WithHelp("ctrl+f", "tag filter")),
	Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// Model is the bubbletea model of the browser
type Model struct {
	lib    Library
	copier Copier

	mode     ViewMode
	list     list.Model
	viewport viewport.Model
	glamour  *glamour.TermRenderer

	selected *models.Prompt
	expr     *models.TagExpr
	query    string

	status     string
	statusKind statusKind
	statusSeq  int

	width, height int
}

// createGlamourRenderer picks a markdown style for the terminal. GLAMOUR_STYLE overrides
// detection.
func createGlamourRenderer(wordWrap int) (*glamour.TermRenderer, error) {
	if style := os.Getenv("GLAMOUR_STYLE"); style != "" {
		return glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(wordWrap),
		)
	}

	profile := termenv.ColorProfile()
	style := glamour.WithAutoStyle()
	if profile == termenv.TrueColor || profile == termenv.ANSI256 {
		if lipgloss.HasDarkBackground() {
			style = glamour.WithStandardStyle("dark")
		} else {
			style = glamour.WithStandardStyle("light")
		}
	}
	return glamour.NewTermRenderer(
		style,
		glamour.WithColorProfile(profile),
		glamour.WithWordWrap(wordWrap),
	)
}

// NewModel creates the browser over lib
func NewModel(lib Library, copier Copier) (*Model, error) {
	l := list.New(nil, list.NewDefaultDelegate(), 80, 20)
	l.Title = ""
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)

	km := list.DefaultKeyMap()
	km.Filter = key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter"))
	km.Quit = key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit"))
	l.KeyMap = km

	vp := viewport.New(80, 20)
	vp.Style = lipgloss.NewStyle()

	r, err := createGlamourRenderer(60)
	if err != nil {
		return nil, fmt.Errorf("failed to create glamour renderer: %w", err)
	}

	m := &Model{
		lib:      lib,
		copier:   copier,
		mode:     ViewLibrary,
		list:     l,
		viewport: vp,
		glamour:  r,
	}
	m.reload()
	return m, nil
}

// Run shows the browser until the user quits or ctx is cancelled
func Run(ctx context.Context, lib Library, copier Copier) error {
	m, err := NewModel(lib, copier)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m *Model) reload() {
	prompts := m.lib.FilterByTags(m.expr)
	items := make([]list.Item, len(prompts))
	for i, p := range prompts {
		items[i] = item{p: p}
	}
	m.list.SetItems(items)
}

// clearStatusMsg clears the status line unless a newer status replaced it
type clearStatusMsg struct{ seq int }

func (m *Model) setStatus(text string, kind statusKind) tea.Cmd {
	m.status, m.statusKind = text, kind
	m.statusSeq++
	seq := m.statusSeq
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg { return clearStatusMsg{seq: seq} })
}

func (m Model) Init() tea.Cmd {
	st := m.lib.Status()
	if !st.Persistent {
		return m.setStatusOnce("Storage is not durable; changes may be lost", statusWarning)
	}
	return nil
}

func (m Model) setStatusOnce(text string, kind statusKind) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text, kind: kind} }
}

type statusMsg struct {
	text string
	kind statusKind
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case statusMsg:
		return m, m.setStatus(msg.text, msg.kind)

	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ViewDetail:
			return m.updateDetail(msg)
		case ViewConfirmDelete:
			return m.updateConfirm(msg)
		case ViewTagQuery:
			return m.updateTagQuery(msg)
		default:
			return m.updateLibrary(msg)
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.list.SetSize(width-4, height-6)

	vpWidth := max(width-8, 40)
	m.viewport.Width = vpWidth
	m.viewport.Height = max(height-10, 5)
	if r, err := createGlamourRenderer(vpWidth); err == nil {
		m.glamour = r
	}
	if m.selected != nil {
		m.viewport.SetContent(m.preview(*m.selected))
	}
}

func (m Model) updateLibrary(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// keys belong to the filter input while it is focused
	if m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.View):
		if p, ok := m.current(); ok {
			m.selected = &p
			m.viewport.SetContent(m.preview(p))
			m.viewport.GotoTop()
			m.mode = ViewDetail
		}
		return m, nil
	case key.Matches(msg, keys.Copy):
		if p, ok := m.current(); ok {
			return m, m.copy(p, false)
		}
		return m, nil
	case key.Matches(msg, keys.Delete):
		if p, ok := m.current(); ok {
			m.selected = &p
			m.mode = ViewConfirmDelete
		}
		return m, nil
	case key.Matches(msg, keys.Tags):
		m.mode = ViewTagQuery
		return m, nil
	case key.Matches(msg, keys.Back) && m.expr != nil:
		m.expr, m.query = nil, ""
		m.reload()
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back), msg.String() == "q":
		m.mode = ViewLibrary
		m.selected = nil
		return m, nil
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	case key.Matches(msg, keys.Copy):
		return m, m.copy(*m.selected, false)
	case key.Matches(msg, keys.CopyAll):
		return m, m.copy(*m.selected, true)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.selected
	m.mode = ViewLibrary
	m.selected = nil

	if msg.String() != "y" || p == nil {
		return m, m.setStatus("Delete cancelled", statusInfo)
	}
	if err := m.lib.Delete(p.ID); err != nil {
		return m, m.setStatus(err.Error(), statusError)
	}
	m.reload()
	return m, m.setStatus(fmt.Sprintf("Deleted %s", p.DisplayTitle()), statusSuccess)
}

func (m Model) updateTagQuery(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = ViewLibrary
		return m, nil
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEnter:
		expr, err := models.ParseTagExpr(m.query)
		if err != nil {
			return m, m.setStatus(err.Error(), statusError)
		}
		m.expr = expr
		m.mode = ViewLibrary
		m.reload()
		return m, nil
	case tea.KeyBackspace:
		if r := []rune(m.query); len(r) > 0 {
			m.query = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.query += " "
	case tea.KeyRunes:
		m.query += string(msg.Runes)
	}
	return m, nil
}

func (m *Model) current() (models.Prompt, bool) {
	it, ok := m.list.SelectedItem().(item)
	if !ok {
		return models.Prompt{}, false
	}
	return it.p, true
}

func (m *Model) copy(p models.Prompt, asJSON bool) tea.Cmd {
	r := renderer.NewRenderer(p)
	var (
		text string
		err  error
	)
	if asJSON {
		text, err = r.RenderJSON(nil)
	} else {
		text, err = r.RenderText(nil)
	}
	if err != nil {
		return m.setStatus(err.Error(), statusError)
	}

	method, err := m.copier.Copy(text)
	if err != nil {
		return m.setStatus(err.Error(), statusError)
	}
	return m.setStatus(fmt.Sprintf("Copied %s (%s)", p.DisplayTitle(), method), statusSuccess)
}

// preview renders the prompt as markdown
func (m *Model) preview(p models.Prompt) string {
	var b strings.Builder
	if p.Objective != "" {
		fmt.Fprintf(&b, "**Objective:** %s\n\n", p.Objective)
	}
	if p.Persona != "" {
		fmt.Fprintf(&b, "**Persona:** %s\n\n", p.Persona)
	}
	if len(p.Variables) > 0 {
		fmt.Fprintf(&b, "**Variables:** %s\n\n", strings.Join(p.Variables, ", "))
	}
	b.WriteString("```\n")
	b.WriteString(p.Content)
	b.WriteString("\n```\n")
	if p.UsageExamples != "" {
		fmt.Fprintf(&b, "\n## Examples\n\n%s\n", p.UsageExamples)
	}

	if m.glamour == nil {
		return b.String()
	}
	out, err := m.glamour.Render(b.String())
	if err != nil {
		return b.String()
	}
	return out
}

func (m Model) View() string {
	switch m.mode {
	case ViewDetail:
		return m.detailView()
	case ViewConfirmDelete:
		return m.confirmView()
	case ViewTagQuery:
		return m.tagQueryView()
	default:
		return m.libraryView()
	}
}

func (m Model) header() string {
	st := m.lib.Status()
	meta := fmt.Sprintf("%d prompts • from %s", st.Count, st.Source)
	if st.RemoteConfigured {
		meta += " • mirrored to " + st.RemoteEndpoint
	}
	return lipgloss.JoinVertical(lipgloss.Left, StyleTitle.Render("Prompt Library"), StyleMetadata.Render(meta))
}

func (m Model) libraryView() string {
	elements := []string{m.header()}
	if m.expr != nil {
		elements = append(elements, StyleSearchIndicator.Render("Tags: "+m.expr.String()+" (esc clears)"))
	}
	elements = append(elements, m.list.View())
	if m.status != "" {
		elements = append(elements, renderStatus(m.status, m.statusKind))
	}
	elements = append(elements, renderHelp(m.width, "enter view", "c copy", "d delete", "/ filter", "ctrl+f tags", "q quit"))
	return stylePadding.Render(lipgloss.JoinVertical(lipgloss.Left, elements...))
}

func (m Model) detailView() string {
	if m.selected == nil {
		return "No prompt selected"
	}
	p := *m.selected

	meta := fmt.Sprintf("ID: %s • %s", p.ID, p.Category)
	if p.RecommendedAI != "" {
		meta += " • " + string(p.RecommendedAI)
	}
	if len(p.Tags) > 0 {
		meta += " • Tags: " + joinTags(p.Tags)
	}

	top, bottom := renderScrollIndicators(!m.viewport.AtTop(), !m.viewport.AtBottom(), m.viewport.Width)
	content := StyleContentContainer.Render(lipgloss.JoinVertical(lipgloss.Left, top, m.viewport.View(), bottom))

	elements := []string{StyleTitle.Render(p.DisplayTitle()), StyleMetadata.Render(meta), content}
	if m.status != "" {
		elements = append(elements, renderStatus(m.status, m.statusKind))
	}
	elements = append(elements, renderHelp(m.width, "c copy", "y copy JSON", "↑/↓ scroll", "esc back"))
	return stylePadding.Render(lipgloss.JoinVertical(lipgloss.Left, elements...))
}

func (m Model) confirmView() string {
	name := ""
	if m.selected != nil {
		name = m.selected.DisplayTitle()
	}
	return stylePadding.Render(lipgloss.JoinVertical(lipgloss.Left,
		m.header(),
		StyleWarning.Render(fmt.Sprintf("Delete %q?", name)),
		renderHelp(m.width, "y confirm", "any other key cancels"),
	))
}

func (m Model) tagQueryView() string {
	return stylePadding.Render(lipgloss.JoinVertical(lipgloss.Left,
		m.header(),
		StyleSearchIndicator.Render("Tag expression: "+m.query+"█"),
		StyleMetadata.Render(`e.g. ai AND (writing OR "code review") AND NOT draft`),
		renderHelp(m.width, "enter apply", "esc cancel"),
	))
}
