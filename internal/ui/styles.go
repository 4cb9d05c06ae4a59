package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Colors adapt to the terminal background
var (
	ColorPrimary   = lipgloss.AdaptiveColor{Light: "125", Dark: "205"}
	ColorSecondary = lipgloss.AdaptiveColor{Light: "25", Dark: "33"}
	ColorAccent    = lipgloss.AdaptiveColor{Light: "130", Dark: "214"}

	ColorSuccess = lipgloss.AdaptiveColor{Light: "28", Dark: "10"}
	ColorWarning = lipgloss.AdaptiveColor{Light: "136", Dark: "11"}
	ColorError   = lipgloss.AdaptiveColor{Light: "124", Dark: "9"}

	ColorText      = lipgloss.AdaptiveColor{Light: "235", Dark: "252"}
	ColorTextMuted = lipgloss.AdaptiveColor{Light: "240", Dark: "244"}
	ColorTextDim   = lipgloss.AdaptiveColor{Light: "245", Dark: "240"}
	ColorBorder    = lipgloss.AdaptiveColor{Light: "250", Dark: "238"}
)

var (
	StyleTitle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true).
			Padding(0, 1)

	StyleMetadata = lipgloss.NewStyle().
			Foreground(ColorTextDim).
			Padding(0, 1)

	StyleHelp = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	StyleSuccess = lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true).
			Padding(0, 1)

	StyleWarning = lipgloss.NewStyle().
			Foreground(ColorWarning).
			Bold(true).
			Padding(0, 1)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true).
			Padding(0, 1)

	StyleSearchIndicator = lipgloss.NewStyle().
				Foreground(ColorAccent).
				Bold(true).
				Padding(0, 1)

	// Content container for prompt previews
	StyleContentContainer = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorBorder).
				Padding(0, 1)

	StyleScrollIndicator = lipgloss.NewStyle().
				Foreground(ColorSecondary).
				Align(lipgloss.Center)

	stylePadding = lipgloss.NewStyle().Padding(1, 2)
)

// statusKind selects the style of a status line
type statusKind int

const (
	statusInfo statusKind = iota
	statusSuccess
	statusWarning
	statusError
)

func renderStatus(text string, kind statusKind) string {
	switch kind {
	case statusSuccess:
		return StyleSuccess.Render("✓ " + text)
	case statusWarning:
		return StyleWarning.Render("⚠ " + text)
	case statusError:
		return StyleError.Render("✗ " + text)
	default:
		return StyleMetadata.Render(text)
	}
}

// renderHelp joins key hints, dropping trailing ones that do not fit width
func renderHelp(width int, hints ...string) string {
	line := ""
	for _, h := range hints {
		next := h
		if line != "" {
			next = line + " • " + h
		}
		if width > 0 && lipgloss.Width(next)+4 > width {
			break
		}
		line = next
	}
	return StyleHelp.Render(line)
}

func renderScrollIndicators(up, down bool, width int) (string, string) {
	style := StyleScrollIndicator.Width(max(width, 1))
	top, bottom := "", ""
	if up {
		top = style.Render("▲ more above")
	}
	if down {
		bottom = style.Render("▼ more below")
	}
	return top, bottom
}

func joinTags(tags []string) string {
	return strings.Join(tags, ", ")
}
