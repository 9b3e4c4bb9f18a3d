package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/spendline/spendline/internal/tui/theme"
)

// Status is what the bottom bar reports.
type Status struct {
	User    string // signed-in username, empty when signed out
	Message string // last action result
	IsError bool
	Busy    bool
	Age     string // time since the last reload
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, s Status) string {
	t := theme.Active

	barStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)
	keyStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface)
	msgStyle := lipgloss.NewStyle().
		Foreground(t.TextPrimary).
		Background(t.Surface)
	if s.IsError {
		msgStyle = msgStyle.Foreground(t.Red)
	}

	left := keyStyle.Render(" [?]") + barStyle.Render("help ") +
		keyStyle.Render("[q]") + barStyle.Render("uit")
	if s.Message != "" {
		left += barStyle.Render("  ") + msgStyle.Render(s.Message)
	}

	right := ""
	if s.Busy {
		right += keyStyle.Render("working… ")
	}
	if s.User != "" {
		right += barStyle.Render(s.User + " ")
	}
	if s.Age != "" {
		right += barStyle.Render("· " + s.Age + " ")
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}
	gap := lipgloss.NewStyle().Background(t.Surface).Width(padding).Render("")

	return lipgloss.NewStyle().MaxWidth(width).Render(left + gap + right)
}
