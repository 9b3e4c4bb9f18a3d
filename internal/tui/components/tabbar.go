package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/spendline/spendline/internal/tui/theme"
)

// Tab is a single entry of the tab bar.
type Tab struct {
	Name string
	Key  string
}

// Tabs defines all available tabs, in display order.
var Tabs = []Tab{
	{Name: "Expenses", Key: "1"},
	{Name: "Report", Key: "2"},
	{Name: "Notifications", Key: "3"},
}

// TabIdxByKey returns the tab index for a key press, or -1.
func TabIdxByKey(key string) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}

// tabLabel is the text of a tab before styling. The notifications tab
// carries the unread badge.
func tabLabel(i int, badge int) string {
	label := Tabs[i].Key + " " + Tabs[i].Name
	if i == 2 && badge > 0 {
		label += " (" + strconv.Itoa(badge) + ")"
	}
	return label
}

// TabVisualWidth returns the rendered width of tab i, padding included.
func TabVisualWidth(i int, badge int) int {
	return lipgloss.Width(tabLabel(i, badge)) + 2
}

// RenderTabBar renders the tab row. badge is the unread notification count.
func RenderTabBar(activeIdx, badge, width int) string {
	t := theme.Active

	activeStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.SurfaceHover).
		Bold(true).
		Padding(0, 1)

	inactiveStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface).
		Padding(0, 1)

	sepStyle := lipgloss.NewStyle().
		Foreground(t.Border).
		Background(t.Surface)

	parts := make([]string, 0, len(Tabs))
	for i := range Tabs {
		style := inactiveStyle
		if i == activeIdx {
			style = activeStyle
		}
		parts = append(parts, style.Render(tabLabel(i, badge)))
	}

	row := strings.Join(parts, sepStyle.Render("│"))
	return lipgloss.NewStyle().Background(t.Surface).Width(width).Render(row)
}
