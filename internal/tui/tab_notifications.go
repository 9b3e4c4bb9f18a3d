package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/spendline/spendline/internal/cli"
	"github.com/spendline/spendline/internal/tui/components"
	"github.com/spendline/spendline/internal/tui/theme"
)

func (a App) updateNotifications(key string) (tea.Model, tea.Cmd) {
	items := a.ws.Feed.Items()
	feed := a.ws.Feed

	switch key {
	case "j", "down":
		if a.noteCursor < len(items)-1 {
			a.noteCursor++
		}
	case "k", "up":
		if a.noteCursor > 0 {
			a.noteCursor--
		}
	case "m":
		if !a.signedIn || a.noteCursor >= len(items) || items[a.noteCursor].IsRead {
			return a, nil
		}
		n := items[a.noteCursor]
		return a.mutate(func(ctx context.Context) (string, error) {
			if err := feed.MarkRead(ctx, n.ID); err != nil {
				return "", err
			}
			return fmt.Sprintf("marked %q read", n.Title), nil
		})
	case "M":
		if !a.signedIn || feed.UnreadCount() == 0 {
			return a, nil
		}
		return a.mutate(func(ctx context.Context) (string, error) {
			n, err := feed.MarkAllRead(ctx)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("marked %d read", n), nil
		})
	case "x":
		if !a.signedIn || a.noteCursor >= len(items) {
			return a, nil
		}
		n := items[a.noteCursor]
		return a.mutate(func(ctx context.Context) (string, error) {
			if err := feed.Delete(ctx, n.ID); err != nil {
				return "", err
			}
			return fmt.Sprintf("deleted %q", n.Title), nil
		})
	}
	return a, nil
}

func (a App) renderNotificationsTab(cw, h int) string {
	t := theme.Active
	items := a.ws.Feed.Items()
	unread := a.ws.Feed.UnreadCount()

	var b strings.Builder
	b.WriteString(components.MetricRow([]components.Metric{
		{Label: "Notifications", Value: cli.FormatNumber(int64(len(items)))},
		{Label: "Unread", Value: cli.FormatNumber(int64(unread)), Color: t.Orange},
	}, cw))
	b.WriteString("\n")

	inner := components.CardInnerWidth(cw)
	dim := lipgloss.NewStyle().Foreground(t.TextDim)

	var body string
	switch {
	case !a.ws.Feed.Loaded():
		body = dim.Render("loading…")
	case len(items) == 0:
		body = dim.Render("nothing here")
	default:
		unreadStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Bold(true)
		readStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
		selStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceHover).Bold(true)

		rows := h - lipgloss.Height(b.String()) - 4
		start, end := window(a.noteCursor, len(items), rows)
		lines := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			n := items[i]
			mark := "  "
			style := readStyle
			if !n.IsRead {
				mark = "● "
				style = unreadStyle
			}
			if i == a.noteCursor {
				style = selStyle
			}
			when := n.CreatedAt.Format("2006-01-02 15:04")
			text := cli.Truncate(n.Title+": "+n.Message, inner-len(when)-4)
			lines = append(lines, style.Render(fmt.Sprintf("%s%-*s %s", mark, inner-len(when)-3, text, when)))
		}
		body = strings.Join(lines, "\n")
	}

	b.WriteString(components.ContentCard("Inbox", body, cw))
	return b.String()
}
