package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/spendline/spendline/internal/cli"
	"github.com/spendline/spendline/internal/model"
	"github.com/spendline/spendline/internal/query"
	"github.com/spendline/spendline/internal/tui/components"
	"github.com/spendline/spendline/internal/tui/theme"
)

// categoryCycle is the order the f key steps through; the empty category
// means no filter.
var categoryCycle = append([]model.Category{""}, model.Categories...)

func (a App) visibleExpenses() []model.Expense {
	return a.ws.Expenses.Query(a.q)
}

func (a App) updateExpenses(key string) (tea.Model, tea.Cmd) {
	n := len(a.visibleExpenses())

	switch key {
	case "j", "down":
		if a.expCursor < n-1 {
			a.expCursor++
		}
	case "k", "up":
		if a.expCursor > 0 {
			a.expCursor--
		}
	case "g":
		a.expCursor = 0
	case "G":
		a.expCursor = max(0, n-1)
	case "d":
		a.q.Sort = a.q.Sort.Toggle(query.ByDate)
	case "a":
		a.q.Sort = a.q.Sort.Toggle(query.ByAmount)
	case "c":
		a.q.Sort = a.q.Sort.Toggle(query.ByCategory)
	case "f":
		a.catCursor = (a.catCursor + 1) % len(categoryCycle)
		a.q.Category = categoryCycle[a.catCursor]
		a.expCursor = 0
	case "x":
		if !a.signedIn {
			return a, nil
		}
		list := a.visibleExpenses()
		if a.expCursor >= len(list) {
			return a, nil
		}
		e := list[a.expCursor]
		svc := a.ws.Expenses
		return a.mutate(func(ctx context.Context) (string, error) {
			if err := svc.Delete(ctx, e.ID); err != nil {
				return "", err
			}
			return fmt.Sprintf("deleted %q", e.Description), nil
		})
	}
	return a, nil
}

func (a App) renderExpensesTab(cw, h int) string {
	t := theme.Active
	list := a.visibleExpenses()

	total := sumAmounts(list)
	filter := "all categories"
	if a.q.Category != "" {
		filter = a.q.Category.String()
	}

	metrics := []components.Metric{
		{Label: "Shown", Value: cli.FormatNumber(int64(len(list))), Note: filter},
		{Label: "Total", Value: cli.FormatMoney(total), Color: t.Green},
		{Label: "Sorted by", Value: a.q.Sort.String(), Note: "d/a/c to change"},
	}

	var b strings.Builder
	b.WriteString(components.MetricRow(metrics, cw))
	b.WriteString("\n")

	inner := components.CardInnerWidth(cw)
	rows := h - lipgloss.Height(b.String()) - 4
	b.WriteString(components.ContentCard("Expenses", a.expenseRows(list, inner, rows), cw))
	return b.String()
}

func (a App) expenseRows(list []model.Expense, width, height int) string {
	t := theme.Active
	if !a.ws.Expenses.Cache().Loaded() {
		return lipgloss.NewStyle().Foreground(t.TextDim).Render("loading…")
	}
	if len(list) == 0 {
		return lipgloss.NewStyle().Foreground(t.TextDim).Render("no expenses")
	}

	descW := width - 10 - 16 - 14 - 6
	if descW < 10 {
		descW = 10
	}

	headStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	selStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceHover).Bold(true)

	cols := func(date, desc string) string {
		return fmt.Sprintf("%-10s  %-*s  ", date, descW, cli.Truncate(desc, descW))
	}

	var b strings.Builder
	b.WriteString(headStyle.Render(cols("Date", "Description") + fmt.Sprintf("%-14s  %12s", "Category", "Amount")))

	start, end := window(a.expCursor, len(list), height-1)
	for i := start; i < end; i++ {
		e := list[i]
		style := rowStyle
		if i == a.expCursor {
			style = selStyle
		}
		catStyle := style.Foreground(t.Category(e.Category))
		b.WriteString("\n")
		b.WriteString(style.Render(cols(cli.FormatDate(e.Date.Time), e.Description)))
		b.WriteString(catStyle.Render(fmt.Sprintf("%-14s  ", e.Category)))
		b.WriteString(style.Render(fmt.Sprintf("%12s", cli.FormatMoney(e.Amount))))
	}
	return b.String()
}

func sumAmounts(list []model.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range list {
		total = total.Add(e.Amount)
	}
	return total
}
