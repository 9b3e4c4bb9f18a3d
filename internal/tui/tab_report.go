package tui

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/spendline/spendline/internal/cli"
	"github.com/spendline/spendline/internal/model"
	"github.com/spendline/spendline/internal/report"
	"github.com/spendline/spendline/internal/tui/components"
	"github.com/spendline/spendline/internal/tui/theme"
)

func (a App) updateReport(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "[", "h":
		a.year, a.month = report.Shift(a.year, a.month, -1)
		a.report = nil
		return a, a.selectMonth()
	case "]", "l":
		a.year, a.month = report.Shift(a.year, a.month, 1)
		a.report = nil
		return a, a.selectMonth()
	case "e":
		if a.report == nil {
			return a, nil
		}
		r := *a.report
		return a.mutate(func(context.Context) (string, error) {
			return exportReport(r)
		})
	}
	return a, nil
}

// exportReport writes r into the working directory under its default file name.
func exportReport(r model.MonthlyReport) (string, error) {
	name := report.Filename(r.Year, r.Month)
	f, err := os.Create(name) //nolint:gosec // fixed name in the working directory
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", name, err)
	}
	if err := report.WriteCSV(f, r); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("writing %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("writing %s: %w", name, err)
	}
	return fmt.Sprintf("exported %d expenses to %s", r.ExpenseCount, name), nil
}

func (a App) renderReportTab(cw int) string {
	t := theme.Active
	title := monthLabel(a.year, a.month)

	if a.report == nil {
		return components.ContentCard(title,
			a.spinner.View()+lipgloss.NewStyle().Foreground(t.TextDim).Render(" loading report…"), cw)
	}
	r := *a.report

	var b strings.Builder

	metrics := []components.Metric{
		{Label: title, Value: cli.FormatMoney(r.TotalExpenses), Note: "[ ] to change month", Color: t.Green},
		{Label: "Expenses", Value: cli.FormatNumber(int64(r.ExpenseCount))},
	}
	var budgetLine string
	if u, ok := a.ws.Session.User(); ok {
		remaining := u.MonthlyBudget.Sub(r.TotalExpenses)
		color := t.TextPrimary
		if remaining.IsNegative() {
			color = t.Red
		}
		metrics = append(metrics, components.Metric{
			Label: "Remaining", Value: cli.FormatMoney(remaining),
			Note: "of " + cli.FormatMoney(u.MonthlyBudget), Color: color,
		})
		budgetLine = components.BudgetBar(r.TotalExpenses, u.MonthlyBudget, components.CardInnerWidth(cw))
	}
	b.WriteString(components.MetricRow(metrics, cw))
	b.WriteString("\n")

	if budgetLine != "" {
		b.WriteString(components.ContentCard("Budget", budgetLine, cw))
		b.WriteString("\n")
	}

	if r.ExpenseCount == 0 {
		b.WriteString(components.ContentCard("Breakdown",
			lipgloss.NewStyle().Foreground(t.TextDim).Render("no expenses this month"), cw))
		return b.String()
	}

	halves := components.LayoutRow(cw, 2)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		components.ContentCard("By category", components.HorizontalBars(categoryBars(r), r.TotalExpenses,
			components.CardInnerWidth(halves[0])), halves[0]),
		components.ContentCard("By day", components.DailyChart(dailyValues(r),
			components.CardInnerWidth(halves[1]), 6), halves[1]),
	))
	return b.String()
}

// categoryBars orders the breakdown largest first, ties by name.
func categoryBars(r model.MonthlyReport) []components.Bar {
	t := theme.Active
	bars := make([]components.Bar, 0, len(r.CategoryBreakdown))
	for c, v := range r.CategoryBreakdown {
		bars = append(bars, components.Bar{Label: c.String(), Value: v, Color: t.Category(c)})
	}
	sort.Slice(bars, func(i, j int) bool {
		if !bars[i].Value.Equal(bars[j].Value) {
			return bars[i].Value.GreaterThan(bars[j].Value)
		}
		return bars[i].Label < bars[j].Label
	})
	return bars
}

// dailyValues spreads the daily breakdown over every day of the month.
func dailyValues(r model.MonthlyReport) []float64 {
	days := time.Date(r.Year, r.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	values := make([]float64, days)
	for day, v := range r.DailyBreakdown {
		if day >= 1 && day <= days {
			values[day-1], _ = v.Float64()
		}
	}
	return values
}
