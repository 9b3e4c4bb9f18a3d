package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/spendline/spendline/internal/cli"
	"github.com/spendline/spendline/internal/tui/theme"
)

// ColorForPct returns green/yellow/orange/red by how much of the budget is used.
func ColorForPct(pct float64) lipgloss.Color {
	t := theme.Active
	switch {
	case pct >= 1:
		return t.Red
	case pct >= 0.8:
		return t.Orange
	case pct >= 0.5:
		return t.Yellow
	default:
		return t.Green
	}
}

// BudgetBar renders spent against budget as a bar followed by the amounts.
// A zero budget renders the spent amount only.
func BudgetBar(spent, budget decimal.Decimal, width int) string {
	t := theme.Active
	textStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	if !budget.IsPositive() {
		return textStyle.Render(cli.FormatMoney(spent) + " spent, no budget set")
	}

	pct, _ := spent.Div(budget).Float64()
	shown := pct
	if shown > 1 {
		shown = 1
	}
	if shown < 0 {
		shown = 0
	}

	barW := width - 34
	if barW < 10 {
		barW = 10
	}

	bar := progress.New(
		progress.WithSolidFill(string(ColorForPct(pct))),
		progress.WithWidth(barW),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	pctStyle := lipgloss.NewStyle().Foreground(ColorForPct(pct)).Background(t.Surface).Bold(true)

	return bar.ViewAs(shown) +
		textStyle.Render(" ") +
		pctStyle.Render(fmt.Sprintf("%3.0f%%", pct*100)) +
		textStyle.Render(fmt.Sprintf("  %s / %s", cli.FormatMoney(spent), cli.FormatMoney(budget)))
}
