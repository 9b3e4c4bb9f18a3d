package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/spendline/spendline/internal/cli"
	"github.com/spendline/spendline/internal/tui/theme"
)

// Bar is one row of a horizontal bar chart.
type Bar struct {
	Label string
	Value decimal.Decimal
	Color lipgloss.Color
}

// HorizontalBars renders labelled bars scaled to the largest value, each
// followed by its amount and share of total.
func HorizontalBars(bars []Bar, total decimal.Decimal, width int) string {
	if len(bars) == 0 {
		return ""
	}
	t := theme.Active

	labelW := 0
	peak := decimal.Zero
	for _, b := range bars {
		labelW = max(labelW, lipgloss.Width(b.Label))
		if b.Value.GreaterThan(peak) {
			peak = b.Value
		}
	}

	// label, space, bar, space, "$12,345.67", space, "100.0%"
	barMax := width - labelW - 24
	if barMax < 5 {
		barMax = 5
	}

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface)

	lines := make([]string, 0, len(bars))
	for _, b := range bars {
		n := 0
		if peak.IsPositive() {
			ratio, _ := b.Value.Div(peak).Float64()
			n = int(math.Round(ratio * float64(barMax)))
		}
		share := 0.0
		if total.IsPositive() {
			share, _ = b.Value.Div(total).Float64()
		}
		color := b.Color
		if color == "" {
			color = t.Accent
		}
		barStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface)

		lines = append(lines,
			labelStyle.Render(fmt.Sprintf("%-*s ", labelW, b.Label))+
				barStyle.Render(strings.Repeat("█", n))+
				space.Render(strings.Repeat(" ", barMax-n+1))+
				valueStyle.Render(fmt.Sprintf("%11s", cli.FormatMoney(b.Value)))+
				dimStyle.Render(fmt.Sprintf(" %6s", cli.FormatPercent(share))))
	}
	return strings.Join(lines, "\n")
}

// DailyChart renders one column per day of the month, scaled to the busiest
// day, with day-of-month labels every five days.
func DailyChart(values []float64, width, height int) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active
	if height < 2 {
		height = 2
	}

	peak := 0.0
	for _, v := range values {
		peak = math.Max(peak, v)
	}
	if peak == 0 {
		peak = 1
	}

	yLabel := cli.FormatMoney(decimal.NewFromFloat(peak))
	yW := lipgloss.Width(yLabel) + 1
	colW := (width - yW - 1) / len(values)
	if colW < 1 {
		colW = 1
	}
	if colW > 3 {
		colW = 3
	}

	blocks := []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	axisStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	barStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)

	var b strings.Builder
	for row := height; row >= 1; row-- {
		label := ""
		if row == height {
			label = yLabel
		}
		b.WriteString(axisStyle.Render(fmt.Sprintf("%*s│", yW, label)))

		var line strings.Builder
		for _, v := range values {
			cells := v / peak * float64(height)
			fill := cells - float64(row-1)
			var r rune
			switch {
			case fill >= 1:
				r = '█'
			case fill <= 0:
				r = ' '
			default:
				r = blocks[int(math.Max(1, fill*8))]
			}
			line.WriteString(strings.Repeat(string(r), colW))
		}
		b.WriteString(barStyle.Render(line.String()))
		b.WriteString("\n")
	}

	axisLen := colW * len(values)
	b.WriteString(axisStyle.Render(fmt.Sprintf("%*s└%s", yW, "0", strings.Repeat("─", axisLen))))
	b.WriteString("\n")

	labels := []byte(strings.Repeat(" ", axisLen))
	for day := 1; day <= len(values); day++ {
		if day != 1 && day%5 != 0 {
			continue
		}
		s := fmt.Sprint(day)
		pos := (day - 1) * colW
		if pos+len(s) <= axisLen {
			copy(labels[pos:], s)
		}
	}
	b.WriteString(axisStyle.Render(strings.Repeat(" ", yW+1) + strings.TrimRight(string(labels), " ")))

	return b.String()
}
