package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/spendline/spendline/internal/model"
	"github.com/spendline/spendline/internal/tui/theme"
)

func TestLayoutRowSumsToTotal(t *testing.T) {
	for _, total := range []int{80, 81, 119, 180} {
		for n := 1; n <= 5; n++ {
			sum := 0
			for _, w := range LayoutRow(total, n) {
				sum += w
			}
			if sum != total {
				t.Fatalf("LayoutRow(%d, %d) sums to %d", total, n, sum)
			}
		}
	}
	if LayoutRow(80, 0) != nil {
		t.Fatal("LayoutRow(80, 0) should be nil")
	}
}

func TestMetricRowHeightMatchesTallestCard(t *testing.T) {
	theme.SetActive("flexoki-dark")
	row := MetricRow([]Metric{
		{Label: "Spent", Value: "$12.50", Note: "this month"},
		{Label: "Budget", Value: "$5,000.00"},
	}, 60)
	tall := MetricCard(Metric{Label: "Spent", Value: "$12.50", Note: "this month"}, 30)

	if got, want := lipgloss.Height(row), lipgloss.Height(tall); got != want {
		t.Errorf("row height = %d, want %d", got, want)
	}
	if !strings.Contains(row, "$5,000.00") {
		t.Errorf("row missing budget value:\n%s", row)
	}
}

func TestHorizontalBarsScaleToPeak(t *testing.T) {
	bars := []Bar{
		{Label: "Food", Value: decimal.RequireFromString("20"), Color: theme.Active.Category(model.Food)},
		{Label: "Transportation", Value: decimal.RequireFromString("40")},
	}
	out := HorizontalBars(bars, decimal.RequireFromString("60"), 80)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	food := strings.Count(lines[0], "█")
	transport := strings.Count(lines[1], "█")
	if transport == 0 || food*2 != transport {
		t.Errorf("bar lengths food=%d transport=%d, want 1:2", food, transport)
	}
	if !strings.Contains(lines[1], "66.7%") {
		t.Errorf("missing share: %q", lines[1])
	}
}

func TestDailyChartLabelsDays(t *testing.T) {
	values := make([]float64, 31)
	values[4] = 52.5
	values[16] = 7.26
	out := DailyChart(values, 120, 4)
	if !strings.Contains(out, "$52.50") {
		t.Errorf("chart missing peak label:\n%s", out)
	}
	last := out[strings.LastIndex(out, "\n")+1:]
	for _, day := range []string{"1", "5", "30"} {
		if !strings.Contains(last, day) {
			t.Errorf("axis missing day %s: %q", day, last)
		}
	}
}

func TestTabWidthsIncludeBadge(t *testing.T) {
	plain := TabVisualWidth(2, 0)
	badged := TabVisualWidth(2, 3)
	if badged != plain+4 {
		t.Errorf("badge width = %d, want %d", badged, plain+4)
	}
	if TabIdxByKey("2") != 1 || TabIdxByKey("9") != -1 {
		t.Error("TabIdxByKey mismatch")
	}
}

func TestBudgetBarWithoutBudget(t *testing.T) {
	out := BudgetBar(decimal.NewFromInt(10), decimal.Zero, 60)
	if !strings.Contains(out, "no budget set") {
		t.Errorf("BudgetBar = %q", out)
	}
}
