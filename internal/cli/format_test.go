package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"12.5", "$12.50"},
		{"1234.5", "$1,234.50"},
		{"7.255", "$7.26"},
		{"-3", "-$3.00"},
		{"1000000", "$1,000,000.00"},
	}
	for _, tt := range tests {
		got := FormatMoney(decimal.RequireFromString(tt.in))
		if got != tt.want {
			t.Errorf("FormatMoney(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(decimal.RequireFromString("40")); got != "40.00" {
		t.Fatalf("FormatAmount(40) = %q, want 40.00", got)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-4200, "-4,200"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate(time.Time{}); got != "-" {
		t.Errorf("FormatDate(zero) = %q, want -", got)
	}
	if got := FormatDate(time.Date(2024, 3, 5, 18, 0, 0, 0, time.UTC)); got != "2024-03-05" {
		t.Errorf("FormatDate = %q, want 2024-03-05", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("Lunch", 10); got != "Lunch" {
		t.Errorf("Truncate short = %q", got)
	}
	if got := Truncate("Taxi to the airport", 8); got != "Taxi to…" {
		t.Errorf("Truncate long = %q, want %q", got, "Taxi to…")
	}
	if got := Truncate("Café au lait", 5); len([]rune(got)) != 5 {
		t.Errorf("Truncate counted bytes: %q", got)
	}
}

func TestRenderTable(t *testing.T) {
	out := RenderTable(Table{
		Title:   "Expenses",
		Headers: []string{"Date", "Description", "Amount"},
		Rows: [][]string{
			{"2024-03-05", "Lunch", "$12.50"},
			{"---"},
			{"", "Total", "$12.50"},
		},
	})
	for _, want := range []string{"Expenses", "Description", "Lunch", "$12.50", "Total"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if RenderTable(Table{}) != "" {
		t.Error("empty table should render nothing")
	}
}

func TestRenderBudgetBar(t *testing.T) {
	if got := RenderBudgetBar(decimal.NewFromInt(10), decimal.Zero, 20); got != "" {
		t.Errorf("zero budget bar = %q, want empty", got)
	}
	out := RenderBudgetBar(decimal.NewFromInt(6000), decimal.NewFromInt(5000), 20)
	if !strings.Contains(out, "$6,000.00 of $5,000.00") || !strings.Contains(out, "120.0%") {
		t.Errorf("overspent bar = %q", out)
	}
}

func TestRenderSparkline(t *testing.T) {
	if got := RenderSparkline([]float64{0, 4, 8}); got != "▁▄█" {
		t.Errorf("RenderSparkline = %q, want ▁▄█", got)
	}
}
