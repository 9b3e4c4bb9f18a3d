package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/spendline/spendline/internal/config"
	"github.com/spendline/spendline/internal/lifetime"
	"github.com/spendline/spendline/internal/model"
	"github.com/spendline/spendline/internal/query"
	"github.com/spendline/spendline/internal/workspace"
)

func newTestApp(t *testing.T) App {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.API.BaseURL = "http://127.0.0.1:1"
	ws, err := workspace.Open(cfg, workspace.Options{Ephemeral: true})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = ws.Close() })

	a := NewApp(ws)
	a.started = true
	a.signedIn = true
	a.width, a.height = 120, 40
	return a
}

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

func press(t *testing.T, a App, key string) (App, tea.Cmd) {
	t.Helper()
	m, cmd := a.Update(keyMsg(key))
	next, ok := m.(App)
	if !ok {
		t.Fatalf("Update returned %T", m)
	}
	return next, cmd
}

func seed(a App) {
	a.ws.Expenses.Cache().ReplaceAll([]model.Expense{
		{ID: 1, Amount: decimal.RequireFromString("12.50"), Category: model.Food, Description: "Lunch",
			Date: model.NewTimestamp(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))},
		{ID: 2, Amount: decimal.RequireFromString("40"), Category: model.Transportation, Description: "Taxi",
			Date: model.NewTimestamp(time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC))},
	})
}

func TestSortKeysToggle(t *testing.T) {
	a := newTestApp(t)

	a, _ = press(t, a, "a")
	if want := (query.Sort{Field: query.ByAmount, Order: query.Asc}); a.q.Sort != want {
		t.Fatalf("after a: sort = %v, want %v", a.q.Sort, want)
	}
	a, _ = press(t, a, "a")
	if a.q.Sort.Order != query.Desc {
		t.Fatalf("second a should flip to desc, got %v", a.q.Sort)
	}
	a, _ = press(t, a, "c")
	if want := (query.Sort{Field: query.ByCategory, Order: query.Asc}); a.q.Sort != want {
		t.Fatalf("after c: sort = %v, want %v", a.q.Sort, want)
	}
}

func TestCategoryFilterCycles(t *testing.T) {
	a := newTestApp(t)
	seed(a)

	a, _ = press(t, a, "f")
	if a.q.Category != model.Food {
		t.Fatalf("category = %q, want Food", a.q.Category)
	}
	if got := len(a.visibleExpenses()); got != 1 {
		t.Fatalf("visible = %d, want 1", got)
	}
	for i := 0; i < len(model.Categories); i++ {
		a, _ = press(t, a, "f")
	}
	if a.q.Category != "" {
		t.Fatalf("filter should wrap to all categories, got %q", a.q.Category)
	}
}

func TestMonthNavigation(t *testing.T) {
	a := newTestApp(t)
	a.activeTab = tabReport
	a.year, a.month = 2024, time.January
	a.report = &model.MonthlyReport{Year: 2024, Month: time.January}

	a, cmd := press(t, a, "[")
	if a.year != 2023 || a.month != time.December {
		t.Fatalf("month = %d-%d, want 2023-12", a.year, a.month)
	}
	if cmd == nil {
		t.Fatal("changing month should load the new report")
	}
	if a.report != nil {
		t.Fatal("previous month's report should be dropped")
	}

	a, _ = press(t, a, "]")
	if a.year != 2024 || a.month != time.January {
		t.Fatalf("month = %d-%d, want 2024-01", a.year, a.month)
	}
}

func TestStaleReportIsDropped(t *testing.T) {
	a := newTestApp(t)
	m, _ := a.Update(reportMsg{err: lifetime.ErrStale})
	a = m.(App)
	if a.report != nil || a.statusErr {
		t.Fatalf("stale report should be ignored, report=%v status=%q", a.report, a.status)
	}
}

func TestTabSwitching(t *testing.T) {
	a := newTestApp(t)
	a, _ = press(t, a, "3")
	if a.activeTab != tabNotifications {
		t.Fatalf("activeTab = %d, want %d", a.activeTab, tabNotifications)
	}
	a, _ = press(t, a, "right")
	if a.activeTab != tabExpenses {
		t.Fatalf("right should wrap to the first tab, got %d", a.activeTab)
	}
	a, _ = press(t, a, "left")
	if a.activeTab != tabNotifications {
		t.Fatalf("left should wrap to the last tab, got %d", a.activeTab)
	}
}

func TestMutationsWaitWhileBusy(t *testing.T) {
	a := newTestApp(t)
	seed(a)

	a.busy = true
	if _, cmd := press(t, a, "x"); cmd != nil {
		t.Fatal("delete should be ignored while another request is in flight")
	}

	a.busy = false
	a, cmd := press(t, a, "x")
	if cmd == nil || !a.busy {
		t.Fatal("delete should start a request and mark the app busy")
	}
}

func TestViewShowsExpenses(t *testing.T) {
	a := newTestApp(t)
	seed(a)

	out := a.View()
	for _, want := range []string{"Expenses", "Notifications", "Lunch", "Taxi", "$52.50"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestWindowKeepsCursorVisible(t *testing.T) {
	tests := []struct {
		cursor, n, height int
		start, end        int
	}{
		{0, 5, 10, 0, 5},
		{0, 50, 10, 0, 10},
		{25, 50, 10, 20, 30},
		{49, 50, 10, 40, 50},
	}
	for _, tt := range tests {
		start, end := window(tt.cursor, tt.n, tt.height)
		if start != tt.start || end != tt.end {
			t.Errorf("window(%d, %d, %d) = [%d, %d), want [%d, %d)",
				tt.cursor, tt.n, tt.height, start, end, tt.start, tt.end)
		}
	}
}
