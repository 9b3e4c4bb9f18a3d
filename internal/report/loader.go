package report

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/spendline/spendline/internal/apierr"
	"github.com/spendline/spendline/internal/gateway"
	"github.com/spendline/spendline/internal/lifetime"
	"github.com/spendline/spendline/internal/model"
)

// Gateway is the subset of the backend API the loader needs.
type Gateway interface {
	MonthlyReport(ctx context.Context, year int, month time.Month) (gateway.MonthlyReportResponse, error)
	Summary(ctx context.Context) (model.Summary, error)
}

// Loader fetches a month and derives its report. Every selection re-fetches;
// when selections overlap only the latest one is kept.
type Loader struct {
	gw Gateway

	mu      sync.Mutex
	guard   lifetime.Guard
	current *model.MonthlyReport
}

// NewLoader returns a loader over gw.
func NewLoader(gw Gateway) *Loader {
	return &Loader{gw: gw}
}

// Select loads the report for year/month. A selection superseded while in
// flight returns lifetime.ErrStale.
func (l *Loader) Select(ctx context.Context, year int, month time.Month) (model.MonthlyReport, error) {
	if err := ValidMonth(int(month)); err != nil {
		return model.MonthlyReport{}, apierr.Validation("month", "%s", err)
	}

	l.mu.Lock()
	l.guard.Invalidate()
	tk := l.guard.Begin()
	l.mu.Unlock()

	resp, err := l.gw.MonthlyReport(ctx, year, month)
	if err != nil {
		if !tk.Valid() {
			return model.MonthlyReport{}, lifetime.ErrStale
		}
		return model.MonthlyReport{}, err
	}

	r := Aggregate(year, month, resp.Expenses)
	if r.ExpenseCount != resp.ExpenseCount || !r.TotalExpenses.Equal(resp.TotalExpenses.Round(2)) {
		log.Warn().Str("component", "report").Int("year", year).Int("month", int(month)).
			Str("server_total", resp.TotalExpenses.String()).Str("derived_total", r.TotalExpenses.String()).
			Msg("server totals disagree with derived report")
	}
	if r.OutsideMonth > 0 {
		log.Debug().Str("component", "report").Int("year", year).Int("month", int(month)).
			Int("outside_month", r.OutsideMonth).Msg("records dated outside the selected month")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := tk.Check(); err != nil {
		return model.MonthlyReport{}, err
	}
	l.current = &r
	return r, nil
}

// Current returns the last selected report.
func (l *Loader) Current() (model.MonthlyReport, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current == nil {
		return model.MonthlyReport{}, false
	}
	return *l.current, true
}

// Reset forgets the current report and discards in-flight selections.
func (l *Loader) Reset() {
	l.mu.Lock()
	l.guard.Invalidate()
	l.current = nil
	l.mu.Unlock()
}

// Summary fetches the current-month budget overview.
func (l *Loader) Summary(ctx context.Context) (model.Summary, error) {
	return l.gw.Summary(ctx)
}
