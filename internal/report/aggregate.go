// Package report derives monthly breakdowns from expenses and exports them.
package report

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spendline/spendline/internal/model"
)

// Aggregate builds the report for year/month from the expenses the server
// returned for that month, keeping their order. The server decides which
// month a record belongs to, so every record is counted; one whose date reads
// as another month only bumps OutsideMonth. Amounts are rounded to cents
// before summing so the breakdowns, the total and the CSV export agree to the
// cent.
func Aggregate(year int, month time.Month, expenses []model.Expense) model.MonthlyReport {
	r := model.MonthlyReport{
		Year:              year,
		Month:             month,
		TotalExpenses:     decimal.Zero,
		CategoryBreakdown: make(map[model.Category]decimal.Decimal),
		DailyBreakdown:    make(map[int]decimal.Decimal),
		Expenses:          make([]model.Expense, 0, len(expenses)),
	}

	for _, e := range expenses {
		y, m, d := e.Date.Date()
		if y != year || m != month {
			r.OutsideMonth++
		}
		amount := e.Amount.Round(2)
		r.TotalExpenses = r.TotalExpenses.Add(amount)
		r.CategoryBreakdown[e.Category] = r.CategoryBreakdown[e.Category].Add(amount)
		r.DailyBreakdown[d] = r.DailyBreakdown[d].Add(amount)
		r.Expenses = append(r.Expenses, e)
	}
	r.ExpenseCount = len(r.Expenses)

	for c, total := range r.CategoryBreakdown {
		if total.IsZero() {
			delete(r.CategoryBreakdown, c)
		}
	}
	return r
}

// ValidMonth checks that month is 1-12.
func ValidMonth(month int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("month %d out of range 1-12", month)
	}
	return nil
}

// ParseMonth parses a YYYY-MM selector.
func ParseMonth(s string) (int, time.Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q (want YYYY-MM)", s)
	}
	return t.Year(), t.Month(), nil
}

// Shift moves year/month by delta months.
func Shift(year int, month time.Month, delta int) (int, time.Month) {
	t := time.Date(year, month+time.Month(delta), 1, 0, 0, 0, 0, time.UTC)
	return t.Year(), t.Month()
}
