package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Notification is an async message addressed to the user.
type Notification struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt Timestamp `json:"created_at"`
}

// MonthlyReport is derived from the expenses of one calendar month.
type MonthlyReport struct {
	Year              int
	Month             time.Month
	TotalExpenses     decimal.Decimal
	CategoryBreakdown map[Category]decimal.Decimal
	DailyBreakdown    map[int]decimal.Decimal // day of month -> total
	ExpenseCount      int
	Expenses          []Expense
	// OutsideMonth counts the records the server filed under this month whose
	// own date, read in its zone, falls in another month. They are still counted.
	OutsideMonth int
}

// Summary is the current-month budget overview.
type Summary struct {
	CurrentMonthTotal decimal.Decimal              `json:"current_month_total"`
	Budget            decimal.Decimal              `json:"budget"`
	RemainingBudget   decimal.Decimal              `json:"remaining_budget"`
	CategoryBreakdown map[Category]decimal.Decimal `json:"category_breakdown"`
}
