package gateway

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spendline/spendline/internal/model"
)

// wireDate is the naive datetime layout the backend stores.
const wireDate = "2006-01-02T15:04:05"

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type profileRequest struct {
	Username      string      `json:"username"`
	Email         string      `json:"email"`
	MonthlyBudget json.Number `json:"monthly_budget"`
}

type notificationSettingRequest struct {
	Enabled bool `json:"enabled"`
}

type notificationSettingResponse struct {
	EmailNotificationsEnabled bool `json:"email_notifications_enabled"`
}

type expenseRequest struct {
	Amount      json.Number `json:"amount"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
	Date        string      `json:"date"`
}

func newExpenseRequest(d model.Draft) expenseRequest {
	return expenseRequest{
		Amount:      number(d.Amount),
		Category:    string(d.Category),
		Description: d.Description,
		Date:        d.Date.Time.Format(wireDate),
	}
}

// number renders d as a bare JSON number; decimal.Decimal marshals as a string.
func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

// MonthlyReportResponse is the server's view of a month. The client derives
// its own breakdowns from Expenses; the totals here are only cross-checked.
type MonthlyReportResponse struct {
	Year              int                        `json:"year"`
	Month             time.Month                 `json:"month"`
	TotalExpenses     decimal.Decimal            `json:"total_expenses"`
	CategoryBreakdown map[string]decimal.Decimal `json:"category_breakdown"`
	DailyBreakdown    map[string]decimal.Decimal `json:"daily_breakdown"`
	ExpenseCount      int                        `json:"expense_count"`
	Expenses          []model.Expense            `json:"expenses"`
}

type unreadCountResponse struct {
	UnreadCount int `json:"unread_count"`
}

// mutationResponse is what notification mutations answer with. The backend
// reports a missing id as 200 with Error set.
type mutationResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}
