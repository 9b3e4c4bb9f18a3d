package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spendline/spendline/internal/model"
)

// DefaultPageSize is the backend's default and maximum useful page length.
const DefaultPageSize = 100

// ListExpenses returns one page of the user's expenses.
func (c *Client) ListExpenses(ctx context.Context, skip, limit int) ([]model.Expense, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	var out []model.Expense
	err := c.call(ctx, request{
		method: http.MethodGet,
		path:   "/expenses/",
		query:  url.Values{"skip": {strconv.Itoa(skip)}, "limit": {strconv.Itoa(limit)}},
		authed: true,
	}, &out)
	return out, err
}

// GetExpense fetches a single expense.
func (c *Client) GetExpense(ctx context.Context, id int64) (model.Expense, error) {
	var e model.Expense
	err := c.call(ctx, request{method: http.MethodGet, path: expensePath(id), authed: true}, &e)
	return e, err
}

// CreateExpense submits a new expense and returns the stored record.
func (c *Client) CreateExpense(ctx context.Context, d model.Draft) (model.Expense, error) {
	var e model.Expense
	err := c.call(ctx, request{
		method: http.MethodPost,
		path:   "/expenses/",
		body:   newExpenseRequest(d),
		authed: true,
	}, &e)
	return e, err
}

// UpdateExpense replaces the fields of expense id.
func (c *Client) UpdateExpense(ctx context.Context, id int64, d model.Draft) (model.Expense, error) {
	var e model.Expense
	err := c.call(ctx, request{
		method: http.MethodPut,
		path:   expensePath(id),
		body:   newExpenseRequest(d),
		authed: true,
	}, &e)
	return e, err
}

// DeleteExpense removes expense id.
func (c *Client) DeleteExpense(ctx context.Context, id int64) error {
	return c.call(ctx, request{method: http.MethodDelete, path: expensePath(id), authed: true}, nil)
}

func expensePath(id int64) string {
	return fmt.Sprintf("/expenses/%d", id)
}
