package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spendline/spendline/internal/model"
)

// MonthlyReport fetches the server's report for one month.
func (c *Client) MonthlyReport(ctx context.Context, year int, month time.Month) (MonthlyReportResponse, error) {
	var r MonthlyReportResponse
	err := c.call(ctx, request{
		method: http.MethodGet,
		path:   fmt.Sprintf("/reports/monthly/%d/%d", year, int(month)),
		authed: true,
	}, &r)
	return r, err
}

// Summary fetches the current-month budget overview.
func (c *Client) Summary(ctx context.Context) (model.Summary, error) {
	var s model.Summary
	err := c.call(ctx, request{method: http.MethodGet, path: "/reports/summary", authed: true}, &s)
	return s, err
}

// DefaultExportPath serves the raw CSV export. Backends that mount it
// elsewhere, such as /reports/export, are reached via WithExportPath.
const DefaultExportPath = "/reports/export/expenses"

// ExportExpenses streams the server-generated CSV of every expense into w.
func (c *Client) ExportExpenses(ctx context.Context, w io.Writer) (int64, error) {
	var n int64
	err := c.stream(ctx, request{method: http.MethodGet, path: c.export, authed: true}, func(r io.Reader) error {
		var copyErr error
		n, copyErr = io.Copy(w, r)
		return copyErr
	})
	return n, err
}
