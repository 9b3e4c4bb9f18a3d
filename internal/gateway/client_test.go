package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendline/spendline/internal/apierr"
	"github.com/spendline/spendline/internal/model"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newTestClient(t *testing.T, tok string, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, staticToken(tok), WithTimeout(2*time.Second))
}

func TestLoginSendsForm(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "alice", r.PostForm.Get("username"))
		assert.Equal(t, "pw", r.PostForm.Get("password"))
		_, _ = io.WriteString(w, `{"access_token":"tok-1","token_type":"bearer"}`)
	})

	tok, err := c.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
}

func TestLoginRejectedDoesNotTearDown(t *testing.T) {
	c := newTestClient(t, "existing", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"detail":"Incorrect username or password"}`)
	})
	var calls atomic.Int32
	c.OnUnauthorized(func(string) { calls.Add(1) })

	_, err := c.Login(context.Background(), "alice", "wrong")
	require.Error(t, err)
	assert.True(t, apierr.IsAuth(err))
	assert.Contains(t, err.Error(), "Incorrect username or password")
	assert.Equal(t, int32(0), calls.Load())
}

func TestAuthenticatedRequestHeaders(t *testing.T) {
	c := newTestClient(t, "tok-1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		_, err := uuid.Parse(r.Header.Get("X-Request-ID"))
		assert.NoError(t, err)
		_, _ = io.WriteString(w, `{"id":1,"email":"a@x.io","username":"alice","monthly_budget":5000,"email_notifications_enabled":true}`)
	})

	u, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.True(t, u.MonthlyBudget.Equal(decimal.NewFromInt(5000)))
	assert.True(t, u.EmailNotificationsEnabled)
}

func TestUnauthorizedInvokesHookWithCarriedToken(t *testing.T) {
	c := newTestClient(t, "tok-1", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"detail":"Could not validate credentials"}`)
	})
	var got []string
	c.OnUnauthorized(func(tok string) { got = append(got, tok) })

	_, err := c.ListExpenses(context.Background(), 0, 0)
	require.Error(t, err)
	assert.True(t, apierr.IsAuth(err))
	assert.Equal(t, []string{"tok-1"}, got)
}

func TestValidationDetailList(t *testing.T) {
	c := newTestClient(t, "tok-1", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"detail":[{"loc":["body","amount"],"msg":"Input should be greater than 0","type":"greater_than"}]}`)
	})

	_, err := c.CreateExpense(context.Background(), model.Draft{
		Amount:      decimal.NewFromInt(-1),
		Category:    model.Food,
		Description: "x",
		Date:        model.NewTimestamp(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)),
	})
	require.Error(t, err)
	assert.True(t, apierr.IsValidation(err))

	var ae *apierr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "amount", ae.Field)
	assert.Equal(t, http.StatusUnprocessableEntity, ae.Status)
	assert.NotEmpty(t, ae.RequestID)
}

func TestCreateExpenseWireFormat(t *testing.T) {
	c := newTestClient(t, "tok-1", func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		assert.NoError(t, json.Unmarshal(raw, &body))
		assert.Equal(t, 12.5, body["amount"])
		assert.Equal(t, "Food", body["category"])
		assert.Equal(t, "2024-03-05T00:00:00", body["date"])
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `{"id":42,"amount":12.5,"category":"Food","description":"Lunch","date":"2024-03-05T00:00:00","user_id":1}`)
	})

	e, err := c.CreateExpense(context.Background(), model.Draft{
		Amount:      decimal.RequireFromString("12.50"),
		Category:    model.Food,
		Description: "Lunch",
		Date:        model.NewTimestamp(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), e.ID)
}

func TestListExpensesPaging(t *testing.T) {
	c := newTestClient(t, "tok-1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "200", r.URL.Query().Get("skip"))
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		_, _ = io.WriteString(w, `[]`)
	})
	out, err := c.ListExpenses(context.Background(), 200, 0)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestListNotificationsPaging(t *testing.T) {
	c := newTestClient(t, "tok-1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/notifications/", r.URL.Path)
		assert.Equal(t, "50", r.URL.Query().Get("skip"))
		assert.Equal(t, "25", r.URL.Query().Get("limit"))
		_, _ = io.WriteString(w, `[{"id":7,"title":"Budget","message":"80% used","is_read":false,"created_at":"2024-03-05T10:00:00"}]`)
	})
	out, err := c.ListNotifications(context.Background(), 50, 25)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int64(7), out[0].ID)
}

func TestDeleteMissingExpense(t *testing.T) {
	c := newTestClient(t, "tok-1", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"detail":"Expense not found"}`)
	})
	err := c.DeleteExpense(context.Background(), 9)
	assert.True(t, apierr.IsNotFound(err))
}

func TestNotificationErrorBodyIsNotFound(t *testing.T) {
	c := newTestClient(t, "tok-1", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"error":"Notification not found"}`)
	})
	err := c.MarkNotificationRead(context.Background(), 3)
	require.Error(t, err)
	assert.True(t, apierr.IsNotFound(err))
}

func TestExportStreams(t *testing.T) {
	const csvBody = "Date,Title,Category,Amount\n2024-03-05,Lunch,Food,12.5\n"
	c := newTestClient(t, "tok-1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reports/export/expenses", r.URL.Path)
		w.Header().Set("Content-Type", "text/csv")
		_, _ = io.WriteString(w, csvBody)
	})

	var buf bytes.Buffer
	n, err := c.ExportExpenses(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(len(csvBody)), n)
	assert.Equal(t, csvBody, buf.String())
}

func TestExportPathOverride(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reports/export", r.URL.Path)
		_, _ = io.WriteString(w, "Date,Title,Category,Amount\n")
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, staticToken("tok-1"), WithExportPath("reports/export"))
	var buf bytes.Buffer
	_, err := c.ExportExpenses(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, "Date,Title,Category,Amount\n", buf.String())
}

func TestServerErrorIsUnexpected(t *testing.T) {
	c := newTestClient(t, "tok-1", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "Internal Server Error")
	})
	_, err := c.Summary(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apierr.ErrUnexpected)
	assert.True(t, strings.Contains(err.Error(), "Internal Server Error"))
}

func TestTransportFailureIsNetwork(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url, staticToken("tok-1"))
	_, err := c.ListNotifications(context.Background(), 0, 0)
	require.Error(t, err)
	assert.True(t, apierr.IsNetwork(err))
}
