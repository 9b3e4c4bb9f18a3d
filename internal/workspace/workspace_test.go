package workspace

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendline/spendline/internal/apierr"
	"github.com/spendline/spendline/internal/config"
	"github.com/spendline/spendline/internal/model"
	"github.com/spendline/spendline/internal/query"
)

// fakeBackend is a minimal in-memory stand-in for the REST API.
type fakeBackend struct {
	mu            sync.Mutex
	revoked       bool
	expenses      []map[string]any
	notifications []map[string]any
	nextID        int
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	writeJSON := func(status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}

	if r.URL.Path == "/auth/login" {
		_ = r.ParseForm()
		if r.PostForm.Get("password") != "wonderland" {
			writeJSON(http.StatusUnauthorized, map[string]string{"detail": "Incorrect username or password"})
			return
		}
		b.revoked = false
		writeJSON(http.StatusOK, map[string]string{"access_token": "jwt-alice", "token_type": "bearer"})
		return
	}
	if b.revoked || r.Header.Get("Authorization") != "Bearer jwt-alice" {
		writeJSON(http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
		return
	}

	switch {
	case r.URL.Path == "/auth/me":
		writeJSON(http.StatusOK, map[string]any{"id": 1, "username": "alice", "email": "alice@example.com", "monthly_budget": 5000, "email_notifications_enabled": true})
	case r.URL.Path == "/expenses/" && r.Method == http.MethodGet:
		writeJSON(http.StatusOK, b.expenses)
	case r.URL.Path == "/expenses/" && r.Method == http.MethodPost:
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.nextID++
		body["id"] = b.nextID
		b.expenses = append(b.expenses, body)
		writeJSON(http.StatusOK, body)
	case strings.HasPrefix(r.URL.Path, "/reports/monthly/"):
		var year, month int
		_, _ = fmt.Sscanf(r.URL.Path, "/reports/monthly/%d/%d", &year, &month)
		prefix := fmt.Sprintf("%04d-%02d", year, month)
		var in []map[string]any
		total := 0.0
		for _, e := range b.expenses {
			if strings.HasPrefix(e["date"].(string), prefix) {
				in = append(in, e)
				total += e["amount"].(float64)
			}
		}
		writeJSON(http.StatusOK, map[string]any{"year": year, "month": month, "total_expenses": total, "expense_count": len(in), "expenses": in})
	case r.URL.Path == "/notifications/":
		writeJSON(http.StatusOK, b.notifications)
	default:
		writeJSON(http.StatusNotFound, map[string]string{"detail": "Not Found"})
	}
}

func openWorkspace(t *testing.T, srv *httptest.Server, statePath string) *Workspace {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.API.BaseURL = srv.URL
	w, err := Open(cfg, Options{StatePath: statePath})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func TestWorkspaceLifecycle(t *testing.T) {
	be := &fakeBackend{notifications: []map[string]any{
		{"id": 1, "title": "Welcome", "message": "hi", "is_read": false, "created_at": "2024-03-01T09:00:00"},
	}}
	srv := httptest.NewServer(be)
	defer srv.Close()
	statePath := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	w := openWorkspace(t, srv, statePath)
	w.Start(ctx)
	assert.ErrorIs(t, w.Reload(ctx), ErrSignedOut)

	_, err := w.Session.Login(ctx, "alice", "wonderland")
	require.NoError(t, err)
	require.NoError(t, w.Reload(ctx))
	assert.Equal(t, 1, w.Feed.UnreadCount())

	_, err = w.Expenses.Create(ctx, model.Draft{
		Amount:      decimal.RequireFromString("12.50"),
		Category:    model.Food,
		Description: "Lunch",
		Date:        model.NewTimestamp(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)
	assert.Len(t, w.Expenses.Query(w.DefaultQuery()), 1)

	r, err := w.Reports.Select(ctx, 2024, time.March)
	require.NoError(t, err)
	assert.True(t, r.TotalExpenses.Equal(decimal.RequireFromString("12.50")))

	// A second process restores the persisted session.
	second := openWorkspace(t, srv, statePath)
	require.NoError(t, w.Close())
	second.Start(ctx)
	u, ok := second.Session.User()
	require.True(t, ok)
	assert.Equal(t, "alice", u.Username)

	require.NoError(t, second.Reload(ctx))
	assert.Equal(t, 1, second.Expenses.Cache().Len())

	// Server-side revocation: the next call tears the session down and empties the caches.
	be.mu.Lock()
	be.revoked = true
	be.mu.Unlock()

	err = second.Reload(ctx)
	assert.True(t, apierr.IsAuth(err))
	_, ok = second.Session.User()
	assert.False(t, ok)
	assert.Zero(t, second.Expenses.Cache().Len())
	assert.Empty(t, second.Feed.Items())
	assert.False(t, second.Tokens.Authenticated())
}

func TestLogoutResetsCaches(t *testing.T) {
	be := &fakeBackend{}
	srv := httptest.NewServer(be)
	defer srv.Close()
	ctx := context.Background()

	cfg := config.DefaultConfig()
	cfg.API.BaseURL = srv.URL
	cfg.List.SortBy = "amount"
	cfg.List.SortOrder = "asc"
	w, err := Open(cfg, Options{Ephemeral: true})
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	assert.Equal(t, query.Sort{Field: query.ByAmount, Order: query.Asc}, w.DefaultQuery().Sort)

	_, err = w.Session.Login(ctx, "alice", "wonderland")
	require.NoError(t, err)
	_, err = w.Expenses.Create(ctx, model.Draft{
		Amount:      decimal.NewFromInt(3),
		Category:    model.Other,
		Description: "Gum",
		Date:        model.NewTimestamp(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, w.Expenses.Cache().Len())

	w.Session.Logout()
	assert.Zero(t, w.Expenses.Cache().Len())
	_, ok := w.Reports.Current()
	assert.False(t, ok)
}
