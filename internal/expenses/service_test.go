package expenses

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendline/spendline/internal/apierr"
	"github.com/spendline/spendline/internal/lifetime"
	"github.com/spendline/spendline/internal/model"
	"github.com/spendline/spendline/internal/query"
)

type fakeGateway struct {
	records []model.Expense
	nextID  int64
	pages   int
	failing error
	// hook runs after the server side applied a mutation, before the reply.
	hook func()
}

func (f *fakeGateway) ListExpenses(_ context.Context, skip, limit int) ([]model.Expense, error) {
	f.pages++
	if f.failing != nil {
		return nil, f.failing
	}
	if skip >= len(f.records) {
		return nil, nil
	}
	end := min(skip+limit, len(f.records))
	return append([]model.Expense(nil), f.records[skip:end]...), nil
}

func (f *fakeGateway) CreateExpense(_ context.Context, d model.Draft) (model.Expense, error) {
	if f.failing != nil {
		return model.Expense{}, f.failing
	}
	f.nextID++
	e := model.Expense{ID: f.nextID, Amount: d.Amount, Category: d.Category, Description: d.Description, Date: d.Date}
	f.records = append(f.records, e)
	if f.hook != nil {
		f.hook()
	}
	return e, nil
}

func (f *fakeGateway) UpdateExpense(_ context.Context, id int64, d model.Draft) (model.Expense, error) {
	for i, e := range f.records {
		if e.ID == id {
			e.Amount, e.Category, e.Description, e.Date = d.Amount, d.Category, d.Description, d.Date
			f.records[i] = e
			return e, nil
		}
	}
	return model.Expense{}, apierr.NotFound("Expense not found")
}

func (f *fakeGateway) DeleteExpense(_ context.Context, id int64) error {
	for i, e := range f.records {
		if e.ID == id {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return nil
		}
	}
	return apierr.NotFound("Expense not found")
}

func draft(amount string, c model.Category, desc string, d int) model.Draft {
	return model.Draft{
		Amount:      decimal.RequireFromString(amount),
		Category:    c,
		Description: desc,
		Date:        model.NewTimestamp(time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)),
	}
}

func seeded(n int) *fakeGateway {
	f := &fakeGateway{}
	for i := 1; i <= n; i++ {
		f.records = append(f.records, model.Expense{
			ID: int64(i), Amount: decimal.NewFromInt(int64(i)), Category: model.Other,
			Description: fmt.Sprintf("e%d", i), Date: model.NewTimestamp(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)),
		})
	}
	f.nextID = int64(n)
	return f
}

func TestRefreshPages(t *testing.T) {
	gw := seeded(250)
	svc := NewService(gw, NewCache(), 100)

	all, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 250)
	assert.Equal(t, 3, gw.pages)
	assert.Equal(t, 250, svc.Cache().Len())
	assert.True(t, svc.Cache().Loaded())
}

func TestRefreshExactPageBoundary(t *testing.T) {
	gw := seeded(200)
	svc := NewService(gw, NewCache(), 100)

	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, gw.pages, "a full last page needs one more empty request")
	assert.Equal(t, 200, svc.Cache().Len())
}

func TestRefreshFailureKeepsCache(t *testing.T) {
	gw := seeded(2)
	svc := NewService(gw, NewCache(), 100)
	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	gw.failing = apierr.Network(errors.New("offline"))
	_, err = svc.Refresh(context.Background())
	assert.True(t, apierr.IsNetwork(err))
	assert.Equal(t, 2, svc.Cache().Len())
}

func TestCreateAppliesAfterConfirmation(t *testing.T) {
	gw := seeded(0)
	svc := NewService(gw, NewCache(), 100)

	_, err := svc.Create(context.Background(), draft("0", model.Food, "free lunch", 5))
	assert.True(t, apierr.IsValidation(err))
	assert.Empty(t, gw.records, "invalid drafts never reach the server")

	gw.failing = apierr.FromStatus(500, "")
	_, err = svc.Create(context.Background(), draft("12.50", model.Food, "Lunch", 5))
	require.Error(t, err)
	assert.Zero(t, svc.Cache().Len(), "no optimistic insert")

	gw.failing = nil
	e, err := svc.Create(context.Background(), draft("12.50", model.Food, "  Lunch  ", 5))
	require.NoError(t, err)
	assert.Equal(t, "Lunch", e.Description)
	got, ok := svc.Cache().Get(e.ID)
	require.True(t, ok)
	assert.Equal(t, e, got)
}

func TestUpdateKeepsPosition(t *testing.T) {
	gw := seeded(3)
	svc := NewService(gw, NewCache(), 100)
	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), 2, draft("99", model.Utilities, "power", 9))
	require.NoError(t, err)

	snap := svc.Cache().Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, int64(2), snap[1].ID)
	assert.Equal(t, model.Utilities, snap[1].Category)
}

func TestNotFoundDropsStaleEntry(t *testing.T) {
	gw := seeded(3)
	svc := NewService(gw, NewCache(), 100)
	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	// Deleted elsewhere.
	gw.records = gw.records[1:]

	err = svc.Delete(context.Background(), 1)
	assert.True(t, apierr.IsNotFound(err))
	_, ok := svc.Cache().Get(1)
	assert.False(t, ok)

	gw.records = gw.records[1:]
	_, err = svc.Update(context.Background(), 2, draft("1", model.Food, "x", 1))
	assert.True(t, apierr.IsNotFound(err))
	assert.Equal(t, 1, svc.Cache().Len())

	require.NoError(t, svc.Delete(context.Background(), 3))
	assert.Zero(t, svc.Cache().Len())
}

func TestResetDiscardsLateResponse(t *testing.T) {
	gw := seeded(0)
	cache := NewCache()
	svc := NewService(gw, cache, 100)
	gw.hook = cache.Reset

	_, err := svc.Create(context.Background(), draft("5", model.Food, "late", 3))
	assert.ErrorIs(t, err, lifetime.ErrStale)
	assert.Zero(t, cache.Len())
}

func TestQueryUsesSnapshot(t *testing.T) {
	gw := seeded(0)
	svc := NewService(gw, NewCache(), 100)
	for _, d := range []model.Draft{
		draft("10", model.Food, "a", 1),
		draft("20", model.Food, "b", 15),
		draft("5", model.Transportation, "c", 10),
	} {
		_, err := svc.Create(context.Background(), d)
		require.NoError(t, err)
	}

	got := svc.Query(query.Query{Category: model.Food, Sort: query.Sort{Field: query.ByAmount, Order: query.Desc}})
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Description)
	assert.Equal(t, "a", got[1].Description)
}
