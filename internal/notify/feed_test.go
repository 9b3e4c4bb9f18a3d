package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendline/spendline/internal/apierr"
	"github.com/spendline/spendline/internal/lifetime"
	"github.com/spendline/spendline/internal/model"
)

type fakeGateway struct {
	items   []model.Notification
	onList  func()
	listErr error
	calls   int
}

func (f *fakeGateway) ListNotifications(_ context.Context, skip, limit int) ([]model.Notification, error) {
	f.calls++
	if f.onList != nil {
		f.onList()
	}
	if f.listErr != nil {
		return nil, f.listErr
	}
	if skip >= len(f.items) {
		return nil, nil
	}
	end := min(skip+limit, len(f.items))
	return append([]model.Notification(nil), f.items[skip:end]...), nil
}

func (f *fakeGateway) find(id int64) int {
	for i, n := range f.items {
		if n.ID == id {
			return i
		}
	}
	return -1
}

func (f *fakeGateway) MarkNotificationRead(_ context.Context, id int64) error {
	i := f.find(id)
	if i < 0 {
		return apierr.NotFound("Notification not found")
	}
	f.items[i].IsRead = true
	return nil
}

func (f *fakeGateway) DeleteNotification(_ context.Context, id int64) error {
	i := f.find(id)
	if i < 0 {
		return apierr.NotFound("Notification not found")
	}
	f.items = append(f.items[:i], f.items[i+1:]...)
	return nil
}

func seeded() *fakeGateway {
	return &fakeGateway{items: []model.Notification{
		{ID: 1, Title: "Budget", Message: "80% of budget used"},
		{ID: 2, Title: "Welcome", Message: "hi", IsRead: true},
		{ID: 3, Title: "Budget", Message: "100% of budget used"},
	}}
}

func TestUnreadCountFollowsMutations(t *testing.T) {
	gw := seeded()
	f := NewFeed(gw, 0)
	assert.Zero(t, f.UnreadCount())

	_, err := f.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, f.UnreadCount())

	require.NoError(t, f.MarkRead(context.Background(), 1))
	assert.Equal(t, 1, f.UnreadCount())

	require.NoError(t, f.Delete(context.Background(), 3))
	assert.Zero(t, f.UnreadCount())
	assert.Len(t, f.Items(), 2)
}

func TestMissingNotificationDropsEntry(t *testing.T) {
	gw := seeded()
	f := NewFeed(gw, 0)
	_, err := f.Refresh(context.Background())
	require.NoError(t, err)

	gw.items = gw.items[1:]
	err = f.MarkRead(context.Background(), 1)
	assert.True(t, apierr.IsNotFound(err))
	assert.Len(t, f.Items(), 2)
	assert.Equal(t, 1, f.UnreadCount())
}

func TestMarkAllRead(t *testing.T) {
	f := NewFeed(seeded(), 0)
	_, err := f.Refresh(context.Background())
	require.NoError(t, err)

	n, err := f.MarkAllRead(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Zero(t, f.UnreadCount())
}

func TestResetDuringRefresh(t *testing.T) {
	gw := seeded()
	f := NewFeed(gw, 0)
	gw.onList = f.Reset

	_, err := f.Refresh(context.Background())
	assert.ErrorIs(t, err, lifetime.ErrStale)
	assert.False(t, f.Loaded())
	assert.Empty(t, f.Items())
}

func TestRefreshPagesThroughFeed(t *testing.T) {
	gw := &fakeGateway{}
	for i := int64(1); i <= 5; i++ {
		gw.items = append(gw.items, model.Notification{ID: i, Title: "n"})
	}
	f := NewFeed(gw, 2)

	list, err := f.Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 5)
	assert.Equal(t, 3, gw.calls)
	assert.Equal(t, 5, f.UnreadCount())
}

func TestRefreshStopsOnExactPage(t *testing.T) {
	gw := seeded()
	f := NewFeed(gw, 3)

	_, err := f.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, gw.calls)
	assert.Len(t, f.Items(), 3)
}

func TestItemsNewestFirst(t *testing.T) {
	at := func(h int) model.Timestamp {
		return model.NewTimestamp(time.Date(2024, 3, 1, 9+h, 0, 0, 0, time.UTC))
	}
	gw := &fakeGateway{items: []model.Notification{
		{ID: 1, CreatedAt: at(0)},
		{ID: 2, CreatedAt: at(2)},
		{ID: 3, CreatedAt: at(1)},
		{ID: 4, CreatedAt: at(2)},
	}}
	f := NewFeed(gw, 0)
	_, err := f.Refresh(context.Background())
	require.NoError(t, err)

	var ids []int64
	for _, n := range f.Items() {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []int64{2, 4, 3, 1}, ids)
}
