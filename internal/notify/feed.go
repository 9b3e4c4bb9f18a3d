// Package notify caches the user's notification feed.
package notify

import (
	"context"
	"cmp"
	"errors"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/spendline/spendline/internal/apierr"
	"github.com/spendline/spendline/internal/collection"
	"github.com/spendline/spendline/internal/lifetime"
	"github.com/spendline/spendline/internal/model"
)

// Gateway is the subset of the backend API the feed needs.
type Gateway interface {
	ListNotifications(ctx context.Context, skip, limit int) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id int64) error
	DeleteNotification(ctx context.Context, id int64) error
}

// Feed holds the notifications of the signed-in user. Like the expense
// cache it only changes after the server confirmed a mutation.
type Feed struct {
	gw       Gateway
	pageSize int

	mu     sync.RWMutex
	items  *collection.Ordered[int64, model.Notification]
	guard  lifetime.Guard
	loaded bool
}

// NewFeed returns an empty feed over gw that fetches pageSize
// notifications per request.
func NewFeed(gw Gateway, pageSize int) *Feed {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Feed{
		gw:       gw,
		pageSize: pageSize,
		items:    collection.NewOrdered(func(n model.Notification) int64 { return n.ID }),
	}
}

// Refresh replaces the feed with every notification the server holds.
func (f *Feed) Refresh(ctx context.Context) ([]model.Notification, error) {
	tk := f.guard.Begin()

	var list []model.Notification
	for skip := 0; ; skip += f.pageSize {
		page, err := f.gw.ListNotifications(ctx, skip, f.pageSize)
		if err != nil {
			return nil, err
		}
		list = append(list, page...)
		if len(page) < f.pageSize {
			break
		}
	}

	err := f.apply(tk, func() {
		f.items.ReplaceAll(list)
		f.loaded = true
	})
	if err != nil {
		return nil, err
	}
	log.Debug().Str("component", "notify").Int("count", len(list)).Msg("refreshed")
	return list, nil
}

// MarkRead flags id as read on the server, then locally.
func (f *Feed) MarkRead(ctx context.Context, id int64) error {
	tk := f.guard.Begin()
	if err := f.gw.MarkNotificationRead(ctx, id); err != nil {
		return f.dropIfGone(tk, id, err)
	}
	return f.apply(tk, func() {
		if n, ok := f.items.Get(id); ok {
			n.IsRead = true
			f.items.Upsert(n)
		}
	})
}

// MarkAllRead marks every unread notification, stopping at the first failure.
func (f *Feed) MarkAllRead(ctx context.Context) (int, error) {
	marked := 0
	for _, n := range f.Items() {
		if n.IsRead {
			continue
		}
		if err := f.MarkRead(ctx, n.ID); err != nil {
			return marked, err
		}
		marked++
	}
	return marked, nil
}

// Delete removes id on the server, then locally.
func (f *Feed) Delete(ctx context.Context, id int64) error {
	tk := f.guard.Begin()
	if err := f.gw.DeleteNotification(ctx, id); err != nil {
		return f.dropIfGone(tk, id, err)
	}
	return f.apply(tk, func() { f.items.Remove(id) })
}

func (f *Feed) dropIfGone(tk lifetime.Ticket, id int64, err error) error {
	if errors.Is(err, apierr.ErrNotFound) {
		_ = f.apply(tk, func() { f.items.Remove(id) })
	}
	return err
}

func (f *Feed) apply(tk lifetime.Ticket, fn func()) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := tk.Check(); err != nil {
		return err
	}
	fn()
	return nil
}

// Items returns the notifications newest first. Notifications created at
// the same instant keep server order.
func (f *Feed) Items() []model.Notification {
	f.mu.RLock()
	items := f.items.Snapshot()
	f.mu.RUnlock()
	slices.SortStableFunc(items, func(a, b model.Notification) int {
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})
	return items
}

// UnreadCount counts unread notifications in the feed.
func (f *Feed) UnreadCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	n := 0
	for _, item := range f.items.Snapshot() {
		if !item.IsRead {
			n++
		}
	}
	return n
}

// Loaded reports whether the feed holds a fetched list.
func (f *Feed) Loaded() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.loaded
}

// Reset empties the feed and invalidates in-flight requests.
func (f *Feed) Reset() {
	f.mu.Lock()
	f.guard.Invalidate()
	f.items.Reset()
	f.loaded = false
	f.mu.Unlock()
}
