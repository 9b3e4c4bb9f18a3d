package watch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spendline/spendline/internal/model"
)

type fakeSource struct {
	lists [][]model.Notification
	err   error
	calls int
}

func (f *fakeSource) Refresh(context.Context) ([]model.Notification, error) {
	if f.err != nil {
		return nil, f.err
	}
	i := min(f.calls, len(f.lists)-1)
	f.calls++
	return f.lists[i], nil
}

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{Total: 4, Unread: 1}
	curr := Snapshot{Total: 6, Unread: 2}

	delta := diffSnapshots(prev, curr)
	if delta.Total != 2 {
		t.Fatalf("Total delta = %d, want 2", delta.Total)
	}
	if delta.Unread != 1 {
		t.Fatalf("Unread delta = %d, want 1", delta.Unread)
	}
	if delta.isZero() {
		t.Fatal("delta unexpectedly reported as zero")
	}
	if !diffSnapshots(curr, curr).isZero() {
		t.Fatal("identical snapshots should give a zero delta")
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(&fakeSource{}, Config{Interval: 10 * time.Second, EventsBuffer: 2})

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	events := s.Events()
	if len(events) != 2 {
		t.Fatalf("events len = %d, want 2", len(events))
	}
	if events[0].ID != 2 || events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", events[0].ID, events[1].ID)
	}
}

func TestPollPublishesSnapshotThenDeltas(t *testing.T) {
	first := []model.Notification{{ID: 1, IsRead: true}, {ID: 2}}
	second := []model.Notification{{ID: 1, IsRead: true}, {ID: 2}, {ID: 3, Title: "Budget"}}
	src := &fakeSource{lists: [][]model.Notification{first, first, second}}
	s := New(src, Config{Interval: time.Second})

	ch, detach := s.Subscribe(4)
	defer detach()

	ctx := context.Background()
	s.pollOnce(ctx)
	s.pollOnce(ctx)
	s.pollOnce(ctx)

	events := s.Events()
	if len(events) != 2 {
		t.Fatalf("events len = %d, want 2 (unchanged poll must not publish)", len(events))
	}
	if events[0].Type != "snapshot" || events[0].Snapshot.Unread != 1 {
		t.Fatalf("first event = %+v, want snapshot with 1 unread", events[0])
	}
	ev := events[1]
	if ev.Type != "unread_delta" || ev.Delta.Unread != 1 || ev.Delta.Total != 1 {
		t.Fatalf("second event = %+v, want unread_delta +1/+1", ev)
	}
	if len(ev.Delta.New) != 1 || ev.Delta.New[0].ID != 3 {
		t.Fatalf("new notifications = %+v, want [3]", ev.Delta.New)
	}

	if got := len(ch); got != 2 {
		t.Fatalf("subscriber received %d events, want 2", got)
	}

	st := s.Status()
	if st.PollCount != 3 || st.SubscriberCount != 1 || st.Summary.Total != 3 {
		t.Fatalf("status = %+v", st)
	}
}

func TestPollErrorRecorded(t *testing.T) {
	s := New(&fakeSource{err: errors.New("offline")}, Config{})
	if s.Interval() != 30*time.Second {
		t.Fatalf("Interval() = %v, want default 30s", s.Interval())
	}
	s.pollOnce(context.Background())

	st := s.Status()
	if st.LastError != "offline" {
		t.Fatalf("LastError = %q, want offline", st.LastError)
	}
	if st.EventCount != 0 {
		t.Fatalf("EventCount = %d, want 0", st.EventCount)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	src := &fakeSource{lists: [][]model.Notification{{}}}
	s := New(src, Config{Interval: 2 * time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
