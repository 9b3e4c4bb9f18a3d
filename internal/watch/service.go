// Package watch polls the notification feed and publishes changes.
package watch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/spendline/spendline/internal/lifetime"
	"github.com/spendline/spendline/internal/model"
)

// Source refreshes and returns the current notification list.
type Source interface {
	Refresh(ctx context.Context) ([]model.Notification, error)
}

// Config controls the watcher runtime behavior.
type Config struct {
	Interval     time.Duration
	EventsBuffer int
}

// Snapshot is a compact feed state for event payloads.
type Snapshot struct {
	At     time.Time `json:"at"`
	Total  int       `json:"total"`
	Unread int       `json:"unread"`
}

// Delta captures what changed between polls.
type Delta struct {
	Total  int                  `json:"total"`
	Unread int                  `json:"unread"`
	New    []model.Notification `json:"new,omitempty"`
}

func (d Delta) isZero() bool {
	return d.Total == 0 && d.Unread == 0 && len(d.New) == 0
}

// Event is emitted whenever the feed changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Status describes the watcher.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service polls a Source until its context is canceled.
type Service struct {
	cfg Config
	src Source

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	seen        map[int64]bool
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a watcher over src.
func New(src Source, cfg Config) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 30 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}

	return &Service{
		cfg:       cfg,
		src:       src,
		startedAt: time.Now(),
		seen:      make(map[int64]bool),
		subs:      make(map[int]chan Event),
	}
}

// Interval returns the effective poll interval.
func (s *Service) Interval() time.Duration { return s.cfg.Interval }

// Run polls until ctx is canceled. It returns nil on cancellation.
func (s *Service) Run(ctx context.Context) error {
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.pollOnce(ctx)
		}
	}
}

func (s *Service) pollOnce(ctx context.Context) {
	items, err := s.src.Refresh(ctx)
	if err != nil {
		if errors.Is(err, lifetime.ErrStale) || ctx.Err() != nil {
			return
		}
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = time.Now()
		s.pollCount++
		s.mu.Unlock()
		log.Warn().Err(err).Str("component", "watch").Msg("poll failed")
		return
	}

	now := time.Now()
	snap := snapshotOf(items, now)

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	var fresh []model.Notification
	seen := make(map[int64]bool, len(items))
	for _, n := range items {
		seen[n.ID] = true
		if prevExists && !s.seen[n.ID] {
			fresh = append(fresh, n)
		}
	}

	s.hasSnapshot = true
	s.snapshot = snap
	s.seen = seen
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""

	if !prevExists {
		s.nextEventID++
		ev = Event{ID: s.nextEventID, Type: "snapshot", Timestamp: now, Snapshot: snap}
		publish = true
	} else {
		delta := diffSnapshots(prev, snap)
		delta.New = fresh
		if !delta.isZero() {
			s.nextEventID++
			ev = Event{ID: s.nextEventID, Type: "unread_delta", Timestamp: now, Snapshot: snap, Delta: delta}
			publish = true
		}
	}
	s.mu.Unlock()

	if publish {
		s.publishEvent(ev)
	}
}

func snapshotOf(items []model.Notification, at time.Time) Snapshot {
	snap := Snapshot{At: at, Total: len(items)}
	for _, n := range items {
		if !n.IsRead {
			snap.Unread++
		}
	}
	return snap
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Total:  curr.Total - prev.Total,
		Unread: curr.Unread - prev.Unread,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

// Status reports the watcher state.
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

// Events returns the buffered events, oldest first.
func (s *Service) Events() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	return events
}

// Subscribe returns a channel of future events and a function that detaches
// it. Slow subscribers miss events rather than blocking the poller.
func (s *Service) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	s.mu.Lock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}
