// Package buildlog keeps a bounded per-project history of build events and
// fans them out to live subscribers.
package buildlog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"tonide/internal/build"
)

const (
	defaultHistory    = 200
	subscriberBacklog = 32
)

type Filter struct {
	Type build.EventType
	Text string
}

func (f Filter) match(ev build.Event) bool {
	if f.Type != "" && ev.Type != f.Type {
		return false
	}
	if text := strings.TrimSpace(f.Text); text != "" {
		return strings.Contains(strings.ToLower(ev.Message), strings.ToLower(text))
	}
	return true
}

type Hub struct {
	mu      sync.Mutex
	limit   int
	history map[string][]build.Event
	subs    map[string]map[chan build.Event]struct{}
	now     func() time.Time
}

// New returns a hub that keeps at most limit events per project.
func New(limit int) *Hub {
	if limit <= 0 {
		limit = defaultHistory
	}
	return &Hub{
		limit:   limit,
		history: make(map[string][]build.Event),
		subs:    make(map[string]map[chan build.Event]struct{}),
		now:     time.Now,
	}
}

// Report implements build.Reporter.
func (h *Hub) Report(_ context.Context, ev build.Event) {
	h.Publish(ev)
}

func (h *Hub) Publish(ev build.Event) {
	if h == nil {
		return
	}
	ev.ProjectID = strings.TrimSpace(ev.ProjectID)
	if ev.ProjectID == "" {
		return
	}
	if ev.Time.IsZero() {
		ev.Time = h.now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	events := append(h.history[ev.ProjectID], ev)
	if over := len(events) - h.limit; over > 0 {
		events = append([]build.Event(nil), events[over:]...)
	}
	h.history[ev.ProjectID] = events
	for ch := range h.subs[ev.ProjectID] {
		offer(ch, ev)
	}
}

// Subscribe streams every event published for projectID until ctx ends.
// A slow subscriber loses its oldest undelivered events.
func (h *Hub) Subscribe(ctx context.Context, projectID string) (<-chan build.Event, error) {
	if h == nil {
		return nil, fmt.Errorf("hub is nil")
	}
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, fmt.Errorf("project_id is required")
	}
	ch := make(chan build.Event, subscriberBacklog)

	h.mu.Lock()
	if h.subs[projectID] == nil {
		h.subs[projectID] = make(map[chan build.Event]struct{})
	}
	h.subs[projectID][ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs[projectID], ch)
		if len(h.subs[projectID]) == 0 {
			delete(h.subs, projectID)
		}
		close(ch)
		h.mu.Unlock()
	}()
	return ch, nil
}

func (h *Hub) History(projectID string, f Filter) []build.Event {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	events := h.history[strings.TrimSpace(projectID)]
	out := make([]build.Event, 0, len(events))
	for _, ev := range events {
		if f.match(ev) {
			out = append(out, ev)
		}
	}
	return out
}

func (h *Hub) Clear(projectID string) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.history, strings.TrimSpace(projectID))
}

// offer never blocks; a full channel drops its oldest event.
func offer(ch chan build.Event, ev build.Event) {
	select {
	case ch <- ev:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- ev:
	default:
	}
}
