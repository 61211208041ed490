package feed

import (
	"sync"

	"github.com/bubelovv/bounty-board/internal/domain"
	"github.com/bubelovv/bounty-board/internal/metrics"
	"github.com/google/uuid"
)

const subscriberBuffer = 8

type Subscription struct {
	ID     string
	UserID string
	Events <-chan domain.Event

	events chan domain.Event
}

// Hub fans change events out to per-user subscribers. A subscriber whose buffer
// is full misses the event; consumers reload the full view on each event, so a
// later event repairs the gap.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]*Subscription
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]*Subscription)}
}

func (h *Hub) Subscribe(userID string) *Subscription {
	ch := make(chan domain.Event, subscriberBuffer)
	sub := &Subscription{
		ID:     uuid.NewString(),
		UserID: userID,
		Events: ch,
		events: ch,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return sub
	}
	h.subs[sub.ID] = sub
	metrics.FeedSubscribers.Inc()
	return sub
}

func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	sub, ok := h.subs[id]
	if !ok {
		return
	}
	delete(h.subs, id)
	close(sub.events)
	metrics.FeedSubscribers.Dec()
}

// Publish delivers event to every subscriber it concerns. It never blocks.
func (h *Hub) Publish(event domain.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		if !event.Concerns(sub.UserID) {
			continue
		}
		select {
		case sub.events <- event:
		default:
		}
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close ends every subscription. Later subscriptions are closed immediately.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subs {
		close(sub.events)
		delete(h.subs, id)
		metrics.FeedSubscribers.Dec()
	}
}
