// Package outbox buffers ticket events in memory until a publisher
// delivers them to the message broker.
package outbox

import (
	"sync"

	"github.com/google/uuid"
	"github.com/robertarktes/flight-seat-ledger/internal/observability"
)

// Outbox is a bounded FIFO. When full, the oldest event is dropped.
type Outbox struct {
	mu       sync.Mutex
	capacity int
	events   []Event
}

func New(capacity int) *Outbox {
	if capacity < 1 {
		capacity = 1
	}
	return &Outbox{capacity: capacity}
}

func (o *Outbox) Add(e Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.events) == o.capacity {
		o.events = o.events[1:]
		observability.OutboxDropped.Inc()
	}
	o.events = append(o.events, e)
	observability.OutboxPending.Set(float64(len(o.events)))
}

// Pending returns up to limit of the oldest unpublished events.
func (o *Outbox) Pending(limit int) []Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := min(limit, len(o.events))
	out := make([]Event, n)
	copy(out, o.events[:n])
	return out
}

func (o *Outbox) MarkPublished(ids ...uuid.UUID) {
	if len(ids) == 0 {
		return
	}
	done := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		done[id] = struct{}{}
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	kept := o.events[:0]
	for _, e := range o.events {
		if _, ok := done[e.ID]; !ok {
			kept = append(kept, e)
		}
	}
	o.events = kept
	observability.OutboxPending.Set(float64(len(o.events)))
}

func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.events)
}
