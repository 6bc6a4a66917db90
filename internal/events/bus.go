// Package events carries the outbound event feed. Every activity ledger
// entry is also published here for real-time consumers (the external
// transport layer subscribes and handles wire framing itself).
package events

import (
	"sync"

	"github.com/example/adw/internal/core/workflow"
	"github.com/example/adw/internal/ports/secondary"
)

// defaultBuffer is the per-subscriber channel depth. A subscriber that
// falls further behind loses events rather than blocking mutations.
const defaultBuffer = 64

// Bus is an in-process fan-out publisher for workflow events.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]chan workflow.Event
	next int
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan workflow.Event)}
}

// Subscribe registers a consumer. The returned cancel function must be
// called when the consumer is done; it closes the channel.
func (b *Bus) Subscribe() (<-chan workflow.Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan workflow.Event, defaultBuffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if ch, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

// Publish delivers an event to all subscribers without blocking the
// mutation path: a full subscriber buffer drops the event for that
// subscriber only.
func (b *Bus) Publish(event workflow.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Ensure Bus implements the sink interface.
var _ secondary.EventSink = (*Bus)(nil)
