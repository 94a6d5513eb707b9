package history

import "sync"

// EventBus provides pub/sub for thread events.
type EventBus struct {
	mu   sync.RWMutex
	subs map[string][]chan *Event
}

// NewEventBus creates a new EventBus.
func NewEventBus() *EventBus {
	return &EventBus{
		subs: make(map[string][]chan *Event),
	}
}

// Subscribe creates a channel that receives events for a thread.
func (b *EventBus) Subscribe(threadID string) chan *Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan *Event, 64)
	b.subs[threadID] = append(b.subs[threadID], ch)
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (b *EventBus) Unsubscribe(threadID string, ch chan *Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[threadID]
	for i, s := range subs {
		if s == ch {
			b.subs[threadID] = append(subs[:i], subs[i+1:]...)
			if len(b.subs[threadID]) == 0 {
				delete(b.subs, threadID)
			}
			close(ch)
			return
		}
	}
}

// Publish sends an event to all subscribers for a thread.
func (b *EventBus) Publish(threadID string, event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs[threadID] {
		select {
		case ch <- event:
		default:
			// Drop event if subscriber is too slow.
		}
	}
}
