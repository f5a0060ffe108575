package service

import (
	"sync"
	"sync/atomic"

	"github.com/joeblew999/typhoon-viz/internal/mapengine"
)

// Event kinds.
const (
	KindMapCommand = "map-command"
	KindSlideTo    = "slide-to"
	KindPatch      = "patch"
)

// Event is something a widget session tells its browser.
type Event struct {
	Kind string

	// map-command
	Map     string // "main", "top5" or "videos"
	Command mapengine.Command

	// slide-to
	Index int

	// patch: replace the element matching Selector with HTML
	Selector string
	HTML     string
}

// Subscription receives events from a bus.
type Subscription struct {
	C       chan Event
	dropped atomic.Int64
}

// TakeDropped returns how many events were skipped because C was full
// and resets the count. A subscriber that missed map commands must
// resynchronize from the session state.
func (s *Subscription) TakeDropped() int64 {
	return s.dropped.Swap(0)
}

// EventBus is a simple fan-out pub/sub for session events.
type EventBus struct {
	mu     sync.RWMutex
	buffer int
	subs   map[*Subscription]struct{}
}

// DefaultBuffer is the channel size of a subscription. A Top-5 redraw
// emits about ten commands per frame.
const DefaultBuffer = 1024

// NewEventBus creates a new event bus. buffer <= 0 uses DefaultBuffer.
func NewEventBus(buffer int) *EventBus {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &EventBus{buffer: buffer, subs: make(map[*Subscription]struct{})}
}

// Publish sends an event to all subscribers (non-blocking).
func (b *EventBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for s := range b.subs {
		select {
		case s.C <- e:
		default:
			s.dropped.Add(1)
		}
	}
}

// Subscribe returns a subscription with a buffered channel.
func (b *EventBus) Subscribe() *Subscription {
	s := &Subscription{C: make(chan Event, b.buffer)}
	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()
	return s
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *EventBus) Unsubscribe(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[s]; !ok {
		return
	}
	delete(b.subs, s)
	close(s.C)
}

// Close unsubscribes everyone.
func (b *EventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for s := range b.subs {
		delete(b.subs, s)
		close(s.C)
	}
}

// Subscribers returns the number of subscribers.
func (b *EventBus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
