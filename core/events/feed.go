package events

import (
	"sync"
	"sync/atomic"
)

const defaultFeedBuffer = 64

// Feed fans committed events out to live subscribers. A subscriber whose
// buffer is full misses the event rather than stalling the ledger.
type Feed struct {
	mu      sync.RWMutex
	nextID  uint64
	subs    map[uint64]chan Event
	dropped atomic.Uint64
}

// NewFeed returns an empty feed.
func NewFeed() *Feed {
	return &Feed{subs: make(map[uint64]chan Event)}
}

// Subscribe registers a subscriber with the given channel capacity. The cancel
// function unregisters it and closes the channel.
func (f *Feed) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = defaultFeedBuffer
	}
	ch := make(chan Event, buffer)
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = ch
	f.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Emit implements the Emitter interface.
func (f *Feed) Emit(evt Event) {
	if f == nil || evt == nil {
		return
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, ch := range f.subs {
		select {
		case ch <- evt:
		default:
			f.dropped.Add(1)
		}
	}
}

// Subscribers returns the number of registered subscribers.
func (f *Feed) Subscribers() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}

// Dropped returns how many deliveries were skipped because a subscriber lagged.
func (f *Feed) Dropped() uint64 {
	return f.dropped.Load()
}
