// Package inputbus implements the input fan-out: a bounded, per-device
// queue that merges raw-HID and evdev event streams into one ordered
// stream for the frame scheduler to drain each tick.
package inputbus

import (
	"sync"

	"github.com/poldi1405/eruption/internal/event"
)

// DefaultCapacity is the queue depth used when Bus is constructed without
// an explicit override; small enough that a stuck consumer notices
// quickly, large enough to absorb a tick's worth of key-repeat traffic.
const DefaultCapacity = 256

// Bus is a single-producer-per-source, single-consumer bounded queue for
// one device. Producers are input adapters running on their own
// goroutines; the consumer is that device's Scheduler.
type Bus struct {
	mu       sync.Mutex
	capacity int
	events   []event.Event
	held     map[int]bool // key_index -> still down, reserves its slot
	dropped  map[event.Source]uint64
}

// New constructs a Bus with the given capacity (DefaultCapacity if cap<=0).
func New(capacity int) *Bus {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Bus{
		capacity: capacity,
		held:     make(map[int]bool),
		dropped:  make(map[event.Source]uint64),
	}
}

// Push enqueues one event, preserving per-source FIFO and arrival order
// across sources. If the queue is full, the oldest droppable event is
// evicted first: a KeyDown whose matching KeyUp has not yet been
// observed is never dropped on its own, since that would break the
// pairing invariant.
func (b *Bus) Push(ev event.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch ev.Kind {
	case event.KindKeyDown:
		b.held[ev.KeyIndex] = true
	case event.KindKeyUp:
		delete(b.held, ev.KeyIndex)
	}

	if len(b.events) >= b.capacity {
		// An incoming KeyUp whose matching KeyDown is still sitting in the
		// queue completes that pair before either is ever delivered: drop
		// the queued KeyDown and skip appending this KeyUp rather than
		// evicting the KeyDown alone and leaving the KeyUp orphaned.
		if ev.Kind == event.KindKeyUp && b.evictMatchingKeyDownLocked(ev.KeyIndex, ev.Source) {
			return
		}
		if !b.evictOldestLocked(ev.Source) {
			// Every queued event is a held KeyDown; grow rather than
			// corrupt the pairing invariant. This only happens if more
			// keys are held than the configured capacity, a
			// misconfiguration rather than a steady-state condition.
			b.events = append(b.events, ev)
			return
		}
	}
	b.events = append(b.events, ev)
}

// evictMatchingKeyDownLocked removes a still-queued KeyDown for keyIndex, if
// any, accounting the drop against both its own source and droppedSource
// (the incoming KeyUp that completed the pair). Reports whether it found
// one to remove.
func (b *Bus) evictMatchingKeyDownLocked(keyIndex int, droppedSource event.Source) bool {
	for i, queued := range b.events {
		if queued.Kind == event.KindKeyDown && queued.KeyIndex == keyIndex {
			b.dropped[queued.Source]++
			b.dropped[droppedSource]++
			b.events = append(b.events[:i], b.events[i+1:]...)
			return true
		}
	}
	return false
}

// evictOldestLocked drops the oldest event that is safe to drop,
// incrementing the dropped counter for its originating source. Reports
// whether an eviction happened.
//
// A KeyDown still reserved in held is never touched. A KeyDown that's no
// longer in held (its KeyUp has already been pushed) still has that
// KeyUp sitting somewhere later in this same undrained queue, so it is
// evicted together with that KeyUp rather than alone: dropping only the
// KeyDown would leave the KeyUp in the queue with nothing preceding it.
func (b *Bus) evictOldestLocked(incomingSource event.Source) bool {
	for i, ev := range b.events {
		if ev.Kind == event.KindKeyDown && b.held[ev.KeyIndex] {
			continue
		}
		if ev.Kind == event.KindKeyDown {
			if j := b.findQueuedKeyUp(i+1, ev.KeyIndex); j >= 0 {
				up := b.events[j]
				b.dropped[ev.Source]++
				b.dropped[up.Source]++
				b.events = append(b.events[:j], b.events[j+1:]...)
				b.events = append(b.events[:i], b.events[i+1:]...)
				return true
			}
		}
		b.dropped[ev.Source]++
		b.events = append(b.events[:i], b.events[i+1:]...)
		return true
	}
	return false
}

// findQueuedKeyUp returns the index of the first KindKeyUp event for
// keyIndex at or after from, or -1 if none is queued.
func (b *Bus) findQueuedKeyUp(from, keyIndex int) int {
	for j := from; j < len(b.events); j++ {
		if b.events[j].Kind == event.KindKeyUp && b.events[j].KeyIndex == keyIndex {
			return j
		}
	}
	return -1
}

// Drain removes and returns all events queued since the last Drain, in
// arrival order. Called once per tick by the owning Scheduler.
func (b *Bus) Drain() []event.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.events) == 0 {
		return nil
	}
	out := b.events
	b.events = nil
	return out
}

// Dropped returns the number of events dropped so far for the given
// source, for diagnostics and the backpressure/degradation log.
func (b *Bus) Dropped(source event.Source) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped[source]
}
