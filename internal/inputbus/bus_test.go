package inputbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poldi1405/eruption/internal/event"
)

func TestDrainPreservesArrivalOrder(t *testing.T) {
	b := New(8)
	b.Push(event.KeyDown("dev", event.SourceRawHID, 1, time.Now()))
	b.Push(event.KeyUp("dev", event.SourceRawHID, 1, time.Now()))
	b.Push(event.KeyDown("dev", event.SourceEvdev, 2, time.Now()))

	got := b.Drain()
	require.Len(t, got, 3)
	assert.Equal(t, event.KindKeyDown, got[0].Kind)
	assert.Equal(t, event.KindKeyUp, got[1].Kind)
	assert.Equal(t, event.KindKeyDown, got[2].Kind)
}

func TestDrainEmptiesTheQueue(t *testing.T) {
	b := New(4)
	b.Push(event.KeyDown("dev", event.SourceRawHID, 1, time.Now()))
	b.Drain()
	assert.Nil(t, b.Drain())
}

func TestOverflowDropsOldestReleasableEvent(t *testing.T) {
	b := New(2)
	b.Push(event.KeyUp("dev", event.SourceRawHID, 1, time.Now()))
	b.Push(event.KeyUp("dev", event.SourceRawHID, 2, time.Now()))
	b.Push(event.KeyUp("dev", event.SourceRawHID, 3, time.Now()))

	got := b.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].KeyIndex)
	assert.Equal(t, 3, got[1].KeyIndex)
	assert.Equal(t, uint64(1), b.Dropped(event.SourceRawHID))
}

func TestOverflowNeverDropsAnUnpairedKeyDown(t *testing.T) {
	b := New(1)
	b.Push(event.KeyDown("dev", event.SourceRawHID, 1, time.Now()))
	// The queue is already at capacity with a held KeyDown; a second push
	// has nothing safe to evict, so the queue grows instead of dropping it.
	b.Push(event.KeyUp("dev", event.SourceRawHID, 2, time.Now()))

	got := b.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, event.KindKeyDown, got[0].Kind)
	assert.Equal(t, 1, got[0].KeyIndex)
}

func TestKeyUpReleasesHeldSlot(t *testing.T) {
	b := New(1)
	b.Push(event.KeyDown("dev", event.SourceRawHID, 1, time.Now()))
	b.Push(event.KeyUp("dev", event.SourceRawHID, 1, time.Now()))
	// The KeyUp arrived with the queue full and cancelled key 1's queued
	// KeyDown, so the next push finds room instead of forcing the queue
	// to grow.
	b.Push(event.KeyDown("dev", event.SourceRawHID, 2, time.Now()))

	got := b.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].KeyIndex)
}

func TestOverflowEvictsACompletedPairTogether(t *testing.T) {
	b := New(2)
	b.Push(event.KeyDown("dev", event.SourceRawHID, 1, time.Now()))
	b.Push(event.KeyUp("dev", event.SourceRawHID, 1, time.Now()))
	// Key 1's down/up pair both fit and sit undrained in the queue. A
	// third, unrelated push forces an eviction; the pair must go together
	// rather than leaving the KeyUp queued with no preceding KeyDown.
	b.Push(event.KeyDown("dev", event.SourceRawHID, 2, time.Now()))

	got := b.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, event.KindKeyDown, got[0].Kind)
	assert.Equal(t, 2, got[0].KeyIndex)
}

func TestOverflowingKeyUpCancelsItsQueuedKeyDown(t *testing.T) {
	b := New(1)
	b.Push(event.KeyDown("dev", event.SourceRawHID, 1, time.Now()))
	// Capacity is already spent on key 1's KeyDown. Its matching KeyUp
	// arriving now would otherwise evict the KeyDown and get appended on
	// its own, delivering an orphan KeyUp with no preceding KeyDown.
	b.Push(event.KeyUp("dev", event.SourceRawHID, 1, time.Now()))

	assert.Nil(t, b.Drain())
	assert.Equal(t, uint64(2), b.Dropped(event.SourceRawHID))
}
