package scheduler

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poldi1405/eruption/internal/adapter"
	"github.com/poldi1405/eruption/internal/color"
	"github.com/poldi1405/eruption/internal/event"
	"github.com/poldi1405/eruption/internal/inputbus"
	"github.com/poldi1405/eruption/internal/profile"
	"github.com/poldi1405/eruption/internal/sensors"
)

// fakeAdapter is an in-memory adapter.Adapter for exercising the scheduler
// without a real HID handle.
type fakeAdapter struct {
	id         event.DeviceID
	ledCount   int
	writeDelay time.Duration
	writeErr   error
	events     []event.Event

	mu        sync.Mutex
	writes    int
	lastFrame color.Frame
	closed    bool
}

func (f *fakeAdapter) Open() (adapter.Topology, error) { return adapter.Topology{}, nil }

func (f *fakeAdapter) PollInput(time.Duration) ([]event.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.events) == 0 {
		return nil, adapter.ErrWouldBlock
	}
	out := f.events
	f.events = nil
	return out, nil
}

func (f *fakeAdapter) WriteFrame(frame color.Frame) error {
	if f.writeDelay > 0 {
		time.Sleep(f.writeDelay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	f.lastFrame = frame
	return f.writeErr
}

func (f *fakeAdapter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeAdapter) LEDCount() int      { return f.ledCount }
func (f *fakeAdapter) ID() event.DeviceID { return f.id }

var _ adapter.Adapter = (*fakeAdapter)(nil)

func newTestHub() *sensors.Hub {
	h := sensors.NewHub()
	h.Start()
	return h
}

func TestAccountBackpressureRaisesOnOverrun(t *testing.T) {
	dev := &fakeAdapter{id: "kb0", ledCount: 1}
	hub := newTestHub()
	defer hub.Stop()

	s := New("kb0", dev, inputbus.New(0), hub, 10*time.Millisecond, func() *profile.Profile { return nil }, nil)
	s.accountBackpressure(20 * time.Millisecond)
	assert.Equal(t, 1, s.backpressureStep)
	assert.Equal(t, 20*time.Millisecond, s.effectivePeriod())
}

func TestAccountBackpressureRecoversWhenFast(t *testing.T) {
	dev := &fakeAdapter{id: "kb0", ledCount: 1}
	hub := newTestHub()
	defer hub.Stop()

	s := New("kb0", dev, inputbus.New(0), hub, 10*time.Millisecond, func() *profile.Profile { return nil }, nil)
	s.backpressureStep = 2
	s.accountBackpressure(time.Millisecond)
	assert.Equal(t, 1, s.backpressureStep)
}

func TestAccountBackpressureNeverExceedsCap(t *testing.T) {
	dev := &fakeAdapter{id: "kb0", ledCount: 1}
	hub := newTestHub()
	defer hub.Stop()

	s := New("kb0", dev, inputbus.New(0), hub, time.Millisecond, func() *profile.Profile { return nil }, nil)
	for i := 0; i < maxBackpressureFactor+5; i++ {
		s.accountBackpressure(time.Hour)
	}
	assert.Equal(t, maxBackpressureFactor, s.backpressureStep)
}

func TestPollAdapterInputStampsDeviceAndPushesToBus(t *testing.T) {
	dev := &fakeAdapter{id: "kb0", ledCount: 1, events: []event.Event{
		{Kind: event.KindKeyDown, KeyIndex: 3},
	}}
	bus := inputbus.New(0)
	hub := newTestHub()
	defer hub.Stop()

	s := New("kb0", dev, bus, hub, 10*time.Millisecond, func() *profile.Profile { return nil }, nil)
	s.pollAdapterInput()

	got := bus.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, event.DeviceID("kb0"), got[0].Device)
	assert.Equal(t, 3, got[0].KeyIndex)
}

func TestRunStopEmitsShutdownFrameWhenProfileBound(t *testing.T) {
	dev := &fakeAdapter{id: "kb0", ledCount: 2}
	hub := newTestHub()
	defer hub.Stop()

	desc := profile.Descriptor{TickPeriodMS: 5}
	devices := []profile.DeviceInfo{{ID: "kb0", Topology: adapter.Topology{}, LEDCount: 2}}
	prof, err := profile.Bind(desc, devices)
	require.NoError(t, err)

	s := New("kb0", dev, inputbus.New(0), hub, 5*time.Millisecond, func() *profile.Profile { return prof }, nil)
	go s.Run()
	time.Sleep(20 * time.Millisecond)
	s.Stop()

	dev.mu.Lock()
	defer dev.mu.Unlock()
	assert.True(t, dev.closed)
	assert.GreaterOrEqual(t, dev.writes, 1)
}

func TestQuarantineClosesAdapterAndReportsCallback(t *testing.T) {
	dev := &fakeAdapter{id: "kb0", ledCount: 1}
	hub := newTestHub()
	defer hub.Stop()

	var reported event.DeviceID
	s := New("kb0", dev, inputbus.New(0), hub, 10*time.Millisecond, func() *profile.Profile { return nil }, func(id event.DeviceID, err error) {
		reported = id
	})

	s.quarantine(assert.AnError)
	assert.Equal(t, event.DeviceID("kb0"), reported)
	dev.mu.Lock()
	defer dev.mu.Unlock()
	assert.True(t, dev.closed)
}
