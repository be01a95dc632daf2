// Package scheduler implements the frame scheduler: one goroutine per
// device running a six-step tick loop (deadline, drain, dispatch,
// composite, emit, sleep), plus a Coordinator that owns the single
// shared current-profile pointer and handles hot-swap, quarantine, and
// shutdown.
package scheduler

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/poldi1405/eruption/internal/adapter"
	"github.com/poldi1405/eruption/internal/color"
	"github.com/poldi1405/eruption/internal/compositor"
	"github.com/poldi1405/eruption/internal/event"
	"github.com/poldi1405/eruption/internal/inputbus"
	"github.com/poldi1405/eruption/internal/logx"
	"github.com/poldi1405/eruption/internal/pipeerr"
	"github.com/poldi1405/eruption/internal/profile"
	"github.com/poldi1405/eruption/internal/sensors"
)

// maxBackpressureFactor bounds how many times the effective period can be
// halved away from the nominal one: at step 8 a 16ms device degrades to
// 16ms<<8 = 4.096s, never worse.
const maxBackpressureFactor = 8

// Scheduler runs the tick loop for exactly one device. It is the sole
// owner of its adapter handle and of whichever DeviceProfile slice of the
// current profile targets its device.
type Scheduler struct {
	id   event.DeviceID
	dev  adapter.Adapter
	bus  *inputbus.Bus
	hub  *sensors.Hub
	ramp *color.RampTable
	log  *log.Logger

	currentProfile func() *profile.Profile
	onQuarantine   func(event.DeviceID, error)

	period           time.Duration
	backpressureStep int // 0 = nominal; doubles effective period per step

	lastProfile *profile.Profile
	lastDP      *profile.DeviceProfile
	lastFrame   color.Frame

	tickNumber uint64
	stop       chan struct{}
	done       chan struct{}
}

// New constructs a Scheduler for one already-open device. currentProfile
// must return the coordinator's latest published profile (or nil before
// the first bind); onQuarantine is called once if the device is declared
// gone.
func New(id event.DeviceID, dev adapter.Adapter, bus *inputbus.Bus, hub *sensors.Hub, nominalPeriod time.Duration, currentProfile func() *profile.Profile, onQuarantine func(event.DeviceID, error)) *Scheduler {
	return &Scheduler{
		id:             id,
		dev:            dev,
		bus:            bus,
		hub:            hub,
		ramp:           &color.RampTable{},
		log:            logx.For("scheduler[" + string(id) + "]"),
		currentProfile: currentProfile,
		onQuarantine:   onQuarantine,
		period:         nominalPeriod,
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}
}

// effectivePeriod is the nominal period doubled by the current
// backpressure step.
func (s *Scheduler) effectivePeriod() time.Duration {
	return s.period << s.backpressureStep
}

// Run executes the tick loop until Stop is called or the device is
// quarantined. On Stop it emits a final quiescent frame (when a profile
// is bound) before returning; on quarantine it closes the adapter and
// returns without writing another frame.
func (s *Scheduler) Run() {
	defer close(s.done)

	tNext := time.Now().Add(s.effectivePeriod())
	lastTick := time.Now()

	for {
		select {
		case <-s.stop:
			s.shutdownFrame()
			return
		default:
		}

		prof := s.currentProfile()
		if prof != s.lastProfile {
			if s.lastDP != nil {
				go s.lastDP.Quit("replaced")
			}
			s.lastProfile = prof
			if prof != nil {
				s.lastDP = prof.Devices[s.id]
			} else {
				s.lastDP = nil
			}
			if s.lastDP != nil && s.lastDP.TickPeriod > 0 {
				s.period = s.lastDP.TickPeriod
			}
		}
		dp := s.lastDP

		s.pollAdapterInput()
		events := s.drainEvents()
		snapshot := s.hub.Snapshot()

		now := time.Now()
		deltaMS := float64(now.Sub(lastTick)) / float64(time.Millisecond)
		lastTick = now

		if dp != nil {
			s.dispatch(dp, events, snapshot, deltaMS)
			frame := s.composite(dp)
			if err := s.emit(frame); err != nil {
				s.quarantine(err)
				return
			}
			s.lastFrame = frame
		}

		s.tickNumber++

		sleepDur := time.Until(tNext)
		if sleepDur > 0 {
			timer := time.NewTimer(sleepDur)
			select {
			case <-timer.C:
			case <-s.stop:
				timer.Stop()
				s.shutdownFrame()
				return
			}
		}
		tNext = tNext.Add(s.effectivePeriod())
		if time.Now().After(tNext) {
			// We've fallen more than one period behind (a slow write or a
			// long GC pause); resync instead of firing a burst of
			// immediate ticks to catch up.
			tNext = time.Now().Add(s.effectivePeriod())
		}
	}
}

// Stop signals the loop to finish its current tick and exit.
func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
}

// pollAdapterInput drains every input report currently queued on this
// device's own HID handle and pushes the decoded events into the fan-out
// bus, stamping the device id the codec itself doesn't know. Since the
// adapter is owned by exactly one goroutine, it is polled here inline
// rather than from a separate thread; evdev's supplemental poller
// goroutine feeds the same bus concurrently.
func (s *Scheduler) pollAdapterInput() {
	for {
		events, err := s.dev.PollInput(0)
		if err != nil {
			if err != adapter.ErrWouldBlock {
				s.log.Warn("poll input failed", "err", err)
			}
			return
		}
		if len(events) == 0 {
			return
		}
		for _, ev := range events {
			ev.Device = s.id
			s.bus.Push(ev)
		}
	}
}

// drainEvents pulls every event targeting this device queued since the
// last tick.
func (s *Scheduler) drainEvents() []event.Event {
	return s.bus.Drain()
}

// dispatch ticks every layer instance bound to this device in stack
// order, each under its own per-script budget.
func (s *Scheduler) dispatch(dp *profile.DeviceProfile, events []event.Event, snapshot map[string]sensors.Value, deltaMS float64) {
	budget := dp.TickPeriod / 2
	if budget <= 0 {
		budget = s.period / 2
	}
	ctx := context.Background()
	for _, inst := range dp.Layers {
		inst.Tick(ctx, budget, events, snapshot, deltaMS)
	}
}

// composite blends the device's current layer outputs into one frame.
func (s *Scheduler) composite(dp *profile.DeviceProfile) color.Frame {
	layers := make([]compositor.Layer, len(dp.Layers))
	for i, inst := range dp.Layers {
		layers[i] = compositor.Layer{
			Buffer:  inst.Output(),
			Mode:    dp.Modes[i],
			Enabled: inst.Enabled(),
		}
	}
	return compositor.Composite(s.dev.LEDCount(), layers, dp.Brightness, s.ramp)
}

// emit writes the composited frame to the device. It always completes
// even if it pushes past tNext; the overrun shows up in the next tick's
// delta and in backpressure accounting.
func (s *Scheduler) emit(frame color.Frame) error {
	start := time.Now()
	err := s.dev.WriteFrame(frame)
	elapsed := time.Since(start)
	s.accountBackpressure(elapsed)
	return err
}

// accountBackpressure rate-halves the effective period when writes
// consistently overrun it, and recovers back towards nominal once writes
// are comfortably within budget again.
func (s *Scheduler) accountBackpressure(writeElapsed time.Duration) {
	switch {
	case writeElapsed > s.effectivePeriod() && s.backpressureStep < maxBackpressureFactor:
		s.backpressureStep++
		s.log.Warn("write overran tick period, halving rate", "write", writeElapsed, "period", s.effectivePeriod())
	case s.backpressureStep > 0 && writeElapsed < s.period/2:
		s.backpressureStep--
		s.log.Info("write recovered, restoring rate", "period", s.effectivePeriod())
	}
}

// quarantine marks the device offline: scripts on this device are told
// on_quit(reason=quarantined), the adapter is closed, and the scheduler
// parks by returning. Other devices are unaffected.
func (s *Scheduler) quarantine(cause error) {
	s.log.Error("device gone, quarantining", "err", cause)
	if s.lastDP != nil {
		s.lastDP.Quit("quarantined")
		s.lastDP = nil
	}
	if err := s.dev.Close(); err != nil {
		s.log.Warn("close after quarantine failed", "err", err)
	}
	if s.onQuarantine != nil {
		s.onQuarantine(s.id, pipeerr.DeviceGone(string(s.id), cause))
	}
}

// shutdownFrame emits one final quiescent frame and runs on_quit(shutdown)
// on this device's layers, bounding shutdown latency to one tick period
// plus one blocking write.
func (s *Scheduler) shutdownFrame() {
	if s.lastDP != nil {
		off := make(color.Frame, s.dev.LEDCount())
		_ = s.dev.WriteFrame(off)
		s.lastDP.Quit("shutdown")
		s.lastDP = nil
	}
	if err := s.dev.Close(); err != nil {
		s.log.Warn("close on shutdown failed", "err", err)
	}
}
