package scheduler

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/poldi1405/eruption/internal/adapter"
	"github.com/poldi1405/eruption/internal/event"
	"github.com/poldi1405/eruption/internal/inputbus"
	"github.com/poldi1405/eruption/internal/logx"
	"github.com/poldi1405/eruption/internal/profile"
	"github.com/poldi1405/eruption/internal/sensors"
)

// binding is everything the Coordinator tracks for one device: its
// adapter, fan-out bus, and the goroutine ticking it.
type binding struct {
	dev       adapter.Adapter
	bus       *inputbus.Bus
	topology  adapter.Topology
	scheduler *Scheduler
}

// Coordinator owns the one process-wide current-profile pointer and the
// per-device Scheduler set. It is the single writer of that pointer;
// every Scheduler is a wait-free reader via currentProfile().
type Coordinator struct {
	hub *sensors.Hub
	log *log.Logger

	mu       sync.Mutex
	bindings map[event.DeviceID]*binding

	current    atomic.Pointer[profile.Profile]
	generation atomic.Uint64

	reload     chan struct{}
	quit       chan struct{}
	shutdownOK sync.Once
}

// NewCoordinator constructs a Coordinator backed by hub for sensor
// snapshots. Call AddDevice for each device before Run.
func NewCoordinator(hub *sensors.Hub) *Coordinator {
	return &Coordinator{
		hub:      hub,
		log:      logx.For("coordinator"),
		bindings: make(map[event.DeviceID]*binding),
		reload:   make(chan struct{}, 1),
		quit:     make(chan struct{}),
	}
}

// AddDevice opens dev, wires it to a fresh fan-out Bus, and starts its
// Scheduler goroutine. nominalPeriod is the device's initial tick period;
// Publish may later bind a profile with a different one per descriptor.
func (c *Coordinator) AddDevice(dev adapter.Adapter, nominalPeriod time.Duration) error {
	topo, err := dev.Open()
	if err != nil {
		return fmt.Errorf("coordinator: open %s: %w", dev.ID(), err)
	}

	id := dev.ID()
	bus := inputbus.New(inputbus.DefaultCapacity)
	sch := New(id, dev, bus, c.hub, nominalPeriod, c.CurrentProfile, c.handleQuarantine)

	c.mu.Lock()
	c.bindings[id] = &binding{dev: dev, bus: bus, topology: topo, scheduler: sch}
	c.mu.Unlock()

	go sch.Run()
	return nil
}

// supplementalPollInterval is a fixed interval between polls on an
// auxiliary evdev input device, tight enough to keep key latency well
// under one tick period.
const supplementalPollInterval = 2 * time.Millisecond

// AddSupplementalInput attaches an input-only adapter (typically an
// evdev.Adapter for a device's boot-HID keyboard endpoint) to an
// already-added device's fan-out bus, running its own poll loop on a
// dedicated goroutine separate from that device's scheduler thread: the
// evdev handle is owned exclusively by this goroutine, never touched by
// the scheduler.
func (c *Coordinator) AddSupplementalInput(targetDevice event.DeviceID, in adapter.Adapter) error {
	if _, err := in.Open(); err != nil {
		return fmt.Errorf("coordinator: open supplemental input for %s: %w", targetDevice, err)
	}

	c.mu.Lock()
	b, ok := c.bindings[targetDevice]
	c.mu.Unlock()
	if !ok {
		in.Close()
		return fmt.Errorf("coordinator: no such device %s for supplemental input", targetDevice)
	}

	go func() {
		ticker := time.NewTicker(supplementalPollInterval)
		defer ticker.Stop()
		for range ticker.C {
			events, err := in.PollInput(supplementalPollInterval)
			if err != nil && err != adapter.ErrWouldBlock {
				c.log.Warn("supplemental input poll failed", "device", targetDevice, "err", err)
				continue
			}
			for _, ev := range events {
				ev.Device = targetDevice
				b.bus.Push(ev)
			}
		}
	}()
	return nil
}

// CurrentProfile returns the latest published profile, or nil before the
// first successful Publish. Safe for concurrent, wait-free reads from any
// Scheduler goroutine.
func (c *Coordinator) CurrentProfile() *profile.Profile {
	return c.current.Load()
}

// deviceInfos snapshots the currently bound devices' topology/LED count
// for Bind, without touching any adapter handle (each remains owned by
// its scheduler).
func (c *Coordinator) deviceInfos() []profile.DeviceInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	infos := make([]profile.DeviceInfo, 0, len(c.bindings))
	for id, b := range c.bindings {
		infos = append(infos, profile.DeviceInfo{
			ID:       id,
			Topology: b.topology,
			LEDCount: b.dev.LEDCount(),
		})
	}
	return infos
}

// Publish binds desc against the currently known devices and, on success,
// atomically swaps it in as the running profile with an incremented
// generation. A failed bind leaves the running profile untouched and
// returns the error to the caller.
func (c *Coordinator) Publish(desc profile.Descriptor) (*profile.Profile, error) {
	prof, err := profile.Bind(desc, c.deviceInfos())
	if err != nil {
		return nil, err
	}
	prof.Generation = c.generation.Add(1)
	c.current.Store(prof)
	c.log.Info("published profile", "generation", prof.Generation, "devices", len(prof.Devices))
	return prof, nil
}

// handleQuarantine drops a device from the bindings set once its
// scheduler has parked it; other devices are unaffected.
func (c *Coordinator) handleQuarantine(id event.DeviceID, cause error) {
	c.mu.Lock()
	delete(c.bindings, id)
	c.mu.Unlock()
	c.log.Error("device quarantined", "device", id, "err", cause)
}

// ReloadTrigger returns a channel the Coordinator writes to whenever a
// reload has been requested (SIGHUP), for wiring into profile.Watch.
func (c *Coordinator) ReloadTrigger() <-chan struct{} {
	return c.reload
}

// RequestReload enqueues a reload trigger, non-blocking: a reload already
// pending absorbs a second request instead of queuing one per signal.
func (c *Coordinator) RequestReload() {
	select {
	case c.reload <- struct{}{}:
	default:
	}
}

// Run installs SIGINT/SIGTERM/SIGHUP handling and blocks until a
// SIGINT/SIGTERM triggers graceful shutdown. SIGHUP enqueues a reload
// trigger on ReloadTrigger() for whatever's consuming it (normally
// profile.Watch) to pick up; Run itself never loads or publishes a
// profile.
func (c *Coordinator) Run() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for {
		select {
		case sig := <-sigCh:
			switch sig {
			case syscall.SIGHUP:
				c.log.Info("SIGHUP received, requesting profile reload")
				c.RequestReload()
			default:
				c.log.Info("shutdown signal received", "signal", sig)
				c.Shutdown()
				return
			}
		case <-c.quit:
			return
		}
	}
}

// Shutdown stops every device's scheduler, which each finish their
// current tick, emit a final quiescent frame, run on_quit(shutdown), and
// close their adapter. Maximum latency across all devices is bounded by
// the slowest one: one tick period plus one blocking write.
func (c *Coordinator) Shutdown() {
	c.shutdownOK.Do(func() {
		c.mu.Lock()
		scheds := make([]*Scheduler, 0, len(c.bindings))
		for _, b := range c.bindings {
			scheds = append(scheds, b.scheduler)
		}
		c.mu.Unlock()

		// Each Scheduler.Stop already runs on_quit(shutdown) and Close on
		// its own device's layer instances (see shutdownFrame); there is
		// nothing left on the (now fully-quit) current profile to tear
		// down again here.
		var wg sync.WaitGroup
		for _, sch := range scheds {
			wg.Add(1)
			go func(s *Scheduler) {
				defer wg.Done()
				s.Stop()
			}(sch)
		}
		wg.Wait()

		close(c.quit)
	})
}
