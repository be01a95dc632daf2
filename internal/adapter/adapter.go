// Package adapter defines the device adapter contract: the per-device HID
// dialect that encodes frames to wire bytes and decodes raw input reports
// into normalized events.
package adapter

import (
	"time"

	"github.com/poldi1405/eruption/internal/color"
	"github.com/poldi1405/eruption/internal/event"
)

// Topology maps a script-visible logical key position to a frame index.
// The compositor treats frames as opaque; only scripts (through the host
// API) and adapters consult topology.
type Topology struct {
	// Rows and Columns describe a grid layout; zero for zone-only devices.
	Rows, Columns int
	// Index maps (row, column) -> frame index for grid devices.
	Index map[[2]int]int
	// Zones maps a named zone -> frame index, for devices without a
	// sensible row/column grid (e.g. a mouse's scroll-wheel LED).
	Zones map[string]int
}

// Descriptor is the static, declarative half of the adapter plug-in
// contract: VID/PID match, LED count, max frame rate, and report layout,
// independent of any open device handle.
type Descriptor struct {
	Name          string
	VendorID      uint16
	ProductID     uint16
	Interface     int
	Usage         uint16
	UsagePage     uint16
	LEDCount      int
	MaxFrameRate  time.Duration
	ReportsPerFrame int
}

// Adapter is the per-device contract. An Adapter is owned by exactly one
// scheduler goroutine; it is not safe for concurrent use.
type Adapter interface {
	// Open claims the device, performs any handshake, and returns the
	// live topology (which may differ from the static Descriptor, e.g.
	// firmware-reported LED count).
	Open() (Topology, error)

	// PollInput performs a non-blocking read of queued HID input reports.
	// It returns zero or more decoded events, or ErrWouldBlock if none are
	// currently available within timeout.
	PollInput(timeout time.Duration) ([]event.Event, error)

	// WriteFrame encodes and writes frame as one or more HID reports in a
	// fixed, deterministic order. It returns only once every report is
	// queued to the kernel, or on error.
	WriteFrame(frame color.Frame) error

	// Close restores the device to a quiescent state (LEDs off, or the
	// last applied profile, per configuration) and releases the handle.
	Close() error

	// LEDCount is the number of addressable LEDs as discovered by Open.
	LEDCount() int

	// ID is a stable identifier for the bound device, used as the
	// event.DeviceID tag and for log scoping.
	ID() event.DeviceID
}

// ErrWouldBlock is returned by PollInput when no input is currently
// available; it is not a failure.
var ErrWouldBlock = wouldBlockError{}

type wouldBlockError struct{}

func (wouldBlockError) Error() string { return "adapter: would block" }
