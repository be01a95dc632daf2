//go:build linux

// Package evdev implements an input-only device adapter over the Linux
// kernel's evdev layer, for devices that report key events through
// /dev/input/eventN rather than (or in addition to) a raw HID endpoint:
// open-by-path, ioctl-for-identity, read-struct-input_event, reduced to
// the subset the frame pipeline needs.
package evdev

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/poldi1405/eruption/internal/adapter"
	"github.com/poldi1405/eruption/internal/color"
	"github.com/poldi1405/eruption/internal/event"
)

const (
	evSyn = 0x00
	evKey = 0x01
	evRel = 0x02

	inputEventSize = 24 // struct input_event on 64-bit: 2x timeval(16) + 2 + 2 + 4
)

// KeycodeMap translates an OS evdev keycode into a dense, device-local
// key index that stays stable across reboots, typically a static table
// built once per physical device model.
type KeycodeMap func(code uint16) (index int, ok bool)

// Adapter decodes evdev input reports into pipeline events. It never
// writes frames: WriteFrame always fails, since evdev devices have no LED
// surface of their own in this pipeline (their sibling raw-HID endpoint,
// if any, is a separate hidraw.Adapter).
type Adapter struct {
	id      event.DeviceID
	path    string
	file    *os.File
	keycode KeycodeMap
	held    map[int]bool
}

// New opens the evdev device at path.
func New(id event.DeviceID, path string, keycode KeycodeMap) (*Adapter, error) {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("evdev: open %s: %w", path, err)
	}
	return &Adapter{
		id:      id,
		path:    path,
		file:    f,
		keycode: keycode,
		held:    make(map[int]bool),
	}, nil
}

// Open claims the device in non-blocking mode. evdev devices have no LED
// topology of their own.
func (a *Adapter) Open() (adapter.Topology, error) {
	if err := unix.SetNonblock(int(a.file.Fd()), true); err != nil {
		return adapter.Topology{}, fmt.Errorf("evdev: set nonblocking: %w", err)
	}
	return adapter.Topology{}, nil
}

// PollInput reads and decodes as many whole struct input_event records as
// are currently available.
func (a *Adapter) PollInput(timeout time.Duration) ([]event.Event, error) {
	buf := make([]byte, inputEventSize*16)
	n, err := a.file.Read(buf)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) {
			return nil, adapter.ErrWouldBlock
		}
		return nil, fmt.Errorf("evdev: read %s: %w", a.path, err)
	}
	if n < inputEventSize {
		return nil, adapter.ErrWouldBlock
	}

	return decodeEvents(buf[:n], a.id, a.keycode, a.held, time.Now()), nil
}

// decodeEvents parses as many whole struct input_event records as fit in
// buf and turns them into pipeline events, updating held in place to track
// which key indices are currently down. Split out from PollInput so the
// decode logic can be exercised without a real /dev/input handle.
func decodeEvents(buf []byte, id event.DeviceID, keycode KeycodeMap, held map[int]bool, now time.Time) []event.Event {
	var events []event.Event
	for off := 0; off+inputEventSize <= len(buf); off += inputEventSize {
		rec := buf[off : off+inputEventSize]
		typ := binary.LittleEndian.Uint16(rec[16:18])
		code := binary.LittleEndian.Uint16(rec[18:20])
		value := int32(binary.LittleEndian.Uint32(rec[20:24]))

		switch typ {
		case evKey:
			idx, ok := keycode(code)
			if !ok {
				continue
			}
			switch value {
			case 1: // key down
				held[idx] = true
				events = append(events, event.KeyDown(id, event.SourceEvdev, idx, now))
			case 0: // key up
				if held[idx] {
					delete(held, idx)
					events = append(events, event.KeyUp(id, event.SourceEvdev, idx, now))
				}
			}
		case evRel:
			events = append(events, event.AxisEvent(id, event.SourceEvdev, int(code), float64(value), now))
		case evSyn:
			// Frame boundary in the kernel's own event stream; no
			// pipeline event carries this, it only separates reports.
		}
	}
	return events
}

// WriteFrame is unsupported: evdev is an input-only adapter.
func (a *Adapter) WriteFrame(color.Frame) error {
	return fmt.Errorf("evdev: %s has no LED surface", a.path)
}

// Close releases the device handle. Any key still marked held is left
// unpaired; the scheduler's quarantine path is what tells scripts this
// device is gone, not a synthesized KeyUp here.
func (a *Adapter) Close() error {
	return a.file.Close()
}

// LEDCount is always zero for an input-only adapter.
func (a *Adapter) LEDCount() int { return 0 }

// ID returns the adapter's stable device identifier.
func (a *Adapter) ID() event.DeviceID { return a.id }

var _ adapter.Adapter = (*Adapter)(nil)
