// Package hidraw implements a device adapter for devices that expose a
// raw HID report endpoint: a github.com/bearsh/hid device handle with a
// blocking-write / timeout-read / SetNonblocking dance, and an arbitrary
// per-model report layout described by a Codec.
package hidraw

import (
	"fmt"
	"time"

	"github.com/bearsh/hid"

	"github.com/poldi1405/eruption/internal/adapter"
	"github.com/poldi1405/eruption/internal/color"
	"github.com/poldi1405/eruption/internal/event"
)

// Codec knows how to turn one device model's wire protocol into frames and
// events. It is supplied by device-specific registration code outside the
// scope of this package, and must be deterministic: same frame in, same
// report bytes out.
type Codec interface {
	// Topology returns the static LED layout for this model.
	Topology() adapter.Topology
	// Handshake returns any initialization reports to send on Open, in
	// order.
	Handshake() [][]byte
	// EncodeFrame splits frame into one or more fixed-order output
	// reports.
	EncodeFrame(frame color.Frame) ([][]byte, error)
	// DecodeInput turns one raw input report into zero or more events. It
	// must assign a device-local, reboot-stable KeyIndex.
	DecodeInput(report []byte, ts time.Time) []event.Event
	// Quiescent returns the report(s) written on Close to leave the
	// device in a benign state.
	Quiescent() [][]byte
}

// maxIoRetries bounds the local retry of transient errors (EAGAIN,
// interrupted syscalls) before escalating to DeviceGone.
const maxIoRetries = 3

// Adapter is a hidraw-backed device adapter. It is not safe for concurrent
// use; exactly one scheduler goroutine owns it.
type Adapter struct {
	desc   adapter.Descriptor
	codec  Codec
	device *hid.Device
	id     event.DeviceID
}

// New opens the first HID device matching desc using codec to speak its
// protocol. The codec's handshake is not sent until Open is called.
func New(desc adapter.Descriptor, codec Codec) (*Adapter, error) {
	candidates := hid.Enumerate(desc.VendorID, desc.ProductID)
	var found *hid.DeviceInfo
	for i, info := range candidates {
		if info.Interface != desc.Interface &&
			!(info.Usage == desc.Usage && info.UsagePage == desc.UsagePage) {
			continue
		}
		found = &candidates[i]
		break
	}
	if found == nil {
		return nil, fmt.Errorf("hidraw: no device matching %s (vid=%#04x pid=%#04x)", desc.Name, desc.VendorID, desc.ProductID)
	}

	device, err := found.Open()
	if err != nil {
		return nil, fmt.Errorf("hidraw: open %s: %w", desc.Name, err)
	}

	return &Adapter{
		desc:   desc,
		codec:  codec,
		device: device,
		id:     event.DeviceID(fmt.Sprintf("%s@%s", desc.Name, found.Path)),
	}, nil
}

// Open performs the codec's handshake and returns the device's topology.
func (a *Adapter) Open() (adapter.Topology, error) {
	if err := a.device.SetNonblocking(false); err != nil {
		return adapter.Topology{}, fmt.Errorf("hidraw: set blocking: %w", err)
	}
	for _, report := range a.codec.Handshake() {
		if _, err := a.writeRetry(report); err != nil {
			return adapter.Topology{}, fmt.Errorf("hidraw: handshake: %w", err)
		}
	}
	return a.codec.Topology(), nil
}

func (a *Adapter) writeRetry(report []byte) (int, error) {
	var lastErr error
	for attempt := 0; attempt < maxIoRetries; attempt++ {
		n, err := a.device.Write(report)
		if err == nil {
			return n, nil
		}
		lastErr = err
	}
	return 0, lastErr
}

// PollInput reads and decodes at most one pending input report.
func (a *Adapter) PollInput(timeout time.Duration) ([]event.Event, error) {
	buf := make([]byte, 64)
	size, err := a.device.ReadTimeout(buf, int(timeout.Milliseconds()))
	if err != nil {
		return nil, fmt.Errorf("hidraw: read: %w", err)
	}
	if size < 1 {
		return nil, adapter.ErrWouldBlock
	}
	return a.codec.DecodeInput(buf[:size], time.Now()), nil
}

// WriteFrame encodes and writes frame as one or more reports in the
// codec's fixed order. A failure partway through is left for the next
// full frame to correct.
func (a *Adapter) WriteFrame(frame color.Frame) error {
	reports, err := a.codec.EncodeFrame(frame)
	if err != nil {
		return fmt.Errorf("hidraw: encode: %w", err)
	}
	for i, report := range reports {
		if _, err := a.writeRetry(report); err != nil {
			return fmt.Errorf("hidraw: write report %d/%d: %w", i+1, len(reports), err)
		}
	}
	return nil
}

// Close writes the quiescent report(s) and releases the handle.
func (a *Adapter) Close() error {
	for _, report := range a.codec.Quiescent() {
		_, _ = a.writeRetry(report)
	}
	return a.device.Close()
}

// LEDCount reports the codec's declared LED count.
func (a *Adapter) LEDCount() int {
	topo := a.codec.Topology()
	return len(topo.Index) + len(topo.Zones)
}

// ID returns the adapter's stable device identifier.
func (a *Adapter) ID() event.DeviceID { return a.id }

var _ adapter.Adapter = (*Adapter)(nil)
