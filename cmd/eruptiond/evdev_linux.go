//go:build linux

package main

import (
	"github.com/poldi1405/eruption/internal/adapter/evdev"
	"github.com/poldi1405/eruption/internal/event"
	"github.com/poldi1405/eruption/internal/scheduler"
)

// identityKeycode maps an evdev keycode straight through as the
// device-local key index. Real keyboards generally want a per-model
// table instead; this is the reasonable default for devices whose evdev
// codes are already dense.
func identityKeycode(code uint16) (int, bool) {
	return int(code), true
}

// addSupplementalEvdev opens path as an auxiliary evdev input source for
// target and wires it into the coordinator, running on its own goroutine
// separate from target's scheduler.
func addSupplementalEvdev(coord *scheduler.Coordinator, target event.DeviceID, path string) error {
	in, err := evdev.New(target, path, identityKeycode)
	if err != nil {
		return err
	}
	return coord.AddSupplementalInput(target, in)
}
