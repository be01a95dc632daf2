//go:build !linux

package main

import (
	"fmt"

	"github.com/poldi1405/eruption/internal/event"
	"github.com/poldi1405/eruption/internal/scheduler"
)

// addSupplementalEvdev is unsupported outside Linux: evdev is a Linux
// kernel interface (internal/adapter/evdev is //go:build linux).
func addSupplementalEvdev(coord *scheduler.Coordinator, target event.DeviceID, path string) error {
	return fmt.Errorf("eruptiond: supplemental evdev input is only supported on linux")
}
