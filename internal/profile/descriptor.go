package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/poldi1405/eruption/internal/pipeerr"
)

// ScriptEntry is one `{script_path, parameter_overrides}` element of the
// ordered script list in a profile descriptor, bottom layer first.
type ScriptEntry struct {
	ScriptPath         string         `yaml:"script_path"`
	ParameterOverrides map[string]any `yaml:"parameter_overrides"`
}

// Descriptor is the on-disk profile document: the ordered script stack,
// global brightness, tick period, and the device selectors it binds to.
type Descriptor struct {
	Scripts       []ScriptEntry `yaml:"scripts"`
	Brightness    float64       `yaml:"brightness"`
	TickPeriodMS  int           `yaml:"tick_period_ms"`
	DeviceTargets []string      `yaml:"device_targets"`
}

// LoadDescriptor reads and decodes the profile document at path. Relative
// script_path entries are resolved against the profile's own directory so
// profiles remain portable across install locations.
func LoadDescriptor(path string) (Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Descriptor{}, pipeerr.ConfigInvalid(fmt.Errorf("profile: read descriptor %s: %w", path, err))
	}
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Descriptor{}, pipeerr.ConfigInvalid(fmt.Errorf("profile: parse descriptor %s: %w", path, err))
	}

	dir := filepath.Dir(path)
	for i, s := range d.Scripts {
		if !filepath.IsAbs(s.ScriptPath) {
			d.Scripts[i].ScriptPath = filepath.Join(dir, s.ScriptPath)
		}
	}

	if d.Brightness <= 0 {
		d.Brightness = 1.0
	}
	if d.TickPeriodMS <= 0 {
		d.TickPeriodMS = 16
	}
	return d, nil
}

// Period returns the descriptor's tick period as a time.Duration.
func (d Descriptor) Period() time.Duration {
	return time.Duration(d.TickPeriodMS) * time.Millisecond
}

// matchesTarget reports whether deviceID satisfies one of the descriptor's
// device target selectors: "*" matches everything, a trailing "*" matches
// as a prefix, anything else matches exactly.
func matchesTarget(targets []string, deviceID string) bool {
	if len(targets) == 0 {
		return true
	}
	for _, t := range targets {
		switch {
		case t == "*":
			return true
		case len(t) > 0 && t[len(t)-1] == '*':
			if len(deviceID) >= len(t)-1 && deviceID[:len(t)-1] == t[:len(t)-1] {
				return true
			}
		case t == deviceID:
			return true
		}
	}
	return false
}
