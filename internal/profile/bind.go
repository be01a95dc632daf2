package profile

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/poldi1405/eruption/internal/adapter"
	"github.com/poldi1405/eruption/internal/compositor"
	"github.com/poldi1405/eruption/internal/event"
	"github.com/poldi1405/eruption/internal/pipeerr"
	"github.com/poldi1405/eruption/internal/scripthost"
)

// DeviceInfo is the static shape of one already-open device that Bind
// needs: its topology and LED count, without re-touching the adapter
// handle itself, which stays owned exclusively by that device's
// scheduler.
type DeviceInfo struct {
	ID       event.DeviceID
	Topology adapter.Topology
	LEDCount int
}

// DeviceProfile is one device's fully materialized slice of a Profile:
// its ordered layer stack and the tick period/brightness it ticks at.
type DeviceProfile struct {
	Layers     []*scripthost.Instance
	Modes      []compositor.BlendMode
	Brightness float64
	TickPeriod time.Duration
}

// Profile is the immutable, generation-tagged result of a successful bind.
// It never mutates after Bind returns; reload publishes a new Profile
// value instead.
type Profile struct {
	Generation uint64
	Devices    map[event.DeviceID]*DeviceProfile
}

// startupBudget bounds on_startup with a fixed wall-clock allowance, so a
// script that hangs during initialization can't stall the bind.
const startupBudget = 2 * time.Second

// Bind validates desc against each referenced script's sibling manifest,
// instantiates one scripthost.Instance per script per device matched by
// desc's device target selectors, runs on_startup on each, and returns
// the fully materialized Profile. On any failure the partially built
// profile is torn down (every instance created so far is Closed) and the
// error is returned as pipeerr.ProfileInvalid; the caller's running
// profile is left untouched.
func Bind(desc Descriptor, devices []DeviceInfo) (*Profile, error) {
	targets := make([]DeviceInfo, 0, len(devices))
	for _, d := range devices {
		if matchesTarget(desc.DeviceTargets, string(d.ID)) {
			targets = append(targets, d)
		}
	}

	p := &Profile{Devices: make(map[event.DeviceID]*DeviceProfile, len(targets))}
	for _, d := range targets {
		p.Devices[d.ID] = &DeviceProfile{
			Brightness: desc.Brightness,
			TickPeriod: desc.Period(),
		}
	}

	var created []*scripthost.Instance
	fail := func(err error) (*Profile, error) {
		for _, inst := range created {
			inst.Close()
		}
		return nil, pipeerr.ProfileInvalid(err)
	}

	for idx, entry := range desc.Scripts {
		manifest, err := LoadManifest(ManifestPath(entry.ScriptPath))
		if err != nil {
			return fail(fmt.Errorf("script %d (%s): %w", idx, entry.ScriptPath, err))
		}

		params, err := bindParams(manifest, entry.ParameterOverrides)
		if err != nil {
			return fail(fmt.Errorf("script %d (%s): %w", idx, entry.ScriptPath, err))
		}

		mode := compositor.BlendOver
		if manifest.BlendMode == "add" {
			mode = compositor.BlendAdd
		}

		baseName := scriptBaseName(entry.ScriptPath)

		for _, d := range targets {
			name := fmt.Sprintf("%s@%s#%d", baseName, d.ID, idx)
			inst, err := scripthost.NewInstance(name, entry.ScriptPath, toHostTopology(d.Topology, d.LEDCount), params, d.LEDCount)
			if err != nil {
				return fail(fmt.Errorf("script %d (%s) on device %s: %w", idx, entry.ScriptPath, d.ID, err))
			}
			created = append(created, inst)

			ctx, cancel := context.WithTimeout(context.Background(), startupBudget)
			startupErr := inst.Startup(ctx, startupBudget)
			cancel()
			if startupErr != nil {
				return fail(fmt.Errorf("script %d (%s) on_startup on device %s: %w", idx, entry.ScriptPath, d.ID, startupErr))
			}

			dp := p.Devices[d.ID]
			dp.Layers = append(dp.Layers, inst)
			dp.Modes = append(dp.Modes, mode)
		}
	}

	return p, nil
}

// bindParams resolves every manifest-declared parameter against the
// profile's overrides, defaulting any not present.
func bindParams(m Manifest, overrides map[string]any) (map[string]scripthost.Param, error) {
	params := make(map[string]scripthost.Param, len(m.Config))
	for _, entry := range m.Config {
		override, has := overrides[entry.Name]
		p, err := resolveParam(entry, override, has)
		if err != nil {
			return nil, err
		}
		params[entry.Name] = p
	}
	return params, nil
}

// toHostTopology reduces an adapter.Topology to the subset the script
// host exposes: a dense index->(row,col) slice, {-1,-1} for zone-only
// indices.
func toHostTopology(t adapter.Topology, ledCount int) scripthost.Topology {
	positions := make([][2]int, ledCount)
	for i := range positions {
		positions[i] = [2]int{-1, -1}
	}
	for rc, idx := range t.Index {
		if idx >= 0 && idx < len(positions) {
			positions[idx] = rc
		}
	}
	return scripthost.Topology{NumKeys: ledCount, Positions: positions}
}

func scriptBaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Quit calls on_quit(reason) on every instance in p and releases its
// interpreter, used by the scheduler on hot-swap and shutdown: the
// profile being dropped is never ticked again.
func (p *Profile) Quit(reason string) {
	for _, dp := range p.Devices {
		dp.Quit(reason)
	}
}

// Quit calls on_quit(reason) on every layer instance bound to this
// device and releases its interpreter. A Scheduler calls this directly
// on its own device's slice during hot-swap, quarantine, and shutdown
// rather than going through the whole Profile, since it never touches
// another device's layers.
func (dp *DeviceProfile) Quit(reason string) {
	for _, inst := range dp.Layers {
		inst.Quit(reason)
		inst.Close()
	}
}

// Close releases every instance's interpreter without invoking on_quit.
func (p *Profile) Close() {
	for _, dp := range p.Devices {
		for _, inst := range dp.Layers {
			inst.Close()
		}
	}
}
