// Package scripthost implements the script host: one isolated Lua
// interpreter per script instance, a closed host API surface, per-tick
// time budget enforcement, and the three-strikes/uncaught-error disable
// rule. Lua (github.com/yuin/gopher-lua) fits this domain directly since
// effect scripts are exactly the kind of small, sandboxable,
// per-instance-state content gopher-lua is built for.
package scripthost

import (
	"context"
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/poldi1405/eruption/internal/color"
	"github.com/poldi1405/eruption/internal/event"
	"github.com/poldi1405/eruption/internal/logx"
	"github.com/poldi1405/eruption/internal/pipeerr"
	"github.com/poldi1405/eruption/internal/sensors"
)

// maxConsecutiveOverruns is the three-strikes disable threshold.
const maxConsecutiveOverruns = 3

// Param is one named, typed, immutable parameter binding.
type Param struct {
	Type  ParamType
	Bool  bool
	Int   int64
	Float float64
	Color color.Color
	Str   string
}

// ParamType enumerates the supported parameter kinds.
type ParamType uint8

const (
	ParamBool ParamType = iota
	ParamInt
	ParamFloat
	ParamColor
	ParamString
)

// Topology is the subset of adapter.Topology a script needs, passed in at
// instantiation so this package has no import-time dependency on the
// adapter package.
type Topology struct {
	NumKeys   int
	Positions [][2]int // index -> (row, column); empty entries are {-1,-1}
}

// Instance is one loaded script bound to one device, owning a private Lua
// state, its own output buffer, and a budget record.
type Instance struct {
	name     string
	log      *lua.LState
	topology Topology
	params   map[string]Param
	output   color.Frame

	// sensorSnapshot is the copy-in set once per tick by Tick before any
	// handler runs, so every host-API getter an instance calls
	// during that tick observes the same values.
	sensorSnapshot map[string]sensors.Value
	// noiseSeed makes the noise() host function deterministic per
	// instance: derived from the instance name so the same script bound
	// under the same name always produces the same sequence.
	noiseSeed uint64

	enabled             bool
	lastTickNS          int64
	consecutiveOverruns int
}

// NewInstance loads scriptPath into a fresh interpreter, registers the
// host API, and leaves the instance ready for Startup. Loading runs the
// script's top-level chunk (which defines its handlers); no handler is
// called yet.
func NewInstance(name, scriptPath string, topology Topology, params map[string]Param, ledCount int) (*Instance, error) {
	inst := &Instance{
		name:           name,
		log:            lua.NewState(lua.Options{SkipOpenLibs: true}),
		topology:       topology,
		params:         params,
		output:         make(color.Frame, ledCount),
		sensorSnapshot: map[string]sensors.Value{},
		noiseSeed:      seedFromName(name),
		enabled:        true,
	}

	// Only load the safe subset of the standard library: no io/os/package
	// access, so a script can't touch the filesystem or spawn anything.
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		if err := inst.log.CallByParam(lua.P{Fn: inst.log.NewFunction(lib.fn), NRet: 0, Protect: true}, lua.LString(lib.name)); err != nil {
			inst.log.Close()
			return nil, fmt.Errorf("scripthost: open stdlib %s: %w", lib.name, err)
		}
	}

	registerAPI(inst.log, inst)

	if err := inst.log.DoFile(scriptPath); err != nil {
		inst.log.Close()
		return nil, pipeerr.ScriptRuntime(name, fmt.Errorf("load %s: %w", scriptPath, err))
	}

	return inst, nil
}

// Enabled reports whether this instance still participates in the
// profile (false once budget or runtime errors have disabled it).
func (i *Instance) Enabled() bool { return i.enabled }

// Output returns the instance's current color buffer. It retains the
// previous tick's contents whenever a tick is abandoned.
func (i *Instance) Output() color.Frame { return i.output }

// Startup calls on_startup() if present. It passes no arguments: scripts
// read their bound parameters through get_param. An error from the
// handler is returned to the caller; the instance's enabled flag is not
// changed by it.
func (i *Instance) Startup(ctx context.Context, budget time.Duration) error {
	return i.invoke(ctx, budget, "on_startup")
}

// Quit calls on_quit(reason) if present, best-effort: errors are logged,
// never escalated, since the instance is being torn down regardless.
func (i *Instance) Quit(reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := i.invoke(ctx, time.Second, "on_quit", lua.LString(reason)); err != nil {
		logx.For("scripthost["+i.name+"]").Warn("on_quit failed", "err", err)
	}
}

// Tick drains events through their matching handlers, then calls
// on_tick(delta_ms), enforcing budget at each call. Three consecutive
// overruns, or one uncaught error, disables the instance for the rest of
// the profile.
func (i *Instance) Tick(ctx context.Context, budget time.Duration, events []event.Event, sensorSnapshot map[string]sensors.Value, deltaMS float64) {
	if !i.enabled {
		return
	}

	i.sensorSnapshot = sensorSnapshot
	prev := i.output.Clone()
	start := time.Now()
	overran := false

	for _, ev := range events {
		if err := i.dispatchEvent(ctx, budget, ev); err != nil {
			if pipeerr.Is(err, pipeerr.KindScriptBudget) {
				overran = true
				break
			}
			i.disable(err)
			return
		}
	}

	if !overran {
		if err := i.invoke(ctx, budget, "on_tick", lua.LNumber(deltaMS)); err != nil {
			if pipeerr.Is(err, pipeerr.KindScriptBudget) {
				overran = true
			} else {
				i.disable(err)
				return
			}
		}
	}

	i.lastTickNS = time.Since(start).Nanoseconds()

	if overran {
		copy(i.output, prev)
		i.consecutiveOverruns++
		if i.consecutiveOverruns >= maxConsecutiveOverruns {
			i.disable(fmt.Errorf("%d consecutive tick overruns", i.consecutiveOverruns))
		}
		return
	}
	i.consecutiveOverruns = 0
}

func (i *Instance) dispatchEvent(ctx context.Context, budget time.Duration, ev event.Event) error {
	switch ev.Kind {
	case event.KindKeyDown:
		return i.invoke(ctx, budget, "on_key_down", lua.LNumber(ev.KeyIndex))
	case event.KindKeyUp:
		return i.invoke(ctx, budget, "on_key_up", lua.LNumber(ev.KeyIndex))
	case event.KindAxis:
		return i.invoke(ctx, budget, "on_mouse_axis", lua.LNumber(ev.Axis), lua.LNumber(ev.Value))
	case event.KindHidRaw:
		tbl := i.log.NewTable()
		for idx, b := range ev.Bytes {
			tbl.RawSetInt(idx+1, lua.LNumber(b))
		}
		return i.invoke(ctx, budget, "on_hid_event", tbl)
	default:
		return nil
	}
}

// invoke calls a named global handler if present, as a no-op otherwise.
// It enforces budget via a context deadline and classifies the resulting
// error.
func (i *Instance) invoke(parent context.Context, budget time.Duration, name string, args ...lua.LValue) error {
	fn, ok := i.log.GetGlobal(name).(*lua.LFunction)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(parent, budget)
	defer cancel()
	i.log.SetContext(ctx)

	err := i.log.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, args...)
	if err == nil {
		return nil
	}
	if ctx.Err() == context.DeadlineExceeded {
		return pipeerr.ScriptBudget(i.name, fmt.Errorf("%s exceeded budget %s", name, budget))
	}
	return pipeerr.ScriptRuntime(i.name, fmt.Errorf("%s: %w", name, err))
}

func (i *Instance) disable(cause error) {
	i.enabled = false
	logx.For("scripthost[" + i.name + "]").Warn("script disabled", "err", cause)
}

// Close releases the interpreter's resources.
func (i *Instance) Close() {
	i.log.Close()
}

// seedFromName derives a stable per-instance noise seed from the
// instance's name via FNV-1a, so noise() is reproducible run to run for
// the same profile.
func seedFromName(name string) uint64 {
	var h uint64 = 14695981039346656037
	for _, b := range []byte(name) {
		h ^= uint64(b)
		h *= 1099511628211
	}
	return h
}
