package scripthost

import (
	"math"

	lua "github.com/yuin/gopher-lua"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/poldi1405/eruption/internal/color"
)

// stripNonLatin strips diacritics from sensor-provided strings (weather
// location names, mail labels) before a script hands them to a device
// whose firmware can only render plain Latin glyphs.
var stripNonLatin = transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool { return r >= 0x80 }), norm.NFC)

// registerAPI installs the closed host API surface into L, a
// fresh-per-instance Lua state with no shared mutable state across
// instances. Every function closes over inst, never package-level state,
// so two instances never see each other's topology, params, or buffers.
func registerAPI(L *lua.LState, inst *Instance) {
	reg := func(name string, fn lua.LGFunction) {
		L.SetGlobal(name, L.NewFunction(fn))
	}

	reg("get_num_keys", func(L *lua.LState) int {
		L.Push(lua.LNumber(inst.topology.NumKeys))
		return 1
	})

	reg("get_key_position", func(L *lua.LState) int {
		i := L.CheckInt(1)
		if i < 0 || i >= len(inst.topology.Positions) {
			L.Push(lua.LNil)
			return 1
		}
		pos := inst.topology.Positions[i]
		L.Push(lua.LNumber(pos[0]))
		L.Push(lua.LNumber(pos[1]))
		return 2
	})

	reg("set_color_map", func(L *lua.LState) int {
		tbl := L.CheckTable(1)
		n := tbl.Len()
		if n > len(inst.output) {
			n = len(inst.output)
		}
		for i := 1; i <= n; i++ {
			v := tbl.RawGetInt(i)
			if num, ok := v.(lua.LNumber); ok {
				inst.output[i-1] = color.ARGB(uint32(int64(num)))
			}
		}
		return 0
	})

	reg("set_color_at", func(L *lua.LState) int {
		i := L.CheckInt(1)
		argb := uint32(L.CheckNumber(2))
		if i >= 0 && i < len(inst.output) {
			inst.output[i] = color.ARGB(argb)
		}
		return 0
	})

	reg("get_param", func(L *lua.LState) int {
		name := L.CheckString(1)
		p, ok := inst.params[name]
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		switch p.Type {
		case ParamBool:
			L.Push(lua.LBool(p.Bool))
		case ParamInt:
			L.Push(lua.LNumber(p.Int))
		case ParamFloat:
			L.Push(lua.LNumber(p.Float))
		case ParamColor:
			L.Push(lua.LNumber(p.Color.Uint32()))
		case ParamString:
			L.Push(lua.LString(p.Str))
		default:
			L.Push(lua.LNil)
		}
		return 1
	})

	reg("get_audio_loudness", func(L *lua.LState) int {
		v := inst.sensorSnapshot["audio"]
		L.Push(lua.LNumber(v.Scalar))
		return 1
	})

	reg("get_audio_spectrum", func(L *lua.LState) int {
		v := inst.sensorSnapshot["audio"]
		tbl := L.NewTable()
		for i, band := range v.Spectrum {
			tbl.RawSetInt(i+1, lua.LNumber(band))
		}
		L.Push(tbl)
		return 1
	})

	reg("get_cpu_load", func(L *lua.LState) int {
		L.Push(lua.LNumber(inst.sensorSnapshot["cpu"].Scalar))
		return 1
	})

	reg("get_sensor", func(L *lua.LState) int {
		name := L.CheckString(1)
		L.Push(lua.LNumber(inst.sensorSnapshot[name].Scalar))
		return 1
	})

	reg("rgb_to_hsl", func(L *lua.LState) int {
		argb := uint32(L.CheckNumber(1))
		hsl := color.ToHSL(color.ARGB(argb))
		L.Push(lua.LNumber(hsl.H))
		L.Push(lua.LNumber(hsl.S))
		L.Push(lua.LNumber(hsl.L))
		return 3
	})

	reg("hsl_to_rgb", func(L *lua.LState) int {
		h := L.CheckNumber(1)
		s := L.CheckNumber(2)
		l := L.CheckNumber(3)
		c := color.FromHSL(color.HSL{H: float64(h), S: float64(s), L: float64(l)})
		L.Push(lua.LNumber(c.Uint32()))
		return 1
	})

	reg("lerp_color", func(L *lua.LState) int {
		from := color.ARGB(uint32(L.CheckNumber(1)))
		to := color.ARGB(uint32(L.CheckNumber(2)))
		t := float64(L.CheckNumber(3))
		L.Push(lua.LNumber(color.Lerp(from, to, t).Uint32()))
		return 1
	})

	reg("ease_in_out", func(L *lua.LState) int {
		t := float64(L.CheckNumber(1))
		var eased float64
		if t < 0.5 {
			eased = 2 * t * t
		} else {
			eased = 1 - math.Pow(-2*t+2, 2)/2
		}
		L.Push(lua.LNumber(eased))
		return 1
	})

	reg("sanitize_string", func(L *lua.LState) int {
		s := L.CheckString(1)
		clean, _, err := transform.String(stripNonLatin, s)
		if err != nil {
			L.Push(lua.LString(s))
			return 1
		}
		L.Push(lua.LString(clean))
		return 1
	})

	reg("noise", func(L *lua.LState) int {
		x := float64(L.CheckNumber(1))
		y := float64(L.CheckNumber(2))
		L.Push(lua.LNumber(valueNoise(inst.noiseSeed, x, y)))
		return 1
	})
}

// valueNoise is a deterministic hash-based value-noise function: the same
// (seed, x, y) always yields the same result, so effects stay reproducible
// run to run.
func valueNoise(seed uint64, x, y float64) float64 {
	ix, iy := math.Floor(x), math.Floor(y)
	fx, fy := x-ix, y-iy

	h00 := hash2(seed, int64(ix), int64(iy))
	h10 := hash2(seed, int64(ix)+1, int64(iy))
	h01 := hash2(seed, int64(ix), int64(iy)+1)
	h11 := hash2(seed, int64(ix)+1, int64(iy)+1)

	sx := fx * fx * (3 - 2*fx)
	sy := fy * fy * (3 - 2*fy)

	top := h00 + sx*(h10-h00)
	bot := h01 + sx*(h11-h01)
	return top + sy*(bot-top)
}

func hash2(seed uint64, x, y int64) float64 {
	h := seed
	h ^= uint64(x) * 0x9E3779B97F4A7C15
	h ^= uint64(y) * 0xC2B2AE3D27D4EB4F
	h ^= h >> 33
	h *= 0xFF51AFD7ED558CCD
	h ^= h >> 33
	return float64(h%1000000) / 1000000
}
