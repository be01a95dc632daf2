package profile

import (
	"strconv"
	"strings"

	"github.com/poldi1405/eruption/internal/color"
)

// asBool, asInt, asFloat, and asColor accept the handful of shapes YAML's
// decoder (or a Go literal passed programmatically in tests) can produce
// for each declared parameter type in a script manifest.

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// asColor accepts either a numeric 0xAARRGGBB literal or a "#RRGGBB" /
// "#AARRGGBB" string, the two forms a profile author would realistically
// write in YAML.
func asColor(v any) (color.Color, bool) {
	switch c := v.(type) {
	case int:
		return color.ARGB(withOpaqueAlpha(uint32(c))), true
	case int64:
		return color.ARGB(withOpaqueAlpha(uint32(c))), true
	case float64:
		return color.ARGB(withOpaqueAlpha(uint32(c))), true
	case string:
		s := strings.TrimPrefix(c, "#")
		n, err := strconv.ParseUint(s, 16, 32)
		if err != nil {
			return color.Color{}, false
		}
		switch len(s) {
		case 6:
			return color.ARGB(withOpaqueAlpha(uint32(n))), true
		case 8:
			return color.ARGB(uint32(n)), true
		}
		return color.Color{}, false
	}
	return color.Color{}, false
}

// withOpaqueAlpha sets the alpha byte to 0xFF when the literal didn't
// supply one (a bare 6-hex-digit / plain-int color is assumed opaque).
func withOpaqueAlpha(v uint32) uint32 {
	if v&0xFF000000 == 0 {
		return v | 0xFF000000
	}
	return v
}
