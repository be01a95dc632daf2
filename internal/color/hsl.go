package color

import "math"

// HSL is hue in [0,360), saturation and lightness in [0,1]. Scripts convert
// to/from it through the host API's color space utilities.
type HSL struct {
	H, S, L float64
}

// ToHSL converts the rgb channels of c, ignoring alpha.
func ToHSL(c Color) HSL {
	r := float64(c.R) / 255
	g := float64(c.G) / 255
	b := float64(c.B) / 255

	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	l := (max + min) / 2

	if max == min {
		return HSL{H: 0, S: 0, L: l}
	}

	d := max - min
	var s float64
	if l > 0.5 {
		s = d / (2 - max - min)
	} else {
		s = d / (max + min)
	}

	var h float64
	switch max {
	case r:
		h = (g - b) / d
		if g < b {
			h += 6
		}
	case g:
		h = (b-r)/d + 2
	case b:
		h = (r-g)/d + 4
	}
	h *= 60

	return HSL{H: h, S: s, L: l}
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 1.0/2:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	default:
		return p
	}
}

// FromHSL is the inverse of ToHSL, producing a fully-opaque color.
func FromHSL(hsl HSL) Color {
	if hsl.S == 0 {
		v := clamp8(int32(math.Round(hsl.L * 255)))
		return Color{A: 0xFF, R: v, G: v, B: v}
	}

	h := hsl.H / 360
	var q float64
	if hsl.L < 0.5 {
		q = hsl.L * (1 + hsl.S)
	} else {
		q = hsl.L + hsl.S - hsl.L*hsl.S
	}
	p := 2*hsl.L - q

	r := hueToRGB(p, q, h+1.0/3)
	g := hueToRGB(p, q, h)
	b := hueToRGB(p, q, h-1.0/3)

	return Color{
		A: 0xFF,
		R: clamp8(int32(math.Round(r * 255))),
		G: clamp8(int32(math.Round(g * 255))),
		B: clamp8(int32(math.Round(b * 255))),
	}
}

// Lerp interpolates two opaque colors component-wise by t in [0,1], a
// utility exposed to scripts for easing between key frames.
func Lerp(from, to Color, t float64) Color {
	return Color{
		A: clamp8(int32(math.Round(float64(from.A)*(1-t) + float64(to.A)*t))),
		R: clamp8(int32(math.Round(float64(from.R)*(1-t) + float64(to.R)*t))),
		G: clamp8(int32(math.Round(float64(from.G)*(1-t) + float64(to.G)*t))),
		B: clamp8(int32(math.Round(float64(from.B)*(1-t) + float64(to.B)*t))),
	}
}
