// Package compositor blends an ordered stack of per-script layer buffers
// into one final frame using alpha-over semantics, a global brightness
// multiply, and an additive escape hatch for legacy scripts.
package compositor

import (
	"fmt"

	"github.com/poldi1405/eruption/internal/color"
)

// BlendMode selects how a layer combines with everything beneath it.
type BlendMode uint8

const (
	// BlendOver is the default alpha-over blend.
	BlendOver BlendMode = iota
	// BlendAdd ignores the layer's own alpha weighting for rgb and instead
	// saturating-adds its channels onto the accumulator, an opt-in for
	// scripts written against a raw additive blend model. The output
	// alpha still follows the max-alpha rule, same as BlendOver.
	BlendAdd
)

// Layer is one script instance's contribution to the stack, in
// bottom-to-top order given by the profile.
type Layer struct {
	Buffer  color.Frame
	Mode    BlendMode
	Enabled bool
}

// Composite blends layers bottom-to-top into a frame of length n.
// brightness is the global scalar in [0,1]; ramp, if non-nil, additionally
// runs the perceptual brightness curve from internal/color instead of
// (not in addition to) the plain linear Scale.
//
// Length mismatches are a bind-time error (see internal/profile), never a
// runtime one; Composite panics if called with a mismatched layer, since
// that would mean a profile was bound incorrectly, an internal invariant
// violation rather than a value callers should recover from mid-tick.
func Composite(n int, layers []Layer, brightness float64, ramp *color.RampTable) color.Frame {
	out := make(color.Frame, n)

	first := true
	for _, layer := range layers {
		if !layer.Enabled {
			continue
		}
		if len(layer.Buffer) != n {
			panic(fmt.Sprintf("compositor: layer length %d != frame length %d", len(layer.Buffer), n))
		}
		if first {
			copy(out, layer.Buffer)
			first = false
			continue
		}
		for i := range out {
			switch layer.Mode {
			case BlendAdd:
				out[i] = addBlend(out[i], layer.Buffer[i])
			default:
				out[i] = color.Over(out[i], layer.Buffer[i])
			}
		}
	}

	if ramp != nil {
		ramp.Init(scaleToByte(brightness))
		for i := range out {
			out[i] = ramp.Brighten(out[i])
		}
	} else {
		for i := range out {
			out[i] = color.Scale(out[i], brightness)
		}
	}

	return out
}

// addBlend implements the BlendAdd escape hatch: saturating rgb addition
// with max-alpha.
func addBlend(bottom, top color.Color) color.Color {
	added := color.Add(bottom, top)
	if top.A > bottom.A {
		added.A = top.A
	} else {
		added.A = bottom.A
	}
	return added
}

func scaleToByte(brightness float64) uint8 {
	if brightness <= 0 {
		return 0
	}
	if brightness >= 1 {
		return 0xFF
	}
	return uint8(brightness * 0xFF)
}
