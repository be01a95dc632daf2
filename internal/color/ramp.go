package color

// RampTable is a self-initializing intensity lookup table mapping an 8-bit
// linear input to the non-linear output a PWM-driven LED actually needs to
// look evenly bright, the same curve-fitting trick apa102.lut uses for
// APA102 strips, adapted here to a plain [0,255] -> [0,255] table since HID
// keyboard/mouse controllers take byte-per-channel reports rather than
// 5-bit global + 8-bit channel PWM words.
type RampTable struct {
	intensity uint8
	table     [256]uint8
	ready     bool
}

// ramp maps l in [0, 255] onto [0, max] using a linear floor followed by a
// cubic ease, so low brightness settings stay visible instead of crushing
// to black the way a naive linear scale would.
func ramp(l uint8, max uint8) uint8 {
	if l == 0 || max == 0 {
		return 0
	}
	linearCutOff := uint32(max+50) / 100
	l32 := uint32(l)
	if l32 < linearCutOff {
		return uint8(l32)
	}
	l32 -= linearCutOff
	inRange := uint32(255) - linearCutOff
	outRange := uint32(max) - linearCutOff
	offset := inRange / 2
	y := (l32*l32*l32 + offset) / inRange
	return uint8((y*outRange+offset*offset)/inRange/inRange + linearCutOff)
}

// Init (re)builds the table for the given global intensity, a no-op if it
// already matches the current intensity.
func (t *RampTable) Init(intensity uint8) {
	if t.ready && t.intensity == intensity {
		return
	}
	t.intensity = intensity
	t.ready = true
	for i := range t.table {
		t.table[i] = ramp(uint8(i), intensity)
	}
}

// Apply looks up the ramped value for v.
func (t *RampTable) Apply(v uint8) uint8 {
	return t.table[v]
}

// Brighten applies the ramp table to every channel of c, leaving alpha
// untouched. This is the non-linear counterpart to Scale, used by the
// compositor when a profile wants perceptually-even brightness steps
// instead of a flat multiplier.
func (t *RampTable) Brighten(c Color) Color {
	return Color{
		A: c.A,
		R: t.Apply(c.R),
		G: t.Apply(c.G),
		B: t.Apply(c.B),
	}
}
