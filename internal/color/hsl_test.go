package color

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHSLRoundTrip(t *testing.T) {
	cases := []Color{
		Opaque(255, 0, 0),
		Opaque(0, 255, 0),
		Opaque(0, 0, 255),
		Opaque(128, 64, 200),
		Opaque(10, 10, 10),
	}
	for _, c := range cases {
		hsl := ToHSL(c)
		back := FromHSL(hsl)
		assert.InDelta(t, int(c.R), int(back.R), 2)
		assert.InDelta(t, int(c.G), int(back.G), 2)
		assert.InDelta(t, int(c.B), int(back.B), 2)
	}
}

func TestFromHSLZeroSaturationIsGray(t *testing.T) {
	c := FromHSL(HSL{H: 0, S: 0, L: 0.5})
	assert.Equal(t, c.R, c.G)
	assert.Equal(t, c.G, c.B)
}

func TestLerpEndpoints(t *testing.T) {
	from := Opaque(0, 0, 0)
	to := Opaque(255, 255, 255)
	assert.Equal(t, from, Lerp(from, to, 0))
	assert.Equal(t, to, Lerp(from, to, 1))
}
