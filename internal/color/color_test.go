package color

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestARGBRoundTrip(t *testing.T) {
	c := ARGB(0xFF112233)
	assert.Equal(t, uint8(0xFF), c.A)
	assert.Equal(t, uint8(0x11), c.R)
	assert.Equal(t, uint8(0x22), c.G)
	assert.Equal(t, uint8(0x33), c.B)
	assert.Equal(t, uint32(0xFF112233), c.Uint32())
}

func TestAddSaturates(t *testing.T) {
	a := Opaque(200, 0, 0)
	b := Opaque(100, 0, 0)
	assert.Equal(t, uint8(0xFF), Add(a, b).R)
}

func TestSubSaturates(t *testing.T) {
	a := Opaque(10, 0, 0)
	b := Opaque(20, 0, 0)
	assert.Equal(t, uint8(0), Sub(a, b).R)
}

func TestOverFullyOpaqueTopReplaces(t *testing.T) {
	bottom := Opaque(10, 20, 30)
	top := Opaque(200, 150, 100)
	got := Over(bottom, top)
	assert.Equal(t, top.R, got.R)
	assert.Equal(t, top.G, got.G)
	assert.Equal(t, top.B, got.B)
}

func TestOverFullyTransparentTopLeavesBottom(t *testing.T) {
	bottom := Opaque(10, 20, 30)
	top := Color{A: 0, R: 200, G: 150, B: 100}
	got := Over(bottom, top)
	assert.Equal(t, bottom.R, got.R)
	assert.Equal(t, bottom.G, got.G)
	assert.Equal(t, bottom.B, got.B)
}

func TestOverAlphaIsMax(t *testing.T) {
	bottom := Color{A: 100, R: 1, G: 1, B: 1}
	top := Color{A: 200, R: 2, G: 2, B: 2}
	require.Equal(t, uint8(200), Over(bottom, top).A)
}

func TestScaleClampsToZeroAndOne(t *testing.T) {
	c := Opaque(100, 100, 100)
	assert.Equal(t, uint8(0), Scale(c, 0).R)
	assert.Equal(t, c.R, Scale(c, 1).R)
}

func TestFrameCloneIsIndependent(t *testing.T) {
	f := Frame{Opaque(1, 1, 1)}
	clone := f.Clone()
	clone[0] = Opaque(2, 2, 2)
	assert.Equal(t, uint8(1), f[0].R)
	assert.Equal(t, uint8(2), clone[0].R)
}
