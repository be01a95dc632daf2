package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsIntAcceptsYAMLNumericShapes(t *testing.T) {
	for _, v := range []any{42, int64(42), float64(42)} {
		n, ok := asInt(v)
		assert.True(t, ok)
		assert.Equal(t, int64(42), n)
	}
	_, ok := asInt("42")
	assert.False(t, ok)
}

func TestAsColorAcceptsHexStringAndInt(t *testing.T) {
	c, ok := asColor("#FF0000")
	assert.True(t, ok)
	assert.Equal(t, uint32(0xFFFF0000), c.Uint32())

	c, ok = asColor("#80FF0000")
	assert.True(t, ok)
	assert.Equal(t, uint32(0x80FF0000), c.Uint32())

	c, ok = asColor(0x00FF00)
	assert.True(t, ok)
	assert.Equal(t, uint32(0xFF00FF00), c.Uint32())

	_, ok = asColor(true)
	assert.False(t, ok)
}

func TestWithOpaqueAlphaOnlyFillsWhenAbsent(t *testing.T) {
	assert.Equal(t, uint32(0xFF00FF00), withOpaqueAlpha(0x00FF00))
	assert.Equal(t, uint32(0x8000FF00), withOpaqueAlpha(0x8000FF00))
}
