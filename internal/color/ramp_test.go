package color

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRampTableZeroIsAlwaysOff(t *testing.T) {
	var rt RampTable
	rt.Init(0xFF)
	assert.Equal(t, uint8(0), rt.Apply(0))
}

func TestRampTableMonotonic(t *testing.T) {
	var rt RampTable
	rt.Init(0xFF)
	prev := uint8(0)
	for i := 1; i < 256; i++ {
		got := rt.Apply(uint8(i))
		assert.GreaterOrEqual(t, got, prev)
		prev = got
	}
}

func TestRampTableSkipsRebuildForSameIntensity(t *testing.T) {
	var rt RampTable
	rt.Init(128)
	rt.table[10] = 0xAB // poke the cache to prove Init(128) again is a no-op
	rt.Init(128)
	assert.Equal(t, uint8(0xAB), rt.table[10])
	rt.Init(129)
	assert.NotEqual(t, uint8(0xAB), rt.table[10])
}

func TestBrightenLeavesAlpha(t *testing.T) {
	var rt RampTable
	rt.Init(0xFF)
	c := Color{A: 0x77, R: 100, G: 100, B: 100}
	got := rt.Brighten(c)
	assert.Equal(t, uint8(0x77), got.A)
}
