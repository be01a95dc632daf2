package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyDownBuildsKindKeyDown(t *testing.T) {
	ts := time.Now()
	ev := KeyDown("kb0", SourceRawHID, 5, ts)
	assert.Equal(t, KindKeyDown, ev.Kind)
	assert.Equal(t, DeviceID("kb0"), ev.Device)
	assert.Equal(t, 5, ev.KeyIndex)
	assert.Equal(t, ts, ev.Ts)
}

func TestAxisEventCarriesValue(t *testing.T) {
	ev := AxisEvent("mouse0", SourceEvdev, 1, 3.5, time.Now())
	assert.Equal(t, KindAxis, ev.Kind)
	assert.Equal(t, 1, ev.Axis)
	assert.Equal(t, 3.5, ev.Value)
}

func TestSourceString(t *testing.T) {
	assert.Equal(t, "rawhid", SourceRawHID.String())
	assert.Equal(t, "evdev", SourceEvdev.String())
	assert.Equal(t, "unknown", Source(99).String())
}
