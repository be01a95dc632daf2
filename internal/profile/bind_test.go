package profile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poldi1405/eruption/internal/adapter"
	"github.com/poldi1405/eruption/internal/event"
)

func oneDevice(id string, ledCount int) []DeviceInfo {
	return []DeviceInfo{{
		ID:       event.DeviceID(id),
		Topology: adapter.Topology{Index: map[[2]int]int{{0, 0}: 0}},
		LEDCount: ledCount,
	}}
}

func TestBindInstantiatesOneLayerPerScriptPerMatchedDevice(t *testing.T) {
	desc := Descriptor{
		Scripts:      []ScriptEntry{{ScriptPath: "testdata/glow.lua"}},
		Brightness:   1.0,
		TickPeriodMS: 16,
	}
	p, err := Bind(desc, oneDevice("kb0", 1))
	require.NoError(t, err)
	defer p.Close()

	dp, ok := p.Devices[event.DeviceID("kb0")]
	require.True(t, ok)
	assert.Len(t, dp.Layers, 1)
	assert.Equal(t, 1.0, dp.Brightness)
}

func TestBindHonorsParameterOverride(t *testing.T) {
	desc := Descriptor{
		Scripts: []ScriptEntry{{
			ScriptPath:         "testdata/glow.lua",
			ParameterOverrides: map[string]any{"color": "#00FF00"},
		}},
	}
	p, err := Bind(desc, oneDevice("kb0", 1))
	require.NoError(t, err)
	defer p.Close()

	dp := p.Devices[event.DeviceID("kb0")]
	require.Len(t, dp.Layers, 1)

	// glow.lua's on_tick paints key 0 with get_param("color").
	dp.Layers[0].Tick(context.Background(), time.Second, nil, nil, 16.0)
	assert.Equal(t, uint32(0xFF00FF00), dp.Layers[0].Output()[0].Uint32())
}

func TestBindSkipsDevicesNotMatchingTargets(t *testing.T) {
	desc := Descriptor{
		Scripts:       []ScriptEntry{{ScriptPath: "testdata/glow.lua"}},
		DeviceTargets: []string{"mouse@*"},
	}
	p, err := Bind(desc, oneDevice("kb0", 1))
	require.NoError(t, err)
	defer p.Close()

	_, ok := p.Devices[event.DeviceID("kb0")]
	assert.False(t, ok)
}

func TestBindFailureTearsDownEverythingCreatedSoFar(t *testing.T) {
	desc := Descriptor{
		Scripts: []ScriptEntry{
			{ScriptPath: "testdata/glow.lua"},
			{ScriptPath: "testdata/broken_startup.lua"},
		},
	}
	p, err := Bind(desc, oneDevice("kb0", 1))
	assert.Error(t, err)
	assert.Nil(t, p)
}

func TestBindRejectsMissingManifest(t *testing.T) {
	desc := Descriptor{
		Scripts: []ScriptEntry{{ScriptPath: "testdata/does_not_exist.lua"}},
	}
	p, err := Bind(desc, oneDevice("kb0", 1))
	assert.Error(t, err)
	assert.Nil(t, p)
}
