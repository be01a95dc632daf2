package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifestPathDerivesSiblingYAML(t *testing.T) {
	assert.Equal(t, "/profiles/glow.manifest.yaml", ManifestPath("/profiles/glow.lua"))
}

func TestResolveParamUsesDefaultWhenOverrideAbsent(t *testing.T) {
	entry := ConfigEntry{Type: "float", Name: "speed", Default: 1.5}
	p, err := resolveParam(entry, nil, false)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, p.Float, 0.0001)
}

func TestResolveParamPrefersOverride(t *testing.T) {
	entry := ConfigEntry{Type: "int", Name: "count", Default: 1}
	p, err := resolveParam(entry, 9, true)
	require.NoError(t, err)
	assert.Equal(t, int64(9), p.Int)
}

func TestResolveParamRejectsWrongType(t *testing.T) {
	entry := ConfigEntry{Type: "bool", Name: "on"}
	_, err := resolveParam(entry, "not a bool", true)
	assert.Error(t, err)
}

func TestResolveParamRejectsUnknownType(t *testing.T) {
	entry := ConfigEntry{Type: "matrix", Name: "m"}
	_, err := resolveParam(entry, 1, true)
	assert.Error(t, err)
}
