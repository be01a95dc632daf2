package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDescriptor(t *testing.T, yamlBody string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o644))
	return path
}

func TestLoadDescriptorDefaultsBrightnessAndTickPeriod(t *testing.T) {
	path := writeDescriptor(t, `
scripts:
  - script_path: glow.lua
`)
	d, err := LoadDescriptor(path)
	require.NoError(t, err)
	assert.Equal(t, 1.0, d.Brightness)
	assert.Equal(t, 16, d.TickPeriodMS)
}

func TestLoadDescriptorResolvesRelativeScriptPaths(t *testing.T) {
	path := writeDescriptor(t, `
scripts:
  - script_path: glow.lua
`)
	d, err := LoadDescriptor(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "glow.lua"), d.Scripts[0].ScriptPath)
}

func TestLoadDescriptorLeavesAbsoluteScriptPathsAlone(t *testing.T) {
	path := writeDescriptor(t, `
scripts:
  - script_path: /opt/scripts/glow.lua
`)
	d, err := LoadDescriptor(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/scripts/glow.lua", d.Scripts[0].ScriptPath)
}

func TestLoadDescriptorRejectsMissingFile(t *testing.T) {
	_, err := LoadDescriptor(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestMatchesTargetWildcard(t *testing.T) {
	assert.True(t, matchesTarget(nil, "kb0"))
	assert.True(t, matchesTarget([]string{"*"}, "kb0"))
}

func TestMatchesTargetPrefix(t *testing.T) {
	assert.True(t, matchesTarget([]string{"keyboard@*"}, "keyboard@/dev/hidraw0"))
	assert.False(t, matchesTarget([]string{"mouse@*"}, "keyboard@/dev/hidraw0"))
}

func TestMatchesTargetExact(t *testing.T) {
	assert.True(t, matchesTarget([]string{"kb0"}, "kb0"))
	assert.False(t, matchesTarget([]string{"kb0"}, "kb1"))
}
