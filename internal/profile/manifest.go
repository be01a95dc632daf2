// Package profile implements the profile binder: manifest and profile
// descriptor decoding, parameter validation against a script's declared
// config, instantiation of one scripthost.Instance per script per targeted
// device, and atomic all-or-nothing publish.
package profile

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/poldi1405/eruption/internal/pipeerr"
	"github.com/poldi1405/eruption/internal/scripthost"
)

// ConfigEntry is one declared parameter in a script manifest.
type ConfigEntry struct {
	Type        string `yaml:"type"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Default     any    `yaml:"default"`
}

// Manifest is the sibling document every effect script declares: identity,
// compatibility, and its ordered parameter list.
type Manifest struct {
	Name                string        `yaml:"name"`
	Description         string        `yaml:"description"`
	Version             string        `yaml:"version"`
	Author              string        `yaml:"author"`
	MinSupportedVersion string        `yaml:"min_supported_version"`
	Tags                []string      `yaml:"tags"`
	BlendMode           string        `yaml:"blend_mode"` // "over" (default) or "add"
	Config              []ConfigEntry `yaml:"config"`
}

// LoadManifest reads and decodes the manifest at path.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, pipeerr.ConfigInvalid(fmt.Errorf("profile: read manifest %s: %w", path, err))
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, pipeerr.ConfigInvalid(fmt.Errorf("profile: parse manifest %s: %w", path, err))
	}
	return m, nil
}

// ManifestPath derives a script's sibling manifest path: "glow.lua" ->
// "glow.manifest.yaml", the convention used by the fixture scripts under
// internal/profile/testdata.
func ManifestPath(scriptPath string) string {
	trimmed := strings.TrimSuffix(scriptPath, ".lua")
	return trimmed + ".manifest.yaml"
}

// resolveParam validates and converts one override value against entry's
// declared type, or returns entry's default when override is absent: a
// missing parameter always takes its manifest default.
func resolveParam(entry ConfigEntry, override (any), hasOverride bool) (scripthost.Param, error) {
	v := entry.Default
	if hasOverride {
		v = override
	}

	switch entry.Type {
	case "bool":
		b, ok := asBool(v)
		if !ok {
			return scripthost.Param{}, fmt.Errorf("parameter %q: want bool, got %T", entry.Name, v)
		}
		return scripthost.Param{Type: scripthost.ParamBool, Bool: b}, nil
	case "int":
		n, ok := asInt(v)
		if !ok {
			return scripthost.Param{}, fmt.Errorf("parameter %q: want int, got %T", entry.Name, v)
		}
		return scripthost.Param{Type: scripthost.ParamInt, Int: n}, nil
	case "float":
		f, ok := asFloat(v)
		if !ok {
			return scripthost.Param{}, fmt.Errorf("parameter %q: want float, got %T", entry.Name, v)
		}
		return scripthost.Param{Type: scripthost.ParamFloat, Float: f}, nil
	case "color":
		c, ok := asColor(v)
		if !ok {
			return scripthost.Param{}, fmt.Errorf("parameter %q: want color (#RRGGBB, #AARRGGBB or number), got %T", entry.Name, v)
		}
		return scripthost.Param{Type: scripthost.ParamColor, Color: c}, nil
	case "string":
		s, ok := v.(string)
		if !ok {
			return scripthost.Param{}, fmt.Errorf("parameter %q: want string, got %T", entry.Name, v)
		}
		return scripthost.Param{Type: scripthost.ParamString, Str: s}, nil
	default:
		return scripthost.Param{}, fmt.Errorf("parameter %q: unknown type %q", entry.Name, entry.Type)
	}
}
