package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JPShankel/ModumateLegacy-sub002/graph3d"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, graph3d.DefaultTolerances(), cfg.GraphTolerances())
	assert.Equal(t, 10.0, cfg.Miter.ExtensionRangeFactor)
}

func TestDecodeKeepsDefaults(t *testing.T) {
	cfg, err := Decode(strings.NewReader(`
tolerances:
  vertex: 0.001
log:
  level: debug
`))
	require.NoError(t, err)
	assert.Equal(t, 0.001, cfg.Tolerances.Vertex)
	assert.Equal(t, 0.01, cfg.Tolerances.Planar)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Len(t, cfg.Miter.Assembly.Layers, 3)

	cfg, err = Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestDecodeAssembly(t *testing.T) {
	cfg, err := Decode(strings.NewReader(`
miter:
  extension_range_factor: 4
  assembly:
    offset: 0
    layers:
      - name: slab
        thickness: 0.3
        structural: true
`))
	require.NoError(t, err)
	assert.Equal(t, 4.0, cfg.Miter.ExtensionRangeFactor)
	require.Len(t, cfg.Miter.Assembly.Layers, 1)
	assert.True(t, cfg.Miter.Assembly.Layers[0].Structural)
	assert.Equal(t, 0.0, cfg.Miter.Assembly.Offset)
}

func TestDecodeRejects(t *testing.T) {
	for name, doc := range map[string]string{
		"negative tolerance": "tolerances:\n  vertex: -1\n",
		"unknown field":      "tolerance:\n  vertex: 1\n",
		"bad level":          "log:\n  level: loud\n",
		"zero range":         "miter:\n  extension_range_factor: 0\n",
		"no structure":       "miter:\n  assembly:\n    layers:\n      - name: paint\n        thickness: 0.01\n",
	} {
		_, err := Decode(strings.NewReader(doc))
		assert.Error(t, err, name)
	}
}
