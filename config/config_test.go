package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mastercactapus/gcmc/canon"
	"github.com/mastercactapus/gcmc/coord"
	"github.com/mastercactapus/gcmc/gcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "machine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeTemp(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, "g54", cfg.Defaults.CoordSystem)
	assert.Equal(t, "mm", cfg.Defaults.Units)
	assert.Equal(t, 28, cfg.System.PlannerBuffers)
	assert.Equal(t, "standard", cfg.Axes["x"].Mode)
	assert.Equal(t, 16000.0, cfg.Axes["x"].VelocityMax)
}

func TestLoad_Full(t *testing.T) {
	cfg, err := Load(writeTemp(t, `
system:
  chordal_tolerance: 0.02
defaults:
  units: in
  distance_mode: g91
axes:
  x:
    mode: standard
    travel_max: 220
    switch_min: 1
  a:
    mode: radius
    radius: 10
offsets:
  g54:
    x: 5
    y: -2.5
`))
	require.NoError(t, err)

	s := cfg.Settings()
	assert.Equal(t, 0.02, s.ChordalTolerance)
	assert.Equal(t, gcode.Inches, s.Defaults.UnitsMode)
	assert.Equal(t, gcode.IncrementalMode, s.Defaults.DistanceMode)
	assert.Equal(t, 220.0, s.Axes[coord.AxisX].TravelMax)
	assert.Equal(t, canon.AxisRadius, s.Axes[coord.AxisA].Mode)
	assert.Equal(t, 5.0, s.Offsets[gcode.G54][coord.AxisX])
	assert.Equal(t, -2.5, s.Offsets[gcode.G54][coord.AxisY])
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(writeTemp(t, "axes:\n  q: {}\n"))
	assert.Error(t, err)

	_, err = Load(writeTemp(t, "offsets:\n  g53:\n    x: 1\n"))
	assert.Error(t, err)

	_, err = Load(writeTemp(t, "defaults:\n  units: furlongs\n"))
	assert.Error(t, err)
}

func TestOffsets_RoundTrip(t *testing.T) {
	path := writeTemp(t, "{}\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	var offsets [gcode.NumCoordSystems]coord.Vector
	offsets[gcode.G55][coord.AxisZ] = -3.25
	cfg.SetOffsets(offsets)

	require.NoError(t, Save(path, cfg))

	cfg2, err := Load(path)
	require.NoError(t, err)
	s := cfg2.Settings()
	assert.Equal(t, -3.25, s.Offsets[gcode.G55][coord.AxisZ])
}
