// Package config loads and persists the machine profile: system
// settings, per-axis configuration, power-on G-code defaults and
// the work coordinate offset table.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mastercactapus/gcmc/canon"
	"github.com/mastercactapus/gcmc/coord"
	"github.com/mastercactapus/gcmc/gcode"
)

type Config struct {
	System   SystemConfig          `yaml:"system"`
	Defaults DefaultsConfig        `yaml:"defaults"`
	Axes     map[string]AxisConfig `yaml:"axes"`

	// Offsets maps coordinate system (g54..g59) to axis letter to
	// millimeters. Written back when G10 changes the table.
	Offsets map[string]map[string]float64 `yaml:"offsets"`
}

type SystemConfig struct {
	JunctionAcceleration float64 `yaml:"junction_acceleration"`
	ChordalTolerance     float64 `yaml:"chordal_tolerance"`
	MinSegmentLen        float64 `yaml:"min_segment_len"`
	ArcSegmentLen        float64 `yaml:"arc_segment_len"`

	FeedOverrideMin    float64 `yaml:"feed_override_min"`
	FeedOverrideMax    float64 `yaml:"feed_override_max"`
	SpindleOverrideMin float64 `yaml:"spindle_override_min"`
	SpindleOverrideMax float64 `yaml:"spindle_override_max"`

	PlannerBuffers int `yaml:"planner_buffers"`
}

type DefaultsConfig struct {
	CoordSystem  string `yaml:"coord_system"`  // g54..g59
	Plane        string `yaml:"plane"`         // g17, g18, g19
	Units        string `yaml:"units"`         // mm or in
	PathControl  string `yaml:"path_control"`  // g61, g61.1, g64
	DistanceMode string `yaml:"distance_mode"` // g90, g91
}

type AxisConfig struct {
	Mode        string  `yaml:"mode"` // standard, disabled, inhibited, radius
	FeedRateMax float64 `yaml:"feedrate_max"`
	VelocityMax float64 `yaml:"velocity_max"`
	TravelMax   float64 `yaml:"travel_max"`
	JerkMax     float64 `yaml:"jerk_max"`
	JerkHoming  float64 `yaml:"jerk_homing"`
	JunctionDev float64 `yaml:"junction_deviation"`
	Radius      float64 `yaml:"radius"`

	SwitchMin int `yaml:"switch_min"`
	SwitchMax int `yaml:"switch_max"`

	SearchVelocity float64 `yaml:"search_velocity"`
	LatchVelocity  float64 `yaml:"latch_velocity"`
	LatchBackoff   float64 `yaml:"latch_backoff"`
	ZeroBackoff    float64 `yaml:"zero_backoff"`
}

var axisModes = map[string]canon.AxisMode{
	"disabled":  canon.AxisDisabled,
	"standard":  canon.AxisStandard,
	"inhibited": canon.AxisInhibited,
	"radius":    canon.AxisRadius,
}

var coordSystems = map[string]gcode.CoordSystem{
	"g54": gcode.G54, "g55": gcode.G55, "g56": gcode.G56,
	"g57": gcode.G57, "g58": gcode.G58, "g59": gcode.G59,
}

// Default returns a profile with every value defaulted, for running
// without a config file.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// Load reads, validates and defaults a machine profile.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the profile back, preserving the G10 offset table
// across power cycles.
func Save(path string, cfg *Config) error {
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

func (cfg *Config) validate() error {
	applyDefaults(cfg)

	for name := range cfg.Axes {
		if coord.AxisByName(name) < 0 {
			return fmt.Errorf("axes.%s: unknown axis", name)
		}
		if _, ok := axisModes[cfg.Axes[name].Mode]; !ok {
			return fmt.Errorf("axes.%s.mode: unknown mode %q", name, cfg.Axes[name].Mode)
		}
	}
	for sys, axes := range cfg.Offsets {
		if _, ok := coordSystems[sys]; !ok {
			return fmt.Errorf("offsets.%s: unknown coordinate system", sys)
		}
		for name := range axes {
			if coord.AxisByName(name) < 0 {
				return fmt.Errorf("offsets.%s.%s: unknown axis", sys, name)
			}
		}
	}
	if _, ok := coordSystems[cfg.Defaults.CoordSystem]; !ok {
		return fmt.Errorf("defaults.coord_system: unknown coordinate system %q", cfg.Defaults.CoordSystem)
	}
	switch cfg.Defaults.Units {
	case "mm", "in":
	default:
		return fmt.Errorf("defaults.units must be mm or in")
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.System.ChordalTolerance == 0 {
		cfg.System.ChordalTolerance = 0.01
	}
	if cfg.System.ArcSegmentLen == 0 {
		cfg.System.ArcSegmentLen = 0.1
	}
	if cfg.System.MinSegmentLen == 0 {
		cfg.System.MinSegmentLen = 0.05
	}
	if cfg.System.JunctionAcceleration == 0 {
		cfg.System.JunctionAcceleration = 100000
	}
	if cfg.System.FeedOverrideMin == 0 {
		cfg.System.FeedOverrideMin = 0.05
	}
	if cfg.System.FeedOverrideMax == 0 {
		cfg.System.FeedOverrideMax = 2
	}
	if cfg.System.SpindleOverrideMin == 0 {
		cfg.System.SpindleOverrideMin = 0.05
	}
	if cfg.System.SpindleOverrideMax == 0 {
		cfg.System.SpindleOverrideMax = 2
	}
	if cfg.System.PlannerBuffers == 0 {
		cfg.System.PlannerBuffers = 28
	}

	if cfg.Defaults.CoordSystem == "" {
		cfg.Defaults.CoordSystem = "g54"
	}
	if cfg.Defaults.Plane == "" {
		cfg.Defaults.Plane = "g17"
	}
	if cfg.Defaults.Units == "" {
		cfg.Defaults.Units = "mm"
	}
	if cfg.Defaults.PathControl == "" {
		cfg.Defaults.PathControl = "g64"
	}
	if cfg.Defaults.DistanceMode == "" {
		cfg.Defaults.DistanceMode = "g90"
	}

	if cfg.Axes == nil {
		cfg.Axes = make(map[string]AxisConfig)
	}
	for _, name := range []string{"x", "y", "z"} {
		if _, ok := cfg.Axes[name]; !ok {
			cfg.Axes[name] = AxisConfig{}
		}
	}
	for name, a := range cfg.Axes {
		if a.Mode == "" {
			a.Mode = "standard"
		}
		if a.FeedRateMax == 0 {
			a.FeedRateMax = 10000
		}
		if a.VelocityMax == 0 {
			a.VelocityMax = 16000
		}
		if a.JerkMax == 0 {
			a.JerkMax = 5000
		}
		if a.JerkHoming == 0 {
			a.JerkHoming = 10000
		}
		if a.JunctionDev == 0 {
			a.JunctionDev = 0.05
		}
		if a.SearchVelocity == 0 {
			a.SearchVelocity = 500
		}
		if a.LatchVelocity == 0 {
			a.LatchVelocity = 100
		}
		if a.LatchBackoff == 0 {
			a.LatchBackoff = 5
		}
		if a.ZeroBackoff == 0 {
			a.ZeroBackoff = 1
		}
		cfg.Axes[name] = a
	}
}

// Settings converts the profile into the canonical machine's
// settings structure.
func (cfg *Config) Settings() canon.Settings {
	var s canon.Settings
	s.JunctionAcceleration = cfg.System.JunctionAcceleration
	s.ChordalTolerance = cfg.System.ChordalTolerance
	s.MinSegmentLen = cfg.System.MinSegmentLen
	s.ArcSegmentLen = cfg.System.ArcSegmentLen
	s.FeedOverrideMin = cfg.System.FeedOverrideMin
	s.FeedOverrideMax = cfg.System.FeedOverrideMax
	s.SpindleOverrideMin = cfg.System.SpindleOverrideMin
	s.SpindleOverrideMax = cfg.System.SpindleOverrideMax

	s.Defaults = canon.Defaults{
		CoordSystem:  coordSystems[cfg.Defaults.CoordSystem],
		Plane:        planeOf(cfg.Defaults.Plane),
		UnitsMode:    unitsOf(cfg.Defaults.Units),
		PathControl:  pathOf(cfg.Defaults.PathControl),
		DistanceMode: distanceOf(cfg.Defaults.DistanceMode),
	}

	for name, a := range cfg.Axes {
		ax := coord.AxisByName(name)
		s.Axes[ax] = canon.AxisConfig{
			Mode:           axisModes[a.Mode],
			FeedRateMax:    a.FeedRateMax,
			VelocityMax:    a.VelocityMax,
			TravelMax:      a.TravelMax,
			JerkMax:        a.JerkMax,
			JerkHoming:     a.JerkHoming,
			JunctionDev:    a.JunctionDev,
			Radius:         a.Radius,
			SwitchMin:      a.SwitchMin,
			SwitchMax:      a.SwitchMax,
			SearchVelocity: a.SearchVelocity,
			LatchVelocity:  a.LatchVelocity,
			LatchBackoff:   a.LatchBackoff,
			ZeroBackoff:    a.ZeroBackoff,
		}
	}

	for sys, axes := range cfg.Offsets {
		cs := coordSystems[sys]
		for name, v := range axes {
			s.Offsets[cs][coord.AxisByName(name)] = v
		}
	}

	return s
}

// SetOffsets replaces the profile's offset table from the canonical
// machine's live table, for write-through after a G10.
func (cfg *Config) SetOffsets(offsets [gcode.NumCoordSystems]coord.Vector) {
	out := make(map[string]map[string]float64)
	for sys, cs := range coordSystems {
		row := make(map[string]float64)
		for i := 0; i < coord.NumAxes; i++ {
			v := offsets[cs][i]
			if v != 0 {
				row[coord.Axis(i).String()] = v
			}
		}
		if len(row) > 0 {
			out[sys] = row
		}
	}
	cfg.Offsets = out
}

func planeOf(s string) coord.Plane {
	switch s {
	case "g18":
		return coord.PlaneXZ
	case "g19":
		return coord.PlaneYZ
	}
	return coord.PlaneXY
}

func unitsOf(s string) gcode.UnitsMode {
	if s == "in" {
		return gcode.Inches
	}
	return gcode.Millimeters
}

func pathOf(s string) gcode.PathControl {
	switch s {
	case "g61":
		return gcode.PathExactPath
	case "g61.1":
		return gcode.PathExactStop
	}
	return gcode.PathContinuous
}

func distanceOf(s string) gcode.DistanceMode {
	if s == "g91" {
		return gcode.IncrementalMode
	}
	return gcode.AbsoluteMode
}
