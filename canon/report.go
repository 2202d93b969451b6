package canon

import (
	"fmt"
	"strings"

	"github.com/mastercactapus/gcmc/coord"
	"github.com/mastercactapus/gcmc/gcode"
)

// Report is a read-only projection of the model and runtime into
// named fields for the external reporter. Getters read through the
// active model reference; nothing here mutates machine state except
// the configuration setters.
type Report struct {
	m *Machine
}

func (m *Machine) Report() *Report { return &Report{m: m} }

// statusTokens is the default status report field set.
var statusTokens = []string{
	"stat", "line", "vel",
	"posx", "posy", "posz", "posa", "posb", "posc",
	"unit", "coor", "momo", "plan", "path", "dist", "frmo", "tool",
}

// Status builds the token map pushed by asynchronous status
// reports.
func (r *Report) Status() map[string]interface{} {
	out := make(map[string]interface{}, len(statusTokens))
	for _, tok := range statusTokens {
		v, err := r.Get(tok)
		if err != nil {
			continue
		}
		out[tok] = v
	}
	return out
}

func axisToken(tok string) (string, coord.Axis) {
	if len(tok) < 2 {
		return tok, -1
	}
	// pos/mpo/ofs carry a trailing axis letter, axis config a
	// leading one
	if a := coord.AxisByName(tok[len(tok)-1:]); a >= 0 {
		if p := tok[:len(tok)-1]; p == "pos" || p == "mpo" || p == "ofs" {
			return p, a
		}
	}
	if a := coord.AxisByName(tok[:1]); a >= 0 {
		return tok[1:], a
	}
	return tok, -1
}

// Get resolves one report token.
func (r *Report) Get(token string) (interface{}, error) {
	m := r.m
	gs := m.ActiveState()

	switch token {
	case "stat":
		return int(m.CombinedState()), nil
	case "macs":
		return int(m.machineState), nil
	case "cycs":
		return int(m.cycleState), nil
	case "mots":
		return int(m.motionState), nil
	case "hold":
		return int(m.holdState), nil
	case "home":
		return int(m.homingState), nil
	case "line":
		return gs.LineNum, nil
	case "mline":
		return m.gm.LineNum, nil
	case "vel":
		return m.displayLength(m.planner.RuntimeVelocity()), nil
	case "feed", "fr":
		return m.displayLength(m.gm.FeedRate), nil
	case "unit":
		return int(gs.UnitsMode), nil
	case "coor":
		return int(gs.CoordSystem), nil
	case "momo":
		return int(gs.MotionMode), nil
	case "plan":
		return int(gs.Plane), nil
	case "path":
		return int(gs.PathControl), nil
	case "dist":
		return int(gs.DistanceMode), nil
	case "frmo":
		return boolInt(gs.InverseFeedRateMode), nil
	case "tool":
		return gs.Tool, nil
	case "ja":
		return m.cfg.JunctionAcceleration, nil
	case "ct":
		return m.displayLength(m.cfg.ChordalTolerance), nil
	}

	// coordinate system offsets: g54x .. g59c
	if len(token) >= 4 && strings.HasPrefix(token, "g5") {
		if a := coord.AxisByName(token[3:]); a >= 0 {
			var n int
			if _, err := fmt.Sscanf(token[:3], "g%d", &n); err == nil && n >= 54 && n <= 59 {
				return m.offsets[gcode.CoordSystem(n-53)][a], nil
			}
		}
	}

	base, ax := axisToken(token)
	if ax < 0 {
		return nil, fmt.Errorf("unknown token: %s", token)
	}

	switch base {
	case "pos":
		return m.displayLength(m.WorkPosition(ax)), nil
	case "mpo":
		// machine position always reports in mm
		return m.AbsolutePosition(ax), nil
	case "ofs":
		return m.ActiveCoordOffset(ax), nil
	case "am":
		return int(m.cfg.Axes[ax].Mode), nil
	case "fr":
		return m.cfg.Axes[ax].FeedRateMax, nil
	case "vm":
		return m.cfg.Axes[ax].VelocityMax, nil
	case "tm":
		return m.cfg.Axes[ax].TravelMax, nil
	case "jm":
		return m.cfg.Axes[ax].JerkMax, nil
	case "jh":
		return m.cfg.Axes[ax].JerkHoming, nil
	case "jd":
		return m.cfg.Axes[ax].JunctionDev, nil
	case "ra":
		return m.cfg.Axes[ax].Radius, nil
	case "sn":
		return m.cfg.Axes[ax].SwitchMin, nil
	case "sx":
		return m.cfg.Axes[ax].SwitchMax, nil
	case "sv":
		return m.cfg.Axes[ax].SearchVelocity, nil
	case "lv":
		return m.cfg.Axes[ax].LatchVelocity, nil
	case "lb":
		return m.cfg.Axes[ax].LatchBackoff, nil
	case "zb":
		return m.cfg.Axes[ax].ZeroBackoff, nil
	}

	return nil, fmt.Errorf("unknown token: %s", token)
}

// Set writes one configuration token. Model and state tokens are
// read-only.
func (r *Report) Set(token string, value float64) error {
	m := r.m

	switch token {
	case "ja":
		m.cfg.JunctionAcceleration = value
		return nil
	case "ct":
		m.cfg.ChordalTolerance = normalizeLength(value, m.gm.UnitsMode)
		return nil
	}

	if len(token) >= 4 && strings.HasPrefix(token, "g5") {
		if a := coord.AxisByName(token[3:]); a >= 0 {
			var n int
			if _, err := fmt.Sscanf(token[:3], "g%d", &n); err == nil && n >= 54 && n <= 59 {
				m.offsets[gcode.CoordSystem(n-53)][a] = value
				m.offsetsDirty = true
				return nil
			}
		}
	}

	base, ax := axisToken(token)
	if ax < 0 {
		return fmt.Errorf("unknown or read-only token: %s", token)
	}
	cfg := &m.cfg.Axes[ax]

	switch base {
	case "am":
		cfg.Mode = AxisMode(int(value))
	case "fr":
		cfg.FeedRateMax = value
	case "vm":
		cfg.VelocityMax = value
	case "tm":
		cfg.TravelMax = value
	case "jm":
		cfg.JerkMax = value
	case "jh":
		cfg.JerkHoming = value
	case "jd":
		cfg.JunctionDev = value
	case "ra":
		cfg.Radius = value
	case "sn":
		cfg.SwitchMin = int(value)
	case "sx":
		cfg.SwitchMax = int(value)
	case "sv":
		cfg.SearchVelocity = value
	case "lv":
		cfg.LatchVelocity = value
	case "lb":
		cfg.LatchBackoff = value
	case "zb":
		cfg.ZeroBackoff = value
	default:
		return fmt.Errorf("unknown or read-only token: %s", token)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
