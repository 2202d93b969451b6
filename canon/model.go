package canon

import (
	"github.com/mastercactapus/gcmc/coord"
	"github.com/mastercactapus/gcmc/gcode"
)

// GCodeState is the canonical model: every value is normalized to
// millimeters, millimeters per minute or RPM, in the machine frame,
// regardless of the active units mode. It is copied by value into
// each planner buffer at enqueue time, so in-flight moves keep the
// state as it was when they were queued.
type GCodeState struct {
	LineNum    uint32
	MotionMode gcode.MotionMode

	Target     coord.Vector
	WorkOffset coord.Vector // reporting snapshot only

	MoveTime     float64 // minutes
	MinimumTime  float64 // minutes
	FeedRate     float64 // mm/min
	SpindleSpeed float64 // RPM
	Parameter    float64 // P

	InverseFeedRateMode bool
	Plane               coord.Plane
	UnitsMode           gcode.UnitsMode
	CoordSystem         gcode.CoordSystem
	AbsoluteOverride    bool // this block only
	PathControl         gcode.PathControl
	DistanceMode        gcode.DistanceMode
	Tool                int
	ToolSelect          int
	MistCoolant         bool
	FloodCoolant        bool
	SpindleMode         gcode.SpindleMode
}

// ExtendedState holds model state that only the canonical machine
// needs; it is never copied into planner buffers.
type ExtendedState struct {
	magicStart uint16

	Position     coord.Vector // model position, mm, machine frame
	OriginOffset coord.Vector // G92
	G28Position  coord.Vector
	G30Position  coord.Vector

	InverseFeedRate float64 // minutes, used when gm inverse mode is on

	FeedOverrideFactor     float64
	TraverseOverrideFactor float64
	SpindleOverrideFactor  float64
	FeedOverrideEnable     bool
	TraverseOverrideEnable bool
	SpindleOverrideEnable  bool

	LWord              int
	OriginOffsetEnable bool
	BlockDelete        bool

	ArcRadius float64
	ArcOffset [3]float64

	magicEnd uint16
}

// ModelClass names which tier of the model a ModelRef points at.
type ModelClass int

const (
	ModelCanonical ModelClass = iota
	ModelRuntime
)

// ModelRef is a tagged reference to a live G-code state: either the
// canonical model or the runtime's snapshot of the executing buffer.
// The reporter resolves it through Machine.ActiveState, never by
// aliasing the mutable model.
type ModelRef struct {
	Class ModelClass
}

// ActiveState resolves the active model reference to a read-only
// value copy.
func (m *Machine) ActiveState() GCodeState {
	if m.active.Class == ModelRuntime && m.planner != nil && !m.planner.QueueEmpty() {
		return m.planner.RuntimeState()
	}
	return m.gm
}

// SnapshotInto copies the canonical model into a planner buffer
// slot. The destination is a slot the planner has reserved but not
// yet published, so the copy needs no locking.
func (m *Machine) SnapshotInto(dst *GCodeState) {
	*dst = m.gm
}

func (m *Machine) resetModelDefaults() {
	d := m.cfg.Defaults
	m.gm.CoordSystem = d.CoordSystem
	m.gm.Plane = d.Plane
	m.gm.UnitsMode = d.UnitsMode
	m.gm.PathControl = d.PathControl
	m.gm.DistanceMode = d.DistanceMode
	m.gm.MotionMode = gcode.MotionModeCancel
	m.gm.FeedRate = 0
	m.gm.InverseFeedRateMode = false
	m.gm.AbsoluteOverride = false
}

// setModelTarget writes the canonical (mm, machine frame) target for
// each flagged axis. Values arrive already unit-converted; distance
// mode and offsets are resolved here. Unflagged axes inherit the
// current model position.
func (m *Machine) setModelTarget(target coord.Vector, fl coord.Flags) {
	m.gm.Target = m.gmx.Position
	for i := range target {
		ax := coord.Axis(i)
		if !fl[i] || m.cfg.Axes[i].Mode == AxisDisabled {
			continue
		}
		v := target[i]
		if m.cfg.Axes[i].Mode == AxisRadius && !ax.Linear() {
			v = toDegrees(v, m.cfg.Axes[i].Radius)
		}
		if m.gm.DistanceMode == gcode.IncrementalMode && !m.gm.AbsoluteOverride {
			m.gm.Target[i] = m.gmx.Position[i] + v
		} else {
			m.gm.Target[i] = v + m.ActiveCoordOffset(ax)
		}
	}
}

// checkSoftLimits validates the canonical target against each
// axis's travel envelope. Axes with no configured travel are
// unbounded.
func (m *Machine) checkSoftLimits() error {
	for i, a := range m.cfg.Axes {
		if a.TravelMax <= 0 || a.Mode == AxisDisabled {
			continue
		}
		if m.gm.Target[i] > a.TravelMax || m.gm.Target[i] < -a.TravelMax {
			return ErrTravelExceeded
		}
	}
	return nil
}
