package canon

import (
	"log"
	"math"
	"sync/atomic"

	"github.com/mastercactapus/gcmc/coord"
	"github.com/mastercactapus/gcmc/gcode"
)

// AxisMode controls how an axis participates in motion.
type AxisMode int

const (
	AxisDisabled AxisMode = iota
	AxisStandard
	AxisInhibited // handled the same as AxisStandard in this package
	AxisRadius    // rotary axis calibrated to circumference
)

// AxisConfig is the persistent per-axis configuration. Velocities
// are mm/min (or deg/min for rotary axes); jerk values are stored
// divided by one million for readable config files.
type AxisConfig struct {
	Mode        AxisMode
	FeedRateMax float64
	VelocityMax float64
	TravelMax   float64
	JerkMax     float64
	JerkHoming  float64
	JunctionDev float64
	Radius      float64

	SwitchMin int // 0=disabled 1=homing 2=limit
	SwitchMax int

	SearchVelocity float64
	LatchVelocity  float64
	LatchBackoff   float64
	ZeroBackoff    float64
}

// Defaults are the power-on G-code modal settings, restored at init
// and at program end.
type Defaults struct {
	CoordSystem  gcode.CoordSystem
	Plane        coord.Plane
	UnitsMode    gcode.UnitsMode
	PathControl  gcode.PathControl
	DistanceMode gcode.DistanceMode
}

// Settings is everything the canonical machine reads from the
// configuration store at init.
type Settings struct {
	JunctionAcceleration float64
	ChordalTolerance     float64 // mm
	MinSegmentLen        float64 // mm
	ArcSegmentLen        float64 // mm

	FeedOverrideMin, FeedOverrideMax       float64
	SpindleOverrideMin, SpindleOverrideMax float64

	Defaults Defaults
	Axes     [coord.NumAxes]AxisConfig

	// Offsets is the persistent work coordinate offset table.
	// Index 0 is the machine frame and always zero.
	Offsets [gcode.NumCoordSystems]coord.Vector
}

const (
	magicStart = 0x12ef
	magicEnd   = 0xfe21
)

// Machine is the canonical machine controller singleton. All
// mutation happens on the dispatch goroutine; the request latches
// are the only cross-context state.
type Machine struct {
	magicStart uint32

	cfg     Settings
	offsets [gcode.NumCoordSystems]coord.Vector

	machineState MachineState
	cycleState   CycleState
	motionState  MotionState
	holdState    HoldState
	homingState  HomingState
	homed        [coord.NumAxes]bool

	feedholdRequested   atomic.Bool
	queueFlushRequested atomic.Bool
	cycleStartRequested atomic.Bool

	offsetsDirty bool // G10 wrote the table; persist on next idle

	gm     GCodeState
	gmx    ExtendedState
	active ModelRef

	planner Planner

	homing *homingCycle
	probe  *probeCycle

	// LastProbe is the most recent probe cycle result;
	// ProbeHistory accumulates results until cleared, for grid
	// probing.
	LastProbe    ProbeResult
	ProbeHistory []ProbeResult

	// OnMessage receives out-of-band operator messages; defaults
	// to the log.
	OnMessage func(string)

	magicEnd uint32
}

// MoveKind tags a planner buffer with the motion class it carries.
type MoveKind int

const (
	MoveTraverse MoveKind = iota
	MoveFeed
	MoveDwell
	MoveCommand // synchronized non-motion command
	MoveProbe
	MoveHome
)

// Buffer is one planner queue entry. State is a value copy captured
// by SnapshotInto at enqueue time; the canonical machine never
// touches it after Commit.
type Buffer struct {
	Kind    MoveKind
	State   GCodeState
	Seconds float64 // dwell time
	Command string  // MoveCommand payload (tool, coolant, spindle)

	// Velocity is the search or latch velocity of a homing move;
	// other move kinds leave it zero.
	Velocity float64
}

// ProbeResult is a runtime report of a contact-triggered move
// (probe or homing switch).
type ProbeResult struct {
	Position  coord.Vector
	Triggered bool
}

// Planner is the downstream motion queue. Reserve hands out an
// unpublished buffer; Commit publishes it in arrival order.
type Planner interface {
	Reserve() (*Buffer, error) // ErrPlannerFull when no slot is free
	Commit(*Buffer)
	QueueEmpty() bool
	RuntimeBusy() bool
	Flush()

	Hold()
	Resume()

	RuntimePosition() coord.Vector
	RuntimeVelocity() float64
	RuntimeState() GCodeState

	Probes() []ProbeResult
	ResetProbes()
}

// New builds the canonical machine against a planner and brings it
// to the ready state with power-on defaults applied.
func New(cfg Settings, p Planner) *Machine {
	m := &Machine{
		magicStart:   magicStart,
		magicEnd:     magicEnd,
		cfg:          cfg,
		offsets:      cfg.Offsets,
		planner:      p,
		machineState: MachineInitializing,
	}
	m.gmx.magicStart = magicStart
	m.gmx.magicEnd = magicEnd
	m.gmx.FeedOverrideFactor = 1
	m.gmx.TraverseOverrideFactor = 1
	m.gmx.SpindleOverrideFactor = 1
	m.gmx.BlockDelete = true
	m.offsets[gcode.AbsoluteCoords] = coord.Vector{}

	m.resetModelDefaults()
	m.machineState = MachineReady

	return m
}

// Assert checks the memory integrity markers bracketing the
// singleton and the extended model. A mismatch raises the alarm
// state and is fatal to further motion.
func (m *Machine) Assert() error {
	if m.magicStart != magicStart || m.magicEnd != magicEnd ||
		m.gmx.magicStart != magicStart || m.gmx.magicEnd != magicEnd {
		m.Alarm(ErrMemoryIntegrity)
		return ErrMemoryIntegrity
	}
	return nil
}

// Config returns the active settings.
func (m *Machine) Config() Settings { return m.cfg }

// Offsets returns the current work coordinate offset table.
func (m *Machine) Offsets() [gcode.NumCoordSystems]coord.Vector { return m.offsets }

// OffsetsDirty reports whether a G10 changed the offset table since
// the last persist. ClearOffsetsDirty is called by the store after
// a successful write-through.
func (m *Machine) OffsetsDirty() bool { return m.offsetsDirty }
func (m *Machine) ClearOffsetsDirty() { m.offsetsDirty = false }

// BlockDeleteSwitch reports whether lines marked with a leading
// slash should be skipped.
func (m *Machine) BlockDeleteSwitch() bool { return m.gmx.BlockDelete }

// SetBlockDeleteSwitch toggles block-delete handling.
func (m *Machine) SetBlockDeleteSwitch(on bool) { m.gmx.BlockDelete = on }

// Homed reports the per-axis homed flag.
func (m *Machine) Homed(a coord.Axis) bool { return m.homed[a] }

func (m *Machine) message(text string) {
	if m.OnMessage != nil {
		m.OnMessage(text)
		return
	}
	log.Println("MSG:", text)
}

// Message delivers operator text out-of-band, bypassing the queue.
func (m *Machine) Message(text string) { m.message(text) }

func toDegrees(length, radius float64) float64 {
	if radius <= 0 {
		return length
	}
	return length * 360 / (2 * math.Pi * radius)
}
