package canon

import (
	"github.com/mastercactapus/gcmc/gcode"
)

// Machine state automaton. Three levels track what the machine is
// doing: machineState is overall program execution, cycleState is
// which cycle (if any) is active, motionState is movement. The
// feedhold and homing sub-machines hang off motion and cycle.

type MachineState int

const (
	MachineInitializing MachineState = iota
	MachineReady
	MachineAlarm
	MachineProgramStop
	MachineProgramEnd
	MachineCycle
)

type CycleState int

const (
	CycleOff CycleState = iota
	CycleMachining
	CycleProbe
	CycleHoming
	CycleJog
)

type MotionState int

const (
	MotionStop MotionState = iota
	MotionRun
	MotionHold
)

type HoldState int

const (
	HoldOff HoldState = iota
	HoldSync
	HoldPlan
	HoldDecel
	HoldHold
	HoldEndHold
)

type HomingState int

const (
	NotHomed HomingState = iota
	Homed
)

// CombinedState is the single-value projection used by reporting.
type CombinedState int

const (
	CombinedInitializing CombinedState = iota
	CombinedReady
	CombinedAlarm
	CombinedProgramStop
	CombinedProgramEnd
	CombinedRun
	CombinedHold
	CombinedProbe
	CombinedCycle
	CombinedHoming
	CombinedJog
)

var combinedNames = map[CombinedState]string{
	CombinedInitializing: "init",
	CombinedReady:        "ready",
	CombinedAlarm:        "alarm",
	CombinedProgramStop:  "stop",
	CombinedProgramEnd:   "end",
	CombinedRun:          "run",
	CombinedHold:         "hold",
	CombinedProbe:        "probe",
	CombinedCycle:        "cycle",
	CombinedHoming:       "homing",
	CombinedJog:          "jog",
}

func (c CombinedState) String() string { return combinedNames[c] }

// CombinedState is a pure function of the four state variables.
func (m *Machine) CombinedState() CombinedState {
	switch m.machineState {
	case MachineInitializing:
		return CombinedInitializing
	case MachineAlarm:
		return CombinedAlarm
	case MachineReady:
		return CombinedReady
	case MachineProgramStop:
		return CombinedProgramStop
	case MachineProgramEnd:
		return CombinedProgramEnd
	}

	// machine is cycling
	switch m.cycleState {
	case CycleHoming:
		return CombinedHoming
	case CycleProbe:
		return CombinedProbe
	case CycleJog:
		return CombinedJog
	}

	switch m.motionState {
	case MotionRun:
		return CombinedRun
	case MotionHold:
		return CombinedHold
	}
	return CombinedCycle
}

func (m *Machine) MachineState() MachineState { return m.machineState }
func (m *Machine) CycleState() CycleState     { return m.cycleState }
func (m *Machine) MotionState() MotionState   { return m.motionState }
func (m *Machine) HoldState() HoldState       { return m.holdState }
func (m *Machine) HomingState() HomingState   { return m.homingState }

// CycleStart begins (or re-enters) a machining cycle. It is
// idempotent when already cycling.
func (m *Machine) CycleStart() {
	switch m.machineState {
	case MachineReady, MachineProgramStop, MachineProgramEnd:
		m.machineState = MachineCycle
		m.cycleState = CycleMachining
		m.motionState = MotionStop
		m.active.Class = ModelRuntime
	}
}

// enterCycle is called by every motion command before enqueuing.
func (m *Machine) enterCycle(cycle CycleState) {
	m.CycleStart()
	if m.machineState == MachineCycle && m.cycleState == CycleMachining && cycle != CycleMachining {
		m.cycleState = cycle
	}
	if m.motionState == MotionStop {
		m.motionState = MotionRun
	}
}

// CycleEnd fires when the planner reports empty and no hold is
// active; the machine drops back to program stop.
func (m *Machine) CycleEnd() {
	if m.machineState != MachineCycle {
		return
	}
	m.cycleState = CycleOff
	m.motionState = MotionStop
	m.holdState = HoldOff
	m.machineState = MachineProgramStop
	m.active.Class = ModelCanonical
}

// Feedhold begins a controlled stop. Only meaningful while motion
// is running.
func (m *Machine) Feedhold() {
	if m.machineState != MachineCycle || m.motionState != MotionRun {
		return
	}
	m.motionState = MotionHold
	m.holdState = HoldSync
}

// endFeedhold is triggered by a cycle start while holding.
func (m *Machine) endFeedhold() {
	if m.holdState != HoldHold {
		return
	}
	m.holdState = HoldEndHold
	m.planner.Resume()
	m.holdState = HoldOff
	m.motionState = MotionRun
}

// advanceHold walks the feedhold sub-machine one step per dispatch
// iteration: sync, plan, decel, then holding.
func (m *Machine) advanceHold() {
	switch m.holdState {
	case HoldSync:
		m.holdState = HoldPlan
	case HoldPlan:
		m.holdState = HoldDecel
	case HoldDecel:
		m.planner.Hold()
		m.holdState = HoldHold
	}
}

// ProgramStop implements M0.
func (m *Machine) ProgramStop() {
	m.CycleEnd()
	m.machineState = MachineProgramStop
}

// OptionalProgramStop implements M1. Stop switches are not wired,
// so it behaves as a stop.
func (m *Machine) OptionalProgramStop() { m.ProgramStop() }

// ProgramEnd implements M2 and M30: cycle teardown plus the model
// default restore described in RS274 section 3.7.
func (m *Machine) ProgramEnd() {
	m.CycleEnd()
	m.machineState = MachineProgramEnd
	m.ResetOriginOffsets()
	m.resetModelDefaults()
	m.gm.MistCoolant = false
	m.gm.FloodCoolant = false
	m.gm.SpindleMode = gcode.SpindleOff
}

// Alarm latches the alarm state; all further motion commands are
// rejected until ClearAlarm.
func (m *Machine) Alarm(cause error) {
	m.machineState = MachineAlarm
	m.cycleState = CycleOff
	m.motionState = MotionStop
	m.holdState = HoldOff
	for i := range m.homed {
		m.homed[i] = false
	}
	m.homingState = NotHomed
	if m.planner != nil {
		m.planner.Flush()
	}
	if cause != nil {
		m.message("ALARM: " + cause.Error())
	}
}

// ClearAlarm returns an alarmed machine to ready.
func (m *Machine) ClearAlarm() {
	if m.machineState != MachineAlarm {
		return
	}
	m.machineState = MachineReady
	m.holdState = HoldOff
}

func (m *Machine) alarmed() bool { return m.machineState == MachineAlarm }
