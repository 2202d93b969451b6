package canon

import (
	"github.com/mastercactapus/gcmc/coord"
)

// Request latches. Each is a single-producer single-consumer cell:
// the transport context sets it on receipt of the control character
// (`!`, `%`, `~`), the dispatch loop consumes it. No other state
// crosses contexts.

// RequestFeedhold latches a feedhold request (`!`). Safe to call
// from any goroutine.
func (m *Machine) RequestFeedhold() { m.feedholdRequested.Store(true) }

// RequestQueueFlush latches a queue flush request (`%`).
func (m *Machine) RequestQueueFlush() { m.queueFlushRequested.Store(true) }

// RequestCycleStart latches a cycle start request (`~`).
func (m *Machine) RequestCycleStart() { m.cycleStartRequested.Store(true) }

// FeedholdSequencingCallback consumes the request latches, in
// priority order, and advances the feedhold sub-machine. The
// dispatch loop invokes it once per iteration.
func (m *Machine) FeedholdSequencingCallback() error {
	if m.feedholdRequested.Load() {
		if m.motionState == MotionRun && m.holdState == HoldOff {
			m.feedholdRequested.Store(false)
			m.Feedhold()
		} else if m.motionState != MotionRun {
			// a feedhold with nothing in motion is ignored
			m.feedholdRequested.Store(false)
		}
	}

	m.advanceHold()

	if m.queueFlushRequested.Load() {
		if m.holdState == HoldHold || m.holdState == HoldEndHold {
			m.queueFlushRequested.Store(false)
			m.QueueFlush()
		}
	}

	if m.cycleStartRequested.Load() {
		m.cycleStartRequested.Store(false)
		if m.holdState == HoldHold {
			m.endFeedhold()
		} else if !m.planner.QueueEmpty() {
			m.CycleStart()
			if m.motionState == MotionStop {
				m.motionState = MotionRun
			}
		}
	}

	return nil
}

// Tick is the per-iteration housekeeping entry for the dispatch
// loop: feedhold sequencing, the cooperative homing and probe
// cycles, and cycle-end detection.
func (m *Machine) Tick() error {
	if err := m.Assert(); err != nil {
		return err
	}
	m.FeedholdSequencingCallback()

	if m.homing != nil {
		if err := m.HomingCallback(); err != nil && err != ErrAgain {
			return err
		}
	}
	if m.probe != nil {
		if err := m.ProbeCallback(); err != nil && err != ErrAgain {
			return err
		}
	}

	// cycle end: queue drained with no hold active
	if m.machineState == MachineCycle &&
		(m.cycleState == CycleMachining || m.cycleState == CycleJog) &&
		m.holdState == HoldOff && m.planner.QueueEmpty() && !m.planner.RuntimeBusy() {
		m.CycleEnd()
	}

	return nil
}

// Idle reports whether the machine is between cycles with an empty
// queue; the config store persists offsets only while idle.
func (m *Machine) Idle() bool {
	return m.machineState != MachineCycle && m.planner.QueueEmpty()
}

// Jog runs a single traverse as a jog cycle: the move executes like
// a G0 in the machine frame but reports as JOG.
func (m *Machine) Jog(target coord.Vector, fl coord.Flags) error {
	if m.alarmed() {
		return ErrAlarmed
	}
	m.enterCycle(CycleJog)
	m.cycleState = CycleJog
	err := m.straightTraverseAbsolute(target, fl)
	if err != nil {
		m.cycleState = CycleMachining
		return err
	}
	return nil
}
