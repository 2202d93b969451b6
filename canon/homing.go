package canon

import (
	"github.com/mastercactapus/gcmc/coord"
)

// Homing runs as a cooperative cycle: HomingCycleStart arms the
// sub-machine and HomingCallback advances one axis phase per
// dispatch iteration, enqueuing a single move and yielding ErrAgain
// until the whole sequence completes. The feedhold sequencer and
// the reporter keep running throughout.

type homingPhase int

const (
	homingSearch homingPhase = iota
	homingSearchWait
	homingBackoff
	homingBackoffWait
	homingLatch
	homingLatchWait
	homingZero
	homingZeroWait
	homingDone
)

type homingCycle struct {
	axes  []coord.Axis
	idx   int
	phase homingPhase
}

// homingDirection is -1 when the axis homes to its minimum switch,
// +1 to its maximum.
func (m *Machine) homingDirection(a coord.Axis) (float64, bool) {
	cfg := m.cfg.Axes[a]
	if cfg.SwitchMin == 1 {
		return -1, true
	}
	if cfg.SwitchMax == 1 {
		return 1, true
	}
	return 0, false
}

// HomingCycleStart implements G28.2. At least one axis word is
// required; each named axis must have a homing switch and search
// velocity configured.
func (m *Machine) HomingCycleStart(fl coord.Flags) error {
	if m.alarmed() {
		return ErrAlarmed
	}
	if !fl.Any() {
		return ErrNoAxisSpecified
	}

	var axes []coord.Axis
	for i := range fl {
		if !fl[i] {
			continue
		}
		a := coord.Axis(i)
		cfg := m.cfg.Axes[i]
		if cfg.Mode == AxisDisabled {
			continue
		}
		if _, ok := m.homingDirection(a); !ok || cfg.SearchVelocity <= 0 {
			return ErrHomingFailed
		}
		axes = append(axes, a)
		m.homed[i] = false
	}
	if len(axes) == 0 {
		return ErrNoAxisSpecified
	}

	m.homingState = NotHomed
	m.enterCycle(CycleHoming)
	m.cycleState = CycleHoming
	m.homing = &homingCycle{axes: axes}
	return nil
}

// homingMove enqueues a single absolute move for the active axis.
func (m *Machine) homingMove(a coord.Axis, target, velocity float64, kind MoveKind) error {
	var t coord.Vector
	var fl coord.Flags
	t[a] = target
	fl[a] = true

	m.gm.Target = m.gmx.Position.Merge(t, fl)
	m.setMoveTimes(MoveFeed)
	if kind == MoveHome {
		m.planner.ResetProbes()
	}
	return m.enqueue(kind, func(bf *Buffer) {
		bf.Velocity = velocity
	})
}

// syncToRuntime adopts the runtime stop position as the model
// position; switch-terminated moves end short of their target.
func (m *Machine) syncToRuntime() {
	m.gmx.Position = m.planner.RuntimePosition()
	m.gm.Target = m.gmx.Position
}

// lastTrigger returns the most recent switch report.
func (m *Machine) lastTrigger() (ProbeResult, bool) {
	p := m.planner.Probes()
	if len(p) == 0 {
		return ProbeResult{}, false
	}
	return p[len(p)-1], true
}

// HomingCallback drives the homing cycle. Returns ErrAgain while
// the cycle is in progress, nil once every requested axis is homed.
func (m *Machine) HomingCallback() error {
	h := m.homing
	if h == nil {
		return nil
	}
	if !m.planner.QueueEmpty() || m.planner.RuntimeBusy() {
		return ErrAgain
	}

	a := h.axes[h.idx]
	cfg := m.cfg.Axes[a]
	dir, _ := m.homingDirection(a)

	switch h.phase {
	case homingSearch:
		if err := m.homingMove(a, dir*cfg.TravelMax, cfg.SearchVelocity, MoveHome); err != nil {
			return err
		}
		h.phase = homingSearchWait

	case homingSearchWait:
		m.syncToRuntime()
		if tr, ok := m.lastTrigger(); !ok || !tr.Triggered {
			m.homing = nil
			m.Alarm(ErrHomingFailed)
			return ErrHomingFailed
		}
		h.phase = homingBackoff

	case homingBackoff:
		if err := m.homingMove(a, m.gmx.Position[a]-dir*cfg.LatchBackoff, cfg.SearchVelocity, MoveFeed); err != nil {
			return err
		}
		h.phase = homingBackoffWait

	case homingBackoffWait:
		m.syncToRuntime()
		h.phase = homingLatch

	case homingLatch:
		if err := m.homingMove(a, m.gmx.Position[a]+dir*2*cfg.LatchBackoff, cfg.LatchVelocity, MoveHome); err != nil {
			return err
		}
		h.phase = homingLatchWait

	case homingLatchWait:
		m.syncToRuntime()
		if tr, ok := m.lastTrigger(); !ok || !tr.Triggered {
			m.homing = nil
			m.Alarm(ErrHomingFailed)
			return ErrHomingFailed
		}
		h.phase = homingZero

	case homingZero:
		if err := m.homingMove(a, m.gmx.Position[a]-dir*cfg.ZeroBackoff, cfg.SearchVelocity, MoveFeed); err != nil {
			return err
		}
		h.phase = homingZeroWait

	case homingZeroWait:
		m.syncToRuntime()
		m.SetAxisOrigin(a, 0)
		m.homed[a] = true

		h.idx++
		h.phase = homingSearch
		if h.idx == len(h.axes) {
			h.phase = homingDone
		}

	case homingDone:
	}

	if h.phase == homingDone {
		m.homing = nil
		m.homingState = Homed
		m.cycleState = CycleMachining
		return nil
	}
	return ErrAgain
}
