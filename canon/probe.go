package canon

import (
	"github.com/mastercactapus/gcmc/coord"
)

// Straight probe (G38.2): feed toward the target until the probe
// input triggers. The cycle shares the cooperative callback shape
// with homing.

type probePhase int

const (
	probeStart probePhase = iota
	probeWait
)

type probeCycle struct {
	target coord.Vector
	flags  coord.Flags
	phase  probePhase
}

// ProbeCycleStart implements G38.2. A feed rate and at least one
// axis word are required.
func (m *Machine) ProbeCycleStart(target coord.Vector, fl coord.Flags) error {
	if m.alarmed() {
		return ErrAlarmed
	}
	if !fl.Any() {
		return ErrNoAxisSpecified
	}
	if m.gm.FeedRate == 0 && !m.gm.InverseFeedRateMode {
		return ErrFeedRateNotSet
	}

	m.enterCycle(CycleProbe)
	m.cycleState = CycleProbe
	m.probe = &probeCycle{target: target, flags: fl}
	return nil
}

// ProbeCallback drives the probe cycle: enqueue the probing feed,
// then collect the trigger report. ErrAgain while running;
// ErrProbeFailed if the probe never made contact within travel.
func (m *Machine) ProbeCallback() error {
	p := m.probe
	if p == nil {
		return nil
	}
	if !m.planner.QueueEmpty() || m.planner.RuntimeBusy() {
		return ErrAgain
	}

	switch p.phase {
	case probeStart:
		m.setModelTarget(p.target, p.flags)
		if err := m.checkSoftLimits(); err != nil {
			m.gm.Target = m.gmx.Position
			m.probe = nil
			m.cycleState = CycleMachining
			return err
		}
		m.setMoveTimes(MoveFeed)
		m.planner.ResetProbes()
		if err := m.enqueue(MoveProbe, nil); err != nil {
			return err
		}
		p.phase = probeWait
		return ErrAgain

	case probeWait:
		m.syncToRuntime()
		m.probe = nil
		m.cycleState = CycleMachining

		tr, ok := m.lastTrigger()
		m.LastProbe = tr
		m.ProbeHistory = append(m.ProbeHistory, tr)
		if !ok || !tr.Triggered {
			return ErrProbeFailed
		}
		return nil
	}
	return nil
}
