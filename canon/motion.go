package canon

import (
	"log"
	"math"

	"github.com/mastercactapus/gcmc/coord"
	"github.com/mastercactapus/gcmc/gcode"
)

// setMoveTimes computes the optimal and minimum move times for the
// current target, honoring per-axis velocity limits, the feed rate
// (or inverse feed rate) and any active override factors.
func (m *Machine) setMoveTimes(kind MoveKind) {
	var maxTime, minTime float64
	var linearSq float64

	for i, a := range m.cfg.Axes {
		if a.Mode == AxisDisabled {
			continue
		}
		d := math.Abs(m.gm.Target[i] - m.gmx.Position[i])
		if d == 0 {
			continue
		}
		if coord.Axis(i).Linear() {
			linearSq += d * d
		}
		if a.VelocityMax > 0 {
			t := d / a.VelocityMax
			if t > minTime {
				minTime = t
			}
			if kind == MoveTraverse && t > maxTime {
				maxTime = t
			}
		}
	}

	switch kind {
	case MoveTraverse:
		if m.gmx.TraverseOverrideEnable && m.gmx.TraverseOverrideFactor > 0 {
			maxTime /= m.gmx.TraverseOverrideFactor
		}
	case MoveFeed:
		if m.gm.InverseFeedRateMode {
			maxTime = m.gmx.InverseFeedRate
		} else {
			feed := m.gm.FeedRate
			if m.gmx.FeedOverrideEnable {
				feed *= m.gmx.FeedOverrideFactor
			}
			if feed > 0 {
				maxTime = math.Sqrt(linearSq) / feed
			}
		}
	}

	if maxTime < minTime {
		maxTime = minTime
	}
	m.gm.MoveTime = maxTime
	m.gm.MinimumTime = minTime
}

// enqueue reserves a planner slot, snapshots the model into it and
// commits. ErrPlannerFull propagates as ErrAgain so the dispatcher
// re-drives the same block.
func (m *Machine) enqueue(kind MoveKind, fill func(*Buffer)) error {
	bf, err := m.planner.Reserve()
	if err != nil {
		return ErrAgain
	}
	bf.Kind = kind
	m.setWorkOffsets()
	m.SnapshotInto(&bf.State)
	if fill != nil {
		fill(bf)
	}
	m.planner.Commit(bf)
	return nil
}

// finalizeMove commits the canonical position to the commanded
// target after a successful enqueue.
func (m *Machine) finalizeMove() {
	m.gmx.Position = m.gm.Target
}

// StraightTraverse implements G0.
func (m *Machine) StraightTraverse(target coord.Vector, fl coord.Flags) error {
	if m.alarmed() {
		return ErrAlarmed
	}
	m.gm.MotionMode = gcode.MotionModeTraverse
	m.setModelTarget(target, fl)
	if err := m.checkSoftLimits(); err != nil {
		m.gm.Target = m.gmx.Position
		return err
	}
	m.setMoveTimes(MoveTraverse)

	m.enterCycle(CycleMachining)
	if err := m.enqueue(MoveTraverse, nil); err != nil {
		return err
	}
	m.finalizeMove()
	return nil
}

// straightTraverseAbsolute moves flagged axes in the machine frame,
// bypassing offsets and distance mode. Used by G28/G30 and the
// cycles.
func (m *Machine) straightTraverseAbsolute(target coord.Vector, fl coord.Flags) error {
	if m.alarmed() {
		return ErrAlarmed
	}
	m.gm.MotionMode = gcode.MotionModeTraverse
	m.gm.Target = m.gmx.Position.Merge(target, fl)
	m.setMoveTimes(MoveTraverse)

	m.enterCycle(CycleMachining)
	if err := m.enqueue(MoveTraverse, nil); err != nil {
		return err
	}
	m.finalizeMove()
	return nil
}

// StraightFeed implements G1. It fails if no feed rate has been set
// and inverse feed rate mode is off; the model target is left
// untouched in that case.
func (m *Machine) StraightFeed(target coord.Vector, fl coord.Flags) error {
	if m.alarmed() {
		return ErrAlarmed
	}
	if m.gm.FeedRate == 0 && !m.gm.InverseFeedRateMode {
		return ErrFeedRateNotSet
	}
	m.gm.MotionMode = gcode.MotionModeFeed
	m.setModelTarget(target, fl)
	if err := m.checkSoftLimits(); err != nil {
		m.gm.Target = m.gmx.Position
		return err
	}
	m.setMoveTimes(MoveFeed)

	m.enterCycle(CycleMachining)
	if err := m.enqueue(MoveFeed, nil); err != nil {
		return err
	}
	m.finalizeMove()
	return nil
}

// Dwell implements G4: a timed block with no motion.
func (m *Machine) Dwell(seconds float64) error {
	if m.alarmed() {
		return ErrAlarmed
	}
	if seconds < 0 {
		return ErrValueClamped
	}
	m.enterCycle(CycleMachining)
	return m.enqueue(MoveDwell, func(bf *Buffer) {
		bf.Seconds = seconds
	})
}

// SetFeedRate implements the F word. In inverse feed rate mode the
// value is 1/minutes for the next move; otherwise it is normalized
// to mm/min and soft-clamped to the largest configured per-axis feed
// rate limit.
func (m *Machine) SetFeedRate(feed float64) error {
	if m.gm.InverseFeedRateMode {
		if feed > 0 {
			m.gmx.InverseFeedRate = 1 / feed
		}
		return nil
	}
	feed = normalizeLength(feed, m.gm.UnitsMode)
	if max := m.maxFeedRate(); max > 0 && feed > max {
		log.Printf("feed rate %.3f clamped to %.3f", feed, max)
		feed = max
	}
	m.gm.FeedRate = feed
	return nil
}

func (m *Machine) maxFeedRate() float64 {
	var max float64
	for _, a := range m.cfg.Axes {
		if a.Mode == AxisDisabled || a.FeedRateMax <= 0 {
			continue
		}
		if max == 0 || a.FeedRateMax > max {
			max = a.FeedRateMax
		}
	}
	return max
}

// SetInverseFeedRateMode implements G93/G94.
func (m *Machine) SetInverseFeedRateMode(on bool) error {
	m.gm.InverseFeedRateMode = on
	return nil
}

// SelectPlane implements G17/G18/G19.
func (m *Machine) SelectPlane(p coord.Plane) error {
	m.gm.Plane = p
	return nil
}

// SetUnitsMode implements G20/G21.
func (m *Machine) SetUnitsMode(u gcode.UnitsMode) error {
	m.gm.UnitsMode = u
	return nil
}

// SetDistanceMode implements G90/G91.
func (m *Machine) SetDistanceMode(d gcode.DistanceMode) error {
	m.gm.DistanceMode = d
	return nil
}

// SetPathControl implements G61/G61.1/G64.
func (m *Machine) SetPathControl(p gcode.PathControl) error {
	m.gm.PathControl = p
	return nil
}

// QueueFlush drains every not-yet-started planner block and resyncs
// the model to the runtime position. It is the only cancellation
// primitive.
func (m *Machine) QueueFlush() error {
	m.planner.Flush()
	m.gmx.Position = m.planner.RuntimePosition()
	m.gm.Target = m.gmx.Position
	return nil
}
