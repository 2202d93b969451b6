package canon

import (
	"math"

	"github.com/mastercactapus/gcmc/coord"
	"github.com/mastercactapus/gcmc/gcode"
)

// ArcFeed implements G2 and G3. The arc is planned in the selected
// plane and handed to the segmenter, which emits a chain of short
// straight feeds; each segment is enqueued independently so the
// feedhold sequencer keeps its decel granularity.
//
// Either the radius form (R word) or the center form (I/J/K) may be
// used; a block with both is rejected with ErrArcSpecification.
func (m *Machine) ArcFeed(target coord.Vector, fl coord.Flags, offset [3]float64, offsetFl [3]bool, radius float64, radiusSet bool, mode gcode.MotionMode) error {
	if m.alarmed() {
		return ErrAlarmed
	}
	if m.gm.FeedRate == 0 && !m.gm.InverseFeedRateMode {
		return ErrFeedRateNotSet
	}
	if radiusSet && (offsetFl[0] || offsetFl[1] || offsetFl[2]) {
		return ErrArcSpecification
	}
	if !radiusSet && !offsetFl[0] && !offsetFl[1] && !offsetFl[2] {
		return ErrArcSpecification
	}

	axis0, axis1, _ := m.gm.Plane.Axes()

	// gm.Target is restored to its previous value if the arc does
	// not validate
	start := m.gmx.Position
	prevTarget := m.gm.Target
	m.gm.MotionMode = mode
	m.setModelTarget(target, fl)
	end := m.gm.Target
	if err := m.checkSoftLimits(); err != nil {
		m.gm.Target = prevTarget
		return err
	}

	cw := mode == gcode.MotionModeCWArc

	var center [2]float64
	if radiusSet {
		c, err := arcCenterFromRadius(
			start[axis0], start[axis1],
			end[axis0], end[axis1],
			radius, cw)
		if err != nil {
			m.gm.Target = prevTarget
			return err
		}
		center = c
	} else {
		// IJK are relative to the start point, mapped onto the
		// plane axes
		center[0] = start[axis0] + planeOffset(offset, offsetFl, axis0)
		center[1] = start[axis1] + planeOffset(offset, offsetFl, axis1)
		radius = math.Hypot(start[axis0]-center[0], start[axis1]-center[1])
		if radius == 0 {
			m.gm.Target = prevTarget
			return ErrArcSpecification
		}
	}

	theta0 := math.Atan2(start[axis1]-center[1], start[axis0]-center[0])
	theta1 := math.Atan2(end[axis1]-center[1], end[axis0]-center[0])

	sweep := theta1 - theta0
	if cw {
		if sweep >= 0 {
			sweep -= 2 * math.Pi
		}
	} else {
		if sweep <= 0 {
			sweep += 2 * math.Pi
		}
	}
	if sweep == 0 {
		// same start and end angle in center form is a full circle
		if cw {
			sweep = -2 * math.Pi
		} else {
			sweep = 2 * math.Pi
		}
	}

	segments := m.arcSegments(radius, math.Abs(sweep))

	m.enterCycle(CycleMachining)

	// each segment is a normal straight feed in the machine frame
	for i := 1; i <= segments; i++ {
		f := float64(i) / float64(segments)
		theta := theta0 + sweep*f

		seg := start
		for j := range seg {
			// non-plane axes interpolate linearly (helical)
			seg[j] = start[j] + (end[j]-start[j])*f
		}
		seg[axis0] = center[0] + radius*math.Cos(theta)
		seg[axis1] = center[1] + radius*math.Sin(theta)
		if i == segments {
			seg = end
		}

		m.gm.Target = seg
		m.setMoveTimes(MoveFeed)
		if err := m.enqueue(MoveFeed, nil); err != nil {
			// planner filled mid-arc; position tracks what was
			// committed, the dispatcher re-drives the remainder
			// as a fresh arc from there
			m.gm.Target = m.gmx.Position
			return err
		}
		m.finalizeMove()
	}

	return nil
}

func planeOffset(offset [3]float64, fl [3]bool, a coord.Axis) float64 {
	// I, J, K always name X, Y, Z order offsets
	var i int
	switch a {
	case coord.AxisX:
		i = 0
	case coord.AxisY:
		i = 1
	case coord.AxisZ:
		i = 2
	default:
		return 0
	}
	if !fl[i] {
		return 0
	}
	return offset[i]
}

// arcCenterFromRadius solves the center for the radius form: of
// the two candidate centers, a positive R picks the minor arc, a
// negative R the major one.
func arcCenterFromRadius(x0, y0, x1, y1, r float64, cw bool) ([2]float64, error) {
	dx := x1 - x0
	dy := y1 - y0
	d := math.Hypot(dx, dy)
	if d == 0 {
		return [2]float64{}, ErrArcSpecification
	}
	h2 := r*r - d*d/4
	if h2 < 0 {
		return [2]float64{}, ErrArcSpecification
	}
	h := math.Sqrt(h2)
	if cw != (r < 0) {
		h = -h
	}
	r = math.Abs(r)

	mx := (x0 + x1) / 2
	my := (y0 + y1) / 2
	return [2]float64{
		mx - h*dy/d,
		my + h*dx/d,
	}, nil
}

// arcSegments picks a segment count from the chordal tolerance:
// the max deviation between the true arc and its chords stays
// within the configured limit, with the segment length floor
// applied.
func (m *Machine) arcSegments(radius, sweep float64) int {
	length := radius * sweep
	if length <= 0 {
		return 1
	}
	ct := m.cfg.ChordalTolerance
	if ct <= 0 {
		ct = 0.01
	}
	chord := math.Sqrt(4 * ct * (2*radius - ct))
	if min := m.cfg.ArcSegmentLen; chord < min && min > 0 {
		chord = min
	}
	n := int(math.Ceil(length / chord))
	if n < 1 {
		n = 1
	}
	return n
}
