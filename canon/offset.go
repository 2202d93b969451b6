package canon

import (
	"github.com/mastercactapus/gcmc/coord"
	"github.com/mastercactapus/gcmc/gcode"
)

// MMPerInch is the G20 conversion factor.
const MMPerInch = 25.4

// normalizeLength converts a length written in the given units mode
// to canonical millimeters.
func normalizeLength(v float64, u gcode.UnitsMode) float64 {
	if u == gcode.Inches {
		return v * MMPerInch
	}
	return v
}

// displayLength converts a canonical millimeter value to the active
// display units.
func (m *Machine) displayLength(v float64) float64 {
	if m.gm.UnitsMode == gcode.Inches {
		return v / MMPerInch
	}
	return v
}

// ActiveCoordOffset returns the offset from the machine frame to
// the programmer's frame for one axis: the selected work offset
// plus the G92 origin offset when enabled. A G53 absolute override
// suppresses all offsets for the current block.
func (m *Machine) ActiveCoordOffset(a coord.Axis) float64 {
	if m.gm.AbsoluteOverride {
		return 0
	}
	off := m.offsets[m.gm.CoordSystem][a]
	if m.gmx.OriginOffsetEnable {
		off += m.gmx.OriginOffset[a]
	}
	return off
}

// WorkPosition is the model position in the programmer's frame,
// in millimeters. Display unit conversion is the reporter's job.
func (m *Machine) WorkPosition(a coord.Axis) float64 {
	return m.gmx.Position[a] - m.ActiveCoordOffset(a)
}

// AbsolutePosition is the model position in the machine frame, mm.
func (m *Machine) AbsolutePosition(a coord.Axis) float64 {
	return m.gmx.Position[a]
}

// setWorkOffsets captures the active per-axis offsets into the
// model for the reporting snapshot carried by planner buffers.
func (m *Machine) setWorkOffsets() {
	for i := range m.gm.WorkOffset {
		m.gm.WorkOffset[i] = m.ActiveCoordOffset(coord.Axis(i))
	}
}

// SetCoordSystem implements G54 through G59.
func (m *Machine) SetCoordSystem(c gcode.CoordSystem) error {
	if c < gcode.G54 || c > gcode.G59 {
		return ErrInvalidCoordSystem
	}
	m.gm.CoordSystem = c
	return nil
}

// SetCoordOffsets implements G10 L2: write the offset table entry
// for the given system, flagged axes only. Values arrive in mm.
// The table is marked for write-through to the config store on the
// next idle tick.
func (m *Machine) SetCoordOffsets(c gcode.CoordSystem, offset coord.Vector, fl coord.Flags) error {
	if c < gcode.G54 || c > gcode.G59 {
		return ErrInvalidCoordSystem
	}
	m.offsets[c] = m.offsets[c].Merge(offset, fl)
	m.offsetsDirty = true
	return nil
}

// SetOriginOffsets implements G92: the origin offset is set so the
// current position reads as the given value in the current work
// frame, and offsets are enabled.
func (m *Machine) SetOriginOffsets(offset coord.Vector, fl coord.Flags) error {
	m.gmx.OriginOffsetEnable = true
	for i := range offset {
		if !fl[i] {
			continue
		}
		ax := coord.Axis(i)
		m.gmx.OriginOffset[i] = m.gmx.Position[i] -
			m.offsets[m.gm.CoordSystem][ax] - offset[i]
	}
	return nil
}

// ResetOriginOffsets implements G92.1: zero the offsets and disable.
func (m *Machine) ResetOriginOffsets() error {
	m.gmx.OriginOffset = coord.Vector{}
	m.gmx.OriginOffsetEnable = false
	return nil
}

// SuspendOriginOffsets implements G92.2: stop applying the offsets
// but preserve the values.
func (m *Machine) SuspendOriginOffsets() error {
	m.gmx.OriginOffsetEnable = false
	return nil
}

// ResumeOriginOffsets implements G92.3.
func (m *Machine) ResumeOriginOffsets() error {
	m.gmx.OriginOffsetEnable = true
	return nil
}

// SetG28Position implements G28.1: store the current machine
// position.
func (m *Machine) SetG28Position() error {
	m.gmx.G28Position = m.gmx.Position
	return nil
}

// SetG30Position implements G30.1.
func (m *Machine) SetG30Position() error {
	m.gmx.G30Position = m.gmx.Position
	return nil
}

// GotoG28Position implements G28: traverse through the flagged
// intermediate point, then to the stored position. Unflagged axes
// do not move in either phase.
func (m *Machine) GotoG28Position(target coord.Vector, fl coord.Flags) error {
	return m.gotoStored(m.gmx.G28Position, target, fl)
}

// GotoG30Position implements G30.
func (m *Machine) GotoG30Position(target coord.Vector, fl coord.Flags) error {
	return m.gotoStored(m.gmx.G30Position, target, fl)
}

func (m *Machine) gotoStored(stored, target coord.Vector, fl coord.Flags) error {
	// only the axes flagged on the goto block move, in both the
	// intermediate and the final phase
	if !fl.Any() {
		return nil
	}
	if err := m.StraightTraverse(target, fl); err != nil {
		return err
	}
	return m.straightTraverseAbsolute(stored, fl)
}

// SetAbsoluteOrigin implements G28.3: the flagged axes' machine
// positions are set directly and the axes are marked homed.
func (m *Machine) SetAbsoluteOrigin(origin coord.Vector, fl coord.Flags) error {
	for i := range origin {
		if !fl[i] {
			continue
		}
		m.SetAxisOrigin(coord.Axis(i), origin[i])
		m.homed[i] = true
	}
	m.homingState = Homed
	return nil
}

// SetAxisOrigin sets the model (and target) position of one axis in
// the machine frame without motion. Used by homing and G28.3.
func (m *Machine) SetAxisOrigin(a coord.Axis, position float64) {
	m.gmx.Position[a] = position
	m.gm.Target[a] = position
}
