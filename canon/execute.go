package canon

import (
	"github.com/mastercactapus/gcmc/coord"
	"github.com/mastercactapus/gcmc/gcode"
)

// ExecuteBlock decodes and executes one block. This is the main
// parser entry point.
func (m *Machine) ExecuteBlock(b gcode.Block) error {
	in, fl, err := gcode.Decode(b)
	if err != nil {
		if err == gcode.ErrModalGroupViolation {
			return ErrModalGroupConflict
		}
		return err
	}
	return m.Execute(in, fl)
}

// Execute applies one validated block to the model and dispatches
// the resulting canonical command. Field application follows the
// RS274 order: units first, so later words in the same block are
// read in the new units; motion next, then program flow last.
func (m *Machine) Execute(in *gcode.Input, fl *gcode.Flags) error {
	if err := m.Assert(); err != nil {
		return err
	}

	// G53 is block-scoped: it is set fresh from each block, so a
	// G53 stays in effect until the next block begins
	m.gm.AbsoluteOverride = fl.AbsoluteOverride && in.AbsoluteOverride

	if fl.LineNum {
		m.gm.LineNum = in.LineNum
	}
	if fl.UnitsMode {
		m.SetUnitsMode(in.UnitsMode)
	}

	// every linear word in gn converts to mm once the units mode
	// for this block is known; rotary axes stay in degrees
	target := in.Target
	for i := range target {
		if fl.Target[i] && coord.Axis(i).Linear() {
			target[i] = normalizeLength(target[i], m.gm.UnitsMode)
		}
	}
	radius := normalizeLength(in.ArcRadius, m.gm.UnitsMode)
	var arcOffset [3]float64
	for i, v := range in.ArcOffset {
		arcOffset[i] = normalizeLength(v, m.gm.UnitsMode)
	}

	if fl.Plane {
		m.SelectPlane(in.Plane)
	}
	if fl.PathControl {
		m.SetPathControl(in.PathControl)
	}
	if fl.DistanceMode {
		m.SetDistanceMode(in.DistanceMode)
	}
	if fl.CoordSystem {
		if err := m.SetCoordSystem(in.CoordSystem); err != nil {
			return err
		}
	}
	if fl.InverseFeedRateMode {
		m.SetInverseFeedRateMode(in.InverseFeedRateMode)
	}
	if fl.FeedRate {
		m.SetFeedRate(in.FeedRate)
	}
	if fl.SpindleSpeed {
		if err := m.SetSpindleSpeed(in.SpindleSpeed); err != nil {
			return err
		}
	}
	if fl.ToolSelect {
		if err := m.SelectTool(in.ToolSelect); err != nil {
			return err
		}
	}
	if fl.ToolChange {
		if err := m.ChangeTool(); err != nil {
			return err
		}
	}
	if fl.SpindleMode {
		if err := m.SetSpindleMode(in.SpindleMode); err != nil {
			return err
		}
	}
	if fl.MistCoolant {
		if err := m.MistCoolantControl(in.MistCoolant); err != nil {
			return err
		}
	}
	if fl.FloodCoolant {
		if err := m.FloodCoolantControl(in.FloodCoolant); err != nil {
			return err
		}
	}
	if err := m.applyOverrides(in, fl); err != nil {
		return err
	}
	if fl.Parameter {
		m.gm.Parameter = in.Parameter
	}
	if fl.LWord {
		m.gmx.LWord = in.LWord
	}
	if fl.ArcRadius {
		m.gmx.ArcRadius = radius
	}
	for i := range arcOffset {
		if fl.ArcOffset[i] {
			m.gmx.ArcOffset[i] = arcOffset[i]
		}
	}

	err := m.dispatch(in, fl, target, radius, arcOffset)
	if err != nil {
		return err
	}

	if fl.Flow {
		switch in.Flow {
		case gcode.FlowStop:
			m.ProgramStop()
		case gcode.FlowOptionalStop:
			m.OptionalProgramStop()
		case gcode.FlowEnd:
			m.ProgramEnd()
		}
	}

	return nil
}

func (m *Machine) applyOverrides(in *gcode.Input, fl *gcode.Flags) error {
	if fl.FeedOverrideEnable {
		m.FeedOverrideEnable(in.FeedOverrideEnable)
	}
	if fl.TraverseOverrideEnable {
		m.TraverseOverrideEnable(in.TraverseOverrideEnable)
	}
	if fl.SpindleOverrideEnable {
		m.SpindleOverrideEnable(in.SpindleOverrideEnable)
	}
	// factor clamps warn without failing the block
	if fl.FeedOverrideFactor {
		if err := m.FeedOverrideFactor(in.FeedOverrideFactor); err != nil && err != ErrValueClamped {
			return err
		}
	}
	if fl.TraverseOverrideFactor {
		if err := m.TraverseOverrideFactor(in.TraverseOverrideFactor); err != nil && err != ErrValueClamped {
			return err
		}
	}
	if fl.SpindleOverrideFactor {
		if err := m.SpindleOverrideFactor(in.SpindleOverrideFactor); err != nil && err != ErrValueClamped {
			return err
		}
	}
	return nil
}

func (m *Machine) dispatch(in *gcode.Input, fl *gcode.Flags, target coord.Vector, radius float64, arcOffset [3]float64) error {
	if fl.NextAction {
		switch in.NextAction {
		case gcode.NextActionDwell:
			return m.Dwell(m.gm.Parameter)
		case gcode.NextActionSetCoordData:
			if m.gmx.LWord != 2 {
				return ErrNotImplemented
			}
			return m.SetCoordOffsets(gcode.CoordSystem(int(m.gm.Parameter)), target, fl.Target)
		case gcode.NextActionSearchHome:
			return m.HomingCycleStart(fl.Target)
		case gcode.NextActionSetAbsoluteOrigin:
			return m.SetAbsoluteOrigin(target, fl.Target)
		case gcode.NextActionSetG28Position:
			return m.SetG28Position()
		case gcode.NextActionGotoG28Position:
			return m.GotoG28Position(target, fl.Target)
		case gcode.NextActionSetG30Position:
			return m.SetG30Position()
		case gcode.NextActionGotoG30Position:
			return m.GotoG30Position(target, fl.Target)
		case gcode.NextActionSetOriginOffsets:
			return m.SetOriginOffsets(target, fl.Target)
		case gcode.NextActionResetOriginOffsets:
			return m.ResetOriginOffsets()
		case gcode.NextActionSuspendOriginOffsets:
			return m.SuspendOriginOffsets()
		case gcode.NextActionResumeOriginOffsets:
			return m.ResumeOriginOffsets()
		case gcode.NextActionStraightProbe:
			return m.ProbeCycleStart(target, fl.Target)
		}
	}

	// modal motion: a new motion word or bare axis words under the
	// sticky motion mode
	if fl.MotionMode {
		m.gm.MotionMode = in.MotionMode
	}
	if !fl.Target.Any() {
		return nil
	}
	switch m.gm.MotionMode {
	case gcode.MotionModeTraverse:
		return m.StraightTraverse(target, fl.Target)
	case gcode.MotionModeFeed:
		return m.StraightFeed(target, fl.Target)
	case gcode.MotionModeCWArc, gcode.MotionModeCCWArc:
		return m.ArcFeed(target, fl.Target, arcOffset, fl.ArcOffset, radius, fl.ArcRadius, m.gm.MotionMode)
	case gcode.MotionModeCancel:
		return nil
	case gcode.MotionModeCanned:
		return ErrNotImplemented
	}
	return nil
}
