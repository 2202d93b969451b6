package gcode

import (
	"errors"
	"fmt"

	"github.com/mastercactapus/gcmc/coord"
)

// Input holds the raw values of one parsed block, in the units the
// block was written in. It is rebuilt for every block.
type Input struct {
	NextAction NextAction
	MotionMode MotionMode
	Flow       ProgramFlow
	LineNum    uint32

	Target coord.Vector

	FeedRate            float64
	InverseFeedRateMode bool

	FeedOverrideFactor     float64
	TraverseOverrideFactor float64
	SpindleOverrideFactor  float64
	FeedOverrideEnable     bool
	TraverseOverrideEnable bool
	SpindleOverrideEnable  bool

	LWord int

	Plane            coord.Plane
	UnitsMode        UnitsMode
	CoordSystem      CoordSystem
	AbsoluteOverride bool
	PathControl      PathControl
	DistanceMode     DistanceMode

	ToolSelect   int
	ToolChange   bool
	MistCoolant  bool
	FloodCoolant bool

	SpindleMode  SpindleMode
	SpindleSpeed float64

	Parameter float64
	ArcRadius float64
	ArcOffset [3]float64
}

// Flags is the companion presence structure: a field is meaningful
// in Input only when the matching flag is set.
type Flags struct {
	NextAction bool
	MotionMode bool
	Flow       bool
	LineNum    bool

	Target coord.Flags

	FeedRate            bool
	InverseFeedRateMode bool

	FeedOverrideFactor     bool
	TraverseOverrideFactor bool
	SpindleOverrideFactor  bool
	FeedOverrideEnable     bool
	TraverseOverrideEnable bool
	SpindleOverrideEnable  bool

	LWord bool

	Plane            bool
	UnitsMode        bool
	CoordSystem      bool
	AbsoluteOverride bool
	PathControl      bool
	DistanceMode     bool

	ToolSelect   bool
	ToolChange   bool
	MistCoolant  bool
	FloodCoolant bool

	SpindleMode  bool
	SpindleSpeed bool

	Parameter bool
	ArcRadius bool
	ArcOffset [3]bool
}

func axisOf(w byte) coord.Axis {
	switch w {
	case 'X':
		return coord.AxisX
	case 'Y':
		return coord.AxisY
	case 'Z':
		return coord.AxisZ
	case 'A':
		return coord.AxisA
	case 'B':
		return coord.AxisB
	case 'C':
		return coord.AxisC
	}
	return -1
}

// Decode validates a block and translates it into the input tier.
// The block is rejected whole on any violation; no partial result
// is returned.
func Decode(b Block) (*Input, *Flags, error) {
	if err := b.Validate(); err != nil {
		return nil, nil, err
	}

	in := &Input{}
	fl := &Flags{}

	for _, g := range b {
		var err error
		switch {
		case g.IsAxis():
			ax := axisOf(g.W)
			in.Target[ax] = g.Arg
			fl.Target[ax] = true
		case g.W == 'G':
			err = decodeG(g.Arg, in, fl)
		case g.W == 'M':
			err = decodeM(g.Arg, in, fl)
		default:
			err = decodeLetter(g, in, fl)
		}
		if err != nil {
			return nil, nil, err
		}
	}

	// override factors ride in on the P word
	if fl.FeedOverrideFactor {
		in.FeedOverrideFactor = in.Parameter
	}
	if fl.TraverseOverrideFactor {
		in.TraverseOverrideFactor = in.Parameter
	}
	if fl.SpindleOverrideFactor {
		in.SpindleOverrideFactor = in.Parameter
	}

	return in, fl, nil
}

func setNextAction(in *Input, fl *Flags, na NextAction) {
	in.NextAction = na
	fl.NextAction = true
}

func setMotionMode(in *Input, fl *Flags, mm MotionMode) {
	in.MotionMode = mm
	fl.MotionMode = true
}

func decodeG(arg float64, in *Input, fl *Flags) error {
	switch arg {
	case 0:
		setMotionMode(in, fl, MotionModeTraverse)
	case 1:
		setMotionMode(in, fl, MotionModeFeed)
	case 2:
		setMotionMode(in, fl, MotionModeCWArc)
	case 3:
		setMotionMode(in, fl, MotionModeCCWArc)
	case 4:
		setNextAction(in, fl, NextActionDwell)
	case 10:
		setNextAction(in, fl, NextActionSetCoordData)
	case 17:
		in.Plane, fl.Plane = coord.PlaneXY, true
	case 18:
		in.Plane, fl.Plane = coord.PlaneXZ, true
	case 19:
		in.Plane, fl.Plane = coord.PlaneYZ, true
	case 20:
		in.UnitsMode, fl.UnitsMode = Inches, true
	case 21:
		in.UnitsMode, fl.UnitsMode = Millimeters, true
	case 28:
		setNextAction(in, fl, NextActionGotoG28Position)
	case 28.1:
		setNextAction(in, fl, NextActionSetG28Position)
	case 28.2:
		setNextAction(in, fl, NextActionSearchHome)
	case 28.3:
		setNextAction(in, fl, NextActionSetAbsoluteOrigin)
	case 30:
		setNextAction(in, fl, NextActionGotoG30Position)
	case 30.1:
		setNextAction(in, fl, NextActionSetG30Position)
	case 38.2:
		setNextAction(in, fl, NextActionStraightProbe)
		setMotionMode(in, fl, MotionModeProbe)
	case 40, 49:
		// cutter compensation and tool length offsets are
		// permanently off; accepting the cancel forms keeps
		// common preambles working
	case 53:
		in.AbsoluteOverride, fl.AbsoluteOverride = true, true
	case 54, 55, 56, 57, 58, 59:
		in.CoordSystem = CoordSystem(int(arg) - 53)
		fl.CoordSystem = true
	case 61:
		in.PathControl, fl.PathControl = PathExactPath, true
	case 61.1:
		in.PathControl, fl.PathControl = PathExactStop, true
	case 64:
		in.PathControl, fl.PathControl = PathContinuous, true
	case 80:
		setMotionMode(in, fl, MotionModeCancel)
	case 81, 82, 83, 84, 85, 86, 87, 88, 89:
		setMotionMode(in, fl, MotionModeCanned)
	case 90:
		in.DistanceMode, fl.DistanceMode = AbsoluteMode, true
	case 91:
		in.DistanceMode, fl.DistanceMode = IncrementalMode, true
	case 92:
		setNextAction(in, fl, NextActionSetOriginOffsets)
	case 92.1:
		setNextAction(in, fl, NextActionResetOriginOffsets)
	case 92.2:
		setNextAction(in, fl, NextActionSuspendOriginOffsets)
	case 92.3:
		setNextAction(in, fl, NextActionResumeOriginOffsets)
	case 93:
		in.InverseFeedRateMode, fl.InverseFeedRateMode = true, true
	case 94:
		in.InverseFeedRateMode, fl.InverseFeedRateMode = false, true
	default:
		return fmt.Errorf("unsupported code: G%s", formatFloat(arg, 3))
	}
	return nil
}

func decodeM(arg float64, in *Input, fl *Flags) error {
	switch arg {
	case 0:
		in.Flow, fl.Flow = FlowStop, true
	case 1:
		in.Flow, fl.Flow = FlowOptionalStop, true
	case 2, 30:
		in.Flow, fl.Flow = FlowEnd, true
	case 3:
		in.SpindleMode, fl.SpindleMode = SpindleCW, true
	case 4:
		in.SpindleMode, fl.SpindleMode = SpindleCCW, true
	case 5:
		in.SpindleMode, fl.SpindleMode = SpindleOff, true
	case 6:
		in.ToolChange, fl.ToolChange = true, true
	case 7:
		in.MistCoolant, fl.MistCoolant = true, true
	case 8:
		in.FloodCoolant, fl.FloodCoolant = true, true
	case 9:
		in.MistCoolant, fl.MistCoolant = false, true
		in.FloodCoolant, fl.FloodCoolant = false, true
	case 48:
		in.FeedOverrideEnable, fl.FeedOverrideEnable = true, true
		in.SpindleOverrideEnable, fl.SpindleOverrideEnable = true, true
	case 49:
		in.FeedOverrideEnable, fl.FeedOverrideEnable = false, true
		in.SpindleOverrideEnable, fl.SpindleOverrideEnable = false, true
	case 50:
		in.FeedOverrideEnable, fl.FeedOverrideEnable = true, true
	case 50.1:
		fl.FeedOverrideFactor = true
	case 50.2:
		in.TraverseOverrideEnable, fl.TraverseOverrideEnable = true, true
	case 50.3:
		fl.TraverseOverrideFactor = true
	case 51:
		in.SpindleOverrideEnable, fl.SpindleOverrideEnable = true, true
	case 51.1:
		fl.SpindleOverrideFactor = true
	default:
		return fmt.Errorf("unsupported code: M%s", formatFloat(arg, 3))
	}
	return nil
}

func decodeLetter(g Word, in *Input, fl *Flags) error {
	switch g.W {
	case 'N':
		if g.Arg < 0 {
			return errors.New("negative line number")
		}
		in.LineNum, fl.LineNum = uint32(g.Arg), true
	case 'F':
		in.FeedRate, fl.FeedRate = g.Arg, true
	case 'S':
		in.SpindleSpeed, fl.SpindleSpeed = g.Arg, true
	case 'T':
		in.ToolSelect, fl.ToolSelect = int(g.Arg), true
	case 'P':
		in.Parameter, fl.Parameter = g.Arg, true
	case 'L':
		in.LWord, fl.LWord = int(g.Arg), true
	case 'R':
		in.ArcRadius, fl.ArcRadius = g.Arg, true
	case 'I':
		in.ArcOffset[0], fl.ArcOffset[0] = g.Arg, true
	case 'J':
		in.ArcOffset[1], fl.ArcOffset[1] = g.Arg, true
	case 'K':
		in.ArcOffset[2], fl.ArcOffset[2] = g.Arg, true
	default:
		return errors.New("unsupported word: " + g.String())
	}
	return nil
}
