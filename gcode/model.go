package gcode

// NextAction selects the non-modal command a block carries. It is
// consumed by the current block only, unlike MotionMode which
// persists as modal group 1.
type NextAction int

const (
	NextActionDefault NextAction = iota // motion mode applies
	NextActionSearchHome                // G28.2
	NextActionSetAbsoluteOrigin         // G28.3
	NextActionSetG28Position            // G28.1
	NextActionGotoG28Position           // G28
	NextActionSetG30Position            // G30.1
	NextActionGotoG30Position           // G30
	NextActionSetCoordData              // G10
	NextActionSetOriginOffsets          // G92
	NextActionResetOriginOffsets        // G92.1
	NextActionSuspendOriginOffsets      // G92.2
	NextActionResumeOriginOffsets       // G92.3
	NextActionDwell                     // G4
	NextActionStraightProbe             // G38.2
)

// MotionMode is G modal group 1.
type MotionMode int

const (
	MotionModeTraverse MotionMode = iota // G0
	MotionModeFeed                       // G1
	MotionModeCWArc                      // G2
	MotionModeCCWArc                     // G3
	MotionModeCancel                     // G80
	MotionModeProbe                      // G38.2
	MotionModeCanned                     // G81-G89, recognized but not executed
)

var motionModeNames = map[MotionMode]string{
	MotionModeTraverse: "G0",
	MotionModeFeed:     "G1",
	MotionModeCWArc:    "G2",
	MotionModeCCWArc:   "G3",
	MotionModeCancel:   "G80",
	MotionModeProbe:    "G38.2",
	MotionModeCanned:   "G8x",
}

func (m MotionMode) String() string { return motionModeNames[m] }

type UnitsMode int

const (
	Inches      UnitsMode = iota // G20
	Millimeters                  // G21
)

func (u UnitsMode) String() string {
	if u == Inches {
		return "G20"
	}
	return "G21"
}

type DistanceMode int

const (
	AbsoluteMode    DistanceMode = iota // G90
	IncrementalMode                     // G91
)

func (d DistanceMode) String() string {
	if d == IncrementalMode {
		return "G91"
	}
	return "G90"
}

type PathControl int

const (
	PathExactPath  PathControl = iota // G61
	PathExactStop                     // G61.1
	PathContinuous                    // G64
)

// CoordSystem selects a work coordinate system. Zero is the machine
// (absolute) frame; 1 through 6 are G54 through G59.
type CoordSystem int

const (
	AbsoluteCoords CoordSystem = iota
	G54
	G55
	G56
	G57
	G58
	G59

	NumCoordSystems
)

func (c CoordSystem) String() string {
	if c == AbsoluteCoords {
		return "machine"
	}
	return "G" + formatFloat(float64(53+int(c)), 0)
}

type SpindleMode int

const (
	SpindleOff SpindleMode = iota // M5
	SpindleCW                     // M3
	SpindleCCW                    // M4
)

type ProgramFlow int

const (
	FlowNone ProgramFlow = iota
	FlowStop                 // M0
	FlowOptionalStop         // M1
	FlowEnd                  // M2, M30
)
