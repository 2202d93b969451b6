package gcode

// ModalGroup classifies words for conflict detection per NIST
// RS274/NGC section 3.4: at most one word of a modal group may
// appear in a block. Non-modal commands (group 0) may share a
// block with a motion word.
type ModalGroup byte

const (
	ModalGroupNone ModalGroup = iota
	ModalGroupNonModal         // G4, G10, G28.x, G30.x, G53, G92.x
	ModalGroupMotion           // G0, G1, G2, G3, G38.2, G80-G89
	ModalGroupPlaneSelection   // G17, G18, G19
	ModalGroupDistanceMode     // G90, G91
	ModalGroupFeedRateMode     // G93, G94
	ModalGroupUnits            // G20, G21
	ModalGroupCutterComp       // G40, G41, G42
	ModalGroupToolLength       // G43, G49
	ModalGroupReturnMode       // G98, G99
	ModalGroupCoordSystem      // G54-G59
	ModalGroupPathControl      // G61, G61.1, G64
	ModalGroupStopping         // M0, M1, M2, M30, M60
	ModalGroupToolChange       // M6
	ModalGroupSpindle          // M3, M4, M5
	ModalGroupCoolant          // M7, M8, M9 (M7 and M8 may be active together)
	ModalGroupOverride         // M48-M51.1
)

func (w Word) ModalGroup() ModalGroup {
	if w.W == 'G' {
		switch w.Arg {
		case 4, 10, 28, 28.1, 28.2, 28.3, 30, 30.1, 53, 92, 92.1, 92.2, 92.3:
			return ModalGroupNonModal
		case 0, 1, 2, 3, 38.2, 80, 81, 82, 83, 84, 85, 86, 87, 88, 89:
			return ModalGroupMotion
		case 17, 18, 19:
			return ModalGroupPlaneSelection
		case 90, 91:
			return ModalGroupDistanceMode
		case 93, 94:
			return ModalGroupFeedRateMode
		case 20, 21:
			return ModalGroupUnits
		case 40, 41, 42:
			return ModalGroupCutterComp
		case 43, 49:
			return ModalGroupToolLength
		case 98, 99:
			return ModalGroupReturnMode
		case 54, 55, 56, 57, 58, 59:
			return ModalGroupCoordSystem
		case 61, 61.1, 64:
			return ModalGroupPathControl
		}
	} else if w.W == 'M' {
		switch w.Arg {
		case 0, 1, 2, 30, 60:
			return ModalGroupStopping
		case 6:
			return ModalGroupToolChange
		case 3, 4, 5:
			return ModalGroupSpindle
		case 7, 8, 9:
			return ModalGroupCoolant
		case 48, 49, 50, 50.1, 50.2, 50.3, 51, 51.1:
			return ModalGroupOverride
		}
	}

	return ModalGroupNone
}
