package coord

// Plane is a canonical arc plane selection (G17, G18, G19).
type Plane int

const (
	PlaneXY Plane = iota // G17
	PlaneXZ              // G18
	PlaneYZ              // G19
)

var planeAxes = [3][3]Axis{
	PlaneXY: {AxisX, AxisY, AxisZ},
	PlaneXZ: {AxisX, AxisZ, AxisY},
	PlaneYZ: {AxisY, AxisZ, AxisX},
}

var planeNames = [3]string{"G17", "G18", "G19"}

// Axes returns the two in-plane axes and the normal axis, in that
// order, for arc generation.
func (p Plane) Axes() (axis0, axis1, normal Axis) {
	a := planeAxes[p]
	return a[0], a[1], a[2]
}

func (p Plane) String() string {
	if p < 0 || p > PlaneYZ {
		return "?"
	}
	return planeNames[p]
}
