package coord

import "strings"

// Axis identifies one machine axis. Linear axes come first,
// rotary axes follow, matching the conventional XYZABC ordering.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
	AxisA
	AxisB
	AxisC

	// NumAxes is the build arity; every vector field uses it.
	NumAxes = 6
)

var axisNames = [NumAxes]string{"x", "y", "z", "a", "b", "c"}

func (a Axis) String() string {
	if a < 0 || a >= NumAxes {
		return "?"
	}
	return axisNames[a]
}

// Linear reports whether the axis is a linear (length) axis.
// Rotary axes are in degrees and are never unit-converted.
func (a Axis) Linear() bool {
	return a <= AxisZ
}

// AxisByName returns the axis for a single-letter name, or -1.
func AxisByName(name string) Axis {
	name = strings.ToLower(name)
	for i, n := range axisNames {
		if n == name {
			return Axis(i)
		}
	}
	return -1
}

// Vector is a per-axis tuple of values. The interpretation (position,
// offset, target) depends on context, but the frame is always stated
// by the holder.
type Vector [NumAxes]float64

// Flags marks which axes of a companion Vector carry a value.
type Flags [NumAxes]bool

// Add returns v + o.
func (v Vector) Add(o Vector) Vector {
	for i := range v {
		v[i] += o[i]
	}
	return v
}

// Sub returns v - o.
func (v Vector) Sub(o Vector) Vector {
	return v.Add(o.Neg())
}

// Neg returns -v.
func (v Vector) Neg() Vector {
	for i := range v {
		v[i] = -v[i]
	}
	return v
}

// Merge returns a copy of v with the flagged components taken from o.
func (v Vector) Merge(o Vector, f Flags) Vector {
	for i := range v {
		if f[i] {
			v[i] = o[i]
		}
	}
	return v
}

// Any reports whether at least one axis is flagged.
func (f Flags) Any() bool {
	for _, set := range f {
		if set {
			return true
		}
	}
	return false
}
