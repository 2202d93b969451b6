package coord

import (
	"math"
)

// Point is an XYZ location, used by the surface mesh and probe
// grid code. Machine positions use the full Vector type; a Point is
// the projection onto the three linear axes.
type Point struct{ X, Y, Z float64 }

// PointFrom projects the linear axes of a Vector.
func PointFrom(v Vector) Point {
	return Point{X: v[AxisX], Y: v[AxisY], Z: v[AxisZ]}
}

// Vector places the point back into a full axis vector.
func (p Point) Vector() Vector {
	var v Vector
	v[AxisX] = p.X
	v[AxisY] = p.Y
	v[AxisZ] = p.Z
	return v
}

func (p Point) Equal(b Point) bool {
	return p.X == b.X && p.Y == b.Y && p.Z == b.Z
}
func (p Point) Cross(op Point) Point {
	return Point{
		p.Y*op.Z - p.Z*op.Y,
		p.Z*op.X - p.X*op.Z,
		p.X*op.Y - p.Y*op.X,
	}
}
func (p Point) Dot(op Point) float64 {
	return p.X*op.X + p.Y*op.Y + p.Z*op.Z
}

// Add will add the target values to p.
func (p Point) Add(target Point) Point {
	p.X += target.X
	p.Y += target.Y
	p.Z += target.Z
	return p
}

// Sub will subtract the target values from p.
func (p Point) Sub(target Point) Point {
	p.X -= target.X
	p.Y -= target.Y
	p.Z -= target.Z
	return p
}

// DistanceXY will return the 2D distance to p from (x,y).
func (p Point) DistanceXY(x, y float64) float64 {
	return math.Sqrt(math.Pow(x-p.X, 2) + math.Pow(y-p.Y, 2))
}
