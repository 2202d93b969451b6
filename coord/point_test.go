package coord

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoint_Add(t *testing.T) {
	a := Point{X: 1, Y: 2, Z: 3}
	b := Point{X: 4, Y: 5, Z: 6}

	assert.Equal(t, Point{X: 5, Y: 7, Z: 9}, a.Add(b))
}

func TestPoint_DistanceXY(t *testing.T) {
	dist := Point{X: 1, Y: 2, Z: 3}.DistanceXY(4, 5)
	assert.InEpsilon(t, 4.24264, dist, .01)
}

func TestPoint_Vector(t *testing.T) {
	p := Point{X: 1, Y: 2, Z: 3}
	v := p.Vector()

	assert.Equal(t, Vector{1, 2, 3, 0, 0, 0}, v)
	assert.Equal(t, p, PointFrom(v))
}

func TestVector_Merge(t *testing.T) {
	v := Vector{1, 2, 3, 4, 5, 6}
	o := Vector{10, 20, 30, 40, 50, 60}

	var f Flags
	f[AxisX] = true
	f[AxisA] = true

	assert.Equal(t, Vector{10, 2, 3, 40, 5, 6}, v.Merge(o, f))
}

func TestVector_Sub(t *testing.T) {
	v := Vector{10, 20, 30, 0, 0, 0}
	o := Vector{1, 2, 3, 0, 0, 0}

	assert.Equal(t, Vector{9, 18, 27, 0, 0, 0}, v.Sub(o))
}

func TestAxisByName(t *testing.T) {
	assert.Equal(t, AxisX, AxisByName("x"))
	assert.Equal(t, AxisC, AxisByName("C"))
	assert.Equal(t, Axis(-1), AxisByName("q"))
}

func TestPlane_Axes(t *testing.T) {
	a0, a1, n := PlaneXZ.Axes()
	assert.Equal(t, AxisX, a0)
	assert.Equal(t, AxisZ, a1)
	assert.Equal(t, AxisY, n)
}
