package meshlevel

import (
	"github.com/mastercactapus/gcmc/coord"
)

// ZOffsetter answers surface height queries. Mesh implements it;
// tests may substitute simpler shapes.
type ZOffsetter interface {
	OffsetZ(x, y float64) (bool, float64)
}

type dummyOffsetter struct{}

func (dummyOffsetter) OffsetZ(x, y float64) (bool, float64) {
	return false, 0
}

// OffsetFrom rebases a probed point set so that z becomes the zero
// plane.
func OffsetFrom(z float64, points []coord.Point) []coord.Point {
	p := make([]coord.Point, len(points))
	copy(p, points)

	for i := range p {
		p[i].Z -= z
	}
	return p
}
