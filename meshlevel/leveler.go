package meshlevel

import (
	"math"

	"github.com/mastercactapus/gcmc/coord"
	"github.com/mastercactapus/gcmc/gcode"
)

// tracker follows program-frame position through a block stream.
// It assumes offsets stay fixed for the duration of the program,
// which holds for generated toolpaths.
type tracker struct {
	pos      coord.Point
	inches   bool
	relative bool
}

func (tr *tracker) run(b gcode.Block) {
	for _, g := range b {
		if g.W != 'G' {
			continue
		}
		switch g.Arg {
		case 20:
			tr.inches = true
		case 21:
			tr.inches = false
		case 90:
			tr.relative = false
		case 91:
			tr.relative = true
		}
	}

	mul := 1.0
	if tr.inches {
		mul = 25.4
	}
	apply := func(cur float64, w byte) float64 {
		ok, v := b.Arg(w)
		if !ok {
			return cur
		}
		if tr.relative {
			return cur + v*mul
		}
		return v * mul
	}
	tr.pos.X = apply(tr.pos.X, 'X')
	tr.pos.Y = apply(tr.pos.Y, 'Y')
	tr.pos.Z = apply(tr.pos.Z, 'Z')
}

// Leveler is a block filter that applies a surface height map to a
// program: long XY moves are split to the configured granularity
// and each piece's Z is shifted by the mesh offset change across
// it.
type Leveler struct {
	granularity float64
	offsetter   ZOffsetter

	buf  []gcode.Block
	bufN int

	splitPos tracker
	levelPos tracker

	gr gcode.Reader
}

// Config configures a Leveler.
type Config struct {
	ZOffsetter  ZOffsetter
	Granularity float64

	// Start is the program-frame position when the stream begins.
	Start coord.Point

	Reader gcode.Reader
}

func New(cfg Config) *Leveler {
	l := &Leveler{
		granularity: cfg.Granularity,
		gr:          cfg.Reader,
		offsetter:   cfg.ZOffsetter,
	}
	if l.offsetter == nil {
		l.offsetter = dummyOffsetter{}
	}
	l.splitPos.pos = cfg.Start
	l.levelPos.pos = cfg.Start
	return l
}

// Read returns the next (possibly split and Z-adjusted) block.
func (l *Leveler) Read() (gcode.Block, error) {
	b, err := l.next()
	if err != nil {
		return nil, err
	}

	oldPos := l.levelPos.pos
	l.levelPos.run(b)
	newPos := l.levelPos.pos
	if oldPos.Equal(newPos) {
		return b, nil
	}

	// without an offset at both ends the block passes through
	// unchanged
	ok, oldOffset := l.offsetter.OffsetZ(oldPos.X, oldPos.Y)
	if !ok {
		return b, nil
	}
	ok, newOffset := l.offsetter.OffsetZ(newPos.X, newPos.Y)
	if !ok {
		return b, nil
	}
	if oldOffset == newOffset {
		return b, nil
	}

	b = b.Clone()
	ok, oldZ := b.Arg('Z')
	if !l.levelPos.relative && !ok {
		oldZ = oldPos.Z
	}

	if !ok {
		b = append(b, gcode.Word{W: 'Z', Arg: oldZ + (newOffset - oldOffset)})
	} else {
		b.SetArg('Z', oldZ+(newOffset-oldOffset))
	}

	return b, nil
}

func (l *Leveler) next() (gcode.Block, error) {
	if len(l.buf)-l.bufN > 0 {
		l.bufN++
		return l.buf[l.bufN-1], nil
	}
	b, err := l.gr.Read()
	if err != nil {
		return nil, err
	}

	oldPos := l.splitPos.pos
	l.splitPos.run(b)
	newPos := l.splitPos.pos
	if oldPos.Equal(newPos) {
		return b, nil
	}
	dist := oldPos.DistanceXY(newPos.X, newPos.Y)
	if dist <= l.granularity {
		return b, nil
	}

	n := int(math.Ceil(dist / l.granularity))
	step := coord.Point{
		X: (newPos.X - oldPos.X) / float64(n),
		Y: (newPos.Y - oldPos.Y) / float64(n),
		Z: (newPos.Z - oldPos.Z) / float64(n),
	}

	l.buf = l.buf[:0]
	if l.splitPos.relative {
		bl := b.Clone()
		bl.SetArg('X', step.X)
		bl.SetArg('Y', step.Y)
		bl.SetArg('Z', step.Z)

		for i := 1; i <= n; i++ {
			l.buf = append(l.buf, bl)
		}
	} else {
		for i := 1; i <= n; i++ {
			bl := b.Clone()
			bl.SetArg('X', oldPos.X+step.X*float64(i))
			bl.SetArg('Y', oldPos.Y+step.Y*float64(i))
			bl.SetArg('Z', oldPos.Z+step.Z*float64(i))

			l.buf = append(l.buf, bl)
		}
	}

	l.bufN = 1
	return l.buf[0], nil
}
