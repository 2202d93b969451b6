package gcode

import (
	"strings"
	"testing"

	"github.com/mastercactapus/gcmc/coord"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Motion(t *testing.T) {
	in, fl, err := Decode(MustParse("G1 X10 Y-2.5 F600")[0])
	require.NoError(t, err)

	assert.True(t, fl.MotionMode)
	assert.Equal(t, MotionModeFeed, in.MotionMode)
	assert.True(t, fl.Target[coord.AxisX])
	assert.True(t, fl.Target[coord.AxisY])
	assert.False(t, fl.Target[coord.AxisZ])
	assert.Equal(t, 10.0, in.Target[coord.AxisX])
	assert.Equal(t, -2.5, in.Target[coord.AxisY])
	assert.True(t, fl.FeedRate)
	assert.Equal(t, 600.0, in.FeedRate)
}

func TestDecode_ModalGroupViolation(t *testing.T) {
	_, _, err := Decode(MustParse("G0 G1 X1")[0])
	assert.ErrorIs(t, err, ErrModalGroupViolation)

	_, _, err = Decode(MustParse("G90 G91")[0])
	assert.ErrorIs(t, err, ErrModalGroupViolation)
}

func TestDecode_NonModalWithMotion(t *testing.T) {
	// group 0 may co-exist with group 1
	in, fl, err := Decode(MustParse("G53 G0 X5")[0])
	require.NoError(t, err)
	assert.True(t, fl.AbsoluteOverride)
	assert.True(t, in.AbsoluteOverride)
	assert.Equal(t, MotionModeTraverse, in.MotionMode)
}

func TestDecode_CoolantPair(t *testing.T) {
	in, fl, err := Decode(MustParse("M7 M8")[0])
	require.NoError(t, err)
	assert.True(t, fl.MistCoolant)
	assert.True(t, fl.FloodCoolant)
	assert.True(t, in.MistCoolant)
	assert.True(t, in.FloodCoolant)

	in, _, err = Decode(MustParse("M9")[0])
	require.NoError(t, err)
	assert.False(t, in.MistCoolant)
	assert.False(t, in.FloodCoolant)
}

func TestDecode_G10(t *testing.T) {
	in, fl, err := Decode(MustParse("G10 L2 P1 X5")[0])
	require.NoError(t, err)
	assert.True(t, fl.NextAction)
	assert.Equal(t, NextActionSetCoordData, in.NextAction)
	assert.Equal(t, 2, in.LWord)
	assert.Equal(t, 1.0, in.Parameter)
	assert.Equal(t, 5.0, in.Target[coord.AxisX])
}

func TestDecode_G92Variants(t *testing.T) {
	cases := []struct {
		line string
		na   NextAction
	}{
		{"G92 X0", NextActionSetOriginOffsets},
		{"G92.1", NextActionResetOriginOffsets},
		{"G92.2", NextActionSuspendOriginOffsets},
		{"G92.3", NextActionResumeOriginOffsets},
	}
	for _, c := range cases {
		in, fl, err := Decode(MustParse(c.line)[0])
		require.NoError(t, err, c.line)
		assert.True(t, fl.NextAction, c.line)
		assert.Equal(t, c.na, in.NextAction, c.line)
	}
}

func TestDecode_OverrideFactor(t *testing.T) {
	in, fl, err := Decode(MustParse("M50.1 P0.8")[0])
	require.NoError(t, err)
	assert.True(t, fl.FeedOverrideFactor)
	assert.Equal(t, 0.8, in.FeedOverrideFactor)
}

func TestDecode_Unsupported(t *testing.T) {
	_, _, err := Decode(MustParse("G41 X1")[0])
	assert.Error(t, err)

	_, _, err = Decode(MustParse("M60")[0])
	assert.Error(t, err)
}

func TestDecode_LineNumber(t *testing.T) {
	in, fl, err := Decode(MustParse("N42 G0 X1")[0])
	require.NoError(t, err)
	assert.True(t, fl.LineNum)
	assert.Equal(t, uint32(42), in.LineNum)
}

func TestParser_Comments(t *testing.T) {
	var msg string
	p := NewParser(strings.NewReader("G0 X1 (MSG, tool up) ; trailing\n"))
	p.OnMessage = func(s string) { msg = s }

	b, err := p.Read()
	require.NoError(t, err)
	assert.Equal(t, "G0X1", b.String())
	assert.Equal(t, "tool up", msg)
}

func TestParser_BlockDelete(t *testing.T) {
	p := NewParser(strings.NewReader("/G0 X1\nG0 X2\n"))
	p.BlockDelete = true

	b, err := p.Read()
	require.NoError(t, err)
	assert.Equal(t, "G0X2", b.String())

	p = NewParser(strings.NewReader("/G0 X1\n"))
	b, err = p.Read()
	require.NoError(t, err)
	assert.Equal(t, "G0X1", b.String())
}
