package canon_test

import (
	"testing"

	"github.com/mastercactapus/gcmc/canon"
	"github.com/mastercactapus/gcmc/coord"
	"github.com/mastercactapus/gcmc/gcode"
	"github.com/mastercactapus/gcmc/planner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSettings() canon.Settings {
	var s canon.Settings
	s.ChordalTolerance = 0.01
	s.ArcSegmentLen = 0.1
	s.FeedOverrideMin, s.FeedOverrideMax = 0.05, 2
	s.SpindleOverrideMin, s.SpindleOverrideMax = 0.05, 2
	s.Defaults = canon.Defaults{
		CoordSystem:  gcode.G54,
		Plane:        coord.PlaneXY,
		UnitsMode:    gcode.Millimeters,
		PathControl:  gcode.PathContinuous,
		DistanceMode: gcode.AbsoluteMode,
	}
	for i := range s.Axes {
		s.Axes[i] = canon.AxisConfig{
			Mode:           canon.AxisStandard,
			FeedRateMax:    10000,
			VelocityMax:    16000,
			JerkMax:        5000,
			JerkHoming:     10000,
			JunctionDev:    0.05,
			SwitchMin:      1,
			SearchVelocity: 500,
			LatchVelocity:  100,
			LatchBackoff:   5,
			ZeroBackoff:    1,
		}
	}
	return s
}

func newTestMachine(t *testing.T) (*canon.Machine, *planner.Queue) {
	t.Helper()
	q := planner.New(48)
	m := canon.New(testSettings(), q)
	m.OnMessage = func(string) {}
	return m, q
}

// run ticks the runtime and the machine until the cycle ends or the
// iteration cap trips.
func run(t *testing.T, m *canon.Machine, q *planner.Queue) {
	t.Helper()
	for i := 0; i < 1000; i++ {
		q.Tick()
		require.NoError(t, m.Tick())
		if m.MachineState() != canon.MachineCycle {
			return
		}
	}
	t.Fatal("cycle did not complete")
}

func exec(t *testing.T, m *canon.Machine, lines string) {
	t.Helper()
	for _, b := range gcode.MustParse(lines) {
		require.NoError(t, m.ExecuteBlock(b))
	}
}

func TestScenario_TraverseToPosition(t *testing.T) {
	m, q := newTestMachine(t)

	assert.Equal(t, canon.CombinedReady, m.CombinedState())

	exec(t, m, "G0 X10 Y20")
	assert.Equal(t, canon.CombinedRun, m.CombinedState())

	run(t, m, q)
	assert.Equal(t, canon.CombinedProgramStop, m.CombinedState())

	pos := q.RuntimePosition()
	assert.Equal(t, 10.0, pos[coord.AxisX])
	assert.Equal(t, 20.0, pos[coord.AxisY])
	assert.Equal(t, 0.0, pos[coord.AxisZ])
}

func TestScenario_UnitsRoundTrip(t *testing.T) {
	m, q := newTestMachine(t)

	exec(t, m, "G20 G0 X1")
	run(t, m, q)
	assert.InDelta(t, 25.4, m.AbsolutePosition(coord.AxisX), 1e-9)

	exec(t, m, "G21 G0 X1")
	run(t, m, q)
	assert.Equal(t, 1.0, m.AbsolutePosition(coord.AxisX))
}

func TestScenario_NoUnitDrift(t *testing.T) {
	m, q := newTestMachine(t)

	exec(t, m, "G21\nG0 X10\nG20")
	run(t, m, q)
	assert.Equal(t, 10.0, m.AbsolutePosition(coord.AxisX))
}

func TestScenario_WorkOffsets(t *testing.T) {
	m, q := newTestMachine(t)

	exec(t, m, "G54 G10 L2 P1 X5\nG0 X0")
	run(t, m, q)

	assert.Equal(t, 5.0, m.AbsolutePosition(coord.AxisX))
	assert.Equal(t, 0.0, m.WorkPosition(coord.AxisX))
	assert.True(t, m.OffsetsDirty())
}

func TestScenario_FeedRateNotSet(t *testing.T) {
	m, _ := newTestMachine(t)

	exec(t, m, "G0 X1")
	before := m.AbsolutePosition(coord.AxisX)

	err := m.ExecuteBlock(gcode.MustParse("G1 X100")[0])
	assert.Equal(t, canon.ErrFeedRateNotSet, err)
	assert.Equal(t, before, m.AbsolutePosition(coord.AxisX))
}

func TestScenario_OriginOffsets(t *testing.T) {
	m, q := newTestMachine(t)

	exec(t, m, "G0 X3")
	run(t, m, q)

	// current X now reads 0; the offset is 3
	exec(t, m, "G92 X0 Y0")

	exec(t, m, "G0 X10")
	run(t, m, q)
	assert.Equal(t, 13.0, m.AbsolutePosition(coord.AxisX))

	// suspend preserves but stops applying
	exec(t, m, "G92.2\nG0 X10")
	run(t, m, q)
	assert.Equal(t, 10.0, m.AbsolutePosition(coord.AxisX))

	// resume restores
	exec(t, m, "G92.3\nG0 X10")
	run(t, m, q)
	assert.Equal(t, 13.0, m.AbsolutePosition(coord.AxisX))

	// reset zeroes the offsets entirely
	exec(t, m, "G92.1\nG0 X10")
	run(t, m, q)
	assert.Equal(t, 10.0, m.AbsolutePosition(coord.AxisX))
}

func TestAbsoluteOverride_BlockScoped(t *testing.T) {
	m, q := newTestMachine(t)

	exec(t, m, "G10 L2 P1 X5\nG54")
	assert.Equal(t, 5.0, m.ActiveCoordOffset(coord.AxisX))

	exec(t, m, "G53 G0 X2")
	// during the block the offset is suppressed; the commanded
	// machine position is exactly 2
	run(t, m, q)
	assert.Equal(t, 2.0, m.AbsolutePosition(coord.AxisX))

	// the next block restores the offset
	exec(t, m, "G0 X2")
	run(t, m, q)
	assert.Equal(t, 7.0, m.AbsolutePosition(coord.AxisX))
	assert.Equal(t, 5.0, m.ActiveCoordOffset(coord.AxisX))
}

func TestModalGroupViolation_NoMutation(t *testing.T) {
	m, _ := newTestMachine(t)

	exec(t, m, "F600")
	err := m.ExecuteBlock(gcode.MustParse("G0 G1 X1")[0])
	assert.Equal(t, canon.ErrModalGroupConflict, err)
	assert.Equal(t, 0.0, m.AbsolutePosition(coord.AxisX))
}

func TestIncrementalMode(t *testing.T) {
	m, q := newTestMachine(t)

	exec(t, m, "G91\nG0 X5\nG0 X5")
	run(t, m, q)
	assert.Equal(t, 10.0, m.AbsolutePosition(coord.AxisX))

	// offsets do not apply to incremental moves
	exec(t, m, "G10 L2 P1 X100\nG0 X5")
	run(t, m, q)
	assert.Equal(t, 15.0, m.AbsolutePosition(coord.AxisX))
}

func TestInverseFeedRateMode(t *testing.T) {
	m, q := newTestMachine(t)

	// F2 in G93 means the move takes 1/2 minute
	exec(t, m, "G93 G1 X10 F2")
	run(t, m, q)
	st := q.RuntimeState()
	assert.InDelta(t, 0.5, st.MoveTime, 1e-9)
	assert.Equal(t, 10.0, m.AbsolutePosition(coord.AxisX))
}

func TestG28_StoreAndReturn(t *testing.T) {
	m, q := newTestMachine(t)

	exec(t, m, "G0 X10 Y5\nG28.1")
	run(t, m, q)

	exec(t, m, "G0 X50 Y50")
	run(t, m, q)

	// return through an intermediate point; Y is unflagged and
	// must not move in either phase
	exec(t, m, "G28 X40")
	run(t, m, q)
	assert.Equal(t, 10.0, m.AbsolutePosition(coord.AxisX))
	assert.Equal(t, 50.0, m.AbsolutePosition(coord.AxisY))
}

func TestG30_StoreAndReturn(t *testing.T) {
	m, q := newTestMachine(t)

	exec(t, m, "G0 Z7\nG30.1\nG0 Z20")
	run(t, m, q)

	exec(t, m, "G30 Z15")
	run(t, m, q)
	assert.Equal(t, 7.0, m.AbsolutePosition(coord.AxisZ))
}

func TestG28_3_SetAbsoluteOrigin(t *testing.T) {
	m, _ := newTestMachine(t)

	exec(t, m, "G28.3 X0 Y0")
	assert.Equal(t, 0.0, m.AbsolutePosition(coord.AxisX))
	assert.True(t, m.Homed(coord.AxisX))
	assert.True(t, m.Homed(coord.AxisY))
	assert.False(t, m.Homed(coord.AxisZ))
}

func TestQueueFlush_Resync(t *testing.T) {
	m, q := newTestMachine(t)

	exec(t, m, "G0 X10")
	run(t, m, q)
	exec(t, m, "G0 X20\nG0 X30")

	// nothing has executed yet; flush drops both moves
	require.NoError(t, m.QueueFlush())
	assert.True(t, q.QueueEmpty())
	assert.Equal(t, 10.0, m.AbsolutePosition(coord.AxisX))
}

func TestProgramEnd_RestoresDefaults(t *testing.T) {
	m, q := newTestMachine(t)

	exec(t, m, "G20 G91 G18 G55 F600\nG1 X1\nM30")
	run(t, m, q)

	assert.Equal(t, canon.CombinedProgramEnd, m.CombinedState())

	st := m.ActiveState()
	assert.Equal(t, gcode.Millimeters, st.UnitsMode)
	assert.Equal(t, gcode.AbsoluteMode, st.DistanceMode)
	assert.Equal(t, coord.PlaneXY, st.Plane)
	assert.Equal(t, gcode.G54, st.CoordSystem)
	assert.False(t, m.ActiveCoordOffset(coord.AxisX) != 0)
}

func TestArcFeed_Center(t *testing.T) {
	m, q := newTestMachine(t)

	// quarter circle from (0,0) to (10,10), center (0,10)
	exec(t, m, "F1000\nG3 X10 Y10 J10")
	run(t, m, q)

	assert.InDelta(t, 10.0, m.AbsolutePosition(coord.AxisX), 1e-9)
	assert.InDelta(t, 10.0, m.AbsolutePosition(coord.AxisY), 1e-9)
}

func TestArcFeed_Radius(t *testing.T) {
	m, q := newTestMachine(t)

	exec(t, m, "F1000\nG2 X20 Y0 R10")
	run(t, m, q)

	assert.InDelta(t, 20.0, m.AbsolutePosition(coord.AxisX), 1e-9)
	assert.InDelta(t, 0.0, m.AbsolutePosition(coord.AxisY), 1e-9)
}

func TestArcFeed_Errors(t *testing.T) {
	m, _ := newTestMachine(t)

	exec(t, m, "F1000")

	// both radius and center form
	err := m.ExecuteBlock(gcode.MustParse("G2 X10 R5 I2")[0])
	assert.Equal(t, canon.ErrArcSpecification, err)

	// neither
	err = m.ExecuteBlock(gcode.MustParse("G2 X10")[0])
	assert.Equal(t, canon.ErrArcSpecification, err)

	// radius shorter than half the chord
	err = m.ExecuteBlock(gcode.MustParse("G2 X100 R10")[0])
	assert.Equal(t, canon.ErrArcSpecification, err)

	// no feed rate at all
	m2, _ := newTestMachine(t)
	err = m2.ExecuteBlock(gcode.MustParse("G2 X10 R5")[0])
	assert.Equal(t, canon.ErrFeedRateNotSet, err)
}

func TestTravelLimit(t *testing.T) {
	m, _ := newTestMachine(t)
	require.NoError(t, m.Report().Set("xtm", 50))

	err := m.ExecuteBlock(gcode.MustParse("G0 X51")[0])
	assert.Equal(t, canon.ErrTravelExceeded, err)
	assert.Equal(t, 0.0, m.AbsolutePosition(coord.AxisX))
	assert.Equal(t, 0.0, m.ActiveState().Target[coord.AxisX])
}

func TestSpindleAndCoolant_Synchronized(t *testing.T) {
	m, q := newTestMachine(t)

	var cmds []string
	q.OnCommand = func(c string) { cmds = append(cmds, c) }

	exec(t, m, "S8000 M3\nM8\nT2 M6\nM9\nM5")
	run(t, m, q)

	assert.Equal(t, []string{
		"spindle-cw", "flood-on", "tool-change T2",
		"mist-off", "flood-off", "spindle-off",
	}, cmds)

	st := m.ActiveState()
	assert.Equal(t, 8000.0, st.SpindleSpeed)
	assert.Equal(t, 2, st.Tool)
	assert.Equal(t, gcode.SpindleOff, st.SpindleMode)
	assert.False(t, st.MistCoolant)
	assert.False(t, st.FloodCoolant)
}

func TestOverrides_Clamped(t *testing.T) {
	m, _ := newTestMachine(t)

	// out-of-range factors clamp without failing the block
	exec(t, m, "M50.1 P5")
	v, err := m.Report().Get("stat")
	require.NoError(t, err)
	_ = v

	err = m.FeedOverrideFactor(10)
	assert.Equal(t, canon.ErrValueClamped, err)
}

func TestDwell(t *testing.T) {
	m, q := newTestMachine(t)

	exec(t, m, "G4 P1.5")
	run(t, m, q)
	assert.Equal(t, canon.CombinedProgramStop, m.CombinedState())
}

func TestAlarm_RejectsMotion(t *testing.T) {
	m, _ := newTestMachine(t)

	m.Alarm(canon.ErrMemoryIntegrity)
	assert.Equal(t, canon.CombinedAlarm, m.CombinedState())

	err := m.ExecuteBlock(gcode.MustParse("G0 X1")[0])
	assert.Equal(t, canon.ErrAlarmed, err)
	assert.False(t, m.Homed(coord.AxisX))

	m.ClearAlarm()
	assert.Equal(t, canon.CombinedReady, m.CombinedState())
	assert.NoError(t, m.ExecuteBlock(gcode.MustParse("G0 X1")[0]))
}
