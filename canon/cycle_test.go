package canon_test

import (
	"testing"

	"github.com/mastercactapus/gcmc/canon"
	"github.com/mastercactapus/gcmc/coord"
	"github.com/mastercactapus/gcmc/gcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedhold_HoldAndResume(t *testing.T) {
	m, q := newTestMachine(t)

	exec(t, m, "G1 F600 X50\nG1 X100")
	assert.Equal(t, canon.CombinedRun, m.CombinedState())

	m.RequestFeedhold()

	// the hold sub-machine walks sync, plan, decel over dispatch
	// iterations and parks in hold
	for i := 0; i < 5; i++ {
		require.NoError(t, m.Tick())
	}
	assert.Equal(t, canon.CombinedHold, m.CombinedState())
	assert.Equal(t, canon.HoldHold, m.HoldState())

	// runtime makes no progress while holding
	q.Tick()
	assert.Equal(t, 0.0, q.RuntimePosition()[coord.AxisX])

	// cycle start ends the hold and motion resumes
	m.RequestCycleStart()
	require.NoError(t, m.Tick())
	assert.Equal(t, canon.CombinedRun, m.CombinedState())

	run(t, m, q)
	assert.Equal(t, 100.0, q.RuntimePosition()[coord.AxisX])
	assert.Equal(t, canon.CombinedProgramStop, m.CombinedState())
}

func TestFeedhold_IgnoredWhenStopped(t *testing.T) {
	m, _ := newTestMachine(t)

	m.RequestFeedhold()
	require.NoError(t, m.Tick())
	assert.Equal(t, canon.CombinedReady, m.CombinedState())
	assert.Equal(t, canon.HoldOff, m.HoldState())
}

func TestQueueFlush_DuringHold(t *testing.T) {
	m, q := newTestMachine(t)

	exec(t, m, "G0 X10")
	run(t, m, q)
	exec(t, m, "G1 F600 X50\nG1 X100")

	m.RequestFeedhold()
	for i := 0; i < 5; i++ {
		require.NoError(t, m.Tick())
	}
	require.Equal(t, canon.HoldHold, m.HoldState())

	m.RequestQueueFlush()
	require.NoError(t, m.Tick())

	assert.True(t, q.QueueEmpty())
	assert.Equal(t, 10.0, m.AbsolutePosition(coord.AxisX))
	st := m.ActiveState()
	assert.Equal(t, m.AbsolutePosition(coord.AxisX), st.Target[coord.AxisX])
}

func switchAt(pos float64, axis coord.Axis) func(canon.MoveKind, coord.Vector, coord.Vector) (coord.Vector, bool) {
	return func(kind canon.MoveKind, from, to coord.Vector) (coord.Vector, bool) {
		if to[axis] <= pos && from[axis] > pos {
			at := to
			at[axis] = pos
			return at, true
		}
		return coord.Vector{}, false
	}
}

func TestHomingCycle(t *testing.T) {
	m, q := newTestMachine(t)
	require.NoError(t, m.Report().Set("xtm", 200))

	q.Trigger = switchAt(-150, coord.AxisX)
	q.SetPosition(coord.Vector{})
	// start clear of the switch
	exec(t, m, "G0 X10")
	run(t, m, q)

	require.NoError(t, m.ExecuteBlock(gcode.MustParse("G28.2 X0")[0]))
	assert.Equal(t, canon.CombinedHoming, m.CombinedState())

	for i := 0; i < 200 && m.HomingState() != canon.Homed; i++ {
		q.Tick()
		require.NoError(t, m.Tick())
	}

	assert.Equal(t, canon.Homed, m.HomingState())
	assert.True(t, m.Homed(coord.AxisX))
	// the zero backoff point defines machine zero
	assert.Equal(t, 0.0, m.AbsolutePosition(coord.AxisX))

	run(t, m, q)
	assert.Equal(t, canon.CombinedProgramStop, m.CombinedState())
}

func TestHomingCycle_SwitchNeverHit(t *testing.T) {
	m, q := newTestMachine(t)
	require.NoError(t, m.Report().Set("xtm", 200))
	// no trigger func: the switch never trips

	require.NoError(t, m.ExecuteBlock(gcode.MustParse("G28.2 X0")[0]))

	var last error
	for i := 0; i < 50; i++ {
		q.Tick()
		last = m.Tick()
		if last != nil {
			break
		}
		if m.CombinedState() == canon.CombinedAlarm {
			break
		}
	}

	assert.Equal(t, canon.CombinedAlarm, m.CombinedState())
	assert.False(t, m.Homed(coord.AxisX))
}

func TestHomingCycle_RequiresAxis(t *testing.T) {
	m, _ := newTestMachine(t)
	err := m.ExecuteBlock(gcode.MustParse("G28.2")[0])
	assert.Equal(t, canon.ErrNoAxisSpecified, err)
}

func TestProbeCycle(t *testing.T) {
	m, q := newTestMachine(t)

	q.Trigger = switchAt(-2.5, coord.AxisZ)
	exec(t, m, "G0 Z5")
	run(t, m, q)

	require.NoError(t, m.ExecuteBlock(gcode.MustParse("G38.2 Z-10 F100")[0]))
	assert.Equal(t, canon.CombinedProbe, m.CombinedState())

	for i := 0; i < 50 && m.CycleState() == canon.CycleProbe; i++ {
		q.Tick()
		require.NoError(t, m.Tick())
	}

	assert.True(t, m.LastProbe.Triggered)
	assert.Equal(t, -2.5, m.LastProbe.Position[coord.AxisZ])
	assert.Equal(t, -2.5, m.AbsolutePosition(coord.AxisZ))
}

func TestProbeCycle_NoContact(t *testing.T) {
	m, q := newTestMachine(t)

	exec(t, m, "G0 Z5")
	run(t, m, q)

	require.NoError(t, m.ExecuteBlock(gcode.MustParse("G38.2 Z-10 F100")[0]))

	var last error
	for i := 0; i < 50; i++ {
		q.Tick()
		last = m.Tick()
		if last != nil {
			break
		}
	}
	assert.Equal(t, canon.ErrProbeFailed, last)
	assert.False(t, m.LastProbe.Triggered)
	// the probe ran its full travel
	assert.Equal(t, -10.0, m.AbsolutePosition(coord.AxisZ))
}

func TestProbeCycle_RequiresFeedRate(t *testing.T) {
	m, _ := newTestMachine(t)
	err := m.ExecuteBlock(gcode.MustParse("G38.2 Z-10")[0])
	assert.Equal(t, canon.ErrFeedRateNotSet, err)
}

func TestJogCycle(t *testing.T) {
	m, q := newTestMachine(t)

	var target coord.Vector
	var fl coord.Flags
	target[coord.AxisX] = 15
	fl[coord.AxisX] = true

	require.NoError(t, m.Jog(target, fl))
	assert.Equal(t, canon.CombinedJog, m.CombinedState())

	run(t, m, q)
	assert.Equal(t, 15.0, m.AbsolutePosition(coord.AxisX))
	assert.Equal(t, canon.CombinedProgramStop, m.CombinedState())
}
