package planner

import (
	"testing"

	"github.com/mastercactapus/gcmc/canon"
	"github.com/mastercactapus/gcmc/coord"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_SnapshotIndependence(t *testing.T) {
	q := New(4)

	st := canon.GCodeState{FeedRate: 100}
	st.Target[coord.AxisX] = 10

	bf, err := q.Reserve()
	require.NoError(t, err)
	bf.Kind = canon.MoveFeed
	bf.State = st
	q.Commit(bf)

	// mutating the source after enqueue must not reach the buffer
	st.Target[coord.AxisX] = 99
	st.FeedRate = 1

	q.Tick()
	assert.Equal(t, 10.0, q.RuntimePosition()[coord.AxisX])
	assert.Equal(t, 100.0, q.RuntimeState().FeedRate)
}

func TestQueue_Full(t *testing.T) {
	q := New(2)
	for i := 0; i < 2; i++ {
		bf, err := q.Reserve()
		require.NoError(t, err)
		q.Commit(bf)
	}
	_, err := q.Reserve()
	assert.Equal(t, canon.ErrPlannerFull, err)

	q.Tick()
	_, err = q.Reserve()
	assert.NoError(t, err)
}

func TestQueue_Flush(t *testing.T) {
	q := New(4)
	for i := 0; i < 3; i++ {
		bf, _ := q.Reserve()
		bf.Kind = canon.MoveTraverse
		bf.State.Target[coord.AxisX] = float64(i + 1)
		q.Commit(bf)
	}
	q.Tick()
	q.Flush()

	assert.True(t, q.QueueEmpty())
	assert.Equal(t, 1.0, q.RuntimePosition()[coord.AxisX])
}

func TestQueue_HoldResume(t *testing.T) {
	q := New(4)
	bf, _ := q.Reserve()
	bf.Kind = canon.MoveTraverse
	bf.State.Target[coord.AxisX] = 5
	q.Commit(bf)

	q.Hold()
	q.Tick()
	assert.False(t, q.QueueEmpty())

	q.Resume()
	q.Tick()
	assert.True(t, q.QueueEmpty())
	assert.Equal(t, 5.0, q.RuntimePosition()[coord.AxisX])
}

func TestQueue_Trigger(t *testing.T) {
	q := New(4)
	q.Trigger = func(kind canon.MoveKind, from, to coord.Vector) (coord.Vector, bool) {
		at := to
		at[coord.AxisZ] = -2.5
		return at, true
	}

	bf, _ := q.Reserve()
	bf.Kind = canon.MoveProbe
	bf.State.Target[coord.AxisZ] = -10
	q.Commit(bf)
	q.Tick()

	p := q.Probes()
	require.Len(t, p, 1)
	assert.True(t, p[0].Triggered)
	assert.Equal(t, -2.5, p[0].Position[coord.AxisZ])
	assert.Equal(t, -2.5, q.RuntimePosition()[coord.AxisZ])
}

func TestQueue_Command(t *testing.T) {
	q := New(4)
	var got string
	q.OnCommand = func(c string) { got = c }

	bf, _ := q.Reserve()
	bf.Kind = canon.MoveCommand
	bf.Command = "spindle-cw"
	q.Commit(bf)
	q.Tick()

	assert.Equal(t, "spindle-cw", got)
}
