package canon_test

import (
	"testing"

	"github.com/mastercactapus/gcmc/canon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, r *canon.Report, tok string) interface{} {
	t.Helper()
	v, err := r.Get(tok)
	require.NoError(t, err, tok)
	return v
}

func TestReport_ModelTokens(t *testing.T) {
	m, q := newTestMachine(t)
	r := m.Report()

	exec(t, m, "G10 L2 P1 X5\nG0 X0")
	run(t, m, q)

	assert.Equal(t, int(canon.CombinedProgramStop), get(t, r, "stat"))
	assert.Equal(t, 0.0, get(t, r, "posx"))
	assert.Equal(t, 5.0, get(t, r, "mpox"))
	assert.Equal(t, 5.0, get(t, r, "ofsx"))
	assert.Equal(t, 1, get(t, r, "coor"))
	assert.Equal(t, 1, get(t, r, "unit")) // mm
	assert.Equal(t, 0, get(t, r, "dist")) // absolute
	assert.Equal(t, 5.0, get(t, r, "g54x"))
}

func TestReport_DisplayUnits(t *testing.T) {
	m, q := newTestMachine(t)
	r := m.Report()

	exec(t, m, "G0 X25.4\nG20")
	run(t, m, q)

	// pos converts to display units, mpo always reports mm
	assert.InDelta(t, 1.0, get(t, r, "posx").(float64), 1e-9)
	assert.Equal(t, 25.4, get(t, r, "mpox"))
	assert.Equal(t, 0, get(t, r, "unit"))
}

func TestReport_AxisConfig(t *testing.T) {
	m, _ := newTestMachine(t)
	r := m.Report()

	require.NoError(t, r.Set("yvm", 12000))
	assert.Equal(t, 12000.0, get(t, r, "yvm"))

	require.NoError(t, r.Set("zsv", 400))
	assert.Equal(t, 400.0, get(t, r, "zsv"))

	require.NoError(t, r.Set("g55y", 7.5))
	assert.Equal(t, 7.5, get(t, r, "g55y"))
	assert.True(t, m.OffsetsDirty())

	_, err := r.Get("bogus")
	assert.Error(t, err)
	assert.Error(t, r.Set("stat", 1))
}

func TestReport_Status(t *testing.T) {
	m, _ := newTestMachine(t)

	sr := m.Report().Status()
	assert.Contains(t, sr, "stat")
	assert.Contains(t, sr, "posx")
	assert.Contains(t, sr, "vel")
	assert.Contains(t, sr, "momo")
}
