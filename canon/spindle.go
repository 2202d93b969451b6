package canon

import (
	"fmt"
	"log"

	"github.com/mastercactapus/gcmc/gcode"
)

// Non-motion commands that must stay ordered with motion are
// enqueued as synchronized command buffers; the runtime executes
// them when the preceding moves complete.

func (m *Machine) enqueueCommand(command string) error {
	if m.alarmed() {
		return ErrAlarmed
	}
	m.enterCycle(CycleMachining)
	return m.enqueue(MoveCommand, func(bf *Buffer) {
		bf.Command = command
	})
}

// SetSpindleMode implements M3/M4/M5.
func (m *Machine) SetSpindleMode(mode gcode.SpindleMode) error {
	m.gm.SpindleMode = mode
	switch mode {
	case gcode.SpindleCW:
		return m.enqueueCommand("spindle-cw")
	case gcode.SpindleCCW:
		return m.enqueueCommand("spindle-ccw")
	}
	return m.enqueueCommand("spindle-off")
}

// SetSpindleSpeed implements the S word. The speed is stored as
// given; the spindle override factor is not applied to it.
func (m *Machine) SetSpindleSpeed(rpm float64) error {
	if rpm < 0 {
		return ErrValueClamped
	}
	m.gm.SpindleSpeed = rpm
	return nil
}

// SelectTool implements the T word.
func (m *Machine) SelectTool(tool int) error {
	if tool < 0 {
		return ErrValueClamped
	}
	m.gm.ToolSelect = tool
	return nil
}

// ChangeTool implements M6: the selected tool becomes current via a
// synchronized command.
func (m *Machine) ChangeTool() error {
	m.gm.Tool = m.gm.ToolSelect
	return m.enqueueCommand(fmt.Sprintf("tool-change T%d", m.gm.Tool))
}

// MistCoolantControl implements M7 (and the off half of M9).
func (m *Machine) MistCoolantControl(on bool) error {
	m.gm.MistCoolant = on
	if on {
		return m.enqueueCommand("mist-on")
	}
	return m.enqueueCommand("mist-off")
}

// FloodCoolantControl implements M8 (and the off half of M9).
func (m *Machine) FloodCoolantControl(on bool) error {
	m.gm.FloodCoolant = on
	if on {
		return m.enqueueCommand("flood-on")
	}
	return m.enqueueCommand("flood-off")
}

func clampFactor(v, min, max float64) (float64, bool) {
	if min > 0 && v < min {
		log.Printf("override factor %.3f clamped to %.3f", v, min)
		return min, true
	}
	if max > 0 && v > max {
		log.Printf("override factor %.3f clamped to %.3f", v, max)
		return max, true
	}
	return v, false
}

// FeedOverrideEnable implements M50 (and half of M48/M49).
func (m *Machine) FeedOverrideEnable(on bool) error {
	m.gmx.FeedOverrideEnable = on
	return nil
}

// FeedOverrideFactor implements M50.1.
func (m *Machine) FeedOverrideFactor(factor float64) error {
	v, clamped := clampFactor(factor, m.cfg.FeedOverrideMin, m.cfg.FeedOverrideMax)
	m.gmx.FeedOverrideFactor = v
	if clamped {
		return ErrValueClamped
	}
	return nil
}

// TraverseOverrideEnable implements M50.2.
func (m *Machine) TraverseOverrideEnable(on bool) error {
	m.gmx.TraverseOverrideEnable = on
	return nil
}

// TraverseOverrideFactor implements M50.3. Traverse can only be
// slowed, never sped past the rapid rate.
func (m *Machine) TraverseOverrideFactor(factor float64) error {
	v, clamped := clampFactor(factor, m.cfg.FeedOverrideMin, 1)
	m.gmx.TraverseOverrideFactor = v
	if clamped {
		return ErrValueClamped
	}
	return nil
}

// SpindleOverrideEnable implements M51 (and half of M48/M49).
func (m *Machine) SpindleOverrideEnable(on bool) error {
	m.gmx.SpindleOverrideEnable = on
	return nil
}

// SpindleOverrideFactor implements M51.1.
func (m *Machine) SpindleOverrideFactor(factor float64) error {
	v, clamped := clampFactor(factor, m.cfg.SpindleOverrideMin, m.cfg.SpindleOverrideMax)
	m.gmx.SpindleOverrideFactor = v
	if clamped {
		return ErrValueClamped
	}
	return nil
}
