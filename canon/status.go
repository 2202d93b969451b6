// Package canon implements the canonical machining layer: it owns
// the normalized G-code model, the machine state automaton, the
// coordinate offset pipeline and the cycle sequencing, and turns
// validated blocks into planner buffers. It is a loose
// implementation of the canonical machining functions described in
// NIST RS274/NGC v3.
package canon

// Status is a coded error from the canonical layer. Every command
// returns nil or a *Status; the numeric code and short token are
// what the reporter sends to the operator.
type Status struct {
	Code  int
	Token string
	Text  string
}

func (s *Status) Error() string { return s.Text }

var (
	// ErrAgain is transient: the caller retries the same block on
	// the next dispatch iteration.
	ErrAgain = &Status{1, "eagain", "operation in progress"}

	ErrAlarmed            = &Status{2, "alarm", "machine is in alarm state"}
	ErrModalGroupConflict = &Status{10, "modal", "modal group violation"}
	ErrFeedRateNotSet     = &Status{11, "fzero", "feed rate not set"}
	ErrArcSpecification   = &Status{12, "arcspec", "arc specification error"}
	ErrAxisNotHomed       = &Status{13, "unhomed", "axis is not homed"}
	ErrInvalidCoordSystem = &Status{14, "badcoord", "invalid coordinate system"}
	ErrNotImplemented     = &Status{15, "noimpl", "command recognized but not implemented"}
	ErrNoAxisSpecified    = &Status{16, "noaxis", "no axis word in block"}
	ErrTravelExceeded     = &Status{20, "travel", "target exceeds maximum travel"}
	ErrValueClamped       = &Status{21, "clamp", "value out of range, clamped"}
	ErrPlannerFull        = &Status{30, "qfull", "planner queue is full"}
	ErrMemoryIntegrity    = &Status{40, "memfault", "memory integrity check failed"}
	ErrProbeFailed        = &Status{50, "probe", "probe did not trigger within travel"}
	ErrHomingFailed       = &Status{51, "homefail", "homing switch was never hit"}
)
