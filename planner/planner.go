// Package planner is the in-process motion queue behind the
// canonical machine: buffers are reserved, filled with a value
// snapshot of the G-code model, committed in arrival order and
// executed by a cooperative runtime driven from the dispatch loop.
package planner

import (
	"math"
	"sync"

	"github.com/mastercactapus/gcmc/canon"
	"github.com/mastercactapus/gcmc/coord"
)

// TriggerFunc simulates or samples a contact input (probe or homing
// switch) for a move from one position toward another. It returns
// the position at which the input triggered and whether it did
// before the target was reached.
type TriggerFunc func(kind canon.MoveKind, from, to coord.Vector) (coord.Vector, bool)

// Queue implements canon.Planner. The mutex guards against the
// HTTP readers; the canonical machine itself only calls in from the
// dispatch goroutine.
type Queue struct {
	mx sync.Mutex

	size    int
	pending []*canon.Buffer

	pos     coord.Vector
	vel     float64
	state   canon.GCodeState
	holding bool

	probes []canon.ProbeResult

	// Trigger supplies probe and homing switch behavior. Nil means
	// no contact input: probe and homing moves run to target and
	// report no trigger.
	Trigger TriggerFunc

	// OnCommand receives synchronized non-motion commands as the
	// runtime retires them (tool, coolant, spindle).
	OnCommand func(string)
}

var _ canon.Planner = (*Queue)(nil)

// New builds a queue with the given buffer pool size.
func New(size int) *Queue {
	if size <= 0 {
		size = 28
	}
	return &Queue{size: size}
}

// Reserve hands out an unpublished buffer slot, or ErrPlannerFull.
func (q *Queue) Reserve() (*canon.Buffer, error) {
	q.mx.Lock()
	defer q.mx.Unlock()
	if len(q.pending) >= q.size {
		return nil, canon.ErrPlannerFull
	}
	return &canon.Buffer{}, nil
}

// Commit publishes a reserved buffer at the tail of the queue.
func (q *Queue) Commit(bf *canon.Buffer) {
	q.mx.Lock()
	defer q.mx.Unlock()
	q.pending = append(q.pending, bf)
}

func (q *Queue) QueueEmpty() bool {
	q.mx.Lock()
	defer q.mx.Unlock()
	return len(q.pending) == 0
}

// RuntimeBusy reports a move mid-execution. The cooperative
// runtime retires whole buffers per tick, so between ticks nothing
// is mid-flight.
func (q *Queue) RuntimeBusy() bool { return false }

// Flush drops every not-yet-started buffer.
func (q *Queue) Flush() {
	q.mx.Lock()
	defer q.mx.Unlock()
	q.pending = q.pending[:0]
	q.vel = 0
}

// Hold pauses the runtime at the current buffer boundary; queued
// buffers are kept.
func (q *Queue) Hold() {
	q.mx.Lock()
	defer q.mx.Unlock()
	q.holding = true
	q.vel = 0
}

// Resume releases a hold.
func (q *Queue) Resume() {
	q.mx.Lock()
	defer q.mx.Unlock()
	q.holding = false
}

func (q *Queue) RuntimePosition() coord.Vector {
	q.mx.Lock()
	defer q.mx.Unlock()
	return q.pos
}

func (q *Queue) RuntimeVelocity() float64 {
	q.mx.Lock()
	defer q.mx.Unlock()
	return q.vel
}

// RuntimeState is the snapshot captured at enqueue time of the most
// recently executed buffer.
func (q *Queue) RuntimeState() canon.GCodeState {
	q.mx.Lock()
	defer q.mx.Unlock()
	return q.state
}

func (q *Queue) Probes() []canon.ProbeResult {
	q.mx.Lock()
	defer q.mx.Unlock()
	out := make([]canon.ProbeResult, len(q.probes))
	copy(out, q.probes)
	return out
}

func (q *Queue) ResetProbes() {
	q.mx.Lock()
	defer q.mx.Unlock()
	q.probes = q.probes[:0]
}

// SetPosition seeds the runtime position. The origin-setting
// commands in canon do not call it; they change only the model
// position.
func (q *Queue) SetPosition(p coord.Vector) {
	q.mx.Lock()
	defer q.mx.Unlock()
	q.pos = p
}

// Tick retires one buffer. The dispatch loop calls it every
// iteration; holding or empty queues make it a no-op.
func (q *Queue) Tick() {
	q.mx.Lock()
	defer q.mx.Unlock()
	if q.holding || len(q.pending) == 0 {
		return
	}

	bf := q.pending[0]
	q.pending = q.pending[1:]
	q.state = bf.State

	switch bf.Kind {
	case canon.MoveTraverse, canon.MoveFeed:
		q.vel = moveVelocity(q.pos, bf.State.Target, bf.State.MoveTime)
		q.pos = bf.State.Target

	case canon.MoveProbe, canon.MoveHome:
		target := bf.State.Target
		if q.Trigger != nil {
			if at, hit := q.Trigger(bf.Kind, q.pos, target); hit {
				q.probes = append(q.probes, canon.ProbeResult{Position: at, Triggered: true})
				q.pos = at
				break
			}
		}
		q.probes = append(q.probes, canon.ProbeResult{Position: target, Triggered: false})
		q.pos = target

	case canon.MoveDwell:
		q.vel = 0

	case canon.MoveCommand:
		if q.OnCommand != nil {
			q.OnCommand(bf.Command)
		}
	}

	if len(q.pending) == 0 {
		q.vel = 0
	}
}

// Drain ticks until the queue is empty or a hold stops progress.
func (q *Queue) Drain() {
	for !q.QueueEmpty() {
		if func() bool { q.mx.Lock(); defer q.mx.Unlock(); return q.holding }() {
			return
		}
		q.Tick()
	}
}

func moveVelocity(from, to coord.Vector, minutes float64) float64 {
	if minutes <= 0 {
		return 0
	}
	var d2 float64
	for i := range from {
		d := to[i] - from[i]
		d2 += d * d
	}
	return math.Sqrt(d2) / minutes
}
