package main

import (
	"bufio"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/mastercactapus/gcmc/canon"
	"github.com/mastercactapus/gcmc/config"
	"github.com/mastercactapus/gcmc/gcode"
	"github.com/mastercactapus/gcmc/planner"
)

// Controller owns the dispatch loop. Every mutation of the
// canonical machine happens on that loop; the HTTP and transport
// goroutines talk to it through the block channel, the request
// latches and exec closures.
type Controller struct {
	m   *canon.Machine
	q   *planner.Queue
	cfg *config.Config

	cfgPath string

	blocks chan gcode.Block
	funcs  chan func()

	mx     sync.RWMutex
	status map[string]interface{}
	idle   bool

	// Notify receives a status map whenever a reported field
	// changes.
	Notify func(map[string]interface{})
}

func newController(m *canon.Machine, q *planner.Queue, cfg *config.Config, cfgPath string) *Controller {
	c := &Controller{
		m:       m,
		q:       q,
		cfg:     cfg,
		cfgPath: cfgPath,
		blocks:  make(chan gcode.Block, 64),
		funcs:   make(chan func(), 16),
	}
	m.OnMessage = func(text string) { log.Println("MSG:", text) }
	return c
}

// Run is the dispatch loop: blocks execute strictly in arrival
// order, the runtime and the cycle callbacks advance every tick,
// and offsets persist while idle.
func (c *Controller) Run() {
	tick := time.NewTicker(time.Millisecond)
	defer tick.Stop()

	var pending gcode.Block

	for {
		if pending == nil {
			select {
			case b := <-c.blocks:
				pending = b
			case fn := <-c.funcs:
				fn()
			case <-tick.C:
			}
		} else {
			select {
			case fn := <-c.funcs:
				fn()
			case <-tick.C:
			}
		}

		if pending != nil {
			err := c.m.ExecuteBlock(pending)
			switch err {
			case nil:
				pending = nil
			case canon.ErrAgain:
				// planner full: same block retries next tick
			default:
				log.Printf("ERROR: %s: %+v", pending.String(), err)
				pending = nil
			}
		}

		c.q.Tick()
		if err := c.m.Tick(); err != nil && err != canon.ErrAgain {
			log.Printf("ERROR: tick: %+v", err)
		}

		c.persistOffsets()
		c.publish()
	}
}

func (c *Controller) persistOffsets() {
	if !c.m.OffsetsDirty() || !c.m.Idle() {
		return
	}
	c.cfg.SetOffsets(c.m.Offsets())
	if err := config.Save(c.cfgPath, c.cfg); err != nil {
		log.Printf("ERROR: persist offsets: %+v", err)
		return
	}
	c.m.ClearOffsetsDirty()
}

func (c *Controller) publish() {
	sr := c.m.Report().Status()

	c.mx.Lock()
	changed := len(sr) != len(c.status)
	if !changed {
		for k, v := range sr {
			if c.status[k] != v {
				changed = true
				break
			}
		}
	}
	c.status = sr
	c.idle = c.m.Idle()
	c.mx.Unlock()

	if changed && c.Notify != nil {
		c.Notify(sr)
	}
}

// Status returns the last published status map.
func (c *Controller) Status() map[string]interface{} {
	c.mx.RLock()
	defer c.mx.RUnlock()
	out := make(map[string]interface{}, len(c.status))
	for k, v := range c.status {
		out[k] = v
	}
	return out
}

// Idle reports the machine idle state as of the last loop
// iteration.
func (c *Controller) Idle() bool {
	c.mx.RLock()
	defer c.mx.RUnlock()
	return c.idle
}

// WaitIdle blocks until the dispatch loop reports idle with no
// queued blocks, or the timeout passes.
func (c *Controller) WaitIdle(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if c.Idle() && len(c.blocks) == 0 {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

// exec runs fn on the dispatch loop and waits for it.
func (c *Controller) exec(fn func() error) error {
	done := make(chan error, 1)
	c.funcs <- func() { done <- fn() }
	return <-done
}

// Submit parses program text and queues its blocks in order.
func (c *Controller) Submit(text string) error {
	p := gcode.NewParser(strings.NewReader(text))
	p.BlockDelete = c.m.BlockDeleteSwitch()
	p.OnMessage = c.m.Message
	for {
		b, err := p.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		c.blocks <- b
	}
}

// SubmitBlocks queues pre-parsed blocks in order.
func (c *Controller) SubmitBlocks(r gcode.Reader) error {
	for {
		b, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		c.blocks <- b
	}
}

// Control handles a single-character control command; these bypass
// the block queue entirely.
func (c *Controller) Control(ch byte) {
	switch ch {
	case '!':
		c.m.RequestFeedhold()
	case '~':
		c.m.RequestCycleStart()
	case '%':
		c.m.RequestQueueFlush()
	}
}

// ReadFrom consumes a transport stream: control characters act
// immediately, everything else is treated as G-code lines.
func (c *Controller) ReadFrom(r io.Reader) {
	br := bufio.NewReader(r)
	var line []byte
	for {
		ch, err := br.ReadByte()
		if err != nil {
			if err != io.EOF {
				log.Printf("ERROR: read: %+v", err)
			}
			return
		}
		switch ch {
		case '!', '~', '%':
			c.Control(ch)
		case '\n', '\r':
			if len(line) > 0 {
				if err := c.Submit(string(line) + "\n"); err != nil {
					log.Printf("ERROR: submit: %+v", err)
				}
				line = line[:0]
			}
		default:
			line = append(line, ch)
		}
	}
}
