// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package hd44780ctl implements a tick driven controller for the Hitachi
// HD44780 character LCD.
//
// The Controller turns a flat set of host request bits into the signal
// triple the panel samples: an 8 bit data bus, the register select line and
// the enable strobe. It sequences the power-up delay and the initialization
// instructions, latches one command at a time and reports busy to the host.
//
// The Controller is a pure synchronous state machine: every call to Tick
// computes the next state and outputs from the previous state and the inputs
// sampled on that tick. It never blocks and never touches hardware. Use
// Runner to drive it from a clock, and hd44780.Panel to put its Signals on
// GPIO lines.
//
// # Datasheet
//
// https://www.sparkfun.com/datasheets/LCD/HD44780.pdf
package hd44780ctl

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

// Signals is the panel facing output of the controller.
type Signals struct {
	// Data is the 8 bit bus value.
	Data byte
	// RS is register select: Low for instructions, High for display data.
	RS gpio.Level
	// E is the enable strobe. The panel latches on its falling edge.
	E gpio.Level
}

func (s Signals) String() string {
	return fmt.Sprintf("Signals{data=0x%02x rs=%s e=%s}", s.Data, s.RS, s.E)
}

// Snapshot is the observable state of the controller after a tick.
type Snapshot struct {
	// Tick is the number of ticks evaluated since New. It is not cleared by
	// reset.
	Tick      uint64
	Lifecycle Lifecycle
	Command   Command
	Step      InitStep
	// Startup and Wait are the startup delay counter and the current wait
	// counter.
	Startup uint32
	Wait    uint32
	Signals Signals
	Busy    bool
	// Served is the last completed command while its request line is still
	// asserted. It is not latched again until the line is released.
	Served Command

	// Events of this tick.
	Reset     bool
	Latched   Command
	Completed Command
	Aborted   Command
}

// Controller is the HD44780 peripheral state machine.
//
// It is not safe for concurrent use; it is meant to be owned by a single tick
// loop.
type Controller struct {
	opts Opts

	tick    uint64
	life    Lifecycle
	cmd     Command
	served  Command
	step    InitStep
	closing bool
	startup uint32
	wait    uint32
	data    byte
	out     Signals
	busy    bool

	last Snapshot
}

// New returns a Controller in the Off state.
func New(opts *Opts) (*Controller, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	c := &Controller{opts: *opts}
	c.reset()
	c.last = c.snapshot()
	return c, nil
}

// Tick evaluates one clock tick with the sampled inputs and returns the
// resulting state.
//
// Reset takes priority over everything else.
func (c *Controller) Tick(in Inputs) Snapshot {
	c.tick++
	var ev Snapshot
	if in.Reset {
		c.reset()
		ev.Reset = true
	} else {
		switch c.life {
		case Off:
			if in.Requests.Has(ReqInit) {
				c.life = Starting
				c.startup = 0
			}
		case Starting:
			c.startup++
			if c.startup >= c.opts.StartupTicks {
				c.life = Operational
				c.startup = 0
				// Arbitrate on the same tick so a held init request keeps busy
				// asserted across the transition.
				c.operate(in, &ev)
			}
		case Operational:
			c.operate(in, &ev)
		}
	}
	c.busy = c.life == Starting || c.cmd != Idle

	s := c.snapshot()
	s.Reset = ev.Reset
	s.Latched = ev.Latched
	s.Completed = ev.Completed
	s.Aborted = ev.Aborted
	c.last = s
	return s
}

// TickWord evaluates one tick from a host control word and returns the status
// word: the control bits with the busy bit reflecting the new state.
func (c *Controller) TickWord(w Word) Word {
	c.Tick(w.Inputs())
	return c.Status(w)
}

// Status returns ctrl with the busy bit replaced by the current busy flag.
func (c *Controller) Status(ctrl Word) Word {
	ctrl &^= BusyBit
	if c.busy {
		ctrl |= BusyBit
	}
	return ctrl
}

// Snapshot returns the state after the last tick.
func (c *Controller) Snapshot() Snapshot {
	return c.last
}

// Signals returns the current panel outputs.
func (c *Controller) Signals() Signals {
	return c.out
}

// Busy reports whether a command is in flight or the panel is still powering
// up.
func (c *Controller) Busy() bool {
	return c.busy
}

// Lifecycle returns the top level state.
func (c *Controller) Lifecycle() Lifecycle {
	return c.life
}

// Command returns the command currently owned by the controller.
func (c *Controller) Command() Command {
	return c.cmd
}

// Opts returns the options the controller was built with.
func (c *Controller) Opts() Opts {
	return c.opts
}

func (c *Controller) String() string {
	return fmt.Sprintf("hd44780ctl.Controller{%s, %s, %s, busy=%t}", c.life, c.cmd, c.out, c.busy)
}

func (c *Controller) reset() {
	c.life = Off
	c.cmd = Idle
	c.served = Idle
	c.step = Init0
	c.closing = false
	c.startup = 0
	c.wait = 0
	c.data = 0
	c.out = Signals{}
	c.busy = false
}

// operate runs arbitration and then executes the latched command.
func (c *Controller) operate(in Inputs, ev *Snapshot) {
	// A completed command stays served until its line is released, so a held
	// request does not run twice.
	if c.served != Idle && !in.Requests.Has(c.served.Request()) {
		c.served = Idle
	}
	if sel := arbitrate(in.Requests, c.served); sel != c.cmd {
		if c.cmd != Idle {
			ev.Aborted = c.cmd
		}
		c.latch(sel, in)
		if sel != Idle {
			ev.Latched = sel
		}
	}
	c.execute(ev)
}

func (c *Controller) latch(cmd Command, in Inputs) {
	c.cmd = cmd
	c.wait = 0
	c.step = Init0
	c.closing = false
	if pc, ok := pulseCommands[cmd]; ok {
		c.data = pc.data(in)
	}
}

func (c *Controller) execute(ev *Snapshot) {
	switch c.cmd {
	case Idle:
		c.out.E = gpio.Low
	case Initialize:
		c.out.RS = gpio.Low
		if c.closing {
			// Falling edge of the last pulse.
			c.out.E = gpio.Low
			c.step = Init0
			c.complete(ev)
			return
		}
		s := initSequence[c.step]
		c.out.Data = s.data
		if c.wait < c.opts.waitTicks(s.wait) {
			c.out.E = gpio.Low
			c.wait++
			return
		}
		c.out.E = gpio.High
		c.wait = 0
		if next, wrapped := c.step.next(); wrapped {
			c.closing = true
		} else {
			c.step = next
		}
	default:
		pc := pulseCommands[c.cmd]
		c.out.RS = gpio.Level(pc.rs)
		c.out.Data = c.data
		if c.wait < c.opts.PulseTicks {
			c.out.E = gpio.High
			c.wait++
			return
		}
		c.out.E = gpio.Low
		c.complete(ev)
	}
}

func (c *Controller) complete(ev *Snapshot) {
	ev.Completed = c.cmd
	c.served = c.cmd
	c.cmd = Idle
	c.wait = 0
	c.closing = false
}

func (c *Controller) snapshot() Snapshot {
	return Snapshot{
		Tick:      c.tick,
		Lifecycle: c.life,
		Command:   c.cmd,
		Step:      c.step,
		Startup:   c.startup,
		Wait:      c.wait,
		Signals:   c.out,
		Busy:      c.busy,
		Served:    c.served,
	}
}
