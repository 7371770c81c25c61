// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package waveform shows the signals of an hd44780ctl.Controller without a
// panel: on the terminal using ANSI color codes, or as a PNG timing diagram.
//
// Useful while you are waiting for your LCD module to come by mail.
package waveform

import (
	"bytes"
	"fmt"
	"image/color"
	"io"

	"github.com/GermanBionicSystems/lcd/hd44780ctl"
	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/gpio"
)

// Opts represents the options available for the console.
type Opts struct {
	// W is where the waveform is written. Defaults to a colorable stdout.
	W io.Writer
	// Palette maps colors to ANSI codes. Defaults to ansi256.Default.
	Palette *ansi256.Palette
	// All prints every tick instead of only the ticks where something
	// changed.
	All bool

	_ struct{}
}

var (
	colorHigh = color.NRGBA{0x20, 0xd0, 0x20, 0xff}
	colorLow  = color.NRGBA{0x30, 0x30, 0x30, 0xff}
	colorBusy = color.NRGBA{0xe0, 0x80, 0x10, 0xff}
)

// Console prints one line per tick: a colored block for E, RS and busy,
// followed by the data bus and the controller state.
//
// Implements hd44780ctl.Observer.
type Console struct {
	w       io.Writer
	palette ansi256.Palette
	all     bool

	primed bool
	last   hd44780ctl.Snapshot
	buf    bytes.Buffer
	err    error
}

// NewConsole returns a Console.
func NewConsole(opts *Opts) *Console {
	if opts == nil {
		opts = &Opts{}
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.W
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	return &Console{w: w, palette: *p, all: opts.All}
}

func (c *Console) String() string {
	return "waveform.Console"
}

// Observe implements hd44780ctl.Observer.
func (c *Console) Observe(s hd44780ctl.Snapshot) {
	if c.err != nil {
		return
	}
	if c.primed && !c.all && !changed(&c.last, &s) {
		c.last = s
		return
	}
	if !c.primed {
		c.header()
	}
	c.primed = true
	c.last = s

	c.buf.Reset()
	_, _ = fmt.Fprintf(&c.buf, "%8d ", s.Tick)
	c.block(s.Signals.E == gpio.High, colorHigh)
	c.block(s.Signals.RS == gpio.High, colorHigh)
	c.block(s.Busy, colorBusy)
	_, _ = fmt.Fprintf(&c.buf, "\033[0m 0x%02x %-11s %-10s", s.Signals.Data, s.Lifecycle, s.Command)
	if s.Lifecycle == hd44780ctl.Operational && s.Command == hd44780ctl.Initialize {
		_, _ = fmt.Fprintf(&c.buf, " %s", s.Step)
	}
	switch {
	case s.Reset:
		_, _ = c.buf.WriteString(" reset")
	case s.Completed != hd44780ctl.Idle:
		_, _ = fmt.Fprintf(&c.buf, " done %s", s.Completed)
	case s.Aborted != hd44780ctl.Idle:
		_, _ = fmt.Fprintf(&c.buf, " aborted %s", s.Aborted)
	}
	_, _ = c.buf.WriteString("\n")
	_, c.err = c.buf.WriteTo(c.w)
}

// Err returns the first write error. Once set, Observe stops printing.
func (c *Console) Err() error {
	return c.err
}

// Halt implements conn.Resource.
//
// It resets the terminal colors.
func (c *Console) Halt() error {
	_, err := io.WriteString(c.w, "\033[0m\n")
	return err
}

func (c *Console) header() {
	_, _ = io.WriteString(c.w, "    tick E R B data lifecycle   command\n")
}

func (c *Console) block(on bool, hi color.NRGBA) {
	col := colorLow
	if on {
		col = hi
	}
	_, _ = c.buf.WriteString(c.palette.Block(col))
	_, _ = c.buf.WriteString(" ")
}

func changed(a, b *hd44780ctl.Snapshot) bool {
	return a.Signals != b.Signals || a.Busy != b.Busy || a.Lifecycle != b.Lifecycle ||
		a.Command != b.Command || b.Reset || b.Completed != hd44780ctl.Idle || b.Aborted != hd44780ctl.Idle
}

var _ hd44780ctl.Observer = &Console{}
var _ fmt.Stringer = &Console{}
