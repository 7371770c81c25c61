// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780ctl

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/physic"
)

// ErrInvalidOpts is returned when Opts cannot drive a panel.
var ErrInvalidOpts = errors.New("hd44780ctl: invalid options")

// Minimum delays from the HD44780U datasheet.
const (
	// PowerOnDelay is the wait after Vcc rises to 2.7V before the first
	// instruction.
	PowerOnDelay = 40 * time.Millisecond
	// FirstFunctionSetDelay is the wait before the first function set is
	// latched.
	FirstFunctionSetDelay = 4100 * time.Microsecond
	// CommandDelay covers the slowest instruction (clear display, return
	// home).
	CommandDelay = 1520 * time.Microsecond
	// EnablePulseWidth is PWEH, the minimum enable high time.
	EnablePulseWidth = 450 * time.Nanosecond
)

// DefaultOpts holds compressed timings suited to simulation. They are not
// long enough for a real panel unless the tick is very slow; use Calibrate.
var DefaultOpts = Opts{
	Rows:           2,
	Cols:           16,
	StartupTicks:   20,
	LongWaitTicks:  5,
	ShortWaitTicks: 2,
	PulseTicks:     2,
}

// Opts is the instantiation time configuration of a Controller. All delays
// are expressed in ticks.
type Opts struct {
	// Rows and Cols describe the panel. They are informational.
	Rows int
	Cols int
	// StartupTicks is the number of ticks spent in Starting.
	StartupTicks uint32
	// LongWaitTicks precedes the first function set of the init sequence.
	LongWaitTicks uint32
	// ShortWaitTicks precedes every other init step.
	ShortWaitTicks uint32
	// PulseTicks is the number of ticks enable stays high for a pulse
	// command.
	PulseTicks uint32

	_ struct{}
}

// Validate returns an error wrapping ErrInvalidOpts when the options cannot
// describe an HD44780 panel.
func (o *Opts) Validate() error {
	if o.Rows < 1 || o.Rows > 4 {
		return fmt.Errorf("%w: rows %d out of range [1, 4]", ErrInvalidOpts, o.Rows)
	}
	if o.Cols < 1 || o.Cols > 40 {
		return fmt.Errorf("%w: cols %d out of range [1, 40]", ErrInvalidOpts, o.Cols)
	}
	if o.Rows*o.Cols > 80 {
		return fmt.Errorf("%w: %dx%d exceeds the 80 character display RAM", ErrInvalidOpts, o.Cols, o.Rows)
	}
	// Each init step needs at least one tick with enable low, or the pulses
	// of consecutive steps merge into one.
	if o.LongWaitTicks == 0 || o.ShortWaitTicks == 0 {
		return fmt.Errorf("%w: init waits must be at least one tick, got long %d short %d", ErrInvalidOpts, o.LongWaitTicks, o.ShortWaitTicks)
	}
	if o.PulseTicks == 0 {
		return fmt.Errorf("%w: pulse width must be at least one tick", ErrInvalidOpts)
	}
	return nil
}

func (o *Opts) waitTicks(k waitKind) uint32 {
	if k == longWait {
		return o.LongWaitTicks
	}
	return o.ShortWaitTicks
}

// Calibrate returns a copy of o with every delay derived from the datasheet
// minimums for a tick source running at f.
func (o Opts) Calibrate(f physic.Frequency) (Opts, error) {
	if f <= 0 {
		return o, fmt.Errorf("%w: tick frequency must be positive, got %s", ErrInvalidOpts, f)
	}
	period := f.Period()
	if period <= 0 {
		return o, fmt.Errorf("%w: tick frequency %s is too high", ErrInvalidOpts, f)
	}
	o.StartupTicks = ticksFor(PowerOnDelay, period)
	o.LongWaitTicks = ticksFor(FirstFunctionSetDelay, period)
	o.ShortWaitTicks = ticksFor(CommandDelay, period)
	o.PulseTicks = ticksFor(EnablePulseWidth, period)
	return o, nil
}

// ticksFor rounds d up to a whole number of periods, at least one.
func ticksFor(d, period time.Duration) uint32 {
	n := (d + period - 1) / period
	if n < 1 {
		n = 1
	}
	if n > time.Duration(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(n)
}

func (o *Opts) String() string {
	return fmt.Sprintf("Opts{%dx%d startup=%d long=%d short=%d pulse=%d}", o.Cols, o.Rows, o.StartupTicks, o.LongWaitTicks, o.ShortWaitTicks, o.PulseTicks)
}
