// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package hd44780 puts the signals of an hd44780ctl.Controller on the pins of
// a Hitachi HD44780 LCD wired in 8 bit mode.
//
// # Datasheet
//
// https://www.sparkfun.com/datasheets/LCD/HD44780.pdf
package hd44780

import (
	"errors"
	"fmt"

	"github.com/GermanBionicSystems/lcd/hd44780ctl"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
)

// ErrBusTooNarrow is returned when the data group cannot carry 8 bits.
var ErrBusTooNarrow = errors.New("hd44780: the data group needs at least 8 pins")

const dataMask gpio.GPIOValue = 0xff

// Panel drives the data bus, register select and enable lines of a panel
// from controller Signals.
//
// Lines are only written when their value changes. On a rising enable edge
// the data bus and register select are set up first; on a falling edge enable
// drops before they change, so the panel latches the previous values.
//
// Implements hd44780ctl.Sink, display.DisplayBacklight and conn.Resource.
type Panel struct {
	dataPins  gpio.Group
	rsPin     gpio.PinOut
	enablePin gpio.PinOut
	backlight display.DisplayBacklight

	last   hd44780ctl.Signals
	primed bool
}

// NewPanel takes a GPIO group whose first 8 pins are connected to D0-D7, and
// the register select and enable pins.
func NewPanel(dataPinGroup gpio.Group, rsPin, enablePin gpio.PinOut) (*Panel, error) {
	if dataPinGroup == nil || rsPin == nil || enablePin == nil {
		return nil, errors.New("hd44780: data group, rs and enable are required")
	}
	if n := len(dataPinGroup.Pins()); n < 8 {
		return nil, fmt.Errorf("%w, got %d", ErrBusTooNarrow, n)
	}
	return &Panel{dataPins: dataPinGroup, rsPin: rsPin, enablePin: enablePin}, nil
}

// SetBacklight attaches an optional backlight.
func (p *Panel) SetBacklight(bl display.DisplayBacklight) {
	p.backlight = bl
}

// Apply writes s to the pins.
func (p *Panel) Apply(s hd44780ctl.Signals) error {
	if !p.primed {
		if err := p.write8Bits(s.Data); err != nil {
			return err
		}
		if err := p.rsPin.Out(s.RS); err != nil {
			return fmt.Errorf("hd44780: rs: %w", err)
		}
		if err := p.enablePin.Out(s.E); err != nil {
			return fmt.Errorf("hd44780: enable: %w", err)
		}
		p.last = s
		p.primed = true
		return nil
	}

	if p.last.E == gpio.High && s.E == gpio.Low {
		if err := p.enablePin.Out(gpio.Low); err != nil {
			return fmt.Errorf("hd44780: enable: %w", err)
		}
		p.last.E = gpio.Low
	}
	if s.Data != p.last.Data {
		if err := p.write8Bits(s.Data); err != nil {
			return err
		}
		p.last.Data = s.Data
	}
	if s.RS != p.last.RS {
		if err := p.rsPin.Out(s.RS); err != nil {
			return fmt.Errorf("hd44780: rs: %w", err)
		}
		p.last.RS = s.RS
	}
	if s.E != p.last.E {
		if err := p.enablePin.Out(s.E); err != nil {
			return fmt.Errorf("hd44780: enable: %w", err)
		}
		p.last.E = s.E
	}
	return nil
}

// Backlight turns the backlight on or off. It returns
// display.ErrNotImplemented when no backlight was attached.
func (p *Panel) Backlight(intensity display.Intensity) error {
	if p.backlight == nil {
		return fmt.Errorf("hd44780: %w", display.ErrNotImplemented)
	}
	return p.backlight.Backlight(intensity)
}

// Halt drops enable, turns the backlight off and halts the data pins.
func (p *Panel) Halt() error {
	err := p.enablePin.Out(gpio.Low)
	p.last.E = gpio.Low
	if p.backlight != nil {
		_ = p.backlight.Backlight(0)
	}
	if herr := p.dataPins.Halt(); err == nil {
		err = herr
	}
	return err
}

// Return info about the panel.
func (p *Panel) String() string {
	return fmt.Sprintf("HD44780::%s - RS: %s, E: %s", p.dataPins.String(), p.rsPin, p.enablePin)
}

func (p *Panel) write8Bits(value byte) error {
	if err := p.dataPins.Out(gpio.GPIOValue(value), dataMask); err != nil {
		return fmt.Errorf("hd44780: data: %w", err)
	}
	return nil
}

var _ hd44780ctl.Sink = &Panel{}
var _ display.DisplayBacklight = &Panel{}
var _ conn.Resource = &Panel{}
