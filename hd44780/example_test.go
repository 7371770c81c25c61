// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780_test

import (
	"context"
	"log"

	"github.com/GermanBionicSystems/lcd/hd44780"
	"github.com/GermanBionicSystems/lcd/hd44780ctl"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
	"periph.io/x/host/v3/gpioioctl"
)

// This example drives a panel wired in 8 bit mode to the GPIO header. The
// first 8 lines of the line set are D0-D7, then RS, E and the backlight.
func Example() {
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}
	chip := gpioioctl.Chips[0]
	ls, err := chip.LineSet(gpioioctl.LineOutput, gpio.NoEdge, gpio.PullNoChange,
		"GPIO5", "GPIO6", "GPIO12", "GPIO13", "GPIO16", "GPIO19", "GPIO20", "GPIO21",
		"GPIO17", "GPIO27", "GPIO22")
	if err != nil {
		log.Fatal(err)
	}
	pins := ls.Pins()
	panel, err := hd44780.NewPanel(ls, pins[8].(gpio.PinOut), pins[9].(gpio.PinOut))
	if err != nil {
		log.Fatal(err)
	}
	defer panel.Halt()
	panel.SetBacklight(hd44780.NewBacklight(pins[10].(gpio.PinOut)))
	_ = panel.Backlight(0xff)

	tick := 100 * physic.KiloHertz
	opts, err := hd44780ctl.DefaultOpts.Calibrate(tick)
	if err != nil {
		log.Fatal(err)
	}
	ctl, err := hd44780ctl.New(&opts)
	if err != nil {
		log.Fatal(err)
	}
	port := hd44780ctl.NewPort()
	r := hd44780ctl.NewRunner(ctl, port, tick.Period(), nil)
	r.AddSink(panel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = r.Run(ctx) }()

	h := hd44780ctl.NewHost(port)
	if err := h.Init(ctx); err != nil {
		log.Fatal(err)
	}
	for _, c := range []byte("periph") {
		_ = h.WriteChar(ctx, c)
	}
}
