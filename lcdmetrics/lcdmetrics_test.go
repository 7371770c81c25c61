// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdmetrics

import (
	"testing"

	"github.com/GermanBionicSystems/lcd/hd44780ctl"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector(t *testing.T) {
	c := New("lcd")
	reg := prometheus.NewPedanticRegistry()
	if err := c.Register(reg); err != nil {
		t.Fatal(err)
	}
	if err := c.Register(reg); err == nil {
		t.Error("registering twice should fail")
	}

	ctl, err := hd44780ctl.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	port := hd44780ctl.NewPort()
	r := hd44780ctl.NewRunner(ctl, port, 0, nil)
	r.AddObserver(c)

	port.WriteControl(hd44780ctl.Word(hd44780ctl.ReqInit))
	if _, err := r.StepN(50); err != nil {
		t.Fatal(err)
	}
	port.WriteControl(hd44780ctl.Word(hd44780ctl.ReqClearHome))
	if _, err := r.StepN(1); err != nil {
		t.Fatal(err)
	}
	if got := testutil.ToFloat64(c.busy); got != 1 {
		t.Errorf("busy = %v during clear", got)
	}
	port.WriteControl(0)
	if _, err := r.StepN(1); err != nil {
		t.Fatal(err)
	}
	port.WriteControl(hd44780ctl.ResetBit)
	if _, err := r.StepN(1); err != nil {
		t.Fatal(err)
	}

	for _, tc := range []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"ticks", c.ticks, 53},
		{"resets", c.resets, 1},
		{"latched init", c.latched.WithLabelValues("Initialize"), 1},
		{"completed init", c.completed.WithLabelValues("Initialize"), 1},
		{"latched clear", c.latched.WithLabelValues("ClearHome"), 1},
		{"aborted clear", c.aborted.WithLabelValues("ClearHome"), 1},
		{"busy", c.busy, 0},
		{"lifecycle", c.lifecycle, 0},
	} {
		if got := testutil.ToFloat64(tc.c); got != tc.want {
			t.Errorf("%s = %v, want %v", tc.name, got, tc.want)
		}
	}
}
