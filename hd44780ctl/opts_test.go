// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780ctl

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"periph.io/x/conn/v3/physic"
)

func TestCalibrate(t *testing.T) {
	for _, tc := range []struct {
		f    physic.Frequency
		want Opts
	}{
		{
			f:    physic.MegaHertz,
			want: Opts{Rows: 2, Cols: 16, StartupTicks: 40000, LongWaitTicks: 4100, ShortWaitTicks: 1520, PulseTicks: 1},
		},
		{
			f:    physic.KiloHertz,
			want: Opts{Rows: 2, Cols: 16, StartupTicks: 40, LongWaitTicks: 5, ShortWaitTicks: 2, PulseTicks: 1},
		},
		{
			f:    10 * physic.MegaHertz,
			want: Opts{Rows: 2, Cols: 16, StartupTicks: 400000, LongWaitTicks: 41000, ShortWaitTicks: 15200, PulseTicks: 5},
		},
		{
			f:    physic.Hertz,
			want: Opts{Rows: 2, Cols: 16, StartupTicks: 1, LongWaitTicks: 1, ShortWaitTicks: 1, PulseTicks: 1},
		},
	} {
		t.Run(tc.f.String(), func(t *testing.T) {
			got, err := DefaultOpts.Calibrate(tc.f)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(got, tc.want, cmpopts.IgnoreUnexported(Opts{})); diff != "" {
				t.Errorf("Calibrate(%s) difference (-got +want):\n%s", tc.f, diff)
			}
			// Every wait lasts at least the datasheet minimum.
			period := tc.f.Period()
			if d := time.Duration(got.StartupTicks) * period; d < PowerOnDelay {
				t.Errorf("startup %s < %s", d, PowerOnDelay)
			}
			if d := time.Duration(got.PulseTicks) * period; d < EnablePulseWidth {
				t.Errorf("pulse %s < %s", d, EnablePulseWidth)
			}
		})
	}

	if _, err := DefaultOpts.Calibrate(0); !errors.Is(err, ErrInvalidOpts) {
		t.Errorf("Calibrate(0) error = %v, want ErrInvalidOpts", err)
	}
}

func TestTicksFor(t *testing.T) {
	for _, tc := range []struct {
		d, period time.Duration
		want      uint32
	}{
		{0, time.Microsecond, 1},
		{time.Microsecond, time.Microsecond, 1},
		{time.Microsecond + 1, time.Microsecond, 2},
		{time.Hour, time.Nanosecond, ^uint32(0)},
	} {
		if got := ticksFor(tc.d, tc.period); got != tc.want {
			t.Errorf("ticksFor(%s, %s) = %d, want %d", tc.d, tc.period, got, tc.want)
		}
	}
}
