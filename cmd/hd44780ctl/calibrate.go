// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/GermanBionicSystems/lcd/hd44780ctl"
	"github.com/spf13/cobra"
	"periph.io/x/conn/v3/physic"
)

var calibrateCmd = &cobra.Command{
	Use:   "calibrate [frequency]",
	Short: "Print the tick counts derived from the datasheet for a clock",
	Long: `Prints the controller options calibrated for the given tick frequency, e.g.
"100kHz". Without an argument the configured tick is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var f physic.Frequency
		if len(args) == 1 {
			if err := f.Set(args[0]); err != nil {
				return fmt.Errorf("frequency %q: %w", args[0], err)
			}
		} else {
			cfg, _, err := loadConfig(cmd, false)
			if err != nil {
				return err
			}
			if f, err = cfg.TickFrequency(); err != nil {
				return err
			}
		}
		o, err := hd44780ctl.DefaultOpts.Calibrate(f)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "tick:       %s (%s)\n", f, f.Period())
		fmt.Fprintf(out, "startup:    %d ticks\n", o.StartupTicks)
		fmt.Fprintf(out, "long wait:  %d ticks\n", o.LongWaitTicks)
		fmt.Fprintf(out, "short wait: %d ticks\n", o.ShortWaitTicks)
		fmt.Fprintf(out, "pulse:      %d ticks\n", o.PulseTicks)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(calibrateCmd)
}
