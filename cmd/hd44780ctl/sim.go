// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/GermanBionicSystems/lcd/hd44780ctl"
	"github.com/GermanBionicSystems/lcd/waveform"
	"github.com/mattn/go-colorable"
	"github.com/spf13/cobra"
)

var simCmd = &cobra.Command{
	Use:   "sim [action...]",
	Short: "Run a scripted simulation and print the panel waveform",
	Long: `Clocks the controller without hardware and prints E, RS, busy and the data
bus for every tick that changes them.

Actions run in order, each waiting for the controller to be idle:
  init          assert the init request
  write:A       write one character, also write:0x41
  text:Hello    write every character of the string
  clear         clear the display and return home
  line1, line2  move the cursor to the start of a line
  reset         pulse the reset bit
  wait:N        run N idle ticks

Without actions, "init" is run. The compressed simulation delays are used
unless --calibrate is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			args = []string{"init"}
		}
		actions, err := parseScript(args)
		if err != nil {
			return err
		}
		cfg, log, err := loadConfig(cmd, false)
		if err != nil {
			return err
		}
		calibrate, _ := cmd.Flags().GetBool("calibrate")
		cfg.Calibrate = calibrate
		opts, err := cfg.Opts()
		if err != nil {
			return err
		}
		ctl, err := hd44780ctl.New(&opts)
		if err != nil {
			return err
		}
		r := hd44780ctl.NewRunner(ctl, hd44780ctl.NewPort(), 0, log)

		w := cmd.OutOrStdout()
		if f, ok := w.(*os.File); ok {
			w = colorable.NewColorable(f)
		}
		all, _ := cmd.Flags().GetBool("all")
		console := waveform.NewConsole(&waveform.Opts{W: w, All: all})
		r.AddObserver(console)

		pngPath, _ := cmd.Flags().GetString("png")
		var rec *waveform.Recorder
		if pngPath != "" {
			rec = waveform.NewRecorder(0)
			r.AddObserver(rec)
		}

		limit, _ := cmd.Flags().GetInt("limit")
		if err := runScript(r, actions, limit); err != nil {
			return err
		}
		tail, _ := cmd.Flags().GetInt("tail")
		if _, err := r.StepN(tail); err != nil {
			return err
		}
		if err := console.Err(); err != nil {
			return err
		}
		if err := console.Halt(); err != nil {
			return err
		}
		log.Info("simulation done", "ticks", ctl.Snapshot().Tick, "opts", opts.String())

		if rec != nil {
			f, err := os.Create(pngPath)
			if err != nil {
				return err
			}
			if err := rec.WritePNG(f); err != nil {
				_ = f.Close()
				return fmt.Errorf("writing %s: %w", pngPath, err)
			}
			return f.Close()
		}
		return nil
	},
}

func init() {
	simCmd.Flags().Bool("calibrate", false, "Use the datasheet delays for the configured tick")
	simCmd.Flags().Bool("all", false, "Print every tick, not only the ones that change the signals")
	simCmd.Flags().String("png", "", "Also render the timing diagram to this PNG file")
	simCmd.Flags().Int("limit", 1_000_000, "Maximum ticks spent on a single action")
	simCmd.Flags().Int("tail", 2, "Idle ticks to run after the last action")
	rootCmd.AddCommand(simCmd)
}
