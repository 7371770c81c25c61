// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GermanBionicSystems/lcd/hd44780"
	"github.com/GermanBionicSystems/lcd/hd44780ctl"
	"github.com/GermanBionicSystems/lcd/internal/httpapi"
	"github.com/GermanBionicSystems/lcd/lcdmetrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/host/v3"
	"periph.io/x/host/v3/gpioioctl"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Drive a panel wired to GPIO lines",
	Long: `Opens the configured GPIO lines, clocks the controller at the configured tick
and serves the status API and Prometheus metrics until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig(cmd, true)
		if err != nil {
			return err
		}
		if err := cfg.Pins.Validate(); err != nil {
			return err
		}
		opts, err := cfg.Opts()
		if err != nil {
			return err
		}
		f, err := cfg.TickFrequency()
		if err != nil {
			return err
		}

		if _, err := host.Init(); err != nil {
			return fmt.Errorf("host init: %w", err)
		}
		if cfg.Pins.Chip < 0 || cfg.Pins.Chip >= len(gpioioctl.Chips) {
			return fmt.Errorf("gpio chip %d not found, %d available", cfg.Pins.Chip, len(gpioioctl.Chips))
		}
		chip := gpioioctl.Chips[cfg.Pins.Chip]
		ls, err := chip.LineSet(gpioioctl.LineOutput, gpio.NoEdge, gpio.PullNoChange, cfg.Pins.Lines()...)
		if err != nil {
			return fmt.Errorf("opening lines on %s: %w", chip.Name(), err)
		}
		pins := ls.Pins()
		panel, err := hd44780.NewPanel(ls, pins[8].(gpio.PinOut), pins[9].(gpio.PinOut))
		if err != nil {
			return err
		}
		defer halt(panel, log)
		if cfg.Pins.Backlight != "" {
			panel.SetBacklight(hd44780.NewBacklight(pins[10].(gpio.PinOut)))
			if err := panel.Backlight(0xff); err != nil {
				log.Warn("backlight", "err", err)
			}
		}

		ctl, err := hd44780ctl.New(&opts)
		if err != nil {
			return err
		}
		port := hd44780ctl.NewPort()
		r := hd44780ctl.NewRunner(ctl, port, f.Period(), log)
		r.AddSink(panel)

		reg := prometheus.NewRegistry()
		metrics := lcdmetrics.New("lcd")
		if err := metrics.Register(reg); err != nil {
			return err
		}
		r.AddObserver(metrics)
		tracker := &httpapi.Tracker{}
		r.AddObserver(tracker)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var srv *http.Server
		if cfg.Listen != "" {
			srv = &http.Server{
				Addr:              cfg.Listen,
				Handler:           httpapi.New(port, tracker, reg, log).Handler(),
				ReadHeaderTimeout: 5 * time.Second,
			}
			go func() {
				log.Info("http listening", "addr", cfg.Listen)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server", "err", err)
					stop()
				}
			}()
		}

		if initOnStart, _ := cmd.Flags().GetBool("init"); initOnStart {
			go func() {
				if err := hd44780ctl.NewHost(port).Init(ctx); err != nil {
					if ctx.Err() == nil {
						log.Error("panel init", "err", err)
					}
					return
				}
				log.Info("panel initialized")
			}()
		}

		log.Info("driving panel", "chip", chip.Name(), "lines", cfg.Pins.Lines(), "tick", f)
		err = r.Run(ctx)
		if srv != nil {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if serr := srv.Shutdown(sctx); serr != nil {
				log.Warn("http shutdown", "err", serr)
			}
		}
		if errors.Is(err, context.Canceled) {
			log.Info("shutting down")
			return nil
		}
		return err
	},
}

// halt stops r and logs a failure, for use in defer.
func halt(r conn.Resource, log *slog.Logger) {
	if err := r.Halt(); err != nil {
		log.Warn("halt", "resource", r.String(), "err", err)
	}
}

func init() {
	runCmd.Flags().Bool("init", true, "Run the initialization sequence on start")
	rootCmd.AddCommand(runCmd)
}
