// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/GermanBionicSystems/lcd/internal/config"
	"github.com/GermanBionicSystems/lcd/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hd44780ctl",
	Short: "Tick driven HD44780 LCD controller",
	Long: `hd44780ctl runs the HD44780 peripheral controller: the power-up sequence,
command latching and enable strobe timing, either on real GPIO lines or in a
simulation that prints the panel signals tick by tick.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "hd44780ctl.yaml", "Path to the YAML configuration, created with defaults if missing")
	rootCmd.PersistentFlags().String("log-level", "", "Override the configured log level (debug, info, warn, error)")
}

// loadConfig reads the configuration named by --config and builds the logger.
// When create is set a missing file is written with the defaults; otherwise
// the defaults are used and nothing is written.
func loadConfig(cmd *cobra.Command, create bool) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	load := config.Read
	if create {
		load = config.Load
	}
	cfg, err := load(path)
	if err != nil {
		return nil, nil, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logging.NewWriter(cmd.ErrOrStderr(), level), nil
}
