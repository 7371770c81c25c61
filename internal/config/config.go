// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config loads the YAML configuration of the hd44780ctl tool.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/GermanBionicSystems/lcd/hd44780ctl"
	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"
)

// Pins names the GPIO lines the panel is wired to.
type Pins struct {
	// Chip is the index of the GPIO chip holding the lines.
	Chip int `yaml:"chip"`
	// Data lists D0-D7, in order.
	Data []string `yaml:"data"`
	RS   string   `yaml:"rs"`
	E    string   `yaml:"e"`
	// Backlight is optional.
	Backlight string `yaml:"backlight,omitempty"`
}

// Timing overrides individual tick counts. Zero keeps the calibrated or
// default value.
type Timing struct {
	StartupTicks   uint32 `yaml:"startup_ticks,omitempty"`
	LongWaitTicks  uint32 `yaml:"long_wait_ticks,omitempty"`
	ShortWaitTicks uint32 `yaml:"short_wait_ticks,omitempty"`
	PulseTicks     uint32 `yaml:"pulse_ticks,omitempty"`
}

// Config is the top-level configuration.
type Config struct {
	// Tick is the controller clock, e.g. "10kHz".
	Tick string `yaml:"tick"`
	// Calibrate derives the delays from the datasheet for Tick. When false
	// the compressed simulation delays are used.
	Calibrate bool `yaml:"calibrate"`

	Rows   int    `yaml:"rows"`
	Cols   int    `yaml:"cols"`
	Timing Timing `yaml:"timing"`
	Pins   Pins   `yaml:"pins"`

	// Listen is the HTTP address for the status API and /metrics. Empty
	// disables it.
	Listen string `yaml:"listen"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns an in-memory default configuration, wired for a
// Raspberry Pi header.
func DefaultConfig() *Config {
	return &Config{
		Tick:      "10kHz",
		Calibrate: true,
		Rows:      2,
		Cols:      16,
		Pins: Pins{
			Data:      []string{"GPIO5", "GPIO6", "GPIO12", "GPIO13", "GPIO16", "GPIO19", "GPIO20", "GPIO21"},
			RS:        "GPIO17",
			E:         "GPIO27",
			Backlight: "GPIO22",
		},
		Listen:   "127.0.0.1:9144",
		LogLevel: "info",
	}
}

// Normalize fills in missing values so that partially-filled files still
// behave.
func (c *Config) Normalize() {
	if c.Tick == "" {
		c.Tick = "10kHz"
	}
	if c.Rows == 0 {
		c.Rows = 2
	}
	if c.Cols == 0 {
		c.Cols = 16
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Pins.Data == nil {
		c.Pins.Data = []string{}
	}
}

// TickFrequency parses Tick.
func (c *Config) TickFrequency() (physic.Frequency, error) {
	var f physic.Frequency
	if err := f.Set(c.Tick); err != nil {
		return 0, fmt.Errorf("config: tick %q: %w", c.Tick, err)
	}
	if f <= 0 {
		return 0, fmt.Errorf("config: tick %q must be positive", c.Tick)
	}
	return f, nil
}

// Opts builds the controller options.
func (c *Config) Opts() (hd44780ctl.Opts, error) {
	o := hd44780ctl.DefaultOpts
	o.Rows = c.Rows
	o.Cols = c.Cols
	if c.Calibrate {
		f, err := c.TickFrequency()
		if err != nil {
			return o, err
		}
		if o, err = o.Calibrate(f); err != nil {
			return o, err
		}
	}
	for _, ov := range []struct {
		v   uint32
		dst *uint32
	}{
		{c.Timing.StartupTicks, &o.StartupTicks},
		{c.Timing.LongWaitTicks, &o.LongWaitTicks},
		{c.Timing.ShortWaitTicks, &o.ShortWaitTicks},
		{c.Timing.PulseTicks, &o.PulseTicks},
	} {
		if ov.v != 0 {
			*ov.dst = ov.v
		}
	}
	return o, o.Validate()
}

// Validate checks the pin assignment for driving real hardware.
func (p *Pins) Validate() error {
	if len(p.Data) != 8 {
		return fmt.Errorf("config: pins.data needs 8 lines, got %d", len(p.Data))
	}
	if p.RS == "" || p.E == "" {
		return errors.New("config: pins.rs and pins.e are required")
	}
	return nil
}

// Lines returns every line name in line set order: D0-D7, RS, E, then the
// backlight if any.
func (p *Pins) Lines() []string {
	out := append([]string{}, p.Data...)
	out = append(out, p.RS, p.E)
	if p.Backlight != "" {
		out = append(out, p.Backlight)
	}
	return out
}

// Load loads configuration from the given YAML path.
//
// If the file does not exist a default config is written with 0600
// permissions and returned.
func Load(path string) (*Config, error) {
	cfg, err := read(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = DefaultConfig()
		if err := Save(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}
	return cfg, err
}

// Read is Load without the first run side effect: a missing file yields the
// defaults and nothing is written.
func Read(path string) (*Config, error) {
	cfg, err := read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

func read(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config: path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes cfg to path atomically, via a temp file and rename.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config: path is empty")
	}
	if cfg == nil {
		return errors.New("config: nil config")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".hd44780ctl-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
