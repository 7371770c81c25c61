// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lcd is a container for the HD44780 peripheral controller and the
// packages that drive, observe and serve it.
//
// The controller itself lives in hd44780ctl. hd44780 puts its signals on real
// GPIO lines, waveform renders them for a terminal or a PNG timing diagram and
// lcdmetrics exports them to Prometheus.
package lcd
