// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// hd44780ctl clocks an HD44780 controller, either against a panel wired to
// GPIO lines or in simulation with a waveform dump.
package main

func main() {
	Execute()
}
