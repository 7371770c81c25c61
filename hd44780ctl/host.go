// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780ctl

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotInitialized is returned by Host.Do for any command but init while the
// controller is Off, since Off ignores every other request line.
var ErrNotInitialized = errors.New("hd44780ctl: controller is off, run init first")

// Host issues commands through a Port following the request convention: wait
// for busy to clear, assert one request line, wait for the command to
// complete, then release the line.
//
// A Host is safe for concurrent use, and so are several Hosts on the same
// Port: each call owns the port for its whole handshake.
type Host struct {
	port *Port
}

// NewHost returns a Host writing to p.
func NewHost(p *Port) *Host {
	return &Host{port: p}
}

// Do runs a single command and blocks until the controller reports it
// complete or ctx is done. char is only used by ReqWriteChar.
//
// On an Off controller, ReqInit returns once power-up and the init sequence
// have finished, and every other request fails with ErrNotInitialized.
func (h *Host) Do(ctx context.Context, r Request, char byte) error {
	cmd := r.Command()
	if cmd == Idle || cmd.Request() != r {
		return fmt.Errorf("hd44780ctl: Do needs exactly one request line, got %s", r)
	}
	if err := h.port.acquire(ctx); err != nil {
		return fmt.Errorf("hd44780ctl: waiting for the port before %s: %w", cmd, err)
	}
	defer h.port.release()
	if cmd != Initialize && h.port.Lifecycle() == Off {
		return fmt.Errorf("%w: %s", ErrNotInitialized, cmd)
	}
	// The previous run of the same command must have seen its line released.
	idle := func(v *portView) bool { return !v.status.Busy() && v.served != cmd }
	if err := h.port.waitFor(ctx, idle); err != nil {
		return fmt.Errorf("hd44780ctl: waiting for idle before %s: %w", cmd, err)
	}
	before := h.port.view().done[cmd]
	if cmd == WriteChar {
		h.port.SetChar(char)
	}
	h.port.SetRequest(r)
	defer h.port.ClearRequest(r)
	if err := h.port.waitFor(ctx, func(v *portView) bool { return v.done[cmd] > before }); err != nil {
		return fmt.Errorf("hd44780ctl: waiting for %s: %w", cmd, err)
	}
	return nil
}

// Init powers up the controller, or reruns the init sequence when it is
// already operational.
func (h *Host) Init(ctx context.Context) error {
	return h.Do(ctx, ReqInit, 0)
}

// WriteChar sends one character code.
func (h *Host) WriteChar(ctx context.Context, b byte) error {
	return h.Do(ctx, ReqWriteChar, b)
}

// ClearHome clears the display and homes the cursor.
func (h *Host) ClearHome(ctx context.Context) error {
	return h.Do(ctx, ReqClearHome, 0)
}

// GotoLine moves the cursor to the start of line 1 or 2.
func (h *Host) GotoLine(ctx context.Context, line int) error {
	switch line {
	case 1:
		return h.Do(ctx, ReqGotoLine1, 0)
	case 2:
		return h.Do(ctx, ReqGotoLine2, 0)
	default:
		return fmt.Errorf("hd44780ctl: line %d out of range [1, 2]", line)
	}
}

// Reset asserts the reset line for one tick. Every request line is released
// as well.
func (h *Host) Reset(ctx context.Context) error {
	if err := h.port.acquire(ctx); err != nil {
		return fmt.Errorf("hd44780ctl: waiting for the port before reset: %w", err)
	}
	defer h.port.release()
	before := h.port.view().resets
	h.port.ClearRequest(requestMask)
	h.port.SetReset(true)
	defer h.port.SetReset(false)
	if err := h.port.waitFor(ctx, func(v *portView) bool { return v.resets > before }); err != nil {
		return fmt.Errorf("hd44780ctl: waiting for reset: %w", err)
	}
	return nil
}
