// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/GermanBionicSystems/lcd/hd44780ctl"
)

// action is one entry of a simulation script.
type action struct {
	req   hd44780ctl.Request
	char  byte
	reset bool
	wait  int
}

func (a action) String() string {
	switch {
	case a.reset:
		return "reset"
	case a.wait > 0:
		return fmt.Sprintf("wait:%d", a.wait)
	case a.req == hd44780ctl.ReqWriteChar:
		return fmt.Sprintf("write:%q", a.char)
	default:
		return a.req.String()
	}
}

var errTooLong = errors.New("tick limit reached")

// parseScript parses tokens such as "init", "write:A", "write:0x41", "clear",
// "line1", "line2", "reset" and "wait:10". A "text:..." token expands to one
// write per character.
func parseScript(tokens []string) ([]action, error) {
	var out []action
	for _, tok := range tokens {
		name, arg, hasArg := strings.Cut(tok, ":")
		switch name {
		case "reset":
			out = append(out, action{reset: true})
			continue
		case "wait":
			n, err := strconv.Atoi(arg)
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("%q: wait needs a positive tick count", tok)
			}
			out = append(out, action{wait: n})
			continue
		case "text":
			for i := 0; i < len(arg); i++ {
				out = append(out, action{req: hd44780ctl.ReqWriteChar, char: arg[i]})
			}
			continue
		}
		req, err := hd44780ctl.ParseRequest(name)
		if err != nil {
			return nil, err
		}
		a := action{req: req}
		if req == hd44780ctl.ReqWriteChar {
			if !hasArg || arg == "" {
				return nil, fmt.Errorf("%q: write needs a character", tok)
			}
			if a.char, err = parseChar(arg); err != nil {
				return nil, fmt.Errorf("%q: %w", tok, err)
			}
		} else if hasArg {
			return nil, fmt.Errorf("%q: %s takes no argument", tok, name)
		}
		out = append(out, a)
	}
	return out, nil
}

// parseChar accepts a single character or a 0x prefixed code.
func parseChar(s string) (byte, error) {
	if len(s) == 1 {
		return s[0], nil
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseUint(s[2:], 16, 8)
		if err != nil {
			return 0, fmt.Errorf("bad character code: %w", err)
		}
		return byte(v), nil
	}
	return 0, fmt.Errorf("want one character or a 0x code, got %q", s)
}

// runScript plays the actions against r synchronously, performing the host
// handshake between ticks. limit bounds the ticks spent on any single action.
func runScript(r *hd44780ctl.Runner, actions []action, limit int) error {
	port := r.Port()
	for _, a := range actions {
		switch {
		case a.wait > 0:
			if _, err := r.StepN(a.wait); err != nil {
				return err
			}
		case a.reset:
			port.ClearRequest(^hd44780ctl.Request(0))
			port.SetReset(true)
			_, err := r.Step()
			port.SetReset(false)
			if err != nil {
				return err
			}
		default:
			cmd := a.req.Command()
			ready := func(s hd44780ctl.Snapshot) bool { return !s.Busy && s.Served != cmd }
			if err := stepUntil(r, limit, ready); err != nil {
				return fmt.Errorf("%s: waiting for idle: %w", a, err)
			}
			if a.req == hd44780ctl.ReqWriteChar {
				port.SetChar(a.char)
			}
			port.SetRequest(a.req)
			done := func(s hd44780ctl.Snapshot) bool { return s.Completed == cmd }
			err := stepUntil(r, limit, done)
			port.ClearRequest(a.req)
			if err != nil {
				return fmt.Errorf("%s: %w", a, err)
			}
		}
	}
	return nil
}

// stepUntil ticks r at least once, until cond holds for the latest snapshot.
func stepUntil(r *hd44780ctl.Runner, limit int, cond func(hd44780ctl.Snapshot) bool) error {
	for range limit {
		s, err := r.Step()
		if err != nil {
			return err
		}
		if cond(s) {
			return nil
		}
	}
	return errTooLong
}
