// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780ctl

import "fmt"

// Lifecycle is the top level state of the controller.
type Lifecycle uint8

// Possible lifecycle states.
const (
	Off Lifecycle = iota
	Starting
	Operational
)

func (l Lifecycle) String() string {
	switch l {
	case Off:
		return "Off"
	case Starting:
		return "Starting"
	case Operational:
		return "Operational"
	default:
		return fmt.Sprintf("Lifecycle(%d)", uint8(l))
	}
}

// Command is the single command owned by the controller.
type Command uint8

// Possible commands. Idle means nothing is in flight.
const (
	Idle Command = iota
	Initialize
	WriteChar
	ClearHome
	GotoLine1
	GotoLine2
)

// Commands lists every non idle command in arbitration priority order.
var Commands = []Command{Initialize, WriteChar, ClearHome, GotoLine1, GotoLine2}

func (c Command) String() string {
	switch c {
	case Idle:
		return "Idle"
	case Initialize:
		return "Initialize"
	case WriteChar:
		return "WriteChar"
	case ClearHome:
		return "ClearHome"
	case GotoLine1:
		return "GotoLine1"
	case GotoLine2:
		return "GotoLine2"
	default:
		return fmt.Sprintf("Command(%d)", uint8(c))
	}
}

// Request returns the request line that selects c.
func (c Command) Request() Request {
	for _, p := range priority {
		if p.cmd == c {
			return p.req
		}
	}
	return 0
}

// priority is the fixed arbitration table, highest first.
var priority = []struct {
	req Request
	cmd Command
}{
	{ReqInit, Initialize},
	{ReqWriteChar, WriteChar},
	{ReqClearHome, ClearHome},
	{ReqGotoLine1, GotoLine1},
	{ReqGotoLine2, GotoLine2},
}

// Command returns the command the lines in r select, following the
// arbitration priority.
func (r Request) Command() Command {
	return arbitrate(r, Idle)
}

// arbitrate returns the highest priority command whose line is asserted in
// r, skipping the command in skip. It returns Idle when none qualifies.
func arbitrate(r Request, skip Command) Command {
	for _, p := range priority {
		if p.cmd != skip && r.Has(p.req) {
			return p.cmd
		}
	}
	return Idle
}

// InitStep is the position inside the power-up initialization sequence.
type InitStep uint8

// Init0 is the first step; the sequence ends after Init6.
const (
	Init0 InitStep = iota
	Init1
	Init2
	Init3
	Init4
	Init5
	Init6
)

func (s InitStep) String() string {
	return fmt.Sprintf("Init%d", uint8(s))
}

type waitKind uint8

const (
	shortWait waitKind = iota
	longWait
)

// initSequence is the command mode pattern sent at each step, and the wait
// that precedes its enable pulse.
var initSequence = [...]struct {
	data byte
	wait waitKind
}{
	Init0: {0x30, longWait},
	Init1: {0x30, shortWait},
	Init2: {0x30, shortWait},
	Init3: {0x08, shortWait},
	Init4: {0x01, shortWait},
	Init5: {0x05, shortWait},
	Init6: {0x0D, shortWait},
}

// InitPatterns returns the data bytes of the initialization sequence in the
// order they are sent.
func InitPatterns() []byte {
	out := make([]byte, len(initSequence))
	for i, s := range initSequence {
		out[i] = s.data
	}
	return out
}

// next returns the following step and whether the sequence wrapped.
func (s InitStep) next() (InitStep, bool) {
	if int(s) >= len(initSequence)-1 {
		return Init0, true
	}
	return s + 1, false
}

// pulseCommand describes the panel transfer of a single pulse command.
type pulseCommand struct {
	rs   bool
	data func(in Inputs) byte
}

func fixed(b byte) func(Inputs) byte {
	return func(Inputs) byte { return b }
}

var pulseCommands = map[Command]pulseCommand{
	WriteChar: {rs: true, data: func(in Inputs) byte { return in.Char }},
	ClearHome: {rs: true, data: fixed(0x01)},
	GotoLine1: {rs: false, data: fixed(0x80)},
	GotoLine2: {rs: false, data: fixed(0xC0)},
}
