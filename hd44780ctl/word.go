// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780ctl

import (
	"fmt"
	"strings"
)

// Word is the host facing control/status register.
//
//	Bits 0-7 - Character code, consumed by WriteChar
//	Bit 8    - Init request
//	Bit 9    - Write character request
//	Bit 10   - Clear/home request
//	Bit 11   - Goto line 1 request
//	Bit 12   - Goto line 2 request
//	Bit 13   - Busy (read only, driven by the controller)
//	Bit 14   - Synchronous reset
type Word uint16

// Request is the set of request lines carried in bits 8-12 of a Word.
type Request uint16

// The request lines, in descending arbitration priority.
const (
	ReqInit      Request = 1 << 8
	ReqWriteChar Request = 1 << 9
	ReqClearHome Request = 1 << 10
	ReqGotoLine1 Request = 1 << 11
	ReqGotoLine2 Request = 1 << 12

	requestMask = ReqInit | ReqWriteChar | ReqClearHome | ReqGotoLine1 | ReqGotoLine2
)

const (
	// CharMask selects the character code bits.
	CharMask Word = 0x00ff
	// BusyBit is set in the status word while a command is in flight.
	BusyBit Word = 1 << 13
	// ResetBit drives the synchronous reset line.
	ResetBit Word = 1 << 14
)

var requestNames = []struct {
	r    Request
	name string
}{
	{ReqInit, "init"},
	{ReqWriteChar, "write"},
	{ReqClearHome, "clear"},
	{ReqGotoLine1, "line1"},
	{ReqGotoLine2, "line2"},
}

// ParseRequest returns the request line for a short name as printed by
// Request.String.
func ParseRequest(name string) (Request, error) {
	for _, rn := range requestNames {
		if rn.name == name {
			return rn.r, nil
		}
	}
	return 0, fmt.Errorf("hd44780ctl: unknown request %q", name)
}

// Has reports whether every line in o is asserted in r.
func (r Request) Has(o Request) bool {
	return o != 0 && r&o == o
}

func (r Request) String() string {
	if r&requestMask == 0 {
		return "none"
	}
	var names []string
	for _, rn := range requestNames {
		if r.Has(rn.r) {
			names = append(names, rn.name)
		}
	}
	return strings.Join(names, "|")
}

// Char returns the character code bits.
func (w Word) Char() byte {
	return byte(w & CharMask)
}

// Requests returns the asserted request lines.
func (w Word) Requests() Request {
	return Request(w) & requestMask
}

// Busy reports whether the busy status bit is set.
func (w Word) Busy() bool {
	return w&BusyBit != 0
}

// Reset reports whether the reset line is asserted.
func (w Word) Reset() bool {
	return w&ResetBit != 0
}

// Inputs decodes the word into the controller's sampled inputs.
func (w Word) Inputs() Inputs {
	return Inputs{Char: w.Char(), Requests: w.Requests(), Reset: w.Reset()}
}

func (w Word) String() string {
	return fmt.Sprintf("Word{char=0x%02x req=%s busy=%t reset=%t}", w.Char(), w.Requests(), w.Busy(), w.Reset())
}

// Inputs is what the controller samples on every tick.
type Inputs struct {
	Char     byte
	Requests Request
	Reset    bool
}

// Word encodes the inputs back into a control word. The busy bit is never
// set.
func (in Inputs) Word() Word {
	w := Word(in.Char) | Word(in.Requests&requestMask)
	if in.Reset {
		w |= ResetBit
	}
	return w
}
