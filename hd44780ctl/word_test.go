// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780ctl

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWordBits(t *testing.T) {
	w := Word(0x2141) | ResetBit
	want := Inputs{Char: 0x41, Requests: ReqInit, Reset: true}
	if diff := cmp.Diff(w.Inputs(), want); diff != "" {
		t.Errorf("Inputs() difference (-got +want):\n%s", diff)
	}
	if !w.Busy() {
		t.Error("bit 13 should read as busy")
	}
	if got := want.Word(); got != w&^BusyBit {
		t.Errorf("Word() = %#04x, want %#04x", uint16(got), uint16(w&^BusyBit))
	}
}

func TestRequestNames(t *testing.T) {
	for _, c := range Commands {
		r := c.Request()
		got, err := ParseRequest(r.String())
		if err != nil {
			t.Fatal(err)
		}
		if got != r {
			t.Errorf("ParseRequest(%q) = %s, want %s", r.String(), got, r)
		}
	}
	if _, err := ParseRequest("scroll"); err == nil {
		t.Error("ParseRequest(scroll) should fail")
	}
	if s := (ReqInit | ReqGotoLine2).String(); s != "init|line2" {
		t.Errorf("String() = %q", s)
	}
	if s := Request(0).String(); s != "none" {
		t.Errorf("String() = %q", s)
	}
	if Idle.Request() != 0 {
		t.Error("Idle has no request line")
	}
}
