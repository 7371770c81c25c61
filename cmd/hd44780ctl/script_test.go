// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/GermanBionicSystems/lcd/hd44780ctl"
	"github.com/GermanBionicSystems/lcd/waveform"
	"github.com/google/go-cmp/cmp"
)

func TestParseScript(t *testing.T) {
	got, err := parseScript([]string{"init", "write:A", "write:0x7e", "text:ok", "clear", "line1", "line2", "reset", "wait:4"})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"init", "write:'A'", "write:'~'", "write:'o'", "write:'k'", "clear", "line1", "line2", "reset", "wait:4"}
	var names []string
	for _, a := range got {
		names = append(names, a.String())
	}
	if diff := cmp.Diff(names, want); diff != "" {
		t.Fatalf("parseScript() (-got +want):\n%s", diff)
	}
}

func TestParseScript_Errors(t *testing.T) {
	for _, tok := range []string{"bogus", "write", "write:", "write:AB", "write:0xzz", "clear:1", "wait:0", "wait:x"} {
		if _, err := parseScript([]string{tok}); err == nil {
			t.Errorf("parseScript(%q) succeeded", tok)
		}
	}
}

func newTestRunner(t *testing.T) (*hd44780ctl.Runner, *waveform.Recorder) {
	t.Helper()
	opts := hd44780ctl.Opts{Rows: 2, Cols: 16, StartupTicks: 3, LongWaitTicks: 2, ShortWaitTicks: 1, PulseTicks: 2}
	ctl, err := hd44780ctl.New(&opts)
	if err != nil {
		t.Fatal(err)
	}
	r := hd44780ctl.NewRunner(ctl, hd44780ctl.NewPort(), 0, nil)
	rec := waveform.NewRecorder(0)
	r.AddObserver(rec)
	return r, rec
}

func TestRunScript(t *testing.T) {
	r, rec := newTestRunner(t)
	actions, err := parseScript([]string{"init", "text:Hi", "line2", "clear", "reset", "wait:3"})
	if err != nil {
		t.Fatal(err)
	}
	if err := runScript(r, actions, 1000); err != nil {
		t.Fatal(err)
	}

	var done []hd44780ctl.Command
	var chars []byte
	resets := 0
	for _, s := range rec.Snapshots() {
		if s.Completed != hd44780ctl.Idle {
			done = append(done, s.Completed)
		}
		if s.Completed == hd44780ctl.WriteChar {
			chars = append(chars, s.Signals.Data)
		}
		if s.Reset {
			resets++
		}
	}
	want := []hd44780ctl.Command{hd44780ctl.Initialize, hd44780ctl.WriteChar, hd44780ctl.WriteChar, hd44780ctl.GotoLine2, hd44780ctl.ClearHome}
	if diff := cmp.Diff(done, want); diff != "" {
		t.Fatalf("completed (-got +want):\n%s", diff)
	}
	if string(chars) != "Hi" {
		t.Fatalf("chars = %q, want %q", chars, "Hi")
	}
	if resets != 1 {
		t.Fatalf("resets = %d, want 1", resets)
	}
	if l := r.Controller().Lifecycle(); l != hd44780ctl.Off {
		t.Fatalf("lifecycle = %s, want Off", l)
	}
	if c := r.Port().Control(); c.Requests() != 0 || c.Reset() {
		t.Fatalf("control left asserted: %s", c)
	}
}

func TestRunScript_Limit(t *testing.T) {
	r, _ := newTestRunner(t)
	// The controller ignores commands until it is initialized.
	err := runScript(r, []action{{req: hd44780ctl.ReqClearHome}}, 10)
	if !errors.Is(err, errTooLong) {
		t.Fatalf("runScript() = %v, want %v", err, errTooLong)
	}
}

func TestSimCommand(t *testing.T) {
	dir := t.TempDir()
	png := filepath.Join(dir, "wave.png")
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	cfgPath := filepath.Join(dir, "hd44780ctl.yaml")
	rootCmd.SetArgs([]string{"--config", cfgPath, "--log-level", "warn", "sim", "--png", png, "init", "write:H"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("sim: %v\nstderr: %s", err, errOut.String())
	}
	for _, want := range []string{"done Initialize", "done WriteChar"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output lacks %q:\n%s", want, out.String())
		}
	}
	if fi, err := os.Stat(png); err != nil || fi.Size() == 0 {
		t.Fatalf("png not written: %v", err)
	}
	if _, err := os.Stat(cfgPath); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("sim wrote %s: %v", cfgPath, err)
	}
}
