// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package waveform

import (
	"errors"
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/GermanBionicSystems/lcd/hd44780ctl"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
	"periph.io/x/conn/v3/gpio"
)

// ErrEmpty is returned when rendering a Recorder that saw no tick.
var ErrEmpty = errors.New("waveform: nothing recorded")

// DefaultCapacity is the number of ticks a Recorder keeps when none is
// specified.
const DefaultCapacity = 4096

// Recorder keeps the most recent snapshots in a ring.
//
// Implements hd44780ctl.Observer. It is safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	ring  []hd44780ctl.Snapshot
	next  int
	count int
}

// NewRecorder returns a Recorder keeping up to capacity ticks.
func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Recorder{ring: make([]hd44780ctl.Snapshot, capacity)}
}

// Observe implements hd44780ctl.Observer.
func (r *Recorder) Observe(s hd44780ctl.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ring[r.next] = s
	r.next = (r.next + 1) % len(r.ring)
	if r.count < len(r.ring) {
		r.count++
	}
}

// Snapshots returns the recorded ticks, oldest first.
func (r *Recorder) Snapshots() []hd44780ctl.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]hd44780ctl.Snapshot, 0, r.count)
	start := (r.next - r.count + len(r.ring)) % len(r.ring)
	for i := range r.count {
		out = append(out, r.ring[(start+i)%len(r.ring)])
	}
	return out
}

// Clear drops every recorded tick.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next = 0
	r.count = 0
}

func (r *Recorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fmt.Sprintf("waveform.Recorder{%d/%d}", r.count, len(r.ring))
}

// Layout of the timing diagram, in pixels.
const (
	labelWidth = 48
	tickWidth  = 8
	laneHeight = 36
	margin     = 8
	fontSize   = 11
)

type lane struct {
	name  string
	level func(s *hd44780ctl.Snapshot) bool
}

var lanes = []lane{
	{"E", func(s *hd44780ctl.Snapshot) bool { return s.Signals.E == gpio.High }},
	{"RS", func(s *hd44780ctl.Snapshot) bool { return s.Signals.RS == gpio.High }},
	{"BUSY", func(s *hd44780ctl.Snapshot) bool { return s.Busy }},
}

// Bounds returns the size of the diagram Render would draw for n ticks.
func Bounds(n int) image.Rectangle {
	return image.Rect(0, 0, labelWidth+n*tickWidth+margin, 2*margin+(len(lanes)+1)*laneHeight)
}

// Render draws the recorded ticks as a timing diagram: one trace per control
// line and a bus lane labelled with the data byte.
func (r *Recorder) Render() (image.Image, error) {
	dc, err := r.draw()
	if err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

// WritePNG renders the diagram and encodes it as PNG.
func (r *Recorder) WritePNG(w io.Writer) error {
	dc, err := r.draw()
	if err != nil {
		return err
	}
	return dc.EncodePNG(w)
}

func (r *Recorder) draw() (*gg.Context, error) {
	snaps := r.Snapshots()
	if len(snaps) == 0 {
		return nil, ErrEmpty
	}
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("waveform: %w", err)
	}
	b := Bounds(len(snaps))
	dc := gg.NewContext(b.Dx(), b.Dy())
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetFontFace(truetype.NewFace(f, &truetype.Options{Size: fontSize}))

	for i, l := range lanes {
		top := float64(margin + i*laneHeight)
		hi, lo := top+6, top+laneHeight-6
		dc.SetRGB(0, 0, 0)
		dc.DrawStringAnchored(l.name, 4, top+laneHeight/2, 0, 0.5)

		dc.SetRGB(0.1, 0.5, 0.1)
		dc.SetLineWidth(1.5)
		x := float64(labelWidth)
		y := lo
		if l.level(&snaps[0]) {
			y = hi
		}
		dc.MoveTo(x, y)
		for j := range snaps {
			ny := lo
			if l.level(&snaps[j]) {
				ny = hi
			}
			if ny != y {
				dc.LineTo(x, ny)
				y = ny
			}
			x += tickWidth
			dc.LineTo(x, y)
		}
		dc.Stroke()
	}

	// Bus lane: a band per run of identical data, labelled when it fits.
	top := float64(margin + len(lanes)*laneHeight)
	hi, lo := top+6, top+laneHeight-6
	dc.SetRGB(0, 0, 0)
	dc.DrawStringAnchored("DATA", 4, top+laneHeight/2, 0, 0.5)
	for start := 0; start < len(snaps); {
		end := start + 1
		for end < len(snaps) && snaps[end].Signals.Data == snaps[start].Signals.Data {
			end++
		}
		x0 := float64(labelWidth + start*tickWidth)
		x1 := float64(labelWidth + end*tickWidth)
		dc.SetRGB(0.1, 0.3, 0.7)
		dc.SetLineWidth(1)
		dc.DrawLine(x0, hi, x1, hi)
		dc.DrawLine(x0, lo, x1, lo)
		dc.DrawLine(x0, hi, x0, lo)
		dc.Stroke()
		label := fmt.Sprintf("%02X", snaps[start].Signals.Data)
		if w, _ := dc.MeasureString(label); w+4 < x1-x0 {
			dc.SetRGB(0, 0, 0)
			dc.DrawStringAnchored(label, (x0+x1)/2, top+laneHeight/2, 0.5, 0.5)
		}
		start = end
	}
	return dc, nil
}

var _ hd44780ctl.Observer = &Recorder{}
