// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780ctl

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Port is the register pair shared between a host and the tick loop.
//
// The host writes the control word; the tick loop samples it once per tick
// and publishes the status word back. It is safe for concurrent use.
type Port struct {
	ctrl atomic.Uint32

	mu      sync.Mutex
	status  Word
	life    Lifecycle
	served  Command
	done    [GotoLine2 + 1]uint64
	resets  uint64
	changed chan struct{}

	// owner is held by a Host for a whole handshake, so Hosts sharing the
	// port never interleave their request lines or character.
	owner chan struct{}
}

// NewPort returns a Port with every line deasserted.
func NewPort() *Port {
	return &Port{changed: make(chan struct{}), owner: make(chan struct{}, 1)}
}

func (p *Port) acquire(ctx context.Context) error {
	select {
	case p.owner <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Port) release() {
	<-p.owner
}

// WriteControl replaces the control word. The busy bit is ignored.
func (p *Port) WriteControl(w Word) {
	p.ctrl.Store(uint32(w &^ BusyBit))
}

// Control returns the control word as the host last wrote it.
func (p *Port) Control() Word {
	return Word(p.ctrl.Load())
}

// SetRequest asserts the request lines in r.
func (p *Port) SetRequest(r Request) {
	p.update(func(w Word) Word { return w | Word(r&requestMask) })
}

// ClearRequest deasserts the request lines in r.
func (p *Port) ClearRequest(r Request) {
	p.update(func(w Word) Word { return w &^ Word(r&requestMask) })
}

// SetChar places b on the character code bits.
func (p *Port) SetChar(b byte) {
	p.update(func(w Word) Word { return (w &^ CharMask) | Word(b) })
}

// SetReset drives the reset line.
func (p *Port) SetReset(on bool) {
	p.update(func(w Word) Word {
		if on {
			return w | ResetBit
		}
		return w &^ ResetBit
	})
}

func (p *Port) update(f func(Word) Word) {
	for {
		old := p.ctrl.Load()
		if p.ctrl.CompareAndSwap(old, uint32(f(Word(old))&^BusyBit)) {
			return
		}
	}
}

// Status returns the status word published by the last tick.
func (p *Port) Status() Word {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Lifecycle returns the lifecycle state published by the last tick.
func (p *Port) Lifecycle() Lifecycle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.life
}

// Publish records the outcome of a tick. It is called by the tick loop.
func (p *Port) Publish(status Word, s Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	changed := status != p.status || s.Lifecycle != p.life || s.Served != p.served
	p.status = status
	p.life = s.Lifecycle
	p.served = s.Served
	if s.Completed != Idle && int(s.Completed) < len(p.done) {
		p.done[s.Completed]++
		changed = true
	}
	if s.Reset {
		p.resets++
		changed = true
	}
	if changed {
		close(p.changed)
		p.changed = make(chan struct{})
	}
}

type portView struct {
	status  Word
	served  Command
	done    [GotoLine2 + 1]uint64
	resets  uint64
	changed <-chan struct{}
}

func (p *Port) view() portView {
	p.mu.Lock()
	defer p.mu.Unlock()
	return portView{status: p.status, served: p.served, done: p.done, resets: p.resets, changed: p.changed}
}

// waitFor blocks until cond holds for a published view.
func (p *Port) waitFor(ctx context.Context, cond func(v *portView) bool) error {
	for {
		v := p.view()
		if cond(&v) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-v.changed:
		}
	}
}

func (p *Port) String() string {
	return fmt.Sprintf("Port{ctrl=%s status=%s}", p.Control(), p.Status())
}
