// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780ctl

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Sink receives the panel signals after every tick.
//
// hd44780.Panel is the Sink that drives real GPIO lines.
type Sink interface {
	Apply(s Signals) error
}

// Observer is notified of every tick's Snapshot.
type Observer interface {
	Observe(s Snapshot)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(s Snapshot)

// Observe implements Observer.
func (f ObserverFunc) Observe(s Snapshot) {
	f(s)
}

// Runner clocks a Controller. On every tick it samples the Port control word,
// evaluates the Controller, forwards the signals to the sinks and the
// snapshot to the observers, then publishes the status word.
type Runner struct {
	ctl       *Controller
	port      *Port
	period    time.Duration
	sinks     []Sink
	observers []Observer
	log       *slog.Logger
}

// NewRunner returns a Runner ticking ctl every period. log may be nil.
func NewRunner(ctl *Controller, port *Port, period time.Duration, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Runner{ctl: ctl, port: port, period: period, log: log}
}

// AddSink registers a Sink. It must be called before Run.
func (r *Runner) AddSink(s Sink) {
	r.sinks = append(r.sinks, s)
}

// AddObserver registers an Observer. It must be called before Run.
func (r *Runner) AddObserver(o Observer) {
	r.observers = append(r.observers, o)
}

// Controller returns the clocked controller.
func (r *Runner) Controller() *Controller {
	return r.ctl
}

// Port returns the host port sampled by the runner.
func (r *Runner) Port() *Port {
	return r.port
}

// Step evaluates a single tick.
func (r *Runner) Step() (Snapshot, error) {
	prev := r.ctl.Lifecycle()
	ctrl := r.port.Control()
	s := r.ctl.Tick(ctrl.Inputs())
	// The host sees the status last, once the panel and observers are
	// up to date.
	defer r.port.Publish(r.ctl.Status(ctrl), s)

	if s.Lifecycle != prev {
		r.log.Debug("lifecycle", "tick", s.Tick, "from", prev, "to", s.Lifecycle)
	}
	if s.Aborted != Idle {
		r.log.Debug("command aborted", "tick", s.Tick, "command", s.Aborted, "by", s.Command)
	}
	if s.Completed != Idle {
		r.log.Debug("command completed", "tick", s.Tick, "command", s.Completed)
	}

	for _, sink := range r.sinks {
		if err := sink.Apply(s.Signals); err != nil {
			return s, fmt.Errorf("hd44780ctl: tick %d: %w", s.Tick, err)
		}
	}
	for _, o := range r.observers {
		o.Observe(s)
	}
	return s, nil
}

// StepN evaluates n ticks back to back and returns the last snapshot.
func (r *Runner) StepN(n int) (Snapshot, error) {
	s := r.ctl.Snapshot()
	for range n {
		var err error
		if s, err = r.Step(); err != nil {
			return s, err
		}
	}
	return s, nil
}

// Run ticks the controller every period until ctx is done or a sink fails.
// It returns ctx.Err() on cancellation.
func (r *Runner) Run(ctx context.Context) error {
	if r.period <= 0 {
		return fmt.Errorf("hd44780ctl: tick period must be positive, got %s", r.period)
	}
	t := time.NewTicker(r.period)
	defer t.Stop()
	r.log.Info("controller running", "period", r.period, "opts", r.ctl.opts.String())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if _, err := r.Step(); err != nil {
				r.log.Error("tick failed", "err", err)
				return err
			}
		}
	}
}
