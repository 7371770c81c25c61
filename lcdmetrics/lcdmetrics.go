// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lcdmetrics exports the activity of an hd44780ctl.Controller as
// Prometheus metrics.
package lcdmetrics

import (
	"github.com/GermanBionicSystems/lcd/hd44780ctl"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector counts ticks and commands. Register it with a
// prometheus.Registerer and add it to a Runner as an Observer.
type Collector struct {
	ticks     prometheus.Counter
	resets    prometheus.Counter
	latched   *prometheus.CounterVec
	completed *prometheus.CounterVec
	aborted   *prometheus.CounterVec
	busy      prometheus.Gauge
	lifecycle prometheus.Gauge
}

// New returns a Collector whose metrics are prefixed with namespace.
func New(namespace string) *Collector {
	return &Collector{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Number of controller ticks evaluated.",
		}),
		resets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resets_total",
			Help:      "Number of ticks with the reset line asserted.",
		}),
		latched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_latched_total",
			Help:      "Number of commands latched, by command.",
		}, []string{"command"}),
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_completed_total",
			Help:      "Number of commands completed, by command.",
		}, []string{"command"}),
		aborted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_aborted_total",
			Help:      "Number of commands preempted or released before completion, by command.",
		}, []string{"command"}),
		busy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "busy",
			Help:      "1 while the controller reports busy.",
		}),
		lifecycle: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "lifecycle",
			Help:      "Lifecycle state: 0 Off, 1 Starting, 2 Operational.",
		}),
	}
}

// Register registers every metric with reg.
func (c *Collector) Register(reg prometheus.Registerer) error {
	for _, m := range []prometheus.Collector{c.ticks, c.resets, c.latched, c.completed, c.aborted, c.busy, c.lifecycle} {
		if err := reg.Register(m); err != nil {
			return err
		}
	}
	return nil
}

// Observe implements hd44780ctl.Observer.
func (c *Collector) Observe(s hd44780ctl.Snapshot) {
	c.ticks.Inc()
	if s.Reset {
		c.resets.Inc()
	}
	if s.Latched != hd44780ctl.Idle {
		c.latched.WithLabelValues(s.Latched.String()).Inc()
	}
	if s.Completed != hd44780ctl.Idle {
		c.completed.WithLabelValues(s.Completed.String()).Inc()
	}
	if s.Aborted != hd44780ctl.Idle {
		c.aborted.WithLabelValues(s.Aborted.String()).Inc()
	}
	if s.Busy {
		c.busy.Set(1)
	} else {
		c.busy.Set(0)
	}
	c.lifecycle.Set(float64(s.Lifecycle))
}

var _ hd44780ctl.Observer = &Collector{}
