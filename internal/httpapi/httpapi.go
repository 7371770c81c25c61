// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package httpapi serves the controller status, host commands and metrics
// over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/GermanBionicSystems/lcd/hd44780ctl"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Tracker keeps the latest Snapshot for the status endpoint.
//
// Implements hd44780ctl.Observer.
type Tracker struct {
	mu   sync.Mutex
	last hd44780ctl.Snapshot
}

// Observe implements hd44780ctl.Observer.
func (t *Tracker) Observe(s hd44780ctl.Snapshot) {
	t.mu.Lock()
	t.last = s
	t.mu.Unlock()
}

// Last returns the latest snapshot.
func (t *Tracker) Last() hd44780ctl.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

// Status is the JSON body of GET /status.
type Status struct {
	Tick      uint64 `json:"tick"`
	Lifecycle string `json:"lifecycle"`
	Command   string `json:"command"`
	Busy      bool   `json:"busy"`
	Data      byte   `json:"data"`
	RS        bool   `json:"rs"`
	E         bool   `json:"e"`
	Control   uint16 `json:"control"`
	StatusReg uint16 `json:"status"`
}

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	port     *hd44780ctl.Port
	host     *hd44780ctl.Host
	tracker  *Tracker
	gatherer prometheus.Gatherer
	log      *slog.Logger
	// Timeout bounds how long a command request waits for completion.
	Timeout time.Duration
}

// New returns a Server. gatherer may be nil to disable /metrics; log may be
// nil.
func New(port *hd44780ctl.Port, tracker *Tracker, gatherer prometheus.Gatherer, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Server{
		port:     port,
		host:     hd44780ctl.NewHost(port),
		tracker:  tracker,
		gatherer: gatherer,
		log:      log,
		Timeout:  5 * time.Second,
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Get("/status", s.status)
	r.Post("/commands/{name}", s.command)
	r.Post("/reset", s.reset)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func (s *Server) status(w http.ResponseWriter, _ *http.Request) {
	snap := s.tracker.Last()
	writeJSON(w, http.StatusOK, Status{
		Tick:      snap.Tick,
		Lifecycle: snap.Lifecycle.String(),
		Command:   snap.Command.String(),
		Busy:      snap.Busy,
		Data:      snap.Signals.Data,
		RS:        bool(snap.Signals.RS),
		E:         bool(snap.Signals.E),
		Control:   uint16(s.port.Control()),
		StatusReg: uint16(s.port.Status()),
	})
}

func (s *Server) command(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	req, err := hd44780ctl.ParseRequest(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	char, err := parseChar(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.Timeout)
	defer cancel()
	if err := s.host.Do(ctx, req, char); err != nil {
		s.log.Error("command failed", "command", name, "err", err)
		writeError(w, statusFor(err), err)
		return
	}
	s.log.Debug("command done", "command", name, "char", char)
	writeJSON(w, http.StatusOK, map[string]string{"command": req.String()})
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.Timeout)
	defer cancel()
	if err := s.host.Reset(ctx); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"command": "reset"})
}

// parseChar reads the character from ?char=A or ?code=0x41.
func parseChar(r *http.Request) (byte, error) {
	q := r.URL.Query()
	if c := q.Get("char"); c != "" {
		if len(c) != 1 {
			return 0, errors.New("char must be a single byte")
		}
		return c[0], nil
	}
	if c := q.Get("code"); c != "" {
		v, err := strconv.ParseUint(c, 0, 8)
		if err != nil {
			return 0, err
		}
		return byte(v), nil
	}
	return 0, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, hd44780ctl.ErrNotInitialized):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
