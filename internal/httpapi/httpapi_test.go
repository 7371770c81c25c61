// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/GermanBionicSystems/lcd/hd44780ctl"
	"github.com/GermanBionicSystems/lcd/lcdmetrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, clocked bool) *httptest.Server {
	t.Helper()
	srv, _ := newServerRunner(t, clocked)
	return srv
}

func newServerRunner(t *testing.T, clocked bool) (*httptest.Server, *hd44780ctl.Runner) {
	t.Helper()
	ctl, err := hd44780ctl.New(nil)
	require.NoError(t, err)
	port := hd44780ctl.NewPort()
	r := hd44780ctl.NewRunner(ctl, port, 20*time.Microsecond, nil)
	tracker := &Tracker{}
	r.AddObserver(tracker)

	reg := prometheus.NewRegistry()
	m := lcdmetrics.New("lcd")
	require.NoError(t, m.Register(reg))
	r.AddObserver(m)

	if clocked {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			_ = r.Run(ctx)
			close(done)
		}()
		t.Cleanup(func() {
			cancel()
			<-done
		})
	}

	s := New(port, tracker, reg, nil)
	s.Timeout = 2 * time.Second
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv, r
}

func post(t *testing.T, url string) (int, map[string]string) {
	t.Helper()
	resp, err := http.Post(url, "", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestCommands(t *testing.T) {
	srv := newServer(t, true)

	code, body := post(t, srv.URL+"/commands/init")
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "init", body["command"])

	code, _ = post(t, srv.URL+"/commands/write?char=Q")
	require.Equal(t, http.StatusOK, code)

	resp, err := http.Get(srv.URL + "/status")
	require.NoError(t, err)
	var st Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	resp.Body.Close()
	assert.Equal(t, "Operational", st.Lifecycle)
	assert.Equal(t, byte('Q'), st.Data)
	assert.False(t, st.Busy)

	code, _ = post(t, srv.URL+"/commands/write?code=0x42")
	assert.Equal(t, http.StatusOK, code)
	code, _ = post(t, srv.URL+"/commands/line2")
	assert.Equal(t, http.StatusOK, code)

	code, _ = post(t, srv.URL+"/reset")
	assert.Equal(t, http.StatusOK, code)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(raw), `lcd_commands_completed_total{command="WriteChar"} 2`)
	assert.Contains(t, string(raw), "lcd_resets_total")
}

func TestBadRequests(t *testing.T) {
	srv := newServer(t, true)
	for _, path := range []string{"/commands/scroll", "/commands/write?char=AB", "/commands/write?code=300"} {
		code, body := post(t, srv.URL+path)
		assert.Equal(t, http.StatusBadRequest, code, path)
		assert.NotEmpty(t, body["error"], path)
	}

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTimeout(t *testing.T) {
	srv := newServer(t, false)
	code, body := post(t, srv.URL+"/commands/init")
	assert.Equal(t, http.StatusGatewayTimeout, code)
	assert.Contains(t, body["error"], "Initialize")
}

func TestNotInitialized(t *testing.T) {
	srv := newServer(t, false)
	start := time.Now()
	code, body := post(t, srv.URL+"/commands/clear")
	assert.Equal(t, http.StatusConflict, code)
	assert.Contains(t, body["error"], "ClearHome")
	assert.Less(t, time.Since(start), time.Second)
}

func TestConcurrentWrites(t *testing.T) {
	srv, r := newServerRunner(t, false)
	var mu sync.Mutex
	var chars []byte
	r.AddObserver(hd44780ctl.ObserverFunc(func(s hd44780ctl.Snapshot) {
		if s.Completed == hd44780ctl.WriteChar {
			mu.Lock()
			chars = append(chars, s.Signals.Data)
			mu.Unlock()
		}
	}))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = r.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	code, _ := post(t, srv.URL+"/commands/init")
	require.Equal(t, http.StatusOK, code)

	codes := make([]int, 2)
	var wg sync.WaitGroup
	for i, c := range []string{"A", "B"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := http.Post(srv.URL+"/commands/write?char="+c, "", nil)
			if err != nil {
				return
			}
			resp.Body.Close()
			codes[i] = resp.StatusCode
		}()
	}
	wg.Wait()
	assert.Equal(t, []int{http.StatusOK, http.StatusOK}, codes)

	mu.Lock()
	defer mu.Unlock()
	got := append([]byte{}, chars...)
	slices.Sort(got)
	assert.Equal(t, "AB", string(got))
}
