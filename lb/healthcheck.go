/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package lb

import (
	"context"
	"sync"
	"time"

	"github.com/nabbar/gorelay/httpcli"
)

// HealthChecker drives the active half of a Server's health state: a
// periodic HTTP HEAD probe per server (httpcli.NewClient(...).Check,
// a reachability-only primitive) feeding
// Server.SetHealth's rise/fall accrual. Nothing else in this tree
// issues outbound health-check traffic; load-balancing and queueing
// only ever read Healthy(), never probe it themselves.
type HealthChecker struct {
	Backend  *Backend
	Interval time.Duration
	Path     string

	mu      sync.Mutex
	stop    chan struct{}
	running bool
}

// NewHealthChecker builds a checker for be; a non-positive interval or
// empty path falls back to a 2s/"/" default, the same defaulting
// pattern Server.NewServer uses for Rise/Fall.
func NewHealthChecker(be *Backend, interval time.Duration, path string) *HealthChecker {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if path == "" {
		path = "/"
	}
	return &HealthChecker{Backend: be, Interval: interval, Path: path}
}

// Run blocks, probing every server in the backend on Interval until
// Stop is called. The caller runs this on its own goroutine, the same
// shape cmd/gorelay already uses for the scheduler's tick loop.
func (h *HealthChecker) Run() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.stop = make(chan struct{})
	stop := h.stop
	h.mu.Unlock()

	t := time.NewTicker(h.Interval)
	defer t.Stop()

	h.probeAll()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			h.probeAll()
		}
	}
}

// Stop halts the probe loop; it is safe to call before Run or more than
// once.
func (h *HealthChecker) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.running {
		return
	}
	h.running = false
	close(h.stop)
}

func (h *HealthChecker) probeAll() {
	for _, srv := range h.Backend.Servers {
		srv := srv
		go h.probe(srv)
	}
}

// probe issues one HEAD request against srv's current dial address
// (read via GetAddr so a standing DNS resolution is
// reflected on the very next probe) and records the outcome.
func (h *HealthChecker) probe(srv *Server) {
	addr := srv.GetAddr()
	if addr == "" {
		return
	}

	cli, err := httpcli.NewClient("http://" + addr + h.Path)
	if err != nil {
		srv.SetHealth(false, time.Now())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.Interval)
	defer cancel()
	cli.SetContext(ctx)

	srv.SetHealth(cli.Check() == nil, time.Now())
}
