/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
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

// Manual relay benchmark: one local upstream HTTP server, one relay
// frontend proxying to it, and a client loop hammering the frontend.
// Run through `go test -bench .` or standalone with `go run .`.
package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"testing"
	"time"

	"github.com/nabbar/gorelay/buffer"
	"github.com/nabbar/gorelay/conn"
	"github.com/nabbar/gorelay/engine"
	liblog "github.com/nabbar/gorelay/logger"
	"github.com/nabbar/gorelay/proxycfg"
	"github.com/nabbar/gorelay/sched"
	"github.com/nabbar/gorelay/stream"
)

// GetFreePort asks the kernel for an unused TCP port on loopback.
func GetFreePort() int {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		panic(err)
	}

	defer func() {
		_ = l.Close()
	}()

	return l.Addr().(*net.TCPAddr).Port
}

// RunInit starts the benchmark topology: an upstream HTTP server on a
// free loopback port, a relay backend pointing at it, and the relay's
// accept loop + scheduler bound to addr. Everything stops when ctx is
// cancelled.
func RunInit(ctx context.Context, addr string) {
	upPort := GetFreePort()

	upLn, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", upPort))
	if err != nil {
		panic(err)
	}

	up := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte("hello from upstream\n"))
		}),
	}
	go func() {
		_ = up.Serve(upLn)
	}()

	cfg := &proxycfg.Config{
		Backends: []proxycfg.BackendConfig{{
			Name:      "bench",
			Algorithm: "roundrobin",
			Servers: []proxycfg.ServerConfig{{
				Name:    "up1",
				Address: "127.0.0.1",
				Port:    upPort,
				Weight:  1,
				MaxConn: 1024,
			}},
		}},
		Frontends: []proxycfg.FrontendConfig{{
			Name:    "bench-fe",
			Bind:    addr,
			Backend: "bench",
		}},
	}

	sc := sched.NewScheduler(4096)

	rt, rerr := proxycfg.Build(cfg, sc, liblog.GetDefault)
	if rerr != nil {
		panic(rerr)
	}

	be, ok := rt.Backends["bench"]
	if !ok {
		panic("bench backend not built")
	}

	sessions := engine.NewSessions()
	reg := engine.BuildRegistry(sessions)
	pool := buffer.NewPool(16*1024, 4096)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		panic(err)
	}

	go driveScheduler(ctx, sc)
	go acceptLoop(ctx, ln, pool, sc, reg, sessions, be)

	go func() {
		<-ctx.Done()
		_ = ln.Close()
		_ = up.Close()
	}()
}

func acceptLoop(ctx context.Context, ln net.Listener, pool *buffer.Pool, sc *sched.Scheduler, reg *stream.Registry, sessions *engine.Sessions, disp stream.Dispatcher) {
	for {
		raw, err := ln.Accept()
		if err != nil {
			return
		}

		strm, aerr := engine.Accept(raw, conn.Plain(), pool, sc, reg, disp, 30*time.Second, 3)
		if aerr != nil {
			_ = raw.Close()
			continue
		}

		go reapStream(ctx, sessions, strm)
	}
}

func reapStream(ctx context.Context, sessions *engine.Sessions, strm *stream.Stream) {
	t := time.NewTicker(500 * time.Millisecond)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if strm.Task().Deleted() {
				sessions.Drop(strm)
				if c := strm.FrontSI.Connection(); c != nil {
					_ = c.Conn().Close()
				}
				if c := strm.BackSI.Connection(); c != nil {
					_ = c.Conn().Close()
				}
				return
			}
		}
	}
}

// RunQuery drives b.N sequential requests through the relay frontend
// at addr and checks each answer.
func RunQuery(ctx context.Context, addr string, b *testing.B) {
	url := "http://127.0.0.1" + addr + "/"
	cli := &http.Client{Timeout: 10 * time.Second}

	// one warm-up round so the bench loop never measures listener spin-up
	if err := queryOnce(ctx, cli, url); err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if err := queryOnce(ctx, cli, url); err != nil {
			b.Fatal(err)
		}
	}
}

func queryOnce(ctx context.Context, cli *http.Client, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	res, err := cli.Do(req)
	if err != nil {
		return err
	}

	defer func() {
		_ = res.Body.Close()
	}()

	if _, err = io.Copy(io.Discard, res.Body); err != nil {
		return err
	}

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", res.StatusCode)
	}

	return nil
}

// driveScheduler ticks the cooperative scheduler until ctx ends,
// sleeping only up to the earliest pending task deadline.
func driveScheduler(ctx context.Context, sc *sched.Scheduler) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		next := sc.RunPass(time.Now())

		wait := 10 * time.Millisecond
		if !next.IsZero() {
			if d := time.Until(next); d > 0 && d < wait {
				wait = d
			}
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

func main() {
	ctx, cnl := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cnl()

	addr := fmt.Sprintf(":%d", GetFreePort())
	RunInit(ctx, addr)

	_, _ = fmt.Fprintf(os.Stdout, "relay bench frontend listening on %s\n", addr)
	<-ctx.Done()
}
