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

package main

import (
	"net"
	"sync/atomic"
	"time"

	"github.com/nabbar/gorelay/buffer"
	"github.com/nabbar/gorelay/conn"
	"github.com/nabbar/gorelay/engine"
	liblog "github.com/nabbar/gorelay/logger"
	"github.com/nabbar/gorelay/proxycfg"
	"github.com/nabbar/gorelay/sched"
	"github.com/nabbar/gorelay/statsock"
	"github.com/nabbar/gorelay/stick"
	"github.com/nabbar/gorelay/stream"
)

// numStickSlots is the tracking-slot count every Stream carries,
// mirroring HAProxy's three built-in sc0/sc1/sc2 track slots.
const numStickSlots = 3

// frontend binds one FrontendConfig to a live net.Listener and its own
// accept loop: each accepted net.Conn becomes one engine.Accept call,
// which queues the resulting Stream's task onto the shared Scheduler.
type frontend struct {
	cfg  proxycfg.FrontendConfig
	ln   net.Listener
	disp stream.Dispatcher
	fe   *statsock.Frontend

	pool *enginePool
	log  liblog.FuncLog
	tr   conn.Transport

	// table, when the routed backend declares a stick-table, tracks
	// each accepted client's source address into slot 0 so both the
	// connection-level and the content-level (http_req/http_err)
	// counters move.
	table *stick.Table

	closed int32
}

// enginePool is the set of shared, process-wide engine collaborators
// every frontend's accept loop draws from: one buffer.Pool, one
// Scheduler, one analyser Registry, and the Sessions table the Parse
// analyser keeps per-stream H1 state in.
type enginePool struct {
	pool     *buffer.Pool
	sc       *sched.Scheduler
	reg      *stream.Registry
	sessions *engine.Sessions
}

// listenFunc abstracts the listener's origin: plain net.Listen for a
// one-shot run, or a tableflip.Upgrader's Listen for a process that
// supports the zero-downtime SIGHUP/SIGUSR2 reload path.
type listenFunc func(network, addr string) (net.Listener, error)

func newFrontend(cfg proxycfg.FrontendConfig, disp stream.Dispatcher, fe *statsock.Frontend, pool *enginePool, log liblog.FuncLog, listen listenFunc) (*frontend, error) {
	tr := conn.Plain()
	if cfg.TLS != nil {
		tr = conn.TLSServer(cfg.TLS.New().TlsConfig(""))
	}

	if listen == nil {
		listen = net.Listen
	}
	ln, err := listen("tcp", cfg.Bind)
	if err != nil {
		return nil, ErrorListenerBind.Error(err)
	}

	return &frontend{
		cfg:  cfg,
		ln:   ln,
		disp: disp,
		fe:   fe,
		pool: pool,
		log:  log,
		tr:   tr,
	}, nil
}

// serve accepts connections until Close stops the listener, handing
// each to engine.Accept. Per-connection bookkeeping on fe mirrors what
// the stats socket and CSV dump report for that frontend row.
func (f *frontend) serve() error {
	timeout := time.Duration(f.cfg.ClientTimeout)
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	for {
		raw, err := f.ln.Accept()
		if err != nil {
			if atomic.LoadInt32(&f.closed) != 0 {
				return nil
			}
			return err
		}

		if f.fe.Disabled() {
			_ = raw.Close()
			continue
		}

		f.fe.IncSess()
		strm, err := engine.Accept(raw, f.tr, f.pool.pool, f.pool.sc, f.pool.reg, f.disp, timeout, numStickSlots)
		if err != nil {
			f.fe.DecSess()
			atomic.AddInt64(&f.fe.ReqErrors, 1)
			_ = raw.Close()
			continue
		}

		f.pool.sessions.Configure(strm, f.cfg.Mode == "tunnel", f.cfg.Mode == "close", false)
		f.bindTracking(strm, raw)
		f.trackCompletion(strm)
	}
}

// bindTracking binds slot 0 of the stream's stick counters to the
// backend's table, keyed by the client's source address. The Parse
// analyser starts the counters once the request frames and bumps the
// content-level http_req/http_err rates per request observed.
func (f *frontend) bindTracking(strm *stream.Stream, raw net.Conn) {
	if f.table == nil || len(strm.StkCtr) == 0 {
		return
	}
	host, _, err := net.SplitHostPort(raw.RemoteAddr().String())
	if err != nil {
		return
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return
	}
	tr, terr := f.table.Track(time.Now(), stick.KeyFromIP(ip))
	if terr != nil {
		return
	}
	strm.StkCtr[0] = stream.StickSlot{Sink: tr, TrackBackend: true, TrackContent: true}
}

// trackCompletion decrements the frontend's session gauge and drops the
// stream's parser state once its task is no longer live in the
// scheduler — engine/session.go's Sessions.Drop doc comment assigns
// exactly this job to "the accept loop driving the scheduler", since
// the core package raises no completion event of its own.
func (f *frontend) trackCompletion(strm *stream.Stream) {
	go func() {
		t := time.NewTicker(500 * time.Millisecond)
		defer t.Stop()
		for range t.C {
			if strm.Task().Deleted() {
				f.pool.sessions.Drop(strm)
				f.fe.DecSess()
				if c := strm.FrontSI.Connection(); c != nil {
					_ = c.Conn().Close()
				}
				if c := strm.BackSI.Connection(); c != nil {
					_ = c.Conn().Close()
				}
				return
			}
		}
	}()
}

func (f *frontend) close() error {
	atomic.StoreInt32(&f.closed, 1)
	return f.ln.Close()
}
