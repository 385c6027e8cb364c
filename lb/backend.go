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
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nabbar/gorelay/conn"
	"github.com/nabbar/gorelay/stream"
)

// StickPick is consulted before the configured Algorithm: when it
// returns a non-nil Server, that server is used directly (a prior
// stick-table hit pinned this stream), that server is the
// sticky-selected dispatch target. Backends with no stick-table tracking leave this nil.
type StickPick func(s *stream.Stream) *Server

// KeyFunc extracts the hash/consistency key Source/URI/Hash algorithms
// need from the stream (client address, request URI, or an explicit
// header value); wired in by the owning proxycfg layer.
type KeyFunc func(s *stream.Stream) string

// Backend is spec component H's backend: a set of servers plus the
// load-balancing policy, the shared pendconn FIFO algorithm-chosen
// streams land on, and the connect-retry policy.
type Backend struct {
	Name    string
	Algo    Algorithm
	Servers []*Server

	FullConn int

	ConnRetries int
	ConnTimeout time.Duration

	Stick StickPick
	Key   KeyFunc

	rrCounter atomic.Uint64
	totPend   atomic.Int64

	mu    sync.Mutex
	queue *fifo
}

// NewBackend builds a Backend; each Server's FullConn is stamped from
// the backend's so the slow-start formula can read it locally.
func NewBackend(name string, algo Algorithm, servers []*Server, fullConn int) *Backend {
	be := &Backend{Name: name, Algo: algo, Servers: servers, FullConn: fullConn, ConnRetries: 3, queue: newFIFO()}
	for _, srv := range servers {
		srv.FullConn = fullConn
	}
	return be
}

// TotPend reports the backend's total pending-connection count across
// its own queue and every server queue, for stats-socket/CSV reporting.
func (be *Backend) TotPend() int64 { return be.totPend.Load() }

// BeConn reports the backend's current total session count, the
// "beconn" the stats socket's `scur`/`bin`/`bout` columns summarize.
func (be *Backend) BeConn() int { return be.beconn() }

// beconn sums current sessions across all servers, the "beconn" term of
// the dynamic maxconn formula.
func (be *Backend) beconn() int {
	total := 0
	for _, srv := range be.Servers {
		total += int(srv.CurSess())
	}
	return total
}

// Dispatch implements stream.Dispatcher: pick a server directly when one
// is healthy with room, dialling it with up to ConnRetries attempts;
// otherwise enqueue a PendConn on the sticky server's queue (when
// stickiness applies) or the backend's own queue and return
// assigned=false.
func (be *Backend) Dispatch(now time.Time, s *stream.Stream) (bool, *conn.Connection, error) {
	var srv *Server
	if be.Stick != nil {
		srv = be.Stick(s)
	}
	if srv == nil {
		key := ""
		if be.Key != nil {
			key = be.Key(s)
		}
		srv = pick(be, key)
	}

	if srv == nil {
		be.enqueue(nil, s, now)
		return false, nil, nil
	}

	beconn := be.beconn()
	if int(srv.CurSess()) >= srv.DynMaxConn(beconn, now) {
		be.enqueue(srv, s, now)
		return false, nil, nil
	}

	c, err := be.connect(srv)
	if err != nil {
		srv.Counters.ConnectErr++
		return false, nil, err
	}
	srv.incSess()
	srv.Counters.Served++
	return true, c, nil
}

// connect dials srv with up to ConnRetries retries; a successful
// connection clears the retry counter. The resulting net.Conn is
// wrapped in a plain
// conn.Connection.
func (be *Backend) connect(srv *Server) (*conn.Connection, error) {
	dial := srv.Dial
	if dial == nil {
		dial = net.Dial
	}

	timeout := be.ConnTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var raw net.Conn
	var err error
	attempts := be.ConnRetries
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		raw, err = dialContext(ctx, dial, srv.GetAddr())
		cancel()
		if err == nil {
			break
		}
		srv.Counters.Retries++
	}
	if err != nil {
		return nil, ErrorDialFailed.Error()
	}
	return conn.New(raw, conn.Plain(), nil)
}

// dialContext adapts a (network, addr) Dial func to a context deadline
// without requiring callers to supply a DialContext-capable dialer.
func dialContext(ctx context.Context, dial func(network, addr string) (net.Conn, error), addr string) (net.Conn, error) {
	type result struct {
		c   net.Conn
		err error
	}
	ch := make(chan result, 1)
	go func() {
		c, err := dial("tcp", addr)
		ch <- result{c, err}
	}()
	select {
	case r := <-ch:
		return r.c, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// enqueue pushes a new PendConn onto srv's queue if specific-server
// stickiness applies, else onto the backend's own queue.
func (be *Backend) enqueue(srv *Server, s *stream.Stream, now time.Time) {
	pc := &PendConn{Stream: s, Srv: srv, tvRequest: now}
	var pos int
	if srv != nil {
		srv.queue.push(pc)
		pos = srv.queue.Len()
	} else {
		be.queue.push(pc)
		pos = be.queue.Len()
	}
	be.totPend.Add(1)
	s.MarkQueued(pos)
}

// Release records that srv gave up one served connection (a stream
// finished or was cancelled) and runs process_srv_queue to hand that
// slot to the oldest eligible pending connection.
func (be *Backend) Release(srv *Server, now time.Time) {
	srv.decSess()
	be.processQueue(srv, now)
}

// processQueue implements process_srv_queue: while srv has room under
// its dynamic maxconn, dequeue the pending connection with the oldest
// tv_request between srv's own queue and the backend's queue — the
// cross-queue age tie-break that prevents starvation of the shared
// queue behind an always-busy specific-server queue.
func (be *Backend) processQueue(srv *Server, now time.Time) {
	for {
		beconn := be.beconn()
		if int(srv.CurSess()) >= srv.DynMaxConn(beconn, now) {
			return
		}

		fromSrv := srv.queue.peekOldest()
		fromBE := be.queue.peekOldest()

		var pc *PendConn
		switch {
		case fromSrv == nil && fromBE == nil:
			return
		case fromSrv == nil:
			pc = fromBE
		case fromBE == nil:
			pc = fromSrv
		case fromSrv.tvRequest.Before(fromBE.tvRequest):
			pc = fromSrv
		default:
			pc = fromBE
		}

		be.Free(pc)

		c, err := be.connect(srv)
		if err != nil {
			srv.Counters.ConnectErr++
			pc.Stream.BackSI.RecordError(now, err, pc.Stream.BackSI.State())
			continue
		}
		srv.incSess()
		srv.Counters.Served++
		if aerr := pc.Stream.BackSI.Assign(now, c); aerr != nil {
			pc.Stream.BackSI.RecordError(now, aerr, pc.Stream.BackSI.State())
		}
	}
}
