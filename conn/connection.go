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

package conn

import (
	"context"
	"net"
	"sync"

	libatm "github.com/nabbar/gorelay/atomic"
	"github.com/nabbar/gorelay/netpoll"
)

// WakeFunc is how a Connection tells its owner (typically a mux) that
// readiness changed; wiring this to sched.Scheduler.Wakeup is the
// caller's job, keeping conn free of a sched import.
type WakeFunc func()

// Connection is spec component D: one client or server-side socket with
// a sock-layer and a data-layer flag word, a phase, and a netpoll.FD
// driving actual readiness.
type Connection struct {
	mu sync.Mutex

	transport Transport
	raw       net.Conn
	cur       net.Conn // raw, or the handshake-wrapped net.Conn once connected
	fd        *netpoll.FD

	phase libatm.Value[Phase]
	sock  libatm.Value[Flag]
	data  libatm.Value[Flag]
	curr  libatm.Value[Flag] // CURR_*: bits most recently handed to the poller

	onWake WakeFunc
}

// New wraps raw for transport over t. The connection starts in
// PhaseInit; call Handshake (if t.RequiresHandshake()) then Connect.
func New(raw net.Conn, t Transport, onWake WakeFunc) (*Connection, error) {
	if raw == nil {
		return nil, ErrorConnNil.Error()
	}
	c := &Connection{transport: t, raw: raw, cur: raw, onWake: onWake}
	c.phase = libatm.NewValueDefault[Phase](PhaseInit, PhaseInit)
	c.sock = libatm.NewValueDefault[Flag](0, 0)
	c.data = libatm.NewValueDefault[Flag](0, 0)
	c.curr = libatm.NewValueDefault[Flag](0, 0)
	c.sock.Store(FlagWaitL4Conn)

	fd, err := netpoll.New(raw, c.onEvent)
	if err != nil {
		return nil, err
	}
	c.fd = fd
	return c, nil
}

// Phase returns the connection's current lifecycle state.
func (c *Connection) Phase() Phase { return c.phase.Load() }

// Conn returns the live net.Conn for I/O: raw during Init/Handshake, the
// transport-wrapped connection once Connected.
func (c *Connection) Conn() net.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

// Handshake drives the SOCK-phase negotiation. No-op for transports that
// don't require one; CO_FL_WAIT_L4_CONN clears on first success either way.
func (c *Connection) Handshake(ctx context.Context) error {
	if c.phase.Load() == PhaseShutdown {
		return ErrorWrongPhase.Error()
	}
	if c.transport.RequiresHandshake() {
		c.phase.Store(PhaseHandshake)
	}

	wrapped, err := c.transport.Handshake(ctx, c.raw)
	if err != nil {
		c.sock.Store(c.sock.Load() | FlagError)
		return err
	}

	c.mu.Lock()
	c.cur = wrapped
	c.mu.Unlock()

	c.sock.Store(c.sock.Load() &^ FlagWaitL4Conn)
	c.phase.Store(PhaseConnected)
	return nil
}

// WantRecv/WantSend/StopRecv/StopSend set the DATA-layer readiness bits
// a stream/mux asks for; Sock variants set the SOCK-layer ones. Either
// call may trigger conn_set_polling if the net effect changes CURR_*.
func (c *Connection) WantRecv()     { c.setData(FlagWantRecv, true) }
func (c *Connection) WantSend()     { c.setData(FlagWantSend, true) }
func (c *Connection) StopRecv()     { c.setData(FlagWantRecv, false) }
func (c *Connection) StopSend()     { c.setData(FlagWantSend, false) }
func (c *Connection) SockWantRecv() { c.setSock(FlagWantRecv, true) }
func (c *Connection) SockWantSend() { c.setSock(FlagWantSend, true) }

func (c *Connection) setData(bit Flag, on bool) {
	c.apply(&c.data, bit, on)
	c.setPolling()
}

func (c *Connection) setSock(bit Flag, on bool) {
	c.apply(&c.sock, bit, on)
	c.setPolling()
}

func (c *Connection) apply(v *libatm.Value[Flag], bit Flag, on bool) {
	for {
		old := (*v).Load()
		var next Flag
		if on {
			next = old | bit
		} else {
			next = old &^ bit
		}
		if next == old {
			return
		}
		if (*v).CompareAndSwap(old, next) {
			return
		}
	}
}

// setPolling is conn_set_polling: it compares the low four bits of
// whichever layer is active (DATA once connected, SOCK during
// handshake) against CURR_* and only issues a new netpoll.FD.SetWant
// when they differ.
func (c *Connection) setPolling() {
	active := c.data.Load()
	if c.phase.Load() != PhaseConnected {
		active = c.sock.Load()
	}
	want := active & lowBits

	prev := c.curr.Load()
	if want&lowBits == prev&lowBits {
		return
	}
	c.curr.Store(want)

	var w netpoll.Want
	if want&FlagWantRecv != 0 && want&FlagStopRecv == 0 {
		w |= netpoll.WantRecv
	}
	if want&FlagWantSend != 0 && want&FlagStopSend == 0 {
		w |= netpoll.WantSend
	}
	c.fd.SetWant(w)
}

// onEvent translates a netpoll.Event into poll_recv/poll_send bits and
// wakes the owner. A sticky error bit forces CS_FL_ERROR propagation on
// the stream's next wake (that translation lives in the stream package).
func (c *Connection) onEvent(ev netpoll.Event) {
	layer := &c.data
	if c.phase.Load() != PhaseConnected {
		layer = &c.sock
	}

	if ev.Err != nil {
		c.apply(layer, FlagError, true)
	}
	if ev.Recv {
		c.apply(layer, FlagPollRecv, true)
	}
	if ev.Send {
		c.apply(layer, FlagPollSend, true)
	}

	if c.onWake != nil {
		c.onWake()
	}
}

// HasError reports the sticky error bit on the currently active layer.
func (c *Connection) HasError() bool {
	active := c.data.Load()
	if c.phase.Load() != PhaseConnected {
		active = c.sock.Load()
	}
	return active&FlagError != 0
}

// PollRecv/PollSend report readiness already observed by the poller on
// the active layer, consuming the bit (the stream is expected to act on
// it exactly once per edge).
func (c *Connection) PollRecv() bool { return c.consume(FlagPollRecv) }
func (c *Connection) PollSend() bool { return c.consume(FlagPollSend) }

func (c *Connection) consume(bit Flag) bool {
	layer := &c.data
	if c.phase.Load() != PhaseConnected {
		layer = &c.sock
	}
	for {
		old := (*layer).Load()
		if old&bit == 0 {
			return false
		}
		if (*layer).CompareAndSwap(old, old&^bit) {
			return true
		}
	}
}

// Shutdown closes the underlying socket and moves to PhaseShutdown.
func (c *Connection) Shutdown() error {
	if c.phase.Load() == PhaseShutdown {
		return nil
	}
	c.phase.Store(PhaseShutdown)
	c.fd.StopAll()
	return c.fd.Close()
}
