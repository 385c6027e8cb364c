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

// Package netpoll abstracts connection readiness:
// want_recv/want_send/stop_recv/stop_send translated
// into poller operations only when the desired state actually changes.
// It is built over Go's runtime netpoller (net.Conn deadlines and a
// read/write goroutine pair per fd) rather than a raw epoll/kqueue
// wrapper.
package netpoll

import (
	"net"
	"sync"
	"syscall"
	"time"
)

// Want is the bitmask of readiness a caller is requesting, matching the
// four bits compared against the current state before issuing any
// poller syscalls.
type Want uint8

const (
	WantRecv Want = 1 << iota
	WantSend
)

// Event reports which side became ready, or that the fd errored.
type Event struct {
	Recv bool
	Send bool
	Err  error
}

// Callback is invoked from the poller's own goroutine whenever Event
// changes; callers typically just Wakeup a sched.Task from it.
type Callback func(Event)

// FD couples a net.Conn with its wanted and current readiness bits.
// Only a change in the low bits drives a new poll
// operation (conn_set_polling), so repeated identical want calls never
// spin a new goroutine.
type FD struct {
	mu      sync.Mutex
	conn    net.Conn
	raw     syscall.RawConn
	cb      Callback
	want    Want
	curr    Want
	closed  bool
	pollGen uint64

	idleTimeout time.Duration
}

// New wraps conn for readiness tracking. cb is invoked from a private
// goroutine on every readiness transition until Close. When conn
// implements syscall.Conn (*net.TCPConn, *net.UnixConn, ...) readiness
// is detected via the runtime netpoller without consuming any bytes;
// otherwise it falls back to zero-length Read/Write probing.
func New(conn net.Conn, cb Callback) (*FD, error) {
	if conn == nil {
		return nil, ErrorNilConn.Error()
	}
	f := &FD{conn: conn, cb: cb}
	if sc, ok := conn.(syscall.Conn); ok {
		if rc, err := sc.SyscallConn(); err == nil {
			f.raw = rc
		}
	}
	return f, nil
}

// SetIdleTimeout bounds how long a poll wait blocks before the fd's
// deadline forces a readiness re-check; zero disables the bound.
func (f *FD) SetIdleTimeout(d time.Duration) {
	f.mu.Lock()
	f.idleTimeout = d
	f.mu.Unlock()
}

// Conn returns the wrapped connection.
func (f *FD) Conn() net.Conn { return f.conn }

// SetWant updates the desired readiness bits (want_recv/want_send or
// stop_recv/stop_send, folded into one call). It only starts a new
// waiting goroutine when want differs from the bits currently being
// polled, mirroring the flag-change detection in conn_set_polling.
func (f *FD) SetWant(want Want) {
	f.mu.Lock()
	if f.closed || want == f.curr {
		f.want = want
		f.mu.Unlock()
		return
	}
	f.want = want
	f.curr = want
	f.pollGen++
	gen := f.pollGen
	f.mu.Unlock()

	if want&WantRecv != 0 {
		go f.waitRecv(gen)
	}
	if want&WantSend != 0 {
		go f.waitSend(gen)
	}
}

// StopAll clears both want bits without closing the fd (stop_recv +
// stop_send together).
func (f *FD) StopAll() { f.SetWant(0) }

func (f *FD) stillCurrent(gen uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.closed && f.pollGen == gen
}

// waitRecv blocks until the fd is read-ready. When a syscall.RawConn is
// available it waits on the runtime netpoller directly (the callback
// handed to RawConn.Read runs once the fd is readable and returns true
// without touching the byte stream, so no data is stolen from the real
// consumer). Otherwise it falls back to a zero-byte Read against a
// short rolling deadline.
func (f *FD) waitRecv(gen uint64) {
	if f.raw != nil {
		for f.stillCurrent(gen) {
			err := f.raw.Read(func(uintptr) bool { return true })
			if err != nil {
				f.emit(Event{Err: err})
				return
			}
			f.emit(Event{Recv: true})
			return
		}
		return
	}

	one := make([]byte, 0)
	for f.stillCurrent(gen) {
		_ = f.conn.SetReadDeadline(f.deadline())
		_, err := f.conn.Read(one)
		if err == nil {
			f.emit(Event{Recv: true})
			return
		}
		if isTimeout(err) {
			continue
		}
		f.emit(Event{Err: err})
		return
	}
}

// waitSend mirrors waitRecv for write-readiness via RawConn.Write, or a
// zero-length Write probe as fallback.
func (f *FD) waitSend(gen uint64) {
	if f.raw != nil {
		for f.stillCurrent(gen) {
			err := f.raw.Write(func(uintptr) bool { return true })
			if err != nil {
				f.emit(Event{Err: err})
				return
			}
			f.emit(Event{Send: true})
			return
		}
		return
	}

	for f.stillCurrent(gen) {
		_ = f.conn.SetWriteDeadline(f.deadline())
		_, err := f.conn.Write(nil)
		if err == nil {
			f.emit(Event{Send: true})
			return
		}
		if isTimeout(err) {
			continue
		}
		f.emit(Event{Err: err})
		return
	}
}

func (f *FD) deadline() time.Time {
	f.mu.Lock()
	d := f.idleTimeout
	f.mu.Unlock()
	if d <= 0 {
		d = 200 * time.Millisecond
	}
	return time.Now().Add(d)
}

func (f *FD) emit(ev Event) {
	f.mu.Lock()
	cb := f.cb
	closed := f.closed
	f.mu.Unlock()
	if !closed && cb != nil {
		cb(ev)
	}
}

// Close stops any in-flight poll goroutines from reporting further
// events and closes the underlying connection.
func (f *FD) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	f.pollGen++
	f.mu.Unlock()
	return f.conn.Close()
}

type timeoutError interface {
	Timeout() bool
}

func isTimeout(err error) bool {
	te, ok := err.(timeoutError)
	return ok && te.Timeout()
}
