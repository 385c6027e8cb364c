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

package stream

import (
	"time"

	"github.com/nabbar/gorelay/conn"
)

// StreamInterface is a per-side endpoint of a Stream: it holds the
// side's lifecycle state, a reference to the underlying Connection
// (nil until assigned, e.g. before a server is picked), the last
// connect/IO error, and its own timeout.
//
// Back-references run Stream -> StreamInterface -> Connection only: a
// StreamInterface never holds a pointer back to its owning Stream, so
// the lifetime graph stays a tree and nothing here needs index-based
// indirection to break a cycle.
type StreamInterface struct {
	state SIState

	connection *conn.Connection
	connErr    error

	timeout time.Duration
	expire  time.Time

	isFront bool
}

// NewClientSI builds the client-side stream-interface, already bound
// to its accepted Connection.
func NewClientSI(c *conn.Connection, timeout time.Duration) *StreamInterface {
	return &StreamInterface{state: SIInit, connection: c, timeout: timeout, isFront: true}
}

// NewServerSI builds the server-side stream-interface, unbound until a
// server is assigned by the dispatcher.
func NewServerSI(timeout time.Duration) *StreamInterface {
	return &StreamInterface{state: SIInit, timeout: timeout}
}

// State / Connection / Err expose the SI's current lifecycle state,
// bound connection (if any), and last recorded error.
func (si *StreamInterface) State() SIState            { return si.state }
func (si *StreamInterface) Connection() *conn.Connection { return si.connection }
func (si *StreamInterface) Err() error                 { return si.connErr }

// SetState transitions the SI to a new state and refreshes its expiry
// tick relative to its configured timeout; callers compare the
// previous and new state to detect "SI changed state in a pass" for
// the fixed-point loop.
func (si *StreamInterface) SetState(now time.Time, s SIState) {
	si.state = s
	if si.timeout > 0 {
		si.expire = now.Add(si.timeout)
	} else {
		si.expire = time.Time{}
	}
}

// Assign binds the server-side SI to a freshly dialed or reused
// Connection, moving it to SIConnecting.
func (si *StreamInterface) Assign(now time.Time, c *conn.Connection) error {
	if si.connection != nil {
		return ErrorAlreadyAssigned.Error()
	}
	si.connection = c
	si.SetState(now, SIConnecting)
	return nil
}

// RecordError stores a connect/IO error and moves the SI to CER
// (connect-error, eligible for retry) or CLO depending on caller intent.
func (si *StreamInterface) RecordError(now time.Time, err error, s SIState) {
	si.connErr = err
	si.SetState(now, s)
}

// Expire returns the SI's own expiry tick (zero if none configured).
func (si *StreamInterface) Expire() time.Time { return si.expire }
