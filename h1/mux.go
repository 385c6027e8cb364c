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

package h1

import "github.com/nabbar/gorelay/buffer"

// CSFlag is the H1 multiplexer's blocking/condition flag word: it
// separates allocation/full pressure on each of its three
// buffers from connection-state conditions.
type CSFlag uint32

const (
	CSOutAlloc CSFlag = 1 << iota
	CSOutFull
	CSInAlloc
	CSInFull
	CSRxAlloc
	CSRxFull
	CSError
	CSShutWNow
	CSShutW
	CSWaitConn
	CSWaitNextReq
)

// ConnMode is the decided keep-alive/tunnel/close mode for one side of
// the transaction, made once per side.
type ConnMode int

const (
	ModeKeepAlive ConnMode = iota
	ModeTunnel
	ModeClose
)

// Mux is the H1 multiplexer: one per Connection, owning ibuf (raw
// input), obuf (raw output), and rxbuf (the structured frame list
// exposed to the Stream).
type Mux struct {
	Flags CSFlag

	ibuf *buffer.Channel
	obuf *buffer.Channel
	rxbuf *buffer.Channel

	req Message
	res Message

	mode ConnMode
}

// NewMux builds a Mux over channels obtained from a shared buffer.Pool.
func NewMux(ibuf, obuf, rxbuf *buffer.Channel) *Mux {
	return &Mux{ibuf: ibuf, obuf: obuf, rxbuf: rxbuf}
}

// Ibuf / Obuf / Rxbuf expose the three owned channels.
func (m *Mux) Ibuf() *buffer.Channel { return m.ibuf }
func (m *Mux) Obuf() *buffer.Channel { return m.obuf }
func (m *Mux) Rxbuf() *buffer.Channel { return m.rxbuf }

// RecvAllowed is the receive-allowed predicate: permitted
// iff no fatal condition AND no blocking allocation/full condition AND
// (ibuf is non-empty OR no error/read-0 pending).
//
// The fatal-condition test is a bitwise OR of CSError and CSShutW:
// both bits gate the same way, checked as one mask in a single step;
// h1/mux_recv_allowed_test.go pins both flags individually and
// combined.
func (m *Mux) RecvAllowed() bool {
	const fatal = CSError | CSShutW
	if m.Flags&fatal != 0 {
		return false
	}
	const blocking = CSInAlloc | CSInFull | CSRxAlloc | CSRxFull
	if m.Flags&blocking != 0 {
		return false
	}
	if m.ibuf != nil && m.ibuf.Available() > 0 {
		return true
	}
	return m.Flags&fatal == 0
}

// DecideClientMode makes the client-side connection-mode
// decision: default keep-alive, overridden by explicit http-mode, by a
// 101/CONNECT response, by a missing Transfer-Length, by either peer's
// Connection: close, or by HTTP/1.0 without explicit keep-alive.
func DecideClientMode(forcedTunnel, forcedClose bool, res *Message) ConnMode {
	if forcedTunnel {
		return ModeTunnel
	}
	if res.SL.StatusCode == 101 {
		return ModeTunnel
	}
	if forcedClose {
		return ModeClose
	}
	if res.Flags&FlagXferLen == 0 && res.BodyMode() == BodyTunnel {
		return ModeClose
	}
	if res.Flags&FlagConnCLO != 0 {
		return ModeClose
	}
	if res.Flags&FlagVer11 == 0 && res.Flags&FlagConnKAL == 0 {
		return ModeClose
	}
	return ModeKeepAlive
}

// DecideServerMode mirrors DecideClientMode for the upstream side; the
// server-close configuration knob also maps to ModeClose.
func DecideServerMode(serverClose bool, res *Message) ConnMode {
	if serverClose {
		return ModeClose
	}
	return DecideClientMode(false, false, res)
}

// SyncPoint makes the end-of-transaction decision: once both
// request and response reach Done and both buffers are empty, the mux
// either resets for the next keep-alive request, enters tunnel mode, or
// closes.
func (m *Mux) SyncPoint() ConnMode {
	if !m.req.Done() || !m.res.Done() {
		return ModeKeepAlive // transaction still in flight; caller must not act yet
	}
	if m.ibuf != nil && m.ibuf.Available() > 0 {
		return ModeKeepAlive
	}
	if m.obuf != nil && m.obuf.Available() > 0 {
		return ModeKeepAlive
	}
	return m.mode
}

// SetMode records the decided ConnMode for the next SyncPoint call.
func (m *Mux) SetMode(mode ConnMode) { m.mode = mode }

// Reset clears per-transaction parser state for the next keep-alive
// request on the same connection.
func (m *Mux) Reset() {
	m.req = Message{}
	m.res = Message{}
}

// Req / Res expose the request/response parser state for the stream's
// analyser sweep to read and advance.
func (m *Mux) Req() *Message { return &m.req }
func (m *Mux) Res() *Message { return &m.res }
