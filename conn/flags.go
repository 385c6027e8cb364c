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

// Package conn implements spec component D: a Connection that drives
// readiness through want_recv/want_send/stop_recv/stop_send/poll_recv/
// poll_send on both a sock layer and a data layer, translating only
// actual state changes into netpoll operations.
package conn

// Flag is the per-layer (sock or data) readiness/error bit set compared
// by conn_set_polling before any poller syscall is issued.
type Flag uint32

const (
	FlagWantRecv Flag = 1 << iota
	FlagWantSend
	FlagStopRecv
	FlagStopSend
	FlagPollRecv
	FlagPollSend
	FlagError
	FlagWaitL4Conn
)

// lowBits masks the four bits setPolling compares between CURR_* and the
// data-or-sock projection: want_recv, want_send, stop_recv, stop_send.
const lowBits = FlagWantRecv | FlagWantSend | FlagStopRecv | FlagStopSend

// Phase is the connection's lifecycle state: Init -> Handshake (SOCK) ->
// Connected (DATA) -> Shutdown. Plain (non-handshaking)
// transports skip Handshake entirely.
type Phase int

const (
	PhaseInit Phase = iota
	PhaseHandshake
	PhaseConnected
	PhaseShutdown
)

func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "init"
	case PhaseHandshake:
		return "handshake"
	case PhaseConnected:
		return "connected"
	case PhaseShutdown:
		return "shutdown"
	}
	return "unknown"
}
