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

package engine

import (
	"sync"

	"github.com/nabbar/gorelay/h1"
	"github.com/nabbar/gorelay/stream"
)

// sideState carries one direction's H1 parser state: the request
// line/headers riding ReqChannel, or the status line/headers riding
// ResChannel. bounded records that a finite to-forward budget covers
// the whole message (Content-Length body, body-less request, or the
// chunk decoder's incremental approvals); an unbounded side is a
// close-delimited response whose end is its producer's shutdown.
type sideState struct {
	msg      h1.Message
	hdrs     []h1.HeaderField
	chunk    *h1.ChunkDecoder
	headDone bool
	bodyDone bool
	bounded  bool
	counted  bool
	complete bool
}

func newSideState() *sideState {
	return &sideState{hdrs: make([]h1.HeaderField, 64)}
}

// session is the per-stream parser/tracking state the registry's
// analysers keep between passes, plus the h1.Mux arbitrating the
// keep-alive/tunnel/close decision for the transaction. The Mux's
// ibuf/obuf are the Stream's own ReqChannel/ResChannel (a Stream is
// scoped to one accepted connection and owns its two channels for its
// whole lifetime, per engine.Accept), so no third buffer triple
// exists and rxbuf stays nil.
type session struct {
	req sideState
	res sideState

	mux         *h1.Mux
	mode        h1.ConnMode
	modeDecided bool
	tunnel      bool

	forcedTunnel bool
	forcedClose  bool
	serverClose  bool
}

// Sessions maps a Stream's UniqID to its session, so the package-level
// AnalyserFuncs registered once into a stream.Registry can recover
// per-stream parser state without Stream exposing an extension point.
type Sessions struct {
	mu sync.Mutex
	m  map[uint64]*session
}

// NewSessions builds an empty session table.
func NewSessions() *Sessions {
	return &Sessions{m: make(map[uint64]*session)}
}

func (t *Sessions) get(s *stream.Stream) *session {
	t.mu.Lock()
	defer t.mu.Unlock()
	ss, ok := t.m[s.UniqID]
	if !ok {
		ss = &session{req: *newSideState(), res: *newSideState()}
		t.m[s.UniqID] = ss
	}
	return ss
}

// Configure records the listener's configured http-mode for one
// stream before its first analyser pass: tunnel and close force the
// transaction mode the same way the `http-mode tun`/`clo` knobs do,
// and serverClose maps the upstream side to close via
// h1.DecideServerMode. The accept loop calls this right after
// engine.Accept; leaving it uncalled keeps the keep-alive default.
func (t *Sessions) Configure(s *stream.Stream, forcedTunnel, forcedClose, serverClose bool) {
	ss := t.get(s)
	ss.forcedTunnel = forcedTunnel
	ss.forcedClose = forcedClose
	ss.serverClose = serverClose

	// A tunnel-mode listener is opaque from the first byte: no HTTP
	// framing runs at all, exactly like a raw TCP relay.
	if forcedTunnel {
		ss.tunnel = true
	}
}

// Drop removes a finished stream's session state; the caller (the
// accept loop driving the scheduler) calls this once Stream.Task's
// process function has returned done=true.
func (t *Sessions) Drop(s *stream.Stream) {
	t.mu.Lock()
	delete(t.m, s.UniqID)
	t.mu.Unlock()
}
