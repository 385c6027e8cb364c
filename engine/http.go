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
	"time"

	"github.com/nabbar/gorelay/buffer"
	"github.com/nabbar/gorelay/h1"
	"github.com/nabbar/gorelay/stream"
)

// httpCounter is the content-level counter surface a tracking sink may
// optionally expose (stick.Tracker does). The TrackContent gate on the
// slot decides whether these updates apply; the connection-level
// Start/Stop pair is gated independently.
type httpCounter interface {
	IncHTTPReq(now time.Time)
	IncHTTPErr(now time.Time)
}

func countHTTPReq(s *stream.Stream, now time.Time) {
	for i := range s.StkCtr {
		if !s.StkCtr[i].TrackContent {
			continue
		}
		if hc, ok := s.StkCtr[i].Sink.(httpCounter); ok {
			hc.IncHTTPReq(now)
		}
	}
}

func countHTTPErr(s *stream.Stream, now time.Time) {
	for i := range s.StkCtr {
		if !s.StkCtr[i].TrackContent {
			continue
		}
		if hc, ok := s.StkCtr[i].Sink.(httpCounter); ok {
			hc.IncHTTPErr(now)
		}
	}
}

// Parse implements the header- and body-framing analyser: it peeks
// (never consumes — SendPump owns advancing the channel) the bytes
// already produced on ch and runs them through h1.HeadersToHdrList,
// the restartable request/status-line-plus-headers parser. Once a
// side's headers are fully framed it starts that stream's stick-table
// tracking slots and bumps the content-level http_req counters
// (tracking begins once the request is known), then arms ch's
// to-forward budget with the message's framing:
//
//   - a Content-Length body's budget is the whole message up front;
//   - a chunked body starts with the header block only and grows chunk
//     by chunk as h1.ChunkDecoder.Feed frames the stream, so nothing
//     past the final chunk's trailers is ever approved;
//   - a body-less request's budget is its header block;
//   - a response with no transfer length stays unbounded and ends with
//     its producer's shutdown (close-delimited).
//
// Once the response's headers are framed the transaction's
// keep-alive/tunnel/close mode is decided (h1.DecideClientMode and
// DecideServerMode, folding in the listener's configured http-mode and
// either peer's Connection: close), and once both messages are fully
// forwarded h1.Mux.SyncPoint arbitrates what happens next: reset both
// sides for the next keep-alive request, switch the pair of channels
// to opaque tunnel forwarding (101 / CONNECT), or shut the stream
// down.
func (t *Sessions) Parse(s *stream.Stream, ch *buffer.Channel, side stream.Side) (bool, error) {
	ss := t.get(s)

	if ss.mux == nil {
		ss.mux = h1.NewMux(s.ReqChannel, s.ResChannel, nil)
	}
	if ss.tunnel {
		return false, nil
	}

	var sd *sideState
	isRequest := side == stream.SideReq
	if isRequest {
		sd = &ss.req
	} else {
		sd = &ss.res
	}

	progress := false

	if !sd.headDone {
		p, err := t.parseHeaders(s, sd, ch, isRequest)
		if err != nil {
			return false, err
		}
		if p {
			progress = true
		}
	}

	if sd.headDone && sd.chunk != nil && !sd.bodyDone {
		p, err := feedChunks(sd, ch)
		if err != nil {
			if isRequest {
				s.Term |= stream.TermPRX
			} else {
				s.Term |= stream.TermSRV
			}
			return false, err
		}
		if p {
			progress = true
		}
	}

	if markComplete(sd, ch) {
		progress = true
	}

	if ss.decideMode() {
		progress = true
	}

	if t.transactionSync(s, ss) {
		progress = true
	}

	return progress, nil
}

// parseHeaders runs one restartable header-parse attempt for sd and,
// on a fully framed block, derives the side's forwarding budget and
// fires the per-request counters.
func (t *Sessions) parseHeaders(s *stream.Stream, sd *sideState, ch *buffer.Channel, isRequest bool) (bool, error) {
	ch.Realign()
	data := ch.Buffer().Bytes()
	if len(data) == 0 {
		return false, nil
	}

	// Claim the channel as message-framed before the first attempt:
	// nothing may be forwarded until the budget derived from a framed
	// header block says so, keeping the approved-equals-framed
	// invariant exact even when a header block arrives split across
	// several passes. Opaque relaying never reaches here (ss.tunnel
	// short-circuits Parse).
	if ch.ToForward() < 0 {
		ch.SetToForward(0)
	}

	n := h1.HeadersToHdrList(data, isRequest, sd.hdrs, &sd.msg, h1.ParseOptions{})
	switch {
	case n == h1.ResultError:
		now := time.Now()
		if isRequest {
			s.Term |= stream.TermPRX
			countHTTPErr(s, now)
		} else {
			s.Term |= stream.TermSRV
		}
		return false, ErrorParseFailed.Error()
	case n == h1.ResultArrayExhausted:
		grown := make([]h1.HeaderField, len(sd.hdrs)*2)
		sd.hdrs = grown
		return true, nil
	case n == h1.ResultTruncated:
		return false, nil
	}

	sd.headDone = true

	// n is HeadersToHdrList's consumed-byte count on a successful
	// parse (Message.Next is only meaningful on the ResultTruncated
	// path above), so it is the exact header-block length.
	switch {
	case sd.msg.BodyMode() == h1.BodyContentLength:
		ch.SetToForward(int64(n) + int64(sd.msg.BodyLen))
		sd.bounded = true
	case sd.msg.BodyMode() == h1.BodyChunked:
		ch.SetToForward(int64(n))
		sd.bounded = true
		sd.chunk = &h1.ChunkDecoder{}
	case isRequest:
		// A request with neither Content-Length nor a chunked
		// Transfer-Encoding carries no body at all (unlike a
		// response, a request never defaults to read-until-close),
		// so the header block is the whole message.
		ch.SetToForward(int64(n))
		sd.bounded = true
	default:
		// Close-delimited response: everything until the producer
		// shuts down is body. Explicitly unbounded, since the budget
		// may still be 0 from the previous transaction's sync reset.
		ch.SetToForward(-1)
	}

	now := time.Now()
	if isRequest {
		if !sd.counted {
			sd.counted = true
			for i := range s.StkCtr {
				s.StkCtr[i].Start()
			}
		}
		countHTTPReq(s, now)
	} else if sd.msg.SL.StatusCode >= 400 {
		countHTTPErr(s, now)
	}

	return true, nil
}

// feedChunks advances the side's chunk decoder over the bytes beyond
// the already-approved budget (exactly the bytes the decoder has not
// seen yet, since approvals only ever cover fed bytes) and extends the
// budget by what the decoder consumed. Data spans are accounted into
// the message's CurrLen so framing completeness stays checkable.
func feedChunks(sd *sideState, ch *buffer.Channel) (bool, error) {
	ch.Realign()
	data := ch.Buffer().Bytes()

	pending := ch.ToForward()
	if pending < 0 || int64(len(data)) <= pending {
		return false, nil
	}

	spans, consumed, done, err := sd.chunk.Feed(data[pending:])
	if err != nil {
		return false, err
	}

	body := 0
	for _, sp := range spans {
		body += sp.End - sp.Start
	}
	if body > 0 {
		sd.msg.CurrLen += uint64(body)
	}
	if consumed > 0 {
		ch.SetToForward(pending + int64(consumed))
	}
	if done && !sd.bodyDone {
		sd.bodyDone = true
		sd.msg.MarkChunkedDone()
	}

	return consumed > 0 || done, nil
}

// markComplete latches a side as fully forwarded: a bounded side once
// its budget drained (and, for chunked, the decoder saw the final
// chunk), an unbounded side once its producer shut down and every byte
// was drained.
func markComplete(sd *sideState, ch *buffer.Channel) bool {
	if !sd.headDone || sd.complete {
		return false
	}

	if sd.bounded {
		if ch.ToForward() != 0 {
			return false
		}
		if sd.chunk != nil && !sd.bodyDone {
			return false
		}
		if sd.msg.BodyMode() == h1.BodyContentLength {
			sd.msg.CurrLen = sd.msg.BodyLen
		}
	} else if !ch.HasFlag(buffer.FlagShutR) || ch.Buffer().Len() != 0 {
		return false
	}

	sd.msg.MarkDone()
	sd.complete = true
	return true
}

// decideMode makes the transaction's connection-mode decision once the
// response's headers are framed: the client-side rules (explicit
// http-mode, 101/CONNECT, missing transfer length, Connection: close
// from either peer, pre-1.1 without keep-alive) through
// h1.DecideClientMode, tightened by the server side's decision when
// the server-close knob applies.
func (ss *session) decideMode() bool {
	if ss.modeDecided || !ss.res.headDone {
		return false
	}

	forcedTunnel := ss.forcedTunnel
	forcedClose := ss.forcedClose

	if ss.req.headDone {
		if ss.req.msg.Flags&h1.FlagConnCLO != 0 {
			forcedClose = true
		}
		if sc := ss.res.msg.SL.StatusCode; ss.req.msg.SL.Method == "CONNECT" && sc >= 200 && sc < 300 {
			forcedTunnel = true
		}
	}

	mode := h1.DecideClientMode(forcedTunnel, forcedClose, &ss.res.msg)
	if srv := h1.DecideServerMode(ss.serverClose, &ss.res.msg); mode == h1.ModeKeepAlive && srv == h1.ModeClose {
		mode = h1.ModeClose
	}

	ss.mode = mode
	ss.mux.SetMode(mode)
	ss.modeDecided = true

	if mode == h1.ModeTunnel {
		// The response message is header-only; its "body" is the
		// tunnel itself, which SyncPoint switches to once the headers
		// have drained toward the client.
		ss.res.msg.MarkDone()
		ss.res.complete = true
	}

	return true
}

// transactionSync runs the end-of-transaction decision once both
// messages are fully forwarded, letting h1.Mux.SyncPoint arbitrate
// against its buffers: keep-alive resets both sides for the next
// request, tunnel flips the channel pair to opaque forwarding, close
// tears the stream down.
func (t *Sessions) transactionSync(s *stream.Stream, ss *session) bool {
	if ss.tunnel || !ss.modeDecided {
		return false
	}
	if !ss.req.complete || !ss.res.complete {
		return false
	}

	*ss.mux.Req() = ss.req.msg
	*ss.mux.Res() = ss.res.msg

	got := ss.mux.SyncPoint()
	if got != ss.mode {
		// SyncPoint still reports in-flight: a buffer has approved
		// bytes left to drain. Try again next pass.
		return false
	}

	switch got {
	case h1.ModeTunnel:
		ss.tunnel = true
		s.ReqChannel.SetToForward(-1)
		s.ResChannel.SetToForward(-1)

	case h1.ModeClose:
		s.Cancel(time.Now(), 0)

	default:
		// Keep-alive: reset both sides and the mux for the next
		// transaction. Budgets stay at zero so any pipelined bytes
		// already buffered wait for the next request's framing pass
		// instead of tunnelling through unframed.
		ss.mux.Reset()
		ss.req = *newSideState()
		ss.res = *newSideState()
		ss.modeDecided = false
		s.ReqChannel.SetToForward(0)
		s.ResChannel.SetToForward(0)
	}

	return true
}
