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
	"sync/atomic"
	"time"

	"github.com/bits-and-blooms/bitset"

	"github.com/nabbar/gorelay/buffer"
	"github.com/nabbar/gorelay/sched"
)

// Registry maps an analyser's bit position to its callback, shared by
// every Stream in a proxy instance (one Registry per listening
// frontend/backend pair is typical, but nothing here requires that).
type Registry struct {
	fns map[uint]AnalyserFunc
}

// NewRegistry builds an empty analyser Registry.
func NewRegistry() *Registry { return &Registry{fns: make(map[uint]AnalyserFunc)} }

// Register binds an AnalyserFunc to a bit position; panics on a
// duplicate bit since that is always a wiring mistake made once at
// startup, never at request time.
func (r *Registry) Register(bit uint, fn AnalyserFunc) {
	if _, ok := r.fns[bit]; ok {
		panic("stream: analyser bit already registered")
	}
	r.fns[bit] = fn
}

var uniqCounter uint64

// nextUniqID hands out a process-wide monotonically increasing stream
// id, used for logging/stats correlation only.
func nextUniqID() uint64 { return atomic.AddUint64(&uniqCounter, 1) }

// Stream is spec component G: the per-request state machine owning two
// stream-interfaces, two channels, an analyser bitmask per channel, and
// the termination-flag bookkeeping used for logging and counter
// selection.
type Stream struct {
	UniqID uint64

	FrontSI *StreamInterface
	BackSI  *StreamInterface

	ReqChannel *buffer.Channel
	ResChannel *buffer.Channel

	reqAnalysers *bitset.BitSet
	resAnalysers *bitset.BitSet

	registry *Registry

	dispatcher Dispatcher

	StkCtr []StickSlot

	Term TermFlag

	SrvQueueSize int
	PrxQueueSize int

	pendPos int // -1 == not queued; otherwise the FIFO position at last enqueue

	task *sched.Task

	closed bool
}

// New builds a Stream with its two channels already paired to the
// client-side and (not yet assigned) server-side connections, a
// Registry of analysers, and the Dispatcher it consults when the
// server-side SI first reaches SIRequest.
func New(front *StreamInterface, reqCh, resCh *buffer.Channel, reg *Registry, disp Dispatcher, nStkCtr int) *Stream {
	s := &Stream{
		UniqID:       nextUniqID(),
		FrontSI:      front,
		BackSI:       NewServerSI(0),
		ReqChannel:   reqCh,
		ResChannel:   resCh,
		reqAnalysers: bitset.New(64),
		resAnalysers: bitset.New(64),
		registry:     reg,
		dispatcher:   disp,
		StkCtr:       make([]StickSlot, nStkCtr),
		pendPos:      -1,
	}
	s.task = sched.NewTask("stream", s.process, s)
	return s
}

// Task returns the scheduler task driving this Stream's fixed point.
func (s *Stream) Task() *sched.Task { return s.task }

// EnableReqAnalyser / EnableResAnalyser set an analyser bit on the
// request or response channel's bitmask.
func (s *Stream) EnableReqAnalyser(bit uint) { s.reqAnalysers.Set(bit) }
func (s *Stream) EnableResAnalyser(bit uint) { s.resAnalysers.Set(bit) }

// MarkQueued / MarkDequeued track the pendconn position the lb package
// assigns this stream to, so cancellation can find and release
// it exactly once.
func (s *Stream) MarkQueued(pos int)  { s.pendPos = pos }
func (s *Stream) MarkDequeued()       { s.pendPos = -1 }
func (s *Stream) PendPos() int        { return s.pendPos }
func (s *Stream) IsQueued() bool      { return s.pendPos >= 0 }

// process is the process_stream task callback: it runs the
// bitmask-ordered analyser sweep against req then res channels, drives
// the dispatcher when the server-side SI first requests assignment,
// and loops to a fixed point — no analyser made progress AND neither SI
// changed state during the pass — before returning the earliest
// pending deadline across both SIs and both channels.
func (s *Stream) process(_ *sched.Task, reason sched.WakeReason) (time.Time, bool) {
	now := time.Now()

	for {
		progressed := false

		if s.BackSI.State() == SIInit {
			s.BackSI.SetState(now, SIRequest)
			progressed = true
		}

		if s.BackSI.State() == SIRequest && s.dispatcher != nil {
			assigned, c, err := s.dispatcher.Dispatch(now, s)
			switch {
			case err != nil:
				s.BackSI.RecordError(now, err, SIConnectError)
				s.Term |= TermPRX
				progressed = true
			case assigned:
				if aerr := s.BackSI.Assign(now, c); aerr != nil {
					s.BackSI.RecordError(now, aerr, SIConnectError)
				}
				progressed = true
			default:
				s.BackSI.SetState(now, SIQueued)
				progressed = true
			}
		}

		prevFront, prevBack := s.FrontSI.State(), s.BackSI.State()

		if s.runAnalysers(s.ReqChannel, s.reqAnalysers, SideReq) {
			progressed = true
		}
		if s.runAnalysers(s.ResChannel, s.resAnalysers, SideRes) {
			progressed = true
		}

		if s.FrontSI.State() != prevFront || s.BackSI.State() != prevBack {
			progressed = true
		}

		if s.isDone() {
			s.finish()
			return time.Time{}, true
		}

		if !progressed {
			break
		}
	}

	return s.nextExpire(now), false
}

// runAnalysers walks the registry in bit order, invoking every
// registered callback whose bit is set on ch's bitmask, and reports
// whether any of them made progress this sweep.
func (s *Stream) runAnalysers(ch *buffer.Channel, mask *bitset.BitSet, side Side) bool {
	if s.registry == nil || ch == nil {
		return false
	}
	progressed := false
	for bit := uint(0); bit < mask.Len(); bit++ {
		if !mask.Test(bit) {
			continue
		}
		fn, ok := s.registry.fns[bit]
		if !ok {
			continue
		}
		ok2, err := fn(s, ch, side)
		if err != nil {
			s.Term |= TermINT
			mask.Clear(bit)
			continue
		}
		if ok2 {
			progressed = true
		}
	}
	return progressed
}

// isDone reports whether both SIs have reached CLO: the task runs
// until both channels are closed.
func (s *Stream) isDone() bool {
	return s.FrontSI.State() == SIClosed && s.BackSI.State() == SIClosed
}

// finish detaches stick-counters and marks the stream closed exactly
// once, keeping cancellation idempotent.
func (s *Stream) finish() {
	if s.closed {
		return
	}
	s.closed = true
	for i := range s.StkCtr {
		s.StkCtr[i].Stop()
	}
}

// Cancel tears down both SIs, records the termination flags, detaches
// any queue position, and stops counter tracking. Idempotent.
func (s *Stream) Cancel(now time.Time, flags TermFlag) {
	s.Term |= flags
	if s.FrontSI.State() != SIClosed {
		s.FrontSI.SetState(now, SIDisconnecting)
		s.FrontSI.SetState(now, SIClosed)
	}
	if s.BackSI.State() != SIClosed {
		s.BackSI.SetState(now, SIDisconnecting)
		s.BackSI.SetState(now, SIClosed)
	}
	s.MarkDequeued()
	s.finish()
}

// nextExpire is the min(all-expiries) rule: the earliest of the
// two SIs' and two channels' configured deadlines, or the zero Time if
// none are armed.
func (s *Stream) nextExpire(now time.Time) time.Time {
	var out time.Time
	consider := func(t time.Time) {
		if t.IsZero() {
			return
		}
		if out.IsZero() || t.Before(out) {
			out = t
		}
	}
	consider(s.FrontSI.Expire())
	consider(s.BackSI.Expire())
	if s.ReqChannel != nil {
		consider(s.ReqChannel.Expire())
	}
	if s.ResChannel != nil {
		consider(s.ResChannel.Expire())
	}
	if !out.IsZero() && !out.After(now) {
		s.Term |= TermTIMEOUT
	}
	return out
}
