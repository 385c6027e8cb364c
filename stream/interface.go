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

	"github.com/nabbar/gorelay/buffer"
	"github.com/nabbar/gorelay/conn"
)

// Dispatcher is the load-balancer collaborator a Stream calls when its
// server-side SI reaches SIRequest. lb.Backend satisfies this without
// stream importing lb, keeping the dependency edge one-directional (lb
// may import stream for Pendconn bookkeeping, stream never imports lb).
type Dispatcher interface {
	// Dispatch attempts to assign a server immediately. It returns
	// assigned=true with a live Connection when a server accepted the
	// stream directly; assigned=false (with a nil error) when the
	// stream was queued instead, in which case the Stream transitions
	// to SIQueued and waits to be woken by the dispatcher's dequeue.
	Dispatch(now time.Time, s *Stream) (assigned bool, c *conn.Connection, err error)
}

// CounterSink is the stick-table collaborator a Stream calls on
// tracking start/stop. stick.Table
// satisfies this without stream importing stick.
type CounterSink interface {
	StartCounters()
	StoreCounters()
}

// StickSlot is one of a Stream's tracking slots: a CounterSink plus
// two independent gating flags, kept as a plain boolean pair rather
// than tag bits packed into a pointer.
type StickSlot struct {
	Sink          CounterSink
	TrackBackend  bool
	TrackContent  bool
	tracking      bool
}

// Start begins tracking if not already tracking; idempotent.
func (s *StickSlot) Start() {
	if s.Sink == nil || s.tracking {
		return
	}
	s.Sink.StartCounters()
	s.tracking = true
}

// Stop ends tracking if currently tracking; idempotent.
func (s *StickSlot) Stop() {
	if s.Sink == nil || !s.tracking {
		return
	}
	s.Sink.StoreCounters()
	s.tracking = false
}

// Side selects which of a Stream's two channels an analyser observes.
type Side int

const (
	SideReq Side = iota
	SideRes
)

// AnalyserFunc is a pluggable per-channel callback invoked by the
// fixed-point driver whenever its registry slot's bit is set in a
// Stream's analyser bitmask. It reports whether it made forward progress this pass (moved
// bytes, changed a flag) so the driver knows whether another pass is
// warranted.
type AnalyserFunc func(s *Stream, ch *buffer.Channel, side Side) (progress bool, err error)
