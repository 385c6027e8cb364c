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
	"container/list"
	"sync"
	"time"

	"github.com/nabbar/gorelay/stream"
)

// PendConn is spec component H's pending-connection record: an owning
// relation between a queued Stream and the server it was pinned to (nil
// when the backend's algorithm, not stickiness, will choose the
// server).
type PendConn struct {
	Stream *stream.Stream
	Srv    *Server

	tvRequest time.Time

	mu     sync.Mutex
	freed  bool
	owner  *fifo
	elem   *list.Element
}

// fifo is an arrival-ordered pendconn queue backing either a Server's or
// a Backend's pendconns list.
type fifo struct {
	mu   sync.Mutex
	l    *list.List
	size int
}

func newFIFO() *fifo { return &fifo{l: list.New()} }

// push enqueues pc at the tail, recording arrival order for the
// cross-queue age tie-break.
func (f *fifo) push(pc *PendConn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pc.mu.Lock()
	pc.owner = f
	pc.elem = f.l.PushBack(pc)
	pc.mu.Unlock()
	f.size++
}

// peekOldest returns the pendconn at the head without removing it, or
// nil if empty.
func (f *fifo) peekOldest() *PendConn {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.l.Len() == 0 {
		return nil
	}
	return f.l.Front().Value.(*PendConn)
}

// remove detaches pc from whichever fifo currently owns it, decrementing
// that fifo's size. Safe to call more than once; the second call is a
// no-op because owner/elem are cleared on the first.
func (f *fifo) remove(pc *PendConn) {
	pc.mu.Lock()
	owner, elem := pc.owner, pc.elem
	pc.owner, pc.elem = nil, nil
	pc.mu.Unlock()

	if owner == nil || elem == nil {
		return
	}
	owner.mu.Lock()
	owner.l.Remove(elem)
	owner.size--
	owner.mu.Unlock()
}

// Len reports the number of pendconns currently queued.
func (f *fifo) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.l.Len()
}

// Free releases pc from its queue and decrements the correct nbpend
// counters: it must decrement
// srv.nbpend or be.nbpend, always be.totpend, and NULL the stream's
// back-pointer exactly once.
func (be *Backend) Free(pc *PendConn) {
	pc.mu.Lock()
	if pc.freed {
		pc.mu.Unlock()
		return
	}
	pc.freed = true
	pc.mu.Unlock()

	if pc.Srv != nil {
		pc.Srv.queue.remove(pc)
	} else {
		be.queue.remove(pc)
	}
	be.totPend.Add(-1)
	if pc.Stream != nil {
		pc.Stream.MarkDequeued()
	}
}
