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

package stick

import (
	"sync"
	"time"
)

// Tracker binds one Stream's stkctr slot to one Table entry. It
// implements stream.CounterSink (StartCounters/StoreCounters) without
// stick importing stream, keeping the dependency one-directional;
// stream.StickSlot holds this behind its Sink field.
type Tracker struct {
	table *Table
	entry *Entry

	mu      sync.Mutex
	started bool
}

// Track begins (or resumes) tracking key on t, returning a Tracker a
// stream.StickSlot can use as its CounterSink. The entry is created if
// it doesn't already exist; ErrorTableFull propagates if the table is
// at capacity with no evictable slot.
func (t *Table) Track(now time.Time, key string) (*Tracker, error) {
	e, err := t.GetOrCreate(now, key)
	if err != nil {
		return nil, err
	}
	return &Tracker{table: t, entry: e}, nil
}

// StartCounters begins tracking: bump conn_cur and
// conn_cnt, update conn_rate, and increment the entry's ref_cnt. Safe to
// call more than once; only the first call after construction (or after
// a matching StoreCounters) has effect.
func (tr *Tracker) StartCounters() {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if tr.started {
		return
	}
	tr.started = true

	now := time.Now()
	tr.entry.connCur.Add(1)
	tr.entry.connCnt.Add(1)
	tr.entry.connRate.Add(now, 1)
	tr.entry.refCnt.Add(1)
}

// StoreCounters implements the matching half: decrement conn_cur and
// ref_cnt; if the entry is now both expired and unreferenced it is left
// for the next Table.Sweep to reclaim (eviction itself is centralised
// there so concurrent Trackers on the same entry don't race on it).
func (tr *Tracker) StoreCounters() {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if !tr.started {
		return
	}
	tr.started = false

	tr.entry.connCur.Add(-1)
	tr.entry.refCnt.Add(-1)
}

// IncHTTPReq / IncHTTPErr implement the content-level (TRACK_CONTENT)
// updates gated separately from the connection-level start/store
// pair: an analyser calls these once per request/error observed on a
// tracked stream, independent of StartCounters/StoreCounters' lifetime.
func (tr *Tracker) IncHTTPReq(now time.Time) {
	tr.entry.httpReqCnt.Add(1)
	tr.entry.httpReqRate.Add(now, 1)
}

func (tr *Tracker) IncHTTPErr(now time.Time) {
	tr.entry.httpErrCnt.Add(1)
	tr.entry.httpErrRate.Add(now, 1)
}

// Entry exposes the bound Entry for read-only inspection (stats socket
// `show table`).
func (tr *Tracker) Entry() *Entry { return tr.entry }
