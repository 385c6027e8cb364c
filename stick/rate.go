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

// RateCounter is a two-bucket sliding-window rate counter (current
// period + previous period, linearly weighted by elapsed time into the
// current period), giving a sliding-window rate over a configured
// period without requiring a full timestamped ring of every event.
type RateCounter struct {
	mu sync.Mutex

	period time.Duration

	currStart time.Time
	currCnt   int64
	prevCnt   int64
}

// NewRateCounter builds a counter over the given period (e.g. 1s for
// conn_rate, 10s for http_req_rate — the period is a table-level
// config knob, not fixed here).
func NewRateCounter(period time.Duration) *RateCounter {
	return &RateCounter{period: period}
}

// Add records n events at now, rolling the bucket forward first if the
// current period has elapsed.
func (r *RateCounter) Add(now time.Time, n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rollLocked(now)
	r.currCnt += n
}

// Rate returns the estimated events-per-period rate as of now.
func (r *RateCounter) Rate(now time.Time) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rollLocked(now)
	if r.period <= 0 {
		return r.currCnt
	}
	elapsed := now.Sub(r.currStart)
	if elapsed <= 0 {
		return r.prevCnt
	}
	w := float64(elapsed) / float64(r.period)
	if w > 1 {
		w = 1
	}
	return int64(float64(r.prevCnt)*(1-w) + float64(r.currCnt))
}

func (r *RateCounter) rollLocked(now time.Time) {
	if r.currStart.IsZero() {
		r.currStart = now
		return
	}
	if r.period <= 0 {
		return
	}
	elapsed := now.Sub(r.currStart)
	periods := int64(elapsed / r.period)
	if periods <= 0 {
		return
	}
	if periods == 1 {
		r.prevCnt = r.currCnt
	} else {
		r.prevCnt = 0
	}
	r.currCnt = 0
	r.currStart = r.currStart.Add(time.Duration(periods) * r.period)
}
