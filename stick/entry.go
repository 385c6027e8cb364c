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
	"sync/atomic"
	"time"
)

// DataType indexes an Entry's data slots (conn_cur,
// conn_cnt, conn_rate, http_req_cnt, http_req_rate, http_err_cnt,
// http_err_rate, ...).
type DataType int

const (
	DataConnCur DataType = iota
	DataConnCnt
	DataConnRate
	DataHTTPReqCnt
	DataHTTPReqRate
	DataHTTPErrCnt
	DataHTTPErrRate
	dataTypeCount
)

func (d DataType) String() string {
	switch d {
	case DataConnCur:
		return "conn_cur"
	case DataConnCnt:
		return "conn_cnt"
	case DataConnRate:
		return "conn_rate"
	case DataHTTPReqCnt:
		return "http_req_cnt"
	case DataHTTPReqRate:
		return "http_req_rate"
	case DataHTTPErrCnt:
		return "http_err_cnt"
	case DataHTTPErrRate:
		return "http_err_rate"
	}
	return "?"
}

// Entry is spec component I's stick-table entry: a key, an expiry tick,
// a reference count guarding liveness, and the data slots themselves.
// Counts are plain atomics; rates are RateCounters (sliding windows).
type Entry struct {
	Key string

	expire atomic.Int64 // unix nano; 0 == no expiry armed
	refCnt atomic.Int32

	connCur    atomic.Int64
	connCnt    atomic.Int64
	httpReqCnt atomic.Int64
	httpErrCnt atomic.Int64

	connRate    *RateCounter
	httpReqRate *RateCounter
	httpErrRate *RateCounter
}

func newEntry(key string, connPeriod, reqPeriod time.Duration) *Entry {
	return &Entry{
		Key:         key,
		connRate:    NewRateCounter(connPeriod),
		httpReqRate: NewRateCounter(reqPeriod),
		httpErrRate: NewRateCounter(reqPeriod),
	}
}

// RefCnt returns the current reference count.
func (e *Entry) RefCnt() int32 { return e.refCnt.Load() }

// Expired reports whether e's expiry tick has passed as of now; a zero
// expiry means "never expires".
func (e *Entry) Expired(now time.Time) bool {
	exp := e.expire.Load()
	return exp != 0 && now.UnixNano() >= exp
}

// SetExpire arms e's expiry tick at now+ttl.
func (e *Entry) SetExpire(now time.Time, ttl time.Duration) {
	if ttl <= 0 {
		e.expire.Store(0)
		return
	}
	e.expire.Store(now.Add(ttl).UnixNano())
}

// Get reads one data slot's current value (rates are evaluated at now).
func (e *Entry) Get(d DataType, now time.Time) int64 {
	switch d {
	case DataConnCur:
		return e.connCur.Load()
	case DataConnCnt:
		return e.connCnt.Load()
	case DataConnRate:
		return e.connRate.Rate(now)
	case DataHTTPReqCnt:
		return e.httpReqCnt.Load()
	case DataHTTPReqRate:
		return e.httpReqRate.Rate(now)
	case DataHTTPErrCnt:
		return e.httpErrCnt.Load()
	case DataHTTPErrRate:
		return e.httpErrRate.Rate(now)
	}
	return 0
}

// Set overwrites one data slot (used by the stats socket's `set table`
// command).
func (e *Entry) Set(d DataType, v int64) {
	switch d {
	case DataConnCur:
		e.connCur.Store(v)
	case DataConnCnt:
		e.connCnt.Store(v)
	case DataHTTPReqCnt:
		e.httpReqCnt.Store(v)
	case DataHTTPErrCnt:
		e.httpErrCnt.Store(v)
	}
}
