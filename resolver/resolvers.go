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

package resolver

import (
	"sync"
	"time"

	"github.com/nabbar/gorelay/errors"
	"github.com/nabbar/gorelay/sched"
)

// Sender abstracts "send this query to this nameserver", letting tests
// substitute a fake transport without a real UDP socket; net.Conn
// (already connected via net.Dial("udp", addr)) satisfies it directly.
type Sender interface {
	Write(p []byte) (int, error)
}

// Resolvers is one task driving a FIFO of in-flight Resolutions
// across a set of configured nameservers.
type Resolvers struct {
	mu sync.Mutex

	nameservers []Sender
	inflight    map[uint16]*Resolution // the "per-resolvers 32-bit tree", a plain map here

	retryPeriod time.Duration
	holdValid   time.Duration

	cache *Cache

	seed uint64 // xorshift64 state for query-id generation

	task *sched.Task
	wake func()
}

// SetWaker installs the callback send() invokes after writing a query,
// wiring this Resolvers' task into a live sched.Scheduler the way
// conn.Connection.onWake wires a Connection's readiness into its mux.
func (r *Resolvers) SetWaker(fn func()) {
	r.mu.Lock()
	r.wake = fn
	r.mu.Unlock()
}

// New builds a Resolvers over the given nameserver senders (typically
// connected UDP sockets), retrying unanswered queries every retryPeriod
// and caching answers per holdValid.
func New(nameservers []Sender, retryPeriod, holdValid time.Duration, cacheSize int) *Resolvers {
	r := &Resolvers{
		nameservers: nameservers,
		inflight:    make(map[uint16]*Resolution),
		retryPeriod: retryPeriod,
		holdValid:   holdValid,
		cache:       NewCache(cacheSize),
		seed:        0x9E3779B97F4A7C15,
	}
	r.task = sched.NewTask("resolvers", r.process, r)
	return r
}

// Task returns the scheduler task driving retry scans.
func (r *Resolvers) Task() *sched.Task { return r.task }

// nextID implements "query-ID seed is a 64-bit xorshift", producing a
// 16-bit id not currently in flight.
func (r *Resolvers) nextID() uint16 {
	for {
		r.seed ^= r.seed << 13
		r.seed ^= r.seed >> 7
		r.seed ^= r.seed << 17
		id := uint16(r.seed)
		if _, busy := r.inflight[id]; !busy {
			return id
		}
	}
}

// Resolve starts (or serves from cache) a resolution for hostname at
// the given query type. validPeriod is the caller's own freshness
// requirement, combined with the resolvers-wide hold as
// min(holdValid, validPeriod).
func (r *Resolvers) Resolve(now time.Time, hostname string, qtype uint16, validPeriod time.Duration, maxTries, tryCNAME int, cb RequesterCallback, errCb RequesterErrorCallback) {
	if addrs, ok := r.cache.Lookup(now, qtype, hostname, r.holdValid, validPeriod); ok {
		if len(addrs) > 0 && cb != nil {
			cb(addrs[0])
			return
		}
	}

	res := NewResolution(hostname, qtype, maxTries, tryCNAME, cb, errCb)

	r.mu.Lock()
	res.QueryID = r.nextID()
	r.inflight[res.QueryID] = res
	r.mu.Unlock()

	r.send(now, res)
}

// send builds the query and writes it to every configured
// nameserver's UDP socket.
func (r *Resolvers) send(now time.Time, res *Resolution) {
	pkt := EncodeQuery(res.QueryID, res.Hostname, res.QType)
	r.mu.Lock()
	servers := r.nameservers
	r.mu.Unlock()
	for _, ns := range servers {
		_, _ = ns.Write(pkt)
	}
	res.LastSentPacket = now

	r.mu.Lock()
	wake := r.wake
	r.mu.Unlock()
	if wake != nil {
		wake()
	}
}

// HandleResponse drives the response path: parse, validate
// against the in-flight table (discarding responses whose id is
// unknown or already completed as "outdated"), chase CNAMEs, try the
// other address family on a CNAME-only or empty answer up to TryCNAME
// times, cache the result, and invoke the requester's callback.
func (r *Resolvers) HandleResponse(now time.Time, msg []byte) error {
	h, err := decodeHeader(msg)
	if err != nil {
		return err
	}

	r.mu.Lock()
	res, ok := r.inflight[h.id]
	r.mu.Unlock()
	if !ok {
		return ErrorOutdatedID.Error()
	}

	ans, perr := ParseResponse(msg, res.QueryID, res.QType)
	res.NbResponses++

	if perr != nil {
		if errors.IsCode(perr, ErrorTruncated) || (ans != nil && ans.CNAMEOnly) {
			if res.switchFamily() {
				r.send(now, res)
				return nil
			}
		}
		r.fail(res, perr)
		return nil
	}

	if len(ans.Addrs) == 0 {
		if res.switchFamily() {
			r.send(now, res)
			return nil
		}
		r.fail(res, ErrorCNAME.Error())
		return nil
	}

	res.LastResolution = now
	r.cache.Store(now, res.QType, res.Hostname, ans.Addrs)
	r.complete(res)
	if res.RequesterCallback != nil {
		res.RequesterCallback(ans.Addrs[0])
	}
	return nil
}

func (r *Resolvers) fail(res *Resolution, err error) {
	r.complete(res)
	if res.RequesterErrorCallback != nil {
		res.RequesterErrorCallback(err)
	}
}

func (r *Resolvers) complete(res *Resolution) {
	r.mu.Lock()
	delete(r.inflight, res.QueryID)
	r.mu.Unlock()
}

// process is the scheduler task callback: scan in-flight resolutions
// for ones whose retry deadline has elapsed, decrementing Try and
// either resending or failing once exhausted.
func (r *Resolvers) process(_ *sched.Task, _ sched.WakeReason) (time.Time, bool) {
	now := time.Now()
	var earliest time.Time

	r.mu.Lock()
	due := make([]*Resolution, 0, len(r.inflight))
	for _, res := range r.inflight {
		deadline := res.LastSentPacket.Add(r.retryPeriod)
		if !now.Before(deadline) {
			due = append(due, res)
		} else if earliest.IsZero() || deadline.Before(earliest) {
			earliest = deadline
		}
	}
	r.mu.Unlock()

	for _, res := range due {
		res.Try--
		if res.Try <= 0 {
			r.fail(res, ErrorTriesExhausted.Error())
			continue
		}
		r.send(now, res)
	}

	if earliest.IsZero() {
		return time.Time{}, false
	}
	return earliest, false
}
