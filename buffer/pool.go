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

package buffer

import (
	"sync"
)

// WakeFunc is invoked by the Pool when a previously exhausted allocation
// might now succeed. The waiter must call Pool.Get again; it is free to
// decide it no longer wants a buffer.
type WakeFunc func()

// waiter is one entry of the global buffer_wait FIFO.
type waiter struct {
	wake WakeFunc
}

// Pool is a bounded free-list of fixed-size buffers. When exhausted,
// allocation does not block or retry automatically: the caller enqueues a
// waiter and stops requesting reads.
type Pool struct {
	mu       sync.Mutex
	bufSize  int
	free     [][]byte
	limit    int
	handed   int
	waitFIFO []waiter
}

// NewPool creates a pool of buffers each bufSize bytes, capped at most
// limit buffers outstanding (handed out + free) at once.
func NewPool(bufSize, limit int) *Pool {
	return &Pool{
		bufSize: bufSize,
		limit:   limit,
	}
}

// BufferSize returns the fixed size of every buffer in the pool.
func (p *Pool) BufferSize() int {
	return p.bufSize
}

// Get attempts to obtain a Buffer. ok is false if the pool is exhausted;
// the caller should then call Wait to enqueue a wakeup callback.
func (p *Pool) Get() (buf *Buffer, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n := len(p.free); n > 0 {
		store := p.free[n-1]
		p.free = p.free[:n-1]
		p.handed++
		return NewBuffer(store), true
	}

	if p.limit <= 0 || p.handed < p.limit {
		p.handed++
		return NewBuffer(make([]byte, p.bufSize)), true
	}

	return nil, false
}

// Put releases a buffer back to the pool and triggers offer_buffers: it
// wakes exactly one FIFO waiter at a time.
func (p *Pool) Put(b *Buffer) {
	if b == nil {
		return
	}
	b.Reset()

	p.mu.Lock()
	p.handed--
	if p.handed < 0 {
		p.handed = 0
	}
	store := b.store
	if cap(store) == p.bufSize {
		p.free = append(p.free, store)
	}
	var next WakeFunc
	if len(p.waitFIFO) > 0 {
		next = p.waitFIFO[0].wake
		p.waitFIFO = p.waitFIFO[1:]
	}
	p.mu.Unlock()

	if next != nil {
		next()
	}
}

// Wait enqueues a waiter whose wake callback will be invoked the next
// time a buffer is released. Buffer-wait wakeups run before the
// analyser sweep is re-armed.
func (p *Pool) Wait(wake WakeFunc) {
	p.mu.Lock()
	p.waitFIFO = append(p.waitFIFO, waiter{wake: wake})
	p.mu.Unlock()
}

// Waiting returns the number of parked allocation requests.
func (p *Pool) Waiting() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.waitFIFO)
}

// InUse returns the number of buffers currently handed out.
func (p *Pool) InUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handed
}
