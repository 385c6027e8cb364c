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

// Package buffer implements the pooled, fixed-size ring buffer and the
// half-duplex channel built on top of it (spec component A).
package buffer

// Buffer is a fixed-capacity ring over a byte slice. It never reallocates:
// capacity is set once at construction by the Pool. head is the offset of
// the first unread byte; size is the number of valid bytes starting at
// head (may wrap past the end of the backing array); reserve is headroom
// kept free so an analyser can rewrite headers in place without
// overflowing.
//
// Invariant: 0 <= size <= cap(store); head is always taken modulo
// cap(store) by every accessor.
type Buffer struct {
	store   []byte
	head    int
	size    int
	reserve int
}

// NewBuffer wraps an existing backing array (normally handed out by a
// Pool) into an empty Buffer.
func NewBuffer(store []byte) *Buffer {
	return &Buffer{store: store}
}

// Cap returns the total backing capacity.
func (b *Buffer) Cap() int {
	if b == nil {
		return 0
	}
	return len(b.store)
}

// Len returns the number of valid, unread bytes currently held.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return b.size
}

// Room returns how many more bytes can be appended before hitting the
// reserved headroom boundary.
func (b *Buffer) Room() int {
	if b == nil {
		return 0
	}
	free := len(b.store) - b.size - b.reserve
	if free < 0 {
		return 0
	}
	return free
}

// SetReserve configures the rewrite headroom: the producer must
// never write past cap-reserve bytes of outstanding data.
func (b *Buffer) SetReserve(n int) {
	if b == nil {
		return
	}
	b.reserve = n
}

// IsEmpty reports whether the buffer currently holds no data.
func (b *Buffer) IsEmpty() bool {
	return b.Len() == 0
}

// IsFull reports whether no more bytes can be appended given the current
// reserve.
func (b *Buffer) IsFull() bool {
	return b.Room() == 0
}

// Reset empties the buffer without releasing the backing array.
func (b *Buffer) Reset() {
	if b == nil {
		return
	}
	b.head = 0
	b.size = 0
}

// Contiguous reports whether the valid data region does not wrap past the
// end of the backing array.
func (b *Buffer) Contiguous() bool {
	if b == nil || b.size == 0 {
		return true
	}
	return b.head+b.size <= len(b.store)
}

// Write appends p to the buffer, wrapping as needed. It never writes past
// the reserved headroom; if p does not fit, it writes as much as fits and
// returns the short count with ErrorWouldOverflow-shaped false ok.
func (b *Buffer) Write(p []byte) (n int, full bool) {
	if b == nil || len(b.store) == 0 {
		return 0, true
	}

	room := b.Room()
	if len(p) > room {
		p = p[:room]
		full = true
	}

	n = len(p)
	if n == 0 {
		return 0, full
	}

	cap := len(b.store)
	at := (b.head + b.size) % cap
	first := cap - at
	if first > n {
		first = n
	}
	copy(b.store[at:at+first], p[:first])
	if first < n {
		copy(b.store[0:n-first], p[first:])
	}
	b.size += n
	return n, full
}

// Peek returns up to max contiguous-or-not bytes starting at head without
// consuming them, by copying into dst. It returns the number of bytes
// copied.
func (b *Buffer) Peek(dst []byte) int {
	if b == nil || b.size == 0 {
		return 0
	}
	n := len(dst)
	if n > b.size {
		n = b.size
	}
	cap := len(b.store)
	first := cap - b.head
	if first > n {
		first = n
	}
	copy(dst[:first], b.store[b.head:b.head+first])
	if first < n {
		copy(dst[first:n], b.store[0:n-first])
	}
	return n
}

// Advance consumes n bytes from the head of the buffer (the data is
// considered forwarded/delivered). n is clamped to Len().
func (b *Buffer) Advance(n int) int {
	if b == nil {
		return 0
	}
	if n > b.size {
		n = b.size
	}
	if n <= 0 {
		return 0
	}
	b.head = (b.head + n) % len(b.store)
	b.size -= n
	return n
}

// ByteAt returns the byte at logical offset i (0 == oldest unread byte)
// and whether i was within range.
func (b *Buffer) ByteAt(i int) (byte, bool) {
	if b == nil || i < 0 || i >= b.size {
		return 0, false
	}
	return b.store[(b.head+i)%len(b.store)], true
}

// Bytes returns a contiguous copy of the valid region. Prefer Realign
// when the caller needs in-place contiguity instead of a copy.
func (b *Buffer) Bytes() []byte {
	out := make([]byte, b.Len())
	b.Peek(out)
	return out
}

// Realign linearises a wrapped buffer in place by rotating the backing
// array so head becomes 0, for consumers needing contiguous bytes. It is a
// no-op if the buffer is already contiguous.
func (b *Buffer) Realign() {
	if b == nil || b.Contiguous() || b.size == 0 {
		if b != nil && b.size == 0 {
			b.head = 0
		}
		return
	}

	tmp := make([]byte, b.size)
	b.Peek(tmp)
	copy(b.store, tmp)
	b.head = 0
}

// StoreSlice exposes the backing array for zero-copy producer use (e.g.
// net.Conn.Read into the free region). Callers must call Write-equivalent
// bookkeeping (Grow) after filling it.
func (b *Buffer) StoreSlice() []byte {
	if b == nil {
		return nil
	}
	return b.store
}

// FreeRegion returns up to two slices describing the writable region
// (accounting for wraparound) so a reader can do a zero-copy readv-style
// fill followed by Grow(n).
func (b *Buffer) FreeRegion() (first, second []byte) {
	if b == nil {
		return nil, nil
	}
	room := b.Room()
	if room == 0 {
		return nil, nil
	}
	cap := len(b.store)
	at := (b.head + b.size) % cap
	tail := cap - at
	if tail >= room {
		return b.store[at : at+room], nil
	}
	return b.store[at:cap], b.store[0 : room-tail]
}

// Grow records that n bytes were written directly into FreeRegion's
// slices, advancing size accordingly. n is clamped to Room().
func (b *Buffer) Grow(n int) int {
	if b == nil {
		return 0
	}
	if n > b.Room() {
		n = b.Room()
	}
	if n < 0 {
		n = 0
	}
	b.size += n
	return n
}
