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
	"encoding/binary"
	"net"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"

	libsha "github.com/nabbar/gorelay/encoding/sha256"
)

// KeyType distinguishes the five supported key encodings; all are
// normalised to a string so the table itself only ever deals in one
// key shape.
type KeyType int

const (
	KeyIPv4 KeyType = iota
	KeyIPv6
	KeyInteger
	KeyString
	KeyBinary
)

// KeyFromIP encodes an IPv4 or IPv6 address as a table key.
func KeyFromIP(ip net.IP) string {
	if v4 := ip.To4(); v4 != nil {
		return string(v4)
	}
	return string(ip.To16())
}

// KeyFromInt encodes an integer key as 8 big-endian bytes.
func KeyFromInt(v uint64) string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return string(b[:])
}

// KeyFromString and KeyFromBinary digest their input through SHA-256
// rather than storing it verbatim: LRU eviction only bounds the
// table's entry count, not the length of a single
// string/binary key a client can supply, so every entry is normalised
// to a fixed 32-byte key before it ever reaches the LRU cache or the
// rescued map.
func KeyFromString(s string) string {
	return string(libsha.New().Encode([]byte(s)))
}

func KeyFromBinary(b []byte) string {
	return string(libsha.New().Encode(b))
}

// Table is a bounded, reference-counted, LRU-evicting store of Entry
// records keyed by one of the five types above. When full, an insert
// evicts the least-recently-used unreferenced entry; if every entry is
// referenced, the insert fails.
type Table struct {
	mu sync.Mutex

	name string
	size int
	ttl  time.Duration

	connPeriod time.Duration
	reqPeriod  time.Duration

	cache *lru.Cache

	// rescued holds entries the LRU evicted while still referenced;
	// golang-lru has no "skip referenced" eviction hook, so the
	// OnEvicted callback re-stages them here and GetOrCreate re-adopts
	// them ahead of allocating a fresh Entry, keeping a referenced
	// entry alive even though the underlying
	// cache's own eviction order doesn't know about ref-counts.
	rescued map[string]*Entry
}

// NewTable builds a Table bounded at size entries, with ttl as the
// default expiry (a zero ttl means entries never expire on their own
// and rely solely on unreferenced-LRU eviction).
func NewTable(name string, size int, ttl, connPeriod, reqPeriod time.Duration) *Table {
	t := &Table{name: name, size: size, ttl: ttl, connPeriod: connPeriod, reqPeriod: reqPeriod, rescued: make(map[string]*Entry)}
	c, _ := lru.NewWithEvict(size, t.onEvicted)
	t.cache = c
	return t
}

func (t *Table) onEvicted(key, value interface{}) {
	e := value.(*Entry)
	if e.RefCnt() > 0 {
		t.mu.Lock()
		t.rescued[key.(string)] = e
		t.mu.Unlock()
	}
}

// Name returns the table's configured name (stats-socket `show table`
// / `clear table` commands address tables by this).
func (t *Table) Name() string { return t.name }

// Len reports the number of live entries.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cache.Len() + len(t.rescued)
}

// Lookup returns the entry for key without creating one.
func (t *Table) Lookup(key string) (*Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lookupLocked(key)
}

func (t *Table) lookupLocked(key string) (*Entry, bool) {
	if e, ok := t.rescued[key]; ok {
		return e, true
	}
	if v, ok := t.cache.Get(key); ok {
		return v.(*Entry), true
	}
	return nil, false
}

// GetOrCreate returns the existing entry for key, or allocates and
// inserts a new one. Insertion can fail with ErrorTableFull only when
// the cache is at capacity and golang-lru's own LRU victim turned out
// to still be referenced (rescued) so the table is effectively full of
// live entries.
func (t *Table) GetOrCreate(now time.Time, key string) (*Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e, ok := t.lookupLocked(key); ok {
		return e, nil
	}

	if t.size > 0 && t.cache.Len()+len(t.rescued) >= t.size {
		if !t.evictOneLocked(now) {
			return nil, ErrorTableFull.Error()
		}
	}

	e := newEntry(key, t.connPeriod, t.reqPeriod)
	e.SetExpire(now, t.ttl)
	t.cache.Add(key, e)
	return e, nil
}

// evictOneLocked tries to free one slot for a fresh insert by dropping
// the least-recently-used unreferenced entry, scanning rescued entries
// first (already displaced once by golang-lru's own ordering) and then
// the live cache in its LRU-to-MRU key order. Returns whether a slot
// was freed.
func (t *Table) evictOneLocked(now time.Time) bool {
	for k, e := range t.rescued {
		if e.RefCnt() == 0 {
			delete(t.rescued, k)
			return true
		}
	}
	for _, k := range t.cache.Keys() {
		v, ok := t.cache.Peek(k)
		if !ok {
			continue
		}
		if v.(*Entry).RefCnt() == 0 {
			t.cache.Remove(k)
			return true
		}
	}
	return false
}

// Sweep evicts every rescued entry that is both unreferenced and past
// its expiry.
func (t *Table) Sweep(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for k, e := range t.rescued {
		if e.RefCnt() == 0 && e.Expired(now) {
			delete(t.rescued, k)
		}
	}
}

// Remove forcibly drops key regardless of ref-count (stats-socket
// `clear table`).
func (t *Table) Remove(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.rescued, key)
	t.cache.Remove(key)
}
