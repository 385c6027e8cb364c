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
	"fmt"
	"net"
	"time"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru"
)

// cacheEntry is one LRU slot, keyed by xxhash64(qtype#qname),
// holding the FQDN it was resolved for (so a caller whose runtime FQDN
// changed doesn't get a stale hit) and the answer's last_resolution
// timestamp for the hold.valid comparison.
type cacheEntry struct {
	name     string
	addrs    []net.IP
	resolved time.Time
}

// Cache is the bounded LRU answer cache.
type Cache struct {
	c *lru.Cache
}

// NewCache builds a Cache bounded at size entries.
func NewCache(size int) *Cache {
	c, _ := lru.New(size)
	return &Cache{c: c}
}

// cacheKey implements "LRU keyed by xxhash64(qtype || '#' || qname_dn)".
func cacheKey(qtype uint16, qname string) uint64 {
	return xxhash.Sum64String(fmt.Sprintf("%d#%s", qtype, qname))
}

// Lookup returns cached addresses for (qtype, qname) if present, the
// stored name matches (the requested FQDN may change at runtime), and
// min(resolversHold, callerValid) has not elapsed since last_resolution.
func (c *Cache) Lookup(now time.Time, qtype uint16, qname string, resolversHold, callerValid time.Duration) ([]net.IP, bool) {
	v, ok := c.c.Get(cacheKey(qtype, qname))
	if !ok {
		return nil, false
	}
	e := v.(*cacheEntry)
	if e.name != qname {
		return nil, false
	}
	valid := resolversHold
	if callerValid > 0 && callerValid < valid {
		valid = callerValid
	}
	if valid > 0 && now.Sub(e.resolved) >= valid {
		return nil, false
	}
	return e.addrs, true
}

// Store records a fresh answer.
func (c *Cache) Store(now time.Time, qtype uint16, qname string, addrs []net.IP) {
	c.c.Add(cacheKey(qtype, qname), &cacheEntry{name: qname, addrs: addrs, resolved: now})
}
