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

package statsock

import (
	"sync"
	"sync/atomic"

	"github.com/nabbar/gorelay/lb"
	"github.com/nabbar/gorelay/stick"
)

// Frontend is the listener-side counter set the stats socket and CSV
// dump report on each frontend row. The listener
// owning the accept loop increments these directly; statsock only
// reads them.
type Frontend struct {
	Name string

	CurSess int64
	MaxSess int64
	TotSess int64

	BytesIn  int64
	BytesOut int64

	ReqErrors    int64
	DeniedReq    int64
	DeniedResp   int64

	disabled int32 // atomic bool
}

func NewFrontend(name string) *Frontend { return &Frontend{Name: name} }

func (f *Frontend) Disabled() bool    { return atomic.LoadInt32(&f.disabled) != 0 }
func (f *Frontend) SetDisabled(v bool) {
	i := int32(0)
	if v {
		i = 1
	}
	atomic.StoreInt32(&f.disabled, i)
}

func (f *Frontend) IncSess() int64 {
	n := atomic.AddInt64(&f.CurSess, 1)
	atomic.AddInt64(&f.TotSess, 1)
	for {
		max := atomic.LoadInt64(&f.MaxSess)
		if n <= max || atomic.CompareAndSwapInt64(&f.MaxSess, max, n) {
			break
		}
	}
	return n
}

func (f *Frontend) DecSess() int64 { return atomic.AddInt64(&f.CurSess, -1) }

// Registry is the stats socket's view of a running proxy instance: its
// frontends, backends (each carrying its Servers), and stick tables,
// looked up by name for command addressing.
type Registry struct {
	mu sync.RWMutex

	frontends map[string]*Frontend
	backends  map[string]*lb.Backend
	tables    map[string]*stick.Table
}

func NewRegistry() *Registry {
	return &Registry{
		frontends: make(map[string]*Frontend),
		backends:  make(map[string]*lb.Backend),
		tables:    make(map[string]*stick.Table),
	}
}

func (r *Registry) AddFrontend(f *Frontend) {
	r.mu.Lock()
	r.frontends[f.Name] = f
	r.mu.Unlock()
}

func (r *Registry) AddBackend(b *lb.Backend) {
	r.mu.Lock()
	r.backends[b.Name] = b
	r.mu.Unlock()
}

func (r *Registry) AddTable(t *stick.Table) {
	r.mu.Lock()
	r.tables[t.Name()] = t
	r.mu.Unlock()
}

func (r *Registry) Frontend(name string) (*Frontend, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.frontends[name]
	return f, ok
}

func (r *Registry) Backend(name string) (*lb.Backend, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.backends[name]
	return b, ok
}

func (r *Registry) Table(name string) (*stick.Table, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tables[name]
	return t, ok
}

// Frontends / Backends / Tables return stable-ish snapshots for the
// commands that iterate every registered object (`show stat`, `show
// info`). Copying the map under the lock keeps iteration safe against
// concurrent registration.
func (r *Registry) Frontends() []*Frontend {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Frontend, 0, len(r.frontends))
	for _, f := range r.frontends {
		out = append(out, f)
	}
	return out
}

func (r *Registry) Backends() []*lb.Backend {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*lb.Backend, 0, len(r.backends))
	for _, b := range r.backends {
		out = append(out, b)
	}
	return out
}

// ServerByName finds a server addressed as "backend/server", the
// `bk/sv` syntax the `get weight`/`set weight`/`enable|disable server`
// commands use.
func (r *Registry) ServerByName(spec string) (*lb.Backend, *lb.Server, bool) {
	be, srv, ok := splitBkSv(spec)
	if !ok {
		return nil, nil, false
	}
	b, ok := r.Backend(be)
	if !ok {
		return nil, nil, false
	}
	for _, s := range b.Servers {
		if s.Name == srv {
			return b, s, true
		}
	}
	return b, nil, false
}

func splitBkSv(spec string) (backend, server string, ok bool) {
	for i := 0; i < len(spec); i++ {
		if spec[i] == '/' {
			return spec[:i], spec[i+1:], true
		}
	}
	return "", "", false
}
