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
	"github.com/cespare/xxhash/v2"
)

// Algorithm selects the backend's dispatch policy.
type Algorithm int

const (
	AlgoRoundRobin Algorithm = iota
	AlgoLeastConn
	AlgoSource
	AlgoURI
	AlgoHash
)

func (a Algorithm) String() string {
	switch a {
	case AlgoRoundRobin:
		return "roundrobin"
	case AlgoLeastConn:
		return "leastconn"
	case AlgoSource:
		return "source"
	case AlgoURI:
		return "uri"
	case AlgoHash:
		return "hash"
	}
	return "?"
}

// pick runs be.Algo over be.Servers and returns the chosen healthy
// server, or nil if none are eligible (caller enqueues instead).
func pick(be *Backend, key string) *Server {
	healthy := make([]*Server, 0, len(be.Servers))
	for _, srv := range be.Servers {
		if srv.Healthy() {
			healthy = append(healthy, srv)
		}
	}
	if len(healthy) == 0 {
		return nil
	}

	switch be.Algo {
	case AlgoLeastConn:
		best := healthy[0]
		bestRatio := ratio(best)
		for _, srv := range healthy[1:] {
			if r := ratio(srv); r < bestRatio {
				best, bestRatio = srv, r
			}
		}
		return best
	case AlgoSource, AlgoURI, AlgoHash:
		sum := 0
		for _, srv := range healthy {
			sum += srv.EWeight
		}
		if sum <= 0 {
			return healthy[0]
		}
		h := xxhash.Sum64String(key) % uint64(sum)
		var acc uint64
		for _, srv := range healthy {
			acc += uint64(srv.EWeight)
			if h < acc {
				return srv
			}
		}
		return healthy[len(healthy)-1]
	default: // AlgoRoundRobin
		idx := be.rrCounter.Add(1) - 1
		sum := 0
		for _, srv := range healthy {
			sum += srv.EWeight
		}
		if sum <= 0 {
			return healthy[int(idx)%len(healthy)]
		}
		pos := int(idx % uint64(sum))
		var acc int
		for _, srv := range healthy {
			acc += srv.EWeight
			if pos < acc {
				return srv
			}
		}
		return healthy[len(healthy)-1]
	}
}

// ratio is the least-conn comparator: current sessions per effective
// weight unit, so heavier servers absorb proportionally more load.
func ratio(s *Server) float64 {
	w := s.EWeight
	if w <= 0 {
		w = 1
	}
	return float64(s.CurSess()+1) / float64(w)
}
