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
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// State is a server's administrative/health state.
type State int

const (
	StateRunning State = iota
	StateBackup
	StateMaintain
	StateWarmingUp
	StateGoingDown
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "RUNNING"
	case StateBackup:
		return "BACKUP"
	case StateMaintain:
		return "MAINT"
	case StateWarmingUp:
		return "WARMUP"
	case StateGoingDown:
		return "DRAIN"
	}
	return "?"
}

// Counters tracks the lifetime connect/retry counters for stats-socket
// and CSV reporting.
type Counters struct {
	Retries     int64
	Redispatch  int64
	ConnectErr  int64
	Served      int64
}

// Server is spec component H's per-server record: weight, health,
// concurrency limits, slow-start ramp, and its own pendconn FIFO.
type Server struct {
	mu sync.RWMutex

	Name   string
	Addr   string
	Weight int
	EWeight int

	Dial func(network, addr string) (net.Conn, error)

	state  State
	health bool

	Rise, Fall int
	riseLeft, fallLeft int

	MaxConn int
	MinConn int
	FullConn int // the backend's fullconn, copied in for the formula

	SlowStart time.Duration
	LastChange time.Time

	curSess int64 // atomic: live assigned streams
	served  int64 // atomic: tracked separately from curSess for queue accounting

	Counters Counters

	queue *fifo
}

// NewServer builds a Server in StateRunning with an empty pendconn
// queue; Rise/Fall default to 1 (first good/bad check flips health).
func NewServer(name, addr string, weight int) *Server {
	if weight <= 0 {
		weight = 1
	}
	return &Server{
		Name: name, Addr: addr, Weight: weight, EWeight: weight,
		state: StateRunning, health: true,
		Rise: 1, Fall: 1,
		MaxConn: 1 << 20, MinConn: 0,
		LastChange: time.Now(),
		queue:      newFIFO(),
	}
}

// State / SetState expose the administrative state; SetState stamps
// LastChange so the slow-start ramp measures from the most
// recent transition.
func (s *Server) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Server) SetState(now State, at time.Time) {
	s.mu.Lock()
	s.state = now
	s.LastChange = at
	s.mu.Unlock()
}

// Healthy reports whether the server currently passes health checks
// and is in a state eligible for new traffic (RUNNING or WARMINGUP).
func (s *Server) Healthy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.health {
		return false
	}
	return s.state == StateRunning || s.state == StateWarmingUp
}

// SetHealth records the result of one health check, decrementing the
// opposite counter and flipping state once Rise/Fall consecutive
// results accrue.
func (s *Server) SetHealth(ok bool, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ok {
		s.fallLeft = 0
		s.riseLeft++
		if !s.health && s.riseLeft >= s.Rise {
			s.health = true
			s.state = StateWarmingUp
			s.LastChange = now
		}
	} else {
		s.riseLeft = 0
		s.fallLeft++
		if s.health && s.fallLeft >= s.Fall {
			s.health = false
			s.state = StateGoingDown
			s.LastChange = now
		}
	}
}

// CurSess returns the number of streams currently assigned to (i.e.
// "served" by) this server.
func (s *Server) CurSess() int64 { return atomic.LoadInt64(&s.curSess) }

func (s *Server) incSess() int64 { return atomic.AddInt64(&s.curSess, 1) }
func (s *Server) decSess() int64 { return atomic.AddInt64(&s.curSess, -1) }

// Queue returns the server's own pendconn FIFO.
func (s *Server) Queue() *fifo { return s.queue }

// GetAddr / SetAddr guard the dial address the same way State/SetState
// guard the administrative state, so a standing DNS resolution
// can replace a server's address while connect() is
// concurrently dialing the previous one.
func (s *Server) GetAddr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Addr
}

func (s *Server) SetAddr(addr string) {
	s.mu.Lock()
	s.Addr = addr
	s.mu.Unlock()
}

// DynMaxConn is the dynamic maxconn formula: during
// warm-up or when beconn-relative scaling applies, the effective cap is
// max(minconn, beconn*maxconn/fullconn) clipped to [1, maxconn], then
// scaled by the slow-start ratio
// max(1, 100*(now-last_change)/slowstart)/100 while ramping.
func (s *Server) DynMaxConn(beconn int, now time.Time) int {
	s.mu.RLock()
	maxConn, minConn, fullConn := s.MaxConn, s.MinConn, s.FullConn
	slowStart, lastChange, state := s.SlowStart, s.LastChange, s.state
	s.mu.RUnlock()

	eff := maxConn
	if fullConn > 0 {
		scaled := beconn * maxConn / fullConn
		if scaled < minConn {
			scaled = minConn
		}
		eff = scaled
	}
	if eff < 1 {
		eff = 1
	}
	if eff > maxConn {
		eff = maxConn
	}

	if state == StateWarmingUp && slowStart > 0 {
		elapsed := now.Sub(lastChange)
		if elapsed < slowStart {
			ratioPct := int64(100) * int64(elapsed) / int64(slowStart)
			if ratioPct < 1 {
				ratioPct = 1
			}
			scaled := int(int64(eff) * ratioPct / 100)
			if scaled < 1 {
				scaled = 1
			}
			if scaled < eff {
				eff = scaled
			}
		} else {
			s.mu.Lock()
			if s.state == StateWarmingUp {
				s.state = StateRunning
			}
			s.mu.Unlock()
		}
	}
	return eff
}
