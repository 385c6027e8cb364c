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

package sched

import (
	"container/heap"
	"sync"
	"time"
)

// BufferWaitWake is called by Scheduler.RunPass before the analyser sweep
// of a pass, draining the buffer pool's wait FIFO: waiters wake before
// the task run queue is re-armed.
type BufferWaitWake func()

// Scheduler is a single-threaded, cooperative run loop: a FIFO run queue
// for woken tasks and a time wheel (a min-heap keyed by Expire) for
// deadline-driven tasks. It never preempts a task mid-callback.
type Scheduler struct {
	mu sync.Mutex

	runQueue []*Task
	wheel    timeWheel

	// budget caps how many tasks are drained from the run queue in one
	// RunPass before the deadline scan runs, so I/O-starving tasks that
	// keep re-queuing themselves cannot monopolize a tick forever.
	budget int

	bufferWake BufferWaitWake
}

// NewScheduler creates a Scheduler with the given per-pass run-queue
// budget (<=0 means unbounded: drain to exhaustion).
func NewScheduler(budget int) *Scheduler {
	s := &Scheduler{budget: budget}
	heap.Init(&s.wheel)
	return s
}

// SetBufferWaitWake installs the callback RunPass invokes to drain the
// buffer pool's waiter FIFO ahead of the analyser sweep.
func (s *Scheduler) SetBufferWaitWake(fn BufferWaitWake) {
	s.mu.Lock()
	s.bufferWake = fn
	s.mu.Unlock()
}

// Queue inserts t into the time wheel at t.expire (task_queue). A zero
// Time leaves the task off the wheel entirely (pure tasklet / wakeup-only
// task).
func (s *Scheduler) Queue(t *Task, expire time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t.expire = expire

	if expire.IsZero() {
		if t.inWaitQueue {
			s.wheel.remove(t)
			t.inWaitQueue = false
		}
		return
	}

	if t.inWaitQueue {
		s.wheel.update(t)
		return
	}
	t.inWaitQueue = true
	heap.Push(&s.wheel, t)
}

// Wakeup merges reason into t's pending bits and moves it to the run
// queue if it isn't already there (task_wakeup).
func (s *Scheduler) Wakeup(t *Task, reason WakeReason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wakeupLocked(t, reason)
}

func (s *Scheduler) wakeupLocked(t *Task, reason WakeReason) {
	if t == nil || t.deleted {
		return
	}
	t.pendingReason |= reason
	if t.inRunQueue {
		return
	}
	t.inRunQueue = true
	s.runQueue = append(s.runQueue, t)
}

// Delete removes t from both the run queue and the time wheel without
// invoking its process_fn again (task_delete).
func (s *Scheduler) Delete(t *Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(t)
}

func (s *Scheduler) removeLocked(t *Task) {
	if t.inWaitQueue {
		s.wheel.remove(t)
		t.inWaitQueue = false
	}
	if t.inRunQueue {
		for i, o := range s.runQueue {
			if o == t {
				s.runQueue = append(s.runQueue[:i], s.runQueue[i+1:]...)
				break
			}
		}
		t.inRunQueue = false
	}
}

// Free marks t deleted after removing it from both queues (task_free).
func (s *Scheduler) Free(t *Task) {
	s.mu.Lock()
	s.removeLocked(t)
	t.deleted = true
	s.mu.Unlock()
}

// Len reports the combined number of tasks live in either queue.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runQueue) + s.wheel.Len()
}

// RunPass drains the run queue to exhaustion (bounded by budget to avoid
// starving I/O), then scans the time wheel for entries expired as of
// now. Tasks queued by other tasks during the same pass may run within
// the same pass. It returns the earliest
// still-pending deadline across both queues, or the zero Time if none.
func (s *Scheduler) RunPass(now time.Time) time.Time {
	s.mu.Lock()
	wake := s.bufferWake
	s.mu.Unlock()
	if wake != nil {
		wake()
	}

	ran := 0
	for {
		s.mu.Lock()
		if len(s.runQueue) == 0 || (s.budget > 0 && ran >= s.budget) {
			s.mu.Unlock()
			break
		}
		t := s.runQueue[0]
		s.runQueue = s.runQueue[1:]
		t.inRunQueue = false
		reason := t.pendingReason
		t.pendingReason = 0
		s.mu.Unlock()

		s.runOne(t, reason, now)
		ran++
	}

	s.mu.Lock()
	for s.wheel.Len() > 0 {
		top := s.wheel[0]
		if top.expire.After(now) {
			break
		}
		heap.Pop(&s.wheel)
		top.inWaitQueue = false
		s.mu.Unlock()

		s.runOne(top, WakeTimer, now)

		s.mu.Lock()
	}
	earliest := time.Time{}
	if s.wheel.Len() > 0 {
		earliest = s.wheel[0].expire
	}
	s.mu.Unlock()
	return earliest
}

// runOne invokes t's process_fn and re-arms or frees it based on the
// result, without holding the scheduler lock during the callback (the
// callback may itself call back into the scheduler).
func (s *Scheduler) runOne(t *Task, reason WakeReason, now time.Time) {
	if t.deleted || t.fn == nil {
		return
	}

	next, done := t.fn(t, reason)
	if done {
		s.Free(t)
		return
	}
	if !t.isTasklet {
		s.Queue(t, next)
	}
}
