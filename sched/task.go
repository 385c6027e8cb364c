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

// Package sched implements the cooperative task scheduler of spec
// component C: a priority-ordered run queue plus a time-wheel for
// deadlines. Tasks are callbacks that run to a fixed point and return
// either an updated deadline or "done".
package sched

import "time"

// WakeReason is a bitmask merged into a task on task_wakeup.
type WakeReason uint32

const (
	WakeIO WakeReason = 1 << iota
	WakeTimer
	WakeSignal
	WakeApplication
	WakeKill
)

// Has reports whether bit is set in the reason mask.
func (r WakeReason) Has(bit WakeReason) bool { return r&bit != 0 }

// ProcessFunc is the cooperative callback driving one Task. It receives
// the reasons merged since the previous run and must return the next
// absolute deadline (zero Time means "no timer, wait for wakeup only")
// plus done=true when the task should be deleted.
type ProcessFunc func(t *Task, reason WakeReason) (next time.Time, done bool)

// Task is one schedulable unit: a process_fn, its free-form context, its
// next expiry, and membership bits for the run queue / time wheel.
type Task struct {
	name    string
	fn      ProcessFunc
	context interface{}

	expire time.Time

	pendingReason WakeReason
	inRunQueue    bool
	inWaitQueue   bool
	deleted       bool
	isTasklet     bool
	wheelIndex    int
}

// NewTask creates a Task bound to fn, with an opaque context value the
// caller can retrieve with Context().
func NewTask(name string, fn ProcessFunc, context interface{}) *Task {
	return &Task{name: name, fn: fn, context: context, wheelIndex: -1}
}

// NewTasklet creates a Task with no timer: tasklets are continuation-style
// I/O callbacks scheduled purely by wakeup, never by the time wheel.
func NewTasklet(name string, fn ProcessFunc, context interface{}) *Task {
	t := NewTask(name, fn, context)
	t.isTasklet = true
	return t
}

// Name returns the task's diagnostic name.
func (t *Task) Name() string { return t.name }

// Context returns the opaque context value bound at creation.
func (t *Task) Context() interface{} { return t.context }

// IsTasklet reports whether this task has no timer component.
func (t *Task) IsTasklet() bool { return t.isTasklet }

// Expire returns the task's current absolute deadline.
func (t *Task) Expire() time.Time { return t.expire }

// Deleted reports whether task_free has already run for this task.
func (t *Task) Deleted() bool { return t.deleted }
