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

import "container/heap"

// fixHeap / removeHeap wrap container/heap.Fix and .Remove so wheel.go
// doesn't need its callers to import container/heap directly.
func fixHeap(w *timeWheel, i int) { heap.Fix(w, i) }

func removeHeap(w *timeWheel, i int) { heap.Remove(w, i) }

// timeWheel is a min-heap of *Task ordered by expire, implementing
// container/heap.Interface. It plays the role of the scheduler's
// time-wheel: a
// scan at now_ms pops every entry whose deadline has passed.
type timeWheel []*Task

func (w timeWheel) Len() int { return len(w) }

func (w timeWheel) Less(i, j int) bool { return w[i].expire.Before(w[j].expire) }

func (w timeWheel) Swap(i, j int) {
	w[i], w[j] = w[j], w[i]
	w[i].wheelIndex = i
	w[j].wheelIndex = j
}

func (w *timeWheel) Push(x interface{}) {
	t := x.(*Task)
	t.wheelIndex = len(*w)
	*w = append(*w, t)
}

func (w *timeWheel) Pop() interface{} {
	old := *w
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.wheelIndex = -1
	*w = old[:n-1]
	return t
}

// update re-heapifies after an in-place expire change via Task.wheelIndex.
func (w *timeWheel) update(t *Task) {
	if t.wheelIndex < 0 || t.wheelIndex >= len(*w) {
		return
	}
	fixHeap(w, t.wheelIndex)
}

// remove deletes t from the wheel by index if present.
func (w *timeWheel) remove(t *Task) {
	if t.wheelIndex < 0 || t.wheelIndex >= len(*w) {
		return
	}
	removeHeap(w, t.wheelIndex)
}
