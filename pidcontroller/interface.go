/*
 * MIT License
 *
 * Copyright (c) 2023 Nicolas JUHEL
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

// Package pidcontroller generates value sequences between two bounds
// whose spacing follows a proportional / integral / derivative
// controller: steps start small and accelerate as the integral term
// accumulates, which suits retry/backoff ladders and progressive
// ramp-ups.
package pidcontroller

import "context"

type PIDController interface {
	// Range generates the sequence from `from` to `to` inclusive.
	Range(from, to float64) []float64

	// RangeCtx is Range with cancellation: when ctx ends before the
	// sequence reaches `to`, the values generated so far are returned.
	RangeCtx(ctx context.Context, from, to float64) []float64
}

// New returns a PIDController with the given proportional, integral
// and derivative rates.
func New(rateP, rateI, rateD float64) PIDController {
	return &pid{
		kp: rateP,
		ki: rateI,
		kd: rateD,
	}
}
