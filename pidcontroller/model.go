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

package pidcontroller

import (
	"context"
	"math"
)

// maxSteps bounds the generated sequence length so degenerate rates
// (all zero, or cancelling each other) cannot loop unbounded.
const maxSteps = 1000

type pid struct {
	kp float64
	ki float64
	kd float64
}

func (o *pid) Range(from, to float64) []float64 {
	return o.RangeCtx(context.Background(), from, to)
}

func (o *pid) RangeCtx(ctx context.Context, from, to float64) []float64 {
	var res = make([]float64, 0)

	if from == to {
		return append(res, from)
	}

	var (
		span = to - from
		cur  = from
		itg  float64
		prv  = span
	)

	// forward progress floor: 1/maxSteps of the span per step, so the
	// sequence always terminates within maxSteps entries.
	floor := span / float64(maxSteps)

	for i := 0; i < maxSteps; i++ {
		select {
		case <-ctx.Done():
			return res
		default:
		}

		res = append(res, cur)

		err := to - cur
		if math.Abs(err) <= math.Abs(span)*1e-9 {
			return res
		}

		itg += err
		stp := o.kp*err + o.ki*itg + o.kd*(err-prv)
		prv = err

		if math.Abs(stp) < math.Abs(floor) || (stp > 0) != (span > 0) {
			stp = floor
		}

		cur += stp

		// clamp overshoot onto the bound itself
		if (span > 0 && cur >= to) || (span < 0 && cur <= to) {
			cur = to
		}
	}

	if len(res) == 0 || res[len(res)-1] != to {
		res = append(res, to)
	}

	return res
}
