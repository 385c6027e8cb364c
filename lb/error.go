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

// Package lb implements spec component H: per-server and per-backend
// pending-connection FIFOs with dynamic concurrency limits, slow-start
// warm-up, load-balancing algorithm dispatch, and fair cross-queue
// dequeueing.
package lb

import "github.com/nabbar/gorelay/errors"

const (
	ErrorNoServer errors.CodeError = iota + errors.MinPkgLB
	ErrorAllDown
	ErrorDialFailed
	ErrorRetriesExhausted
	ErrorDoubleFree
)

var isCodeError = false

func IsCodeError() bool {
	return isCodeError
}

func init() {
	isCodeError = errors.ExistInMapMessage(ErrorNoServer)
	errors.RegisterIdFctMessage(ErrorNoServer, getMessage)
}

func getMessage(code errors.CodeError) (message string) {
	switch code {
	case errors.UnknownError:
		return ""
	case ErrorNoServer:
		return "backend has no eligible server"
	case ErrorAllDown:
		return "all servers are down"
	case ErrorDialFailed:
		return "connect to server failed"
	case ErrorRetriesExhausted:
		return "connect retries exhausted"
	case ErrorDoubleFree:
		return "pendconn freed more than once"
	}
	return ""
}
