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

// Package engine wires spec components D (Connection), F (H1 parser),
// G (Stream) and H (Backend) into a working request pipeline: the
// AnalyserFunc set a Stream's fixed-point driver calls on every pass to
// pump bytes between sockets and channels and to track HTTP message
// boundaries for stick-table counters and keep-alive reuse.
package engine

import "github.com/nabbar/gorelay/errors"

const (
	ErrorRecvFailed errors.CodeError = iota + errors.MinPkgEngine
	ErrorSendFailed
	ErrorParseFailed
	ErrorNoBuffer
)

var isCodeError = false

func IsCodeError() bool {
	return isCodeError
}

func init() {
	isCodeError = errors.ExistInMapMessage(ErrorRecvFailed)
	errors.RegisterIdFctMessage(ErrorRecvFailed, getMessage)
}

func getMessage(code errors.CodeError) (message string) {
	switch code {
	case errors.UnknownError:
		return ""
	case ErrorRecvFailed:
		return "socket recv failed"
	case ErrorSendFailed:
		return "socket send failed"
	case ErrorParseFailed:
		return "HTTP/1.1 message parse failed"
	case ErrorNoBuffer:
		return "buffer pool exhausted"
	}
	return ""
}
