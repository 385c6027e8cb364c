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

// Package stream implements spec component G: the per-request state
// machine owning two stream-interfaces, two channels, an analyser
// bitmask, and the termination-flag bookkeeping used for logging and
// counter selection.
package stream

import "github.com/nabbar/gorelay/errors"

const (
	ErrorNilChannel errors.CodeError = iota + errors.MinPkgStream
	ErrorAlreadyAssigned
	ErrorNoAnalyserSlot
	ErrorDispatchFailed
)

var isCodeError = false

func IsCodeError() bool {
	return isCodeError
}

func init() {
	isCodeError = errors.ExistInMapMessage(ErrorNilChannel)
	errors.RegisterIdFctMessage(ErrorNilChannel, getMessage)
}

func getMessage(code errors.CodeError) (message string) {
	switch code {
	case errors.UnknownError:
		return ""
	case ErrorNilChannel:
		return "channel is nil"
	case ErrorAlreadyAssigned:
		return "stream interface already assigned a server"
	case ErrorNoAnalyserSlot:
		return "no analyser slot available"
	case ErrorDispatchFailed:
		return "dispatch failed"
	}
	return ""
}
