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

// Package h1 implements spec components E (the restartable HTTP/1
// parser) and F (the H1 multiplexer binding one Connection to at most
// one in-flight stream per side).
package h1

import "github.com/nabbar/gorelay/errors"

const (
	ErrorMalformedStartLine errors.CodeError = iota + errors.MinPkgH1
	ErrorMalformedHeader
	ErrorContentLengthConflict
	ErrorContentLengthOverflow
	ErrorInvalidChunkSize
	ErrorNonASCIIURI
	ErrorHeaderArrayExhausted
	ErrorRxBufferFull
)

var isCodeError = false

func IsCodeError() bool {
	return isCodeError
}

func init() {
	isCodeError = errors.ExistInMapMessage(ErrorMalformedStartLine)
	errors.RegisterIdFctMessage(ErrorMalformedStartLine, getMessage)
}

func getMessage(code errors.CodeError) (message string) {
	switch code {
	case errors.UnknownError:
		return ""
	case ErrorMalformedStartLine:
		return "malformed request/status line"
	case ErrorMalformedHeader:
		return "malformed header field"
	case ErrorContentLengthConflict:
		return "conflicting Content-Length values"
	case ErrorContentLengthOverflow:
		return "Content-Length overflow"
	case ErrorInvalidChunkSize:
		return "invalid chunk size"
	case ErrorNonASCIIURI:
		return "non-ASCII byte in request URI"
	case ErrorHeaderArrayExhausted:
		return "header array exhausted"
	case ErrorRxBufferFull:
		return "receive buffer full"
	}
	return ""
}
