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

// Package resolver implements spec component J: a pipelined UDP DNS
// resolver client with retry, CNAME chasing, NX/Refused/Truncated
// handling, pointer-safe name decompression, and an LRU answer cache.
package resolver

import "github.com/nabbar/gorelay/errors"

const (
	ErrorTruncated errors.CodeError = iota + errors.MinPkgResolver
	ErrorNXDomain
	ErrorRefused
	ErrorServerError
	ErrorBadHeader
	ErrorPointerLoop
	ErrorCNAME
	ErrorTriesExhausted
	ErrorNoNameserver
	ErrorOutdatedID
)

var isCodeError = false

func IsCodeError() bool {
	return isCodeError
}

func init() {
	isCodeError = errors.ExistInMapMessage(ErrorTruncated)
	errors.RegisterIdFctMessage(ErrorTruncated, getMessage)
}

func getMessage(code errors.CodeError) (message string) {
	switch code {
	case errors.UnknownError:
		return ""
	case ErrorTruncated:
		return "dns response truncated"
	case ErrorNXDomain:
		return "dns name does not exist"
	case ErrorRefused:
		return "dns query refused"
	case ErrorServerError:
		return "dns server error"
	case ErrorBadHeader:
		return "malformed dns header"
	case ErrorPointerLoop:
		return "dns name compression pointer does not point strictly backwards"
	case ErrorCNAME:
		return "cname chain did not resolve to an address record"
	case ErrorTriesExhausted:
		return "dns resolution retries exhausted"
	case ErrorNoNameserver:
		return "no nameserver configured"
	case ErrorOutdatedID:
		return "dns response query id unknown or already completed"
	}
	return ""
}
