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

// Package statsock implements the stats socket: a line-oriented text
// protocol offering show/set/clear/enable/disable/shutdown commands
// gated by an access level, plus the 62-column CSV stats dump.
package statsock

import "github.com/nabbar/gorelay/errors"

const (
	ErrorUnknownCommand errors.CodeError = iota + errors.MinPkgStatsock
	ErrorBadSyntax
	ErrorNotFound
	ErrorForbidden
	ErrorListenFailed
)

var isCodeError = false

func IsCodeError() bool {
	return isCodeError
}

func init() {
	isCodeError = errors.ExistInMapMessage(ErrorUnknownCommand)
	errors.RegisterIdFctMessage(ErrorUnknownCommand, getMessage)
}

func getMessage(code errors.CodeError) (message string) {
	switch code {
	case errors.UnknownError:
		return ""
	case ErrorUnknownCommand:
		return "unknown stats socket command"
	case ErrorBadSyntax:
		return "malformed stats socket command"
	case ErrorNotFound:
		return "no such frontend, backend, server, or table"
	case ErrorForbidden:
		return "command requires a higher access level"
	case ErrorListenFailed:
		return "stats socket listener failed to bind"
	}
	return ""
}
