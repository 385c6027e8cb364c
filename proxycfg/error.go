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

// Package proxycfg turns a declarative frontend/backend/resolver/
// stick-table document into the wired runtime objects the core
// packages (lb, stick, resolver, conn, statsock) expose.
package proxycfg

import "github.com/nabbar/gorelay/errors"

const (
	ErrorReadConfig errors.CodeError = iota + errors.MinPkgProxyCfg
	ErrorValidate
	ErrorUnknownAlgorithm
	ErrorUnknownKeyType
	ErrorUnknownResolver
	ErrorUnknownStickTable
	ErrorNoServers
	ErrorTLSConfig
)

var isCodeError = false

func IsCodeError() bool {
	return isCodeError
}

func init() {
	isCodeError = errors.ExistInMapMessage(ErrorReadConfig)
	errors.RegisterIdFctMessage(ErrorReadConfig, getMessage)
}

func getMessage(code errors.CodeError) (message string) {
	switch code {
	case errors.UnknownError:
		return ""
	case ErrorReadConfig:
		return "unable to read configuration"
	case ErrorValidate:
		return "configuration failed validation"
	case ErrorUnknownAlgorithm:
		return "unknown load-balancing algorithm"
	case ErrorUnknownKeyType:
		return "unknown stick-table key type"
	case ErrorUnknownResolver:
		return "backend references an undefined resolvers section"
	case ErrorUnknownStickTable:
		return "backend references an undefined stick-table"
	case ErrorNoServers:
		return "backend declares no servers"
	case ErrorTLSConfig:
		return "invalid TLS configuration"
	}
	return ""
}
