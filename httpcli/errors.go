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

package httpcli

import (
	"fmt"

	liberr "github.com/nabbar/gorelay/errors"
)

// Error codes for HTTP client operations.
// These errors are registered with the gorelay/errors package for consistent error handling.
const (
	ErrorParamEmpty           liberr.CodeError = iota + liberr.MinPkgHttpCli // At least one given parameter is empty
	ErrorParamInvalid                                                        // At least one given parameter is invalid
	ErrorValidatorError                                                      // Configuration validation failed
	ErrorClientTransportHttp2                                                // HTTP/2 transport configuration error
	ErrorURLParse                                                            // URI/URL parse failure
	ErrorHTTPClient                                                          // HTTP client construction failure
	ErrorHTTPRequest                                                         // HTTP request construction failure
	ErrorHTTPDo                                                              // HTTP request send failure
	ErrorIORead                                                              // Response body read failure
	ErrorBufferWrite                                                         // Response buffer write failure
	ErrorCreateRequest                                                       // Request construction failure
	ErrorSendRequest                                                         // Request send failure
	ErrorResponseInvalid                                                     // Response missing or malformed
	ErrorResponseStatus                                                      // Response status not in the accepted list
	ErrorResponseLoadBody                                                    // Response body load failure
	ErrorResponseUnmarshall                                                  // Response body decode failure
)

// Deprecated: use ErrorParamInvalid.
const ErrorParamsInvalid = ErrorParamInvalid

func init() {
	if liberr.ExistInMapMessage(ErrorParamEmpty) {
		panic(fmt.Errorf("error code collision with package gorelay/httpcli"))
	}
	liberr.RegisterIdFctMessage(ErrorParamEmpty, getMessage)
}

func getMessage(code liberr.CodeError) (message string) {
	switch code {
	case ErrorParamEmpty:
		return "at least one given parameters is empty"
	case ErrorParamInvalid:
		return "at least one given parameters is invalid"
	case ErrorValidatorError:
		return "config seems to be invalid"
	case ErrorClientTransportHttp2:
		return "error while configure http2 transport for client"
	case ErrorURLParse:
		return "uri/url parse error"
	case ErrorHTTPClient:
		return "error on creating a new http/http2 client"
	case ErrorHTTPRequest:
		return "error on creating a new http/http2 request"
	case ErrorHTTPDo:
		return "error on sending a http/http2 request"
	case ErrorIORead:
		return "error on reading i/o stream"
	case ErrorBufferWrite:
		return "error on writing buffer"
	case ErrorCreateRequest:
		return "cannot create the request"
	case ErrorSendRequest:
		return "cannot send the request"
	case ErrorResponseInvalid:
		return "response is invalid or empty"
	case ErrorResponseStatus:
		return "response status is not allowed"
	case ErrorResponseLoadBody:
		return "cannot load response body"
	case ErrorResponseUnmarshall:
		return "cannot unmarshall response body"
	}

	return liberr.NullMessage
}
