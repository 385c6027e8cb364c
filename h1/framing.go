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

package h1

import (
	"math"
	"strings"
)

// deriveFraming derives the message framing, run during the
// same pass that builds hdrArray: Content-Length, Transfer-Encoding,
// and Connection tokens.
func deriveFraming(hdrs []HeaderField, h1m *Message) error {
	var (
		hasCL, hasTE bool
		clValue      uint64
	)

	for _, h := range hdrs {
		switch strings.ToLower(h.Name) {
		case "content-length":
			v, err := parseContentLength(h.Value)
			if err != nil {
				return err
			}
			if hasCL && v != clValue {
				return ErrorContentLengthConflict.Error()
			}
			hasCL = true
			clValue = v

		case "transfer-encoding":
			tok := lastToken(h.Value)
			if strings.EqualFold(tok, "chunked") {
				hasTE = true
			}

		case "connection":
			for _, tok := range strings.Split(h.Value, ",") {
				switch strings.ToLower(strings.TrimSpace(tok)) {
				case "keep-alive":
					h1m.Flags |= FlagConnKAL
				case "close":
					h1m.Flags |= FlagConnCLO
				case "upgrade":
					h1m.Flags |= FlagConnUpg
				}
			}
		}
	}

	// RFC 7230 §3.3.3: if both TE and CL are present, CL is dropped.
	if hasTE {
		h1m.Flags |= FlagChunked | FlagXferLen
		h1m.Flags &^= FlagCLen
	} else if hasCL {
		h1m.Flags |= FlagCLen | FlagXferLen
		h1m.BodyLen = clValue
	}

	return nil
}

// parseContentLength accepts only non-negative integers; overflow on
// multiply or add is invalid.
func parseContentLength(v string) (uint64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, ErrorMalformedHeader.Error()
	}
	var n uint64
	for _, c := range v {
		if c < '0' || c > '9' {
			return 0, ErrorContentLengthOverflow.Error()
		}
		d := uint64(c - '0')
		if n > (math.MaxUint64-d)/10 {
			return 0, ErrorContentLengthOverflow.Error()
		}
		n = n*10 + d
	}
	return n, nil
}

// lastToken returns the last comma-separated, trimmed token, used to
// determine chunked-ness from Transfer-Encoding.
func lastToken(v string) string {
	parts := strings.Split(v, ",")
	return strings.TrimSpace(parts[len(parts)-1])
}
