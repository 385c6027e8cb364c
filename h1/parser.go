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
	"bytes"
	"strconv"
	"strings"
)

// Parse result sentinels for HeadersToHdrList: >0 bytes consumed,
// 0 truncated, -1 parse error, -2 output array exhausted.
const (
	ResultTruncated      = 0
	ResultError          = -1
	ResultArrayExhausted = -2
)

// AcceptInvalidRequest, when true, tolerates non-ASCII bytes in the
// request URI: the first offender is recorded in h1m.ErrPos but parsing
// continues.
type ParseOptions struct {
	AcceptInvalidRequest bool
	ToLower              bool
}

// HeadersToHdrList parses a start line plus headers. data is the full
// accumulated buffer from its start (offset 0); callers holding a
// wrapped buffer.Channel must realign (Channel.Realign) before calling
// so spans are contiguous. hdrArray is filled from index 0 on a
// successful (>0) return; callers must not reuse entries across calls.
//
// Restart strategy: every call re-scans from offset 0. A first pass
// (emit=false) only looks for the end of the header block; if found, a
// second pass (emit=true) rebuilds hdrArray from scratch. This avoids
// double-indexing across repeated truncated calls by construction, at
// the cost of re-scanning bytes already seen; header blocks are small
// and bounded by the buffer's configured rewrite headroom.
func HeadersToHdrList(data []byte, isRequest bool, hdrArray []HeaderField, h1m *Message, opts ParseOptions) int {
	end, ok, errPos := scanToEndOfHeaders(data, isRequest, opts)
	if errPos >= 0 {
		h1m.ErrPos = errPos
		h1m.ErrState = int(scanURI)
		if !opts.AcceptInvalidRequest {
			return ResultError
		}
	}
	if !ok {
		h1m.Next = end
		return ResultTruncated
	}

	n, consumed := emitHeaders(data[:end], isRequest, hdrArray, h1m, opts)
	if n == ResultArrayExhausted {
		return ResultArrayExhausted
	}
	if n == ResultError {
		return ResultError
	}

	if err := deriveFraming(hdrArray[:n], h1m); err != nil {
		return ResultError
	}

	return consumed
}

// scanToEndOfHeaders finds the offset just past the blank line ending
// the header block (CRLFCRLF or LFLF), without allocating header
// entries. Returns (scannedSoFar, found, firstNonASCIIURIOffset|-1).
func scanToEndOfHeaders(data []byte, isRequest bool, opts ParseOptions) (int, bool, int) {
	i := 0
	n := len(data)
	errPos := -1

	// start line
	sol := bytes.IndexByte(data, '\n')
	if sol < 0 {
		return n, false, errPos
	}
	line := data[:sol]
	line = bytes.TrimSuffix(line, []byte("\r"))

	if isRequest {
		// Only the URI token rejects non-ASCII bytes; the method and
		// version tokens are validated structurally by emitHeaders.
		uriStart := bytes.IndexByte(line, ' ')
		if uriStart >= 0 {
			uriStart++
			uriEnd := bytes.IndexByte(line[uriStart:], ' ')
			if uriEnd < 0 {
				uriEnd = len(line)
			} else {
				uriEnd += uriStart
			}
			for idx := uriStart; idx < uriEnd; idx++ {
				if line[idx] >= 0x80 {
					errPos = idx
					break
				}
			}
		}
	}

	i = sol + 1
	for {
		nl := bytes.IndexByte(data[i:], '\n')
		if nl < 0 {
			return n, false, errPos
		}
		hline := data[i : i+nl]
		hline = bytes.TrimSuffix(hline, []byte("\r"))
		i += nl + 1
		if len(hline) == 0 {
			return i, true, errPos
		}
	}
}

// emitHeaders re-walks data (already known to contain a complete
// request/status line plus header block ending at len(data)) and
// populates hdrArray, returning (count, bytesConsumed).
func emitHeaders(data []byte, isRequest bool, hdrArray []HeaderField, h1m *Message, opts ParseOptions) (int, int) {
	sol := bytes.IndexByte(data, '\n')
	line := bytes.TrimSuffix(data[:sol], []byte("\r"))

	if isRequest {
		if err := parseRequestLine(line, &h1m.SL); err != nil {
			return ResultError, 0
		}
	} else {
		if err := parseStatusLine(line, &h1m.SL); err != nil {
			return ResultError, 0
		}
	}
	if h1m.SL.VersionMajor == 1 && h1m.SL.VersionMinor == 1 {
		h1m.Flags |= FlagVer11
	}

	i := sol + 1
	count := 0
	for i < len(data) {
		nl := bytes.IndexByte(data[i:], '\n')
		if nl < 0 {
			break
		}
		hline := bytes.TrimSuffix(data[i:i+nl], []byte("\r"))
		i += nl + 1
		if len(hline) == 0 {
			break
		}

		colon := bytes.IndexByte(hline, ':')
		if colon < 0 {
			return ResultError, 0
		}
		name := hline[:colon]
		value := bytes.TrimLeft(hline[colon+1:], " \t")
		value = collapseLWS(value)

		if count >= len(hdrArray) {
			return ResultArrayExhausted, 0
		}
		nameStr := string(name)
		if opts.ToLower || h1m.Flags&FlagToLower != 0 {
			nameStr = strings.ToLower(nameStr)
		}
		hdrArray[count] = HeaderField{Name: nameStr, Value: string(value)}
		count++
	}

	return count, i
}

// collapseLWS folds internal CR/LF/HT runs into single spaces in
// place.
func collapseLWS(v []byte) []byte {
	out := v[:0]
	lastWasSpace := false
	for _, b := range v {
		if b == '\r' || b == '\n' || b == '\t' {
			b = ' '
		}
		if b == ' ' {
			if lastWasSpace {
				continue
			}
			lastWasSpace = true
		} else {
			lastWasSpace = false
		}
		out = append(out, b)
	}
	return bytes.TrimRight(out, " ")
}

func parseRequestLine(line []byte, sl *StartLine) error {
	parts := bytes.SplitN(line, []byte(" "), 3)
	if len(parts) < 2 {
		return ErrorMalformedStartLine.Error()
	}
	sl.IsRequest = true
	sl.Method = string(parts[0])
	sl.URI = string(parts[1])

	if len(parts) == 2 {
		// HTTP/0.9: GET only, no version; promoted to 1.0 internally.
		sl.VersionMajor, sl.VersionMinor = 1, 0
		return nil
	}
	return parseVersionToken(parts[2], sl)
}

func parseStatusLine(line []byte, sl *StartLine) error {
	parts := bytes.SplitN(line, []byte(" "), 3)
	if len(parts) < 2 {
		return ErrorMalformedStartLine.Error()
	}
	if err := parseVersionToken(parts[0], sl); err != nil {
		return err
	}
	code, err := strconv.Atoi(string(parts[1]))
	if err != nil {
		return ErrorMalformedStartLine.Error()
	}
	sl.StatusCode = code
	if len(parts) == 3 {
		sl.Reason = string(parts[2])
	}
	return nil
}

// parseVersionToken detects "HTTP/1.N" by inspecting offsets 5 and 7
// of the token (H T T P / 1 . N).
func parseVersionToken(tok []byte, sl *StartLine) error {
	if len(tok) < 8 || !bytes.HasPrefix(tok, []byte("HTTP/")) {
		return ErrorMalformedStartLine.Error()
	}
	if tok[5] != '1' || tok[6] != '.' {
		return ErrorMalformedStartLine.Error()
	}
	sl.VersionMajor = 1
	switch tok[7] {
	case '0':
		sl.VersionMinor = 0
	case '1':
		sl.VersionMinor = 1
	default:
		return ErrorMalformedStartLine.Error()
	}
	return nil
}
