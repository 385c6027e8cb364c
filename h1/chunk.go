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

import "bytes"

// chunkState drives ChunkDecoder's FSM across calls: {chunk-size, data,
// CRLF, trailers}. Unlike header parsing,
// this one genuinely resumes mid-state since chunked bodies routinely
// exceed one buffer's worth of bytes.
type chunkState int

const (
	chunkSize chunkState = iota
	chunkSizeExt
	chunkSizeCR
	chunkData
	chunkDataCR
	chunkDataLF
	chunkTrailer
	chunkTrailerLF
	chunkDone
)

// ChunkDecoder incrementally consumes a chunked-transfer body. Data()
// calls report the data spans found in the most recent Feed; the caller
// forwards those bytes and discards the framing bytes in between.
type ChunkDecoder struct {
	state   chunkState
	size    uint64
	emitted uint64
}

// Span is a [start,end) byte range within the slice passed to Feed.
type Span struct {
	Start, End int
}

// Feed advances the FSM over data (which may be a partial read) and
// returns the data spans to forward, whether the message is complete
// (final chunk + trailers consumed), and the number of bytes consumed
// from data. Chunk-size parsing ignores extensions after ';' and
// accepts only hex digits up to the CRLF.
func (d *ChunkDecoder) Feed(data []byte) (spans []Span, consumed int, done bool, err error) {
	i := 0
	n := len(data)

	for i < n {
		switch d.state {
		case chunkSize:
			j := i
			sawDigit := false
			for j < n && isHexDigit(data[j]) {
				sawDigit = true
				j++
			}
			if j == n {
				return spans, i, false, nil // need more bytes for the size token
			}
			if !sawDigit {
				return spans, i, false, ErrorInvalidChunkSize.Error()
			}
			size, perr := parseHex(data[i:j])
			if perr != nil {
				return spans, i, false, ErrorInvalidChunkSize.Error()
			}
			d.size = size
			i = j
			d.state = chunkSizeExt
			fallthrough

		case chunkSizeExt:
			// skip chunk-extensions up to CR/LF; resumable on its own
			// state so a split mid-extension doesn't re-enter digit
			// scanning on the next Feed call.
			for i < n && data[i] != '\r' && data[i] != '\n' {
				i++
			}
			if i >= n {
				return spans, i, false, nil
			}
			d.state = chunkSizeCR

		case chunkSizeCR:
			nl := bytes.IndexByte(data[i:], '\n')
			if nl < 0 {
				return spans, i, false, nil
			}
			i += nl + 1
			if d.size == 0 {
				d.state = chunkTrailer
			} else {
				d.state = chunkData
			}

		case chunkData:
			remain := int(d.size)
			avail := n - i
			take := remain
			if take > avail {
				take = avail
			}
			if take > 0 {
				spans = append(spans, Span{Start: i, End: i + take})
				i += take
				d.size -= uint64(take)
				d.emitted += uint64(take)
			}
			if d.size > 0 {
				return spans, i, false, nil
			}
			d.state = chunkDataCR

		case chunkDataCR:
			if i >= n {
				return spans, i, false, nil
			}
			if data[i] != '\r' {
				return spans, i, false, ErrorInvalidChunkSize.Error()
			}
			i++
			d.state = chunkDataLF

		case chunkDataLF:
			if i >= n {
				return spans, i, false, nil
			}
			if data[i] != '\n' {
				return spans, i, false, ErrorInvalidChunkSize.Error()
			}
			i++
			d.state = chunkSize

		case chunkTrailer:
			nl := bytes.IndexByte(data[i:], '\n')
			if nl < 0 {
				return spans, i, false, nil
			}
			line := bytes.TrimSuffix(data[i:i+nl], []byte("\r"))
			i += nl + 1
			if len(line) == 0 {
				d.state = chunkDone
			}

		case chunkDone:
			return spans, i, true, nil
		}
	}

	return spans, i, d.state == chunkDone, nil
}

// BodyLen reports the total chunk-data bytes emitted so far.
func (d *ChunkDecoder) BodyLen() uint64 { return d.emitted }

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func parseHex(tok []byte) (uint64, error) {
	if len(tok) == 0 {
		return 0, ErrorInvalidChunkSize.Error()
	}
	var n uint64
	for _, c := range tok {
		var d uint64
		switch {
		case c >= '0' && c <= '9':
			d = uint64(c - '0')
		case c >= 'a' && c <= 'f':
			d = uint64(c-'a') + 10
		case c >= 'A' && c <= 'F':
			d = uint64(c-'A') + 10
		default:
			return 0, ErrorInvalidChunkSize.Error()
		}
		n = n*16 + d
	}
	return n, nil
}
