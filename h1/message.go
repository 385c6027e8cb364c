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

// Flag is the per-message flag word (H1M.flags): VER_11, CLEN, CHNK,
// XFER_LEN, CONN_KAL, CONN_CLO, CONN_UPG, TOLOWER, NO_PHDR.
type Flag uint32

const (
	FlagVer11 Flag = 1 << iota
	FlagCLen
	FlagChunked
	FlagXferLen
	FlagConnKAL
	FlagConnCLO
	FlagConnUpg
	FlagToLower
	FlagNoPHdr
)

// BodyMode is derived from Flag once headers are fully parsed: exactly
// one of CLen (read body_len bytes), Chunked (chunk FSM), or Tunnel
// (close-delimited / no framing) applies.
type BodyMode int

const (
	BodyNone BodyMode = iota
	BodyContentLength
	BodyChunked
	BodyTunnel
)

// scanState drives the restartable FSM across start-line and header
// parsing within a single HeadersToHdrList call. It is not meaningful
// across calls: see the package doc on the "dry-run, then re-emit from
// zero" restart strategy.
type scanState int

const (
	scanSOL scanState = iota
	scanMethod
	scanSP1
	scanURI
	scanSP2
	scanVersion
	scanSOLCR
	scanSOLLF
	scanHdrStart
	scanHdrName
	scanHdrColonSP
	scanHdrValue
	scanHdrLF
	scanHdrLWS
	scanEndCR
	scanEndLF
	scanDone
)

// StartLine decodes the request line (Method/URI/Version) or the
// status line (Version/Code/Reason).
type StartLine struct {
	IsRequest bool

	Method     string
	URI        string
	StatusCode int
	Reason     string

	VersionMajor int
	VersionMinor int
}

// HeaderField indexes one header's name/value spans into the buffer
// passed to HeadersToHdrList.
type HeaderField struct {
	Name  string
	Value string
}

// Message is the restartable parser's framing state plus the start
// line it last decoded.
type Message struct {
	Flags Flag

	BodyLen  uint64 // Content-Length value, when CLen is set
	CurrLen  uint64 // bytes of body emitted so far
	ChunkLen uint64 // bytes remaining in the current chunk, when Chunked

	ErrPos   int
	ErrState int

	// Next is the furthest position the last call scanned to before
	// truncating; retained for diagnostics (see package doc).
	Next int

	SL StartLine
}

// BodyMode reports which of CLEN/CHNK/tunnel framing applies.
func (m *Message) BodyMode() BodyMode {
	switch {
	case m.Flags&FlagChunked != 0:
		return BodyChunked
	case m.Flags&FlagCLen != 0:
		return BodyContentLength
	default:
		return BodyTunnel
	}
}

// Done reports whether the body (if any) has been fully emitted.
func (m *Message) Done() bool {
	if m.Flags&flagMsgDone != 0 {
		return true
	}
	switch m.BodyMode() {
	case BodyContentLength:
		return m.CurrLen >= m.BodyLen
	case BodyChunked:
		return m.Flags&flagChunkedDone != 0
	default:
		return false
	}
}

// flagChunkedDone is an internal bit (outside the public Flag bits
// derived straight from headers) marking the chunked FSM has consumed
// its trailing CRLF after the zero-size chunk and any trailers.
const flagChunkedDone Flag = 1 << 30

// flagMsgDone marks a message whose end the framing driver has
// established by other means than byte counting: a body-less request,
// or a close-delimited response whose producer has shut down.
const flagMsgDone Flag = 1 << 29

// MarkDone records that the message is fully emitted regardless of its
// body mode.
func (m *Message) MarkDone() { m.Flags |= flagMsgDone }

// MarkChunkedDone records the chunked FSM's completion: zero-size
// chunk plus trailers fully consumed.
func (m *Message) MarkChunkedDone() { m.Flags |= flagChunkedDone }
