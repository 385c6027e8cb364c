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

package engine

import "github.com/nabbar/gorelay/stream"

// Analyser bit positions every Stream built by this package enables on
// both its request and response channel masks. Order matters within a
// single fixed-point pass: Recv produces bytes, Parse inspects them in
// place, Send drains them toward the peer — per bit, in that order, so
// Parse always sees a pass's freshly produced bytes before Send
// consumes them.
const (
	BitRecv uint = iota
	BitParse
	BitSend
)

// BuildRegistry wires the three analysers into a stream.Registry, the
// shared table stream.Stream.process consults on every pass. sessions
// holds the per-stream H1 parser state the Parse analyser needs.
func BuildRegistry(sessions *Sessions) *stream.Registry {
	reg := stream.NewRegistry()
	reg.Register(BitRecv, RecvPump)
	reg.Register(BitParse, sessions.Parse)
	reg.Register(BitSend, SendPump)
	return reg
}

// EnableAll turns on every registered analyser bit for both of s's
// channels, the usual case for a plain HTTP frontend/backend pair.
func EnableAll(s *stream.Stream) {
	for _, bit := range []uint{BitRecv, BitParse, BitSend} {
		s.EnableReqAnalyser(bit)
		s.EnableResAnalyser(bit)
	}
}
