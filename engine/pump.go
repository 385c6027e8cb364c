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

import (
	"github.com/nabbar/gorelay/buffer"
	"github.com/nabbar/gorelay/conn"
	"github.com/nabbar/gorelay/stream"
)

const maxPumpChunk = 16 * 1024

// connFor resolves which Connection a side's recv/send half pumps
// against. ReqChannel carries client-to-backend bytes (front recv,
// back send); ResChannel carries backend-to-client bytes (back recv,
// front send); each is one half-duplex direction of the Stream.
func connFor(s *stream.Stream, side stream.Side, recv bool) *conn.Connection {
	if side == stream.SideReq {
		if recv {
			return s.FrontSI.Connection()
		}
		return s.BackSI.Connection()
	}
	if recv {
		return s.BackSI.Connection()
	}
	return s.FrontSI.Connection()
}

// RecvPump reads whatever bytes are currently ready on the side's
// source Connection into ch. A read error or EOF shuts the read half of
// ch down rather than propagating a hard error, so the fixed-point loop
// keeps draining already-buffered bytes toward the peer.
func RecvPump(s *stream.Stream, ch *buffer.Channel, side stream.Side) (bool, error) {
	src := connFor(s, side, true)
	if src == nil {
		return false, nil
	}
	if src.HasError() {
		already := ch.HasFlag(buffer.FlagShutR)
		ch.SetFlag(buffer.FlagShutR)
		return !already, nil
	}
	if !src.PollRecv() {
		src.WantRecv()
		return false, nil
	}

	room := ch.Buffer().Room()
	if room <= 0 {
		return false, nil
	}
	if room > maxPumpChunk {
		room = maxPumpChunk
	}

	tmp := make([]byte, room)
	n, err := src.Conn().Read(tmp)
	if n > 0 {
		ch.Produce(tmp[:n])
	}
	if err != nil {
		// Raising ShutR is itself progress the first time: the framing
		// analyser needs one more pass to observe a close-delimited
		// message's end.
		already := ch.HasFlag(buffer.FlagShutR)
		ch.SetFlag(buffer.FlagShutR)
		return n > 0 || !already, nil
	}
	src.WantRecv()
	return n > 0, nil
}

// SendPump drains bytes already available on ch toward the side's
// destination Connection. It is a no-op until BackSI is assigned a
// Connection by the dispatcher (Stream.process's SIRequest handling),
// so request bytes queue harmlessly in ReqChannel while a stream waits
// in the backend's pendconn FIFO.
func SendPump(s *stream.Stream, ch *buffer.Channel, side stream.Side) (bool, error) {
	dst := connFor(s, side, false)
	if dst == nil {
		return false, nil
	}

	avail := ch.Available()
	if avail <= 0 {
		if ch.HasFlag(buffer.FlagShutR) {
			dst.StopSend()
		}
		return false, nil
	}
	if !dst.PollSend() {
		dst.WantSend()
		return false, nil
	}

	tmp := make([]byte, avail)
	n := ch.Buffer().Peek(tmp)
	if n == 0 {
		return false, nil
	}

	written, err := dst.Conn().Write(tmp[:n])
	if written > 0 {
		ch.Consume(written)
	}
	if err != nil {
		return written > 0, nil
	}
	if written < n {
		dst.WantSend()
	}
	return written > 0, nil
}
