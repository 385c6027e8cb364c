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
	"net"
	"time"

	"github.com/nabbar/gorelay/buffer"
	"github.com/nabbar/gorelay/conn"
	"github.com/nabbar/gorelay/sched"
	"github.com/nabbar/gorelay/stream"
)

// Accept builds one Stream for a freshly accepted client connection:
// two channels drawn from pool, a client-side StreamInterface wrapping
// raw behind transport, and a Task queued on sc so the scheduler's run
// loop drives it from its very first pass.
func Accept(raw net.Conn, transport conn.Transport, pool *buffer.Pool, sc *sched.Scheduler, reg *stream.Registry, disp stream.Dispatcher, timeout time.Duration, nStkCtr int) (*stream.Stream, error) {
	reqBuf, ok := pool.Get()
	if !ok {
		return nil, ErrorNoBuffer.Error()
	}
	resBuf, ok := pool.Get()
	if !ok {
		return nil, ErrorNoBuffer.Error()
	}

	reqCh := buffer.NewChannel(reqBuf)
	resCh := buffer.NewChannel(resBuf)

	var strm *stream.Stream
	wake := func() {
		if strm != nil && sc != nil {
			sc.Wakeup(strm.Task(), sched.WakeIO)
		}
	}

	c, err := conn.New(raw, transport, wake)
	if err != nil {
		return nil, err
	}

	front := stream.NewClientSI(c, timeout)
	strm = stream.New(front, reqCh, resCh, reg, disp, nStkCtr)
	EnableAll(strm)

	if sc != nil {
		sc.Queue(strm.Task(), time.Time{})
		sc.Wakeup(strm.Task(), sched.WakeIO)
	}

	return strm, nil
}
