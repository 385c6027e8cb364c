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

package statsock

import (
	"bufio"
	"io"
	"net"
	"sync"

	liblog "github.com/nabbar/gorelay/logger"
)

// LevelFunc grants an access Level to an incoming connection, e.g. by
// source address or by which listener (unix socket path vs TCP) accepted
// it. The retrieval pack's socket package ships no usable transport
// source in this workspace (test-only), so the listener below is a
// direct net.Listener loop rather than an adaptation of it.
type LevelFunc func(remote net.Addr) Level

// Server is the stats socket server: it accepts line-protocol connections
// on a net.Listener and runs each line through a Dispatcher.
type Server struct {
	Listener net.Listener
	Disp     *Dispatcher
	Level    LevelFunc
	Log      liblog.FuncLog

	mu      sync.Mutex
	closed  bool
}

func NewServer(ln net.Listener, disp *Dispatcher, lvl LevelFunc) *Server {
	if lvl == nil {
		lvl = func(net.Addr) Level { return LevelUser }
	}
	return &Server{Listener: ln, Disp: disp, Level: lvl}
}

// Serve accepts connections until the listener is closed, handling each
// on its own goroutine; it returns once Close has been called (the
// accept loop's terminal error is swallowed in that case).
func (s *Server) Serve() error {
	for {
		c, err := s.Listener.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return nil
			}
			return err
		}
		go s.handle(c)
	}
}

func (s *Server) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return s.Listener.Close()
}

func (s *Server) logf(format string, args ...interface{}) {
	if s.Log == nil {
		return
	}
	if l := s.Log(); l != nil {
		l.Entry(liblog.InfoLevel, format, args...).Log()
	}
}

// handle runs one connection's request/reply loop: each input line is
// one command, answered with its text reply followed by a blank line,
// the same framing HAProxy's stats socket clients expect.
func (s *Server) handle(c net.Conn) {
	defer c.Close()

	lvl := s.Level(c.RemoteAddr())
	sc := bufio.NewScanner(c)
	sc.Buffer(make([]byte, 0, 4096), 64*1024)

	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}

		reply, err := s.Disp.Execute(line, lvl)
		if err != nil {
			if _, werr := io.WriteString(c, err.Error()+"\n\n"); werr != nil {
				return
			}
			continue
		}
		if _, werr := io.WriteString(c, reply+"\n\n"); werr != nil {
			return
		}
		if line == "quit" {
			return
		}
	}
}
