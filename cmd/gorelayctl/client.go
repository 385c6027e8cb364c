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

package main

import (
	"bufio"
	"net"
	"strings"
	"time"
)

// Client is a thin wrapper around one stats-socket connection: it
// writes one command line and reads back statsock.Server.handle's
// reply framing (the command's text, terminated by a blank line).
type Client struct {
	conn net.Conn
	r    *bufio.Reader
}

// Dial opens a stats-socket connection over "unix" or "tcp", matching
// the two listener kinds proxycfg wires a statsock.Server onto.
func Dial(network, addr string) (*Client, error) {
	if network == "" {
		network = "unix"
	}
	c, err := net.DialTimeout(network, addr, 5*time.Second)
	if err != nil {
		return nil, ErrorDial.Error(err)
	}
	return &Client{conn: c, r: bufio.NewReader(c)}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Execute sends one command line and reads its reply up to the
// trailing blank line statsock.Server.handle appends after every
// command's output.
func (c *Client) Execute(line string) (string, error) {
	if _, err := c.conn.Write([]byte(strings.TrimRight(line, "\r\n") + "\n")); err != nil {
		return "", ErrorWrite.Error(err)
	}

	var out strings.Builder
	for {
		text, err := c.r.ReadString('\n')
		if text != "" {
			if strings.TrimRight(text, "\r\n") == "" {
				break
			}
			out.WriteString(text)
		}
		if err != nil {
			break
		}
		if line == "quit" {
			break
		}
	}
	return out.String(), nil
}
