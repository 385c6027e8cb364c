/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
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

package protocol

// Code returns the value usable as the network argument of
// net.Dial / net.Listen, or the empty string for NetworkEmpty and
// undefined values.
func (v NetworkProtocol) Code() string {
	switch v {
	case NetworkUnix:
		return "unix"
	case NetworkTCP:
		return "tcp"
	case NetworkTCP4:
		return "tcp4"
	case NetworkTCP6:
		return "tcp6"
	case NetworkUDP:
		return "udp"
	case NetworkUDP4:
		return "udp4"
	case NetworkUDP6:
		return "udp6"
	case NetworkIP:
		return "ip"
	case NetworkIP4:
		return "ip4"
	case NetworkIP6:
		return "ip6"
	case NetworkUnixGram:
		return "unixgram"
	default:
		return ""
	}
}

func (v NetworkProtocol) String() string {
	return v.Code()
}

// Int returns the numeric protocol value, or 0 for NetworkEmpty and
// undefined values.
func (v NetworkProtocol) Int() int {
	if !v.Check() {
		return 0
	}
	return int(v)
}

func (v NetworkProtocol) Int32() int32 {
	return int32(v.Int())
}

func (v NetworkProtocol) Int64() int64 {
	return int64(v.Int())
}

func (v NetworkProtocol) Uint() uint {
	return uint(v.Int())
}

func (v NetworkProtocol) Uint32() uint32 {
	return uint32(v.Int())
}

func (v NetworkProtocol) Uint64() uint64 {
	return uint64(v.Int())
}
