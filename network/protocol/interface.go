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

// Package protocol defines the NetworkProtocol type naming the network
// families Go's net package dials and listens with (tcp, tcp4, tcp6,
// udp, udp4, udp6, ip, ip4, ip6, unix, unixgram), with parsing from
// strings and integers plus JSON/YAML/TOML/Text/CBOR codecs and a
// mapstructure decode hook for configuration loading.
//
// Example:
//
//	p := protocol.Parse("tcp4")
//	if p != protocol.NetworkEmpty {
//	    conn, err := net.Dial(p.Code(), addr)
//	    ...
//	}
package protocol

// NetworkProtocol identifies one network family usable as the network
// argument of net.Dial / net.Listen.
type NetworkProtocol uint8

const (
	// NetworkEmpty is the zero value: no or unrecognized protocol.
	NetworkEmpty NetworkProtocol = iota

	// NetworkUnix is a stream-oriented unix domain socket.
	NetworkUnix

	// NetworkTCP is TCP over either IPv4 or IPv6.
	NetworkTCP

	// NetworkTCP4 is TCP over IPv4 only.
	NetworkTCP4

	// NetworkTCP6 is TCP over IPv6 only.
	NetworkTCP6

	// NetworkUDP is UDP over either IPv4 or IPv6.
	NetworkUDP

	// NetworkUDP4 is UDP over IPv4 only.
	NetworkUDP4

	// NetworkUDP6 is UDP over IPv6 only.
	NetworkUDP6

	// NetworkIP is a raw IP socket over either IPv4 or IPv6.
	NetworkIP

	// NetworkIP4 is a raw IP socket over IPv4 only.
	NetworkIP4

	// NetworkIP6 is a raw IP socket over IPv6 only.
	NetworkIP6

	// NetworkUnixGram is a datagram-oriented unix domain socket.
	NetworkUnixGram
)

// List returns the list of all defined protocols, NetworkEmpty excluded.
//
// Modifying the returned slice does not affect the package.
func List() []NetworkProtocol {
	return []NetworkProtocol{
		NetworkUnix,
		NetworkTCP,
		NetworkTCP4,
		NetworkTCP6,
		NetworkUDP,
		NetworkUDP4,
		NetworkUDP6,
		NetworkIP,
		NetworkIP4,
		NetworkIP6,
		NetworkUnixGram,
	}
}

// ListString returns the list of all defined protocol codes as strings.
func ListString() []string {
	var res = make([]string, 0)
	for _, p := range List() {
		res = append(res, p.String())
	}
	return res
}
