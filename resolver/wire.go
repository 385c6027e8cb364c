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

package resolver

import (
	"encoding/binary"

	"github.com/miekg/dns"
)

// MaxMsgSize is the 512-byte RFC 1035 UDP ceiling for both queries and
// answers this client sends/accepts.
const MaxMsgSize = 512

// header mirrors RFC 1035 §4.1.1's 12-byte fixed header, decoded
// field-by-field rather than through dns.Msg.Unpack so the truncation,
// rcode, and count checks are each a single explicit comparison a
// reviewer can see directly.
type header struct {
	id      uint16
	flags   uint16
	qdcount uint16
	ancount uint16
	nscount uint16
	arcount uint16
}

const (
	flagQR = 1 << 15
	flagTC = 1 << 9
	flagRD = 1 << 8
)

func (h header) rcode() int { return int(h.flags & 0x0F) }

// EncodeQuery builds a single-question RFC 1035 query for name/qtype
// with RD=1.
func EncodeQuery(id uint16, name string, qtype uint16) []byte {
	h := header{id: id, flags: flagRD, qdcount: 1}

	buf := make([]byte, 12)
	binary.BigEndian.PutUint16(buf[0:2], h.id)
	binary.BigEndian.PutUint16(buf[2:4], h.flags)
	binary.BigEndian.PutUint16(buf[4:6], h.qdcount)
	binary.BigEndian.PutUint16(buf[6:8], h.ancount)
	binary.BigEndian.PutUint16(buf[8:10], h.nscount)
	binary.BigEndian.PutUint16(buf[10:12], h.arcount)

	buf = append(buf, EncodeName(name)...)

	var qt [4]byte
	binary.BigEndian.PutUint16(qt[0:2], qtype)
	binary.BigEndian.PutUint16(qt[2:4], dns.ClassINET)
	buf = append(buf, qt[:]...)

	return buf
}

// decodeHeader parses the fixed 12-byte header, the first thing
// checked before any name decompression is attempted.
func decodeHeader(msg []byte) (header, error) {
	if len(msg) < 12 {
		return header{}, ErrorBadHeader.Error()
	}
	return header{
		id:      binary.BigEndian.Uint16(msg[0:2]),
		flags:   binary.BigEndian.Uint16(msg[2:4]),
		qdcount: binary.BigEndian.Uint16(msg[4:6]),
		ancount: binary.BigEndian.Uint16(msg[6:8]),
		nscount: binary.BigEndian.Uint16(msg[8:10]),
		arcount: binary.BigEndian.Uint16(msg[10:12]),
	}, nil
}

// rrHeader is one resource record's fixed-format header fields (the
// dotted name has already been consumed via ReadName by the caller).
type rrHeader struct {
	rtype  uint16
	class  uint16
	ttl    uint32
	rdlen  uint16
}

func decodeRRHeader(msg []byte, off int) (rrHeader, int, error) {
	if off+10 > len(msg) {
		return rrHeader{}, 0, ErrorBadHeader.Error()
	}
	h := rrHeader{
		rtype: binary.BigEndian.Uint16(msg[off : off+2]),
		class: binary.BigEndian.Uint16(msg[off+2 : off+4]),
		ttl:   binary.BigEndian.Uint32(msg[off+4 : off+8]),
		rdlen: binary.BigEndian.Uint16(msg[off+8 : off+10]),
	}
	off += 10
	if off+int(h.rdlen) > len(msg) {
		return rrHeader{}, 0, ErrorBadHeader.Error()
	}
	return h, off, nil
}
