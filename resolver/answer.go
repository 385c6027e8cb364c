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
	"net"
	"strings"

	"github.com/miekg/dns"
)

// MaxAnswerRecords caps ANCOUNT so a malicious or buggy server can't
// force an unbounded parse loop.
const MaxAnswerRecords = 64

// Answer is the decoded, CNAME-chased result of one response: the
// addresses found for the final name in the chain, or a CNAME-only
// chain if no A/AAAA record terminated it.
type Answer struct {
	ID        uint16
	Addrs     []net.IP
	CNAMEOnly bool
}

// ParseResponse validates one response in order: header decode, TC check, RCODE check, QDCOUNT/ANCOUNT
// minimums, then a CNAME-chasing walk over the answer section that
// requires each subsequent record's owner name to match the previous
// record's target, per "subsequent records must match the chain".
func ParseResponse(msg []byte, wantID uint16, wantType uint16) (*Answer, error) {
	h, err := decodeHeader(msg)
	if err != nil {
		return nil, err
	}
	if h.id != wantID {
		return nil, ErrorOutdatedID.Error()
	}
	if h.flags&flagTC != 0 {
		return nil, ErrorTruncated.Error()
	}
	switch h.rcode() {
	case dns.RcodeSuccess:
		// continue
	case dns.RcodeNameError:
		return nil, ErrorNXDomain.Error()
	case dns.RcodeRefused:
		return nil, ErrorRefused.Error()
	default:
		return nil, ErrorServerError.Error()
	}
	if h.qdcount != 1 {
		return nil, ErrorBadHeader.Error()
	}
	if h.ancount == 0 {
		return nil, ErrorServerError.Error()
	}

	off := 12
	// Skip the single question: name + qtype(2) + qclass(2).
	_, off, err = ReadName(msg, off)
	if err != nil {
		return nil, err
	}
	off += 4
	if off > len(msg) {
		return nil, ErrorBadHeader.Error()
	}

	ancount := int(h.ancount)
	if ancount > MaxAnswerRecords {
		ancount = MaxAnswerRecords
	}

	ans := &Answer{ID: h.id}
	expectName := ""
	haveExpect := false

	for i := 0; i < ancount; i++ {
		name, next, err := ReadName(msg, off)
		if err != nil {
			return nil, err
		}
		off = next

		rrh, next2, err := decodeRRHeader(msg, off)
		if err != nil {
			return nil, err
		}
		rdataOff := next2
		off = next2 + int(rrh.rdlen)

		if haveExpect && !strings.EqualFold(name, expectName) {
			continue // record doesn't continue the chain we're following
		}

		switch rrh.rtype {
		case dns.TypeCNAME:
			target, _, err := ReadName(msg, rdataOff)
			if err != nil {
				return nil, err
			}
			expectName = target
			haveExpect = true
			ans.CNAMEOnly = true
		case dns.TypeA:
			if wantType != dns.TypeA || rrh.rdlen != 4 {
				continue
			}
			ip := net.IP(msg[rdataOff : rdataOff+4])
			ans.Addrs = append(ans.Addrs, ip)
			ans.CNAMEOnly = false
		case dns.TypeAAAA:
			if wantType != dns.TypeAAAA || rrh.rdlen != 16 {
				continue
			}
			ip := net.IP(msg[rdataOff : rdataOff+16])
			ans.Addrs = append(ans.Addrs, ip)
			ans.CNAMEOnly = false
		}
	}

	if len(ans.Addrs) == 0 && ans.CNAMEOnly {
		return ans, ErrorCNAME.Error()
	}
	return ans, nil
}
