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
	"time"

	"github.com/miekg/dns"
)

// RequesterCallback is invoked on a successful resolution with the
// chosen address; RequesterErrorCallback on final failure.
type RequesterCallback func(ip net.IP)
type RequesterErrorCallback func(err error)

// Resolution is one in-flight query's record: hostname,
// query type/id, retry bookkeeping, and the requester's callbacks.
type Resolution struct {
	Hostname string
	QType    uint16
	QueryID  uint16

	Step int
	Try  int

	TryCNAME    int
	cnameChases int

	LastSentPacket time.Time
	LastResolution time.Time
	NbResponses    int

	PreferredFamily uint16 // dns.TypeA or dns.TypeAAAA

	RequesterCallback      RequesterCallback
	RequesterErrorCallback RequesterErrorCallback

	maxTries int
}

// NewResolution builds a Resolution for hostname/qtype with maxTries
// retry attempts before final failure.
func NewResolution(hostname string, qtype uint16, maxTries, tryCNAME int, cb RequesterCallback, errCb RequesterErrorCallback) *Resolution {
	return &Resolution{
		Hostname:               hostname,
		QType:                  qtype,
		PreferredFamily:        qtype,
		Try:                    maxTries,
		maxTries:               maxTries,
		TryCNAME:               tryCNAME,
		RequesterCallback:      cb,
		RequesterErrorCallback: errCb,
	}
}

// otherFamily returns the fallback query type: A
// falls back to AAAA and vice versa.
func (r *Resolution) otherFamily() uint16 {
	if r.QType == dns.TypeA {
		return dns.TypeAAAA
	}
	return dns.TypeA
}

// switchFamily implements "the task switches query_type to AAAA,
// retries" (and the reverse), bounded by TryCNAME as the configurable
// number of family-switch attempts.
func (r *Resolution) switchFamily() bool {
	if r.cnameChases >= r.TryCNAME {
		return false
	}
	r.cnameChases++
	r.QType = r.otherFamily()
	r.Try = r.maxTries
	return true
}
