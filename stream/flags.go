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

package stream

// SIState is a stream-interface's lifecycle state. The
// server-side SI moves through the full sequence; the client-side SI
// only ever visits INI, EST, DIS, CLO.
type SIState int

const (
	SIInit SIState = iota
	SIRequest
	SIQueued
	SITarpit
	SIAssigned
	SIConnecting
	SIConnectError
	SIReady
	SIEstablished
	SIDisconnecting
	SIClosed
)

func (s SIState) String() string {
	switch s {
	case SIInit:
		return "INI"
	case SIRequest:
		return "REQ"
	case SIQueued:
		return "QUE"
	case SITarpit:
		return "TAR"
	case SIAssigned:
		return "ASS"
	case SIConnecting:
		return "CON"
	case SIConnectError:
		return "CER"
	case SIReady:
		return "RDY"
	case SIEstablished:
		return "EST"
	case SIDisconnecting:
		return "DIS"
	case SIClosed:
		return "CLO"
	default:
		return "?"
	}
}

// TermFlag records who initiated termination and why; the set is
// mutually compatible (several bits may be set together).
type TermFlag uint32

const (
	TermCLI TermFlag = 1 << iota // client initiated
	TermSRV                      // server initiated
	TermPRX                      // proxy (rule/limit) initiated
	TermRES                      // resource exhaustion
	TermINT                      // internal error
	TermLOCAL                    // local (config/admin) action
	TermKILL                     // forcibly killed
	TermUP                       // completed normally
	TermTIMEOUT
	TermCLICL // client-side close
	TermSRVCL // server-side close
)

func (f TermFlag) Has(bit TermFlag) bool { return f&bit != 0 }
