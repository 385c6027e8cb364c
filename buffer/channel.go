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

package buffer

import "time"

// Flag is the channel flag bitmask.
type Flag uint32

const (
	FlagReadNull Flag = 1 << iota
	FlagShutR
	FlagShutW
	FlagShutRNow
	FlagShutWNow
	FlagWaitConn
	FlagReadDontWait
	FlagNeverWait
	FlagWakeWrite
	FlagWriteEvent
)

func (f Flag) Has(bit Flag) bool { return f&bit != 0 }

// Channel is a half-duplex transport wrapping one Buffer plus its
// accounting: to-forward budget, analyser bitmask, flags, and
// read/write/connect expiry ticks.
type Channel struct {
	buf *Buffer

	toForward int64 // bytes still allowed through; -1 == unlimited
	analysers uint64
	flags     Flag

	readExpire    time.Time
	writeExpire   time.Time
	connectExpire time.Time
}

// NewChannel wraps buf (obtained from a Pool) into an empty Channel with
// an unlimited forwarding budget.
func NewChannel(buf *Buffer) *Channel {
	return &Channel{buf: buf, toForward: -1}
}

// Buffer returns the underlying Buffer.
func (c *Channel) Buffer() *Buffer { return c.buf }

// Flags returns the current flag word.
func (c *Channel) Flags() Flag { return c.flags }

// SetFlag merges bits into the flag word.
func (c *Channel) SetFlag(f Flag) { c.flags |= f }

// ClearFlag removes bits from the flag word.
func (c *Channel) ClearFlag(f Flag) { c.flags &^= f }

// HasFlag reports whether all bits in f are set.
func (c *Channel) HasFlag(f Flag) bool { return c.flags.Has(f) }

// SetToForward sets the number of bytes the consumer is allowed to drain
// next; a negative value means unlimited.
func (c *Channel) SetToForward(n int64) { c.toForward = n }

// ToForward returns the remaining forwarding budget.
func (c *Channel) ToForward() int64 { return c.toForward }

// Available returns the amount of data currently available to the
// consumer: data - to_forward_pending, where to_forward_pending
// is the portion of Buffer.Len() that is still budget-gated. When
// toForward is unlimited (<0) the full buffer length is available.
func (c *Channel) Available() int {
	total := c.buf.Len()
	if c.toForward < 0 {
		return total
	}
	if c.toForward < int64(total) {
		return int(c.toForward)
	}
	return total
}

// Produce appends producer bytes to the channel's buffer, respecting the
// configured reserve headroom. Returns the bytes written and whether the
// buffer is now full (back-pressure signal to stop_recv).
func (c *Channel) Produce(p []byte) (n int, full bool) {
	return c.buf.Write(p)
}

// Consume advances the buffer head by n bytes (the amount the analyser
// pipeline or the peer side actually forwarded), decrementing the
// to-forward budget by the same amount.
func (c *Channel) Consume(n int) int {
	adv := c.buf.Advance(n)
	if c.toForward >= 0 {
		c.toForward -= int64(adv)
		if c.toForward < 0 {
			c.toForward = 0
		}
	}
	return adv
}

// Realign linearises the underlying buffer, per channel_slow_realign.
func (c *Channel) Realign() { c.buf.Realign() }

// SetAnalysers overwrites the analyser bitmask.
func (c *Channel) SetAnalysers(mask uint64) { c.analysers = mask }

// Analysers returns the analyser bitmask.
func (c *Channel) Analysers() uint64 { return c.analysers }

// EnableAnalyser sets a single analyser bit.
func (c *Channel) EnableAnalyser(bit uint64) { c.analysers |= bit }

// DisableAnalyser clears a single analyser bit.
func (c *Channel) DisableAnalyser(bit uint64) { c.analysers &^= bit }

// HasAnalyser reports whether a given analyser bit is set.
func (c *Channel) HasAnalyser(bit uint64) bool { return c.analysers&bit != 0 }

// SetReadExpire / ReadExpire manage the read deadline tick.
func (c *Channel) SetReadExpire(t time.Time) { c.readExpire = t }
func (c *Channel) ReadExpire() time.Time     { return c.readExpire }

// SetWriteExpire / WriteExpire manage the write deadline tick.
func (c *Channel) SetWriteExpire(t time.Time) { c.writeExpire = t }
func (c *Channel) WriteExpire() time.Time     { return c.writeExpire }

// SetConnectExpire / ConnectExpire manage the connect deadline tick.
func (c *Channel) SetConnectExpire(t time.Time) { c.connectExpire = t }
func (c *Channel) ConnectExpire() time.Time     { return c.connectExpire }

// Expire returns the earliest of the three configured deadlines that is
// non-zero, or the zero Time if none are set.
func (c *Channel) Expire() time.Time {
	var out time.Time
	for _, t := range []time.Time{c.readExpire, c.writeExpire, c.connectExpire} {
		if t.IsZero() {
			continue
		}
		if out.IsZero() || t.Before(out) {
			out = t
		}
	}
	return out
}

// Expired reports whether any configured deadline has already passed as
// of now.
func (c *Channel) Expired(now time.Time) bool {
	e := c.Expire()
	return !e.IsZero() && !now.Before(e)
}
