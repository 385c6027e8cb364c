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

import "net"

// SelectOpts carries the four address-scoring inputs: preferred family (+8), matches a preferred network (+4),
// not already bound to another server in the same backend (+2), matches
// current IP (+1). 15 short-circuits (all four match).
type SelectOpts struct {
	PreferredIsV4   bool
	PreferredNets   []*net.IPNet
	BoundElsewhere  map[string]bool // IP.String() -> already bound to another server
	CurrentIP       net.IP
}

// SelectIP scores every candidate and returns the highest-scoring one;
// ties keep the first candidate encountered (stable, input order).
func SelectIP(candidates []net.IP, opts SelectOpts) (net.IP, bool) {
	if len(candidates) == 0 {
		return nil, false
	}

	var best net.IP
	bestScore := -1

	for _, ip := range candidates {
		score := 0
		if opts.PreferredIsV4 == (ip.To4() != nil) {
			score += 8
		}
		for _, n := range opts.PreferredNets {
			if n != nil && n.Contains(ip) {
				score += 4
				break
			}
		}
		if opts.BoundElsewhere == nil || !opts.BoundElsewhere[ip.String()] {
			score += 2
		}
		if opts.CurrentIP != nil && opts.CurrentIP.Equal(ip) {
			score += 1
		}

		if score > bestScore {
			best, bestScore = ip, score
			if score >= 15 {
				break
			}
		}
	}
	return best, best != nil
}
