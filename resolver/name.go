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
	"fmt"
	"strings"
)

const (
	ptrMask   = 0xC0
	maxLabels = 128 // guards against pathological (but non-looping) chains
)

// ReadName decodes a (possibly compressed) domain name starting at off within
// msg, tolerating pointer chains that strictly point backwards, and
// rejecting any pointer that targets the current offset or later —
// the exact condition that makes a crafted loop terminate with an
// error instead of spinning forever.
//
// Returns the dotted name, the offset immediately after the name as it
// appears at the call site (not following any pointer), and an error.
func ReadName(msg []byte, off int) (string, int, error) {
	var labels []string
	cursor := off
	end := -1 // offset to resume the caller at, set on first pointer jump
	jumps := 0

	for {
		if cursor < 0 || cursor >= len(msg) {
			return "", 0, fmt.Errorf("dns: name read out of bounds at %d", cursor)
		}
		b := msg[cursor]

		if b&ptrMask == ptrMask {
			if cursor+1 >= len(msg) {
				return "", 0, fmt.Errorf("dns: truncated compression pointer at %d", cursor)
			}
			ptr := int(b&^ptrMask)<<8 | int(msg[cursor+1])

			// A pointer must point strictly
			// before the offset it was read from. This single
			// comparison is what prevents both simple self-loops
			// (ptr == cursor) and forward references that could be
			// chained into a cycle.
			if ptr >= cursor {
				return "", 0, ErrorPointerLoop.Error()
			}

			if end < 0 {
				end = cursor + 2
			}
			jumps++
			if jumps > maxLabels {
				return "", 0, ErrorPointerLoop.Error()
			}
			cursor = ptr
			continue
		}

		if b == 0 {
			cursor++
			break
		}

		labelLen := int(b)
		if cursor+1+labelLen > len(msg) {
			return "", 0, fmt.Errorf("dns: label overruns message at %d", cursor)
		}
		labels = append(labels, string(msg[cursor+1:cursor+1+labelLen]))
		cursor += 1 + labelLen

		if len(labels) > maxLabels {
			return "", 0, fmt.Errorf("dns: name exceeds %d labels", maxLabels)
		}
	}

	if end < 0 {
		end = cursor
	}
	return strings.Join(labels, "."), end, nil
}

// EncodeName produces the uncompressed wire encoding of a dotted name,
// terminated by a zero-length root label. Queries never emit pointers.
func EncodeName(name string) []byte {
	name = strings.TrimSuffix(name, ".")
	if name == "" {
		return []byte{0}
	}
	parts := strings.Split(name, ".")
	out := make([]byte, 0, len(name)+2)
	for _, p := range parts {
		out = append(out, byte(len(p)))
		out = append(out, p...)
	}
	out = append(out, 0)
	return out
}
