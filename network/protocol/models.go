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

import (
	"fmt"
	"reflect"

	libmap "github.com/go-viper/mapstructure/v2"
)

// Check reports whether v is one of the defined protocols
// (NetworkEmpty excluded).
func (v NetworkProtocol) Check() bool {
	switch v {
	case NetworkUnix, NetworkTCP, NetworkTCP4, NetworkTCP6,
		NetworkUDP, NetworkUDP4, NetworkUDP6,
		NetworkIP, NetworkIP4, NetworkIP6,
		NetworkUnixGram:
		return true
	default:
		return false
	}
}

// ViperDecoderHook decodes configuration values into a NetworkProtocol:
// strings go through Parse (unknown input yields NetworkEmpty without
// error), numeric values through ParseInt64 (out-of-range input is an
// error). Any other source type, or a non-NetworkProtocol target, is
// passed through unchanged.
func ViperDecoderHook() libmap.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		var z NetworkProtocol

		if to != reflect.TypeOf(z) {
			return data, nil
		}

		switch from.Kind() {
		case reflect.String:
			t, k := data.(string)
			if !k {
				return data, nil
			}
			return Parse(t), nil

		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			i, k := castInt64(data)
			if !k {
				return data, nil
			}
			if p := ParseInt64(i); p != NetworkEmpty {
				return p, nil
			}
			return nil, fmt.Errorf("invalid value '%v' for network protocol", data)

		default:
			return data, nil
		}
	}
}

func castInt64(data interface{}) (int64, bool) {
	switch i := data.(type) {
	case int:
		return int64(i), true
	case int8:
		return int64(i), true
	case int16:
		return int64(i), true
	case int32:
		return int64(i), true
	case int64:
		return i, true
	case uint:
		if uint64(i) > uint64(1)<<62 {
			return 0, true
		}
		return int64(i), true
	case uint8:
		return int64(i), true
	case uint16:
		return int64(i), true
	case uint32:
		return int64(i), true
	case uint64:
		if i > uint64(1)<<62 {
			return 0, true
		}
		return int64(i), true
	default:
		return 0, false
	}
}
