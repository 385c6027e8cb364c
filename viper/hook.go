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

package viper

import (
	"reflect"

	libmap "github.com/go-viper/mapstructure/v2"
)

// HookRegister normalizes raw hook function literals onto the named
// mapstructure hook types before storing them, since the decoder's
// dispatch matches on the named types only.
func (o *vpr) HookRegister(hook libmap.DecodeHookFunc) {
	if hook == nil {
		return
	}

	o.m.Lock()
	defer o.m.Unlock()

	switch h := hook.(type) {
	case func(reflect.Type, reflect.Type, interface{}) (interface{}, error):
		o.hok = append(o.hok, libmap.DecodeHookFuncType(h))
	case func(reflect.Kind, reflect.Kind, interface{}) (interface{}, error):
		o.hok = append(o.hok, libmap.DecodeHookFuncKind(h))
	case func(reflect.Value, reflect.Value) (interface{}, error):
		o.hok = append(o.hok, libmap.DecodeHookFuncValue(h))
	default:
		o.hok = append(o.hok, hook)
	}
}

func (o *vpr) HookReset() {
	o.m.Lock()
	defer o.m.Unlock()
	o.hok = nil
}

func (o *vpr) getHooks() []libmap.DecodeHookFunc {
	o.m.RLock()
	defer o.m.RUnlock()

	res := make([]libmap.DecodeHookFunc, len(o.hok))
	copy(res, o.hok)

	return res
}
