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
	libmap "github.com/go-viper/mapstructure/v2"
	liberr "github.com/nabbar/gorelay/errors"
)

// decode runs one mapstructure decoding of input into obj, applying
// the registered hook chain. exact makes any unused input key an error.
func (o *vpr) decode(input interface{}, obj interface{}, exact bool) error {
	cfg := &libmap.DecoderConfig{
		Result:           obj,
		WeaklyTypedInput: true,
		ErrorUnused:      exact,
	}

	if hooks := o.getHooks(); len(hooks) > 0 {
		cfg.DecodeHook = libmap.ComposeDecodeHookFunc(hooks...)
	}

	dec, err := libmap.NewDecoder(cfg)
	if err != nil {
		return err
	}

	return dec.Decode(input)
}

func (o *vpr) Unmarshal(obj interface{}) liberr.Error {
	if obj == nil {
		return ErrorParamEmpty.Error(nil)
	}

	if err := o.decode(o.Viper().AllSettings(), obj, false); err != nil {
		return ErrorConfigUnmarshall.Error(err)
	}

	return nil
}

func (o *vpr) UnmarshalExact(obj interface{}) liberr.Error {
	if obj == nil {
		return ErrorParamEmpty.Error(nil)
	}

	if err := o.decode(o.Viper().AllSettings(), obj, true); err != nil {
		return ErrorConfigUnmarshall.Error(err)
	}

	return nil
}

func (o *vpr) UnmarshalKey(key string, obj interface{}) liberr.Error {
	if key == "" || obj == nil {
		return ErrorParamEmpty.Error(nil)
	}

	v := o.Viper()
	if !v.IsSet(key) {
		return ErrorParamMissing.Error(nil)
	}

	if err := o.decode(v.Get(key), obj, false); err != nil {
		return ErrorConfigUnmarshall.Error(err)
	}

	return nil
}
