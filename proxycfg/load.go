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

package proxycfg

import (
	"context"
	"reflect"

	libmap "github.com/go-viper/mapstructure/v2"

	libdur "github.com/nabbar/gorelay/duration"
	loglvl "github.com/nabbar/gorelay/logger/level"
	libvpr "github.com/nabbar/gorelay/viper"
)

// Load reads path (YAML, TOML or JSON, picked from the file extension)
// plus any GORELAY_-prefixed environment overrides, and decodes it
// into a validated Config.
func Load(path string) (*Config, liberrError) {
	v := libvpr.New(context.Background(), nil)
	v.SetEnvVarsPrefix("gorelay")

	if e := v.SetConfigFile(path); e != nil {
		return nil, ErrorReadConfig.Error(e)
	}

	v.HookRegister(durationHook)
	v.HookRegister(libmap.StringToSliceHookFunc(","))

	if e := v.Config(loglvl.ErrorLevel, loglvl.DebugLevel); e != nil {
		return nil, ErrorReadConfig.Error(e)
	}

	cfg := &Config{}
	if e := v.Unmarshal(cfg); e != nil {
		return nil, ErrorReadConfig.Error(e)
	}

	if e := cfg.Validate(); e != nil {
		return nil, e
	}

	return cfg, nil
}

// durationHook lets every libdur.Duration field in Config accept the
// same human-friendly strings ("10s", "1h2m") libdur.Parse accepts,
// since mapstructure doesn't know about a non-stdlib Duration type on
// its own.
func durationHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != reflect.TypeOf(libdur.Duration(0)) {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return libdur.Parse(v)
	case int:
		return libdur.Duration(v), nil
	case int64:
		return libdur.Duration(v), nil
	default:
		return data, nil
	}
}
