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
	"context"
	"io"
	"sync"

	libmap "github.com/go-viper/mapstructure/v2"
	liblog "github.com/nabbar/gorelay/logger"
	logent "github.com/nabbar/gorelay/logger/entry"
	loglvl "github.com/nabbar/gorelay/logger/level"
	spfvpr "github.com/spf13/viper"
)

type remote struct {
	provider string
	endpoint string
	path     string
	secure   string
	model    interface{}
	reload   func()
}

type vpr struct {
	m sync.RWMutex
	x context.Context
	l liblog.FuncLog

	v *spfvpr.Viper

	cfg string
	bse string
	prf string
	def func() io.Reader

	hok []libmap.DecodeHookFunc

	rmt remote
}

func (o *vpr) Viper() *spfvpr.Viper {
	o.m.Lock()
	defer o.m.Unlock()

	if o.v == nil {
		o.v = spfvpr.New()
	}

	return o.v
}

func (o *vpr) setViper(v *spfvpr.Viper) {
	o.m.Lock()
	defer o.m.Unlock()
	o.v = v
}

func (o *vpr) logEntry(lvl loglvl.Level, msg string, args ...interface{}) logent.Entry {
	var l liblog.Logger

	if o.l != nil {
		l = o.l()
	}

	if l == nil {
		l = liblog.GetDefault()
	}

	return l.Entry(lvl, msg, args...)
}

func (o *vpr) SetRemoteProvider(provider string) {
	o.m.Lock()
	defer o.m.Unlock()
	o.rmt.provider = provider
}

func (o *vpr) SetRemoteEndpoint(endpoint string) {
	o.m.Lock()
	defer o.m.Unlock()
	o.rmt.endpoint = endpoint
}

func (o *vpr) SetRemotePath(path string) {
	o.m.Lock()
	defer o.m.Unlock()
	o.rmt.path = path
}

func (o *vpr) SetRemoteSecureKey(key string) {
	o.m.Lock()
	defer o.m.Unlock()
	o.rmt.secure = key
}

func (o *vpr) SetRemoteModel(model interface{}) {
	o.m.Lock()
	defer o.m.Unlock()
	o.rmt.model = model
}

func (o *vpr) SetRemoteReloadFunc(fct func()) {
	o.m.Lock()
	defer o.m.Unlock()
	o.rmt.reload = fct
}

func (o *vpr) getRemote() remote {
	o.m.RLock()
	defer o.m.RUnlock()
	return o.rmt
}

func (o *vpr) SetHomeBaseName(base string) {
	o.m.Lock()
	defer o.m.Unlock()
	o.bse = base
}

func (o *vpr) SetEnvVarsPrefix(prefix string) {
	o.m.Lock()
	defer o.m.Unlock()
	o.prf = prefix
}

func (o *vpr) SetDefaultConfig(fct func() io.Reader) {
	o.m.Lock()
	defer o.m.Unlock()
	o.def = fct
}
