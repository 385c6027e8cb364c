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
	"strings"

	libhom "github.com/mitchellh/go-homedir"
	liberr "github.com/nabbar/gorelay/errors"
	loglvl "github.com/nabbar/gorelay/logger/level"
)

func (o *vpr) SetConfigFile(fileConfig string) liberr.Error {
	if fileConfig != "" {
		o.m.Lock()
		o.cfg = fileConfig
		o.m.Unlock()

		o.Viper().SetConfigFile(fileConfig)
		return nil
	}

	o.m.RLock()
	base := o.bse
	prfx := o.prf
	o.m.RUnlock()

	if base == "" {
		return ErrorBasePathNotFound.Error(nil)
	}

	home, err := libhom.Dir()
	if err != nil {
		return ErrorHomePathNotFound.Error(err)
	}

	v := o.Viper()
	v.SetConfigName(base)
	v.AddConfigPath(home)
	v.AddConfigPath(".")

	if prfx != "" {
		v.SetEnvPrefix(strings.ToUpper(prfx))
	}

	return nil
}

func (o *vpr) Config(logLevelRemoteKO loglvl.Level, logLevelRemoteOK loglvl.Level) liberr.Error {
	if o.getRemote().provider != "" {
		return o.configRemote(logLevelRemoteKO, logLevelRemoteOK)
	}

	return o.configLocal(logLevelRemoteKO, logLevelRemoteOK)
}

func (o *vpr) configLocal(lvlKO loglvl.Level, lvlOK loglvl.Level) liberr.Error {
	o.m.RLock()
	prfx := o.prf
	def := o.def
	o.m.RUnlock()

	v := o.Viper()

	if prfx != "" {
		v.SetEnvPrefix(strings.ToUpper(prfx))
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
		v.AutomaticEnv()
	}

	err := v.ReadInConfig()
	if err == nil {
		o.logEntry(lvlOK, "config loaded from file '%s'", v.ConfigFileUsed()).Log()
		return nil
	}

	if def == nil {
		return ErrorConfigRead.Error(err)
	}

	v.SetConfigType("json")
	if e := v.ReadConfig(def()); e != nil {
		return ErrorConfigReadDefault.Error(e)
	}

	o.logEntry(lvlKO, "config file is not usable, fallback to default config").ErrorAdd(true, err).Log()
	return ErrorConfigIsDefault.Error(err)
}

func (o *vpr) configRemote(lvlKO loglvl.Level, lvlOK loglvl.Level) liberr.Error {
	r := o.getRemote()
	v := o.Viper()

	if r.endpoint == "" || r.path == "" {
		return ErrorParamMissing.Error(nil)
	}

	if r.secure != "" {
		if err := v.AddSecureRemoteProvider(r.provider, r.endpoint, r.path, r.secure); err != nil {
			return ErrorRemoteProviderSecure.Error(err)
		}
	} else if err := v.AddRemoteProvider(r.provider, r.endpoint, r.path); err != nil {
		return ErrorRemoteProvider.Error(err)
	}

	v.SetConfigType("json")

	if err := v.ReadRemoteConfig(); err != nil {
		o.logEntry(lvlKO, "cannot read config from remote provider '%s'", r.provider).ErrorAdd(true, err).Log()
		return ErrorRemoteProviderRead.Error(err)
	}

	if r.model != nil {
		if e := o.Unmarshal(r.model); e != nil {
			return ErrorRemoteProviderMarshall.Error(e)
		}
	}

	o.logEntry(lvlOK, "config loaded from remote provider '%s'", r.provider).Log()

	if r.reload != nil {
		r.reload()
	}

	return nil
}
