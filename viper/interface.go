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

// Package viper wraps a spf13/viper instance behind one Viper interface
// tying together the config file lookup (explicit path or home-based
// basename), environment variable overrides, an optional default config
// fallback, an optional remote provider, and a registrable decode-hook
// chain applied on every unmarshalling call.
package viper

import (
	"context"
	"io"
	"time"

	libmap "github.com/go-viper/mapstructure/v2"
	liberr "github.com/nabbar/gorelay/errors"
	liblog "github.com/nabbar/gorelay/logger"
	loglvl "github.com/nabbar/gorelay/logger/level"
	spfvpr "github.com/spf13/viper"
)

type Viper interface {
	// Viper exposes the underlying spf13/viper instance for direct use.
	Viper() *spfvpr.Viper

	// SetRemoteProvider stores the remote provider kind (etcd, consul, ...)
	// used by Config when no local config file is wanted.
	SetRemoteProvider(provider string)
	// SetRemoteEndpoint stores the remote provider endpoint url.
	SetRemoteEndpoint(endpoint string)
	// SetRemotePath stores the key path to read on the remote provider.
	SetRemotePath(path string)
	// SetRemoteSecureKey stores the keyring used to decrypt a secure
	// remote config. An empty key selects the insecure provider call.
	SetRemoteSecureKey(key string)
	// SetRemoteModel stores a model instance that Config unmarshalls the
	// remote config into after each successful read.
	SetRemoteModel(model interface{})
	// SetRemoteReloadFunc stores a callback invoked after each remote
	// config refresh.
	SetRemoteReloadFunc(fct func())

	// SetHomeBaseName stores the config basename used when SetConfigFile
	// is called with an empty path: the file is then searched as
	// <home>/<basename>.<ext> and ./<basename>.<ext>.
	SetHomeBaseName(base string)
	// SetEnvVarsPrefix stores the environment variables prefix bound by
	// Config through viper's AutomaticEnv.
	SetEnvVarsPrefix(prefix string)
	// SetDefaultConfig stores a reader generator for the JSON default
	// config Config falls back to when the config file cannot be read.
	SetDefaultConfig(fct func() io.Reader)
	// SetConfigFile registers the config file location: an explicit path,
	// or the home-based lookup when fileConfig is empty (requiring a
	// basename registered with SetHomeBaseName).
	SetConfigFile(fileConfig string) liberr.Error

	// Config loads the configuration: from the remote provider when one
	// is registered, otherwise from the config file, falling back to the
	// default config reader when the file read fails. The two levels
	// select the log verbosity of the failure and success paths.
	Config(logLevelRemoteKO loglvl.Level, logLevelRemoteOK loglvl.Level) liberr.Error

	// Unset removes the given (dotted) keys from the loaded settings,
	// rebuilding the underlying viper instance without them.
	Unset(key ...string) liberr.Error

	// HookRegister appends a mapstructure decode hook applied on every
	// Unmarshal / UnmarshalKey / UnmarshalExact call.
	HookRegister(hook libmap.DecodeHookFunc)
	// HookReset drops all registered decode hooks.
	HookReset()

	// Unmarshal decodes the whole loaded settings into obj.
	Unmarshal(obj interface{}) liberr.Error
	// UnmarshalKey decodes the settings subtree at key into obj.
	UnmarshalKey(key string, obj interface{}) liberr.Error
	// UnmarshalExact decodes the whole loaded settings into obj and
	// fails if any loaded key has no matching field.
	UnmarshalExact(obj interface{}) liberr.Error

	GetBool(key string) bool
	GetString(key string) string
	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
	GetUint(key string) uint
	GetUint16(key string) uint16
	GetUint32(key string) uint32
	GetUint64(key string) uint64
	GetFloat64(key string) float64
	GetTime(key string) time.Time
	GetDuration(key string) time.Duration
	GetIntSlice(key string) []int
	GetStringSlice(key string) []string
	GetStringMap(key string) map[string]interface{}
	GetStringMapString(key string) map[string]string
	GetStringMapStringSlice(key string) map[string][]string
}

// New returns a Viper wrapper bound to the given context and logger
// function. A nil log falls back to the package default logger.
func New(ctx context.Context, log liblog.FuncLog) Viper {
	if log == nil {
		log = liblog.GetDefault
	}

	return &vpr{
		x: ctx,
		l: log,
		v: spfvpr.New(),
	}
}
