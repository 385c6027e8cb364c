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
	"fmt"

	libval "github.com/go-playground/validator/v10"

	libtls "github.com/nabbar/gorelay/certificates"
	libdur "github.com/nabbar/gorelay/duration"
	liberr "github.com/nabbar/gorelay/errors"
)

// Config is the top-level declarative document: one or more frontends
// feeding one or more backends, the resolvers backends may reference by
// name, and the stick-tables backends may track into. Every field
// carries mapstructure plus json/yaml/toml tags so the document loads
// equally from YAML, TOML or JSON.
type Config struct {
	Global      GlobalConfig      `mapstructure:"global" json:"global" yaml:"global" toml:"global"`
	Resolvers   []ResolverConfig  `mapstructure:"resolvers" json:"resolvers" yaml:"resolvers" toml:"resolvers"`
	StickTables []StickTableConfig `mapstructure:"stickTables" json:"stickTables" yaml:"stickTables" toml:"stickTables"`
	Backends    []BackendConfig   `mapstructure:"backends" json:"backends" yaml:"backends" toml:"backends" validate:"dive"`
	Frontends   []FrontendConfig  `mapstructure:"frontends" json:"frontends" yaml:"frontends" toml:"frontends" validate:"dive"`
}

// GlobalConfig holds process-wide knobs the stats socket's `set
// maxconn global`/`set rate-limit ... global` commands mutate at
// runtime; Build seeds statsock.Registry's process-wide state
// from these.
type GlobalConfig struct {
	MaxConn             int    `mapstructure:"maxconn" json:"maxconn" yaml:"maxconn" toml:"maxconn"`
	RateLimitConn       int    `mapstructure:"rateLimitConnections" json:"rateLimitConnections" yaml:"rateLimitConnections" toml:"rateLimitConnections"`
	StatsSocket         string `mapstructure:"statsSocket" json:"statsSocket" yaml:"statsSocket" toml:"statsSocket"`
	AdminAPIListen      string `mapstructure:"adminApiListen" json:"adminApiListen" yaml:"adminApiListen" toml:"adminApiListen"`
}

// ResolverConfig describes one resolver section: a set of nameservers
// plus its retry/cache knobs.
type ResolverConfig struct {
	Name        string        `mapstructure:"name" json:"name" yaml:"name" toml:"name" validate:"required"`
	Nameservers []string      `mapstructure:"nameservers" json:"nameservers" yaml:"nameservers" toml:"nameservers" validate:"required,min=1,dive,required"`
	RetryPeriod libdur.Duration `mapstructure:"retryPeriod" json:"retryPeriod" yaml:"retryPeriod" toml:"retryPeriod"`
	HoldValid   libdur.Duration `mapstructure:"holdValid" json:"holdValid" yaml:"holdValid" toml:"holdValid"`
	CacheSize   int           `mapstructure:"cacheSize" json:"cacheSize" yaml:"cacheSize" toml:"cacheSize"`
	MaxTries    int           `mapstructure:"maxTries" json:"maxTries" yaml:"maxTries" toml:"maxTries"`
	TryCNAME    int           `mapstructure:"tryCname" json:"tryCname" yaml:"tryCname" toml:"tryCname"`
}

// StickTableConfig describes one spec component I table: its key type
// and the sliding-window periods its rate counters use.
type StickTableConfig struct {
	Name       string        `mapstructure:"name" json:"name" yaml:"name" toml:"name" validate:"required"`
	Type       string        `mapstructure:"type" json:"type" yaml:"type" toml:"type" validate:"required,oneof=ip integer string binary"`
	Size       int           `mapstructure:"size" json:"size" yaml:"size" toml:"size" validate:"required,gt=0"`
	Expire     libdur.Duration `mapstructure:"expire" json:"expire" yaml:"expire" toml:"expire"`
	ConnPeriod libdur.Duration `mapstructure:"connRatePeriod" json:"connRatePeriod" yaml:"connRatePeriod" toml:"connRatePeriod"`
	ReqPeriod  libdur.Duration `mapstructure:"reqRatePeriod" json:"reqRatePeriod" yaml:"reqRatePeriod" toml:"reqRatePeriod"`
}

// ServerConfig is one backend server record. Address may be a
// literal "host:port" or a bare hostname paired with a Resolver name,
// in which case Build arms a standing resolution that updates the
// live lb.Server's address on each successful answer.
type ServerConfig struct {
	Name      string        `mapstructure:"name" json:"name" yaml:"name" toml:"name" validate:"required"`
	Address   string        `mapstructure:"address" json:"address" yaml:"address" toml:"address" validate:"required"`
	Port      int           `mapstructure:"port" json:"port" yaml:"port" toml:"port"`
	Resolver  string        `mapstructure:"resolver" json:"resolver" yaml:"resolver" toml:"resolver"`
	Weight    int           `mapstructure:"weight" json:"weight" yaml:"weight" toml:"weight" validate:"gte=0"`
	MinConn   int           `mapstructure:"minconn" json:"minconn" yaml:"minconn" toml:"minconn"`
	MaxConn   int           `mapstructure:"maxconn" json:"maxconn" yaml:"maxconn" toml:"maxconn"`
	Rise      int           `mapstructure:"rise" json:"rise" yaml:"rise" toml:"rise"`
	Fall      int           `mapstructure:"fall" json:"fall" yaml:"fall" toml:"fall"`
	SlowStart libdur.Duration `mapstructure:"slowstart" json:"slowstart" yaml:"slowstart" toml:"slowstart"`
	Backup    bool          `mapstructure:"backup" json:"backup" yaml:"backup" toml:"backup"`
}

// BackendConfig is one backend: a dispatch algorithm, its servers,
// and the connect-retry/stick-table policy applied to them.
type BackendConfig struct {
	Name        string         `mapstructure:"name" json:"name" yaml:"name" toml:"name" validate:"required"`
	Algorithm   string         `mapstructure:"algorithm" json:"algorithm" yaml:"algorithm" toml:"algorithm" validate:"omitempty,oneof=roundrobin leastconn source uri hash"`
	FullConn    int            `mapstructure:"fullconn" json:"fullconn" yaml:"fullconn" toml:"fullconn"`
	ConnRetries int            `mapstructure:"connRetries" json:"connRetries" yaml:"connRetries" toml:"connRetries"`
	ConnTimeout libdur.Duration `mapstructure:"connTimeout" json:"connTimeout" yaml:"connTimeout" toml:"connTimeout"`
	StickTable  string         `mapstructure:"stickTable" json:"stickTable" yaml:"stickTable" toml:"stickTable"`
	Servers     []ServerConfig `mapstructure:"servers" json:"servers" yaml:"servers" toml:"servers" validate:"required,min=1,dive"`

	// HealthCheckPath/HealthCheckInterval configure lb.HealthChecker's
	// active HEAD probe; an empty path or non-positive interval takes
	// NewHealthChecker's built-in default.
	HealthCheckPath     string        `mapstructure:"healthCheckPath" json:"healthCheckPath" yaml:"healthCheckPath" toml:"healthCheckPath"`
	HealthCheckInterval libdur.Duration `mapstructure:"healthCheckInterval" json:"healthCheckInterval" yaml:"healthCheckInterval" toml:"healthCheckInterval"`
}

// FrontendConfig is one listener plus its admission rule: the backend
// it routes to, the HTTP mode it runs in, and an optional TLS config
// (certificates.Config, a pluggable byte transport) for the SOCK-phase
// handshake.
type FrontendConfig struct {
	Name         string        `mapstructure:"name" json:"name" yaml:"name" toml:"name" validate:"required"`
	Bind         string        `mapstructure:"bind" json:"bind" yaml:"bind" toml:"bind" validate:"required"`
	Backend      string        `mapstructure:"backend" json:"backend" yaml:"backend" toml:"backend" validate:"required"`
	Mode         string        `mapstructure:"mode" json:"mode" yaml:"mode" toml:"mode" validate:"omitempty,oneof=http tunnel close"`
	TLS          *libtls.Config `mapstructure:"tls" json:"tls" yaml:"tls" toml:"tls"`
	ClientTimeout libdur.Duration `mapstructure:"clientTimeout" json:"clientTimeout" yaml:"clientTimeout" toml:"clientTimeout"`
	MaxConn      int           `mapstructure:"maxconn" json:"maxconn" yaml:"maxconn" toml:"maxconn"`
}

// Validate runs go-playground/validator struct tags the way
// certificates.Config.Validate and httpserver's ServerConfig.Validate
// do, wrapping field failures into a single liberr.Error chain.
func (c *Config) Validate() liberr.Error {
	out := ErrorValidate.Error(nil)

	if er := libval.New().Struct(c); er != nil {
		if e, ok := er.(*libval.InvalidValidationError); ok {
			out.Add(e)
		} else if ve, ok := er.(libval.ValidationErrors); ok {
			for _, e := range ve {
				//nolint goerr113
				out.Add(fmt.Errorf("config field '%s' is not validated by constraint '%s'", e.StructNamespace(), e.ActualTag()))
			}
		}
	}

	for i := range c.Frontends {
		if t := c.Frontends[i].TLS; t != nil {
			if e := t.Validate(); e != nil {
				out.Add(e)
			}
		}
	}

	if out.HasParent() {
		return out
	}
	return nil
}
