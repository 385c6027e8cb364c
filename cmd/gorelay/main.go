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

// Command gorelay is the worker process entrypoint: it loads a
// proxycfg.Config, builds the runtime (backends, stick-tables,
// resolvers, the stats registry), and drives the accept loop for every
// configured frontend until a termination signal lands.
package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"time"

	libcbr "github.com/nabbar/gorelay/cobra"
	liberr "github.com/nabbar/gorelay/errors"
	"github.com/nabbar/gorelay/proxycfg"
	libver "github.com/nabbar/gorelay/version"
)

var buildRelease = "dev"
var buildDate = ""
var buildHash = ""

func main() {
	app := libcbr.New()
	app.SetVersion(libver.NewVersion(
		libver.License_MIT,
		"gorelay",
		"Layer-4/Layer-7 reverse proxy and load balancer core",
		buildDate,
		buildHash,
		buildRelease,
		"Nicolas JUHEL",
		"GORELAY",
		struct{}{},
		2,
	))
	app.Init()

	var cfgFile string
	app.SetFlagConfig(true, &cfgFile)

	app.AddCommand(newRunCommand(&cfgFile))
	app.AddCommand(newCheckCommand(&cfgFile))
	app.AddCommand(newWizardCommand(app, &cfgFile))
	app.AddCommandCompletion()
	app.AddCommandConfigure("init", "gorelay", defaultConfigJSON)
	app.AddCommandPrintErrorCode(func(item, value string) {
		os.Stdout.WriteString(item + "\t" + value + "\n")
	})

	if err := app.Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps a returned error to the process exit-code table:
// 1 for configuration errors, 2 for any other runtime fatal.
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if e, ok := err.(liberr.Error); ok {
		for _, code := range append([]liberr.CodeError{e.GetCode()}, e.GetParentCode()...) {
			switch code {
			case ErrorConfigLoad, ErrorConfigBuild,
				proxycfg.ErrorReadConfig, proxycfg.ErrorValidate,
				proxycfg.ErrorUnknownAlgorithm, proxycfg.ErrorUnknownKeyType,
				proxycfg.ErrorUnknownResolver, proxycfg.ErrorUnknownStickTable,
				proxycfg.ErrorNoServers, proxycfg.ErrorTLSConfig:
				return 1
			}
		}
	}
	return 2
}

// defaultConfigJSON backs the "gorelay init" subcommand
// (libcbr.AddCommandConfigure): it returns a minimal but complete
// proxycfg.Config — one resolver, one stick-table, one backend with a
// single server, one frontend routing to it — marshaled as JSON.
// ConfigureWriteConfig re-encodes this into YAML or TOML itself when
// the requested output path carries that extension.
func defaultConfigJSON() io.Reader {
	cfg := proxycfg.Config{
		Global: proxycfg.GlobalConfig{
			MaxConn:        10000,
			RateLimitConn:  0,
			StatsSocket:    "/var/run/gorelay/stats.sock",
			AdminAPIListen: "127.0.0.1:8404",
		},
		Resolvers: []proxycfg.ResolverConfig{{
			Name:        "dns1",
			Nameservers: []string{"127.0.0.1:53"},
			CacheSize:   256,
			MaxTries:    3,
			TryCNAME:    1,
		}},
		StickTables: []proxycfg.StickTableConfig{{
			Name: "ip-table",
			Type: "ip",
			Size: 50000,
		}},
		Backends: []proxycfg.BackendConfig{{
			Name:        "web",
			Algorithm:   "roundrobin",
			ConnRetries: 3,
			Servers: []proxycfg.ServerConfig{{
				Name:    "web1",
				Address: "127.0.0.1",
				Port:    8080,
				Weight:  1,
				Rise:    2,
				Fall:    3,
			}},
		}},
		Frontends: []proxycfg.FrontendConfig{{
			Name:    "web-in",
			Bind:    ":8080",
			Backend: "web",
			Mode:    "http",
		}},
	}

	b, err := json.MarshalIndent(&cfg, "", "  ")
	if err != nil {
		return bytes.NewReader([]byte("{}"))
	}
	return bytes.NewReader(b)
}

// waitSignal blocks until sig receives a value or timeout elapses,
// returning true if the timeout fired first. Used by the soft-stop
// drain window (SIGUSR1).
func waitSignal(sig <-chan os.Signal, timeout time.Duration) bool {
	select {
	case <-sig:
		return false
	case <-time.After(timeout):
		return true
	}
}
