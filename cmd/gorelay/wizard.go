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

package main

import (
	"encoding/json"
	"fmt"
	"os"

	spfcbr "github.com/spf13/cobra"

	libcbr "github.com/nabbar/gorelay/cobra"
	"github.com/nabbar/gorelay/proxycfg"
)

// newWizardCommand wires `gorelay wizard`: an interactive, terminal-prompt
// alternative to `gorelay init` for operators who would rather answer a
// handful of questions than hand-edit the generated document. It drives
// app's bubbletea-backed prompt (libcbr.SetUIQuestions/RunInteractiveUI)
// over four questions, then writes the resulting single-frontend,
// single-backend proxycfg.Config to the path that would have been used
// by --config (or "./gorelay.json" if unset).
func newWizardCommand(app libcbr.Cobra, cfgFile *string) *spfcbr.Command {
	return &spfcbr.Command{
		Use:   "wizard",
		Short: "Interactively build a minimal gorelay configuration file",
		RunE: func(cmd *spfcbr.Command, args []string) error {
			out := *cfgFile
			if out == "" {
				out = "./gorelay.json"
			}

			answers := map[string]string{}
			app.SetUIQuestions([]libcbr.Question{
				{
					Text: "Frontend bind address (e.g. :8080): ",
					Handler: func(s string) error {
						if s == "" {
							return fmt.Errorf("bind address is required")
						}
						answers["bind"] = s
						return nil
					},
				},
				{
					Text: "Backend name: ",
					Handler: func(s string) error {
						if s == "" {
							return fmt.Errorf("backend name is required")
						}
						answers["backend"] = s
						return nil
					},
				},
				{
					Text:    "Load-balancing algorithm:",
					Options: []string{"roundrobin", "leastconn", "source", "uri", "hash"},
					Handler: func(s string) error {
						answers["algorithm"] = s
						return nil
					},
				},
				{
					Text: "First server address (host:port): ",
					Handler: func(s string) error {
						if s == "" {
							return fmt.Errorf("server address is required")
						}
						answers["server"] = s
						return nil
					},
				},
			})
			app.RunInteractiveUI()

			if answers["bind"] == "" || answers["backend"] == "" || answers["server"] == "" {
				return fmt.Errorf("wizard cancelled before completion")
			}

			cfg := wizardConfig(answers)
			b, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return err
			}

			if err = os.WriteFile(out, b, 0600); err != nil {
				return err
			}

			fmt.Fprintf(os.Stdout, "wrote %s\n", out)
			return nil
		},
	}
}

func wizardConfig(answers map[string]string) *proxycfg.Config {
	return &proxycfg.Config{
		Global: proxycfg.GlobalConfig{
			MaxConn:     10000,
			StatsSocket: "/var/run/gorelay/stats.sock",
		},
		Backends: []proxycfg.BackendConfig{{
			Name:        answers["backend"],
			Algorithm:   answers["algorithm"],
			ConnRetries: 3,
			Servers: []proxycfg.ServerConfig{{
				Name:    answers["backend"] + "-1",
				Address: answers["server"],
				Weight:  1,
				Rise:    2,
				Fall:    3,
			}},
		}},
		Frontends: []proxycfg.FrontendConfig{{
			Name:    answers["backend"] + "-in",
			Bind:    answers["bind"],
			Backend: answers["backend"],
			Mode:    "http",
		}},
	}
}
