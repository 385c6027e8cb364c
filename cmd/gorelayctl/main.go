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

// Command gorelayctl is an interactive client for the stats socket:
// it connects to a running gorelay worker's admin listener and drives
// its line-oriented command protocol through a go-prompt REPL, with
// tab completion over the command grammar and colored replies.
package main

import (
	"os"

	spfcbr "github.com/spf13/cobra"

	libcbr "github.com/nabbar/gorelay/cobra"
	libver "github.com/nabbar/gorelay/version"
)

var buildRelease = "dev"
var buildDate = ""
var buildHash = ""

func main() {
	app := libcbr.New()
	app.SetVersion(libver.NewVersion(
		libver.License_MIT,
		"gorelayctl",
		"Interactive client for the gorelay stats socket",
		buildDate,
		buildHash,
		buildRelease,
		"Nicolas JUHEL",
		"GORELAY",
		struct{}{},
		2,
	))
	app.Init()
	app.AddCommand(newShellCommand())
	app.AddCommandCompletion()

	if err := app.Execute(); err != nil {
		os.Exit(1)
	}
}

func newShellCommand() *spfcbr.Command {
	var addr string
	var network string
	var oneShot string

	cmd := &spfcbr.Command{
		Use:     "shell",
		Aliases: []string{"repl", "connect"},
		Short:   "Open an interactive session against a stats socket",
		RunE: func(_ *spfcbr.Command, _ []string) error {
			cli, err := Dial(network, addr)
			if err != nil {
				return err
			}
			defer func() { _ = cli.Close() }()

			if oneShot != "" {
				reply, err := cli.Execute(oneShot)
				if err != nil {
					return err
				}
				os.Stdout.WriteString(reply)
				return nil
			}
			RunShell(cli)
			return nil
		},
	}

	cmd.Flags().StringVar(&network, "network", "unix", `transport for the stats socket: "unix" or "tcp"`)
	cmd.Flags().StringVar(&addr, "addr", "/var/run/gorelay/stats.sock", "stats socket address (path for unix, host:port for tcp)")
	cmd.Flags().StringVar(&oneShot, "exec", "", "run a single command non-interactively and print its reply")

	return cmd
}
