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
	"fmt"

	spfcbr "github.com/spf13/cobra"

	"github.com/nabbar/gorelay/proxycfg"
)

// newCheckCommand wires `gorelay check`: load and validate the
// configuration document without binding any listener, the same dry-run
// contract haproxy's own `-c` flag offers.
func newCheckCommand(cfgFile *string) *spfcbr.Command {
	cmd := &spfcbr.Command{
		Use:   "check",
		Short: "Validate a gorelay configuration file without starting the proxy",
		RunE: func(cmd *spfcbr.Command, args []string) error {
			cfg, err := proxycfg.Load(*cfgFile)
			if err != nil {
				return ErrorConfigLoad.Error(err)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configuration %q is valid: %d frontend(s), %d backend(s)\n",
				*cfgFile, len(cfg.Frontends), len(cfg.Backends))
			return nil
		},
	}
	return cmd
}
