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

package version

import (
	"runtime"
	"strings"

	hcver "github.com/hashicorp/go-version"
)

// CheckGo verifies the running Go runtime satisfies "<operator>
// <constraint>" (e.g. CheckGo("1.20", ">=")) using
// hashicorp/go-version constraint syntax.
func (v *vers) CheckGo(constraint string, operator string) error {
	if constraint == "" {
		return ErrorParamEmpty.Error(nil)
	}
	if operator == "" {
		operator = ">="
	}

	c, err := hcver.NewConstraint(operator + " " + constraint)
	if err != nil {
		return ErrorGoVersionInit.Error(err)
	}

	runtimeVer := strings.TrimPrefix(runtime.Version(), "go")
	rv, err := hcver.NewVersion(runtimeVer)
	if err != nil {
		return ErrorGoVersionRuntime.Error(err)
	}

	if !c.Check(rv) {
		return ErrorGoVersionConstraint.Error(nil)
	}
	return nil
}
