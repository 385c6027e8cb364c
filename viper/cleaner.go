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

	liberr "github.com/nabbar/gorelay/errors"
	spfvpr "github.com/spf13/viper"
)

// Unset removes the given dotted keys from the loaded settings. Viper
// itself has no key removal, so the settings tree is copied without
// the keys into a fresh instance that replaces the wrapped one.
func (o *vpr) Unset(key ...string) liberr.Error {
	if len(key) < 1 {
		return nil
	}

	all := o.Viper().AllSettings()

	var chg bool
	for _, k := range key {
		if k == "" {
			continue
		}
		if unsetTreeKey(all, strings.Split(strings.ToLower(k), ".")) {
			chg = true
		}
	}

	if !chg {
		return nil
	}

	n := spfvpr.New()

	o.m.RLock()
	cfg := o.cfg
	o.m.RUnlock()

	if cfg != "" {
		n.SetConfigFile(cfg)
	}

	if err := n.MergeConfigMap(all); err != nil {
		return ErrorConfigRead.Error(err)
	}

	o.setViper(n)
	return nil
}

// unsetTreeKey deletes path from the nested settings map, pruning any
// branch map the removal leaves empty. Returns false when the path does
// not resolve to an existing entry.
func unsetTreeKey(m map[string]interface{}, path []string) bool {
	if len(path) == 0 {
		return false
	}

	if len(path) == 1 {
		if _, ok := m[path[0]]; !ok {
			return false
		}
		delete(m, path[0])
		return true
	}

	sub, ok := m[path[0]].(map[string]interface{})
	if !ok {
		return false
	}

	if !unsetTreeKey(sub, path[1:]) {
		return false
	}

	if len(sub) == 0 {
		delete(m, path[0])
	}

	return true
}
