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

// Package version exposes a build-time identity (package name,
// release, build hash, license) that a cmd entrypoint attaches to its
// Cobra root command and prints on --version / license requests.
package version

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"time"
)

// License identifies the license text a Version reports through
// GetLicenseName / GetLicenseLegal / GetLicenseBoiler.
type License uint8

const (
	License_MIT License = iota
	License_GNU_GPL_v3
	License_GNU_Affero_GPL_v3
	License_GNU_Lesser_GPL_v3
	License_Mozilla_PL_v2
	License_Apache_v2
	License_Unlicense
	License_Creative_Common_Zero_v1
	License_Creative_Common_Attribution_v4_int
	License_Creative_Common_Attribution_Share_Alike_v4_int
	License_SIL_Open_Font_1_1
)

// Version is the read-only identity a binary carries: package name,
// human description, release/build stamps, author, and the license it
// ships under. cobra.Cobra.SetVersion consumes this interface directly.
type Version interface {
	GetPackage() string
	GetDescription() string
	GetBuild() string
	GetRelease() string
	GetAuthor() string
	GetPrefix() string
	GetDate() string
	GetTime() time.Time
	GetAppId() string
	GetRootPackagePath() string

	GetLicenseName() string
	GetLicenseLegal(add ...License) string
	GetLicenseBoiler(add ...License) string

	GetHeader() string
	GetInfo() string

	CheckGo(constraint string, operator string) error

	PrintInfo()
	PrintLicense(add ...License)
}

type vers struct {
	lic     License
	pkg     string
	desc    string
	date    time.Time
	build   string
	release string
	author  string
	prefix  string
	rootPkg string
}

// NewVersion builds a Version. pkgType is any value declared in the
// caller's package (typically an empty struct literal); its reflected
// import path is walked up numSubPackage directories to derive
// GetRootPackagePath, the same "reflect the caller, don't hardcode the
// module path" trick httpserver's own info struct uses for its Server
// identity. dateStr is parsed as RFC3339; an unparsable or empty value
// falls back to time.Now().
func NewVersion(lic License, pkgName, description, dateStr, build, release, author, prefix string, pkgType interface{}, numSubPackage int) Version {
	t, err := time.Parse(time.RFC3339, dateStr)
	if err != nil {
		t = time.Now()
	}

	root := reflect.TypeOf(pkgType).PkgPath()
	for i := 0; i < numSubPackage; i++ {
		if idx := strings.LastIndex(root, "/"); idx >= 0 {
			root = root[:idx]
		}
	}

	if pkgName == "" || pkgName == "noname" {
		if idx := strings.LastIndex(root, "/"); idx >= 0 {
			pkgName = root[idx+1:]
		} else {
			pkgName = root
		}
	}

	return &vers{
		lic:     lic,
		pkg:     pkgName,
		desc:    description,
		date:    t,
		build:   build,
		release: release,
		author:  author,
		prefix:  strings.ToUpper(prefix),
		rootPkg: root,
	}
}

func (v *vers) GetPackage() string     { return v.pkg }
func (v *vers) GetDescription() string { return v.desc }
func (v *vers) GetBuild() string       { return v.build }
func (v *vers) GetRelease() string     { return v.release }
func (v *vers) GetPrefix() string      { return v.prefix }
func (v *vers) GetTime() time.Time     { return v.date }
func (v *vers) GetRootPackagePath() string { return v.rootPkg }

func (v *vers) GetAuthor() string {
	return fmt.Sprintf("%s (source: %s)", v.author, v.rootPkg)
}

func (v *vers) GetDate() string {
	return v.date.Format("2006-01-02 15:04:05 MST")
}

// GetAppId is a one-line process identity suitable for a /health or
// /stats.json payload: release, OS/arch, and the Go runtime it was
// built with.
func (v *vers) GetAppId() string {
	return fmt.Sprintf("%s-%s-%s [Runtime: %s]", v.release, runtime.GOOS, runtime.GOARCH, runtime.Version())
}

func (v *vers) GetHeader() string {
	return fmt.Sprintf("%s %s (build %s)", v.pkg, v.release, v.build)
}

func (v *vers) GetInfo() string {
	return fmt.Sprintf("Package: %s\nDescription: %s\nRelease: %s\nBuild: %s\nDate: %s\nAuthor: %s",
		v.pkg, v.desc, v.release, v.build, v.GetDate(), v.GetAuthor())
}

func (v *vers) PrintInfo() {
	_, _ = fmt.Fprintln(stderrWriter, v.GetHeader())
	_, _ = fmt.Fprintln(stderrWriter, v.GetInfo())
}

func (v *vers) PrintLicense(add ...License) {
	_, _ = fmt.Fprintln(stderrWriter, v.GetLicenseBoiler(add...))
}
