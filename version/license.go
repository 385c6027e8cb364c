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
	"fmt"
	"os"
	"strings"
)

var stderrWriter = os.Stderr

var licenseName = map[License]string{
	License_MIT:                  "MIT License",
	License_GNU_GPL_v3:           "GNU GENERAL PUBLIC LICENSE, Version 3",
	License_GNU_Affero_GPL_v3:    "GNU AFFERO GENERAL PUBLIC LICENSE, Version 3",
	License_GNU_Lesser_GPL_v3:    "GNU LESSER GENERAL PUBLIC LICENSE, Version 3",
	License_Mozilla_PL_v2:        "Mozilla Public License 2.0",
	License_Apache_v2:            "Apache License, Version 2.0",
	License_Unlicense:            "Free and unencumbered software",
	License_Creative_Common_Zero_v1:                        "Creative Commons CC0 1.0 Universal",
	License_Creative_Common_Attribution_v4_int:             "Creative Commons Attribution 4.0 International",
	License_Creative_Common_Attribution_Share_Alike_v4_int: "Creative Commons Attribution-ShareAlike 4.0 International",
	License_SIL_Open_Font_1_1:    "SIL Open Font License 1.1",
}

var licenseLegal = map[License]string{
	License_MIT: `MIT License

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files, to deal in the Software
without restriction, including without limitation the rights to use, copy,
modify, merge, publish, distribute, sublicense, and/or sell copies of the
Software.`,
	License_GNU_GPL_v3: `GNU GENERAL PUBLIC LICENSE
Version 3

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.`,
	License_GNU_Affero_GPL_v3: `GNU AFFERO GENERAL PUBLIC LICENSE
Version 3

The GNU Affero General Public License is a free, copyleft license for
software, with the added requirement that network use counts as
distribution.`,
	License_GNU_Lesser_GPL_v3: `GNU LESSER GENERAL PUBLIC LICENSE
Version 3

This library is free software; you can redistribute it and/or modify
it under the terms of the GNU Lesser General Public License.`,
	License_Mozilla_PL_v2: `Mozilla Public License 2.0

This Source Code Form is subject to the terms of the Mozilla Public
License, v. 2.0.`,
	License_Apache_v2: `Apache License
Version 2.0

Licensed under the Apache License, Version 2.0 (the "License"); you
may not use this file except in compliance with the License.`,
	License_Unlicense: `This is free and unencumbered software released into the public domain.`,
	License_Creative_Common_Zero_v1:                        `Creative Commons CC0 1.0 Universal: no rights reserved.`,
	License_Creative_Common_Attribution_v4_int:             `Creative Commons Attribution 4.0 International: you are free to share and adapt, with attribution.`,
	License_Creative_Common_Attribution_Share_Alike_v4_int: `Creative Commons Attribution-ShareAlike 4.0 International: share and adapt with attribution, under the same license.`,
	License_SIL_Open_Font_1_1:    `SIL Open Font License, Version 1.1: the Font Software may be used, studied, modified and redistributed freely.`,
}

const licenseSeparator = "********************************************************************************"

func (v *vers) GetLicenseName() string {
	return licenseName[v.lic]
}

// GetLicenseLegal returns the full legal text of the receiver's
// license, followed by the text of each additional license in add,
// each pair separated by an 80-char "*" rule (two rules bracket every
// appended license).
func (v *vers) GetLicenseLegal(add ...License) string {
	out := []string{licenseLegal[v.lic]}
	for _, l := range add {
		out = append(out, licenseSeparator, licenseLegal[l], licenseSeparator)
	}
	return strings.Join(out, "\n")
}

// GetLicenseBoiler wraps GetLicenseLegal with the package identity
// (name, release, author) a distributed binary's `license` command
// prints ahead of the legal text.
func (v *vers) GetLicenseBoiler(add ...License) string {
	return fmt.Sprintf("%s\n%s\n%s\n\n%s", v.pkg, v.release, v.GetAuthor(), v.GetLicenseLegal(add...))
}
