// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package testutils holds small fixtures shared across this repository's
// package-level tests.
package testutils

import "strings"

// FormatYaml turns a tab-indented raw string literal - the natural shape
// of an inline YAML fixture written at some nesting depth inside Go test
// source - into valid YAML bytes. It strips the common leading-tab
// indentation every line shares, then expands each remaining leading tab
// into two spaces, since YAML forbids literal tabs for indentation.
func FormatYaml(s string) []byte {
	lines := strings.Split(s, "\n")

	minIndent := -1
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		indent := 0
		for indent < len(l) && l[indent] == '\t' {
			indent++
		}
		if minIndent == -1 || indent < minIndent {
			minIndent = indent
		}
	}
	if minIndent < 0 {
		minIndent = 0
	}

	var out []string
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		if len(l) >= minIndent {
			l = l[minIndent:]
		}
		indent := 0
		for indent < len(l) && l[indent] == '\t' {
			indent++
		}
		out = append(out, strings.Repeat("  ", indent)+l[indent:])
	}
	return []byte(strings.Join(out, "\n") + "\n")
}
