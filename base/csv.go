// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package base

import (
	"bufio"
	"strings"
)

const utf8BOM = "\ufeff"

// Escape text for csv.
func Escape(text string) string {
	if !strings.ContainsAny(text, ",\"\r\n") {
		return text
	}
	return `"` + strings.ReplaceAll(text, `"`, `""`) + `"`
}

// JoinFields escapes fields and joins them into one csv line (without line break).
func JoinFields(fields ...string) string {
	escaped := make([]string, len(fields))
	for i, field := range fields {
		escaped[i] = Escape(field)
	}
	return strings.Join(escaped, ",")
}

// ReadLines parse fields of each line for csv file. A quoted field may span several
// lines. Parsing stops when handler returns false.
func ReadLines(sc *bufio.Scanner, sep rune, handler func(int, []string) bool) error {
	var (
		lineCount = 0
		fields    []string
		builder   strings.Builder
		quoted    bool
	)
	for sc.Scan() {
		line := []rune(sc.Text())
		if lineCount == 0 && len(fields) == 0 {
			line = []rune(strings.TrimPrefix(string(line), utf8BOM))
		}
		if quoted {
			builder.WriteString("\r\n")
		}
		for i := 0; i < len(line); i++ {
			switch {
			case line[i] == sep && !quoted:
				fields = append(fields, builder.String())
				builder.Reset()
			case line[i] == '"' && quoted:
				if i+1 < len(line) && line[i+1] == '"' {
					builder.WriteRune('"')
					i++
				} else {
					quoted = false
				}
			case line[i] == '"':
				quoted = true
			default:
				builder.WriteRune(line[i])
			}
		}
		if !quoted {
			fields = append(fields, builder.String())
			builder.Reset()
			if !handler(lineCount, fields) {
				return nil
			}
			fields = nil
		}
		lineCount++
	}
	return sc.Err()
}
