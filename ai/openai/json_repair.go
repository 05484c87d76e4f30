// Copyright 2025 Poiesic Systems
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


package openai

// repairJSON patches the damage models most often inflict on JSON output:
// an object key missing its opening quote, e.g. `{ tags": [...]}`.
// Valid input passes through unchanged.
func repairJSON(s string) string {
	src := []rune(s)
	out := make([]rune, 0, len(src)+100)

	i := 0
	for i < len(src) {
		ch := src[i]

		// A key can only start after { or ,
		if ch == '{' || ch == ',' {
			out = append(out, ch)
			i++

			for i < len(src) && (src[i] == ' ' || src[i] == '\n' || src[i] == '\t') {
				out = append(out, src[i])
				i++
			}

			// A bare letter here is a candidate unquoted key.
			if i < len(src) && src[i] != '"' && isLetter(src[i]) {
				start := i
				for i < len(src) && (isLetter(src[i]) || src[i] == '_' || src[i] == ' ') {
					i++
				}
				end := i

				if i+1 < len(src) && src[i] == '"' && src[i+1] == ':' {
					// The closing quote and colon are present, so only the
					// opening quote is missing. Insert it and drop any
					// space the scan picked up at the key's edge.
					out = append(out, '"')
					for j := start; j < end; j++ {
						if src[j] != ' ' || (j > start && j < end-1) {
							out = append(out, src[j])
						}
					}
					continue
				}

				// False alarm; emit the scanned run untouched.
				for j := start; j < i; j++ {
					out = append(out, src[j])
				}
			}
		} else {
			out = append(out, ch)
			i++
		}
	}

	return string(out)
}
