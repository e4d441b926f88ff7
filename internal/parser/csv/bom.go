package csv

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const utf8BOM = "\uFEFF"

// StripHeaderBOM removes a UTF-8 BOM from the first header cell if present.
func StripHeaderBOM(headers []string) []string {
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], utf8BOM)
	}
	return headers
}

// headerCleaner composes to NFC and drops control and format runes (zero
// width spaces, stray BOMs) so that visually identical headers compare equal
// across files.
var headerCleaner = transform.Chain(
	norm.NFC,
	runes.Remove(runes.In(unicode.Cc)),
	runes.Remove(runes.In(unicode.Cf)),
)

// normalizeHeaders cleans header names and makes them unique. Case and inner
// spacing are preserved since the key column is matched by exact name. Blank
// headers become "Unnamed: <i>"; repeated names get ".1", ".2", ... appended.
func normalizeHeaders(h []string) []string {
	h = StripHeaderBOM(h)
	out := make([]string, len(h))
	used := make(map[string]bool, len(h))
	for i, raw := range h {
		name, _, err := transform.String(headerCleaner, raw)
		if err != nil {
			name = raw
		}
		name = strings.TrimSpace(name)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		if used[name] {
			for n := 1; ; n++ {
				cand := name + "." + strconv.Itoa(n)
				if !used[cand] {
					name = cand
					break
				}
			}
		}
		used[name] = true
		out[i] = name
	}
	return out
}
