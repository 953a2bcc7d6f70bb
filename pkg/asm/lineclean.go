package asm

import "strings"

// CleanLine strips a raw assembly source line down to the part that
// actually carries meaning: any "//" comment (through end of line) is
// dropped, then every whitespace character is removed, since the Hack
// assembly grammar never depends on spacing. The second return value is
// false when nothing of substance remains and the line should be skipped
// entirely (blank lines, comment-only lines).
func CleanLine(raw string) (string, bool) {
	if idx := strings.Index(raw, "//"); idx >= 0 {
		raw = raw[:idx]
	}

	var b strings.Builder
	for _, r := range raw {
		if !isSpace(r) {
			b.WriteRune(r)
		}
	}

	cleaned := b.String()
	return cleaned, cleaned != ""
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\r', '\n', '\v', '\f':
		return true
	default:
		return false
	}
}
