package filter

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize folds full-width characters (NFKC), lowercases and collapses whitespace,
// so "ＡＢＣ  科技" and "abc 科技" compare equal.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
