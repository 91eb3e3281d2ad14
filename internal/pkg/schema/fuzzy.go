package schema

import (
	"strings"

	"github.com/xrash/smetrics"
)

// Ratio returns the normalized indel similarity of a and b in [0, 100].
// An indel distance is a Levenshtein distance where a substitution costs 2.
func Ratio(a, b string) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 100
	}
	dist := smetrics.WagnerFischer(a, b, 1, 1, 2)
	return 100 * (1 - float64(dist)/float64(total))
}

// PartialRatio returns the best Ratio between the shorter string and every
// alignment of it against the longer one, including partial overlaps at both
// ends. Inputs are compared as-is; callers lowercase beforehand.
func PartialRatio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	best := partialRatio(a, b)
	if len(a) == len(b) && best < 100 {
		if r := partialRatio(b, a); r > best {
			best = r
		}
	}
	return best
}

// partialRatio requires len(short) <= len(long). Windows whose boundary byte
// does not occur in short are skipped, matching the usual short-needle scan.
func partialRatio(short, long string) float64 {
	n, m := len(short), len(long)
	var best float64
	consider := func(window string) bool {
		if r := Ratio(short, window); r > best {
			best = r
		}
		return best == 100
	}
	in := func(c byte) bool { return strings.IndexByte(short, c) >= 0 }

	for i := 1; i < n; i++ {
		if in(long[i-1]) && consider(long[:i]) {
			return best
		}
	}
	for i := 0; i < m-n; i++ {
		if in(long[i+n-1]) && consider(long[i:i+n]) {
			return best
		}
	}
	for i := m - n; i < m; i++ {
		if in(long[i]) && consider(long[i:]) {
			return best
		}
	}
	return best
}
