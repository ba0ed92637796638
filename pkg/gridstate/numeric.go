package gridstate

import (
	"strconv"
	"strings"
)

// ParseNumericToken extracts the leading numeric token from the textual
// encodings odds feeds use for nominally numeric cells:
//
//	"19/31"     -> 19     (made/attempted)
//	"21 (25.2)" -> 21     (value with average in parens)
//	"54%"       -> 54     (percentage)
//	"+150"      -> 150    (American odds)
//	"-110"      -> -110
//	"27.5"      -> 27.5
//
// The second return is false when no numeric token is extractable. Callers
// filtering rows must fail open on false: an unparsable value never hides a
// row.
func ParseNumericToken(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	} else if i := strings.IndexByte(s, '('); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimPrefix(s, "+")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
