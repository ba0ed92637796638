package gridstate

import (
	"strconv"
	"testing"

	"pgregory.net/rapid"
)

func TestParseNumericToken(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"19/31", 19, true},
		{"21 (25.2)", 21, true},
		{"54%", 54, true},
		{"+150", 150, true},
		{"-110", -110, true},
		{"27.5", 27.5, true},
		{"0", 0, true},
		{" 12 / 30", 12, true},
		{"8 (40%)", 8, true},
		{"N/A", 0, false},
		{"", 0, false},
		{"   ", 0, false},
		{"DNP", 0, false},
		{"(3)", 0, false},
		{"/5", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseNumericToken(tt.in)
		if ok != tt.ok {
			t.Errorf("ParseNumericToken(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("ParseNumericToken(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseNumericToken_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := rapid.Float64Range(-10_000, 10_000).Draw(t, "v")
		base := strconv.FormatFloat(v, 'f', -1, 64)

		// Every decoration the feeds use must still yield the leading token.
		for _, s := range []string{base, base + "%", base + "/99", base + " (1.5)"} {
			got, ok := ParseNumericToken(s)
			if !ok {
				t.Fatalf("ParseNumericToken(%q) unexpectedly failed", s)
			}
			if got != v {
				t.Fatalf("ParseNumericToken(%q) = %v, want %v", s, got, v)
			}
		}
		if v > 0 {
			got, ok := ParseNumericToken("+" + base)
			if !ok || got != v {
				t.Fatalf("ParseNumericToken(+%q) = %v/%v", base, got, ok)
			}
		}
	})
}
