package layout

import (
	"strings"
	"testing"

	"github.com/vanderheijden86/propdeck/pkg/model"
)

func lineRecords(lines ...string) []*model.Record {
	recs := make([]*model.Record, len(lines))
	for i, line := range lines {
		recs[i] = &model.Record{Line: line}
	}
	return recs
}

func TestColumnWidthsIgnoresOutliers(t *testing.T) {
	lines := make([]string, 100)
	for i := range lines {
		lines[i] = "20.5"
	}
	lines[50] = strings.Repeat("x", 200)

	w := ColumnWidths([]string{model.ColLine}, lineRecords(lines...))
	if got := w[model.ColLine]; got > 8 {
		t.Fatalf("one outlier cell widened the column to %d", got)
	}

	// With the quantile pushed to the max, the clamp still holds.
	w = ColumnWidths([]string{model.ColLine}, lineRecords(lines...), WithQuantile(1))
	if got := w[model.ColLine]; got != DefaultMaxWidth {
		t.Fatalf("width = %d, want clamp at %d", got, DefaultMaxWidth)
	}
}

func TestColumnWidthsCoversHeader(t *testing.T) {
	w := ColumnWidths([]string{model.ColOpponent}, lineRecords("1", "2"))
	if got := w[model.ColOpponent]; got < len(model.ColOpponent) {
		t.Fatalf("width %d narrower than header %q", got, model.ColOpponent)
	}
}

func TestColumnWidthsEmptyRecords(t *testing.T) {
	w := ColumnWidths([]string{model.ColTeam}, nil)
	if got := w[model.ColTeam]; got < DefaultMinWidth {
		t.Fatalf("width = %d, want at least %d", got, DefaultMinWidth)
	}
}

func TestColumnWidthsWideRunes(t *testing.T) {
	recs := []*model.Record{{Team: "東京ヤクルト"}}
	w := ColumnWidths([]string{model.ColTeam}, recs)
	// Six double-width runes.
	if got := w[model.ColTeam]; got < 12 {
		t.Fatalf("width = %d, want >= 12 for double-width runes", got)
	}
}

func TestFitShrinksWidestFirst(t *testing.T) {
	columns := []string{"a", "b", "c"}
	widths := map[string]int{"a": 30, "b": 10, "c": 10}

	Fit(columns, widths, 40)

	sum := widths["a"] + widths["b"] + widths["c"] + 2*ColumnGap
	if sum > 40 {
		t.Fatalf("row still %d cells wide", sum)
	}
	if widths["b"] != 10 || widths["c"] != 10 {
		t.Fatalf("narrow columns shrank first: %v", widths)
	}
}

func TestFitRespectsMinimum(t *testing.T) {
	columns := []string{"a", "b"}
	widths := map[string]int{"a": 6, "b": 6}

	Fit(columns, widths, 4) // impossible target
	if widths["a"] < DefaultMinWidth || widths["b"] < DefaultMinWidth {
		t.Fatalf("columns below minimum: %v", widths)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly-10", 10, "exactly-10"},
		{"truncate me please", 8, "truncat…"},
		{"anything", 0, ""},
		{"abc", 1, "…"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestPad(t *testing.T) {
	if got := Pad("ab", 5); got != "ab   " {
		t.Fatalf("Pad = %q", got)
	}
	if got := Pad("toolong", 4); got != "too…" {
		t.Fatalf("Pad = %q", got)
	}
}
