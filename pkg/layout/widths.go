// Package layout computes terminal column widths for the odds grid. Widths
// are derived from the visual width of the cell contents, not rune counts,
// so wide characters and player names with diacritics line up.
package layout

import (
	"math"
	"sort"

	"github.com/mattn/go-runewidth"
	"gonum.org/v1/gonum/stat"

	"github.com/vanderheijden86/propdeck/pkg/metrics"
	"github.com/vanderheijden86/propdeck/pkg/model"
)

// Sizing defaults. The quantile keeps one pathological cell (a ten-team
// parlay note, a malformed injury string) from blowing a column out to the
// full terminal width.
const (
	DefaultQuantile = 0.95
	DefaultMinWidth = 4
	DefaultMaxWidth = 32
	ColumnGap       = 2
)

// Option configures a width computation.
type Option func(*sizer)

// WithQuantile overrides the content-width quantile.
func WithQuantile(q float64) Option {
	return func(s *sizer) {
		if q > 0 && q <= 1 {
			s.quantile = q
		}
	}
}

// WithBounds overrides the per-column clamp.
func WithBounds(min, max int) Option {
	return func(s *sizer) {
		if min > 0 {
			s.min = min
		}
		if max >= s.min {
			s.max = max
		}
	}
}

type sizer struct {
	quantile float64
	min      int
	max      int
}

// ColumnWidths returns the display width for each listed column over the
// loaded records. A column is at least as wide as its header, clamped to the
// configured bounds.
func ColumnWidths(columns []string, records []*model.Record, opts ...Option) map[string]int {
	defer metrics.Timer(metrics.WidthCluster)()

	s := &sizer{quantile: DefaultQuantile, min: DefaultMinWidth, max: DefaultMaxWidth}
	for _, opt := range opts {
		opt(s)
	}

	out := make(map[string]int, len(columns))
	for _, column := range columns {
		widths := make([]float64, 0, len(records)+1)
		widths = append(widths, float64(runewidth.StringWidth(column)))
		for _, rec := range records {
			widths = append(widths, float64(runewidth.StringWidth(rec.Field(column))))
		}
		sort.Float64s(widths)
		w := int(math.Ceil(stat.Quantile(s.quantile, stat.Empirical, widths, nil)))
		if w < s.min {
			w = s.min
		}
		if w > s.max {
			w = s.max
		}
		out[column] = w
	}
	return out
}

// Fit shrinks widths in place until the row, including inter-column gaps,
// fits in total cells. The widest columns give up cells first; nothing drops
// below the minimum.
func Fit(columns []string, widths map[string]int, total int) {
	if total <= 0 {
		return
	}
	used := func() int {
		n := 0
		for _, c := range columns {
			n += widths[c]
		}
		if len(columns) > 1 {
			n += ColumnGap * (len(columns) - 1)
		}
		return n
	}
	for used() > total {
		widest := ""
		for _, c := range columns {
			if widths[c] <= DefaultMinWidth {
				continue
			}
			if widest == "" || widths[c] > widths[widest] {
				widest = c
			}
		}
		if widest == "" {
			return
		}
		widths[widest]--
	}
}

// Truncate fits s into width cells, replacing the overflow with an ellipsis.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	ellipsis := "…"
	if runewidth.StringWidth(ellipsis) > width {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width-runewidth.StringWidth(ellipsis), "") + ellipsis
}

// Pad pads s with spaces to exactly width cells, truncating when it is too
// wide.
func Pad(s string, width int) string {
	s = Truncate(s, width)
	for runewidth.StringWidth(s) < width {
		s += " "
	}
	return s
}
