package gridstate

import (
	"testing"
	"time"

	"github.com/vanderheijden86/propdeck/pkg/grid"
	"github.com/vanderheijden86/propdeck/pkg/model"
	"github.com/vanderheijden86/propdeck/pkg/sched"
)

func TestRangePredicateBounds(t *testing.T) {
	min, max := 10.0, 10.0
	eq := Range{Min: &min, Max: &max}

	tests := []struct {
		name  string
		value Range
		row   string
		want  bool
	}{
		{"exact boundary passes", eq, "10", true},
		{"just below min fails", eq, "9.999", false},
		{"just above max fails", eq, "10.001", false},
		{"unparsable passes", eq, "N/A", true},
		{"empty passes", eq, "", true},
		{"fraction notation uses leading token", eq, "10/31", true},
		{"odds sign stripped", eq, "+10", true},
		{"open min side", Range{Max: &max}, "3", true},
		{"open max side", Range{Min: &min}, "250", true},
		{"no bounds passes", Range{}, "7", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RangePredicate(tt.value, tt.row, nil); got != tt.want {
				t.Errorf("RangePredicate(%+v, %q) = %v, want %v", tt.value, tt.row, got, tt.want)
			}
		})
	}

	// Non-Range filter values never hide rows.
	if !RangePredicate("garbage", "5", nil) {
		t.Error("foreign filter value type must pass")
	}
}

func newLineGrid(lines ...string) (*sched.Manual, *grid.MemoryGrid) {
	loop := sched.NewManual()
	g := grid.NewMemoryGrid(loop)
	recs := make([]model.Record, len(lines))
	for i, line := range lines {
		recs[i] = model.Record{Player: "P", Team: "T", Market: "pts", Line: line, Split: string(rune('a' + i))}
	}
	g.SetData(recs)
	loop.FlushFrame()
	return loop, g
}

func TestRangeFilterDebouncedCommit(t *testing.T) {
	loop, g := newLineGrid("5", "15", "25", "bad")
	c := NewRangeFilterController(loop, g, model.ColLine)

	var pushes int
	g.On(grid.EventFilterValueChanged, func(info grid.EventInfo) {
		if info.Origin == c {
			pushes++
		}
	})

	// Typing "1" then "10" is one commit, not two.
	c.SetMinInput("1")
	c.SetMinInput("10")
	if pushes != 0 {
		t.Fatalf("commit fired mid-typing (%d pushes)", pushes)
	}
	loop.Advance(c.commit.Window())
	if pushes != 1 {
		t.Fatalf("pushes = %d, want 1", pushes)
	}

	// 15, 25 and the unparsable row survive min=10.
	if got := len(g.Rows()); got != 3 {
		t.Fatalf("visible rows = %d, want 3", got)
	}
	min, max := c.Bounds()
	if min == nil || *min != 10 || max != nil {
		t.Fatalf("bounds = %v, %v", min, max)
	}
}

func TestRangeFilterMinEqualsMax(t *testing.T) {
	loop, g := newLineGrid("10", "9.999", "10.001", "N/A")
	c := NewRangeFilterController(loop, g, model.ColLine)

	c.SetMinInput("10")
	c.SetMaxInput("10")
	loop.Advance(c.commit.Window())

	rows := g.Rows()
	if len(rows) != 2 {
		t.Fatalf("visible rows = %d, want the exact match plus the unparsable row", len(rows))
	}
	seen := map[string]bool{}
	for _, row := range rows {
		seen[row.Record().Line] = true
	}
	if !seen["10"] || !seen["N/A"] {
		t.Fatalf("wrong rows survived: %v", seen)
	}
}

func TestRangeFilterCancelAbortsWithoutCommit(t *testing.T) {
	loop, g := newLineGrid("5", "15")
	c := NewRangeFilterController(loop, g, model.ColLine)

	var pushes int
	g.On(grid.EventFilterValueChanged, func(info grid.EventInfo) {
		if info.Origin == c {
			pushes++
		}
	})

	c.SetMinInput("10")
	c.Cancel()
	loop.Advance(time.Second)

	if pushes != 0 {
		t.Fatalf("cancelled edit still committed (%d pushes)", pushes)
	}
	if got := len(g.Rows()); got != 2 {
		t.Fatalf("visible rows = %d, want 2", got)
	}
	if min, max := c.Bounds(); min != nil || max != nil {
		t.Fatalf("bounds after Cancel = %v, %v", min, max)
	}
}

func TestRangeFilterClearPushesUnfiltered(t *testing.T) {
	loop, g := newLineGrid("5", "15", "25")
	c := NewRangeFilterController(loop, g, model.ColLine)

	c.SetMinInput("20")
	loop.Advance(c.commit.Window())
	if got := len(g.Rows()); got != 1 {
		t.Fatalf("visible rows after min=20: %d", got)
	}

	c.Clear()
	if got := g.HeaderFilterValue(model.ColLine); got != nil {
		t.Fatalf("filter value after Clear = %#v, want nil", got)
	}
	if got := len(g.Rows()); got != 3 {
		t.Fatalf("visible rows after Clear = %d, want 3", got)
	}
}

func TestRangeFilterUnparsableBoundLeftOpen(t *testing.T) {
	loop, g := newLineGrid("5", "15", "25")
	c := NewRangeFilterController(loop, g, model.ColLine)

	c.SetMinInput("abc")
	c.SetMaxInput("20")
	loop.Advance(c.commit.Window())

	min, max := c.Bounds()
	if min != nil {
		t.Fatalf("unparsable min became %v", *min)
	}
	if max == nil || *max != 20 {
		t.Fatalf("max = %v, want 20", max)
	}
	if got := len(g.Rows()); got != 2 {
		t.Fatalf("visible rows = %d, want 2", got)
	}
}
