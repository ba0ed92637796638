package gridstate

import (
	"strconv"
	"strings"
	"time"

	"github.com/vanderheijden86/propdeck/pkg/grid"
	"github.com/vanderheijden86/propdeck/pkg/model"
	"github.com/vanderheijden86/propdeck/pkg/sched"
)

// DefaultRangeCommitWindow is the debounce window between the last keystroke
// in a bound field and the filter commit.
const DefaultRangeCommitWindow = 300 * time.Millisecond

// Range is the filter value a range controller pushes into the grid. A nil
// bound is unconstrained on that side.
type Range struct {
	Min *float64
	Max *float64
}

// RangePredicate is the header-filter predicate for numeric range columns.
// Rows whose value cannot be parsed pass regardless of bounds: an unparsable
// value must not hide data.
func RangePredicate(filterValue any, rowValue string, _ *model.Record) bool {
	r, ok := filterValue.(Range)
	if !ok {
		return true
	}
	if r.Min == nil && r.Max == nil {
		return true
	}
	v, ok := ParseNumericToken(rowValue)
	if !ok {
		return true
	}
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

// RangeOption configures a RangeFilterController.
type RangeOption func(*RangeFilterController)

// WithRangeCommitWindow overrides the keystroke debounce window.
func WithRangeCommitWindow(d time.Duration) RangeOption {
	return func(c *RangeFilterController) { c.window = d }
}

// RangeFilterController backs one column's min/max header filter. Keystrokes
// land in text buffers; a debounced commit parses them and pushes a Range
// into the grid.
type RangeFilterController struct {
	loop   sched.Loop
	table  grid.Table
	column string

	minInput string
	maxInput string
	min      *float64
	max      *float64

	commit *sched.Debouncer
	window time.Duration
}

// NewRangeFilterController builds the controller and registers its predicate
// and external-sync handler with the table.
func NewRangeFilterController(loop sched.Loop, table grid.Table, column string, opts ...RangeOption) *RangeFilterController {
	c := &RangeFilterController{
		loop:   loop,
		table:  table,
		column: column,
		window: DefaultRangeCommitWindow,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.commit = sched.NewDebouncer(loop, c.window)
	table.SetHeaderFilter(column, RangePredicate)
	table.On(grid.EventFilterValueChanged, func(info grid.EventInfo) {
		if info.Column == c.column && info.Origin != c {
			c.syncFromGrid()
		}
	})
	return c
}

// Column returns the filtered column.
func (c *RangeFilterController) Column() string { return c.column }

// Bounds returns the committed bounds.
func (c *RangeFilterController) Bounds() (min, max *float64) { return c.min, c.max }

// SetMinInput records a keystroke in the min field and schedules a commit.
func (c *RangeFilterController) SetMinInput(text string) {
	c.minInput = text
	c.commit.Trigger(c.push)
}

// SetMaxInput records a keystroke in the max field and schedules a commit.
func (c *RangeFilterController) SetMaxInput(text string) {
	c.maxInput = text
	c.commit.Trigger(c.push)
}

// Cancel clears both bounds and aborts editing without committing.
func (c *RangeFilterController) Cancel() {
	c.commit.Cancel()
	c.minInput, c.maxInput = "", ""
	c.min, c.max = nil, nil
}

// Clear resets the bounds and pushes the unfiltered representation.
func (c *RangeFilterController) Clear() {
	c.Cancel()
	c.table.SetHeaderFilterValue(c.column, nil, c)
}

// push parses the buffers and hands the grid a Range. Both bounds empty is
// pushed as nil, the grid's "no filter" representation.
func (c *RangeFilterController) push() {
	c.min = parseBound(c.minInput)
	c.max = parseBound(c.maxInput)
	if c.min == nil && c.max == nil {
		c.table.SetHeaderFilterValue(c.column, nil, c)
		return
	}
	c.table.SetHeaderFilterValue(c.column, Range{Min: c.min, Max: c.max}, c)
}

// syncFromGrid adopts an externally written filter value so the bounds and
// edit buffers match what the grid actually holds. A pending commit from the
// stale buffers is dropped; adopting never echoes a push.
func (c *RangeFilterController) syncFromGrid() {
	switch v := c.table.HeaderFilterValue(c.column).(type) {
	case nil:
		c.commit.Cancel()
		c.minInput, c.maxInput = "", ""
		c.min, c.max = nil, nil
	case Range:
		c.commit.Cancel()
		c.min, c.max = v.Min, v.Max
		c.minInput = formatBound(v.Min)
		c.maxInput = formatBound(v.Max)
	}
}

// parseBound interprets one bound field. Unparsable input leaves the side
// unconstrained rather than producing a surprise filter.
func parseBound(text string) *float64 {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimPrefix(s, "+"), 64)
	if err != nil {
		return nil
	}
	return &v
}

func formatBound(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
