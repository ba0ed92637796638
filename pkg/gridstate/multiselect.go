package gridstate

import (
	"sort"
	"strconv"
	"time"

	"github.com/vanderheijden86/propdeck/pkg/debug"
	"github.com/vanderheijden86/propdeck/pkg/grid"
	"github.com/vanderheijden86/propdeck/pkg/metrics"
	"github.com/vanderheijden86/propdeck/pkg/model"
	"github.com/vanderheijden86/propdeck/pkg/sched"
)

// Defaults for the multi-select controller's timing knobs.
const (
	DefaultCommitWindow      = 150 * time.Millisecond
	DefaultActivationRetries = 5
	DefaultActivationDelay   = 200 * time.Millisecond
)

// MultiSelectState is the controller lifecycle:
// Uninitialized -> Loaded -> (Open <-> Closed). Loaded is entered at most
// once; later activity mutates the selection but never re-derives the
// candidate set.
type MultiSelectState int

const (
	MultiSelectUninitialized MultiSelectState = iota
	MultiSelectLoaded
	MultiSelectOpen
)

// MultiSelectOption configures a MultiSelectFilterController.
type MultiSelectOption func(*MultiSelectFilterController)

// WithCommitWindow overrides the commit debounce window.
func WithCommitWindow(d time.Duration) MultiSelectOption {
	return func(c *MultiSelectFilterController) { c.commitWindow = d }
}

// WithNumericValues sorts the candidate set numerically instead of
// lexicographically. Use for line/odds columns.
func WithNumericValues() MultiSelectOption {
	return func(c *MultiSelectFilterController) { c.numeric = true }
}

// WithActivationRetry overrides the grid-not-ready retry bound and delay.
func WithActivationRetry(max int, delay time.Duration) MultiSelectOption {
	return func(c *MultiSelectFilterController) {
		c.activationMax = max
		c.activationDelay = delay
	}
}

// MultiSelectFilterController backs one column's checkbox-dropdown header
// filter. It owns the candidate and selection sets independently of the
// grid's own filter representation, and re-syncs from it when the filter
// value changes under it.
type MultiSelectFilterController struct {
	loop   sched.Loop
	table  grid.Table
	column string

	state      MultiSelectState
	candidates []string
	selected   map[string]bool

	commit          *sched.Debouncer
	commitWindow    time.Duration
	activation      *sched.Retry
	activationMax   int
	activationDelay time.Duration
	numeric         bool

	// lastPushed remembers the value most recently handed to the grid so an
	// unchanged commit and our own echo are both recognized and skipped.
	lastPushed []string
	pushedOnce bool
	activated  bool
}

// NewMultiSelectFilterController builds the controller and registers its
// predicate and external-sync handler with the table. The candidate set is
// not derived until Activate.
func NewMultiSelectFilterController(loop sched.Loop, table grid.Table, column string, opts ...MultiSelectOption) *MultiSelectFilterController {
	c := &MultiSelectFilterController{
		loop:            loop,
		table:           table,
		column:          column,
		selected:        make(map[string]bool),
		commitWindow:    DefaultCommitWindow,
		activationMax:   DefaultActivationRetries,
		activationDelay: DefaultActivationDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.commit = sched.NewDebouncer(loop, c.commitWindow)

	table.SetHeaderFilter(column, MultiSelectPredicate)
	table.On(grid.EventFilterValueChanged, func(info grid.EventInfo) {
		if info.Column == c.column && info.Origin != c {
			c.syncFromGrid()
		}
	})
	return c
}

// MultiSelectPredicate is the header-filter predicate for multi-select
// columns. A nil filter value matches every row (the "no active filter"
// representation); a []string matches rows whose column value is in the set.
func MultiSelectPredicate(filterValue any, rowValue string, _ *model.Record) bool {
	sel, ok := filterValue.([]string)
	if !ok {
		return true
	}
	for _, v := range sel {
		if v == rowValue {
			return true
		}
	}
	return false
}

// State returns the controller state.
func (c *MultiSelectFilterController) State() MultiSelectState { return c.state }

// Column returns the column this controller filters.
func (c *MultiSelectFilterController) Column() string { return c.column }

// Activate derives the candidate set on first use. When the grid has no
// loaded records yet, it retries on a fixed delay up to the bound, then
// gives up silently: the controller stays Uninitialized and the column stays
// unfiltered.
func (c *MultiSelectFilterController) Activate() {
	if c.activated {
		if c.state != MultiSelectUninitialized {
			c.state = MultiSelectOpen
		}
		return
	}
	c.activated = true
	c.activation = sched.NewRetry(c.loop, c.activationMax, c.activationDelay,
		c.tryLoad,
		func() {
			debug.Log("multiselect %s: no grid data after %d attempts, staying unfiltered", c.column, c.activationMax)
			c.activated = false
		})
	c.activation.Start()
}

// tryLoad derives the candidate set; returns false while the grid is empty.
func (c *MultiSelectFilterController) tryLoad() bool {
	if len(c.table.Records()) == 0 {
		return false
	}
	c.deriveCandidates()
	c.state = MultiSelectOpen
	return true
}

// deriveCandidates computes the distinct stringified values of the column
// across all loaded records. Runs exactly once per controller instance.
func (c *MultiSelectFilterController) deriveCandidates() {
	seen := make(map[string]bool)
	var values []string
	for _, v := range c.table.ColumnValues(c.column) {
		if seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	if c.numeric {
		sort.Slice(values, func(i, j int) bool {
			a, errA := strconv.ParseFloat(values[i], 64)
			b, errB := strconv.ParseFloat(values[j], 64)
			if errA != nil || errB != nil {
				return values[i] < values[j]
			}
			return a < b
		})
	} else {
		sort.Strings(values)
	}
	c.candidates = values
	// Everything selected: the initial state represents "no filter".
	c.selected = make(map[string]bool, len(values))
	for _, v := range values {
		c.selected[v] = true
	}
	c.state = MultiSelectLoaded
}

// Close collapses the dropdown.
func (c *MultiSelectFilterController) Close() {
	if c.state == MultiSelectOpen {
		c.state = MultiSelectLoaded
	}
}

// Candidates returns the ordered candidate set.
func (c *MultiSelectFilterController) Candidates() []string {
	return append([]string(nil), c.candidates...)
}

// Selected returns the selected values in candidate order.
func (c *MultiSelectFilterController) Selected() []string {
	var out []string
	for _, v := range c.candidates {
		if c.selected[v] {
			out = append(out, v)
		}
	}
	return out
}

// IsSelected reports membership of v in the selection.
func (c *MultiSelectFilterController) IsSelected(v string) bool { return c.selected[v] }

// AllSelected reports whether the full candidate set is selected.
func (c *MultiSelectFilterController) AllSelected() bool {
	return len(c.candidates) > 0 && len(c.Selected()) == len(c.candidates)
}

// ToggleValue flips membership of v. Values outside the candidate set are
// ignored so the selection stays a subset of the candidates.
func (c *MultiSelectFilterController) ToggleValue(v string) {
	if c.state == MultiSelectUninitialized {
		return
	}
	known := false
	for _, cand := range c.candidates {
		if cand == v {
			known = true
			break
		}
	}
	if !known {
		return
	}
	if c.selected[v] {
		delete(c.selected, v)
	} else {
		c.selected[v] = true
	}
}

// ToggleAll selects the full candidate set unless it already is full, in
// which case it clears the selection.
func (c *MultiSelectFilterController) ToggleAll() {
	if c.state == MultiSelectUninitialized {
		return
	}
	if c.AllSelected() {
		c.selected = make(map[string]bool)
		return
	}
	for _, v := range c.candidates {
		c.selected[v] = true
	}
}

// Label summarizes the selection for the header widget.
func (c *MultiSelectFilterController) Label() string {
	switch {
	case c.state == MultiSelectUninitialized:
		return "…"
	case c.AllSelected():
		return "All"
	case len(c.Selected()) == 0:
		return "None"
	default:
		return strconv.Itoa(len(c.Selected())) + " of " + strconv.Itoa(len(c.candidates))
	}
}

// Reset reselects every candidate and immediately pushes the unfiltered
// representation, dropping any pending debounced commit.
func (c *MultiSelectFilterController) Reset() {
	if c.state == MultiSelectUninitialized {
		return
	}
	for _, v := range c.candidates {
		c.selected[v] = true
	}
	c.commit.Cancel()
	c.push()
}

// Commit schedules a debounced push of the current selection into the grid.
// A commit issued while one is pending supersedes it.
func (c *MultiSelectFilterController) Commit() {
	if c.state == MultiSelectUninitialized {
		return
	}
	c.commit.Trigger(c.push)
}

// push derives the filter value and hands it to the grid. A full selection
// is pushed as nil, the grid's "unfiltered" representation, never as an
// explicit full set. An unchanged value is not re-pushed.
func (c *MultiSelectFilterController) push() {
	defer metrics.Timer(metrics.FilterCommit)()
	var value []string
	if !c.AllSelected() {
		value = c.Selected()
		if value == nil {
			value = []string{}
		}
	}
	if c.pushedOnce && stringSetsEqual(c.lastPushed, value) && (value == nil) == (c.lastPushed == nil) {
		return
	}
	c.lastPushed = value
	c.pushedOnce = true
	if value == nil {
		c.table.SetHeaderFilterValue(c.column, nil, c)
		return
	}
	c.table.SetHeaderFilterValue(c.column, value, c)
}

// syncFromGrid adopts an externally written filter value when it differs
// from the selection as a set. It never triggers Commit; adopting must not
// feed back into another push. The adopted value becomes the last-pushed
// value: the grid already holds it, and a later commit must compare against
// the grid's state, not against a push the external write replaced.
func (c *MultiSelectFilterController) syncFromGrid() {
	if c.state == MultiSelectUninitialized {
		return
	}
	raw := c.table.HeaderFilterValue(c.column)
	var external []string
	switch v := raw.(type) {
	case nil:
		external = c.candidates // unfiltered reads back as the full set
		c.lastPushed = nil
	case []string:
		external = v
		c.lastPushed = append([]string(nil), v...)
	default:
		return
	}
	c.pushedOnce = true
	extSet := make(map[string]bool, len(external))
	for _, v := range external {
		extSet[v] = true
	}
	same := true
	for _, cand := range c.candidates {
		if extSet[cand] != c.selected[cand] {
			same = false
			break
		}
	}
	if same {
		return
	}
	c.selected = make(map[string]bool, len(external))
	for _, cand := range c.candidates {
		if extSet[cand] {
			c.selected[cand] = true
		}
	}
	debug.Log("multiselect %s: adopted external filter value (%d selected)", c.column, len(c.selected))
}

func stringSetsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, v := range a {
		set[v] = true
	}
	for _, v := range b {
		if !set[v] {
			return false
		}
	}
	return true
}
