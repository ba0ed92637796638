package gridstate

import (
	"context"
	"fmt"

	"github.com/vanderheijden86/propdeck/pkg/cache"
	"github.com/vanderheijden86/propdeck/pkg/debug"
	"github.com/vanderheijden86/propdeck/pkg/grid"
	"github.com/vanderheijden86/propdeck/pkg/sched"
)

// RecordLoader loads the table's record set; force bypasses caches. It may
// block and is always invoked off the loop.
type RecordLoader func(ctx context.Context, force bool) (cache.FetchResult, error)

// TableState is a filter+sort snapshot that survives full table
// re-creation.
type TableState struct {
	Filters map[string]any
	Sort    []grid.Sorter
}

// TableController is the page-facing surface for one table: it owns the
// filter controllers, the expansion machinery and the load path, and exposes
// the lifecycle operations a page controller drives.
type TableController struct {
	loop   sched.Loop
	table  grid.Table
	loader RecordLoader

	multi  map[string]*MultiSelectFilterController
	ranges map[string]*RangeFilterController
	expand *RowExpansionController
	coord  *GridLifecycleCoordinator

	// lastResult carries the completeness of the most recent load so the UI
	// can warn about a possibly partial record set.
	lastResult cache.FetchResult
}

// NewTableController assembles the controller stack for one table. The
// expansion store is injected so several tables can share one page-global
// registry under distinct scope keys. Coordinator options are forwarded to
// the lifecycle coordinator it owns.
func NewTableController(loop sched.Loop, table grid.Table, store *ExpansionStateStore, scope string, render DetailRenderer, loader RecordLoader, opts ...CoordinatorOption) *TableController {
	expand := NewRowExpansionController(loop, store, scope, render)
	return &TableController{
		loop:   loop,
		table:  table,
		loader: loader,
		multi:  make(map[string]*MultiSelectFilterController),
		ranges: make(map[string]*RangeFilterController),
		expand: expand,
		coord:  NewGridLifecycleCoordinator(loop, table, store, expand, opts...),
	}
}

// AddMultiSelect registers a multi-select filter on column.
func (t *TableController) AddMultiSelect(column string, opts ...MultiSelectOption) *MultiSelectFilterController {
	c := NewMultiSelectFilterController(t.loop, t.table, column, opts...)
	t.multi[column] = c
	return c
}

// AddRange registers a range filter on column.
func (t *TableController) AddRange(column string, opts ...RangeOption) *RangeFilterController {
	c := NewRangeFilterController(t.loop, t.table, column, opts...)
	t.ranges[column] = c
	return c
}

// MultiSelect returns the controller for column, nil when none registered.
func (t *TableController) MultiSelect(column string) *MultiSelectFilterController {
	return t.multi[column]
}

// Range returns the controller for column, nil when none registered.
func (t *TableController) Range(column string) *RangeFilterController {
	return t.ranges[column]
}

// Expansion returns the row-expansion controller.
func (t *TableController) Expansion() *RowExpansionController { return t.expand }

// Coordinator returns the lifecycle coordinator.
func (t *TableController) Coordinator() *GridLifecycleCoordinator { return t.coord }

// LastLoadComplete reports whether the most recent load returned the full
// record set.
func (t *TableController) LastLoadComplete() bool { return t.lastResult.Complete }

// Initialize performs the first load and activates the filter controllers.
// Call it off the loop; the grid mutation itself is posted onto it.
func (t *TableController) Initialize(ctx context.Context) error {
	return t.load(ctx, false)
}

// RefreshData invalidates cached data and re-fetches.
func (t *TableController) RefreshData(ctx context.Context) error {
	return t.load(ctx, true)
}

func (t *TableController) load(ctx context.Context, force bool) error {
	res, err := t.loader(ctx, force)
	if err != nil {
		return fmt.Errorf("loading records: %w", err)
	}
	debug.LogIf(!res.Complete, "table load: record set may be incomplete (%d records)", len(res.Records))
	t.loop.Post(func() {
		t.lastResult = res
		t.table.SetData(res.Records)
		for _, c := range t.multi {
			c.Activate()
		}
	})
	return nil
}

// ClearFilters resets every registered filter to its unfiltered state.
func (t *TableController) ClearFilters() {
	for _, c := range t.multi {
		c.Reset()
	}
	for _, c := range t.ranges {
		c.Clear()
	}
}

// SaveState captures the active filter values and sort terms for restore
// across a full table re-creation.
func (t *TableController) SaveState() TableState {
	st := TableState{Filters: make(map[string]any), Sort: t.table.ActiveSort()}
	for column := range t.multi {
		if v := t.table.HeaderFilterValue(column); v != nil {
			st.Filters[column] = v
		}
	}
	for column := range t.ranges {
		if v := t.table.HeaderFilterValue(column); v != nil {
			st.Filters[column] = v
		}
	}
	return st
}

// RestoreState pushes a saved snapshot back into the grid. Values are
// written with no origin so the owning controllers adopt them through their
// external-sync path.
func (t *TableController) RestoreState(st TableState) {
	for column, value := range st.Filters {
		t.table.SetHeaderFilterValue(column, value, nil)
	}
	if len(st.Sort) > 0 {
		t.table.SetSort(st.Sort)
	}
}

// Redraw forwards to the grid.
func (t *TableController) Redraw(force bool) {
	t.table.Redraw(force)
}
