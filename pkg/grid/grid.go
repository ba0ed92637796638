// Package grid defines the contract propdeck expects from a virtualized grid
// component, together with an in-process reference implementation used by the
// TUI and the tests.
//
// The grid owns record lifetime and row elements. It may destroy and
// recreate row elements at any mutation (filter, sort, redraw), and it may
// stagger element creation across several render passes. Controllers must
// never assume a live element survives a mutation event.
package grid

import "github.com/vanderheijden86/propdeck/pkg/model"

// Event names the grid lifecycle notifications controllers can subscribe to.
type Event string

const (
	// EventDataLoaded fires after a record set has been loaded.
	EventDataLoaded Event = "dataLoaded"
	// EventDataFiltering fires before the grid removes and re-adds rows for
	// a filter change. Row elements are still intact when it fires.
	EventDataFiltering Event = "dataFiltering"
	// EventDataFiltered fires once the visible row set has been rebuilt.
	EventDataFiltered Event = "dataFiltered"
	// EventDataSorted fires after the visible rows are reordered.
	EventDataSorted Event = "dataSorted"
	// EventRenderComplete fires at the end of each render pass. A single
	// pass is not always sufficient for every visible row to have an
	// element; virtualization may stagger creation across passes.
	EventRenderComplete Event = "renderComplete"
	// EventFilterValueChanged fires when a header filter's stored value
	// changes, whatever the origin. EventInfo.Origin carries the value the
	// writer identified itself with, so a controller can skip its own echo.
	EventFilterValueChanged Event = "filterValueChanged"
)

// EventInfo carries event context to handlers. Column and Origin are only
// set for events scoped to one column.
type EventInfo struct {
	Column string
	Origin any
}

// Predicate is a header-filter function: does the row with value rowValue in
// the filtered column, and full record rec, match filterValue?
type Predicate func(filterValue any, rowValue string, rec *model.Record) bool

// Sorter describes one active sort term.
type Sorter struct {
	Column  string
	Desc    bool
	Numeric bool
}

// Row is one currently visible row. Element returns nil while the row is
// virtualized out or its element has not been created yet in the current
// render cycle.
type Row interface {
	Record() *model.Record
	Element() *Element
	// Reformat asks the grid to re-render this row, recomputing its height
	// from the children present on its element.
	Reformat()
}

// Table is the grid surface the controllers are written against.
type Table interface {
	// Rows returns the currently visible rows in display order.
	Rows() []Row
	// Records returns every loaded record, unfiltered, in load order.
	Records() []*model.Record
	// ColumnValues returns the stringified value of column for every loaded
	// record, in load order.
	ColumnValues(column string) []string

	On(event Event, handler func(EventInfo))

	// SetHeaderFilter installs the predicate backing column's header filter.
	SetHeaderFilter(column string, p Predicate)
	// SetHeaderFilterValue stores column's current filter value and
	// re-filters. origin is echoed in the resulting events.
	SetHeaderFilterValue(column string, value any, origin any)
	// HeaderFilterValue reads column's current filter value (nil when the
	// column is unfiltered).
	HeaderFilterValue(column string) any

	SetSort(sorters []Sorter)
	ActiveSort() []Sorter

	SetData(records []model.Record)
	// Redraw destroys and recreates the visible row elements. With force,
	// it also re-applies filters and sort.
	Redraw(force bool)
}

// Element is the in-process stand-in for a row's DOM node: a small tree of
// classed nodes. Detail blocks are attached as children and located again by
// class marker.
type Element struct {
	Class    string
	Text     string
	Children []*Element
}

// Append attaches child and returns it.
func (e *Element) Append(child *Element) *Element {
	e.Children = append(e.Children, child)
	return child
}

// Remove detaches the first child with the given class.
func (e *Element) Remove(class string) bool {
	for i, c := range e.Children {
		if c.Class == class {
			e.Children = append(e.Children[:i], e.Children[i+1:]...)
			return true
		}
	}
	return false
}

// Find returns the first descendant (depth-first) with the given class, or
// nil.
func (e *Element) Find(class string) *Element {
	for _, c := range e.Children {
		if c.Class == class {
			return c
		}
		if found := c.Find(class); found != nil {
			return found
		}
	}
	return nil
}
