package grid

import (
	"sort"
	"strconv"

	"github.com/vanderheijden86/propdeck/pkg/model"
	"github.com/vanderheijden86/propdeck/pkg/sched"
)

// RowClass is the element class of a row's root node.
const RowClass = "row"

// MemoryGridOption configures a MemoryGrid.
type MemoryGridOption func(*MemoryGrid)

// WithRenderChunk bounds how many row elements one render pass creates.
// Smaller chunks mean more render-complete events per rebuild, which is what
// a virtualized grid does under load.
func WithRenderChunk(n int) MemoryGridOption {
	return func(g *MemoryGrid) {
		if n > 0 {
			g.renderChunk = n
		}
	}
}

// WithViewport bounds how many rows are visible at once.
func WithViewport(n int) MemoryGridOption {
	return func(g *MemoryGrid) {
		if n > 0 {
			g.viewport = n
		}
	}
}

// MemoryGrid is the reference Table implementation: an in-process virtualized
// grid that behaves like the external component the controllers were written
// for. Filter and sort changes destroy every visible row element; fresh
// elements are created across staggered render passes on the loop's frame
// queue.
//
// All methods must be called from loop callbacks.
type MemoryGrid struct {
	loop sched.Loop

	records []model.Record
	visible []*memRow
	scroll  int

	filters  map[string]*columnFilter
	sorters  []Sorter
	handlers map[Event][]func(EventInfo)

	viewport    int
	renderChunk int
	renderGen   int
}

type columnFilter struct {
	pred  Predicate
	value any
}

// NewMemoryGrid builds an empty grid scheduling its render passes on loop.
func NewMemoryGrid(loop sched.Loop, opts ...MemoryGridOption) *MemoryGrid {
	g := &MemoryGrid{
		loop:        loop,
		filters:     make(map[string]*columnFilter),
		handlers:    make(map[Event][]func(EventInfo)),
		viewport:    50,
		renderChunk: 50,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// On subscribes handler to event.
func (g *MemoryGrid) On(event Event, handler func(EventInfo)) {
	g.handlers[event] = append(g.handlers[event], handler)
}

func (g *MemoryGrid) emit(event Event, info EventInfo) {
	for _, h := range g.handlers[event] {
		h(info)
	}
}

// SetData replaces the loaded record set.
func (g *MemoryGrid) SetData(records []model.Record) {
	g.records = records
	g.rebuild()
	g.emit(EventDataLoaded, EventInfo{})
	g.scheduleRender()
}

// Records returns every loaded record.
func (g *MemoryGrid) Records() []*model.Record {
	out := make([]*model.Record, len(g.records))
	for i := range g.records {
		out[i] = &g.records[i]
	}
	return out
}

// ColumnValues returns column's stringified value per loaded record.
func (g *MemoryGrid) ColumnValues(column string) []string {
	out := make([]string, len(g.records))
	for i := range g.records {
		out[i] = g.records[i].Field(column)
	}
	return out
}

// Rows returns the visible rows in display order.
func (g *MemoryGrid) Rows() []Row {
	out := make([]Row, len(g.visible))
	for i, r := range g.visible {
		out[i] = r
	}
	return out
}

// SetHeaderFilter installs column's predicate without re-filtering; the
// filter only takes effect once a value is set.
func (g *MemoryGrid) SetHeaderFilter(column string, p Predicate) {
	f := g.filters[column]
	if f == nil {
		f = &columnFilter{}
		g.filters[column] = f
	}
	f.pred = p
}

// SetHeaderFilterValue stores column's filter value and re-filters. The
// filtering event fires before row elements are destroyed.
func (g *MemoryGrid) SetHeaderFilterValue(column string, value any, origin any) {
	f := g.filters[column]
	if f == nil {
		f = &columnFilter{}
		g.filters[column] = f
	}
	f.value = value
	info := EventInfo{Column: column, Origin: origin}
	g.emit(EventFilterValueChanged, info)
	g.emit(EventDataFiltering, info)
	g.rebuild()
	g.emit(EventDataFiltered, info)
	g.scheduleRender()
}

// HeaderFilterValue reads column's stored filter value.
func (g *MemoryGrid) HeaderFilterValue(column string) any {
	if f := g.filters[column]; f != nil {
		return f.value
	}
	return nil
}

// SetSort replaces the active sort and reorders the visible rows.
func (g *MemoryGrid) SetSort(sorters []Sorter) {
	g.sorters = sorters
	g.emit(EventDataFiltering, EventInfo{})
	g.rebuild()
	g.emit(EventDataSorted, EventInfo{})
	g.scheduleRender()
}

// ActiveSort returns the active sort terms.
func (g *MemoryGrid) ActiveSort() []Sorter {
	return append([]Sorter(nil), g.sorters...)
}

// Scroll moves the viewport to start at row index top within the filtered
// set, discarding elements that leave the window.
func (g *MemoryGrid) Scroll(top int) {
	if top < 0 {
		top = 0
	}
	g.scroll = top
	g.rebuild()
	g.scheduleRender()
}

// Redraw destroys and recreates the visible row elements. With force, the
// filter and sort pipeline runs again first.
func (g *MemoryGrid) Redraw(force bool) {
	if force {
		g.rebuild()
	} else {
		for _, r := range g.visible {
			r.element = nil
		}
	}
	g.scheduleRender()
}

// rebuild recomputes the visible row set. Existing row elements are
// discarded; the rows that survive come back as fresh *memRow values so no
// stale element pointer can leak through.
func (g *MemoryGrid) rebuild() {
	matched := make([]*model.Record, 0, len(g.records))
	for i := range g.records {
		rec := &g.records[i]
		if g.matches(rec) {
			matched = append(matched, rec)
		}
	}
	g.applySort(matched)

	start := g.scroll
	if start > len(matched) {
		start = len(matched)
	}
	end := start + g.viewport
	if end > len(matched) {
		end = len(matched)
	}
	window := matched[start:end]

	g.visible = make([]*memRow, len(window))
	for i, rec := range window {
		g.visible[i] = &memRow{grid: g, rec: rec}
	}
}

func (g *MemoryGrid) matches(rec *model.Record) bool {
	for column, f := range g.filters {
		if f.pred == nil || f.value == nil {
			continue
		}
		if !f.pred(f.value, rec.Field(column), rec) {
			return false
		}
	}
	return true
}

func (g *MemoryGrid) applySort(recs []*model.Record) {
	if len(g.sorters) == 0 {
		return
	}
	sorters := g.sorters
	sort.SliceStable(recs, func(i, j int) bool {
		for _, s := range sorters {
			a, b := recs[i].Field(s.Column), recs[j].Field(s.Column)
			if a == b {
				continue
			}
			var less bool
			if s.Numeric {
				fa, errA := strconv.ParseFloat(a, 64)
				fb, errB := strconv.ParseFloat(b, 64)
				if errA != nil || errB != nil {
					less = a < b
				} else {
					less = fa < fb
				}
			} else {
				less = a < b
			}
			if s.Desc {
				return !less
			}
			return less
		}
		return false
	})
}

// scheduleRender queues staggered render passes: each frame creates elements
// for up to renderChunk rows and fires render-complete, until every visible
// row has an element. A newer render generation abandons older passes.
func (g *MemoryGrid) scheduleRender() {
	g.renderGen++
	gen := g.renderGen
	g.loop.NextFrame(func() { g.renderPass(gen) })
}

func (g *MemoryGrid) renderPass(gen int) {
	if gen != g.renderGen {
		return
	}
	created := 0
	pending := false
	for _, r := range g.visible {
		if r.element != nil {
			continue
		}
		if created >= g.renderChunk {
			pending = true
			break
		}
		r.element = &Element{Class: RowClass, Text: r.rec.Identity()}
		created++
	}
	g.emit(EventRenderComplete, EventInfo{})
	if pending {
		g.loop.NextFrame(func() { g.renderPass(gen) })
	}
}

type memRow struct {
	grid    *MemoryGrid
	rec     *model.Record
	element *Element
}

func (r *memRow) Record() *model.Record { return r.rec }

func (r *memRow) Element() *Element { return r.element }

// Reformat recomputes the row from its element's children. The reference
// grid has no layout engine; recreating the root text is enough to model
// "height recomputed at layout time".
func (r *memRow) Reformat() {
	if r.element != nil {
		r.element.Text = r.rec.Identity()
	}
}
