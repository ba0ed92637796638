package gridstate

import (
	"fmt"

	"github.com/vanderheijden86/propdeck/pkg/debug"
	"github.com/vanderheijden86/propdeck/pkg/grid"
	"github.com/vanderheijden86/propdeck/pkg/model"
	"github.com/vanderheijden86/propdeck/pkg/sched"
)

// Element classes used for row detail blocks.
const (
	DetailClass      = "row-detail"
	DetailErrorClass = "row-detail-error"
)

// DetailRenderer builds the detail block for an expanded record. The block
// is pure presentation: it is rebuilt from the record on every re-render,
// never cached, because the grid may have destroyed the previous element.
type DetailRenderer func(rec *model.Record) (*grid.Element, error)

// RowExpansionController toggles row expansion for one table and keeps the
// detail blocks attached through the grid's redraw cycle. Expansion truth
// lives in the record's transient flag and the injected store; it is never
// read back out of rendered elements.
type RowExpansionController struct {
	loop   sched.Loop
	store  *ExpansionStateStore
	scope  string
	render DetailRenderer
}

// NewRowExpansionController builds a controller writing to store under
// scope.
func NewRowExpansionController(loop sched.Loop, store *ExpansionStateStore, scope string, render DetailRenderer) *RowExpansionController {
	return &RowExpansionController{loop: loop, store: store, scope: scope, render: render}
}

// Scope returns the store scope key this controller writes under.
func (c *RowExpansionController) Scope() string { return c.scope }

// Toggle flips the row between Collapsed and Expanded: record flag, store
// entry, then presentation.
func (c *RowExpansionController) Toggle(row grid.Row) {
	rec := row.Record()
	if rec == nil {
		return
	}
	rec.Transient.Expanded = !rec.Transient.Expanded
	id := rec.Identity()
	if rec.Transient.Expanded {
		c.store.Mark(c.scope, id)
		c.EnsureDetail(row)
	} else {
		c.store.Unmark(c.scope, id)
		c.removeDetail(row)
	}
}

// EnsureDetail attaches the detail block to an expanded row's element if the
// current element instance does not carry one yet. Construction is deferred
// one frame so it lands after the grid's own layout pass; row height is
// recomputed from the children present at layout time.
func (c *RowExpansionController) EnsureDetail(row grid.Row) {
	rec := row.Record()
	if rec == nil || !rec.Transient.Expanded {
		return
	}
	c.loop.NextFrame(func() {
		// Re-check against the row's current element: the grid may have
		// rebuilt or collapsed it since the deferral was queued.
		if !rec.Transient.Expanded {
			return
		}
		el := row.Element()
		if el == nil || el.Find(DetailClass) != nil {
			return
		}
		el.Append(c.buildDetail(rec))
		row.Reformat()
	})
}

// removeDetail detaches the detail block from the row's current element.
func (c *RowExpansionController) removeDetail(row grid.Row) {
	el := row.Element()
	if el == nil {
		return
	}
	el.Remove(DetailClass)
	row.Reformat()
}

// buildDetail runs the renderer inside a recover boundary. A malformed
// record costs that one row an inline error placeholder, nothing more.
func (c *RowExpansionController) buildDetail(rec *model.Record) (out *grid.Element) {
	defer func() {
		if r := recover(); r != nil {
			debug.Log("detail renderer panic for %s: %v", rec.Identity(), r)
			out = errorPlaceholder(fmt.Sprintf("%v", r))
		}
	}()
	detail, err := c.render(rec)
	if err != nil || detail == nil {
		debug.Log("detail renderer failed for %s: %v", rec.Identity(), err)
		return errorPlaceholder(fmt.Sprintf("%v", err))
	}
	wrapper := &grid.Element{Class: DetailClass}
	wrapper.Append(detail)
	return wrapper
}

func errorPlaceholder(msg string) *grid.Element {
	wrapper := &grid.Element{Class: DetailClass}
	wrapper.Append(&grid.Element{Class: DetailErrorClass, Text: "detail unavailable: " + msg})
	return wrapper
}
