package gridstate

import (
	"time"

	"github.com/vanderheijden86/propdeck/pkg/debug"
	"github.com/vanderheijden86/propdeck/pkg/grid"
	"github.com/vanderheijden86/propdeck/pkg/metrics"
	"github.com/vanderheijden86/propdeck/pkg/sched"
)

// Coordinator timing defaults.
const (
	// DefaultRestoreRetryBound caps restoration attempts per cycle. One
	// render pass is not always enough for the grid to have created every
	// row element; virtualization staggers them.
	DefaultRestoreRetryBound = 3
	// DefaultSortedRestoreDelay lets the grid's reflow finish before the
	// post-sort restore runs.
	DefaultSortedRestoreDelay = 60 * time.Millisecond
)

// CoordinatorOption configures a GridLifecycleCoordinator.
type CoordinatorOption func(*GridLifecycleCoordinator)

// WithRestoreRetryBound overrides the per-cycle restoration attempt cap.
func WithRestoreRetryBound(n int) CoordinatorOption {
	return func(c *GridLifecycleCoordinator) {
		if n > 0 {
			c.bound = n
		}
	}
}

// WithSortedRestoreDelay overrides the post-sort restore delay.
func WithSortedRestoreDelay(d time.Duration) CoordinatorOption {
	return func(c *GridLifecycleCoordinator) { c.sortedDelay = d }
}

// GridLifecycleCoordinator drives save/restore of expansion state around the
// grid's mutation events. The grid discards row elements on filter, sort and
// redraw; without the snapshot-before / restore-after cycle every expansion
// marker would vanish with them.
type GridLifecycleCoordinator struct {
	loop   sched.Loop
	table  grid.Table
	store  *ExpansionStateStore
	expand *RowExpansionController
	scope  string

	// pending holds the identities still awaiting restoration in the
	// current cycle. restoring is true while a cycle is open.
	pending   map[string]bool
	restoring bool
	attempts  int
	bound     int

	sortedDelay time.Duration
}

// NewGridLifecycleCoordinator wires the coordinator to the table's lifecycle
// events.
func NewGridLifecycleCoordinator(loop sched.Loop, table grid.Table, store *ExpansionStateStore, expand *RowExpansionController, opts ...CoordinatorOption) *GridLifecycleCoordinator {
	c := &GridLifecycleCoordinator{
		loop:        loop,
		table:       table,
		store:       store,
		expand:      expand,
		scope:       expand.Scope(),
		pending:     make(map[string]bool),
		bound:       DefaultRestoreRetryBound,
		sortedDelay: DefaultSortedRestoreDelay,
	}
	for _, opt := range opts {
		opt(c)
	}

	table.On(grid.EventDataLoaded, func(grid.EventInfo) { c.onDataLoaded() })
	table.On(grid.EventDataFiltering, func(grid.EventInfo) { c.onFiltering() })
	table.On(grid.EventDataFiltered, func(grid.EventInfo) { c.onFiltered() })
	table.On(grid.EventDataSorted, func(grid.EventInfo) { c.onSorted() })
	table.On(grid.EventRenderComplete, func(grid.EventInfo) { c.onRenderComplete() })
	return c
}

// Restoring reports whether a restoration cycle is open.
func (c *GridLifecycleCoordinator) Restoring() bool { return c.restoring }

// Attempts returns the attempt count of the current cycle.
func (c *GridLifecycleCoordinator) Attempts() int { return c.attempts }

// onDataLoaded seeds a restoration cycle from the page-global registry so
// expansions survive a re-fetch of the record set.
func (c *GridLifecycleCoordinator) onDataLoaded() {
	c.beginCycle(c.store.Marked(c.scope))
}

// onFiltering snapshots expansion state while the row elements are still
// intact, before the grid removes and re-adds rows.
func (c *GridLifecycleCoordinator) onFiltering() {
	ids := c.store.Snapshot(c.scope, c.table.Rows())
	// Keep identities from an unfinished cycle: a second mutation arriving
	// mid-restore must not lose the rows the first one had yet to restore.
	for id := range c.pending {
		ids = append(ids, id)
	}
	c.store.SaveTemp(c.scope, ids)
}

// onFiltered starts the pending restoration now that the visible set has
// been rebuilt.
func (c *GridLifecycleCoordinator) onFiltered() {
	c.beginCycle(c.store.TakeTemp(c.scope))
}

// onSorted restores after a fixed short delay, once the grid's own reflow
// has settled.
func (c *GridLifecycleCoordinator) onSorted() {
	ids := c.store.TakeTemp(c.scope)
	if len(ids) == 0 {
		return
	}
	c.loop.After(c.sortedDelay, func() { c.beginCycle(ids) })
}

// onRenderComplete retries the open restoration while the attempt budget
// lasts; later render passes may have created elements the earlier attempts
// could not reach. On a settled table it still sweeps the rendered rows:
// a plain redraw rebuilds elements without any filter event, and the detail
// blocks go down with the old elements.
func (c *GridLifecycleCoordinator) onRenderComplete() {
	if !c.restoring {
		c.sweepExpanded()
		return
	}
	c.attempt()
}

// sweepExpanded re-attaches detail blocks on rendered expanded rows. The
// marker check in EnsureDetail makes this idempotent.
func (c *GridLifecycleCoordinator) sweepExpanded() {
	for _, row := range c.table.Rows() {
		if rec := row.Record(); rec != nil && rec.Transient.Expanded {
			c.expand.EnsureDetail(row)
		}
	}
}

func (c *GridLifecycleCoordinator) beginCycle(ids []string) {
	if len(ids) == 0 {
		c.endCycle()
		return
	}
	c.pending = make(map[string]bool, len(ids))
	for _, id := range ids {
		c.pending[id] = true
	}
	c.restoring = true
	c.attempts = 0
	c.attempt()
}

func (c *GridLifecycleCoordinator) endCycle() {
	c.pending = make(map[string]bool)
	c.restoring = false
	c.attempts = 0
}

// attempt applies the outstanding snapshot to the currently rendered rows.
// An identity only counts as restored once its row has a live element; until
// then the detail block has nothing to attach to, and a later render pass
// must pick it up.
func (c *GridLifecycleCoordinator) attempt() {
	defer metrics.Timer(metrics.RestoreAttempt)()
	c.attempts++

	ids := make([]string, 0, len(c.pending))
	for id := range c.pending {
		ids = append(ids, id)
	}
	rows := c.table.Rows()
	c.store.ApplySnapshot(c.scope, ids, rows, c.expand.EnsureDetail)

	for _, row := range rows {
		rec := row.Record()
		if rec == nil || !rec.Transient.Expanded {
			continue
		}
		// Rows that kept their flag through the rebuild still lost their
		// detail block with the old element; re-attach it.
		c.expand.EnsureDetail(row)
		if row.Element() != nil {
			delete(c.pending, rec.Identity())
		}
	}

	if len(c.pending) == 0 {
		c.endCycle()
		return
	}
	// The budget must close the cycle here, not on the next render event:
	// when rendering has already settled there is no next event.
	if c.attempts >= c.bound {
		debug.Log("restore %s: attempt budget exhausted with %d rows unrestored", c.scope, len(c.pending))
		c.endCycle()
	}
}
