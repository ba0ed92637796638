package gridstate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vanderheijden86/propdeck/pkg/cache"
	"github.com/vanderheijden86/propdeck/pkg/grid"
	"github.com/vanderheijden86/propdeck/pkg/model"
	"github.com/vanderheijden86/propdeck/pkg/sched"
)

type fakeLoader struct {
	records []model.Record
	calls   int
	forced  int
	err     error
}

func (l *fakeLoader) load(_ context.Context, force bool) (cache.FetchResult, error) {
	l.calls++
	if force {
		l.forced++
	}
	if l.err != nil {
		return cache.FetchResult{}, l.err
	}
	return cache.FetchResult{Records: l.records, Complete: true}, nil
}

func newTableFixture(records []model.Record) (*sched.Manual, *grid.MemoryGrid, *TableController, *fakeLoader) {
	loop := sched.NewManual()
	g := grid.NewMemoryGrid(loop, grid.WithViewport(100), grid.WithRenderChunk(100))
	store := NewExpansionStateStore()
	loader := &fakeLoader{records: records}
	tc := NewTableController(loop, g, store, "main", plainDetail, loader.load)
	return loop, g, tc, loader
}

func TestTableControllerInitialize(t *testing.T) {
	loop, g, tc, loader := newTableFixture(teamRecords("NYK", "BOS", "LAL"))
	ms := tc.AddMultiSelect(model.ColTeam)

	if err := tc.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	loop.Drain()
	loop.FlushFrames(2)

	if loader.calls != 1 || loader.forced != 0 {
		t.Fatalf("loader calls = %d forced = %d", loader.calls, loader.forced)
	}
	if got := len(g.Rows()); got != 3 {
		t.Fatalf("rows = %d", got)
	}
	// Activation happens on the loop after the data lands.
	if ms.State() == MultiSelectUninitialized {
		t.Fatal("multi-select not activated by Initialize")
	}
	if !tc.LastLoadComplete() {
		t.Fatal("complete load reported as partial")
	}
}

func TestTableControllerInitializeError(t *testing.T) {
	loop, g, tc, loader := newTableFixture(nil)
	loader.err = errors.New("feed unreachable")

	if err := tc.Initialize(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	loop.Drain()
	if len(g.Records()) != 0 {
		t.Fatal("failed load mutated the grid")
	}
}

func TestTableControllerRefreshForcesLoader(t *testing.T) {
	loop, _, tc, loader := newTableFixture(teamRecords("NYK"))

	if err := tc.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	loop.Drain()
	if err := tc.RefreshData(context.Background()); err != nil {
		t.Fatal(err)
	}
	loop.Drain()

	if loader.calls != 2 || loader.forced != 1 {
		t.Fatalf("loader calls = %d forced = %d", loader.calls, loader.forced)
	}
}

func TestTableControllerClearFilters(t *testing.T) {
	loop, g, tc, _ := newTableFixture(teamRecords("NYK", "BOS", "LAL"))
	ms := tc.AddMultiSelect(model.ColTeam)
	rf := tc.AddRange(model.ColLine)

	if err := tc.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	loop.Drain()

	ms.ToggleValue("NYK")
	ms.Commit()
	loop.Advance(ms.commit.Window())
	rf.SetMinInput("50")
	loop.Advance(rf.commit.Window())

	if got := len(g.Rows()); got == 3 {
		t.Fatal("filters had no effect")
	}

	tc.ClearFilters()
	if got := len(g.Rows()); got != 3 {
		t.Fatalf("rows after ClearFilters = %d, want 3", got)
	}
	if g.HeaderFilterValue(model.ColTeam) != nil || g.HeaderFilterValue(model.ColLine) != nil {
		t.Fatal("filter values not cleared")
	}
}

func TestTableControllerStateRoundTrip(t *testing.T) {
	records := teamRecords("NYK", "BOS", "LAL")
	records[0].Line = "20.5"
	records[1].Line = "8.5"
	records[2].Line = "30.5"

	loop, g, tc, _ := newTableFixture(records)
	ms := tc.AddMultiSelect(model.ColTeam)
	rf := tc.AddRange(model.ColLine)

	if err := tc.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	loop.Drain()

	ms.ToggleValue("BOS")
	ms.Commit()
	loop.Advance(ms.commit.Window())
	rf.SetMinInput("10")
	loop.Advance(rf.commit.Window())
	g.SetSort([]grid.Sorter{{Column: model.ColPlayer}})

	saved := tc.SaveState()
	if len(saved.Filters) != 2 {
		t.Fatalf("saved filters = %v", saved.Filters)
	}
	if len(saved.Sort) != 1 || saved.Sort[0].Column != model.ColPlayer {
		t.Fatalf("saved sort = %v", saved.Sort)
	}

	// Fresh table, same state pushed back in.
	loop2, g2, tc2, _ := newTableFixture(records)
	ms2 := tc2.AddMultiSelect(model.ColTeam)
	rf2 := tc2.AddRange(model.ColLine)
	if err := tc2.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	loop2.Drain()

	tc2.RestoreState(saved)
	loop2.Drain()

	// NYK (20.5) and LAL (30.5) pass both restored filters.
	if got := len(g2.Rows()); got != 2 {
		t.Fatalf("rows after restore = %d, want 2", got)
	}
	// The owning controllers adopted the restored values.
	if got := ms2.Selected(); len(got) != 2 || got[0] != "LAL" || got[1] != "NYK" {
		t.Fatalf("selected after restore = %v, want [LAL NYK]", got)
	}
	min, max := rf2.Bounds()
	if min == nil || *min != 10 || max != nil {
		t.Fatalf("bounds after restore = %v, %v, want 10, nil", min, max)
	}
	if got := g2.ActiveSort(); len(got) != 1 || got[0].Column != model.ColPlayer {
		t.Fatalf("sort after restore = %v", got)
	}

	// The range filter must stay put: no stale debounced commit from the
	// fresh controller's empty buffers may wipe it.
	loop2.Advance(rf2.commit.Window() + time.Second)
	if got := len(g2.Rows()); got != 2 {
		t.Fatalf("rows after settling = %d, want 2", got)
	}
	if _, ok := g2.HeaderFilterValue(model.ColLine).(Range); !ok {
		t.Fatalf("range filter value lost: %v", g2.HeaderFilterValue(model.ColLine))
	}
}
