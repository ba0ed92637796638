package gridstate

import (
	"fmt"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/vanderheijden86/propdeck/pkg/grid"
	"github.com/vanderheijden86/propdeck/pkg/model"
	"github.com/vanderheijden86/propdeck/pkg/sched"
)

func teamRecords(teams ...string) []model.Record {
	recs := make([]model.Record, len(teams))
	for i, team := range teams {
		recs[i] = model.Record{
			Player: fmt.Sprintf("Player %02d", i),
			Team:   team,
			Market: "points",
			Line:   "20.5",
		}
	}
	return recs
}

func newTeamGrid(teams ...string) (*sched.Manual, *grid.MemoryGrid) {
	loop := sched.NewManual()
	g := grid.NewMemoryGrid(loop, grid.WithViewport(100), grid.WithRenderChunk(100))
	g.SetData(teamRecords(teams...))
	loop.FlushFrame()
	return loop, g
}

func TestMultiSelectActivateDerivesCandidates(t *testing.T) {
	loop, g := newTeamGrid("NYK", "BOS", "LAL", "BOS", "NYK")
	c := NewMultiSelectFilterController(loop, g, model.ColTeam)

	if c.State() != MultiSelectUninitialized {
		t.Fatalf("state before Activate = %v", c.State())
	}
	c.Activate()
	if c.State() != MultiSelectOpen {
		t.Fatalf("state after Activate = %v", c.State())
	}
	want := []string{"BOS", "LAL", "NYK"}
	got := c.Candidates()
	if len(got) != len(want) {
		t.Fatalf("candidates = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("candidates = %v, want %v", got, want)
		}
	}
	if !c.AllSelected() {
		t.Fatal("initial selection should be the full candidate set")
	}
	if c.Label() != "All" {
		t.Fatalf("label = %q, want All", c.Label())
	}
}

func TestMultiSelectNumericCandidateOrder(t *testing.T) {
	loop := sched.NewManual()
	g := grid.NewMemoryGrid(loop)
	recs := teamRecords("A", "B", "C")
	recs[0].Line = "10.5"
	recs[1].Line = "9.5"
	recs[2].Line = "100.5"
	g.SetData(recs)
	loop.FlushFrame()

	c := NewMultiSelectFilterController(loop, g, model.ColLine, WithNumericValues())
	c.Activate()

	want := []string{"9.5", "10.5", "100.5"}
	got := c.Candidates()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("candidates = %v, want %v", got, want)
		}
	}
}

func TestMultiSelectActivationRetriesUntilDataArrives(t *testing.T) {
	loop := sched.NewManual()
	g := grid.NewMemoryGrid(loop)
	c := NewMultiSelectFilterController(loop, g, model.ColTeam,
		WithActivationRetry(5, 200*time.Millisecond))

	c.Activate()
	if c.State() != MultiSelectUninitialized {
		t.Fatalf("state with empty grid = %v", c.State())
	}
	if c.Label() != "…" {
		t.Fatalf("label = %q, want …", c.Label())
	}

	loop.Advance(200 * time.Millisecond)
	g.SetData(teamRecords("DEN", "MIA"))
	loop.Advance(200 * time.Millisecond)

	if c.State() == MultiSelectUninitialized {
		t.Fatal("controller never loaded after data arrived within the retry window")
	}
	if len(c.Candidates()) != 2 {
		t.Fatalf("candidates = %v", c.Candidates())
	}
}

func TestMultiSelectActivationGivesUpSilently(t *testing.T) {
	loop := sched.NewManual()
	g := grid.NewMemoryGrid(loop)
	c := NewMultiSelectFilterController(loop, g, model.ColTeam,
		WithActivationRetry(3, 200*time.Millisecond))

	c.Activate()
	loop.Advance(time.Second)

	if c.State() != MultiSelectUninitialized {
		t.Fatalf("state after give-up = %v", c.State())
	}
	if got := g.HeaderFilterValue(model.ColTeam); got != nil {
		t.Fatalf("column got filtered during give-up: %v", got)
	}
	if loop.PendingTimers() != 0 {
		t.Fatalf("%d timers still armed after give-up", loop.PendingTimers())
	}

	// A later Activate starts a fresh retry run.
	g.SetData(teamRecords("PHI"))
	loop.Drain()
	c.Activate()
	if c.State() == MultiSelectUninitialized {
		t.Fatal("re-Activate after give-up did not load")
	}
}

func TestMultiSelectCommitDebounceCollapsesBursts(t *testing.T) {
	loop, g := newTeamGrid("NYK", "BOS", "LAL")
	c := NewMultiSelectFilterController(loop, g, model.ColTeam)
	c.Activate()

	var pushes int
	g.On(grid.EventFilterValueChanged, func(info grid.EventInfo) {
		if info.Origin == c {
			pushes++
		}
	})

	// A burst of checkbox clicks inside one window must evaluate downstream
	// exactly once.
	c.ToggleValue("NYK")
	c.Commit()
	c.ToggleValue("BOS")
	c.Commit()
	c.ToggleValue("BOS")
	c.Commit()
	if pushes != 0 {
		t.Fatalf("commit fired before the debounce window elapsed (%d pushes)", pushes)
	}

	loop.Advance(c.commit.Window())
	if pushes != 1 {
		t.Fatalf("pushes = %d, want 1", pushes)
	}
	if got := c.Selected(); len(got) != 2 {
		t.Fatalf("selected = %v, want BOS and LAL minus NYK toggles", got)
	}
}

func TestMultiSelectUnchangedCommitNotRePushed(t *testing.T) {
	loop, g := newTeamGrid("NYK", "BOS", "LAL")
	c := NewMultiSelectFilterController(loop, g, model.ColTeam)
	c.Activate()

	var pushes int
	g.On(grid.EventFilterValueChanged, func(info grid.EventInfo) {
		if info.Origin == c {
			pushes++
		}
	})

	c.ToggleValue("LAL")
	c.Commit()
	loop.Advance(c.commit.Window())
	if pushes != 1 {
		t.Fatalf("pushes after first commit = %d", pushes)
	}

	c.Commit()
	loop.Advance(c.commit.Window())
	if pushes != 1 {
		t.Fatalf("unchanged selection was re-pushed (pushes = %d)", pushes)
	}
}

// Thirty-seven distinct teams is the realistic worst case for a league
// column; the full selection must read back as no filter at all, and an
// empty selection must hide every row.
func TestMultiSelectLeagueColumn(t *testing.T) {
	teams := make([]string, 37)
	for i := range teams {
		teams[i] = fmt.Sprintf("TEAM%02d", i)
	}
	loop, g := newTeamGrid(teams...)
	c := NewMultiSelectFilterController(loop, g, model.ColTeam)
	c.Activate()

	if len(c.Candidates()) != 37 {
		t.Fatalf("candidates = %d, want 37", len(c.Candidates()))
	}

	// Narrow to three teams.
	c.ToggleAll() // full -> empty
	c.ToggleValue("TEAM03")
	c.ToggleValue("TEAM11")
	c.ToggleValue("TEAM29")
	c.Commit()
	loop.Advance(c.commit.Window())

	if got := len(g.Rows()); got != 3 {
		t.Fatalf("visible rows = %d, want 3", got)
	}
	if c.Label() != "3 of 37" {
		t.Fatalf("label = %q", c.Label())
	}

	// Empty selection matches nothing; it must be pushed as an explicit
	// empty set, not mistaken for "unfiltered".
	c.ToggleValue("TEAM03")
	c.ToggleValue("TEAM11")
	c.ToggleValue("TEAM29")
	c.Commit()
	loop.Advance(c.commit.Window())

	if got := len(g.Rows()); got != 0 {
		t.Fatalf("visible rows with empty selection = %d, want 0", got)
	}
	if v, ok := g.HeaderFilterValue(model.ColTeam).([]string); !ok || len(v) != 0 {
		t.Fatalf("stored filter value = %#v, want empty []string", g.HeaderFilterValue(model.ColTeam))
	}
	if c.Label() != "None" {
		t.Fatalf("label = %q", c.Label())
	}

	// Reset reselects everything and pushes nil immediately.
	c.Reset()
	if got := g.HeaderFilterValue(model.ColTeam); got != nil {
		t.Fatalf("filter value after Reset = %#v, want nil", got)
	}
	if got := len(g.Rows()); got != 37 {
		t.Fatalf("visible rows after Reset = %d, want 37", got)
	}
}

func TestMultiSelectFullSelectionPushesNil(t *testing.T) {
	loop, g := newTeamGrid("NYK", "BOS")
	c := NewMultiSelectFilterController(loop, g, model.ColTeam)
	c.Activate()

	c.ToggleValue("NYK")
	c.Commit()
	loop.Advance(c.commit.Window())
	if g.HeaderFilterValue(model.ColTeam) == nil {
		t.Fatal("partial selection should be a concrete value")
	}

	c.ToggleValue("NYK") // back to full
	c.Commit()
	loop.Advance(c.commit.Window())
	if got := g.HeaderFilterValue(model.ColTeam); got != nil {
		t.Fatalf("full selection stored as %#v, want nil", got)
	}
}

func TestMultiSelectAdoptsExternalValue(t *testing.T) {
	loop, g := newTeamGrid("NYK", "BOS", "LAL")
	c := NewMultiSelectFilterController(loop, g, model.ColTeam)
	c.Activate()

	var pushes int
	g.On(grid.EventFilterValueChanged, func(info grid.EventInfo) {
		if info.Origin == c {
			pushes++
		}
	})

	// A state restore writes the value directly with no origin.
	g.SetHeaderFilterValue(model.ColTeam, []string{"BOS"}, nil)

	if got := c.Selected(); len(got) != 1 || got[0] != "BOS" {
		t.Fatalf("selected after external write = %v, want [BOS]", got)
	}
	// Adoption must not echo a commit back into the grid.
	loop.Advance(time.Second)
	if pushes != 0 {
		t.Fatalf("adoption fed back %d pushes", pushes)
	}

	// nil reads back as the full candidate set.
	g.SetHeaderFilterValue(model.ColTeam, nil, nil)
	if !c.AllSelected() {
		t.Fatalf("selected after external nil = %v, want all", c.Selected())
	}
	loop.Advance(time.Second)
	if pushes != 0 {
		t.Fatalf("adoption fed back %d pushes", pushes)
	}
}

func TestMultiSelectCommitAfterAdoptionRePushes(t *testing.T) {
	loop, g := newTeamGrid("NYK", "BOS", "LAL")
	c := NewMultiSelectFilterController(loop, g, model.ColTeam)
	c.Activate()

	// Push [BOS] through the controller's own commit path.
	c.ToggleValue("NYK")
	c.ToggleValue("LAL")
	c.Commit()
	loop.Advance(time.Second)
	if v, ok := g.HeaderFilterValue(model.ColTeam).([]string); !ok || len(v) != 1 || v[0] != "BOS" {
		t.Fatalf("grid filter after commit = %v", g.HeaderFilterValue(model.ColTeam))
	}

	// An external nil write clears the grid; the controller adopts the full
	// selection.
	g.SetHeaderFilterValue(model.ColTeam, nil, nil)
	if !c.AllSelected() {
		t.Fatalf("selected after external clear = %v, want all", c.Selected())
	}

	// Re-selecting the same [BOS] set must reach the grid again: the grid no
	// longer holds the controller's previous push.
	c.ToggleValue("NYK")
	c.ToggleValue("LAL")
	c.Commit()
	loop.Advance(time.Second)
	v, ok := g.HeaderFilterValue(model.ColTeam).([]string)
	if !ok || len(v) != 1 || v[0] != "BOS" {
		t.Fatalf("grid filter after re-commit = %v, want [BOS]", g.HeaderFilterValue(model.ColTeam))
	}
}

func TestMultiSelectToggleIgnoresUnknownValue(t *testing.T) {
	loop, g := newTeamGrid("NYK", "BOS")
	c := NewMultiSelectFilterController(loop, g, model.ColTeam)
	c.Activate()

	c.ToggleValue("SEA")
	if !c.AllSelected() {
		t.Fatalf("unknown value altered the selection: %v", c.Selected())
	}
	_ = loop
}

// The selection is a subset of the candidate set after any interleaving of
// toggles, commits and external writes.
func TestMultiSelectSelectionSubsetInvariant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 12).Draw(t, "candidates")
		teams := make([]string, n)
		for i := range teams {
			teams[i] = fmt.Sprintf("T%02d", i)
		}
		loop, g := newTeamGrid(teams...)
		c := NewMultiSelectFilterController(loop, g, model.ColTeam)
		c.Activate()

		steps := rapid.IntRange(0, 30).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 4).Draw(t, "op") {
			case 0:
				c.ToggleValue(rapid.SampledFrom(teams).Draw(t, "known"))
			case 1:
				c.ToggleValue(rapid.StringMatching(`[A-Z]{2,4}`).Draw(t, "any"))
			case 2:
				c.ToggleAll()
			case 3:
				c.Commit()
				loop.Advance(c.commit.Window())
			case 4:
				k := rapid.IntRange(0, n).Draw(t, "extlen")
				ext := append([]string(nil), teams[:k]...)
				if rapid.Bool().Draw(t, "junk") {
					ext = append(ext, "ZZZ")
				}
				g.SetHeaderFilterValue(model.ColTeam, ext, nil)
			}

			cands := make(map[string]bool, n)
			for _, v := range c.Candidates() {
				cands[v] = true
			}
			for _, v := range c.Selected() {
				if !cands[v] {
					t.Fatalf("selected value %q outside candidate set %v", v, c.Candidates())
				}
			}
		}
	})
}
