package ui

import (
	"fmt"
	"strings"

	"github.com/vanderheijden86/propdeck/pkg/grid"
	"github.com/vanderheijden86/propdeck/pkg/gridstate"
	"github.com/vanderheijden86/propdeck/pkg/layout"
)

// RowView is one rendered row in a view snapshot.
type RowView struct {
	Identity string
	Cells    []string
	Expanded bool
	Detail   []string
}

// Snapshot is an immutable copy of everything the view needs. It is built on
// the scheduler loop, where grid state may be read safely, and handed to the
// render goroutine as a message; the view never touches live grid state.
type Snapshot struct {
	Columns      []string
	Widths       map[string]int
	FilterLabels map[string]string
	SortLabel    string
	Rows         []RowView
	TotalRecords int
	Complete     bool
}

// BuildSnapshot reads the grid and controllers into a Snapshot. Must run on
// the loop.
func BuildSnapshot(g grid.Table, tc *gridstate.TableController, columns []string, totalWidth int) Snapshot {
	records := g.Records()
	widths := layout.ColumnWidths(columns, records)
	if totalWidth > 0 {
		layout.Fit(columns, widths, totalWidth)
	}

	snap := Snapshot{
		Columns:      append([]string(nil), columns...),
		Widths:       widths,
		FilterLabels: make(map[string]string, len(columns)),
		TotalRecords: len(records),
		Complete:     tc.LastLoadComplete(),
	}

	for _, column := range columns {
		if ms := tc.MultiSelect(column); ms != nil {
			if label := ms.Label(); label != "All" {
				snap.FilterLabels[column] = label
			}
			continue
		}
		if rf := tc.Range(column); rf != nil {
			if label := rangeLabel(rf); label != "" {
				snap.FilterLabels[column] = label
			}
		}
	}

	if sorters := g.ActiveSort(); len(sorters) > 0 {
		dir := "asc"
		if sorters[0].Desc {
			dir = "desc"
		}
		snap.SortLabel = sorters[0].Column + " " + dir
	}

	for _, row := range g.Rows() {
		rec := row.Record()
		if rec == nil {
			continue
		}
		view := RowView{
			Identity: rec.Identity(),
			Expanded: rec.Transient.Expanded,
			Cells:    make([]string, len(columns)),
		}
		for i, column := range columns {
			view.Cells[i] = layout.Pad(rec.Field(column), widths[column])
		}
		if rec.Transient.Expanded {
			view.Detail = detailLines(row)
		}
		snap.Rows = append(snap.Rows, view)
	}
	return snap
}

// detailLines extracts the rendered detail text from the row's element tree.
func detailLines(row grid.Row) []string {
	el := row.Element()
	if el == nil {
		return nil
	}
	detail := el.Find(gridstate.DetailClass)
	if detail == nil {
		return nil
	}
	var lines []string
	var walk func(*grid.Element)
	walk = func(e *grid.Element) {
		if e.Text != "" {
			lines = append(lines, strings.Split(e.Text, "\n")...)
		}
		for _, child := range e.Children {
			walk(child)
		}
	}
	walk(detail)
	return lines
}

func rangeLabel(rf *gridstate.RangeFilterController) string {
	min, max := rf.Bounds()
	switch {
	case min != nil && max != nil:
		return fmt.Sprintf("%g–%g", *min, *max)
	case min != nil:
		return fmt.Sprintf("≥%g", *min)
	case max != nil:
		return fmt.Sprintf("≤%g", *max)
	}
	return ""
}
