package ui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/propdeck/pkg/export"
	"github.com/vanderheijden86/propdeck/pkg/grid"
	"github.com/vanderheijden86/propdeck/pkg/gridstate"
	"github.com/vanderheijden86/propdeck/pkg/model"
	"github.com/vanderheijden86/propdeck/pkg/sched"
)

// refreshInterval paces the view snapshot polling. Grid mutations happen on
// the scheduler loop between key presses (debounced commits, staggered
// render passes), so the view re-reads on a timer rather than per event.
const refreshInterval = 100 * time.Millisecond

type inputMode int

const (
	modeGrid inputMode = iota
	modeDropdown
	modeRange
)

// Messages delivered back to the tea runtime.
type (
	snapshotMsg Snapshot

	dropdownMsg struct {
		column     string
		candidates []string
		selected   map[string]bool
	}

	statusMsg string

	loadDoneMsg struct{ err error }

	tickMsg struct{}
)

// Model is the root Bubble Tea model: a virtualized odds grid with header
// filters, row expansion and export shortcuts. All grid state lives on the
// scheduler loop; the model renders snapshots and posts mutations.
type Model struct {
	loop  sched.Loop
	table *gridstate.TableController
	grid  *grid.MemoryGrid

	columns   []string
	title     string
	exportDir string
	send      func(tea.Msg)

	snap   Snapshot
	cursor int
	mode   inputMode
	status string

	dropdownColumn string
	dropdownValues []string
	dropdownSel    map[string]bool
	dropdownCursor int

	rangeColumn string
	minInput    textinput.Model
	maxInput    textinput.Model
	rangeFocus  int

	// width and height are read by snapshot building on the scheduler loop,
	// so resize updates are posted there rather than written in Update.
	width  int
	height int
}

// NewModel builds the root model. send delivers messages back into the tea
// runtime; wire it to Program.Send before starting (tests inject their own).
func NewModel(loop sched.Loop, table *gridstate.TableController, g *grid.MemoryGrid, columns []string, title, exportDir string) *Model {
	min := textinput.New()
	min.Placeholder = "min"
	min.CharLimit = 10
	min.Width = 8
	max := textinput.New()
	max.Placeholder = "max"
	max.CharLimit = 10
	max.Width = 8

	return &Model{
		loop:      loop,
		table:     table,
		grid:      g,
		columns:   append([]string(nil), columns...),
		title:     title,
		exportDir: exportDir,
		minInput:  min,
		maxInput:  max,
		width:     120,
		height:    40,
	}
}

// SetSend wires the message delivery function.
func (m *Model) SetSend(send func(tea.Msg)) { m.send = send }

func (m *Model) Init() tea.Cmd {
	m.requestSnapshot()
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w, h := msg.Width, msg.Height
		m.loop.Post(func() {
			m.width = w
			m.height = h
			m.deliverSnapshot()
		})
		return m, nil

	case tickMsg:
		m.requestSnapshot()
		return m, tick()

	case snapshotMsg:
		m.snap = Snapshot(msg)
		if m.cursor >= len(m.snap.Rows) {
			m.cursor = len(m.snap.Rows) - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}
		return m, nil

	case dropdownMsg:
		m.mode = modeDropdown
		m.dropdownColumn = msg.column
		m.dropdownValues = msg.candidates
		m.dropdownSel = msg.selected
		if m.dropdownCursor >= len(msg.candidates) {
			m.dropdownCursor = 0
		}
		return m, nil

	case statusMsg:
		m.status = string(msg)
		return m, nil

	case loadDoneMsg:
		if msg.err != nil {
			m.status = "load failed: " + msg.err.Error()
		} else {
			m.status = "data refreshed"
		}
		m.requestSnapshot()
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeDropdown:
			return m.updateDropdown(msg)
		case modeRange:
			return m.updateRange(msg)
		default:
			return m.updateGrid(msg)
		}
	}
	return m, nil
}

func (m *Model) updateGrid(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.snap.Rows)-1 {
			m.cursor++
		}

	case "enter", " ":
		m.toggleCursorRow()

	case "t":
		m.openDropdown(model.ColTeam)

	case "b":
		m.openDropdown(model.ColMarket)

	case "l":
		if m.table.Range(model.ColLine) != nil {
			m.mode = modeRange
			m.rangeColumn = model.ColLine
			m.rangeFocus = 0
			m.minInput.Focus()
			m.maxInput.Blur()
		}

	case "s":
		m.cycleSort(model.ColLine)

	case "c":
		m.loop.Post(func() {
			m.table.ClearFilters()
			m.deliverSnapshot()
		})

	case "r":
		m.status = "refreshing…"
		return m, m.refreshCmd()

	case "y":
		m.yankMarkdown()

	case "e":
		m.exportSVG()
	}
	m.requestSnapshot()
	return m, nil
}

func (m *Model) updateDropdown(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.dropdownCursor > 0 {
			m.dropdownCursor--
		}
	case "down", "j":
		if m.dropdownCursor < len(m.dropdownValues)-1 {
			m.dropdownCursor++
		}
	case " ":
		if m.dropdownCursor < len(m.dropdownValues) {
			value := m.dropdownValues[m.dropdownCursor]
			column := m.dropdownColumn
			m.loop.Post(func() {
				if ms := m.table.MultiSelect(column); ms != nil {
					ms.ToggleValue(value)
					ms.Commit()
					m.deliverDropdown(column, ms)
				}
			})
		}
	case "a":
		column := m.dropdownColumn
		m.loop.Post(func() {
			if ms := m.table.MultiSelect(column); ms != nil {
				ms.ToggleAll()
				ms.Commit()
				m.deliverDropdown(column, ms)
			}
		})
	case "enter", "esc":
		column := m.dropdownColumn
		m.mode = modeGrid
		m.loop.Post(func() {
			if ms := m.table.MultiSelect(column); ms != nil {
				ms.Close()
			}
			m.deliverSnapshot()
		})
	}
	return m, nil
}

func (m *Model) updateRange(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	column := m.rangeColumn
	switch msg.String() {
	case "tab":
		m.rangeFocus = 1 - m.rangeFocus
		if m.rangeFocus == 0 {
			m.minInput.Focus()
			m.maxInput.Blur()
		} else {
			m.maxInput.Focus()
			m.minInput.Blur()
		}
		return m, nil

	case "esc":
		m.mode = modeGrid
		m.minInput.SetValue("")
		m.maxInput.SetValue("")
		m.loop.Post(func() {
			if rf := m.table.Range(column); rf != nil {
				rf.Clear()
			}
			m.deliverSnapshot()
		})
		return m, nil

	case "enter":
		m.mode = modeGrid
		m.requestSnapshot()
		return m, nil
	}

	var cmd tea.Cmd
	if m.rangeFocus == 0 {
		m.minInput, cmd = m.minInput.Update(msg)
		text := m.minInput.Value()
		m.loop.Post(func() {
			if rf := m.table.Range(column); rf != nil {
				rf.SetMinInput(text)
			}
		})
	} else {
		m.maxInput, cmd = m.maxInput.Update(msg)
		text := m.maxInput.Value()
		m.loop.Post(func() {
			if rf := m.table.Range(column); rf != nil {
				rf.SetMaxInput(text)
			}
		})
	}
	return m, cmd
}

// toggleCursorRow flips expansion on the row under the cursor. The row is
// found again by identity on the loop; the snapshot's index may be stale by
// the time the callback runs.
func (m *Model) toggleCursorRow() {
	if m.cursor >= len(m.snap.Rows) {
		return
	}
	id := m.snap.Rows[m.cursor].Identity
	m.loop.Post(func() {
		for _, row := range m.grid.Rows() {
			if rec := row.Record(); rec != nil && rec.Identity() == id {
				m.table.Expansion().Toggle(row)
				break
			}
		}
		m.deliverSnapshot()
	})
}

func (m *Model) openDropdown(column string) {
	m.loop.Post(func() {
		ms := m.table.MultiSelect(column)
		if ms == nil {
			return
		}
		ms.Activate()
		if ms.State() == gridstate.MultiSelectUninitialized {
			m.deliver(statusMsg("no data loaded for " + column))
			return
		}
		m.deliverDropdown(column, ms)
	})
}

func (m *Model) cycleSort(column string) {
	m.loop.Post(func() {
		sorters := m.grid.ActiveSort()
		switch {
		case len(sorters) == 0 || sorters[0].Column != column:
			m.grid.SetSort([]grid.Sorter{{Column: column, Numeric: true}})
		case !sorters[0].Desc:
			m.grid.SetSort([]grid.Sorter{{Column: column, Desc: true, Numeric: true}})
		default:
			m.grid.SetSort(nil)
		}
		m.deliverSnapshot()
	})
}

func (m *Model) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return loadDoneMsg{err: m.table.RefreshData(ctx)}
	}
}

func (m *Model) yankMarkdown() {
	m.loop.Post(func() {
		md := export.GridMarkdown(export.MarkdownOptions{
			Title:    m.title,
			Columns:  m.columns,
			Records:  visibleRecords(m.grid),
			Complete: m.table.LastLoadComplete(),
		})
		if err := clipboard.WriteAll(md); err != nil {
			m.deliver(statusMsg("clipboard unavailable: " + err.Error()))
			return
		}
		m.deliver(statusMsg(fmt.Sprintf("copied %d rows as markdown", len(m.grid.Rows()))))
	})
}

func (m *Model) exportSVG() {
	m.loop.Post(func() {
		path := filepath.Join(m.exportDir, fmt.Sprintf("propdeck-%s.svg", time.Now().Format("20060102-150405")))
		err := export.SaveGridSnapshot(export.SnapshotOptions{
			Path:    path,
			Title:   m.title,
			Columns: m.columns,
			Records: visibleRecords(m.grid),
			Detail: func(rec *model.Record) []string {
				if !rec.Transient.Expanded {
					return nil
				}
				return strings.Split(BuildDetailMarkdown(rec), "\n")
			},
		})
		if err != nil {
			m.deliver(statusMsg("export failed: " + err.Error()))
			return
		}
		m.deliver(statusMsg("exported " + path))
	})
}

func visibleRecords(g *grid.MemoryGrid) []*model.Record {
	rows := g.Rows()
	out := make([]*model.Record, 0, len(rows))
	for _, row := range rows {
		if rec := row.Record(); rec != nil {
			out = append(out, rec)
		}
	}
	return out
}

// requestSnapshot schedules a snapshot rebuild on the loop.
func (m *Model) requestSnapshot() {
	m.loop.Post(m.deliverSnapshot)
}

// deliverSnapshot builds and sends a snapshot. Must run on the loop.
func (m *Model) deliverSnapshot() {
	m.deliver(snapshotMsg(BuildSnapshot(m.grid, m.table, m.columns, m.width)))
}

// deliverDropdown sends the dropdown's current candidate and selection sets.
// Must run on the loop.
func (m *Model) deliverDropdown(column string, ms *gridstate.MultiSelectFilterController) {
	selected := make(map[string]bool)
	for _, v := range ms.Selected() {
		selected[v] = true
	}
	m.deliver(dropdownMsg{column: column, candidates: ms.Candidates(), selected: selected})
}

func (m *Model) deliver(msg tea.Msg) {
	if m.send != nil {
		m.send(msg)
	}
}
