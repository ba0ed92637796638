package ui

import (
	"fmt"
	"strings"

	"github.com/vanderheijden86/propdeck/pkg/layout"
	"github.com/vanderheijden86/propdeck/pkg/metrics"
)

func (m *Model) View() string {
	defer metrics.Timer(metrics.UIRender)()

	var sb strings.Builder
	sb.WriteString(m.viewTitle())
	sb.WriteString("\n")
	sb.WriteString(m.viewHeader())
	sb.WriteString("\n")
	sb.WriteString(m.viewRows())

	switch m.mode {
	case modeDropdown:
		sb.WriteString("\n")
		sb.WriteString(m.viewDropdown())
	case modeRange:
		sb.WriteString("\n")
		sb.WriteString(m.viewRangeEditor())
	}

	sb.WriteString("\n")
	sb.WriteString(m.viewStatus())
	return sb.String()
}

func (m *Model) viewTitle() string {
	title := styleTitle.Render(m.title)
	counts := fmt.Sprintf(" %d/%d rows", len(m.snap.Rows), m.snap.TotalRecords)
	if m.snap.SortLabel != "" {
		counts += "  sort: " + m.snap.SortLabel
	}
	line := title + styleStatus.Render(counts)
	if !m.snap.Complete && m.snap.TotalRecords > 0 {
		line += "  " + styleWarning.Render("partial data")
	}
	return line
}

func (m *Model) viewHeader() string {
	var sb strings.Builder
	for _, column := range m.snap.Columns {
		width := m.snap.Widths[column]
		label := column
		if filter, ok := m.snap.FilterLabels[column]; ok {
			label = column + "[" + filter + "]"
			sb.WriteString(styleFilterActive.Render(layout.Pad(label, width)))
		} else {
			sb.WriteString(styleHeader.Render(layout.Pad(label, width)))
		}
		sb.WriteString(strings.Repeat(" ", layout.ColumnGap))
	}
	return sb.String()
}

func (m *Model) viewRows() string {
	if len(m.snap.Rows) == 0 {
		return styleStatus.Render("  no rows match the active filters")
	}

	var sb strings.Builder
	for i, row := range m.snap.Rows {
		line := strings.Join(row.Cells, strings.Repeat(" ", layout.ColumnGap))
		marker := "  "
		if row.Expanded {
			marker = "▾ "
		}
		if i == m.cursor {
			sb.WriteString(styleRowSelected.Render(marker + line))
		} else {
			sb.WriteString(styleRow.Render(marker + line))
		}
		sb.WriteString("\n")
		if row.Expanded {
			for _, detail := range row.Detail {
				sb.WriteString(styleDetail.Render(detail))
				sb.WriteString("\n")
			}
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (m *Model) viewDropdown() string {
	var sb strings.Builder
	sb.WriteString(styleHeader.Render("filter: "+m.dropdownColumn) + "\n")
	for i, value := range m.dropdownValues {
		check := "[ ]"
		if m.dropdownSel[value] {
			check = "[x]"
		}
		line := check + " " + value
		if i == m.dropdownCursor {
			sb.WriteString(styleDropdownCursor.Render("> " + line))
		} else {
			sb.WriteString("  " + line)
		}
		sb.WriteString("\n")
	}
	sb.WriteString(styleStatus.Render("space toggle · a all/none · enter close"))
	return styleDropdown.Render(sb.String())
}

func (m *Model) viewRangeEditor() string {
	var sb strings.Builder
	sb.WriteString(styleHeader.Render("range: "+m.rangeColumn) + "\n")
	sb.WriteString(m.minInput.View() + "  to  " + m.maxInput.View() + "\n")
	sb.WriteString(styleStatus.Render("tab switch · enter apply · esc clear"))
	return styleDropdown.Render(sb.String())
}

func (m *Model) viewStatus() string {
	help := "j/k move · enter expand · t/b filter · l range · s sort · c clear · r refresh · y yank · e export · q quit"
	line := styleStatus.Render(help)
	if m.status != "" {
		line = styleStatus.Render(m.status) + "\n" + line
	}
	return line
}
