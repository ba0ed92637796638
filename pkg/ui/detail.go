package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/vanderheijden86/propdeck/pkg/grid"
	"github.com/vanderheijden86/propdeck/pkg/gridstate"
	"github.com/vanderheijden86/propdeck/pkg/model"
)

// DetailContentClass is the element class carrying the rendered detail text.
const DetailContentClass = "detail-content"

// BuildDetailMarkdown composes the expanded-row content for a record: the
// matchup headline plus every extra column the feed sent, as a two-column
// table.
func BuildDetailMarkdown(rec *model.Record) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "### %s — %s %s\n\n", rec.Player, rec.Market, rec.Line)
	if rec.Team != "" || rec.Opponent != "" {
		fmt.Fprintf(&sb, "%s vs %s", rec.Team, rec.Opponent)
		if rec.GameTime != "" {
			fmt.Fprintf(&sb, " · %s", rec.GameTime)
		}
		sb.WriteString("\n\n")
	}
	if rec.Split != "" {
		fmt.Fprintf(&sb, "Split: %s\n\n", rec.Split)
	}
	if len(rec.Extra) > 0 {
		sb.WriteString("| Book | Value |\n| --- | --- |\n")
		keys := make([]string, 0, len(rec.Extra))
		for k := range rec.Extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, "| %s | %s |\n", k, rec.Extra[k])
		}
	}
	return sb.String()
}

// NewDetailRenderer returns the detail renderer backing row expansion. The
// markdown is styled through glamour; when the terminal renderer cannot be
// built the raw markdown is used as-is.
func NewDetailRenderer(width int) gridstate.DetailRenderer {
	if width <= 0 {
		width = 60
	}
	renderer, rendererErr := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	return func(rec *model.Record) (*grid.Element, error) {
		md := BuildDetailMarkdown(rec)
		text := md
		if rendererErr == nil {
			if rendered, err := renderer.Render(md); err == nil {
				// Strip trailing whitespace/newlines that glamour adds
				text = strings.TrimRight(rendered, " \n\r\t")
			}
		}
		return &grid.Element{Class: DetailContentClass, Text: text}, nil
	}
}
