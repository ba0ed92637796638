// Package export renders the current grid view to shareable artifacts: an
// SVG snapshot for posting a board, and a Markdown table for pasting into
// notes or chat.
package export

import (
	"fmt"
	"image/color"
	"io"
	"os"

	svg "github.com/ajstarks/svgo"

	"github.com/vanderheijden86/propdeck/pkg/layout"
	"github.com/vanderheijden86/propdeck/pkg/model"
)

// Snapshot geometry in SVG user units.
const (
	cellW     = 9 // monospace glyph width
	rowH      = 24
	headerH   = 56
	marginX   = 24
	marginY   = 16
	detailPad = 18
)

var (
	colorBackdrop = color.RGBA{R: 0x10, G: 0x12, B: 0x18, A: 0xff}
	colorHeaderBG = color.RGBA{R: 0x1c, G: 0x20, B: 0x2c, A: 0xff}
	colorRowAlt   = color.RGBA{R: 0x16, G: 0x19, B: 0x22, A: 0xff}
	colorDetailBG = color.RGBA{R: 0x20, G: 0x26, B: 0x34, A: 0xff}
	colorText     = color.RGBA{R: 0xe6, G: 0xe6, B: 0xe6, A: 0xff}
	colorSubtle   = color.RGBA{R: 0x9a, G: 0xa3, B: 0xb2, A: 0xff}
	colorStroke   = color.RGBA{R: 0x3a, G: 0x40, B: 0x52, A: 0xff}
)

// SnapshotOptions describes one grid snapshot.
type SnapshotOptions struct {
	Path    string
	Title   string
	Columns []string
	Records []*model.Record
	// Detail returns the expanded-row lines for a record, or nil when the
	// row is collapsed.
	Detail func(rec *model.Record) []string
}

// SaveGridSnapshot writes an SVG rendering of the grid to opts.Path.
func SaveGridSnapshot(opts SnapshotOptions) error {
	file, err := os.Create(opts.Path)
	if err != nil {
		return fmt.Errorf("creating snapshot file: %w", err)
	}
	defer file.Close()

	if err := renderSVGToWriter(file, opts); err != nil {
		return fmt.Errorf("rendering snapshot: %w", err)
	}
	return nil
}

func renderSVGToWriter(w io.Writer, opts SnapshotOptions) error {
	widths := layout.ColumnWidths(opts.Columns, opts.Records)

	tableW := 0
	for _, c := range opts.Columns {
		tableW += widths[c] + layout.ColumnGap
	}
	totalW := marginX*2 + tableW*cellW

	details := make([][]string, len(opts.Records))
	totalH := marginY*2 + headerH + rowH
	for i, rec := range opts.Records {
		totalH += rowH
		if opts.Detail != nil {
			details[i] = opts.Detail(rec)
			totalH += rowH * len(details[i])
			if len(details[i]) > 0 {
				totalH += detailPad
			}
		}
	}

	canvas := svg.New(w)
	canvas.Start(totalW, totalH)
	canvas.Rect(0, 0, totalW, totalH, fmt.Sprintf("fill:%s", css(colorBackdrop)))
	canvas.Roundrect(marginX/2, marginY/2, totalW-marginX, headerH-marginY, 8, 8,
		fmt.Sprintf("fill:%s", css(colorHeaderBG)))
	canvas.Text(marginX, marginY+20, opts.Title,
		fmt.Sprintf("fill:%s;font-size:16px;font-family:monospace;font-weight:bold", css(colorText)))
	canvas.Text(marginX, marginY+38, fmt.Sprintf("%d rows", len(opts.Records)),
		fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorSubtle)))

	y := marginY + headerH
	x := marginX
	for _, c := range opts.Columns {
		canvas.Text(x, y, layout.Truncate(c, widths[c]),
			fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace;font-weight:bold", css(colorSubtle)))
		x += (widths[c] + layout.ColumnGap) * cellW
	}
	canvas.Line(marginX, y+6, totalW-marginX, y+6,
		fmt.Sprintf("stroke:%s;stroke-width:1", css(colorStroke)))
	y += rowH

	for i, rec := range opts.Records {
		if i%2 == 1 {
			canvas.Rect(marginX/2, y-rowH+8, totalW-marginX, rowH,
				fmt.Sprintf("fill:%s", css(colorRowAlt)))
		}
		x = marginX
		for _, c := range opts.Columns {
			canvas.Text(x, y, layout.Truncate(rec.Field(c), widths[c]),
				fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorText)))
			x += (widths[c] + layout.ColumnGap) * cellW
		}
		y += rowH

		if len(details[i]) > 0 {
			boxH := rowH*len(details[i]) + detailPad/2
			canvas.Roundrect(marginX, y-rowH+8, totalW-marginX*2, boxH, 6, 6,
				fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", css(colorDetailBG), css(colorStroke)))
			for _, line := range details[i] {
				canvas.Text(marginX+12, y+4, line,
					fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorSubtle)))
				y += rowH
			}
			y += detailPad
		}
	}

	canvas.End()
	return nil
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
