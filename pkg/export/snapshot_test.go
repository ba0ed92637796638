package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/propdeck/pkg/model"
)

func sampleRecords() []*model.Record {
	return []*model.Record{
		{Player: "Jalen Smith", Team: "NYK", Market: "points", Line: "20.5", Split: "19/31"},
		{Player: "Marc Díaz", Team: "BOS", Market: "rebounds", Line: "8.5", Split: "21 (25.2)"},
		{Player: "A|B Pipes", Team: "LAL", Market: "assists", Line: "6.5", Split: "54%"},
	}
}

var sampleColumns = []string{model.ColPlayer, model.ColTeam, model.ColMarket, model.ColLine, model.ColSplit}

func TestRenderSVGToWriter(t *testing.T) {
	var buf bytes.Buffer
	err := renderSVGToWriter(&buf, SnapshotOptions{
		Title:   "NBA Props",
		Columns: sampleColumns,
		Records: sampleRecords(),
	})
	if err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.Contains(out, "<svg") || !strings.Contains(out, "</svg>") {
		t.Fatal("output is not an SVG document")
	}
	for _, want := range []string{"NBA Props", "3 rows", "Jalen Smith", "NYK", "20.5"} {
		if !strings.Contains(out, want) {
			t.Errorf("snapshot missing %q", want)
		}
	}
}

func TestRenderSVGWithDetails(t *testing.T) {
	recs := sampleRecords()
	var buf bytes.Buffer
	err := renderSVGToWriter(&buf, SnapshotOptions{
		Title:   "board",
		Columns: sampleColumns,
		Records: recs,
		Detail: func(rec *model.Record) []string {
			if rec.Player == "Jalen Smith" {
				return []string{"last 10: 7 over", "opp rank: 24th"}
			}
			return nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "last 10: 7 over") || !strings.Contains(out, "opp rank: 24th") {
		t.Fatal("detail lines missing from snapshot")
	}
}

func TestSaveGridSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.svg")
	err := SaveGridSnapshot(SnapshotOptions{
		Path:    path,
		Title:   "t",
		Columns: sampleColumns,
		Records: sampleRecords(),
	})
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "</svg>") {
		t.Fatal("file is not a complete SVG document")
	}
}

func TestSaveGridSnapshot_BadPath(t *testing.T) {
	err := SaveGridSnapshot(SnapshotOptions{Path: "/nonexistent/dir/board.svg"})
	if err == nil {
		t.Fatal("expected error for unwritable path")
	}
}
