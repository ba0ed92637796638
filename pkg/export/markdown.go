package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/vanderheijden86/propdeck/pkg/model"
)

// MarkdownOptions describes one Markdown export.
type MarkdownOptions struct {
	Title   string
	Columns []string
	Records []*model.Record
	// Complete marks the record set as possibly partial when false; the
	// export carries a warning so a pasted board is not mistaken for the
	// full slate.
	Complete bool
	Now      time.Time
}

// GridMarkdown renders the grid as a GitHub-flavored Markdown table.
func GridMarkdown(opts MarkdownOptions) string {
	var sb strings.Builder
	if opts.Title != "" {
		fmt.Fprintf(&sb, "## %s\n\n", opts.Title)
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	fmt.Fprintf(&sb, "_%d rows, exported %s_\n\n", len(opts.Records), now.Format("2006-01-02 15:04 MST"))
	if !opts.Complete {
		sb.WriteString("> **Warning:** the feed returned a partial record set; rows may be missing.\n\n")
	}

	sb.WriteString("|")
	for _, c := range opts.Columns {
		sb.WriteString(" " + escapeCell(c) + " |")
	}
	sb.WriteString("\n|")
	for range opts.Columns {
		sb.WriteString(" --- |")
	}
	sb.WriteString("\n")

	for _, rec := range opts.Records {
		sb.WriteString("|")
		for _, c := range opts.Columns {
			sb.WriteString(" " + escapeCell(rec.Field(c)) + " |")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// SaveGridMarkdown writes the Markdown export to path.
func SaveGridMarkdown(path string, opts MarkdownOptions) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating markdown file: %w", err)
	}
	defer file.Close()
	return writeMarkdown(file, opts)
}

func writeMarkdown(w io.Writer, opts MarkdownOptions) error {
	_, err := io.WriteString(w, GridMarkdown(opts))
	return err
}

// escapeCell neutralizes the characters that break a Markdown table cell.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	if s == "" {
		return " "
	}
	return s
}
