// Package report renders the human-readable summary of a run.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/JakeFAU/bumidom-archive-crawler/internal/crawler"
)

// NotApplicable stands in for statistics that have no value on an empty dataset.
const NotApplicable = "not applicable"

const rule = "================================================================"

// Builder implements crawler.Reporter.
type Builder struct {
	now func() time.Time
}

// New returns a Builder stamping reports with the dataset finish time, or the
// wall clock when the dataset has none.
func New() *Builder {
	return &Builder{now: func() time.Time { return time.Now().UTC() }}
}

// Stats are the aggregate figures printed at the end of the report.
type Stats struct {
	Documents            int
	TotalMentions        int
	DocumentsWithMention int
	Degraded             int
	TotalBytes           int64
}

// Summarize computes the aggregate statistics for ds.
func Summarize(ds crawler.Dataset) Stats {
	s := Stats{Documents: len(ds.Records)}
	for _, r := range ds.Records {
		s.TotalMentions += r.MentionCount
		if r.MentionCount > 0 {
			s.DocumentsWithMention++
		}
		if r.Degraded() {
			s.Degraded++
		}
		s.TotalBytes += r.LocalSize
	}
	return s
}

// MeanSize is the mean stored file size, or NotApplicable for no documents.
func (s Stats) MeanSize() string {
	if s.Documents == 0 {
		return NotApplicable
	}
	return humanize.Bytes(uint64(s.TotalBytes / int64(s.Documents)))
}

// Build renders ds as plain text.
func (b *Builder) Build(ds crawler.Dataset) string {
	stamp := ds.FinishedAt
	if stamp.IsZero() {
		stamp = b.now()
	}
	stats := Summarize(ds)

	var sb strings.Builder
	sb.WriteString(rule + "\n")
	sb.WriteString("BUMIDOM ARCHIVE ANALYSIS REPORT\n")
	sb.WriteString(rule + "\n")
	if ds.RunID != "" {
		fmt.Fprintf(&sb, "Run: %s\n", ds.RunID)
	}
	fmt.Fprintf(&sb, "Generated: %s\n", stamp.UTC().Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&sb, "Documents analyzed: %d\n\n", stats.Documents)

	if stats.Documents == 0 {
		sb.WriteString("No documents found.\n\n")
	} else {
		sb.WriteString("DOCUMENTS\n")
		for i, r := range ds.Records {
			fmt.Fprintf(&sb, "%3d. %s\n", i+1, r.Title)
			fmt.Fprintf(&sb, "     pages: %d | mentions: %d | keywords: %s | source: %s\n",
				r.PageCount, r.MentionCount, keywordList(r.Keywords), r.Source)
			if r.Degraded() {
				fmt.Fprintf(&sb, "     error: %s\n", r.Error)
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString("STATISTICS\n")
	fmt.Fprintf(&sb, "Total mentions: %d\n", stats.TotalMentions)
	fmt.Fprintf(&sb, "Documents with mentions: %d\n", stats.DocumentsWithMention)
	fmt.Fprintf(&sb, "Extraction failures: %d\n", stats.Degraded)
	fmt.Fprintf(&sb, "Mean file size: %s\n\n", stats.MeanSize())

	sb.WriteString("STORED FILES\n")
	stored := 0
	for _, r := range ds.Records {
		if r.LocalFile == "" {
			continue
		}
		stored++
		fmt.Fprintf(&sb, "  - %s (%s)\n", r.LocalFile, humanize.Bytes(uint64(r.LocalSize)))
	}
	if stored == 0 {
		sb.WriteString("  (none)\n")
	}
	return sb.String()
}

func keywordList(keywords []string) string {
	if len(keywords) == 0 {
		return "-"
	}
	return strings.Join(keywords, ", ")
}
