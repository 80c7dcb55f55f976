package crawler

import (
	"strconv"
	"strings"
	"time"
)

// Unknown marks metadata that the source document does not carry.
const Unknown = "unknown"

// ItemKind distinguishes the discovery path a candidate came from.
type ItemKind string

// Candidate kinds.
const (
	KindDocument        ItemKind = "document"
	KindWrittenQuestion ItemKind = "written_question"
)

// LinkCandidate is a PDF link found on a listing page.
type LinkCandidate struct {
	URL         string
	Title       string
	Source      string
	Kind        ItemKind
	Legislature int
}

// ExtractedDocument is the text and metadata pulled out of a PDF.
type ExtractedDocument struct {
	Title        string
	URL          string
	Source       string
	PageCount    int
	Excerpt      string
	Author       string
	CreationDate string
	Subject      string
	// Text is the full page-bounded text. It feeds the analyzer and is not exported.
	Text string
}

// AnalysisResult summarizes topic mentions in a document.
type AnalysisResult struct {
	Keywords     []string
	MentionCount int
	Contexts     []string
}

// Record is one row of the run dataset.
type Record struct {
	Title        string    `json:"title" yaml:"title"`
	URL          string    `json:"url" yaml:"url"`
	Source       string    `json:"source" yaml:"source"`
	Kind         ItemKind  `json:"kind" yaml:"kind"`
	Legislature  int       `json:"legislature,omitempty" yaml:"legislature,omitempty"`
	PageCount    int       `json:"page_count" yaml:"page_count"`
	Excerpt      string    `json:"excerpt" yaml:"excerpt"`
	Author       string    `json:"author" yaml:"author"`
	CreationDate string    `json:"creation_date" yaml:"creation_date"`
	Subject      string    `json:"subject" yaml:"subject"`
	Keywords     []string  `json:"keywords" yaml:"keywords"`
	MentionCount int       `json:"mention_count" yaml:"mention_count"`
	Contexts     []string  `json:"contexts" yaml:"contexts"`
	LocalFile    string    `json:"local_file" yaml:"local_file"`
	LocalURI     string    `json:"local_uri" yaml:"local_uri"`
	LocalSize    int64     `json:"local_size" yaml:"local_size"`
	DownloadedAt time.Time `json:"downloaded_at" yaml:"downloaded_at"`
	Error        string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// Degraded reports whether the record stands in for a failed extraction.
func (r Record) Degraded() bool {
	return r.Error != ""
}

// RecordColumns is the column order shared by the tabular exports.
var RecordColumns = []string{
	"title",
	"url",
	"source",
	"kind",
	"legislature",
	"page_count",
	"excerpt",
	"author",
	"creation_date",
	"subject",
	"keywords",
	"mention_count",
	"contexts",
	"local_file",
	"local_uri",
	"local_size",
	"downloaded_at",
	"error",
}

// Row flattens the record to text in RecordColumns order.
func (r Record) Row() []string {
	downloaded := ""
	if !r.DownloadedAt.IsZero() {
		downloaded = r.DownloadedAt.UTC().Format(time.RFC3339)
	}
	legislature := ""
	if r.Legislature > 0 {
		legislature = strconv.Itoa(r.Legislature)
	}
	return []string{
		r.Title,
		r.URL,
		r.Source,
		string(r.Kind),
		legislature,
		strconv.Itoa(r.PageCount),
		r.Excerpt,
		r.Author,
		r.CreationDate,
		r.Subject,
		strings.Join(r.Keywords, ", "),
		strconv.Itoa(r.MentionCount),
		strings.Join(r.Contexts, " | "),
		r.LocalFile,
		r.LocalURI,
		strconv.FormatInt(r.LocalSize, 10),
		downloaded,
		r.Error,
	}
}

// Dataset is the ordered record collection produced by one run.
type Dataset struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Records    []Record
}

// Section is an archive listing page scanned for document links.
type Section struct {
	Name        string
	URL         string
	Legislature int
}

// QuestionIndex is a per-legislature written questions index page.
type QuestionIndex struct {
	Legislature int
	URL         string
}

// FetchRequest captures a single GET.
type FetchRequest struct {
	URL     string
	Timeout time.Duration
}

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL        string
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// OK reports a 2xx status.
func (r FetchResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
