package crawler

import (
	"context"
	"io"
	"time"
)

// Fetcher performs a GET and returns the status and body. Non-2xx statuses
// are returned in the response, transport failures as an error.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// Discoverer turns listing HTML into PDF link candidates.
type Discoverer interface {
	Sections(body []byte, baseURL string, source string) ([]LinkCandidate, error)
	Questions(body []byte, baseURL string, legislature int) ([]LinkCandidate, error)
}

// Extractor pulls bounded text and metadata from PDF bytes.
type Extractor interface {
	Extract(data []byte, link LinkCandidate) (ExtractedDocument, error)
}

// Analyzer scores document text for topic mentions.
type Analyzer interface {
	Analyze(text string) AnalysisResult
}

// Reporter renders the human-readable run summary.
type Reporter interface {
	Build(ds Dataset) string
}

// BlobStore writes raw artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, r io.Reader) (string, error)
}

// Sink receives the dataset and report at the end of a run.
type Sink interface {
	WriteDataset(ctx context.Context, ds Dataset) error
	WriteReport(ctx context.Context, ds Dataset, report string) error
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs.
type IDGenerator interface {
	NewID() (string, error)
}
