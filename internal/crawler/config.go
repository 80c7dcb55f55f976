package crawler

import (
	"fmt"
	"time"
)

// Config holds the settings for one pipeline run.
type Config struct {
	Sections             []Section
	QuestionIndices      []QuestionIndex
	MaxCandidates        int
	MaxDocuments         int
	MaxQuestionDocuments int
	Pause                time.Duration
	ListingTimeout       time.Duration
	DocumentTimeout      time.Duration
	BlobPrefix           string
	MaxTitleChars        int
}

const (
	defaultMaxTitleChars = 50
	pdfContentType       = "application/pdf"
)

// Validate checks for obviously bad configuration combinations.
func (c Config) Validate() error {
	if len(c.Sections) == 0 && len(c.QuestionIndices) == 0 {
		return fmt.Errorf("at least one section or question index is required")
	}
	if c.MaxCandidates <= 0 {
		return fmt.Errorf("max candidates must be > 0")
	}
	if c.MaxDocuments < 0 || c.MaxQuestionDocuments < 0 {
		return fmt.Errorf("document caps must be >= 0")
	}
	if c.Pause < 0 {
		return fmt.Errorf("pause must be >= 0")
	}
	if c.ListingTimeout <= 0 || c.DocumentTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0")
	}
	return nil
}
