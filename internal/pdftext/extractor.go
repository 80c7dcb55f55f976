// Package pdftext extracts bounded plain text and document metadata from PDF
// bytes using the ledongthuc/pdf reader.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/JakeFAU/bumidom-archive-crawler/internal/crawler"
)

const (
	defaultPageLimit    = 10
	defaultExcerptChars = 5000
)

// ErrEmptyDocument is returned for zero-byte input.
var ErrEmptyDocument = errors.New("empty document")

// Config bounds how much of each document is read and kept.
type Config struct {
	PageLimit    int
	ExcerptChars int
}

// Extractor implements crawler.Extractor.
type Extractor struct {
	pageLimit    int
	excerptChars int
	logger       *zap.Logger
}

// New builds an Extractor. Zero config values fall back to defaults.
func New(cfg Config, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	pageLimit := cfg.PageLimit
	if pageLimit <= 0 {
		pageLimit = defaultPageLimit
	}
	excerpt := cfg.ExcerptChars
	if excerpt <= 0 {
		excerpt = defaultExcerptChars
	}
	return &Extractor{
		pageLimit:    pageLimit,
		excerptChars: excerpt,
		logger:       logger,
	}
}

// Extract reads at most PageLimit pages. The returned Text holds everything
// read; Excerpt is the same text cut to ExcerptChars runes.
func (e *Extractor) Extract(data []byte, link crawler.LinkCandidate) (doc crawler.ExtractedDocument, err error) {
	fail := func(cause error) (crawler.ExtractedDocument, error) {
		return crawler.ExtractedDocument{}, &crawler.ExtractionError{
			URL:    link.URL,
			Title:  link.Title,
			Source: link.Source,
			Err:    cause,
		}
	}
	if len(data) == 0 {
		return fail(ErrEmptyDocument)
	}
	// the reader panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			doc, err = fail(fmt.Errorf("pdf reader panic: %v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fail(fmt.Errorf("open pdf: %w", err))
	}

	pageCount := reader.NumPage()
	var text strings.Builder
	for i := 1; i <= pageCount && i <= e.pageLimit; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, perr := page.GetPlainText(nil)
		if perr != nil {
			e.logger.Debug("Skipping unreadable page", zap.String("url", link.URL), zap.Int("page", i), zap.Error(perr))
			continue
		}
		text.WriteString(content)
		text.WriteString("\n")
	}

	info := reader.Trailer().Key("Info")
	full := text.String()
	return crawler.ExtractedDocument{
		Title:        link.Title,
		URL:          link.URL,
		Source:       link.Source,
		PageCount:    pageCount,
		Excerpt:      truncate(full, e.excerptChars),
		Author:       infoString(info, "Author"),
		CreationDate: pdfDate(infoString(info, "CreationDate")),
		Subject:      infoString(info, "Subject"),
		Text:         full,
	}, nil
}

func infoString(info pdf.Value, key string) string {
	if info.IsNull() {
		return crawler.Unknown
	}
	v := strings.TrimSpace(info.Key(key).Text())
	if v == "" {
		return crawler.Unknown
	}
	return v
}

// pdfDate renders a PDF date string (D:YYYYMMDDHHmmSS...) as YYYY-MM-DD and
// leaves anything it does not recognize untouched.
func pdfDate(raw string) string {
	if raw == crawler.Unknown {
		return raw
	}
	s := strings.TrimPrefix(raw, "D:")
	if len(s) < 8 {
		return raw
	}
	t, err := time.Parse("20060102", s[:8])
	if err != nil {
		return raw
	}
	return t.Format("2006-01-02")
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
