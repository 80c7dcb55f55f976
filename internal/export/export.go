// Package export writes run datasets and reports to their configured
// destinations.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/JakeFAU/bumidom-archive-crawler/internal/crawler"
)

// DatasetWriter persists a dataset in one format.
type DatasetWriter interface {
	Name() string
	WriteDataset(ctx context.Context, ds crawler.Dataset) error
}

// Sink implements crawler.Sink by fanning the dataset out to every writer
// and writing the report as a text file.
type Sink struct {
	writers    []DatasetWriter
	reportPath string
	logger     *zap.Logger
}

// NewSink builds a Sink. An empty reportPath disables the report file.
func NewSink(logger *zap.Logger, reportPath string, writers ...DatasetWriter) *Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{writers: writers, reportPath: reportPath, logger: logger.Named("export")}
}

// WriteDataset runs every writer. A failing writer does not stop the others;
// all failures are returned joined.
func (s *Sink) WriteDataset(ctx context.Context, ds crawler.Dataset) error {
	var errs []error
	for _, w := range s.writers {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("write dataset: %w", err)
		}
		if err := w.WriteDataset(ctx, ds); err != nil {
			s.logger.Error("Dataset export failed", zap.String("writer", w.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", w.Name(), err))
			continue
		}
		s.logger.Info("Dataset exported", zap.String("writer", w.Name()), zap.Int("records", len(ds.Records)))
	}
	return errors.Join(errs...)
}

// WriteReport stores the rendered report.
func (s *Sink) WriteReport(_ context.Context, _ crawler.Dataset, report string) error {
	if s.reportPath == "" {
		return nil
	}
	err := writeFileAtomic(s.reportPath, func(w io.Writer) error {
		_, err := io.WriteString(w, report)
		return err
	})
	if err != nil {
		return err
	}
	s.logger.Info("Report written", zap.String("path", s.reportPath))
	return nil
}

// writeFileAtomic renders into a temp file beside path and renames it into
// place once fill succeeds.
func writeFileAtomic(path string, fill func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".partial-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if err := fill(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
