package export

import (
	"context"
	"encoding/csv"
	"io"

	"github.com/JakeFAU/bumidom-archive-crawler/internal/crawler"
)

// CSVWriter writes the dataset as a UTF-8 CSV file with a header row.
type CSVWriter struct {
	Path string
}

// Name implements DatasetWriter.
func (w CSVWriter) Name() string { return "csv" }

// WriteDataset implements DatasetWriter.
func (w CSVWriter) WriteDataset(_ context.Context, ds crawler.Dataset) error {
	return writeFileAtomic(w.Path, func(out io.Writer) error {
		cw := csv.NewWriter(out)
		if err := cw.Write(crawler.RecordColumns); err != nil {
			return err
		}
		for _, rec := range ds.Records {
			if err := cw.Write(rec.Row()); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}
