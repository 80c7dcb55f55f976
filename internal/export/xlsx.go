package export

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/JakeFAU/bumidom-archive-crawler/internal/crawler"
)

const defaultSheet = "Documents"

// XLSXWriter writes the dataset as a single-sheet workbook.
type XLSXWriter struct {
	Path  string
	Sheet string
}

// Name implements DatasetWriter.
func (w XLSXWriter) Name() string { return "xlsx" }

// WriteDataset implements DatasetWriter.
func (w XLSXWriter) WriteDataset(_ context.Context, ds crawler.Dataset) error {
	sheet := w.Sheet
	if sheet == "" {
		sheet = defaultSheet
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	header := make([]any, len(crawler.RecordColumns))
	for i, c := range crawler.RecordColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, rec := range ds.Records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := xlsxRow(rec)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 48) // title
	_ = f.SetColWidth(sheet, "B", "B", 60) // url
	_ = f.SetColWidth(sheet, "G", "G", 80) // excerpt
	_ = f.SetColWidth(sheet, "K", "K", 30) // keywords
	_ = f.SetColWidth(sheet, "M", "M", 80) // contexts
	_ = f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	return writeFileAtomic(w.Path, func(out io.Writer) error {
		_, err := f.WriteTo(out)
		return err
	})
}

// xlsxRow keeps numeric columns numeric so spreadsheets can sort and sum them.
func xlsxRow(rec crawler.Record) []any {
	text := rec.Row()
	row := make([]any, len(text))
	for i, v := range text {
		row[i] = v
	}
	row[5] = rec.PageCount
	row[11] = rec.MentionCount
	row[15] = rec.LocalSize
	return row
}
