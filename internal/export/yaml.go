package export

import (
	"context"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/JakeFAU/bumidom-archive-crawler/internal/crawler"
)

// YAMLWriter dumps the dataset, run metadata included, as one YAML document.
type YAMLWriter struct {
	Path string
}

type yamlDataset struct {
	RunID      string           `yaml:"run_id"`
	StartedAt  time.Time        `yaml:"started_at"`
	FinishedAt time.Time        `yaml:"finished_at"`
	Documents  int              `yaml:"documents"`
	Records    []crawler.Record `yaml:"records"`
}

// Name implements DatasetWriter.
func (w YAMLWriter) Name() string { return "yaml" }

// WriteDataset implements DatasetWriter.
func (w YAMLWriter) WriteDataset(_ context.Context, ds crawler.Dataset) error {
	doc := yamlDataset{
		RunID:      ds.RunID,
		StartedAt:  ds.StartedAt,
		FinishedAt: ds.FinishedAt,
		Documents:  len(ds.Records),
		Records:    ds.Records,
	}
	if doc.Records == nil {
		doc.Records = []crawler.Record{}
	}
	return writeFileAtomic(w.Path, func(out io.Writer) error {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	})
}
