package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/JakeFAU/bumidom-archive-crawler/internal/analysis"
	"github.com/JakeFAU/bumidom-archive-crawler/internal/crawler"
	"github.com/JakeFAU/bumidom-archive-crawler/internal/pdftext"
)

// analysisOutput is the printed shape of a single-file analysis.
type analysisOutput struct {
	File         string   `yaml:"file"`
	PageCount    int      `yaml:"page_count"`
	Author       string   `yaml:"author"`
	CreationDate string   `yaml:"creation_date"`
	Subject      string   `yaml:"subject"`
	Keywords     []string `yaml:"keywords"`
	MentionCount int      `yaml:"mention_count"`
	Contexts     []string `yaml:"contexts"`
}

func newAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <file.pdf>",
		Short: "Extract and score a local PDF",
		Long: `Runs the PDF extractor and the topic analyzer on one local file and prints the
result as YAML. Useful for checking patterns against a known document.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := resolveSession(cmd.Context())
			if err != nil {
				return err
			}
			an, err := analysis.Compile(rt.cfg.AnalysisConfig())
			if err != nil {
				return fmt.Errorf("compile analysis patterns: %w", err)
			}
			extractor := pdftext.New(rt.cfg.PDFConfig(), rt.logger.Named("pdf"))
			return analyzeFile(cmd.OutOrStdout(), args[0], extractor, an)
		},
	}
}

func analyzeFile(out io.Writer, path string, extractor crawler.Extractor, an crawler.Analyzer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	doc, err := extractor.Extract(data, crawler.LinkCandidate{
		URL:    "file://" + filepath.ToSlash(path),
		Title:  title,
		Source: "local",
		Kind:   crawler.KindDocument,
	})
	if err != nil {
		return err
	}
	res := an.Analyze(doc.Text)

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(analysisOutput{
		File:         path,
		PageCount:    doc.PageCount,
		Author:       doc.Author,
		CreationDate: doc.CreationDate,
		Subject:      doc.Subject,
		Keywords:     res.Keywords,
		MentionCount: res.MentionCount,
		Contexts:     res.Contexts,
	}); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return enc.Close()
}
