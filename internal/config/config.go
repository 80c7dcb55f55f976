// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/bumidom-archive-crawler/internal/analysis"
	"github.com/JakeFAU/bumidom-archive-crawler/internal/crawler"
	"github.com/JakeFAU/bumidom-archive-crawler/internal/discovery"
	"github.com/JakeFAU/bumidom-archive-crawler/internal/pdftext"
)

// Storage backends for downloaded PDFs.
const (
	BackendLocal = "local"
	BackendGCS   = "gcs"
)

// Export formats understood by the dataset sink.
const (
	FormatCSV      = "csv"
	FormatXLSX     = "xlsx"
	FormatYAML     = "yaml"
	FormatSQLite   = "sqlite"
	FormatPostgres = "postgres"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Crawler  CrawlerConfig  `mapstructure:"crawler"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	PDF      PDFConfig      `mapstructure:"pdf"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Export   ExportConfig   `mapstructure:"export"`
	DB       DBConfig       `mapstructure:"db"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// ArchiveConfig locates the listing pages to scan.
type ArchiveConfig struct {
	SectionURLTemplate   string `mapstructure:"section_url_template"`
	SectionName          string `mapstructure:"section_name"`
	Legislatures         []int  `mapstructure:"legislatures"`
	QuestionURLTemplate  string `mapstructure:"question_url_template"`
	QuestionLegislatures []int  `mapstructure:"question_legislatures"`
}

// CrawlerConfig governs caps and pacing of a run.
type CrawlerConfig struct {
	MaxCandidates        int           `mapstructure:"max_candidates"`
	MaxDocuments         int           `mapstructure:"max_documents"`
	MaxQuestionDocuments int           `mapstructure:"max_question_documents"`
	MaxLinksPerPage      int           `mapstructure:"max_links_per_page"`
	Pause                time.Duration `mapstructure:"pause"`
	MaxTitleChars        int           `mapstructure:"max_title_chars"`
	LinkPatterns         []string      `mapstructure:"link_patterns"`
	QuestionPattern      string        `mapstructure:"question_pattern"`
}

// HTTPConfig configures the fetcher.
type HTTPConfig struct {
	UserAgent       string        `mapstructure:"user_agent"`
	AcceptLanguage  string        `mapstructure:"accept_language"`
	ListingTimeout  time.Duration `mapstructure:"listing_timeout"`
	DocumentTimeout time.Duration `mapstructure:"document_timeout"`
	MaxBodyBytes    int           `mapstructure:"max_body_bytes"`
}

// AnalysisConfig tunes keyword matching.
type AnalysisConfig struct {
	Patterns              []string `mapstructure:"patterns"`
	ContextRadius         int      `mapstructure:"context_radius"`
	MaxContexts           int      `mapstructure:"max_contexts"`
	MaxContextsPerPattern int      `mapstructure:"max_contexts_per_pattern"`
}

// PDFConfig bounds text extraction.
type PDFConfig struct {
	PageLimit    int `mapstructure:"page_limit"`
	ExcerptChars int `mapstructure:"excerpt_chars"`
}

// StorageConfig selects where downloaded PDFs are persisted.
type StorageConfig struct {
	Backend   string `mapstructure:"backend"`
	LocalDir  string `mapstructure:"local_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// ExportConfig selects dataset outputs.
type ExportConfig struct {
	Dir        string   `mapstructure:"dir"`
	Formats    []string `mapstructure:"formats"`
	BaseName   string   `mapstructure:"base_name"`
	ReportName string   `mapstructure:"report_name"`
	SQLitePath string   `mapstructure:"sqlite_path"`
}

// DBConfig controls access to the Postgres dataset store.
type DBConfig struct {
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// MetricsConfig names the optional Prometheus textfile written after a run.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BUMIDOM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("archive.section_url_template", "https://archives.assemblee-nationale.fr/%d/cri/")
	v.SetDefault("archive.section_name", "leg%d-cri")
	v.SetDefault("archive.legislatures", []int{6, 5, 4, 3})
	v.SetDefault("archive.question_url_template", "https://archives.assemblee-nationale.fr/%d/qst/")
	v.SetDefault("archive.question_legislatures", []int{2, 3, 4, 5})
	v.SetDefault("crawler.max_candidates", 50)
	v.SetDefault("crawler.max_documents", 10)
	v.SetDefault("crawler.max_question_documents", 5)
	v.SetDefault("crawler.max_links_per_page", 50)
	v.SetDefault("crawler.pause", 2*time.Second)
	v.SetDefault("crawler.max_title_chars", 50)
	v.SetDefault("crawler.link_patterns", discovery.DefaultLinkPatterns)
	v.SetDefault("crawler.question_pattern", discovery.DefaultQuestionPattern)
	v.SetDefault("http.user_agent", "Mozilla/5.0 (compatible; bumidom-archive-crawler/1.0)")
	v.SetDefault("http.accept_language", "fr-FR,fr;q=0.9,en;q=0.5")
	v.SetDefault("http.listing_timeout", 10*time.Second)
	v.SetDefault("http.document_timeout", 30*time.Second)
	v.SetDefault("http.max_body_bytes", 50*1024*1024)
	v.SetDefault("analysis.patterns", analysis.DefaultPatterns)
	v.SetDefault("analysis.context_radius", 100)
	v.SetDefault("analysis.max_contexts", 5)
	v.SetDefault("analysis.max_contexts_per_pattern", 3)
	v.SetDefault("pdf.page_limit", 10)
	v.SetDefault("pdf.excerpt_chars", 5000)
	v.SetDefault("storage.backend", BackendLocal)
	v.SetDefault("storage.local_dir", "bumidom_data")
	v.SetDefault("storage.prefix", "pdfs")
	v.SetDefault("export.dir", "bumidom_data")
	v.SetDefault("export.formats", []string{FormatCSV, FormatXLSX})
	v.SetDefault("export.base_name", "bumidom_documents")
	v.SetDefault("export.report_name", "bumidom_report.txt")
	v.SetDefault("export.sqlite_path", "bumidom_data/bumidom.db")
	v.SetDefault("db.max_open_conns", 4)
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "info")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if len(c.Archive.Legislatures) == 0 && len(c.Archive.QuestionLegislatures) == 0 {
		return fmt.Errorf("archive.legislatures or archive.question_legislatures must be set")
	}
	if len(c.Archive.Legislatures) > 0 && !strings.Contains(c.Archive.SectionURLTemplate, "%d") {
		return fmt.Errorf("archive.section_url_template must contain %%d")
	}
	if len(c.Archive.QuestionLegislatures) > 0 && !strings.Contains(c.Archive.QuestionURLTemplate, "%d") {
		return fmt.Errorf("archive.question_url_template must contain %%d")
	}
	if c.Crawler.MaxCandidates <= 0 {
		return fmt.Errorf("crawler.max_candidates must be > 0")
	}
	if c.Crawler.MaxDocuments < 0 || c.Crawler.MaxQuestionDocuments < 0 {
		return fmt.Errorf("crawler document caps must be >= 0")
	}
	if c.Crawler.Pause < 0 {
		return fmt.Errorf("crawler.pause must be >= 0")
	}
	if c.HTTP.ListingTimeout <= 0 || c.HTTP.DocumentTimeout <= 0 {
		return fmt.Errorf("http timeouts must be > 0")
	}
	if c.PDF.PageLimit <= 0 || c.PDF.ExcerptChars <= 0 {
		return fmt.Errorf("pdf.page_limit and pdf.excerpt_chars must be > 0")
	}
	if c.Analysis.ContextRadius < 0 || c.Analysis.MaxContexts < 0 || c.Analysis.MaxContextsPerPattern < 0 {
		return fmt.Errorf("analysis limits must be >= 0")
	}
	switch c.Storage.Backend {
	case BackendLocal:
		if c.Storage.LocalDir == "" {
			return fmt.Errorf("storage.local_dir must be set for the local backend")
		}
	case BackendGCS:
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket must be set for the gcs backend")
		}
	default:
		return fmt.Errorf("unknown storage.backend %q", c.Storage.Backend)
	}
	for _, format := range c.Export.Formats {
		switch format {
		case FormatCSV, FormatXLSX, FormatYAML:
			if c.Export.Dir == "" {
				return fmt.Errorf("export.dir must be set for %s export", format)
			}
		case FormatSQLite:
			if c.Export.SQLitePath == "" {
				return fmt.Errorf("export.sqlite_path must be set for sqlite export")
			}
		case FormatPostgres:
			if c.DB.DSN == "" {
				return fmt.Errorf("db.dsn must be set for postgres export")
			}
		default:
			return fmt.Errorf("unknown export format %q", format)
		}
	}
	return nil
}

// CrawlerConfig converts the loaded settings into the engine configuration.
func (c Config) CrawlerConfig() crawler.Config {
	sections := make([]crawler.Section, 0, len(c.Archive.Legislatures))
	for _, n := range c.Archive.Legislatures {
		sections = append(sections, crawler.Section{
			Name:        fmt.Sprintf(c.Archive.SectionName, n),
			URL:         fmt.Sprintf(c.Archive.SectionURLTemplate, n),
			Legislature: n,
		})
	}
	indices := make([]crawler.QuestionIndex, 0, len(c.Archive.QuestionLegislatures))
	for _, n := range c.Archive.QuestionLegislatures {
		indices = append(indices, crawler.QuestionIndex{
			Legislature: n,
			URL:         fmt.Sprintf(c.Archive.QuestionURLTemplate, n),
		})
	}
	return crawler.Config{
		Sections:             sections,
		QuestionIndices:      indices,
		MaxCandidates:        c.Crawler.MaxCandidates,
		MaxDocuments:         c.Crawler.MaxDocuments,
		MaxQuestionDocuments: c.Crawler.MaxQuestionDocuments,
		Pause:                c.Crawler.Pause,
		ListingTimeout:       c.HTTP.ListingTimeout,
		DocumentTimeout:      c.HTTP.DocumentTimeout,
		BlobPrefix:           c.Storage.Prefix,
		MaxTitleChars:        c.Crawler.MaxTitleChars,
	}
}

// DiscoveryConfig converts the link matching settings.
func (c Config) DiscoveryConfig() discovery.Config {
	return discovery.Config{
		LinkPatterns:    c.Crawler.LinkPatterns,
		QuestionPattern: c.Crawler.QuestionPattern,
		MaxLinksPerPage: c.Crawler.MaxLinksPerPage,
	}
}

// AnalysisConfig converts the keyword matching settings.
func (c Config) AnalysisConfig() analysis.Config {
	return analysis.Config{
		Patterns:              c.Analysis.Patterns,
		ContextRadius:         c.Analysis.ContextRadius,
		MaxContexts:           c.Analysis.MaxContexts,
		MaxContextsPerPattern: c.Analysis.MaxContextsPerPattern,
	}
}

// PDFConfig converts the extraction bounds.
func (c Config) PDFConfig() pdftext.Config {
	return pdftext.Config{
		PageLimit:    c.PDF.PageLimit,
		ExcerptChars: c.PDF.ExcerptChars,
	}
}
