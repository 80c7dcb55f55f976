// Package app builds the long-lived services of a run from configuration,
// acting as a dependency injection container for the CLI commands.
package app

import (
	"context"
	"fmt"
	"path/filepath"

	gcstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/bumidom-archive-crawler/internal/analysis"
	"github.com/JakeFAU/bumidom-archive-crawler/internal/clock"
	"github.com/JakeFAU/bumidom-archive-crawler/internal/config"
	"github.com/JakeFAU/bumidom-archive-crawler/internal/crawler"
	"github.com/JakeFAU/bumidom-archive-crawler/internal/discovery"
	"github.com/JakeFAU/bumidom-archive-crawler/internal/export"
	collyfetcher "github.com/JakeFAU/bumidom-archive-crawler/internal/fetcher/colly"
	"github.com/JakeFAU/bumidom-archive-crawler/internal/id/uuid"
	"github.com/JakeFAU/bumidom-archive-crawler/internal/pdftext"
	"github.com/JakeFAU/bumidom-archive-crawler/internal/report"
	"github.com/JakeFAU/bumidom-archive-crawler/internal/storage/gcs"
	"github.com/JakeFAU/bumidom-archive-crawler/internal/storage/local"
	"github.com/JakeFAU/bumidom-archive-crawler/internal/storage/postgres"
	"github.com/JakeFAU/bumidom-archive-crawler/internal/storage/sqlite"
)

// App holds the services shared by the commands.
type App struct {
	cfg     config.Config
	logger  *zap.Logger
	blobs   crawler.BlobStore
	writers []export.DatasetWriter
	sink    *export.Sink
	closers []func()
}

// NewApp initializes storage and export backends. It fails fast when a
// configured backend cannot be opened.
func NewApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{cfg: cfg, logger: logger}

	if err := a.initBlobStore(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.initWriters(ctx); err != nil {
		a.Close()
		return nil, err
	}
	a.sink = export.NewSink(logger, filepath.Join(cfg.Export.Dir, cfg.Export.ReportName), a.writers...)
	logger.Info("Application services initialized",
		zap.String("storage", cfg.Storage.Backend),
		zap.Strings("formats", cfg.Export.Formats),
	)
	return a, nil
}

func (a *App) initBlobStore(ctx context.Context) error {
	switch a.cfg.Storage.Backend {
	case config.BackendGCS:
		client, err := gcstorage.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("create gcs client: %w", err)
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		store, err := gcs.New(client, gcs.Config{Bucket: a.cfg.Storage.GCSBucket})
		if err != nil {
			return fmt.Errorf("init gcs storage: %w", err)
		}
		a.logger.Info("Using GCS storage", zap.String("bucket", a.cfg.Storage.GCSBucket))
		a.blobs = store
	case config.BackendLocal:
		store, err := local.New(local.Config{BaseDir: a.cfg.Storage.LocalDir})
		if err != nil {
			return fmt.Errorf("init local storage: %w", err)
		}
		a.logger.Info("Using local storage", zap.String("dir", a.cfg.Storage.LocalDir))
		a.blobs = store
	default:
		return fmt.Errorf("unknown storage backend: %s", a.cfg.Storage.Backend)
	}
	return nil
}

func (a *App) initWriters(ctx context.Context) error {
	base := filepath.Join(a.cfg.Export.Dir, a.cfg.Export.BaseName)
	for _, format := range a.cfg.Export.Formats {
		switch format {
		case config.FormatCSV:
			a.writers = append(a.writers, export.CSVWriter{Path: base + ".csv"})
		case config.FormatXLSX:
			a.writers = append(a.writers, export.XLSXWriter{Path: base + ".xlsx"})
		case config.FormatYAML:
			a.writers = append(a.writers, export.YAMLWriter{Path: base + ".yaml"})
		case config.FormatSQLite:
			store, err := sqlite.Open(a.cfg.Export.SQLitePath)
			if err != nil {
				return fmt.Errorf("init sqlite export: %w", err)
			}
			a.closers = append(a.closers, func() { _ = store.Close() })
			a.writers = append(a.writers, store)
		case config.FormatPostgres:
			store, err := postgres.NewRecordStore(ctx, postgres.Config{
				DSN:      a.cfg.DB.DSN,
				MaxConns: int32(a.cfg.DB.MaxOpenConns),
			})
			if err != nil {
				return fmt.Errorf("init postgres export: %w", err)
			}
			a.closers = append(a.closers, store.Close)
			a.writers = append(a.writers, store)
		default:
			return fmt.Errorf("unknown export format: %s", format)
		}
	}
	return nil
}

// Logger returns the shared logger.
func (a *App) Logger() *zap.Logger { return a.logger }

// Config returns the configuration the App was built from.
func (a *App) Config() config.Config { return a.cfg }

// Writers lists the dataset writers in configured order.
func (a *App) Writers() []export.DatasetWriter { return a.writers }

// Extractor builds the PDF extractor.
func (a *App) Extractor() *pdftext.Extractor {
	return pdftext.New(a.cfg.PDFConfig(), a.logger.Named("pdf"))
}

// Analyzer compiles the configured topic patterns.
func (a *App) Analyzer() (*analysis.Analyzer, error) {
	an, err := analysis.Compile(a.cfg.AnalysisConfig())
	if err != nil {
		return nil, fmt.Errorf("compile analysis patterns: %w", err)
	}
	return an, nil
}

// Engine wires the full pipeline.
func (a *App) Engine() (*crawler.Engine, error) {
	disc, err := discovery.Compile(a.cfg.DiscoveryConfig())
	if err != nil {
		return nil, fmt.Errorf("compile link patterns: %w", err)
	}
	an, err := a.Analyzer()
	if err != nil {
		return nil, err
	}
	engineCfg := a.cfg.CrawlerConfig()
	if err := engineCfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent:      a.cfg.HTTP.UserAgent,
		AcceptLanguage: a.cfg.HTTP.AcceptLanguage,
		Timeout:        a.cfg.HTTP.DocumentTimeout,
		MaxBodySize:    a.cfg.HTTP.MaxBodyBytes,
	})
	return crawler.NewEngine(engineCfg, crawler.Dependencies{
		Fetcher:    fetcher,
		Discoverer: disc,
		Extractor:  a.Extractor(),
		Analyzer:   an,
		Reporter:   report.New(),
		Blobs:      a.blobs,
		Sink:       a.sink,
		Clock:      clock.System{},
		IDs:        uuid.New(),
	}, a.logger.Named("engine")), nil
}

// Close releases every opened backend in reverse order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
