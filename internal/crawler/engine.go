package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/bumidom-archive-crawler/internal/clock"
)

// Phase is a step of the run state machine. Phases never overlap.
type Phase string

// Pipeline phases in execution order.
const (
	PhaseIdle        Phase = "idle"
	PhaseDiscovering Phase = "discovering"
	PhaseDownloading Phase = "downloading"
	PhaseAnalyzing   Phase = "analyzing"
	PhaseAggregating Phase = "aggregating"
	PhaseReporting   Phase = "reporting"
	PhaseDone        Phase = "done"
)

// Dependencies bundles the collaborators the Engine drives.
type Dependencies struct {
	Fetcher    Fetcher
	Discoverer Discoverer
	Extractor  Extractor
	Analyzer   Analyzer
	Reporter   Reporter
	Blobs      BlobStore
	Sink       Sink
	Clock      Clock
	IDs        IDGenerator
	Pauser     Pauser
}

// RunStats counts what happened during a run.
type RunStats struct {
	SectionsScanned    int
	SectionsSkipped    int
	Candidates         int
	QuestionCandidates int
	Downloaded         int
	Skipped            int
	Degraded           int
}

// RunResult is returned by Engine.Run.
type RunResult struct {
	Dataset Dataset
	Report  string
	Stats   RunStats
	// Empty is set when no record survived; the report says so.
	Empty bool
}

// Engine orchestrates one sequential archive run.
type Engine struct {
	cfg    Config
	deps   Dependencies
	pauser Pauser
	logger *zap.Logger
	phase  Phase
	// blob paths written during the current run
	taken  map[string]struct{}
}

// NewEngine wires the collaborators and fills in defaults for the optional ones.
func NewEngine(cfg Config, deps Dependencies, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = clock.System{}
	}
	if deps.Pauser == nil {
		deps.Pauser = &timerPauseController{}
	}
	return &Engine{
		cfg:    cfg,
		deps:   deps,
		pauser: deps.Pauser,
		logger: logger,
		phase:  PhaseIdle,
	}
}

// Phase returns the phase the engine is in.
func (e *Engine) Phase() Phase {
	return e.phase
}

type download struct {
	link LinkCandidate
	body []byte
	file string
	uri  string
	at   time.Time
}

// Run executes every phase in order. Individual failures are logged and
// absorbed; only context cancellation or a sink failure is returned.
func (e *Engine) Run(ctx context.Context) (RunResult, error) {
	if err := ctx.Err(); err != nil {
		return RunResult{}, fmt.Errorf("run not started: %w", err)
	}
	runID, err := e.newRunID()
	if err != nil {
		return RunResult{}, err
	}
	e.taken = make(map[string]struct{})
	started := e.deps.Clock.Now()
	logger := e.logger.With(zap.String("run_id", runID))
	var stats RunStats

	e.enter(logger, PhaseDiscovering)
	docs := e.discoverSections(ctx, logger, &stats)
	questions := e.discoverQuestions(ctx, logger, &stats)
	if err := ctx.Err(); err != nil {
		return RunResult{}, fmt.Errorf("run canceled while %s: %w", e.phase, err)
	}

	e.enter(logger, PhaseDownloading)
	downloads := e.downloadAll(ctx, logger, limit(docs, e.cfg.MaxDocuments), &stats)
	downloads = append(downloads, e.downloadAll(ctx, logger, limit(questions, e.cfg.MaxQuestionDocuments), &stats)...)
	if err := ctx.Err(); err != nil {
		return RunResult{}, fmt.Errorf("run canceled while %s: %w", e.phase, err)
	}

	e.enter(logger, PhaseAnalyzing)
	records := make([]Record, 0, len(downloads))
	for _, dl := range downloads {
		out := e.analyze(dl)
		e.observe(logger, dl.link, out, &stats)
		if out.HasRecord() {
			records = append(records, out.Record)
		}
	}

	e.enter(logger, PhaseAggregating)
	ds := Dataset{
		RunID:      runID,
		StartedAt:  started,
		FinishedAt: e.deps.Clock.Now(),
		Records:    records,
	}

	e.enter(logger, PhaseReporting)
	result := RunResult{Dataset: ds, Stats: stats, Empty: len(records) == 0}
	if e.deps.Reporter != nil {
		result.Report = e.deps.Reporter.Build(ds)
	}
	if result.Empty {
		logger.Info("No documents found")
	}
	if e.deps.Sink != nil {
		if err := e.deps.Sink.WriteDataset(ctx, ds); err != nil {
			return result, fmt.Errorf("write dataset: %w", err)
		}
		if err := e.deps.Sink.WriteReport(ctx, ds, result.Report); err != nil {
			return result, fmt.Errorf("write report: %w", err)
		}
	}

	e.enter(logger, PhaseDone)
	logger.Info("Run finished",
		zap.Int("records", len(records)),
		zap.Int("skipped", stats.Skipped),
		zap.Int("degraded", stats.Degraded),
		zap.Int("sections_skipped", stats.SectionsSkipped),
	)
	return result, nil
}

func (e *Engine) newRunID() (string, error) {
	if e.deps.IDs == nil {
		return e.deps.Clock.Now().Format("20060102T150405Z"), nil
	}
	id, err := e.deps.IDs.NewID()
	if err != nil {
		return "", fmt.Errorf("generate run id: %w", err)
	}
	return id, nil
}

func (e *Engine) enter(logger *zap.Logger, phase Phase) {
	e.phase = phase
	PhaseTransitions.WithLabelValues(string(phase)).Inc()
	logger.Debug("Entering phase", zap.String("phase", string(phase)))
}

func (e *Engine) discoverSections(ctx context.Context, logger *zap.Logger, stats *RunStats) []LinkCandidate {
	var out []LinkCandidate
	for _, section := range e.cfg.Sections {
		if ctx.Err() != nil || len(out) >= e.cfg.MaxCandidates {
			break
		}
		body, err := e.fetchListing(ctx, section.URL)
		var links []LinkCandidate
		if err == nil {
			links, err = e.deps.Discoverer.Sections(body, section.URL, section.Name)
		}
		if err != nil {
			stats.SectionsSkipped++
			SectionsTotal.WithLabelValues(string(KindDocument), "skipped").Inc()
			logger.Warn("Skipping section", zap.String("section", section.Name), zap.String("url", section.URL), zap.Error(err))
			continue
		}
		for i := range links {
			if links[i].Legislature == 0 {
				links[i].Legislature = section.Legislature
			}
		}
		stats.SectionsScanned++
		SectionsTotal.WithLabelValues(string(KindDocument), "ok").Inc()
		logger.Info("Section scanned", zap.String("section", section.Name), zap.Int("links", len(links)))
		out = append(out, links...)
	}
	out = limit(out, e.cfg.MaxCandidates)
	stats.Candidates = len(out)
	return out
}

func (e *Engine) discoverQuestions(ctx context.Context, logger *zap.Logger, stats *RunStats) []LinkCandidate {
	var out []LinkCandidate
	for _, index := range e.cfg.QuestionIndices {
		if ctx.Err() != nil || len(out) >= e.cfg.MaxCandidates {
			break
		}
		body, err := e.fetchListing(ctx, index.URL)
		var links []LinkCandidate
		if err == nil {
			links, err = e.deps.Discoverer.Questions(body, index.URL, index.Legislature)
		}
		if err != nil {
			stats.SectionsSkipped++
			SectionsTotal.WithLabelValues(string(KindWrittenQuestion), "skipped").Inc()
			logger.Warn("Skipping question index", zap.Int("legislature", index.Legislature), zap.String("url", index.URL), zap.Error(err))
			continue
		}
		stats.SectionsScanned++
		SectionsTotal.WithLabelValues(string(KindWrittenQuestion), "ok").Inc()
		logger.Info("Question index scanned", zap.Int("legislature", index.Legislature), zap.Int("links", len(links)))
		out = append(out, links...)
	}
	out = limit(out, e.cfg.MaxCandidates)
	stats.QuestionCandidates = len(out)
	return out
}

func (e *Engine) fetchListing(ctx context.Context, rawURL string) ([]byte, error) {
	defer e.pauser.Pause(ctx, e.cfg.Pause)
	resp, err := e.deps.Fetcher.Fetch(ctx, FetchRequest{URL: rawURL, Timeout: e.cfg.ListingTimeout})
	if err != nil {
		return nil, asTransportError(rawURL, resp.StatusCode, err)
	}
	if !resp.OK() {
		return nil, &TransportError{URL: rawURL, Status: resp.StatusCode}
	}
	return resp.Body, nil
}

func (e *Engine) downloadAll(ctx context.Context, logger *zap.Logger, links []LinkCandidate, stats *RunStats) []download {
	out := make([]download, 0, len(links))
	for i, link := range links {
		if ctx.Err() != nil {
			break
		}
		logger.Info("Downloading document",
			zap.Int("item", i+1),
			zap.Int("of", len(links)),
			zap.String("kind", string(link.Kind)),
			zap.String("url", link.URL),
		)
		dl, err := e.download(ctx, link)
		if err != nil {
			e.observe(logger, link, Skip(err), stats)
			continue
		}
		stats.Downloaded++
		out = append(out, dl)
		e.pauser.Pause(ctx, e.cfg.Pause)
	}
	return out
}

func (e *Engine) download(ctx context.Context, link LinkCandidate) (download, error) {
	resp, err := e.deps.Fetcher.Fetch(ctx, FetchRequest{URL: link.URL, Timeout: e.cfg.DocumentTimeout})
	if err != nil {
		return download{}, asTransportError(link.URL, resp.StatusCode, err)
	}
	if !resp.OK() {
		return download{}, &TransportError{URL: link.URL, Status: resp.StatusCode}
	}
	file := claimPath(blobPath(e.cfg.BlobPrefix, documentFilename(link.Title, link.URL, e.cfg.MaxTitleChars)), e.taken)
	uri := file
	if e.deps.Blobs != nil {
		uri, err = e.deps.Blobs.PutObject(ctx, file, pdfContentType, bytes.NewReader(resp.Body))
		if err != nil {
			return download{}, fmt.Errorf("store %s: %w", file, err)
		}
	}
	BytesDownloaded.Add(float64(len(resp.Body)))
	return download{
		link: link,
		body: resp.Body,
		file: file,
		uri:  uri,
		at:   e.deps.Clock.Now(),
	}, nil
}

func (e *Engine) analyze(dl download) Outcome {
	base := Record{
		Title:        dl.link.Title,
		URL:          dl.link.URL,
		Source:       dl.link.Source,
		Kind:         dl.link.Kind,
		Legislature:  dl.link.Legislature,
		Author:       Unknown,
		CreationDate: Unknown,
		Subject:      Unknown,
		LocalFile:    dl.file,
		LocalURI:     dl.uri,
		LocalSize:    int64(len(dl.body)),
		DownloadedAt: dl.at,
	}
	doc, err := e.deps.Extractor.Extract(dl.body, dl.link)
	if err != nil {
		var extractErr *ExtractionError
		if !errors.As(err, &extractErr) {
			err = &ExtractionError{URL: dl.link.URL, Title: dl.link.Title, Source: dl.link.Source, Err: err}
		}
		return Degrade(base, err)
	}
	analysis := e.deps.Analyzer.Analyze(doc.Text)

	rec := base
	if doc.Title != "" {
		rec.Title = doc.Title
	}
	rec.PageCount = doc.PageCount
	rec.Excerpt = doc.Excerpt
	rec.Author = orUnknown(doc.Author)
	rec.CreationDate = orUnknown(doc.CreationDate)
	rec.Subject = orUnknown(doc.Subject)
	rec.Keywords = analysis.Keywords
	rec.MentionCount = analysis.MentionCount
	rec.Contexts = analysis.Contexts
	MentionsTotal.Add(float64(analysis.MentionCount))
	return Ok(rec)
}

func (e *Engine) observe(logger *zap.Logger, link LinkCandidate, out Outcome, stats *RunStats) {
	DocumentsTotal.WithLabelValues(string(out.Kind)).Inc()
	switch out.Kind {
	case OutcomeSkip:
		stats.Skipped++
		logger.Warn("Skipping document", zap.String("url", link.URL), zap.String("title", link.Title), zap.Error(out.Reason))
	case OutcomeDegraded:
		stats.Degraded++
		logger.Error("Extraction failed; keeping degraded record", zap.String("url", link.URL), zap.Error(out.Reason))
	case OutcomeOK:
		logger.Info("Document analyzed",
			zap.String("title", out.Record.Title),
			zap.Int("pages", out.Record.PageCount),
			zap.Int("mentions", out.Record.MentionCount),
			zap.Strings("keywords", out.Record.Keywords),
		)
	}
}

func asTransportError(rawURL string, status int, err error) error {
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	return &TransportError{URL: rawURL, Status: status, Err: err}
}

func limit(links []LinkCandidate, n int) []LinkCandidate {
	if n < 0 {
		n = 0
	}
	if len(links) > n {
		return links[:n]
	}
	return links
}

func orUnknown(s string) string {
	if s == "" {
		return Unknown
	}
	return s
}
