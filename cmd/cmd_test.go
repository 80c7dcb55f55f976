package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/bumidom-archive-crawler/internal/config"
	"github.com/JakeFAU/bumidom-archive-crawler/internal/crawler"
	"github.com/JakeFAU/bumidom-archive-crawler/internal/id/uuid"
)

type MockPipeline struct {
	mock.Mock
}

func (m *MockPipeline) Run(ctx context.Context) (crawler.RunResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(crawler.RunResult), args.Error(1)
}

func stubConfig(t *testing.T) {
	t.Helper()
	orig := loadConfig
	t.Cleanup(func() { loadConfig = orig })
	loadConfig = func(string) (config.Config, error) {
		cfg, err := orig("")
		if err != nil {
			return cfg, err
		}
		cfg.Logging.Development = false
		cfg.Logging.Level = "error"
		cfg.Metrics.Textfile = filepath.Join(t.TempDir(), "run.prom")
		return cfg, nil
	}
}

func stubPipeline(t *testing.T, p pipeline, err error) *bool {
	t.Helper()
	orig := newPipeline
	t.Cleanup(func() { newPipeline = orig })
	closed := new(bool)
	newPipeline = func(context.Context, config.Config, *zap.Logger) (pipeline, func(), error) {
		if err != nil {
			return nil, nil, err
		}
		return p, func() { *closed = true }, nil
	}
	return closed
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRunPrintsReport(t *testing.T) {
	stubConfig(t)
	p := new(MockPipeline)
	p.On("Run", mock.Anything).Return(crawler.RunResult{
		Dataset: crawler.Dataset{RunID: "run-1"},
		Report:  "Documents analyzed: 0\nNo documents found.\n",
		Empty:   true,
	}, nil).Once()
	closed := stubPipeline(t, p, nil)

	out, err := execute(t, "run")
	require.NoError(t, err)
	assert.Contains(t, out, "No documents found.")
	assert.True(t, *closed)
	p.AssertExpectations(t)
}

func TestRunQuiet(t *testing.T) {
	stubConfig(t)
	p := new(MockPipeline)
	p.On("Run", mock.Anything).Return(crawler.RunResult{Report: "Documents analyzed: 3\n"}, nil).Once()
	stubPipeline(t, p, nil)

	out, err := execute(t, "run", "--quiet")
	require.NoError(t, err)
	assert.NotContains(t, out, "Documents analyzed")
}

func TestRunPropagatesFailures(t *testing.T) {
	stubConfig(t)
	p := new(MockPipeline)
	p.On("Run", mock.Anything).Return(crawler.RunResult{}, errors.New("write dataset: disk full")).Once()
	closed := stubPipeline(t, p, nil)

	_, err := execute(t, "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.True(t, *closed)

	stubPipeline(t, nil, errors.New("no storage"))
	_, err = execute(t, "run")
	require.ErrorContains(t, err, "no storage")
}

func TestRootRejectsBadConfigFile(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestAnalyzeRequiresOneFile(t *testing.T) {
	stubConfig(t)
	_, err := execute(t, "analyze")
	require.Error(t, err)
}

func TestAnalyzeMissingFile(t *testing.T) {
	stubConfig(t)
	_, err := execute(t, "analyze", filepath.Join(t.TempDir(), "nope.pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read")
}

type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(data []byte, link crawler.LinkCandidate) (crawler.ExtractedDocument, error) {
	args := m.Called(string(data), link.Title)
	return args.Get(0).(crawler.ExtractedDocument), args.Error(1)
}

type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) Analyze(text string) crawler.AnalysisResult {
	return m.Called(text).Get(0).(crawler.AnalysisResult)
}

func TestAnalyzeFilePrintsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seance-1965.pdf")
	require.NoError(t, os.WriteFile(path, []byte("pdf-bytes"), 0o600))

	ex := new(MockExtractor)
	ex.On("Extract", "pdf-bytes", "seance-1965").Return(crawler.ExtractedDocument{
		PageCount:    2,
		Author:       crawler.Unknown,
		CreationDate: "1965-03-12",
		Subject:      crawler.Unknown,
		Text:         "le bumidom",
	}, nil).Once()
	an := new(MockAnalyzer)
	an.On("Analyze", "le bumidom").Return(crawler.AnalysisResult{
		Keywords:     []string{"bumidom"},
		MentionCount: 1,
		Contexts:     []string{"le bumidom"},
	}).Once()

	var out bytes.Buffer
	require.NoError(t, analyzeFile(&out, path, ex, an))
	assert.Contains(t, out.String(), "page_count: 2")
	assert.Contains(t, out.String(), "mention_count: 1")
	assert.Contains(t, out.String(), "- bumidom")
	ex.AssertExpectations(t)
	an.AssertExpectations(t)
}

func TestAnalyzeFileExtractionError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("junk"), 0o600))

	ex := new(MockExtractor)
	ex.On("Extract", "junk", "broken").Return(crawler.ExtractedDocument{},
		&crawler.ExtractionError{URL: path, Err: errors.New("not a pdf")}).Once()

	err := analyzeFile(&bytes.Buffer{}, path, ex, new(MockAnalyzer))
	var extractErr *crawler.ExtractionError
	require.ErrorAs(t, err, &extractErr)
}

func TestSummaryFields(t *testing.T) {
	fieldKeys := func(fields []zap.Field) []string {
		keys := make([]string, 0, len(fields))
		for _, f := range fields {
			keys = append(keys, f.Key)
		}
		return keys
	}

	id, err := uuid.New().NewID()
	require.NoError(t, err)
	keys := fieldKeys(summaryFields(crawler.RunResult{Dataset: crawler.Dataset{RunID: id}}))
	assert.Contains(t, keys, "run_id")
	assert.Contains(t, keys, "run_id_issued")

	keys = fieldKeys(summaryFields(crawler.RunResult{Dataset: crawler.Dataset{RunID: "run-1"}}))
	assert.Contains(t, keys, "records")
	assert.NotContains(t, keys, "run_id_issued")
}
