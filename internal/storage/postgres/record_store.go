// Package postgres persists run datasets into Postgres.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/bumidom-archive-crawler/internal/crawler"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

const defaultTable = "archive_documents"

// Config controls the Postgres connection pool used for dataset rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Begin(context.Context) (pgx.Tx, error)
	Close()
}

// RecordStore writes one row per Record and one row per run.
type RecordStore struct {
	pool  pool
	table string
}

// NewRecordStore connects to Postgres and ensures the schema exists.
func NewRecordStore(ctx context.Context, cfg Config) (*RecordStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	store := &RecordStore{pool: p, table: table}
	if err := store.EnsureSchema(ctx); err != nil {
		p.Close()
		return nil, err
	}
	return store, nil
}

// NewRecordStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewRecordStoreWithPool(p pool, table string) (*RecordStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &RecordStore{pool: p, table: name}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// Name identifies the store in logs.
func (s *RecordStore) Name() string { return "postgres" }

// Close releases the underlying pool resources.
func (s *RecordStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// EnsureSchema creates the run and document tables when missing.
func (s *RecordStore) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s_runs (
	run_id      TEXT PRIMARY KEY,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL,
	documents   INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS %[1]s (
	id            BIGSERIAL PRIMARY KEY,
	run_id        TEXT NOT NULL REFERENCES %[1]s_runs (run_id),
	url           TEXT NOT NULL,
	title         TEXT NOT NULL,
	source        TEXT NOT NULL,
	kind          TEXT NOT NULL,
	legislature   INTEGER NOT NULL,
	page_count    INTEGER NOT NULL,
	excerpt       TEXT NOT NULL,
	author        TEXT NOT NULL,
	creation_date TEXT NOT NULL,
	subject       TEXT NOT NULL,
	keywords      TEXT[] NOT NULL,
	mention_count INTEGER NOT NULL,
	contexts      JSONB NOT NULL,
	local_file    TEXT NOT NULL,
	local_uri     TEXT NOT NULL,
	local_size    BIGINT NOT NULL,
	downloaded_at TIMESTAMPTZ NOT NULL,
	error         TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS %[1]s_run_idx ON %[1]s (run_id);`, s.table)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// WriteDataset inserts the run and its records in one transaction.
func (s *RecordStore) WriteDataset(ctx context.Context, ds crawler.Dataset) (err error) {
	if s == nil || s.pool == nil {
		return fmt.Errorf("record store is not configured")
	}
	if ds.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	runQuery := fmt.Sprintf(`INSERT INTO %s_runs (run_id, started_at, finished_at, documents) VALUES ($1,$2,$3,$4)`, s.table)
	if _, err = tx.Exec(ctx, runQuery, ds.RunID, ds.StartedAt, ds.FinishedAt, len(ds.Records)); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	recordQuery := fmt.Sprintf(`
INSERT INTO %s (
	run_id, url, title, source, kind, legislature, page_count, excerpt, author,
	creation_date, subject, keywords, mention_count, contexts, local_file,
	local_uri, local_size, downloaded_at, error
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19
)`, s.table)
	for _, rec := range ds.Records {
		args, argErr := recordArgs(ds.RunID, rec)
		if argErr != nil {
			err = argErr
			return err
		}
		if _, err = tx.Exec(ctx, recordQuery, args...); err != nil {
			return fmt.Errorf("insert record %s: %w", rec.URL, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func recordArgs(runID string, rec crawler.Record) ([]any, error) {
	contexts := rec.Contexts
	if contexts == nil {
		contexts = []string{}
	}
	contextsJSON, err := json.Marshal(contexts)
	if err != nil {
		return nil, fmt.Errorf("marshal contexts: %w", err)
	}
	keywords := rec.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return []any{
		runID,
		rec.URL,
		rec.Title,
		rec.Source,
		string(rec.Kind),
		rec.Legislature,
		rec.PageCount,
		rec.Excerpt,
		rec.Author,
		rec.CreationDate,
		rec.Subject,
		keywords,
		rec.MentionCount,
		contextsJSON,
		rec.LocalFile,
		rec.LocalURI,
		rec.LocalSize,
		rec.DownloadedAt,
		rec.Error,
	}, nil
}
