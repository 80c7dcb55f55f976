// Package sqlite persists run datasets into a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/JakeFAU/bumidom-archive-crawler/internal/crawler"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	started_at  TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	documents   INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS documents (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id        TEXT NOT NULL REFERENCES runs (run_id),
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
	keywords      TEXT NOT NULL,
	mention_count INTEGER NOT NULL,
	contexts      TEXT NOT NULL,
	local_file    TEXT NOT NULL,
	local_uri     TEXT NOT NULL,
	local_size    INTEGER NOT NULL,
	downloaded_at TEXT NOT NULL,
	error         TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS documents_run_idx ON documents (run_id);
`

const insertDocument = `
INSERT INTO documents (
	run_id, url, title, source, kind, legislature, page_count, excerpt, author,
	creation_date, subject, keywords, mention_count, contexts, local_file,
	local_uri, local_size, downloaded_at, error
) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`

// RecordStore writes datasets into SQLite.
type RecordStore struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path and initializes the schema.
func Open(path string) (*RecordStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &RecordStore{db: db, path: path}, nil
}

// Name identifies the store in logs.
func (s *RecordStore) Name() string { return "sqlite" }

// Path returns the database file path.
func (s *RecordStore) Path() string { return s.path }

// Close releases the database handle.
func (s *RecordStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// WriteDataset inserts the run and its records in one transaction.
func (s *RecordStore) WriteDataset(ctx context.Context, ds crawler.Dataset) (err error) {
	if ds.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at, finished_at, documents) VALUES (?,?,?,?)`,
		ds.RunID, timestamp(ds.StartedAt), timestamp(ds.FinishedAt), len(ds.Records),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertDocument)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range ds.Records {
		var contexts []byte
		contexts, err = json.Marshal(nonNil(rec.Contexts))
		if err != nil {
			return fmt.Errorf("marshal contexts: %w", err)
		}
		if _, err = stmt.ExecContext(ctx,
			ds.RunID, rec.URL, rec.Title, rec.Source, string(rec.Kind), rec.Legislature,
			rec.PageCount, rec.Excerpt, rec.Author, rec.CreationDate, rec.Subject,
			strings.Join(rec.Keywords, ", "), rec.MentionCount, string(contexts),
			rec.LocalFile, rec.LocalURI, rec.LocalSize, timestamp(rec.DownloadedAt), rec.Error,
		); err != nil {
			return fmt.Errorf("insert record %s: %w", rec.URL, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Records loads the stored records of one run in insertion order.
func (s *RecordStore) Records(ctx context.Context, runID string) ([]crawler.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT url, title, source, kind, legislature, page_count, excerpt, author,
	creation_date, subject, keywords, mention_count, contexts, local_file,
	local_uri, local_size, downloaded_at, error
FROM documents WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []crawler.Record
	for rows.Next() {
		var (
			rec                          crawler.Record
			kind, keywords, contexts, at string
		)
		if err := rows.Scan(
			&rec.URL, &rec.Title, &rec.Source, &kind, &rec.Legislature, &rec.PageCount,
			&rec.Excerpt, &rec.Author, &rec.CreationDate, &rec.Subject, &keywords,
			&rec.MentionCount, &contexts, &rec.LocalFile, &rec.LocalURI, &rec.LocalSize,
			&at, &rec.Error,
		); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.Kind = crawler.ItemKind(kind)
		if keywords != "" {
			rec.Keywords = strings.Split(keywords, ", ")
		}
		if err := json.Unmarshal([]byte(contexts), &rec.Contexts); err != nil {
			return nil, fmt.Errorf("decode contexts: %w", err)
		}
		if at != "" {
			if rec.DownloadedAt, err = time.Parse(time.RFC3339Nano, at); err != nil {
				return nil, fmt.Errorf("decode downloaded_at: %w", err)
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
