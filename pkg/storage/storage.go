package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopadmin-cli/shopadmin/pkg/metafields"
	_ "modernc.org/sqlite"
)

const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunAborted   = "aborted"

	// Fixed width so stored timestamps sort as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// DB is the local reclamation journal.
type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS runs (
  id            INTEGER PRIMARY KEY,
  shop          TEXT NOT NULL,
  resource_type TEXT NOT NULL,
  force_mode    INTEGER NOT NULL CHECK (force_mode IN (0,1)),
  status        TEXT NOT NULL CHECK (status IN ('running','completed','aborted')),
  error         TEXT,
  started_at    TEXT NOT NULL,
  finished_at   TEXT,
  scanned       INTEGER NOT NULL DEFAULT 0,
  deleted       INTEGER NOT NULL DEFAULT 0,
  skipped       INTEGER NOT NULL DEFAULT 0,
  failed        INTEGER NOT NULL DEFAULT 0,
  restarts      INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_runs_shop ON runs(shop, started_at);
CREATE TABLE IF NOT EXISTS deletions (
  id            INTEGER PRIMARY KEY,
  run_id        INTEGER REFERENCES runs(id),
  shop          TEXT NOT NULL,
  resource_type TEXT NOT NULL,
  mf_namespace  TEXT NOT NULL,
  mf_key        TEXT NOT NULL,
  mf_type       TEXT,
  definition_id TEXT NOT NULL,
  temporary     INTEGER NOT NULL CHECK (temporary IN (0,1)),
  deleted_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_deletions_shop ON deletions(shop, deleted_at);
    `); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// RunJournal records the deletions of one run. It implements
// metafields.Journal.
type RunJournal struct {
	db *DB
	id int64
}

var _ metafields.Journal = (*RunJournal)(nil)

// StartRun inserts a run in the running state.
func (d *DB) StartRun(ctx context.Context, shop string, rt metafields.ResourceType, force bool) (*RunJournal, error) {
	res, err := d.sql.ExecContext(ctx,
		`INSERT INTO runs(shop, resource_type, force_mode, status, started_at) VALUES(?,?,?,?,?)`,
		shop, string(rt), boolToInt(force), RunRunning, formatTime(time.Now()))
	if err != nil {
		return nil, fmt.Errorf("starting run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &RunJournal{db: d, id: id}, nil
}

func (j *RunJournal) ID() int64 { return j.id }

func (j *RunJournal) RecordDeletion(ctx context.Context, del metafields.Deletion) error {
	deletedAt := del.DeletedAt
	if deletedAt.IsZero() {
		deletedAt = time.Now()
	}
	_, err := j.db.sql.ExecContext(ctx,
		`INSERT INTO deletions(run_id, shop, resource_type, mf_namespace, mf_key, mf_type, definition_id, temporary, deleted_at) VALUES(?,?,?,?,?,?,?,?,?)`,
		j.id, del.Shop, string(del.ResourceType), del.Namespace, del.Key, nullIfEmpty(del.Type), del.DefinitionID, boolToInt(del.Temporary), formatTime(deletedAt))
	return err
}

// Finish stores the run's counters. A non-nil runErr marks it aborted.
func (j *RunJournal) Finish(ctx context.Context, s metafields.Summary, runErr error) error {
	status, errText := RunCompleted, ""
	if runErr != nil {
		status, errText = RunAborted, runErr.Error()
	}
	_, err := j.db.sql.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, finished_at = ?, scanned = ?, deleted = ?, skipped = ?, failed = ?, restarts = ? WHERE id = ?`,
		status, nullIfEmpty(errText), formatTime(time.Now()), s.Scanned, s.Deleted, s.Skipped, s.Failed, s.Restarts, j.id)
	return err
}

// ListDeletions returns journal entries, most recent first.
func (d *DB) ListDeletions(ctx context.Context, f DeletionFilter) ([]DeletionRecord, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	if f.Shop != "" {
		where += " AND shop = ?"
		args = append(args, f.Shop)
	}
	if !f.Since.IsZero() {
		where += " AND deleted_at >= ?"
		args = append(args, formatTime(f.Since))
	}
	q := "SELECT run_id, shop, resource_type, mf_namespace, mf_key, mf_type, definition_id, temporary, deleted_at FROM deletions " + where + " ORDER BY deleted_at DESC, id DESC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DeletionRecord
	for rows.Next() {
		var (
			r         DeletionRecord
			runID     sql.NullInt64
			rt        string
			typ       sql.NullString
			temporary int
			deletedAt string
		)
		if err := rows.Scan(&runID, &r.Shop, &rt, &r.Namespace, &r.Key, &typ, &r.DefinitionID, &temporary, &deletedAt); err != nil {
			return nil, err
		}
		r.RunID = runID.Int64
		r.ResourceType = metafields.ResourceType(rt)
		r.Type = typ.String
		r.Temporary = temporary == 1
		r.DeletedAt = parseTime(deletedAt)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListRuns returns the most recent runs, optionally for one shop.
func (d *DB) ListRuns(ctx context.Context, shop string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	where := ""
	args := []interface{}{}
	if shop != "" {
		where = "WHERE shop = ? "
		args = append(args, shop)
	}
	args = append(args, limit)

	q := "SELECT id, shop, resource_type, force_mode, status, error, started_at, finished_at, scanned, deleted, skipped, failed, restarts FROM runs " + where + "ORDER BY started_at DESC, id DESC LIMIT ?"
	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var (
			r                   Run
			rt                  string
			force               int
			errText, finishedAt sql.NullString
			startedAt           string
		)
		if err := rows.Scan(&r.ID, &r.Shop, &rt, &force, &r.Status, &errText, &startedAt, &finishedAt, &r.Scanned, &r.Deleted, &r.Skipped, &r.Failed, &r.Restarts); err != nil {
			return nil, err
		}
		r.ResourceType = metafields.ResourceType(rt)
		r.Force = force == 1
		r.Error = errText.String
		r.StartedAt = parseTime(startedAt)
		if finishedAt.Valid {
			r.FinishedAt = parseTime(finishedAt.String)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

type ShopStats struct {
	Shop      string
	Runs      int
	Deletions int
}

func (d *DB) GetStats(ctx context.Context) ([]ShopStats, error) {
	query := `
		SELECT
			r.shop,
			COUNT(DISTINCT r.id),
			(SELECT COUNT(*) FROM deletions d WHERE d.shop = r.shop)
		FROM
			runs r
		GROUP BY
			r.shop
		ORDER BY
			r.shop;
	`
	rows, err := d.sql.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []ShopStats
	for rows.Next() {
		var s ShopStats
		if err := rows.Scan(&s.Shop, &s.Runs, &s.Deletions); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime accepts the stored layout and SQLite's CURRENT_TIMESTAMP format.
func parseTime(s string) time.Time {
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
