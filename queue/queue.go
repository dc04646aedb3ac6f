// Package queue implements background batch analysis on top of a SQLite
// visibility-timeout queue.
//
// A submitted batch becomes one job row per document. Claimed jobs stay
// invisible to other workers for a configurable duration; if the holder
// finishes it acks (deletes) the row, and if it crashes or exceeds the
// timeout the row reappears so another worker can claim it. Per-document
// outcomes live in a separate bookkeeping table that survives the job rows.
//
// The queue is pure SQLite. No external broker.
package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/textlens/dbopen"
	"github.com/hazyhaar/textlens/idgen"
)

// Schema for the queue tables. Call Q.Init() or apply manually.
const Schema = `
CREATE TABLE IF NOT EXISTS analysis_jobs (
	id          TEXT PRIMARY KEY,
	payload     BLOB,
	visible_at  INTEGER NOT NULL DEFAULT 0,
	created_at  INTEGER NOT NULL,
	attempts    INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_analysis_jobs_visible ON analysis_jobs (visible_at);

CREATE TABLE IF NOT EXISTS batches (
	id          TEXT PRIMARY KEY,
	created_at  INTEGER NOT NULL,
	total       INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS batch_items (
	job_id      TEXT PRIMARY KEY,
	batch_id    TEXT NOT NULL,
	position    INTEGER NOT NULL,
	status      TEXT NOT NULL DEFAULT 'pending',
	analysis_id TEXT NOT NULL DEFAULT '',
	error       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_batch_items_batch ON batch_items (batch_id);
`

// Item statuses in batch_items.
const (
	StatusPending = "pending"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

// ErrBatchNotFound is returned by Status for an unknown batch id.
var ErrBatchNotFound = errors.New("batch not found")

// Document is one batch input.
type Document struct {
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Job is a claimed queue row.
type Job struct {
	ID        string
	Doc       Document
	BatchID   string
	Position  int
	CreatedAt time.Time
	Attempts  int
}

// BatchItem is the outcome bookkeeping for one document.
type BatchItem struct {
	Position   int    `json:"position"`
	Status     string `json:"status"`
	AnalysisID string `json:"analysis_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

// BatchStatus aggregates a batch and its items.
type BatchStatus struct {
	BatchID   string      `json:"batch_id"`
	CreatedAt time.Time   `json:"created_at"`
	Total     int         `json:"total"`
	Done      int         `json:"done"`
	Failed    int         `json:"failed"`
	Pending   int         `json:"pending"`
	Items     []BatchItem `json:"items"`
}

// Options configures queue behaviour.
type Options struct {
	// Visibility is how long a claimed job stays invisible. Default: 60s.
	Visibility time.Duration
	// PollInterval is the delay between claim attempts in worker loops.
	// Default: 1s.
	PollInterval time.Duration
	// MaxAttempts limits redeliveries before a job is marked failed.
	// 0 means unlimited. Default: 3.
	MaxAttempts int
	// IDs generates batch and job identifiers.
	IDs idgen.Generator
	// Logger overrides the default slog logger.
	Logger *slog.Logger
}

func (o *Options) defaults() {
	if o.Visibility <= 0 {
		o.Visibility = 60 * time.Second
	}
	if o.PollInterval <= 0 {
		o.PollInterval = time.Second
	}
	if o.MaxAttempts == 0 {
		o.MaxAttempts = 3
	}
	if o.IDs == nil {
		o.IDs = idgen.Default
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Q is the batch queue handle.
type Q struct {
	db   *sql.DB
	opts Options
}

// New creates a queue handle. Call Init once at startup.
func New(db *sql.DB, opts Options) *Q {
	opts.defaults()
	return &Q{db: db, opts: opts}
}

// Init creates the queue tables if they don't exist.
func (q *Q) Init(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, Schema)
	return err
}

// SubmitBatch enqueues one immediately visible job per document and returns
// the batch id. Documents keep their submission order as item positions.
// The whole batch commits in one transaction, retried on SQLITE_BUSY since
// workers write to the same database.
func (q *Q) SubmitBatch(ctx context.Context, docs []Document) (string, error) {
	if len(docs) == 0 {
		return "", errors.New("empty batch")
	}

	batchID := "bat_" + q.opts.IDs()
	now := time.Now().UnixMilli()

	err := dbopen.RunTx(ctx, q.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO batches (id, created_at, total) VALUES (?,?,?)`,
			batchID, now, len(docs)); err != nil {
			return fmt.Errorf("insert batch: %w", err)
		}

		for i, doc := range docs {
			payload, err := json.Marshal(doc)
			if err != nil {
				return fmt.Errorf("marshal document %d: %w", i, err)
			}
			jobID := "job_" + q.opts.IDs()
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO analysis_jobs (id, payload, visible_at, created_at) VALUES (?,?,?,?)`,
				jobID, payload, now, now); err != nil {
				return fmt.Errorf("insert job %d: %w", i, err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO batch_items (job_id, batch_id, position) VALUES (?,?,?)`,
				jobID, batchID, i); err != nil {
				return fmt.Errorf("insert batch item %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return batchID, nil
}

// Claim atomically picks the oldest visible job, marks it invisible for the
// configured visibility duration, and returns it with its batch bookkeeping.
// Returns nil, nil if no job is available.
func (q *Q) Claim(ctx context.Context) (*Job, error) {
	now := time.Now()
	hideUntil := now.Add(q.opts.Visibility).UnixMilli()

	row := q.db.QueryRowContext(ctx, `
		UPDATE analysis_jobs
		SET visible_at = ?, attempts = attempts + 1
		WHERE id = (
			SELECT id FROM analysis_jobs
			WHERE visible_at <= ?
			ORDER BY visible_at ASC
			LIMIT 1
		)
		RETURNING id, payload, created_at, attempts`,
		hideUntil, now.UnixMilli(),
	)

	var (
		j       Job
		payload []byte
		creAt   int64
	)
	err := row.Scan(&j.ID, &payload, &creAt, &j.Attempts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim: %w", err)
	}
	j.CreatedAt = time.UnixMilli(creAt)
	if err := json.Unmarshal(payload, &j.Doc); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", j.ID, err)
	}

	err = q.db.QueryRowContext(ctx,
		`SELECT batch_id, position FROM batch_items WHERE job_id = ?`, j.ID).
		Scan(&j.BatchID, &j.Position)
	if err != nil {
		return nil, fmt.Errorf("job %s bookkeeping: %w", j.ID, err)
	}
	return &j, nil
}

// Ack deletes a processed job row. The batch item record stays.
func (q *Q) Ack(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM analysis_jobs WHERE id = ?`, id)
	return err
}

// Nack makes a job immediately visible again.
func (q *Q) Nack(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE analysis_jobs SET visible_at = 0 WHERE id = ?`, id)
	return err
}

// Extend pushes the visibility timeout forward for a job that needs more
// processing time.
func (q *Q) Extend(ctx context.Context, id string, extra time.Duration) error {
	hideUntil := time.Now().Add(extra).UnixMilli()
	_, err := q.db.ExecContext(ctx,
		`UPDATE analysis_jobs SET visible_at = ? WHERE id = ?`, hideUntil, id)
	return err
}

// Len returns the number of queued jobs, visible or not.
func (q *Q) Len(ctx context.Context) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM analysis_jobs`).Scan(&n)
	return n, err
}

// MarkDone records a successful outcome for a job's batch item. Worker
// writes race batch submissions, so the update retries on SQLITE_BUSY.
func (q *Q) MarkDone(ctx context.Context, jobID, analysisID string) error {
	_, err := dbopen.Exec(ctx, q.db,
		`UPDATE batch_items SET status = ?, analysis_id = ? WHERE job_id = ?`,
		StatusDone, analysisID, jobID)
	return err
}

// MarkFailed records a terminal failure for a job's batch item.
func (q *Q) MarkFailed(ctx context.Context, jobID, reason string) error {
	_, err := dbopen.Exec(ctx, q.db,
		`UPDATE batch_items SET status = ?, error = ? WHERE job_id = ?`,
		StatusFailed, reason, jobID)
	return err
}

// Status reports a batch and its per-document outcomes in submission order.
func (q *Q) Status(ctx context.Context, batchID string) (*BatchStatus, error) {
	var (
		st    BatchStatus
		creAt int64
	)
	err := q.db.QueryRowContext(ctx,
		`SELECT id, created_at, total FROM batches WHERE id = ?`, batchID).
		Scan(&st.BatchID, &creAt, &st.Total)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load batch %s: %w", batchID, err)
	}
	st.CreatedAt = time.UnixMilli(creAt)

	rows, err := q.db.QueryContext(ctx, `
		SELECT position, status, analysis_id, error
		FROM batch_items WHERE batch_id = ? ORDER BY position`, batchID)
	if err != nil {
		return nil, fmt.Errorf("load batch items %s: %w", batchID, err)
	}
	defer rows.Close()

	st.Items = []BatchItem{}
	for rows.Next() {
		var it BatchItem
		if err := rows.Scan(&it.Position, &it.Status, &it.AnalysisID, &it.Error); err != nil {
			return nil, fmt.Errorf("scan batch item: %w", err)
		}
		switch it.Status {
		case StatusDone:
			st.Done++
		case StatusFailed:
			st.Failed++
		default:
			st.Pending++
		}
		st.Items = append(st.Items, it)
	}
	return &st, rows.Err()
}
