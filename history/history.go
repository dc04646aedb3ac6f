// Package history persists finished analysis records to SQLite.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hazyhaar/textlens/analyze"
	"github.com/hazyhaar/textlens/dbopen"
)

// Schema for the analyses table. Call Store.Init() or apply manually.
const Schema = `
CREATE TABLE IF NOT EXISTS analyses (
	id TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL,
	text_length INTEGER NOT NULL,
	document_type TEXT NOT NULL,
	language TEXT NOT NULL,
	total_entities INTEGER NOT NULL,
	record TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analyses_created ON analyses(created_at);
CREATE INDEX IF NOT EXISTS idx_analyses_type ON analyses(document_type);
`

// ErrNotFound is returned by Get for an unknown analysis id.
var ErrNotFound = errors.New("analysis not found")

// Entry is one stored analysis.
type Entry struct {
	ID            string         `json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	TextLength    int            `json:"text_length"`
	DocumentType  string         `json:"document_type"`
	Language      string         `json:"language"`
	TotalEntities int            `json:"total_entities"`
	Record        analyze.Record `json:"record"`
}

// Store persists analysis records. Writes are synchronous; at request-level
// write rates there is no need for batching.
type Store struct {
	db *sql.DB
}

// NewStore creates a history store backed by the given database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Init creates the analyses table if it doesn't exist.
func (s *Store) Init() error {
	_, err := s.db.Exec(Schema)
	return err
}

// Insert stores one analysis result under the given id. The write retries
// on SQLITE_BUSY; HTTP handlers and batch workers insert concurrently.
func (s *Store) Insert(ctx context.Context, id string, textLength int, rec analyze.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	_, err = dbopen.Exec(ctx, s.db, `
		INSERT INTO analyses (id, created_at, text_length, document_type, language, total_entities, record)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, time.Now().UnixMilli(), textLength,
		rec.Classification.DocumentType, rec.Language.Language,
		rec.Entities.Statistics.TotalEntities, string(payload))
	if err != nil {
		return fmt.Errorf("insert analysis %s: %w", id, err)
	}
	return nil
}

// Get loads one stored analysis by id.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	var (
		e         Entry
		createdAt int64
		payload   string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, text_length, document_type, language, total_entities, record
		FROM analyses WHERE id = ?`, id).
		Scan(&e.ID, &createdAt, &e.TextLength, &e.DocumentType, &e.Language, &e.TotalEntities, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load analysis %s: %w", id, err)
	}
	e.CreatedAt = time.UnixMilli(createdAt)
	if err := json.Unmarshal([]byte(payload), &e.Record); err != nil {
		return nil, fmt.Errorf("unmarshal record %s: %w", id, err)
	}
	return &e, nil
}

// Recent lists the newest analyses, record payloads included.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, text_length, document_type, language, total_entities, record
		FROM analyses ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e         Entry
			createdAt int64
			payload   string
		)
		if err := rows.Scan(&e.ID, &createdAt, &e.TextLength, &e.DocumentType,
			&e.Language, &e.TotalEntities, &payload); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		e.CreatedAt = time.UnixMilli(createdAt)
		if err := json.Unmarshal([]byte(payload), &e.Record); err != nil {
			return nil, fmt.Errorf("unmarshal record %s: %w", e.ID, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
