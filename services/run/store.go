package run

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// the persisted result layer previous runs check against, so an
// article already extracted last week is not fetched again
const Schema = `
CREATE TABLE IF NOT EXISTS records (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	fields TEXT NOT NULL,
	run_id TEXT NOT NULL,
	extracted_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_records_source ON records(source);
`

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) Store {
	return Store{db: db}
}

func (s Store) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, Schema)
	return err
}

// Known reports whether an identifier was persisted by an earlier run.
// Lookup failures are treated as unknown so a broken store never makes
// the run drop records silently.
func (s Store) Known(ctx context.Context, id string) bool {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM records WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false
	}
	if err != nil {
		slog.WarnContext(ctx, "record store lookup failed", "id", id, "err", err)
		return false
	}
	return true
}

// Push persists the run's result set. First-seen copies win: an id
// already present is left untouched.
func (s Store) Push(ctx context.Context, runID string, records []Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO records (id, source, fields, run_id, extracted_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, record := range records {
		fields, err := json.Marshal(record.Fields)
		if err != nil {
			return err
		}
		_, err = stmt.ExecContext(
			ctx,
			record.ID,
			record.Source,
			string(fields),
			runID,
			record.ExtractedAt.Unix(),
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Pull returns everything persisted for one source, newest first.
func (s Store) Pull(ctx context.Context, source string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, fields, extracted_at
		FROM records WHERE source = ? ORDER BY extracted_at DESC
	`, source)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var record Record
		var fields string
		var extractedAt int64
		err := rows.Scan(&record.ID, &record.Source, &fields, &extractedAt)
		if err != nil {
			return nil, err
		}
		err = json.Unmarshal([]byte(fields), &record.Fields)
		if err != nil {
			slog.WarnContext(ctx, "failed to unmarshal stored fields", "id", record.ID, "err", err)
			continue
		}
		record.ExtractedAt = time.Unix(extractedAt, 0).UTC()
		records = append(records, record)
	}
	return records, rows.Err()
}
