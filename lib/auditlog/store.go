package auditlog

import (
	"context"
	"database/sql"
	"time"

	"guaymallen-backend/lib/fetch"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

const Schema = `
CREATE TABLE IF NOT EXISTS fetch_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	endpoint TEXT NOT NULL,
	params TEXT NOT NULL,
	status INTEGER NOT NULL,
	payload TEXT NOT NULL,
	page_index INTEGER NOT NULL,
	kind TEXT NOT NULL,
	requested_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_fetch_log_run ON fetch_log(run_id);
`

// Store persists audit entries to sqlite (or a libsql replica, the
// driver is picked by the dsn scheme).
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

func (s Store) Push(ctx context.Context, runID string, entries []Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO fetch_log
			(run_id, endpoint, params, status, payload, page_index, kind, requested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, entry := range entries {
		_, err := stmt.ExecContext(
			ctx,
			runID,
			entry.Endpoint,
			entry.Params,
			entry.Status,
			entry.Payload,
			entry.PageIndex,
			string(entry.Kind),
			entry.RequestedAt.Unix(),
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s Store) Pull(ctx context.Context, runID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT endpoint, params, status, payload, page_index, kind, requested_at
		FROM fetch_log WHERE run_id = ? ORDER BY id
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var kind string
		var requestedAt int64
		err := rows.Scan(
			&entry.Endpoint,
			&entry.Params,
			&entry.Status,
			&entry.Payload,
			&entry.PageIndex,
			&kind,
			&requestedAt,
		)
		if err != nil {
			return nil, err
		}
		entry.Kind = fetch.Kind(kind)
		entry.RequestedAt = time.Unix(requestedAt, 0)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
