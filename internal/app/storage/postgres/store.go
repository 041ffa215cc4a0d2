package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/luma-mobile/companion-service/internal/app/domain/event"
	"github.com/luma-mobile/companion-service/internal/app/storage"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ storage.EventStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Schema is the DDL for the tables the store uses.
const Schema = `
CREATE TABLE IF NOT EXISTS app_events (
	id          TEXT PRIMARY KEY,
	event_type  TEXT NOT NULL,
	xdm         JSONB NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL
);
`

// EnsureSchema creates the tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, Schema)
	return err
}

// RecordEvent inserts an audit record, assigning an ID and timestamp when
// they are unset.
func (s *Store) RecordEvent(ctx context.Context, rec event.Record) (event.Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}

	xdmJSON, err := json.Marshal(rec.XDM)
	if err != nil {
		return event.Record{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO app_events (id, event_type, xdm, recorded_at)
		VALUES ($1, $2, $3, $4)
	`, rec.ID, rec.EventType, xdmJSON, rec.RecordedAt)
	if err != nil {
		return event.Record{}, err
	}
	return rec, nil
}

// ListEvents returns the most recent records, newest first.
func (s *Store) ListEvents(ctx context.Context, limit int) ([]event.Record, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_type, xdm, recorded_at
		FROM app_events
		ORDER BY recorded_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []event.Record
	for rows.Next() {
		var rec event.Record
		var xdmJSON []byte
		if err := rows.Scan(&rec.ID, &rec.EventType, &xdmJSON, &rec.RecordedAt); err != nil {
			return nil, err
		}
		if len(xdmJSON) > 0 {
			if err := json.Unmarshal(xdmJSON, &rec.XDM); err != nil {
				return nil, err
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
