package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/msomdec/blogapp/internal/domain"
)

// SessionRecordRepository implements domain.SessionRecordRepository using
// SQLite BLOBs keyed by storage key.
type SessionRecordRepository struct {
	db *sql.DB
}

func (r *SessionRecordRepository) Put(ctx context.Context, key string, data []byte) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO session_records (storage_key, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(storage_key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		key, data, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save session record: %w", err)
	}
	return nil
}

func (r *SessionRecordRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx,
		"SELECT data FROM session_records WHERE storage_key = ?", key,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get session record: %w", err)
	}
	return data, nil
}

func (r *SessionRecordRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM session_records WHERE storage_key = ?", key,
	)
	if err != nil {
		return fmt.Errorf("delete session record: %w", err)
	}
	return nil
}

// DeleteOlderThan removes records not updated since cutoff and returns how
// many were removed.
func (r *SessionRecordRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM session_records WHERE updated_at < ?", cutoff.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("delete stale session records: %w", err)
	}
	return res.RowsAffected()
}
