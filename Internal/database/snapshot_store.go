package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/fazecat/demandpulse/Internal/types"
)

var ErrNoSnapshot = errors.New("no snapshot stored yet")

// Snapshot listing bounds.
const (
	DefaultSnapshotLimit = 20
	MaxSnapshotLimit     = 200
)

// Store persists snapshots and scan history in Postgres.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

type SnapshotSummary struct {
	ID        int64                  `json:"id"`
	RunID     string                 `json:"run_id"`
	Metadata  types.SnapshotMetadata `json:"metadata"`
	CreatedAt time.Time              `json:"created_at"`
}

type ScanLog struct {
	RunID      string
	Provider   string
	StartedAt  time.Time
	FinishedAt time.Time
	Processed  int
	Failed     int
	Error      string
}

func (s *Store) Name() string { return "postgres" }

// Publish lets the store act as one more snapshot sink.
func (s *Store) Publish(ctx context.Context, snap types.Snapshot) error {
	return s.SaveSnapshot(ctx, snap)
}

func (s *Store) SaveSnapshot(ctx context.Context, snap types.Snapshot) error {
	data, err := json.Marshal(snap.Data)
	if err != nil {
		return fmt.Errorf("encode snapshot data: %w", err)
	}
	meta, err := json.Marshal(snap.Metadata)
	if err != nil {
		return fmt.Errorf("encode snapshot metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO pulse_snapshots (run_id, data, metadata) VALUES ($1, $2, $3)`,
		snap.Metadata.RunID, string(data), string(meta))
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	log.Printf("✅ Snapshot %s saved to database (%d destinations)", snap.Metadata.RunID, snap.Metadata.TotalDestinations)
	return nil
}

func (s *Store) GetLatestSnapshot(ctx context.Context) (types.Snapshot, error) {
	var data, meta []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data, metadata FROM pulse_snapshots ORDER BY created_at DESC, id DESC LIMIT 1`).
		Scan(&data, &meta)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("failed to fetch latest snapshot: %w", err)
	}

	var snap types.Snapshot
	if err := json.Unmarshal(data, &snap.Data); err != nil {
		return types.Snapshot{}, fmt.Errorf("decode snapshot data: %w", err)
	}
	if err := json.Unmarshal(meta, &snap.Metadata); err != nil {
		return types.Snapshot{}, fmt.Errorf("decode snapshot metadata: %w", err)
	}
	return snap, nil
}

func (s *Store) ListSnapshots(ctx context.Context, limit int) ([]SnapshotSummary, error) {
	if limit <= 0 {
		limit = DefaultSnapshotLimit
	}
	if limit > MaxSnapshotLimit {
		limit = MaxSnapshotLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, metadata, created_at FROM pulse_snapshots ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var out []SnapshotSummary
	for rows.Next() {
		var sum SnapshotSummary
		var meta []byte
		if err := rows.Scan(&sum.ID, &sum.RunID, &meta, &sum.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(meta, &sum.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata of snapshot %d: %w", sum.ID, err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *Store) LogScan(ctx context.Context, entry ScanLog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scan_log (run_id, provider, started_at, finished_at, processed, failed, error)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
		ON CONFLICT (run_id) DO UPDATE SET
			finished_at = EXCLUDED.finished_at,
			processed = EXCLUDED.processed,
			failed = EXCLUDED.failed,
			error = EXCLUDED.error`,
		entry.RunID, entry.Provider, entry.StartedAt, entry.FinishedAt, entry.Processed, entry.Failed, entry.Error)
	if err != nil {
		return fmt.Errorf("failed to log scan: %w", err)
	}
	return nil
}

// LastScan returns when the most recent scan finished, or the zero time.
func (s *Store) LastScan(ctx context.Context) (time.Time, error) {
	var last sql.NullTime
	err := s.db.QueryRowContext(ctx, `SELECT MAX(finished_at) FROM scan_log`).Scan(&last)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read scan log: %w", err)
	}
	if !last.Valid {
		return time.Time{}, nil
	}
	return last.Time, nil
}
