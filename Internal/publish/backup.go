package publish

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fazecat/demandpulse/Internal/strategy/metrics"
	"github.com/fazecat/demandpulse/Internal/types"
	"github.com/fazecat/demandpulse/Internal/utils/formatting"
)

// BackupWriter keeps the latest pulse data in a local JSON file keyed by destination id.
type BackupWriter struct {
	Path string
}

func NewBackupWriter(path string) *BackupWriter {
	return &BackupWriter{Path: path}
}

// Write replaces the backup file atomically.
func (b *BackupWriter) Write(data types.PulseData) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}

	dir := filepath.Dir(b.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".pulse-*.json")
	if err != nil {
		return fmt.Errorf("create backup: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write backup: %w", err)
	}
	// CreateTemp opens with 0600; the backup is read by other processes.
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod backup: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	return os.Rename(tmp.Name(), b.Path)
}

func (b *BackupWriter) Read() (types.PulseData, error) {
	raw, err := os.ReadFile(b.Path)
	if err != nil {
		return nil, err
	}
	var data types.PulseData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode backup %s: %w", b.Path, err)
	}
	return data, nil
}

// LatestSnapshot rebuilds a snapshot from the backup file. The file has no
// metadata of its own, so it is derived from the records.
func (b *BackupWriter) LatestSnapshot() (types.Snapshot, error) {
	data, err := b.Read()
	if err != nil {
		return types.Snapshot{}, err
	}

	lastUpdated := ""
	var newest time.Time
	for _, d := range data {
		t := formatting.ParseTimestamp(d.LastUpdated)
		if !t.IsZero() && t.After(newest) {
			newest, lastUpdated = t, d.LastUpdated
		}
	}
	return types.Snapshot{
		Data: data,
		Metadata: types.SnapshotMetadata{
			TotalDestinations: len(data),
			Top3Ranking:       metrics.TopIDs(data, 3),
			LastUpdated:       lastUpdated,
		},
	}, nil
}
