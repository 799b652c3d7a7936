package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/fazecat/demandpulse/Internal/types"
)

func TestDatabaseConfig_ConnString(t *testing.T) {
	tests := []struct {
		name    string
		cfg     DatabaseConfig
		want    string
		enabled bool
	}{
		{
			name:    "url wins",
			cfg:     DatabaseConfig{URL: "postgres://u:p@db:5432/x", Password: "ignored"},
			want:    "postgres://u:p@db:5432/x",
			enabled: true,
		},
		{
			name:    "keyword form",
			cfg:     DatabaseConfig{Host: "localhost", Port: "5432", User: "postgres", Password: "pw", DBName: "demandpulse", SSLMode: "disable"},
			want:    "host=localhost port=5432 user=postgres password=pw dbname=demandpulse sslmode=disable",
			enabled: true,
		},
		{
			name:    "not configured",
			cfg:     DatabaseConfig{Host: "localhost"},
			want:    "host=localhost port= user= password= dbname= sslmode=",
			enabled: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.ConnString(); got != tt.want {
				t.Errorf("ConnString = %q, want %q", got, tt.want)
			}
			if got := tt.cfg.Enabled(); got != tt.enabled {
				t.Errorf("Enabled = %v, want %v", got, tt.enabled)
			}
		})
	}
}

func TestConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_NAME", "")
	t.Setenv("DB_PASSWORD", "")

	cfg := ConfigFromEnv()
	if cfg.Host != "localhost" || cfg.DBName != "demandpulse" || cfg.SSLMode != "disable" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.Enabled() {
		t.Error("database should be disabled without credentials")
	}
}

// TestStore_Integration runs against a real database when DATABASE_URL is set.
func TestStore_Integration(t *testing.T) {
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set")
	}
	if err := InitDatabase(); err != nil {
		t.Fatalf("InitDatabase: %v", err)
	}
	defer CloseDatabase()

	ctx := context.Background()
	store := NewStore(DB)
	runID := "test-" + time.Now().Format("150405.000000")

	snap := types.Snapshot{
		Data: types.PulseData{{ID: "zeta", Name: "Zeta"}, {ID: "alfa", Name: "Alfa"}},
		Metadata: types.SnapshotMetadata{
			RunID:             runID,
			TotalDestinations: 2,
			Top3Ranking:       []string{"zeta", "alfa"},
			Version:           "test",
		},
	}
	if err := store.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	got, err := store.GetLatestSnapshot(ctx)
	if err != nil {
		t.Fatalf("GetLatestSnapshot: %v", err)
	}
	if got.Metadata.RunID != runID || got.Data[0].ID != "zeta" {
		t.Errorf("unexpected snapshot %+v", got.Metadata)
	}

	list, err := store.ListSnapshots(ctx, 5)
	if err != nil || len(list) == 0 {
		t.Fatalf("ListSnapshots: %v (%d)", err, len(list))
	}

	now := time.Now().UTC().Truncate(time.Second)
	if err := store.LogScan(ctx, ScanLog{RunID: runID, Provider: "mock", StartedAt: now, FinishedAt: now, Processed: 2}); err != nil {
		t.Fatalf("LogScan: %v", err)
	}
	last, err := store.LastScan(ctx)
	if err != nil || last.IsZero() {
		t.Errorf("LastScan = %v, %v", last, err)
	}
}
