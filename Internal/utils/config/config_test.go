package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
destinations:
  - id: monte-verde
    name: Monte Verde
    state: MG
    region: Sul de Minas
    keywords: ["Monte Verde MG turismo"]
`

func TestLoadConfigFrom_BundledFile(t *testing.T) {
	cfg, err := LoadConfigFrom("config.yaml")
	if err != nil {
		t.Fatalf("bundled config failed to load: %v", err)
	}

	if len(cfg.Destinations) != 10 {
		t.Errorf("expected 10 destinations, got %d", len(cfg.Destinations))
	}
	if cfg.Trends.TimezoneOffset != -180 {
		t.Errorf("expected tz -180, got %d", cfg.Trends.TimezoneOffset)
	}
	d := cfg.FindDestination("campos-jordao")
	if d == nil {
		t.Fatal("campos-jordao missing")
	}
	if d.Latitude != -22.74 || d.Longitude != -45.59 {
		t.Errorf("unexpected coordinates %v,%v", d.Latitude, d.Longitude)
	}
	if cfg.Collector.RequestPauseMinSeconds != 3 || cfg.Collector.RequestPauseMaxSeconds != 7 {
		t.Errorf("unexpected request pause range")
	}
}

func TestLoadConfigFrom_Defaults(t *testing.T) {
	cfg, err := LoadConfigFrom(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Collector.TrendTail != 30 || cfg.Collector.TrendWindow != 7 {
		t.Errorf("trend defaults not applied: %+v", cfg.Collector)
	}
	if cfg.Collector.DestinationAttempts != 3 || cfg.Collector.FetchBackoffSeconds != 10 {
		t.Errorf("retry defaults not applied: %+v", cfg.Collector)
	}
	if cfg.Trends.Provider != "google" || cfg.Trends.Timeframe != "today 3-m" {
		t.Errorf("trends defaults not applied: %+v", cfg.Trends)
	}
	if cfg.Scoring.Audience.Couples != 50 || cfg.Scoring.Audience.Families != 50 {
		t.Errorf("audience defaults not applied: %+v", cfg.Scoring.Audience)
	}
	if cfg.Output.BackupPath != "pulse-data-backup.json" {
		t.Errorf("backup path default = %q", cfg.Output.BackupPath)
	}
}

func TestLoadConfigFrom_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "no destinations",
			body:    "collector:\n  trend_tail: 30\n",
			wantErr: "no destinations",
		},
		{
			name: "duplicate ids",
			body: minimalConfig + `  - id: monte-verde
    name: Monte Verde 2
    keywords: ["x"]
`,
			wantErr: "duplicate destination",
		},
		{
			name:    "unknown provider",
			body:    "trends:\n  provider: bing\n" + minimalConfig,
			wantErr: "unknown trends provider",
		},
		{
			name:    "inverted pauses",
			body:    "collector:\n  request_pause_min_seconds: 9\n  request_pause_max_seconds: 2\n" + minimalConfig,
			wantErr: "inverted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfigFrom(writeConfig(t, tt.body))
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigureInteractive_ToggleAndSave(t *testing.T) {
	path := writeConfig(t, minimalConfig)
	cfg, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	wasEnabled := cfg.News.Enabled

	var out bytes.Buffer
	in := strings.NewReader("5\n1\n6\n")
	if err := ConfigureInteractive(cfg, in, &out); err != nil {
		t.Fatalf("interactive: %v", err)
	}

	reloaded, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.News.Enabled == wasEnabled {
		t.Errorf("news toggle was not persisted")
	}
	if !strings.Contains(out.String(), "Configuration saved") {
		t.Errorf("missing save confirmation in output:\n%s", out.String())
	}
}
