package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/fazecat/demandpulse/Internal/types"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Collector CollectorConfig `yaml:"collector"`
	Trends    TrendsConfig    `yaml:"trends"`
	Weather   WeatherConfig   `yaml:"weather"`
	News      NewsConfig      `yaml:"news"`
	Scoring   ScoringConfig   `yaml:"scoring"`
	Output    OutputConfig    `yaml:"output"`

	Destinations []types.Destination `yaml:"destinations"`

	path string
}

type CollectorConfig struct {
	Version                    string `yaml:"version"`
	TrendTail                  int    `yaml:"trend_tail"`
	TrendWindow                int    `yaml:"trend_window"`
	TopOrigins                 int    `yaml:"top_origins"`
	DestinationAttempts        int    `yaml:"destination_attempts"`
	DestinationBackoffSeconds  int    `yaml:"destination_backoff_seconds"`
	FetchAttempts              int    `yaml:"fetch_attempts"`
	FetchBackoffSeconds        int    `yaml:"fetch_backoff_seconds"`
	RequestPauseMinSeconds     int    `yaml:"request_pause_min_seconds"`
	RequestPauseMaxSeconds     int    `yaml:"request_pause_max_seconds"`
	DestinationPauseMinSeconds int    `yaml:"destination_pause_min_seconds"`
	DestinationPauseMaxSeconds int    `yaml:"destination_pause_max_seconds"`
	DaemonIntervalMinutes      int    `yaml:"daemon_interval_minutes"`
}

type TrendsConfig struct {
	Provider           string `yaml:"provider"`  // google | serpapi | mock
	Transport          string `yaml:"transport"` // direct | proxy | scraperapi
	BaseURL            string `yaml:"base_url"`
	Language           string `yaml:"language"`
	TimezoneOffset     int    `yaml:"timezone_offset"`
	Geo                string `yaml:"geo"`
	Timeframe          string `yaml:"timeframe"`
	Resolution         string `yaml:"resolution"`
	RequestsPerMinute  int    `yaml:"requests_per_minute"`
	TimeoutSeconds     int    `yaml:"timeout_seconds"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
}

type WeatherConfig struct {
	BaseURL          string  `yaml:"base_url"`
	Timezone         string  `yaml:"timezone"`
	TimeoutSeconds   int     `yaml:"timeout_seconds"`
	IdealTemperature float64 `yaml:"ideal_temperature"`
}

type NewsConfig struct {
	Enabled         bool   `yaml:"enabled"`
	FeedURL         string `yaml:"feed_url"`
	MaxHeadlines    int    `yaml:"max_headlines"`
	MinMatches      int    `yaml:"min_matches"`
	TrendingEnabled bool   `yaml:"trending_enabled"`
	TrendingURL     string `yaml:"trending_url"`
	TrendingBoost   int    `yaml:"trending_boost"`
}

type ScoringConfig struct {
	GrowthThreshold float64               `yaml:"growth_threshold"`
	BookingJitter   int                   `yaml:"booking_jitter"`
	ViralJitter     int                   `yaml:"viral_jitter"`
	SentimentMin    int                   `yaml:"sentiment_min"`
	SentimentMax    int                   `yaml:"sentiment_max"`
	StayIntentMin   int                   `yaml:"stay_intent_min"`
	StayIntentMax   int                   `yaml:"stay_intent_max"`
	Audience        types.AudienceProfile `yaml:"audience"`
}

type OutputConfig struct {
	BackupPath    string `yaml:"backup_path"`
	SupabaseTable string `yaml:"supabase_table"`
	KafkaTopic    string `yaml:"kafka_topic"`
}

func LoadConfig() (*Config, error) {
	// Resolve path relative to this file first
	_, filePath, _, ok := runtime.Caller(0)
	var basePath string
	if ok {
		basePath = filepath.Dir(filePath)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	possiblePaths := []string{}
	if p := os.Getenv("PULSE_CONFIG"); p != "" {
		possiblePaths = append(possiblePaths, p)
	}
	if basePath != "" {
		possiblePaths = append(possiblePaths, filepath.Join(basePath, "config.yaml"))
	}
	possiblePaths = append(possiblePaths,
		filepath.Join(cwd, "Internal", "utils", "config", "config.yaml"),
		"config.yaml",
	)

	var lastErr error
	for _, path := range possiblePaths {
		cfg, err := LoadConfigFrom(path)
		if err == nil {
			return cfg, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// LoadConfigFrom reads, defaults and validates a single config file.
func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	cfg.path = path
	return &cfg, nil
}

// Path is the file the config was loaded from.
func (c *Config) Path() string {
	return c.path
}

func (c *Config) applyDefaults() {
	col := &c.Collector
	setInt(&col.TrendTail, 30)
	setInt(&col.TrendWindow, 7)
	setInt(&col.TopOrigins, 3)
	setInt(&col.DestinationAttempts, 3)
	setInt(&col.DestinationBackoffSeconds, 15)
	setInt(&col.FetchAttempts, 3)
	setInt(&col.FetchBackoffSeconds, 10)
	setInt(&col.DaemonIntervalMinutes, 360)
	if col.Version == "" {
		col.Version = "v5.0-go"
	}

	tr := &c.Trends
	setString(&tr.Provider, "google")
	setString(&tr.Transport, "direct")
	setString(&tr.BaseURL, "https://trends.google.com")
	setString(&tr.Language, "pt-BR")
	setString(&tr.Geo, "BR")
	setString(&tr.Timeframe, "today 3-m")
	setString(&tr.Resolution, "CITY")
	setInt(&tr.RequestsPerMinute, 20)
	setInt(&tr.TimeoutSeconds, 25)

	w := &c.Weather
	setString(&w.BaseURL, "https://api.open-meteo.com/v1/forecast")
	setString(&w.Timezone, "America/Sao_Paulo")
	setInt(&w.TimeoutSeconds, 10)
	if w.IdealTemperature == 0 {
		w.IdealTemperature = 20
	}

	n := &c.News
	setString(&n.FeedURL, "https://news.google.com/rss/search")
	setString(&n.TrendingURL, "https://trends.google.com/trending/rss")
	setInt(&n.MaxHeadlines, 10)
	setInt(&n.MinMatches, 3)

	s := &c.Scoring
	if s.GrowthThreshold == 0 {
		s.GrowthThreshold = 15
	}
	setInt(&s.BookingJitter, 15)
	setInt(&s.ViralJitter, 20)
	setInt(&s.SentimentMin, 60)
	setInt(&s.SentimentMax, 95)
	setInt(&s.StayIntentMin, 60)
	setInt(&s.StayIntentMax, 90)
	if s.Audience.Couples == 0 && s.Audience.Families == 0 {
		s.Audience = types.AudienceProfile{Couples: 50, Families: 50}
	}

	o := &c.Output
	setString(&o.BackupPath, "pulse-data-backup.json")
	setString(&o.SupabaseTable, "pulse_snapshots")
	setString(&o.KafkaTopic, "pulse-snapshots")
}

func (c *Config) Validate() error {
	if len(c.Destinations) == 0 {
		return fmt.Errorf("no destinations configured")
	}
	seen := make(map[string]bool, len(c.Destinations))
	for _, d := range c.Destinations {
		if d.ID == "" || d.Name == "" {
			return fmt.Errorf("destination %q: id and name are required", d.ID)
		}
		if seen[d.ID] {
			return fmt.Errorf("duplicate destination id %q", d.ID)
		}
		seen[d.ID] = true
		if len(d.Keywords) == 0 {
			return fmt.Errorf("destination %q has no keywords", d.ID)
		}
	}

	col := c.Collector
	if col.RequestPauseMaxSeconds < col.RequestPauseMinSeconds {
		return fmt.Errorf("request pause range is inverted (%d > %d)", col.RequestPauseMinSeconds, col.RequestPauseMaxSeconds)
	}
	if col.DestinationPauseMaxSeconds < col.DestinationPauseMinSeconds {
		return fmt.Errorf("destination pause range is inverted (%d > %d)", col.DestinationPauseMinSeconds, col.DestinationPauseMaxSeconds)
	}
	if col.TrendWindow > col.TrendTail {
		return fmt.Errorf("trend_window %d exceeds trend_tail %d", col.TrendWindow, col.TrendTail)
	}

	switch strings.ToLower(c.Trends.Provider) {
	case "google", "serpapi", "mock":
	default:
		return fmt.Errorf("unknown trends provider %q", c.Trends.Provider)
	}
	switch strings.ToLower(c.Trends.Transport) {
	case "direct", "proxy", "scraperapi":
	default:
		return fmt.Errorf("unknown trends transport %q", c.Trends.Transport)
	}

	s := c.Scoring
	if s.SentimentMax < s.SentimentMin || s.StayIntentMax < s.StayIntentMin {
		return fmt.Errorf("scoring ranges are inverted")
	}
	return nil
}

// FindDestination looks a destination up by id.
func (c *Config) FindDestination(id string) *types.Destination {
	for i := range c.Destinations {
		if c.Destinations[i].ID == id {
			return &c.Destinations[i]
		}
	}
	return nil
}

func (c *Config) DaemonInterval() time.Duration {
	return time.Duration(c.Collector.DaemonIntervalMinutes) * time.Minute
}

func SaveConfig(cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	path := cfg.path
	if path == "" {
		path = "Internal/utils/config/config.yaml"
	}
	return os.WriteFile(path, data, 0644)
}

func setInt(dst *int, def int) {
	if *dst == 0 {
		*dst = def
	}
}

func setString(dst *string, def string) {
	if strings.TrimSpace(*dst) == "" {
		*dst = def
	}
}
