package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
)

var DB *sql.DB

// ErrNotConfigured names the variables Enabled looks at.
var ErrNotConfigured = errors.New("database not configured: set DATABASE_URL or DB_PASSWORD")

type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func ConfigFromEnv() DatabaseConfig {
	return DatabaseConfig{
		URL:      os.Getenv("DATABASE_URL"),
		Host:     getEnvOrDefault("DB_HOST", "localhost"),
		Port:     getEnvOrDefault("DB_PORT", "5432"),
		User:     getEnvOrDefault("DB_USER", "postgres"),
		Password: os.Getenv("DB_PASSWORD"), // Required - no default
		DBName:   getEnvOrDefault("DB_NAME", "demandpulse"),
		SSLMode:  getEnvOrDefault("DB_SSLMODE", "disable"),
	}
}

// Enabled reports whether a database is configured at all.
func (c DatabaseConfig) Enabled() bool {
	return c.URL != "" || c.Password != ""
}

func (c DatabaseConfig) ConnString() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

func InitDatabase() error {
	config := ConfigFromEnv()
	if !config.Enabled() {
		return ErrNotConfigured
	}

	var err error
	DB, err = sql.Open("postgres", config.ConnString())
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = DB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	if err = initializeSchema(); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	log.Println("✅ Database connected successfully!")
	return nil
}

// schemaSQL creates the snapshot, scan log and settings tables if they don't exist.
// data is JSON rather than JSONB so the destination order survives the round trip.
// Tables created with plain TIMESTAMP columns are upgraded in place.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS pulse_snapshots (
	id SERIAL PRIMARY KEY,
	run_id TEXT NOT NULL,
	data JSON NOT NULL,
	metadata JSONB NOT NULL,
	created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS scan_log (
	id SERIAL PRIMARY KEY,
	run_id TEXT NOT NULL UNIQUE,
	provider TEXT NOT NULL,
	started_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL,
	processed INTEGER NOT NULL,
	failed INTEGER NOT NULL,
	error TEXT
);

CREATE TABLE IF NOT EXISTS settings (
	id SERIAL PRIMARY KEY,
	setting_key TEXT NOT NULL UNIQUE,
	setting_value TEXT,
	setting_type TEXT NOT NULL DEFAULT 'string',
	updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_pulse_snapshots_created ON pulse_snapshots(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_scan_log_finished ON scan_log(finished_at DESC);

ALTER TABLE pulse_snapshots ALTER COLUMN created_at TYPE TIMESTAMPTZ;
ALTER TABLE scan_log ALTER COLUMN started_at TYPE TIMESTAMPTZ;
ALTER TABLE scan_log ALTER COLUMN finished_at TYPE TIMESTAMPTZ;
ALTER TABLE settings ALTER COLUMN updated_at TYPE TIMESTAMPTZ;
`

func initializeSchema() error {
	_, err := DB.Exec(schemaSQL)
	return err
}

func CloseDatabase() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func HealthCheck() error {
	if DB == nil {
		return fmt.Errorf("database connection is nil")
	}
	return DB.Ping()
}
