package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"

	"github.com/fazecat/demandpulse/Internal/utils/config"
)

// Store is the key/value table the settings live in.
type Store interface {
	Get(ctx context.Context, key string) (value, settingType string, err error)
	Set(ctx context.Context, key, value, settingType string) error
}

// SQLStore reads and writes the settings table.
type SQLStore struct {
	DB *sql.DB
}

func (s SQLStore) Get(ctx context.Context, key string) (string, string, error) {
	var value sql.NullString
	var settingType string
	err := s.DB.QueryRowContext(ctx,
		"SELECT setting_value, setting_type FROM settings WHERE setting_key = $1",
		key,
	).Scan(&value, &settingType)
	return value.String, settingType, err
}

func (s SQLStore) Set(ctx context.Context, key, value, settingType string) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO settings (setting_key, setting_value, setting_type, updated_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
		ON CONFLICT (setting_key) DO UPDATE SET
			setting_value = EXCLUDED.setting_value,
			setting_type = EXCLUDED.setting_type,
			updated_at = CURRENT_TIMESTAMP`,
		key, value, settingType,
	)
	return err
}

// GetSetting retrieves a setting with type conversion, falling back to defaultValue
func GetSetting(ctx context.Context, store Store, key string, defaultValue interface{}) interface{} {
	value, settingType, err := store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("Warning: failed to read setting %s: %v", key, err)
		}
		return defaultValue
	}

	// Convert to appropriate type
	switch settingType {
	case "number":
		var floatVal float64
		json.Unmarshal([]byte(value), &floatVal)
		return floatVal
	case "boolean":
		return value == "true"
	case "secret":
		plain, err := Decrypt(value)
		if err != nil {
			log.Printf("Warning: failed to decrypt setting %s: %v", key, err)
			return defaultValue
		}
		return plain
	default:
		return value
	}
}

// SetSetting upserts a setting
func SetSetting(ctx context.Context, store Store, key string, value interface{}) error {
	var valueStr string
	settingType := "string"

	switch v := value.(type) {
	case bool:
		settingType = "boolean"
		if v {
			valueStr = "true"
		} else {
			valueStr = "false"
		}
	case float64:
		settingType = "number"
		bytes, _ := json.Marshal(v)
		valueStr = string(bytes)
	case int:
		settingType = "number"
		bytes, _ := json.Marshal(v)
		valueStr = string(bytes)
	default:
		valueStr = value.(string)
	}

	return store.Set(ctx, key, valueStr, settingType)
}

// SetSecret encrypts value before storing it
func SetSecret(ctx context.Context, store Store, key, value string) error {
	if !EncryptionEnabled() {
		log.Printf("Warning: storing %s unencrypted, set SETTINGS_ENCRYPTION_KEY", key)
	}
	enc, err := Encrypt(value)
	if err != nil {
		return err
	}
	return store.Set(ctx, key, enc, "secret")
}

// LoadSettingsFromDatabase exports stored credentials as environment variables.
// Variables already set in the environment win.
func LoadSettingsFromDatabase(ctx context.Context, store Store) {
	loaded := 0
	for _, s := range secretSettings {
		if os.Getenv(s.EnvVar) != "" {
			continue
		}
		value := GetSetting(ctx, store, s.Key, "").(string)
		if value != "" {
			os.Setenv(s.EnvVar, value)
			log.Printf("Loaded %s from database", s.EnvVar)
			loaded++
		}
	}
	log.Printf("Settings loaded from database on startup (%d credentials)", loaded)
}

// ApplyCollectionOverrides copies stored collection choices over the file config.
func ApplyCollectionOverrides(ctx context.Context, store Store, cfg *config.Config) {
	if p := GetSetting(ctx, store, "trends_provider", "").(string); p != "" {
		cfg.Trends.Provider = p
	}
	if t := GetSetting(ctx, store, "trends_transport", "").(string); t != "" {
		cfg.Trends.Transport = t
	}
	cfg.News.Enabled = GetSetting(ctx, store, "news_sentiment", cfg.News.Enabled).(bool)
	cfg.News.TrendingEnabled = GetSetting(ctx, store, "trending_boost", cfg.News.TrendingEnabled).(bool)
}

// MaskSensitiveValue masks API keys for display
func MaskSensitiveValue(value string) string {
	if value == "" {
		return "Not set"
	}
	if len(value) <= 4 {
		return "****"
	}
	return value[:4] + "****...****"
}

func validProvider(p string) bool {
	switch strings.ToLower(p) {
	case "google", "serpapi", "mock":
		return true
	}
	return false
}

func validTransport(t string) bool {
	switch strings.ToLower(t) {
	case "direct", "proxy", "scraperapi":
		return true
	}
	return false
}
