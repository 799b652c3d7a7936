package settings

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/fazecat/demandpulse/Internal/utils/config"
)

// Handler handles all settings-related operations
type Handler struct {
	Store    Store
	Defaults *config.Config
}

// NewHandler creates a new settings handler
func NewHandler(store Store, defaults *config.Config) *Handler {
	return &Handler{Store: store, Defaults: defaults}
}

// envelope mirrors the API's {success, data, error} response shape.
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(envelope{Success: false, Error: message})
}

// HandleGetSettings returns all settings
func (h *Handler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	newsDefault, trendingDefault := true, true
	providerDefault, transportDefault := "google", "direct"
	if h.Defaults != nil {
		newsDefault, trendingDefault = h.Defaults.News.Enabled, h.Defaults.News.TrendingEnabled
		providerDefault, transportDefault = h.Defaults.Trends.Provider, h.Defaults.Trends.Transport
	}
	news := GetSetting(ctx, h.Store, "news_sentiment", newsDefault).(bool)
	trending := GetSetting(ctx, h.Store, "trending_boost", trendingDefault).(bool)

	api := make(map[string]string, len(secretSettings))
	for _, s := range secretSettings {
		api[s.Label] = MaskSensitiveValue(GetSetting(ctx, h.Store, s.Key, "").(string))
	}

	response := SettingsResponse{
		Collection: CollectionSettings{
			Provider:      GetSetting(ctx, h.Store, "trends_provider", providerDefault).(string),
			Transport:     GetSetting(ctx, h.Store, "trends_transport", transportDefault).(string),
			NewsSentiment: &news,
			TrendingBoost: &trending,
		},
		API:       api,
		Encrypted: EncryptionEnabled(),
	}

	writeJSON(w, http.StatusOK, response)
}

// HandleUpdateSettings updates collection choices and provider credentials
func (h *Handler) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload SettingsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if c := payload.Collection; c != nil {
		if c.Provider != "" && !validProvider(c.Provider) {
			writeError(w, http.StatusBadRequest, "Unknown provider: "+c.Provider)
			return
		}
		if c.Transport != "" && !validTransport(c.Transport) {
			writeError(w, http.StatusBadRequest, "Unknown transport: "+c.Transport)
			return
		}
	}

	if c := payload.Collection; c != nil {
		type update struct {
			key   string
			value interface{}
		}
		var updates []update
		add := func(key string, value interface{}) {
			updates = append(updates, update{key, value})
		}
		if c.Provider != "" {
			add("trends_provider", strings.ToLower(c.Provider))
		}
		if c.Transport != "" {
			add("trends_transport", strings.ToLower(c.Transport))
		}
		if c.NewsSentiment != nil {
			add("news_sentiment", *c.NewsSentiment)
		}
		if c.TrendingBoost != nil {
			add("trending_boost", *c.TrendingBoost)
		}
		for _, u := range updates {
			if err := SetSetting(ctx, h.Store, u.key, u.value); err != nil {
				log.Printf("Error saving setting %s: %v", u.key, err)
				writeError(w, http.StatusInternalServerError, "Failed to save "+u.key)
				return
			}
		}
	}

	if payload.API != nil {
		values := payload.API.values()
		for _, s := range secretSettings {
			v := values[s.Key]
			if v == "" {
				continue
			}
			if err := SetSecret(ctx, h.Store, s.Key, v); err != nil {
				writeError(w, http.StatusInternalServerError, "Failed to save "+s.Key)
				return
			}
			os.Setenv(s.EnvVar, v)
		}
	}

	writeJSON(w, http.StatusOK, SettingsResponse{Message: "Settings updated successfully"})
}
