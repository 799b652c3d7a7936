package settings

type SettingsPayload struct {
	Collection *CollectionSettings `json:"collection,omitempty"`
	API        *APISettings        `json:"api,omitempty"`
}

type CollectionSettings struct {
	Provider      string `json:"provider"`
	Transport     string `json:"transport"`
	NewsSentiment *bool  `json:"newsSentiment,omitempty"`
	TrendingBoost *bool  `json:"trendingBoost,omitempty"`
}

type APISettings struct {
	SerpAPIKey     string `json:"serpApiKey"`
	ScraperAPIKey  string `json:"scraperApiKey"`
	TrendsProxyURL string `json:"trendsProxyUrl"`
	SupabaseURL    string `json:"supabaseUrl"`
	SupabaseKey    string `json:"supabaseKey"`
}

type SettingsResponse struct {
	Collection CollectionSettings `json:"collection"`
	API        map[string]string  `json:"api"`
	Encrypted  bool               `json:"encrypted"`
	Message    string             `json:"message,omitempty"`
}

// secretSetting maps a stored credential to the environment variable it feeds.
type secretSetting struct {
	Key    string
	EnvVar string
	Label  string
}

var secretSettings = []secretSetting{
	{Key: "serpapi_key", EnvVar: "SERPAPI_KEY", Label: "serpApiKeyMasked"},
	{Key: "scraperapi_key", EnvVar: "SCRAPERAPI_KEY", Label: "scraperApiKeyMasked"},
	{Key: "trends_proxy_url", EnvVar: "TRENDS_PROXY_URL", Label: "trendsProxyUrlMasked"},
	{Key: "supabase_url", EnvVar: "SUPABASE_URL", Label: "supabaseUrlMasked"},
	{Key: "supabase_key", EnvVar: "SUPABASE_KEY", Label: "supabaseKeyMasked"},
}

func (a *APISettings) values() map[string]string {
	return map[string]string{
		"serpapi_key":      a.SerpAPIKey,
		"scraperapi_key":   a.ScraperAPIKey,
		"trends_proxy_url": a.TrendsProxyURL,
		"supabase_url":     a.SupabaseURL,
		"supabase_key":     a.SupabaseKey,
	}
}
