package trends

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/fazecat/demandpulse/Internal/utils/config"
	g "github.com/serpapi/google-search-results-golang"
	"golang.org/x/time/rate"
)

type searchFunc func(parameter map[string]string, apiKey string) (map[string]interface{}, error)

// SerpAPIClient reads Google Trends through the SerpApi search-results API.
type SerpAPIClient struct {
	apiKey   string
	language string
	tz       string
	geo      string
	date     string
	region   string

	limiter *rate.Limiter
	search  searchFunc
}

func NewSerpAPIClient(cfg config.TrendsConfig, apiKey string) *SerpAPIClient {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 20
	}
	return &SerpAPIClient{
		apiKey:   apiKey,
		language: cfg.Language,
		tz:       strconv.Itoa(cfg.TimezoneOffset),
		geo:      cfg.Geo,
		date:     cfg.Timeframe,
		region:   cfg.Resolution,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
		search:   googleSearch,
	}
}

func googleSearch(parameter map[string]string, apiKey string) (map[string]interface{}, error) {
	search := g.NewGoogleSearch(parameter, apiKey)
	data, err := search.GetJSON()
	if err != nil {
		return nil, err
	}
	return map[string]interface{}(data), nil
}

func (c *SerpAPIClient) Name() string { return "serpapi" }

func (c *SerpAPIClient) InterestOverTime(ctx context.Context, keyword string) ([]float64, error) {
	data, err := c.query(ctx, keyword, map[string]string{"data_type": "TIMESERIES"})
	if err != nil {
		return nil, err
	}

	iot, _ := data["interest_over_time"].(map[string]interface{})
	timeline, _ := iot["timeline_data"].([]interface{})

	values := make([]float64, 0, len(timeline))
	for _, raw := range timeline {
		point, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		series, _ := point["values"].([]interface{})
		if len(series) == 0 {
			continue
		}
		first, _ := series[0].(map[string]interface{})
		values = append(values, getFloat(first["extracted_value"]))
	}
	if len(values) == 0 {
		return nil, ErrNoData
	}
	return values, nil
}

func (c *SerpAPIClient) InterestByRegion(ctx context.Context, keyword string) ([]RegionInterest, error) {
	data, err := c.query(ctx, keyword, map[string]string{"data_type": "GEO_MAP_0", "region": c.region})
	if err != nil {
		return nil, err
	}

	rows, _ := data["interest_by_region"].([]interface{})
	regions := make([]RegionInterest, 0, len(rows))
	for _, raw := range rows {
		row, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		name, _ := row["location"].(string)
		if name == "" {
			continue
		}
		regions = append(regions, RegionInterest{Name: name, Value: getFloat(row["extracted_value"])})
	}
	if len(regions) == 0 {
		return nil, ErrNoData
	}
	return regions, nil
}

func (c *SerpAPIClient) query(ctx context.Context, keyword string, extra map[string]string) (map[string]interface{}, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	parameter := map[string]string{
		"engine": "google_trends",
		"q":      keyword,
		"geo":    c.geo,
		"date":   c.date,
		"hl":     c.language,
		"tz":     c.tz,
	}
	for k, v := range extra {
		parameter[k] = v
	}

	data, err := c.search(parameter, c.apiKey)
	if err != nil {
		return nil, fmt.Errorf("serpapi %s for %q: %w", extra["data_type"], keyword, err)
	}
	if msg, ok := data["error"].(string); ok && msg != "" {
		return nil, fmt.Errorf("serpapi %s for %q: %s", extra["data_type"], keyword, msg)
	}
	return data, nil
}

func getFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	}
	return 0
}
