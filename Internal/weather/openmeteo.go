package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/fazecat/demandpulse/Internal/types"
	"github.com/fazecat/demandpulse/Internal/utils"
	"github.com/fazecat/demandpulse/Internal/utils/config"
)

// São Paulo, used for destinations without coordinates.
const (
	defaultLatitude  = -23.55
	defaultLongitude = -46.63
)

// Fallback is returned whenever the forecast cannot be fetched.
var Fallback = types.Weather{
	CurrentTemp:   22,
	MaxTemp:       26,
	MinTemp:       18,
	Precipitation: 0,
	Condition:     "Parcialmente nublado",
}

type forecastResponse struct {
	CurrentWeather *struct {
		Temperature *float64 `json:"temperature"`
		WeatherCode *int     `json:"weathercode"`
	} `json:"current_weather"`
	Daily *struct {
		TemperatureMax   []float64 `json:"temperature_2m_max"`
		TemperatureMin   []float64 `json:"temperature_2m_min"`
		PrecipitationSum []float64 `json:"precipitation_sum"`
	} `json:"daily"`
}

// Client fetches daily forecasts from Open-Meteo.
type Client struct {
	baseURL  string
	timezone string
	http     *http.Client
}

func NewClient(cfg config.WeatherConfig) *Client {
	return &Client{
		baseURL:  cfg.BaseURL,
		timezone: cfg.Timezone,
		http:     &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

// Forecast never fails: errors are logged and the fallback forecast is returned.
func (c *Client) Forecast(ctx context.Context, dest types.Destination) types.Weather {
	w, err := c.Fetch(ctx, dest.Latitude, dest.Longitude)
	if err != nil {
		log.Printf("      ⚠️  Weather lookup failed for %s: %v", dest.Name, err)
		return Fallback
	}
	return w
}

// Fetch queries the forecast for a coordinate pair. (0, 0) means unknown and
// resolves to São Paulo.
func (c *Client) Fetch(ctx context.Context, lat, lon float64) (types.Weather, error) {
	if lat == 0 && lon == 0 {
		lat, lon = defaultLatitude, defaultLongitude
	}

	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("current_weather", "true")
	q.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_sum")
	q.Set("timezone", c.timezone)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return types.Weather{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return types.Weather{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.Weather{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return types.Weather{}, fmt.Errorf("open-meteo returned status %d: %s", resp.StatusCode, utils.Truncate(string(body), 200))
	}

	var fr forecastResponse
	if err := json.Unmarshal(body, &fr); err != nil {
		return types.Weather{}, fmt.Errorf("decode forecast: %w", err)
	}
	return fr.toWeather(), nil
}

func (fr forecastResponse) toWeather() types.Weather {
	w := types.Weather{CurrentTemp: 20, MaxTemp: 25, MinTemp: 15}
	code := 0

	if cw := fr.CurrentWeather; cw != nil {
		if cw.Temperature != nil {
			w.CurrentTemp = *cw.Temperature
		}
		if cw.WeatherCode != nil {
			code = *cw.WeatherCode
		}
	}
	if d := fr.Daily; d != nil {
		w.MaxTemp = first(d.TemperatureMax, w.MaxTemp)
		w.MinTemp = first(d.TemperatureMin, w.MinTemp)
		w.Precipitation = first(d.PrecipitationSum, 0)
	}

	// WMO codes 0-2: clear to partly cloudy
	if code < 3 {
		w.Condition = "Ensolarado"
	} else {
		w.Condition = "Nublado"
	}
	return w
}

func first(values []float64, def float64) float64 {
	if len(values) == 0 {
		return def
	}
	return values[0]
}
