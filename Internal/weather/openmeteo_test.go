package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fazecat/demandpulse/Internal/types"
	"github.com/fazecat/demandpulse/Internal/utils/config"
)

func newTestClient(url string) *Client {
	return NewClient(config.WeatherConfig{BaseURL: url, Timezone: "America/Sao_Paulo", TimeoutSeconds: 5})
}

func TestFetch(t *testing.T) {
	tests := []struct {
		name string
		body string
		want types.Weather
	}{
		{
			name: "full response",
			body: `{"current_weather":{"temperature":17.3,"weathercode":1},"daily":{"temperature_2m_max":[21.4],"temperature_2m_min":[9.8],"precipitation_sum":[2.5]}}`,
			want: types.Weather{CurrentTemp: 17.3, MaxTemp: 21.4, MinTemp: 9.8, Precipitation: 2.5, Condition: "Ensolarado"},
		},
		{
			name: "cloudy",
			body: `{"current_weather":{"temperature":12,"weathercode":61},"daily":{"temperature_2m_max":[14],"temperature_2m_min":[8],"precipitation_sum":[11]}}`,
			want: types.Weather{CurrentTemp: 12, MaxTemp: 14, MinTemp: 8, Precipitation: 11, Condition: "Nublado"},
		},
		{
			name: "missing fields use defaults",
			body: `{}`,
			want: types.Weather{CurrentTemp: 20, MaxTemp: 25, MinTemp: 15, Precipitation: 0, Condition: "Ensolarado"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			got, err := newTestClient(srv.URL).Fetch(context.Background(), -22.74, -45.59)
			if err != nil {
				t.Fatalf("Fetch: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFetch_QueryParameters(t *testing.T) {
	var query map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = map[string]string{}
		for k := range r.URL.Query() {
			query[k] = r.URL.Query().Get(k)
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).Fetch(context.Background(), 0, 0); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if query["latitude"] != "-23.55" || query["longitude"] != "-46.63" {
		t.Errorf("unknown coordinates should default to São Paulo, got %v,%v", query["latitude"], query["longitude"])
	}
	if query["current_weather"] != "true" || query["timezone"] != "America/Sao_Paulo" {
		t.Errorf("unexpected query %v", query)
	}
	if query["daily"] != "temperature_2m_max,temperature_2m_min,precipitation_sum" {
		t.Errorf("daily = %q", query["daily"])
	}
}

func TestForecast_FallbackOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	got := newTestClient(srv.URL).Forecast(context.Background(), types.Destination{Name: "Monte Verde"})
	if got != Fallback {
		t.Errorf("got %+v, want fallback", got)
	}
}
