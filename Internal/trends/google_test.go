package trends

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/fazecat/demandpulse/Internal/utils/config"
)

func testTrendsConfig(baseURL string) config.TrendsConfig {
	return config.TrendsConfig{
		Provider:          "google",
		Transport:         "direct",
		BaseURL:           baseURL,
		Language:          "pt-BR",
		TimezoneOffset:    -180,
		Geo:               "BR",
		Timeframe:         "today 3-m",
		Resolution:        "CITY",
		RequestsPerMinute: 600000,
		TimeoutSeconds:    5,
	}
}

type fakeTrends struct {
	explores int32
	geoReq   map[string]interface{}
	timeline string
	geoMap   string
}

func (f *fakeTrends) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "NID", Value: "abc"})
	})
	mux.HandleFunc("/trends/api/explore", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.explores, 1)
		if r.Method != http.MethodPost {
			t.Errorf("explore method = %s", r.Method)
		}
		if _, err := r.Cookie("NID"); err != nil {
			t.Errorf("explore sent without primed cookie")
		}
		var req struct {
			ComparisonItem []map[string]string `json:"comparisonItem"`
		}
		if err := json.Unmarshal([]byte(r.URL.Query().Get("req")), &req); err != nil {
			t.Errorf("bad explore req: %v", err)
		}
		if len(req.ComparisonItem) != 1 || req.ComparisonItem[0]["geo"] != "BR" {
			t.Errorf("unexpected comparison item %+v", req.ComparisonItem)
		}
		if r.URL.Query().Get("tz") != "-180" {
			t.Errorf("tz = %q", r.URL.Query().Get("tz"))
		}
		w.Write([]byte(")]}'\n" + `{"widgets":[
			{"id":"TIMESERIES","token":"tok-ts","request":{"time":"today 3-m"}},
			{"id":"GEO_MAP","token":"tok-geo","request":{"geo":{"country":"BR"},"resolution":"REGION"}}]}`))
	})
	mux.HandleFunc("/trends/api/widgetdata/multiline", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "tok-ts" {
			t.Errorf("multiline token = %q", r.URL.Query().Get("token"))
		}
		w.Write([]byte(")]}',\n" + f.timeline))
	})
	mux.HandleFunc("/trends/api/widgetdata/comparedgeo", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "tok-geo" {
			t.Errorf("comparedgeo token = %q", r.URL.Query().Get("token"))
		}
		json.Unmarshal([]byte(r.URL.Query().Get("req")), &f.geoReq)
		w.Write([]byte(")]}',\n" + f.geoMap))
	})
	return mux
}

func TestGoogleClient_InterestOverTimeAndRegion(t *testing.T) {
	fake := &fakeTrends{
		timeline: `{"default":{"timelineData":[{"value":[40]},{"value":[55]},{"value":[]},{"value":[70]}]}}`,
		geoMap:   `{"default":{"geoMapData":[{"geoName":"São Paulo","value":[100]},{"geoName":"Campinas","value":[42]}]}}`,
	}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	client, err := NewHTTPClient(testTrendsConfig(srv.URL), Credentials{})
	if err != nil {
		t.Fatalf("NewHTTPClient: %v", err)
	}
	g := NewGoogleClient(testTrendsConfig(srv.URL), client)
	ctx := context.Background()

	regions, err := g.InterestByRegion(ctx, "Gramado turismo")
	if err != nil {
		t.Fatalf("InterestByRegion: %v", err)
	}
	if len(regions) != 2 || regions[0].Name != "São Paulo" || regions[1].Value != 42 {
		t.Errorf("unexpected regions %+v", regions)
	}
	if fake.geoReq["resolution"] != "CITY" || fake.geoReq["includeLowSearchVolumeGeos"] != false {
		t.Errorf("geo request not rewritten: %+v", fake.geoReq)
	}

	values, err := g.InterestOverTime(ctx, "Gramado turismo")
	if err != nil {
		t.Fatalf("InterestOverTime: %v", err)
	}
	want := []float64{40, 55, 70}
	if len(values) != len(want) {
		t.Fatalf("values = %v, want %v", values, want)
	}
	for i := range want {
		if values[i] != want[i] {
			t.Errorf("values[%d] = %v, want %v", i, values[i], want[i])
		}
	}

	if n := atomic.LoadInt32(&fake.explores); n != 1 {
		t.Errorf("expected one explore call for the same keyword, got %d", n)
	}
}

func TestGoogleClient_EmptyIsNoData(t *testing.T) {
	fake := &fakeTrends{
		timeline: `{"default":{"timelineData":[]}}`,
		geoMap:   `{"default":{"geoMapData":[]}}`,
	}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	client, err := NewHTTPClient(testTrendsConfig(srv.URL), Credentials{})
	if err != nil {
		t.Fatalf("NewHTTPClient: %v", err)
	}
	g := NewGoogleClient(testTrendsConfig(srv.URL), client)

	if _, err := g.InterestOverTime(context.Background(), "x"); !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
	if _, err := g.InterestByRegion(context.Background(), "x"); !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestGoogleClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/trends/api") {
			http.Error(w, "too many requests", http.StatusTooManyRequests)
		}
	}))
	defer srv.Close()

	g := NewGoogleClient(testTrendsConfig(srv.URL), srv.Client())
	_, err := g.InterestOverTime(context.Background(), "x")

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Code != http.StatusTooManyRequests {
		t.Errorf("code = %d", se.Code)
	}
}

func TestDecodeGuarded(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"prefixed", ")]}'\n{\"a\":1}", false},
		{"comma prefix", ")]}',\n{\"a\":1}", false},
		{"plain", "{\"a\":1}", false},
		{"html", "<html>blocked</html>", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out map[string]int
			err := decodeGuarded([]byte(tt.body), &out)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && out["a"] != 1 {
				t.Errorf("out = %v", out)
			}
		})
	}
}
