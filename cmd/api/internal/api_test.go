package internal

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	settingshandler "github.com/fazecat/demandpulse/Internal/handlers/settings"
	newsscraping "github.com/fazecat/demandpulse/Internal/news_scraping"
	"github.com/fazecat/demandpulse/Internal/publish"
	"github.com/fazecat/demandpulse/Internal/types"
	"github.com/fazecat/demandpulse/Internal/utils/config"
	"github.com/fazecat/demandpulse/Internal/utils/scanner"
)

const rssFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Google News</title>
<item><title>Gramado bate recorde de visitantes</title><link>https://example.com/1</link></item>
<item><title>Chuva forte provoca alagamento em Gramado</title><link>https://example.com/2</link></item>
</channel></rss>`

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type memSettings map[string][2]string

func (m memSettings) Get(_ context.Context, key string) (string, string, error) {
	v, ok := m[key]
	if !ok {
		return "", "", sql.ErrNoRows
	}
	return v[0], v[1], nil
}

func (m memSettings) Set(_ context.Context, key, value, settingType string) error {
	m[key] = [2]string{value, settingType}
	return nil
}

func testAPI(t *testing.T, withData bool) *API {
	t.Helper()
	backup := publish.NewBackupWriter(filepath.Join(t.TempDir(), "pulse.json"))
	if withData {
		data := types.PulseData{
			{ID: "gramado", Name: "Gramado", State: "RS", Region: "Sul", Growth: 4.2, Status: "Estável"},
			{ID: "bonito", Name: "Bonito", State: "MS", Region: "Centro-Oeste", Growth: 22.5, Status: "Aquecendo", Trending: true},
			{ID: "canela", Name: "Canela", State: "RS", Region: "Sul", Growth: -18, Status: "Arrefecendo"},
		}
		if err := backup.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	return &API{
		Config: &config.Config{
			News:         config.NewsConfig{MaxHeadlines: 5},
			Destinations: []types.Destination{{ID: "gramado", Name: "Gramado", Keywords: []string{"Gramado"}}},
		},
		Backup:     backup,
		JWTManager: NewJWTManagerWithSecret("test-secret"),
		Analyzer:   newsscraping.NewSentimentAnalyzer(),
	}
}

func do(t *testing.T, h http.Handler, method, path string, headers map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var env envelope
	json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func bearer(t *testing.T, api *API) map[string]string {
	t.Helper()
	token, err := api.JWTManager.GenerateToken("admin", "operator", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestReadRoutes(t *testing.T) {
	h := testAPI(t, true).Router()

	tests := []struct {
		name   string
		path   string
		status int
		check  func(t *testing.T, data json.RawMessage)
	}{
		{"health", "/health", http.StatusOK, nil},
		{"pulse", "/api/pulse", http.StatusOK, func(t *testing.T, data json.RawMessage) {
			var snap types.Snapshot
			if err := json.Unmarshal(data, &snap); err != nil {
				t.Fatal(err)
			}
			if len(snap.Data) != 3 || snap.Data[0].ID != "gramado" {
				t.Errorf("unexpected data %+v", snap.Data)
			}
			if got := strings.Join(snap.Metadata.Top3Ranking, ","); got != "bonito,gramado,canela" {
				t.Errorf("top3 = %s", got)
			}
		}},
		{"destination", "/api/pulse/bonito", http.StatusOK, func(t *testing.T, data json.RawMessage) {
			var d types.DestinationPulse
			json.Unmarshal(data, &d)
			if d.Name != "Bonito" || !d.Trending {
				t.Errorf("got %+v", d)
			}
		}},
		{"unknown destination", "/api/pulse/atlantis", http.StatusNotFound, nil},
		{"ranking", "/api/ranking", http.StatusOK, func(t *testing.T, data json.RawMessage) {
			var body struct {
				Ranking []RankingEntry `json:"ranking"`
			}
			json.Unmarshal(data, &body)
			if len(body.Ranking) != 3 || body.Ranking[0].ID != "bonito" || body.Ranking[2].Position != 3 {
				t.Errorf("ranking %+v", body.Ranking)
			}
		}},
		{"regions", "/api/regions", http.StatusOK, func(t *testing.T, data json.RawMessage) {
			var regions []map[string]interface{}
			json.Unmarshal(data, &regions)
			if len(regions) != 2 || regions[0]["regiao"] != "Sul" || regions[0]["destinos"] != 2.0 {
				t.Errorf("regions %v", regions)
			}
		}},
		{"snapshots without database", "/api/snapshots", http.StatusServiceUnavailable, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := do(t, h, http.MethodGet, tt.path, nil)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			if tt.check != nil {
				tt.check(t, env.Data)
			}
		})
	}
}

func TestPulseWithoutData(t *testing.T) {
	h := testAPI(t, false).Router()
	rec, env := do(t, h, http.MethodGet, "/api/pulse", nil)
	if rec.Code != http.StatusNotFound || env.Success {
		t.Errorf("status = %d, success = %v", rec.Code, env.Success)
	}
}

func TestGenerateToken(t *testing.T) {
	api := testAPI(t, false)
	h := api.Router()

	t.Setenv("API_ADMIN_KEY", "")
	if rec, _ := do(t, h, http.MethodPost, "/api/token", nil); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("unset admin key: status %d", rec.Code)
	}

	t.Setenv("API_ADMIN_KEY", "let-me-in")
	if rec, _ := do(t, h, http.MethodPost, "/api/token", map[string]string{"X-API-Key": "nope"}); rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong key: status %d", rec.Code)
	}

	rec, env := do(t, h, http.MethodPost, "/api/token", map[string]string{"X-API-Key": "let-me-in"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var body struct {
		Token string `json:"token"`
	}
	json.Unmarshal(env.Data, &body)
	claims, err := api.JWTManager.ValidateToken(body.Token)
	if err != nil {
		t.Fatalf("issued token invalid: %v", err)
	}
	if claims.Subject != "admin" || claims.Role != "operator" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestValidateToken_Rejects(t *testing.T) {
	good := NewJWTManagerWithSecret("test-secret")
	other := NewJWTManagerWithSecret("other-secret")

	expired, _ := good.GenerateToken("admin", "operator", -time.Minute)
	foreign, _ := other.GenerateToken("admin", "operator", time.Hour)

	tests := []struct {
		name  string
		token string
	}{
		{"expired", expired},
		{"wrong secret", foreign},
		{"garbage", "not.a.token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := good.ValidateToken(tt.token); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestCollectRequiresToken(t *testing.T) {
	h := testAPI(t, false).Router()
	tests := []struct {
		name   string
		header map[string]string
	}{
		{"missing", nil},
		{"bad format", map[string]string{"Authorization": "Token abc"}},
		{"bad token", map[string]string{"Authorization": "Bearer abc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec, _ := do(t, h, http.MethodPost, "/api/collect", tt.header); rec.Code != http.StatusUnauthorized {
				t.Errorf("status %d", rec.Code)
			}
		})
	}
}

func TestCollectRunsOnce(t *testing.T) {
	api := testAPI(t, false)
	release := make(chan struct{})
	started := make(chan struct{})
	api.Collect = func(ctx context.Context) (*scanner.Result, error) {
		close(started)
		<-release
		return &scanner.Result{RunID: "run-1", Provider: "mock", Processed: 10}, nil
	}
	h := api.Router()
	auth := bearer(t, api)

	if rec, _ := do(t, h, http.MethodPost, "/api/collect", auth); rec.Code != http.StatusAccepted {
		t.Fatalf("first collect: status %d", rec.Code)
	}
	<-started
	if rec, _ := do(t, h, http.MethodPost, "/api/collect", auth); rec.Code != http.StatusConflict {
		t.Errorf("second collect: status %d, want 409", rec.Code)
	}

	close(release)
	api.Wait()

	_, env := do(t, h, http.MethodGet, "/api/collect", nil)
	var status struct {
		Running bool           `json:"running"`
		Last    *CollectStatus `json:"last"`
	}
	json.Unmarshal(env.Data, &status)
	if status.Running {
		t.Error("collection should be finished")
	}
	if status.Last == nil || status.Last.RunID != "run-1" || status.Last.Processed != 10 {
		t.Errorf("last = %+v", status.Last)
	}
}

func TestCollectStopsWhenBaseContextCancelled(t *testing.T) {
	api := testAPI(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	api.BaseContext = ctx
	started := make(chan struct{})
	api.Collect = func(ctx context.Context) (*scanner.Result, error) {
		close(started)
		<-ctx.Done()
		return &scanner.Result{RunID: "run-2", Provider: "mock"}, ctx.Err()
	}
	h := api.Router()

	if rec, _ := do(t, h, http.MethodPost, "/api/collect", bearer(t, api)); rec.Code != http.StatusAccepted {
		t.Fatalf("collect: status %d", rec.Code)
	}
	<-started
	cancel()
	api.Wait()

	_, env := do(t, h, http.MethodGet, "/api/collect", nil)
	var status struct {
		Running bool           `json:"running"`
		Last    *CollectStatus `json:"last"`
	}
	json.Unmarshal(env.Data, &status)
	if status.Running {
		t.Error("collection should be finished")
	}
	if status.Last == nil || status.Last.Error != context.Canceled.Error() {
		t.Errorf("last = %+v", status.Last)
	}
}

func TestSettingsRoutes(t *testing.T) {
	api := testAPI(t, false)
	h := api.Router()
	auth := bearer(t, api)

	if rec, _ := do(t, h, http.MethodGet, "/api/settings", auth); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("without store: status %d", rec.Code)
	}

	api.Settings = settingshandler.NewHandler(memSettings{}, api.Config)
	rec, env := do(t, h, http.MethodGet, "/api/settings", auth)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if !env.Success || env.Error != "" {
		t.Fatalf("envelope = %s", rec.Body.String())
	}
	var resp settingshandler.SettingsResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatal(err)
	}
	if resp.API["serpApiKeyMasked"] != "Not set" {
		t.Errorf("api = %v", resp.API)
	}

	tests := []struct {
		name        string
		body        string
		wantStatus  int
		wantSuccess bool
	}{
		{"update", `{"collection":{"transport":"proxy"}}`, http.StatusOK, true},
		{"rejected", `{"collection":{"transport":"tor"}}`, http.StatusBadRequest, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/settings", strings.NewReader(tt.body))
			for k, v := range auth {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
			}
			var env envelope
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
				t.Fatal(err)
			}
			if env.Success != tt.wantSuccess || (env.Error == "") != tt.wantSuccess {
				t.Errorf("envelope = %s", rec.Body.String())
			}
		})
	}
}

func TestGetNews(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rssFeed))
	}))
	defer srv.Close()

	api := testAPI(t, false)
	api.News = newsscraping.NewNewsClient(srv.URL)
	h := api.Router()

	rec, env := do(t, h, http.MethodGet, "/api/news/gramado", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		News  []NewsItem `json:"news"`
		Count int        `json:"count"`
	}
	json.Unmarshal(env.Data, &body)
	if body.Count != 2 || body.News[0].Sentiment != string(newsscraping.Positive) {
		t.Errorf("news = %+v", body)
	}

	if rec, _ := do(t, h, http.MethodGet, "/api/news/atlantis", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown destination: status %d", rec.Code)
	}
}
