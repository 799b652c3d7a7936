package internal

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fazecat/demandpulse/Internal/database"
	settingshandler "github.com/fazecat/demandpulse/Internal/handlers/settings"
	newsscraping "github.com/fazecat/demandpulse/Internal/news_scraping"
	"github.com/fazecat/demandpulse/Internal/publish"
	"github.com/fazecat/demandpulse/Internal/strategy/metrics"
	"github.com/fazecat/demandpulse/Internal/types"
	"github.com/fazecat/demandpulse/Internal/utils/config"
	"github.com/fazecat/demandpulse/Internal/utils/scanner"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// CollectFunc runs one collection; it is called from a background goroutine.
type CollectFunc func(ctx context.Context) (*scanner.Result, error)

type API struct {
	Config     *config.Config
	Store      *database.Store
	Backup     *publish.BackupWriter
	Settings   *settingshandler.Handler
	JWTManager *JWTManager
	News       *newsscraping.NewsClient
	Analyzer   *newsscraping.SentimentAnalyzer
	Collect    CollectFunc

	// BaseContext is the parent of background collections; cancelling it
	// stops a run in flight. Defaults to context.Background().
	BaseContext context.Context

	running atomic.Bool
	mu      sync.RWMutex
	last    *CollectStatus
	wg      sync.WaitGroup
}

type CollectStatus struct {
	RunID      string    `json:"run_id"`
	Provider   string    `json:"provider"`
	Processed  int       `json:"processed"`
	Failed     int       `json:"failed"`
	FinishedAt time.Time `json:"finished_at"`
	Error      string    `json:"error,omitempty"`
}

type RankingEntry struct {
	Position int     `json:"posicao"`
	ID       string  `json:"id"`
	Name     string  `json:"nome"`
	State    string  `json:"estado"`
	Growth   float64 `json:"crescimento"`
	Status   string  `json:"status"`
	Trending bool    `json:"emAlta"`
}

type NewsItem struct {
	Headline    string  `json:"headline"`
	URL         string  `json:"url"`
	Source      string  `json:"source"`
	PublishedAt string  `json:"published_at"`
	Sentiment   string  `json:"sentiment"`
	Score       float64 `json:"score"`
}

// Router wires every route. Routes behind the JWT middleware change state.
func (api *API) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(CorsMiddleware)

	r.Get("/health", api.HandleHealth)

	// Public routes
	r.Get("/api/pulse", api.HandleGetPulse)
	r.Get("/api/pulse/{id}", api.HandleGetDestination)
	r.Get("/api/ranking", api.HandleGetRanking)
	r.Get("/api/regions", api.HandleGetRegions)
	r.Get("/api/snapshots", api.HandleGetSnapshots)
	r.Get("/api/news/{id}", api.HandleGetNews)
	r.Get("/api/collect", api.HandleCollectStatus)
	r.Post("/api/token", api.HandleGenerateToken)

	r.Group(func(r chi.Router) {
		r.Use(JWTAuthMiddleware(api.JWTManager))
		r.Post("/api/collect", api.HandleCollect)

		// Settings
		r.Get("/api/settings", api.HandleGetSettings)
		r.Post("/api/settings", api.HandleUpdateSettings)
	})

	return r
}

func (api *API) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":     "healthy",
		"database":   "disabled",
		"collecting": api.running.Load(),
	}
	if api.Store != nil {
		if err := database.HealthCheck(); err != nil {
			status["database"] = "unreachable"
		} else {
			status["database"] = "ok"
		}
	}
	WriteJSON(w, http.StatusOK, status)
}

// latestSnapshot prefers the database and falls back to the local backup file.
func (api *API) latestSnapshot(ctx context.Context) (types.Snapshot, error) {
	if api.Store != nil {
		snap, err := api.Store.GetLatestSnapshot(ctx)
		if err == nil {
			return snap, nil
		}
		if !errors.Is(err, database.ErrNoSnapshot) {
			log.Printf("Warning: reading latest snapshot from database: %v", err)
		}
	}
	if api.Backup == nil {
		return types.Snapshot{}, database.ErrNoSnapshot
	}
	snap, err := api.Backup.LatestSnapshot()
	if errors.Is(err, os.ErrNotExist) {
		return types.Snapshot{}, database.ErrNoSnapshot
	}
	return snap, err
}

func (api *API) snapshotOrError(w http.ResponseWriter, r *http.Request) (types.Snapshot, bool) {
	snap, err := api.latestSnapshot(r.Context())
	if errors.Is(err, database.ErrNoSnapshot) {
		WriteError(w, http.StatusNotFound, "No pulse data collected yet")
		return snap, false
	}
	if err != nil {
		log.Printf("Error loading pulse data: %v", err)
		WriteError(w, http.StatusInternalServerError, "Failed to load pulse data")
		return snap, false
	}
	return snap, true
}

func (api *API) HandleGetPulse(w http.ResponseWriter, r *http.Request) {
	snap, ok := api.snapshotOrError(w, r)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, snap)
}

func (api *API) HandleGetDestination(w http.ResponseWriter, r *http.Request) {
	snap, ok := api.snapshotOrError(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	record, found := snap.Data.Find(id)
	if !found {
		WriteError(w, http.StatusNotFound, "Unknown destination: "+id)
		return
	}
	WriteJSON(w, http.StatusOK, record)
}

func (api *API) HandleGetRanking(w http.ResponseWriter, r *http.Request) {
	snap, ok := api.snapshotOrError(w, r)
	if !ok {
		return
	}
	ranked := metrics.RankByGrowth(snap.Data)
	entries := make([]RankingEntry, 0, len(ranked))
	for i, d := range ranked {
		entries = append(entries, RankingEntry{
			Position: i + 1,
			ID:       d.ID,
			Name:     d.Name,
			State:    d.State,
			Growth:   d.Growth,
			Status:   d.Status,
			Trending: d.Trending,
		})
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ranking":            entries,
		"ultima_atualizacao": snap.Metadata.LastUpdated,
	})
}

func (api *API) HandleGetRegions(w http.ResponseWriter, r *http.Request) {
	snap, ok := api.snapshotOrError(w, r)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, metrics.CalculateRegionStats(snap.Data))
}

func (api *API) HandleGetSnapshots(w http.ResponseWriter, r *http.Request) {
	if api.Store == nil {
		WriteError(w, http.StatusServiceUnavailable, "Snapshot history needs DATABASE_URL")
		return
	}

	limit := database.DefaultSnapshotLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsedLimit, err := strconv.Atoi(limitStr)
		if err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}

	summaries, err := api.Store.ListSnapshots(r.Context(), limit)
	if err != nil {
		log.Printf("Error fetching snapshots: %v", err)
		WriteError(w, http.StatusInternalServerError, "Failed to fetch snapshots")
		return
	}
	WriteJSON(w, http.StatusOK, summaries)
}

func (api *API) HandleGetNews(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	dest := api.Config.FindDestination(id)
	if dest == nil {
		WriteError(w, http.StatusNotFound, "Unknown destination: "+id)
		return
	}
	if api.News == nil || api.Analyzer == nil {
		WriteError(w, http.StatusServiceUnavailable, "News lookup is not configured")
		return
	}

	articles, err := api.News.FetchHeadlines(r.Context(), dest.Name+" turismo", api.Config.News.MaxHeadlines)
	if err != nil {
		log.Printf("Error fetching news for %s: %v", dest.ID, err)
		WriteError(w, http.StatusBadGateway, "Failed to fetch news")
		return
	}

	items := make([]NewsItem, 0, len(articles))
	headlines := make([]string, 0, len(articles))
	for _, a := range articles {
		sent, score := api.Analyzer.Analyze(a.Headline + " " + a.Summary)
		published := ""
		if !a.PublishedAt.IsZero() {
			published = a.PublishedAt.Format(time.RFC3339)
		}
		items = append(items, NewsItem{
			Headline:    a.Headline,
			URL:         a.URL,
			Source:      a.Source,
			PublishedAt: published,
			Sentiment:   string(sent),
			Score:       score,
		})
		headlines = append(headlines, a.Headline+" "+a.Summary)
	}
	overall, matched := api.Analyzer.AnalyzeHeadlines(headlines)

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"destination": dest.ID,
		"news":        items,
		"count":       len(items),
		"sentiment":   overall,
		"matched":     matched,
	})
}

func (api *API) HandleGenerateToken(w http.ResponseWriter, r *http.Request) {
	adminKey := os.Getenv("API_ADMIN_KEY")
	if adminKey == "" {
		WriteError(w, http.StatusServiceUnavailable, "API_ADMIN_KEY is not configured")
		return
	}
	if r.Header.Get("X-API-Key") != adminKey {
		WriteError(w, http.StatusUnauthorized, "Invalid API key")
		return
	}

	token, err := api.JWTManager.GenerateToken("admin", "operator", 24*time.Hour)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"token":      token,
		"expires_in": 24 * 3600,
	})
}

// HandleCollect starts a background collection. Only one runs at a time.
func (api *API) HandleCollect(w http.ResponseWriter, r *http.Request) {
	if api.Collect == nil {
		WriteError(w, http.StatusServiceUnavailable, "Collection is not configured")
		return
	}
	if !api.running.CompareAndSwap(false, true) {
		WriteError(w, http.StatusConflict, "A collection is already running")
		return
	}

	who := "unknown"
	if claims, ok := ClaimsFromContext(r.Context()); ok {
		who = claims.Subject
	}
	log.Printf("🚀 Collection triggered through the API by %s", who)

	api.wg.Add(1)
	go func() {
		defer api.wg.Done()
		defer api.running.Store(false)

		res, err := api.Collect(api.baseContext())
		status := &CollectStatus{FinishedAt: time.Now()}
		if res != nil {
			status.RunID = res.RunID
			status.Provider = res.Provider
			status.Processed = res.Processed
			status.Failed = res.Failed
		}
		if err != nil {
			log.Printf("❌ Collection failed: %v", err)
			status.Error = err.Error()
		}
		api.mu.Lock()
		api.last = status
		api.mu.Unlock()
	}()

	WriteJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

func (api *API) HandleCollectStatus(w http.ResponseWriter, r *http.Request) {
	api.mu.RLock()
	last := api.last
	api.mu.RUnlock()
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"running": api.running.Load(),
		"last":    last,
	})
}

func (api *API) baseContext() context.Context {
	if api.BaseContext != nil {
		return api.BaseContext
	}
	return context.Background()
}

// Wait blocks until a background collection, if any, has finished.
func (api *API) Wait() {
	api.wg.Wait()
}

func (api *API) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	if api.Settings == nil {
		WriteError(w, http.StatusServiceUnavailable, "Settings need DATABASE_URL")
		return
	}
	api.Settings.HandleGetSettings(w, r)
}

func (api *API) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	if api.Settings == nil {
		WriteError(w, http.StatusServiceUnavailable, "Settings need DATABASE_URL")
		return
	}
	api.Settings.HandleUpdateSettings(w, r)
}
