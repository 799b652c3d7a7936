package trends

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/fazecat/demandpulse/Internal/utils"
	"github.com/fazecat/demandpulse/Internal/utils/config"
	"golang.org/x/time/rate"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// GoogleClient reads the Google Trends widget API.
type GoogleClient struct {
	baseURL    string
	language   string
	tz         string
	geo        string
	timeframe  string
	resolution string

	http    *http.Client
	limiter *rate.Limiter

	mu          sync.Mutex
	primed      bool
	lastKeyword string
	lastWidgets []widget
}

type widget struct {
	ID      string          `json:"id"`
	Token   string          `json:"token"`
	Request json.RawMessage `json:"request"`
}

type exploreResponse struct {
	Widgets []widget `json:"widgets"`
}

type multilineResponse struct {
	Default struct {
		TimelineData []struct {
			Time    string `json:"time"`
			Value   []int  `json:"value"`
			HasData []bool `json:"hasData"`
		} `json:"timelineData"`
	} `json:"default"`
}

type comparedGeoResponse struct {
	Default struct {
		GeoMapData []struct {
			GeoName string `json:"geoName"`
			Value   []int  `json:"value"`
		} `json:"geoMapData"`
	} `json:"default"`
}

func NewGoogleClient(cfg config.TrendsConfig, client *http.Client) *GoogleClient {
	if client == nil {
		client = &http.Client{Timeout: 25 * time.Second}
	}
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 20
	}
	return &GoogleClient{
		baseURL:    cfg.BaseURL,
		language:   cfg.Language,
		tz:         strconv.Itoa(cfg.TimezoneOffset),
		geo:        cfg.Geo,
		timeframe:  cfg.Timeframe,
		resolution: cfg.Resolution,
		http:       client,
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
	}
}

func (c *GoogleClient) Name() string { return "google" }

// InterestOverTime returns the interest timeline (0-100) for keyword.
func (c *GoogleClient) InterestOverTime(ctx context.Context, keyword string) ([]float64, error) {
	w, err := c.widget(ctx, keyword, "TIMESERIES")
	if err != nil {
		return nil, err
	}

	var resp multilineResponse
	if err := c.getWidgetData(ctx, "multiline", w.Token, w.Request, &resp); err != nil {
		c.forget()
		return nil, fmt.Errorf("interest over time for %q: %w", keyword, err)
	}

	values := make([]float64, 0, len(resp.Default.TimelineData))
	for _, point := range resp.Default.TimelineData {
		if len(point.Value) == 0 {
			continue
		}
		values = append(values, float64(point.Value[0]))
	}
	if len(values) == 0 {
		return nil, ErrNoData
	}
	return values, nil
}

// InterestByRegion returns interest per city for keyword, in upstream order.
func (c *GoogleClient) InterestByRegion(ctx context.Context, keyword string) ([]RegionInterest, error) {
	w, err := c.widget(ctx, keyword, "GEO_MAP")
	if err != nil {
		return nil, err
	}

	var req map[string]interface{}
	if err := json.Unmarshal(w.Request, &req); err != nil {
		return nil, fmt.Errorf("decode geo widget request: %w", err)
	}
	req["resolution"] = c.resolution
	req["includeLowSearchVolumeGeos"] = false
	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	var resp comparedGeoResponse
	if err := c.getWidgetData(ctx, "comparedgeo", w.Token, reqJSON, &resp); err != nil {
		c.forget()
		return nil, fmt.Errorf("interest by region for %q: %w", keyword, err)
	}

	regions := make([]RegionInterest, 0, len(resp.Default.GeoMapData))
	for _, g := range resp.Default.GeoMapData {
		if len(g.Value) == 0 {
			continue
		}
		regions = append(regions, RegionInterest{Name: g.GeoName, Value: float64(g.Value[0])})
	}
	if len(regions) == 0 {
		return nil, ErrNoData
	}
	return regions, nil
}

// widget returns the explore widget with the given id. The widgets of the
// last explored keyword are reused so origins and timeline share one explore call.
func (c *GoogleClient) widget(ctx context.Context, keyword, id string) (widget, error) {
	c.mu.Lock()
	widgets := c.lastWidgets
	cached := c.lastKeyword == keyword && widgets != nil
	c.mu.Unlock()

	if !cached {
		var err error
		widgets, err = c.explore(ctx, keyword)
		if err != nil {
			return widget{}, err
		}
		c.mu.Lock()
		c.lastKeyword, c.lastWidgets = keyword, widgets
		c.mu.Unlock()
	}

	for _, w := range widgets {
		if w.ID == id {
			return w, nil
		}
	}
	return widget{}, fmt.Errorf("explore for %q returned no %s widget", keyword, id)
}

// forget drops the cached widgets; their tokens may have expired.
func (c *GoogleClient) forget() {
	c.mu.Lock()
	c.lastKeyword, c.lastWidgets = "", nil
	c.mu.Unlock()
}

func (c *GoogleClient) explore(ctx context.Context, keyword string) ([]widget, error) {
	if err := c.prime(ctx); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(map[string]interface{}{
		"comparisonItem": []map[string]string{{
			"keyword": keyword,
			"time":    c.timeframe,
			"geo":     c.geo,
		}},
		"category": 0,
		"property": "",
	})
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("hl", c.language)
	q.Set("tz", c.tz)
	q.Set("req", string(payload))

	body, err := c.do(ctx, http.MethodPost, c.baseURL+"/trends/api/explore?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("explore %q: %w", keyword, err)
	}

	var resp exploreResponse
	if err := decodeGuarded(body, &resp); err != nil {
		return nil, fmt.Errorf("explore %q: %w", keyword, err)
	}
	return resp.Widgets, nil
}

func (c *GoogleClient) getWidgetData(ctx context.Context, kind, token string, req []byte, out interface{}) error {
	q := url.Values{}
	q.Set("hl", c.language)
	q.Set("tz", c.tz)
	q.Set("req", string(req))
	q.Set("token", token)

	body, err := c.do(ctx, http.MethodGet, c.baseURL+"/trends/api/widgetdata/"+kind+"?"+q.Encode())
	if err != nil {
		return err
	}
	return decodeGuarded(body, out)
}

// prime fetches the landing page once so the jar holds the NID cookie.
func (c *GoogleClient) prime(ctx context.Context) error {
	c.mu.Lock()
	primed := c.primed
	c.mu.Unlock()
	if primed {
		return nil
	}

	if _, err := c.do(ctx, http.MethodGet, c.baseURL+"/?geo="+url.QueryEscape(c.geo)); err != nil {
		log.Printf("Warning: cookie priming failed: %v", err)
	}

	c.mu.Lock()
	c.primed = true
	c.mu.Unlock()
	return nil
}

func (c *GoogleClient) do(ctx context.Context, method, rawURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", c.language)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: req.URL.Path, Code: resp.StatusCode, Body: utils.Truncate(string(body), 200)}
	}
	return body, nil
}

// decodeGuarded strips the anti-JSON prefix (")]}'") before decoding.
func decodeGuarded(body []byte, out interface{}) error {
	start := bytes.IndexByte(body, '{')
	if start < 0 {
		return fmt.Errorf("response has no JSON object: %s", utils.Truncate(string(body), 80))
	}
	return json.Unmarshal(body[start:], out)
}
