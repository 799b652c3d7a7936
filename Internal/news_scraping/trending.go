package newsscraping

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fazecat/demandpulse/Internal/types"
	"github.com/mmcdole/gofeed"
)

// TrendingClient reads Google's daily trending searches feed.
type TrendingClient struct {
	news    *NewsClient
	feedURL string
}

func NewTrendingClient(feedURL string) *TrendingClient {
	return &TrendingClient{
		news:    &NewsClient{http: &http.Client{Timeout: 15 * time.Second}, parser: gofeed.NewParser()},
		feedURL: feedURL,
	}
}

// FetchTrending returns the titles currently trending in geo.
func (c *TrendingClient) FetchTrending(ctx context.Context, geo string) ([]string, error) {
	feed, err := c.news.fetchFeed(ctx, c.feedURL+"?geo="+url.QueryEscape(geo))
	if err != nil {
		return nil, fmt.Errorf("trending searches: %w", err)
	}

	titles := make([]string, 0, len(feed.Items))
	for _, item := range feed.Items {
		if t := strings.TrimSpace(item.Title); t != "" {
			titles = append(titles, t)
		}
	}
	return titles, nil
}

// IsTrending reports whether any trending title mentions the destination.
// Compound names like "Gramado + Canela" match on either part.
func IsTrending(dest types.Destination, titles []string) bool {
	var names []string
	for _, part := range strings.Split(dest.Name, "+") {
		if p := fold(strings.TrimSpace(part)); p != "" {
			names = append(names, p)
		}
	}

	for _, title := range titles {
		t := fold(title)
		for _, name := range names {
			if strings.Contains(t, name) {
				return true
			}
		}
	}
	return false
}
