package newsscraping

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

type NewsArticle struct {
	Headline    string
	Summary     string
	URL         string
	Source      string
	PublishedAt time.Time
}

// NewsClient searches Google News through its RSS endpoint.
type NewsClient struct {
	feedURL string
	http    *http.Client
	parser  *gofeed.Parser
}

func NewNewsClient(feedURL string) *NewsClient {
	return &NewsClient{
		feedURL: feedURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		parser:  gofeed.NewParser(),
	}
}

// FetchHeadlines returns at most max articles for query, newest first as the feed orders them.
func (c *NewsClient) FetchHeadlines(ctx context.Context, query string, max int) ([]NewsArticle, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("hl", "pt-BR")
	q.Set("gl", "BR")
	q.Set("ceid", "BR:pt-419")

	feed, err := c.fetchFeed(ctx, c.feedURL+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("news search %q: %w", query, err)
	}

	articles := make([]NewsArticle, 0, max)
	for _, item := range feed.Items {
		if max > 0 && len(articles) >= max {
			break
		}
		article := NewsArticle{
			Headline: strings.TrimSpace(item.Title),
			Summary:  flattenHTML(item.Description),
			URL:      item.Link,
		}
		if item.PublishedParsed != nil {
			article.PublishedAt = *item.PublishedParsed
		}
		if item.Author != nil {
			article.Source = item.Author.Name
		}
		if src, ok := item.Custom["source"]; ok && article.Source == "" {
			article.Source = src
		}
		articles = append(articles, article)
	}
	return articles, nil
}

func (c *NewsClient) fetchFeed(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; DemandPulse/1.0)")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}
	return c.parser.Parse(resp.Body)
}

// flattenHTML turns the HTML snippet Google News puts in descriptions into plain text.
func flattenHTML(fragment string) string {
	if !strings.Contains(fragment, "<") {
		return strings.TrimSpace(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
