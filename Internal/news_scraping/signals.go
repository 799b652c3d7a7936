package newsscraping

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/fazecat/demandpulse/Internal/types"
	"github.com/fazecat/demandpulse/Internal/utils/config"
)

const trendingTTL = time.Hour

// SignalCollector gathers the news sentiment and trending flags for a destination.
type SignalCollector struct {
	cfg      config.NewsConfig
	geo      string
	news     *NewsClient
	trending *TrendingClient
	analyzer *SentimentAnalyzer

	mu        sync.Mutex
	titles    []string
	fetchedAt time.Time
	now       func() time.Time
}

func NewSignalCollector(cfg config.NewsConfig, geo string) *SignalCollector {
	return &SignalCollector{
		cfg:      cfg,
		geo:      geo,
		news:     NewNewsClient(cfg.FeedURL),
		trending: NewTrendingClient(cfg.TrendingURL),
		analyzer: NewSentimentAnalyzer(),
		now:      time.Now,
	}
}

// Collect never fails; a source that errors leaves its signal unset.
func (s *SignalCollector) Collect(ctx context.Context, dest types.Destination) types.Signals {
	var sig types.Signals

	if s.cfg.Enabled {
		articles, err := s.news.FetchHeadlines(ctx, dest.Name+" turismo", s.cfg.MaxHeadlines)
		if err != nil {
			log.Printf("      ⚠️  News lookup failed for %s: %v", dest.Name, err)
		} else {
			headlines := make([]string, 0, len(articles))
			for _, a := range articles {
				headlines = append(headlines, a.Headline+" "+a.Summary)
			}
			score, matched := s.analyzer.AnalyzeHeadlines(headlines)
			sig.NewsMatches = matched
			if matched >= s.cfg.MinMatches {
				sig.NewsSentiment = score
				sig.HasNewsSentiment = true
			}
		}
	}

	if s.cfg.TrendingEnabled {
		titles, err := s.trendingTitles(ctx)
		if err != nil {
			log.Printf("      ⚠️  Trending lookup failed: %v", err)
		} else {
			sig.Trending = IsTrending(dest, titles)
		}
	}

	return sig
}

func (s *SignalCollector) trendingTitles(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.titles != nil && s.now().Sub(s.fetchedAt) < trendingTTL {
		return s.titles, nil
	}
	titles, err := s.trending.FetchTrending(ctx, s.geo)
	if err != nil {
		return nil, err
	}
	s.titles, s.fetchedAt = titles, s.now()
	return titles, nil
}
