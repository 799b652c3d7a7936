package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	newscraping "github.com/fazecat/demandpulse/Internal/news_scraping"
	"github.com/fazecat/demandpulse/Internal/utils/config"
)

const defaultDestination = "gramado-canela"

func main() {
	id := flag.String("destination", defaultDestination, "destination id from config.yaml")
	maxHeadlines := flag.Int("max", 10, "maximum headlines")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Config load failed: %v\n", err)
		os.Exit(1)
	}
	dest := cfg.FindDestination(*id)
	if dest == nil {
		fmt.Printf("Unknown destination %q\n", *id)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fmt.Printf("Fetching news for %s from RSS...\n", dest.Name)
	articles, err := newscraping.NewNewsClient(cfg.News.FeedURL).FetchHeadlines(ctx, dest.Name+" turismo", *maxHeadlines)
	if err != nil {
		fmt.Printf("RSS fetch failed: %v\n", err)
		os.Exit(1)
	}

	sentiment := newscraping.NewSentimentAnalyzer()

	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Printf("SENTIMENT ANALYSIS: %s (%s)\n", dest.Name, dest.State)
	fmt.Println(strings.Repeat("=", 80))

	headlines := make([]string, 0, len(articles))
	for _, article := range articles {
		sent, score := sentiment.Analyze(article.Headline + " " + article.Summary)
		headlines = append(headlines, article.Headline+" "+article.Summary)

		fmt.Printf("\n %s\n", article.Headline)
		fmt.Printf(" URL: %s\n", article.URL)
		fmt.Printf(" Sentiment: %s (Score: %.2f)\n", sent, score)
	}

	overall, matched := sentiment.AnalyzeHeadlines(headlines)
	trending, err := newscraping.NewTrendingClient(cfg.News.TrendingURL).FetchTrending(ctx, cfg.Trends.Geo)
	trendingStr := "unknown"
	if err == nil {
		trendingStr = fmt.Sprintf("%v", newscraping.IsTrending(*dest, trending))
	}

	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Printf("Headlines: %d, matched lexicon: %d (minimum %d)\n", len(articles), matched, cfg.News.MinMatches)
	fmt.Printf("Average sentiment: %.2f\n", overall)
	fmt.Printf("Trending today: %s\n", trendingStr)
	fmt.Println(strings.Repeat("=", 80))
}
