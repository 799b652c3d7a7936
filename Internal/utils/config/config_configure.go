package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ConfigureInteractive allows users to interactively configure the collector
func ConfigureInteractive(cfg *Config, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)

	for {
		fmt.Fprintln(out, "\n⚙️  Configuration Menu:")
		fmt.Fprintln(out, "1. View Current Configuration")
		fmt.Fprintln(out, "2. Configure Collector Timing")
		fmt.Fprintln(out, "3. Configure Scoring Ranges")
		fmt.Fprintln(out, "4. Configure Trends Source")
		fmt.Fprintln(out, "5. Configure Features")
		fmt.Fprintln(out, "6. Save & Exit")
		fmt.Fprint(out, "Select option: ")

		choice, err := reader.ReadString('\n')
		if err != nil && strings.TrimSpace(choice) == "" {
			return err
		}
		choice = strings.TrimSpace(choice)

		switch choice {
		case "1":
			DisplayConfiguration(cfg, out)
		case "2":
			configureCollector(cfg, reader, out)
		case "3":
			configureScoring(cfg, reader, out)
		case "4":
			configureTrends(cfg, reader, out)
		case "5":
			configureFeatures(cfg, reader, out)
		case "6":
			if err := cfg.Validate(); err != nil {
				fmt.Fprintf(out, "❌ Invalid configuration: %v\n", err)
				continue
			}
			if err := SaveConfig(cfg); err != nil {
				fmt.Fprintf(out, "❌ Error saving config: %v\n", err)
				continue
			}
			fmt.Fprintln(out, "✅ Configuration saved successfully!")
			return nil
		default:
			fmt.Fprintln(out, "❌ Invalid option")
		}
	}
}

// DisplayConfiguration shows current configuration
func DisplayConfiguration(cfg *Config, out io.Writer) {
	fmt.Fprintln(out, "\n📋 Current Configuration:")

	fmt.Fprintln(out, "\n=== Collector ===")
	c := cfg.Collector
	fmt.Fprintf(out, "Version: %s\n", c.Version)
	fmt.Fprintf(out, "Trend tail / window: %d / %d points\n", c.TrendTail, c.TrendWindow)
	fmt.Fprintf(out, "Destination attempts: %d (backoff %ds)\n", c.DestinationAttempts, c.DestinationBackoffSeconds)
	fmt.Fprintf(out, "Fetch attempts: %d (backoff %ds)\n", c.FetchAttempts, c.FetchBackoffSeconds)
	fmt.Fprintf(out, "Request pause: %d-%ds\n", c.RequestPauseMinSeconds, c.RequestPauseMaxSeconds)
	fmt.Fprintf(out, "Destination pause: %d-%ds\n", c.DestinationPauseMinSeconds, c.DestinationPauseMaxSeconds)
	fmt.Fprintf(out, "Daemon interval: %d min\n", c.DaemonIntervalMinutes)

	fmt.Fprintln(out, "\n=== Trends ===")
	fmt.Fprintf(out, "Provider: %s\n", cfg.Trends.Provider)
	fmt.Fprintf(out, "Transport: %s\n", cfg.Trends.Transport)
	fmt.Fprintf(out, "Geo / timeframe: %s / %s\n", cfg.Trends.Geo, cfg.Trends.Timeframe)

	fmt.Fprintln(out, "\n=== Scoring ===")
	s := cfg.Scoring
	fmt.Fprintf(out, "Growth threshold: ±%.1f%%\n", s.GrowthThreshold)
	fmt.Fprintf(out, "Booking jitter: ±%d\n", s.BookingJitter)
	fmt.Fprintf(out, "Viral jitter: ±%d\n", s.ViralJitter)
	fmt.Fprintf(out, "Sentiment range: %d-%d\n", s.SentimentMin, s.SentimentMax)
	fmt.Fprintf(out, "Stay intent range: %d-%d\n", s.StayIntentMin, s.StayIntentMax)

	fmt.Fprintln(out, "\n=== Features ===")
	fmt.Fprintf(out, "News Sentiment: %v\n", enabledStr(cfg.News.Enabled))
	fmt.Fprintf(out, "Trending Boost: %v\n", enabledStr(cfg.News.TrendingEnabled))

	fmt.Fprintf(out, "\n=== Destinations (%d) ===\n", len(cfg.Destinations))
	for _, d := range cfg.Destinations {
		fmt.Fprintf(out, "  • %s (%s) - %s [%s]\n", d.Name, d.State, d.Region, strings.Join(d.Keywords, ", "))
	}
}

func configureCollector(cfg *Config, reader *bufio.Reader, out io.Writer) {
	fmt.Fprintln(out, "\n⏱️  Configure Collector Timing:")
	c := &cfg.Collector
	promptInt(reader, out, "Destination attempts", &c.DestinationAttempts)
	promptInt(reader, out, "Destination backoff (seconds)", &c.DestinationBackoffSeconds)
	promptInt(reader, out, "Fetch attempts", &c.FetchAttempts)
	promptInt(reader, out, "Fetch backoff (seconds)", &c.FetchBackoffSeconds)
	promptInt(reader, out, "Request pause min (seconds)", &c.RequestPauseMinSeconds)
	promptInt(reader, out, "Request pause max (seconds)", &c.RequestPauseMaxSeconds)
	promptInt(reader, out, "Destination pause min (seconds)", &c.DestinationPauseMinSeconds)
	promptInt(reader, out, "Destination pause max (seconds)", &c.DestinationPauseMaxSeconds)
	promptInt(reader, out, "Daemon interval (minutes)", &c.DaemonIntervalMinutes)
	fmt.Fprintln(out, "✅ Collector updated")
}

func configureScoring(cfg *Config, reader *bufio.Reader, out io.Writer) {
	fmt.Fprintln(out, "\n📊 Configure Scoring Ranges:")
	s := &cfg.Scoring
	promptFloat(reader, out, "Growth threshold (%)", &s.GrowthThreshold)
	promptInt(reader, out, "Booking jitter", &s.BookingJitter)
	promptInt(reader, out, "Viral jitter", &s.ViralJitter)
	promptInt(reader, out, "Sentiment min", &s.SentimentMin)
	promptInt(reader, out, "Sentiment max", &s.SentimentMax)
	promptInt(reader, out, "Stay intent min", &s.StayIntentMin)
	promptInt(reader, out, "Stay intent max", &s.StayIntentMax)

	if s.SentimentMax < s.SentimentMin || s.StayIntentMax < s.StayIntentMin {
		fmt.Fprintln(out, "⚠️  Note: a min is above its max, saving will be refused until fixed")
	}
	fmt.Fprintln(out, "✅ Scoring updated")
}

func configureTrends(cfg *Config, reader *bufio.Reader, out io.Writer) {
	fmt.Fprintln(out, "\n🔍 Configure Trends Source:")
	fmt.Fprintf(out, "Current provider: %s\n", cfg.Trends.Provider)
	fmt.Fprint(out, "New provider (google/serpapi/mock): ")
	if v := readLine(reader); v != "" {
		cfg.Trends.Provider = strings.ToLower(v)
	}
	fmt.Fprintf(out, "Current transport: %s\n", cfg.Trends.Transport)
	fmt.Fprint(out, "New transport (direct/proxy/scraperapi): ")
	if v := readLine(reader); v != "" {
		cfg.Trends.Transport = strings.ToLower(v)
	}
	fmt.Fprintln(out, "✅ Trends source updated")
}

func configureFeatures(cfg *Config, reader *bufio.Reader, out io.Writer) {
	fmt.Fprintln(out, "\n🚀 Configure Features:")
	fmt.Fprintf(out, "1. News Sentiment: %s\n", enabledStr(cfg.News.Enabled))
	fmt.Fprintf(out, "2. Trending Boost: %s\n", enabledStr(cfg.News.TrendingEnabled))
	fmt.Fprint(out, "Select feature to toggle (1-2) or press Enter to skip: ")

	switch readLine(reader) {
	case "1":
		cfg.News.Enabled = !cfg.News.Enabled
		fmt.Fprintf(out, "✅ News Sentiment: %s\n", enabledStr(cfg.News.Enabled))
	case "2":
		cfg.News.TrendingEnabled = !cfg.News.TrendingEnabled
		fmt.Fprintf(out, "✅ Trending Boost: %s\n", enabledStr(cfg.News.TrendingEnabled))
	default:
		fmt.Fprintln(out, "No changes made")
	}
}

func promptInt(reader *bufio.Reader, out io.Writer, label string, dst *int) {
	fmt.Fprintf(out, "%s [%d]: ", label, *dst)
	if val, err := strconv.Atoi(readLine(reader)); err == nil && val >= 0 {
		*dst = val
	}
}

func promptFloat(reader *bufio.Reader, out io.Writer, label string, dst *float64) {
	fmt.Fprintf(out, "%s [%.1f]: ", label, *dst)
	if val, err := strconv.ParseFloat(readLine(reader), 64); err == nil && val >= 0 {
		*dst = val
	}
}

func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func enabledStr(enabled bool) string {
	if enabled {
		return "✅ Enabled"
	}
	return "❌ Disabled"
}
