package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/fazecat/demandpulse/Internal/database"
	newsscraping "github.com/fazecat/demandpulse/Internal/news_scraping"
	"github.com/fazecat/demandpulse/Internal/publish"
	"github.com/fazecat/demandpulse/Internal/strategy/metrics"
	"github.com/fazecat/demandpulse/Internal/trends"
	"github.com/fazecat/demandpulse/Internal/types"
	"github.com/fazecat/demandpulse/Internal/utils/config"
	"github.com/fazecat/demandpulse/Internal/utils/formatting"
	"github.com/fazecat/demandpulse/Internal/utils/scanner"
	"github.com/fazecat/demandpulse/Internal/weather"
)

// CollectOptions tunes one collection run. Zero values build the sources from cfg.
type CollectOptions struct {
	SkipRemote  bool
	Store       *database.Store
	Provider    trends.Provider
	Weather     scanner.WeatherSource
	Signals     scanner.SignalSource
	Publishers  []publish.Publisher
	ScannerOpts []scanner.Option
}

// HandleCollect runs one full collection: scan, local backup, remote sinks, scan log.
// A backup failure is returned as an error; remote failures are only logged.
func HandleCollect(ctx context.Context, cfg *config.Config, opts CollectOptions) (*scanner.Result, error) {
	provider := opts.Provider
	if provider == nil {
		p, err := trends.NewProvider(cfg.Trends)
		if err != nil {
			return nil, fmt.Errorf("trends provider: %w", err)
		}
		provider = p
	}

	weatherSrc := opts.Weather
	if weatherSrc == nil {
		weatherSrc = defaultWeather(cfg)
	}

	signalSrc := opts.Signals
	if signalSrc == nil && (cfg.News.Enabled || cfg.News.TrendingEnabled) {
		signalSrc = newsscraping.NewSignalCollector(cfg.News, cfg.Trends.Geo)
	}

	s := scanner.New(cfg, provider, weatherSrc, signalSrc, opts.ScannerOpts...)
	res, err := s.PerformScan(ctx)
	if err != nil {
		logScan(ctx, opts.Store, res, err)
		if errors.Is(err, scanner.ErrNothingCollected) {
			log.Println("❌ CRITICAL: no data was collected, nothing will be saved")
		}
		return res, err
	}

	backup := publish.NewBackupWriter(cfg.Output.BackupPath)
	if err := backup.Write(res.Snapshot.Data); err != nil {
		logScan(ctx, opts.Store, res, err)
		return res, fmt.Errorf("backup %s: %w", cfg.Output.BackupPath, err)
	}
	log.Printf("💾 Local backup saved: %s", cfg.Output.BackupPath)

	if opts.SkipRemote {
		log.Println("⏭️  Remote publishing skipped")
	} else {
		pubs, closeAll := remotePublishers(cfg, opts)
		if len(pubs) == 0 {
			log.Println("⚠️  No remote sink configured (SUPABASE_URL, KAFKA_BROKERS, DATABASE_URL)")
		}
		publish.PublishAll(ctx, res.Snapshot, pubs)
		closeAll()
	}

	logScan(ctx, opts.Store, res, nil)
	log.Printf("🎉 Collection finished: %d destinations, top 3: %s",
		len(res.Snapshot.Data), strings.Join(res.Snapshot.Metadata.Top3Ranking, ", "))
	return res, nil
}

func defaultWeather(cfg *config.Config) scanner.WeatherSource {
	return weather.NewClient(cfg.Weather)
}

func remotePublishers(cfg *config.Config, opts CollectOptions) ([]publish.Publisher, func()) {
	pubs := append([]publish.Publisher{}, opts.Publishers...)
	if sb := publish.NewSupabaseFromEnv(cfg.Output.SupabaseTable); sb != nil {
		pubs = append(pubs, sb)
	} else {
		log.Println("⚠️  SUPABASE_URL / SUPABASE_KEY not set, Supabase upload skipped (data kept locally)")
	}
	kp := publish.NewKafkaFromEnv(cfg.Output.KafkaTopic)
	if kp != nil {
		pubs = append(pubs, kp)
	}
	if opts.Store != nil {
		pubs = append(pubs, opts.Store)
	}
	return pubs, func() {
		if kp != nil {
			if err := kp.Close(); err != nil {
				log.Printf("Warning: closing kafka writer: %v", err)
			}
		}
	}
}

func logScan(ctx context.Context, store *database.Store, res *scanner.Result, scanErr error) {
	if store == nil || res == nil {
		return
	}
	entry := database.ScanLog{
		RunID:      res.RunID,
		Provider:   res.Provider,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
		Processed:  res.Processed,
		Failed:     res.Failed,
	}
	if scanErr != nil {
		entry.Error = scanErr.Error()
	}
	if err := store.LogScan(ctx, entry); err != nil {
		log.Printf("Warning: %v", err)
	}
}

// HandleRanking prints the snapshot ordered by growth.
func HandleRanking(out io.Writer, snap types.Snapshot) {
	ranked := metrics.RankByGrowth(snap.Data)

	fmt.Fprintln(out, "\n"+formatting.Separator(72))
	fmt.Fprintf(out, "🏆 DEMAND RANKING (updated %s)\n", snap.Metadata.LastUpdated)
	fmt.Fprintln(out, formatting.Separator(72))
	fmt.Fprintf(out, "%-3s %-24s %-4s %8s  %-10s %s\n", "#", "Destination", "UF", "Growth", "Status", "Forecast")
	for i, d := range ranked {
		name := d.Name
		if d.Trending {
			name += " 🔥"
		}
		fmt.Fprintf(out, "%-3d %-24s %-4s %7s%%  %-10s %s\n",
			i+1, name, d.State, formatting.SignedPercent(d.Growth), d.Status, d.Forecast)
	}
	fmt.Fprintln(out, formatting.Separator(72))
}

// HandleHistory prints the most recent stored snapshots.
func HandleHistory(ctx context.Context, out io.Writer, store *database.Store, limit int) error {
	summaries, err := store.ListSnapshots(ctx, limit)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Fprintln(out, "No snapshots stored yet")
		return nil
	}

	fmt.Fprintf(out, "\n📜 Last %d snapshots:\n", len(summaries))
	for _, s := range summaries {
		failed := ""
		if len(s.Metadata.Failed) > 0 {
			failed = fmt.Sprintf(" (failed: %s)", strings.Join(s.Metadata.Failed, ", "))
		}
		fmt.Fprintf(out, "  %s  %-36s  %d destinations, top 3: %s%s\n",
			s.CreatedAt.Format("2006-01-02 15:04"), s.RunID, s.Metadata.TotalDestinations,
			strings.Join(s.Metadata.Top3Ranking, ", "), failed)
	}
	return nil
}
