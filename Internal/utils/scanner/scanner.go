package scanner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/fazecat/demandpulse/Internal/strategy/detection"
	"github.com/fazecat/demandpulse/Internal/strategy/metrics"
	"github.com/fazecat/demandpulse/Internal/trends"
	"github.com/fazecat/demandpulse/Internal/types"
	"github.com/fazecat/demandpulse/Internal/utils"
	"github.com/fazecat/demandpulse/Internal/utils/config"
	"github.com/fazecat/demandpulse/Internal/utils/formatting"
	"github.com/google/uuid"
)

// ErrNothingCollected means every destination failed; nothing should be persisted.
var ErrNothingCollected = errors.New("scanner: no destination was collected")

type WeatherSource interface {
	Forecast(ctx context.Context, dest types.Destination) types.Weather
}

type SignalSource interface {
	Collect(ctx context.Context, dest types.Destination) types.Signals
}

// Result is the outcome of one collection run.
type Result struct {
	RunID      string
	Provider   string
	Snapshot   types.Snapshot
	Processed  int
	Failed     int
	FailedIDs  []string
	StartedAt  time.Time
	FinishedAt time.Time
}

func (r *Result) Total() int { return r.Processed + r.Failed }

func (r *Result) SuccessRate() float64 {
	if r.Total() == 0 {
		return 0
	}
	return float64(r.Processed) / float64(r.Total()) * 100
}

type Scanner struct {
	cfg     *config.Config
	params  metrics.Params
	trends  trends.Provider
	weather WeatherSource
	signals SignalSource

	rng   *rand.Rand
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

type Option func(*Scanner)

func WithRand(rng *rand.Rand) Option {
	return func(s *Scanner) { s.rng = rng }
}

// WithSleep replaces the pause used between requests, destinations and retries.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Scanner) { s.sleep = sleep }
}

func WithClock(now func() time.Time) Option {
	return func(s *Scanner) { s.now = now }
}

// New builds a scanner. signals may be nil when no enrichment is wanted.
func New(cfg *config.Config, provider trends.Provider, weather WeatherSource, signals SignalSource, opts ...Option) *Scanner {
	s := &Scanner{
		cfg:     cfg,
		params:  metrics.ParamsFromConfig(cfg),
		trends:  provider,
		weather: weather,
		signals: signals,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:   utils.SleepContext,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PerformScan collects every configured destination in order. The result is
// returned even on error so callers can log partial runs.
func (s *Scanner) PerformScan(ctx context.Context) (*Result, error) {
	dests := s.cfg.Destinations
	res := &Result{
		RunID:     uuid.NewString(),
		Provider:  s.trends.Name(),
		StartedAt: s.now(),
	}

	log.Println(formatting.Separator(60))
	log.Printf("🚀 DEMAND PULSE %s (run %s)", s.cfg.Collector.Version, res.RunID)
	log.Printf("📍 Destinations to process: %d", len(dests))
	log.Printf("🔑 Trends provider: %s (%s)", s.trends.Name(), s.cfg.Trends.Transport)
	log.Println(formatting.Separator(60))

	var data types.PulseData
	for i, dest := range dests {
		log.Printf("[%d/%d] Processing: %s", i+1, len(dests), dest.Name)

		record, err := s.collectDestination(ctx, dest)
		if err != nil {
			if ctx.Err() != nil {
				res.FinishedAt = s.now()
				return res, fmt.Errorf("scan aborted at %s: %w", dest.ID, ctx.Err())
			}
			log.Printf("   ❌ FAILED: %s could not be processed: %s", dest.Name, utils.Truncate(err.Error(), 150))
			res.Failed++
			res.FailedIDs = append(res.FailedIDs, dest.ID)
		} else {
			data = append(data, record)
			res.Processed++
			log.Printf("   ✅ SUCCESS! Growth: %s%% Status: %s", formatting.SignedPercent(record.Growth), record.Status)
		}

		if i < len(dests)-1 {
			wait := s.uniform(s.cfg.Collector.DestinationPauseMinSeconds, s.cfg.Collector.DestinationPauseMaxSeconds)
			log.Printf("⏳ Waiting %.1fs before the next destination...", wait.Seconds())
			if err := s.sleep(ctx, wait); err != nil {
				res.FinishedAt = s.now()
				return res, fmt.Errorf("scan aborted: %w", err)
			}
		}
	}

	res.FinishedAt = s.now()
	log.Println(formatting.Separator(60))
	log.Println("📊 COLLECTION SUMMARY:")
	log.Printf("   ✅ Processed: %d/%d", res.Processed, len(dests))
	log.Printf("   ❌ Failed: %d/%d", res.Failed, len(dests))
	log.Printf("   📈 Success rate: %.1f%%", res.SuccessRate())
	log.Println(formatting.Separator(60))

	if len(data) == 0 {
		return res, ErrNothingCollected
	}

	res.Snapshot = types.Snapshot{
		Data: data,
		Metadata: types.SnapshotMetadata{
			RunID:             res.RunID,
			TotalDestinations: len(data),
			Top3Ranking:       metrics.TopIDs(data, 3),
			LastUpdated:       formatting.Timestamp(res.FinishedAt),
			Version:           s.cfg.Collector.Version,
			Failed:            res.FailedIDs,
		},
	}
	return res, nil
}

func (s *Scanner) collectDestination(ctx context.Context, dest types.Destination) (types.DestinationPulse, error) {
	col := s.cfg.Collector
	retry := utils.RetryConfig{
		MaxAttempts: col.DestinationAttempts,
		BaseDelay:   time.Duration(col.DestinationBackoffSeconds) * time.Second,
		Label:       dest.Name,
		Sleep:       s.sleep,
	}

	var record types.DestinationPulse
	err := utils.RetryWithBackoff(ctx, retry, func() error {
		r, err := s.attempt(ctx, dest)
		if err != nil {
			return err
		}
		record = r
		return nil
	})
	return record, err
}

func (s *Scanner) attempt(ctx context.Context, dest types.Destination) (types.DestinationPulse, error) {
	col := s.cfg.Collector
	keyword := dest.Keywords[s.rng.Intn(len(dest.Keywords))]
	log.Printf("   🔍 Searching: '%s'", keyword)

	var regions []trends.RegionInterest
	err := s.fetch(ctx, "origins", func() error {
		var err error
		regions, err = s.trends.InterestByRegion(ctx, keyword)
		return err
	})
	if err != nil && !errors.Is(err, trends.ErrNoData) {
		return types.DestinationPulse{}, fmt.Errorf("origins for %q: %w", keyword, err)
	}
	origins := detection.TopOrigins(regions, col.TopOrigins)
	if len(origins) == 0 {
		return types.DestinationPulse{}, fmt.Errorf("no origins found for %q", keyword)
	}
	log.Printf("      ✅ Origins found: %s", originNames(origins))

	if err := s.sleep(ctx, s.uniform(col.RequestPauseMinSeconds, col.RequestPauseMaxSeconds)); err != nil {
		return types.DestinationPulse{}, err
	}

	var values []float64
	err = s.fetch(ctx, "trends", func() error {
		var err error
		values, err = s.trends.InterestOverTime(ctx, keyword)
		return err
	})
	if err != nil {
		return types.DestinationPulse{}, fmt.Errorf("trend data for %q: %w", keyword, err)
	}
	trend := detection.SummarizeTimeline(values, col.TrendTail, col.TrendWindow)

	weather := s.weather.Forecast(ctx, dest)

	var sig types.Signals
	if s.signals != nil {
		sig = s.signals.Collect(ctx, dest)
	}

	m := metrics.CalculateMetrics(trend, origins, weather, sig, s.params, s.rng)
	return buildRecord(dest, m, origins, weather, sig, s.now()), nil
}

// fetch retries a single upstream call. Empty upstream data is not retried.
func (s *Scanner) fetch(ctx context.Context, label string, fn func() error) error {
	retry := utils.RetryConfig{
		MaxAttempts: s.cfg.Collector.FetchAttempts,
		BaseDelay:   time.Duration(s.cfg.Collector.FetchBackoffSeconds) * time.Second,
		Label:       label,
		Sleep:       s.sleep,
	}
	return utils.RetryWithBackoff(ctx, retry, func() error {
		err := fn()
		if errors.Is(err, trends.ErrNoData) {
			log.Printf("      ⚠️  No %s data", label)
			return utils.Permanent(err)
		}
		return err
	})
}

func buildRecord(dest types.Destination, m types.Metrics, origins []types.Origin, w types.Weather, sig types.Signals, now time.Time) types.DestinationPulse {
	return types.DestinationPulse{
		ID:               dest.ID,
		Name:             dest.Name,
		State:            dest.State,
		Region:           dest.Region,
		Status:           m.Status,
		Emoji:            m.Emoji,
		Mood:             m.Mood,
		Growth:           m.Growth,
		BookingPressure:  m.BookingPressure,
		ProximityTrigger: m.ProximityTrigger,
		ViralVelocity:    m.ViralVelocity,
		Sentiment:        m.Sentiment,
		StayIntent:       m.StayIntent,
		TopOrigins:       origins,
		Audience:         m.Audience,
		ClimateImpact:    m.ClimateImpact,
		ClimateFit:       m.ClimateFit,
		Trending:         sig.Trending,
		Insight:          m.Insight,
		Forecast:         formatting.Forecast(w.MinTemp, w.MaxTemp, w.Condition),
		LastUpdated:      formatting.Timestamp(now),
	}
}

// uniform draws a pause in [min, max] seconds.
func (s *Scanner) uniform(minSeconds, maxSeconds int) time.Duration {
	lo := float64(minSeconds)
	span := float64(maxSeconds - minSeconds)
	return time.Duration((lo + s.rng.Float64()*span) * float64(time.Second))
}

func originNames(origins []types.Origin) string {
	names := make([]string, 0, len(origins))
	for _, o := range origins {
		names = append(names, o.Name)
	}
	return strings.Join(names, ", ")
}
