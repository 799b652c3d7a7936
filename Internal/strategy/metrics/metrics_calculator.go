package metrics

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/fazecat/demandpulse/Internal/types"
	"github.com/fazecat/demandpulse/Internal/utils"
	"github.com/fazecat/demandpulse/Internal/utils/config"
	"github.com/fazecat/demandpulse/Internal/utils/formatting"
)

const (
	StatusHeating = "Aquecendo"
	StatusCooling = "Arrefecendo"
	StatusStable  = "Estável"

	MoodPositive = "Positivo"
	MoodNeutral  = "Neutro"
	MoodNegative = "Negativo"

	ClimateFavorable   = "Favorável"
	ClimateNeutral     = "Neutro"
	ClimateChallenging = "Desafiador"

	UnknownOrigin = "Desconhecido"
)

// Params groups the tunables that feed CalculateMetrics.
type Params struct {
	Scoring          config.ScoringConfig
	IdealTemperature float64
	TrendingBoost    int
}

func ParamsFromConfig(cfg *config.Config) Params {
	return Params{
		Scoring:          cfg.Scoring,
		IdealTemperature: cfg.Weather.IdealTemperature,
		TrendingBoost:    cfg.News.TrendingBoost,
	}
}

// CalculateMetrics derives the marketing scores for one destination.
// Jitter is drawn from rng in a fixed order: booking, viral, sentiment, stay intent.
func CalculateMetrics(trend types.TrendSummary, origins []types.Origin, weather types.Weather, sig types.Signals, p Params, rng *rand.Rand) types.Metrics {
	s := p.Scoring
	variation := trend.Variation
	current := trend.Current

	status, emoji := classifyStatus(variation, s.GrowthThreshold)

	booking := clampScore(current + float64(randInt(rng, -s.BookingJitter, s.BookingJitter)))
	proximity := clampScore(100 - utils.Abs(variation))

	viralBase := current + float64(randInt(rng, -s.ViralJitter, s.ViralJitter))
	if sig.Trending {
		viralBase += float64(p.TrendingBoost)
	}
	viral := clampScore(viralBase)

	var sentiment int
	if sig.HasNewsSentiment {
		sentiment = clampScore(utils.Round(50+50*sig.NewsSentiment, 0))
	} else {
		sentiment = randInt(rng, s.SentimentMin, s.SentimentMax)
	}
	stayIntent := randInt(rng, s.StayIntentMin, s.StayIntentMax)

	ideal := p.IdealTemperature
	if ideal == 0 {
		ideal = 20
	}
	diff := utils.Abs(weather.CurrentTemp - ideal)

	topOrigin := UnknownOrigin
	if len(origins) > 0 {
		topOrigin = origins[0].Name
	}

	return types.Metrics{
		Status:           status,
		Emoji:            emoji,
		Mood:             moodFor(sentiment),
		Growth:           utils.Round(variation, 1),
		BookingPressure:  booking,
		ProximityTrigger: proximity,
		ViralVelocity:    viral,
		Sentiment:        sentiment,
		StayIntent:       stayIntent,
		Audience:         s.Audience,
		ClimateImpact:    climateImpact(diff),
		ClimateFit:       utils.Round(utils.Clamp(1-diff/20, 0, 1), 2),
		Insight:          fmt.Sprintf("%s lidera demanda com %s%% de %s", topOrigin, formatting.SignedPercent(variation), strings.ToLower(status)),
	}
}

func classifyStatus(variation, threshold float64) (string, string) {
	switch {
	case variation > threshold:
		return StatusHeating, "🔥"
	case variation < -threshold:
		return StatusCooling, "❄️"
	default:
		return StatusStable, "📊"
	}
}

func moodFor(sentiment int) string {
	switch {
	case sentiment >= 80:
		return MoodPositive
	case sentiment >= 60:
		return MoodNeutral
	default:
		return MoodNegative
	}
}

func climateImpact(diff float64) string {
	switch {
	case diff < 5:
		return ClimateFavorable
	case diff < 10:
		return ClimateNeutral
	default:
		return ClimateChallenging
	}
}

// clampScore bounds v to 0-100 and truncates toward zero.
func clampScore(v float64) int {
	return int(utils.Clamp(v, 0, 100))
}

// randInt draws uniformly from [lo, hi].
func randInt(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo+1)
}
