package detection

import (
	"sort"

	"github.com/fazecat/demandpulse/Internal/trends"
	"github.com/fazecat/demandpulse/Internal/types"
	"github.com/fazecat/demandpulse/Internal/utils"
)

// Impact buckets for an origin's share of the strongest region.
const (
	ImpactHigh   = "Alto"
	ImpactMedium = "Médio"
	ImpactLow    = "Baixo"
)

// TopOrigins ranks the n regions with the most interest. Percentages are
// relative to the strongest region (0 when it has none); ties keep upstream order.
func TopOrigins(regions []trends.RegionInterest, n int) []types.Origin {
	ranked := make([]trends.RegionInterest, len(regions))
	copy(ranked, regions)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Value > ranked[j].Value
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}

	maxValue := 0.0
	if len(ranked) > 0 {
		maxValue = ranked[0].Value
	}

	origins := make([]types.Origin, 0, len(ranked))
	for i, r := range ranked {
		pct := 0.0
		if maxValue > 0 {
			pct = utils.Round(r.Value/maxValue*100, 2)
		}
		origins = append(origins, types.Origin{
			Position:   i + 1,
			Name:       r.Name,
			Location:   r.Name,
			Percentage: pct,
			Percent:    pct,
			Impact:     impactFor(pct),
		})
	}
	return origins
}

func impactFor(pct float64) string {
	switch {
	case pct >= 50:
		return ImpactHigh
	case pct >= 20:
		return ImpactMedium
	default:
		return ImpactLow
	}
}
