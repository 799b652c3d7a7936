package metrics

import (
	"math"
	"sort"

	"github.com/fazecat/demandpulse/Internal/types"
	"github.com/fazecat/demandpulse/Internal/utils"
)

// RankByGrowth returns a copy of records sorted by crescimento, highest first.
// Equal growth keeps collection order.
func RankByGrowth(records []types.DestinationPulse) []types.DestinationPulse {
	ranked := make([]types.DestinationPulse, len(records))
	copy(ranked, records)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Growth > ranked[j].Growth
	})
	return ranked
}

func TopIDs(records []types.DestinationPulse, n int) []string {
	ranked := RankByGrowth(records)
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	ids := make([]string, 0, len(ranked))
	for _, r := range ranked {
		ids = append(ids, r.ID)
	}
	return ids
}

type RegionStats struct {
	Region        string  `json:"regiao"`
	Destinations  int     `json:"destinos"`
	Heating       int     `json:"aquecendo"`
	Cooling       int     `json:"arrefecendo"`
	AverageGrowth float64 `json:"crescimentoMedio"`
	GrowthStdDev  float64 `json:"desvioCrescimento"`
	Leader        string  `json:"lider"`
}

// CalculateRegionStats groups a snapshot by region, in first-seen order.
func CalculateRegionStats(records []types.DestinationPulse) []RegionStats {
	byRegion := make(map[string][]types.DestinationPulse)
	var order []string

	for _, r := range records {
		if _, ok := byRegion[r.Region]; !ok {
			order = append(order, r.Region)
		}
		byRegion[r.Region] = append(byRegion[r.Region], r)
	}

	results := make([]RegionStats, 0, len(order))
	for _, region := range order {
		group := byRegion[region]
		growth := make([]float64, 0, len(group))
		heating, cooling := 0, 0
		for _, r := range group {
			growth = append(growth, r.Growth)
			switch r.Status {
			case StatusHeating:
				heating++
			case StatusCooling:
				cooling++
			}
		}

		results = append(results, RegionStats{
			Region:        region,
			Destinations:  len(group),
			Heating:       heating,
			Cooling:       cooling,
			AverageGrowth: utils.Round(utils.Average(growth), 1),
			GrowthStdDev:  utils.Round(calculateStandardDeviation(growth), 1),
			Leader:        RankByGrowth(group)[0].ID,
		})
	}
	return results
}

func calculateStandardDeviation(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	mean := utils.Average(values)
	varianceSum := 0.0
	for _, v := range values {
		varianceSum += (v - mean) * (v - mean)
	}
	variance := varianceSum / float64(len(values))
	return math.Sqrt(variance)
}
