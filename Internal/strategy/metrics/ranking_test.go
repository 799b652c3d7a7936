package metrics

import (
	"reflect"
	"testing"

	"github.com/fazecat/demandpulse/Internal/types"
)

func sampleRecords() []types.DestinationPulse {
	return []types.DestinationPulse{
		{ID: "a", Region: "Serra da Mantiqueira", Growth: 5, Status: StatusStable},
		{ID: "b", Region: "Sul de Minas", Growth: 30, Status: StatusHeating},
		{ID: "c", Region: "Serra da Mantiqueira", Growth: 30, Status: StatusHeating},
		{ID: "d", Region: "Sul de Minas", Growth: -20, Status: StatusCooling},
	}
}

func TestRankByGrowth(t *testing.T) {
	records := sampleRecords()
	ranked := RankByGrowth(records)

	var ids []string
	for _, r := range ranked {
		ids = append(ids, r.ID)
	}
	if want := []string{"b", "c", "a", "d"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("ranking = %v, want %v", ids, want)
	}
	if records[0].ID != "a" {
		t.Error("RankByGrowth modified its input")
	}
}

func TestTopIDs(t *testing.T) {
	if got := TopIDs(sampleRecords(), 3); !reflect.DeepEqual(got, []string{"b", "c", "a"}) {
		t.Errorf("TopIDs = %v", got)
	}
	if got := TopIDs(sampleRecords()[:1], 3); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("TopIDs short = %v", got)
	}
	if got := TopIDs(nil, 3); len(got) != 0 {
		t.Errorf("TopIDs empty = %v", got)
	}
}

func TestCalculateRegionStats(t *testing.T) {
	stats := CalculateRegionStats(sampleRecords())
	if len(stats) != 2 {
		t.Fatalf("expected 2 regions, got %d", len(stats))
	}

	m := stats[0]
	if m.Region != "Serra da Mantiqueira" || m.Destinations != 2 || m.Heating != 1 || m.Cooling != 0 {
		t.Errorf("unexpected stats %+v", m)
	}
	if m.AverageGrowth != 17.5 || m.GrowthStdDev != 12.5 || m.Leader != "c" {
		t.Errorf("unexpected growth stats %+v", m)
	}

	s := stats[1]
	if s.Heating != 1 || s.Cooling != 1 || s.AverageGrowth != 5 || s.GrowthStdDev != 25 || s.Leader != "b" {
		t.Errorf("unexpected stats %+v", s)
	}
}
