package trends

import (
	"context"
	"hash/fnv"
	"math/rand"
)

var mockCities = []string{
	"São Paulo", "Rio de Janeiro", "Belo Horizonte", "Campinas", "Curitiba",
	"Porto Alegre", "Brasília", "São José dos Campos", "Ribeirão Preto", "Santos",
}

// MockProvider returns deterministic synthetic data seeded by the keyword.
type MockProvider struct {
	Points int
}

func NewMockProvider() *MockProvider {
	return &MockProvider{Points: 90}
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) InterestOverTime(ctx context.Context, keyword string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rng := seeded(keyword)
	level := 30 + rng.Float64()*40
	drift := rng.Float64()*0.8 - 0.4

	values := make([]float64, m.Points)
	for i := range values {
		level += drift + rng.NormFloat64()*3
		if level < 0 {
			level = 0
		}
		if level > 100 {
			level = 100
		}
		values[i] = float64(int(level))
	}
	return values, nil
}

func (m *MockProvider) InterestByRegion(ctx context.Context, keyword string) ([]RegionInterest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rng := seeded(keyword)
	order := rng.Perm(len(mockCities))

	regions := make([]RegionInterest, 0, len(mockCities))
	value := 100.0
	for _, idx := range order {
		regions = append(regions, RegionInterest{Name: mockCities[idx], Value: float64(int(value))})
		value *= 0.5 + rng.Float64()*0.4
	}
	return regions, nil
}

func seeded(keyword string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(keyword))
	return rand.New(rand.NewSource(int64(h.Sum64())))
}
