package trends

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fazecat/demandpulse/Internal/utils/config"
)

// ErrNoData is returned when the upstream answered but had nothing for the keyword.
var ErrNoData = errors.New("trends: no data for keyword")

type RegionInterest struct {
	Name  string
	Value float64
}

// Provider is a source of search-interest data for a single keyword.
type Provider interface {
	Name() string
	InterestOverTime(ctx context.Context, keyword string) ([]float64, error)
	InterestByRegion(ctx context.Context, keyword string) ([]RegionInterest, error)
}

// StatusError is an unexpected HTTP status from an upstream endpoint.
type StatusError struct {
	URL  string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.URL, e.Code, e.Body)
}

// NewProvider builds the provider named in cfg. Credentials come from the environment.
func NewProvider(cfg config.TrendsConfig) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "google":
		client, err := NewHTTPClient(cfg, CredentialsFromEnv())
		if err != nil {
			return nil, err
		}
		return NewGoogleClient(cfg, client), nil
	case "serpapi":
		key := os.Getenv("SERPAPI_KEY")
		if key == "" {
			return nil, fmt.Errorf("serpapi provider requires SERPAPI_KEY")
		}
		return NewSerpAPIClient(cfg, key), nil
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown trends provider %q", cfg.Provider)
	}
}
