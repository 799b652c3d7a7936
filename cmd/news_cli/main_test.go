package main

import (
	"testing"

	"github.com/fazecat/demandpulse/Internal/utils/config"
)

func TestDefaultDestinationIsConfigured(t *testing.T) {
	cfg, err := config.LoadConfigFrom("../../Internal/utils/config/config.yaml")
	if err != nil {
		t.Fatalf("LoadConfigFrom: %v", err)
	}
	if cfg.FindDestination(defaultDestination) == nil {
		t.Errorf("default destination %q is not in the bundled config", defaultDestination)
	}
}
