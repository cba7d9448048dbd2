package app

import (
	"testing"
	"time"

	"github.com/pitchside/prediction-engine/internal/config"
	"github.com/pitchside/prediction-engine/internal/platform/logging"
)

func testConfig() config.Config {
	return config.Config{
		AppEnv:                config.EnvDev,
		ServiceName:           "prediction-engine",
		HTTPAddr:              ":0",
		ReadTimeout:           time.Second,
		WriteTimeout:          time.Second,
		CacheTTL:              time.Minute,
		EloKFactor:            20,
		FormWindowSize:        5,
		FormMinSamples:        3,
		FeatureDropIncomplete: true,
		NormalizerWorkers:     2,
	}
}

func TestNewMemoryBacked(t *testing.T) {
	a, err := New(testConfig(), logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if a.FeatureService == nil || a.SnapshotService == nil || a.SyncService == nil {
		t.Fatal("expected all services wired")
	}
	if a.Matches == nil || a.Teams == nil || a.Features == nil {
		t.Fatal("expected repositories wired")
	}
}

func TestNewHTTPServer(t *testing.T) {
	srv, a, err := NewHTTPServer(testConfig(), logging.NewNop())
	if err != nil {
		t.Fatalf("NewHTTPServer: %v", err)
	}
	defer a.Close()

	if srv.Handler == nil {
		t.Fatal("expected router handler")
	}
	if srv.ReadTimeout != time.Second {
		t.Fatalf("ReadTimeout = %v, want 1s", srv.ReadTimeout)
	}
}

func TestConnectorWiring(t *testing.T) {
	cfg := testConfig()
	if got := buildFixtureConnectors(cfg, logging.NewNop()); len(got) != 0 {
		t.Fatalf("expected no fixture connectors when disabled, got %d", len(got))
	}

	cfg.APIFootballEnabled = true
	cfg.APIFootballKey = "k"
	if got := buildFixtureConnectors(cfg, logging.NewNop()); len(got) != 1 {
		t.Fatalf("expected one fixture connector, got %d", len(got))
	}

	cfg.UnderstatEnabled = true
	if got := buildStatsConnectors(cfg, logging.NewNop()); len(got) != 1 {
		t.Fatalf("expected one stats connector, got %d", len(got))
	}
}
