package config

import (
	"testing"
	"time"

	"github.com/pitchside/prediction-engine/internal/platform/logging"
)

func setMinimalEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APIFOOTBALL_ENABLED", "false")
	t.Setenv("UNDERSTAT_ENABLED", "false")
}

func TestLoadDefaults(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.AppEnv != EnvDev {
		t.Errorf("AppEnv = %q, want %q", cfg.AppEnv, EnvDev)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.EloKFactor != 20.0 {
		t.Errorf("EloKFactor = %v, want 20", cfg.EloKFactor)
	}
	if cfg.FormWindowSize != 5 || cfg.FormMinSamples != 3 {
		t.Errorf("form params = (%d, %d), want (5, 3)", cfg.FormWindowSize, cfg.FormMinSamples)
	}
	if !cfg.FeatureDropIncomplete {
		t.Error("FeatureDropIncomplete should default to true")
	}
	if cfg.LogLevel != logging.LevelInfo {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL = %v, want 5m", cfg.CacheTTL)
	}
	if cfg.DefaultCompetition != "EPL" {
		t.Errorf("DefaultCompetition = %q, want EPL", cfg.DefaultCompetition)
	}
}

func TestLoadOverrides(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("ELO_K_FACTOR", "32")
	t.Setenv("FORM_WINDOW_SIZE", "10")
	t.Setenv("FORM_MIN_SAMPLES", "5")
	t.Setenv("FEATURE_DROP_INCOMPLETE", "false")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AppEnv != EnvProd {
		t.Errorf("AppEnv = %q, want prod", cfg.AppEnv)
	}
	if cfg.EloKFactor != 32 {
		t.Errorf("EloKFactor = %v, want 32", cfg.EloKFactor)
	}
	if cfg.FormWindowSize != 10 || cfg.FormMinSamples != 5 {
		t.Errorf("form params = (%d, %d), want (10, 5)", cfg.FormWindowSize, cfg.FormMinSamples)
	}
	if cfg.FeatureDropIncomplete {
		t.Error("FeatureDropIncomplete should be false")
	}
	if cfg.LogLevel != logging.LevelDebug {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"bad app env", map[string]string{"APP_ENV": "staging"}},
		{"negative k factor", map[string]string{"ELO_K_FACTOR": "-1"}},
		{"min samples above window", map[string]string{"FORM_WINDOW_SIZE": "3", "FORM_MIN_SAMPLES": "4"}},
		{"api football enabled without key", map[string]string{"APIFOOTBALL_ENABLED": "true", "APIFOOTBALL_KEY": ""}},
		{"uptrace enabled without dsn", map[string]string{"UPTRACE_ENABLED": "true"}},
		{"pyroscope enabled without server", map[string]string{"PYROSCOPE_ENABLED": "true"}},
		{"bad duration", map[string]string{"CACHE_TTL": "five minutes"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setMinimalEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected Load to fail")
			}
		})
	}
}

func TestParseLeagueIDMap(t *testing.T) {
	got, err := parseLeagueIDMap("EPL:39, LaLiga:140")
	if err != nil {
		t.Fatalf("parseLeagueIDMap: %v", err)
	}
	if got["EPL"] != 39 || got["LaLiga"] != 140 {
		t.Errorf("unexpected map: %v", got)
	}

	if m, err := parseLeagueIDMap(""); err != nil || m != nil {
		t.Errorf("empty input should yield nil map, got %v, %v", m, err)
	}

	if _, err := parseLeagueIDMap("EPL"); err == nil {
		t.Error("expected error for pair without id")
	}
	if _, err := parseLeagueIDMap("EPL:x"); err == nil {
		t.Error("expected error for non-numeric id")
	}
}
