package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pitchside/prediction-engine/internal/platform/logging"
)

const (
	EnvDev  = "dev"
	EnvProd = "prod"
)

// Config stores runtime configuration for the engine.
type Config struct {
	AppEnv           string
	ServiceName      string
	ServiceVersion   string
	HTTPAddr         string
	DBURL            string
	InternalJobToken string
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	LogLevel         logging.Level
	CacheTTL         time.Duration

	DefaultCompetition string
	DefaultSeason      string

	EloKFactor            float64
	FormWindowSize        int
	FormMinSamples        int
	FeatureDropIncomplete bool
	NormalizerWorkers     int

	APIFootballEnabled               bool
	APIFootballBaseURL               string
	APIFootballKey                   string
	APIFootballTimeout               time.Duration
	APIFootballMaxRetries            int
	APIFootballLeagueIDs             map[string]int
	APIFootballCircuitEnabled        bool
	APIFootballCircuitFailureCount   int
	APIFootballCircuitOpenTimeout    time.Duration
	APIFootballCircuitHalfOpenMaxReq int

	UnderstatEnabled    bool
	UnderstatBaseURL    string
	UnderstatTimeout    time.Duration
	UnderstatMaxRetries int

	UptraceEnabled bool
	UptraceDSN     string

	PyroscopeEnabled       bool
	PyroscopeServerAddress string
	PyroscopeAppName       string
	PyroscopeAuthToken     string
	PyroscopeUploadRate    time.Duration
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	readTimeout, err := time.ParseDuration(getEnv("HTTP_READ_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse HTTP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("HTTP_WRITE_TIMEOUT", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse HTTP_WRITE_TIMEOUT: %w", err)
	}
	cacheTTL, err := time.ParseDuration(getEnv("CACHE_TTL", "5m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_TTL: %w", err)
	}

	kFactor, err := getEnvAsFloat("ELO_K_FACTOR", 20.0)
	if err != nil {
		return Config{}, err
	}
	if kFactor <= 0 {
		return Config{}, fmt.Errorf("ELO_K_FACTOR must be > 0")
	}
	windowSize, err := getEnvAsInt("FORM_WINDOW_SIZE", 5)
	if err != nil {
		return Config{}, err
	}
	minSamples, err := getEnvAsInt("FORM_MIN_SAMPLES", 3)
	if err != nil {
		return Config{}, err
	}
	if minSamples > windowSize {
		return Config{}, fmt.Errorf("FORM_MIN_SAMPLES cannot exceed FORM_WINDOW_SIZE")
	}
	dropIncomplete, err := strconv.ParseBool(getEnv("FEATURE_DROP_INCOMPLETE", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse FEATURE_DROP_INCOMPLETE: %w", err)
	}
	workers, err := getEnvAsInt("NORMALIZER_WORKERS", 4)
	if err != nil {
		return Config{}, err
	}

	apiFootballEnabled, err := strconv.ParseBool(getEnv("APIFOOTBALL_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APIFOOTBALL_ENABLED: %w", err)
	}
	apiFootballKey := strings.TrimSpace(getEnv("APIFOOTBALL_KEY", ""))
	if apiFootballEnabled && apiFootballKey == "" {
		return Config{}, fmt.Errorf("APIFOOTBALL_KEY is required when APIFOOTBALL_ENABLED=true")
	}
	apiFootballTimeout, err := time.ParseDuration(getEnv("APIFOOTBALL_TIMEOUT", "20s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APIFOOTBALL_TIMEOUT: %w", err)
	}
	apiFootballRetries, err := getEnvAsInt("APIFOOTBALL_MAX_RETRIES", 3)
	if err != nil {
		return Config{}, err
	}
	apiFootballLeagueIDs, err := parseLeagueIDMap(getEnv("APIFOOTBALL_LEAGUE_IDS", ""))
	if err != nil {
		return Config{}, fmt.Errorf("parse APIFOOTBALL_LEAGUE_IDS: %w", err)
	}
	apiFootballCircuitEnabled, err := strconv.ParseBool(getEnv("APIFOOTBALL_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APIFOOTBALL_CIRCUIT_ENABLED: %w", err)
	}
	apiFootballCircuitFailures, err := getEnvAsInt("APIFOOTBALL_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, err
	}
	apiFootballCircuitOpen, err := time.ParseDuration(getEnv("APIFOOTBALL_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APIFOOTBALL_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	apiFootballCircuitHalfOpen, err := getEnvAsInt("APIFOOTBALL_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, err
	}

	understatEnabled, err := strconv.ParseBool(getEnv("UNDERSTAT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UNDERSTAT_ENABLED: %w", err)
	}
	understatTimeout, err := time.ParseDuration(getEnv("UNDERSTAT_TIMEOUT", "20s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UNDERSTAT_TIMEOUT: %w", err)
	}
	understatRetries, err := getEnvAsInt("UNDERSTAT_MAX_RETRIES", 2)
	if err != nil {
		return Config{}, err
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServer := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServer == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}

	serviceName := getEnv("SERVICE_NAME", "prediction-engine")

	return Config{
		AppEnv:           appEnv,
		ServiceName:      serviceName,
		ServiceVersion:   getEnv("SERVICE_VERSION", "dev"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		DBURL:            strings.TrimSpace(getEnv("DATABASE_URL", "")),
		InternalJobToken: strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),
		ReadTimeout:      readTimeout,
		WriteTimeout:     writeTimeout,
		LogLevel:         parseLogLevel(getEnv("LOG_LEVEL", "info")),
		CacheTTL:         cacheTTL,

		DefaultCompetition: getEnv("COMPETITION", "EPL"),
		DefaultSeason:      getEnv("SEASON", "2025"),

		EloKFactor:            kFactor,
		FormWindowSize:        windowSize,
		FormMinSamples:        minSamples,
		FeatureDropIncomplete: dropIncomplete,
		NormalizerWorkers:     workers,

		APIFootballEnabled:               apiFootballEnabled,
		APIFootballBaseURL:               getEnv("APIFOOTBALL_BASE_URL", ""),
		APIFootballKey:                   apiFootballKey,
		APIFootballTimeout:               apiFootballTimeout,
		APIFootballMaxRetries:            apiFootballRetries,
		APIFootballLeagueIDs:             apiFootballLeagueIDs,
		APIFootballCircuitEnabled:        apiFootballCircuitEnabled,
		APIFootballCircuitFailureCount:   apiFootballCircuitFailures,
		APIFootballCircuitOpenTimeout:    apiFootballCircuitOpen,
		APIFootballCircuitHalfOpenMaxReq: apiFootballCircuitHalfOpen,

		UnderstatEnabled:    understatEnabled,
		UnderstatBaseURL:    getEnv("UNDERSTAT_BASE_URL", ""),
		UnderstatTimeout:    understatTimeout,
		UnderstatMaxRetries: understatRetries,

		UptraceEnabled: uptraceEnabled,
		UptraceDSN:     uptraceDSN,

		PyroscopeEnabled:       pyroscopeEnabled,
		PyroscopeServerAddress: pyroscopeServer,
		PyroscopeAppName:       getEnv("PYROSCOPE_APP_NAME", serviceName),
		PyroscopeAuthToken:     getEnv("PYROSCOPE_AUTH_TOKEN", ""),
		PyroscopeUploadRate:    pyroscopeUploadRate,
	}, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("APP_ENV must be %q or %q, got %q", EnvDev, EnvProd, v)
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return value, nil
}

func getEnvAsFloat(key string, fallback float64) (float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return value, nil
}

// parseLeagueIDMap parses "EPL:39,LaLiga:140" style pairs. Empty input keeps
// the connector defaults.
func parseLeagueIDMap(raw string) (map[string]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	out := make(map[string]int)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid pair %q, want name:id", pair)
		}
		id, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid id in pair %q: %w", pair, err)
		}
		out[strings.TrimSpace(parts[0])] = id
	}
	return out, nil
}
