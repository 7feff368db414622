package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/linemerge/propref/internal/platform/logging"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string

	DBURL                   string
	DBDisablePreparedBinary bool

	OpsAddr      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	PprofEnabled bool
	PprofAddr    string

	UptraceEnabled     bool
	UptraceDSN         string
	UptraceLogsEnabled bool

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration

	FeedURLBySource         map[string]string
	FeedTimeout             time.Duration
	FeedMaxRetries          int
	FeedCircuitEnabled      bool
	FeedCircuitFailureCount int
	FeedCircuitOpenTimeout  time.Duration
	FeedCircuitHalfOpenMax  int

	Sources         []string
	SourcesReadOnly []string
	CollectInterval time.Duration
	ResolveWorkers  int

	MatchSubjectThreshold    float64
	MatchMarketThreshold     float64
	MatchTeamThreshold       float64
	MatchLeagueThreshold     float64
	MatchTeamWeight          float64
	MatchTeamWeightNoisy     float64
	MatchPositionWeight      float64
	MatchJerseyWeight        float64
	MatchNameDamping         float64
	MatchNoisyTeamPartitions []string

	LogLevel logging.Level
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	uptraceLogsEnabled, err := strconv.ParseBool(getEnv("UPTRACE_LOGS_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_LOGS_ENABLED: %w", err)
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	feedTimeout, err := time.ParseDuration(getEnv("FEED_TIMEOUT", "20s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse FEED_TIMEOUT: %w", err)
	}
	if feedTimeout <= 0 {
		return Config{}, fmt.Errorf("FEED_TIMEOUT must be > 0")
	}
	feedMaxRetries, err := getEnvAsInt("FEED_MAX_RETRIES", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse FEED_MAX_RETRIES: %w", err)
	}
	if feedMaxRetries < 0 {
		return Config{}, fmt.Errorf("FEED_MAX_RETRIES must be >= 0")
	}
	feedCircuitEnabled, err := strconv.ParseBool(getEnv("FEED_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse FEED_CIRCUIT_ENABLED: %w", err)
	}
	feedCircuitFailureCount, err := getEnvAsInt("FEED_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse FEED_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if feedCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("FEED_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	feedCircuitOpenTimeout, err := time.ParseDuration(getEnv("FEED_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse FEED_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if feedCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("FEED_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	feedCircuitHalfOpenMax, err := getEnvAsInt("FEED_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse FEED_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if feedCircuitHalfOpenMax < 1 {
		return Config{}, fmt.Errorf("FEED_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}
	feedURLBySource, err := parsePairMap(getEnv("FEED_URL_BY_SOURCE", ""))
	if err != nil {
		return Config{}, fmt.Errorf("parse FEED_URL_BY_SOURCE: %w", err)
	}

	sources := splitCSV(strings.ToLower(getEnv("SOURCES", "")))
	if len(sources) == 0 {
		for source := range feedURLBySource {
			sources = append(sources, source)
		}
	}
	sourcesReadOnly := splitCSV(strings.ToLower(getEnv("SOURCES_READONLY", "")))

	collectInterval, err := time.ParseDuration(getEnv("COLLECT_INTERVAL", "5m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse COLLECT_INTERVAL: %w", err)
	}
	if collectInterval <= 0 {
		return Config{}, fmt.Errorf("COLLECT_INTERVAL must be > 0")
	}
	resolveWorkers, err := getEnvAsInt("RESOLVE_WORKERS", 16)
	if err != nil {
		return Config{}, fmt.Errorf("parse RESOLVE_WORKERS: %w", err)
	}
	if resolveWorkers < 1 {
		return Config{}, fmt.Errorf("RESOLVE_WORKERS must be >= 1")
	}

	subjectThreshold, err := getEnvAsFloat("MATCH_SUBJECT_THRESHOLD", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse MATCH_SUBJECT_THRESHOLD: %w", err)
	}
	marketThreshold, err := getEnvAsFloat("MATCH_MARKET_THRESHOLD", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse MATCH_MARKET_THRESHOLD: %w", err)
	}
	teamThreshold, err := getEnvAsFloat("MATCH_TEAM_THRESHOLD", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse MATCH_TEAM_THRESHOLD: %w", err)
	}
	leagueThreshold, err := getEnvAsFloat("MATCH_LEAGUE_THRESHOLD", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse MATCH_LEAGUE_THRESHOLD: %w", err)
	}
	teamWeight, err := getEnvAsFloat("MATCH_TEAM_WEIGHT", 1.0)
	if err != nil {
		return Config{}, fmt.Errorf("parse MATCH_TEAM_WEIGHT: %w", err)
	}
	teamWeightNoisy, err := getEnvAsFloat("MATCH_TEAM_WEIGHT_NOISY", 0.75)
	if err != nil {
		return Config{}, fmt.Errorf("parse MATCH_TEAM_WEIGHT_NOISY: %w", err)
	}
	positionWeight, err := getEnvAsFloat("MATCH_POSITION_WEIGHT", 0.75)
	if err != nil {
		return Config{}, fmt.Errorf("parse MATCH_POSITION_WEIGHT: %w", err)
	}
	jerseyWeight, err := getEnvAsFloat("MATCH_JERSEY_WEIGHT", 2.0)
	if err != nil {
		return Config{}, fmt.Errorf("parse MATCH_JERSEY_WEIGHT: %w", err)
	}
	nameDamping, err := getEnvAsFloat("MATCH_NAME_DAMPING", 0.0625)
	if err != nil {
		return Config{}, fmt.Errorf("parse MATCH_NAME_DAMPING: %w", err)
	}
	for name, value := range map[string]float64{
		"MATCH_SUBJECT_THRESHOLD": subjectThreshold,
		"MATCH_MARKET_THRESHOLD":  marketThreshold,
		"MATCH_TEAM_THRESHOLD":    teamThreshold,
		"MATCH_LEAGUE_THRESHOLD":  leagueThreshold,
	} {
		if value <= 0 {
			return Config{}, fmt.Errorf("%s must be > 0", name)
		}
	}

	cfg := Config{
		AppEnv:                     appEnv,
		ServiceName:                getEnv("APP_SERVICE_NAME", "propref"),
		ServiceVersion:             getEnv("APP_SERVICE_VERSION", "dev"),
		DBURL:                      getEnv("DB_URL", ""),
		OpsAddr:                    getEnv("APP_OPS_ADDR", ":8080"),
		PprofEnabled:               pprofEnabled,
		PprofAddr:                  pprofAddr,
		UptraceEnabled:             uptraceEnabled,
		UptraceDSN:                 uptraceDSN,
		UptraceLogsEnabled:         uptraceLogsEnabled,
		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:        pyroscopeUploadRate,
		FeedURLBySource:            feedURLBySource,
		FeedTimeout:                feedTimeout,
		FeedMaxRetries:             feedMaxRetries,
		FeedCircuitEnabled:         feedCircuitEnabled,
		FeedCircuitFailureCount:    feedCircuitFailureCount,
		FeedCircuitOpenTimeout:     feedCircuitOpenTimeout,
		FeedCircuitHalfOpenMax:     feedCircuitHalfOpenMax,
		Sources:                    sources,
		SourcesReadOnly:            sourcesReadOnly,
		CollectInterval:            collectInterval,
		ResolveWorkers:             resolveWorkers,
		MatchSubjectThreshold:      subjectThreshold,
		MatchMarketThreshold:       marketThreshold,
		MatchTeamThreshold:         teamThreshold,
		MatchLeagueThreshold:       leagueThreshold,
		MatchTeamWeight:            teamWeight,
		MatchTeamWeightNoisy:       teamWeightNoisy,
		MatchPositionWeight:        positionWeight,
		MatchJerseyWeight:          jerseyWeight,
		MatchNameDamping:           nameDamping,
		MatchNoisyTeamPartitions:   splitCSV(strings.ToUpper(getEnv("MATCH_NOISY_TEAM_PARTITIONS", "NCAAB,NCAAF"))),
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}

	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}
	cfg.DBDisablePreparedBinary = dbDisablePreparedBinary

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}
	cfg.ReadTimeout = readTimeout
	cfg.WriteTimeout = writeTimeout
	cfg.LogLevel = parseLogLevel(getEnv("APP_LOG_LEVEL", "info"))

	return cfg, nil
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

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsFloat(key string, fallback float64) (float64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

// parsePairMap parses "source=url,source=url" style values.
func parsePairMap(raw string) (map[string]string, error) {
	out := make(map[string]string)
	parts := strings.Split(raw, ",")
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}

		segments := strings.SplitN(item, "=", 2)
		if len(segments) != 2 {
			return nil, fmt.Errorf("invalid map item %q, expected source=url", item)
		}

		key := strings.ToLower(strings.TrimSpace(segments[0]))
		value := strings.TrimSpace(segments[1])
		if key == "" || value == "" {
			return nil, fmt.Errorf("empty source or url in item %q", item)
		}

		out[key] = value
	}
	return out, nil
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
