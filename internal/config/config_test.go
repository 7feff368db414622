package config

import (
	"testing"
	"time"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_PprofDefaultsAddrWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("PPROF_ENABLED", "true")
	t.Setenv("PPROF_ADDR", "  ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PprofAddr != ":6060" {
		t.Fatalf("expected default pprof addr :6060, got %q", cfg.PprofAddr)
	}
}

func TestLoad_PyroscopeRequiresServerAddressWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when PYROSCOPE_ENABLED=true without PYROSCOPE_SERVER_ADDRESS")
	}
}

func TestLoad_PyroscopeAppNameDefaultsToServiceName(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("APP_SERVICE_NAME", "propref-test")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "http://localhost:4040")
	t.Setenv("PYROSCOPE_APP_NAME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PyroscopeAppName != "propref-test" {
		t.Fatalf("unexpected pyroscope app name: %q", cfg.PyroscopeAppName)
	}
}

func TestLoad_DBDisablePreparedBinaryResultParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("default true", func(t *testing.T) {
		t.Setenv("DB_DISABLE_PREPARED_BINARY_RESULT", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.DBDisablePreparedBinary {
			t.Fatalf("expected DBDisablePreparedBinary=true by default")
		}
	})

	t.Run("invalid value", func(t *testing.T) {
		t.Setenv("DB_DISABLE_PREPARED_BINARY_RESULT", "not-bool")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid DB_DISABLE_PREPARED_BINARY_RESULT")
		}
	})
}

func TestLoad_FeedConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("defaults", func(t *testing.T) {
		t.Setenv("FEED_TIMEOUT", "")
		t.Setenv("FEED_MAX_RETRIES", "")
		t.Setenv("FEED_CIRCUIT_ENABLED", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.FeedTimeout != 20*time.Second {
			t.Fatalf("unexpected default feed timeout: %s", cfg.FeedTimeout)
		}
		if cfg.FeedMaxRetries != 1 {
			t.Fatalf("unexpected default feed retries: %d", cfg.FeedMaxRetries)
		}
		if !cfg.FeedCircuitEnabled {
			t.Fatalf("expected feed circuit enabled by default")
		}
	})

	t.Run("url map parsing", func(t *testing.T) {
		t.Setenv("FEED_URL_BY_SOURCE", " DraftKings=https://feeds.example.com/dk , fanduel=https://feeds.example.com/fd ")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.FeedURLBySource["draftkings"] != "https://feeds.example.com/dk" {
			t.Fatalf("unexpected draftkings feed url: %q", cfg.FeedURLBySource["draftkings"])
		}
		if cfg.FeedURLBySource["fanduel"] != "https://feeds.example.com/fd" {
			t.Fatalf("unexpected fanduel feed url: %q", cfg.FeedURLBySource["fanduel"])
		}
		if len(cfg.Sources) != 2 {
			t.Fatalf("expected sources derived from feed map, got %+v", cfg.Sources)
		}
	})

	t.Run("invalid map item", func(t *testing.T) {
		t.Setenv("FEED_URL_BY_SOURCE", "draftkings")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for FEED_URL_BY_SOURCE item without url")
		}
	})

	t.Run("invalid timeout", func(t *testing.T) {
		t.Setenv("FEED_URL_BY_SOURCE", "")
		t.Setenv("FEED_TIMEOUT", "bad")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid FEED_TIMEOUT")
		}
	})
}

func TestLoad_SourceListParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("SOURCES", " DraftKings, fanduel ,pinnacle ")
	t.Setenv("SOURCES_READONLY", "Pinnacle")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if len(cfg.Sources) != 3 {
		t.Fatalf("unexpected sources length: %d", len(cfg.Sources))
	}
	if cfg.Sources[0] != "draftkings" {
		t.Fatalf("expected sources lowered, got %q", cfg.Sources[0])
	}
	if len(cfg.SourcesReadOnly) != 1 || cfg.SourcesReadOnly[0] != "pinnacle" {
		t.Fatalf("unexpected read-only sources: %+v", cfg.SourcesReadOnly)
	}
}

func TestLoad_MatchConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.MatchSubjectThreshold != 4 {
			t.Fatalf("unexpected default subject threshold: %v", cfg.MatchSubjectThreshold)
		}
		if cfg.MatchLeagueThreshold != 2 {
			t.Fatalf("unexpected default league threshold: %v", cfg.MatchLeagueThreshold)
		}
		if cfg.MatchJerseyWeight != 2.0 {
			t.Fatalf("unexpected default jersey weight: %v", cfg.MatchJerseyWeight)
		}
		if cfg.MatchNameDamping != 0.0625 {
			t.Fatalf("unexpected default name damping: %v", cfg.MatchNameDamping)
		}
		if len(cfg.MatchNoisyTeamPartitions) != 2 {
			t.Fatalf("unexpected default noisy partitions: %+v", cfg.MatchNoisyTeamPartitions)
		}
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("MATCH_SUBJECT_THRESHOLD", "5.5")
		t.Setenv("MATCH_NOISY_TEAM_PARTITIONS", "ncaab")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.MatchSubjectThreshold != 5.5 {
			t.Fatalf("unexpected subject threshold: %v", cfg.MatchSubjectThreshold)
		}
		if len(cfg.MatchNoisyTeamPartitions) != 1 || cfg.MatchNoisyTeamPartitions[0] != "NCAAB" {
			t.Fatalf("expected noisy partitions uppercased, got %+v", cfg.MatchNoisyTeamPartitions)
		}
	})

	t.Run("non-positive threshold rejected", func(t *testing.T) {
		t.Setenv("MATCH_TEAM_THRESHOLD", "0")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for MATCH_TEAM_THRESHOLD=0")
		}
	})
}

func TestLoad_CollectIntervalAndWorkers(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.CollectInterval != 5*time.Minute {
			t.Fatalf("unexpected default collect interval: %s", cfg.CollectInterval)
		}
		if cfg.ResolveWorkers != 16 {
			t.Fatalf("unexpected default resolve workers: %d", cfg.ResolveWorkers)
		}
	})

	t.Run("invalid workers", func(t *testing.T) {
		t.Setenv("RESOLVE_WORKERS", "0")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for RESOLVE_WORKERS=0")
		}
	})
}

func TestParseUptraceDSNFromOTLPHeaders(t *testing.T) {
	dsn := parseUptraceDSNFromOTLPHeaders(`uptrace-dsn="https://token@api.uptrace.dev/123"`)
	if dsn != "https://token@api.uptrace.dev/123" {
		t.Fatalf("unexpected dsn: %q", dsn)
	}
	if got := parseUptraceDSNFromOTLPHeaders("other=value"); got != "" {
		t.Fatalf("expected empty dsn, got %q", got)
	}
}
