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

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.AppEnv != EnvDev || cfg.ServiceName != "fbref-report-api" || cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected service defaults: %+v", cfg)
	}
	if cfg.WriteTimeout != 60*time.Second {
		t.Fatalf("unexpected write timeout: %s", cfg.WriteTimeout)
	}
	if cfg.ScraperBaseURL != "https://fbref.com" || !cfg.ScraperHeadless {
		t.Fatalf("unexpected scraper defaults: base=%q headless=%v", cfg.ScraperBaseURL, cfg.ScraperHeadless)
	}
	if cfg.ScraperDelayMin != 5*time.Second || cfg.ScraperDelayMax != 10*time.Second {
		t.Fatalf("unexpected delay bounds: %s..%s", cfg.ScraperDelayMin, cfg.ScraperDelayMax)
	}
	if cfg.ScraperMaxRetries != 3 || cfg.ScraperBackoffFactor != 1.5 {
		t.Fatalf("unexpected retry defaults: retries=%d factor=%v", cfg.ScraperMaxRetries, cfg.ScraperBackoffFactor)
	}
	if cfg.ScraperWindowWidth != 1920 || cfg.ScraperWindowHeight != 1080 {
		t.Fatalf("unexpected window size: %dx%d", cfg.ScraperWindowWidth, cfg.ScraperWindowHeight)
	}
	if len(cfg.ScraperUserAgents) != 0 {
		t.Fatalf("expected built-in user agents, got %v", cfg.ScraperUserAgents)
	}
	if cfg.ReportWorkers != 2 || !cfg.ReportIncludePlayers || cfg.ReportMaxPlayers != 22 {
		t.Fatalf("unexpected report defaults: %+v", cfg)
	}
	if cfg.TaskRetention != time.Hour || cfg.ExportKeepFiles != 24*time.Hour || cfg.ExportDir != "data/exports" {
		t.Fatalf("unexpected retention defaults: %+v", cfg)
	}
	if !cfg.MetricsEnabled || cfg.PprofEnabled || cfg.UptraceEnabled || cfg.PyroscopeEnabled {
		t.Fatalf("unexpected observability defaults: %+v", cfg)
	}
}

func TestLoad_ScraperSettings(t *testing.T) {
	t.Setenv("SCRAPER_BASE_URL", "http://localhost:9000/")
	t.Setenv("SCRAPER_WINDOW_SIZE", "1280, 720")
	t.Setenv("SCRAPER_USER_AGENTS", "agent-a | agent-b|")
	t.Setenv("SCRAPER_REQUEST_DELAY_MIN", "100ms")
	t.Setenv("SCRAPER_REQUEST_DELAY_MAX", "200ms")
	t.Setenv("SCRAPER_CIRCUIT_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ScraperBaseURL != "http://localhost:9000" {
		t.Fatalf("unexpected base url: %q", cfg.ScraperBaseURL)
	}
	if cfg.ScraperWindowWidth != 1280 || cfg.ScraperWindowHeight != 720 {
		t.Fatalf("unexpected window size: %dx%d", cfg.ScraperWindowWidth, cfg.ScraperWindowHeight)
	}
	if len(cfg.ScraperUserAgents) != 2 || cfg.ScraperUserAgents[1] != "agent-b" {
		t.Fatalf("unexpected user agents: %v", cfg.ScraperUserAgents)
	}
	if cfg.ScraperDelayMin != 100*time.Millisecond || cfg.ScraperDelayMax != 200*time.Millisecond {
		t.Fatalf("unexpected delay bounds: %s..%s", cfg.ScraperDelayMin, cfg.ScraperDelayMax)
	}
	if cfg.ScraperCircuitEnabled {
		t.Fatalf("expected circuit breaker disabled")
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "bad window", key: "SCRAPER_WINDOW_SIZE", value: "1920x1080"},
		{name: "negative retries", key: "SCRAPER_MAX_RETRIES", value: "-1"},
		{name: "small backoff", key: "SCRAPER_BACKOFF_FACTOR", value: "0.5"},
		{name: "zero workers", key: "REPORT_WORKERS", value: "0"},
		{name: "too many players", key: "REPORT_MAX_PLAYERS", value: "30"},
		{name: "bad bool", key: "SCRAPER_HEADLESS", value: "maybe"},
		{name: "zero retention", key: "TASK_RETENTION", value: "0s"},
		{name: "bad duration", key: "FIXTURE_CACHE_TTL", value: "ten minutes"},
		{name: "inverted delays", key: "SCRAPER_REQUEST_DELAY_MIN", value: "20s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_ExportKeepFilesZeroDisablesCleanup(t *testing.T) {
	t.Setenv("EXPORT_KEEP_FILES", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ExportKeepFiles != 0 {
		t.Fatalf("expected disabled retention, got %s", cfg.ExportKeepFiles)
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_UptraceDSNFromOTLPHeaders(t *testing.T) {
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", `foo=bar, uptrace-dsn="https://token@api.uptrace.dev?grpc=4317"`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.UptraceDSN != "https://token@api.uptrace.dev?grpc=4317" {
		t.Fatalf("unexpected uptrace dsn: %q", cfg.UptraceDSN)
	}
}

func TestLoad_PprofDefaultsAddrWhenEnabled(t *testing.T) {
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
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when PYROSCOPE_ENABLED=true without PYROSCOPE_SERVER_ADDRESS")
	}
}

func TestLoad_PyroscopeAppNameDefaultsToServiceName(t *testing.T) {
	t.Setenv("APP_SERVICE_NAME", "fbref-report-test")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "http://localhost:4040")
	t.Setenv("PYROSCOPE_APP_NAME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PyroscopeAppName != "fbref-report-test" {
		t.Fatalf("unexpected pyroscope app name: %q", cfg.PyroscopeAppName)
	}
}

func TestLoad_CORSOriginsDefaultAndParsing(t *testing.T) {
	t.Run("default wildcard", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
			t.Fatalf("unexpected default CORS origins: %+v", cfg.CORSAllowedOrigins)
		}
	})

	t.Run("comma separated parsing", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example.com, http://localhost:5173 ")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 2 {
			t.Fatalf("unexpected CORS origins length: %d", len(cfg.CORSAllowedOrigins))
		}
		if cfg.CORSAllowedOrigins[1] != "http://localhost:5173" {
			t.Fatalf("unexpected second CORS origin: %s", cfg.CORSAllowedOrigins[1])
		}
	})
}
