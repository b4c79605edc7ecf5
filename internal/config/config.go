package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/fbref-report/internal/platform/logging"
)

// Config stores runtime configuration for the service and the CLI.
type Config struct {
	AppEnv             string
	ServiceName        string
	ServiceVersion     string
	HTTPAddr           string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	CORSAllowedOrigins []string
	LogLevel           logging.Level

	ScraperBaseURL         string
	ScraperHeadless        bool
	ScraperBrowserPath     string
	ScraperDelayMin        time.Duration
	ScraperDelayMax        time.Duration
	ScraperMaxRetries      int
	ScraperBackoffFactor   float64
	ScraperWindowWidth     int
	ScraperWindowHeight    int
	ScraperImplicitWait    time.Duration
	ScraperPageLoadTimeout time.Duration
	ScraperUserAgents      []string

	ScraperCircuitEnabled      bool
	ScraperCircuitFailureCount int
	ScraperCircuitOpenTimeout  time.Duration

	FixtureCacheTTL time.Duration

	ReportWorkers        int
	ReportIncludePlayers bool
	ReportMaxPlayers     int
	TaskRetention        time.Duration
	TaskSweepInterval    time.Duration
	ExportDir            string
	ExportKeepFiles      time.Duration

	MetricsEnabled bool
	PprofEnabled   bool
	PprofAddr      string
	UptraceEnabled bool
	UptraceDSN     string

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:             appEnv,
		ServiceName:        getEnv("APP_SERVICE_NAME", "fbref-report-api"),
		ServiceVersion:     getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:           getEnv("APP_HTTP_ADDR", ":8080"),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*"), ","),
		LogLevel:           logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info")),
		ScraperBaseURL:     strings.TrimRight(strings.TrimSpace(getEnv("SCRAPER_BASE_URL", "https://fbref.com")), "/"),
		ScraperBrowserPath: strings.TrimSpace(getEnv("SCRAPER_BROWSER_PATH", "")),
		ScraperUserAgents:  splitList(getEnv("SCRAPER_USER_AGENTS", ""), "|"),
		ExportDir:          strings.TrimSpace(getEnv("EXPORT_DIR", "data/exports")),
		PprofAddr:          strings.TrimSpace(getEnv("PPROF_ADDR", ":6060")),
		UptraceDSN:         strings.TrimSpace(getEnv("UPTRACE_DSN", "")),

		PyroscopeServerAddress:     strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", "")),
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}
	if cfg.ScraperBaseURL == "" {
		return Config{}, fmt.Errorf("SCRAPER_BASE_URL cannot be empty")
	}
	if cfg.ExportDir == "" {
		return Config{}, fmt.Errorf("EXPORT_DIR cannot be empty")
	}

	if cfg.ReadTimeout, err = getEnvAsDuration("APP_READ_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.WriteTimeout, err = getEnvAsDuration("APP_WRITE_TIMEOUT", 60*time.Second); err != nil {
		return Config{}, err
	}

	if cfg.ScraperHeadless, err = getEnvAsBool("SCRAPER_HEADLESS", true); err != nil {
		return Config{}, err
	}
	if cfg.ScraperDelayMin, err = getEnvAsDuration("SCRAPER_REQUEST_DELAY_MIN", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.ScraperDelayMax, err = getEnvAsDuration("SCRAPER_REQUEST_DELAY_MAX", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.ScraperDelayMax < cfg.ScraperDelayMin {
		return Config{}, fmt.Errorf("SCRAPER_REQUEST_DELAY_MAX must be >= SCRAPER_REQUEST_DELAY_MIN")
	}
	if cfg.ScraperMaxRetries, err = getEnvAsInt("SCRAPER_MAX_RETRIES", 3); err != nil {
		return Config{}, fmt.Errorf("parse SCRAPER_MAX_RETRIES: %w", err)
	}
	if cfg.ScraperMaxRetries < 0 {
		return Config{}, fmt.Errorf("SCRAPER_MAX_RETRIES must be >= 0")
	}
	cfg.ScraperBackoffFactor, err = strconv.ParseFloat(getEnv("SCRAPER_BACKOFF_FACTOR", "1.5"), 64)
	if err != nil {
		return Config{}, fmt.Errorf("parse SCRAPER_BACKOFF_FACTOR: %w", err)
	}
	if cfg.ScraperBackoffFactor < 1 {
		return Config{}, fmt.Errorf("SCRAPER_BACKOFF_FACTOR must be >= 1")
	}
	if cfg.ScraperWindowWidth, cfg.ScraperWindowHeight, err = parseWindowSize(getEnv("SCRAPER_WINDOW_SIZE", "1920,1080")); err != nil {
		return Config{}, fmt.Errorf("parse SCRAPER_WINDOW_SIZE: %w", err)
	}
	if cfg.ScraperImplicitWait, err = getEnvAsDuration("SCRAPER_IMPLICIT_WAIT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.ScraperPageLoadTimeout, err = getEnvAsDuration("SCRAPER_PAGE_LOAD_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}

	if cfg.ScraperCircuitEnabled, err = getEnvAsBool("SCRAPER_CIRCUIT_ENABLED", true); err != nil {
		return Config{}, err
	}
	if cfg.ScraperCircuitFailureCount, err = getEnvAsInt("SCRAPER_CIRCUIT_FAILURE_COUNT", 5); err != nil {
		return Config{}, fmt.Errorf("parse SCRAPER_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if cfg.ScraperCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("SCRAPER_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	if cfg.ScraperCircuitOpenTimeout, err = getEnvAsDuration("SCRAPER_CIRCUIT_OPEN_TIMEOUT", 2*time.Minute); err != nil {
		return Config{}, err
	}

	if cfg.FixtureCacheTTL, err = getEnvAsDuration("FIXTURE_CACHE_TTL", 10*time.Minute); err != nil {
		return Config{}, err
	}

	if cfg.ReportWorkers, err = getEnvAsInt("REPORT_WORKERS", 2); err != nil {
		return Config{}, fmt.Errorf("parse REPORT_WORKERS: %w", err)
	}
	if cfg.ReportWorkers < 1 {
		return Config{}, fmt.Errorf("REPORT_WORKERS must be >= 1")
	}
	if cfg.ReportIncludePlayers, err = getEnvAsBool("REPORT_INCLUDE_PLAYERS", true); err != nil {
		return Config{}, err
	}
	if cfg.ReportMaxPlayers, err = getEnvAsInt("REPORT_MAX_PLAYERS", 22); err != nil {
		return Config{}, fmt.Errorf("parse REPORT_MAX_PLAYERS: %w", err)
	}
	if cfg.ReportMaxPlayers < 1 || cfg.ReportMaxPlayers > 22 {
		return Config{}, fmt.Errorf("REPORT_MAX_PLAYERS must be between 1 and 22")
	}
	if cfg.TaskRetention, err = getEnvAsDuration("TASK_RETENTION", time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.TaskSweepInterval, err = getEnvAsDuration("TASK_SWEEP_INTERVAL", 5*time.Minute); err != nil {
		return Config{}, err
	}
	cfg.ExportKeepFiles, err = time.ParseDuration(getEnv("EXPORT_KEEP_FILES", "24h"))
	if err != nil {
		return Config{}, fmt.Errorf("parse EXPORT_KEEP_FILES: %w", err)
	}
	if cfg.ExportKeepFiles < 0 {
		return Config{}, fmt.Errorf("EXPORT_KEEP_FILES must be >= 0")
	}

	if cfg.MetricsEnabled, err = getEnvAsBool("METRICS_ENABLED", true); err != nil {
		return Config{}, err
	}
	if cfg.PprofEnabled, err = getEnvAsBool("PPROF_ENABLED", false); err != nil {
		return Config{}, err
	}
	if cfg.PprofEnabled && cfg.PprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	if cfg.UptraceEnabled, err = getEnvAsBool("UPTRACE_ENABLED", false); err != nil {
		return Config{}, err
	}
	if cfg.UptraceDSN == "" {
		cfg.UptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	if cfg.PyroscopeEnabled, err = getEnvAsBool("PYROSCOPE_ENABLED", false); err != nil {
		return Config{}, err
	}
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	if cfg.PyroscopeUploadRate, err = getEnvAsDuration("PYROSCOPE_UPLOAD_RATE", 15*time.Second); err != nil {
		return Config{}, err
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))

	return cfg, nil
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

func getEnvAsBool(key string, fallback bool) (bool, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return out, nil
}

// getEnvAsDuration parses a positive duration.
func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return out, nil
}

func splitList(v, sep string) []string {
	parts := strings.Split(v, sep)
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

func parseWindowSize(raw string) (int, int, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected width,height, got %q", raw)
	}
	width, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid width: %w", err)
	}
	height, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid height: %w", err)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("width and height must be > 0")
	}
	return width, height, nil
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
