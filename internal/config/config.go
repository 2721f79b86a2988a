package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Mode controls which optional features are enabled.
// - minimal: views + controller only, no metrics/health/export
// - full (default): minimal + metrics + backend health checks + XLSX export
type Mode string

const (
	ModeMinimal Mode = "minimal"
	ModeFull    Mode = "full" // default
)

// StorageType controls where the session credential is persisted.
type StorageType string

const (
	StorageSQLite StorageType = "sqlite"
	StorageMemory StorageType = "memory"
	StorageFile   StorageType = "file"
)

// UnauthorizedPolicy controls which backend calls invalidate the session on 401.
type UnauthorizedPolicy string

const (
	// UnauthorizedPredict only treats 401 on the prediction call as a forced logout.
	UnauthorizedPredict UnauthorizedPolicy = "predict"
	// UnauthorizedAll treats 401 on any authenticated call as a forced logout.
	UnauthorizedAll UnauthorizedPolicy = "all"
)

// Features derived from MODE - centralized feature gating.
type Features struct {
	Metrics bool
	Health  bool
	Export  bool
}

// Config contains all runtime configuration for the console.
type Config struct {
	// Core
	Mode       Mode
	ListenAddr string
	BackendURL string
	LogLevel   string

	// Credential storage
	Storage        StorageType
	StoragePath    string
	StorageMaxRows int

	// Backend calls. Zero RequestTimeout means no client-side timeout.
	RequestTimeout     time.Duration
	UnauthorizedPolicy UnauthorizedPolicy
	UploadMaxBytes     int64

	// Health checks (MODE=full)
	HealthCheckInterval time.Duration
	HealthCheckTimeout  time.Duration

	// Browser session
	SessionCookie string
	CookieSecure  bool

	// Front-end script sources
	ChartJSURL string
	HTMXURL    string
}

// fileConfig mirrors Config for the optional TOML file. Every field is a
// pointer so that absent keys leave the defaults untouched.
type fileConfig struct {
	Mode                *string `toml:"mode"`
	ListenAddr          *string `toml:"listen_addr"`
	BackendURL          *string `toml:"backend_url"`
	LogLevel            *string `toml:"log_level"`
	Storage             *string `toml:"storage"`
	StoragePath         *string `toml:"storage_path"`
	StorageMaxRows      *int    `toml:"storage_max_rows"`
	RequestTimeout      *string `toml:"request_timeout"`
	UnauthorizedPolicy  *string `toml:"unauthorized_policy"`
	UploadMaxBytes      *int64  `toml:"upload_max_bytes"`
	HealthCheckInterval *string `toml:"health_check_interval"`
	HealthCheckTimeout  *string `toml:"health_check_timeout"`
	SessionCookie       *string `toml:"session_cookie"`
	CookieSecure        *bool   `toml:"cookie_secure"`
	ChartJSURL          *string `toml:"chart_js_url"`
	HTMXURL             *string `toml:"htmx_url"`
}

// Features returns the feature flags derived from the current MODE.
func (c *Config) Features() Features {
	if c.Mode == ModeMinimal {
		return Features{}
	}
	return Features{
		Metrics: true,
		Health:  true,
		Export:  true,
	}
}

// Defaults returns the configuration used when neither a file nor env vars
// override a value.
func Defaults() Config {
	return Config{
		Mode:       ModeFull,
		ListenAddr: ":8080",
		BackendURL: "http://localhost:8000",
		LogLevel:   "info",

		Storage:        StorageSQLite,
		StoragePath:    "./data/console.sqlite",
		StorageMaxRows: 5000,

		RequestTimeout:     0,
		UnauthorizedPolicy: UnauthorizedPredict,
		UploadMaxBytes:     20 * 1024 * 1024,

		HealthCheckInterval: 30 * time.Second,
		HealthCheckTimeout:  5 * time.Second,

		SessionCookie: "console_session",
		CookieSecure:  false,

		ChartJSURL: "https://cdn.jsdelivr.net/npm/chart.js@4.4.1/dist/chart.umd.min.js",
		HTMXURL:    "https://unpkg.com/htmx.org@1.9.12",
	}
}

// LoadDotEnv loads a .env file from the working directory if one exists.
// Variables already present in the environment win.
func LoadDotEnv() error {
	err := godotenv.Load()
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Load parses CONFIG_FILE (if set) and env vars and returns a validated Config.
func Load() (Config, error) {
	return LoadFile(os.Getenv("CONFIG_FILE"))
}

// LoadFile is Load with an explicit TOML file path. Precedence is
// defaults < file < env. An empty path skips the file.
func LoadFile(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	cfg.Mode = Mode(getEnvString("MODE", string(cfg.Mode)))
	cfg.ListenAddr = getEnvString("LISTEN_ADDR", cfg.ListenAddr)
	cfg.BackendURL = getEnvString("BACKEND_URL", cfg.BackendURL)
	cfg.LogLevel = getEnvString("LOG_LEVEL", cfg.LogLevel)

	cfg.Storage = StorageType(getEnvString("STORAGE", string(cfg.Storage)))
	cfg.StoragePath = getEnvString("STORAGE_PATH", cfg.StoragePath)
	cfg.StorageMaxRows = getEnvInt("STORAGE_MAX_ROWS", cfg.StorageMaxRows)

	cfg.RequestTimeout = getEnvDuration("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.UnauthorizedPolicy = UnauthorizedPolicy(getEnvString("UNAUTHORIZED_POLICY", string(cfg.UnauthorizedPolicy)))
	cfg.UploadMaxBytes = getEnvInt64("UPLOAD_MAX_BYTES", cfg.UploadMaxBytes)

	cfg.HealthCheckInterval = getEnvDuration("HEALTH_CHECK_INTERVAL", cfg.HealthCheckInterval)
	cfg.HealthCheckTimeout = getEnvDuration("HEALTH_CHECK_TIMEOUT", cfg.HealthCheckTimeout)

	cfg.SessionCookie = getEnvString("SESSION_COOKIE", cfg.SessionCookie)
	cfg.CookieSecure = getEnvBool("COOKIE_SECURE", cfg.CookieSecure)

	cfg.ChartJSURL = getEnvString("CHART_JS_URL", cfg.ChartJSURL)
	cfg.HTMXURL = getEnvString("HTMX_URL", cfg.HTMXURL)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setDuration := func(dst *time.Duration, src *string, key string) error {
		if src == nil {
			return nil
		}
		d, err := time.ParseDuration(strings.TrimSpace(*src))
		if err != nil {
			return fmt.Errorf("config file %s: invalid %s: %w", path, key, err)
		}
		*dst = d
		return nil
	}

	if fc.Mode != nil {
		cfg.Mode = Mode(*fc.Mode)
	}
	setString(&cfg.ListenAddr, fc.ListenAddr)
	setString(&cfg.BackendURL, fc.BackendURL)
	setString(&cfg.LogLevel, fc.LogLevel)
	if fc.Storage != nil {
		cfg.Storage = StorageType(*fc.Storage)
	}
	setString(&cfg.StoragePath, fc.StoragePath)
	if fc.StorageMaxRows != nil {
		cfg.StorageMaxRows = *fc.StorageMaxRows
	}
	if err := setDuration(&cfg.RequestTimeout, fc.RequestTimeout, "request_timeout"); err != nil {
		return err
	}
	if fc.UnauthorizedPolicy != nil {
		cfg.UnauthorizedPolicy = UnauthorizedPolicy(*fc.UnauthorizedPolicy)
	}
	if fc.UploadMaxBytes != nil {
		cfg.UploadMaxBytes = *fc.UploadMaxBytes
	}
	if err := setDuration(&cfg.HealthCheckInterval, fc.HealthCheckInterval, "health_check_interval"); err != nil {
		return err
	}
	if err := setDuration(&cfg.HealthCheckTimeout, fc.HealthCheckTimeout, "health_check_timeout"); err != nil {
		return err
	}
	setString(&cfg.SessionCookie, fc.SessionCookie)
	if fc.CookieSecure != nil {
		cfg.CookieSecure = *fc.CookieSecure
	}
	setString(&cfg.ChartJSURL, fc.ChartJSURL)
	setString(&cfg.HTMXURL, fc.HTMXURL)
	return nil
}

// Validate checks configuration constraints.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeMinimal, ModeFull:
		// ok
	default:
		return fmt.Errorf("invalid MODE: %q (must be minimal|full)", c.Mode)
	}

	u, err := url.Parse(c.BackendURL)
	if err != nil {
		return fmt.Errorf("invalid BACKEND_URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("BACKEND_URL must be http or https, got %q", c.BackendURL)
	}
	if u.Host == "" {
		return fmt.Errorf("BACKEND_URL must include a host")
	}

	switch c.Storage {
	case StorageSQLite, StorageMemory, StorageFile:
		// ok
	default:
		return fmt.Errorf("invalid STORAGE: %q (must be sqlite|memory|file)", c.Storage)
	}
	if c.Storage != StorageMemory && strings.TrimSpace(c.StoragePath) == "" {
		return fmt.Errorf("STORAGE_PATH must be set for STORAGE=%s", c.Storage)
	}
	if c.StorageMaxRows < 100 {
		return fmt.Errorf("STORAGE_MAX_ROWS must be >= 100")
	}

	if c.RequestTimeout < 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be >= 0")
	}
	switch c.UnauthorizedPolicy {
	case UnauthorizedPredict, UnauthorizedAll:
		// ok
	default:
		return fmt.Errorf("invalid UNAUTHORIZED_POLICY: %q (must be predict|all)", c.UnauthorizedPolicy)
	}
	if c.UploadMaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be > 0")
	}

	if c.HealthCheckInterval <= 0 {
		return fmt.Errorf("HEALTH_CHECK_INTERVAL must be > 0")
	}
	if c.HealthCheckTimeout <= 0 {
		return fmt.Errorf("HEALTH_CHECK_TIMEOUT must be > 0")
	}

	if strings.TrimSpace(c.SessionCookie) == "" {
		return fmt.Errorf("SESSION_COOKIE must not be empty")
	}

	return nil
}

// Helper functions for parsing environment variables

func getEnvString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return n
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
	}
	return def
}
