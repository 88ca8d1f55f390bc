package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

// File store backends.
const (
	FileStoreAPI    = "api"
	FileStoreS3     = "s3"
	FileStoreSQLite = "sqlite"
)

// Config is the application configuration. Values come from an optional
// YAML file and are overridden by environment variables.
type Config struct {
	Port                string        `yaml:"port"`
	DatabasePath        string        `yaml:"database_path"`
	AppSecret           string        `yaml:"app_secret"`
	CookieSecure        bool          `yaml:"cookie_secure"`
	PrimaryAPIURL       string        `yaml:"primary_api_url"`
	LegacyAPIURL        string        `yaml:"legacy_api_url"`
	TokenExpiredMessage string        `yaml:"token_expired_message"`
	PageSize            int           `yaml:"page_size"`
	SearchDebounce      time.Duration `yaml:"search_debounce"`
	LogLevel            string        `yaml:"log_level"`
	Google              GoogleConfig  `yaml:"google"`
	FileStore           string        `yaml:"file_store"`
	S3                  S3Config      `yaml:"s3"`
}

// GoogleConfig enables Google sign-in when ClientID is set.
type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

// Enabled reports whether Google sign-in is configured.
func (g GoogleConfig) Enabled() bool {
	return g.ClientID != ""
}

// S3Config selects the bucket used when FileStore is "s3".
type S3Config struct {
	Bucket        string `yaml:"bucket"`
	PublicBaseURL string `yaml:"public_base_url"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:                "8080",
		DatabasePath:        "blogapp.db",
		CookieSecure:        true,
		PrimaryAPIURL:       "http://localhost:8000",
		LegacyAPIURL:        "https://doablefold-us.backendless.app",
		TokenExpiredMessage: "Token expired",
		PageSize:            6,
		SearchDebounce:      500 * time.Millisecond,
		LogLevel:            "info",
		FileStore:           FileStoreAPI,
	}
}

// Load builds the configuration from the YAML file at path (skipped when
// path is empty) and then from getenv.
func Load(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := applyEnv(&cfg, getenv); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	str("PORT", &cfg.Port)
	str("DATABASE_PATH", &cfg.DatabasePath)
	str("APP_SECRET", &cfg.AppSecret)
	str("PRIMARY_API_URL", &cfg.PrimaryAPIURL)
	str("LEGACY_API_URL", &cfg.LegacyAPIURL)
	str("TOKEN_EXPIRED_MESSAGE", &cfg.TokenExpiredMessage)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("GOOGLE_CLIENT_ID", &cfg.Google.ClientID)
	str("GOOGLE_CLIENT_SECRET", &cfg.Google.ClientSecret)
	str("GOOGLE_REDIRECT_URL", &cfg.Google.RedirectURL)
	str("FILE_STORE", &cfg.FileStore)
	str("S3_BUCKET", &cfg.S3.Bucket)
	str("S3_PUBLIC_BASE_URL", &cfg.S3.PublicBaseURL)

	// Default to secure cookies; disable only for local development.
	if v := getenv("COOKIE_SECURE"); v != "" {
		cfg.CookieSecure = v != "false"
	}

	if v := getenv("PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PAGE_SIZE: %w", err)
		}
		cfg.PageSize = n
	}

	if v := getenv("SEARCH_DEBOUNCE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SEARCH_DEBOUNCE: %w", err)
		}
		cfg.SearchDebounce = d
	}
	return nil
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.AppSecret == "" {
		errs = append(errs, errors.New("APP_SECRET is required"))
	} else if len(c.AppSecret) < 32 {
		errs = append(errs, errors.New("APP_SECRET must be at least 32 characters for HMAC-SHA256 security"))
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Errorf("invalid port %q", c.Port))
	}
	for name, raw := range map[string]string{"PRIMARY_API_URL": c.PrimaryAPIURL, "LEGACY_API_URL": c.LegacyAPIURL} {
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s must be an absolute URL, got %q", name, raw))
		}
	}
	if c.PageSize < 1 || c.PageSize > 100 {
		errs = append(errs, fmt.Errorf("PAGE_SIZE must be between 1 and 100, got %d", c.PageSize))
	}
	if c.SearchDebounce < 0 {
		errs = append(errs, errors.New("SEARCH_DEBOUNCE must not be negative"))
	}
	if c.TokenExpiredMessage == "" {
		errs = append(errs, errors.New("TOKEN_EXPIRED_MESSAGE must not be empty"))
	}
	switch c.FileStore {
	case FileStoreAPI, FileStoreSQLite:
	case FileStoreS3:
		if c.S3.Bucket == "" || c.S3.PublicBaseURL == "" {
			errs = append(errs, errors.New("FILE_STORE=s3 requires S3_BUCKET and S3_PUBLIC_BASE_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("FILE_STORE must be %q, %q or %q, got %q", FileStoreAPI, FileStoreS3, FileStoreSQLite, c.FileStore))
	}
	if c.Google.Enabled() && (c.Google.ClientSecret == "" || c.Google.RedirectURL == "") {
		errs = append(errs, errors.New("GOOGLE_CLIENT_ID requires GOOGLE_CLIENT_SECRET and GOOGLE_REDIRECT_URL"))
	}

	return errors.Join(errs...)
}
