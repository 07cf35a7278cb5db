// Package config resolves CLI configuration with flag > env > default
// precedence, with optional .env file support.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults used when neither flag nor environment provides a value.
const (
	DefaultAPIBaseURL     = "https://api.siteprobe.dev"
	DefaultRequestTimeout = 60 * time.Second
	DefaultRequestsPerSec = 5
)

// Config holds all resolved configuration for the CLI.
type Config struct {
	// APIBaseURL is the backend base URL, e.g. https://api.siteprobe.dev.
	APIBaseURL string

	// DataDir holds the token file, settings file and history database.
	DataDir string

	// TokenFile is the credentials JSON path.
	TokenFile string

	// HistoryDB is the local scan-history SQLite path.
	HistoryDB string

	// SettingsFile is the app settings JSON path.
	SettingsFile string

	// RequestTimeout bounds each individual API request.
	RequestTimeout time.Duration

	// RequestsPerSecond paces outbound API calls.
	RequestsPerSecond int

	// Verbosity controls log output (0 warn, 1 info, 2 debug).
	Verbosity int
}

// Load resolves configuration. flagBaseURL, flagTokenFile and flagDataDir are
// the values from command-line flags; empty means unset. A .env file in the
// working directory is loaded first (ignored if absent).
func Load(flagBaseURL, flagDataDir, flagTokenFile string) (*Config, error) {
	_ = godotenv.Load()

	dataDir := resolve(flagDataDir, "SITEPROBE_DATA_DIR", defaultDataDir())
	cfg := &Config{
		APIBaseURL:        resolve(flagBaseURL, "SITEPROBE_API_URL", DefaultAPIBaseURL),
		DataDir:           dataDir,
		TokenFile:         resolve(flagTokenFile, "SITEPROBE_TOKEN_FILE", filepath.Join(dataDir, "credentials.json")),
		HistoryDB:         filepath.Join(dataDir, "history.db"),
		SettingsFile:      filepath.Join(dataDir, "settings.json"),
		RequestTimeout:    DefaultRequestTimeout,
		RequestsPerSecond: DefaultRequestsPerSec,
	}

	if err := ValidateBaseURL(cfg.APIBaseURL); err != nil {
		return nil, fmt.Errorf("invalid API base URL: %w", err)
	}

	if strings.HasPrefix(strings.ToLower(cfg.APIBaseURL), "http://") {
		fmt.Fprintln(os.Stderr, "WARNING: using HTTP instead of HTTPS; tokens will be transmitted in plaintext.")
		fmt.Fprintln(os.Stderr, "WARNING: this is only safe for local development.")
	}

	return cfg, nil
}

// resolve returns value with priority: flag > env > default.
func resolve(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return defaultValue
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".siteprobe"
	}
	return filepath.Join(home, ".siteprobe")
}

// ValidateBaseURL validates that the backend URL is properly formatted.
func ValidateBaseURL(rawURL string) error {
	if rawURL == "" {
		return errors.New("base URL cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got: %s", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("URL must include a host")
	}

	return nil
}

// EnsureDataDir creates the data directory if it does not exist.
func (c *Config) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0o700)
}
