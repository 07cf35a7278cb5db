package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", "", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIBaseURL, cfg.APIBaseURL)
	assert.Equal(t, DefaultRequestTimeout, cfg.RequestTimeout)
	assert.Equal(t, DefaultRequestsPerSec, cfg.RequestsPerSecond)
	assert.Equal(t, filepath.Join(cfg.DataDir, "credentials.json"), cfg.TokenFile)
	assert.Equal(t, filepath.Join(cfg.DataDir, "history.db"), cfg.HistoryDB)
	assert.Equal(t, filepath.Join(cfg.DataDir, "settings.json"), cfg.SettingsFile)
}

func TestLoadEnvOverridesDefault(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("SITEPROBE_API_URL", "https://staging.siteprobe.dev")
	t.Setenv("SITEPROBE_DATA_DIR", dataDir)

	cfg, err := Load("", "", "")
	require.NoError(t, err)
	assert.Equal(t, "https://staging.siteprobe.dev", cfg.APIBaseURL)
	assert.Equal(t, dataDir, cfg.DataDir)
	assert.Equal(t, filepath.Join(dataDir, "credentials.json"), cfg.TokenFile)
}

func TestLoadFlagOverridesEnv(t *testing.T) {
	t.Setenv("SITEPROBE_API_URL", "https://staging.siteprobe.dev")
	t.Setenv("SITEPROBE_TOKEN_FILE", "/env/credentials.json")

	cfg, err := Load("https://flag.siteprobe.dev", "", "/flag/credentials.json")
	require.NoError(t, err)
	assert.Equal(t, "https://flag.siteprobe.dev", cfg.APIBaseURL)
	assert.Equal(t, "/flag/credentials.json", cfg.TokenFile)
}

func TestLoadRejectsBadBaseURL(t *testing.T) {
	for _, raw := range []string{"ftp://example.com", "https://", "not a url at all"} {
		_, err := Load(raw, "", "")
		assert.Error(t, err, "base URL %q", raw)
	}
}

func TestValidateBaseURL(t *testing.T) {
	assert.NoError(t, ValidateBaseURL("https://api.siteprobe.dev"))
	assert.NoError(t, ValidateBaseURL("http://localhost:8080"))
	assert.Error(t, ValidateBaseURL(""))
	assert.Error(t, ValidateBaseURL("ws://example.com"))
	assert.Error(t, ValidateBaseURL("https://"))
}

func TestEnsureDataDir(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "sub", ".siteprobe")
	cfg, err := Load("", dataDir, "")
	require.NoError(t, err)
	require.NoError(t, cfg.EnsureDataDir())
	assert.DirExists(t, dataDir)
}
