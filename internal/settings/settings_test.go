package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "settings.json"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), s)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")

	in := Defaults()
	in.DefaultScanType = "deep"
	in.SaveHistory = false
	in.Theme = "dark"
	require.NoError(t, Save(path, in))

	out, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.NoFileExists(t, path+".tmp")
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	// A file written by an older build that only knows some fields.
	require.NoError(t, os.WriteFile(path, []byte(`{"defaultScanType":"deep"}`), 0o600))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "deep", s.DefaultScanType)
	assert.Equal(t, 300, s.ScanTimeoutSecs, "absent fields must keep their defaults")
	assert.Equal(t, "en-US", s.Language)
}

func TestLoadCorruptFileReturnsDefaultsAndError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o600))

	s, err := Load(path)
	assert.Error(t, err)
	assert.Equal(t, Defaults(), s, "a corrupt file must not leave half-parsed settings behind")
}
