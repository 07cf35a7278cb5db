// Package settings persists user-facing app settings to a JSON file.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Settings mirrors the durable app-settings blob. Loading merges the stored
// file over the defaults, so new fields pick up their default on upgrade.
type Settings struct {
	DefaultScanType string `json:"defaultScanType"`
	SaveHistory     bool   `json:"saveHistory"`
	ScanTimeoutSecs int    `json:"scanTimeoutSecs"`
	RetryAttempts   int    `json:"retryAttempts"`
	Theme           string `json:"theme"`
	Language        string `json:"language"`
}

// Defaults returns the out-of-the-box settings.
func Defaults() Settings {
	return Settings{
		DefaultScanType: "basic",
		SaveHistory:     true,
		ScanTimeoutSecs: 300,
		RetryAttempts:   2,
		Theme:           "auto",
		Language:        "en-US",
	}
}

// Load reads settings from path, merging over defaults. A missing file yields
// the defaults; a corrupt file is an error.
func Load(path string) (Settings, error) {
	s := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("read settings file: %w", err)
	}

	if err := json.Unmarshal(data, &s); err != nil {
		return Defaults(), fmt.Errorf("parse settings file: %w", err)
	}
	return s, nil
}

// Save writes settings atomically.
func Save(path string, s Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tempFile, path); err != nil {
		if removeErr := os.Remove(tempFile); removeErr != nil {
			return fmt.Errorf(
				"failed to rename temp file: %v; additionally failed to remove temp file: %w",
				err,
				removeErr,
			)
		}
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
