package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/zkvault/internal/flagx"
	"github.com/dmitrijs2005/zkvault/internal/timex"
)

// JSONConfig is the on-disk shape of the client config. Durations go
// through timex.Duration so "15s" and integer nanoseconds both work.
type JSONConfig struct {
	ServerURL      *string         `json:"server_url"`
	DBPath         *string         `json:"db_path"`
	RequestTimeout *timex.Duration `json:"request_timeout"`
	EncryptTitles  *bool           `json:"encrypt_titles"`
	UseKeyring     *bool           `json:"use_keyring"`
	ClipboardClear *timex.Duration `json:"clipboard_clear"`
}

// parseJSON overlays the file named by -c/-config, if any.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var jc JSONConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if jc.ServerURL != nil {
		cfg.ServerURL = *jc.ServerURL
	}
	if jc.DBPath != nil {
		cfg.DBPath = *jc.DBPath
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.EncryptTitles != nil {
		cfg.EncryptTitles = *jc.EncryptTitles
	}
	if jc.UseKeyring != nil {
		cfg.UseKeyring = *jc.UseKeyring
	}
	if jc.ClipboardClear != nil {
		cfg.ClipboardClear = jc.ClipboardClear.Duration
	}
	return nil
}
