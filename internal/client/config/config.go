package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/zkvault/internal/common"
)

// Config holds runtime settings for the vault CLI.
type Config struct {
	ServerURL      string
	DBPath         string
	RequestTimeout time.Duration
	EncryptTitles  bool
	UseKeyring     bool
	ClipboardClear time.Duration
}

// LoadDefaults populates c with development defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.DBPath = defaultDBPath()
	c.RequestTimeout = 15 * time.Second
	c.EncryptTitles = true
	c.ClipboardClear = 12 * time.Second
}

// Validate checks the fields the client cannot run without.
func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: invalid server url %q", common.ErrValidation, c.ServerURL)
	}
	if c.DBPath == "" {
		return fmt.Errorf("%w: database path is required", common.ErrValidation)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%w: request timeout must be positive", common.ErrValidation)
	}
	return nil
}

// LoadConfig builds a Config from defaults, the JSON file named by
// -c/-config and args (normally os.Args[1:]), then validates it.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "zkvault-client.db"
	}
	return filepath.Join(dir, "zkvault", "client.db")
}
