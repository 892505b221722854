package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/zkvault/internal/flagx"
	"github.com/dmitrijs2005/zkvault/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the config file. Pointer fields tell
// "absent" from a zero value so a file can override just a few settings.
type FileConfig struct {
	HTTPAddr          *string         `json:"http_addr" yaml:"http_addr"`
	HealthAddrGRPC    *string         `json:"health_addr_grpc" yaml:"health_addr_grpc"`
	StorageDriver     *string         `json:"storage_driver" yaml:"storage_driver"`
	DatabaseDSN       *string         `json:"database_dsn" yaml:"database_dsn"`
	BoltPath          *string         `json:"bolt_path" yaml:"bolt_path"`
	SecretKey         *string         `json:"secret_key" yaml:"secret_key"`
	SessionValidity   *timex.Duration `json:"session_validity" yaml:"session_validity"`
	BcryptCost        *int            `json:"bcrypt_cost" yaml:"bcrypt_cost"`
	TOTPIssuer        *string         `json:"totp_issuer" yaml:"totp_issuer"`
	TOTPSkew          *uint           `json:"totp_skew" yaml:"totp_skew"`
	CookieSecure      *bool           `json:"cookie_secure" yaml:"cookie_secure"`
	LogFormat         *string         `json:"log_format" yaml:"log_format"`
	LogLevel          *string         `json:"log_level" yaml:"log_level"`
	S3AccessKey       *string         `json:"s3_access_key" yaml:"s3_access_key"`
	S3SecretKey       *string         `json:"s3_secret_key" yaml:"s3_secret_key"`
	S3Bucket          *string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region          *string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint    *string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	BackupURLValidity *timex.Duration `json:"backup_url_validity" yaml:"backup_url_validity"`
}

// parseFile overlays the file named by -c/-config, if any. Files ending in
// .yaml or .yml are read as YAML, anything else as JSON.
func parseFile(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	fc.apply(cfg)
	return nil
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func (fc *FileConfig) apply(cfg *Config) {
	setIf(&cfg.HTTPAddr, fc.HTTPAddr)
	setIf(&cfg.HealthAddrGRPC, fc.HealthAddrGRPC)
	setIf(&cfg.StorageDriver, fc.StorageDriver)
	setIf(&cfg.DatabaseDSN, fc.DatabaseDSN)
	setIf(&cfg.BoltPath, fc.BoltPath)
	setIf(&cfg.SecretKey, fc.SecretKey)
	setIf(&cfg.BcryptCost, fc.BcryptCost)
	setIf(&cfg.TOTPIssuer, fc.TOTPIssuer)
	setIf(&cfg.TOTPSkew, fc.TOTPSkew)
	setIf(&cfg.CookieSecure, fc.CookieSecure)
	setIf(&cfg.LogFormat, fc.LogFormat)
	setIf(&cfg.LogLevel, fc.LogLevel)
	setIf(&cfg.S3AccessKey, fc.S3AccessKey)
	setIf(&cfg.S3SecretKey, fc.S3SecretKey)
	setIf(&cfg.S3Bucket, fc.S3Bucket)
	setIf(&cfg.S3Region, fc.S3Region)
	setIf(&cfg.S3BaseEndpoint, fc.S3BaseEndpoint)
	if fc.SessionValidity != nil {
		cfg.SessionValidity = fc.SessionValidity.Duration
	}
	if fc.BackupURLValidity != nil {
		cfg.BackupURLValidity = fc.BackupURLValidity.Duration
	}
}
