package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable the server reads, e.g.
// ZKVAULT_SECRET_KEY or ZKVAULT_SESSION_VALIDITY=72h.
const EnvPrefix = "ZKVAULT"

// parseEnv overlays ZKVAULT_* variables. Only variables that are set
// override the current value.
func parseEnv(cfg *Config) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	strs := map[string]*string{
		"http_addr":        &cfg.HTTPAddr,
		"health_addr_grpc": &cfg.HealthAddrGRPC,
		"storage_driver":   &cfg.StorageDriver,
		"database_dsn":     &cfg.DatabaseDSN,
		"bolt_path":        &cfg.BoltPath,
		"secret_key":       &cfg.SecretKey,
		"totp_issuer":      &cfg.TOTPIssuer,
		"log_format":       &cfg.LogFormat,
		"log_level":        &cfg.LogLevel,
		"s3_access_key":    &cfg.S3AccessKey,
		"s3_secret_key":    &cfg.S3SecretKey,
		"s3_bucket":        &cfg.S3Bucket,
		"s3_region":        &cfg.S3Region,
		"s3_base_endpoint": &cfg.S3BaseEndpoint,
	}
	for key, dst := range strs {
		if err := v.BindEnv(key); err != nil {
			return err
		}
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}

	for _, key := range []string{"session_validity", "backup_url_validity", "bcrypt_cost", "totp_skew", "cookie_secure"} {
		if err := v.BindEnv(key); err != nil {
			return err
		}
	}

	var err error
	if v.IsSet("session_validity") {
		if cfg.SessionValidity, err = durationEnv(v, "session_validity"); err != nil {
			return err
		}
	}
	if v.IsSet("backup_url_validity") {
		if cfg.BackupURLValidity, err = durationEnv(v, "backup_url_validity"); err != nil {
			return err
		}
	}
	if v.IsSet("bcrypt_cost") {
		cfg.BcryptCost = v.GetInt("bcrypt_cost")
	}
	if v.IsSet("totp_skew") {
		cfg.TOTPSkew = v.GetUint("totp_skew")
	}
	if v.IsSet("cookie_secure") {
		cfg.CookieSecure = v.GetBool("cookie_secure")
	}

	return nil
}

func durationEnv(v *viper.Viper, key string) (d time.Duration, err error) {
	raw := v.GetString(key)
	if d, err = time.ParseDuration(raw); err != nil {
		return 0, fmt.Errorf("%s_%s: %w", EnvPrefix, strings.ToUpper(key), err)
	}
	return d, nil
}
