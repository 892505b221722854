// Package config loads runtime configuration for the vault CLI.
//
// Sources, later ones winning:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. An optional JSON file selected with -c or -config.
//  3. Command-line flags (see parseFlags).
//
// JSON example:
//
//	{
//	  "server_url": "https://vault.example.com",
//	  "db_path": "/home/me/.config/zkvault/client.db",
//	  "request_timeout": "15s",
//	  "encrypt_titles": true,
//	  "use_keyring": false,
//	  "clipboard_clear": "12s"
//	}
package config
