package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/zkvault/internal/flagx"
)

var clientFlags = []string{"-a", "-db", "-timeout", "-encrypt-titles", "-keyring", "-clip"}

// parseFlags overlays command-line flags.
//
// Supported flags:
//
//	-a string           server base URL
//	-db string          local database path
//	-timeout duration   per-request timeout
//	-encrypt-titles     keep titles inside the ciphertext (use =false to send them)
//	-keyring            keep the session token in the OS keyring
//	-clip duration      clear copied secrets after this long
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, clientFlags)

	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "server base URL")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "local database path")
	fs.DurationVar(&cfg.RequestTimeout, "timeout", cfg.RequestTimeout, "request timeout")
	fs.BoolVar(&cfg.EncryptTitles, "encrypt-titles", cfg.EncryptTitles, "encrypt item titles")
	fs.BoolVar(&cfg.UseKeyring, "keyring", cfg.UseKeyring, "store the session token in the OS keyring")
	fs.DurationVar(&cfg.ClipboardClear, "clip", cfg.ClipboardClear, "clipboard clear delay")

	return fs.Parse(args)
}
