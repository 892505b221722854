package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/zkvault/internal/flagx"
)

// serverFlags lists every flag parseFlags understands.
var serverFlags = []string{"-a", "-m", "-driver", "-d", "-f", "-s", "-t", "-bc", "-lf", "-ll", "-u", "-p", "-b", "-g", "-e"}

// parseFlags overlays command-line flags.
//
// Supported flags:
//
//	-a string      HTTP bind address (e.g. ":8080")
//	-m string      gRPC health-probe bind address
//	-driver string storage driver: postgres or bolt
//	-d string      PostgreSQL DSN
//	-f string      bbolt file path
//	-s string      session signing secret
//	-t duration    session validity (e.g. "168h")
//	-bc int        bcrypt cost
//	-lf string     log format: json or console
//	-ll string     log level
//	-u, -p string  S3 access key and secret key
//	-b string      S3 bucket; empty disables backups
//	-g string      S3 region
//	-e string      S3 base endpoint (e.g. "http://127.0.0.1:9000/")
//
// Args are filtered through flagx.FilterArgs first so -c/-config and unknown
// flags do not collide.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, serverFlags)

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.HTTPAddr, "a", cfg.HTTPAddr, "HTTP address and port")
	fs.StringVar(&cfg.HealthAddrGRPC, "m", cfg.HealthAddrGRPC, "gRPC health address and port")
	fs.StringVar(&cfg.StorageDriver, "driver", cfg.StorageDriver, "storage driver (postgres|bolt)")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.BoltPath, "f", cfg.BoltPath, "bolt file path")
	fs.StringVar(&cfg.SecretKey, "s", cfg.SecretKey, "session signing secret")
	fs.DurationVar(&cfg.SessionValidity, "t", cfg.SessionValidity, "session validity")
	fs.IntVar(&cfg.BcryptCost, "bc", cfg.BcryptCost, "bcrypt cost")
	fs.StringVar(&cfg.LogFormat, "lf", cfg.LogFormat, "log format (json|console)")
	fs.StringVar(&cfg.LogLevel, "ll", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.S3AccessKey, "u", cfg.S3AccessKey, "S3 access key")
	fs.StringVar(&cfg.S3SecretKey, "p", cfg.S3SecretKey, "S3 secret key")
	fs.StringVar(&cfg.S3Bucket, "b", cfg.S3Bucket, "S3 bucket")
	fs.StringVar(&cfg.S3Region, "g", cfg.S3Region, "S3 region")
	fs.StringVar(&cfg.S3BaseEndpoint, "e", cfg.S3BaseEndpoint, "S3 base endpoint")

	return fs.Parse(args)
}
