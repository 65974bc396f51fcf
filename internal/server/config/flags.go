package config

import (
	"flag"
	"io"

	"github.com/violetear/api/internal/flagx"
)

var knownFlags = []string{"-a", "-g", "-d", "-l", "-u", "-t", "-w", "-cors", "-log-level", "-log-backend", "-b", "-e"}

// parseFlags applies the command-line flags found in args.
//
//	-a string     HTTP bind address
//	-g string     gRPC bind address
//	-d string     PostgreSQL DSN
//	-l int        max upload size, bytes
//	-u duration   upload timeout
//	-t duration   token TTL (0 keeps tokens until logout)
//	-w int        blocking workers (0 means GOMAXPROCS)
//	-cors string  allowed CORS origin
//	-log-level    debug|info|warn|error
//	-log-backend  zap|slog
//	-b string     S3 bucket for discarded payloads
//	-e string     S3 base endpoint
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("violetear", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC address")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.Int64Var(&config.MaxUploadSize, "l", config.MaxUploadSize, "max upload size in bytes")
	fs.DurationVar(&config.UploadTimeout, "u", config.UploadTimeout, "upload timeout")
	fs.DurationVar(&config.TokenTTL, "t", config.TokenTTL, "token TTL")
	fs.IntVar(&config.BlockingWorkers, "w", config.BlockingWorkers, "blocking workers")
	fs.StringVar(&config.CORSOrigin, "cors", config.CORSOrigin, "allowed CORS origin")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")
	fs.StringVar(&config.LogBackend, "log-backend", config.LogBackend, "log backend")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	return fs.Parse(flagx.FilterArgs(args, knownFlags))
}
