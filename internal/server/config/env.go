package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// loadDotEnv reads ENV_FILE (default ".env") into the process environment
// without overriding variables that are already set. A missing file is fine.
func loadDotEnv() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	_ = godotenv.Load(envFile)
}

type lookupFunc func(string) (string, bool)

const envPrefix = "VIOLETEAR_"

// parseEnv applies the deployment-platform variables (DATABASE_URL, PORT,
// CORS_ORIGIN) and the VIOLETEAR_* family.
func parseEnv(c *Config, lookup lookupFunc) error {
	if v, ok := lookup("DATABASE_URL"); ok {
		c.DatabaseDSN = v
	}
	if v, ok := lookup("PORT"); ok {
		c.EndpointAddrHTTP = ":" + v
	}
	if v, ok := lookup("CORS_ORIGIN"); ok {
		c.CORSOrigin = v
	}

	strs := map[string]*string{
		"HTTP_ADDRESS":     &c.EndpointAddrHTTP,
		"GRPC_ADDRESS":     &c.EndpointAddrGRPC,
		"LOG_LEVEL":        &c.LogLevel,
		"LOG_BACKEND":      &c.LogBackend,
		"S3_ACCESS_KEY":    &c.S3AccessKey,
		"S3_SECRET_KEY":    &c.S3SecretKey,
		"S3_BUCKET":        &c.S3Bucket,
		"S3_REGION":        &c.S3Region,
		"S3_BASE_ENDPOINT": &c.S3BaseEndpoint,
	}
	for k, dst := range strs {
		if v, ok := lookup(envPrefix + k); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"DB_MAX_OPEN_CONNS": &c.DBMaxOpenConns,
		"DB_MAX_IDLE_CONNS": &c.DBMaxIdleConns,
		"BCRYPT_COST":       &c.BcryptCost,
		"BLOCKING_WORKERS":  &c.BlockingWorkers,
	}
	for k, dst := range ints {
		if v, ok := lookup(envPrefix + k); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, k, err)
			}
			*dst = n
		}
	}

	if v, ok := lookup(envPrefix + "MAX_UPLOAD_SIZE"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sMAX_UPLOAD_SIZE: %w", envPrefix, err)
		}
		c.MaxUploadSize = n
	}

	durs := map[string]*time.Duration{
		"DB_CONN_MAX_LIFETIME":  &c.DBConnMaxLifetime,
		"UPLOAD_TIMEOUT":        &c.UploadTimeout,
		"TOKEN_TTL":             &c.TokenTTL,
		"S3_PRESIGN_TTL":        &c.S3PresignTTL,
		"NOTIFY_MAX_ELAPSED":    &c.NotifyMaxElapsed,
		"HEALTH_CHECK_INTERVAL": &c.HealthCheckInterval,
		"SHUTDOWN_TIMEOUT":      &c.ShutdownTimeout,
	}
	for k, dst := range durs {
		if v, ok := lookup(envPrefix + k); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, k, err)
			}
			*dst = d
		}
	}

	return nil
}
