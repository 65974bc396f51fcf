package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/violetear/api/internal/flagx"
	"github.com/violetear/api/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Duration fields accept both
// "90s"-style strings and integer nanoseconds. Keys absent from the file
// leave the current value untouched.
type JsonConfig struct {
	EndpointAddrHTTP    string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC    string         `json:"endpoint_addr_grpc"`
	DatabaseDSN         string         `json:"database_dsn"`
	DBMaxOpenConns      int            `json:"db_max_open_conns"`
	DBMaxIdleConns      int            `json:"db_max_idle_conns"`
	DBConnMaxLifetime   timex.Duration `json:"db_conn_max_lifetime"`
	MaxUploadSize       int64          `json:"max_upload_size"`
	UploadTimeout       timex.Duration `json:"upload_timeout"`
	TokenTTL            timex.Duration `json:"token_ttl"`
	BcryptCost          int            `json:"bcrypt_cost"`
	BlockingWorkers     int            `json:"blocking_workers"`
	CORSOrigin          string         `json:"cors_origin"`
	LogLevel            string         `json:"log_level"`
	LogBackend          string         `json:"log_backend"`
	S3AccessKey         string         `json:"s3_access_key"`
	S3SecretKey         string         `json:"s3_secret_key"`
	S3Bucket            string         `json:"s3_bucket"`
	S3Region            string         `json:"s3_region"`
	S3BaseEndpoint      string         `json:"s3_base_endpoint"`
	S3PresignTTL        timex.Duration `json:"s3_presign_ttl"`
	NotifyMaxElapsed    timex.Duration `json:"notify_max_elapsed"`
	HealthCheckInterval timex.Duration `json:"health_check_interval"`
	ShutdownTimeout     timex.Duration `json:"shutdown_timeout"`
}

func toJson(c *Config) *JsonConfig {
	return &JsonConfig{
		EndpointAddrHTTP:    c.EndpointAddrHTTP,
		EndpointAddrGRPC:    c.EndpointAddrGRPC,
		DatabaseDSN:         c.DatabaseDSN,
		DBMaxOpenConns:      c.DBMaxOpenConns,
		DBMaxIdleConns:      c.DBMaxIdleConns,
		DBConnMaxLifetime:   timex.Duration{Duration: c.DBConnMaxLifetime},
		MaxUploadSize:       c.MaxUploadSize,
		UploadTimeout:       timex.Duration{Duration: c.UploadTimeout},
		TokenTTL:            timex.Duration{Duration: c.TokenTTL},
		BcryptCost:          c.BcryptCost,
		BlockingWorkers:     c.BlockingWorkers,
		CORSOrigin:          c.CORSOrigin,
		LogLevel:            c.LogLevel,
		LogBackend:          c.LogBackend,
		S3AccessKey:         c.S3AccessKey,
		S3SecretKey:         c.S3SecretKey,
		S3Bucket:            c.S3Bucket,
		S3Region:            c.S3Region,
		S3BaseEndpoint:      c.S3BaseEndpoint,
		S3PresignTTL:        timex.Duration{Duration: c.S3PresignTTL},
		NotifyMaxElapsed:    timex.Duration{Duration: c.NotifyMaxElapsed},
		HealthCheckInterval: timex.Duration{Duration: c.HealthCheckInterval},
		ShutdownTimeout:     timex.Duration{Duration: c.ShutdownTimeout},
	}
}

func (j *JsonConfig) apply(c *Config) {
	c.EndpointAddrHTTP = j.EndpointAddrHTTP
	c.EndpointAddrGRPC = j.EndpointAddrGRPC
	c.DatabaseDSN = j.DatabaseDSN
	c.DBMaxOpenConns = j.DBMaxOpenConns
	c.DBMaxIdleConns = j.DBMaxIdleConns
	c.DBConnMaxLifetime = j.DBConnMaxLifetime.Duration
	c.MaxUploadSize = j.MaxUploadSize
	c.UploadTimeout = j.UploadTimeout.Duration
	c.TokenTTL = j.TokenTTL.Duration
	c.BcryptCost = j.BcryptCost
	c.BlockingWorkers = j.BlockingWorkers
	c.CORSOrigin = j.CORSOrigin
	c.LogLevel = j.LogLevel
	c.LogBackend = j.LogBackend
	c.S3AccessKey = j.S3AccessKey
	c.S3SecretKey = j.S3SecretKey
	c.S3Bucket = j.S3Bucket
	c.S3Region = j.S3Region
	c.S3BaseEndpoint = j.S3BaseEndpoint
	c.S3PresignTTL = j.S3PresignTTL.Duration
	c.NotifyMaxElapsed = j.NotifyMaxElapsed.Duration
	c.HealthCheckInterval = j.HealthCheckInterval.Duration
	c.ShutdownTimeout = j.ShutdownTimeout.Duration
}

// parseJson overlays the file named by -c/-config, if any.
func parseJson(config *Config) error {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	j := toJson(config)
	if err := json.Unmarshal(file, j); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	j.apply(config)
	return nil
}
