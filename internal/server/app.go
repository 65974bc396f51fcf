// Package server wires configuration, storage, services and transports into a
// runnable application and owns its lifecycle.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/violetear/api/internal/common"
	"github.com/violetear/api/internal/dbx"
	"github.com/violetear/api/internal/logging"
	"github.com/violetear/api/internal/server/archive"
	"github.com/violetear/api/internal/server/config"
	"github.com/violetear/api/internal/server/httpapi"
	"github.com/violetear/api/internal/server/metrics"
	"github.com/violetear/api/internal/server/notify"
	"github.com/violetear/api/internal/server/repositories/repomanager"
	"github.com/violetear/api/internal/server/services"
	"github.com/violetear/api/internal/workpool"
	"golang.org/x/sync/errgroup"

	gs "github.com/violetear/api/internal/server/grpc"
)

var (
	openDB         = func(dsn string) (*sql.DB, error) { return sql.Open("pgx", dsn) }
	newRepoManager = repomanager.NewPostgresRepositoryManager
	newArchive     = func(ctx context.Context, c archive.Config) (archive.Archive, error) {
		return archive.NewS3Archive(ctx, c)
	}

	// dbConnectMaxElapsed bounds the startup wait for the database.
	dbConnectMaxElapsed = 30 * time.Second
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	http   *httpapi.Server
	grpc   *gs.GRPCServer
}

// NewApp connects to the database, applies migrations and builds every
// component. The returned App owns the database handle.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	db.SetMaxOpenConns(c.DBMaxOpenConns)
	db.SetMaxIdleConns(c.DBMaxIdleConns)
	db.SetConnMaxLifetime(c.DBConnMaxLifetime)

	app, err := build(ctx, c, logger, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func build(ctx context.Context, c *config.Config, logger logging.Logger, db *sql.DB) (*App, error) {
	if err := waitForDB(ctx, db, logger); err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}

	repos := newRepoManager()
	if err := repos.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	m := metrics.New()
	if err := m.RegisterDB(db); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	var arc archive.Archive
	if c.ArchiveEnabled() {
		a, err := newArchive(ctx, archive.Config{
			Region:     c.S3Region,
			AccessKey:  c.S3AccessKey,
			SecretKey:  c.S3SecretKey,
			Endpoint:   c.S3BaseEndpoint,
			Bucket:     c.S3Bucket,
			PresignTTL: c.S3PresignTTL,
		})
		if err != nil {
			return nil, fmt.Errorf("archive: %w", err)
		}
		arc = a
	}

	deps := services.Deps{
		DB:      db,
		Tx:      dbx.NewSQLRunner(db, nil),
		Repos:   repos,
		Pool:    workpool.New(c.BlockingWorkers),
		Logger:  logger,
		Metrics: m,
	}
	notifier := notify.NewPostgresNotifier(db, common.WorkAvailableChannel,
		notify.WithMaxElapsed(c.NotifyMaxElapsed),
		notify.WithLogger(logger),
	)

	api := httpapi.New(
		services.NewUserService(deps, services.TokenPolicy{TTL: c.TokenTTL}, c.BcryptCost),
		services.NewReportService(deps, notifier, arc),
		services.NewProfileService(deps),
		db, logger, m,
		httpapi.Options{
			MaxUploadSize: c.MaxUploadSize,
			UploadTimeout: c.UploadTimeout,
			CORSOrigin:    c.CORSOrigin,
		},
	)

	return &App{
		config: c,
		logger: logger,
		db:     db,
		http:   httpapi.NewServer(c.EndpointAddrHTTP, api.Handler(), logger, c.UploadTimeout, c.ShutdownTimeout),
		grpc:   gs.NewGRPCServer(c.EndpointAddrGRPC, logger, db, c.HealthCheckInterval),
	}, nil
}

func waitForDB(ctx context.Context, db *sql.DB, logger logging.Logger) error {
	policy := backoff.NewExponentialBackOff(backoff.WithMaxElapsedTime(dbConnectMaxElapsed))
	return backoff.RetryNotify(
		func() error { return db.PingContext(ctx) },
		backoff.WithContext(policy, ctx),
		func(err error, next time.Duration) {
			logger.Warn(ctx, "database not ready", "error", err, "retry_in", next)
		},
	)
}

// Run serves HTTP and gRPC until ctx is cancelled or a termination signal
// arrives, then shuts both down and closes the database.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app.logger.Info(ctx, "Starting app...")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.http.Run(gctx) })
	g.Go(func() error { return app.grpc.Run(gctx) })

	err := g.Wait()
	app.logger.Info(ctx, "App stopped")

	if cerr := app.db.Close(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	return err
}
