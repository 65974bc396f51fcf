// Package services contains the server-side business logic: sessions,
// report ingestion with task fan-out, and the owner-scoped read paths.
//
// Services never return raw storage errors. Everything a caller sees is one
// of the sentinels in internal/common, matched with errors.Is.
package services

import (
	"context"

	"github.com/violetear/api/internal/common"
	"github.com/violetear/api/internal/dbx"
	"github.com/violetear/api/internal/logging"
	"github.com/violetear/api/internal/server/metrics"
	"github.com/violetear/api/internal/server/repositories/repomanager"
	"github.com/violetear/api/internal/workpool"
)

// Deps are the collaborators shared by all services. DB serves
// non-transactional reads; Tx opens transactions on the same database.
type Deps struct {
	DB      dbx.DBTX
	Tx      dbx.TxRunner
	Repos   repomanager.RepositoryManager
	Pool    *workpool.Pool
	Logger  logging.Logger
	Metrics *metrics.Metrics
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = logging.Nop{}
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	if d.Pool == nil {
		d.Pool = workpool.New(0)
	}
	return d
}

// internal logs err and hides it behind common.ErrorInternal.
func internal(ctx context.Context, log logging.Logger, op string, err error) error {
	log.Error(ctx, op+" failed", "error", err)
	return common.ErrorInternal
}
