package repomanager

import (
	"context"
	"database/sql"

	"github.com/violetear/api/internal/dbx"
	"github.com/violetear/api/internal/server/repositories/profiles"
	"github.com/violetear/api/internal/server/repositories/reports"
	"github.com/violetear/api/internal/server/repositories/tasks"
	"github.com/violetear/api/internal/server/repositories/tokens"
	"github.com/violetear/api/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so the same factory
// serves both plain connections and transactions.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Tokens(db dbx.DBTX) tokens.Repository
	Profiles(db dbx.DBTX) profiles.Repository
	Reports(db dbx.DBTX) reports.Repository
	Tasks(db dbx.DBTX) tasks.Repository
}
