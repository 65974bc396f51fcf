// Package reports stores uploaded payloads and their content digests.
//
// Every single-report operation is scoped by the owner predicate
// (id, user_id) so that a foreign report and a missing one are
// indistinguishable to callers.
package reports

import (
	"context"

	"github.com/violetear/api/internal/server/models"
)

type Repository interface {
	// Create inserts a report and returns its id.
	Create(ctx context.Context, userID int64, multihash string, file []byte) (int64, error)

	// ListForUser returns the user's reports newest first, without payload bytes.
	ListForUser(ctx context.Context, userID int64) ([]models.Report, error)

	// GetForUser returns a single report without payload bytes.
	GetForUser(ctx context.Context, userID, reportID int64) (*models.Report, error)

	// CheckOwner returns common.ErrorNotFound unless reportID belongs to userID.
	CheckOwner(ctx context.Context, userID, reportID int64) error

	// GetFileForUpdate loads the report including its payload and locks the row.
	// It must run inside a transaction.
	GetFileForUpdate(ctx context.Context, userID, reportID int64) (*models.Report, error)

	// DiscardFile clears the payload, keeping the record and its digest.
	DiscardFile(ctx context.Context, userID, reportID int64) error
}
