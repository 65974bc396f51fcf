// Package tasks persists the per-profile processing tasks of a report.
package tasks

import (
	"context"

	"github.com/violetear/api/internal/server/models"
)

type Repository interface {
	// Create inserts one task; a second task for the same (report, profile)
	// pair yields common.ErrorConflict.
	Create(ctx context.Context, reportID, profileID int64, status string) (int64, error)

	// ListForReport returns the tasks of a report ordered by id. Ownership is
	// the caller's concern.
	ListForReport(ctx context.Context, reportID int64) ([]models.Task, error)
}
