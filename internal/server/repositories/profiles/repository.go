// Package profiles reads the processing profile catalogue.
package profiles

import (
	"context"

	"github.com/violetear/api/internal/server/models"
)

// Repository is read-only: profiles are reference data managed out of band.
type Repository interface {
	List(ctx context.Context) ([]models.Profile, error)

	// Resolve returns every profile whose machine name is in names or whose
	// id is in ids, ordered by id. A profile matched both ways appears once.
	Resolve(ctx context.Context, names []string, ids []int64) ([]models.Profile, error)
}
