// Package tokens declares the credential store for opaque session tokens.
package tokens

import (
	"context"

	"github.com/violetear/api/internal/server/models"
)

// Repository defines operations for issuing, resolving and revoking tokens.
type Repository interface {
	// Create stores token for userID.
	Create(ctx context.Context, userID int64, token string) error

	// FindWithUser returns the token row together with its owner.
	// Implementations return common.ErrorNotFound when the token is absent.
	FindWithUser(ctx context.Context, token string) (*models.Token, *models.User, error)

	// Delete removes exactly one token. A missing token yields common.ErrorNotFound.
	Delete(ctx context.Context, token string) error
}
