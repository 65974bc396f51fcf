// Package users declares the credential store for user accounts.
package users

import (
	"context"

	"github.com/violetear/api/internal/server/models"
)

type Repository interface {
	// Create inserts user and fills in its ID. A taken username yields common.ErrorConflict.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// GetUserByLogin returns common.ErrorNotFound for unknown usernames.
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
}
