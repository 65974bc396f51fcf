package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/violetear/api/internal/common"
	"github.com/violetear/api/internal/dbx"
	"github.com/violetear/api/internal/server/models"
	"github.com/violetear/api/internal/server/repositories/pgerr"
)

// PostgresRepository stores tokens over dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new token for userID. A token collision (practically
// impossible with 256 random bits) surfaces as common.ErrorConflict.
func (r *PostgresRepository) Create(ctx context.Context, userID int64, token string) error {
	query := `
		INSERT INTO tokens (user_id, token)
		VALUES ($1, $2)
	`
	if _, err := r.db.ExecContext(ctx, query, userID, token); err != nil {
		if pgerr.IsUniqueViolation(err) {
			return common.ErrorConflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// FindWithUser joins the token to its user in a single round trip.
func (r *PostgresRepository) FindWithUser(ctx context.Context, token string) (*models.Token, *models.User, error) {
	query := `
		SELECT t.id, t.created_when, u.id, u.username, u.hashed_password, u.rank
		FROM tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.token = $1
	`
	tok := &models.Token{Token: token}
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, token).
		Scan(&tok.ID, &tok.CreatedWhen, &user.ID, &user.UserName, &user.HashedPassword, &user.Rank)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, common.ErrorNotFound
		}
		return nil, nil, fmt.Errorf("db error: %w", err)
	}
	tok.UserID = user.ID
	return tok, user, nil
}

// Delete removes a token by its value.
func (r *PostgresRepository) Delete(ctx context.Context, token string) error {
	query := `
		DELETE FROM tokens
		WHERE token = $1
	`
	res, err := r.db.ExecContext(ctx, query, token)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
