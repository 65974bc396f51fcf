package reports

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/violetear/api/internal/common"
	"github.com/violetear/api/internal/dbx"
	"github.com/violetear/api/internal/server/models"
)

// ownerPredicate expects the report id as $1 and the owner id as $2.
const ownerPredicate = `id = $1 AND user_id = $2`

type PostgresRepository struct {
	db dbx.DBTX
	sb sq.StatementBuilderType
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *PostgresRepository) Create(ctx context.Context, userID int64, multihash string, file []byte) (int64, error) {
	query := `
		INSERT INTO reports (user_id, file_multihash, file)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	var id int64
	if err := r.db.QueryRowContext(ctx, query, userID, multihash, file).Scan(&id); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) ListForUser(ctx context.Context, userID int64) ([]models.Report, error) {
	stmt, args, err := r.sb.
		Select("id", "user_id", "created_when", "file_multihash", "file IS NOT NULL").
		From("reports").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_when DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.Report
	for rows.Next() {
		var rep models.Report
		if err := rows.Scan(&rep.ID, &rep.UserID, &rep.CreatedWhen, &rep.FileMultihash, &rep.HasFile); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		out = append(out, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) GetForUser(ctx context.Context, userID, reportID int64) (*models.Report, error) {
	query := `
		SELECT id, user_id, created_when, file_multihash, file IS NOT NULL
		FROM reports
		WHERE ` + ownerPredicate
	rep := &models.Report{}
	err := r.db.QueryRowContext(ctx, query, reportID, userID).
		Scan(&rep.ID, &rep.UserID, &rep.CreatedWhen, &rep.FileMultihash, &rep.HasFile)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rep, nil
}

func (r *PostgresRepository) CheckOwner(ctx context.Context, userID, reportID int64) error {
	query := `SELECT 1 FROM reports WHERE ` + ownerPredicate
	var one int
	if err := r.db.QueryRowContext(ctx, query, reportID, userID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetFileForUpdate(ctx context.Context, userID, reportID int64) (*models.Report, error) {
	query := `
		SELECT id, user_id, created_when, file_multihash, file
		FROM reports
		WHERE ` + ownerPredicate + `
		FOR UPDATE
	`
	rep := &models.Report{}
	err := r.db.QueryRowContext(ctx, query, reportID, userID).
		Scan(&rep.ID, &rep.UserID, &rep.CreatedWhen, &rep.FileMultihash, &rep.File)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	rep.HasFile = rep.File != nil
	return rep, nil
}

func (r *PostgresRepository) DiscardFile(ctx context.Context, userID, reportID int64) error {
	query := `UPDATE reports SET file = NULL WHERE ` + ownerPredicate
	res, err := r.db.ExecContext(ctx, query, reportID, userID)
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
