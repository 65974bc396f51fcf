package tasks

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/violetear/api/internal/common"
	"github.com/violetear/api/internal/dbx"
	"github.com/violetear/api/internal/server/models"
	"github.com/violetear/api/internal/server/repositories/pgerr"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, reportID, profileID int64, status string) (int64, error) {
	query := `
		INSERT INTO tasks (report_id, profile_id, status)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	var id int64
	if err := r.db.QueryRowContext(ctx, query, reportID, profileID, status).Scan(&id); err != nil {
		switch {
		case pgerr.IsUniqueViolation(err):
			return 0, common.ErrorConflict
		case pgerr.IsForeignKeyViolation(err):
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) ListForReport(ctx context.Context, reportID int64) ([]models.Task, error) {
	query := `
		SELECT id, report_id, profile_id, created_when, completed_when, status
		FROM tasks
		WHERE report_id = $1
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, reportID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.Task
	for rows.Next() {
		var (
			t         models.Task
			completed sql.NullTime
		)
		if err := rows.Scan(&t.ID, &t.ReportID, &t.ProfileID, &t.CreatedWhen, &completed, &t.Status); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		if completed.Valid {
			c := completed.Time
			t.CompletedWhen = &c
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}
