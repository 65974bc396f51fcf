package profiles

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/violetear/api/internal/dbx"
	"github.com/violetear/api/internal/server/models"
)

var profileColumns = []string{"id", "machine_name", "human_name", "module", "config"}

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

func (r *PostgresRepository) List(ctx context.Context) ([]models.Profile, error) {
	return r.query(ctx, r.sb.Select(profileColumns...).From("profiles").OrderBy("id"))
}

func (r *PostgresRepository) Resolve(ctx context.Context, names []string, ids []int64) ([]models.Profile, error) {
	or := sq.Or{}
	if len(names) > 0 {
		or = append(or, sq.Eq{"machine_name": names})
	}
	if len(ids) > 0 {
		or = append(or, sq.Eq{"id": ids})
	}
	if len(or) == 0 {
		return nil, nil
	}
	return r.query(ctx, r.sb.Select(profileColumns...).From("profiles").Where(or).OrderBy("id"))
}

func (r *PostgresRepository) query(ctx context.Context, b sq.SelectBuilder) ([]models.Profile, error) {
	stmt, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.Profile
	for rows.Next() {
		var (
			p   models.Profile
			cfg []byte
		)
		if err := rows.Scan(&p.ID, &p.MachineName, &p.HumanName, &p.Module, &cfg); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		if len(cfg) > 0 {
			p.Config = cfg
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}
