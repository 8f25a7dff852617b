package history

import (
	"context"
	"fmt"

	"github.com/nuanxinpro/wallpaper-studio/internal/dbx"
	"github.com/nuanxinpro/wallpaper-studio/internal/models"
)

// PostgresRepository implements Repository over a Postgres connection.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Append(ctx context.Context, rec *models.HistoryRecord) error {
	query := `INSERT INTO history (id, filename, path, size, status, error_kind, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.Filename, rec.Path, rec.Size, rec.Status, rec.ErrorKind, rec.Message, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, limit int) ([]models.HistoryRecord, error) {
	query := `SELECT id, filename, path, size, status, error_kind, message, created_at
		FROM history ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	defer rows.Close()

	var result []models.HistoryRecord
	for rows.Next() {
		var item models.HistoryRecord
		err := rows.Scan(&item.ID, &item.Filename, &item.Path, &item.Size,
			&item.Status, &item.ErrorKind, &item.Message, &item.CreatedAt)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PostgresRepository) TrimToNewest(ctx context.Context, max int) (int64, error) {
	query := `DELETE FROM history WHERE id NOT IN (
		SELECT id FROM history ORDER BY created_at DESC LIMIT $1)`
	result, err := r.db.ExecContext(ctx, query, max)
	if err != nil {
		return 0, fmt.Errorf("error performing sql request: %w", err)
	}
	return result.RowsAffected()
}

func (r *PostgresRepository) StatsByDay(ctx context.Context, limit int) ([]models.HistoryStat, error) {
	query := `SELECT to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day,
			COUNT(*) FILTER (WHERE status = 'success'),
			COUNT(*) FILTER (WHERE status = 'error')
		FROM history GROUP BY day ORDER BY day DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	defer rows.Close()

	var result []models.HistoryStat
	for rows.Next() {
		var stat models.HistoryStat
		if err := rows.Scan(&stat.Day, &stat.Success, &stat.Errors); err != nil {
			return nil, err
		}
		result = append(result, stat)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PostgresRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM history`)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}
