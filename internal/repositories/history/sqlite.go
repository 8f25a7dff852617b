package history

import (
	"context"
	"fmt"
	"time"

	"github.com/nuanxinpro/wallpaper-studio/internal/dbx"
	"github.com/nuanxinpro/wallpaper-studio/internal/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Append(ctx context.Context, rec *models.HistoryRecord) error {
	query := `INSERT INTO history (id, filename, path, size, status, error_kind, message, created_at)
			values (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.Filename, rec.Path, rec.Size, rec.Status, rec.ErrorKind, rec.Message, rec.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert history record: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context, limit int) ([]models.HistoryRecord, error) {
	query := `select id, filename, path, size, status, error_kind, message, created_at
			from history order by created_at desc, rowid desc`
	args := []any{}
	if limit > 0 {
		query += ` limit ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select history: %w", err)
	}
	defer rows.Close()

	var result []models.HistoryRecord
	for rows.Next() {
		var item models.HistoryRecord
		var createdAt int64
		err := rows.Scan(&item.ID, &item.Filename, &item.Path, &item.Size,
			&item.Status, &item.ErrorKind, &item.Message, &createdAt)
		if err != nil {
			return nil, err
		}
		item.CreatedAt = time.Unix(createdAt, 0).UTC()
		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *SQLiteRepository) TrimToNewest(ctx context.Context, max int) (int64, error) {
	query := `delete from history where rowid not in (
			select rowid from history order by created_at desc, rowid desc limit ?)`
	result, err := r.db.ExecContext(ctx, query, max)
	if err != nil {
		return 0, fmt.Errorf("failed to trim history: %w", err)
	}
	return result.RowsAffected()
}

func (r *SQLiteRepository) StatsByDay(ctx context.Context, limit int) ([]models.HistoryStat, error) {
	query := `select strftime('%Y-%m-%d', created_at, 'unixepoch') as day,
				sum(case when status = 'success' then 1 else 0 end),
				sum(case when status = 'error' then 1 else 0 end)
			from history group by day order by day desc`
	args := []any{}
	if limit > 0 {
		query += ` limit ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate history: %w", err)
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

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `delete from history`)
	if err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}
