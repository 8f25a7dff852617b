package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nuanxinpro/wallpaper-studio/internal/dbx"
	"github.com/nuanxinpro/wallpaper-studio/internal/models"
)

// PostgresRepository implements Repository over a Postgres connection, for
// deployments where several operators share one ledger.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, fingerprint string) (*models.LedgerEntry, error) {
	query := `SELECT fingerprint, filename, path, recorded_at FROM ledger WHERE fingerprint=$1`
	row := r.db.QueryRowContext(ctx, query, fingerprint)

	e := &models.LedgerEntry{}
	err := row.Scan(&e.Fingerprint, &e.Filename, &e.Path, &e.RecordedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	return e, nil
}

func (r *PostgresRepository) Put(ctx context.Context, e *models.LedgerEntry) error {
	query := `INSERT INTO ledger (fingerprint, filename, path, recorded_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (fingerprint) DO UPDATE SET filename = excluded.filename,
			path = excluded.path,
			recorded_at = excluded.recorded_at`
	_, err := r.db.ExecContext(ctx, query, e.Fingerprint, e.Filename, e.Path, e.RecordedAt)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM ledger WHERE recorded_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("error performing sql request: %w", err)
	}
	return result.RowsAffected()
}

func (r *PostgresRepository) TrimToNewest(ctx context.Context, max int) (int64, error) {
	query := `DELETE FROM ledger WHERE fingerprint NOT IN (
			SELECT fingerprint FROM ledger ORDER BY recorded_at DESC LIMIT $1)`
	result, err := r.db.ExecContext(ctx, query, max)
	if err != nil {
		return 0, fmt.Errorf("error performing sql request: %w", err)
	}
	return result.RowsAffected()
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM ledger`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("error performing sql request: %w", err)
	}
	return n, nil
}
