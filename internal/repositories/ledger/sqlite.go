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

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, fingerprint string) (*models.LedgerEntry, error) {
	query := `select fingerprint, filename, path, recorded_at from ledger where fingerprint=?`
	row := r.db.QueryRowContext(ctx, query, fingerprint)

	e := &models.LedgerEntry{}
	var recordedAt int64
	err := row.Scan(&e.Fingerprint, &e.Filename, &e.Path, &recordedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select ledger entry: %w", err)
	}
	e.RecordedAt = time.Unix(recordedAt, 0).UTC()
	return e, nil
}

func (r *SQLiteRepository) Put(ctx context.Context, e *models.LedgerEntry) error {
	query := `INSERT INTO ledger (fingerprint, filename, path, recorded_at)
			values (?, ?, ?, ?)
			ON CONFLICT(fingerprint) DO UPDATE SET filename = excluded.filename,
				path = excluded.path,
				recorded_at = excluded.recorded_at
	`
	_, err := r.db.ExecContext(ctx, query, e.Fingerprint, e.Filename, e.Path, e.RecordedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert ledger entry: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `delete from ledger where recorded_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired ledger entries: %w", err)
	}
	return result.RowsAffected()
}

func (r *SQLiteRepository) TrimToNewest(ctx context.Context, max int) (int64, error) {
	query := `delete from ledger where fingerprint not in (
			select fingerprint from ledger order by recorded_at desc limit ?)`
	result, err := r.db.ExecContext(ctx, query, max)
	if err != nil {
		return 0, fmt.Errorf("failed to trim ledger: %w", err)
	}
	return result.RowsAffected()
}

func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `select count(*) from ledger`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}
	return n, nil
}
