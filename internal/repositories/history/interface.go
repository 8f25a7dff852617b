package history

import (
	"context"

	"github.com/nuanxinpro/wallpaper-studio/internal/models"
)

// Repository persists upload outcome records.
type Repository interface {
	// Append stores one record.
	Append(ctx context.Context, rec *models.HistoryRecord) error

	// List returns up to limit records, newest first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]models.HistoryRecord, error)

	// TrimToNewest keeps only the max newest records and returns how many
	// were removed.
	TrimToNewest(ctx context.Context, max int) (int64, error)

	// StatsByDay aggregates outcomes per UTC day, newest first, up to limit
	// days. limit <= 0 means all.
	StatsByDay(ctx context.Context, limit int) ([]models.HistoryStat, error)

	// Clear removes every record.
	Clear(ctx context.Context) error
}
