package ledger

import (
	"context"
	"time"

	"github.com/nuanxinpro/wallpaper-studio/internal/models"
)

// Repository persists the fingerprint ledger. Implementations are backed by
// a local SQLite database by default; a Postgres implementation exists for
// shared deployments.
type Repository interface {
	// Get returns the entry for a fingerprint, or nil when absent.
	Get(ctx context.Context, fingerprint string) (*models.LedgerEntry, error)

	// Put inserts or refreshes an entry.
	Put(ctx context.Context, entry *models.LedgerEntry) error

	// DeleteOlderThan removes entries recorded before cutoff and returns the
	// number removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// TrimToNewest keeps only the max newest entries by recording time.
	TrimToNewest(ctx context.Context, max int) (int64, error)

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int64, error)
}
