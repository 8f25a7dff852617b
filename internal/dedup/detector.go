package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/nuanxinpro/wallpaper-studio/internal/clockx"
	"github.com/nuanxinpro/wallpaper-studio/internal/logging"
	"github.com/nuanxinpro/wallpaper-studio/internal/models"
	"github.com/nuanxinpro/wallpaper-studio/internal/repositories/ledger"
)

const (
	// DefaultMaxEntries bounds the ledger size; the oldest entries are
	// evicted first.
	DefaultMaxEntries = 1000
	// DefaultTTL is how long a ledger entry blocks re-uploads.
	DefaultTTL = 30 * 24 * time.Hour
)

// Detector answers "has this exact content been uploaded before". Eviction
// (TTL and capacity) runs lazily on every lookup rather than on a timer; the
// detector is consulted synchronously by the single upload orchestrator, so
// there is no concurrent ledger mutator.
type Detector struct {
	repo       ledger.Repository
	clock      clockx.Clock
	log        logging.Logger
	maxEntries int
	ttl        time.Duration
}

// DetectorOption customizes a Detector.
type DetectorOption func(*Detector)

func WithMaxEntries(n int) DetectorOption          { return func(d *Detector) { d.maxEntries = n } }
func WithTTL(ttl time.Duration) DetectorOption     { return func(d *Detector) { d.ttl = ttl } }
func WithClock(clock clockx.Clock) DetectorOption  { return func(d *Detector) { d.clock = clock } }
func WithLogger(log logging.Logger) DetectorOption { return func(d *Detector) { d.log = log } }

// NewDetector returns a Detector over the given ledger repository.
func NewDetector(repo ledger.Repository, opts ...DetectorOption) *Detector {
	d := &Detector{
		repo:       repo,
		clock:      clockx.Real(),
		log:        logging.Nop(),
		maxEntries: DefaultMaxEntries,
		ttl:        DefaultTTL,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// IsDuplicate returns the ledger entry matching fingerprint, or nil when the
// content is unseen or its entry expired. Expired and over-capacity entries
// are purged before the lookup.
func (d *Detector) IsDuplicate(ctx context.Context, fingerprint string) (*models.LedgerEntry, error) {
	if err := d.evict(ctx); err != nil {
		return nil, err
	}

	entry, err := d.repo.Get(ctx, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("ledger lookup: %w", err)
	}
	return entry, nil
}

// Record stores a fingerprint after a successful remote write. Callers must
// not record fingerprints for failed writes; a ledger entry asserts the file
// exists remotely.
func (d *Detector) Record(ctx context.Context, fingerprint, filename, path string) error {
	entry := &models.LedgerEntry{
		Fingerprint: fingerprint,
		Filename:    filename,
		Path:        path,
		RecordedAt:  d.clock.Now(),
	}
	if err := d.repo.Put(ctx, entry); err != nil {
		return fmt.Errorf("ledger record: %w", err)
	}
	return nil
}

func (d *Detector) evict(ctx context.Context) error {
	cutoff := d.clock.Now().Add(-d.ttl)
	expired, err := d.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("ledger ttl purge: %w", err)
	}

	trimmed, err := d.repo.TrimToNewest(ctx, d.maxEntries)
	if err != nil {
		return fmt.Errorf("ledger capacity trim: %w", err)
	}

	if expired > 0 || trimmed > 0 {
		d.log.Debug(ctx, "evicted ledger entries", "expired", expired, "trimmed", trimmed)
	}
	return nil
}
