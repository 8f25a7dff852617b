package dedup

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuanxinpro/wallpaper-studio/internal/clockx"
	"github.com/nuanxinpro/wallpaper-studio/internal/repositories/ledger"

	_ "modernc.org/sqlite"
)

func TestFingerprint_Deterministic(t *testing.T) {
	a := Fingerprint([]byte("wallpaper bytes"))
	b := Fingerprint([]byte("wallpaper bytes"))
	c := Fingerprint([]byte("wallpaper bytes."))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func setupDetector(t *testing.T, opts ...DetectorOption) (*Detector, *clockx.Fake) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE ledger (
  fingerprint TEXT PRIMARY KEY,
  filename TEXT NOT NULL,
  path TEXT NOT NULL,
  recorded_at INTEGER NOT NULL
);
`)
	require.NoError(t, err)

	clock := clockx.NewFake(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
	opts = append([]DetectorOption{WithClock(clock)}, opts...)
	return NewDetector(ledger.NewSQLiteRepository(db), opts...), clock
}

func TestDetector_RecordThenLookup(t *testing.T) {
	d, _ := setupDetector(t)
	ctx := context.Background()

	fp := Fingerprint([]byte("img"))

	entry, err := d.IsDuplicate(ctx, fp)
	require.NoError(t, err)
	assert.Nil(t, entry)

	require.NoError(t, d.Record(ctx, fp, "img.jpg", "images/desktop/风景/img.jpg"))

	entry, err = d.IsDuplicate(ctx, fp)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "images/desktop/风景/img.jpg", entry.Path)
}

func TestDetector_EntryExpiresAfterTTL(t *testing.T) {
	d, clock := setupDetector(t, WithTTL(24*time.Hour))
	ctx := context.Background()

	fp := Fingerprint([]byte("img"))
	require.NoError(t, d.Record(ctx, fp, "img.jpg", "p/img.jpg"))

	clock.Advance(23 * time.Hour)
	entry, err := d.IsDuplicate(ctx, fp)
	require.NoError(t, err)
	assert.NotNil(t, entry, "still within the TTL")

	clock.Advance(2 * time.Hour)
	entry, err = d.IsDuplicate(ctx, fp)
	require.NoError(t, err)
	assert.Nil(t, entry, "expired entries no longer block uploads")
}

func TestDetector_CapacityEvictsOldestFirst(t *testing.T) {
	d, clock := setupDetector(t, WithMaxEntries(3))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		fp := Fingerprint([]byte(fmt.Sprintf("img%d", i)))
		require.NoError(t, d.Record(ctx, fp, fmt.Sprintf("f%d.jpg", i), fmt.Sprintf("p/f%d.jpg", i)))
		clock.Advance(time.Minute)
	}

	// Oldest two are gone after the next lookup triggers eviction.
	entry, err := d.IsDuplicate(ctx, Fingerprint([]byte("img0")))
	require.NoError(t, err)
	assert.Nil(t, entry)

	entry, err = d.IsDuplicate(ctx, Fingerprint([]byte("img1")))
	require.NoError(t, err)
	assert.Nil(t, entry)

	for i := 2; i < 5; i++ {
		entry, err := d.IsDuplicate(ctx, Fingerprint([]byte(fmt.Sprintf("img%d", i))))
		require.NoError(t, err)
		assert.NotNil(t, entry, "img%d should survive the trim", i)
	}
}

func TestDetector_ReRecordRefreshesEntry(t *testing.T) {
	d, clock := setupDetector(t, WithTTL(24*time.Hour))
	ctx := context.Background()

	fp := Fingerprint([]byte("img"))
	require.NoError(t, d.Record(ctx, fp, "a.jpg", "p/a.jpg"))

	clock.Advance(20 * time.Hour)
	require.NoError(t, d.Record(ctx, fp, "a.jpg", "p/a.jpg"))

	// 20h + 10h exceeds the original recording's TTL but not the refresh.
	clock.Advance(10 * time.Hour)
	entry, err := d.IsDuplicate(ctx, fp)
	require.NoError(t, err)
	assert.NotNil(t, entry)
}
