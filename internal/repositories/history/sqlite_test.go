package history

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuanxinpro/wallpaper-studio/internal/models"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE history (
  id TEXT PRIMARY KEY,
  filename TEXT NOT NULL,
  path TEXT NOT NULL,
  size INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL,
  error_kind TEXT NOT NULL DEFAULT '',
  message TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL
);
`)
	require.NoError(t, err)

	return db
}

func appendN(t *testing.T, r *SQLiteRepository, n int, base time.Time) {
	t.Helper()
	for i := 0; i < n; i++ {
		rec := &models.HistoryRecord{
			ID:        fmt.Sprintf("id%03d", i),
			Filename:  fmt.Sprintf("f%d.jpg", i),
			Path:      fmt.Sprintf("images/s/f%d.jpg", i),
			Size:      int64(1000 + i),
			Status:    models.HistorySuccess,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, r.Append(context.Background(), rec))
	}
}

func TestAppendAndList(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	created := time.Date(2026, 8, 15, 9, 30, 0, 0, time.UTC)
	rec := &models.HistoryRecord{
		ID:        "rec1",
		Filename:  "sunset.jpg",
		Path:      "images/desktop/风景/sunset.jpg",
		Size:      2 << 20,
		Status:    models.HistoryError,
		ErrorKind: "rate_limited",
		Message:   "API quota exhausted",
		CreatedAt: created,
	}
	require.NoError(t, r.Append(ctx, rec))

	list, err := r.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "rec1", list[0].ID)
	assert.Equal(t, "rate_limited", list[0].ErrorKind)
	assert.True(t, list[0].CreatedAt.Equal(created))
}

func TestList_NewestFirstWithLimit(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	appendN(t, r, 5, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))

	list, err := r.List(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "id004", list[0].ID)
	assert.Equal(t, "id003", list[1].ID)
}

func TestTrimToNewest(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	appendN(t, r, 8, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))

	removed, err := r.TrimToNewest(context.Background(), 5)
	require.NoError(t, err)
	assert.EqualValues(t, 3, removed)

	list, err := r.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, list, 5)
	assert.Equal(t, "id007", list[0].ID)
	assert.Equal(t, "id003", list[4].ID)
}

func TestStatsByDay(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	day1 := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC)
	for i, rec := range []*models.HistoryRecord{
		{Status: models.HistorySuccess, CreatedAt: day1},
		{Status: models.HistorySuccess, CreatedAt: day1.Add(time.Hour)},
		{Status: models.HistoryError, CreatedAt: day1.Add(2 * time.Hour)},
		{Status: models.HistorySuccess, CreatedAt: day2},
	} {
		rec.ID = fmt.Sprintf("s%d", i)
		rec.Filename = "f.jpg"
		rec.Path = "images/s/f.jpg"
		require.NoError(t, r.Append(ctx, rec))
	}

	stats, err := r.StatsByDay(ctx, 0)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, models.HistoryStat{Day: "2026-08-02", Success: 1, Errors: 0}, stats[0])
	assert.Equal(t, models.HistoryStat{Day: "2026-08-01", Success: 2, Errors: 1}, stats[1])

	stats, err = r.StatsByDay(ctx, 1)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "2026-08-02", stats[0].Day)
}

func TestClear(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	appendN(t, r, 3, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))

	require.NoError(t, r.Clear(context.Background()))

	list, err := r.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}
