// Package store opens the local database and wires up the repositories.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/nuanxinpro/wallpaper-studio/internal/repositories/history"
	"github.com/nuanxinpro/wallpaper-studio/internal/repositories/ledger"
	"github.com/nuanxinpro/wallpaper-studio/internal/repositories/settings"
	"github.com/nuanxinpro/wallpaper-studio/internal/store/migrations"

	_ "modernc.org/sqlite"
)

// Repositories bundles the persistence layer handed to the services.
type Repositories struct {
	Ledger   ledger.Repository
	History  history.Repository
	Settings settings.Repository
	DB       *sql.DB
}

// Close releases the underlying database handle.
func (r *Repositories) Close() error {
	return r.DB.Close()
}

// RunMigrations applies the embedded SQLite migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitSQLite opens (creating if needed) the SQLite database at dsn, runs
// migrations and returns the repository set.
func InitSQLite(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repositories{
		Ledger:   ledger.NewSQLiteRepository(db),
		History:  history.NewSQLiteRepository(db),
		Settings: settings.NewSQLiteRepository(db),
		DB:       db,
	}, nil
}
