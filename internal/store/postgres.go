package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/nuanxinpro/wallpaper-studio/internal/repositories/history"
	"github.com/nuanxinpro/wallpaper-studio/internal/repositories/ledger"
	"github.com/nuanxinpro/wallpaper-studio/internal/repositories/settings"
	"github.com/nuanxinpro/wallpaper-studio/internal/store/pgmigrations"
)

// RunPostgresMigrations applies the embedded Postgres migrations.
func RunPostgresMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(pgmigrations.Migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitPostgres connects to the Postgres instance at dsn, runs migrations and
// returns the repository set. Used when several operators share one ledger
// and history.
func InitPostgres(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := RunPostgresMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repositories{
		Ledger:   ledger.NewPostgresRepository(db),
		History:  history.NewPostgresRepository(db),
		Settings: settings.NewPostgresRepository(db),
		DB:       db,
	}, nil
}
