package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/neexbeast/city-explorer/internal/api"
	"github.com/neexbeast/city-explorer/internal/config"
	"github.com/neexbeast/city-explorer/internal/resolver"
	"github.com/neexbeast/city-explorer/internal/storage"
	"github.com/neexbeast/city-explorer/migrations"
)

// store is what serve needs from either backend.
type store interface {
	resolver.Store
	api.Pinger
	Close() error
}

// pgxStore adds the pool's ping and close to the PostgreSQL repository.
type pgxStore struct {
	*storage.Repository
	pool *pgxpool.Pool
}

func (s *pgxStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *pgxStore) Close() error {
	s.pool.Close()
	return nil
}

// openStore connects the backend named by db and applies its migrations.
func openStore(ctx context.Context, db config.Database, log *slog.Logger) (store, error) {
	if db.IsSQLite() {
		s, err := storage.OpenSQLite(ctx, db.SQLiteDSN())
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		log.Info("migrations applied", "store", "sqlite")
		return s, nil
	}

	pool, err := storage.Connect(ctx, db.URL, db.MaxConns)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := storage.RunMigrations(ctx, pool, migrations.Postgres()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	log.Info("migrations applied", "store", "postgres")

	return &pgxStore{Repository: storage.NewRepository(pool), pool: pool}, nil
}

func migrateOnly(ctx context.Context, log *slog.Logger) error {
	db, err := config.LoadDatabase()
	if err != nil {
		return err
	}

	s, err := openStore(ctx, db, log)
	if err != nil {
		return err
	}
	return s.Close()
}
