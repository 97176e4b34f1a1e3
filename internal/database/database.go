// Package database wires the connection pool from application configuration
// and brings the schema up to date at startup.
package database

import (
	"context"
	"fmt"
	"time"

	"storefront/db"
	"storefront/internal/config"
	"storefront/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Connect creates a PostgreSQL connection pool from the application
// configuration and applies the embedded schema. The schema uses
// CREATE TABLE IF NOT EXISTS throughout, so applying it on every start
// is safe.
func Connect(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*pgxpool.Pool, error) {
	poolConfig := &repository.DBConfig{
		MaxOpenConns:    int32(cfg.MaxConnections),
		MaxIdleConns:    int32(cfg.MinConnections),
		ConnMaxLifetime: time.Duration(cfg.MaxConnLifetime) * time.Second,
		ConnMaxIdleTime: 30 * time.Minute,
	}

	logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Int("max_connections", cfg.MaxConnections).
		Int("min_connections", cfg.MinConnections).
		Msg("creating database connection pool")

	pool, err := repository.NewPool(ctx, cfg.ConnectionString(), poolConfig)
	if err != nil {
		return nil, err
	}

	if _, err := pool.Exec(ctx, db.Schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	logger.Info().Msg("database connection pool created and schema applied")

	return pool, nil
}
