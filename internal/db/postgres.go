package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Pool is nil when DATABASE_URL is unset or unreachable; subscriptions are
// then disabled.
var Pool *pgxpool.Pool

var (
	newPool  = pgxpool.New
	pingPool = func(ctx context.Context, pool *pgxpool.Pool) error {
		return pool.Ping(ctx)
	}
)

func InitPostgres(ctx context.Context, dsn string) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		log.Info().Msg("DATABASE_URL not set, report subscriptions disabled")
		return
	}

	pool, err := newPool(ctx, dsn)
	if err != nil {
		log.Warn().Err(err).Msg("failed to create Postgres pool, report subscriptions disabled")
		return
	}
	if err := pingPool(ctx, pool); err != nil {
		log.Warn().Err(err).Msg("Postgres unreachable, report subscriptions disabled")
		pool.Close()
		return
	}
	Pool = pool
	log.Info().Msg("Connected to Postgres")
}
