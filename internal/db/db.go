package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// New sets up a pgx connection pool and pings it before returning.
func New(addr string, maxConns int32, maxIdleTime string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(addr)
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}

	if maxConns > 0 {
		config.MaxConns = maxConns
	}

	if maxIdleTime != "" {
		duration, err := time.ParseDuration(maxIdleTime)
		if err != nil {
			return nil, fmt.Errorf("parse DB_MAX_IDLE_TIME: %w", err)
		}
		config.MaxConnIdleTime = duration
	}

	// Bounds pool start-up including the initial ping.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return pool, nil
}
