// Package postgres implements the tenant directory port against the
// platform's relational store. This service owns no schema; it only reads
// the users table to resolve a user's tenant.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/elevatecrm/realtime/internal/config"
	"github.com/elevatecrm/realtime/internal/domain"
)

// NewPool creates a pgxpool connection pool from a config.Postgres struct.
func NewPool(ctx context.Context, cfg config.Postgres) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return pool, nil
}

// Directory resolves user -> tenant from the users table.
type Directory struct {
	pool *pgxpool.Pool
}

// NewDirectory creates a Directory over the given pool.
func NewDirectory(pool *pgxpool.Pool) *Directory {
	return &Directory{pool: pool}
}

// UserTenant returns the tenant id the user belongs to, or a wrapped
// domain.ErrNotFound for unknown users.
func (d *Directory) UserTenant(ctx context.Context, userID string) (string, error) {
	var tenantID string
	err := d.pool.QueryRow(ctx,
		`SELECT tenant_id FROM users WHERE id = $1`, userID,
	).Scan(&tenantID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("query user tenant: %w", err)
	}
	return tenantID, nil
}
