package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arenignacio/venus-bugtracker/internal/config"
)

// Each collection is one table: identity columns the store must index or
// guard on, plus the document itself as JSONB.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id         uuid PRIMARY KEY,
	email      text NOT NULL,
	username   text NOT NULL,
	password_h text NOT NULL,
	created_at timestamptz NOT NULL DEFAULT now(),
	doc        jsonb NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (lower(email));
CREATE UNIQUE INDEX IF NOT EXISTS users_username_key ON users (lower(username));

CREATE TABLE IF NOT EXISTS projects (
	id  uuid PRIMARY KEY,
	doc jsonb NOT NULL
);

CREATE TABLE IF NOT EXISTS tickets (
	id         uuid PRIMARY KEY,
	version    bigint NOT NULL,
	created_at timestamptz NOT NULL DEFAULT now(),
	doc        jsonb NOT NULL
);
CREATE INDEX IF NOT EXISTS tickets_doc_gin ON tickets USING gin (doc jsonb_path_ops);
`

func Open(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DBURL)
	if err != nil {
		return nil, fmt.Errorf("parse DB_DSN: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return pool, nil
}
