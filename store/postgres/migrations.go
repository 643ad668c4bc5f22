package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the pcetoken store.
var Migrations = migrate.NewGroup("pcetoken")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_pcetoken_tokens",
			Version: "20290601000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS pcetoken_tokens (
    address       TEXT PRIMARY KEY,
    name          TEXT NOT NULL,
    symbol        TEXT NOT NULL,
    creator       TEXT NOT NULL,
    exchange_rate TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_pcetoken_tokens_creator ON pcetoken_tokens (creator);
CREATE INDEX IF NOT EXISTS idx_pcetoken_tokens_created ON pcetoken_tokens (created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS pcetoken_tokens`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_pcetoken_token_states",
			Version: "20290601000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS pcetoken_token_states (
    address               TEXT PRIMARY KEY REFERENCES pcetoken_tokens (address),
    name                  TEXT NOT NULL,
    symbol                TEXT NOT NULL,
    owner                 TEXT NOT NULL,
    total_supply          TEXT NOT NULL DEFAULT '0',
    balances              JSONB NOT NULL DEFAULT '{}',
    settings              JSONB NOT NULL,
    last_decay_boundary   BIGINT NOT NULL DEFAULT 0,
    last_bonus_boundary   BIGINT NOT NULL DEFAULT 0,
    midnight_total_supply TEXT NOT NULL DEFAULT '0',
    midnight_modified_at  BIGINT NOT NULL DEFAULT 0,
    minted_today          TEXT NOT NULL DEFAULT '0',
    created_at            TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at            TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS pcetoken_token_states`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_pcetoken_journal",
			Version: "20290601000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS pcetoken_journal (
    id           TEXT PRIMARY KEY,
    token        TEXT NOT NULL,
    kind         TEXT NOT NULL,
    from_address TEXT NOT NULL DEFAULT '',
    to_address   TEXT NOT NULL DEFAULT '',
    amount       TEXT NOT NULL DEFAULT '0',
    periods      BIGINT NOT NULL DEFAULT 0,
    at           TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_pcetoken_journal_token_at ON pcetoken_journal (token, at);
CREATE INDEX IF NOT EXISTS idx_pcetoken_journal_kind ON pcetoken_journal (token, kind);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS pcetoken_journal`)
				return err
			},
		},
	)
}
