package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the pcetoken store (SQLite).
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
    created_at    TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_pcetoken_tokens_creator ON pcetoken_tokens (creator);
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
    address               TEXT PRIMARY KEY,
    name                  TEXT NOT NULL,
    symbol                TEXT NOT NULL,
    owner                 TEXT NOT NULL,
    total_supply          TEXT NOT NULL DEFAULT '0',
    balances              TEXT NOT NULL DEFAULT '{}',
    settings              TEXT NOT NULL,
    last_decay_boundary   INTEGER NOT NULL DEFAULT 0,
    last_bonus_boundary   INTEGER NOT NULL DEFAULT 0,
    midnight_total_supply TEXT NOT NULL DEFAULT '0',
    midnight_modified_at  INTEGER NOT NULL DEFAULT 0,
    minted_today          TEXT NOT NULL DEFAULT '0',
    created_at            TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at            TEXT NOT NULL DEFAULT (datetime('now'))
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
    periods      INTEGER NOT NULL DEFAULT 0,
    at           TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_pcetoken_journal_token_at ON pcetoken_journal (token, at);
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
