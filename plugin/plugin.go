// Package plugin provides an extensible plugin system for pcetoken.
// Plugins can hook into ledger lifecycle events to extend functionality.
package plugin

import (
	"context"
	"time"

	"github.com/xraph/pcetoken/registry"
	"github.com/xraph/pcetoken/settings"
	"github.com/xraph/pcetoken/token"
	"github.com/xraph/pcetoken/types"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the engine stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Token lifecycle hooks
// ──────────────────────────────────────────────────

// OnTokenCreated is called after a community token is created and persisted.
type OnTokenCreated interface {
	Plugin
	OnTokenCreated(ctx context.Context, entry registry.Entry) error
}

// OnSettingsUpdated is called after the owner replaces a token's settings.
type OnSettingsUpdated interface {
	Plugin
	OnSettingsUpdated(ctx context.Context, tokenAddr types.Address, prev, next settings.TokenSettings) error
}

// ──────────────────────────────────────────────────
// Balance movement hooks
// ──────────────────────────────────────────────────

// TransferEvent describes a completed transfer.
type TransferEvent struct {
	Token  types.Address
	From   types.Address
	To     types.Address
	Amount types.Amount
	Issued types.Amount
	At     time.Time
}

// OnTransfer is called after a transfer is persisted.
type OnTransfer interface {
	Plugin
	OnTransfer(ctx context.Context, ev TransferEvent) error
}

// OnIssuance is called when a transfer mints new supply to the sender.
type OnIssuance interface {
	Plugin
	OnIssuance(ctx context.Context, tokenAddr, holder types.Address, amount types.Amount) error
}

// OnExchange is called after a cross-token exchange is persisted.
type OnExchange interface {
	Plugin
	OnExchange(ctx context.Context, res registry.ExchangeResult) error
}

// ──────────────────────────────────────────────────
// Periodic event hooks
// ──────────────────────────────────────────────────

// OnDecayApplied is called when catch-up applies one or more decay periods.
type OnDecayApplied interface {
	Plugin
	OnDecayApplied(ctx context.Context, tokenAddr types.Address, periods int64, decayed types.Amount) error
}

// OnBonusIssued is called when catch-up applies one or more weekly bonuses.
type OnBonusIssued interface {
	Plugin
	OnBonusIssued(ctx context.Context, tokenAddr types.Address, periods int64, bonus types.Amount) error
}

// ──────────────────────────────────────────────────
// Issuance adjusters
// ──────────────────────────────────────────────────

// IssuanceAdjuster replaces the formula that sizes per-transfer issuance.
// The first registered adjuster wins.
type IssuanceAdjuster interface {
	Plugin
	Adjuster() token.Adjuster
}
