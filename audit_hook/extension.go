// Package audithook bridges pcetoken ledger events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not depend on a
// particular audit system. Callers inject a RecorderFunc adapter at wiring
// time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/pcetoken/id"
	"github.com/xraph/pcetoken/plugin"
	"github.com/xraph/pcetoken/registry"
	"github.com/xraph/pcetoken/settings"
	"github.com/xraph/pcetoken/types"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin            = (*Extension)(nil)
	_ plugin.OnShutdown        = (*Extension)(nil)
	_ plugin.OnTokenCreated    = (*Extension)(nil)
	_ plugin.OnSettingsUpdated = (*Extension)(nil)
	_ plugin.OnTransfer        = (*Extension)(nil)
	_ plugin.OnIssuance        = (*Extension)(nil)
	_ plugin.OnExchange        = (*Extension)(nil)
	_ plugin.OnDecayApplied    = (*Extension)(nil)
	_ plugin.OnBonusIssued     = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	ID         id.AuditID     `json:"id"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
	RecordedAt time.Time      `json:"recorded_at"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges ledger events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// OnShutdown implements plugin.OnShutdown.
func (e *Extension) OnShutdown(ctx context.Context) error {
	return e.record(ctx, ActionEngineStopped, SeverityInfo, OutcomeSuccess,
		ResourceEngine, "", CategorySystem, nil,
	)
}

// ──────────────────────────────────────────────────
// Token lifecycle hooks
// ──────────────────────────────────────────────────

// OnTokenCreated implements plugin.OnTokenCreated.
func (e *Extension) OnTokenCreated(ctx context.Context, entry registry.Entry) error {
	return e.record(ctx, ActionTokenCreated, SeverityInfo, OutcomeSuccess,
		ResourceToken, entry.Address.Hex(), CategoryGovernance, nil,
		"name", entry.Name,
		"symbol", entry.Symbol,
		"creator", entry.Creator.Hex(),
		"exchange_rate", entry.ExchangeRate.String(),
	)
}

// OnSettingsUpdated implements plugin.OnSettingsUpdated.
func (e *Extension) OnSettingsUpdated(ctx context.Context, tokenAddr types.Address, prev, next settings.TokenSettings) error {
	return e.record(ctx, ActionSettingsUpdated, SeverityWarning, OutcomeSuccess,
		ResourceSettings, tokenAddr.Hex(), CategoryGovernance, nil,
		"previous", prev.Tuple(),
		"next", next.Tuple(),
	)
}

// ──────────────────────────────────────────────────
// Balance movement hooks
// ──────────────────────────────────────────────────

// OnTransfer implements plugin.OnTransfer.
func (e *Extension) OnTransfer(ctx context.Context, ev plugin.TransferEvent) error {
	return e.record(ctx, ActionTransfer, SeverityInfo, OutcomeSuccess,
		ResourceBalance, ev.Token.Hex(), CategoryPayment, nil,
		"from", ev.From.Hex(),
		"to", ev.To.Hex(),
		"amount", ev.Amount.String(),
	)
}

// OnIssuance implements plugin.OnIssuance.
func (e *Extension) OnIssuance(ctx context.Context, tokenAddr, holder types.Address, amount types.Amount) error {
	return e.record(ctx, ActionIssuance, SeverityInfo, OutcomeSuccess,
		ResourceSupply, tokenAddr.Hex(), CategoryMonetary, nil,
		"holder", holder.Hex(),
		"amount", amount.String(),
	)
}

// OnExchange implements plugin.OnExchange.
func (e *Extension) OnExchange(ctx context.Context, res registry.ExchangeResult) error {
	return e.record(ctx, ActionExchange, SeverityInfo, OutcomeSuccess,
		ResourceBalance, res.From.Hex(), CategoryPayment, nil,
		"to_token", res.To.Hex(),
		"holder", res.Holder.Hex(),
		"burned", res.Burned.String(),
		"minted", res.Minted.String(),
	)
}

// ──────────────────────────────────────────────────
// Periodic event hooks
// ──────────────────────────────────────────────────

// OnDecayApplied implements plugin.OnDecayApplied.
func (e *Extension) OnDecayApplied(ctx context.Context, tokenAddr types.Address, periods int64, decayed types.Amount) error {
	return e.record(ctx, ActionDecayApplied, SeverityInfo, OutcomeSuccess,
		ResourceSupply, tokenAddr.Hex(), CategoryMonetary, nil,
		"periods", periods,
		"amount", decayed.String(),
	)
}

// OnBonusIssued implements plugin.OnBonusIssued.
func (e *Extension) OnBonusIssued(ctx context.Context, tokenAddr types.Address, periods int64, bonus types.Amount) error {
	return e.record(ctx, ActionBonusIssued, SeverityInfo, OutcomeSuccess,
		ResourceSupply, tokenAddr.Hex(), CategoryMonetary, nil,
		"periods", periods,
		"amount", bonus.String(),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		ID:         id.NewAuditID(),
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
		RecordedAt: time.Now().UTC(),
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
