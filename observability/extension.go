// Package observability provides a metrics extension for pcetoken that
// records ledger event counts via a MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/pcetoken/plugin"
	"github.com/xraph/pcetoken/registry"
	"github.com/xraph/pcetoken/settings"
	"github.com/xraph/pcetoken/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin            = (*MetricsExtension)(nil)
	_ plugin.OnInit            = (*MetricsExtension)(nil)
	_ plugin.OnTokenCreated    = (*MetricsExtension)(nil)
	_ plugin.OnSettingsUpdated = (*MetricsExtension)(nil)
	_ plugin.OnTransfer        = (*MetricsExtension)(nil)
	_ plugin.OnIssuance        = (*MetricsExtension)(nil)
	_ plugin.OnExchange        = (*MetricsExtension)(nil)
	_ plugin.OnDecayApplied    = (*MetricsExtension)(nil)
	_ plugin.OnBonusIssued     = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide ledger metrics.
// Register it as a pcetoken plugin to track token activity.
type MetricsExtension struct {
	factory MetricFactory

	// Token metrics
	TokenCreated    Counter
	SettingsUpdated Counter

	// Transfer metrics
	Transfers      Counter
	TransferAmount Histogram
	Issuances      Counter
	IssuedAmount   Histogram

	// Exchange metrics
	Exchanges      Counter
	ExchangeBurned Histogram
	ExchangeMinted Histogram

	// Periodic event metrics
	DecayPeriods Counter
	DecayAmount  Histogram
	BonusPeriods Counter
	BonusAmount  Histogram
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		TokenCreated:    factory.Counter("pcetoken.token.created"),
		SettingsUpdated: factory.Counter("pcetoken.token.settings_updated"),

		Transfers:      factory.Counter("pcetoken.transfer.count"),
		TransferAmount: factory.Histogram("pcetoken.transfer.amount"),
		Issuances:      factory.Counter("pcetoken.issuance.count"),
		IssuedAmount:   factory.Histogram("pcetoken.issuance.amount"),

		Exchanges:      factory.Counter("pcetoken.exchange.count"),
		ExchangeBurned: factory.Histogram("pcetoken.exchange.burned"),
		ExchangeMinted: factory.Histogram("pcetoken.exchange.minted"),

		DecayPeriods: factory.Counter("pcetoken.decay.periods"),
		DecayAmount:  factory.Histogram("pcetoken.decay.amount"),
		BonusPeriods: factory.Counter("pcetoken.bonus.periods"),
		BonusAmount:  factory.Histogram("pcetoken.bonus.amount"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	return nil
}

// ──────────────────────────────────────────────────
// Token lifecycle hooks
// ──────────────────────────────────────────────────

// OnTokenCreated implements plugin.OnTokenCreated.
func (m *MetricsExtension) OnTokenCreated(_ context.Context, _ registry.Entry) error {
	m.TokenCreated.Inc()
	return nil
}

// OnSettingsUpdated implements plugin.OnSettingsUpdated.
func (m *MetricsExtension) OnSettingsUpdated(_ context.Context, _ types.Address, _, _ settings.TokenSettings) error {
	m.SettingsUpdated.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Balance movement hooks
// ──────────────────────────────────────────────────

// OnTransfer implements plugin.OnTransfer.
func (m *MetricsExtension) OnTransfer(_ context.Context, ev plugin.TransferEvent) error {
	m.Transfers.Inc()
	m.TransferAmount.Observe(types.Float64(ev.Amount))
	return nil
}

// OnIssuance implements plugin.OnIssuance.
func (m *MetricsExtension) OnIssuance(_ context.Context, _, _ types.Address, amount types.Amount) error {
	m.Issuances.Inc()
	m.IssuedAmount.Observe(types.Float64(amount))
	return nil
}

// OnExchange implements plugin.OnExchange.
func (m *MetricsExtension) OnExchange(_ context.Context, res registry.ExchangeResult) error {
	m.Exchanges.Inc()
	m.ExchangeBurned.Observe(types.Float64(res.Burned))
	m.ExchangeMinted.Observe(types.Float64(res.Minted))
	return nil
}

// ──────────────────────────────────────────────────
// Periodic event hooks
// ──────────────────────────────────────────────────

// OnDecayApplied implements plugin.OnDecayApplied.
func (m *MetricsExtension) OnDecayApplied(_ context.Context, _ types.Address, periods int64, decayed types.Amount) error {
	m.DecayPeriods.Add(float64(periods))
	m.DecayAmount.Observe(types.Float64(decayed))
	return nil
}

// OnBonusIssued implements plugin.OnBonusIssued.
func (m *MetricsExtension) OnBonusIssued(_ context.Context, _ types.Address, periods int64, bonus types.Amount) error {
	m.BonusPeriods.Add(float64(periods))
	m.BonusAmount.Observe(types.Float64(bonus))
	return nil
}
