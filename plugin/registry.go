package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/pcetoken/registry"
	"github.com/xraph/pcetoken/settings"
	"github.com/xraph/pcetoken/token"
	"github.com/xraph/pcetoken/types"
)

// DefaultTimeout bounds every hook call.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit            []OnInit
	onShutdown        []OnShutdown
	onTokenCreated    []OnTokenCreated
	onSettingsUpdated []OnSettingsUpdated
	onTransfer        []OnTransfer
	onIssuance        []OnIssuance
	onExchange        []OnExchange
	onDecayApplied    []OnDecayApplied
	onBonusIssued     []OnBonusIssued
	adjusters         []IssuanceAdjuster
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnTokenCreated); ok {
		r.onTokenCreated = append(r.onTokenCreated, v)
	}
	if v, ok := p.(OnSettingsUpdated); ok {
		r.onSettingsUpdated = append(r.onSettingsUpdated, v)
	}
	if v, ok := p.(OnTransfer); ok {
		r.onTransfer = append(r.onTransfer, v)
	}
	if v, ok := p.(OnIssuance); ok {
		r.onIssuance = append(r.onIssuance, v)
	}
	if v, ok := p.(OnExchange); ok {
		r.onExchange = append(r.onExchange, v)
	}
	if v, ok := p.(OnDecayApplied); ok {
		r.onDecayApplied = append(r.onDecayApplied, v)
	}
	if v, ok := p.(OnBonusIssued); ok {
		r.onBonusIssued = append(r.onBonusIssued, v)
	}
	if v, ok := p.(IssuanceAdjuster); ok {
		r.adjusters = append(r.adjusters, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnTokenCreated)(nil)).Elem(), "OnTokenCreated")
	checkInterface(reflect.TypeOf((*OnSettingsUpdated)(nil)).Elem(), "OnSettingsUpdated")
	checkInterface(reflect.TypeOf((*OnTransfer)(nil)).Elem(), "OnTransfer")
	checkInterface(reflect.TypeOf((*OnIssuance)(nil)).Elem(), "OnIssuance")
	checkInterface(reflect.TypeOf((*OnExchange)(nil)).Elem(), "OnExchange")
	checkInterface(reflect.TypeOf((*OnDecayApplied)(nil)).Elem(), "OnDecayApplied")
	checkInterface(reflect.TypeOf((*OnBonusIssued)(nil)).Elem(), "OnBonusIssued")
	checkInterface(reflect.TypeOf((*IssuanceAdjuster)(nil)).Elem(), "IssuanceAdjuster")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// Adjuster returns the issuance adjuster of the first registered
// IssuanceAdjuster plugin, or nil when none is registered.
func (r *Registry) Adjuster() token.Adjuster {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.adjusters) == 0 {
		return nil
	}
	return r.adjusters[0].Adjuster()
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, engine)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitTokenCreated emits a token created event.
func (r *Registry) EmitTokenCreated(ctx context.Context, entry registry.Entry) {
	r.mu.RLock()
	plugins := r.onTokenCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTokenCreated(ctx, entry)
		}); err != nil {
			r.logger.Warn("plugin OnTokenCreated failed",
				"plugin", p.Name(),
				"token", entry.Address.Hex(),
				"error", err,
			)
		}
	}
}

// EmitSettingsUpdated emits a settings updated event.
func (r *Registry) EmitSettingsUpdated(ctx context.Context, tokenAddr types.Address, prev, next settings.TokenSettings) {
	r.mu.RLock()
	plugins := r.onSettingsUpdated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnSettingsUpdated(ctx, tokenAddr, prev, next)
		}); err != nil {
			r.logger.Warn("plugin OnSettingsUpdated failed",
				"plugin", p.Name(),
				"token", tokenAddr.Hex(),
				"error", err,
			)
		}
	}
}

// EmitTransfer emits a transfer event.
func (r *Registry) EmitTransfer(ctx context.Context, ev TransferEvent) {
	r.mu.RLock()
	plugins := r.onTransfer
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTransfer(ctx, ev)
		}); err != nil {
			r.logger.Warn("plugin OnTransfer failed",
				"plugin", p.Name(),
				"token", ev.Token.Hex(),
				"error", err,
			)
		}
	}
}

// EmitIssuance emits an issuance event.
func (r *Registry) EmitIssuance(ctx context.Context, tokenAddr, holder types.Address, amount types.Amount) {
	r.mu.RLock()
	plugins := r.onIssuance
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnIssuance(ctx, tokenAddr, holder, amount)
		}); err != nil {
			r.logger.Warn("plugin OnIssuance failed",
				"plugin", p.Name(),
				"token", tokenAddr.Hex(),
				"error", err,
			)
		}
	}
}

// EmitExchange emits an exchange event.
func (r *Registry) EmitExchange(ctx context.Context, res registry.ExchangeResult) {
	r.mu.RLock()
	plugins := r.onExchange
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnExchange(ctx, res)
		}); err != nil {
			r.logger.Warn("plugin OnExchange failed",
				"plugin", p.Name(),
				"from", res.From.Hex(),
				"to", res.To.Hex(),
				"error", err,
			)
		}
	}
}

// EmitDecayApplied emits a decay event.
func (r *Registry) EmitDecayApplied(ctx context.Context, tokenAddr types.Address, periods int64, decayed types.Amount) {
	r.mu.RLock()
	plugins := r.onDecayApplied
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnDecayApplied(ctx, tokenAddr, periods, decayed)
		}); err != nil {
			r.logger.Warn("plugin OnDecayApplied failed",
				"plugin", p.Name(),
				"token", tokenAddr.Hex(),
				"error", err,
			)
		}
	}
}

// EmitBonusIssued emits a weekly bonus event.
func (r *Registry) EmitBonusIssued(ctx context.Context, tokenAddr types.Address, periods int64, bonus types.Amount) {
	r.mu.RLock()
	plugins := r.onBonusIssued
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnBonusIssued(ctx, tokenAddr, periods, bonus)
		}); err != nil {
			r.logger.Warn("plugin OnBonusIssued failed",
				"plugin", p.Name(),
				"token", tokenAddr.Hex(),
				"error", err,
			)
		}
	}
}

// EmitEffects emits the periodic and issuance events recorded in fx.
func (r *Registry) EmitEffects(ctx context.Context, tokenAddr, sender types.Address, fx token.Effects) {
	if fx.DecayPeriods > 0 {
		r.EmitDecayApplied(ctx, tokenAddr, fx.DecayPeriods, fx.Decayed)
	}
	if fx.BonusPeriods > 0 {
		r.EmitBonusIssued(ctx, tokenAddr, fx.BonusPeriods, fx.Bonus)
	}
	if !fx.Issued.IsNil() && fx.Issued.IsPositive() {
		r.EmitIssuance(ctx, tokenAddr, sender, fx.Issued)
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the ledger pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(r.timeout):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
