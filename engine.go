package pcetoken

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/xraph/pcetoken/basetoken"
	"github.com/xraph/pcetoken/journal"
	"github.com/xraph/pcetoken/plugin"
	"github.com/xraph/pcetoken/registry"
	"github.com/xraph/pcetoken/settings"
	"github.com/xraph/pcetoken/store"
	"github.com/xraph/pcetoken/token"
	"github.com/xraph/pcetoken/types"
)

// DefaultRegistryAddress seeds ledger address derivation when no registry
// address is configured.
var DefaultRegistryAddress = common.BytesToAddress(crypto.Keccak256([]byte("pcetoken/registry"))[12:])

// Engine is the community-token service. It owns the registry of ledgers,
// persists every mutation and dispatches plugin events.
type Engine struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger
	now     func() time.Time

	registryAddr types.Address
	adjuster     token.Adjuster
	base         *basetoken.Token
	autoMigrate  bool

	// mu serializes mutations so a failed persist can be rolled back
	// without interleaving writers.
	mu sync.Mutex

	regMu   sync.RWMutex
	reg     *registry.Registry
	started bool
}

// New creates a new Engine.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:        s,
		plugins:      plugin.NewRegistry(),
		logger:       slog.Default(),
		now:          time.Now,
		registryAddr: DefaultRegistryAddress,
		autoMigrate:  true,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.reg = e.newRegistry()
	return e
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithClock sets the time source passed to every ledger call.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithAdjuster sets the transfer issuance rule. It takes precedence over
// IssuanceAdjuster plugins.
func WithAdjuster(a token.Adjuster) Option {
	return func(e *Engine) {
		e.adjuster = a
	}
}

// WithBaseToken attaches the bridging token that creators deposit into the
// registry reserve.
func WithBaseToken(t *basetoken.Token) Option {
	return func(e *Engine) {
		e.base = t
	}
}

// WithRegistryAddress sets the registry address.
func WithRegistryAddress(addr types.Address) Option {
	return func(e *Engine) {
		e.registryAddr = addr
	}
}

// WithAutoMigrate controls whether Start migrates the store. It is on by
// default.
func WithAutoMigrate(enabled bool) Option {
	return func(e *Engine) {
		e.autoMigrate = enabled
	}
}

// WithPluginTimeout bounds each plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.plugins.WithTimeout(d)
	}
}

func (e *Engine) newRegistry() *registry.Registry {
	adj := e.adjuster
	if adj == nil {
		adj = e.plugins.Adjuster()
	}
	opts := []registry.Option{registry.WithAdjuster(adj)}
	if e.base != nil {
		opts = append(opts, registry.WithReserve(e.base))
	}
	return registry.New(e.registryAddr, opts...)
}

// Start migrates the store and loads every persisted ledger.
// Mutations and queries return ErrNotStarted until it succeeds.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return nil
	}
	if e.autoMigrate {
		if err := e.store.Migrate(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrMigrationFailed, err)
		}
	}
	reg, err := e.restore(ctx)
	if err != nil {
		return err
	}
	e.regMu.Lock()
	e.reg = reg
	e.started = true
	e.regMu.Unlock()

	e.plugins.EmitInit(ctx, e)

	e.logger.Info("pcetoken engine started",
		"registry", e.registryAddr.Hex(),
		"tokens", len(reg.Entries()),
		"plugins", e.plugins.Count(),
	)
	return nil
}

func (e *Engine) restore(ctx context.Context) (*registry.Registry, error) {
	entries, err := e.store.ListTokenEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list token entries: %w", err)
	}
	states, err := e.store.ListTokenStates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list token states: %w", err)
	}
	byAddr := make(map[types.Address]*token.State, len(states))
	for _, st := range states {
		byAddr[st.Address] = st
	}

	reg := e.newRegistry()
	var errs MultiError
	for _, entry := range entries {
		st, ok := byAddr[entry.Address]
		if !ok {
			errs.Add(fmt.Errorf("%w: token %s has no state", ErrCorruptState, entry.Address.Hex()))
			continue
		}
		if err := reg.Restore(*entry, *st); err != nil {
			errs.Add(fmt.Errorf("%w: %w", ErrCorruptState, err))
		}
	}
	if errs.HasErrors() {
		return nil, errs
	}
	return reg, nil
}

// Stop emits shutdown to plugins and closes the store.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.plugins.EmitShutdown(ctx)

	e.regMu.Lock()
	e.started = false
	e.regMu.Unlock()

	return e.store.Close()
}

// Plugins returns the plugin registry.
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Registry returns the in-memory registry of ledgers.
func (e *Engine) Registry() *registry.Registry {
	e.regMu.RLock()
	defer e.regMu.RUnlock()
	return e.reg
}

// BaseToken returns the attached bridging token, or nil.
func (e *Engine) BaseToken() *basetoken.Token { return e.base }

// ──────────────────────────────────────────────────
// Token creation
// ──────────────────────────────────────────────────

// CreateToken deploys a new community token owned by creator.
func (e *Engine) CreateToken(ctx context.Context, creator types.Address, p registry.CreateParams) (types.Address, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	reg, err := e.registry()
	if err != nil {
		return types.ZeroAddress, err
	}

	now := e.now()
	addr, err := reg.CreateToken(creator, p, now)
	if err != nil {
		return types.ZeroAddress, err
	}
	entry, err := reg.Entry(addr)
	if err != nil {
		return types.ZeroAddress, err
	}
	l, err := reg.Get(addr)
	if err != nil {
		return types.ZeroAddress, err
	}
	st := l.Snapshot()

	created := journal.New(addr, journal.KindCreate, now)
	created.To = creator
	created.Amount = st.TotalSupply

	persistErr := e.store.CreateTokenEntry(ctx, &entry)
	if persistErr == nil {
		persistErr = e.store.SaveTokenState(ctx, &st)
	}
	if persistErr == nil {
		persistErr = e.store.AppendJournal(ctx, []*journal.Entry{created})
	}
	if persistErr != nil {
		e.logger.Error("failed to persist token creation",
			"token", addr.Hex(),
			"error", persistErr,
		)
		if err := reg.Discard(addr); err != nil {
			e.logger.Error("failed to discard unpersisted token",
				"token", addr.Hex(),
				"error", err,
			)
		}
		return types.ZeroAddress, persistErr
	}

	e.logger.Info("token created",
		"token", addr.Hex(),
		"name", entry.Name,
		"symbol", entry.Symbol,
		"creator", creator.Hex(),
		"supply", types.FormatUnits(st.TotalSupply),
	)

	e.plugins.EmitTokenCreated(ctx, entry)
	return addr, nil
}

// ──────────────────────────────────────────────────
// Ledger mutations
// ──────────────────────────────────────────────────

// Transfer moves amount of tokenAddr from one holder to another.
func (e *Engine) Transfer(ctx context.Context, tokenAddr, from, to types.Address, amount types.Amount) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	l, err := e.ledger(tokenAddr)
	if err != nil {
		return err
	}

	now := e.now()
	before := l.Snapshot()
	fx, err := l.Transfer(from, to, amount, now)
	if err != nil {
		return err
	}

	entries := effectEntries(tokenAddr, from, fx, now)
	moved := journal.New(tokenAddr, journal.KindTransfer, now)
	moved.From = from
	moved.To = to
	moved.Amount = amount
	entries = append(entries, moved)
	if fx.Issued.IsPositive() {
		issued := journal.New(tokenAddr, journal.KindIssuance, now)
		issued.To = from
		issued.Amount = fx.Issued
		entries = append(entries, issued)
	}

	if err := e.commit(ctx, entries, ledgerChange{l, before}); err != nil {
		return err
	}

	e.logEffects(tokenAddr, fx)
	e.plugins.EmitEffects(ctx, tokenAddr, from, fx)
	e.plugins.EmitTransfer(ctx, plugin.TransferEvent{
		Token:  tokenAddr,
		From:   from,
		To:     to,
		Amount: amount,
		Issued: fx.Issued,
		At:     now,
	})
	return nil
}

// UpdateSettings replaces the settings of tokenAddr. Only the token owner
// may call it.
func (e *Engine) UpdateSettings(ctx context.Context, tokenAddr, caller types.Address, next settings.TokenSettings) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	l, err := e.ledger(tokenAddr)
	if err != nil {
		return err
	}

	now := e.now()
	before := l.Snapshot()
	fx, err := l.UpdateSettings(caller, next, now)
	if err != nil {
		return err
	}

	entries := effectEntries(tokenAddr, caller, fx, now)
	changed := journal.New(tokenAddr, journal.KindSettings, now)
	changed.From = caller
	entries = append(entries, changed)

	if err := e.commit(ctx, entries, ledgerChange{l, before}); err != nil {
		return err
	}

	e.logger.Info("token settings updated",
		"token", tokenAddr.Hex(),
		"settings", l.GetSettings().Tuple(),
	)
	e.logEffects(tokenAddr, fx)
	e.plugins.EmitEffects(ctx, tokenAddr, caller, fx)
	e.plugins.EmitSettingsUpdated(ctx, tokenAddr, before.Settings, l.GetSettings())
	return nil
}

// Exchange burns amount of caller's from-tokens and mints the equivalent
// in to-tokens at the ratio of the two exchange rates.
func (e *Engine) Exchange(ctx context.Context, caller, from, to types.Address, amount types.Amount) (registry.ExchangeResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	src, err := e.ledger(from)
	if err != nil {
		return registry.ExchangeResult{}, err
	}
	dst, err := e.ledger(to)
	if err != nil {
		return registry.ExchangeResult{}, err
	}

	now := e.now()
	srcBefore, dstBefore := src.Snapshot(), dst.Snapshot()
	res, err := e.Registry().Exchange(caller, from, to, amount, now)
	if err != nil {
		return registry.ExchangeResult{}, err
	}

	entries := effectEntries(from, caller, res.FromEffects, now)
	out := journal.New(from, journal.KindExchangeOut, now)
	out.From = caller
	out.To = to
	out.Amount = res.Burned
	entries = append(entries, out)
	entries = append(entries, effectEntries(to, caller, res.ToEffects, now)...)
	in := journal.New(to, journal.KindExchangeIn, now)
	in.From = from
	in.To = caller
	in.Amount = res.Minted
	entries = append(entries, in)

	if err := e.commit(ctx, entries, ledgerChange{src, srcBefore}, ledgerChange{dst, dstBefore}); err != nil {
		return registry.ExchangeResult{}, err
	}

	e.logger.Debug("exchange completed",
		"from", from.Hex(),
		"to", to.Hex(),
		"holder", caller.Hex(),
		"burned", types.FormatUnits(res.Burned),
		"minted", types.FormatUnits(res.Minted),
	)
	e.logEffects(from, res.FromEffects)
	e.logEffects(to, res.ToEffects)
	e.plugins.EmitEffects(ctx, from, caller, res.FromEffects)
	e.plugins.EmitEffects(ctx, to, caller, res.ToEffects)
	e.plugins.EmitExchange(ctx, res)
	return res, nil
}

// CatchUp applies every decay, bonus and daily-window boundary of tokenAddr
// that has passed, without moving any balance.
func (e *Engine) CatchUp(ctx context.Context, tokenAddr types.Address) (token.Effects, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	l, err := e.ledger(tokenAddr)
	if err != nil {
		return token.Effects{}, err
	}

	now := e.now()
	before := l.Snapshot()
	fx := l.CatchUp(now)
	if fx.DecayPeriods == 0 && fx.BonusPeriods == 0 && !fx.DayRolled {
		return fx, nil
	}

	if err := e.commit(ctx, effectEntries(tokenAddr, types.ZeroAddress, fx, now), ledgerChange{l, before}); err != nil {
		return token.Effects{}, err
	}

	e.logEffects(tokenAddr, fx)
	e.plugins.EmitEffects(ctx, tokenAddr, types.ZeroAddress, fx)
	return fx, nil
}

// ──────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────

// GetTokenSettings returns the current settings of tokenAddr.
func (e *Engine) GetTokenSettings(tokenAddr types.Address) (settings.TokenSettings, error) {
	l, err := e.ledger(tokenAddr)
	if err != nil {
		return settings.TokenSettings{}, err
	}
	return l.GetSettings(), nil
}

// BalanceOf returns holder's balance of tokenAddr as of the last mutation.
func (e *Engine) BalanceOf(tokenAddr, holder types.Address) (types.Amount, error) {
	l, err := e.ledger(tokenAddr)
	if err != nil {
		return types.ZeroAmount(), err
	}
	return l.BalanceOf(holder), nil
}

// TotalSupply returns the total supply of tokenAddr as of the last mutation.
func (e *Engine) TotalSupply(tokenAddr types.Address) (types.Amount, error) {
	l, err := e.ledger(tokenAddr)
	if err != nil {
		return types.ZeroAmount(), err
	}
	return l.TotalSupply(), nil
}

// IsAllowOutgoExchange reports whether tokenAddr lets value leave for candidate.
func (e *Engine) IsAllowOutgoExchange(tokenAddr, candidate types.Address) (bool, error) {
	l, err := e.ledger(tokenAddr)
	if err != nil {
		return false, err
	}
	return l.IsAllowOutgoExchange(candidate), nil
}

// IsAllowIncomeExchange reports whether tokenAddr accepts value from candidate.
func (e *Engine) IsAllowIncomeExchange(tokenAddr, candidate types.Address) (bool, error) {
	l, err := e.ledger(tokenAddr)
	if err != nil {
		return false, err
	}
	return l.IsAllowIncomeExchange(candidate), nil
}

// Token returns the registry entry of tokenAddr.
func (e *Engine) Token(tokenAddr types.Address) (registry.Entry, error) {
	return e.Registry().Entry(tokenAddr)
}

// Tokens returns every registry entry in creation order.
func (e *Engine) Tokens() []registry.Entry {
	return e.Registry().Entries()
}

// History returns the journal of tokenAddr.
func (e *Engine) History(ctx context.Context, tokenAddr types.Address, opts journal.ListOpts) ([]*journal.Entry, error) {
	if _, err := e.ledger(tokenAddr); err != nil {
		return nil, err
	}
	return e.store.ListJournal(ctx, tokenAddr, opts)
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

type ledgerChange struct {
	ledger *token.Ledger
	before token.State
}

// commit persists the ledgers' new states and the journal entries. On
// failure every ledger is reset to its previous state and the previous
// state is written back on a best-effort basis.
func (e *Engine) commit(ctx context.Context, entries []*journal.Entry, changes ...ledgerChange) error {
	err := func() error {
		for _, c := range changes {
			st := c.ledger.Snapshot()
			if err := e.store.SaveTokenState(ctx, &st); err != nil {
				return fmt.Errorf("save token state %s: %w", st.Address.Hex(), err)
			}
		}
		if len(entries) == 0 {
			return nil
		}
		if err := e.store.AppendJournal(ctx, entries); err != nil {
			return fmt.Errorf("append journal: %w", err)
		}
		return nil
	}()
	if err == nil {
		return nil
	}

	e.logger.Error("failed to persist ledger mutation", "error", err)
	for _, c := range changes {
		if rerr := c.ledger.Reset(c.before); rerr != nil {
			e.logger.Error("failed to roll back ledger",
				"token", c.before.Address.Hex(),
				"error", rerr,
			)
			continue
		}
		before := c.before
		_ = e.store.SaveTokenState(ctx, &before) //nolint:errcheck // best-effort restore of the previous state
	}
	return err
}

func (e *Engine) registry() (*registry.Registry, error) {
	e.regMu.RLock()
	defer e.regMu.RUnlock()
	if !e.started {
		return nil, ErrNotStarted
	}
	return e.reg, nil
}

func (e *Engine) ledger(addr types.Address) (*token.Ledger, error) {
	reg, err := e.registry()
	if err != nil {
		return nil, err
	}
	return reg.Get(addr)
}

func (e *Engine) logEffects(tokenAddr types.Address, fx token.Effects) {
	if fx.DecayPeriods > 0 {
		e.logger.Debug("decay applied",
			"token", tokenAddr.Hex(),
			"periods", fx.DecayPeriods,
			"amount", types.FormatUnits(fx.Decayed),
		)
	}
	if fx.BonusPeriods > 0 {
		e.logger.Debug("weekly bonus issued",
			"token", tokenAddr.Hex(),
			"periods", fx.BonusPeriods,
			"amount", types.FormatUnits(fx.Bonus),
		)
	}
	if fx.DayRolled {
		e.logger.Debug("daily issuance window rolled", "token", tokenAddr.Hex())
	}
}

// effectEntries turns the periodic events in fx into journal entries.
func effectEntries(tokenAddr, actor types.Address, fx token.Effects, at time.Time) []*journal.Entry {
	var out []*journal.Entry
	if fx.DecayPeriods > 0 {
		j := journal.New(tokenAddr, journal.KindDecay, at)
		j.From = actor
		j.Amount = fx.Decayed
		j.Periods = fx.DecayPeriods
		out = append(out, j)
	}
	if fx.BonusPeriods > 0 {
		j := journal.New(tokenAddr, journal.KindBonus, at)
		j.From = actor
		j.Amount = fx.Bonus
		j.Periods = fx.BonusPeriods
		out = append(out, j)
	}
	return out
}
