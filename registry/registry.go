// Package registry creates community-token ledgers and tracks them by
// address. Entries are append-only.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/xraph/pcetoken/permission"
	"github.com/xraph/pcetoken/settings"
	"github.com/xraph/pcetoken/token"
	"github.com/xraph/pcetoken/types"
)

var (
	// ErrNotFound is returned when no ledger exists at an address.
	ErrNotFound = errors.New("pcetoken: token not found")
	// ErrAlreadyExists is returned when restoring an address twice.
	ErrAlreadyExists = errors.New("pcetoken: token already exists")
	// ErrExchangeNotAllowed is returned when either side's permissions deny an exchange.
	ErrExchangeNotAllowed = errors.New("pcetoken: exchange not allowed")
)

// Reserve is the bridging token the creator deposits into on creation.
type Reserve interface {
	Transfer(from, to types.Address, amount types.Amount) error
}

// Entry records one created ledger.
type Entry struct {
	Address      types.Address `json:"address"`
	Name         string        `json:"name"`
	Symbol       string        `json:"symbol"`
	Creator      types.Address `json:"creator"`
	CreatedAt    time.Time     `json:"created_at"`
	ExchangeRate types.Amount  `json:"exchange_rate"`
}

// CreateParams are the arguments of CreateToken, in call order.
type CreateParams struct {
	Name                       string            `json:"name" yaml:"name"`
	Symbol                     string            `json:"symbol" yaml:"symbol"`
	AmountToExchange           types.Amount      `json:"amount_to_exchange" yaml:"-"`
	DilutionFactor             types.Amount      `json:"dilution_factor" yaml:"-"`
	DecreaseIntervalDays       uint32            `json:"decrease_interval_days" yaml:"decrease_interval_days"`
	DecreaseBp                 uint32            `json:"decrease_bp" yaml:"decrease_bp"`
	MaxIncreaseOfTotalSupplyBp uint32            `json:"max_increase_of_total_supply_bp" yaml:"max_increase_of_total_supply_bp"`
	MaxIncreaseBp              uint32            `json:"max_increase_bp" yaml:"max_increase_bp"`
	MaxUsageBp                 uint32            `json:"max_usage_bp" yaml:"max_usage_bp"`
	ChangeBp                   uint32            `json:"change_bp" yaml:"change_bp"`
	IncomeAllowMethod          permission.Method `json:"income_allow_method" yaml:"income_allow_method"`
	OutgoAllowMethod           permission.Method `json:"outgo_allow_method" yaml:"outgo_allow_method"`
	IncomeTargetTokens         []types.Address   `json:"income_target_tokens" yaml:"income_target_tokens"`
	OutgoTargetTokens          []types.Address   `json:"outgo_target_tokens" yaml:"outgo_target_tokens"`
}

// Settings returns the ledger settings described by p.
func (p CreateParams) Settings() settings.TokenSettings {
	return settings.TokenSettings{
		DecreaseIntervalDays:       p.DecreaseIntervalDays,
		AfterDecreaseBp:            p.DecreaseBp,
		MaxIncreaseOfTotalSupplyBp: p.MaxIncreaseOfTotalSupplyBp,
		MaxIncreaseBp:              p.MaxIncreaseBp,
		MaxUsageBp:                 p.MaxUsageBp,
		ChangeBp:                   p.ChangeBp,
		IncomeAllowMethod:          p.IncomeAllowMethod,
		OutgoAllowMethod:           p.OutgoAllowMethod,
		IncomeTargetTokens:         p.IncomeTargetTokens,
		OutgoTargetTokens:          p.OutgoTargetTokens,
	}
}

// InitialSupply is AmountToExchange*DilutionFactor/1e18. It fails with
// types.ErrOverflow when the product does not fit.
func (p CreateParams) InitialSupply() (types.Amount, error) {
	return types.MulDiv(p.AmountToExchange, p.DilutionFactor, types.OneUnit())
}

// Validate checks every argument before anything is created.
func (p CreateParams) Validate() error {
	if err := settings.ValidateName(p.Name, p.Symbol); err != nil {
		return err
	}
	if p.AmountToExchange.IsNil() || p.AmountToExchange.IsNegative() {
		return &settings.ValidationError{Field: "amount_to_exchange", Message: "must not be negative"}
	}
	if !types.Fits(p.AmountToExchange) {
		return &settings.ValidationError{Field: "amount_to_exchange", Message: "too large"}
	}
	if p.DilutionFactor.IsNil() || !p.DilutionFactor.IsPositive() {
		return &settings.ValidationError{Field: "dilution_factor", Message: "must be positive"}
	}
	if !types.Fits(p.DilutionFactor) {
		return &settings.ValidationError{Field: "dilution_factor", Message: "too large"}
	}
	if _, err := p.InitialSupply(); err != nil {
		return &settings.ValidationError{Field: "amount_to_exchange", Message: "initial supply amount_to_exchange*dilution_factor overflows"}
	}
	if err := p.Settings().Validate(); err != nil {
		var verr *settings.ValidationError
		if errors.As(err, &verr) && verr.Field == "after_decrease_bp" {
			return &settings.ValidationError{Field: "decrease_bp", Message: verr.Message}
		}
		return err
	}
	return nil
}

// Option configures a Registry.
type Option func(*Registry)

// WithAdjuster sets the transfer issuance rule for every ledger.
func WithAdjuster(a token.Adjuster) Option {
	return func(r *Registry) { r.adjuster = a }
}

// WithReserve attaches the bridging token. Creators then deposit
// AmountToExchange into the registry's reserve account.
func WithReserve(res Reserve) Option {
	return func(r *Registry) { r.reserve = res }
}

// Registry is the arena of ledgers.
type Registry struct {
	mu       sync.RWMutex
	address  types.Address
	nonce    uint64
	entries  []Entry
	ledgers  map[types.Address]*token.Ledger
	adjuster token.Adjuster
	reserve  Reserve
	deposits map[types.Address]types.Amount
}

// New returns an empty registry. address seeds ledger address derivation
// and holds the reserve.
func New(address types.Address, opts ...Option) *Registry {
	r := &Registry{
		address:  address,
		ledgers:  make(map[types.Address]*token.Ledger),
		deposits: make(map[types.Address]types.Amount),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Address returns the registry address.
func (r *Registry) Address() types.Address { return r.address }

// CreateToken validates p, deploys a new ledger, mints its initial supply
// to creator and records the entry.
func (r *Registry) CreateToken(creator types.Address, p CreateParams, now time.Time) (types.Address, error) {
	if creator == types.ZeroAddress {
		return types.ZeroAddress, token.ErrInvalidAccount
	}
	if err := p.Validate(); err != nil {
		return types.ZeroAddress, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	addr := r.nextAddressLocked()
	l, err := token.New(token.Config{
		Address:   addr,
		Name:      p.Name,
		Symbol:    p.Symbol,
		Owner:     creator,
		Settings:  p.Settings(),
		CreatedAt: now,
		Adjuster:  r.adjuster,
	})
	if err != nil {
		return types.ZeroAddress, err
	}

	supply, err := p.InitialSupply()
	if err != nil {
		return types.ZeroAddress, err
	}
	if _, err := l.Mint(creator, supply, now); err != nil {
		return types.ZeroAddress, err
	}
	if r.reserve != nil && p.AmountToExchange.IsPositive() {
		if err := r.reserve.Transfer(creator, r.address, p.AmountToExchange); err != nil {
			return types.ZeroAddress, fmt.Errorf("deposit to reserve: %w", err)
		}
	}

	r.nonce++
	r.ledgers[addr] = l
	if r.reserve != nil && p.AmountToExchange.IsPositive() {
		r.deposits[addr] = p.AmountToExchange
	}
	r.entries = append(r.entries, Entry{
		Address:      addr,
		Name:         p.Name,
		Symbol:       p.Symbol,
		Creator:      creator,
		CreatedAt:    now.UTC(),
		ExchangeRate: p.DilutionFactor,
	})
	return addr, nil
}

func (r *Registry) nextAddressLocked() types.Address {
	for {
		addr := crypto.CreateAddress(r.address, r.nonce)
		if _, taken := r.ledgers[addr]; !taken {
			return addr
		}
		r.nonce++
	}
}

// Restore adds a persisted ledger to the arena.
func (r *Registry) Restore(e Entry, st token.State) error {
	if e.Address != st.Address {
		return fmt.Errorf("restore %s: state belongs to %s", e.Address.Hex(), st.Address.Hex())
	}
	if !types.Fits(e.ExchangeRate) || !e.ExchangeRate.IsPositive() {
		return &settings.ValidationError{Field: "exchange_rate", Message: "must be positive and in range"}
	}
	l, err := token.Restore(st, r.adjuster)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ledgers[e.Address]; ok {
		return fmt.Errorf("restore %s: %w", e.Address.Hex(), ErrAlreadyExists)
	}
	r.ledgers[e.Address] = l
	r.entries = append(r.entries, e)
	sort.SliceStable(r.entries, func(i, j int) bool {
		return r.entries[i].CreatedAt.Before(r.entries[j].CreatedAt)
	})
	if n := uint64(len(r.entries)); n > r.nonce {
		r.nonce = n
	}
	return nil
}

// Discard removes a ledger created by CreateToken and refunds the creator's
// reserve deposit. It undoes a creation whose persistence failed.
func (r *Registry) Discard(addr types.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ledgers[addr]; !ok {
		return fmt.Errorf("%s: %w", addr.Hex(), ErrNotFound)
	}
	idx := -1
	for i, e := range r.entries {
		if e.Address == addr {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%s: %w", addr.Hex(), ErrNotFound)
	}
	creator := r.entries[idx].Creator

	if deposit, ok := r.deposits[addr]; ok {
		if err := r.reserve.Transfer(r.address, creator, deposit); err != nil {
			return fmt.Errorf("refund reserve deposit: %w", err)
		}
		delete(r.deposits, addr)
	}
	delete(r.ledgers, addr)
	r.entries = append(r.entries[:idx], r.entries[idx+1:]...)
	return nil
}

// Get returns the ledger at addr.
func (r *Registry) Get(addr types.Address) (*token.Ledger, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.ledgers[addr]
	if !ok {
		return nil, fmt.Errorf("%s: %w", addr.Hex(), ErrNotFound)
	}
	return l, nil
}

// Entry returns the registry entry of addr.
func (r *Registry) Entry(addr types.Address) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.Address == addr {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("%s: %w", addr.Hex(), ErrNotFound)
}

// Entries returns all entries in creation order.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// ExchangeResult describes a completed exchange.
type ExchangeResult struct {
	From        types.Address
	To          types.Address
	Holder      types.Address
	Burned      types.Amount
	Minted      types.Amount
	FromEffects token.Effects
	ToEffects   token.Effects
}

// Exchange converts amount of caller's from-tokens into to-tokens at the
// ratio of the two exchange rates. Both ledgers must consent: from must
// allow outgo to to, and to must allow income from from.
func (r *Registry) Exchange(caller, from, to types.Address, amount types.Amount, now time.Time) (ExchangeResult, error) {
	src, err := r.Get(from)
	if err != nil {
		return ExchangeResult{}, err
	}
	dst, err := r.Get(to)
	if err != nil {
		return ExchangeResult{}, err
	}
	if !src.IsAllowOutgoExchange(to) || !dst.IsAllowIncomeExchange(from) {
		return ExchangeResult{}, fmt.Errorf("%s -> %s: %w", from.Hex(), to.Hex(), ErrExchangeNotAllowed)
	}
	srcEntry, err := r.Entry(from)
	if err != nil {
		return ExchangeResult{}, err
	}
	dstEntry, err := r.Entry(to)
	if err != nil {
		return ExchangeResult{}, err
	}
	if amount.IsNil() || amount.IsNegative() {
		return ExchangeResult{}, token.ErrInvalidAmount
	}

	minted, err := types.MulDiv(amount, dstEntry.ExchangeRate, srcEntry.ExchangeRate)
	if err != nil {
		return ExchangeResult{}, fmt.Errorf("exchange %s -> %s: %w", from.Hex(), to.Hex(), err)
	}
	srcFx, dstFx, err := token.Swap(src, dst, caller, amount, minted, now)
	if err != nil {
		return ExchangeResult{}, err
	}
	return ExchangeResult{
		From:        from,
		To:          to,
		Holder:      caller,
		Burned:      amount,
		Minted:      minted,
		FromEffects: srcFx,
		ToEffects:   dstFx,
	}, nil
}
