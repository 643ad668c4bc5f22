// Package token implements a single community-currency ledger: balance
// custody, transfers, and the lazily applied periodic events (decay, weekly
// bonus, daily issuance window) gated by the clock package.
package token

import (
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/xraph/pcetoken/clock"
	"github.com/xraph/pcetoken/settings"
	"github.com/xraph/pcetoken/types"
)

// Effects describes the side effects of one mutating call.
type Effects struct {
	DecayPeriods int64
	Decayed      types.Amount // supply removed by decay
	BonusPeriods int64
	Bonus        types.Amount // supply added by the weekly bonus
	DayRolled    bool
	Issued       types.Amount // minted to the sender by the transfer hook
}

func newEffects() Effects {
	return Effects{
		Decayed: types.ZeroAmount(),
		Bonus:   types.ZeroAmount(),
		Issued:  types.ZeroAmount(),
	}
}

// SupplyChanged reports whether any event changed the total supply.
func (e Effects) SupplyChanged() bool {
	return e.Decayed.IsPositive() || e.Bonus.IsPositive() || e.Issued.IsPositive()
}

// Config is the input to New.
type Config struct {
	Address   types.Address
	Name      string
	Symbol    string
	Owner     types.Address
	Settings  settings.TokenSettings
	CreatedAt time.Time
	Adjuster  Adjuster
}

// Ledger is one community token. All methods are safe for concurrent use.
type Ledger struct {
	mu sync.Mutex

	address  types.Address
	name     string
	symbol   string
	entity   types.Entity
	settings *settings.Store
	adjuster Adjuster

	totalSupply         types.Amount
	balances            map[types.Address]types.Amount
	lastDecayBoundary   int64
	lastBonusBoundary   int64
	midnightTotalSupply types.Amount
	midnightModifiedAt  int64
	mintedToday         types.Amount
}

// New creates an empty ledger. Markers start at CreatedAt so that no event
// fires for periods before the ledger existed.
func New(cfg Config) (*Ledger, error) {
	if err := settings.ValidateName(cfg.Name, cfg.Symbol); err != nil {
		return nil, err
	}
	store, err := settings.NewStore(cfg.Owner, cfg.Settings)
	if err != nil {
		return nil, err
	}
	created := cfg.CreatedAt.UTC()
	return &Ledger{
		address:             cfg.Address,
		name:                cfg.Name,
		symbol:              cfg.Symbol,
		entity:              types.NewEntity(created),
		settings:            store,
		adjuster:            adjusterOrDefault(cfg.Adjuster),
		totalSupply:         types.ZeroAmount(),
		balances:            make(map[types.Address]types.Amount),
		lastDecayBoundary:   created.Unix(),
		lastBonusBoundary:   created.Unix(),
		midnightTotalSupply: types.ZeroAmount(),
		mintedToday:         types.ZeroAmount(),
	}, nil
}

// Restore rebuilds a ledger from a persisted State.
func Restore(st State, adj Adjuster) (*Ledger, error) {
	if err := st.Check(); err != nil {
		return nil, err
	}
	l, err := New(Config{
		Address:   st.Address,
		Name:      st.Name,
		Symbol:    st.Symbol,
		Owner:     st.Owner,
		Settings:  st.Settings,
		CreatedAt: st.CreatedAt,
		Adjuster:  adj,
	})
	if err != nil {
		return nil, fmt.Errorf("restore token %s: %w", st.Address.Hex(), err)
	}
	if err := l.Reset(st); err != nil {
		return nil, err
	}
	return l, nil
}

func adjusterOrDefault(a Adjuster) Adjuster {
	if a == nil {
		return ArigatoCreation{}
	}
	return a
}

// Address returns the ledger's handle.
func (l *Ledger) Address() types.Address { return l.address }

// Name returns the token name.
func (l *Ledger) Name() string { return l.name }

// Symbol returns the token symbol.
func (l *Ledger) Symbol() string { return l.symbol }

// Owner returns the settings administrator.
func (l *Ledger) Owner() types.Address { return l.settings.Admin() }

// Snapshot returns a detached copy of the ledger state.
func (l *Ledger) Snapshot() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *Ledger) snapshotLocked() State {
	return State{
		Address:             l.address,
		Name:                l.name,
		Symbol:              l.symbol,
		Owner:               l.settings.Admin(),
		TotalSupply:         l.totalSupply,
		Balances:            copyBalances(l.balances),
		Settings:            l.settings.Get(),
		LastDecayBoundary:   l.lastDecayBoundary,
		LastBonusBoundary:   l.lastBonusBoundary,
		MidnightTotalSupply: l.midnightTotalSupply,
		MidnightModifiedAt:  l.midnightModifiedAt,
		MintedToday:         l.mintedToday,
		Entity:              l.entity,
	}
}

// BalanceOf returns the stored balance of holder. Pending decay or bonus is
// not applied until the next mutating call.
func (l *Ledger) BalanceOf(holder types.Address) types.Amount {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balanceLocked(holder)
}

// TotalSupply returns the stored total supply.
func (l *Ledger) TotalSupply() types.Amount {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalSupply
}

// GetSettings returns a copy of the current settings.
func (l *Ledger) GetSettings() settings.TokenSettings { return l.settings.Get() }

// IsAllowOutgoExchange reports whether value may leave this ledger for candidate.
func (l *Ledger) IsAllowOutgoExchange(candidate types.Address) bool {
	return l.settings.Get().OutgoRule().Allows(candidate)
}

// IsAllowIncomeExchange reports whether value may arrive from candidate.
func (l *Ledger) IsAllowIncomeExchange(candidate types.Address) bool {
	return l.settings.Get().IncomeRule().Allows(candidate)
}

// UpdateSettings replaces the settings. Periods elapsed before now are
// settled under the old settings first. On error nothing changes.
func (l *Ledger) UpdateSettings(caller types.Address, next settings.TokenSettings, now time.Time) (Effects, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.settings.Admin() {
		return Effects{}, settings.ErrUnauthorized
	}
	if err := next.Validate(); err != nil {
		return Effects{}, err
	}
	fx := newEffects()
	l.settleLocked(now.Unix(), &fx)
	if err := l.settings.Update(caller, next); err != nil {
		return Effects{}, err
	}
	l.entity.Touch(now)
	return fx, nil
}

// Transfer moves amount from one holder to another after settling pending
// periodic events, then applies transfer-time issuance to the sender.
func (l *Ledger) Transfer(from, to types.Address, amount types.Amount, now time.Time) (Effects, error) {
	if err := checkAmount(amount); err != nil {
		return Effects{}, err
	}
	if from == types.ZeroAddress || to == types.ZeroAddress {
		return Effects{}, ErrInvalidAccount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	ts := now.Unix()
	before := l.projectedBalanceLocked(from, ts)
	if amount.GT(before) {
		return Effects{}, fmt.Errorf("%w: %s has %s, needs %s",
			ErrInsufficientBalance, from.Hex(), types.FormatUnits(before), types.FormatUnits(amount))
	}

	fx := newEffects()
	l.catchUpLocked(ts, &fx)

	cfg := l.settings.Get()
	proposed := l.adjuster.Issuance(IssuanceInput{
		Settings:            cfg,
		Amount:              amount,
		SenderBalance:       before,
		TotalSupply:         l.totalSupply,
		MidnightTotalSupply: l.midnightTotalSupply,
		MintedToday:         l.mintedToday,
	})

	l.setBalanceLocked(from, before.Sub(amount))
	l.setBalanceLocked(to, l.balanceLocked(to).Add(amount))

	if minted := l.clampIssuanceLocked(cfg, amount, proposed); minted.IsPositive() {
		l.setBalanceLocked(from, l.balanceLocked(from).Add(minted))
		l.totalSupply = l.totalSupply.Add(minted)
		l.mintedToday = l.mintedToday.Add(minted)
		fx.Issued = minted
	}
	l.entity.Touch(now)
	return fx, nil
}

// DecayCheck settles pending decay periods only. Calling it twice with the
// same now is a no-op the second time.
func (l *Ledger) DecayCheck(now time.Time) Effects {
	l.mu.Lock()
	defer l.mu.Unlock()
	fx := newEffects()
	l.decayLocked(now.Unix(), &fx)
	l.touchIfChanged(fx, now)
	return fx
}

// BonusCheck settles pending weekly bonuses only.
func (l *Ledger) BonusCheck(now time.Time) Effects {
	l.mu.Lock()
	defer l.mu.Unlock()
	fx := newEffects()
	l.bonusLocked(now.Unix(), &fx)
	l.touchIfChanged(fx, now)
	return fx
}

// CatchUp settles decay, bonus, and the daily window up to now.
func (l *Ledger) CatchUp(now time.Time) Effects {
	l.mu.Lock()
	defer l.mu.Unlock()
	fx := newEffects()
	l.catchUpLocked(now.Unix(), &fx)
	l.touchIfChanged(fx, now)
	return fx
}

func (l *Ledger) touchIfChanged(fx Effects, now time.Time) {
	if fx.DecayPeriods > 0 || fx.BonusPeriods > 0 || fx.DayRolled {
		l.entity.Touch(now)
	}
}

// Mint credits amount to holder and grows the supply. It is used by the
// registry for initial issuance and the receiving side of an exchange.
func (l *Ledger) Mint(holder types.Address, amount types.Amount, now time.Time) (Effects, error) {
	if err := checkAmount(amount); err != nil {
		return Effects{}, err
	}
	if holder == types.ZeroAddress {
		return Effects{}, ErrInvalidAccount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	prev := l.snapshotLocked()
	fx := newEffects()
	l.settleLocked(now.Unix(), &fx)
	if err := l.mintLocked(holder, amount); err != nil {
		l.loadLocked(prev)
		return Effects{}, err
	}
	l.entity.Touch(now)
	return fx, nil
}

// Burn debits amount from holder and shrinks the supply.
func (l *Ledger) Burn(holder types.Address, amount types.Amount, now time.Time) (Effects, error) {
	if err := checkAmount(amount); err != nil {
		return Effects{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fx, err := l.burnLocked(holder, amount, now.Unix())
	if err != nil {
		return Effects{}, err
	}
	l.entity.Touch(now)
	return fx, nil
}

func (l *Ledger) burnLocked(holder types.Address, amount types.Amount, ts int64) (Effects, error) {
	if before := l.projectedBalanceLocked(holder, ts); amount.GT(before) {
		return Effects{}, fmt.Errorf("%w: %s has %s, needs %s",
			ErrInsufficientBalance, holder.Hex(), types.FormatUnits(before), types.FormatUnits(amount))
	}
	fx := newEffects()
	l.settleLocked(ts, &fx)
	l.setBalanceLocked(holder, l.balanceLocked(holder).Sub(amount))
	l.totalSupply = l.totalSupply.Sub(amount)
	return fx, nil
}

// mintLocked fails with types.ErrOverflow, leaving the ledger untouched,
// when the new supply would exceed types.MaxAmount.
func (l *Ledger) mintLocked(holder types.Address, amount types.Amount) error {
	supply := l.totalSupply.Add(amount)
	if !types.Fits(supply) {
		return fmt.Errorf("mint %s on %s: %w", types.FormatUnits(amount), l.address.Hex(), types.ErrOverflow)
	}
	l.setBalanceLocked(holder, l.balanceLocked(holder).Add(amount))
	l.totalSupply = supply
	return nil
}

func (l *Ledger) clampIssuanceLocked(cfg settings.TokenSettings, amount, proposed types.Amount) types.Amount {
	if proposed.IsNil() || !proposed.IsPositive() {
		return types.ZeroAmount()
	}
	minted := types.MinAmount(proposed, types.MulBp(amount, cfg.ChangeBp))
	remaining := types.MulBp(l.midnightTotalSupply, cfg.MaxIncreaseOfTotalSupplyBp).Sub(l.mintedToday)
	remaining = types.MinAmount(remaining, types.MaxAmount().Sub(l.totalSupply))
	if !remaining.IsPositive() {
		return types.ZeroAmount()
	}
	return types.MinAmount(minted, remaining)
}

// settleLocked applies pending decay, then pending bonuses.
func (l *Ledger) settleLocked(ts int64, fx *Effects) {
	l.decayLocked(ts, fx)
	l.bonusLocked(ts, fx)
}

// catchUpLocked settles and then opens a new issuance day if a UTC midnight
// passed since the last transfer.
func (l *Ledger) catchUpLocked(ts int64, fx *Effects) {
	l.settleLocked(ts, fx)
	if clock.CrossedBoundary(l.midnightModifiedAt, ts, clock.DaySeconds, 0) {
		l.midnightTotalSupply = l.totalSupply
		l.midnightModifiedAt = ts
		l.mintedToday = types.ZeroAmount()
		fx.DayRolled = true
	}
}

func (l *Ledger) decayPeriod() int64 {
	return int64(l.settings.Get().DecreaseIntervalDays) * clock.DaySeconds
}

func (l *Ledger) decayLocked(ts int64, fx *Effects) {
	period := l.decayPeriod()
	n := clock.Periods(l.lastDecayBoundary, ts, period, 0)
	if n <= 0 {
		return
	}
	keep := types.BpBase - l.settings.Get().AfterDecreaseBp
	before := l.totalSupply
	l.scaleLocked(n, keep)
	l.lastDecayBoundary = clock.BoundaryAtOrBefore(ts, period, 0)
	fx.DecayPeriods += n
	fx.Decayed = fx.Decayed.Add(before.Sub(l.totalSupply))
}

// bonusLocked applies the crossed weekly bonuses. Periods that would push
// the supply past types.MaxAmount are forfeited; the marker still advances.
func (l *Ledger) bonusLocked(ts int64, fx *Effects) {
	n := clock.Periods(l.lastBonusBoundary, ts, clock.WeekSeconds, clock.WednesdayOffset)
	if n <= 0 {
		return
	}
	n = l.bonusPeriodsLocked(0, n)
	before := l.totalSupply
	l.scaleLocked(n, types.BpBase+l.bonusBp())
	l.lastBonusBoundary = clock.BoundaryAtOrBefore(ts, clock.WeekSeconds, clock.WednesdayOffset)
	fx.BonusPeriods += n
	fx.Bonus = fx.Bonus.Add(l.totalSupply.Sub(before))
}

// bonusPeriodsLocked returns how many of n bonus periods fit under
// types.MaxAmount once decayN decay periods have been applied.
func (l *Ledger) bonusPeriodsLocked(decayN, n int64) int64 {
	factor := types.BpBase + l.bonusBp()
	if n <= 0 || factor == types.BpBase {
		return max(n, 0)
	}
	// A period at most doubles the supply, and decay only shrinks it.
	if int64(l.totalSupply.BigInt().BitLen())+n <= types.MaxBitLen {
		return n
	}
	keep := types.BpBase - l.settings.Get().AfterDecreaseBp
	cur := make([]types.Amount, 0, len(l.balances))
	for _, b := range l.balances {
		cur = append(cur, scale(b, decayN, keep))
	}
	var applied int64
	for ; applied < n; applied++ {
		next := make([]types.Amount, len(cur))
		sum := new(big.Int)
		for i, b := range cur {
			next[i] = types.MulBp(b, factor)
			sum.Add(sum, next[i].BigInt())
		}
		if sum.BitLen() > types.MaxBitLen {
			break
		}
		cur = next
	}
	return applied
}

func (l *Ledger) bonusBp() uint32 {
	cfg := l.settings.Get()
	return min(cfg.MaxIncreaseOfTotalSupplyBp, cfg.MaxIncreaseBp)
}

// scaleLocked multiplies every balance n times by factorBp/10000 and
// recomputes the supply from the result.
func (l *Ledger) scaleLocked(n int64, factorBp uint32) {
	if factorBp != types.BpBase {
		for holder, b := range l.balances {
			l.setBalanceLocked(holder, scale(b, n, factorBp))
		}
	}
	sum := types.ZeroAmount()
	for _, b := range l.balances {
		sum = sum.Add(b)
	}
	l.totalSupply = sum
}

// projectedBalanceLocked is the balance holder would have after catching up
// to ts, computed without mutating the ledger.
func (l *Ledger) projectedBalanceLocked(holder types.Address, ts int64) types.Amount {
	b := l.balanceLocked(holder)
	decayN := clock.Periods(l.lastDecayBoundary, ts, l.decayPeriod(), 0)
	if decayN > 0 {
		b = scale(b, decayN, types.BpBase-l.settings.Get().AfterDecreaseBp)
	}
	bonusN := clock.Periods(l.lastBonusBoundary, ts, clock.WeekSeconds, clock.WednesdayOffset)
	if n := l.bonusPeriodsLocked(max(decayN, 0), bonusN); n > 0 {
		b = scale(b, n, types.BpBase+l.bonusBp())
	}
	return b
}

func scale(b types.Amount, n int64, factorBp uint32) types.Amount {
	if factorBp == types.BpBase {
		return b
	}
	for i := int64(0); i < n && b.IsPositive(); i++ {
		b = types.MulBp(b, factorBp)
	}
	return b
}

func (l *Ledger) balanceLocked(holder types.Address) types.Amount {
	if b, ok := l.balances[holder]; ok {
		return b
	}
	return types.ZeroAmount()
}

func (l *Ledger) setBalanceLocked(holder types.Address, b types.Amount) {
	if b.IsZero() {
		delete(l.balances, holder)
		return
	}
	l.balances[holder] = b
}

func checkAmount(a types.Amount) error {
	if a.IsNil() || a.IsNegative() {
		return ErrInvalidAmount
	}
	if !types.Fits(a) {
		return fmt.Errorf("%w: %w", ErrInvalidAmount, types.ErrOverflow)
	}
	return nil
}

// Reset replaces the whole ledger state with st. The engine uses it to roll
// back a mutation whose persistence failed.
func (l *Ledger) Reset(st State) error {
	if st.Address != l.address {
		return fmt.Errorf("reset %s: state belongs to %s", l.address.Hex(), st.Address.Hex())
	}
	if err := st.Check(); err != nil {
		return err
	}
	store, err := settings.NewStore(st.Owner, st.Settings)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.settings = store
	l.loadLocked(st)
	return nil
}

// loadLocked copies every field of st except the settings into the ledger.
func (l *Ledger) loadLocked(st State) {
	l.totalSupply = st.TotalSupply
	l.balances = make(map[types.Address]types.Amount, len(st.Balances))
	for holder, b := range st.Balances {
		if b.IsPositive() {
			l.balances[holder] = b
		}
	}
	l.lastDecayBoundary = st.LastDecayBoundary
	l.lastBonusBoundary = st.LastBonusBoundary
	l.midnightTotalSupply = orZero(st.MidnightTotalSupply)
	l.midnightModifiedAt = st.MidnightModifiedAt
	l.mintedToday = orZero(st.MintedToday)
	l.entity = types.Entity{CreatedAt: st.CreatedAt.UTC(), UpdatedAt: st.UpdatedAt.UTC()}
	if st.UpdatedAt.IsZero() {
		l.entity.UpdatedAt = l.entity.CreatedAt
	}
}
