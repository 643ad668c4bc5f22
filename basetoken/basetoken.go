// Package basetoken implements the fixed-supply bridging token that
// community tokens are exchanged against. It has no decay and no exchange
// permissions.
package basetoken

import (
	"errors"
	"fmt"
	"sync"

	"github.com/xraph/pcetoken/settings"
	"github.com/xraph/pcetoken/token"
	"github.com/xraph/pcetoken/types"
)

var (
	// ErrAlreadyInitialized is returned by a second Initialize call.
	ErrAlreadyInitialized = errors.New("pcetoken: base token already initialized")
	// ErrNotInitialized is returned by transfers before Initialize.
	ErrNotInitialized = errors.New("pcetoken: base token not initialized")
)

// Token is the bridging token. The zero value is not usable; call New.
type Token struct {
	mu          sync.RWMutex
	initialized bool
	name        string
	symbol      string
	owner       types.Address
	totalSupply types.Amount
	balances    map[types.Address]types.Amount
}

// New returns an uninitialized token.
func New() *Token {
	return &Token{
		totalSupply: types.ZeroAmount(),
		balances:    make(map[types.Address]types.Amount),
	}
}

// Initialize mints supply to owner. It succeeds once.
func (t *Token) Initialize(name, symbol string, owner types.Address, supply types.Amount) error {
	if err := settings.ValidateName(name, symbol); err != nil {
		return err
	}
	if owner == types.ZeroAddress {
		return token.ErrInvalidAccount
	}
	if supply.IsNil() || supply.IsNegative() {
		return token.ErrInvalidAmount
	}
	if !types.Fits(supply) {
		return fmt.Errorf("%w: %w", token.ErrInvalidAmount, types.ErrOverflow)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.initialized {
		return ErrAlreadyInitialized
	}
	t.initialized = true
	t.name, t.symbol, t.owner = name, symbol, owner
	t.totalSupply = supply
	if supply.IsPositive() {
		t.balances[owner] = supply
	}
	return nil
}

// Initialized reports whether Initialize has succeeded.
func (t *Token) Initialized() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.initialized
}

// Name returns the token name.
func (t *Token) Name() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.name
}

// Symbol returns the token symbol.
func (t *Token) Symbol() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.symbol
}

// Owner returns the address that received the initial supply.
func (t *Token) Owner() types.Address {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.owner
}

// TotalSupply returns the fixed supply.
func (t *Token) TotalSupply() types.Amount {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.totalSupply
}

// BalanceOf returns the balance of holder.
func (t *Token) BalanceOf(holder types.Address) types.Amount {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if b, ok := t.balances[holder]; ok {
		return b
	}
	return types.ZeroAmount()
}

// Transfer moves amount between holders.
func (t *Token) Transfer(from, to types.Address, amount types.Amount) error {
	if amount.IsNil() || amount.IsNegative() {
		return token.ErrInvalidAmount
	}
	if to == types.ZeroAddress {
		return token.ErrInvalidAccount
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.initialized {
		return ErrNotInitialized
	}
	have := types.ZeroAmount()
	if b, ok := t.balances[from]; ok {
		have = b
	}
	if amount.GT(have) {
		return fmt.Errorf("%w: %s has %s, needs %s",
			token.ErrInsufficientBalance, from.Hex(), types.FormatUnits(have), types.FormatUnits(amount))
	}
	t.set(from, have.Sub(amount))
	cur := types.ZeroAmount()
	if b, ok := t.balances[to]; ok {
		cur = b
	}
	t.set(to, cur.Add(amount))
	return nil
}

func (t *Token) set(holder types.Address, b types.Amount) {
	if b.IsZero() {
		delete(t.balances, holder)
		return
	}
	t.balances[holder] = b
}
