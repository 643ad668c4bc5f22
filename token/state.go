package token

import (
	"fmt"
	"math/big"

	"github.com/xraph/pcetoken/settings"
	"github.com/xraph/pcetoken/types"
)

// State is a detached copy of everything a Ledger owns. It is what the
// persistence layer stores and what Restore accepts.
type State struct {
	Address             types.Address                  `json:"address"`
	Name                string                         `json:"name"`
	Symbol              string                         `json:"symbol"`
	Owner               types.Address                  `json:"owner"`
	TotalSupply         types.Amount                   `json:"total_supply"`
	Balances            map[types.Address]types.Amount `json:"balances"`
	Settings            settings.TokenSettings         `json:"settings"`
	LastDecayBoundary   int64                          `json:"last_decay_boundary"`
	LastBonusBoundary   int64                          `json:"last_bonus_boundary"`
	MidnightTotalSupply types.Amount                   `json:"midnight_total_supply"`
	MidnightModifiedAt  int64                          `json:"midnight_modified_at"`
	MintedToday         types.Amount                   `json:"minted_today"`
	types.Entity
}

// Check verifies that the balances add up to the total supply and that no
// amount is negative.
func (s State) Check() error {
	if !types.Fits(s.TotalSupply) {
		return fmt.Errorf("token %s: %w: total supply", s.Address.Hex(), ErrInvalidAmount)
	}
	sum := new(big.Int)
	for holder, b := range s.Balances {
		if !types.Fits(b) {
			return fmt.Errorf("token %s: %w: balance of %s", s.Address.Hex(), ErrInvalidAmount, holder.Hex())
		}
		sum.Add(sum, b.BigInt())
	}
	if sum.Cmp(s.TotalSupply.BigInt()) != 0 {
		return fmt.Errorf("token %s: balances sum to %s, total supply is %s", s.Address.Hex(), sum, s.TotalSupply)
	}
	return nil
}

func orZero(a types.Amount) types.Amount {
	if a.IsNil() {
		return types.ZeroAmount()
	}
	return a
}

func copyBalances(in map[types.Address]types.Amount) map[types.Address]types.Amount {
	out := make(map[types.Address]types.Amount, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
