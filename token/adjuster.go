package token

import (
	"github.com/xraph/pcetoken/settings"
	"github.com/xraph/pcetoken/types"
)

// IssuanceInput is what an Adjuster sees for one transfer. Balances are
// taken after catch-up and before the debit.
type IssuanceInput struct {
	Settings            settings.TokenSettings
	Amount              types.Amount
	SenderBalance       types.Amount
	TotalSupply         types.Amount
	MidnightTotalSupply types.Amount
	MintedToday         types.Amount
}

// Adjuster decides how much is minted back to the sender of a transfer.
// The ledger clamps the result to the per-transfer and daily caps, so an
// Adjuster only proposes a value.
type Adjuster interface {
	Issuance(in IssuanceInput) types.Amount
}

// AdjusterFunc adapts a function to the Adjuster interface.
type AdjusterFunc func(in IssuanceInput) types.Amount

// Issuance implements Adjuster.
func (f AdjusterFunc) Issuance(in IssuanceInput) types.Amount { return f(in) }

// NoIssuance never mints on transfer.
var NoIssuance = AdjusterFunc(func(IssuanceInput) types.Amount { return types.ZeroAmount() })

// ArigatoCreation rewards senders who spend a large share of their balance.
//
//	usageBp = min(amount*10000/senderBalance, MaxUsageBp)
//	mint    = senderBalance * MaxIncreaseOfTotalSupplyBp/10000 * (usageBp-MaxIncreaseBp)/10000
//
// Nothing is minted while usageBp <= MaxIncreaseBp.
type ArigatoCreation struct{}

// Issuance implements Adjuster.
func (ArigatoCreation) Issuance(in IssuanceInput) types.Amount {
	if !in.SenderBalance.IsPositive() || !in.Amount.IsPositive() {
		return types.ZeroAmount()
	}
	maxUsage := types.NewAmount(int64(in.Settings.MaxUsageBp))
	usage, err := types.MulDiv(in.Amount, types.NewAmount(types.BpBase), in.SenderBalance)
	if err != nil || usage.GT(maxUsage) {
		usage = maxUsage
	}
	excess := usage.SubRaw(int64(in.Settings.MaxIncreaseBp))
	if !excess.IsPositive() {
		return types.ZeroAmount()
	}
	return types.MulBp(types.MulBp(in.SenderBalance, in.Settings.MaxIncreaseOfTotalSupplyBp), uint32(excess.Uint64()))
}
