package basetoken_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/pcetoken/basetoken"
	"github.com/xraph/pcetoken/token"
	"github.com/xraph/pcetoken/types"
)

var (
	deployer = types.MustParseAddress("0x0000000000000000000000000000000000000d01")
	holder   = types.MustParseAddress("0x0000000000000000000000000000000000000d02")
)

func TestInitializeOnce(t *testing.T) {
	bt := basetoken.New()
	assert.False(t, bt.Initialized())

	require.NoError(t, bt.Initialize("PCE Token", "PCE", deployer, types.Units(10_000_000)))
	assert.True(t, bt.Initialized())
	assert.Equal(t, "PCE Token", bt.Name())
	assert.Equal(t, "PCE", bt.Symbol())
	assert.Equal(t, deployer, bt.Owner())
	assert.Equal(t, "10000000", types.FormatUnits(bt.TotalSupply()))
	assert.Equal(t, "10000000", types.FormatUnits(bt.BalanceOf(deployer)))

	err := bt.Initialize("Again", "AGN", holder, types.Units(1))
	assert.ErrorIs(t, err, basetoken.ErrAlreadyInitialized)
	assert.Equal(t, "PCE Token", bt.Name())
}

func TestInitializeValidates(t *testing.T) {
	bt := basetoken.New()
	assert.Error(t, bt.Initialize("", "PCE", deployer, types.Units(1)))
	assert.ErrorIs(t, bt.Initialize("PCE Token", "PCE", types.ZeroAddress, types.Units(1)), token.ErrInvalidAccount)
	assert.ErrorIs(t, bt.Initialize("PCE Token", "PCE", deployer, types.NewAmount(-1)), token.ErrInvalidAmount)
	assert.ErrorIs(t, bt.Initialize("PCE Token", "PCE", deployer, types.MaxAmount().AddRaw(1)), types.ErrOverflow)
	assert.False(t, bt.Initialized())
}

func TestTransfer(t *testing.T) {
	bt := basetoken.New()
	assert.ErrorIs(t, bt.Transfer(deployer, holder, types.Units(1)), basetoken.ErrNotInitialized)

	require.NoError(t, bt.Initialize("PCE Token", "PCE", deployer, types.Units(100)))
	require.NoError(t, bt.Transfer(deployer, holder, types.Units(40)))
	assert.Equal(t, "60", types.FormatUnits(bt.BalanceOf(deployer)))
	assert.Equal(t, "40", types.FormatUnits(bt.BalanceOf(holder)))

	err := bt.Transfer(holder, deployer, types.Units(41))
	assert.ErrorIs(t, err, token.ErrInsufficientBalance)
	assert.Equal(t, "40", types.FormatUnits(bt.BalanceOf(holder)))
	assert.Equal(t, "100", types.FormatUnits(bt.TotalSupply()))
}
