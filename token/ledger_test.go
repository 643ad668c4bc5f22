package token_test

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/pcetoken/permission"
	"github.com/xraph/pcetoken/settings"
	"github.com/xraph/pcetoken/token"
	"github.com/xraph/pcetoken/types"
)

var (
	owner   = types.MustParseAddress("0x0000000000000000000000000000000000000001")
	alice   = types.MustParseAddress("0x000000000000000000000000000000000000000a")
	bob     = types.MustParseAddress("0x000000000000000000000000000000000000000b")
	ledgerA = types.MustParseAddress("0x00000000000000000000000000000000000000aa")
	ledgerB = types.MustParseAddress("0x00000000000000000000000000000000000000bb")

	// Wednesday.
	t0 = time.Date(2029, 6, 6, 0, 0, 0, 0, time.UTC)
)

const day = 24 * time.Hour

func referenceSettings() settings.TokenSettings {
	return settings.TokenSettings{
		DecreaseIntervalDays:       7,
		AfterDecreaseBp:            20,
		MaxIncreaseOfTotalSupplyBp: 20,
		MaxIncreaseBp:              2000,
		MaxUsageBp:                 3000,
		ChangeBp:                   3000,
		IncomeAllowMethod:          permission.All,
		OutgoAllowMethod:           permission.All,
	}
}

func newLedger(t *testing.T, s settings.TokenSettings, adj token.Adjuster, supply types.Amount) *token.Ledger {
	t.Helper()
	l, err := token.New(token.Config{
		Address:   ledgerA,
		Name:      "Community",
		Symbol:    "COM",
		Owner:     owner,
		Settings:  s,
		CreatedAt: t0,
		Adjuster:  adj,
	})
	require.NoError(t, err)
	_, err = l.Mint(owner, supply, t0)
	require.NoError(t, err)
	return l
}

func TestTransferScenario(t *testing.T) {
	l := newLedger(t, referenceSettings(), nil, types.Units(1000))

	fx, err := l.Transfer(owner, alice, types.Units(100), t0)
	require.NoError(t, err)
	assert.True(t, fx.Issued.IsZero())
	assert.True(t, fx.DayRolled)

	fx, err = l.Transfer(alice, bob, types.Units(30), t0)
	require.NoError(t, err)

	assert.Equal(t, "70.02", types.FormatUnits(l.BalanceOf(alice)))
	assert.Equal(t, "30", types.FormatUnits(l.BalanceOf(bob)))
	assert.Equal(t, "0.02", types.FormatUnits(fx.Issued))
	assert.Equal(t, "1000.02", types.FormatUnits(l.TotalSupply()))
	require.NoError(t, l.Snapshot().Check())
}

func TestTransferWithoutIssuance(t *testing.T) {
	l := newLedger(t, referenceSettings(), token.NoIssuance, types.Units(100))

	_, err := l.Transfer(owner, alice, types.Units(30), t0)
	require.NoError(t, err)
	assert.Equal(t, "70", types.FormatUnits(l.BalanceOf(owner)))
	assert.Equal(t, "100", types.FormatUnits(l.TotalSupply()))
}

func TestTransferInsufficientBalanceLeavesStateUnchanged(t *testing.T) {
	s := referenceSettings()
	s.DecreaseIntervalDays = 1
	s.AfterDecreaseBp = 1000
	l := newLedger(t, s, nil, types.Units(100))
	before := l.Snapshot()

	// Decay to 90 is pending at t0+1d, so 95 cannot be sent.
	_, err := l.Transfer(owner, alice, types.Units(95), t0.Add(day))
	assert.True(t, errors.Is(err, token.ErrInsufficientBalance))
	assert.Equal(t, before, l.Snapshot())

	_, err = l.Transfer(alice, owner, types.NewAmount(1), t0)
	assert.True(t, errors.Is(err, token.ErrInsufficientBalance))
	assert.Equal(t, before, l.Snapshot())
}

func TestTransferRejectsBadInput(t *testing.T) {
	l := newLedger(t, referenceSettings(), nil, types.Units(100))
	before := l.Snapshot()

	_, err := l.Transfer(owner, alice, types.NewAmount(-1), t0)
	assert.ErrorIs(t, err, token.ErrInvalidAmount)
	_, err = l.Transfer(owner, types.ZeroAddress, types.Units(1), t0)
	assert.ErrorIs(t, err, token.ErrInvalidAccount)
	assert.Equal(t, before, l.Snapshot())
}

func TestDecayCheck(t *testing.T) {
	s := referenceSettings()
	s.DecreaseIntervalDays = 1
	s.AfterDecreaseBp = 1000
	s.MaxIncreaseOfTotalSupplyBp = 0
	l := newLedger(t, s, nil, types.Units(1000))

	fx := l.DecayCheck(t0.Add(day - time.Second))
	assert.Zero(t, fx.DecayPeriods)

	fx = l.DecayCheck(t0.Add(day))
	assert.Equal(t, int64(1), fx.DecayPeriods)
	assert.Equal(t, "900", types.FormatUnits(l.BalanceOf(owner)))
	assert.Equal(t, "100", types.FormatUnits(fx.Decayed))

	fx = l.DecayCheck(t0.Add(day))
	assert.Zero(t, fx.DecayPeriods)
	assert.Equal(t, "900", types.FormatUnits(l.TotalSupply()))

	fx = l.DecayCheck(t0.Add(3 * day))
	assert.Equal(t, int64(2), fx.DecayPeriods)
	assert.Equal(t, "729", types.FormatUnits(l.TotalSupply()))
	require.NoError(t, l.Snapshot().Check())
}

func TestDecayAppliesToEveryHolder(t *testing.T) {
	s := referenceSettings()
	s.DecreaseIntervalDays = 1
	s.AfterDecreaseBp = 5000
	s.MaxIncreaseOfTotalSupplyBp = 0
	l := newLedger(t, s, token.NoIssuance, types.Units(100))

	_, err := l.Transfer(owner, alice, types.Units(40), t0)
	require.NoError(t, err)

	fx, err := l.Transfer(alice, bob, types.Units(10), t0.Add(day))
	require.NoError(t, err)
	assert.Equal(t, int64(1), fx.DecayPeriods)
	assert.Equal(t, "30", types.FormatUnits(l.BalanceOf(owner)))
	assert.Equal(t, "10", types.FormatUnits(l.BalanceOf(alice)))
	assert.Equal(t, "10", types.FormatUnits(l.BalanceOf(bob)))
	assert.Equal(t, "50", types.FormatUnits(l.TotalSupply()))
}

func TestBonusCheck(t *testing.T) {
	s := referenceSettings()
	s.AfterDecreaseBp = 0
	l := newLedger(t, s, nil, types.Units(1000))

	fx := l.BonusCheck(t0.Add(6 * day))
	assert.Zero(t, fx.BonusPeriods)

	fx = l.BonusCheck(t0.Add(7 * day))
	assert.Equal(t, int64(1), fx.BonusPeriods)
	assert.Equal(t, "1002", types.FormatUnits(l.TotalSupply()))
	assert.Equal(t, "2", types.FormatUnits(fx.Bonus))

	fx = l.BonusCheck(t0.Add(7 * day))
	assert.Zero(t, fx.BonusPeriods)
	assert.Equal(t, "1002", types.FormatUnits(l.BalanceOf(owner)))
}

func TestIssuanceCaps(t *testing.T) {
	s := referenceSettings()
	s.AfterDecreaseBp = 0
	greedy := token.AdjusterFunc(func(token.IssuanceInput) types.Amount { return types.Units(1_000_000) })
	l := newLedger(t, s, greedy, types.Units(1000))

	// Daily cap is 1000 * 20bp = 2.
	fx, err := l.Transfer(owner, alice, types.Units(30), t0)
	require.NoError(t, err)
	assert.Equal(t, "2", types.FormatUnits(fx.Issued))

	fx, err = l.Transfer(owner, alice, types.Units(10), t0.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, fx.Issued.IsZero())

	// Per-transfer cap is 1 * 3000bp = 0.3.
	fx, err = l.Transfer(owner, alice, types.Units(1), t0.Add(day))
	require.NoError(t, err)
	assert.True(t, fx.DayRolled)
	assert.Equal(t, "0.3", types.FormatUnits(fx.Issued))
	require.NoError(t, l.Snapshot().Check())
}

func TestConservation(t *testing.T) {
	l := newLedger(t, referenceSettings(), token.NoIssuance, types.Units(1000))
	holders := []types.Address{owner, alice, bob, ledgerB}
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		from := holders[rng.Intn(len(holders))]
		to := holders[rng.Intn(len(holders))]
		amount := types.NewAmount(rng.Int63n(1_000_000_000_000_000_000))
		_, err := l.Transfer(from, to, amount, t0.Add(time.Duration(i)*time.Minute))
		if err != nil {
			require.ErrorIs(t, err, token.ErrInsufficientBalance)
		}
		require.Equal(t, "1000", types.FormatUnits(l.TotalSupply()))
		require.NoError(t, l.Snapshot().Check())
	}
}

func TestUpdateSettings(t *testing.T) {
	s := referenceSettings()
	s.DecreaseIntervalDays = 1
	s.AfterDecreaseBp = 1000
	l := newLedger(t, s, nil, types.Units(100))
	before := l.Snapshot()

	next := referenceSettings()
	next.AfterDecreaseBp = 0

	_, err := l.UpdateSettings(alice, next, t0.Add(day))
	assert.ErrorIs(t, err, settings.ErrUnauthorized)
	assert.Equal(t, before, l.Snapshot())

	bad := next
	bad.ChangeBp = 10001
	_, err = l.UpdateSettings(owner, bad, t0.Add(day))
	var verr *settings.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, before, l.Snapshot())

	// The pending period is settled under the old 10% decay.
	fx, err := l.UpdateSettings(owner, next, t0.Add(day))
	require.NoError(t, err)
	assert.Equal(t, int64(1), fx.DecayPeriods)
	assert.Equal(t, "90", types.FormatUnits(l.TotalSupply()))
	assert.Equal(t, next, l.GetSettings())
}

func TestExchangePermissions(t *testing.T) {
	s := referenceSettings()
	s.OutgoAllowMethod = permission.Include
	s.OutgoTargetTokens = []types.Address{ledgerB}
	s.IncomeAllowMethod = permission.Exclude
	s.IncomeTargetTokens = []types.Address{ledgerB}
	l := newLedger(t, s, nil, types.Units(1))

	assert.True(t, l.IsAllowOutgoExchange(ledgerB))
	assert.False(t, l.IsAllowOutgoExchange(ledgerA))
	assert.False(t, l.IsAllowIncomeExchange(ledgerB))
	assert.True(t, l.IsAllowIncomeExchange(ledgerA))
}

func TestSnapshotRestore(t *testing.T) {
	l := newLedger(t, referenceSettings(), nil, types.Units(1000))
	_, err := l.Transfer(owner, alice, types.Units(100), t0)
	require.NoError(t, err)

	snap := l.Snapshot()
	restored, err := token.Restore(snap, nil)
	require.NoError(t, err)
	assert.Equal(t, snap, restored.Snapshot())

	broken := l.Snapshot()
	broken.TotalSupply = types.Units(1)
	_, err = token.Restore(broken, nil)
	assert.Error(t, err)
}

func TestSwap(t *testing.T) {
	src := newLedger(t, referenceSettings(), nil, types.Units(100))
	dst, err := token.New(token.Config{
		Address: ledgerB, Name: "Other", Symbol: "OTH", Owner: owner,
		Settings: referenceSettings(), CreatedAt: t0,
	})
	require.NoError(t, err)

	_, _, err = token.Swap(src, dst, owner, types.Units(10), types.Units(20), t0)
	require.NoError(t, err)
	assert.Equal(t, "90", types.FormatUnits(src.TotalSupply()))
	assert.Equal(t, "20", types.FormatUnits(dst.BalanceOf(owner)))

	srcBefore, dstBefore := src.Snapshot(), dst.Snapshot()
	_, _, err = token.Swap(src, dst, owner, types.Units(1000), types.Units(1), t0)
	assert.ErrorIs(t, err, token.ErrInsufficientBalance)
	assert.Equal(t, srcBefore, src.Snapshot())
	assert.Equal(t, dstBefore, dst.Snapshot())

	_, _, err = token.Swap(src, src, owner, types.Units(1), types.Units(1), t0)
	assert.ErrorIs(t, err, token.ErrSameLedger)
}

func TestReset(t *testing.T) {
	l := newLedger(t, referenceSettings(), nil, types.Units(100))
	before := l.Snapshot()

	_, err := l.Transfer(owner, alice, types.Units(30), t0)
	require.NoError(t, err)
	require.NoError(t, l.Reset(before))
	assert.Equal(t, "100", types.FormatUnits(l.BalanceOf(owner)))
	assert.True(t, l.BalanceOf(alice).IsZero())

	other := before
	other.Address = ledgerB
	assert.Error(t, l.Reset(other))
}

func TestTransferRejectsOversizedAmount(t *testing.T) {
	l := newLedger(t, referenceSettings(), nil, types.Units(100))
	before := l.Snapshot()

	_, err := l.Transfer(owner, alice, types.MaxAmount().AddRaw(1), t0)
	assert.ErrorIs(t, err, token.ErrInvalidAmount)
	assert.ErrorIs(t, err, types.ErrOverflow)
	assert.Equal(t, before, l.Snapshot())
}

func TestMintOverflowLeavesLedgerUnchanged(t *testing.T) {
	s := referenceSettings()
	s.AfterDecreaseBp = 0
	l := newLedger(t, s, nil, types.MaxAmount().Sub(types.Units(1)))
	before := l.Snapshot()

	// The settled markers are rolled back with the failed mint.
	_, err := l.Mint(alice, types.Units(2), t0.Add(8*day))
	assert.ErrorIs(t, err, types.ErrOverflow)
	assert.Equal(t, before, l.Snapshot())
}

func TestBonusForfeitedAtMaxAmount(t *testing.T) {
	l := newLedger(t, referenceSettings(), token.NoIssuance, types.MaxAmount())

	fx := l.BonusCheck(t0.Add(7 * day))
	assert.Zero(t, fx.BonusPeriods)
	assert.True(t, l.TotalSupply().Equal(types.MaxAmount()))
	require.NoError(t, l.Snapshot().Check())

	// The marker advanced, so the same week is not retried.
	fx = l.BonusCheck(t0.Add(7 * day))
	assert.Zero(t, fx.BonusPeriods)
}

func TestSwapMintOverflowLeavesBothUnchanged(t *testing.T) {
	src := newLedger(t, referenceSettings(), nil, types.Units(100))
	dst, err := token.New(token.Config{
		Address: ledgerB, Name: "Other", Symbol: "OTH", Owner: owner,
		Settings: referenceSettings(), CreatedAt: t0,
	})
	require.NoError(t, err)
	_, err = dst.Mint(owner, types.MaxAmount(), t0)
	require.NoError(t, err)

	srcBefore, dstBefore := src.Snapshot(), dst.Snapshot()
	_, _, err = token.Swap(src, dst, owner, types.Units(10), types.Units(1), t0)
	assert.ErrorIs(t, err, types.ErrOverflow)
	assert.Equal(t, srcBefore, src.Snapshot())
	assert.Equal(t, dstBefore, dst.Snapshot())
}

func TestStateTimestampsFollowCallerClock(t *testing.T) {
	l := newLedger(t, referenceSettings(), nil, types.Units(100))
	at := t0.Add(3 * time.Hour)

	_, err := l.Transfer(owner, alice, types.Units(10), at)
	require.NoError(t, err)

	st := l.Snapshot()
	assert.Equal(t, t0, st.CreatedAt)
	assert.Equal(t, at, st.UpdatedAt)

	_, err = l.Transfer(owner, alice, types.Units(1000), at.Add(time.Hour))
	require.Error(t, err)
	assert.Equal(t, at, l.Snapshot().UpdatedAt)
}
