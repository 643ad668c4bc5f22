package registry_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/pcetoken/basetoken"
	"github.com/xraph/pcetoken/permission"
	"github.com/xraph/pcetoken/registry"
	"github.com/xraph/pcetoken/settings"
	"github.com/xraph/pcetoken/token"
	"github.com/xraph/pcetoken/types"
)

var (
	factory = types.MustParseAddress("0x00000000000000000000000000000000000f0000")
	owner   = types.MustParseAddress("0x0000000000000000000000000000000000000001")
	alice   = types.MustParseAddress("0x000000000000000000000000000000000000000a")

	t0 = time.Date(2029, 6, 6, 0, 0, 0, 0, time.UTC)
)

func params(name string) registry.CreateParams {
	return registry.CreateParams{
		Name:                       name,
		Symbol:                     name[:3],
		AmountToExchange:           types.Units(1000),
		DilutionFactor:             types.Units(1),
		DecreaseIntervalDays:       7,
		DecreaseBp:                 20,
		MaxIncreaseOfTotalSupplyBp: 20,
		MaxIncreaseBp:              2000,
		MaxUsageBp:                 3000,
		ChangeBp:                   3000,
		IncomeAllowMethod:          permission.All,
		OutgoAllowMethod:           permission.All,
	}
}

func TestCreateToken(t *testing.T) {
	r := registry.New(factory)

	addr, err := r.CreateToken(owner, params("Alpha"), t0)
	require.NoError(t, err)

	l, err := r.Get(addr)
	require.NoError(t, err)
	assert.Equal(t, l.TotalSupply(), l.BalanceOf(owner))
	assert.Equal(t, "1000", types.FormatUnits(l.TotalSupply()))
	assert.Equal(t, owner, l.Owner())
	assert.Equal(t, uint32(20), l.GetSettings().AfterDecreaseBp)

	e, err := r.Entry(addr)
	require.NoError(t, err)
	assert.Equal(t, "Alpha", e.Name)
	assert.Equal(t, owner, e.Creator)
	assert.Equal(t, t0, e.CreatedAt)

	second, err := r.CreateToken(owner, params("Bravo"), t0)
	require.NoError(t, err)
	assert.NotEqual(t, addr, second)
	assert.Len(t, r.Entries(), 2)
}

func TestCreateTokenDilution(t *testing.T) {
	r := registry.New(factory)
	p := params("Alpha")
	p.DilutionFactor = types.MustParseUnits("2.5")

	addr, err := r.CreateToken(owner, p, t0)
	require.NoError(t, err)
	l, err := r.Get(addr)
	require.NoError(t, err)
	assert.Equal(t, "2500", types.FormatUnits(l.BalanceOf(owner)))
}

func TestCreateTokenRejects(t *testing.T) {
	tests := []struct {
		name  string
		field string
		edit  func(*registry.CreateParams)
	}{
		{"decrease bp", "decrease_bp", func(p *registry.CreateParams) { p.DecreaseBp = 10001 }},
		{"interval", "decrease_interval_days", func(p *registry.CreateParams) { p.DecreaseIntervalDays = 0 }},
		{"usage", "max_usage_bp", func(p *registry.CreateParams) { p.MaxUsageBp = 10001 }},
		{"name", "name", func(p *registry.CreateParams) { p.Name = "" }},
		{"dilution", "dilution_factor", func(p *registry.CreateParams) { p.DilutionFactor = types.ZeroAmount() }},
		{"amount", "amount_to_exchange", func(p *registry.CreateParams) { p.AmountToExchange = types.NewAmount(-1) }},
		{"amount too large", "amount_to_exchange", func(p *registry.CreateParams) { p.AmountToExchange = types.MaxAmount().AddRaw(1) }},
		{"dilution too large", "dilution_factor", func(p *registry.CreateParams) { p.DilutionFactor = types.MaxAmount().AddRaw(1) }},
		{"initial supply overflow", "amount_to_exchange", func(p *registry.CreateParams) {
			p.AmountToExchange = types.MustParseUnits("1e39")
			p.DilutionFactor = types.MustParseUnits("1e24")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := registry.New(factory)
			p := params("Alpha")
			tt.edit(&p)

			_, err := r.CreateToken(owner, p, t0)
			var verr *settings.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Empty(t, r.Entries())
		})
	}
}

func TestPermissionScenario(t *testing.T) {
	r := registry.New(factory)

	a, err := r.CreateToken(owner, params("Alpha"), t0)
	require.NoError(t, err)

	pb := params("Bravo")
	pb.IncomeAllowMethod = permission.Include
	pb.OutgoAllowMethod = permission.Include
	pb.IncomeTargetTokens = []types.Address{a}
	pb.OutgoTargetTokens = []types.Address{a}
	b, err := r.CreateToken(owner, pb, t0)
	require.NoError(t, err)

	la, _ := r.Get(a)
	lb, _ := r.Get(b)
	assert.True(t, la.IsAllowOutgoExchange(b))
	assert.True(t, la.IsAllowOutgoExchange(a))
	assert.True(t, lb.IsAllowOutgoExchange(a))
	assert.False(t, lb.IsAllowOutgoExchange(b))
}

func TestExchange(t *testing.T) {
	r := registry.New(factory)

	a, err := r.CreateToken(owner, params("Alpha"), t0)
	require.NoError(t, err)
	pb := params("Bravo")
	pb.DilutionFactor = types.Units(3)
	pb.IncomeAllowMethod = permission.Include
	pb.IncomeTargetTokens = []types.Address{a}
	pb.OutgoAllowMethod = permission.None
	b, err := r.CreateToken(owner, pb, t0)
	require.NoError(t, err)

	res, err := r.Exchange(owner, a, b, types.Units(10), t0)
	require.NoError(t, err)
	assert.Equal(t, "30", types.FormatUnits(res.Minted))

	la, _ := r.Get(a)
	lb, _ := r.Get(b)
	assert.Equal(t, "990", types.FormatUnits(la.BalanceOf(owner)))
	assert.Equal(t, "3030", types.FormatUnits(lb.BalanceOf(owner)))
	require.NoError(t, la.Snapshot().Check())
	require.NoError(t, lb.Snapshot().Check())

	// B denies outgo entirely.
	before := lb.Snapshot()
	_, err = r.Exchange(owner, b, a, types.Units(1), t0)
	assert.ErrorIs(t, err, registry.ErrExchangeNotAllowed)
	assert.Equal(t, before, lb.Snapshot())

	_, err = r.Exchange(alice, a, b, types.Units(1), t0)
	assert.ErrorIs(t, err, token.ErrInsufficientBalance)

	_, err = r.Exchange(owner, a, alice, types.Units(1), t0)
	assert.ErrorIs(t, err, registry.ErrNotFound)
}

func TestCreateTokenWithReserve(t *testing.T) {
	bt := basetoken.New()
	require.NoError(t, bt.Initialize("PCE Token", "PCE", owner, types.Units(1500)))
	r := registry.New(factory, registry.WithReserve(bt))

	_, err := r.CreateToken(owner, params("Alpha"), t0)
	require.NoError(t, err)
	assert.Equal(t, "1000", types.FormatUnits(bt.BalanceOf(factory)))
	assert.Equal(t, "500", types.FormatUnits(bt.BalanceOf(owner)))

	_, err = r.CreateToken(owner, params("Bravo"), t0)
	assert.ErrorIs(t, err, token.ErrInsufficientBalance)
	assert.Len(t, r.Entries(), 1)
}

func TestRestore(t *testing.T) {
	src := registry.New(factory)
	addr, err := src.CreateToken(owner, params("Alpha"), t0)
	require.NoError(t, err)
	e, _ := src.Entry(addr)
	l, _ := src.Get(addr)

	dst := registry.New(factory)
	require.NoError(t, dst.Restore(e, l.Snapshot()))
	assert.ErrorIs(t, dst.Restore(e, l.Snapshot()), registry.ErrAlreadyExists)

	restored, err := dst.Get(addr)
	require.NoError(t, err)
	assert.Equal(t, l.Snapshot(), restored.Snapshot())

	next, err := dst.CreateToken(owner, params("Bravo"), t0)
	require.NoError(t, err)
	assert.NotEqual(t, addr, next)
}

func TestDiscardRefundsDeposit(t *testing.T) {
	bt := basetoken.New()
	require.NoError(t, bt.Initialize("PCE Token", "PCE", owner, types.Units(1500)))
	r := registry.New(factory, registry.WithReserve(bt))

	addr, err := r.CreateToken(owner, params("Alpha"), t0)
	require.NoError(t, err)
	require.NoError(t, r.Discard(addr))

	assert.Empty(t, r.Entries())
	assert.Equal(t, "1500", types.FormatUnits(bt.BalanceOf(owner)))
	assert.True(t, bt.BalanceOf(factory).IsZero())

	_, err = r.Get(addr)
	assert.ErrorIs(t, err, registry.ErrNotFound)
	assert.ErrorIs(t, r.Discard(addr), registry.ErrNotFound)
}

func TestCreateTokenOverflowKeepsDeposit(t *testing.T) {
	bt := basetoken.New()
	supply := types.MustParseUnits("1e40")
	require.NoError(t, bt.Initialize("PCE Token", "PCE", owner, supply))
	r := registry.New(factory, registry.WithReserve(bt))

	p := params("Alpha")
	p.AmountToExchange = types.MustParseUnits("1e39")
	p.DilutionFactor = types.MustParseUnits("1e24")
	_, err := r.CreateToken(owner, p, t0)
	var verr *settings.ValidationError
	require.ErrorAs(t, err, &verr)

	assert.Empty(t, r.Entries())
	assert.True(t, bt.BalanceOf(owner).Equal(supply))
	assert.True(t, bt.BalanceOf(factory).IsZero())
}

func TestExchangeOverflowChangesNothing(t *testing.T) {
	r := registry.New(factory)
	a, err := r.CreateToken(owner, params("Alpha"), t0)
	require.NoError(t, err)
	pb := params("Bravo")
	pb.AmountToExchange = types.NewAmount(1)
	pb.DilutionFactor = types.MaxAmount()
	b, err := r.CreateToken(owner, pb, t0)
	require.NoError(t, err)

	la, _ := r.Get(a)
	lb, _ := r.Get(b)
	aBefore, bBefore := la.Snapshot(), lb.Snapshot()

	_, err = r.Exchange(owner, a, b, types.Units(1000), t0)
	assert.ErrorIs(t, err, types.ErrOverflow)
	assert.Equal(t, aBefore, la.Snapshot())
	assert.Equal(t, bBefore, lb.Snapshot())
}
