package plugin_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/pcetoken/plugin"
	"github.com/xraph/pcetoken/registry"
	"github.com/xraph/pcetoken/token"
	"github.com/xraph/pcetoken/types"
)

var tokenAddr = types.MustParseAddress("0x00000000000000000000000000000000000000a1")

type recorder struct {
	name string

	mu        sync.Mutex
	created   []types.Address
	transfers []plugin.TransferEvent
	decays    []int64
	bonuses   []int64
	issued    []types.Amount
	fail      bool
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) OnTokenCreated(_ context.Context, e registry.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, e.Address)
	if r.fail {
		return errors.New("boom")
	}
	return nil
}

func (r *recorder) OnTransfer(_ context.Context, ev plugin.TransferEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transfers = append(r.transfers, ev)
	return nil
}

func (r *recorder) OnDecayApplied(_ context.Context, _ types.Address, periods int64, _ types.Amount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decays = append(r.decays, periods)
	return nil
}

func (r *recorder) OnBonusIssued(_ context.Context, _ types.Address, periods int64, _ types.Amount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bonuses = append(r.bonuses, periods)
	return nil
}

func (r *recorder) OnIssuance(_ context.Context, _, _ types.Address, amount types.Amount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.issued = append(r.issued, amount)
	return nil
}

type slowPlugin struct{}

func (slowPlugin) Name() string { return "slow" }

func (slowPlugin) OnShutdown(ctx context.Context) error {
	select {
	case <-time.After(time.Second):
	case <-ctx.Done():
	}
	return nil
}

type fixedAdjuster struct{ name string }

func (a fixedAdjuster) Name() string { return a.name }

func (a fixedAdjuster) Adjuster() token.Adjuster { return token.NoIssuance }

func TestRegisterDuplicate(t *testing.T) {
	r := plugin.NewRegistry()
	require.NoError(t, r.Register(&recorder{name: "rec"}))
	assert.Error(t, r.Register(&recorder{name: "rec"}), "duplicate registration")
	assert.Equal(t, 1, r.Count())
	assert.NotNil(t, r.Get("rec"))
	assert.Nil(t, r.Get("missing"))
}

func TestEmitDispatchesToImplementers(t *testing.T) {
	ctx := context.Background()
	r := plugin.NewRegistry()
	rec := &recorder{name: "rec"}
	require.NoError(t, r.Register(rec))
	require.NoError(t, r.Register(slowPlugin{}))

	r.EmitTokenCreated(ctx, registry.Entry{Address: tokenAddr})
	r.EmitTransfer(ctx, plugin.TransferEvent{Token: tokenAddr, Amount: types.Units(1)})

	assert.Equal(t, []types.Address{tokenAddr}, rec.created)
	require.Len(t, rec.transfers, 1)
	assert.True(t, rec.transfers[0].Amount.Equal(types.Units(1)))
}

func TestEmitEffects(t *testing.T) {
	ctx := context.Background()
	r := plugin.NewRegistry()
	rec := &recorder{name: "rec"}
	require.NoError(t, r.Register(rec))

	r.EmitEffects(ctx, tokenAddr, tokenAddr, token.Effects{
		DecayPeriods: 2,
		Decayed:      types.Units(10),
		Bonus:        types.ZeroAmount(),
		Issued:       types.Units(1),
	})
	assert.Equal(t, []int64{2}, rec.decays)
	assert.Empty(t, rec.bonuses, "bonus should not fire")
	assert.Len(t, rec.issued, 1)

	// Zero-value effects emit nothing.
	r.EmitEffects(ctx, tokenAddr, tokenAddr, token.Effects{})
	assert.Len(t, rec.decays, 1)
	assert.Len(t, rec.issued, 1)
}

func TestEmitSurvivesPluginFailure(t *testing.T) {
	r := plugin.NewRegistry()
	failing := &recorder{name: "failing", fail: true}
	ok := &recorder{name: "ok"}
	require.NoError(t, r.Register(failing))
	require.NoError(t, r.Register(ok))

	r.EmitTokenCreated(context.Background(), registry.Entry{Address: tokenAddr})
	assert.Len(t, ok.created, 1, "second plugin should still receive the event")
}

func TestEmitTimeout(t *testing.T) {
	r := plugin.NewRegistry().WithTimeout(20 * time.Millisecond)
	require.NoError(t, r.Register(slowPlugin{}))

	start := time.Now()
	r.EmitShutdown(context.Background())
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestAdjuster(t *testing.T) {
	r := plugin.NewRegistry()
	assert.Nil(t, r.Adjuster(), "empty registry should have no adjuster")
	require.NoError(t, r.Register(fixedAdjuster{name: "first"}))
	require.NoError(t, r.Register(fixedAdjuster{name: "second"}))
	assert.NotNil(t, r.Adjuster())
}
