package audithook_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audithook "github.com/xraph/pcetoken/audit_hook"
	"github.com/xraph/pcetoken/plugin"
	"github.com/xraph/pcetoken/registry"
	"github.com/xraph/pcetoken/types"
)

var (
	tokenAddr = types.MustParseAddress("0x00000000000000000000000000000000000000a1")
	alice     = types.MustParseAddress("0x00000000000000000000000000000000000000aa")
	bob       = types.MustParseAddress("0x00000000000000000000000000000000000000bb")
)

func collect() (*[]*audithook.AuditEvent, audithook.RecorderFunc) {
	var events []*audithook.AuditEvent
	return &events, func(_ context.Context, e *audithook.AuditEvent) error {
		events = append(events, e)
		return nil
	}
}

func TestRecordsTokenCreated(t *testing.T) {
	events, rec := collect()
	ext := audithook.New(rec)

	err := ext.OnTokenCreated(context.Background(), registry.Entry{
		Address:      tokenAddr,
		Name:         "Arigato",
		Symbol:       "ARGT",
		Creator:      alice,
		ExchangeRate: types.OneUnit(),
	})
	require.NoError(t, err)
	require.Len(t, *events, 1)

	evt := (*events)[0]
	assert.Equal(t, audithook.ActionTokenCreated, evt.Action)
	assert.Equal(t, tokenAddr.Hex(), evt.ResourceID)
	assert.False(t, evt.ID.IsNil())
	assert.Equal(t, "aud", evt.ID.Prefix())
	assert.Equal(t, "ARGT", evt.Metadata["symbol"])
}

func TestEnabledActions(t *testing.T) {
	events, rec := collect()
	ext := audithook.New(rec, audithook.WithEnabledActions(audithook.ActionTransfer))
	ctx := context.Background()

	_ = ext.OnTokenCreated(ctx, registry.Entry{Address: tokenAddr})
	_ = ext.OnTransfer(ctx, plugin.TransferEvent{Token: tokenAddr, From: alice, To: bob, Amount: types.Units(3)})

	require.Len(t, *events, 1, "expected only the transfer event")
	assert.Equal(t, audithook.ActionTransfer, (*events)[0].Action)
	assert.Equal(t, types.Units(3).String(), (*events)[0].Metadata["amount"])
}

func TestDisabledActions(t *testing.T) {
	events, rec := collect()
	ext := audithook.New(rec, audithook.WithDisabledActions(audithook.ActionDecayApplied))
	ctx := context.Background()

	_ = ext.OnDecayApplied(ctx, tokenAddr, 1, types.Units(100))
	_ = ext.OnBonusIssued(ctx, tokenAddr, 1, types.Units(2))

	require.Len(t, *events, 1, "expected only the bonus event")
	assert.Equal(t, audithook.ActionBonusIssued, (*events)[0].Action)
}

func TestRecorderFailureIsSwallowed(t *testing.T) {
	ext := audithook.New(audithook.RecorderFunc(func(context.Context, *audithook.AuditEvent) error {
		return errors.New("backend down")
	}))
	err := ext.OnIssuance(context.Background(), tokenAddr, alice, types.Units(1))
	assert.NoError(t, err, "recorder failures must not propagate")
}
