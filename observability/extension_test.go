package observability_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xraph/pcetoken/observability"
	"github.com/xraph/pcetoken/plugin"
	"github.com/xraph/pcetoken/registry"
	"github.com/xraph/pcetoken/types"
)

type counter struct{ v float64 }

func (c *counter) Inc()          { c.v++ }
func (c *counter) Add(v float64) { c.v += v }

type histogram struct{ obs []float64 }

func (h *histogram) Observe(v float64) { h.obs = append(h.obs, v) }

type factory struct {
	counters   map[string]*counter
	histograms map[string]*histogram
}

func newFactory() *factory {
	return &factory{counters: map[string]*counter{}, histograms: map[string]*histogram{}}
}

func (f *factory) Counter(name string) observability.Counter {
	c := &counter{}
	f.counters[name] = c
	return c
}

func (f *factory) Histogram(name string) observability.Histogram {
	h := &histogram{}
	f.histograms[name] = h
	return h
}

func TestMetricsExtension(t *testing.T) {
	f := newFactory()
	m := observability.NewMetricsExtension(f)
	ctx := context.Background()
	tok := types.MustParseAddress("0x00000000000000000000000000000000000000a1")

	_ = m.OnTokenCreated(ctx, registry.Entry{Address: tok})
	_ = m.OnTransfer(ctx, plugin.TransferEvent{Token: tok, Amount: types.MustParseUnits("30")})
	_ = m.OnDecayApplied(ctx, tok, 3, types.Units(271))
	_ = m.OnExchange(ctx, registry.ExchangeResult{Burned: types.Units(10), Minted: types.Units(30)})

	assert.Equal(t, 1.0, f.counters["pcetoken.token.created"].v)
	assert.Equal(t, 3.0, f.counters["pcetoken.decay.periods"].v)
	assert.Equal(t, []float64{30}, f.histograms["pcetoken.transfer.amount"].obs)
	assert.Equal(t, []float64{30}, f.histograms["pcetoken.exchange.minted"].obs)
}
