package pcetoken_test

import (
	"context"
	"log"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/pcetoken"
	"github.com/xraph/pcetoken/journal"
	"github.com/xraph/pcetoken/store/memory"
)

// TestDocumentationExamples verifies that the package documentation examples work.
func TestDocumentationExamples(t *testing.T) {
	t.Run("QuickStartExample", func(t *testing.T) {
		ctx := context.Background()

		e := pcetoken.New(memory.New(),
			pcetoken.WithLogger(slog.Default()),
		)
		require.NoError(t, e.Start(ctx))
		defer e.Stop(ctx)

		creator := pcetoken.MustParseAddress("0x00000000000000000000000000000000000000c1")
		friend := pcetoken.MustParseAddress("0x00000000000000000000000000000000000000f1")

		addr, err := e.CreateToken(ctx, creator, pcetoken.CreateParams{
			Name:                       "Arigato",
			Symbol:                     "ARGT",
			AmountToExchange:           pcetoken.Units(1000),
			DilutionFactor:             pcetoken.Units(1),
			DecreaseIntervalDays:       7,
			DecreaseBp:                 20,
			MaxIncreaseOfTotalSupplyBp: 20,
			MaxIncreaseBp:              2000,
			MaxUsageBp:                 3000,
			ChangeBp:                   3000,
			IncomeAllowMethod:          pcetoken.All,
			OutgoAllowMethod:           pcetoken.All,
		})
		require.NoError(t, err)

		require.NoError(t, e.Transfer(ctx, addr, creator, friend, pcetoken.Units(30)))

		balance, err := e.BalanceOf(addr, friend)
		require.NoError(t, err)
		assert.Equal(t, "30", pcetoken.FormatUnits(balance))

		cfg, err := e.GetTokenSettings(addr)
		require.NoError(t, err)
		log.Printf("settings: %v\n", cfg.Tuple())

		history, err := e.History(ctx, addr, journal.ListOpts{Kind: journal.KindTransfer})
		require.NoError(t, err)
		assert.Len(t, history, 1)
	})

	t.Run("AmountExamples", func(t *testing.T) {
		a, err := pcetoken.ParseUnits("70.02")
		require.NoError(t, err)
		assert.Equal(t, "70.02", pcetoken.FormatUnits(a))
	})
}
