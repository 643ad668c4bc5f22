package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/pcetoken/types"
)

const referenceScenario = `
start: 2029-06-06T00:00:00Z
tokens:
  - id: argt
    creator: "0x00000000000000000000000000000000000000a1"
    name: Arigato
    symbol: ARGT
    amount_to_exchange: "1000"
    decrease_interval_days: 7
    decrease_bp: 20
    max_increase_of_total_supply_bp: 20
    max_increase_bp: 2000
    max_usage_bp: 3000
    change_bp: 3000
    income_allow_method: all
    outgo_allow_method: all
steps:
  - transfer:
      token: argt
      from: "0x00000000000000000000000000000000000000a1"
      to: "0x00000000000000000000000000000000000000a2"
      amount: "100"
  - transfer:
      token: argt
      from: "0x00000000000000000000000000000000000000a2"
      to: "0x00000000000000000000000000000000000000a3"
      amount: "30"
expect:
  - token: argt
    holder: "0x00000000000000000000000000000000000000a2"
    balance: "70.02"
  - token: argt
    supply: "1000.02"
`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScenarioReference(t *testing.T) {
	sc, err := LoadScenario(strings.NewReader(referenceScenario))
	require.NoError(t, err)

	res, err := sc.Run(context.Background(), quietLogger())
	require.NoError(t, err)
	assert.Empty(t, res.Failures)

	bob := types.MustParseAddress("0x00000000000000000000000000000000000000a3")
	bal, err := res.Engine.BalanceOf(res.Tokens["argt"], bob)
	require.NoError(t, err)
	assert.Equal(t, "30", types.FormatUnits(bal))
}

func TestScenarioReportsUnmetExpectation(t *testing.T) {
	src := strings.Replace(referenceScenario, `balance: "70.02"`, `balance: "70"`, 1)
	sc, err := LoadScenario(strings.NewReader(src))
	require.NoError(t, err)

	res, err := sc.Run(context.Background(), quietLogger())
	require.NoError(t, err)
	require.Len(t, res.Failures, 1)
	assert.Contains(t, res.Failures[0], "got 70.02")
}

func TestScenarioRejectsUnknownFields(t *testing.T) {
	_, err := LoadScenario(strings.NewReader("start: 2029-06-06T00:00:00Z\nbogus: 1\n"))
	assert.Error(t, err)
}

func TestScenarioRequiresStart(t *testing.T) {
	_, err := LoadScenario(strings.NewReader("steps: []\n"))
	assert.ErrorContains(t, err, "start is required")
}

func TestScenarioRejectsOversizedAmount(t *testing.T) {
	src := strings.Replace(referenceScenario, `amount: "30"`, `amount: "1e80"`, 1)
	sc, err := LoadScenario(strings.NewReader(src))
	require.NoError(t, err)

	_, err = sc.Run(context.Background(), quietLogger())
	assert.ErrorIs(t, err, types.ErrOverflow)
}

func TestScenarioUnknownTokenStep(t *testing.T) {
	sc, err := LoadScenario(strings.NewReader("start: 2029-06-06T00:00:00Z\nsteps:\n  - catch_up: missing\n"))
	require.NoError(t, err)

	_, err = sc.Run(context.Background(), quietLogger())
	assert.ErrorContains(t, err, `unknown token "missing"`)
}

func TestSimulateCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(referenceScenario))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs([]string{"simulate", "-"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "supply=1000.02")
	alice := types.MustParseAddress("0x00000000000000000000000000000000000000a2")
	assert.Contains(t, out.String(), alice.Hex()+" 70.02")
}
