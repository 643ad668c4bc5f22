package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/xraph/pcetoken/types"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate FILE",
	Short: "Run a YAML token scenario against an in-memory engine",
	Long: `Run a YAML token scenario against an in-memory engine and print the
final supply and balances of every token. Use "-" to read from stdin.

The run fails when any expectation in the scenario is not met.`,
	Args: cobra.ExactArgs(1),
	RunE: runSimulate,
}

func runSimulate(cmd *cobra.Command, args []string) error {
	var r io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	sc, err := LoadScenario(r)
	if err != nil {
		return err
	}
	res, err := sc.Run(cmd.Context(), logger)
	if err != nil {
		return err
	}
	defer res.Engine.Stop(cmd.Context()) //nolint:errcheck // memory store

	out := cmd.OutOrStdout()
	for _, id := range sortedIDs(res.Tokens) {
		addr := res.Tokens[id]
		supply, err := res.Engine.TotalSupply(addr)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %s supply=%s\n", id, addr.Hex(), types.FormatUnits(supply))

		holders := scenarioHolders(sc, id)
		for _, h := range holders {
			bal, err := res.Engine.BalanceOf(addr, h)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "  %s %s\n", h.Hex(), types.FormatUnits(bal))
		}
	}

	for _, f := range res.Failures {
		fmt.Fprintf(cmd.ErrOrStderr(), "FAIL %s\n", f)
	}
	if n := len(res.Failures); n > 0 {
		return fmt.Errorf("%d expectation(s) not met", n)
	}
	return nil
}

// scenarioHolders lists every account a scenario touches on one token.
func scenarioHolders(sc *Scenario, id string) []types.Address {
	var addrs []types.Address
	for _, ts := range sc.Tokens {
		if ts.ID == id {
			addrs = append(addrs, ts.Creator)
		}
	}
	for _, st := range sc.Steps {
		if st.Transfer != nil && st.Transfer.Token == id {
			addrs = append(addrs, st.Transfer.From, st.Transfer.To)
		}
		if st.Exchange != nil && (st.Exchange.From == id || st.Exchange.To == id) {
			addrs = append(addrs, st.Exchange.Holder)
		}
	}
	for _, exp := range sc.Expect {
		if exp.Token == id && exp.Holder != types.ZeroAddress {
			addrs = append(addrs, exp.Holder)
		}
	}
	return types.UniqueAddresses(addrs)
}
