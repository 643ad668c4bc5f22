package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xraph/pcetoken"
	"github.com/xraph/pcetoken/basetoken"
	"github.com/xraph/pcetoken/permission"
	"github.com/xraph/pcetoken/registry"
	"github.com/xraph/pcetoken/store/memory"
	"github.com/xraph/pcetoken/types"
)

var deployFlags struct {
	baseName     string
	baseSymbol   string
	owner        string
	supply       string
	name         string
	symbol       string
	exchange     string
	dilution     string
	intervalDays uint32
	decreaseBp   uint32
	maxSupplyBp  uint32
	maxIncBp     uint32
	maxUsageBp   uint32
	changeBp     uint32
	incomeMethod string
	outgoMethod  string
}

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Initialize the base token and create a community token",
	Long: `Initialize the base token with --supply minted to --owner, then create a
community token on behalf of --owner in an in-memory engine. Prints the
token address and its settings tuple as JSON.`,
	Args: cobra.NoArgs,
	RunE: runDeploy,
}

func init() {
	f := deployCmd.Flags()
	f.StringVar(&deployFlags.baseName, "base-name", "PCE Token", "base token name")
	f.StringVar(&deployFlags.baseSymbol, "base-symbol", "PCE", "base token symbol")
	f.StringVar(&deployFlags.owner, "owner", "", "owner and token creator address")
	f.StringVar(&deployFlags.supply, "supply", "10000000", "base token initial supply in units")
	f.StringVar(&deployFlags.name, "name", "", "community token name")
	f.StringVar(&deployFlags.symbol, "symbol", "", "community token symbol")
	f.StringVar(&deployFlags.exchange, "amount-to-exchange", "1000", "base tokens deposited on creation")
	f.StringVar(&deployFlags.dilution, "dilution-factor", "1", "initial supply multiplier")
	f.Uint32Var(&deployFlags.intervalDays, "decrease-interval-days", 7, "decay interval in days")
	f.Uint32Var(&deployFlags.decreaseBp, "decrease-bp", 20, "basis points removed at each decay")
	f.Uint32Var(&deployFlags.maxSupplyBp, "max-increase-of-total-supply-bp", 20, "daily issuance cap in basis points of supply")
	f.Uint32Var(&deployFlags.maxIncBp, "max-increase-bp", 2000, "per-transfer issuance cap in basis points")
	f.Uint32Var(&deployFlags.maxUsageBp, "max-usage-bp", 3000, "usage threshold in basis points")
	f.Uint32Var(&deployFlags.changeBp, "change-bp", 3000, "issuance change rate in basis points")
	f.StringVar(&deployFlags.incomeMethod, "income-allow-method", "all", "income exchange rule (none, include, exclude, all)")
	f.StringVar(&deployFlags.outgoMethod, "outgo-allow-method", "all", "outgo exchange rule (none, include, exclude, all)")
	_ = deployCmd.MarkFlagRequired("owner")
	_ = deployCmd.MarkFlagRequired("name")
	_ = deployCmd.MarkFlagRequired("symbol")
}

func runDeploy(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	owner, err := types.ParseAddress(deployFlags.owner)
	if err != nil {
		return fmt.Errorf("--owner: %w", err)
	}
	supply, err := types.ParseUnits(deployFlags.supply)
	if err != nil {
		return fmt.Errorf("--supply: %w", err)
	}
	params, err := deployParams()
	if err != nil {
		return err
	}

	base := basetoken.New()
	if err := base.Initialize(deployFlags.baseName, deployFlags.baseSymbol, owner, supply); err != nil {
		return err
	}

	eng := pcetoken.New(memory.New(),
		pcetoken.WithLogger(logger),
		pcetoken.WithBaseToken(base),
	)
	if err := eng.Start(ctx); err != nil {
		return err
	}
	defer eng.Stop(ctx) //nolint:errcheck // memory store

	addr, err := eng.CreateToken(ctx, owner, params)
	if err != nil {
		return err
	}
	ts, err := eng.GetTokenSettings(addr)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"base_token":        base.Symbol(),
		"registry":          eng.Registry().Address().Hex(),
		"token":             addr.Hex(),
		"settings":          ts.Tuple(),
		"owner_base_amount": types.FormatUnits(base.BalanceOf(owner)),
	})
}

func deployParams() (registry.CreateParams, error) {
	exchange, err := types.ParseUnits(deployFlags.exchange)
	if err != nil {
		return registry.CreateParams{}, fmt.Errorf("--amount-to-exchange: %w", err)
	}
	dilution, err := types.ParseUnits(deployFlags.dilution)
	if err != nil {
		return registry.CreateParams{}, fmt.Errorf("--dilution-factor: %w", err)
	}
	income, err := permission.ParseMethod(deployFlags.incomeMethod)
	if err != nil {
		return registry.CreateParams{}, err
	}
	outgo, err := permission.ParseMethod(deployFlags.outgoMethod)
	if err != nil {
		return registry.CreateParams{}, err
	}
	return registry.CreateParams{
		Name:                       deployFlags.name,
		Symbol:                     deployFlags.symbol,
		AmountToExchange:           exchange,
		DilutionFactor:             dilution,
		DecreaseIntervalDays:       deployFlags.intervalDays,
		DecreaseBp:                 deployFlags.decreaseBp,
		MaxIncreaseOfTotalSupplyBp: deployFlags.maxSupplyBp,
		MaxIncreaseBp:              deployFlags.maxIncBp,
		MaxUsageBp:                 deployFlags.maxUsageBp,
		ChangeBp:                   deployFlags.changeBp,
		IncomeAllowMethod:          income,
		OutgoAllowMethod:           outgo,
	}, nil
}
