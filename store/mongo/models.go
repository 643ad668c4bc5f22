package mongo

import (
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/pcetoken/id"
	"github.com/xraph/pcetoken/journal"
	"github.com/xraph/pcetoken/permission"
	"github.com/xraph/pcetoken/registry"
	"github.com/xraph/pcetoken/settings"
	"github.com/xraph/pcetoken/token"
	"github.com/xraph/pcetoken/types"
)

// Amounts are stored as base-unit decimal strings; BSON has no 256-bit integer.

// ==================== Registry models ====================

type tokenEntryModel struct {
	grove.BaseModel `grove:"table:pcetoken_tokens"`

	Address      string    `grove:"address,pk"    bson:"_id"`
	Name         string    `grove:"name"          bson:"name"`
	Symbol       string    `grove:"symbol"        bson:"symbol"`
	Creator      string    `grove:"creator"       bson:"creator"`
	ExchangeRate string    `grove:"exchange_rate" bson:"exchange_rate"`
	CreatedAt    time.Time `grove:"created_at"    bson:"created_at"`
}

func toTokenEntryModel(e *registry.Entry) *tokenEntryModel {
	return &tokenEntryModel{
		Address:      e.Address.Hex(),
		Name:         e.Name,
		Symbol:       e.Symbol,
		Creator:      e.Creator.Hex(),
		ExchangeRate: e.ExchangeRate.String(),
		CreatedAt:    e.CreatedAt,
	}
}

func fromTokenEntryModel(m *tokenEntryModel) (*registry.Entry, error) {
	addr, err := types.ParseAddress(m.Address)
	if err != nil {
		return nil, err
	}
	creator, err := types.ParseAddress(m.Creator)
	if err != nil {
		return nil, err
	}
	rate, err := types.AmountFromString(m.ExchangeRate)
	if err != nil {
		return nil, err
	}
	return &registry.Entry{
		Address:      addr,
		Name:         m.Name,
		Symbol:       m.Symbol,
		Creator:      creator,
		CreatedAt:    m.CreatedAt.UTC(),
		ExchangeRate: rate,
	}, nil
}

// ==================== Ledger state models ====================

type settingsModel struct {
	DecreaseIntervalDays       uint32   `bson:"decrease_interval_days"`
	AfterDecreaseBp            uint32   `bson:"after_decrease_bp"`
	MaxIncreaseOfTotalSupplyBp uint32   `bson:"max_increase_of_total_supply_bp"`
	MaxIncreaseBp              uint32   `bson:"max_increase_bp"`
	MaxUsageBp                 uint32   `bson:"max_usage_bp"`
	ChangeBp                   uint32   `bson:"change_bp"`
	IncomeAllowMethod          string   `bson:"income_allow_method"`
	OutgoAllowMethod           string   `bson:"outgo_allow_method"`
	IncomeTargetTokens         []string `bson:"income_target_tokens"`
	OutgoTargetTokens          []string `bson:"outgo_target_tokens"`
}

type tokenStateModel struct {
	grove.BaseModel `grove:"table:pcetoken_token_states"`

	Address             string            `grove:"address,pk"            bson:"_id"`
	Name                string            `grove:"name"                  bson:"name"`
	Symbol              string            `grove:"symbol"                bson:"symbol"`
	Owner               string            `grove:"owner"                 bson:"owner"`
	TotalSupply         string            `grove:"total_supply"          bson:"total_supply"`
	Balances            map[string]string `grove:"balances"              bson:"balances"`
	Settings            settingsModel     `grove:"settings"              bson:"settings"`
	LastDecayBoundary   int64             `grove:"last_decay_boundary"   bson:"last_decay_boundary"`
	LastBonusBoundary   int64             `grove:"last_bonus_boundary"   bson:"last_bonus_boundary"`
	MidnightTotalSupply string            `grove:"midnight_total_supply" bson:"midnight_total_supply"`
	MidnightModifiedAt  int64             `grove:"midnight_modified_at"  bson:"midnight_modified_at"`
	MintedToday         string            `grove:"minted_today"          bson:"minted_today"`
	CreatedAt           time.Time         `grove:"created_at"            bson:"created_at"`
	UpdatedAt           time.Time         `grove:"updated_at"            bson:"updated_at"`
}

func toSettingsModel(s settings.TokenSettings) settingsModel {
	return settingsModel{
		DecreaseIntervalDays:       s.DecreaseIntervalDays,
		AfterDecreaseBp:            s.AfterDecreaseBp,
		MaxIncreaseOfTotalSupplyBp: s.MaxIncreaseOfTotalSupplyBp,
		MaxIncreaseBp:              s.MaxIncreaseBp,
		MaxUsageBp:                 s.MaxUsageBp,
		ChangeBp:                   s.ChangeBp,
		IncomeAllowMethod:          s.IncomeAllowMethod.String(),
		OutgoAllowMethod:           s.OutgoAllowMethod.String(),
		IncomeTargetTokens:         hexList(s.IncomeTargetTokens),
		OutgoTargetTokens:          hexList(s.OutgoTargetTokens),
	}
}

func fromSettingsModel(m settingsModel) (settings.TokenSettings, error) {
	income, err := permission.ParseMethod(m.IncomeAllowMethod)
	if err != nil {
		return settings.TokenSettings{}, err
	}
	outgo, err := permission.ParseMethod(m.OutgoAllowMethod)
	if err != nil {
		return settings.TokenSettings{}, err
	}
	incomeTargets, err := parseHexList(m.IncomeTargetTokens)
	if err != nil {
		return settings.TokenSettings{}, err
	}
	outgoTargets, err := parseHexList(m.OutgoTargetTokens)
	if err != nil {
		return settings.TokenSettings{}, err
	}
	return settings.TokenSettings{
		DecreaseIntervalDays:       m.DecreaseIntervalDays,
		AfterDecreaseBp:            m.AfterDecreaseBp,
		MaxIncreaseOfTotalSupplyBp: m.MaxIncreaseOfTotalSupplyBp,
		MaxIncreaseBp:              m.MaxIncreaseBp,
		MaxUsageBp:                 m.MaxUsageBp,
		ChangeBp:                   m.ChangeBp,
		IncomeAllowMethod:          income,
		OutgoAllowMethod:           outgo,
		IncomeTargetTokens:         incomeTargets,
		OutgoTargetTokens:          outgoTargets,
	}, nil
}

func toTokenStateModel(st *token.State) *tokenStateModel {
	balances := make(map[string]string, len(st.Balances))
	for holder, b := range st.Balances {
		balances[holder.Hex()] = b.String()
	}
	return &tokenStateModel{
		Address:             st.Address.Hex(),
		Name:                st.Name,
		Symbol:              st.Symbol,
		Owner:               st.Owner.Hex(),
		TotalSupply:         st.TotalSupply.String(),
		Balances:            balances,
		Settings:            toSettingsModel(st.Settings),
		LastDecayBoundary:   st.LastDecayBoundary,
		LastBonusBoundary:   st.LastBonusBoundary,
		MidnightTotalSupply: st.MidnightTotalSupply.String(),
		MidnightModifiedAt:  st.MidnightModifiedAt,
		MintedToday:         st.MintedToday.String(),
		CreatedAt:           st.CreatedAt,
		UpdatedAt:           st.UpdatedAt,
	}
}

func fromTokenStateModel(m *tokenStateModel) (*token.State, error) {
	addr, err := types.ParseAddress(m.Address)
	if err != nil {
		return nil, err
	}
	owner, err := types.ParseAddress(m.Owner)
	if err != nil {
		return nil, err
	}
	supply, err := types.AmountFromString(m.TotalSupply)
	if err != nil {
		return nil, err
	}
	midnight, err := types.AmountFromString(m.MidnightTotalSupply)
	if err != nil {
		return nil, err
	}
	minted, err := types.AmountFromString(m.MintedToday)
	if err != nil {
		return nil, err
	}
	cfg, err := fromSettingsModel(m.Settings)
	if err != nil {
		return nil, fmt.Errorf("decode settings of %s: %w", m.Address, err)
	}

	balances := make(map[types.Address]types.Amount, len(m.Balances))
	for raw, v := range m.Balances {
		holder, err := types.ParseAddress(raw)
		if err != nil {
			return nil, err
		}
		b, err := types.AmountFromString(v)
		if err != nil {
			return nil, err
		}
		balances[holder] = b
	}

	return &token.State{
		Address:             addr,
		Name:                m.Name,
		Symbol:              m.Symbol,
		Owner:               owner,
		TotalSupply:         supply,
		Balances:            balances,
		Settings:            cfg,
		LastDecayBoundary:   m.LastDecayBoundary,
		LastBonusBoundary:   m.LastBonusBoundary,
		MidnightTotalSupply: midnight,
		MidnightModifiedAt:  m.MidnightModifiedAt,
		MintedToday:         minted,
		Entity: types.Entity{
			CreatedAt: m.CreatedAt.UTC(),
			UpdatedAt: m.UpdatedAt.UTC(),
		},
	}, nil
}

// ==================== Journal models ====================

type journalEntryModel struct {
	grove.BaseModel `grove:"table:pcetoken_journal"`

	ID      string    `grove:"id,pk"        bson:"_id"`
	Token   string    `grove:"token"        bson:"token"`
	Kind    string    `grove:"kind"         bson:"kind"`
	From    string    `grove:"from_address" bson:"from_address"`
	To      string    `grove:"to_address"   bson:"to_address"`
	Amount  string    `grove:"amount"       bson:"amount"`
	Periods int64     `grove:"periods"      bson:"periods"`
	At      time.Time `grove:"at"           bson:"at"`
}

func toJournalEntryModel(e *journal.Entry) *journalEntryModel {
	return &journalEntryModel{
		ID:      e.ID.String(),
		Token:   e.Token.Hex(),
		Kind:    string(e.Kind),
		From:    e.From.Hex(),
		To:      e.To.Hex(),
		Amount:  e.Amount.String(),
		Periods: e.Periods,
		At:      e.At,
	}
}

func fromJournalEntryModel(m *journalEntryModel) (*journal.Entry, error) {
	entryID, err := id.ParseJournalID(m.ID)
	if err != nil {
		return nil, err
	}
	tok, err := types.ParseAddress(m.Token)
	if err != nil {
		return nil, err
	}
	from, err := types.ParseAddress(m.From)
	if err != nil {
		return nil, err
	}
	to, err := types.ParseAddress(m.To)
	if err != nil {
		return nil, err
	}
	amount, err := types.AmountFromString(m.Amount)
	if err != nil {
		return nil, err
	}
	return &journal.Entry{
		ID:      entryID,
		Token:   tok,
		Kind:    journal.Kind(m.Kind),
		From:    from,
		To:      to,
		Amount:  amount,
		Periods: m.Periods,
		At:      m.At.UTC(),
	}, nil
}

func hexList(addrs []types.Address) []string {
	if addrs == nil {
		return nil
	}
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = a.Hex()
	}
	return out
}

func parseHexList(raw []string) ([]types.Address, error) {
	if raw == nil {
		return nil, nil
	}
	out := make([]types.Address, len(raw))
	for i, s := range raw {
		a, err := types.ParseAddress(s)
		if err != nil {
			return nil, err
		}
		out[i] = a
	}
	return out, nil
}
