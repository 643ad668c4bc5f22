package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/pcetoken/id"
	"github.com/xraph/pcetoken/journal"
	"github.com/xraph/pcetoken/registry"
	"github.com/xraph/pcetoken/settings"
	"github.com/xraph/pcetoken/token"
	"github.com/xraph/pcetoken/types"
)

// SQLite has no JSONB; documents are stored as TEXT.

type tokenEntryModel struct {
	grove.BaseModel `grove:"table:pcetoken_tokens"`

	Address      string    `grove:"address,pk"`
	Name         string    `grove:"name"`
	Symbol       string    `grove:"symbol"`
	Creator      string    `grove:"creator"`
	ExchangeRate string    `grove:"exchange_rate"`
	CreatedAt    time.Time `grove:"created_at"`
}

type tokenStateModel struct {
	grove.BaseModel `grove:"table:pcetoken_token_states"`

	Address             string    `grove:"address,pk"`
	Name                string    `grove:"name"`
	Symbol              string    `grove:"symbol"`
	Owner               string    `grove:"owner"`
	TotalSupply         string    `grove:"total_supply"`
	Balances            string    `grove:"balances"`
	Settings            string    `grove:"settings"`
	LastDecayBoundary   int64     `grove:"last_decay_boundary"`
	LastBonusBoundary   int64     `grove:"last_bonus_boundary"`
	MidnightTotalSupply string    `grove:"midnight_total_supply"`
	MidnightModifiedAt  int64     `grove:"midnight_modified_at"`
	MintedToday         string    `grove:"minted_today"`
	CreatedAt           time.Time `grove:"created_at"`
	UpdatedAt           time.Time `grove:"updated_at"`
}

type journalEntryModel struct {
	grove.BaseModel `grove:"table:pcetoken_journal"`

	ID      string    `grove:"id,pk"`
	Token   string    `grove:"token"`
	Kind    string    `grove:"kind"`
	From    string    `grove:"from_address"`
	To      string    `grove:"to_address"`
	Amount  string    `grove:"amount"`
	Periods int64     `grove:"periods"`
	At      time.Time `grove:"at"`
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

func toTokenStateModel(st *token.State) (*tokenStateModel, error) {
	balances, err := json.Marshal(st.Balances)
	if err != nil {
		return nil, fmt.Errorf("encode balances: %w", err)
	}
	cfg, err := json.Marshal(st.Settings)
	if err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}
	return &tokenStateModel{
		Address:             st.Address.Hex(),
		Name:                st.Name,
		Symbol:              st.Symbol,
		Owner:               st.Owner.Hex(),
		TotalSupply:         st.TotalSupply.String(),
		Balances:            string(balances),
		Settings:            string(cfg),
		LastDecayBoundary:   st.LastDecayBoundary,
		LastBonusBoundary:   st.LastBonusBoundary,
		MidnightTotalSupply: st.MidnightTotalSupply.String(),
		MidnightModifiedAt:  st.MidnightModifiedAt,
		MintedToday:         st.MintedToday.String(),
		CreatedAt:           st.CreatedAt,
		UpdatedAt:           st.UpdatedAt,
	}, nil
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
	amounts := make([]types.Amount, 3)
	for i, raw := range []string{m.TotalSupply, m.MidnightTotalSupply, m.MintedToday} {
		if amounts[i], err = types.AmountFromString(raw); err != nil {
			return nil, err
		}
	}

	balances := make(map[types.Address]types.Amount)
	if m.Balances != "" {
		if err := json.Unmarshal([]byte(m.Balances), &balances); err != nil {
			return nil, fmt.Errorf("decode balances of %s: %w", m.Address, err)
		}
	}
	var cfg settings.TokenSettings
	if err := json.Unmarshal([]byte(m.Settings), &cfg); err != nil {
		return nil, fmt.Errorf("decode settings of %s: %w", m.Address, err)
	}

	return &token.State{
		Address:             addr,
		Name:                m.Name,
		Symbol:              m.Symbol,
		Owner:               owner,
		TotalSupply:         amounts[0],
		Balances:            balances,
		Settings:            cfg,
		LastDecayBoundary:   m.LastDecayBoundary,
		LastBonusBoundary:   m.LastBonusBoundary,
		MidnightTotalSupply: amounts[1],
		MidnightModifiedAt:  m.MidnightModifiedAt,
		MintedToday:         amounts[2],
		Entity: types.Entity{
			CreatedAt: m.CreatedAt.UTC(),
			UpdatedAt: m.UpdatedAt.UTC(),
		},
	}, nil
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
	addrs := make([]types.Address, 3)
	for i, raw := range []string{m.Token, m.From, m.To} {
		if addrs[i], err = types.ParseAddress(raw); err != nil {
			return nil, err
		}
	}
	amount, err := types.AmountFromString(m.Amount)
	if err != nil {
		return nil, err
	}
	return &journal.Entry{
		ID:      entryID,
		Token:   addrs[0],
		Kind:    journal.Kind(m.Kind),
		From:    addrs[1],
		To:      addrs[2],
		Amount:  amount,
		Periods: m.Periods,
		At:      m.At.UTC(),
	}, nil
}
