// Package journal is the append-only history of every mutation applied to
// community-token ledgers.
package journal

import (
	"time"

	"github.com/xraph/pcetoken/id"
	"github.com/xraph/pcetoken/types"
)

// Kind classifies a journal entry.
type Kind string

const (
	KindCreate      Kind = "create"
	KindTransfer    Kind = "transfer"
	KindIssuance    Kind = "issuance"
	KindDecay       Kind = "decay"
	KindBonus       Kind = "bonus"
	KindSettings    Kind = "settings"
	KindExchangeOut Kind = "exchange_out"
	KindExchangeIn  Kind = "exchange_in"
)

// Entry is one line of a ledger's history. For decay and bonus entries
// Amount is the supply change and Periods the number of boundaries crossed.
type Entry struct {
	ID      id.JournalID  `json:"id"`
	Token   types.Address `json:"token"`
	Kind    Kind          `json:"kind"`
	From    types.Address `json:"from"`
	To      types.Address `json:"to"`
	Amount  types.Amount  `json:"amount"`
	Periods int64         `json:"periods,omitempty"`
	At      time.Time     `json:"at"`
}

// New returns an entry with a fresh ID.
func New(token types.Address, kind Kind, at time.Time) *Entry {
	return &Entry{
		ID:     id.NewJournalID(),
		Token:  token,
		Kind:   kind,
		Amount: types.ZeroAmount(),
		At:     at.UTC(),
	}
}
