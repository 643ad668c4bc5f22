package store

import (
	"context"

	"github.com/xraph/pcetoken/journal"
	"github.com/xraph/pcetoken/registry"
	"github.com/xraph/pcetoken/token"
	"github.com/xraph/pcetoken/types"
)

// Store is the unified storage interface for registry entries, ledger
// states and the journal. Methods are declared explicitly rather than by
// embedding so that backends see one flat method set.
type Store interface {
	// Registry methods
	CreateTokenEntry(ctx context.Context, e *registry.Entry) error
	GetTokenEntry(ctx context.Context, addr types.Address) (*registry.Entry, error)
	ListTokenEntries(ctx context.Context) ([]*registry.Entry, error)

	// Ledger state methods
	SaveTokenState(ctx context.Context, st *token.State) error
	GetTokenState(ctx context.Context, addr types.Address) (*token.State, error)
	ListTokenStates(ctx context.Context) ([]*token.State, error)

	// Journal methods
	AppendJournal(ctx context.Context, entries []*journal.Entry) error
	ListJournal(ctx context.Context, tok types.Address, opts journal.ListOpts) ([]*journal.Entry, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ registry.Store = Store(nil)
	_ token.Store    = Store(nil)
	_ journal.Store  = Store(nil)
)
