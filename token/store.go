package token

import (
	"context"

	"github.com/xraph/pcetoken/types"
)

// Store persists ledger states. SaveTokenState overwrites any previous
// state of the same address.
type Store interface {
	SaveTokenState(ctx context.Context, st *State) error
	GetTokenState(ctx context.Context, addr types.Address) (*State, error)
	ListTokenStates(ctx context.Context) ([]*State, error)
}
