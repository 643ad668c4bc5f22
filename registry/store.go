package registry

import (
	"context"

	"github.com/xraph/pcetoken/types"
)

// Store persists registry entries. Entries are never updated or deleted.
type Store interface {
	CreateTokenEntry(ctx context.Context, e *Entry) error
	GetTokenEntry(ctx context.Context, addr types.Address) (*Entry, error)
	ListTokenEntries(ctx context.Context) ([]*Entry, error)
}
