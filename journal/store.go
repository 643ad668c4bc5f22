package journal

import (
	"context"
	"time"

	"github.com/xraph/pcetoken/types"
)

// Store persists journal entries.
type Store interface {
	AppendJournal(ctx context.Context, entries []*Entry) error
	ListJournal(ctx context.Context, token types.Address, opts ListOpts) ([]*Entry, error)
}

// ListOpts filters ListJournal. Zero values mean no filter.
type ListOpts struct {
	Kind   Kind
	Start  time.Time
	End    time.Time
	Limit  int
	Offset int
}

// Match reports whether e passes the kind and time filters.
func (o ListOpts) Match(e *Entry) bool {
	if o.Kind != "" && e.Kind != o.Kind {
		return false
	}
	if !o.Start.IsZero() && e.At.Before(o.Start) {
		return false
	}
	if !o.End.IsZero() && !e.At.Before(o.End) {
		return false
	}
	return true
}
