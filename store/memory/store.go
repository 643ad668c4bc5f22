// Package memory is an in-process store. It is the default backend of the
// CLI simulator and of tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/xraph/pcetoken"
	"github.com/xraph/pcetoken/journal"
	"github.com/xraph/pcetoken/registry"
	"github.com/xraph/pcetoken/store"
	"github.com/xraph/pcetoken/token"
	"github.com/xraph/pcetoken/types"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu sync.RWMutex

	// Registry storage, in creation order
	entries []*registry.Entry
	index   map[types.Address]int

	// Ledger state storage
	states map[types.Address]*token.State

	// Journal storage, per token in append order
	journal map[types.Address][]*journal.Entry

	closed bool
}

func New() *Store {
	return &Store{
		index:   make(map[types.Address]int),
		states:  make(map[types.Address]*token.State),
		journal: make(map[types.Address][]*journal.Entry),
	}
}

// Registry Store implementation
func (s *Store) CreateTokenEntry(_ context.Context, e *registry.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return pcetoken.ErrStoreClosed
	}
	if _, exists := s.index[e.Address]; exists {
		return fmt.Errorf("%s: %w", e.Address.Hex(), pcetoken.ErrAlreadyExists)
	}
	cp := *e
	s.index[e.Address] = len(s.entries)
	s.entries = append(s.entries, &cp)
	return nil
}

func (s *Store) GetTokenEntry(_ context.Context, addr types.Address) (*registry.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i, ok := s.index[addr]; ok {
		cp := *s.entries[i]
		return &cp, nil
	}
	return nil, fmt.Errorf("%s: %w", addr.Hex(), pcetoken.ErrNotFound)
}

func (s *Store) ListTokenEntries(_ context.Context) ([]*registry.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*registry.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		cp := *e
		result = append(result, &cp)
	}
	return result, nil
}

// Ledger state Store implementation
func (s *Store) SaveTokenState(_ context.Context, st *token.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return pcetoken.ErrStoreClosed
	}
	s.states[st.Address] = cloneState(st)
	return nil
}

func (s *Store) GetTokenState(_ context.Context, addr types.Address) (*token.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if st, ok := s.states[addr]; ok {
		return cloneState(st), nil
	}
	return nil, fmt.Errorf("%s: %w", addr.Hex(), pcetoken.ErrNotFound)
}

func (s *Store) ListTokenStates(_ context.Context) ([]*token.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*token.State, 0, len(s.states))
	for _, st := range s.states {
		result = append(result, cloneState(st))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// Journal Store implementation
func (s *Store) AppendJournal(_ context.Context, entries []*journal.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return pcetoken.ErrStoreClosed
	}
	for _, e := range entries {
		cp := *e
		s.journal[e.Token] = append(s.journal[e.Token], &cp)
	}
	return nil
}

func (s *Store) ListJournal(_ context.Context, tok types.Address, opts journal.ListOpts) ([]*journal.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*journal.Entry, 0)
	for _, e := range s.journal[tok] {
		if opts.Match(e) {
			cp := *e
			result = append(result, &cp)
		}
	}

	// Apply limit/offset
	start := opts.Offset
	if start > len(result) {
		start = len(result)
	}
	end := start + opts.Limit
	if opts.Limit == 0 || end > len(result) {
		end = len(result)
	}

	return result[start:end], nil
}

// Store management
func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return pcetoken.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

func cloneState(st *token.State) *token.State {
	cp := *st
	cp.Balances = make(map[types.Address]types.Amount, len(st.Balances))
	for k, v := range st.Balances {
		cp.Balances[k] = v
	}
	cp.Settings = st.Settings.Clone()
	return &cp
}
