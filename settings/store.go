package settings

import (
	"sync"

	"github.com/xraph/pcetoken/types"
)

// Store keeps the current settings of one ledger. Only the administrator may
// replace them; a rejected update leaves the store untouched.
type Store struct {
	mu      sync.RWMutex
	admin   types.Address
	current TokenSettings
}

// NewStore validates initial and returns a store administered by admin.
func NewStore(admin types.Address, initial TokenSettings) (*Store, error) {
	if err := initial.Validate(); err != nil {
		return nil, err
	}
	return &Store{admin: admin, current: initial.Clone()}, nil
}

// Admin returns the administrator address.
func (s *Store) Admin() types.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.admin
}

// Get returns a copy of the current settings.
func (s *Store) Get() TokenSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Update replaces the settings after checking caller and ranges.
func (s *Store) Update(caller types.Address, next TokenSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if caller != s.admin {
		return ErrUnauthorized
	}
	if err := next.Validate(); err != nil {
		return err
	}
	s.current = next.Clone()
	return nil
}
