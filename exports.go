package pcetoken

import (
	"github.com/xraph/pcetoken/journal"
	"github.com/xraph/pcetoken/permission"
	"github.com/xraph/pcetoken/registry"
	"github.com/xraph/pcetoken/settings"
	"github.com/xraph/pcetoken/token"
	"github.com/xraph/pcetoken/types"
)

// Re-export common types for convenience so users don't have to import the
// domain packages.

type (
	Amount        = types.Amount
	Address       = types.Address
	TokenSettings = settings.TokenSettings
	CreateParams  = registry.CreateParams
	TokenEntry    = registry.Entry
	TokenState    = token.State
	Method        = permission.Method
	JournalEntry  = journal.Entry
)

// Re-export permission methods.
const (
	None    = permission.None
	Include = permission.Include
	Exclude = permission.Exclude
	All     = permission.All
)

// Re-export amount and address helpers.
var (
	Units            = types.Units
	ParseUnits       = types.ParseUnits
	FormatUnits      = types.FormatUnits
	ParseAddress     = types.ParseAddress
	MustParseAddress = types.MustParseAddress
)
