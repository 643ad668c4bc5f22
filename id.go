package pcetoken

import "github.com/xraph/pcetoken/id"

// ID is the identifier type of journal entries and audit events.
type ID = id.ID

// Prefix identifies the record type encoded in a TypeID.
type Prefix = id.Prefix
