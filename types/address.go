package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Address identifies both accounts and community-token ledgers.
type Address = common.Address

// ZeroAddress is the all-zero address. It never holds a balance.
var ZeroAddress Address

// ParseAddress parses a 0x-prefixed 20-byte hex address.
func ParseAddress(s string) (Address, error) {
	if !common.IsHexAddress(s) {
		return ZeroAddress, fmt.Errorf("types: invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

// MustParseAddress is like ParseAddress but panics on error.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// UniqueAddresses returns addrs with duplicates removed, keeping the order
// of first occurrence. A nil or empty input yields an empty, non-nil slice.
func UniqueAddresses(addrs []Address) []Address {
	out := make([]Address, 0, len(addrs))
	seen := make(map[Address]struct{}, len(addrs))
	for _, a := range addrs {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}
