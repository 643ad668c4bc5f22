// Package permission decides whether a community token may exchange value
// with a counterparty token, given one of four allow methods and a target list.
package permission

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xraph/pcetoken/types"
)

// Method selects how a target list is interpreted.
type Method uint8

// Numeric values are part of the external settings tuple and must not change.
const (
	None    Method = 0 // deny every counterparty
	Include Method = 1 // allow only listed counterparties
	Exclude Method = 2 // allow every counterparty except the listed ones
	All     Method = 3 // allow every counterparty
)

var methodNames = map[Method]string{
	None:    "none",
	Include: "include",
	Exclude: "exclude",
	All:     "all",
}

// String returns the lowercase method name.
func (m Method) String() string {
	if s, ok := methodNames[m]; ok {
		return s
	}
	return "method(" + strconv.Itoa(int(m)) + ")"
}

// Valid reports whether m is one of the four known methods.
func (m Method) Valid() bool {
	_, ok := methodNames[m]
	return ok
}

// ParseMethod accepts a method name (case-insensitive) or its number.
func ParseMethod(s string) (Method, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for m, name := range methodNames {
		if key == name {
			return m, nil
		}
	}
	if n, err := strconv.Atoi(key); err == nil && Method(n).Valid() && n >= 0 {
		return Method(n), nil
	}
	return None, fmt.Errorf("permission: unknown allow method %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Method) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("permission: unknown allow method %d", m)
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Method) UnmarshalText(data []byte) error {
	parsed, err := ParseMethod(string(data))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// IsAllowed resolves the decision for candidate. A token's own address gets
// no special treatment. Unknown methods deny.
func IsAllowed(method Method, targets []types.Address, candidate types.Address) bool {
	switch method {
	case All:
		return true
	case Include:
		return contains(targets, candidate)
	case Exclude:
		return !contains(targets, candidate)
	default:
		return false
	}
}

// Rule pairs a method with its target list for one exchange direction.
type Rule struct {
	Method  Method
	Targets []types.Address
}

// Allows is IsAllowed bound to r.
func (r Rule) Allows(candidate types.Address) bool {
	return IsAllowed(r.Method, r.Targets, candidate)
}

func contains(targets []types.Address, candidate types.Address) bool {
	for _, t := range targets {
		if t == candidate {
			return true
		}
	}
	return false
}
