// Package settings holds the mutable economic configuration of one community
// token and the administrator-gated store that guards it.
package settings

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/xraph/pcetoken/permission"
	"github.com/xraph/pcetoken/types"
)

// MaxBp is the upper bound of every basis-point field.
const MaxBp = types.BpBase

// Name and symbol limits.
const (
	MaxNameLength   = 64
	MaxSymbolLength = 16
)

// ErrUnauthorized is returned when a non-administrator tries to change settings.
var ErrUnauthorized = errors.New("pcetoken: unauthorized")

// ValidationError represents a rejected field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("pcetoken: validation failed for %s: %s", e.Field, e.Message)
}

// TokenSettings is the economic configuration of a ledger. Field order is a
// compatibility contract; see Tuple.
type TokenSettings struct {
	DecreaseIntervalDays       uint32            `json:"decrease_interval_days" yaml:"decrease_interval_days"`
	AfterDecreaseBp            uint32            `json:"after_decrease_bp" yaml:"after_decrease_bp"`
	MaxIncreaseOfTotalSupplyBp uint32            `json:"max_increase_of_total_supply_bp" yaml:"max_increase_of_total_supply_bp"`
	MaxIncreaseBp              uint32            `json:"max_increase_bp" yaml:"max_increase_bp"`
	MaxUsageBp                 uint32            `json:"max_usage_bp" yaml:"max_usage_bp"`
	ChangeBp                   uint32            `json:"change_bp" yaml:"change_bp"`
	IncomeAllowMethod          permission.Method `json:"income_allow_method" yaml:"income_allow_method"`
	OutgoAllowMethod           permission.Method `json:"outgo_allow_method" yaml:"outgo_allow_method"`
	IncomeTargetTokens         []types.Address   `json:"income_target_tokens" yaml:"income_target_tokens"`
	OutgoTargetTokens          []types.Address   `json:"outgo_target_tokens" yaml:"outgo_target_tokens"`
}

// Tuple returns the settings as the ordered list external readers decode:
// decreaseIntervalDays, afterDecreaseBp, maxIncreaseOfTotalSupplyBp,
// maxIncreaseBp, maxUsageBp, changeBp, incomeAllowMethod, outgoAllowMethod,
// incomeTargetTokens, outgoTargetTokens.
func (s TokenSettings) Tuple() []any {
	return []any{
		s.DecreaseIntervalDays,
		s.AfterDecreaseBp,
		s.MaxIncreaseOfTotalSupplyBp,
		s.MaxIncreaseBp,
		s.MaxUsageBp,
		s.ChangeBp,
		s.IncomeAllowMethod,
		s.OutgoAllowMethod,
		append([]types.Address(nil), s.IncomeTargetTokens...),
		append([]types.Address(nil), s.OutgoTargetTokens...),
	}
}

// Validate checks the range invariants. It reports the first offending field.
func (s TokenSettings) Validate() error {
	if s.DecreaseIntervalDays < 1 {
		return &ValidationError{Field: "decrease_interval_days", Message: "must be at least 1"}
	}
	bps := []struct {
		field string
		value uint32
	}{
		{"after_decrease_bp", s.AfterDecreaseBp},
		{"max_increase_of_total_supply_bp", s.MaxIncreaseOfTotalSupplyBp},
		{"max_increase_bp", s.MaxIncreaseBp},
		{"max_usage_bp", s.MaxUsageBp},
		{"change_bp", s.ChangeBp},
	}
	for _, bp := range bps {
		if bp.value > MaxBp {
			return &ValidationError{Field: bp.field, Message: fmt.Sprintf("%d exceeds %d", bp.value, MaxBp)}
		}
	}
	if !s.IncomeAllowMethod.Valid() {
		return &ValidationError{Field: "income_allow_method", Message: "unknown method " + s.IncomeAllowMethod.String()}
	}
	if !s.OutgoAllowMethod.Valid() {
		return &ValidationError{Field: "outgo_allow_method", Message: "unknown method " + s.OutgoAllowMethod.String()}
	}
	return nil
}

// Clone returns a deep copy with target lists deduplicated. Nil lists stay nil.
func (s TokenSettings) Clone() TokenSettings {
	if s.IncomeTargetTokens != nil {
		s.IncomeTargetTokens = types.UniqueAddresses(s.IncomeTargetTokens)
	}
	if s.OutgoTargetTokens != nil {
		s.OutgoTargetTokens = types.UniqueAddresses(s.OutgoTargetTokens)
	}
	return s
}

// IncomeRule returns the rule governing value flowing in from other tokens.
func (s TokenSettings) IncomeRule() permission.Rule {
	return permission.Rule{Method: s.IncomeAllowMethod, Targets: s.IncomeTargetTokens}
}

// OutgoRule returns the rule governing value flowing out to other tokens.
func (s TokenSettings) OutgoRule() permission.Rule {
	return permission.Rule{Method: s.OutgoAllowMethod, Targets: s.OutgoTargetTokens}
}

// ValidateName checks a token name and symbol.
func ValidateName(name, symbol string) error {
	if err := validateLabel("name", name, MaxNameLength); err != nil {
		return err
	}
	return validateLabel("symbol", symbol, MaxSymbolLength)
}

func validateLabel(field, v string, maxLen int) error {
	if v == "" {
		return &ValidationError{Field: field, Message: "must not be empty"}
	}
	if !utf8.ValidString(v) {
		return &ValidationError{Field: field, Message: "must be valid UTF-8"}
	}
	if n := utf8.RuneCountInString(v); n > maxLen {
		return &ValidationError{Field: field, Message: fmt.Sprintf("%d characters exceeds %d", n, maxLen)}
	}
	for _, r := range v {
		if unicode.IsControl(r) {
			return &ValidationError{Field: field, Message: "must not contain control characters"}
		}
	}
	return nil
}
