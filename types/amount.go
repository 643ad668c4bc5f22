// Package types provides common types used across pcetoken.
package types

import (
	"errors"
	"fmt"
	"math/big"

	sdkmath "cosmossdk.io/math"
	"github.com/shopspring/decimal"
)

// Decimals is the number of fractional digits of every token amount.
const Decimals = 18

// BpBase is the denominator of all basis-point values.
const BpBase = 10000

// MaxBitLen bounds every stored amount. The 16 bits of headroom below
// sdkmath.MaxBitLen keep basis-point products and supply sums in range.
const MaxBitLen = sdkmath.MaxBitLen - 16

// ErrOverflow is returned when a value does not fit in MaxBitLen bits.
var ErrOverflow = errors.New("types: amount overflow")

// Amount is a non-negative token quantity in base units (10^-18 of a token).
// All arithmetic is integer-only.
type Amount = sdkmath.Int

// MaxAmount returns the largest representable amount, 2^MaxBitLen-1.
func MaxAmount() Amount {
	v := new(big.Int).Lsh(big.NewInt(1), MaxBitLen)
	return sdkmath.NewIntFromBigInt(v.Sub(v, big.NewInt(1)))
}

// Fits reports whether a is non-nil, non-negative and at most MaxAmount.
func Fits(a Amount) bool {
	return !a.IsNil() && !a.IsNegative() && a.BigInt().BitLen() <= MaxBitLen
}

func fromBig(v *big.Int) (Amount, error) {
	if v.BitLen() > MaxBitLen {
		return Amount{}, fmt.Errorf("%w: %d bits", ErrOverflow, v.BitLen())
	}
	return sdkmath.NewIntFromBigInt(v), nil
}

// ZeroAmount returns a zero Amount.
func ZeroAmount() Amount { return sdkmath.ZeroInt() }

// NewAmount returns an Amount of n base units.
func NewAmount(n int64) Amount { return sdkmath.NewInt(n) }

// Units returns n whole tokens expressed in base units.
func Units(n int64) Amount {
	return sdkmath.NewInt(n).Mul(unitScale())
}

// OneUnit is 10^18 base units, the fixed-point scale used by exchange rates.
func OneUnit() Amount { return unitScale() }

// ParseUnits converts a human decimal string ("70.02") into base units.
// Inputs with more than Decimals fractional digits are rejected.
func ParseUnits(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("types: parse amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return Amount{}, fmt.Errorf("types: parse amount %q: negative", s)
	}
	shifted := d.Shift(Decimals)
	if !shifted.Equal(shifted.Truncate(0)) {
		return Amount{}, fmt.Errorf("types: parse amount %q: more than %d decimals", s, Decimals)
	}
	a, err := fromBig(shifted.BigInt())
	if err != nil {
		return Amount{}, fmt.Errorf("types: parse amount %q: %w", s, err)
	}
	return a, nil
}

// MustParseUnits is like ParseUnits but panics on error. Use for constants and tests.
func MustParseUnits(s string) Amount {
	a, err := ParseUnits(s)
	if err != nil {
		panic(err)
	}
	return a
}

// FormatUnits renders base units as a human decimal string without
// trailing zeros: FormatUnits(Units(70)) == "70".
func FormatUnits(a Amount) string {
	if a.IsNil() {
		return "0"
	}
	return decimal.NewFromBigInt(a.BigInt(), -Decimals).String()
}

// Float64 approximates a in whole tokens. Use only for metrics and display.
func Float64(a Amount) float64 {
	if a.IsNil() {
		return 0
	}
	return decimal.NewFromBigInt(a.BigInt(), -Decimals).InexactFloat64()
}

// MulBp returns a * bp / 10000, truncated. The product is formed in
// big.Int, so it cannot panic for any a that Fits and bp <= 2*BpBase.
func MulBp(a Amount, bp uint32) Amount {
	v := new(big.Int).Mul(a.BigInt(), new(big.Int).SetUint64(uint64(bp)))
	return sdkmath.NewIntFromBigInt(v.Quo(v, big.NewInt(BpBase)))
}

// MulDiv returns a * num / den, truncated. The intermediate product is
// unbounded; ErrOverflow is returned when the result exceeds MaxAmount.
func MulDiv(a, num, den Amount) (Amount, error) {
	if den.IsNil() || !den.IsPositive() {
		return Amount{}, errors.New("types: division by non-positive amount")
	}
	v := new(big.Int).Mul(a.BigInt(), num.BigInt())
	return fromBig(v.Quo(v, den.BigInt()))
}

// MinAmount returns the smaller of a and b.
func MinAmount(a, b Amount) Amount {
	if a.LT(b) {
		return a
	}
	return b
}

// AmountFromString parses a base-unit integer string as stored by the persistence layer.
func AmountFromString(s string) (Amount, error) {
	if s == "" {
		return sdkmath.ZeroInt(), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Amount{}, fmt.Errorf("types: invalid amount %q", s)
	}
	if v.Sign() < 0 {
		return Amount{}, fmt.Errorf("types: negative amount %q", s)
	}
	a, err := fromBig(v)
	if err != nil {
		return Amount{}, fmt.Errorf("types: amount %q: %w", s, err)
	}
	return a, nil
}

func unitScale() Amount {
	return sdkmath.NewIntFromBigInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(Decimals), nil))
}
