package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/shopspring/decimal"
)

// EtherDecimals is the number of base units (wei) in one ether, as a power of ten.
const EtherDecimals = 18

// maxAmountExponent bounds the decimal exponent of an amount in either
// direction. MaxAmount has 78 digits.
const maxAmountExponent = 78

// MaxAmount is the largest amount, 2^256-1 base units.
var MaxAmount = decimal.NewFromBigInt(math.MaxBig256, 0)

// Amount is a number of base units. Valid amounts are non-negative integers.
type Amount = decimal.Decimal

// ZeroAmount is the zero amount.
var ZeroAmount = decimal.Zero

// NewAmount returns an amount of n base units.
func NewAmount(n int64) Amount {
	return decimal.NewFromInt(n)
}

// ParseAmount parses a decimal string of base units.
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q: %v", ErrInvalidAmount, s, err)
	}
	if err := ValidateAmount(d); err != nil {
		return Amount{}, err
	}
	return d, nil
}

// ParseEther converts an ether denominated string, such as "0.5", into base units.
func ParseEther(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q: %v", ErrInvalidAmount, s, err)
	}
	wei := d.Shift(EtherDecimals)
	if err := ValidateAmount(wei); err != nil {
		return Amount{}, err
	}
	return wei, nil
}

// MustParseEther is ParseEther that panics on error. For tests and constants.
func MustParseEther(s string) Amount {
	a, err := ParseEther(s)
	if err != nil {
		panic(err)
	}
	return a
}

// FormatEther renders base units as an ether denominated string.
func FormatEther(a Amount) string {
	return a.Shift(-EtherDecimals).String()
}

// ValidateAmount returns ErrInvalidAmount unless a is a non-negative integer
// no greater than MaxAmount. The exponent is checked first so that no digit
// expansion happens for out of range values.
func ValidateAmount(a Amount) error {
	if exp := a.Exponent(); exp > maxAmountExponent || exp < -maxAmountExponent {
		return fmt.Errorf("%w: exponent %d is out of range", ErrInvalidAmount, exp)
	}
	if a.IsNegative() {
		return fmt.Errorf("%w: %s is negative", ErrInvalidAmount, a)
	}
	if !a.IsInteger() {
		return fmt.Errorf("%w: %s is not a whole number of base units", ErrInvalidAmount, a)
	}
	if a.GreaterThan(MaxAmount) {
		return fmt.Errorf("%w: %s exceeds %s", ErrInvalidAmount, a, MaxAmount)
	}
	return nil
}
