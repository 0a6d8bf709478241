package vault

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/dmitrijs2005/solvault/internal/common"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// SOLDecimals is the number of fractional digits between SOL and lamports.
const SOLDecimals = 9

// DisplayDecimals is how many fractional digits balances are rendered with.
const DisplayDecimals = 4

// LamportsPerSOL is the fixed conversion factor between the two units.
const LamportsPerSOL = solana.LAMPORTS_PER_SOL

var maxLamports = decimal.NewFromBigInt(new(big.Int).SetUint64(math.MaxUint64), 0)

// maxSOLDigits is the number of integer digits of the largest SOL amount
// that fits in a uint64 of lamports.
const maxSOLDigits = 11

// ToLamports converts a SOL amount to lamports, truncating toward zero.
// Amounts that truncate to zero lamports are rejected.
func ToLamports(sol decimal.Decimal) (uint64, error) {
	if !sol.IsPositive() {
		return 0, ErrInvalidAmount
	}

	// Magnitude checks on the coefficient and exponent keep huge exponents
	// away from Shift and Truncate.
	magnitude := int64(sol.NumDigits()) + int64(sol.Exponent())
	if magnitude <= -SOLDecimals {
		return 0, fmt.Errorf("%w: below one lamport", ErrInvalidAmount)
	}
	if magnitude > maxSOLDigits {
		return 0, fmt.Errorf("%w: too large", ErrInvalidAmount)
	}

	lamports := sol.Shift(SOLDecimals).Truncate(0)
	if lamports.IsZero() {
		return 0, fmt.Errorf("%w: below one lamport", ErrInvalidAmount)
	}
	if lamports.GreaterThan(maxLamports) {
		return 0, fmt.Errorf("%w: too large", ErrInvalidAmount)
	}

	return lamports.BigInt().Uint64(), nil
}

// ParseSOL parses a user-entered decimal SOL amount into lamports.
func ParseSOL(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	d, err := decimal.NewFromString(s)
	if err == nil {
		var lamports uint64
		if lamports, err = ToLamports(d); err == nil {
			return lamports, nil
		}
	} else {
		err = ErrInvalidAmount
	}
	return 0, fmt.Errorf("%q: %w", common.Truncate(s, 12), err)
}

// FromLamports converts lamports to an exact SOL amount.
func FromLamports(lamports uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -SOLDecimals)
}

// FormatSOL renders a SOL amount with DisplayDecimals fractional digits.
func FormatSOL(sol decimal.Decimal) string {
	return sol.StringFixed(DisplayDecimals)
}
