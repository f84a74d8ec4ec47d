// Package distribution implements the fund pool payout lifecycle: splitting an
// allocation into immediate and time-locked tranches, claiming, and reclaiming
// allocations whose claim window lapsed untouched.
package distribution

import (
	"errors"
	"fmt"
	"math/bits"
)

// Distribution errors. Lock-time and deadline errors are expected conditions
// that resolve by waiting; ErrCorruptDistribution indicates bad data and is
// never retried.
var (
	ErrInvalidSplit        = errors.New("immediate and locked percentages must sum to 100")
	ErrNothingToClaim      = errors.New("nothing to claim")
	ErrDistributionExpired = errors.New("distribution has expired")
	ErrNotExpired          = errors.New("claim deadline has not passed")
	ErrAlreadyClaimed      = errors.New("distribution has already been partly claimed")
	ErrAlreadyExpired      = errors.New("distribution was already reclaimed")
	ErrUnauthorized        = errors.New("only the pool authority may do this")
	ErrPoolMismatch        = errors.New("distribution belongs to a different pool")
	ErrCorruptDistribution = errors.New("distribution record violates its invariants")
	ErrOverflow            = errors.New("amount overflow")
)

// ComputeSplit partitions allocated by percentage. The locked tranche is
// rounded down and the remainder goes to the immediate tranche, so
// immediate+locked always equals allocated.
func ComputeSplit(allocated uint64, pctImmediate, pctLocked uint8) (immediate, locked uint64, err error) {
	if int(pctImmediate)+int(pctLocked) != 100 {
		return 0, 0, fmt.Errorf("%w: got %d%% + %d%%", ErrInvalidSplit, pctImmediate, pctLocked)
	}

	locked = mulDiv(allocated, uint64(pctLocked), 100)
	return allocated - locked, locked, nil
}

// mulDiv returns floor(a*b/c) using a 128-bit intermediate. The caller must
// guarantee b <= c so the quotient fits in 64 bits.
func mulDiv(a, b, c uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	q, _ := bits.Div64(hi, lo, c)
	return q
}

func addChecked(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrOverflow
	}
	return sum, nil
}
