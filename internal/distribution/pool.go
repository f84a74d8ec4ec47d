package distribution

import (
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/aidledger/internal/model"
	"github.com/gagliardetto/solana-go"
)

// Pool registration errors.
var (
	ErrRegistrationLocked  = errors.New("pool registration is locked")
	ErrRegistrationOpen    = errors.New("pool registration must be locked before allocating")
	ErrPoolInactive        = errors.New("pool is not active")
	ErrInvalidWeight       = errors.New("registration weight must be positive")
	ErrWeightMismatch      = errors.New("registration weights do not match the pool total")
	ErrDuplicateRegistrant = errors.New("beneficiary is registered twice")
)

// Register enrols a beneficiary in pool with the given weight.
func Register(pool *model.FundPool, reg model.PoolRegistration) error {
	if pool.RegistrationLocked {
		return ErrRegistrationLocked
	}
	if !pool.IsActive {
		return ErrPoolInactive
	}
	if reg.Weight == 0 {
		return ErrInvalidWeight
	}
	if !reg.Pool.IsZero() && !reg.Pool.Equals(pool.Address) {
		return fmt.Errorf("%w: registration pool %s, given %s", ErrPoolMismatch, reg.Pool, pool.Address)
	}

	total, err := addChecked(pool.TotalWeight, reg.Weight)
	if err != nil {
		return fmt.Errorf("adding weight %d: %w", reg.Weight, err)
	}
	pool.TotalWeight = total
	pool.BeneficiaryCount++
	return nil
}

// LockRegistration closes registration for good. Weights are fixed from here
// on and allocation becomes possible.
func LockRegistration(pool *model.FundPool) error {
	if pool.RegistrationLocked {
		return ErrRegistrationLocked
	}
	pool.RegistrationLocked = true
	return nil
}

// Allocate splits the pool's available balance across registrations in
// proportion to weight, rounding each share down. Dust left by rounding stays
// available. Registrations whose share rounds to zero get no distribution.
// The returned distributions have no Address; callers derive it.
func Allocate(pool *model.FundPool, regs []model.PoolRegistration, now time.Time) ([]model.Distribution, error) {
	if !pool.RegistrationLocked {
		return nil, ErrRegistrationOpen
	}
	if int(pool.PctImmediate)+int(pool.PctLocked) != 100 {
		return nil, fmt.Errorf("%w: pool has %d%% + %d%%", ErrInvalidSplit, pool.PctImmediate, pool.PctLocked)
	}

	var weight uint64
	seen := make(map[solana.PublicKey]bool, len(regs))
	for _, r := range regs {
		if r.Weight == 0 {
			return nil, fmt.Errorf("%w: beneficiary %s", ErrInvalidWeight, r.Beneficiary)
		}
		if seen[r.Beneficiary] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRegistrant, r.Beneficiary)
		}
		seen[r.Beneficiary] = true

		var err error
		if weight, err = addChecked(weight, r.Weight); err != nil {
			return nil, fmt.Errorf("summing weights: %w", err)
		}
	}
	if weight == 0 || weight != pool.TotalWeight {
		return nil, fmt.Errorf("%w: registrations sum to %d, pool records %d", ErrWeightMismatch, weight, pool.TotalWeight)
	}

	out := make([]model.Distribution, 0, len(regs))
	var allocated uint64
	for _, r := range regs {
		share := mulDiv(pool.AvailableBalance, r.Weight, weight)
		if share == 0 {
			continue
		}
		immediate, locked, err := ComputeSplit(share, pool.PctImmediate, pool.PctLocked)
		if err != nil {
			return nil, err
		}

		d := model.Distribution{
			Beneficiary:     r.Beneficiary,
			Pool:            pool.Address,
			AmountAllocated: share,
			AmountImmediate: immediate,
			AmountLocked:    locked,
		}
		if locked > 0 && pool.TimeLock > 0 {
			t := now.Add(pool.TimeLock)
			d.UnlockTime = &t
		}
		if pool.ClaimWindow > 0 {
			t := now.Add(pool.ClaimWindow)
			d.ClaimDeadline = &t
		}
		out = append(out, d)
		allocated += share
	}

	distributed, err := addChecked(pool.TotalDistributed, allocated)
	if err != nil {
		return nil, fmt.Errorf("recording distribution: %w", err)
	}
	pool.AvailableBalance -= allocated
	pool.TotalDistributed = distributed
	return out, nil
}
