package distribution

import (
	"fmt"
	"time"

	"github.com/Veraticus/aidledger/internal/model"
	"github.com/gagliardetto/solana-go"
)

// Validate checks the record invariants that must hold for every
// distribution, however it was obtained.
func Validate(d model.Distribution) error {
	sum, err := addChecked(d.AmountImmediate, d.AmountLocked)
	if err != nil || sum != d.AmountAllocated {
		return fmt.Errorf("%w: immediate %d + locked %d != allocated %d",
			ErrCorruptDistribution, d.AmountImmediate, d.AmountLocked, d.AmountAllocated)
	}
	if d.AmountClaimed > d.AmountAllocated {
		return fmt.Errorf("%w: claimed %d exceeds allocated %d",
			ErrCorruptDistribution, d.AmountClaimed, d.AmountAllocated)
	}
	if d.IsFullyClaimed != (d.AmountClaimed == d.AmountAllocated) {
		return fmt.Errorf("%w: fully-claimed flag is %t with %d of %d claimed",
			ErrCorruptDistribution, d.IsFullyClaimed, d.AmountClaimed, d.AmountAllocated)
	}
	if d.IsExpired {
		if d.AmountClaimed != 0 {
			return fmt.Errorf("%w: expired with %d claimed", ErrCorruptDistribution, d.AmountClaimed)
		}
		if d.ClaimDeadline == nil {
			return fmt.Errorf("%w: expired without a claim deadline", ErrCorruptDistribution)
		}
		if d.ExpiredAt != nil && !d.ExpiredAt.After(*d.ClaimDeadline) {
			return fmt.Errorf("%w: expired at %s, before deadline %s",
				ErrCorruptDistribution, d.ExpiredAt.Format(time.RFC3339), d.ClaimDeadline.Format(time.RFC3339))
		}
	}
	return nil
}

// Claimable returns what a claim at now would pay: the unclaimed immediate
// tranche plus, once unlocked, the unclaimed locked tranche. Claims stay open
// after the deadline until the pool authority reclaims the allocation.
func Claimable(d model.Distribution, now time.Time) uint64 {
	if d.IsExpired {
		return 0
	}
	amount := d.AmountImmediate - d.ImmediateClaimed()
	if d.Unlocked(now) {
		amount += d.AmountLocked - d.LockedClaimed()
	}
	return amount
}

// Claim pays out everything claimable at now and returns the amount paid. d is
// only modified on success.
func Claim(d *model.Distribution, now time.Time) (uint64, error) {
	if err := Validate(*d); err != nil {
		return 0, err
	}
	if d.IsExpired {
		return 0, ErrDistributionExpired
	}

	immediate := d.AmountImmediate - d.ImmediateClaimed()
	locked := uint64(0)
	if d.Unlocked(now) {
		locked = d.AmountLocked - d.LockedClaimed()
	}
	amount := immediate + locked

	if amount == 0 {
		if d.IsFullyClaimed {
			return 0, fmt.Errorf("%w: distribution is fully claimed", ErrNothingToClaim)
		}
		return 0, fmt.Errorf("%w: locked funds unlock at %s", ErrNothingToClaim, d.UnlockTime.Format(time.RFC3339))
	}

	at := now
	if immediate > 0 || d.ClaimedAt == nil {
		d.ClaimedAt = &at
	}
	if locked > 0 {
		d.LockedClaimedAt = &at
	}
	d.AmountClaimed += amount
	d.IsFullyClaimed = d.AmountClaimed == d.AmountAllocated
	return amount, nil
}

// Reclaim expires a distribution nobody claimed before its deadline and
// returns the allocation to the pool's available balance. Neither record is
// modified on error.
func Reclaim(d *model.Distribution, pool *model.FundPool, now time.Time, authority solana.PublicKey) error {
	if err := Validate(*d); err != nil {
		return err
	}
	if !authority.Equals(pool.Authority) {
		return ErrUnauthorized
	}
	if !d.Pool.IsZero() && !pool.Address.IsZero() && !d.Pool.Equals(pool.Address) {
		return fmt.Errorf("%w: distribution pool %s, given %s", ErrPoolMismatch, d.Pool, pool.Address)
	}
	if d.IsExpired {
		return ErrAlreadyExpired
	}
	if d.AmountClaimed > 0 {
		return fmt.Errorf("%w: %d of %d claimed", ErrAlreadyClaimed, d.AmountClaimed, d.AmountAllocated)
	}
	if d.ClaimDeadline == nil {
		return fmt.Errorf("%w: distribution has no claim deadline", ErrNotExpired)
	}
	if !now.After(*d.ClaimDeadline) {
		return fmt.Errorf("%w: deadline is %s", ErrNotExpired, d.ClaimDeadline.Format(time.RFC3339))
	}

	available, err := addChecked(pool.AvailableBalance, d.AmountAllocated)
	if err != nil {
		return fmt.Errorf("returning %d to pool: %w", d.AmountAllocated, err)
	}
	reclaimed, err := addChecked(pool.TotalReclaimed, d.AmountAllocated)
	if err != nil {
		return fmt.Errorf("returning %d to pool: %w", d.AmountAllocated, err)
	}

	at := now
	d.IsExpired = true
	d.ExpiredAt = &at
	pool.AvailableBalance = available
	pool.TotalReclaimed = reclaimed
	return nil
}

// StatusOf summarises d for display.
func StatusOf(d model.Distribution, now time.Time) model.DistributionStatus {
	switch {
	case d.IsExpired:
		return model.DistributionExpired
	case d.IsFullyClaimed:
		return model.DistributionFullyClaimed
	case d.AmountClaimed == 0 && d.ClaimDeadline != nil && now.After(*d.ClaimDeadline):
		return model.DistributionReclaimable
	case Claimable(d, now) > 0:
		return model.DistributionClaimable
	default:
		return model.DistributionLocked
	}
}
