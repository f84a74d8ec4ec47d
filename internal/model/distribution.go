package model

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// Distribution is a beneficiary's allocation from a fund pool, split into an
// immediately claimable tranche and a time-locked tranche.
type Distribution struct {
	UnlockTime      *time.Time
	ClaimDeadline   *time.Time
	ClaimedAt       *time.Time
	LockedClaimedAt *time.Time
	ExpiredAt       *time.Time
	AmountAllocated uint64
	AmountImmediate uint64
	AmountLocked    uint64
	AmountClaimed   uint64
	Address         solana.PublicKey
	Beneficiary     solana.PublicKey
	Pool            solana.PublicKey
	IsFullyClaimed  bool
	IsExpired       bool
}

// Unclaimed returns the part of the allocation not yet paid out.
func (d Distribution) Unclaimed() uint64 {
	if d.AmountClaimed >= d.AmountAllocated {
		return 0
	}
	return d.AmountAllocated - d.AmountClaimed
}

// ImmediateClaimed returns how much of the immediate tranche has been paid.
// The immediate tranche is always paid before any locked funds.
func (d Distribution) ImmediateClaimed() uint64 {
	if d.AmountClaimed < d.AmountImmediate {
		return d.AmountClaimed
	}
	return d.AmountImmediate
}

// LockedClaimed returns how much of the locked tranche has been paid.
func (d Distribution) LockedClaimed() uint64 {
	if d.AmountClaimed <= d.AmountImmediate {
		return 0
	}
	return d.AmountClaimed - d.AmountImmediate
}

// Unlocked reports whether the locked tranche is claimable at now.
func (d Distribution) Unlocked(now time.Time) bool {
	return d.UnlockTime == nil || !now.Before(*d.UnlockTime)
}

// DistributionStatus is a display summary of where a distribution stands.
type DistributionStatus string

// Distribution status constants.
const (
	DistributionClaimable    DistributionStatus = "claimable"
	DistributionLocked       DistributionStatus = "locked"
	DistributionFullyClaimed DistributionStatus = "fully-claimed"
	DistributionExpired      DistributionStatus = "expired"
	DistributionReclaimable  DistributionStatus = "reclaimable"
)
