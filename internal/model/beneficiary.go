package model

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// VerificationStatus is the lifecycle state of a beneficiary's verification.
type VerificationStatus string

// Verification status constants.
const (
	VerificationPending  VerificationStatus = "Pending"
	VerificationVerified VerificationStatus = "Verified"
	VerificationFlagged  VerificationStatus = "Flagged"
	VerificationRejected VerificationStatus = "Rejected"
)

// Valid reports whether s is one of the known verification states.
func (s VerificationStatus) Valid() bool {
	switch s {
	case VerificationPending, VerificationVerified, VerificationFlagged, VerificationRejected:
		return true
	}
	return false
}

// Verification tracks the approvals a beneficiary has collected and any
// outstanding flag raised against it.
type Verification struct {
	FlaggedAt     *time.Time
	FlaggedBy     *solana.PublicKey
	ReviewedBy    *solana.PublicKey
	Status        VerificationStatus
	FlaggedReason string
	// Approvals is a set: it never holds the same actor twice. Order is not significant.
	Approvals []solana.PublicKey
}

// HasApproved reports whether actor already appears in the approval set.
func (v Verification) HasApproved(actor solana.PublicKey) bool {
	for _, a := range v.Approvals {
		if a.Equals(actor) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can mutate the result freely.
func (v Verification) Clone() Verification {
	out := v
	if v.Approvals != nil {
		out.Approvals = make([]solana.PublicKey, len(v.Approvals))
		copy(out.Approvals, v.Approvals)
	}
	if v.FlaggedAt != nil {
		t := *v.FlaggedAt
		out.FlaggedAt = &t
	}
	if v.FlaggedBy != nil {
		k := *v.FlaggedBy
		out.FlaggedBy = &k
	}
	if v.ReviewedBy != nil {
		k := *v.ReviewedBy
		out.ReviewedBy = &k
	}
	return out
}

// Beneficiary is a person registered by a field worker to receive aid for a disaster.
type Beneficiary struct {
	RegisteredAt time.Time
	Name         string
	DisasterID   string
	Location     string
	PhoneNumber  string
	Verification Verification
	Address      solana.PublicKey
	Authority    solana.PublicKey
	RegisteredBy solana.PublicKey
	FamilySize   uint8
}
