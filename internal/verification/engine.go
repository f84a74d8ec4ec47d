// Package verification implements the multi-party approval state machine that
// moves a beneficiary from Pending to Verified, and the flag/review path an
// administrator uses to resolve disputes.
//
// Every operation takes a Verification by value and returns the updated copy,
// leaving the caller's record untouched on error.
package verification

import (
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/aidledger/internal/model"
	"github.com/gagliardetto/solana-go"
)

// Verification errors.
var (
	ErrUnderReview      = errors.New("beneficiary is flagged and under admin review")
	ErrTerminalStatus   = errors.New("verification is already final")
	ErrNotFlagged       = errors.New("beneficiary is not flagged")
	ErrInvalidThreshold = errors.New("verification threshold must be at least 1")
	ErrInvalidOutcome   = errors.New("review outcome must be Verified, Rejected or Pending")
	ErrInvalidStatus    = errors.New("unknown verification status")
	ErrEmptyReason      = errors.New("flag reason is required")
)

// Engine applies verification transitions for a given approval threshold. The
// threshold is read from platform configuration by the caller.
type Engine struct {
	Threshold int
}

// NewEngine validates threshold and returns an engine for it.
func NewEngine(threshold int) (*Engine, error) {
	if threshold < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidThreshold, threshold)
	}
	return &Engine{Threshold: threshold}, nil
}

func (e *Engine) check(v model.Verification) error {
	if e.Threshold < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidThreshold, e.Threshold)
	}
	if !v.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, v.Status)
	}
	return nil
}

// Approve records actor's approval. A repeat approval from the same actor adds
// nothing but still promotes the record once the threshold is met. Approving
// an already verified record is a no-op.
func (e *Engine) Approve(v model.Verification, actor solana.PublicKey) (model.Verification, error) {
	if err := e.check(v); err != nil {
		return v, err
	}

	switch v.Status {
	case model.VerificationFlagged:
		return v, ErrUnderReview
	case model.VerificationRejected:
		return v, fmt.Errorf("%w: beneficiary was rejected", ErrTerminalStatus)
	case model.VerificationVerified:
		return v, nil
	}

	out := v.Clone()
	if !v.HasApproved(actor) {
		out.Approvals = append(out.Approvals, actor)
	}
	if len(out.Approvals) >= e.Threshold {
		out.Status = model.VerificationVerified
	}
	return out, nil
}

// Flag moves a pending record into admin review regardless of how many
// approvals it has collected.
func (e *Engine) Flag(v model.Verification, actor solana.PublicKey, reason string, now time.Time) (model.Verification, error) {
	if err := e.check(v); err != nil {
		return v, err
	}
	if reason == "" {
		return v, ErrEmptyReason
	}

	switch v.Status {
	case model.VerificationFlagged:
		return v, ErrUnderReview
	case model.VerificationVerified, model.VerificationRejected:
		return v, fmt.Errorf("%w: beneficiary is %s", ErrTerminalStatus, v.Status)
	}

	out := v.Clone()
	out.Status = model.VerificationFlagged
	out.FlaggedReason = reason
	flagger := actor
	out.FlaggedBy = &flagger
	flaggedAt := now
	out.FlaggedAt = &flaggedAt
	out.ReviewedBy = nil
	return out, nil
}

// AdminResolve is the only way out of Flagged. Approvals gathered before the
// flag are kept. A Rejected outcome keeps the flag details for audit; the
// other outcomes clear them.
func (e *Engine) AdminResolve(v model.Verification, admin solana.PublicKey, outcome model.VerificationStatus) (model.Verification, error) {
	if err := e.check(v); err != nil {
		return v, err
	}
	if v.Status != model.VerificationFlagged {
		return v, fmt.Errorf("%w: status is %s", ErrNotFlagged, v.Status)
	}

	out := v.Clone()
	switch outcome {
	case model.VerificationRejected:
	case model.VerificationVerified, model.VerificationPending:
		out.FlaggedReason = ""
		out.FlaggedBy = nil
		out.FlaggedAt = nil
	default:
		return v, fmt.Errorf("%w: got %q", ErrInvalidOutcome, outcome)
	}

	out.Status = outcome
	reviewer := admin
	out.ReviewedBy = &reviewer
	return out, nil
}

// Progress summarises how close a record is to verification.
type Progress struct {
	Status    model.VerificationStatus
	Approvals int
	Threshold int
}

// Remaining returns how many more approvals are needed, or zero.
func (p Progress) Remaining() int {
	if p.Approvals >= p.Threshold {
		return 0
	}
	return p.Threshold - p.Approvals
}

func (p Progress) String() string {
	return fmt.Sprintf("%s (%d/%d approvals)", p.Status, p.Approvals, p.Threshold)
}

// Progress reports v's approval count against the engine threshold.
func (e *Engine) Progress(v model.Verification) Progress {
	return Progress{
		Status:    v.Status,
		Approvals: len(v.Approvals),
		Threshold: e.Threshold,
	}
}
