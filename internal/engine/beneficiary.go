package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/aidledger/internal/model"
	"github.com/Veraticus/aidledger/internal/submit"
	"github.com/gagliardetto/solana-go"
)

// Verify records the wallet's approval of a beneficiary.
func (e *Engine) Verify(ctx context.Context, authority solana.PublicKey, disasterID string) (*submit.Result, error) {
	const label, title = "verify", "Verification Failed"
	worker := e.client.Wallet()

	verifier, err := e.Verifier(ctx)
	if err != nil {
		return nil, e.reject(ctx, label, err, title)
	}
	ben, err := e.Beneficiary(ctx, authority, disasterID)
	if err != nil {
		return nil, e.reject(ctx, label, err, title)
	}
	v := ben.Verification
	if v.Status == model.VerificationVerified {
		return nil, e.reject(ctx, label, ErrAlreadyVerified, title)
	}
	if v.HasApproved(worker) {
		return nil, e.reject(ctx, label, ErrAlreadyApproved, title)
	}
	next, err := verifier.Approve(v, worker)
	if err != nil {
		return nil, e.reject(ctx, label, err, title)
	}

	before, after := verifier.Progress(v), verifier.Progress(next)
	details := fmt.Sprintf("Approve %s (%s)\n%s -> %s", ben.Name, ben.Address, before, after)
	if err := e.confirm(ctx, label, details, "Submit approval?"); err != nil {
		return nil, err
	}

	ix, err := e.program.VerifyBeneficiary(worker, authority, disasterID)
	if err != nil {
		return nil, e.reject(ctx, label, err, title)
	}

	slog.Info("Submitting approval", "beneficiary", ben.Address, "progress", after.String())
	return e.send(ctx, label, ix, submit.Options{
		ErrorTitle:     title,
		SuccessMessage: "Approval recorded: " + after.String(),
	})
}

// Flag raises a fraud flag against a beneficiary, suspending verification
// until an admin reviews it.
func (e *Engine) Flag(ctx context.Context, authority solana.PublicKey, disasterID, reason string) (*submit.Result, error) {
	const label, title = "flag", "Flag Failed"
	worker := e.client.Wallet()

	ben, err := e.Beneficiary(ctx, authority, disasterID)
	if err != nil {
		return nil, e.reject(ctx, label, err, title)
	}
	if _, err := e.verifier.Flag(ben.Verification, worker, reason, e.now()); err != nil {
		return nil, e.reject(ctx, label, err, title)
	}

	details := fmt.Sprintf("Flag %s (%s)\nReason: %s", ben.Name, ben.Address, reason)
	if err := e.confirm(ctx, label, details, "Submit flag?"); err != nil {
		return nil, err
	}

	ix, err := e.program.FlagBeneficiary(worker, authority, disasterID, reason)
	if err != nil {
		return nil, e.reject(ctx, label, err, title)
	}
	return e.send(ctx, label, ix, submit.Options{
		ErrorTitle:     title,
		SuccessMessage: "Beneficiary flagged for review",
	})
}

// Review resolves a flagged beneficiary. Only the platform admin may do this.
func (e *Engine) Review(ctx context.Context, authority solana.PublicKey, disasterID string, outcome model.VerificationStatus) (*submit.Result, error) {
	const label, title = "review", "Review Failed"
	admin := e.client.Wallet()

	config, err := e.PlatformConfig(ctx)
	if err != nil {
		return nil, e.reject(ctx, label, err, title)
	}
	if !config.Admin.Equals(admin) {
		return nil, e.reject(ctx, label, ErrNotAdmin, title)
	}

	ben, err := e.Beneficiary(ctx, authority, disasterID)
	if err != nil {
		return nil, e.reject(ctx, label, err, title)
	}
	next, err := e.verifierFor(config).AdminResolve(ben.Verification, admin, outcome)
	if err != nil {
		return nil, e.reject(ctx, label, err, title)
	}

	details := fmt.Sprintf("Resolve flag on %s (%s)\nReason given: %s\nOutcome: %s",
		ben.Name, ben.Address, ben.Verification.FlaggedReason, next.Status)
	if err := e.confirm(ctx, label, details, "Submit review?"); err != nil {
		return nil, err
	}

	ix, err := e.program.ReviewFlaggedBeneficiary(admin, authority, disasterID, outcome)
	if err != nil {
		return nil, e.reject(ctx, label, err, title)
	}
	return e.send(ctx, label, ix, submit.Options{
		ErrorTitle:     title,
		SuccessMessage: fmt.Sprintf("Beneficiary is now %s", next.Status),
	})
}
