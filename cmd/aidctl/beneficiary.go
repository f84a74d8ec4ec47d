package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Veraticus/aidledger/internal/cli"
	"github.com/Veraticus/aidledger/internal/model"
	"github.com/Veraticus/aidledger/internal/submit"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
)

func beneficiaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "beneficiary",
		Short: "Inspect and verify beneficiaries",
		Long: `Show a beneficiary's verification state, record field worker approvals,
raise fraud flags and resolve them as the platform admin.

Beneficiaries are addressed by their authority (wallet) public key and the
disaster they registered for.`,
	}

	cmd.AddCommand(beneficiaryShowCmd())
	cmd.AddCommand(beneficiaryVerifyCmd())
	cmd.AddCommand(beneficiaryFlagCmd())
	cmd.AddCommand(beneficiaryReviewCmd())

	return cmd
}

func addDisasterFlag(cmd *cobra.Command) {
	cmd.Flags().String("disaster", "", "Disaster event ID")
	_ = cmd.MarkFlagRequired("disaster")
}

func beneficiaryArgs(cmd *cobra.Command, args []string) (solana.PublicKey, string, error) {
	authority, err := solana.PublicKeyFromBase58(args[0])
	if err != nil {
		return solana.PublicKey{}, "", fmt.Errorf("invalid beneficiary authority %q: %w", args[0], err)
	}
	disasterID, _ := cmd.Flags().GetString("disaster")
	return authority, disasterID, nil
}

func beneficiaryShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <authority>",
		Short: "Show a beneficiary's verification state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			authority, disasterID, err := beneficiaryArgs(cmd, args)
			if err != nil {
				return err
			}
			a, err := newApp(cmd, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			ben, err := a.engine.Beneficiary(ctx, authority, disasterID)
			if err != nil {
				return err
			}
			verifier, err := a.engine.Verifier(ctx)
			if err != nil {
				return err
			}
			progress := verifier.Progress(ben.Verification)
			writeln(a.out, cli.RenderDetails(ben.Name, beneficiaryFields(ben, progress.String())))
			return nil
		},
	}

	addDisasterFlag(cmd)
	return cmd
}

func beneficiaryFields(ben *model.Beneficiary, progress string) []cli.Field {
	fields := []cli.Field{
		{Label: "Address", Value: ben.Address.String()},
		{Label: "Authority", Value: ben.Authority.String()},
		{Label: "Disaster", Value: ben.DisasterID},
		{Label: "Location", Value: ben.Location},
		{Label: "Family size", Value: strconv.Itoa(int(ben.FamilySize))},
		{Label: "Registered", Value: ben.RegisteredAt.Local().Format("2006-01-02 15:04") + " by " + ben.RegisteredBy.String()},
		{Label: "Verification", Value: progress},
	}

	v := ben.Verification
	if len(v.Approvals) > 0 {
		approvers := make([]string, len(v.Approvals))
		for i, a := range v.Approvals {
			approvers[i] = a.String()
		}
		fields = append(fields, cli.Field{Label: "Approved by", Value: strings.Join(approvers, "\n")})
	}
	if v.FlaggedReason != "" {
		fields = append(fields, cli.Field{Label: "Flag reason", Value: v.FlaggedReason})
	}
	if v.FlaggedBy != nil {
		fields = append(fields, cli.Field{Label: "Flagged by", Value: v.FlaggedBy.String()})
	}
	if v.FlaggedAt != nil {
		fields = append(fields, cli.Field{Label: "Flagged at", Value: v.FlaggedAt.Local().Format("2006-01-02 15:04")})
	}
	if v.ReviewedBy != nil {
		fields = append(fields, cli.Field{Label: "Reviewed by", Value: v.ReviewedBy.String()})
	}
	return fields
}

func beneficiaryVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <authority>",
		Short: "Approve a beneficiary as a field worker",
		Long: `Record your approval of a beneficiary. Once enough distinct field workers
approve, the beneficiary becomes Verified.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			authority, disasterID, err := beneficiaryArgs(cmd, args)
			if err != nil {
				return err
			}
			return runMutation(cmd, func(ctx context.Context, a *app) (*submit.Result, error) {
				return a.engine.Verify(ctx, authority, disasterID)
			})
		},
	}

	addDisasterFlag(cmd)
	addYesFlag(cmd)
	return cmd
}

func beneficiaryFlagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flag <authority>",
		Short: "Flag a beneficiary for admin review",
		Long: `Raise a fraud flag against a pending beneficiary. Verification is
suspended until the platform admin reviews the flag.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			authority, disasterID, err := beneficiaryArgs(cmd, args)
			if err != nil {
				return err
			}
			reason, _ := cmd.Flags().GetString("reason")
			return runMutation(cmd, func(ctx context.Context, a *app) (*submit.Result, error) {
				return a.engine.Flag(ctx, authority, disasterID, reason)
			})
		},
	}

	addDisasterFlag(cmd)
	addYesFlag(cmd)
	cmd.Flags().String("reason", "", "Why the beneficiary is being flagged")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

func beneficiaryReviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review <authority>",
		Short: "Resolve a flagged beneficiary (admin only)",
		Long: `Resolve a fraud flag. The outcome is one of:
  verified  clear the flag and mark the beneficiary verified
  rejected  keep the flag on record and reject the beneficiary
  pending   clear the flag and let verification continue`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			authority, disasterID, err := beneficiaryArgs(cmd, args)
			if err != nil {
				return err
			}
			raw, _ := cmd.Flags().GetString("outcome")
			outcome, err := parseOutcome(raw)
			if err != nil {
				return err
			}
			return runMutation(cmd, func(ctx context.Context, a *app) (*submit.Result, error) {
				return a.engine.Review(ctx, authority, disasterID, outcome)
			})
		},
	}

	addDisasterFlag(cmd)
	addYesFlag(cmd)
	cmd.Flags().String("outcome", "", "Review outcome: verified, rejected or pending")
	_ = cmd.MarkFlagRequired("outcome")
	return cmd
}

func parseOutcome(s string) (model.VerificationStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "verified", "verify", "approve":
		return model.VerificationVerified, nil
	case "rejected", "reject":
		return model.VerificationRejected, nil
	case "pending":
		return model.VerificationPending, nil
	default:
		return "", fmt.Errorf("invalid outcome %q: want verified, rejected or pending", s)
	}
}
