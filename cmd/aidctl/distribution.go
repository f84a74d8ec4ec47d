package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/aidledger/internal/address"
	"github.com/Veraticus/aidledger/internal/cli"
	"github.com/Veraticus/aidledger/internal/distribution"
	"github.com/Veraticus/aidledger/internal/model"
	"github.com/Veraticus/aidledger/internal/submit"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
)

func distributionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "distribution",
		Aliases: []string{"dist"},
		Short:   "Claim and reclaim pool distributions",
	}

	cmd.AddCommand(distributionShowCmd())
	cmd.AddCommand(distributionClaimCmd())
	cmd.AddCommand(distributionReclaimCmd())

	return cmd
}

func distributionShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a distribution and what is claimable now",
		Long: `Show a beneficiary's distribution from a pool. Without --beneficiary the
distribution of your own wallet is shown.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			disasterID, poolID := poolFlags(cmd)
			a, err := newApp(cmd, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			pool, err := a.engine.Pool(ctx, disasterID, poolID)
			if err != nil {
				return err
			}

			beneficiary, err := beneficiaryAccount(cmd, a, disasterID)
			if err != nil {
				return err
			}
			d, err := a.engine.Distribution(ctx, beneficiary, pool.Address)
			if err != nil {
				return err
			}

			writeln(a.out, cli.RenderDetails("Distribution", distributionFields(d, pool, time.Now())))
			return nil
		},
	}

	addPoolFlags(cmd)
	cmd.Flags().String("beneficiary", "", "Beneficiary account address (default: your wallet's)")
	return cmd
}

// beneficiaryAccount resolves --beneficiary, defaulting to the account the
// wallet registered under for disasterID.
func beneficiaryAccount(cmd *cobra.Command, a *app, disasterID string) (solana.PublicKey, error) {
	if raw, _ := cmd.Flags().GetString("beneficiary"); raw != "" {
		key, err := solana.PublicKeyFromBase58(raw)
		if err != nil {
			return solana.PublicKey{}, fmt.Errorf("invalid beneficiary address %q: %w", raw, err)
		}
		return key, nil
	}
	addr, err := address.Beneficiary(a.cfg.ProgramID, a.engine.Wallet(), disasterID)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return addr.Key, nil
}

func distributionFields(d *model.Distribution, pool *model.FundPool, now time.Time) []cli.Field {
	amount := func(v uint64) string { return model.FormatAmount(v, pool.TokenDecimals) }
	when := func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return t.Local().Format("2006-01-02 15:04")
	}

	return []cli.Field{
		{Label: "Address", Value: d.Address.String()},
		{Label: "Beneficiary", Value: d.Beneficiary.String()},
		{Label: "Pool", Value: fmt.Sprintf("%s/%s", pool.DisasterID, pool.PoolID)},
		{Label: "Status", Value: string(distribution.StatusOf(*d, now))},
		{Label: "Allocated", Value: amount(d.AmountAllocated)},
		{Label: "Immediate", Value: amount(d.AmountImmediate)},
		{Label: "Locked", Value: amount(d.AmountLocked)},
		{Label: "Claimed", Value: amount(d.AmountClaimed)},
		{Label: "Claimable now", Value: amount(distribution.Claimable(*d, now))},
		{Label: "Unlocks", Value: when(d.UnlockTime)},
		{Label: "Deadline", Value: when(d.ClaimDeadline)},
		{Label: "Expired", Value: when(d.ExpiredAt)},
	}
}

func distributionClaimCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claim",
		Short: "Claim everything currently claimable",
		Long: `Claim your distribution from a pool. The immediate tranche is claimable at
once; the locked tranche becomes claimable when its time lock ends.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			disasterID, poolID := poolFlags(cmd)
			return runMutation(cmd, func(ctx context.Context, a *app) (*submit.Result, error) {
				return a.engine.Claim(ctx, disasterID, poolID)
			})
		},
	}

	addPoolFlags(cmd)
	addYesFlag(cmd)
	return cmd
}

func distributionReclaimCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reclaim <beneficiary-account>",
		Short: "Return an expired, unclaimed distribution to its pool",
		Long: `Reclaim a distribution whose claim deadline passed with nothing claimed.
Only the pool authority may reclaim. Use "aidctl pool sweep" to reclaim every
expired distribution in a pool.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			beneficiary, err := solana.PublicKeyFromBase58(args[0])
			if err != nil {
				return fmt.Errorf("invalid beneficiary address %q: %w", args[0], err)
			}
			disasterID, poolID := poolFlags(cmd)
			return runMutation(cmd, func(ctx context.Context, a *app) (*submit.Result, error) {
				return a.engine.Reclaim(ctx, disasterID, poolID, beneficiary)
			})
		},
	}

	addPoolFlags(cmd)
	addYesFlag(cmd)
	return cmd
}
