package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/aidledger/internal/cli"
	"github.com/Veraticus/aidledger/internal/config"
	"github.com/Veraticus/aidledger/internal/distribution"
	"github.com/Veraticus/aidledger/internal/engine"
	"github.com/Veraticus/aidledger/internal/metrics"
	"github.com/Veraticus/aidledger/internal/model"
	"github.com/Veraticus/aidledger/internal/sheets"
	"github.com/Veraticus/aidledger/internal/submit"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func poolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Manage fund pools",
		Long: `Inspect fund pools, donate to them, lock registration, and reclaim
expired distributions.`,
	}

	cmd.AddCommand(poolShowCmd())
	cmd.AddCommand(poolLockCmd())
	cmd.AddCommand(poolDonateCmd())
	cmd.AddCommand(poolSplitCmd())
	cmd.AddCommand(poolReportCmd())
	cmd.AddCommand(poolSweepCmd())

	return cmd
}

func poolShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a fund pool's balances and settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			disasterID, poolID := poolFlags(cmd)
			a, err := newApp(cmd, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			pool, err := a.engine.Pool(cmd.Context(), disasterID, poolID)
			if err != nil {
				return err
			}
			writeln(a.out, cli.RenderDetails(poolName(pool), poolFields(pool)))
			return nil
		},
	}

	addPoolFlags(cmd)
	return cmd
}

func poolName(p *model.FundPool) string {
	if p.Name != "" {
		return p.Name
	}
	return p.DisasterID + "/" + p.PoolID
}

func poolFields(p *model.FundPool) []cli.Field {
	amount := func(v uint64) string { return model.FormatAmount(v, p.TokenDecimals) }

	registration := "open"
	if p.RegistrationLocked {
		registration = "locked"
	}
	active := "yes"
	if !p.IsActive {
		active = "no"
	}

	return []cli.Field{
		{Label: "Address", Value: p.Address.String()},
		{Label: "Authority", Value: p.Authority.String()},
		{Label: "Mint", Value: p.TokenMint.String()},
		{Label: "Active", Value: active},
		{Label: "Registration", Value: registration},
		{Label: "Beneficiaries", Value: strconv.FormatUint(uint64(p.BeneficiaryCount), 10)},
		{Label: "Split", Value: fmt.Sprintf("%d%% immediate / %d%% locked", p.PctImmediate, p.PctLocked)},
		{Label: "Time lock", Value: p.TimeLock.String()},
		{Label: "Claim window", Value: p.ClaimWindow.String()},
		{Label: "Deposited", Value: amount(p.TotalDeposited)},
		{Label: "Distributed", Value: amount(p.TotalDistributed)},
		{Label: "Claimed", Value: amount(p.TotalClaimed)},
		{Label: "Reclaimed", Value: amount(p.TotalReclaimed)},
		{Label: "Available", Value: amount(p.AvailableBalance)},
	}
}

func poolLockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Close registration so distributions can be allocated",
		RunE: func(cmd *cobra.Command, _ []string) error {
			disasterID, poolID := poolFlags(cmd)
			return runMutation(cmd, func(ctx context.Context, a *app) (*submit.Result, error) {
				return a.engine.LockPool(ctx, disasterID, poolID)
			})
		},
	}

	addPoolFlags(cmd)
	addYesFlag(cmd)
	return cmd
}

func poolDonateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "donate <amount>",
		Short:   "Donate tokens to a fund pool",
		Long:    `Donate to a pool. The amount is in whole tokens, e.g. 25.5.`,
		Example: `  aidctl pool donate 100 --disaster flood-2024 --pool food`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			disasterID, poolID := poolFlags(cmd)
			return runMutation(cmd, func(ctx context.Context, a *app) (*submit.Result, error) {
				return a.engine.Donate(ctx, disasterID, poolID, args[0])
			})
		},
	}

	addPoolFlags(cmd)
	addYesFlag(cmd)
	return cmd
}

func poolSplitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split <allocated>",
		Short: "Preview how an allocation splits into tranches",
		Long: `Show how an allocation, in whole tokens, divides into its immediate and
time-locked tranches. Nothing is submitted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			immediate, _ := cmd.Flags().GetUint8("immediate")
			locked, _ := cmd.Flags().GetUint8("locked")
			decimals, _ := cmd.Flags().GetUint8("decimals")

			fields, err := splitFields(args[0], immediate, locked, decimals)
			if err != nil {
				return err
			}
			writeln(cmd.OutOrStdout(), cli.RenderDetails("Allocation split", fields))
			return nil
		},
	}

	cmd.Flags().Uint8("immediate", 60, "Percent claimable at once")
	cmd.Flags().Uint8("locked", 40, "Percent held until the time lock ends")
	cmd.Flags().Uint8("decimals", 6, "Mint decimals")

	return cmd
}

func splitFields(raw string, pctImmediate, pctLocked, decimals uint8) ([]cli.Field, error) {
	allocated, err := model.ParseAmount(raw, decimals)
	if err != nil {
		return nil, err
	}
	immediate, locked, err := distribution.ComputeSplit(allocated, pctImmediate, pctLocked)
	if err != nil {
		return nil, err
	}
	return []cli.Field{
		{Label: "Allocated", Value: model.FormatAmount(allocated, decimals)},
		{Label: "Immediate", Value: fmt.Sprintf("%s (%d%%)", model.FormatAmount(immediate, decimals), pctImmediate)},
		{Label: "Locked", Value: fmt.Sprintf("%s (%d%%)", model.FormatAmount(locked, decimals), pctLocked)},
	}, nil
}

func poolReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarise every distribution made from a pool",
		Long: `Summarise a pool's distributions by status. With --sheets the report is
also written to Google Sheets; run "aidctl sheets auth" first.`,
		RunE: runPoolReport,
	}

	addPoolFlags(cmd)
	cmd.Flags().Bool("sheets", false, "Also write the report to Google Sheets")
	return cmd
}

func runPoolReport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	disasterID, poolID := poolFlags(cmd)

	a, err := newApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	summary, err := a.engine.Report(ctx, disasterID, poolID)
	if err != nil {
		return err
	}
	writeln(a.out, renderReport(sheets.NewPoolReport(summary)))

	toSheets, _ := cmd.Flags().GetBool("sheets")
	if !toSheets {
		return nil
	}

	sheetsCfg, err := config.LoadSheetsConfig()
	if err != nil {
		return fmt.Errorf("failed to load sheets config: %w", err)
	}
	writer, err := sheets.NewWriter(ctx, *sheetsCfg, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create sheets writer: %w", err)
	}
	if err := writer.WritePoolReport(ctx, summary); err != nil {
		return fmt.Errorf("failed to write report to sheets: %w", err)
	}

	writeln(a.out, cli.FormatSuccess("Report written to Google Sheets"))
	return nil
}

func renderReport(r sheets.PoolReport) string {
	var b strings.Builder

	b.WriteString(cli.RenderDetails(r.Title, []cli.Field{
		{Label: "Pool", Value: r.PoolAddress},
		{Label: "Generated", Value: r.GeneratedAt.Local().Format("2006-01-02 15:04")},
		{Label: "Deposited", Value: r.Deposited.String()},
		{Label: "Distributed", Value: r.Distributed.String()},
		{Label: "Claimed", Value: r.Claimed.String()},
		{Label: "Reclaimed", Value: r.Reclaimed.String()},
		{Label: "Available", Value: r.Available.String()},
	}))

	if len(r.ByStatus) == 0 {
		b.WriteString("\n" + cli.FormatInfo("No distributions yet"))
		return b.String()
	}

	statuses := make([]cli.Field, len(r.ByStatus))
	for i, s := range r.ByStatus {
		statuses[i] = cli.Field{
			Label: s.Status,
			Value: fmt.Sprintf("%d distributions, %s allocated, %s claimed", s.Count, s.Allocated, s.Claimed),
		}
	}
	b.WriteString("\n")
	b.WriteString(cli.RenderDetails("By status", statuses))
	return b.String()
}

func poolSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Reclaim every expired distribution in a pool",
		Long: `Find every distribution whose claim deadline passed with nothing claimed
and return its allocation to the pool. One confirmation covers the whole sweep;
reclaims are then submitted one at a time.

Press Ctrl+C to stop after the reclaim in progress.`,
		RunE: runPoolSweep,
	}

	addPoolFlags(cmd)
	addYesFlag(cmd)
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address during the sweep (e.g. :9090)")
	return cmd
}

func runPoolSweep(cmd *cobra.Command, _ []string) error {
	disasterID, poolID := poolFlags(cmd)
	yes, _ := cmd.Flags().GetBool("yes")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	if metricsAddr == "" {
		metricsAddr = viper.GetString("metrics.addr")
	}

	m := metrics.New()
	if metricsAddr != "" {
		stop := serveMetrics(metricsAddr)
		defer stop()
	}

	a, err := newApp(cmd, appOptions{metrics: m, assumeYes: yes})
	if err != nil {
		return err
	}
	defer a.Close()

	interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx := interrupts.HandleInterrupts(cmd.Context(), "Sweep")
	defer interrupts.Stop()

	var bar *progressbar.ProgressBar
	result, err := a.engine.Sweep(ctx, disasterID, poolID, func(_ model.Distribution, _, total int, _ error) {
		if bar == nil {
			bar = cli.NewProgressBar(cmd.ErrOrStderr(), total, "Reclaiming...")
		}
		if addErr := bar.Add(1); addErr != nil {
			slog.Debug("Failed to advance progress bar", "error", addErr)
		}
	})
	if result != nil {
		m.AddReclaimed(result.Amount)
		writeln(a.out, sweepSummary(result))
	}
	if err != nil && !errors.Is(err, engine.ErrDeclined) {
		return err
	}
	return nil
}

func sweepSummary(result *engine.SweepResult) string {
	if result.Candidates == 0 {
		return cli.FormatInfo("No expired distributions to reclaim")
	}
	msg := fmt.Sprintf("Reclaimed %d of %d expired distributions", len(result.Reclaimed), result.Candidates)
	if len(result.Failed) > 0 {
		return cli.FormatWarning(fmt.Sprintf("%s, %d failed", msg, len(result.Failed)))
	}
	return cli.FormatSuccess(msg)
}

// serveMetrics exposes the default Prometheus registry until the returned
// function is called.
func serveMetrics(addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("Serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Warn("Failed to stop metrics server", "error", err)
		}
	}
}
