package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Veraticus/aidledger/internal/cli"
	"github.com/Veraticus/aidledger/internal/config"
	"github.com/Veraticus/aidledger/internal/model"
	"github.com/Veraticus/aidledger/internal/service"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent submissions",
		Long: `List transactions submitted from this machine, newest first, with their
outcome and explorer signature.`,
		RunE: runHistory,
	}

	cmd.Flags().String("status", "", "Only show submissions in this state (pending, success, error)")
	cmd.Flags().String("label", "", "Only show one operation (claim, reclaim, verify, ...)")
	cmd.Flags().Duration("since", 0, "Only show submissions started within this window, e.g. 24h")
	cmd.Flags().Int("limit", 20, "Maximum number of submissions to show")

	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetString("status")
	label, _ := cmd.Flags().GetString("label")
	since, _ := cmd.Flags().GetDuration("since")
	limit, _ := cmd.Flags().GetInt("limit")

	filter := service.SubmissionFilter{
		Status: model.SubmissionStatus(status),
		Label:  label,
		Limit:  limit,
	}
	if since > 0 {
		cutoff := time.Now().Add(-since)
		filter.Since = &cutoff
	}

	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath
	}

	ctx := cmd.Context()
	store, err := initStorage(ctx, config.ExpandPath(dbPath))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	return printHistory(ctx, store, filter, cmd.OutOrStdout())
}

func printHistory(ctx context.Context, store service.SubmissionStore, filter service.SubmissionFilter, out io.Writer) error {
	records, err := store.ListSubmissions(ctx, filter)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		writeln(out, cli.FormatInfo("No submissions recorded"))
		return nil
	}
	writeln(out, cli.FormatTitle(fmt.Sprintf("%d submissions", len(records))))
	for _, r := range records {
		writeln(out, formatSubmission(r))
	}
	return nil
}

func formatSubmission(r model.SubmissionRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %-8s %-8s", r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Label, r.Status)

	switch r.Status {
	case model.SubmissionSuccess:
		if r.Signature != "" {
			b.WriteString("  " + r.Signature)
		}
		if r.Duplicate {
			b.WriteString("  (already processed)")
		}
	case model.SubmissionError:
		fmt.Fprintf(&b, "  %s [%s]", r.ErrorTitle, r.ErrorKind)
	}

	if r.FinishedAt != nil {
		fmt.Fprintf(&b, "  %s", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	}

	line := b.String()
	switch r.Status {
	case model.SubmissionSuccess:
		return cli.FormatSuccess(line)
	case model.SubmissionError:
		return cli.FormatError(line)
	default:
		return cli.FormatInfo(line)
	}
}
