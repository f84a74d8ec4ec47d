package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/aidledger/internal/address"
	"github.com/Veraticus/aidledger/internal/cli"
	"github.com/Veraticus/aidledger/internal/engine"
	"github.com/Veraticus/aidledger/internal/model"
	"github.com/Veraticus/aidledger/internal/service"
	"github.com/Veraticus/aidledger/internal/testutil"
	"github.com/Veraticus/aidledger/internal/txerror"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldValue(t *testing.T, fields []cli.Field, label string) string {
	t.Helper()
	for _, f := range fields {
		if f.Label == label {
			return f.Value
		}
	}
	t.Fatalf("no field labelled %q", label)
	return ""
}

func hasField(fields []cli.Field, label string) bool {
	for _, f := range fields {
		if f.Label == label {
			return true
		}
	}
	return false
}

func TestRootCommands(t *testing.T) {
	names := make(map[string]*cobra.Command)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = c
	}

	for _, want := range []string{"address", "beneficiary", "distribution", "pool", "classify-error", "history", "sheets", "migrate", "version"} {
		assert.Contains(t, names, want)
	}

	pool := names["pool"]
	require.NotNil(t, pool)
	sub := make(map[string]bool)
	for _, c := range pool.Commands() {
		sub[c.Name()] = true
	}
	for _, want := range []string{"show", "lock", "donate", "split", "report", "sweep"} {
		assert.True(t, sub[want], "pool %s missing", want)
	}
}

func TestMutationsTakeYesFlag(t *testing.T) {
	for _, cmd := range []*cobra.Command{
		beneficiaryVerifyCmd(),
		beneficiaryFlagCmd(),
		beneficiaryReviewCmd(),
		distributionClaimCmd(),
		distributionReclaimCmd(),
		poolLockCmd(),
		poolDonateCmd(),
		poolSweepCmd(),
	} {
		flag := cmd.Flag("yes")
		require.NotNil(t, flag, cmd.Name())
		assert.Equal(t, "y", flag.Shorthand)
		assert.Equal(t, "false", flag.DefValue)
	}
}

func TestParseOutcome(t *testing.T) {
	tests := []struct {
		input   string
		want    model.VerificationStatus
		wantErr bool
	}{
		{input: "verified", want: model.VerificationVerified},
		{input: " Approve ", want: model.VerificationVerified},
		{input: "REJECTED", want: model.VerificationRejected},
		{input: "reject", want: model.VerificationRejected},
		{input: "pending", want: model.VerificationPending},
		{input: "flagged", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseOutcome(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSampleAddresses(t *testing.T) {
	programID := solana.NewWallet().PublicKey()

	t.Run("distinct authorities", func(t *testing.T) {
		authorities := make([]solana.PublicKey, 50)
		for i := range authorities {
			authorities[i] = solana.NewWallet().PublicKey()
		}
		steps := 0
		unique, err := sampleAddresses(programID, "flood-2024", authorities, func() error {
			steps++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 50, unique)
		assert.Equal(t, 50, steps)
	})

	t.Run("repeated authority is not a collision", func(t *testing.T) {
		a := solana.NewWallet().PublicKey()
		unique, err := sampleAddresses(programID, "flood-2024", []solana.PublicKey{a, a}, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, unique)
	})

	t.Run("step failure aborts", func(t *testing.T) {
		stop := errors.New("stop")
		authorities := []solana.PublicKey{solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()}
		unique, err := sampleAddresses(programID, "flood-2024", authorities, func() error { return stop })
		assert.ErrorIs(t, err, stop)
		assert.Equal(t, 1, unique)
	})
}

func TestFormatLayout(t *testing.T) {
	assert.Equal(t, "(no seeds)", formatLayout(nil))

	layout, err := address.Layout(address.KindBeneficiary)
	require.NoError(t, err)
	formatted := formatLayout(layout)
	assert.Contains(t, formatted, "<")
	assert.Contains(t, formatted, ">")
}

func TestClassifiedFields(t *testing.T) {
	fields := classifiedFields(txerror.Classify("failed to send transaction: custom program error: 0x1770"))
	assert.Equal(t, "6000", fieldValue(t, fields, "Code"))
	assert.Equal(t, string(txerror.KindProgram), fieldValue(t, fields, "Kind"))

	fields = classifiedFields(txerror.Classify("Transaction simulation failed: Blockhash not found"))
	assert.False(t, hasField(fields, "Code"))
	assert.Equal(t, "true", fieldValue(t, fields, "Recoverable"))
}

func TestFormatSubmission(t *testing.T) {
	started := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	finished := started.Add(1500 * time.Millisecond)

	tests := []struct {
		name   string
		record model.SubmissionRecord
		want   []string
	}{
		{
			name: "success",
			record: model.SubmissionRecord{
				StartedAt: started, FinishedAt: &finished,
				Label: "claim", Status: model.SubmissionSuccess, Signature: "5sig",
			},
			want: []string{"claim", "success", "5sig", "1.5s"},
		},
		{
			name: "duplicate",
			record: model.SubmissionRecord{
				StartedAt: started, Label: "reclaim", Status: model.SubmissionSuccess, Duplicate: true,
			},
			want: []string{"already processed"},
		},
		{
			name: "error",
			record: model.SubmissionRecord{
				StartedAt: started, Label: "donate", Status: model.SubmissionError,
				ErrorTitle: "Donation Failed", ErrorKind: "platform-paused",
			},
			want: []string{"Donation Failed", "[platform-paused]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := formatSubmission(tt.record)
			for _, w := range tt.want {
				assert.Contains(t, line, w)
			}
		})
	}
}

func TestSplitFields(t *testing.T) {
	fields, err := splitFields("100", 60, 40, 2)
	require.NoError(t, err)
	assert.Equal(t, "100.00", fieldValue(t, fields, "Allocated"))
	assert.Equal(t, "60.00 (60%)", fieldValue(t, fields, "Immediate"))
	assert.Equal(t, "40.00 (40%)", fieldValue(t, fields, "Locked"))

	// The rounding remainder lands in the immediate tranche.
	fields, err = splitFields("0.03", 60, 40, 2)
	require.NoError(t, err)
	assert.Equal(t, "0.02 (60%)", fieldValue(t, fields, "Immediate"))
	assert.Equal(t, "0.01 (40%)", fieldValue(t, fields, "Locked"))

	_, err = splitFields("100", 50, 40, 2)
	require.Error(t, err)

	_, err = splitFields("1.234", 60, 40, 2)
	assert.ErrorIs(t, err, model.ErrInvalidAmount)
}

func TestDistributionFields(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	unlock := now.Add(24 * time.Hour)
	deadline := now.Add(30 * 24 * time.Hour)
	pool := &model.FundPool{DisasterID: "flood-2024", PoolID: "food", TokenDecimals: 2}
	d := &model.Distribution{
		AmountAllocated: 1_000,
		AmountImmediate: 600,
		AmountLocked:    400,
		UnlockTime:      &unlock,
		ClaimDeadline:   &deadline,
	}

	fields := distributionFields(d, pool, now)
	assert.Equal(t, "flood-2024/food", fieldValue(t, fields, "Pool"))
	assert.Equal(t, string(model.DistributionClaimable), fieldValue(t, fields, "Status"))
	assert.Equal(t, "6.00", fieldValue(t, fields, "Claimable now"))
	assert.Equal(t, "-", fieldValue(t, fields, "Expired"))

	fields = distributionFields(d, pool, unlock)
	assert.Equal(t, "10.00", fieldValue(t, fields, "Claimable now"))
}

func TestBeneficiaryFields(t *testing.T) {
	flagger := solana.NewWallet().PublicKey()
	ben := &model.Beneficiary{
		Name:       "Amina",
		DisasterID: "flood-2024",
		FamilySize: 4,
		Verification: model.Verification{
			Status:        model.VerificationFlagged,
			Approvals:     []solana.PublicKey{solana.NewWallet().PublicKey()},
			FlaggedReason: "duplicate registration",
			FlaggedBy:     &flagger,
		},
	}

	fields := beneficiaryFields(ben, "Flagged (1/2)")
	assert.Equal(t, "4", fieldValue(t, fields, "Family size"))
	assert.Equal(t, "Flagged (1/2)", fieldValue(t, fields, "Verification"))
	assert.Equal(t, "duplicate registration", fieldValue(t, fields, "Flag reason"))
	assert.Equal(t, flagger.String(), fieldValue(t, fields, "Flagged by"))
	assert.False(t, hasField(fields, "Reviewed by"))
}

func TestSweepSummary(t *testing.T) {
	assert.Contains(t, sweepSummary(&engine.SweepResult{}), "No expired distributions")

	done := &engine.SweepResult{
		Candidates: 2,
		Reclaimed:  []model.Distribution{{}, {}},
		Failed:     map[solana.PublicKey]error{},
	}
	assert.Contains(t, sweepSummary(done), "Reclaimed 2 of 2")

	partial := &engine.SweepResult{
		Candidates: 2,
		Reclaimed:  []model.Distribution{{}},
		Failed:     map[solana.PublicKey]error{solana.NewWallet().PublicKey(): errors.New("boom")},
	}
	assert.Contains(t, sweepSummary(partial), "1 failed")
}

func TestPrintHistory(t *testing.T) {
	db := testutil.SetupTestDB(t, testutil.NewFixtures(t).
		WithSubmission("claim", model.SubmissionSuccess).
		WithSubmission("donate", model.SubmissionError).
		WithSubmission("reclaim", model.SubmissionPending).
		Build())
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, printHistory(ctx, db.Storage, service.SubmissionFilter{}, &out))
	assert.Contains(t, out.String(), "3 submissions")
	assert.Contains(t, out.String(), "donate failed [network-failure]")

	out.Reset()
	require.NoError(t, printHistory(ctx, db.Storage, service.SubmissionFilter{Status: model.SubmissionSuccess}, &out))
	assert.Contains(t, out.String(), "1 submissions")
	assert.Contains(t, out.String(), "sig-1")
	assert.NotContains(t, out.String(), "donate")

	out.Reset()
	require.NoError(t, printHistory(ctx, db.Storage, service.SubmissionFilter{Label: "vote"}, &out))
	assert.Contains(t, out.String(), "No submissions recorded")
}
