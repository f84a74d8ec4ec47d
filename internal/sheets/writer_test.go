package sheets

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/aidledger/internal/model"
	"github.com/Veraticus/aidledger/internal/service"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func testSummary() *service.PoolSummary {
	generated := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	unlock := generated.Add(24 * time.Hour)
	return &service.PoolSummary{
		GeneratedAt: generated,
		Pool: model.FundPool{
			DisasterID:       "flood-2024",
			PoolID:           "food",
			Address:          solana.NewWallet().PublicKey(),
			TokenDecimals:    6,
			TotalDeposited:   5_000_000,
			TotalDistributed: 3_000_000,
			TotalClaimed:     2_100_000,
			AvailableBalance: 2_000_000,
		},
		ByStatus: map[model.DistributionStatus]service.StatusSummary{
			model.DistributionLocked:    {Count: 1, Allocated: 1_000_000, Claimed: 700_000},
			model.DistributionClaimable: {Count: 2, Allocated: 2_000_000, Claimed: 1_400_000},
		},
		Rows: []service.DistributionRow{
			{
				Status:    model.DistributionLocked,
				Claimable: 0,
				Distribution: model.Distribution{
					Beneficiary:     solana.NewWallet().PublicKey(),
					AmountAllocated: 1_000_000,
					AmountImmediate: 700_000,
					AmountLocked:    300_000,
					AmountClaimed:   700_000,
					UnlockTime:      &unlock,
				},
			},
		},
	}
}

func TestNewPoolReport(t *testing.T) {
	summary := testSummary()
	report := NewPoolReport(summary)

	assert.Equal(t, "flood-2024 / food", report.Title)
	assert.Equal(t, summary.Pool.Address.String(), report.PoolAddress)
	assert.Equal(t, "5", report.Deposited.String())
	assert.Equal(t, "2.1", report.Claimed.String())

	require.Len(t, report.ByStatus, 2)
	assert.Equal(t, "claimable", report.ByStatus[0].Status, "largest allocation first")

	require.Len(t, report.Distributions, 1)
	row := report.Distributions[0]
	assert.Equal(t, "0.7", row.Immediate.String())
	assert.Equal(t, "0.3", row.Locked.String())
	assert.True(t, row.Claimable.IsZero())
}

func TestPoolReport_Values(t *testing.T) {
	summary := testSummary()
	summary.Pool.Name = "Flood food relief"
	values := NewPoolReport(summary).Values()

	assert.Equal(t, []any{"Flood food relief", "2024-06-10T12:00:00Z"}, values[0])
	assert.Equal(t, []any{"Deposited", "5"}, values[4])

	last := values[len(values)-1]
	require.Len(t, last, 9)
	assert.Equal(t, "locked", last[1])
	assert.Equal(t, "2024-06-11 12:00", last[7])
	assert.Equal(t, "", last[8])
}

func TestBatches(t *testing.T) {
	assert.Empty(t, batches(0, 10))
	assert.Equal(t, []batch{{0, 10}, {10, 20}, {20, 25}}, batches(25, 10))
	assert.Equal(t, []batch{{0, 3}}, batches(3, 1000))
}

func TestFormattingRequests(t *testing.T) {
	reqs := formattingRequests(40)
	require.Len(t, reqs, 4)
	assert.Equal(t, int64(40), reqs[1].RepeatCell.Range.EndRowIndex)
	assert.Equal(t, int64(2), reqs[3].UpdateSheetProperties.Properties.GridProperties.FrozenRowCount)
}

func TestNewWriter_InvalidConfig(t *testing.T) {
	_, err := NewWriter(context.Background(), Config{BatchSize: 10}, nil)
	assert.ErrorContains(t, err, "invalid config")
}

func TestMockWriter(t *testing.T) {
	m := NewMockWriter()
	summary := testSummary()

	require.NoError(t, m.WritePoolReport(context.Background(), summary))
	assert.Same(t, summary, m.LastSummary)

	boom := errors.New("quota exceeded")
	m.SetWriteError(boom)
	assert.ErrorIs(t, m.WritePoolReport(context.Background(), summary), boom)
	require.Len(t, m.WriteCalls, 2)
	assert.ErrorIs(t, m.WriteCalls[1].Error, boom)

	m.Reset()
	assert.Zero(t, m.WriteCallCount)
	assert.Nil(t, m.LastSummary)
}

func TestTokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	token := &oauth2.Token{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer"}

	require.NoError(t, SaveToken(path, token))
	got, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "r", got.RefreshToken)

	_, err = LoadToken(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
