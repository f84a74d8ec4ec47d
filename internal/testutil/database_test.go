package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/aidledger/internal/model"
	"github.com/Veraticus/aidledger/internal/service"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupTestDB(t *testing.T) {
	addr := solana.NewWallet().PublicKey()
	db := SetupTestDB(t, NewFixtures(t).
		WithSubmission("claim", model.SubmissionSuccess).
		WithSubmission("claim", model.SubmissionPending).
		WithAccount(addr, "FundPool", []byte{1, 2, 3}, BaseTime).
		Build())

	require.Len(t, db.Submissions, 2)
	got := db.MustGetSubmission(db.Submissions[0].ID)
	assert.Equal(t, "sig-1", got.Signature)
	require.NotNil(t, got.FinishedAt)
	assert.Equal(t, 2*time.Second, got.FinishedAt.Sub(got.StartedAt))

	pending := db.ListSubmissions(service.SubmissionFilter{Status: model.SubmissionPending})
	require.Len(t, pending, 1)
	assert.Nil(t, pending[0].FinishedAt)
	assert.Equal(t, BaseTime.Add(time.Minute), pending[0].StartedAt.UTC())

	account, err := db.Storage.GetAccount(context.Background(), addr.String())
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, account.Data)
}

func TestSetupTestDBWithOptions_SkipMigrations(t *testing.T) {
	db := SetupTestDBWithOptions(t, TestDBOptions{SkipMigrations: true})
	version, err := db.Storage.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, version)
}
