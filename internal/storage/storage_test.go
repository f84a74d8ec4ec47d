package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/aidledger/internal/common"
	"github.com/Veraticus/aidledger/internal/model"
	"github.com/Veraticus/aidledger/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()

	t.Run("file database", func(t *testing.T) {
		store := createTestStorage(t)
		version, err := store.SchemaVersion(ctx)
		require.NoError(t, err)
		assert.Equal(t, ExpectedSchemaVersion, version)

		// Running again is a no-op.
		require.NoError(t, store.Migrate(ctx))
	})

	t.Run("memory database", func(t *testing.T) {
		store, err := NewSQLiteStorage(MemoryPath)
		require.NoError(t, err)
		defer func() { _ = store.Close() }()
		require.NoError(t, store.Migrate(ctx))

		var indexCount int
		err = store.db.QueryRow(`
			SELECT COUNT(*) FROM sqlite_master
			WHERE type='index' AND name='idx_submissions_label'
		`).Scan(&indexCount)
		require.NoError(t, err)
		assert.Equal(t, 1, indexCount)
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := NewSQLiteStorage(" ")
		assert.ErrorIs(t, err, ErrEmptyString)
	})
}

func TestAccountCache(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)
	fetched := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

	_, err := store.GetAccount(ctx, "Pool111")
	assert.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, store.PutAccount(ctx, &model.CachedAccount{
		Address:   "Pool111",
		Kind:      "FundPool",
		Data:      []byte{1, 2, 3},
		FetchedAt: fetched,
	}))

	got, err := store.GetAccount(ctx, "Pool111")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got.Data)
	assert.Equal(t, "FundPool", got.Kind)
	assert.True(t, fetched.Equal(got.FetchedAt))

	// Upsert replaces data.
	require.NoError(t, store.PutAccount(ctx, &model.CachedAccount{
		Address:   "Pool111",
		Data:      []byte{9},
		FetchedAt: fetched.Add(time.Minute),
	}))
	got, err = store.GetAccount(ctx, "Pool111")
	require.NoError(t, err)
	assert.Equal(t, []byte{9}, got.Data)

	require.NoError(t, store.PutAccount(ctx, &model.CachedAccount{
		Address:   "Old222",
		Data:      []byte{0},
		FetchedAt: fetched.Add(-time.Hour),
	}))
	n, err := store.PurgeAccountsBefore(ctx, fetched)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, store.DeleteAccount(ctx, "Pool111"))
	require.NoError(t, store.DeleteAccount(ctx, "Pool111"))
	_, err = store.GetAccount(ctx, "Pool111")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestPutAccount_Validation(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	tests := []struct {
		account *model.CachedAccount
		name    string
	}{
		{name: "nil", account: nil},
		{name: "no address", account: &model.CachedAccount{Data: []byte{1}, FetchedAt: time.Now()}},
		{name: "no data", account: &model.CachedAccount{Address: "a", FetchedAt: time.Now()}},
		{name: "no fetch time", account: &model.CachedAccount{Address: "a", Data: []byte{1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, store.PutAccount(ctx, tt.account))
		})
	}
}

func TestSubmissions(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)
	base := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

	pending := &model.SubmissionRecord{
		ID:        "a",
		Label:     "claim",
		Status:    model.SubmissionPending,
		StartedAt: base,
	}
	require.NoError(t, store.SaveSubmission(ctx, pending))

	finished := base.Add(2 * time.Second)
	pending.Status = model.SubmissionSuccess
	pending.Signature = "5sig"
	pending.Duplicate = true
	pending.FinishedAt = &finished
	require.NoError(t, store.SaveSubmission(ctx, pending))

	require.NoError(t, store.SaveSubmission(ctx, &model.SubmissionRecord{
		ID:         "b",
		Label:      "reclaim",
		Status:     model.SubmissionError,
		ErrorKind:  "timeout",
		ErrorTitle: "Request Timed Out",
		StartedAt:  base.Add(time.Minute),
		FinishedAt: &finished,
	}))

	got, err := store.GetSubmission(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionSuccess, got.Status)
	assert.Equal(t, "5sig", got.Signature)
	assert.True(t, got.Duplicate)
	require.NotNil(t, got.FinishedAt)
	assert.True(t, finished.Equal(*got.FinishedAt))

	_, err = store.GetSubmission(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)

	all, err := store.ListSubmissions(ctx, service.SubmissionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].ID)

	failed, err := store.ListSubmissions(ctx, service.SubmissionFilter{Status: model.SubmissionError})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "timeout", failed[0].ErrorKind)

	limited, err := store.ListSubmissions(ctx, service.SubmissionFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "a", limited[0].ID)

	since := base.Add(30 * time.Second)
	recent, err := store.ListSubmissions(ctx, service.SubmissionFilter{Since: &since, Label: "reclaim"})
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestSaveSubmission_Validation(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)
	now := time.Now()

	tests := []struct {
		record  *model.SubmissionRecord
		wantErr error
		name    string
	}{
		{name: "nil", record: nil, wantErr: ErrNilParameter},
		{name: "no id", record: &model.SubmissionRecord{Label: "x", Status: model.SubmissionPending, StartedAt: now}, wantErr: ErrInvalidSubmission},
		{name: "idle status", record: &model.SubmissionRecord{ID: "1", Label: "x", Status: model.SubmissionIdle, StartedAt: now}, wantErr: ErrInvalidStatus},
		{name: "finished without time", record: &model.SubmissionRecord{ID: "1", Label: "x", Status: model.SubmissionError, StartedAt: now}, wantErr: ErrInvalidSubmission},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, store.SaveSubmission(ctx, tt.record), tt.wantErr)
		})
	}
}
