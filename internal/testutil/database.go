// Package testutil provides test helpers for packages that need a real local
// database: an isolated in-memory store with migrations applied and optional
// seed data.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/aidledger/internal/model"
	"github.com/Veraticus/aidledger/internal/service"
	"github.com/Veraticus/aidledger/internal/storage"
)

// TestDB represents a test database with the data it was seeded with.
type TestDB struct {
	Storage     *storage.SQLiteStorage
	t           *testing.T
	Submissions []model.SubmissionRecord
	Accounts    []model.CachedAccount
}

// SetupTestDB creates a new in-memory test database seeded from fixtures.
// It automatically handles migrations and cleanup.
//
// Example:
//
//	db := testutil.SetupTestDB(t,
//		testutil.NewFixtures(t).
//			WithSubmission("claim", model.SubmissionSuccess).
//			Build(),
//	)
func SetupTestDB(t *testing.T, fixtures Fixtures) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{Fixtures: fixtures})
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup    func(context.Context, service.Storage) error
	Fixtures       Fixtures
	SkipMigrations bool
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(storage.MemoryPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	ctx := context.Background()

	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	for i := range opts.Fixtures.Submissions {
		if err := store.SaveSubmission(ctx, &opts.Fixtures.Submissions[i]); err != nil {
			t.Fatalf("failed to seed submission %q: %v", opts.Fixtures.Submissions[i].ID, err)
		}
	}
	for i := range opts.Fixtures.Accounts {
		if err := store.PutAccount(ctx, &opts.Fixtures.Accounts[i]); err != nil {
			t.Fatalf("failed to seed account %q: %v", opts.Fixtures.Accounts[i].Address, err)
		}
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return &TestDB{
		Storage:     store,
		Submissions: opts.Fixtures.Submissions,
		Accounts:    opts.Fixtures.Accounts,
		t:           t,
	}
}

// MustGetSubmission returns the stored submission with the given ID or fails the test.
func (db *TestDB) MustGetSubmission(id string) *model.SubmissionRecord {
	db.t.Helper()
	record, err := db.Storage.GetSubmission(context.Background(), id)
	if err != nil {
		db.t.Fatalf("submission %q: %v", id, err)
	}
	return record
}

// ListSubmissions returns stored submissions matching filter or fails the test.
func (db *TestDB) ListSubmissions(filter service.SubmissionFilter) []model.SubmissionRecord {
	db.t.Helper()
	records, err := db.Storage.ListSubmissions(context.Background(), filter)
	if err != nil {
		db.t.Fatalf("failed to list submissions: %v", err)
	}
	return records
}
