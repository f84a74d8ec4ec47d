package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/Veraticus/aidledger/internal/model"
	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
)

// BaseTime is the start time of the first seeded submission. Each later
// submission starts one minute after the previous one.
var BaseTime = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

// Fixtures is the seed data for a test database.
type Fixtures struct {
	Submissions []model.SubmissionRecord
	Accounts    []model.CachedAccount
}

// FixtureBuilder provides a fluent interface for constructing seed data.
type FixtureBuilder struct {
	t        *testing.T
	fixtures Fixtures
}

// NewFixtures returns an empty builder.
func NewFixtures(t *testing.T) *FixtureBuilder {
	t.Helper()
	return &FixtureBuilder{t: t}
}

// WithSubmission adds a settled (or pending) submission with a generated ID.
func (b *FixtureBuilder) WithSubmission(label string, status model.SubmissionStatus) *FixtureBuilder {
	b.t.Helper()

	started := BaseTime.Add(time.Duration(len(b.fixtures.Submissions)) * time.Minute)
	record := model.SubmissionRecord{
		ID:        uuid.NewString(),
		Label:     label,
		Status:    status,
		StartedAt: started,
	}

	switch status {
	case model.SubmissionPending:
	case model.SubmissionSuccess:
		record.Signature = fmt.Sprintf("sig-%d", len(b.fixtures.Submissions)+1)
	case model.SubmissionError:
		record.ErrorKind = "network-failure"
		record.ErrorTitle = fmt.Sprintf("%s failed", label)
	default:
		b.t.Fatalf("unsupported fixture status %q", status)
	}
	if status != model.SubmissionPending {
		finished := started.Add(2 * time.Second)
		record.FinishedAt = &finished
	}

	b.fixtures.Submissions = append(b.fixtures.Submissions, record)
	return b
}

// WithAccount adds a cached account body fetched at fetchedAt.
func (b *FixtureBuilder) WithAccount(address solana.PublicKey, kind string, data []byte, fetchedAt time.Time) *FixtureBuilder {
	b.fixtures.Accounts = append(b.fixtures.Accounts, model.CachedAccount{
		Address:   address.String(),
		Kind:      kind,
		Data:      data,
		FetchedAt: fetchedAt,
	})
	return b
}

// Build returns the accumulated fixtures.
func (b *FixtureBuilder) Build() Fixtures {
	return b.fixtures
}
