// Package service defines the interfaces shared between the ledger, storage
// and command layers.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/aidledger/internal/model"
)

// SubmissionFilter narrows submission history queries.
type SubmissionFilter struct {
	Since  *time.Time
	Status model.SubmissionStatus
	Label  string
	Limit  int
	Offset int
}

// AccountCache stores raw ledger account bodies fetched by the caching client.
type AccountCache interface {
	GetAccount(ctx context.Context, address string) (*model.CachedAccount, error)
	PutAccount(ctx context.Context, account *model.CachedAccount) error
	DeleteAccount(ctx context.Context, address string) error
	PurgeAccountsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SubmissionStore records the outcome of every submission lifecycle.
type SubmissionStore interface {
	SaveSubmission(ctx context.Context, record *model.SubmissionRecord) error
	GetSubmission(ctx context.Context, id string) (*model.SubmissionRecord, error)
	ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]model.SubmissionRecord, error)
}

// Storage defines the contract for our local persistence layer. The ledger is
// the system of record; everything here is a cache or an audit trail.
type Storage interface {
	AccountCache
	SubmissionStore

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for ledger reads.
type RetryOptions struct {
	ShouldRetry  func(error) bool
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// PoolSummary aggregates a pool's distributions for reporting.
type PoolSummary struct {
	GeneratedAt time.Time
	Pool        model.FundPool
	ByStatus    map[model.DistributionStatus]StatusSummary
	Rows        []DistributionRow
}

// StatusSummary counts distributions in one display status.
type StatusSummary struct {
	Count     int
	Allocated uint64
	Claimed   uint64
}

// DistributionRow is one line of a pool report.
type DistributionRow struct {
	Distribution model.Distribution
	Status       model.DistributionStatus
	Claimable    uint64
}

// ReportWriter publishes a pool summary to an external destination.
type ReportWriter interface {
	WritePoolReport(ctx context.Context, summary *PoolSummary) error
}
