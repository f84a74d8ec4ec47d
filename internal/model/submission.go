// Package model defines the ledger records and local bookkeeping types used throughout the application.
package model

import "time"

// SubmissionStatus is the outcome of one transaction submission lifecycle.
type SubmissionStatus string

// Submission status constants.
const (
	SubmissionIdle    SubmissionStatus = "idle"
	SubmissionPending SubmissionStatus = "pending"
	SubmissionSuccess SubmissionStatus = "success"
	SubmissionError   SubmissionStatus = "error"
)

// SubmissionRecord is the locally persisted history of a submission.
type SubmissionRecord struct {
	StartedAt  time.Time
	FinishedAt *time.Time
	ID         string
	Label      string
	Status     SubmissionStatus
	Signature  string
	ErrorKind  string
	ErrorTitle string
	Duplicate  bool
}

// CachedAccount is a raw ledger account held in the local read cache.
type CachedAccount struct {
	FetchedAt time.Time
	Address   string
	Kind      string
	Data      []byte
}
