// Package storage provides the local persistence layer: a read cache of
// ledger accounts and the history of submitted transactions.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/aidledger/internal/model"
)

// Validation errors.
var (
	ErrNilContext        = errors.New("context cannot be nil")
	ErrEmptyString       = errors.New("string parameter cannot be empty")
	ErrNilParameter      = errors.New("parameter cannot be nil")
	ErrInvalidStatus     = errors.New("invalid submission status")
	ErrInvalidSubmission = errors.New("invalid submission")
	ErrInvalidAccount    = errors.New("invalid cached account")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateCachedAccount(account *model.CachedAccount) error {
	if account == nil {
		return fmt.Errorf("%w: account", ErrNilParameter)
	}
	if strings.TrimSpace(account.Address) == "" {
		return fmt.Errorf("%w: missing address", ErrInvalidAccount)
	}
	if account.Data == nil {
		return fmt.Errorf("%w: missing data", ErrInvalidAccount)
	}
	if account.FetchedAt.IsZero() {
		return fmt.Errorf("%w: missing fetch time", ErrInvalidAccount)
	}
	return nil
}

func validateSubmission(record *model.SubmissionRecord) error {
	if record == nil {
		return fmt.Errorf("%w: submission", ErrNilParameter)
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidSubmission)
	}
	if strings.TrimSpace(record.Label) == "" {
		return fmt.Errorf("%w: missing label", ErrInvalidSubmission)
	}
	if record.StartedAt.IsZero() {
		return fmt.Errorf("%w: missing start time", ErrInvalidSubmission)
	}

	switch record.Status {
	case model.SubmissionPending, model.SubmissionSuccess, model.SubmissionError:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, record.Status)
	}

	if record.Status != model.SubmissionPending && record.FinishedAt == nil {
		return fmt.Errorf("%w: %s submission has no finish time", ErrInvalidSubmission, record.Status)
	}
	return nil
}
