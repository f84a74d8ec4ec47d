// Package submit runs ledger transactions one at a time and turns their
// outcome into user-facing notifications.
//
// A Submitter admits a single in-flight submission. A second call made while
// one is pending is rejected with ErrInFlight rather than queued; financial
// operations are never retried or replayed behind the caller's back.
package submit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Veraticus/aidledger/internal/model"
	"github.com/Veraticus/aidledger/internal/service"
	"github.com/Veraticus/aidledger/internal/txerror"
	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// ErrInFlight is returned when a submission is already pending.
var ErrInFlight = errors.New("another transaction is already in flight")

const (
	defaultSuccessMessage = "Transaction confirmed"
	explorerBase          = "https://explorer.solana.com/tx/"
)

// Action performs the remote operation. Returning a solana.Signature or a
// non-empty signature string lets the submitter link to it.
type Action func(ctx context.Context) (any, error)

// Options customise one submission.
type Options struct {
	OnSuccess      func(*Result)
	OnError        func(*SubmitError)
	ErrorTitle     string
	SuccessMessage string
}

// Result describes a successful submission.
type Result struct {
	Value     any
	ID        string
	Signature string
	Link      string
	// Duplicate is set when the ledger reported the transaction as already
	// processed; the operation committed on an earlier attempt.
	Duplicate bool
}

// SubmitError is returned when a submission fails.
type SubmitError struct {
	Err        error
	ID         string
	Title      string
	Classified txerror.Classified
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("%s: %s", e.Title, e.Classified.Description)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// Attempt is a snapshot of the most recent submission.
type Attempt struct {
	Err       error
	ID        string
	Label     string
	Signature string
	Status    model.SubmissionStatus
}

// Config wires a Submitter's collaborators. Only Sink is required.
type Config struct {
	Sink       NotificationSink
	History    service.SubmissionStore
	Classifier *txerror.Classifier
	// Cluster is appended to explorer links; empty or mainnet-beta adds nothing.
	Cluster string
}

// Submitter serialises submissions.
type Submitter struct {
	sink       NotificationSink
	history    service.SubmissionStore
	classifier *txerror.Classifier
	sem        *semaphore.Weighted
	newID      func() string
	now        func() time.Time
	cluster    string
	state      Attempt
	mu         sync.Mutex
}

// New creates a Submitter.
func New(cfg Config) *Submitter {
	sink := cfg.Sink
	if sink == nil {
		sink = MultiSink(nil)
	}
	return &Submitter{
		sink:       sink,
		history:    cfg.History,
		classifier: cfg.Classifier,
		cluster:    cfg.Cluster,
		sem:        semaphore.NewWeighted(1),
		newID:      uuid.NewString,
		now:        time.Now,
		state:      Attempt{Status: model.SubmissionIdle},
	}
}

// State returns the most recent attempt.
func (s *Submitter) State() Attempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Reset returns the submitter to idle. It has no effect while a submission is
// pending.
func (s *Submitter) Reset() {
	if !s.sem.TryAcquire(1) {
		return
	}
	defer s.sem.Release(1)
	s.setState(Attempt{Status: model.SubmissionIdle})
}

// Link returns the explorer URL for sig.
func (s *Submitter) Link(sig string) string {
	if s.cluster == "" || s.cluster == "mainnet-beta" {
		return explorerBase + sig
	}
	return explorerBase + sig + "?cluster=" + s.cluster
}

// Submit runs action unless another submission is pending, in which case it
// returns ErrInFlight at once without changing state or notifying.
func (s *Submitter) Submit(ctx context.Context, label string, action Action, opts Options) (*Result, error) {
	if !s.sem.TryAcquire(1) {
		slog.Warn("Submission rejected: another transaction is in flight", "label", label)
		return nil, ErrInFlight
	}
	defer s.sem.Release(1)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := s.newID()
	record := &model.SubmissionRecord{
		ID:        id,
		Label:     label,
		Status:    model.SubmissionPending,
		StartedAt: s.now(),
	}
	s.setState(Attempt{ID: id, Label: label, Status: model.SubmissionPending})
	s.save(ctx, record)

	// A panicking action must not leave the submitter looking busy.
	defer func() {
		if s.State().Status == model.SubmissionPending {
			s.setState(Attempt{ID: id, Label: label, Status: model.SubmissionError, Err: errors.New("submission aborted")})
		}
	}()

	s.sink.Notify(ctx, Notification{
		ID:          id,
		Label:       label,
		Kind:        NotifyProcessing,
		Title:       "Processing",
		Description: "Submitting transaction...",
		Severity:    txerror.SeverityInfo,
	})

	value, err := action(ctx)
	if err == nil {
		return s.succeed(ctx, record, value, false, opts), nil
	}

	classified := s.classify(err)
	if classified.Kind == txerror.KindDuplicate {
		slog.Info("Treating already-processed transaction as success", "label", label, "id", id)
		return s.succeed(ctx, record, value, true, opts), nil
	}

	return nil, s.fail(ctx, record, err, classified, opts)
}

// Reject reports a pre-flight failure, typically a domain error found while
// checking fresh ledger state, through the same notification path as a
// failed submission. Nothing is dispatched and no processing notification is
// emitted. The returned error is a *SubmitError wrapping err, or ErrInFlight.
func (s *Submitter) Reject(ctx context.Context, label string, err error, opts Options) error {
	if !s.sem.TryAcquire(1) {
		slog.Warn("Rejection dropped: another transaction is in flight", "label", label, "error", err)
		return ErrInFlight
	}
	defer s.sem.Release(1)

	record := &model.SubmissionRecord{
		ID:        s.newID(),
		Label:     label,
		StartedAt: s.now(),
	}
	return s.fail(ctx, record, err, s.classify(err), opts)
}

func (s *Submitter) classify(err error) txerror.Classified {
	if s.classifier != nil {
		return s.classifier.Classify(err.Error())
	}
	return txerror.ClassifyError(err)
}

func (s *Submitter) succeed(ctx context.Context, record *model.SubmissionRecord, value any, duplicate bool, opts Options) *Result {
	sig := signatureOf(value)
	result := &Result{
		ID:        record.ID,
		Value:     value,
		Signature: sig,
		Duplicate: duplicate,
	}

	message := opts.SuccessMessage
	if message == "" {
		message = defaultSuccessMessage
	}
	if duplicate {
		message += " (already processed)"
	}

	n := Notification{
		ID:          record.ID,
		Label:       record.Label,
		Kind:        NotifySuccess,
		Title:       "Success",
		Description: message,
		Severity:    txerror.SeverityInfo,
		Duplicate:   duplicate,
	}
	if sig != "" {
		result.Link = s.Link(sig)
		n.Link = result.Link
	}

	finished := s.now()
	record.Status = model.SubmissionSuccess
	record.Signature = sig
	record.Duplicate = duplicate
	record.FinishedAt = &finished

	s.setState(Attempt{ID: record.ID, Label: record.Label, Status: model.SubmissionSuccess, Signature: sig})
	s.save(ctx, record)
	s.sink.Notify(ctx, n)

	if opts.OnSuccess != nil {
		opts.OnSuccess(result)
	}
	return result
}

func (s *Submitter) fail(ctx context.Context, record *model.SubmissionRecord, err error, classified txerror.Classified, opts Options) *SubmitError {
	title := opts.ErrorTitle
	if title == "" {
		title = classified.Title
	}
	serr := &SubmitError{
		ID:         record.ID,
		Title:      title,
		Classified: classified,
		Err:        err,
	}

	finished := s.now()
	record.Status = model.SubmissionError
	record.ErrorKind = string(classified.Kind)
	record.ErrorTitle = title
	record.FinishedAt = &finished

	s.setState(Attempt{ID: record.ID, Label: record.Label, Status: model.SubmissionError, Err: serr})
	s.save(ctx, record)

	slog.Debug("Submission failed", "label", record.Label, "id", record.ID, "kind", classified.Kind, "error", err)
	s.sink.Notify(ctx, Notification{
		ID:          record.ID,
		Label:       record.Label,
		Kind:        NotifyError,
		Title:       title,
		Description: classified.Description,
		ErrorKind:   classified.Kind,
		Severity:    classified.Severity,
		Recoverable: classified.Recoverable,
	})

	if opts.OnError != nil {
		opts.OnError(serr)
	}
	return serr
}

func (s *Submitter) setState(a Attempt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = a
}

func (s *Submitter) save(ctx context.Context, record *model.SubmissionRecord) {
	if s.history == nil {
		return
	}
	if err := s.history.SaveSubmission(ctx, record); err != nil {
		slog.Warn("Failed to record submission history", "id", record.ID, "error", err)
	}
}

func signatureOf(v any) string {
	switch sig := v.(type) {
	case solana.Signature:
		if !sig.IsZero() {
			return sig.String()
		}
	case *solana.Signature:
		if sig != nil && !sig.IsZero() {
			return sig.String()
		}
	case string:
		return sig
	}
	return ""
}
