package submit

import (
	"context"
	"sync"

	"github.com/Veraticus/aidledger/internal/txerror"
)

// NotificationKind is the phase of a submission lifecycle being reported.
type NotificationKind string

// Notification kinds.
const (
	NotifyProcessing NotificationKind = "processing"
	NotifySuccess    NotificationKind = "success"
	NotifyError      NotificationKind = "error"
)

// Notification is one user-facing update about a submission. Every dispatched
// submission produces a processing notification followed by exactly one
// success or error notification with the same ID.
type Notification struct {
	ID          string
	Label       string
	Kind        NotificationKind
	Title       string
	Description string
	Link        string
	ErrorKind   txerror.Kind
	Severity    txerror.Severity
	Recoverable bool
	Duplicate   bool
}

// NotificationSink receives submission notifications. Implementations must not
// block for long; they run on the submitting goroutine.
type NotificationSink interface {
	Notify(ctx context.Context, n Notification)
}

// SinkFunc adapts a function to NotificationSink.
type SinkFunc func(ctx context.Context, n Notification)

// Notify implements NotificationSink.
func (f SinkFunc) Notify(ctx context.Context, n Notification) {
	f(ctx, n)
}

// MultiSink fans a notification out to every sink in order.
type MultiSink []NotificationSink

// Notify implements NotificationSink.
func (m MultiSink) Notify(ctx context.Context, n Notification) {
	for _, s := range m {
		if s != nil {
			s.Notify(ctx, n)
		}
	}
}

// RecordingSink keeps every notification it receives. It is safe for
// concurrent use and is mainly useful in tests.
type RecordingSink struct {
	notifications []Notification
	mu            sync.Mutex
}

// Notify implements NotificationSink.
func (r *RecordingSink) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, n)
}

// Notifications returns a copy of everything received so far.
func (r *RecordingSink) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.notifications))
	copy(out, r.notifications)
	return out
}

// Kinds returns the kinds of everything received so far, in order.
func (r *RecordingSink) Kinds() []NotificationKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]NotificationKind, len(r.notifications))
	for i, n := range r.notifications {
		out[i] = n.Kind
	}
	return out
}
