package engine

import (
	"context"
	"sync"
)

// MockConfirmer is a test implementation of the Confirmer interface.
type MockConfirmer struct {
	ConfirmFn func(ctx context.Context, details, question string) (bool, error)
	calls     []MockConfirmCall
	mu        sync.Mutex
	answer    bool
}

// MockConfirmCall records details of a single confirmation request.
type MockConfirmCall struct {
	Details  string
	Question string
}

// NewMockConfirmer creates a confirmer that always gives answer.
func NewMockConfirmer(answer bool) *MockConfirmer {
	return &MockConfirmer{answer: answer}
}

// Confirm implements Confirmer.
func (m *MockConfirmer) Confirm(ctx context.Context, details, question string) (bool, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockConfirmCall{Details: details, Question: question})
	m.mu.Unlock()

	if m.ConfirmFn != nil {
		return m.ConfirmFn(ctx, details, question)
	}
	return m.answer, nil
}

// Calls returns every confirmation request made so far.
func (m *MockConfirmer) Calls() []MockConfirmCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockConfirmCall, len(m.calls))
	copy(out, m.calls)
	return out
}
