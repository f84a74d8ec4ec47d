package sheets

import (
	"context"
	"sync"

	"github.com/Veraticus/aidledger/internal/service"
)

// MockWriter is a mock implementation of service.ReportWriter for testing.
type MockWriter struct {
	WriteFunc      func(ctx context.Context, summary *service.PoolSummary) error
	LastSummary    *service.PoolSummary
	WriteCalls     []WriteCall
	WriteCallCount int
	mu             sync.Mutex
}

// WriteCall represents a single call to WritePoolReport.
type WriteCall struct {
	Error   error
	Summary *service.PoolSummary
}

// NewMockWriter creates a new mock writer.
func NewMockWriter() *MockWriter {
	return &MockWriter{
		WriteCalls: make([]WriteCall, 0),
	}
}

// WritePoolReport implements service.ReportWriter.
func (m *MockWriter) WritePoolReport(ctx context.Context, summary *service.PoolSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteCallCount++
	m.LastSummary = summary

	var err error
	if m.WriteFunc != nil {
		err = m.WriteFunc(ctx, summary)
	}

	m.WriteCalls = append(m.WriteCalls, WriteCall{
		Summary: summary,
		Error:   err,
	})

	return err
}

// Reset clears all recorded calls.
func (m *MockWriter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteCallCount = 0
	m.WriteCalls = make([]WriteCall, 0)
	m.LastSummary = nil
}

// SetWriteError configures the mock to return err from every call.
func (m *MockWriter) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteFunc = func(context.Context, *service.PoolSummary) error {
		return err
	}
}

var _ service.ReportWriter = (*MockWriter)(nil)
