package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ErrInputCancelled is returned when input is canceled by context.
var ErrInputCancelled = errors.New("input canceled")

// NonBlockingReader provides context-aware input reading that can be interrupted.
type NonBlockingReader struct {
	reader      *bufio.Reader
	readingLock sync.Mutex
}

// NewNonBlockingReader creates a new non-blocking reader.
func NewNonBlockingReader(reader io.Reader) *NonBlockingReader {
	if reader == nil {
		panic("reader cannot be nil")
	}

	return &NonBlockingReader{
		reader: bufio.NewReader(reader),
	}
}

// ReadLine reads a trimmed line, returning ErrInputCancelled if ctx ends first.
// A final line without a newline is returned as read.
func (r *NonBlockingReader) ReadLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", ErrInputCancelled
	}

	type result struct {
		err   error
		value string
	}
	resultCh := make(chan result, 1)

	go func() {
		r.readingLock.Lock()
		defer r.readingLock.Unlock()

		value, err := r.reader.ReadString('\n')
		if errors.Is(err, io.EOF) && value != "" {
			err = nil
		}
		resultCh <- result{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		// The read goroutine finishes on its own once input arrives.
		return "", ErrInputCancelled
	case res := <-resultCh:
		if res.err != nil {
			return "", res.err
		}
		return strings.TrimSpace(res.value), nil
	}
}

// Confirmer asks yes/no questions before a transaction is dispatched.
type Confirmer struct {
	reader *NonBlockingReader
	writer io.Writer
	// AssumeYes answers every question without reading input.
	AssumeYes bool
}

// NewConfirmer creates a Confirmer reading from r and prompting on w.
func NewConfirmer(r io.Reader, w io.Writer, assumeYes bool) *Confirmer {
	return &Confirmer{
		reader:    NewNonBlockingReader(r),
		writer:    w,
		AssumeYes: assumeYes,
	}
}

// Confirm prints details and question and reports whether the operator
// answered yes. End of input counts as no.
func (c *Confirmer) Confirm(ctx context.Context, details, question string) (bool, error) {
	if details != "" {
		if _, err := fmt.Fprintln(c.writer, details); err != nil {
			return false, fmt.Errorf("failed to write details: %w", err)
		}
	}
	if c.AssumeYes {
		return true, nil
	}

	if _, err := fmt.Fprint(c.writer, FormatPrompt(question)); err != nil {
		return false, fmt.Errorf("failed to write prompt: %w", err)
	}

	answer, err := c.reader.ReadLine(ctx)
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
