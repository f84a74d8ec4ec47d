package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/Veraticus/aidledger/internal/submit"
	"github.com/Veraticus/aidledger/internal/txerror"
)

// ConsoleSink prints submission notifications to a terminal.
type ConsoleSink struct {
	writer io.Writer
}

// NewConsoleSink creates a sink writing to w, or stdout when w is nil.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleSink{writer: w}
}

// Notify implements submit.NotificationSink.
func (c *ConsoleSink) Notify(_ context.Context, n submit.Notification) {
	var msg string
	switch n.Kind {
	case submit.NotifyProcessing:
		msg = FormatInfo(fmt.Sprintf("%s: %s", n.Label, n.Description))
	case submit.NotifySuccess:
		msg = FormatSuccess(fmt.Sprintf("%s: %s", n.Title, n.Description))
		if n.Link != "" {
			msg += "\n  " + FormatLink(n.Link)
		}
	case submit.NotifyError:
		text := fmt.Sprintf("%s: %s", n.Title, n.Description)
		if n.Recoverable {
			text += " Please try again."
		}
		if n.Severity == txerror.SeverityWarning {
			msg = FormatWarning(text)
		} else {
			msg = FormatError(text)
		}
	default:
		return
	}

	// Best effort; a broken terminal must not fail the submission.
	_, _ = fmt.Fprintln(c.writer, msg)
}

var _ submit.NotificationSink = (*ConsoleSink)(nil)
