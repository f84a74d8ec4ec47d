package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/Veraticus/aidledger/internal/submit"
	"github.com/Veraticus/aidledger/internal/txerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleSink(t *testing.T) {
	tests := []struct {
		name        string
		n           submit.Notification
		contains    []string
		notContains []string
	}{
		{
			name:     "processing",
			n:        submit.Notification{Kind: submit.NotifyProcessing, Label: "claim", Description: "Submitting transaction..."},
			contains: []string{"claim", "Submitting transaction..."},
		},
		{
			name:     "success with link",
			n:        submit.Notification{Kind: submit.NotifySuccess, Title: "Success", Description: "Funds claimed", Link: "https://explorer.solana.com/tx/abc"},
			contains: []string{SuccessIcon, "Funds claimed", "https://explorer.solana.com/tx/abc"},
		},
		{
			name:     "recoverable error",
			n:        submit.Notification{Kind: submit.NotifyError, Title: "Transaction Expired", Description: "The transaction expired.", Recoverable: true, Severity: txerror.SeverityWarning},
			contains: []string{WarningIcon, "Transaction Expired", "Please try again."},
		},
		{
			name:        "terminal error",
			n:           submit.Notification{Kind: submit.NotifyError, Title: "Unauthorized", Description: "Not allowed.", Severity: txerror.SeverityError},
			contains:    []string{ErrorIcon, "Unauthorized"},
			notContains: []string{"Please try again."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			NewConsoleSink(&out).Notify(context.Background(), tt.n)
			for _, s := range tt.contains {
				assert.Contains(t, out.String(), s)
			}
			for _, s := range tt.notContains {
				assert.NotContains(t, out.String(), s)
			}
		})
	}
}

func TestRenderDetails(t *testing.T) {
	out := RenderDetails("Distribution", []Field{
		{Label: "Allocated", Value: "1000"},
		{Label: "Status", Value: "claimable"},
	})
	assert.Contains(t, out, "Distribution")
	assert.Contains(t, out, "Allocated")
	assert.Contains(t, out, "claimable")
}

func TestNewProgressBar(t *testing.T) {
	var buf bytes.Buffer
	bar := NewProgressBar(&buf, 3, "Deriving addresses")
	for i := 0; i < 3; i++ {
		require.NoError(t, bar.Add(1))
	}
	assert.True(t, bar.IsFinished())
	assert.Contains(t, buf.String(), "3/3")
}
