package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/aidledger/internal/submit"
	"github.com/Veraticus/aidledger/internal/txerror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNotify(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)
	now := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	m.Notify(ctx, submit.Notification{ID: "1", Label: "claim", Kind: submit.NotifyProcessing})
	now = now.Add(2 * time.Second)
	m.Notify(ctx, submit.Notification{ID: "1", Label: "claim", Kind: submit.NotifySuccess})

	m.Notify(ctx, submit.Notification{ID: "2", Label: "claim", Kind: submit.NotifyProcessing})
	m.Notify(ctx, submit.Notification{ID: "2", Label: "claim", Kind: submit.NotifySuccess, Duplicate: true})

	// Rejections arrive without a processing notification.
	m.Notify(ctx, submit.Notification{ID: "3", Label: "reclaim", Kind: submit.NotifyError, ErrorKind: txerror.KindTimeout})

	assert.InDelta(t, 1, testutil.ToFloat64(m.Submissions.WithLabelValues("claim", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Submissions.WithLabelValues("claim", "duplicate")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Submissions.WithLabelValues("reclaim", "error")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Errors.WithLabelValues("timeout")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.Duration))
	assert.Empty(t, m.started)
}

func TestAddReclaimed(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())
	m.AddReclaimed(250)
	m.AddReclaimed(50)
	assert.InDelta(t, 300, testutil.ToFloat64(m.Reclaimed), 0)

	var nilMetrics *Metrics
	nilMetrics.AddReclaimed(1)
	nilMetrics.Notify(context.Background(), submit.Notification{Kind: submit.NotifySuccess})
}

func TestSubmitterIntegration(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())
	s := submit.New(submit.Config{Sink: m})

	_, err := s.Submit(context.Background(), "lock", func(context.Context) (any, error) {
		return "sig", nil
	}, submit.Options{})
	assert.NoError(t, err)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Submissions.WithLabelValues("lock", "success")), 0)
}
