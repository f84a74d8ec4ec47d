package distribution

import (
	"sort"
	"time"

	"github.com/Veraticus/aidledger/internal/model"
	"github.com/Veraticus/aidledger/internal/service"
)

// Summarize groups a pool's distributions by status at now. Rows are ordered
// by status, then by largest allocation.
func Summarize(pool model.FundPool, dists []model.Distribution, now time.Time) *service.PoolSummary {
	summary := &service.PoolSummary{
		GeneratedAt: now,
		Pool:        pool,
		ByStatus:    make(map[model.DistributionStatus]service.StatusSummary),
		Rows:        make([]service.DistributionRow, 0, len(dists)),
	}

	for _, d := range dists {
		status := StatusOf(d, now)
		row := service.DistributionRow{
			Distribution: d,
			Status:       status,
			Claimable:    Claimable(d, now),
		}
		summary.Rows = append(summary.Rows, row)

		s := summary.ByStatus[status]
		s.Count++
		s.Allocated += d.AmountAllocated
		s.Claimed += d.AmountClaimed
		summary.ByStatus[status] = s
	}

	sort.SliceStable(summary.Rows, func(i, j int) bool {
		a, b := summary.Rows[i], summary.Rows[j]
		if a.Status != b.Status {
			return statusOrder[a.Status] < statusOrder[b.Status]
		}
		return a.Distribution.AmountAllocated > b.Distribution.AmountAllocated
	})

	return summary
}

// Reclaimable returns the distributions the pool authority may sweep at now.
func Reclaimable(dists []model.Distribution, now time.Time) []model.Distribution {
	var out []model.Distribution
	for _, d := range dists {
		if StatusOf(d, now) == model.DistributionReclaimable {
			out = append(out, d)
		}
	}
	return out
}

var statusOrder = map[model.DistributionStatus]int{
	model.DistributionReclaimable:  0,
	model.DistributionClaimable:    1,
	model.DistributionLocked:       2,
	model.DistributionFullyClaimed: 3,
	model.DistributionExpired:      4,
}
