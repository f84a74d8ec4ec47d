package sheets

import (
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/Veraticus/aidledger/internal/service"
	"github.com/shopspring/decimal"
)

// DistributionReportRow is one line of the Distributions section.
type DistributionReportRow struct {
	ClaimDeadline *time.Time
	UnlockTime    *time.Time
	Beneficiary   string
	Status        string
	Allocated     decimal.Decimal
	Immediate     decimal.Decimal
	Locked        decimal.Decimal
	Claimed       decimal.Decimal
	Claimable     decimal.Decimal
}

// StatusReportRow is one line of the status breakdown.
type StatusReportRow struct {
	Status    string
	Allocated decimal.Decimal
	Claimed   decimal.Decimal
	Count     int
}

// PoolReport is a pool summary converted to display units.
type PoolReport struct {
	GeneratedAt   time.Time
	Title         string
	PoolAddress   string
	Deposited     decimal.Decimal
	Distributed   decimal.Decimal
	Claimed       decimal.Decimal
	Reclaimed     decimal.Decimal
	Available     decimal.Decimal
	ByStatus      []StatusReportRow
	Distributions []DistributionReportRow
}

// NewPoolReport converts base units to decimal amounts using the pool's mint
// decimals.
func NewPoolReport(summary *service.PoolSummary) PoolReport {
	pool := summary.Pool
	amount := func(v uint64) decimal.Decimal {
		return decimal.NewFromBigInt(new(big.Int).SetUint64(v), -int32(pool.TokenDecimals))
	}

	title := pool.Name
	if title == "" {
		title = fmt.Sprintf("%s / %s", pool.DisasterID, pool.PoolID)
	}

	report := PoolReport{
		GeneratedAt:   summary.GeneratedAt,
		Title:         title,
		PoolAddress:   pool.Address.String(),
		Deposited:     amount(pool.TotalDeposited),
		Distributed:   amount(pool.TotalDistributed),
		Claimed:       amount(pool.TotalClaimed),
		Reclaimed:     amount(pool.TotalReclaimed),
		Available:     amount(pool.AvailableBalance),
		ByStatus:      make([]StatusReportRow, 0, len(summary.ByStatus)),
		Distributions: make([]DistributionReportRow, 0, len(summary.Rows)),
	}

	for status, s := range summary.ByStatus {
		report.ByStatus = append(report.ByStatus, StatusReportRow{
			Status:    string(status),
			Count:     s.Count,
			Allocated: amount(s.Allocated),
			Claimed:   amount(s.Claimed),
		})
	}
	sort.Slice(report.ByStatus, func(i, j int) bool {
		return report.ByStatus[i].Allocated.GreaterThan(report.ByStatus[j].Allocated)
	})

	for _, row := range summary.Rows {
		d := row.Distribution
		report.Distributions = append(report.Distributions, DistributionReportRow{
			Beneficiary:   d.Beneficiary.String(),
			Status:        string(row.Status),
			Allocated:     amount(d.AmountAllocated),
			Immediate:     amount(d.AmountImmediate),
			Locked:        amount(d.AmountLocked),
			Claimed:       amount(d.AmountClaimed),
			Claimable:     amount(row.Claimable),
			UnlockTime:    d.UnlockTime,
			ClaimDeadline: d.ClaimDeadline,
		})
	}

	return report
}

// Values lays the report out as spreadsheet rows.
func (r PoolReport) Values() [][]any {
	values := make([][]any, 0, 12+len(r.ByStatus)+len(r.Distributions))

	values = append(values,
		[]any{r.Title, r.GeneratedAt.UTC().Format(time.RFC3339)},
		[]any{"Pool", r.PoolAddress},
		[]any{},
		[]any{"Summary"},
		[]any{"Deposited", r.Deposited.String()},
		[]any{"Distributed", r.Distributed.String()},
		[]any{"Claimed", r.Claimed.String()},
		[]any{"Reclaimed", r.Reclaimed.String()},
		[]any{"Available", r.Available.String()},
		[]any{},
		[]any{"Status", "Count", "Allocated", "Claimed"},
	)
	for _, s := range r.ByStatus {
		values = append(values, []any{s.Status, s.Count, s.Allocated.String(), s.Claimed.String()})
	}

	values = append(values,
		[]any{},
		[]any{"Beneficiary", "Status", "Allocated", "Immediate", "Locked", "Claimed", "Claimable", "Unlocks", "Deadline"},
	)
	for _, d := range r.Distributions {
		values = append(values, []any{
			d.Beneficiary,
			d.Status,
			d.Allocated.String(),
			d.Immediate.String(),
			d.Locked.String(),
			d.Claimed.String(),
			d.Claimable.String(),
			formatOptionalTime(d.UnlockTime),
			formatOptionalTime(d.ClaimDeadline),
		})
	}

	return values
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04")
}
