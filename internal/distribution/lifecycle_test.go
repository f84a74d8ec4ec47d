package distribution

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/Veraticus/aidledger/internal/model"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

func ptr(t time.Time) *time.Time { return &t }

func newDistribution(t *testing.T, allocated uint64, pctImmediate, pctLocked uint8) model.Distribution {
	t.Helper()
	immediate, locked, err := ComputeSplit(allocated, pctImmediate, pctLocked)
	require.NoError(t, err)
	return model.Distribution{
		Beneficiary:     solana.NewWallet().PublicKey(),
		AmountAllocated: allocated,
		AmountImmediate: immediate,
		AmountLocked:    locked,
	}
}

func TestComputeSplit(t *testing.T) {
	tests := []struct {
		name          string
		allocated     uint64
		pctImmediate  uint8
		pctLocked     uint8
		wantImmediate uint64
		wantLocked    uint64
		wantErr       bool
	}{
		{name: "even", allocated: 100, pctImmediate: 70, pctLocked: 30, wantImmediate: 70, wantLocked: 30},
		{name: "remainder to immediate", allocated: 101, pctImmediate: 70, pctLocked: 30, wantImmediate: 71, wantLocked: 30},
		{name: "tiny amount", allocated: 1, pctImmediate: 50, pctLocked: 50, wantImmediate: 1, wantLocked: 0},
		{name: "all immediate", allocated: 999, pctImmediate: 100, pctLocked: 0, wantImmediate: 999, wantLocked: 0},
		{name: "all locked", allocated: 999, pctImmediate: 0, pctLocked: 100, wantImmediate: 0, wantLocked: 999},
		{name: "max uint64", allocated: math.MaxUint64, pctImmediate: 1, pctLocked: 99, wantImmediate: 184467440737095517, wantLocked: 18262276632972456098},
		{name: "bad sum", allocated: 100, pctImmediate: 60, pctLocked: 30, wantErr: true},
		{name: "uint8 wraparound is not 100", allocated: 100, pctImmediate: 200, pctLocked: 156, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			immediate, locked, err := ComputeSplit(tt.allocated, tt.pctImmediate, tt.pctLocked)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSplit)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantImmediate, immediate)
			assert.Equal(t, tt.wantLocked, locked)
		})
	}
}

func TestComputeSplit_Partitions(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 5000; i++ {
		allocated := rng.Uint64()
		pctLocked := uint8(rng.Intn(101))
		immediate, locked, err := ComputeSplit(allocated, 100-pctLocked, pctLocked)
		require.NoError(t, err)
		require.Equal(t, allocated, immediate+locked)
		require.GreaterOrEqual(t, immediate, uint64(0))
		require.LessOrEqual(t, locked, allocated)
	}
}

func TestClaim_TimeLockScenario(t *testing.T) {
	d := newDistribution(t, 100, 70, 30)
	d.UnlockTime = ptr(t0.Add(24 * time.Hour))

	got, err := Claim(&d, t0)
	require.NoError(t, err)
	assert.Equal(t, uint64(70), got)
	assert.False(t, d.IsFullyClaimed)
	require.NotNil(t, d.ClaimedAt)
	assert.Nil(t, d.LockedClaimedAt)
	assert.Equal(t, model.DistributionLocked, StatusOf(d, t0))

	_, err = Claim(&d, t0.Add(time.Hour))
	assert.ErrorIs(t, err, ErrNothingToClaim)

	later := t0.Add(25 * time.Hour)
	assert.Equal(t, model.DistributionClaimable, StatusOf(d, later))
	got, err = Claim(&d, later)
	require.NoError(t, err)
	assert.Equal(t, uint64(30), got)
	assert.True(t, d.IsFullyClaimed)
	assert.Equal(t, uint64(100), d.AmountClaimed)
	require.NotNil(t, d.LockedClaimedAt)
	assert.True(t, later.Equal(*d.LockedClaimedAt))
	assert.Equal(t, model.DistributionFullyClaimed, StatusOf(d, later))
	require.NoError(t, Validate(d))
}

func TestClaim_Idempotent(t *testing.T) {
	d := newDistribution(t, 500, 60, 40)

	got, err := Claim(&d, t0)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), got)

	before := d
	_, err = Claim(&d, t0)
	assert.ErrorIs(t, err, ErrNothingToClaim)
	assert.Equal(t, before, d)
}

func TestClaim_NeverExceedsAllocation(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		d := newDistribution(t, uint64(rng.Int63n(1_000_000)+1), 50, 50)
		d.UnlockTime = ptr(t0.Add(time.Duration(rng.Intn(10)) * time.Hour))

		now := t0
		for step := 0; step < 12; step++ {
			if _, err := Claim(&d, now); err != nil {
				require.ErrorIs(t, err, ErrNothingToClaim)
			}
			require.LessOrEqual(t, d.AmountClaimed, d.AmountAllocated)
			require.NoError(t, Validate(d))
			now = now.Add(time.Hour)
		}
		assert.True(t, d.IsFullyClaimed)
	}
}

func TestReclaim_ThenClaimFails(t *testing.T) {
	authority := solana.NewWallet().PublicKey()
	pool := &model.FundPool{Authority: authority, AvailableBalance: 5}
	d := newDistribution(t, 100, 70, 30)
	d.ClaimDeadline = ptr(t0)

	now := t0.Add(time.Minute)
	assert.Equal(t, model.DistributionReclaimable, StatusOf(d, now))
	require.NoError(t, Reclaim(&d, pool, now, authority))

	assert.True(t, d.IsExpired)
	require.NotNil(t, d.ExpiredAt)
	assert.True(t, now.Equal(*d.ExpiredAt))
	assert.Equal(t, uint64(105), pool.AvailableBalance)
	assert.Equal(t, uint64(100), pool.TotalReclaimed)
	assert.Equal(t, model.DistributionExpired, StatusOf(d, now))
	assert.Equal(t, uint64(0), Claimable(d, now))
	require.NoError(t, Validate(d))

	_, err := Claim(&d, now)
	assert.ErrorIs(t, err, ErrDistributionExpired)

	err = Reclaim(&d, pool, now, authority)
	assert.ErrorIs(t, err, ErrAlreadyExpired)
	assert.Equal(t, uint64(105), pool.AvailableBalance)
}

func TestReclaim_Rejections(t *testing.T) {
	authority := solana.NewWallet().PublicKey()

	tests := []struct {
		name      string
		mutate    func(d *model.Distribution)
		now       time.Time
		authority solana.PublicKey
		wantErr   error
	}{
		{
			name:      "wrong authority",
			now:       t0.Add(time.Hour),
			authority: solana.NewWallet().PublicKey(),
			wantErr:   ErrUnauthorized,
		},
		{
			name:      "deadline not passed",
			now:       t0,
			authority: authority,
			wantErr:   ErrNotExpired,
		},
		{
			name:      "no deadline",
			mutate:    func(d *model.Distribution) { d.ClaimDeadline = nil },
			now:       t0.Add(time.Hour),
			authority: authority,
			wantErr:   ErrNotExpired,
		},
		{
			name:      "partly claimed",
			mutate:    func(d *model.Distribution) { d.AmountClaimed = 10 },
			now:       t0.Add(time.Hour),
			authority: authority,
			wantErr:   ErrAlreadyClaimed,
		},
		{
			name:      "different pool",
			mutate:    func(d *model.Distribution) { d.Pool = solana.NewWallet().PublicKey() },
			now:       t0.Add(time.Hour),
			authority: authority,
			wantErr:   ErrPoolMismatch,
		},
		{
			name:      "corrupt record",
			mutate:    func(d *model.Distribution) { d.AmountLocked++ },
			now:       t0.Add(time.Hour),
			authority: authority,
			wantErr:   ErrCorruptDistribution,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := &model.FundPool{Address: solana.NewWallet().PublicKey(), Authority: authority}
			d := newDistribution(t, 100, 70, 30)
			d.Pool = pool.Address
			d.ClaimDeadline = ptr(t0)
			if tt.mutate != nil {
				tt.mutate(&d)
			}
			before := d

			err := Reclaim(&d, pool, tt.now, tt.authority)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, before, d)
			assert.Zero(t, pool.AvailableBalance)
		})
	}
}

func TestClaim_AfterDeadlineUntilReclaimed(t *testing.T) {
	d := newDistribution(t, 100, 100, 0)
	d.ClaimDeadline = ptr(t0)

	got, err := Claim(&d, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, uint64(100), got)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		d      model.Distribution
		wantOK bool
	}{
		{name: "fresh", d: model.Distribution{AmountAllocated: 10, AmountImmediate: 7, AmountLocked: 3}, wantOK: true},
		{name: "split mismatch", d: model.Distribution{AmountAllocated: 10, AmountImmediate: 7, AmountLocked: 4}},
		{name: "split overflow", d: model.Distribution{AmountAllocated: 1, AmountImmediate: math.MaxUint64, AmountLocked: 2}},
		{name: "over claimed", d: model.Distribution{AmountAllocated: 10, AmountImmediate: 10, AmountClaimed: 11}},
		{name: "fully claimed flag missing", d: model.Distribution{AmountAllocated: 10, AmountImmediate: 10, AmountClaimed: 10}},
		{name: "fully claimed flag wrong", d: model.Distribution{AmountAllocated: 10, AmountImmediate: 10, AmountClaimed: 5, IsFullyClaimed: true}},
		{name: "expired after claim", d: model.Distribution{AmountAllocated: 10, AmountImmediate: 10, AmountClaimed: 5, IsExpired: true, ClaimDeadline: ptr(t0)}},
		{name: "expired without deadline", d: model.Distribution{AmountAllocated: 10, AmountImmediate: 10, IsExpired: true}},
		{name: "expired before deadline", d: model.Distribution{AmountAllocated: 10, AmountImmediate: 10, IsExpired: true, ClaimDeadline: ptr(t0), ExpiredAt: ptr(t0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.d)
			if tt.wantOK {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrCorruptDistribution)
		})
	}
}
