package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/aidledger/internal/address"
	"github.com/Veraticus/aidledger/internal/distribution"
	"github.com/Veraticus/aidledger/internal/model"
	"github.com/Veraticus/aidledger/internal/service"
	"github.com/Veraticus/aidledger/internal/submit"
	"github.com/gagliardetto/solana-go"
)

// LockPool permanently closes registration for a pool.
func (e *Engine) LockPool(ctx context.Context, disasterID, poolID string) (*submit.Result, error) {
	const label, title = "lock-pool", "Lock Failed"
	authority := e.client.Wallet()

	pool, err := e.Pool(ctx, disasterID, poolID)
	if err != nil {
		return nil, e.reject(ctx, label, err, title)
	}
	if !pool.Authority.Equals(authority) {
		return nil, e.reject(ctx, label, ErrNotPoolAuthority, title)
	}
	locked := *pool
	if err := distribution.LockRegistration(&locked); err != nil {
		return nil, e.reject(ctx, label, err, title)
	}

	details := fmt.Sprintf("Lock registration for %s (%d beneficiaries, total weight %d)\nThis cannot be undone.",
		poolTitle(pool), pool.BeneficiaryCount, pool.TotalWeight)
	if err := e.confirm(ctx, label, details, "Lock registration?"); err != nil {
		return nil, err
	}

	ix, err := e.program.LockPoolRegistration(authority, disasterID, poolID)
	if err != nil {
		return nil, e.reject(ctx, label, err, title)
	}
	return e.send(ctx, label, ix, submit.Options{
		ErrorTitle:     title,
		SuccessMessage: "Pool registration locked",
	})
}

// Claim pays the wallet everything currently claimable from its distribution
// in a pool.
func (e *Engine) Claim(ctx context.Context, disasterID, poolID string) (*submit.Result, error) {
	const label, title = "claim", "Claim Failed"
	claimer := e.client.Wallet()

	pool, err := e.Pool(ctx, disasterID, poolID)
	if err != nil {
		return nil, e.reject(ctx, label, err, title)
	}
	beneficiary, err := e.derive(address.KindBeneficiary, address.PublicKey(claimer), address.String(disasterID))
	if err != nil {
		return nil, e.reject(ctx, label, err, title)
	}
	dist, err := e.Distribution(ctx, beneficiary, pool.Address)
	if err != nil {
		return nil, e.reject(ctx, label, err, title)
	}

	d := *dist
	amount, err := distribution.Claim(&d, e.now())
	if err != nil {
		return nil, e.reject(ctx, label, err, title)
	}

	formatted := model.FormatAmount(amount, pool.TokenDecimals)
	details := fmt.Sprintf("Claim %s tokens from %s\nAllocated %s, already claimed %s",
		formatted, poolTitle(pool),
		model.FormatAmount(dist.AmountAllocated, pool.TokenDecimals),
		model.FormatAmount(dist.AmountClaimed, pool.TokenDecimals))
	if err := e.confirm(ctx, label, details, "Submit claim?"); err != nil {
		return nil, err
	}

	ix, err := e.program.ClaimDistribution(claimer, pool)
	if err != nil {
		return nil, e.reject(ctx, label, err, title)
	}
	return e.send(ctx, label, ix, submit.Options{
		ErrorTitle:     title,
		SuccessMessage: fmt.Sprintf("Claimed %s tokens", formatted),
	})
}

// Reclaim returns an expired, untouched distribution to the pool. beneficiary
// is the beneficiary account address, not its authority.
func (e *Engine) Reclaim(ctx context.Context, disasterID, poolID string, beneficiary solana.PublicKey) (*submit.Result, error) {
	const label, title = "reclaim", "Reclaim Failed"

	pool, err := e.Pool(ctx, disasterID, poolID)
	if err != nil {
		return nil, e.reject(ctx, label, err, title)
	}
	dist, err := e.Distribution(ctx, beneficiary, pool.Address)
	if err != nil {
		return nil, e.reject(ctx, label, err, title)
	}
	if err := e.checkReclaim(*pool, *dist); err != nil {
		return nil, e.reject(ctx, label, err, title)
	}

	details := fmt.Sprintf("Reclaim %s tokens allocated to %s in %s",
		model.FormatAmount(dist.AmountAllocated, pool.TokenDecimals), beneficiary, poolTitle(pool))
	if err := e.confirm(ctx, label, details, "Submit reclaim?"); err != nil {
		return nil, err
	}
	return e.sendReclaim(ctx, pool, *dist)
}

func (e *Engine) checkReclaim(pool model.FundPool, d model.Distribution) error {
	return distribution.Reclaim(&d, &pool, e.now(), e.client.Wallet())
}

func (e *Engine) sendReclaim(ctx context.Context, pool *model.FundPool, d model.Distribution) (*submit.Result, error) {
	const label, title = "reclaim", "Reclaim Failed"

	ix, err := e.program.ReclaimExpiredDistribution(e.client.Wallet(), pool, d.Beneficiary)
	if err != nil {
		return nil, e.reject(ctx, label, err, title)
	}
	return e.send(ctx, label, ix, submit.Options{
		ErrorTitle:     title,
		SuccessMessage: fmt.Sprintf("Reclaimed %s tokens", model.FormatAmount(d.AmountAllocated, pool.TokenDecimals)),
	})
}

// SweepResult summarises a sweep of expired distributions.
type SweepResult struct {
	Failed     map[solana.PublicKey]error
	Reclaimed  []model.Distribution
	Candidates int
	Amount     uint64
}

// SweepProgress is called once for every candidate a sweep attempts. done
// counts attempts so far, including this one, out of total candidates.
type SweepProgress func(d model.Distribution, done, total int, err error)

// Sweep reclaims every distribution in a pool whose claim window closed with
// nothing claimed. Candidates are submitted one at a time after a single
// confirmation. It stops early when ctx is cancelled; the partial result is
// returned with the context error.
func (e *Engine) Sweep(ctx context.Context, disasterID, poolID string, progress SweepProgress) (*SweepResult, error) {
	const label, title = "sweep", "Sweep Failed"
	result := &SweepResult{Failed: make(map[solana.PublicKey]error)}

	pool, err := e.Pool(ctx, disasterID, poolID)
	if err != nil {
		return nil, e.reject(ctx, label, err, title)
	}
	if !pool.Authority.Equals(e.client.Wallet()) {
		return nil, e.reject(ctx, label, ErrNotPoolAuthority, title)
	}
	dists, err := e.Distributions(ctx, pool.Address)
	if err != nil {
		return nil, e.reject(ctx, label, err, title)
	}

	candidates := distribution.Reclaimable(dists, e.now())
	result.Candidates = len(candidates)
	if len(candidates) == 0 {
		slog.Info("No expired distributions to reclaim", "pool", pool.Address)
		return result, nil
	}

	var total uint64
	for _, d := range candidates {
		total += d.AmountAllocated
	}
	details := fmt.Sprintf("Reclaim %d expired distributions (%s tokens) into %s",
		len(candidates), model.FormatAmount(total, pool.TokenDecimals), poolTitle(pool))
	if err := e.confirm(ctx, label, details, "Submit reclaims?"); err != nil {
		return nil, err
	}

	for i, d := range candidates {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		var err error
		if cerr := e.checkReclaim(*pool, d); cerr != nil {
			err = e.reject(ctx, "reclaim", cerr, "Reclaim Failed")
		} else {
			_, err = e.sendReclaim(ctx, pool, d)
		}
		if errors.Is(err, submit.ErrInFlight) {
			return result, err
		}

		if err != nil {
			result.Failed[d.Address] = err
			slog.Warn("Reclaim failed", "distribution", d.Address, "error", err)
		} else {
			result.Reclaimed = append(result.Reclaimed, d)
			result.Amount += d.AmountAllocated
			pool.AvailableBalance += d.AmountAllocated
			pool.TotalReclaimed += d.AmountAllocated
		}
		if progress != nil {
			progress(d, i+1, len(candidates), err)
		}
	}

	slog.Info("Sweep complete",
		"pool", pool.Address,
		"reclaimed", len(result.Reclaimed),
		"failed", len(result.Failed),
		"amount", result.Amount)
	return result, nil
}

// Donate transfers amount, given in whole tokens, from the wallet into a pool.
func (e *Engine) Donate(ctx context.Context, disasterID, poolID, amount string) (*submit.Result, error) {
	const label, title = "donate", "Donation Failed"
	donor := e.client.Wallet()

	config, err := e.PlatformConfig(ctx)
	if err != nil {
		return nil, e.reject(ctx, label, err, title)
	}
	if config.Paused {
		return nil, e.reject(ctx, label, ErrPlatformPaused, title)
	}
	pool, err := e.Pool(ctx, disasterID, poolID)
	if err != nil {
		return nil, e.reject(ctx, label, err, title)
	}
	if !pool.IsActive {
		return nil, e.reject(ctx, label, distribution.ErrPoolInactive, title)
	}

	base, err := model.ParseAmount(amount, pool.TokenDecimals)
	if err != nil {
		return nil, e.reject(ctx, label, err, title)
	}
	if err := checkDonation(config, base, pool.TokenDecimals); err != nil {
		return nil, e.reject(ctx, label, err, title)
	}

	formatted := model.FormatAmount(base, pool.TokenDecimals)
	details := fmt.Sprintf("Donate %s tokens to %s", formatted, poolTitle(pool))
	if err := e.confirm(ctx, label, details, "Submit donation?"); err != nil {
		return nil, err
	}

	ix, err := e.program.DonateToPool(donor, pool, base, e.now())
	if err != nil {
		return nil, e.reject(ctx, label, err, title)
	}
	return e.send(ctx, label, ix, submit.Options{
		ErrorTitle:     title,
		SuccessMessage: fmt.Sprintf("Donated %s tokens", formatted),
	})
}

func checkDonation(config *model.PlatformConfig, amount uint64, decimals uint8) error {
	if config.MinDonation > 0 && amount < config.MinDonation {
		return fmt.Errorf("%w of %s", ErrBelowMinimum, model.FormatAmount(config.MinDonation, decimals))
	}
	if config.MaxDonation > 0 && amount > config.MaxDonation {
		return fmt.Errorf("%w of %s", ErrAboveMaximum, model.FormatAmount(config.MaxDonation, decimals))
	}
	return nil
}

// Report summarises every distribution made from a pool.
func (e *Engine) Report(ctx context.Context, disasterID, poolID string) (*service.PoolSummary, error) {
	pool, err := e.Pool(ctx, disasterID, poolID)
	if err != nil {
		return nil, err
	}
	dists, err := e.Distributions(ctx, pool.Address)
	if err != nil {
		return nil, err
	}
	return distribution.Summarize(*pool, dists, e.now()), nil
}

func poolTitle(p *model.FundPool) string {
	if p.Name != "" {
		return fmt.Sprintf("%s (%s/%s)", p.Name, p.DisasterID, p.PoolID)
	}
	return p.DisasterID + "/" + p.PoolID
}
