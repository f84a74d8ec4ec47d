// Package engine orchestrates relief program operations: it reads fresh ledger
// state, checks the operation against the local domain rules, asks the
// operator to confirm and hands the instruction to the submitter.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/aidledger/internal/address"
	"github.com/Veraticus/aidledger/internal/common"
	"github.com/Veraticus/aidledger/internal/ledger"
	"github.com/Veraticus/aidledger/internal/model"
	"github.com/Veraticus/aidledger/internal/program"
	"github.com/Veraticus/aidledger/internal/submit"
	"github.com/Veraticus/aidledger/internal/verification"
	"github.com/gagliardetto/solana-go"
)

// Errors raised by pre-flight checks. Their messages are written so the error
// classifier recognises them.
var (
	ErrDeclined           = errors.New("user rejected the request")
	ErrAlreadyApproved    = errors.New("this field worker has already approved the beneficiary")
	ErrAlreadyVerified    = errors.New("beneficiary is already verified")
	ErrNotAdmin           = errors.New("not authorized: only the platform admin may review flagged beneficiaries")
	ErrNotPoolAuthority   = errors.New("not authorized: only the pool authority may do this")
	ErrPlatformPaused     = errors.New("platform paused")
	ErrBelowMinimum       = errors.New("donation is below the minimum")
	ErrAboveMaximum       = errors.New("donation is above the maximum")
	ErrListingUnsupported = errors.New("ledger client cannot list program accounts")
)

// Engine runs relief program operations on behalf of the configured wallet.
type Engine struct {
	client    ledger.Client
	program   *program.Program
	submitter *submit.Submitter
	verifier  *verification.Engine
	confirmer Confirmer
	now       func() time.Time
}

// New creates an engine. A nil confirmer approves everything.
func New(client ledger.Client, prog *program.Program, submitter *submit.Submitter, verifier *verification.Engine, confirmer Confirmer) *Engine {
	if confirmer == nil {
		confirmer = AutoConfirm{}
	}
	return &Engine{
		client:    client,
		program:   prog,
		submitter: submitter,
		verifier:  verifier,
		confirmer: confirmer,
		now:       time.Now,
	}
}

// Wallet returns the public key transactions are signed with.
func (e *Engine) Wallet() solana.PublicKey {
	return e.client.Wallet()
}

// Verifier returns the verification rules for the ledger's current approval
// threshold. The locally configured threshold applies only when the platform
// config leaves RequiredVerifications unset.
func (e *Engine) Verifier(ctx context.Context) (*verification.Engine, error) {
	config, err := e.PlatformConfig(ctx)
	if err != nil {
		return nil, err
	}
	return e.verifierFor(config), nil
}

func (e *Engine) verifierFor(config *model.PlatformConfig) *verification.Engine {
	if config.RequiredVerifications == 0 {
		return e.verifier
	}
	return &verification.Engine{Threshold: int(config.RequiredVerifications)}
}

func (e *Engine) derive(kind address.Kind, seeds ...address.Seed) (solana.PublicKey, error) {
	addr, err := e.program.Addresses().Derive(kind, seeds...)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return addr.Key, nil
}

func (e *Engine) fetch(ctx context.Context, what string, addr solana.PublicKey) ([]byte, error) {
	data, err := e.client.FetchAccount(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s %s: %w", what, addr, err)
	}
	if data == nil {
		return nil, fmt.Errorf("%w: %s %s", common.ErrAccountNotFound, what, addr)
	}
	return data, nil
}

// PlatformConfig reads the singleton configuration account.
func (e *Engine) PlatformConfig(ctx context.Context) (*model.PlatformConfig, error) {
	addr, err := e.derive(address.KindPlatformConfig)
	if err != nil {
		return nil, err
	}
	data, err := e.fetch(ctx, "platform config", addr)
	if err != nil {
		return nil, err
	}
	return program.DecodePlatformConfig(data)
}

// Beneficiary reads the beneficiary registered under authority for a disaster.
func (e *Engine) Beneficiary(ctx context.Context, authority solana.PublicKey, disasterID string) (*model.Beneficiary, error) {
	addr, err := e.derive(address.KindBeneficiary, address.PublicKey(authority), address.String(disasterID))
	if err != nil {
		return nil, err
	}
	data, err := e.fetch(ctx, "beneficiary", addr)
	if err != nil {
		return nil, err
	}
	return program.DecodeBeneficiary(addr, data)
}

// Pool reads a fund pool.
func (e *Engine) Pool(ctx context.Context, disasterID, poolID string) (*model.FundPool, error) {
	addr, err := e.derive(address.KindFundPool, address.String(disasterID), address.String(poolID))
	if err != nil {
		return nil, err
	}
	data, err := e.fetch(ctx, "fund pool", addr)
	if err != nil {
		return nil, err
	}
	return program.DecodeFundPool(addr, data)
}

// Distribution reads the allocation made to a beneficiary account from pool.
func (e *Engine) Distribution(ctx context.Context, beneficiary, pool solana.PublicKey) (*model.Distribution, error) {
	addr, err := e.derive(address.KindDistribution, address.PublicKey(beneficiary), address.PublicKey(pool))
	if err != nil {
		return nil, err
	}
	data, err := e.fetch(ctx, "distribution", addr)
	if err != nil {
		return nil, err
	}
	return program.DecodeDistribution(addr, data)
}

// Distributions lists every distribution made from pool.
func (e *Engine) Distributions(ctx context.Context, pool solana.PublicKey) ([]model.Distribution, error) {
	lister, ok := e.client.(ledger.ProgramAccountLister)
	if !ok {
		return nil, ErrListingUnsupported
	}

	disc := program.AccountDiscriminator(program.AccountDistribution)
	accounts, err := lister.ListProgramAccounts(ctx, e.program.ID,
		ledger.Memcmp{Offset: 0, Bytes: disc[:]},
		ledger.Memcmp{Offset: program.DistributionPoolOffset, Bytes: pool.Bytes()},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list distributions: %w", err)
	}

	out := make([]model.Distribution, 0, len(accounts))
	for _, acc := range accounts {
		d, err := program.DecodeDistribution(acc.Address, acc.Data)
		if err != nil {
			slog.Warn("Skipping undecodable distribution account", "address", acc.Address, "error", err)
			continue
		}
		out = append(out, *d)
	}
	return out, nil
}

// reject routes a pre-flight failure through the submitter so it is reported
// like any failed transaction.
func (e *Engine) reject(ctx context.Context, label string, err error, title string) error {
	return e.submitter.Reject(ctx, label, err, submit.Options{ErrorTitle: title})
}

// confirm asks the operator to approve the transaction described by details.
// Declining is reported through the submitter as a cancellation.
func (e *Engine) confirm(ctx context.Context, label, details, question string) error {
	ok, err := e.confirmer.Confirm(ctx, details, question)
	if err != nil {
		return err
	}
	if !ok {
		return e.reject(ctx, label, ErrDeclined, "")
	}
	return nil
}

// send submits ix through the submitter.
func (e *Engine) send(ctx context.Context, label string, ix *solana.GenericInstruction, opts submit.Options) (*submit.Result, error) {
	data, err := ix.Data()
	if err != nil {
		return nil, e.reject(ctx, label, fmt.Errorf("failed to encode instruction: %w", err), opts.ErrorTitle)
	}
	accounts := ix.Accounts()

	return e.submitter.Submit(ctx, label, func(ctx context.Context) (any, error) {
		sig, err := e.client.SendInstruction(ctx, e.program.ID, accounts, data)
		if err != nil {
			return nil, err
		}
		return sig, nil
	}, opts)
}
