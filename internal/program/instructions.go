package program

import (
	"fmt"
	"time"

	"github.com/Veraticus/aidledger/internal/address"
	"github.com/Veraticus/aidledger/internal/model"
	"github.com/gagliardetto/solana-go"
)

// Instruction names, as hashed into their discriminators.
const (
	IxVerifyBeneficiary          = "verify_beneficiary"
	IxFlagBeneficiary            = "flag_beneficiary"
	IxReviewFlaggedBeneficiary   = "review_flagged_beneficiary"
	IxLockPoolRegistration       = "lock_pool_registration"
	IxClaimDistribution          = "claim_distribution"
	IxReclaimExpiredDistribution = "reclaim_expired_distribution"
	IxDonateToPool               = "donate_to_pool"
)

// MaxFlagReasonLength bounds the reason string stored on chain.
const MaxFlagReasonLength = 200

// Program builds instructions for one deployment of the relief program.
type Program struct {
	addrs *address.Memo
	ID    solana.PublicKey
}

// New returns a builder for the program deployed at id.
func New(id solana.PublicKey) *Program {
	return &Program{ID: id, addrs: address.NewMemo(id)}
}

// Addresses exposes the program's derivation cache.
func (p *Program) Addresses() *address.Memo {
	return p.addrs
}

func (p *Program) derive(kind address.Kind, seeds ...address.Seed) (solana.PublicKey, error) {
	a, err := p.addrs.Derive(kind, seeds...)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return a.Key, nil
}

func (p *Program) instruction(name string, accounts solana.AccountMetaSlice, args any) (*solana.GenericInstruction, error) {
	data, err := encodeInstruction(name, args)
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(p.ID, accounts, data), nil
}

// VerifyBeneficiary adds the signing field worker's approval to a beneficiary.
func (p *Program) VerifyBeneficiary(worker, beneficiaryAuthority solana.PublicKey, disasterID string) (*solana.GenericInstruction, error) {
	config, err := p.derive(address.KindPlatformConfig)
	if err != nil {
		return nil, err
	}
	beneficiary, err := p.derive(address.KindBeneficiary, address.PublicKey(beneficiaryAuthority), address.String(disasterID))
	if err != nil {
		return nil, err
	}
	fieldWorker, err := p.derive(address.KindFieldWorker, address.PublicKey(worker))
	if err != nil {
		return nil, err
	}

	args := struct {
		BeneficiaryAuthority solana.PublicKey
		DisasterID           string
	}{beneficiaryAuthority, disasterID}

	return p.instruction(IxVerifyBeneficiary, solana.AccountMetaSlice{
		solana.Meta(config),
		solana.Meta(beneficiary).WRITE(),
		solana.Meta(fieldWorker).WRITE(),
		solana.Meta(worker).SIGNER().WRITE(),
	}, &args)
}

// FlagBeneficiary sends a beneficiary to admin review.
func (p *Program) FlagBeneficiary(worker, beneficiaryAuthority solana.PublicKey, disasterID, reason string) (*solana.GenericInstruction, error) {
	if reason == "" || len(reason) > MaxFlagReasonLength {
		return nil, fmt.Errorf("flag reason must be 1-%d bytes, got %d", MaxFlagReasonLength, len(reason))
	}
	config, err := p.derive(address.KindPlatformConfig)
	if err != nil {
		return nil, err
	}
	beneficiary, err := p.derive(address.KindBeneficiary, address.PublicKey(beneficiaryAuthority), address.String(disasterID))
	if err != nil {
		return nil, err
	}
	fieldWorker, err := p.derive(address.KindFieldWorker, address.PublicKey(worker))
	if err != nil {
		return nil, err
	}

	args := struct {
		BeneficiaryAuthority solana.PublicKey
		DisasterID           string
		Reason               string
	}{beneficiaryAuthority, disasterID, reason}

	return p.instruction(IxFlagBeneficiary, solana.AccountMetaSlice{
		solana.Meta(config),
		solana.Meta(beneficiary).WRITE(),
		solana.Meta(fieldWorker).WRITE(),
		solana.Meta(worker).SIGNER().WRITE(),
	}, &args)
}

// ReviewFlaggedBeneficiary resolves a flag with the admin's chosen outcome.
func (p *Program) ReviewFlaggedBeneficiary(admin, beneficiaryAuthority solana.PublicKey, disasterID string, outcome model.VerificationStatus) (*solana.GenericInstruction, error) {
	code, err := statusToCode(outcome)
	if err != nil {
		return nil, err
	}
	config, err := p.derive(address.KindPlatformConfig)
	if err != nil {
		return nil, err
	}
	beneficiary, err := p.derive(address.KindBeneficiary, address.PublicKey(beneficiaryAuthority), address.String(disasterID))
	if err != nil {
		return nil, err
	}

	args := struct {
		BeneficiaryAuthority solana.PublicKey
		DisasterID           string
		Outcome              uint8
	}{beneficiaryAuthority, disasterID, code}

	return p.instruction(IxReviewFlaggedBeneficiary, solana.AccountMetaSlice{
		solana.Meta(config),
		solana.Meta(beneficiary).WRITE(),
		solana.Meta(admin).SIGNER().WRITE(),
	}, &args)
}

// LockPoolRegistration permanently closes registration for a pool.
func (p *Program) LockPoolRegistration(authority solana.PublicKey, disasterID, poolID string) (*solana.GenericInstruction, error) {
	pool, err := p.derive(address.KindFundPool, address.String(disasterID), address.String(poolID))
	if err != nil {
		return nil, err
	}

	args := struct {
		DisasterID string
		PoolID     string
	}{disasterID, poolID}

	return p.instruction(IxLockPoolRegistration, solana.AccountMetaSlice{
		solana.Meta(pool).WRITE(),
		solana.Meta(authority).SIGNER().WRITE(),
	}, &args)
}

// ClaimDistribution pays a beneficiary everything currently claimable into
// their associated token account.
func (p *Program) ClaimDistribution(claimer solana.PublicKey, pool *model.FundPool) (*solana.GenericInstruction, error) {
	poolAddr, err := p.derive(address.KindFundPool, address.String(pool.DisasterID), address.String(pool.PoolID))
	if err != nil {
		return nil, err
	}
	vault, err := p.derive(address.KindPoolTokenAccount, address.String(pool.DisasterID), address.String(pool.PoolID))
	if err != nil {
		return nil, err
	}
	beneficiary, err := p.derive(address.KindBeneficiary, address.PublicKey(claimer), address.String(pool.DisasterID))
	if err != nil {
		return nil, err
	}
	dist, err := p.derive(address.KindDistribution, address.PublicKey(beneficiary), address.PublicKey(poolAddr))
	if err != nil {
		return nil, err
	}
	destination, _, err := solana.FindAssociatedTokenAddress(claimer, pool.TokenMint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive token account: %w", err)
	}

	args := struct {
		DisasterID string
		PoolID     string
	}{pool.DisasterID, pool.PoolID}

	return p.instruction(IxClaimDistribution, solana.AccountMetaSlice{
		solana.Meta(poolAddr).WRITE(),
		solana.Meta(vault).WRITE(),
		solana.Meta(dist).WRITE(),
		solana.Meta(beneficiary),
		solana.Meta(destination).WRITE(),
		solana.Meta(claimer).SIGNER().WRITE(),
		solana.Meta(solana.TokenProgramID),
	}, &args)
}

// ReclaimExpiredDistribution returns an unclaimed, expired allocation to its pool.
func (p *Program) ReclaimExpiredDistribution(authority solana.PublicKey, pool *model.FundPool, beneficiary solana.PublicKey) (*solana.GenericInstruction, error) {
	poolAddr, err := p.derive(address.KindFundPool, address.String(pool.DisasterID), address.String(pool.PoolID))
	if err != nil {
		return nil, err
	}
	dist, err := p.derive(address.KindDistribution, address.PublicKey(beneficiary), address.PublicKey(poolAddr))
	if err != nil {
		return nil, err
	}

	args := struct {
		DisasterID  string
		PoolID      string
		Beneficiary solana.PublicKey
	}{pool.DisasterID, pool.PoolID, beneficiary}

	return p.instruction(IxReclaimExpiredDistribution, solana.AccountMetaSlice{
		solana.Meta(poolAddr).WRITE(),
		solana.Meta(dist).WRITE(),
		solana.Meta(authority).SIGNER().WRITE(),
	}, &args)
}

// DonateToPool transfers amount base units from the donor's token account into
// the pool vault and writes a donation record keyed by ts.
func (p *Program) DonateToPool(donor solana.PublicKey, pool *model.FundPool, amount uint64, ts time.Time) (*solana.GenericInstruction, error) {
	if amount == 0 {
		return nil, fmt.Errorf("%w: donation must be positive", model.ErrInvalidAmount)
	}
	config, err := p.derive(address.KindPlatformConfig)
	if err != nil {
		return nil, err
	}
	poolAddr, err := p.derive(address.KindFundPool, address.String(pool.DisasterID), address.String(pool.PoolID))
	if err != nil {
		return nil, err
	}
	vault, err := p.derive(address.KindPoolTokenAccount, address.String(pool.DisasterID), address.String(pool.PoolID))
	if err != nil {
		return nil, err
	}
	record, err := p.derive(address.KindDonationRecord, address.PublicKey(donor), address.PublicKey(poolAddr), address.Time(ts))
	if err != nil {
		return nil, err
	}
	source, _, err := solana.FindAssociatedTokenAddress(donor, pool.TokenMint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive token account: %w", err)
	}

	args := struct {
		DisasterID string
		PoolID     string
		Amount     uint64
		Timestamp  int64
	}{pool.DisasterID, pool.PoolID, amount, ts.Unix()}

	return p.instruction(IxDonateToPool, solana.AccountMetaSlice{
		solana.Meta(config),
		solana.Meta(poolAddr).WRITE(),
		solana.Meta(vault).WRITE(),
		solana.Meta(source).WRITE(),
		solana.Meta(record).WRITE(),
		solana.Meta(donor).SIGNER().WRITE(),
		solana.Meta(solana.TokenProgramID),
		solana.Meta(solana.SystemProgramID),
	}, &args)
}
