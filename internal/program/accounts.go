package program

import (
	"fmt"
	"time"

	"github.com/Veraticus/aidledger/internal/model"
	"github.com/gagliardetto/solana-go"
)

// Account type names, as hashed into their discriminators.
const (
	AccountPlatformConfig = "PlatformConfig"
	AccountBeneficiary    = "Beneficiary"
	AccountFundPool       = "FundPool"
	AccountDistribution   = "Distribution"
)

// DistributionPoolOffset is the byte offset of the pool key inside a
// Distribution account, for memcmp filters.
const DistributionPoolOffset = DiscriminatorLength + 32

var statusCodes = []model.VerificationStatus{
	model.VerificationPending,
	model.VerificationVerified,
	model.VerificationFlagged,
	model.VerificationRejected,
}

func statusFromCode(c uint8) (model.VerificationStatus, error) {
	if int(c) >= len(statusCodes) {
		return "", fmt.Errorf("%w: verification %d", ErrUnknownStatus, c)
	}
	return statusCodes[c], nil
}

func statusToCode(s model.VerificationStatus) (uint8, error) {
	for i, v := range statusCodes {
		if v == s {
			return uint8(i), nil
		}
	}
	return 0, fmt.Errorf("%w: verification %q", ErrUnknownStatus, s)
}

type platformConfigAccount struct {
	Admin                 solana.PublicKey
	MinDonation           uint64
	MaxDonation           uint64
	RequiredVerifications uint8
	MaxBatchSize          uint8
	Paused                bool
	Bump                  uint8
}

type beneficiaryAccount struct {
	Authority     solana.PublicKey
	DisasterID    string
	Name          string
	PhoneNumber   string
	Location      string
	FamilySize    uint8
	Status        uint8
	Verifiers     []solana.PublicKey
	RegisteredBy  solana.PublicKey
	RegisteredAt  int64
	FlaggedReason *string           `bin:"optional"`
	FlaggedBy     *solana.PublicKey `bin:"optional"`
	FlaggedAt     *int64            `bin:"optional"`
	ReviewedBy    *solana.PublicKey `bin:"optional"`
	Bump          uint8
}

type fundPoolAccount struct {
	DisasterID         string
	PoolID             string
	Name               string
	Authority          solana.PublicKey
	TokenMint          solana.PublicKey
	TokenDecimals      uint8
	PctImmediate       uint8
	PctLocked          uint8
	TimeLockSeconds    int64
	ClaimWindowSeconds int64
	TotalDeposited     uint64
	TotalDistributed   uint64
	TotalClaimed       uint64
	TotalReclaimed     uint64
	AvailableBalance   uint64
	TotalWeight        uint64
	BeneficiaryCount   uint32
	RegistrationLocked bool
	IsActive           bool
	CreatedAt          int64
	Bump               uint8
}

type distributionAccount struct {
	Beneficiary     solana.PublicKey
	Pool            solana.PublicKey
	AmountAllocated uint64
	AmountImmediate uint64
	AmountLocked    uint64
	AmountClaimed   uint64
	UnlockTime      *int64 `bin:"optional"`
	ClaimDeadline   *int64 `bin:"optional"`
	ClaimedAt       *int64 `bin:"optional"`
	LockedClaimedAt *int64 `bin:"optional"`
	IsFullyClaimed  bool
	IsExpired       bool
	ExpiredAt       *int64 `bin:"optional"`
	Bump            uint8
}

// DecodePlatformConfig decodes the singleton configuration account.
func DecodePlatformConfig(data []byte) (*model.PlatformConfig, error) {
	var raw platformConfigAccount
	if err := decodeAccount(AccountPlatformConfig, data, &raw); err != nil {
		return nil, err
	}
	return &model.PlatformConfig{
		Admin:                 raw.Admin,
		MinDonation:           raw.MinDonation,
		MaxDonation:           raw.MaxDonation,
		RequiredVerifications: raw.RequiredVerifications,
		MaxBatchSize:          raw.MaxBatchSize,
		Paused:                raw.Paused,
	}, nil
}

// DecodeBeneficiary decodes a beneficiary account stored at addr.
func DecodeBeneficiary(addr solana.PublicKey, data []byte) (*model.Beneficiary, error) {
	var raw beneficiaryAccount
	if err := decodeAccount(AccountBeneficiary, data, &raw); err != nil {
		return nil, err
	}
	status, err := statusFromCode(raw.Status)
	if err != nil {
		return nil, err
	}

	b := &model.Beneficiary{
		Address:      addr,
		Authority:    raw.Authority,
		DisasterID:   raw.DisasterID,
		Name:         raw.Name,
		PhoneNumber:  raw.PhoneNumber,
		Location:     raw.Location,
		FamilySize:   raw.FamilySize,
		RegisteredBy: raw.RegisteredBy,
		RegisteredAt: unixTime(raw.RegisteredAt),
		Verification: model.Verification{
			Status:     status,
			Approvals:  raw.Verifiers,
			FlaggedBy:  raw.FlaggedBy,
			FlaggedAt:  optionalTime(raw.FlaggedAt),
			ReviewedBy: raw.ReviewedBy,
		},
	}
	if raw.FlaggedReason != nil {
		b.Verification.FlaggedReason = *raw.FlaggedReason
	}
	return b, nil
}

// EncodeBeneficiary is the inverse of DecodeBeneficiary. It is used to seed
// local caches and fixtures.
func EncodeBeneficiary(b *model.Beneficiary) ([]byte, error) {
	status, err := statusToCode(b.Verification.Status)
	if err != nil {
		return nil, err
	}
	raw := beneficiaryAccount{
		Authority:    b.Authority,
		DisasterID:   b.DisasterID,
		Name:         b.Name,
		PhoneNumber:  b.PhoneNumber,
		Location:     b.Location,
		FamilySize:   b.FamilySize,
		Status:       status,
		Verifiers:    b.Verification.Approvals,
		RegisteredBy: b.RegisteredBy,
		RegisteredAt: b.RegisteredAt.Unix(),
		FlaggedBy:    b.Verification.FlaggedBy,
		FlaggedAt:    optionalUnix(b.Verification.FlaggedAt),
		ReviewedBy:   b.Verification.ReviewedBy,
	}
	if raw.Verifiers == nil {
		raw.Verifiers = []solana.PublicKey{}
	}
	if b.Verification.FlaggedReason != "" {
		reason := b.Verification.FlaggedReason
		raw.FlaggedReason = &reason
	}
	return encodeAccount(AccountBeneficiary, &raw)
}

// DecodeFundPool decodes a fund pool account stored at addr.
func DecodeFundPool(addr solana.PublicKey, data []byte) (*model.FundPool, error) {
	var raw fundPoolAccount
	if err := decodeAccount(AccountFundPool, data, &raw); err != nil {
		return nil, err
	}
	return &model.FundPool{
		Address:            addr,
		DisasterID:         raw.DisasterID,
		PoolID:             raw.PoolID,
		Name:               raw.Name,
		Authority:          raw.Authority,
		TokenMint:          raw.TokenMint,
		TokenDecimals:      raw.TokenDecimals,
		PctImmediate:       raw.PctImmediate,
		PctLocked:          raw.PctLocked,
		TimeLock:           time.Duration(raw.TimeLockSeconds) * time.Second,
		ClaimWindow:        time.Duration(raw.ClaimWindowSeconds) * time.Second,
		TotalDeposited:     raw.TotalDeposited,
		TotalDistributed:   raw.TotalDistributed,
		TotalClaimed:       raw.TotalClaimed,
		TotalReclaimed:     raw.TotalReclaimed,
		AvailableBalance:   raw.AvailableBalance,
		TotalWeight:        raw.TotalWeight,
		BeneficiaryCount:   raw.BeneficiaryCount,
		RegistrationLocked: raw.RegistrationLocked,
		IsActive:           raw.IsActive,
		CreatedAt:          unixTime(raw.CreatedAt),
	}, nil
}

// EncodeFundPool is the inverse of DecodeFundPool.
func EncodeFundPool(p *model.FundPool) ([]byte, error) {
	return encodeAccount(AccountFundPool, &fundPoolAccount{
		DisasterID:         p.DisasterID,
		PoolID:             p.PoolID,
		Name:               p.Name,
		Authority:          p.Authority,
		TokenMint:          p.TokenMint,
		TokenDecimals:      p.TokenDecimals,
		PctImmediate:       p.PctImmediate,
		PctLocked:          p.PctLocked,
		TimeLockSeconds:    int64(p.TimeLock / time.Second),
		ClaimWindowSeconds: int64(p.ClaimWindow / time.Second),
		TotalDeposited:     p.TotalDeposited,
		TotalDistributed:   p.TotalDistributed,
		TotalClaimed:       p.TotalClaimed,
		TotalReclaimed:     p.TotalReclaimed,
		AvailableBalance:   p.AvailableBalance,
		TotalWeight:        p.TotalWeight,
		BeneficiaryCount:   p.BeneficiaryCount,
		RegistrationLocked: p.RegistrationLocked,
		IsActive:           p.IsActive,
		CreatedAt:          p.CreatedAt.Unix(),
	})
}

// DecodeDistribution decodes a distribution account stored at addr.
func DecodeDistribution(addr solana.PublicKey, data []byte) (*model.Distribution, error) {
	var raw distributionAccount
	if err := decodeAccount(AccountDistribution, data, &raw); err != nil {
		return nil, err
	}
	return &model.Distribution{
		Address:         addr,
		Beneficiary:     raw.Beneficiary,
		Pool:            raw.Pool,
		AmountAllocated: raw.AmountAllocated,
		AmountImmediate: raw.AmountImmediate,
		AmountLocked:    raw.AmountLocked,
		AmountClaimed:   raw.AmountClaimed,
		UnlockTime:      optionalTime(raw.UnlockTime),
		ClaimDeadline:   optionalTime(raw.ClaimDeadline),
		ClaimedAt:       optionalTime(raw.ClaimedAt),
		LockedClaimedAt: optionalTime(raw.LockedClaimedAt),
		IsFullyClaimed:  raw.IsFullyClaimed,
		IsExpired:       raw.IsExpired,
		ExpiredAt:       optionalTime(raw.ExpiredAt),
	}, nil
}

// EncodeDistribution is the inverse of DecodeDistribution.
func EncodeDistribution(d *model.Distribution) ([]byte, error) {
	return encodeAccount(AccountDistribution, &distributionAccount{
		Beneficiary:     d.Beneficiary,
		Pool:            d.Pool,
		AmountAllocated: d.AmountAllocated,
		AmountImmediate: d.AmountImmediate,
		AmountLocked:    d.AmountLocked,
		AmountClaimed:   d.AmountClaimed,
		UnlockTime:      optionalUnix(d.UnlockTime),
		ClaimDeadline:   optionalUnix(d.ClaimDeadline),
		ClaimedAt:       optionalUnix(d.ClaimedAt),
		LockedClaimedAt: optionalUnix(d.LockedClaimedAt),
		IsFullyClaimed:  d.IsFullyClaimed,
		IsExpired:       d.IsExpired,
		ExpiredAt:       optionalUnix(d.ExpiredAt),
	})
}

// EncodePlatformConfig is the inverse of DecodePlatformConfig.
func EncodePlatformConfig(c *model.PlatformConfig) ([]byte, error) {
	return encodeAccount(AccountPlatformConfig, &platformConfigAccount{
		Admin:                 c.Admin,
		MinDonation:           c.MinDonation,
		MaxDonation:           c.MaxDonation,
		RequiredVerifications: c.RequiredVerifications,
		MaxBatchSize:          c.MaxBatchSize,
		Paused:                c.Paused,
	})
}
