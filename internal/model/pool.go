package model

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// FundPool holds donated tokens earmarked for one disaster and distributes
// them to registered beneficiaries once registration is locked.
type FundPool struct {
	CreatedAt          time.Time
	DisasterID         string
	PoolID             string
	Name               string
	TimeLock           time.Duration
	ClaimWindow        time.Duration
	TotalDeposited     uint64
	TotalDistributed   uint64
	TotalClaimed       uint64
	TotalReclaimed     uint64
	AvailableBalance   uint64
	TotalWeight        uint64
	BeneficiaryCount   uint32
	Address            solana.PublicKey
	Authority          solana.PublicKey
	TokenMint          solana.PublicKey
	TokenDecimals      uint8
	PctImmediate       uint8
	PctLocked          uint8
	RegistrationLocked bool
	IsActive           bool
}

// PoolRegistration records a beneficiary's enrolment in a pool and the weight
// used to size their allocation.
type PoolRegistration struct {
	RegisteredAt time.Time
	Pool         solana.PublicKey
	Beneficiary  solana.PublicKey
	Weight       uint64
}

// PlatformConfig is the singleton configuration account of the relief program.
type PlatformConfig struct {
	Admin                 solana.PublicKey
	MinDonation           uint64
	MaxDonation           uint64
	RequiredVerifications uint8
	MaxBatchSize          uint8
	Paused                bool
}

// Disaster is a relief event that pools and beneficiaries are scoped to.
type Disaster struct {
	DeclaredAt time.Time
	EventID    string
	Name       string
	Region     string
	Address    solana.PublicKey
	Authority  solana.PublicKey
	IsActive   bool
}

// NGO is an organisation that operates field workers and fund pools.
type NGO struct {
	Name        string
	Address     solana.PublicKey
	Authority   solana.PublicKey
	IsVerified  bool
	IsActive    bool
	Blacklisted bool
}

// FieldWorker is an actor who registers and approves beneficiaries.
type FieldWorker struct {
	Name          string
	Address       solana.PublicKey
	Authority     solana.PublicKey
	NGO           solana.PublicKey
	Verifications uint32
	Flags         uint32
	IsActive      bool
}

// DonationRecord captures a single donation into a pool or directly to a beneficiary.
type DonationRecord struct {
	Timestamp time.Time
	Address   solana.PublicKey
	Donor     solana.PublicKey
	Recipient solana.PublicKey
	Amount    uint64
}
