package program

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/Veraticus/aidledger/internal/address"
	"github.com/Veraticus/aidledger/internal/model"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var programID = solana.MustPublicKeyFromBase58("11111111111111111111111111111111")

func TestInstructionDiscriminator(t *testing.T) {
	d := InstructionDiscriminator("initialize")
	assert.Equal(t, Discriminator{175, 175, 109, 31, 13, 152, 155, 237}, d)
	assert.NotEqual(t, InstructionDiscriminator(IxClaimDistribution), AccountDiscriminator(IxClaimDistribution))
}

func TestLockPoolRegistration(t *testing.T) {
	p := New(programID)
	authority := solana.NewWallet().PublicKey()

	ix, err := p.LockPoolRegistration(authority, "quake", "food")
	require.NoError(t, err)
	assert.Equal(t, programID, ix.ProgramID())

	data, err := ix.Data()
	require.NoError(t, err)
	disc := InstructionDiscriminator(IxLockPoolRegistration)
	want := append([]byte{}, disc[:]...)
	want = binary.LittleEndian.AppendUint32(want, 5)
	want = append(want, "quake"...)
	want = binary.LittleEndian.AppendUint32(want, 4)
	want = append(want, "food"...)
	assert.Equal(t, want, data)

	pool, err := address.FundPool(programID, "quake", "food")
	require.NoError(t, err)
	accounts := ix.Accounts()
	require.Len(t, accounts, 2)
	assert.Equal(t, pool.Key, accounts[0].PublicKey)
	assert.True(t, accounts[0].IsWritable)
	assert.False(t, accounts[0].IsSigner)
	assert.Equal(t, authority, accounts[1].PublicKey)
	assert.True(t, accounts[1].IsSigner)
}

func TestClaimDistribution_Accounts(t *testing.T) {
	p := New(programID)
	claimer := solana.NewWallet().PublicKey()
	pool := &model.FundPool{DisasterID: "flood", PoolID: "cash", TokenMint: solana.NewWallet().PublicKey()}

	ix, err := p.ClaimDistribution(claimer, pool)
	require.NoError(t, err)

	poolAddr, err := address.FundPool(programID, "flood", "cash")
	require.NoError(t, err)
	ben, err := address.Beneficiary(programID, claimer, "flood")
	require.NoError(t, err)
	dist, err := address.Distribution(programID, ben.Key, poolAddr.Key)
	require.NoError(t, err)

	accounts := ix.Accounts()
	require.Len(t, accounts, 7)
	assert.Equal(t, poolAddr.Key, accounts[0].PublicKey)
	assert.Equal(t, dist.Key, accounts[2].PublicKey)
	assert.Equal(t, ben.Key, accounts[3].PublicKey)
	assert.Equal(t, claimer, accounts[5].PublicKey)
	assert.True(t, accounts[5].IsSigner)
	assert.Equal(t, solana.TokenProgramID, accounts[6].PublicKey)
}

func TestFlagBeneficiary_ReasonBounds(t *testing.T) {
	p := New(programID)
	worker := solana.NewWallet().PublicKey()
	authority := solana.NewWallet().PublicKey()

	_, err := p.FlagBeneficiary(worker, authority, "flood", "")
	assert.Error(t, err)

	long := make([]byte, MaxFlagReasonLength+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = p.FlagBeneficiary(worker, authority, "flood", string(long))
	assert.Error(t, err)

	ix, err := p.FlagBeneficiary(worker, authority, "flood", "duplicate phone")
	require.NoError(t, err)
	assert.Len(t, ix.Accounts(), 4)
}

func TestReviewFlaggedBeneficiary_Outcome(t *testing.T) {
	p := New(programID)
	admin := solana.NewWallet().PublicKey()
	authority := solana.NewWallet().PublicKey()

	ix, err := p.ReviewFlaggedBeneficiary(admin, authority, "flood", model.VerificationRejected)
	require.NoError(t, err)
	data, err := ix.Data()
	require.NoError(t, err)
	assert.Equal(t, byte(3), data[len(data)-1])

	_, err = p.ReviewFlaggedBeneficiary(admin, authority, "flood", "Approved")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestDonateToPool(t *testing.T) {
	p := New(programID)
	pool := &model.FundPool{DisasterID: "flood", PoolID: "cash", TokenMint: solana.NewWallet().PublicKey()}

	_, err := p.DonateToPool(solana.NewWallet().PublicKey(), pool, 0, time.Now())
	assert.ErrorIs(t, err, model.ErrInvalidAmount)

	ix, err := p.DonateToPool(solana.NewWallet().PublicKey(), pool, 2_500_000, time.Unix(1718000000, 0))
	require.NoError(t, err)
	data, err := ix.Data()
	require.NoError(t, err)
	tail := data[len(data)-16:]
	assert.Equal(t, uint64(2_500_000), binary.LittleEndian.Uint64(tail[:8]))
	assert.Equal(t, uint64(1718000000), binary.LittleEndian.Uint64(tail[8:]))
}

func TestDistributionAccount(t *testing.T) {
	unlock := time.Unix(1718000000, 0).UTC()
	claimed := time.Unix(1717000000, 0).UTC()
	d := &model.Distribution{
		Beneficiary:     solana.NewWallet().PublicKey(),
		Pool:            solana.NewWallet().PublicKey(),
		AmountAllocated: 100,
		AmountImmediate: 70,
		AmountLocked:    30,
		AmountClaimed:   70,
		UnlockTime:      &unlock,
		ClaimedAt:       &claimed,
	}

	data, err := EncodeDistribution(d)
	require.NoError(t, err)

	// The pool key sits where sweep filters expect it.
	assert.Equal(t, d.Pool.Bytes(), data[DistributionPoolOffset:DistributionPoolOffset+32])

	addr := solana.NewWallet().PublicKey()
	got, err := DecodeDistribution(addr, data)
	require.NoError(t, err)
	assert.Equal(t, addr, got.Address)
	assert.Equal(t, uint64(70), got.AmountClaimed)
	require.NotNil(t, got.UnlockTime)
	assert.True(t, unlock.Equal(*got.UnlockTime))
	assert.Nil(t, got.ClaimDeadline)
	assert.Nil(t, got.ExpiredAt)

	_, err = DecodeFundPool(addr, data)
	assert.ErrorIs(t, err, ErrWrongAccountType)

	_, err = DecodeDistribution(addr, data[:4])
	assert.ErrorIs(t, err, ErrShortAccount)
}

func TestBeneficiaryAccount(t *testing.T) {
	flagger := solana.NewWallet().PublicKey()
	flaggedAt := time.Unix(1718000000, 0).UTC()
	b := &model.Beneficiary{
		Authority:    solana.NewWallet().PublicKey(),
		DisasterID:   "flood",
		Name:         "Asha",
		Location:     "Ward 4",
		PhoneNumber:  "+91 98470 00000",
		FamilySize:   5,
		RegisteredBy: solana.NewWallet().PublicKey(),
		RegisteredAt: time.Unix(1717000000, 0).UTC(),
		Verification: model.Verification{
			Status:        model.VerificationFlagged,
			Approvals:     []solana.PublicKey{solana.NewWallet().PublicKey()},
			FlaggedReason: "duplicate phone",
			FlaggedBy:     &flagger,
			FlaggedAt:     &flaggedAt,
		},
	}

	data, err := EncodeBeneficiary(b)
	require.NoError(t, err)
	got, err := DecodeBeneficiary(solana.PublicKey{}, data)
	require.NoError(t, err)

	assert.Equal(t, b.Verification.Status, got.Verification.Status)
	assert.Equal(t, b.Verification.Approvals, got.Verification.Approvals)
	assert.Equal(t, "duplicate phone", got.Verification.FlaggedReason)
	require.NotNil(t, got.Verification.FlaggedBy)
	assert.Equal(t, flagger, *got.Verification.FlaggedBy)
	assert.Nil(t, got.Verification.ReviewedBy)
	assert.Equal(t, uint8(5), got.FamilySize)
}
