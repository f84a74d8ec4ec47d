package address

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// PlatformConfig derives the singleton configuration account.
func PlatformConfig(program solana.PublicKey) (Address, error) {
	return Derive(program, KindPlatformConfig)
}

// Disaster derives a disaster event account.
func Disaster(program solana.PublicKey, eventID string) (Address, error) {
	return Derive(program, KindDisaster, String(eventID))
}

// NGO derives an NGO account from its authority.
func NGO(program, authority solana.PublicKey) (Address, error) {
	return Derive(program, KindNGO, PublicKey(authority))
}

// FieldWorker derives a field worker account from its authority.
func FieldWorker(program, authority solana.PublicKey) (Address, error) {
	return Derive(program, KindFieldWorker, PublicKey(authority))
}

// Beneficiary derives a beneficiary account, scoped to one disaster.
func Beneficiary(program, authority solana.PublicKey, disasterID string) (Address, error) {
	return Derive(program, KindBeneficiary, PublicKey(authority), String(disasterID))
}

// FundPool derives a fund pool account.
func FundPool(program solana.PublicKey, disasterID, poolID string) (Address, error) {
	return Derive(program, KindFundPool, String(disasterID), String(poolID))
}

// PoolTokenAccount derives the token vault owned by a fund pool.
func PoolTokenAccount(program solana.PublicKey, disasterID, poolID string) (Address, error) {
	return Derive(program, KindPoolTokenAccount, String(disasterID), String(poolID))
}

// Distribution derives a beneficiary's distribution from a pool.
func Distribution(program, beneficiary, pool solana.PublicKey) (Address, error) {
	return Derive(program, KindDistribution, PublicKey(beneficiary), PublicKey(pool))
}

// DonationRecord derives the record of a donation made at ts.
func DonationRecord(program, donor, recipient solana.PublicKey, ts time.Time) (Address, error) {
	return Derive(program, KindDonationRecord, PublicKey(donor), PublicKey(recipient), Time(ts))
}

// AdminAction derives the audit record of an administrator action.
func AdminAction(program, admin solana.PublicKey, ts time.Time) (Address, error) {
	return Derive(program, KindAdminAction, PublicKey(admin), Time(ts))
}

// ActivityLog derives an actor's activity log entry.
func ActivityLog(program, actor solana.PublicKey, ts time.Time) (Address, error) {
	return Derive(program, KindActivityLog, PublicKey(actor), Time(ts))
}

// PhoneRegistry derives the uniqueness marker for a phone number within a disaster.
func PhoneRegistry(program solana.PublicKey, disasterID, phone string) (Address, error) {
	return Derive(program, KindPhoneRegistry, String(disasterID), String(phone))
}

// NationalIDRegistry derives the uniqueness marker for a national id within a disaster.
func NationalIDRegistry(program solana.PublicKey, disasterID, nationalID string) (Address, error) {
	return Derive(program, KindNationalIDRegistry, String(disasterID), String(nationalID))
}

// PoolRegistration derives a beneficiary's enrolment in a pool.
func PoolRegistration(program, pool, beneficiary solana.PublicKey) (Address, error) {
	return Derive(program, KindPoolRegistration, PublicKey(pool), PublicKey(beneficiary))
}

// PoolActivityLog derives a pool's activity log entry.
func PoolActivityLog(program, pool solana.PublicKey, ts time.Time) (Address, error) {
	return Derive(program, KindPoolActivityLog, PublicKey(pool), Time(ts))
}
