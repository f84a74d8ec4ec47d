// Package ledger talks to the remote ledger: it sends signed program
// instructions and fetches account data.
package ledger

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// Client defines the contract for reaching the ledger.
// This interface allows for easy mocking in tests and swapping transports.
type Client interface {
	// SendInstruction signs and sends a single-instruction transaction with
	// the client's wallet as fee payer and returns its signature once
	// confirmed. Sends are never retried.
	SendInstruction(ctx context.Context, programID solana.PublicKey, accounts []*solana.AccountMeta, data []byte) (solana.Signature, error)
	// FetchAccount returns the raw account data at address, or nil and no
	// error if the account does not exist.
	FetchAccount(ctx context.Context, address solana.PublicKey) ([]byte, error)
	// Wallet is the public key that signs and pays for sends.
	Wallet() solana.PublicKey
}

// Account is an address and its raw data.
type Account struct {
	Data    []byte
	Address solana.PublicKey
}

// Memcmp matches accounts whose data contains Bytes at Offset.
type Memcmp struct {
	Bytes  []byte
	Offset uint64
}

// ProgramAccountLister is implemented by clients that can scan all accounts
// owned by a program.
type ProgramAccountLister interface {
	ListProgramAccounts(ctx context.Context, programID solana.PublicKey, filters ...Memcmp) ([]Account, error)
}
